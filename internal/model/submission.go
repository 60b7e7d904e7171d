package model

import (
	"time"

	"gorm.io/gorm"
)

// Submission 参赛作品（Work）
type Submission struct {
	ID string `json:"id" gorm:"primaryKey;type:varchar(36)"`
	// 一人一稿：唯一索引才是最终保证，写入前的计数查询只是提前提示
	OwnerID     string           `json:"-" gorm:"<-:create;type:varchar(64);not null;uniqueIndex:ux_submission_owner"`
	Title       string           `json:"title" gorm:"type:varchar(200);not null"`
	AuthorName  string           `json:"author_name" gorm:"type:varchar(100);not null"`
	Description string           `json:"description" gorm:"type:text;not null"`
	DemoURL     string           `json:"demo_url" gorm:"type:text;not null"`
	YoutubeURL  *string          `json:"youtube_url" gorm:"type:text"`
	ImageURL    *string          `json:"image_url" gorm:"type:text"`
	ImageURLs   []string         `json:"image_urls" gorm:"serializer:json;type:text"`
	Status      SubmissionStatus `json:"status" gorm:"type:varchar(16);not null;index:idx_submission_status"`
	ReviewNote  *string          `json:"review_note" gorm:"type:text"`
	ReviewedAt  *time.Time       `json:"reviewed_at"`
	ReviewedBy  *string          `json:"reviewed_by,omitempty" gorm:"type:varchar(64)"`
	CreatedAt   time.Time        `json:"created_at" gorm:"<-:create;index"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

func (Submission) TableName() string { return "submissions" }

// SetImages 同步 image_urls 与派生字段 image_url
func (s *Submission) SetImages(urls []string) {
	s.ImageURLs = append([]string{}, urls...)
	s.syncImageURL()
}

func (s *Submission) syncImageURL() {
	if s.ImageURLs == nil {
		s.ImageURLs = []string{}
	}
	if len(s.ImageURLs) == 0 {
		s.ImageURL = nil
		return
	}
	first := s.ImageURLs[0]
	s.ImageURL = &first
}

// BeforeSave 写库前保证 image_url == image_urls[0]
func (s *Submission) BeforeSave(tx *gorm.DB) error {
	s.syncImageURL()
	return nil
}

// ClearReview 清空审核信息（重新进入 pending 时使用）
func (s *Submission) ClearReview() {
	s.ReviewNote = nil
	s.ReviewedAt = nil
	s.ReviewedBy = nil
}

// SubmissionWithVotes 作者视角：作品 + 实时票数
type SubmissionWithVotes struct {
	Submission
	VoteCount int64 `json:"vote_count"`
}

// WorkView 画廊视角；HasVoted 针对当前查看者
type WorkView struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	AuthorName  string    `json:"author_name"`
	Description string    `json:"description"`
	DemoURL     string    `json:"demo_url"`
	YoutubeURL  *string   `json:"youtube_url"`
	ImageURL    *string   `json:"image_url"`
	ImageURLs   []string  `json:"image_urls"`
	CreatedAt   time.Time `json:"created_at"`
	VoteCount   int64     `json:"vote_count"`
	HasVoted    bool      `json:"has_voted"`
}

// NewWorkView 从作品构造画廊视图
func NewWorkView(s *Submission, voteCount int64) WorkView {
	return WorkView{
		ID:          s.ID,
		Title:       s.Title,
		AuthorName:  s.AuthorName,
		Description: s.Description,
		DemoURL:     s.DemoURL,
		YoutubeURL:  s.YoutubeURL,
		ImageURL:    s.ImageURL,
		ImageURLs:   s.ImageURLs,
		CreatedAt:   s.CreatedAt,
		VoteCount:   voteCount,
	}
}
