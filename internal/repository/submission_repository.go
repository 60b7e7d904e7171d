package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/d60-Lab/gin-contest/internal/model"
)

// SubmissionRepository 作品仓储接口
type SubmissionRepository interface {
	// CountByOwner 统计作者已有作品数（仅作提前提示）
	CountByOwner(ctx context.Context, ownerID string) (int64, error)

	// Create 创建作品；唯一约束冲突返回 ErrDuplicate
	Create(ctx context.Context, s *model.Submission) error

	// GetByID 根据ID查询作品
	GetByID(ctx context.Context, id string) (*model.Submission, error)

	// UpdateContent 作者编辑：只更新属于 owner 的那一行
	UpdateContent(ctx context.Context, s *model.Submission) error

	// UpdateReview 审核：仅当当前状态仍为 from 时生效
	UpdateReview(ctx context.Context, id string, from, to model.SubmissionStatus, reviewer string, note *string, at time.Time) error

	// ListByOwner 作者的作品，新的在前
	ListByOwner(ctx context.Context, ownerID string) ([]*model.Submission, error)

	// ListByStatus 按状态列出，新的在前
	ListByStatus(ctx context.Context, status model.SubmissionStatus) ([]*model.Submission, error)
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository 创建作品仓储
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) CountByOwner(ctx context.Context, ownerID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.Submission{}).Where("owner_id = ?", ownerID).Count(&count).Error
	return count, err
}

func (r *submissionRepository) Create(ctx context.Context, s *model.Submission) error {
	if err := r.db.WithContext(ctx).Create(s).Error; err != nil {
		if IsDuplicate(err) {
			return ErrDuplicate
		}
		return err
	}
	return nil
}

func (r *submissionRepository) GetByID(ctx context.Context, id string) (*model.Submission, error) {
	var s model.Submission
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&s).Error; err != nil {
		return nil, notFound(err)
	}
	return &s, nil
}

// 编辑会写入的列；owner_id 与 created_at 永不更新
var contentColumns = []string{
	"title", "author_name", "description", "demo_url", "youtube_url",
	"image_url", "image_urls", "status", "review_note", "reviewed_at", "reviewed_by", "updated_at",
}

func (r *submissionRepository) UpdateContent(ctx context.Context, s *model.Submission) error {
	res := r.db.WithContext(ctx).
		Model(s).
		Where("owner_id = ?", s.OwnerID).
		Select(contentColumns).
		Updates(s)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *submissionRepository) UpdateReview(ctx context.Context, id string, from, to model.SubmissionStatus, reviewer string, note *string, at time.Time) error {
	res := r.db.WithContext(ctx).
		Model(&model.Submission{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{
			"status":      to,
			"review_note": note,
			"reviewed_at": at,
			"reviewed_by": reviewer,
			"updated_at":  at,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return ErrStaleState
	}
	return nil
}

func (r *submissionRepository) ListByOwner(ctx context.Context, ownerID string) ([]*model.Submission, error) {
	var res []*model.Submission
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&res).Error
	return res, err
}

func (r *submissionRepository) ListByStatus(ctx context.Context, status model.SubmissionStatus) ([]*model.Submission, error) {
	var res []*model.Submission
	err := r.db.WithContext(ctx).
		Where("status = ?", status).
		Order("created_at DESC").
		Find(&res).Error
	return res, err
}
