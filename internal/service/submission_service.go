package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/d60-Lab/gin-contest/internal/apperr"
	"github.com/d60-Lab/gin-contest/internal/cache"
	"github.com/d60-Lab/gin-contest/internal/deadline"
	"github.com/d60-Lab/gin-contest/internal/identity"
	"github.com/d60-Lab/gin-contest/internal/model"
	"github.com/d60-Lab/gin-contest/internal/repository"
	"github.com/d60-Lab/gin-contest/pkg/logger"
)

// SubmissionFields 投稿与编辑共用的请求体
type SubmissionFields struct {
	Title       string   `json:"title" validate:"required,max=200"`
	AuthorName  string   `json:"author_name" validate:"required,max=100"`
	Description string   `json:"description" validate:"required"`
	DemoURL     string   `json:"demo_url" validate:"required,absurl"`
	YoutubeURL  *string  `json:"youtube_url" validate:"omitempty,absurl"`
	ImageURL    *string  `json:"image_url" validate:"omitempty,absurl"`
	ImageURLs   []string `json:"image_urls" validate:"omitempty,dive,absurl"`
}

func trimmedOrNil(p *string) *string {
	if p == nil {
		return nil
	}
	v := strings.TrimSpace(*p)
	if v == "" {
		return nil
	}
	return &v
}

// normalize 去空白；只给 image_url 时视为单图列表
func (f SubmissionFields) normalize() SubmissionFields {
	f.Title = strings.TrimSpace(f.Title)
	f.AuthorName = strings.TrimSpace(f.AuthorName)
	f.Description = strings.TrimSpace(f.Description)
	f.DemoURL = strings.TrimSpace(f.DemoURL)
	f.YoutubeURL = trimmedOrNil(f.YoutubeURL)
	f.ImageURL = trimmedOrNil(f.ImageURL)

	urls := make([]string, 0, len(f.ImageURLs))
	for _, u := range f.ImageURLs {
		if u = strings.TrimSpace(u); u != "" {
			urls = append(urls, u)
		}
	}
	if len(urls) == 0 && f.ImageURL != nil {
		urls = append(urls, *f.ImageURL)
	}
	f.ImageURLs = urls
	return f
}

func (f SubmissionFields) apply(s *model.Submission) {
	s.Title = f.Title
	s.AuthorName = f.AuthorName
	s.Description = f.Description
	s.DemoURL = f.DemoURL
	s.YoutubeURL = f.YoutubeURL
	s.SetImages(f.ImageURLs)
}

// ReviewDecision 审核结果
type ReviewDecision struct {
	Decision model.SubmissionStatus `json:"decision"`
	Note     *string                `json:"note"`
}

// SubmissionService 投稿生命周期
type SubmissionService interface {
	Create(ctx context.Context, owner identity.UserID, f SubmissionFields) (*model.Submission, error)
	Edit(ctx context.Context, owner identity.UserID, id string, f SubmissionFields) (*model.Submission, error)
	List(ctx context.Context, owner identity.UserID) ([]model.SubmissionWithVotes, error)
	Review(ctx context.Context, reviewer identity.UserID, id string, d ReviewDecision) (*model.Submission, error)
	Gallery(ctx context.Context, viewer identity.UserID) ([]model.WorkView, error)
	GetWork(ctx context.Context, id string, viewer identity.UserID) (*model.WorkView, error)
}

type submissionService struct {
	subs     repository.SubmissionRepository
	votes    repository.VoteRepository
	notifier NotificationService
	gate     *deadline.Gate
	gallery  cache.GalleryCache
	validate *validator.Validate
	now      func() time.Time
}

func NewSubmissionService(
	subs repository.SubmissionRepository,
	votes repository.VoteRepository,
	notifier NotificationService,
	gate *deadline.Gate,
	gallery cache.GalleryCache,
) SubmissionService {
	if gallery == nil {
		gallery = cache.Noop{}
	}
	return &submissionService{
		subs:     subs,
		votes:    votes,
		notifier: notifier,
		gate:     gate,
		gallery:  gallery,
		validate: newValidator(),
		now:      time.Now,
	}
}

func (s *submissionService) check(f SubmissionFields) (SubmissionFields, error) {
	f = f.normalize()
	if err := s.validate.Struct(f); err != nil {
		return f, translateValidation(err)
	}
	return f, nil
}

func (s *submissionService) Create(ctx context.Context, owner identity.UserID, f SubmissionFields) (*model.Submission, error) {
	if err := s.gate.Check(); err != nil {
		return nil, err
	}
	f, err := s.check(f)
	if err != nil {
		return nil, err
	}

	// 计数只是提前给出友好提示；两个并发的首次投稿都会通过这里，
	// 最终由 submissions.owner_id 的唯一索引裁决
	n, err := s.subs.CountByOwner(ctx, string(owner))
	if err != nil {
		return nil, apperr.Upstream("failed to check existing submission", err)
	}
	if n > 0 {
		return nil, ErrAlreadySubmitted
	}

	sub := &model.Submission{
		ID:      uuid.New().String(),
		OwnerID: string(owner),
		Status:  model.StatusPending,
	}
	f.apply(sub)

	if err := s.subs.Create(ctx, sub); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, ErrAlreadySubmitted.Wrap(err)
		}
		return nil, apperr.Upstream("failed to create submission", err)
	}

	logger.Info("submission created", zap.String("id", sub.ID), zap.String("owner", sub.OwnerID))
	s.notifier.Notify(ctx, owner, "投稿成功", "你的作品已送出，正在等待審核。")
	return sub, nil
}

// Edit 任何编辑都回到 pending 并清空审核信息，审核者不会看到针对旧内容的通过
func (s *submissionService) Edit(ctx context.Context, owner identity.UserID, id string, f SubmissionFields) (*model.Submission, error) {
	if err := s.gate.Check(); err != nil {
		return nil, err
	}
	f, err := s.check(f)
	if err != nil {
		return nil, err
	}

	sub, err := s.subs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, apperr.Upstream("failed to load submission", err)
	}
	// 不区分“不存在”和“不是你的”
	if sub.OwnerID != string(owner) {
		return nil, ErrSubmissionNotFound
	}
	if !model.CanTransition(sub.Status, model.StatusPending, model.TriggerOwnerEdit) {
		return nil, ErrInvalidTransition
	}
	wasApproved := sub.Status == model.StatusApproved

	f.apply(sub)
	sub.Status = model.StatusPending
	sub.ClearReview()
	sub.UpdatedAt = s.now()

	if err := s.subs.UpdateContent(ctx, sub); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, apperr.Upstream("failed to update submission", err)
	}

	if wasApproved {
		s.gallery.Invalidate(ctx)
	}
	s.notifier.Notify(ctx, owner, "作品已更新", "你的作品已更新，將重新進入審核。")
	return sub, nil
}

func (s *submissionService) List(ctx context.Context, owner identity.UserID) ([]model.SubmissionWithVotes, error) {
	subs, err := s.subs.ListByOwner(ctx, string(owner))
	if err != nil {
		return nil, apperr.Upstream("failed to list submissions", err)
	}
	counts, err := s.votes.CountByWorks(ctx, submissionIDs(subs))
	if err != nil {
		return nil, apperr.Upstream("failed to count votes", err)
	}

	res := make([]model.SubmissionWithVotes, len(subs))
	for i, sub := range subs {
		res[i] = model.SubmissionWithVotes{Submission: *sub, VoteCount: counts[sub.ID]}
	}
	return res, nil
}

func (s *submissionService) Review(ctx context.Context, reviewer identity.UserID, id string, d ReviewDecision) (*model.Submission, error) {
	if d.Decision != model.StatusApproved && d.Decision != model.StatusRejected {
		return nil, ErrInvalidDecision
	}

	sub, err := s.subs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrSubmissionNotFound
		}
		return nil, apperr.Upstream("failed to load submission", err)
	}
	if !model.CanTransition(sub.Status, d.Decision, model.TriggerReview) {
		return nil, ErrInvalidTransition
	}

	note := trimmedOrNil(d.Note)
	at := s.now()
	if err := s.subs.UpdateReview(ctx, id, sub.Status, d.Decision, string(reviewer), note, at); err != nil {
		if errors.Is(err, repository.ErrStaleState) {
			return nil, ErrInvalidTransition
		}
		return nil, apperr.Upstream("failed to review submission", err)
	}

	by := string(reviewer)
	sub.Status = d.Decision
	sub.ReviewNote = note
	sub.ReviewedAt = &at
	sub.ReviewedBy = &by
	sub.UpdatedAt = at

	s.gallery.Invalidate(ctx)
	title, body := "審核通過", "你的作品已通過審核，已在作品牆公開。"
	if d.Decision == model.StatusRejected {
		title, body = "審核未通過", "你的作品未通過審核，可以修改後重新送出。"
	}
	if note != nil {
		body += "\n審核備註：" + *note
	}
	s.notifier.Notify(ctx, identity.UserID(sub.OwnerID), title, body)
	return sub, nil
}

func (s *submissionService) approvedWorks(ctx context.Context) ([]model.WorkView, error) {
	cached, gen, ok := s.gallery.Get(ctx)
	if ok {
		return cached, nil
	}

	subs, err := s.subs.ListByStatus(ctx, model.StatusApproved)
	if err != nil {
		return nil, apperr.Upstream("failed to list works", err)
	}
	counts, err := s.votes.CountByWorks(ctx, submissionIDs(subs))
	if err != nil {
		return nil, apperr.Upstream("failed to count votes", err)
	}

	views := make([]model.WorkView, len(subs))
	for i, sub := range subs {
		views[i] = model.NewWorkView(sub, counts[sub.ID])
	}
	s.gallery.Set(ctx, gen, views)
	return views, nil
}

// Gallery 已通过作品，新的在前；viewer 非空时标出其已投的作品
func (s *submissionService) Gallery(ctx context.Context, viewer identity.UserID) ([]model.WorkView, error) {
	views, err := s.approvedWorks(ctx)
	if err != nil {
		return nil, err
	}
	if viewer == "" || len(views) == 0 {
		return views, nil
	}

	ids := make([]string, len(views))
	for i := range views {
		ids[i] = views[i].ID
	}
	voted, err := s.votes.VotedWorks(ctx, string(viewer), ids)
	if err != nil {
		return nil, apperr.Upstream("failed to load vote state", err)
	}
	out := make([]model.WorkView, len(views))
	for i, v := range views {
		v.HasVoted = voted[v.ID]
		out[i] = v
	}
	return out, nil
}

// GetWork 单个作品的权威票数，不走缓存
func (s *submissionService) GetWork(ctx context.Context, id string, viewer identity.UserID) (*model.WorkView, error) {
	sub, err := s.subs.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrWorkNotFound
		}
		return nil, apperr.Upstream("failed to load work", err)
	}
	if sub.Status != model.StatusApproved {
		return nil, ErrWorkNotFound
	}

	count, err := s.votes.CountByWork(ctx, id)
	if err != nil {
		return nil, apperr.Upstream("failed to count votes", err)
	}
	view := model.NewWorkView(sub, count)
	if viewer != "" {
		if view.HasVoted, err = s.votes.Exists(ctx, string(viewer), id); err != nil {
			return nil, apperr.Upstream("failed to load vote state", err)
		}
	}
	return &view, nil
}

func submissionIDs(subs []*model.Submission) []string {
	ids := make([]string, len(subs))
	for i, sub := range subs {
		ids[i] = sub.ID
	}
	return ids
}
