package service

import (
	"context"
	"errors"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/d60-Lab/gin-contest/internal/apperr"
	"github.com/d60-Lab/gin-contest/internal/cache"
	"github.com/d60-Lab/gin-contest/internal/deadline"
	"github.com/d60-Lab/gin-contest/internal/identity"
	"github.com/d60-Lab/gin-contest/internal/repository"
	"github.com/d60-Lab/gin-contest/pkg/logger"
)

var tracer = otel.Tracer("github.com/d60-Lab/gin-contest/internal/service")

// ToggleResult voteCount 是权威值，客户端必须以它覆盖本地估计
type ToggleResult struct {
	IsVoted   bool  `json:"isVoted"`
	VoteCount int64 `json:"voteCount"`
	// Replayed 同一 Idempotency-Key 的重试，返回的是首次结果
	Replayed bool `json:"-"`
}

// VoteService 投票账本
type VoteService interface {
	// Toggle 翻转投票；idempotencyKey 为空时每次调用都是一次字面翻转
	Toggle(ctx context.Context, voter identity.UserID, workID, idempotencyKey string) (ToggleResult, error)
	// State 当前投票状态，不限作品审核状态；截止后仍可读取
	State(ctx context.Context, voter identity.UserID, workID string) (ToggleResult, error)
}

type voteService struct {
	votes   repository.VoteRepository
	subs    repository.SubmissionRepository
	gate    *deadline.Gate
	gallery cache.GalleryCache
}

func NewVoteService(votes repository.VoteRepository, subs repository.SubmissionRepository, gate *deadline.Gate, gallery cache.GalleryCache) VoteService {
	if gallery == nil {
		gallery = cache.Noop{}
	}
	return &voteService{votes: votes, subs: subs, gate: gate, gallery: gallery}
}

func (s *voteService) Toggle(ctx context.Context, voter identity.UserID, workID, idempotencyKey string) (ToggleResult, error) {
	ctx, span := tracer.Start(ctx, "vote.toggle",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("work.id", workID), attribute.Bool("vote.idempotent", idempotencyKey != "")),
	)
	defer span.End()

	res, err := s.toggle(ctx, voter, workID, idempotencyKey)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, apperr.KindOf(err).String())
		return res, err
	}
	span.SetAttributes(attribute.Bool("vote.is_voted", res.IsVoted), attribute.Int64("vote.count", res.VoteCount))
	return res, nil
}

func (s *voteService) toggle(ctx context.Context, voter identity.UserID, workID, key string) (ToggleResult, error) {
	// 截止判断放在账本内部，调用方是否检查过都不算数
	if err := s.gate.Check(); err != nil {
		return ToggleResult{}, err
	}

	if _, err := s.subs.GetByID(ctx, workID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ToggleResult{}, ErrWorkNotFound
		}
		return ToggleResult{}, apperr.Upstream("failed to load work", err)
	}

	var (
		res ToggleResult
		err error
	)
	if key == "" {
		res.IsVoted, err = s.votes.Toggle(ctx, string(voter), workID)
	} else {
		res.IsVoted, res.Replayed, err = s.votes.ToggleOnce(ctx, string(voter), workID, key)
	}
	if err != nil {
		if errors.Is(err, repository.ErrReceiptMismatch) {
			return ToggleResult{}, ErrIdempotencyKeyReused
		}
		return ToggleResult{}, apperr.Upstream("failed to toggle vote", err)
	}

	s.gallery.Invalidate(ctx)

	// 翻转之后重新计数，包含其他投票人的并发变更
	if res.VoteCount, err = s.votes.CountByWork(ctx, workID); err != nil {
		logger.Error("vote count after toggle failed", zap.String("work", workID), zap.Error(err))
		return ToggleResult{}, apperr.Upstream("failed to count votes", err)
	}
	return res, nil
}

func (s *voteService) State(ctx context.Context, voter identity.UserID, workID string) (ToggleResult, error) {
	if _, err := s.subs.GetByID(ctx, workID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ToggleResult{}, ErrWorkNotFound
		}
		return ToggleResult{}, apperr.Upstream("failed to load work", err)
	}

	var (
		res ToggleResult
		err error
	)
	if res.IsVoted, err = s.votes.Exists(ctx, string(voter), workID); err != nil {
		return ToggleResult{}, apperr.Upstream("failed to read vote", err)
	}
	if res.VoteCount, err = s.votes.CountByWork(ctx, workID); err != nil {
		return ToggleResult{}, apperr.Upstream("failed to count votes", err)
	}
	return res, nil
}
