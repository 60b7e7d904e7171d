package service

import "github.com/d60-Lab/gin-contest/internal/apperr"

var (
	// ErrAlreadySubmitted 唯一约束拒绝了第二份作品；不是临时故障，换数据重试也没有用
	ErrAlreadySubmitted     = apperr.New(apperr.KindConflict, "already_submitted", "每個帳號只能投稿一次")
	ErrSubmissionNotFound   = apperr.NotFound("submission_not_found", "找不到作品")
	ErrWorkNotFound         = apperr.NotFound("work_not_found", "找不到作品")
	ErrInvalidTransition    = apperr.New(apperr.KindConflict, "invalid_transition", "作品目前的狀態不允許此操作")
	ErrInvalidDecision      = apperr.Validation("invalid_decision", "decision 只能是 approved 或 rejected")
	ErrIdempotencyKeyReused = apperr.Validation("idempotency_key_reused", "Idempotency-Key 已用於其他作品")
	ErrNotificationNotFound = apperr.NotFound("notification_not_found", "找不到通知")
)
