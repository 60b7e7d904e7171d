// Package apperr 定义业务错误分类及其 HTTP 映射。
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Kind 错误类别
type Kind int

const (
	KindUpstream Kind = iota // 默认：存储/网络/转码故障，可整体重试（投票切换除外）
	KindUnauthorized
	KindContestClosed
	KindValidation
	KindConflict
	KindNotFound
	KindRateLimited
	KindForbidden
)

func (k Kind) String() string {
	switch k {
	case KindUnauthorized:
		return "unauthorized"
	case KindContestClosed:
		return "contest_closed"
	case KindValidation:
		return "validation_failed"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	case KindRateLimited:
		return "rate_limited"
	case KindForbidden:
		return "forbidden"
	default:
		return "upstream_failure"
	}
}

// Retryable 调用方是否可以原样重试
func (k Kind) Retryable() bool {
	return k == KindRateLimited || k == KindUpstream
}

// Error 业务错误
type Error struct {
	Kind       Kind
	Code       string
	Message    string
	RetryAfter time.Duration
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return e.Code + ": " + e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is 按 Kind+Code 比较，便于 errors.Is 匹配哨兵错误
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind && e.Code == t.Code
}

// Wrap 以哨兵错误为模板附加底层原因
func (e *Error) Wrap(err error) *Error {
	cp := *e
	cp.Err = err
	return &cp
}

// WithMessage 复制并替换消息（如校验失败的具体规则）
func (e *Error) WithMessage(format string, args ...any) *Error {
	cp := *e
	cp.Message = fmt.Sprintf(format, args...)
	return &cp
}

// HTTPStatus 对外状态码
func (e *Error) HTTPStatus() int {
	switch e.Kind {
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindContestClosed, KindForbidden:
		return http.StatusForbidden
	case KindValidation, KindConflict:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func New(kind Kind, code, message string) *Error {
	return &Error{Kind: kind, Code: code, Message: message}
}

func Unauthorized(message string) *Error { return New(KindUnauthorized, "unauthorized", message) }

func Forbidden(message string) *Error { return New(KindForbidden, "forbidden", message) }

func Validation(code, message string) *Error { return New(KindValidation, code, message) }

func NotFound(code, message string) *Error { return New(KindNotFound, code, message) }

func RateLimited(retryAfter time.Duration) *Error {
	return &Error{Kind: KindRateLimited, Code: "rate_limited", Message: "too many requests", RetryAfter: retryAfter}
}

// Upstream 包装底层故障；消息保持通用，细节只留在 Err 中
func Upstream(message string, err error) *Error {
	return &Error{Kind: KindUpstream, Code: "upstream_failure", Message: message, Err: err}
}

// From 提取 *Error；非业务错误视为 Upstream
func From(err error) *Error {
	if err == nil {
		return nil
	}
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return Upstream("internal server error", err)
}

// KindOf 返回错误类别
func KindOf(err error) Kind { return From(err).Kind }
