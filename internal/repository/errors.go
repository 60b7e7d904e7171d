package repository

import (
	"errors"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate 存储层唯一约束拒绝了写入
	ErrDuplicate = errors.New("duplicate key")
	// ErrStaleState 条件更新时状态已被其他请求改变
	ErrStaleState = errors.New("state changed concurrently")
	// ErrReceiptMismatch 幂等键已用于另一个作品
	ErrReceiptMismatch = errors.New("idempotency key bound to a different work")
	// ErrToggleContention 翻转在重试上限内未能落地
	ErrToggleContention = errors.New("vote toggle contention")
)

// IsDuplicate 识别唯一约束冲突；TranslateError 未覆盖的驱动按错误文本兜底
func IsDuplicate(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDuplicate) || errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") ||
		strings.Contains(msg, "duplicate key value violates unique constraint")
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}
