// Package upload 图片上传的批次校验、对象键生成与 WebP 转码
package upload

import (
	"io"
	"strings"

	"github.com/d60-Lab/gin-contest/internal/apperr"
)

// File 批次中的一个文件；ContentType 为客户端声明的类型
type File struct {
	Name        string
	ContentType string
	Size        int64
	Open        func() (io.ReadCloser, error)
}

// Limits 批次限制
type Limits struct {
	MaxFiles     int
	MaxFileBytes int64
	AllowedTypes []string
}

var (
	ErrNoFiles         = apperr.Validation("no_files", "請至少選擇一張圖片")
	ErrTooManyFiles    = apperr.Validation("too_many_files", "圖片數量超過上限")
	ErrUnsupportedType = apperr.Validation("unsupported_type", "只支援 JPEG / PNG / WebP")
	ErrFileTooLarge    = apperr.Validation("file_too_large", "單張圖片超過大小上限")
	// ErrBatchTooLarge 整个请求体超过上限，此时无法逐个判断是哪条规则
	ErrBatchTooLarge = apperr.Validation("upload_too_large", "上傳內容總量超過上限")
)

// multipartOverhead 边界与表单头的余量
const multipartOverhead = 1 << 20

// MaxBodyBytes 整个 multipart 请求体的上限
//
// 多留一个文件的空间：超出数量上限一张、每张都合规的批次仍能完整解析，
// 从而报告数量违规而不是总量违规。
func (l Limits) MaxBodyBytes() int64 {
	return int64(l.MaxFiles+1)*l.MaxFileBytes + multipartOverhead
}

func (l Limits) allowed(contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	for _, t := range l.AllowedTypes {
		if ct == t {
			return true
		}
	}
	return false
}

// Validate 按 数量 → 类型 → 大小 的顺序检查整批，第一条违反的规则即返回
func Validate(files []File, l Limits) error {
	if len(files) == 0 {
		return ErrNoFiles
	}
	if len(files) > l.MaxFiles {
		return ErrTooManyFiles.WithMessage("最多 %d 張圖片，收到 %d 張", l.MaxFiles, len(files))
	}
	for _, f := range files {
		if !l.allowed(f.ContentType) {
			return ErrUnsupportedType.WithMessage("%s: 不支援的類型 %q", f.Name, f.ContentType)
		}
	}
	for _, f := range files {
		if f.Size > l.MaxFileBytes {
			return ErrFileTooLarge.WithMessage("%s: 超過 %d MB", f.Name, l.MaxFileBytes>>20)
		}
	}
	return nil
}
