// Package storage 图片对象存储：S3 兼容（R2）或本地目录
package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/d60-Lab/gin-contest/config"
)

// ObjectStore 单次 Put 是原子单位；返回可公开访问的 URL
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader) (string, error)
}

func publicURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}

func checkKey(key string) error {
	if key == "" || strings.HasPrefix(key, "/") || path.Clean(key) != key || strings.Contains(key, "..") {
		return fmt.Errorf("invalid object key %q", key)
	}
	return nil
}

// New 按配置选择实现
func New(ctx context.Context, cfg config.StorageConfig) (ObjectStore, error) {
	switch cfg.Driver {
	case "s3":
		return NewS3Store(ctx, cfg)
	case "local", "":
		return NewLocalStore(nil, cfg.LocalDir, cfg.PublicBaseURL), nil
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Driver)
	}
}
