package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"

	"github.com/spf13/afero"
)

// LocalStore 写入本地目录，由路由以静态文件方式对外提供
type LocalStore struct {
	fs      afero.Fs
	dir     string
	baseURL string
}

// NewLocalStore fs 为 nil 时使用真实文件系统
func NewLocalStore(fs afero.Fs, dir, baseURL string) *LocalStore {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	return &LocalStore{fs: fs, dir: dir, baseURL: baseURL}
}

func (s *LocalStore) Dir() string { return s.dir }

// Put 先写临时文件再改名，读者不会看到写了一半的对象
func (s *LocalStore) Put(ctx context.Context, key, _ string, body io.Reader) (string, error) {
	if err := checkKey(key); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	dst := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := s.fs.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", fmt.Errorf("create dir: %w", err)
	}

	tmp, err := afero.TempFile(s.fs, filepath.Dir(dst), "."+path.Base(key)+".*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	if _, err := io.Copy(tmp, body); err != nil {
		_ = tmp.Close()
		_ = s.fs.Remove(tmp.Name())
		return "", fmt.Errorf("write object: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = s.fs.Remove(tmp.Name())
		return "", err
	}
	if err := s.fs.Rename(tmp.Name(), dst); err != nil {
		_ = s.fs.Remove(tmp.Name())
		return "", fmt.Errorf("rename object: %w", err)
	}
	return publicURL(s.baseURL, key), nil
}
