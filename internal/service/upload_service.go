package service

import (
	"bytes"
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/d60-Lab/gin-contest/internal/apperr"
	"github.com/d60-Lab/gin-contest/internal/identity"
	"github.com/d60-Lab/gin-contest/internal/storage"
	"github.com/d60-Lab/gin-contest/internal/upload"
	"github.com/d60-Lab/gin-contest/pkg/logger"
)

// ErrUploadFailed 批次中至少一个文件转码或写入失败；成功的部分不回滚
var ErrUploadFailed = &apperr.Error{Kind: apperr.KindUpstream, Code: "upload_failed", Message: "部分圖片上傳失敗，請重試失敗的檔案"}

// FailedFile 失败文件及原因
type FailedFile struct {
	File  string `json:"file"`
	Error string `json:"error"`
}

// IngestResult URLs 与成功文件一一对应，保持提交顺序
type IngestResult struct {
	URLs   []string     `json:"urls"`
	Failed []FailedFile `json:"failed,omitempty"`
}

// UploadService 图片上传管线
type UploadService interface {
	// Validate 只做批次规则检查，不读取内容
	Validate(files []upload.File) error
	Ingest(ctx context.Context, owner identity.UserID, files []upload.File) (IngestResult, error)
}

type uploadService struct {
	limits     upload.Limits
	keyPrefix  string
	transcoder *upload.Transcoder
	store      storage.ObjectStore
	// 全局转码并发上限，大图不会拖住其他请求
	sem *semaphore.Weighted
	now func() time.Time
}

func NewUploadService(limits upload.Limits, keyPrefix string, transcoder *upload.Transcoder, store storage.ObjectStore, concurrency int64) UploadService {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &uploadService{
		limits:     limits,
		keyPrefix:  keyPrefix,
		transcoder: transcoder,
		store:      store,
		sem:        semaphore.NewWeighted(concurrency),
		now:        time.Now,
	}
}

func (s *uploadService) Validate(files []upload.File) error {
	return upload.Validate(files, s.limits)
}

func (s *uploadService) Ingest(ctx context.Context, owner identity.UserID, files []upload.File) (IngestResult, error) {
	// 整批校验通过之前不转码任何文件
	if err := s.Validate(files); err != nil {
		return IngestResult{}, err
	}

	at := s.now()
	urls := make([]string, len(files))
	errs := make([]error, len(files))

	var wg sync.WaitGroup
	for i := range files {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			urls[i], errs[i] = s.process(ctx, owner, at, i, files[i])
		}(i)
	}
	wg.Wait()

	var (
		res      = IngestResult{URLs: make([]string, 0, len(files))}
		firstErr error
	)
	for i, f := range files {
		if errs[i] != nil {
			logger.Warn("upload file failed", zap.String("owner", string(owner)), zap.String("file", f.Name), zap.Error(errs[i]))
			res.Failed = append(res.Failed, FailedFile{File: f.Name, Error: errs[i].Error()})
			if firstErr == nil {
				firstErr = errs[i]
			}
			continue
		}
		res.URLs = append(res.URLs, urls[i])
	}
	if firstErr != nil {
		return res, ErrUploadFailed.Wrap(firstErr)
	}

	logger.Info("upload batch stored", zap.String("owner", string(owner)), zap.Int("files", len(files)))
	return res, nil
}

func (s *uploadService) process(ctx context.Context, owner identity.UserID, at time.Time, index int, f upload.File) (string, error) {
	data, err := s.transcode(ctx, f)
	if err != nil {
		return "", err
	}
	key := upload.ObjectKey(s.keyPrefix, string(owner), at, index, f.Name)
	return s.store.Put(ctx, key, upload.ContentTypeWebP, bytes.NewReader(data))
}

func (s *uploadService) transcode(ctx context.Context, f upload.File) ([]byte, error) {
	if err := s.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	defer s.sem.Release(1)

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", f.Name, err)
	}
	defer rc.Close()

	data, _, err := s.transcoder.Transcode(rc)
	return data, err
}
