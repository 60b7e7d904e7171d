package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/gin-contest/internal/model"
	"github.com/d60-Lab/gin-contest/internal/repository"
	"github.com/d60-Lab/gin-contest/pkg/logger"
)

// NotificationDispatcher 本地异步写通知；队列满或已停止时丢弃并记日志，不影响主流程
type NotificationDispatcher struct {
	repo    repository.NotificationRepository
	ch      chan *model.Notification
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewNotificationDispatcher(repo repository.NotificationRepository, queueSize int) *NotificationDispatcher {
	if queueSize <= 0 {
		queueSize = 1024
	}
	return &NotificationDispatcher{repo: repo, ch: make(chan *model.Notification, queueSize), timeout: 5 * time.Second}
}

// Start 启动 workers 个协程；返回的停止函数会等待队列排空或 ctx 到期
func (d *NotificationDispatcher) Start(workers int) func(context.Context) error {
	if workers <= 0 {
		workers = 2
	}
	for i := 0; i < workers; i++ {
		d.wg.Add(1)
		go func() {
			defer d.wg.Done()
			for n := range d.ch {
				d.deliver(n)
			}
		}()
	}
	return func(ctx context.Context) error {
		d.mu.Lock()
		if !d.closed {
			d.closed = true
			close(d.ch)
		}
		d.mu.Unlock()

		done := make(chan struct{})
		go func() {
			d.wg.Wait()
			close(done)
		}()
		select {
		case <-done:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (d *NotificationDispatcher) deliver(n *model.Notification) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()
	if err := d.repo.Create(ctx, n); err != nil {
		logger.Warn("notification write failed", zap.String("user", n.UserID), zap.String("title", n.Title), zap.Error(err))
	}
}

// Enqueue 非阻塞入队
func (d *NotificationDispatcher) Enqueue(n *model.Notification) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		logger.Warn("notification dispatcher stopped, drop", zap.String("user", n.UserID), zap.String("title", n.Title))
		return false
	}
	select {
	case d.ch <- n:
		return true
	default:
		logger.Warn("notification queue full, drop", zap.String("user", n.UserID), zap.String("title", n.Title))
		return false
	}
}

// QueueLen 当前队列长度（采样值）
func (d *NotificationDispatcher) QueueLen() int { return len(d.ch) }
