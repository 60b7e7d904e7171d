package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/d60-Lab/gin-contest/internal/apperr"
	"github.com/d60-Lab/gin-contest/internal/identity"
	"github.com/d60-Lab/gin-contest/internal/model"
	"github.com/d60-Lab/gin-contest/internal/repository"
	"github.com/d60-Lab/gin-contest/pkg/logger"
)

const inboxLimit = 100

// NotificationService 站内通知
type NotificationService interface {
	// Notify 尽力而为：失败只记日志，从不返回错误给调用方
	Notify(ctx context.Context, userID identity.UserID, title, body string)
	List(ctx context.Context, userID identity.UserID) ([]*model.Notification, error)
	MarkRead(ctx context.Context, userID identity.UserID, id string) (*model.Notification, error)
}

type notificationService struct {
	repo       repository.NotificationRepository
	dispatcher *NotificationDispatcher
}

// NewNotificationService dispatcher 为 nil 时同步写入
func NewNotificationService(repo repository.NotificationRepository, dispatcher *NotificationDispatcher) NotificationService {
	return &notificationService{repo: repo, dispatcher: dispatcher}
}

func (s *notificationService) Notify(ctx context.Context, userID identity.UserID, title, body string) {
	n := &model.Notification{UserID: string(userID), Title: title, Body: body, CreatedAt: time.Now()}
	if s.dispatcher != nil {
		s.dispatcher.Enqueue(n)
		return
	}

	// 主操作已提交，客户端断开也要写完
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()
	if err := s.repo.Create(ctx, n); err != nil {
		logger.Warn("notification write failed", zap.String("user", n.UserID), zap.String("title", title), zap.Error(err))
	}
}

func (s *notificationService) List(ctx context.Context, userID identity.UserID) ([]*model.Notification, error) {
	list, err := s.repo.ListByUser(ctx, string(userID), inboxLimit)
	if err != nil {
		return nil, apperr.Upstream("failed to load notifications", err)
	}
	return list, nil
}

func (s *notificationService) MarkRead(ctx context.Context, userID identity.UserID, id string) (*model.Notification, error) {
	n, err := s.repo.MarkRead(ctx, string(userID), id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, apperr.Upstream("failed to update notification", err)
	}
	return n, nil
}
