package handler

import (
	"time"

	"gorm.io/gorm"

	"github.com/d60-Lab/gin-contest/internal/api/middleware"
	"github.com/d60-Lab/gin-contest/internal/deadline"
	"github.com/d60-Lab/gin-contest/internal/identity"
	"github.com/d60-Lab/gin-contest/internal/service"
)

// Handler 聚合所有 HTTP 处理器依赖
type Handler struct {
	submissionService   service.SubmissionService
	voteService         service.VoteService
	uploadService       service.UploadService
	notificationService service.NotificationService

	auth         *middleware.Authenticator
	resolver     *identity.Resolver
	gate         *deadline.Gate
	db           *gorm.DB
	cookieSecure bool
	// 整个 multipart 请求体的上限
	maxUploadBody int64
	now           func() time.Time
}

// Options 构造 Handler 所需依赖
type Options struct {
	Submissions   service.SubmissionService
	Votes         service.VoteService
	Uploads       service.UploadService
	Notifications service.NotificationService
	Auth          *middleware.Authenticator
	Resolver      *identity.Resolver
	Gate          *deadline.Gate
	DB            *gorm.DB
	CookieSecure  bool
	MaxUploadBody int64
}

func New(o Options) *Handler {
	return &Handler{
		submissionService:   o.Submissions,
		voteService:         o.Votes,
		uploadService:       o.Uploads,
		notificationService: o.Notifications,
		auth:                o.Auth,
		resolver:            o.Resolver,
		gate:                o.Gate,
		db:                  o.DB,
		cookieSecure:        o.CookieSecure,
		maxUploadBody:       o.MaxUploadBody,
		now:                 time.Now,
	}
}
