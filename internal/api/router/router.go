package router

import (
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/d60-Lab/gin-contest/config"
	_ "github.com/d60-Lab/gin-contest/docs"
	"github.com/d60-Lab/gin-contest/internal/api/handler"
	"github.com/d60-Lab/gin-contest/internal/api/middleware"
	"github.com/d60-Lab/gin-contest/internal/deadline"
	"github.com/d60-Lab/gin-contest/internal/ratelimit"
)

// Deps 路由装配所需组件
type Deps struct {
	Config        *config.Config
	Handler       *handler.Handler
	Auth          *middleware.Authenticator
	UploadLimiter ratelimit.RateLimiter
	VoteThrottle  *ratelimit.KeyedThrottle
	Gate          *deadline.Gate
	// MediaDir 本地存储目录；使用 S3 时为空
	MediaDir string
}

// Setup 组装 gin 引擎
func Setup(d Deps) *gin.Engine {
	cfg, h := d.Config, d.Handler

	r := gin.New()
	_ = r.SetTrustedProxies(cfg.Server.TrustedProxies)
	r.MaxMultipartMemory = 8 << 20

	r.Use(gin.Recovery())
	r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	if cfg.Tracing.Enabled {
		r.Use(otelgin.Middleware(cfg.Tracing.ServiceName))
	}
	r.Use(middleware.RequestLogger())
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/media", "/uploads"})))
	r.Use(middleware.ProtectPaths(d.Auth, cfg.Auth.LoginPath, cfg.Auth.ProtectedPaths))

	r.GET("/health", h.Health)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	if d.MediaDir != "" {
		r.Static("/media", d.MediaDir)
	}

	r.POST("/auth/session", h.CreateSession)
	r.DELETE("/auth/session", h.DeleteSession)

	r.GET("/works", d.Auth.OptionalAuth(), h.ListWorks)
	r.GET("/works/:id", d.Auth.OptionalAuth(), h.GetWork)

	// 限流在最前；身份在批次校验之后由处理器解析
	r.POST("/uploads", middleware.RateLimitByAddress(d.UploadLimiter, cfg.Auth.AddressSalt), h.Upload)

	// 受保护页面，未登录已被 ProtectPaths 重定向
	r.GET("/submit", h.SubmitPage)
	r.GET("/inbox", h.InboxPage)

	// 投稿、编辑、投票：先截止判断，再身份，最后才解析请求体；服务层仍会复查
	open := middleware.RequireOpen(d.Gate)
	requireAuth := d.Auth.RequireAuth()
	r.POST("/submissions", open, requireAuth, h.CreateSubmission)
	r.PUT("/submissions/:id", open, requireAuth, h.UpdateSubmission)

	vote := []gin.HandlerFunc{open, requireAuth}
	if d.VoteThrottle != nil {
		vote = append(vote, middleware.VoteThrottle(d.VoteThrottle))
	}
	r.POST("/votes/:workId/toggle", append(vote, h.ToggleVote)...)

	authed := r.Group("", requireAuth)
	{
		authed.GET("/submissions/mine", h.ListMySubmissions)
		authed.GET("/votes/:workId", h.VoteState)

		authed.GET("/notifications", h.ListNotifications)
		authed.POST("/notifications/:id/read", h.MarkNotificationRead)

		authed.POST("/admin/submissions/:id/review", middleware.RequireReviewer(cfg.Auth.ReviewerIDs), h.ReviewSubmission)
	}

	return r
}
