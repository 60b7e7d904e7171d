package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/d60-Lab/gin-contest/config"
	"github.com/d60-Lab/gin-contest/internal/api/handler"
	"github.com/d60-Lab/gin-contest/internal/api/middleware"
	"github.com/d60-Lab/gin-contest/internal/api/router"
	"github.com/d60-Lab/gin-contest/internal/cache"
	"github.com/d60-Lab/gin-contest/internal/deadline"
	"github.com/d60-Lab/gin-contest/internal/identity"
	"github.com/d60-Lab/gin-contest/internal/ratelimit"
	"github.com/d60-Lab/gin-contest/internal/repository"
	"github.com/d60-Lab/gin-contest/internal/service"
	"github.com/d60-Lab/gin-contest/internal/storage"
	"github.com/d60-Lab/gin-contest/internal/upload"
	"github.com/d60-Lab/gin-contest/pkg/database"
	"github.com/d60-Lab/gin-contest/pkg/logger"
	"github.com/d60-Lab/gin-contest/pkg/tracing"
)

func newServeCmd() *cobra.Command {
	var (
		port          int
		notifyWorkers int
	)
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "启动 HTTP 服务",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			defer logger.Sync()
			if cmd.Flags().Changed("port") {
				cfg.Server.Port = port
			}
			return serve(cmd.Context(), cfg, notifyWorkers)
		},
	}
	cmd.Flags().IntVarP(&port, "port", "p", 0, "监听端口，覆盖配置")
	cmd.Flags().IntVar(&notifyWorkers, "notify-workers", 2, "站内信写入协程数")
	return cmd
}

func serve(parent context.Context, cfg *config.Config, notifyWorkers int) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Sentry.DSN != "" {
		if err := sentry.Init(sentry.ClientOptions{Dsn: cfg.Sentry.DSN, Environment: cfg.Sentry.Environment}); err != nil {
			logger.Warn("sentry init failed", zap.Error(err))
		}
		defer sentry.Flush(2 * time.Second)
	}

	shutdownTracing, err := tracing.Init(ctx, cfg.Tracing)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	db, err := database.InitDB(cfg)
	if err != nil {
		return err
	}

	dl, err := cfg.Contest.DeadlineTime()
	if err != nil {
		return err
	}
	gate := deadline.NewGate(dl)

	var (
		rdb     *redis.Client
		gallery cache.GalleryCache
	)
	if cfg.Redis.Enabled {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			// 缓存与共享限流都可以降级
			logger.Warn("redis unreachable at startup", zap.Error(err))
		}
		gallery = cache.NewRedisGallery(rdb, cfg.GalleryCache.TTL)
	}

	var limiter ratelimit.RateLimiter
	rl := cfg.Upload.RateLimit
	if rl.Backend == "redis" {
		limiter = ratelimit.NewRedisLimiter(rdb, "ratelimit:upload:", rl.Requests, rl.Window)
	} else {
		limiter = ratelimit.NewMemoryLimiter(rl.Requests, rl.Window)
	}

	store, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("init storage: %w", err)
	}
	mediaDir := ""
	if cfg.Storage.Driver == "local" {
		mediaDir = cfg.Storage.LocalDir
	}

	subRepo := repository.NewSubmissionRepository(db)
	voteRepo := repository.NewVoteRepository(db)
	noteRepo := repository.NewNotificationRepository(db)

	dispatcher := service.NewNotificationDispatcher(noteRepo, 1024)
	stopDispatcher := dispatcher.Start(notifyWorkers)
	notifier := service.NewNotificationService(noteRepo, dispatcher)

	resolver := identity.NewResolver(identity.NewJWTVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.Audience))
	auth := middleware.NewAuthenticator(resolver, cfg.Auth.CookieName)

	limits := upload.Limits{
		MaxFiles:     cfg.Upload.MaxFiles,
		MaxFileBytes: cfg.Upload.MaxFileBytes,
		AllowedTypes: cfg.Upload.AllowedTypes,
	}
	h := handler.New(handler.Options{
		Submissions:   service.NewSubmissionService(subRepo, voteRepo, notifier, gate, gallery),
		Votes:         service.NewVoteService(voteRepo, subRepo, gate, gallery),
		Uploads:       service.NewUploadService(limits, cfg.Upload.KeyPrefix, upload.NewTranscoder(cfg.Upload.MaxWidth, cfg.Upload.Quality), store, cfg.Upload.TranscodeConcurrency),
		Notifications: notifier,
		Auth:          auth,
		Resolver:      resolver,
		Gate:          gate,
		DB:            db,
		CookieSecure:  cfg.Auth.CookieSecure,
		MaxUploadBody: limits.MaxBodyBytes(),
	})

	r := router.Setup(router.Deps{
		Config:        cfg,
		Handler:       h,
		Auth:          auth,
		UploadLimiter: limiter,
		VoteThrottle:  ratelimit.NewKeyedThrottle(cfg.Vote.ThrottlePerSecond, cfg.Vote.ThrottleBurst),
		Gate:          gate,
		MediaDir:      mediaDir,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.Int("port", cfg.Server.Port),
			zap.Time("deadline", dl),
			zap.Bool("closed", gate.Closed()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
	if err := stopDispatcher(shutdownCtx); err != nil {
		logger.Warn("notification queue not drained", zap.Error(err), zap.Int("pending", dispatcher.QueueLen()))
	}
	return nil
}
