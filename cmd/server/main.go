package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/d60-Lab/classmate/config"
	"github.com/d60-Lab/classmate/internal/api"
	"github.com/d60-Lab/classmate/internal/api/handler"
	"github.com/d60-Lab/classmate/internal/api/middleware"
	"github.com/d60-Lab/classmate/internal/events"
	"github.com/d60-Lab/classmate/internal/followcache"
	"github.com/d60-Lab/classmate/internal/repository"
	"github.com/d60-Lab/classmate/internal/service"
	"github.com/d60-Lab/classmate/pkg/cache"
	"github.com/d60-Lab/classmate/pkg/database"
	"github.com/d60-Lab/classmate/pkg/logger"
	"github.com/d60-Lab/classmate/pkg/token"
	"github.com/d60-Lab/classmate/pkg/tracing"
)

// @title Classmate Feed API
// @version 1.0
// @description 混合信息流、关系链、审核与在线状态接口
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := logger.Init(cfg.Log.Level, cfg.Log.Format); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()
	gin.SetMode(cfg.Server.Mode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := tracing.Init(ctx, cfg)
	if err != nil {
		return err
	}

	sentryOn := cfg.Sentry.DSN != ""
	if sentryOn {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.Sentry.DSN,
			Environment:      cfg.Sentry.Environment,
			AttachStacktrace: true,
		}); err != nil {
			return fmt.Errorf("init sentry: %w", err)
		}
		defer sentry.Flush(2 * time.Second)
	}

	db, err := database.InitDB(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = database.Close(db) }()

	rdb, err := cache.NewRedis(ctx, cfg)
	if err != nil {
		return err
	}
	defer func() { _ = rdb.Close() }()

	var publisher events.Publisher = events.Nop{}
	if cfg.NATS.URL != "" {
		p, err := events.NewNATSPublisher(cfg.NATS.URL, cfg.NATS.Subject)
		if err != nil {
			return err
		}
		publisher = p
	}
	defer publisher.Close()

	users := repository.NewUserRepository(db)
	follows := followcache.New(repository.NewFollowRepository(db), rdb, cfg.Redis.FolloweeTTL)
	fans := repository.NewFanRepository(db)
	content := repository.NewContentRepository(db)

	replicator := service.NewFanReplicator(fans, 10000)
	stopReplicator := replicator.Start(4)

	h := handler.New(handler.Deps{
		Resolver:     service.NewScopeResolver(users, repository.NewEnrollmentRepository(db), follows),
		Feed:         service.NewFeedService(service.NewMixedFetcher(content, false), repository.NewPostRepository(db), feedOptions(cfg)),
		Relationship: service.NewRelationshipService(users, follows, fans, replicator),
		Moderation:   service.NewModerationService(content, publisher),
		Presence:     service.NewPresenceService(rdb, follows, cfg.Presence.TTL),
		PollInterval: cfg.Presence.PollInterval,
	})

	opts := api.RouterOptions{
		Handler: h,
		Tokens:  token.NewManager(cfg.JWT.Secret, cfg.JWT.Issuer, cfg.JWT.TTL),
		Sentry:  sentryOn,
	}
	if cfg.Tracing.Enabled {
		opts.TracingService = cfg.Tracing.ServiceName
	}
	if cfg.RateLimit.Enabled {
		opts.Limiter = middleware.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst)
		go sweepLimiter(ctx, opts.Limiter)
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           api.NewRouter(opts),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", zap.String("addr", srv.Addr))
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

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http shutdown", zap.Error(err))
	}
	// 先停 HTTP 再排空复制队列，保证已受理的关注都写入粉丝表
	if err := stopReplicator(shutdownCtx); err != nil {
		logger.Warn("replicator stop", zap.Error(err))
	}
	if err := shutdownTracing(shutdownCtx); err != nil {
		logger.Warn("tracing shutdown", zap.Error(err))
	}
	return nil
}

func feedOptions(cfg *config.Config) service.FeedOptions {
	return service.FeedOptions{
		DiscussionPageSize:       cfg.Feed.DiscussionPageSize,
		DiscussionPerTypeLimit:   cfg.Feed.DiscussionPerTypeLimit,
		PersonalizedPageSize:     cfg.Feed.PersonalizedPageSize,
		PersonalizedPerTypeLimit: cfg.Feed.PersonalizedPerTypeLimit,
		MediaPageSize:            cfg.Feed.MediaPageSize,
		MediaMaxPageSize:         cfg.Feed.MediaMaxPageSize,
		TrendingWindow:           cfg.Feed.TrendingWindow,
	}
}

func sweepLimiter(ctx context.Context, l *middleware.RateLimiter) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if n := l.Sweep(now); n > 0 {
				logger.Debug("rate limiter swept", zap.Int("removed", n))
			}
		}
	}
}
