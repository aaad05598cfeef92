package api

import (
	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	_ "github.com/d60-Lab/classmate/docs"
	"github.com/d60-Lab/classmate/internal/api/handler"
	"github.com/d60-Lab/classmate/internal/api/middleware"
	"github.com/d60-Lab/classmate/pkg/token"
)

const presenceStreamPath = "/api/v1/presence/stream"

type RouterOptions struct {
	Handler *handler.Handler
	Tokens  *token.Manager
	// Limiter 为 nil 时不限流
	Limiter *middleware.RateLimiter
	// Sentry 仅在配置了 DSN 并完成 sentry.Init 后开启
	Sentry bool
	// TracingService 非空时挂载 otelgin
	TracingService string
}

// NewRouter 组装中间件与路由
func NewRouter(opts RouterOptions) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if opts.Sentry {
		r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
		r.Use(middleware.SentryErrors())
	}
	if opts.TracingService != "" {
		r.Use(otelgin.Middleware(opts.TracingService))
	}
	r.Use(middleware.Logger())
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{presenceStreamPath})))

	h := opts.Handler
	r.GET("/health", h.Health)
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	v1 := r.Group("/api/v1")
	v1.Use(middleware.Auth(opts.Tokens))
	if opts.Limiter != nil {
		v1.Use(opts.Limiter.Middleware())
	}

	feeds := v1.Group("/feed")
	{
		feeds.GET("/discussion", h.DiscussionFeed)
		feeds.GET("/personalized", h.PersonalizedFeed)
		feeds.GET("/media", h.MediaFeed)
	}

	rel := v1.Group("/relations")
	{
		rel.POST("/follow", middleware.RequireViewer(), h.Follow)
		rel.POST("/unfollow", middleware.RequireViewer(), h.Unfollow)
		rel.GET("/:user_id/following", h.ListFollowing)
		rel.GET("/:user_id/fans", h.ListFans)
	}

	admin := v1.Group("/admin", middleware.RequireAdmin())
	{
		admin.PATCH("/content/:kind/:id/visibility", h.SetVisibility)
	}

	presence := v1.Group("/presence", middleware.RequireViewer())
	{
		presence.POST("/heartbeat", h.Heartbeat)
		presence.GET("/friends", h.OnlineFriends)
		presence.GET("/stream", h.PresenceStream)
	}
	return r
}
