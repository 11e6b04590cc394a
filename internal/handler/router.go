package handler

import (
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/thala/backend/internal/config"
	"github.com/thala/backend/internal/metrics"
	"github.com/thala/backend/internal/service"
)

// Services bundles what the router needs. Gatherer may be nil to skip /metrics.
type Services struct {
	Auth     *service.AuthService
	Users    *service.UserService
	Feedback *service.FeedbackService
	Videos   *service.VideoService
	Admin    *service.AdminService
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
}

// NewRouter builds the engine. The rate limiter sits after each route's auth
// middleware so authenticated callers get their own bucket.
func NewRouter(cfg config.Config, s Services) (*gin.Engine, error) {
	router := gin.New()
	if err := router.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	router.Use(gin.Logger(), gin.Recovery())
	router.Use(CORSMiddleware(cfg.Server.AllowedOrigins, true))
	if s.Metrics != nil {
		router.Use(MetricsMiddleware(s.Metrics))
	}

	router.GET("/ping", Ping)
	router.GET("/", Root)
	router.GET("/openapi.json", OpenAPIDoc)
	if s.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(s.Gatherer, promhttp.HandlerOpts{})))
	}

	limit := func(c *gin.Context) { c.Next() }
	if cfg.RateLimit.Enabled {
		limit = NewRateLimiter(cfg.RateLimit, s.Metrics).Middleware()
	}
	requireAuth := AuthMiddleware(s.Auth, s.Metrics)
	optionalAuth := OptionalAuthMiddleware(s.Auth, s.Metrics)

	api := router.Group("/api/v1")

	authHandler := NewAuthHandler(s.Auth, s.Metrics)
	auth := api.Group("/auth")
	auth.POST("/google", limit, authHandler.GoogleLogin)
	auth.POST("/google/code", limit, authHandler.GoogleCodeLogin)
	auth.POST("/refresh", limit, authHandler.Refresh)
	auth.POST("/logout", limit, authHandler.Logout)
	auth.GET("/me", requireAuth, limit, authHandler.Me)

	userHandler := NewUserHandler(s.Users)
	api.GET("/users/profile", requireAuth, limit, userHandler.GetOwnProfile)
	api.PUT("/users/profile", requireAuth, limit, userHandler.UpdateOwnProfile)
	api.GET("/users/:id", limit, userHandler.GetUser)

	feedbackHandler := NewFeedbackHandler(s.Feedback)
	api.POST("/feedback", optionalAuth, limit, feedbackHandler.CreateFeedback)
	api.GET("/feedback", optionalAuth, limit, feedbackHandler.ListFeedback)
	api.GET("/feedback/:id", optionalAuth, limit, feedbackHandler.GetFeedback)
	api.PATCH("/feedback/:id", requireAuth, limit, feedbackHandler.UpdateFeedback)
	api.DELETE("/feedback/:id", requireAuth, limit, feedbackHandler.DeleteFeedback)

	videoHandler := NewVideoHandler(s.Videos)
	api.GET("/videos", limit, videoHandler.ListVideos)
	api.GET("/videos/:id", limit, videoHandler.GetVideo)
	api.POST("/videos", requireAuth, limit, videoHandler.CreateVideo)
	api.PUT("/videos/:id", requireAuth, limit, videoHandler.UpdateVideo)
	api.DELETE("/videos/:id", requireAuth, limit, videoHandler.DeleteVideo)

	adminHandler := NewAdminHandler(s.Admin)
	admin := api.Group("/admin", requireAuth, limit)
	admin.GET("/users", adminHandler.ListUsers)
	admin.PATCH("/users/:id", adminHandler.UpdateUser)

	return router, nil
}
