package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"prompterest/internal/metrics"
	"prompterest/internal/microservices/http-api/middleware"
	"prompterest/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
)

// RouterDeps is everything the HTTP surface is built from
type RouterDeps struct {
	Auth     service.AuthService
	Prompts  service.PromptService
	Ratings  service.RatingService
	Comments service.CommentService

	Logger      *slog.Logger
	Metrics     *metrics.Metrics // nil disables /metrics
	CORSOrigins []string

	// UploadDir is served under /uploads when images are stored on local disk
	UploadDir      string
	MaxUploadBytes int64

	// Ping reports whether the row store is reachable, for /check-conn
	Ping func(ctx context.Context) error
}

func NewRouter(deps RouterDeps) *gin.Engine {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logger, deps.Metrics))
	r.Use(middleware.CORS(deps.CORSOrigins))
	r.Use(middleware.Identify(deps.Auth))
	if deps.MaxUploadBytes > 0 {
		// parts past this threshold spill to temp files; the handler bounds the total
		r.MaxMultipartMemory = deps.MaxUploadBytes + formOverhead
	}

	r.GET("/check-conn", checkConn(deps.Ping))
	if deps.Metrics != nil {
		r.GET("/metrics", gin.WrapH(deps.Metrics.Handler()))
	}
	if deps.UploadDir != "" {
		r.Static("/uploads", deps.UploadDir)
	}

	api := r.Group("/api")
	NewAuthHandler(deps.Auth).RegisterRoutes(api.Group("/auth"))

	prompts := api.Group("/prompts")
	NewPromptHandler(deps.Prompts, deps.MaxUploadBytes).RegisterRoutes(prompts)
	NewRatingHandler(deps.Ratings).RegisterRoutes(prompts)
	NewCommentHandler(deps.Comments).RegisterRoutes(prompts)

	return r
}

func checkConn(ping func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ping != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := ping(ctx); err != nil {
				_ = c.Error(err)
				c.JSON(http.StatusServiceUnavailable, gin.H{"message": "database unreachable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"message": "API is alive and database connected"})
	}
}
