// Package app wires configuration, storage, services and the HTTP surface into one server.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"prompterest/database"
	"prompterest/internal/blob"
	"prompterest/internal/config"
	"prompterest/internal/metrics"
	"prompterest/internal/microservices/http-api/cache"
	"prompterest/internal/microservices/http-api/handler"
	"prompterest/internal/microservices/http-api/repository"
	"prompterest/internal/microservices/http-api/service"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

const shutdownTimeout = 10 * time.Second

type Server struct {
	cfg          *config.Config
	logger       *slog.Logger
	db           *gorm.DB
	summaryCache *cache.RedisSummaryCache
	httpServer   *http.Server
}

// New opens the row store and the optional cache and builds the router.
// Migrations are not applied here; run "prompterest migrate up" first.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Server, error) {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.OpenGorm(cfg, logger)
	if err != nil {
		return nil, err
	}

	redisClient, err := cache.NewRedisClient(cfg.RedisURL, cfg.RedisPassword)
	if err != nil {
		database.Close(db)
		return nil, err
	}
	if redisClient == nil {
		logger.Info("REDIS_URL not set, rating summaries are computed on every read")
	}
	summaryCache := cache.NewRedisSummaryCache(redisClient, cfg.CacheExpiry())

	blobs, uploadDir, err := newBlobStore(ctx, cfg)
	if err != nil {
		summaryCache.Close()
		database.Close(db)
		return nil, err
	}

	var m *metrics.Metrics
	if cfg.PrometheusEnabled {
		m = metrics.NewMetrics()
	}

	promptRepo := repository.NewPromptRepository(db)
	ratingRepo := repository.NewRatingRepository(db)
	commentRepo := repository.NewCommentRepository(db)
	userRepo := repository.NewUserRepository(db)

	authService := service.NewAuthService(userRepo, cfg)
	ratingService := service.NewRatingService(ratingRepo, promptRepo, summaryCache, logger, m)
	guard := service.NewGuard(promptRepo, logger, m)
	promptService := service.NewPromptService(promptRepo, ratingService, guard, blobs, summaryCache, cfg.UploadMaxBytes(), logger)
	commentService := service.NewCommentService(commentRepo, promptRepo, logger)

	router := handler.NewRouter(handler.RouterDeps{
		Auth:           authService,
		Prompts:        promptService,
		Ratings:        ratingService,
		Comments:       commentService,
		Logger:         logger,
		Metrics:        m,
		CORSOrigins:    cfg.CORSOrigins,
		UploadDir:      uploadDir,
		MaxUploadBytes: cfg.UploadMaxBytes(),
		Ping: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	})

	return &Server{
		cfg:          cfg,
		logger:       logger,
		db:           db,
		summaryCache: summaryCache,
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
			Handler:           router,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}, nil
}

// newBlobStore picks the image backend; uploadDir is non-empty when images must be served locally
func newBlobStore(ctx context.Context, cfg *config.Config) (blob.Store, string, error) {
	switch cfg.BlobBackend {
	case "s3":
		store, err := blob.NewS3Store(ctx, cfg.S3Bucket, cfg.S3Region, cfg.BlobPublicBaseURL)
		if err != nil {
			return nil, "", err
		}
		return store, "", nil
	case "local", "":
		baseURL := cfg.BlobPublicBaseURL
		if baseURL == "" {
			baseURL = fmt.Sprintf("http://localhost:%d/uploads", cfg.HTTPPort)
		}
		store, err := blob.NewLocalStore(cfg.BlobLocalDir, baseURL)
		if err != nil {
			return nil, "", err
		}
		return store, store.Dir(), nil
	default:
		return nil, "", fmt.Errorf("unknown BLOB_BACKEND %q", cfg.BlobBackend)
	}
}

// Run serves HTTP until ctx is cancelled, then drains in-flight requests
func (s *Server) Run(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting_http_server", "addr", s.httpServer.Addr, "env", s.cfg.GoEnv)
		if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
		close(errChan)
	}()

	select {
	case err := <-errChan:
		if err != nil {
			s.logger.Error("server_error", "error", err)
		}
		return err
	case <-ctx.Done():
		s.logger.Info("received_shutdown_signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	<-errChan
	s.logger.Info("server_stopped_gracefully")
	return nil
}

// Close releases the cache and database connections
func (s *Server) Close() error {
	return errors.Join(s.summaryCache.Close(), database.Close(s.db))
}
