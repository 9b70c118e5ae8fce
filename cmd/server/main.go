package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/auth"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/cache"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/config"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/container"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/database"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/handlers"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/logger"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/metrics"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/middleware"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/ratelimit"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/storage"
	"github.com/ydvvpn197-netizen/theglocal-phase2-sub008/internal/telemetry"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Close()

	logger.Log.Info("=== Theglocal server starting ===", zap.String("environment", cfg.Environment))
	metrics.Initialize()

	tp, err := telemetry.InitTracer(telemetry.Config{
		ServiceName:  telemetry.DefaultServiceName,
		Environment:  cfg.Environment,
		OTLPEndpoint: cfg.OTelEndpoint,
		Enabled:      cfg.OTelEnabled,
		SamplingRate: cfg.OTelSamplingRate,
	})
	if err != nil {
		logger.WarnWithFields("Tracing disabled", err)
	}

	db, err := database.Initialize(cfg.DatabaseURL, !cfg.IsProduction())
	if err != nil {
		logger.FatalWithFields("Failed to initialize database", err)
	}
	if err := database.Migrate(db); err != nil {
		logger.FatalWithFields("Failed to run migrations", err)
	}
	if tp != nil {
		if err := db.Use(telemetry.GORMTracingPlugin(tp)); err != nil {
			logger.WarnWithFields("Failed to install database tracing", err)
		}
	}

	c := container.New().SetDB(db).SetLogger(logger.Log)
	c.OnCleanup(func(context.Context) error { return database.Close() })
	if tp != nil {
		c.OnCleanup(tp.Shutdown)
	}

	// Redis backs the rate limiter only; without it limits fail open.
	redisClient, err := cache.NewRedisClient(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword)
	if err != nil {
		logger.WarnWithFields("Redis unavailable, rate limits will fail open", err)
	} else {
		c.SetCache(redisClient)
		c.OnCleanup(func(context.Context) error { return redisClient.Close() })
	}

	var mediaURL func(string) string
	if cfg.AWSBucket != "" {
		s3Store, err := storage.NewS3Store(context.Background(), cfg.AWSRegion, cfg.AWSBucket, cfg.CDNBaseURL)
		if err != nil {
			logger.FatalWithFields("Failed to initialize S3 store", err)
		}
		if err := s3Store.CheckBucketAccess(context.Background()); err != nil {
			logger.WarnWithFields("S3 bucket access check failed, uploads may fail", err)
		}
		c.SetObjectStore(s3Store)
		mediaURL = s3Store.URL
	} else {
		logger.Log.Warn("AWS_BUCKET not set, using in-memory object store")
		c.SetObjectStore(storage.NewMemoryStore())
	}

	google, err := loadGoogle()
	if err != nil {
		logger.FatalWithFields("Invalid Google OAuth configuration", err)
	}

	err = c.Wire(container.Options{
		JWTSecret:        cfg.JWTSecret,
		SuperAdminEmails: cfg.SuperAdminEmails,
		Google:           google,
		MaxChunkBytes:    int(cfg.UploadMaxChunkBytes),
		MediaURL:         mediaURL,
		SweepInterval:    cfg.NotificationSweepInterval,
		RobotsCacheTTL:   cfg.RobotsCacheTTL,
		HTTPClient: telemetry.NewInstrumentedHTTPClient(telemetry.HTTPClientConfig{
			ServiceName: "publisher",
			Timeout:     30 * time.Second,
		}),
	})
	if err != nil {
		logger.FatalWithFields("Failed to wire services", err)
	}
	if err := c.Validate(); err != nil {
		logger.FatalWithFields("Container validation failed", err)
	}

	sweeper := c.Sweeper()
	sweeper.Start()
	c.OnCleanup(func(context.Context) error { sweeper.Stop(); return nil })

	h := handlers.NewHandlers(c.Notifications(), c.Uploads())
	h.SetCommunities(c.Communities(), c.Guard())
	h.SetArticleFetcher(c.Articles())
	h.SetSweeper(sweeper)
	h.SetUploadCompleteTimeout(cfg.UploadCompleteTimeout)
	authHandlers := handlers.NewAuthHandlers(c.Auth(), cfg.IsProduction())

	health := handlers.NewHealthHandler()
	health.Register("database", func(ctx context.Context) error {
		sqlDB, err := db.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	})
	if rc := c.Cache(); rc != nil {
		health.Register("redis", rc.Ping)
	}

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	if tp != nil {
		r.Use(middleware.TracingMiddleware(telemetry.DefaultServiceName))
		r.Use(middleware.SpanEnrichment())
	}
	r.Use(middleware.GinLoggerMiddleware())
	r.Use(middleware.MetricsMiddleware())

	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*" {
		corsConfig.AllowAllOrigins = true
	} else {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
		corsConfig.AllowCredentials = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "X-RateLimit-Reset", "Retry-After"}
	r.Use(cors.New(corsConfig))
	// Chunk bodies are already compressed media; only responses are gzipped.
	r.Use(gzip.Gzip(gzip.DefaultCompression, gzip.WithExcludedPaths([]string{"/metrics"})))

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	handlers.RegisterRoutes(r, h, authHandlers, health, handlers.RouteOptions{
		Authenticator: c.Auth(),
		Admins:        c.Guard(),
		Limiters:      buildLimiters(c.Cache(), cfg),
		CronSecret:    cfg.CronSecret,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Info("Theglocal backend listening", zap.String("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.FatalWithFields("Failed to start server", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.ErrorWithFields("Server forced to shutdown", err)
	}
	if err := c.Cleanup(ctx); err != nil {
		logger.ErrorWithFields("Cleanup finished with errors", err)
	}
	logger.Log.Info("Server exited")
}

// loadGoogle returns nil when Google sign-in is not configured
func loadGoogle() (*auth.GoogleOAuth, error) {
	oauthCfg, err := config.LoadGoogleOAuthConfig()
	if errors.Is(err, config.ErrOAuthNotConfigured) {
		logger.Log.Info("Google OAuth not configured, /api/auth/google will return 503")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return auth.NewGoogleOAuth(oauthCfg), nil
}

// buildLimiters gives each route class its own limiter. A nil Redis client
// yields limiters that fail open.
func buildLimiters(rc *cache.RedisClient, cfg *config.Config) handlers.Limiters {
	var counter ratelimit.Counter
	if rc != nil {
		counter = rc
	}

	defaults := middleware.DefaultRateLimitConfig()
	defaults.MaxRequests = cfg.RateLimitMax
	defaults.Window = cfg.RateLimitWindow

	authCfg := middleware.AuthRateLimitConfig()
	uploadCfg := middleware.UploadRateLimitConfig()
	for _, c := range []*ratelimit.Config{&defaults, &authCfg, &uploadCfg} {
		c.OnLimitExceeded = middleware.LogLimitExceeded
	}

	return handlers.Limiters{
		Default: ratelimit.New(counter, defaults),
		Auth:    ratelimit.New(counter, authCfg),
		Upload:  ratelimit.New(counter, uploadCfg),
	}
}
