package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/yashrajoria/inventory-service/cache"
	"github.com/yashrajoria/inventory-service/controllers"
	"github.com/yashrajoria/inventory-service/fixtures"
	"github.com/yashrajoria/inventory-service/logger"
	"github.com/yashrajoria/inventory-service/middleware"
	awspkg "github.com/yashrajoria/inventory-service/pkg/aws"
	"github.com/yashrajoria/inventory-service/providers"
	"github.com/yashrajoria/inventory-service/routes"
	"github.com/yashrajoria/inventory-service/sellerdynamics"
	servicepkg "github.com/yashrajoria/inventory-service/services"
	"go.uber.org/zap"
)

func main() {
	zapLogger, err := logger.New(os.Getenv("APP_ENV"))
	if err != nil {
		log.Fatalf("Failed to init logger: %v", err)
	}
	defer zapLogger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg := LoadConfig(ctx, zapLogger)

	store, closeStore, err := openCache(cfg, zapLogger)
	if err != nil {
		zapLogger.Fatal("Failed to open cache", zap.Error(err))
	}
	defer closeStore()

	// Upstream and secondary platforms
	upstream := sellerdynamics.NewService(cfg.UpstreamConfig(), zapLogger,
		sellerdynamics.WithFallbackData(fixtures.Placeholder))
	if !cfg.UpstreamConfig().Configured() {
		zapLogger.Warn("upstream credentials missing, serving placeholder data")
	}

	var secondary providers.SecondaryProvider
	if cfg.SecondaryBaseURL != "" {
		secondary = providers.NewStorefrontProvider(cfg.SecondaryBaseURL, cfg.SecondaryAccessToken)
	} else {
		zapLogger.Info("SECONDARY_BASE_URL not set, secondary platform disabled")
	}

	// AWS clients
	var (
		metrics   awspkg.MetricsRecorder
		publisher awspkg.SNSPublisher
		archiver  awspkg.ObjectPutter
	)
	if awsCfg, awsErr := awspkg.LoadAWSConfig(ctx); awsErr != nil {
		zapLogger.Warn("AWS config unavailable, SNS, S3 and metrics disabled", zap.Error(awsErr))
	} else {
		if cfg.CloudWatchEnabled {
			metrics = awspkg.NewMetricsClient(awsCfg, cfg.CloudWatchNS, true)
			zapLogger.Info("CloudWatch metrics enabled")
		}
		if cfg.SyncSNSTopicARN != "" {
			publisher = awspkg.NewSNSClient(awsCfg)
		}
		if cfg.CacheArchiveBucket != "" {
			archiver = awspkg.NewS3Client(awsCfg)
		}
	}

	// DI chain
	inventoryService := servicepkg.NewInventoryService(servicepkg.InventoryDeps{
		Upstream:  upstream,
		Secondary: secondary,
		Store:     store,
		Fallback:  fixtures.Placeholder,
		Metrics:   metrics,
		MaxAge:    cfg.CacheMaxAge,
	}, zapLogger)
	syncService := servicepkg.NewSyncService(servicepkg.SyncDeps{
		Upstream:      upstream,
		Secondary:     secondary,
		Store:         store,
		Fallback:      fixtures.Placeholder,
		Metrics:       metrics,
		Publisher:     publisher,
		TopicArn:      cfg.SyncSNSTopicARN,
		Archiver:      archiver,
		ArchiveBucket: cfg.CacheArchiveBucket,
		MaxAge:        cfg.CacheMaxAge,
	}, zapLogger)
	ordersService := servicepkg.NewOrdersService(upstream, zapLogger)

	limiter := middleware.NewPerMinuteLimiter(cfg.RateLimitPerMinute)
	go limiter.Run(ctx)

	if cfg.AppEnv == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(zapLogger))
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Use(middleware.RateLimit(limiter))
	r.Use(middleware.Metrics(metrics, serviceName))
	r.Use(middleware.Timeout(cfg.RequestTimeout))

	r.GET("/health", controllers.Health(serviceName, upstream))

	routes.RegisterInventoryRoutes(r, controllers.NewInventoryController(inventoryService))
	routes.RegisterSyncRoutes(r, controllers.NewSyncController(syncService))
	routes.RegisterOrdersRoutes(r, controllers.NewOrdersController(ordersService))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: r,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	zapLogger.Info("Inventory service started",
		zap.String("port", cfg.Port),
		zap.String("cache_backend", cfg.CacheBackend),
		zap.String("upstream_mode", upstream.Status().Mode))
	<-ctx.Done()
	zapLogger.Info("Shutting down inventory service...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("Server forced to shutdown", zap.Error(err))
	}
	zapLogger.Info("Server exited cleanly")
}

// openCache builds the freshness cache on the configured backend. The
// returned func releases the backend.
func openCache(cfg *Config, log *zap.Logger) (*cache.Cache, func(), error) {
	if cfg.CacheBackend == "bolt" {
		b, err := cache.OpenBoltBackend(cache.DefaultBoltPath)
		if err != nil {
			return nil, nil, err
		}
		closer := func() {
			if err := b.Close(); err != nil {
				log.Warn("failed to close cache database", zap.Error(err))
			}
		}
		return cache.New(b, log), closer, nil
	}
	return cache.New(cache.NewFileBackend(cache.DefaultDir), log), func() {}, nil
}
