package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	_ "github.com/noah-isme/tasktrack-api/api/swagger"
	"github.com/noah-isme/tasktrack-api/internal/handler"
	"github.com/noah-isme/tasktrack-api/internal/repository"
	"github.com/noah-isme/tasktrack-api/internal/repository/memory"
	"github.com/noah-isme/tasktrack-api/internal/service"
	"github.com/noah-isme/tasktrack-api/pkg/cache"
	"github.com/noah-isme/tasktrack-api/pkg/config"
	"github.com/noah-isme/tasktrack-api/pkg/database"
	"github.com/noah-isme/tasktrack-api/pkg/jobs"
	"github.com/noah-isme/tasktrack-api/pkg/logger"
	"github.com/noah-isme/tasktrack-api/pkg/middleware/ratelimit"
)

const shutdownTimeout = 10 * time.Second

// @title Task Track API
// @version 1.0.0
// @description Identity, token lifecycle and authorization for the record tracking service
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("server stopped", zap.Error(err))
	}
	logr.Info("shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	checks := map[string]handler.ReadinessCheck{}

	var stores repository.Stores
	switch cfg.Database.Driver {
	case config.DriverMemory:
		logr.Warn("using in-memory storage, data is lost on restart")
		stores = memory.NewStores()
	default:
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return fmt.Errorf("connect database: %w", err)
		}
		defer closeDB(db, logr)
		stores = repository.NewPostgresStores(db)
		checks["database"] = db.PingContext
	}

	var snapshots repository.SnapshotStore = memory.NewSnapshotCache()
	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connect redis: %w", err)
	}
	if redisClient != nil {
		redisCache := repository.NewSnapshotCache(redisClient)
		defer redisCache.Close() //nolint:errcheck
		snapshots = redisCache
		checks["redis"] = redisCache.Ping
	}

	authCfg := service.NewAuthConfig(cfg)
	if err := service.Bootstrap(ctx, stores.Roles, authCfg, logr); err != nil {
		return fmt.Errorf("bootstrap roles: %w", err)
	}

	validate := validator.New()
	metrics := service.NewMetricsService()
	hasher := service.NewBcryptHasher(bcrypt.DefaultCost)
	signer := service.NewTokenSigner(authCfg)
	tokens := service.NewRefreshTokenStore(stores.RefreshTokens, signer, logr, authCfg)
	resolver := service.NewPermissionResolver(stores.Users, stores.Roles, snapshots, metrics, logr, authCfg)
	audit := service.NewAuditService(stores.Audit, metrics, logr)

	handlers := handler.Handlers{
		Auth:    handler.NewAuthHandler(service.NewAuthService(stores.Users, signer, tokens, resolver, hasher, audit, validate, logr, authCfg)),
		User:    handler.NewUserHandler(service.NewUserService(stores.Users, stores.Roles, tokens, hasher, audit, validate, logr, authCfg)),
		Role:    handler.NewRoleHandler(service.NewRoleService(stores.Roles, audit, validate, logr)),
		Record:  handler.NewRecordHandler(service.NewRecordService(stores.Records, audit, validate, logr)),
		Audit:   handler.NewAuditHandler(audit),
		Metrics: handler.NewMetricsHandler(metrics, checks),
	}

	router := handler.NewRouter(handler.RouterConfig{
		APIPrefix:      cfg.APIPrefix,
		AllowedOrigins: cfg.CORS.AllowedOrigins,
		Authenticator:  service.NewAuthenticator(signer, resolver, metrics, logr),
		LoginLimiter:   ratelimit.New(cfg.RateLimit.LoginLimit, cfg.RateLimit.LoginWindow),
		Metrics:        metrics,
		Logger:         logr,
	}, handlers)
	if cfg.Env != config.EnvProduction {
		router.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	sweeper := service.NewTokenSweeper(tokens, metrics, logr)
	queue := jobs.NewQueue("maintenance", sweeper.Handle, jobs.QueueConfig{
		Workers:    1,
		MaxRetries: 3,
		RetryDelay: 30 * time.Second,
		Logger:     logr,
	})
	queue.Start(ctx)
	defer queue.Stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env), zap.String("storage", cfg.Database.Driver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		queue.Every(gctx, cfg.Sweep.Interval, service.JobSweepRefreshTokens)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logr.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

func closeDB(db *sqlx.DB, logr *zap.Logger) {
	if err := db.Close(); err != nil {
		logr.Warn("failed to close database", zap.Error(err))
	}
}
