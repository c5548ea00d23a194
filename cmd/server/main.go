// Package main runs the workshop registration HTTP server with graceful shutdown.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/aura-webinar/workshops/config"
	"github.com/aura-webinar/workshops/internal/abuse"
	"github.com/aura-webinar/workshops/internal/admin"
	"github.com/aura-webinar/workshops/internal/auth"
	"github.com/aura-webinar/workshops/internal/eligibility"
	"github.com/aura-webinar/workshops/internal/events"
	"github.com/aura-webinar/workshops/internal/kvscope"
	"github.com/aura-webinar/workshops/internal/middleware"
	"github.com/aura-webinar/workshops/internal/registrations"
	"github.com/aura-webinar/workshops/internal/storage"
	"github.com/aura-webinar/workshops/internal/storage/backends"
	"github.com/aura-webinar/workshops/internal/worker"
	"github.com/aura-webinar/workshops/pkg/queue"
	"github.com/aura-webinar/workshops/pkg/redis"
	"github.com/aura-webinar/workshops/pkg/response"
	s3store "github.com/aura-webinar/workshops/pkg/storage"
)

func main() {
	logger := newLogger()
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	loc, err := cfg.Event.Location()
	if err != nil {
		logger.Fatal("event timezone", zap.Error(err))
	}
	catalog, err := events.Load(cfg.Event.CatalogFile)
	if err != nil {
		logger.Fatal("event catalog", zap.Error(err))
	}
	if _, ok := catalog.Get(cfg.Event.CurrentID); !ok {
		logger.Fatal("current event not in catalog", zap.String("event_id", cfg.Event.CurrentID))
	}

	ctx := context.Background()

	// A storage failure leaves the server up; submissions then report a configuration error.
	var port storage.Port = storage.Unconfigured{}
	backendName := "unconfigured"
	backend, err := backends.Open(ctx, cfg.Storage, logger)
	if err != nil {
		logger.Error("storage backend unavailable", zap.String("backend", cfg.Storage.Backend), zap.Error(err))
	} else {
		defer backend.Close()
		port, backendName = backend.Port, backend.Name
	}

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb, err = redis.NewClient(ctx, redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB}, logger)
		if err != nil {
			logger.Fatal("redis", zap.Error(err))
		}
		defer rdb.Close()
	}

	scopeTTL := time.Duration(cfg.Abuse.TTLMinutes) * time.Minute
	var scopes kvscope.Store = kvscope.NewMemoryStore(scopeTTL)
	if cfg.Abuse.ScopeBackend == "redis" {
		scopes = kvscope.NewRedisStore(rdb.Client, scopeTTL)
	}

	var confirmer registrations.Confirmer
	if rdb != nil {
		confirmer = worker.QueueConfirmer{Queue: queue.NewQueue(rdb.Client, logger)}
	} else {
		logger.Info("REDIS_ADDR not set, confirmation emails disabled")
	}

	var exporter admin.Exporter
	if cfg.AWS.Region != "" {
		s3Client, err := s3store.NewS3(ctx, s3store.S3Config{
			Region:               cfg.AWS.Region,
			AccessKeyID:          cfg.AWS.AccessKeyID,
			SecretAccessKey:      cfg.AWS.SecretAccessKey,
			ExportsBucket:        cfg.AWS.ExportsBucket,
			PresignExpireMinutes: cfg.AWS.PresignExpireMinutes,
		}, logger)
		if err != nil {
			logger.Warn("s3 unavailable, roster export disabled", zap.Error(err))
		} else {
			exporter = s3Client
		}
	}

	engine := eligibility.NewEngine(catalog, eligibility.WithLocation(loc))
	counter := abuse.NewCounter(time.Now, logger)
	workflow := registrations.NewWorkflow(port, engine, counter, confirmer, logger)

	jwtService := auth.NewJWTService(cfg.Admin.JWTSecret, cfg.Admin.ExpireHours)
	authHandler := auth.NewHandler([]auth.Account{
		{Username: cfg.Admin.Username, PasswordHash: cfg.Admin.PasswordHash, Role: auth.RoleAdmin},
		{Username: cfg.Admin.ViewerUsername, PasswordHash: cfg.Admin.ViewerPasswordHash, Role: auth.RoleViewer},
	}, jwtService, logger)
	registrationHandler := registrations.NewHandler(workflow, engine, catalog, scopes, cfg.Event.CurrentID, logger)
	adminHandler := admin.NewHandler(admin.Config{
		Store:          port,
		Catalog:        catalog,
		Counter:        counter,
		Scopes:         scopes,
		Exporter:       exporter,
		CurrentEventID: cfg.Event.CurrentID,
	}, logger)

	router := gin.New()
	if err := router.SetTrustedProxies(cfg.Server.TrustedProxies); err != nil {
		logger.Fatal("trusted proxies", zap.Error(err))
	}
	router.Use(gin.Recovery())
	router.Use(middleware.CORS(cfg.Server.CORSAllowedOrigins))
	router.Use(middleware.Logger(logger))

	router.GET("/health", func(c *gin.Context) {
		response.OK(c, gin.H{
			"status":        "ok",
			"storage":       backendName,
			"current_event": cfg.Event.CurrentID,
		})
	})

	// Public: registration status and submission
	registrationHandler.Routes(router.Group("/", middleware.ClientID(cfg.Server.SecureCookies)))

	// Admin
	router.POST("/admin/login", authHandler.Login)
	adminHandler.Routes(router.Group("/admin", middleware.JWT(jwtService)))

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		logger.Info("server listening",
			zap.String("port", cfg.Server.Port),
			zap.String("storage", backendName),
			zap.String("event_id", cfg.Event.CurrentID),
		)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
}

func newLogger() *zap.Logger {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "timestamp"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logger, _ := config.Build()
	return logger
}
