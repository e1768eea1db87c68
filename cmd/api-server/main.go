package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hackgods/clinic-records/internal/api"
	"github.com/hackgods/clinic-records/internal/auth"
	"github.com/hackgods/clinic-records/internal/clinic"
	"github.com/hackgods/clinic-records/internal/config"
	"github.com/hackgods/clinic-records/internal/db"
	"github.com/hackgods/clinic-records/internal/logging"
	redisclient "github.com/hackgods/clinic-records/internal/redis"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config load error: %v", err)
	}

	logger, err := logging.New(cfg.Env, cfg.Version)
	if err != nil {
		log.Fatalf("logger init error: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("api-server starting", zap.String("http_port", cfg.HTTPPort))

	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Connect Postgres
	pgCtx, cancelPg := context.WithTimeout(rootCtx, 10*time.Second)
	pgPool, err := db.ConnectPostgres(pgCtx, cfg.PostgresDSN)
	if err == nil {
		err = db.ApplySchema(pgCtx, pgPool)
	}
	cancelPg()
	if err != nil {
		logger.Fatal("postgres setup error", zap.Error(err))
	}
	defer pgPool.Close()
	logger.Info("connected to Postgres")

	// Connect Redis
	rdb, err := redisclient.NewRedisClient(rootCtx, cfg.RedisAddr, cfg.RedisUsername, cfg.RedisPassword)
	if err != nil {
		logger.Fatal("redis connection error", zap.Error(err))
	}
	defer func() {
		if err := rdb.Close(); err != nil {
			logger.Warn("error closing redis", zap.Error(err))
		}
	}()
	logger.Info("connected to Redis")

	clinicSvc := clinic.NewService(clinic.NewPgRepository(pgPool), logger.Named("clinic"))
	authSvc := auth.NewService(
		auth.NewPgUserRepository(pgPool),
		redisclient.NewRefreshSessionStore(rdb),
		auth.NewTokenIssuer(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL),
		logger.Named("auth"),
	)

	router := api.NewRouter(api.RouterConfig{
		Clinic:             clinicSvc,
		Auth:               authSvc,
		Postgres:           pgPool,
		Redis:              api.RedisPinger(rdb),
		Logger:             logger.Named("http"),
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
		Env:                cfg.Env,
		Version:            cfg.Version,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("http server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-rootCtx.Done():
	case err := <-serveErr:
		if err != nil {
			logger.Error("http server error", zap.Error(err))
		}
	}

	logger.Info("shutting down api-server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
