package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/treeline-hq/treeline-backend/config"
	"github.com/treeline-hq/treeline-backend/internal/auth"
	"github.com/treeline-hq/treeline-backend/internal/bootstrap"
	"github.com/treeline-hq/treeline-backend/internal/cache"
	"github.com/treeline-hq/treeline-backend/internal/db"
	"github.com/treeline-hq/treeline-backend/internal/logger"
	"github.com/treeline-hq/treeline-backend/internal/projects/repository"
	"github.com/treeline-hq/treeline-backend/internal/projects/service"
	"github.com/treeline-hq/treeline-backend/internal/retention"
)

const serviceName = "treeline-api"

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log := logger.New(cfg.App.Environment, cfg.App.LogLevel, serviceName)
	defer func() { _ = log.Sync() }()

	bootstrap.SetGinMode(cfg.App.Environment)

	ctx := context.Background()

	database, err := db.Open(ctx, cfg.Database)
	if err != nil {
		log.Fatalw("open database", "error", err)
	}
	defer database.Close()

	rdb, err := cache.OpenRedis(ctx, cfg.Redis)
	if err != nil {
		log.Fatalw("open redis", "error", err)
	}
	defer rdb.Close()

	tokens := auth.NewTokenService(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)

	router := bootstrap.BuildRouter(bootstrap.RouterDeps{
		ServiceName: serviceName,
		Version:     cfg.App.Version,
		DB:          database.Pool,
		Redis:       rdb,
		Tokens:      tokens,
		Log:         log,
	})

	if cfg.Retention.Days > 0 {
		projectSvc := service.NewProjectService(repository.NewRepo(database.Pool))
		sweeper := retention.NewSweeper(
			projectSvc, log, cfg.Retention.Schedule,
			time.Duration(cfg.Retention.Days)*24*time.Hour,
		)
		if err := sweeper.Start(); err != nil {
			log.Fatalw("start retention sweeper", "error", err)
		}
		defer sweeper.Stop()
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	go func() {
		log.Infow("listening", "port", cfg.Server.Port, "env", cfg.App.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalw("server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Errorw("shutdown", "error", err)
	}
}
