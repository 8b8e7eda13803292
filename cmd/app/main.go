package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"learning_webapp/internal/cache"
	"learning_webapp/internal/config"
	"learning_webapp/internal/db"
	httpServer "learning_webapp/internal/http"
	"learning_webapp/internal/http/middleware"
	"learning_webapp/internal/logger"
	"learning_webapp/internal/migrations"
	"learning_webapp/internal/repository"
	"learning_webapp/internal/service"

	"github.com/gin-gonic/gin"
)

// set with -ldflags "-X main.version=..."
var version = "2.0.0"

func main() {
	cfg := config.Load()
	logger.Init(cfg.LogLevel, cfg.LogJSON)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if cfg.DevMode {
		logger.Warn("DEV_MODE is on: init data signatures are not verified", "app_env", cfg.AppEnv)
	}

	if cfg.MigrationsAuto {
		if err := migrations.Up(cfg.DatabaseURL); err != nil {
			logger.Fatal("migrations failed", "error", err)
		}
	}

	ctx := context.Background()
	dbPool := db.MustConnect(cfg.DatabaseURL)
	defer dbPool.Close()

	profiles := cache.Connect(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, cfg.CacheTTL)
	defer profiles.Close()

	users := service.NewUserService(repository.NewUserRepository(dbPool), profiles, cfg.AdminTelegramIDs)

	r := httpServer.NewRouter(users, httpServer.RouterOptions{
		Version: version,
		Auth: middleware.TelegramAuthConfig{
			BotToken: cfg.BotToken,
			DevMode:  cfg.DevMode,
			MaxAge:   cfg.InitDataMaxAge,
		},
		AllowedOrigins: cfg.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server started", "port", cfg.AppPort, "app_env", cfg.AppEnv, "version", version)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("listen failed", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exited")
}
