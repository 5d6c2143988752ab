package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"parentguide-backend/app"
	"parentguide-backend/config"
	"parentguide-backend/handlers"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := config.InitLogger(cfg.Log); err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer func() { _ = zap.L().Sync() }()

	gin.SetMode(cfg.Server.Mode)
	if err := handlers.RegisterValidators(); err != nil {
		zap.L().Fatal("failed to register validators", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg)
	if err != nil {
		zap.L().Fatal("failed to initialize application", zap.Error(err))
	}
	defer a.Close()

	// Initialize handlers
	guidanceHandler := handlers.NewGuidanceHandler(a.Guidance, a.Limiter)
	resourceHandler := handlers.NewResourceHandler(a.Guidance)

	srv := &http.Server{
		Addr:    ":" + strconv.Itoa(cfg.Server.Port),
		Handler: handlers.NewRouter(guidanceHandler, resourceHandler),
	}

	go func() {
		zap.L().Info("server starting", zap.Int("port", cfg.Server.Port), zap.String("ai_mode", cfg.AI.Mode))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zap.L().Error("server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	zap.L().Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zap.L().Error("graceful shutdown failed", zap.Error(err))
		os.Exit(1)
	}
}
