package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"retire-rag/internal/api"
	"retire-rag/internal/api/handlers"
	"retire-rag/internal/app"
	"retire-rag/pkg/config"
	"retire-rag/pkg/logger"

	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Logger.Level); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	appLogger := logger.Get()
	appLogger.Info("Starting retirement planner service",
		zap.String("storage", cfg.Storage.Driver),
		zap.String("generator", cfg.Generator.Provider),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize application", zap.Error(err))
	}
	defer application.Close()

	go application.WarmUp(ctx)

	retirementHandler := handlers.NewRetirementHandler(application.Plans, application.Queries, application.Feedback, appLogger.Named("http"))
	adminHandler := handlers.NewAdminHandler(application.Auth, application.Plans, appLogger.Named("http"))

	server := api.SetupRouter(retirementHandler, adminHandler, application.JWT, api.RouterConfig{
		AllowOrigins: cfg.Server.AllowOrigins,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		AccessLog:    true,
	}, appLogger)

	go func() {
		addr := ":" + cfg.Server.Port
		appLogger.Info("Server starting", zap.String("address", addr))
		if err := server.Listen(addr); err != nil {
			appLogger.Error("Server failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()

	appLogger.Info("Shutting down server")
	if err := server.ShutdownWithTimeout(shutdownTimeout); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
	}
}
