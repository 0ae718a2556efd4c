package main

import (
	"context"
	"fmt"
	"os"

	"retire-rag/internal/app"
	"retire-rag/pkg/config"
	"retire-rag/pkg/logger"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var rootCmd = &cobra.Command{
	Use:   "seed",
	Short: "Build the retirement knowledge index and exercise the planner offline",
	Long: `seed prepares the data the retirement planner service depends on.
It builds and persists the semantic index, and can run queries and plans
against the configured storage without starting the HTTP server.`,
	SilenceUsage: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// withApp loads configuration, wires the application and runs fn with it.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app.App) error) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := logger.Init(cfg.Logger.Level); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer logger.Sync()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := app.New(ctx, cfg, logger.Get())
	if err != nil {
		logger.Get().Error("Failed to initialize application", zap.Error(err))
		return err
	}
	defer a.Close()

	return fn(ctx, a)
}
