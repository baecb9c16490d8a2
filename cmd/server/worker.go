package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"go-hardware-pos/internal/ai"
	"go-hardware-pos/internal/jobs"
	"go-hardware-pos/internal/logger"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var workerConcurrency int

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Process queued forecast jobs",
	Long: `Runs the background worker that regenerates branch AI forecasts.

Required environment variables:
  GEMINI_API_KEY - key for the forecast model
  REDIS_ADDR     - Redis instance shared with the server`,
	RunE: runWorker,
}

func init() {
	workerCmd.Flags().IntVarP(&workerConcurrency, "concurrency", "c", 2, "number of jobs processed in parallel")
	rootCmd.AddCommand(workerCmd)
}

func runWorker(cmd *cobra.Command, args []string) error {
	cfg, db, err := bootstrap()
	if err != nil {
		return err
	}
	log := logger.WithComponent("worker")

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	gem, err := ai.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		return err
	}
	defer gem.Close()

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()

	forecaster := ai.NewForecaster(db, gem, ai.NewRedisStore(rdb))
	worker := jobs.NewWorker(cfg.RedisAddr, workerConcurrency, jobs.NewForecastHandler(forecaster))

	log.Info().Str("redis", cfg.RedisAddr).Int("concurrency", workerConcurrency).Msg("worker started")
	if err := worker.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	log.Info().Msg("worker stopped")
	return nil
}
