package main

import (
	"fmt"

	"go-hardware-pos/internal/ai"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

var forecastBranch uint

var forecastCmd = &cobra.Command{
	Use:     "forecast",
	Short:   "Regenerate the AI forecast of one branch",
	Example: `  pos forecast --branch 3`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if forecastBranch == 0 {
			return fmt.Errorf("--branch is required")
		}
		cfg, db, err := bootstrap()
		if err != nil {
			return err
		}
		ctx := cmd.Context()

		gem, err := ai.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return err
		}
		defer gem.Close()

		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		defer rdb.Close()

		sum, err := ai.NewForecaster(db, gem, ai.NewRedisStore(rdb)).Generate(ctx, forecastBranch)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), sum.Text)
		return nil
	},
}

func init() {
	forecastCmd.Flags().UintVarP(&forecastBranch, "branch", "b", 0, "branch id")
	rootCmd.AddCommand(forecastCmd)
}
