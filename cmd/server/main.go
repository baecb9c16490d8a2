package main

import (
	"fmt"
	"os"

	"go-hardware-pos/internal/config"
	"go-hardware-pos/internal/database"
	"go-hardware-pos/internal/logger"

	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "pos",
	Short: "Hardware store point of sale",
	Long: `Multi-branch point of sale for hardware stores.

Run "pos serve" for the HTTP API, "pos worker" for background forecast jobs
and "pos migrate" to sync the database schema.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		log := logger.WithComponent("cmd")
		log.Error().Err(err).Msg("command execution failed")
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// bootstrap loads configuration, sets up logging and opens the database.
func bootstrap() (*config.Config, *gorm.DB, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, err
	}
	if err := logger.Setup(logger.LogConfig{Level: cfg.LogLevel, Format: cfg.LogFormat}); err != nil {
		return nil, nil, fmt.Errorf("logger: %w", err)
	}
	db, err := database.Connect(database.Options{
		Driver:  cfg.DBDriver,
		DSN:     cfg.DBDSN,
		Retries: cfg.DBConnectRetries,
		Verbose: cfg.LogLevel == "debug" || cfg.LogLevel == "trace",
	})
	if err != nil {
		return nil, nil, err
	}
	return cfg, db, nil
}
