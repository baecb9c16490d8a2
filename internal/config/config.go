package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog/log"
)

// Stock policies for a sale that asks for more than the branch holds.
const (
	StockClamp  = "clamp"
	StockReject = "reject"
)

// Forecast modes for the weekly per-product forecast row touched by a sale.
const (
	ForecastReplace    = "replace"
	ForecastAccumulate = "accumulate"
)

// Config holds runtime configuration for the server, the worker and the CLI.
type Config struct {
	AppAddr           string   `envconfig:"APP_ADDR" default:":8080"`
	BaseURL           string   `envconfig:"BASE_URL" default:"http://localhost:8080"`
	AllowedOrigins    []string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173"`
	AllowRegistration bool     `envconfig:"ALLOW_REGISTRATION" default:"false"`

	JWTSecret string        `envconfig:"JWT_SECRET"`
	JWTTTL    time.Duration `envconfig:"JWT_TTL" default:"24h"`

	DBDriver         string `envconfig:"DB_DRIVER" default:"mysql"`
	DBDSN            string `envconfig:"DB_DSN"`
	DBConnectRetries int    `envconfig:"DB_CONNECT_RETRIES" default:"5"`

	RedisAddr string `envconfig:"REDIS_ADDR" default:"127.0.0.1:6379"`

	GeminiAPIKey string `envconfig:"GEMINI_API_KEY"`
	GeminiModel  string `envconfig:"GEMINI_MODEL" default:"gemini-2.0-flash-001"`

	ForecastAutoRegenerate bool   `envconfig:"FORECAST_AUTO_REGENERATE" default:"true"`
	ForecastMode           string `envconfig:"FORECAST_MODE" default:"replace"`
	StockPolicy            string `envconfig:"STOCK_POLICY" default:"clamp"`

	GCSBucket          string `envconfig:"GCS_BUCKET"`
	GCSCredentialsFile string `envconfig:"GCS_CREDENTIALS_FILE"`

	LogLevel  string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat string `envconfig:"LOG_FORMAT" default:"console"`
}

// Load reads an optional .env file, then the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("no .env file found, using process environment")
	}

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate checks required keys and enumerated values.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.DBDSN == "" {
		return fmt.Errorf("DB_DSN is required")
	}
	switch strings.ToLower(c.DBDriver) {
	case "mysql", "postgres", "sqlite":
	default:
		return fmt.Errorf("DB_DRIVER %q is not supported", c.DBDriver)
	}
	switch c.StockPolicy {
	case StockClamp, StockReject:
	default:
		return fmt.Errorf("STOCK_POLICY must be %q or %q", StockClamp, StockReject)
	}
	switch c.ForecastMode {
	case ForecastReplace, ForecastAccumulate:
	default:
		return fmt.Errorf("FORECAST_MODE must be %q or %q", ForecastReplace, ForecastAccumulate)
	}
	return nil
}
