package main

import (
	"context"
	"time"

	"go-hardware-pos/internal/ai"
	"go-hardware-pos/internal/auth"
	"go-hardware-pos/internal/catalog"
	"go-hardware-pos/internal/config"
	"go-hardware-pos/internal/customers"
	"go-hardware-pos/internal/export"
	"go-hardware-pos/internal/handlers"
	"go-hardware-pos/internal/jobs"
	"go-hardware-pos/internal/logger"
	"go-hardware-pos/internal/payroll"
	"go-hardware-pos/internal/sales"
	"go-hardware-pos/internal/storage"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
	"gorm.io/gorm"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API and the web frontend",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, db, err := bootstrap()
		if err != nil {
			return err
		}
		r, cleanup, err := newRouter(cmd.Context(), cfg, db)
		if err != nil {
			return err
		}
		defer cleanup()

		log := logger.WithComponent("main")
		log.Info().Str("addr", cfg.AppAddr).Str("base_url", cfg.BaseURL).Msg("server starting")
		return r.Run(cfg.AppAddr)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

// newRouter wires every service into the gin engine.
func newRouter(ctx context.Context, cfg *config.Config, db *gorm.DB) (*gin.Engine, func(), error) {
	log := logger.WithComponent("main")
	var closers []func() error
	cleanup := func() {
		for _, c := range closers {
			_ = c()
		}
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	closers = append(closers, rdb.Close)

	summaries := ai.NewRedisStore(rdb)

	client := jobs.NewClient(cfg.RedisAddr)
	closers = append(closers, client.Close)
	queue := jobs.NewDispatcher(client)

	// Sales only trigger regeneration when enabled; explicit requests always queue.
	var dispatcher sales.ForecastDispatcher
	if cfg.ForecastAutoRegenerate {
		dispatcher = queue
	}

	h := &handlers.Handler{
		DB:     db,
		Tokens: auth.NewTokens(cfg.JWTSecret, cfg.JWTTTL),
		Sales: sales.NewService(db, dispatcher, sales.Options{
			StockPolicy:  cfg.StockPolicy,
			ForecastMode: cfg.ForecastMode,
		}),
		Catalog:   catalog.NewService(db),
		Customers: customers.NewService(db),
		Payroll:   payroll.NewService(db),
		Queue:     queue,
		Summaries: summaries,
	}

	if cfg.GeminiAPIKey != "" {
		gem, err := ai.NewGemini(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		closers = append(closers, gem.Close)
		h.Forecasts = ai.NewForecaster(db, gem, summaries)
		h.Assistant = ai.NewAssistant(gem.Client(), gem.Model(), ai.NewToolbox(db, time.Now))
	} else {
		log.Warn().Msg("GEMINI_API_KEY is not set, AI routes are disabled")
	}

	var up storage.Uploader
	if cfg.GCSBucket != "" {
		gcs, err := storage.NewGCS(ctx, cfg.GCSBucket, cfg.GCSCredentialsFile)
		if err != nil {
			cleanup()
			return nil, nil, err
		}
		up = gcs
	} else {
		up = storage.NewLocal("./uploads", cfg.BaseURL)
		log.Info().Msg("GCS_BUCKET is not set, files are stored under ./uploads")
	}
	h.Files = storage.NewFileService(db, up)
	h.Exports = export.NewExporter(db, h.Customers, h.Files)

	r := gin.New()
	r.Use(gin.Recovery(), logger.GinLogger())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Branch-ID"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Static("/uploads", "./uploads")

	if cfg.AllowRegistration {
		log.Warn().Msg("registration route is OPEN, disable this in production")
	} else {
		log.Info().Msg("registration route is disabled")
	}
	h.Mount(r, cfg.AllowRegistration)

	// Serve the built frontend; unknown paths fall back to index.html.
	r.Static("/assets", "./web/assets")
	r.StaticFile("/vite.svg", "./web/vite.svg")
	r.NoRoute(func(c *gin.Context) {
		c.File("./web/index.html")
	})

	return r, cleanup, nil
}
