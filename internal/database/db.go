package database

import (
	"fmt"
	"strings"
	"time"

	"go-hardware-pos/internal/logger"
	"go-hardware-pos/internal/models"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Options controls how the connection is opened.
type Options struct {
	Driver  string // mysql, postgres or sqlite
	DSN     string
	Retries int
	Verbose bool
}

func dialector(driver, dsn string) (gorm.Dialector, error) {
	switch strings.ToLower(driver) {
	case "mysql":
		return mysql.Open(dsn), nil
	case "postgres":
		return postgres.Open(dsn), nil
	case "sqlite":
		return sqlite.Open(dsn), nil
	}
	return nil, fmt.Errorf("database: unsupported driver %q", driver)
}

// Connect opens the database, waiting for it to come up.
func Connect(opts Options) (*gorm.DB, error) {
	log := logger.WithComponent("database")

	dial, err := dialector(opts.Driver, opts.DSN)
	if err != nil {
		return nil, err
	}

	level := gormlogger.Warn
	if opts.Verbose {
		level = gormlogger.Info
	}

	retries := opts.Retries
	if retries < 1 {
		retries = 1
	}

	// Connect with GORM (Wait for DB to be ready)
	var db *gorm.DB
	for i := 0; i < retries; i++ {
		db, err = gorm.Open(dial, &gorm.Config{
			Logger:                                   gormlogger.Default.LogMode(level),
			DisableForeignKeyConstraintWhenMigrating: true,
		})
		if err == nil {
			break
		}
		log.Warn().Err(err).Int("attempt", i+1).Int("of", retries).Msg("failed to connect to database, retrying in 2 seconds")
		time.Sleep(2 * time.Second)
	}
	if err != nil {
		return nil, fmt.Errorf("database: connect after %d attempts: %w", retries, err)
	}

	log.Info().Str("driver", opts.Driver).Msg("connected to database")
	return db, nil
}

// Migrate syncs the schema.
func Migrate(db *gorm.DB) error {
	if err := db.SetupJoinTable(&models.User{}, "Branches", &models.UserBranch{}); err != nil {
		return fmt.Errorf("database: join table: %w", err)
	}
	if err := db.SetupJoinTable(&models.Branch{}, "Users", &models.UserBranch{}); err != nil {
		return fmt.Errorf("database: join table: %w", err)
	}
	if err := db.AutoMigrate(models.All()...); err != nil {
		return fmt.Errorf("database: migrate: %w", err)
	}
	log := logger.WithComponent("database")
	log.Info().Msg("database schema synced")
	return nil
}
