// Package dbtest opens throwaway migrated databases for tests.
package dbtest

import (
	"path/filepath"
	"testing"

	"go-hardware-pos/internal/database"

	"gorm.io/gorm"
)

// New returns a migrated sqlite database living in the test's temp dir.
func New(t testing.TB) *gorm.DB {
	t.Helper()
	db, err := database.Connect(database.Options{
		Driver:  "sqlite",
		DSN:     filepath.Join(t.TempDir(), "pos.db") + "?_busy_timeout=5000",
		Retries: 1,
	})
	if err != nil {
		t.Fatalf("open test database: %v", err)
	}
	if err := database.Migrate(db); err != nil {
		t.Fatalf("migrate test database: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}
