// Package catalog manages branches, products, suppliers and stock purchases.
package catalog

import (
	"time"

	"go-hardware-pos/internal/logger"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

type Service struct {
	db  *gorm.DB
	now func() time.Time
	log zerolog.Logger
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db, now: time.Now, log: logger.WithComponent("catalog")}
}

// WithClock swaps the time source, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}
