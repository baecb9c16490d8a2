package sales

import (
	"context"
	"errors"
	"strconv"

	"go-hardware-pos/internal/apperr"
	"go-hardware-pos/internal/auth"
	"go-hardware-pos/internal/models"

	"gorm.io/gorm"
)

// LogFilter narrows the sales log.
type LogFilter struct {
	Search string // sale id, customer name or cashier username
	Limit  int
}

// SalesLog lists the sales the scope may see, newest first.
func (s *Service) SalesLog(ctx context.Context, scope auth.Scope, f LogFilter) ([]models.Sale, error) {
	q := ScopedQuery(s.db.WithContext(ctx), scope, f.Search).
		Preload("Customer").
		Preload("Creator").
		Order("sales.sale_date desc, sales.id desc")
	if f.Limit > 0 {
		q = q.Limit(f.Limit)
	}

	var out []models.Sale
	if err := q.Find(&out).Error; err != nil {
		return nil, apperr.Persistence("Failed to fetch sales", err)
	}
	return out, nil
}

// ScopedQuery is the base sales query shared by the log and the export.
func ScopedQuery(db *gorm.DB, scope auth.Scope, search string) *gorm.DB {
	q := scope.Sales(db.Model(&models.Sale{}))
	if search == "" {
		return q
	}
	like := "%" + search + "%"
	q = q.
		Joins("LEFT JOIN customers ON customers.id = sales.customer_id").
		Joins("LEFT JOIN users ON users.id = sales.created_by")
	if id, err := strconv.ParseUint(search, 10, 64); err == nil {
		return q.Where("sales.id = ? OR customers.name LIKE ? OR users.username LIKE ?", id, like, like)
	}
	return q.Where("customers.name LIKE ? OR users.username LIKE ?", like, like)
}

// Get returns a sale with its lines.
func (s *Service) Get(ctx context.Context, scope auth.Scope, saleID uint) (*models.Sale, error) {
	var sale models.Sale
	err := s.db.WithContext(ctx).
		Preload("Items.BranchProduct.Product").
		Preload("Customer").
		Preload("Creator").
		First(&sale, saleID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !scope.CanAccessBranch(sale.BranchID)) {
		return nil, apperr.NotFound("Sale #%d not found", saleID)
	}
	if err != nil {
		return nil, apperr.Persistence("Failed to fetch sale", err)
	}
	return &sale, nil
}
