// Package customers keeps branch customer records and what they owe.
package customers

import (
	"context"
	"errors"
	"time"

	"go-hardware-pos/internal/apperr"
	"go-hardware-pos/internal/auth"
	"go-hardware-pos/internal/logger"
	"go-hardware-pos/internal/models"
	"go-hardware-pos/internal/utils"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Service struct {
	db  *gorm.DB
	log zerolog.Logger
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db, log: logger.WithComponent("customers")}
}

type Input struct {
	Name    string `json:"cust_name" validate:"required,max=255"`
	Contact string `json:"cust_contact" validate:"max=50"`
	Address string `json:"cust_address" validate:"max=255"`
	Notes   string `json:"notes" validate:"max=255"`
}

// Create adds a customer to the branch.
func (s *Service) Create(ctx context.Context, branchID uint, in Input) (*models.Customer, error) {
	if branchID == 0 {
		return nil, apperr.Validation("No branch selected.")
	}
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}
	c := &models.Customer{BranchID: branchID, Name: in.Name, Contact: in.Contact, Address: in.Address, Notes: in.Notes}
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return nil, apperr.Persistence("Failed to add customer", err)
	}
	return c, nil
}

func (s *Service) Update(ctx context.Context, scope auth.Scope, id uint, in Input) (*models.Customer, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}
	c, err := s.Get(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).Model(c).Updates(map[string]any{
		"name":    in.Name,
		"contact": in.Contact,
		"address": in.Address,
		"notes":   in.Notes,
	}).Error
	if err != nil {
		return nil, apperr.Persistence("Failed to update customer", err)
	}
	return c, nil
}

// List pages through a branch's customers.
func (s *Service) List(ctx context.Context, branchID uint, f utils.ListFilter) (*utils.Page[models.Customer], error) {
	q := s.db.WithContext(ctx).Model(&models.Customer{}).Where("branch_id = ?", branchID)
	if f.Search != "" {
		q = q.Where("name LIKE ? OR contact LIKE ?", f.Like(), f.Like())
	}
	page, err := utils.Paginate[models.Customer](q.Order("name"), f)
	if err != nil {
		return nil, apperr.Persistence("Failed to fetch customers", err)
	}
	return page, nil
}

// Get loads a customer from a branch the scope belongs to.
func (s *Service) Get(ctx context.Context, scope auth.Scope, id uint) (*models.Customer, error) {
	var c models.Customer
	err := s.db.WithContext(ctx).First(&c, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !scope.CanAccessBranch(c.BranchID)) {
		return nil, apperr.NotFound("Customer not found")
	}
	if err != nil {
		return nil, apperr.Persistence("Failed to load customer", err)
	}
	return &c, nil
}

// Delete removes the customer. Their sales stay on the books as walk-in sales.
func (s *Service) Delete(ctx context.Context, scope auth.Scope, id uint) error {
	if _, err := s.Get(ctx, scope, id); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.Sale{}).Where("customer_id = ?", id).Update("customer_id", nil).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Customer{}, id).Error
	})
	if err != nil {
		return apperr.Persistence("Failed to delete customer", err)
	}
	s.log.Info().Uint("customer_id", id).Msg("customer deleted")
	return nil
}

// Credit is one outstanding credit sale.
type Credit struct {
	ID       uint            `json:"id"`
	SaleDate time.Time       `json:"sale_date"`
	DueDate  *time.Time      `json:"due_date"`
	Amount   decimal.Decimal `json:"amount"`
}

type CreditStatement struct {
	CustomerName string   `json:"customer_name"`
	Credits      []Credit `json:"credits"`
}

// Credits lists a customer's unpaid credit sales, oldest first.
func (s *Service) Credits(ctx context.Context, scope auth.Scope, id uint) (*CreditStatement, error) {
	c, err := s.Get(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	var sales []models.Sale
	err = s.db.WithContext(ctx).
		Where("customer_id = ? AND payment_type = ?", id, models.PaymentCredit).
		Order("sale_date, id").Find(&sales).Error
	if err != nil {
		return nil, apperr.Persistence("Failed to fetch credits", err)
	}

	out := &CreditStatement{CustomerName: c.Name, Credits: make([]Credit, 0, len(sales))}
	for _, sale := range sales {
		out.Credits = append(out.Credits, Credit{
			ID:       sale.ID,
			SaleDate: sale.SaleDate,
			DueDate:  sale.DueDate,
			Amount:   sale.TotalAmount,
		})
	}
	return out, nil
}
