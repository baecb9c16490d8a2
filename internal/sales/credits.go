package sales

import (
	"context"
	"errors"
	"fmt"

	"go-hardware-pos/internal/apperr"
	"go-hardware-pos/internal/auth"
	"go-hardware-pos/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NoCreditsMessage is reported by the bulk operations when there is nothing to do.
const NoCreditsMessage = "No unpaid credits found for this customer."

// BatchResult reports a bulk settlement or deletion. Each sale is its own unit
// of work, so some may succeed while others fail.
type BatchResult struct {
	Message   string          `json:"message"`
	Processed []uint          `json:"processed"`
	Failed    map[uint]string `json:"failed,omitempty"`
}

// PaySale settles one credit sale in cash.
func (s *Service) PaySale(ctx context.Context, scope auth.Scope, saleID uint) (*models.Sale, error) {
	var sale *models.Sale
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var err error
		sale, err = lockSale(tx, scope, saleID)
		if err != nil {
			return err
		}
		return s.settle(tx, scope.Actor, sale)
	})
	if err != nil {
		return nil, apperr.Wrap(err, "Failed to pay credit")
	}
	return sale, nil
}

// DeleteCredit removes an unpaid credit sale with its items and payment links.
// Stock is not restored.
func (s *Service) DeleteCredit(ctx context.Context, scope auth.Scope, saleID uint) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sale, err := lockSale(tx, scope, saleID)
		if err != nil {
			return err
		}
		return s.remove(tx, scope.Actor, sale)
	})
	return apperr.Wrap(err, "Failed to delete credit")
}

// PayAllCredits settles every outstanding credit sale of a customer.
func (s *Service) PayAllCredits(ctx context.Context, scope auth.Scope, customerID uint) (*BatchResult, error) {
	res, err := s.eachCredit(ctx, scope, customerID, s.settle)
	if err != nil {
		return nil, err
	}
	if res.Message == "" {
		res.Message = batchMessage(res, "All credits for this customer have been paid.", "Paid")
	}
	return res, nil
}

// DeleteAllCredits removes every outstanding credit sale of a customer.
func (s *Service) DeleteAllCredits(ctx context.Context, scope auth.Scope, customerID uint) (*BatchResult, error) {
	res, err := s.eachCredit(ctx, scope, customerID, s.remove)
	if err != nil {
		return nil, err
	}
	if res.Message == "" {
		res.Message = batchMessage(res, "All unpaid credits for this customer have been deleted.", "Deleted")
	}
	return res, nil
}

func (s *Service) eachCredit(ctx context.Context, scope auth.Scope, customerID uint, apply func(*gorm.DB, auth.Actor, *models.Sale) error) (*BatchResult, error) {
	db := s.db.WithContext(ctx)

	var customer models.Customer
	if err := db.Where("id = ?", customerID).Limit(1).Find(&customer).Error; err != nil {
		return nil, apperr.Persistence("Failed to load customer", err)
	}
	if customer.ID == 0 || !scope.CanAccessBranch(customer.BranchID) {
		return nil, apperr.NotFound("Customer not found")
	}

	var ids []uint
	if err := db.Model(&models.Sale{}).
		Where("customer_id = ? AND payment_type = ?", customerID, models.PaymentCredit).
		Order("id").Pluck("id", &ids).Error; err != nil {
		return nil, apperr.Persistence("Failed to load credits", err)
	}
	res := &BatchResult{Processed: []uint{}}
	if len(ids) == 0 {
		res.Message = NoCreditsMessage
		return res, nil
	}

	for _, id := range ids {
		err := db.Transaction(func(tx *gorm.DB) error {
			sale, err := lockSale(tx, scope, id)
			if err != nil {
				return err
			}
			return apply(tx, scope.Actor, sale)
		})
		if err != nil {
			if res.Failed == nil {
				res.Failed = map[uint]string{}
			}
			res.Failed[id] = apperr.Message(err)
			s.log.Warn().Err(err).Uint("sale_id", id).Msg("credit batch item failed")
			continue
		}
		res.Processed = append(res.Processed, id)
	}
	return res, nil
}

func batchMessage(res *BatchResult, allDone, verb string) string {
	if len(res.Failed) == 0 {
		return allDone
	}
	return fmt.Sprintf("%s %d of %d credits.", verb, len(res.Processed), len(res.Processed)+len(res.Failed))
}

// lockSale loads a sale the scope may see, holding a row lock where the
// database supports one.
func lockSale(tx *gorm.DB, scope auth.Scope, saleID uint) (*models.Sale, error) {
	var sale models.Sale
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&sale, saleID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !scope.CanAccessBranch(sale.BranchID)) {
		return nil, apperr.NotFound("Sale #%d not found", saleID)
	}
	if err != nil {
		return nil, apperr.Persistence("Failed to load sale", err)
	}
	return &sale, nil
}

func (s *Service) settle(tx *gorm.DB, actor auth.Actor, sale *models.Sale) error {
	// 1. Only open credits can be paid
	if sale.PaymentType != models.PaymentCredit {
		return apperr.InvalidState("This sale is already paid.")
	}

	// 2. Flip the sale; the guard makes a concurrent second payment a no-op
	res := tx.Model(&models.Sale{}).
		Where("id = ? AND payment_type = ?", sale.ID, models.PaymentCredit).
		Update("payment_type", models.PaymentCash)
	if res.Error != nil {
		return apperr.Persistence("Failed to update sale", res.Error)
	}
	if res.RowsAffected == 0 {
		return apperr.InvalidState("This sale is already paid.")
	}
	sale.PaymentType = models.PaymentCash

	// 3. Payment and its link
	notes := fmt.Sprintf("Payment of credit sale #%d", sale.ID)
	if err := recordPayment(tx, actor, sale, s.opts.Now(), notes); err != nil {
		return err
	}

	// 4. Audit
	return writeAudit(tx, actor, "Pay Credit",
		fmt.Sprintf("Paid credit sale #%d for customer #%s", sale.ID, customerLabel(sale.CustomerID)))
}

func (s *Service) remove(tx *gorm.DB, actor auth.Actor, sale *models.Sale) error {
	if sale.PaymentType != models.PaymentCredit {
		return apperr.InvalidState("Cannot delete a sale that has already been paid.")
	}

	// 1. Items, then payment links, then the sale
	if err := tx.Where("sale_id = ?", sale.ID).Delete(&models.SaleItem{}).Error; err != nil {
		return apperr.Persistence("Failed to delete sale items", err)
	}
	if err := tx.Where("sale_id = ?", sale.ID).Delete(&models.PaymentSale{}).Error; err != nil {
		return apperr.Persistence("Failed to delete payment links", err)
	}
	if err := tx.Delete(&models.Sale{}, sale.ID).Error; err != nil {
		return apperr.Persistence("Failed to delete sale", err)
	}

	// 2. Audit
	return writeAudit(tx, actor, "Delete Credit",
		fmt.Sprintf("Deleted credit sale #%d for customer #%s", sale.ID, customerLabel(sale.CustomerID)))
}
