package catalog

import (
	"context"
	"fmt"

	"go-hardware-pos/internal/apperr"
	"go-hardware-pos/internal/auth"
	"go-hardware-pos/internal/database"
	"go-hardware-pos/internal/models"
	"go-hardware-pos/internal/utils"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PurchaseLine struct {
	BranchProductID uint            `json:"branch_product_id" validate:"required"`
	Quantity        int             `json:"quantity" validate:"gt=0"`
	UnitCost        decimal.Decimal `json:"unit_cost" validate:"gte=0"`
}

type PurchaseInput struct {
	SupplierID uint           `json:"supplier_id" validate:"required"`
	Lines      []PurchaseLine `json:"items" validate:"min=1,dive"`
}

// RecordPurchase books stock received from a supplier: the purchase and its
// items, a stock increment per line and a matching stock movement.
func (s *Service) RecordPurchase(ctx context.Context, actor auth.Actor, branchID uint, in PurchaseInput) (*models.Purchase, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}

	now := s.now()
	purchase := &models.Purchase{
		BranchID:     branchID,
		SupplierID:   in.SupplierID,
		PurchaseDate: now,
		CreatedBy:    actor.UserID,
	}
	for _, l := range in.Lines {
		purchase.TotalAmount = purchase.TotalAmount.Add(l.UnitCost.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 1. Supplier and products must belong to the branch
		var count int64
		if err := tx.Model(&models.Supplier{}).Where("id = ? AND branch_id = ?", in.SupplierID, branchID).Count(&count).Error; err != nil {
			return apperr.Persistence("Failed to load supplier", err)
		}
		if count == 0 {
			return apperr.NotFound("Supplier not found in this branch.")
		}
		for _, l := range in.Lines {
			var n int64
			if err := tx.Model(&models.BranchProduct{}).Where("id = ? AND branch_id = ?", l.BranchProductID, branchID).Count(&n).Error; err != nil {
				return apperr.Persistence("Failed to load product", err)
			}
			if n == 0 {
				return apperr.NotFound("Product %d is not stocked in this branch.", l.BranchProductID)
			}
		}

		// 2. Header
		if err := tx.Create(purchase).Error; err != nil {
			return apperr.Persistence("Failed to record purchase", err)
		}

		// 3. Lines
		for _, l := range in.Lines {
			item := models.PurchaseItem{
				PurchaseID:      purchase.ID,
				BranchProductID: l.BranchProductID,
				Quantity:        l.Quantity,
				UnitCost:        l.UnitCost,
				Subtotal:        l.UnitCost.Mul(decimal.NewFromInt(int64(l.Quantity))),
			}
			if err := tx.Create(&item).Error; err != nil {
				return apperr.Persistence("Failed to save purchase item", err)
			}
			purchase.Items = append(purchase.Items, item)

			err := tx.Model(&models.BranchProduct{}).Where("id = ?", l.BranchProductID).
				Update("stock_qty", gorm.Expr("stock_qty + ?", l.Quantity)).Error
			if err != nil {
				return apperr.Persistence("Failed to update stock", err)
			}

			movement := models.StockMovement{
				BranchProductID: l.BranchProductID,
				ChangeQty:       l.Quantity,
				MovementType:    models.MovementPurchase,
				ReferenceID:     purchase.ID,
				MovementDate:    now,
				CreatedBy:       actor.UserID,
			}
			if err := tx.Create(&movement).Error; err != nil {
				return apperr.Persistence("Failed to record stock movement", err)
			}
		}

		// 4. Audit
		details := fmt.Sprintf("Purchase ID: %d from Supplier %d", purchase.ID, in.SupplierID)
		if err := database.WriteAudit(tx, actor.UserID, "Recorded Purchase", details); err != nil {
			return apperr.Persistence("Failed to write audit log", err)
		}
		return nil
	})
	if err != nil {
		return nil, apperr.Wrap(err, "Failed to record purchase")
	}
	return purchase, nil
}
