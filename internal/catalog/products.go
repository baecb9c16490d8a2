package catalog

import (
	"context"
	"errors"
	"fmt"

	"go-hardware-pos/internal/apperr"
	"go-hardware-pos/internal/auth"
	"go-hardware-pos/internal/models"
	"go-hardware-pos/internal/utils"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type ProductInput struct {
	Name         string          `json:"prod_name" validate:"required,max=255"`
	Description  string          `json:"prod_description"`
	Category     string          `json:"category" validate:"required,max=255"`
	UnitCost     decimal.Decimal `json:"unit_cost" validate:"gte=0"`
	SellingPrice decimal.Decimal `json:"selling_price" validate:"gte=0"`
	ImageURL     string          `json:"image_url"`
	StockQty     int             `json:"quantity" validate:"gte=0"`
	SupplierID   uint            `json:"supplier" validate:"required"`
}

// SKU formats the catalog code for a product id.
func SKU(id uint) string {
	return fmt.Sprintf("PROD-%05d", id)
}

// CreateProduct adds a product to the catalog, stocks it in the branch and
// links its preferred supplier.
func (s *Service) CreateProduct(ctx context.Context, branchID uint, in ProductInput) (*models.BranchProduct, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}
	if branchID == 0 {
		return nil, apperr.Validation("No active branch found.")
	}

	var bp models.BranchProduct
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := requireSupplier(tx, in.SupplierID); err != nil {
			return err
		}

		// 1. Next SKU from the highest id so far
		var lastID uint
		if err := tx.Model(&models.Product{}).Select("COALESCE(MAX(id), 0)").Scan(&lastID).Error; err != nil {
			return apperr.Persistence("Failed to generate SKU", err)
		}

		product := models.Product{
			SKU:          SKU(lastID + 1),
			Name:         in.Name,
			Description:  in.Description,
			Category:     in.Category,
			UnitCost:     in.UnitCost,
			SellingPrice: in.SellingPrice,
			ImageURL:     in.ImageURL,
			IsActive:     true,
		}
		if err := tx.Create(&product).Error; err != nil {
			return apperr.Persistence("Failed to create product", err)
		}

		// 2. Stock it in the branch
		bp = models.BranchProduct{
			BranchID:  branchID,
			ProductID: product.ID,
			StockQty:  in.StockQty,
			IsActive:  true,
		}
		if err := tx.Create(&bp).Error; err != nil {
			return apperr.Persistence("Failed to stock product", err)
		}

		// 3. Preferred supplier
		link := models.ProductSupplier{ProductID: product.ID, SupplierID: in.SupplierID, Preferred: true}
		if err := tx.Create(&link).Error; err != nil {
			return apperr.Persistence("Failed to link supplier", err)
		}

		bp.Product = product
		return nil
	})
	if err != nil {
		return nil, apperr.Wrap(err, "Failed to create product")
	}
	return &bp, nil
}

// UpdateProduct edits the catalog entry, sets the branch stock level and
// relinks the supplier.
func (s *Service) UpdateProduct(ctx context.Context, branchID, productID uint, in ProductInput) (*models.BranchProduct, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}

	var bp models.BranchProduct
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.First(&product, productID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperr.NotFound("Product not found")
			}
			return apperr.Persistence("Failed to load product", err)
		}
		if err := requireSupplier(tx, in.SupplierID); err != nil {
			return err
		}

		err := tx.Model(&product).Updates(map[string]any{
			"name":          in.Name,
			"description":   in.Description,
			"category":      in.Category,
			"unit_cost":     in.UnitCost,
			"selling_price": in.SellingPrice,
			"image_url":     in.ImageURL,
		}).Error
		if err != nil {
			return apperr.Persistence("Failed to update product", err)
		}

		// Stock row for this branch, created on first edit if missing
		if err := tx.Where("branch_id = ? AND product_id = ?", branchID, productID).Limit(1).Find(&bp).Error; err != nil {
			return apperr.Persistence("Failed to load stock", err)
		}
		if bp.ID == 0 {
			bp = models.BranchProduct{BranchID: branchID, ProductID: productID, StockQty: in.StockQty, IsActive: true}
			if err := tx.Create(&bp).Error; err != nil {
				return apperr.Persistence("Failed to stock product", err)
			}
		} else if err := tx.Model(&bp).Update("stock_qty", in.StockQty).Error; err != nil {
			return apperr.Persistence("Failed to update stock", err)
		}

		var link models.ProductSupplier
		if err := tx.Where("product_id = ?", productID).Order("id").Limit(1).Find(&link).Error; err != nil {
			return apperr.Persistence("Failed to load supplier link", err)
		}
		if link.ID == 0 {
			link = models.ProductSupplier{ProductID: productID, SupplierID: in.SupplierID, Preferred: true}
			err = tx.Create(&link).Error
		} else {
			err = tx.Model(&link).Update("supplier_id", in.SupplierID).Error
		}
		if err != nil {
			return apperr.Persistence("Failed to link supplier", err)
		}

		return tx.Preload("Product").First(&bp, bp.ID).Error
	})
	if err != nil {
		return nil, apperr.Wrap(err, "Failed to update product")
	}
	return &bp, nil
}

// ListProducts pages through the products stocked in a branch, newest first.
func (s *Service) ListProducts(ctx context.Context, branchID uint, f utils.ListFilter) (*utils.Page[models.BranchProduct], error) {
	q := s.db.WithContext(ctx).Model(&models.BranchProduct{}).
		Joins("JOIN products ON products.id = branch_products.product_id").
		Where("branch_products.branch_id = ?", branchID)
	if f.Search != "" {
		q = q.Where("products.name LIKE ? OR products.category LIKE ?", f.Like(), f.Like())
	}
	page, err := utils.Paginate[models.BranchProduct](q.Order("branch_products.product_id desc"), f, "Product.Suppliers.Supplier")
	if err != nil {
		return nil, apperr.Persistence("Failed to fetch products", err)
	}
	return page, nil
}

// DeleteProduct removes a product from the catalog and from every branch.
func (s *Service) DeleteProduct(ctx context.Context, scope auth.Scope, productID uint) error {
	var stocked []uint
	err := s.db.WithContext(ctx).Model(&models.BranchProduct{}).
		Where("product_id = ?", productID).Pluck("branch_id", &stocked).Error
	if err != nil {
		return apperr.Persistence("Failed to load product", err)
	}
	var count int64
	if err := s.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", productID).Count(&count).Error; err != nil {
		return apperr.Persistence("Failed to load product", err)
	}
	if count == 0 {
		return apperr.NotFound("Product not found")
	}
	for _, b := range stocked {
		if !scope.CanAccessBranch(b) {
			return apperr.Forbidden("Product is stocked in a branch you do not manage.")
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return cascadeProduct(tx, productID)
	})
	if err != nil {
		s.log.Error().Err(err).Uint("product_id", productID).Msg("product cascade rolled back")
		return apperr.Persistence("Failed to delete product", err)
	}
	return nil
}

func requireSupplier(tx *gorm.DB, id uint) error {
	var count int64
	if err := tx.Model(&models.Supplier{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return apperr.Persistence("Failed to load supplier", err)
	}
	if count == 0 {
		return apperr.NotFound("Supplier not found")
	}
	return nil
}
