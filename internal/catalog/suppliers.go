package catalog

import (
	"context"
	"errors"

	"go-hardware-pos/internal/apperr"
	"go-hardware-pos/internal/auth"
	"go-hardware-pos/internal/models"
	"go-hardware-pos/internal/utils"

	"gorm.io/gorm"
)

type SupplierInput struct {
	Name     string `json:"supp_name" validate:"required,max=255"`
	Contact  string `json:"supp_contact" validate:"max=20"`
	Email    string `json:"supp_email" validate:"omitempty,email,max=255"`
	Address  string `json:"supp_address" validate:"max=255"`
	BranchID uint   `json:"branch_id"` // honoured for owners only
}

// CreateSupplier adds a supplier to the current branch. Owners may file it
// under any branch they own.
func (s *Service) CreateSupplier(ctx context.Context, scope auth.Scope, in SupplierInput) (*models.Supplier, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}

	branchID := scope.CurrentBranchID
	if scope.Role == auth.Owner && in.BranchID != 0 {
		if !scope.CanAccessBranch(in.BranchID) {
			return nil, apperr.Forbidden("You do not manage that branch.")
		}
		branchID = in.BranchID
	}
	if branchID == 0 {
		return nil, apperr.Validation("No active branch found.")
	}

	supplier := &models.Supplier{
		BranchID: branchID,
		Name:     in.Name,
		Contact:  in.Contact,
		Email:    in.Email,
		Address:  in.Address,
	}
	if err := s.db.WithContext(ctx).Create(supplier).Error; err != nil {
		return nil, apperr.Persistence("Something went wrong, please try again.", err)
	}
	return supplier, nil
}

func (s *Service) UpdateSupplier(ctx context.Context, scope auth.Scope, id uint, in SupplierInput) (*models.Supplier, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}
	supplier, err := s.supplier(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	err = s.db.WithContext(ctx).Model(supplier).Updates(map[string]any{
		"name":    in.Name,
		"contact": in.Contact,
		"email":   in.Email,
		"address": in.Address,
	}).Error
	if err != nil {
		return nil, apperr.Persistence("Failed to update supplier", err)
	}
	return supplier, nil
}

// ListSuppliers pages through suppliers of every branch the actor belongs to.
func (s *Service) ListSuppliers(ctx context.Context, scope auth.Scope, f utils.ListFilter) (*utils.Page[models.Supplier], error) {
	q := scope.Branches(s.db.WithContext(ctx).Model(&models.Supplier{}), "suppliers.branch_id")
	if f.Search != "" {
		q = q.Where("suppliers.name LIKE ? OR suppliers.contact LIKE ? OR suppliers.address LIKE ?", f.Like(), f.Like(), f.Like())
	}
	page, err := utils.Paginate[models.Supplier](q.Order("suppliers.id"), f)
	if err != nil {
		return nil, apperr.Persistence("Failed to fetch suppliers", err)
	}
	return page, nil
}

// DeleteSupplier removes a supplier with its product links and purchases.
func (s *Service) DeleteSupplier(ctx context.Context, scope auth.Scope, id uint) error {
	if _, err := s.supplier(ctx, scope, id); err != nil {
		return err
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return deleteSuppliers(tx, []uint{id})
	})
	if err != nil {
		s.log.Error().Err(err).Uint("supplier_id", id).Msg("supplier cascade rolled back")
		return apperr.Persistence("Failed to delete supplier", err)
	}
	return nil
}

func (s *Service) supplier(ctx context.Context, scope auth.Scope, id uint) (*models.Supplier, error) {
	var supplier models.Supplier
	err := s.db.WithContext(ctx).First(&supplier, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) || (err == nil && !scope.CanAccessBranch(supplier.BranchID)) {
		return nil, apperr.NotFound("Supplier not found")
	}
	if err != nil {
		return nil, apperr.Persistence("Failed to load supplier", err)
	}
	return &supplier, nil
}
