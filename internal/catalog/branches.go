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

type BranchInput struct {
	Name     string `json:"branch_name" validate:"required,max=255"`
	Location string `json:"location" validate:"required,max=255"`
}

// CreateBranch opens a new branch and makes the owner a member of it.
func (s *Service) CreateBranch(ctx context.Context, actor auth.Actor, in BranchInput) (*models.Branch, error) {
	if actor.Role != auth.Owner {
		return nil, apperr.Forbidden("Only owners can add branches.")
	}
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}

	branch := &models.Branch{Name: in.Name, Location: in.Location}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(branch).Error; err != nil {
			return err
		}
		return tx.Create(&models.UserBranch{UserID: actor.UserID, BranchID: branch.ID}).Error
	})
	if err != nil {
		return nil, apperr.Persistence("Failed to add branch", err)
	}
	s.log.Info().Uint("branch_id", branch.ID).Uint("owner_id", actor.UserID).Msg("branch created")
	return branch, nil
}

func (s *Service) UpdateBranch(ctx context.Context, scope auth.Scope, id uint, in BranchInput) (*models.Branch, error) {
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}
	branch, err := s.branch(ctx, scope, id)
	if err != nil {
		return nil, err
	}
	branch.Name, branch.Location = in.Name, in.Location
	if err := s.db.WithContext(ctx).Save(branch).Error; err != nil {
		return nil, apperr.Persistence("Failed to update branch", err)
	}
	return branch, nil
}

// ListBranches pages through the branches the actor belongs to.
func (s *Service) ListBranches(ctx context.Context, scope auth.Scope, f utils.ListFilter) (*utils.Page[models.Branch], error) {
	q := scope.Branches(s.db.WithContext(ctx).Model(&models.Branch{}), "branches.id")
	if f.Search != "" {
		q = q.Where("branches.name LIKE ? OR branches.location LIKE ?", f.Like(), f.Like())
	}
	page, err := utils.Paginate[models.Branch](q.Order("branches.id asc"), f)
	if err != nil {
		return nil, apperr.Persistence("Failed to fetch branches", err)
	}
	return page, nil
}

// MemberBranches returns the ids of every branch the user belongs to, lowest first.
func (s *Service) MemberBranches(ctx context.Context, userID uint) ([]uint, error) {
	var ids []uint
	err := s.db.WithContext(ctx).Model(&models.UserBranch{}).
		Where("user_id = ?", userID).
		Order("branch_id").
		Pluck("branch_id", &ids).Error
	if err != nil {
		return nil, apperr.Persistence("Failed to load branches", err)
	}
	return ids, nil
}

func (s *Service) branch(ctx context.Context, scope auth.Scope, id uint) (*models.Branch, error) {
	if !scope.CanAccessBranch(id) {
		return nil, apperr.NotFound("Branch not found")
	}
	var branch models.Branch
	err := s.db.WithContext(ctx).First(&branch, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("Branch not found")
	}
	if err != nil {
		return nil, apperr.Persistence("Failed to load branch", err)
	}
	return &branch, nil
}

// DeleteBranch removes a branch with everything scoped to it. Nothing is
// removed unless the whole cascade succeeds.
func (s *Service) DeleteBranch(ctx context.Context, scope auth.Scope, id uint) error {
	if scope.Role != auth.Owner {
		return apperr.Forbidden("Only owners can delete branches.")
	}
	if _, err := s.branch(ctx, scope, id); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return cascadeBranch(tx, id)
	})
	if err != nil {
		s.log.Error().Err(err).Uint("branch_id", id).Msg("branch cascade rolled back")
		return apperr.Persistence("Failed to delete branch", err)
	}
	s.log.Info().Uint("branch_id", id).Msg("branch deleted")
	return nil
}
