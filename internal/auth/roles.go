package auth

import (
	"fmt"
	"slices"
	"strings"

	"go-hardware-pos/internal/models"

	"gorm.io/gorm"
)

// Role is the closed set of account roles.
type Role string

const (
	Owner   Role = models.RoleOwner
	Admin   Role = models.RoleAdmin
	Cashier Role = models.RoleCashier
)

// ParseRole accepts any casing of a known role.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "owner":
		return Owner, nil
	case "admin":
		return Admin, nil
	case "cashier":
		return Cashier, nil
	}
	return "", fmt.Errorf("unknown role %q", s)
}

// Actor is the authenticated user a workflow runs on behalf of.
type Actor struct {
	UserID uint
	Role   Role
}

// Scope is everything visibility decisions need: who is asking, the branches
// they belong to, and the branch they are working in.
type Scope struct {
	Actor
	BranchIDs       []uint
	CurrentBranchID uint
}

// CanAccessBranch reports whether the actor is a member of branchID.
func (s Scope) CanAccessBranch(branchID uint) bool {
	return slices.Contains(s.BranchIDs, branchID)
}

// Sales narrows a query on the sales table.
// Owner: every owned branch. Admin: current branch. Cashier: own sales in the current branch.
func (s Scope) Sales(q *gorm.DB) *gorm.DB {
	switch s.Role {
	case Owner:
		return q.Where("sales.branch_id IN ?", nonEmpty(s.BranchIDs))
	case Cashier:
		return q.Where("sales.branch_id = ? AND sales.created_by = ?", s.CurrentBranchID, s.UserID)
	default:
		return q.Where("sales.branch_id = ?", s.CurrentBranchID)
	}
}

// Employees narrows a query joined to the employees table.
// Owner: every owned branch. Admin: current branch. Cashier: their own employee record.
func (s Scope) Employees(q *gorm.DB) *gorm.DB {
	switch s.Role {
	case Owner:
		return q.Where("employees.branch_id IN ?", nonEmpty(s.BranchIDs))
	case Cashier:
		return q.Where("employees.user_id = ?", s.UserID)
	default:
		return q.Where("employees.branch_id = ?", s.CurrentBranchID)
	}
}

// Branches narrows a query on a table with a branch_id column to every branch
// the actor belongs to.
func (s Scope) Branches(q *gorm.DB, column string) *gorm.DB {
	return q.Where(column+" IN ?", nonEmpty(s.BranchIDs))
}

// IN () is invalid SQL on some drivers; 0 never matches an id.
func nonEmpty(ids []uint) []uint {
	if len(ids) == 0 {
		return []uint{0}
	}
	return ids
}
