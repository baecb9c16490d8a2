package handlers

import (
	"net/http"

	"go-hardware-pos/internal/catalog"
	"go-hardware-pos/internal/logger"

	"github.com/gin-gonic/gin"
)

func (h *Handler) GetBranches(c *gin.Context) {
	page, err := h.Catalog.ListBranches(c.Request.Context(), scopeOf(c), listFilter(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) AddBranch(c *gin.Context) {
	var in catalog.BranchInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid input")
		return
	}
	branch, err := h.Catalog.CreateBranch(c.Request.Context(), scopeOf(c).Actor, in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Branch added successfully!", "branch": branch})
}

func (h *Handler) UpdateBranch(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var in catalog.BranchInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid input")
		return
	}
	branch, err := h.Catalog.UpdateBranch(c.Request.Context(), scopeOf(c), id, in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Branch updated successfully!", "branch": branch})
}

// DeleteBranch removes a branch and everything that belongs to it.
func (h *Handler) DeleteBranch(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.Catalog.DeleteBranch(c.Request.Context(), scopeOf(c), id); err != nil {
		fail(c, err)
		return
	}
	// The branch is gone; a stale forecast summary is only logged.
	if h.Summaries != nil {
		if err := h.Summaries.Delete(c.Request.Context(), id); err != nil {
			l := logger.WithComponent("http")
			l.Warn().Err(err).Uint("branch_id", id).Msg("failed to drop forecast summary")
		}
	}
	c.JSON(http.StatusOK, gin.H{"message": "Branch and all related data deleted successfully."})
}

func (h *Handler) GetSuppliers(c *gin.Context) {
	page, err := h.Catalog.ListSuppliers(c.Request.Context(), scopeOf(c), listFilter(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) AddSupplier(c *gin.Context) {
	var in catalog.SupplierInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid input")
		return
	}
	supplier, err := h.Catalog.CreateSupplier(c.Request.Context(), scopeOf(c), in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Supplier added successfully!", "supplier": supplier})
}

func (h *Handler) UpdateSupplier(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var in catalog.SupplierInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid input")
		return
	}
	supplier, err := h.Catalog.UpdateSupplier(c.Request.Context(), scopeOf(c), id, in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Supplier updated successfully!", "supplier": supplier})
}

func (h *Handler) DeleteSupplier(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.Catalog.DeleteSupplier(c.Request.Context(), scopeOf(c), id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Supplier deleted successfully!"})
}

// RecordPurchase books stock received from a supplier into the current branch.
func (h *Handler) RecordPurchase(c *gin.Context) {
	var in catalog.PurchaseInput
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid input")
		return
	}
	scope := scopeOf(c)
	purchase, err := h.Catalog.RecordPurchase(c.Request.Context(), scope.Actor, scope.CurrentBranchID, in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Purchase recorded successfully!", "purchase": purchase})
}
