package handlers

import (
	"net/http"
	"strconv"

	"go-hardware-pos/internal/sales"

	"github.com/gin-gonic/gin"
)

// ProcessSale records a checkout from the register.
func (h *Handler) ProcessSale(c *gin.Context) {
	var req sales.Checkout
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body")
		return
	}

	scope := scopeOf(c)
	sale, err := h.Sales.CreateSale(c.Request.Context(), scope.Actor, scope.CurrentBranchID, req)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Sale recorded successfully", "sale": sale})
}

// GetSales is the sales log, filtered by the caller's visibility.
func (h *Handler) GetSales(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	list, err := h.Sales.SalesLog(c.Request.Context(), scopeOf(c), sales.LogFilter{
		Search: c.Query("search"),
		Limit:  limit,
	})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) GetSale(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	sale, err := h.Sales.Get(c.Request.Context(), scopeOf(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sale)
}

// PayCredit settles one credit sale in cash.
func (h *Handler) PayCredit(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	sale, err := h.Sales.PaySale(c.Request.Context(), scopeOf(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Credit has been paid.", "sale": sale})
}

// DeleteCredit removes one unpaid credit sale.
func (h *Handler) DeleteCredit(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.Sales.DeleteCredit(c.Request.Context(), scopeOf(c), id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Credit sale deleted."})
}

func (h *Handler) PayAllCredits(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	res, err := h.Sales.PayAllCredits(c.Request.Context(), scopeOf(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) DeleteAllCredits(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	res, err := h.Sales.DeleteAllCredits(c.Request.Context(), scopeOf(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
