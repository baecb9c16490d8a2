package handlers

import (
	"net/http"

	"go-hardware-pos/internal/customers"

	"github.com/gin-gonic/gin"
)

func (h *Handler) GetCustomers(c *gin.Context) {
	page, err := h.Customers.List(c.Request.Context(), scopeOf(c).CurrentBranchID, listFilter(c))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) GetCustomer(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	cust, err := h.Customers.Get(c.Request.Context(), scopeOf(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, cust)
}

func (h *Handler) AddCustomer(c *gin.Context) {
	var in customers.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid input")
		return
	}
	cust, err := h.Customers.Create(c.Request.Context(), scopeOf(c).CurrentBranchID, in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Customer added successfully!", "customer": cust})
}

func (h *Handler) UpdateCustomer(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	var in customers.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		badRequest(c, "Invalid input")
		return
	}
	cust, err := h.Customers.Update(c.Request.Context(), scopeOf(c), id, in)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Customer updated successfully!", "customer": cust})
}

// DeleteCustomer removes the customer; their past sales stay as walk-in sales.
func (h *Handler) DeleteCustomer(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	if err := h.Customers.Delete(c.Request.Context(), scopeOf(c), id); err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Customer deleted successfully!"})
}

// GetCustomerCredits lists one customer's unpaid credit sales.
func (h *Handler) GetCustomerCredits(c *gin.Context) {
	id, ok := idParam(c, "id")
	if !ok {
		return
	}
	st, err := h.Customers.Credits(c.Request.Context(), scopeOf(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// GetCreditSummaries is the branch's "who owes what" board.
func (h *Handler) GetCreditSummaries(c *gin.Context) {
	list, err := h.Customers.CreditSummaries(c.Request.Context(), scopeOf(c).CurrentBranchID)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *Handler) GetPaidCredits(c *gin.Context) {
	list, err := h.Customers.PaidCredits(c.Request.Context(), scopeOf(c), c.Query("search"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
