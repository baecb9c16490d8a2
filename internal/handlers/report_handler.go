package handlers

import (
	"net/http"
	"time"

	"go-hardware-pos/internal/database"

	"github.com/gin-gonic/gin"
)

// --- GET: /api/reports ---
// Revenue, order count, best sellers and latest sales of the current branch.
// With ?start=YYYY-MM-DD&end=YYYY-MM-DD only the totals for that range are returned.
func (h *Handler) GetSalesReport(c *gin.Context) {
	branchID := scopeOf(c).CurrentBranchID
	db := h.DB.WithContext(c.Request.Context())

	if startStr, endStr := c.Query("start"), c.Query("end"); startStr != "" || endStr != "" {
		start, err1 := time.Parse("2006-01-02", startStr)
		end, err2 := time.Parse("2006-01-02", endStr)
		if err1 != nil || err2 != nil || end.Before(start) {
			badRequest(c, "Dates must be in YYYY-MM-DD format.")
			return
		}
		report, err := database.GetSalesReport(db, branchID, start, end.Add(24*time.Hour-time.Second))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to calculate revenue"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"total_revenue": report.TotalRevenue, "total_orders": report.TotalCount})
		return
	}

	data, err := database.GetBranchReport(db, branchID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to build report"})
		return
	}
	c.JSON(http.StatusOK, data)
}

// --- GET: /api/reports/valuation ---
// GetStockValuation calculates the cost value of the branch's stock by category
func (h *Handler) GetStockValuation(c *gin.Context) {
	response, err := database.GetStockValuation(h.DB.WithContext(c.Request.Context()), scopeOf(c).CurrentBranchID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch inventory"})
		return
	}
	c.JSON(http.StatusOK, response)
}
