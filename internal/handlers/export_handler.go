package handlers

import (
	"context"
	"net/http"
	"strconv"

	"go-hardware-pos/internal/auth"
	"go-hardware-pos/internal/export"
	"go-hardware-pos/internal/sales"

	"github.com/gin-gonic/gin"
)

type exportFunc func(ctx context.Context, e *export.Exporter, scope auth.Scope, search string) (*export.Workbook, error)

var exportKinds = map[string]exportFunc{
	"sales": func(ctx context.Context, e *export.Exporter, s auth.Scope, q string) (*export.Workbook, error) {
		return e.Sales(ctx, s, q)
	},
	"branches": func(ctx context.Context, e *export.Exporter, s auth.Scope, _ string) (*export.Workbook, error) {
		return e.Branches(ctx, s)
	},
	"suppliers": func(ctx context.Context, e *export.Exporter, s auth.Scope, _ string) (*export.Workbook, error) {
		return e.Suppliers(ctx, s)
	},
	"products": func(ctx context.Context, e *export.Exporter, s auth.Scope, _ string) (*export.Workbook, error) {
		return e.Products(ctx, s.CurrentBranchID)
	},
	"customers": func(ctx context.Context, e *export.Exporter, s auth.Scope, _ string) (*export.Workbook, error) {
		return e.Customers(ctx, s.CurrentBranchID)
	},
	"paid-credits": func(ctx context.Context, e *export.Exporter, s auth.Scope, q string) (*export.Workbook, error) {
		return e.PaidCredits(ctx, s, q)
	},
	"attendance": func(ctx context.Context, e *export.Exporter, s auth.Scope, _ string) (*export.Workbook, error) {
		return e.Attendance(ctx, s)
	},
	"payroll": func(ctx context.Context, e *export.Exporter, s auth.Scope, _ string) (*export.Workbook, error) {
		return e.Payroll(ctx, s)
	},
	"employees": func(ctx context.Context, e *export.Exporter, s auth.Scope, _ string) (*export.Workbook, error) {
		return e.EmployeesWeek(ctx, s)
	},
}

// Export streams a workbook, or with ?sync=true uploads it to cloud storage
// and returns the file record.
func (h *Handler) Export(c *gin.Context) {
	run, ok := exportKinds[c.Param("kind")]
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Unknown export"})
		return
	}
	wb, err := run(c.Request.Context(), h.Exports, scopeOf(c), c.Query("search"))
	if err != nil {
		fail(c, err)
		return
	}
	h.deliver(c, wb)
}

// ExportCart renders the register's unsaved cart.
func (h *Handler) ExportCart(c *gin.Context) {
	var cart sales.Checkout
	if err := c.ShouldBindJSON(&cart); err != nil {
		badRequest(c, "Invalid request body")
		return
	}
	wb, err := h.Exports.Cart(c.Request.Context(), scopeOf(c).CurrentBranchID, cart)
	if err != nil {
		fail(c, err)
		return
	}
	h.deliver(c, wb)
}

func (h *Handler) deliver(c *gin.Context, wb *export.Workbook) {
	if sync, _ := strconv.ParseBool(c.Query("sync")); sync {
		file, err := h.Exports.Sync(c.Request.Context(), scopeOf(c).UserID, wb)
		if err != nil {
			fail(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"message": "Export uploaded to cloud storage", "file": file})
		return
	}

	data, err := wb.Bytes()
	if err != nil {
		fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+wb.Filename+`"`)
	c.Data(http.StatusOK, export.ContentType, data)
}
