package ai

import (
	"context"
	"testing"
	"time"

	"go-hardware-pos/internal/auth"
	"go-hardware-pos/internal/database/dbtest"
	"go-hardware-pos/internal/models"

	"github.com/google/generative-ai-go/genai"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToolboxInventory(t *testing.T) {
	db := dbtest.New(t)
	branch := seedBranch(t, db)
	tools := NewToolbox(db, func() time.Time { return fixedNow })

	resp := tools.Run(context.Background(), auth.Actor{UserID: 1, Role: auth.Admin}, branch.ID, genai.FunctionCall{Name: "check_inventory"})
	assert.Equal(t, "check_inventory", resp.Name)
	items, ok := resp.Response["inventory"].([]InventoryItem)
	require.True(t, ok)
	require.Len(t, items, 2)
	assert.Equal(t, "Nails", items[0].Name)
	assert.Equal(t, 40, items[0].Stock)
}

func TestToolboxUpdatePrice(t *testing.T) {
	db := dbtest.New(t)
	branch := seedBranch(t, db)
	actor := auth.Actor{UserID: 1, Role: auth.Admin}
	tools := NewToolbox(db, nil)
	ctx := context.Background()

	resp := tools.Run(ctx, actor, branch.ID, genai.FunctionCall{
		Name: "update_product_price",
		Args: map[string]any{"product_id": float64(1), "new_price": 12.5},
	})
	assert.Equal(t, "Success", resp.Response["status"])

	var p models.Product
	require.NoError(t, db.First(&p, 1).Error)
	assert.True(t, decimal.RequireFromString("12.50").Equal(p.SellingPrice))

	var audits int64
	require.NoError(t, db.Model(&models.AuditLog{}).Where("action = ?", "Update Product").Count(&audits).Error)
	assert.Equal(t, int64(1), audits)

	// Products not stocked here are invisible.
	resp = tools.Run(ctx, actor, branch.ID+1, genai.FunctionCall{
		Name: "update_product_price",
		Args: map[string]any{"product_id": float64(1), "new_price": 99.0},
	})
	assert.Equal(t, "Product ID not found", resp.Response["status"])

	resp = tools.Run(ctx, actor, branch.ID, genai.FunctionCall{Name: "update_product_price", Args: map[string]any{}})
	assert.Contains(t, resp.Response["status"], "required")
}

func TestToolboxSalesReport(t *testing.T) {
	db := dbtest.New(t)
	branch := seedBranch(t, db)
	sale := models.Sale{BranchID: branch.ID, TotalAmount: decimal.NewFromInt(250), PaymentType: models.PaymentCash, SaleDate: fixedNow}
	require.NoError(t, db.Create(&sale).Error)
	tools := NewToolbox(db, nil)

	resp := tools.Run(context.Background(), auth.Actor{}, branch.ID, genai.FunctionCall{
		Name: "get_sales_report",
		Args: map[string]any{"start_date": "2026-10-21", "end_date": "2026-10-21"},
	})
	assert.Equal(t, "250.00", resp.Response["revenue"])
	assert.Equal(t, int64(1), resp.Response["sales_count"])

	resp = tools.Run(context.Background(), auth.Actor{}, branch.ID, genai.FunctionCall{
		Name: "get_sales_report",
		Args: map[string]any{"start_date": "21/10/2026", "end_date": "2026-10-21"},
	})
	assert.Equal(t, "Dates must be in YYYY-MM-DD format.", resp.Response["error"])
}

func TestFunctionCallsAndText(t *testing.T) {
	resp := &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{
		Content: &genai.Content{Parts: []genai.Part{
			genai.Text("Checking. "),
			genai.FunctionCall{Name: "check_inventory"},
			genai.Text("Done."),
		}},
	}}}
	calls := functionCalls(resp)
	require.Len(t, calls, 1)
	assert.Equal(t, "check_inventory", calls[0].Name)
	assert.Equal(t, "Checking. Done.", responseText(resp))
	assert.Empty(t, responseText(&genai.GenerateContentResponse{}))
}
