package ai

import (
	"context"
	"fmt"
	"time"

	"go-hardware-pos/internal/auth"
	"go-hardware-pos/internal/database"
	"go-hardware-pos/internal/models"

	"github.com/google/generative-ai-go/genai"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// maxToolRounds bounds how many tool exchanges one question may trigger.
const maxToolRounds = 5

var toolDeclarations = []*genai.Tool{
	{
		FunctionDeclarations: []*genai.FunctionDeclaration{
			{
				Name:        "check_inventory",
				Description: "Get the full inventory list of the current branch. Use this to find ANY product details like ID, Name, Price, Cost, or Stock.",
			},
			{
				Name:        "update_product_price",
				Description: "Update the selling price of a specific product using its ID",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"product_id": {Type: genai.TypeInteger, Description: "ID of the product"},
						"new_price":  {Type: genai.TypeNumber, Description: "New selling price"},
					},
					Required: []string{"product_id", "new_price"},
				},
			},
			{
				Name:        "get_sales_report",
				Description: "Get total sales revenue and count of the current branch for a date range.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"start_date": {Type: genai.TypeString, Description: "Start date (YYYY-MM-DD)"},
						"end_date":   {Type: genai.TypeString, Description: "End date (YYYY-MM-DD)"},
					},
					Required: []string{"start_date", "end_date"},
				},
			},
		},
	},
}

// Assistant answers inventory and sales questions for one branch, calling
// back into the database through tools.
type Assistant struct {
	client *genai.Client
	model  string
	tools  *Toolbox
}

func NewAssistant(client *genai.Client, model string, tools *Toolbox) *Assistant {
	return &Assistant{client: client, model: model, tools: tools}
}

func (a *Assistant) Ask(ctx context.Context, actor auth.Actor, branchID uint, userMessage string) (string, error) {
	model := a.client.GenerativeModel(a.model)
	model.Tools = toolDeclarations

	today := a.tools.now().Format("2006-01-02")
	systemPrompt := fmt.Sprintf(`SYSTEM: Today is %s. You are the POS Assistant of a hardware store branch.

	RULES:
	1. UPDATE: If a user asks to update a product by NAME (e.g. "Update Hammer price"), you must NOT ask them for the ID. Instead:
	   - Call 'check_inventory' to find the ID.
	   - Call 'update_product_price' using that ID.

	2. READ: If a user asks for PRICE, COST, STOCK, or DETAILS of a product:
	   - You MUST call 'check_inventory' to get the full list.
	   - Then read the JSON to find the specific item and answer the user.

	3. SALES: If the user asks for sales/revenue, use 'get_sales_report'.

	USER: %s`, today, userMessage)

	session := model.StartChat()
	resp, err := session.SendMessage(ctx, genai.Text(systemPrompt))
	if err != nil {
		return "", err
	}

	// --- HANDLE TOOL CALLS ---
	for round := 0; round < maxToolRounds; round++ {
		calls := functionCalls(resp)
		if len(calls) == 0 {
			break
		}
		replies := make([]genai.Part, 0, len(calls))
		for _, call := range calls {
			replies = append(replies, a.tools.Run(ctx, actor, branchID, call))
		}
		if resp, err = session.SendMessage(ctx, replies...); err != nil {
			return "", err
		}
	}

	if txt := responseText(resp); txt != "" {
		return txt, nil
	}
	return "I completed the action.", nil
}

func functionCalls(resp *genai.GenerateContentResponse) []genai.FunctionCall {
	if resp == nil || len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil
	}
	var calls []genai.FunctionCall
	for _, part := range resp.Candidates[0].Content.Parts {
		if call, ok := part.(genai.FunctionCall); ok {
			calls = append(calls, call)
		}
	}
	return calls
}

// Toolbox executes the assistant's function calls against a branch.
type Toolbox struct {
	db  *gorm.DB
	now func() time.Time
}

func NewToolbox(db *gorm.DB, now func() time.Time) *Toolbox {
	if now == nil {
		now = time.Now
	}
	return &Toolbox{db: db, now: now}
}

// InventoryItem is the trimmed product view handed to the model.
type InventoryItem struct {
	ID    uint            `json:"id"`
	Name  string          `json:"name"`
	Stock int             `json:"stock"`
	Price decimal.Decimal `json:"price"`
	Cost  decimal.Decimal `json:"cost"`
}

// Run dispatches one call. Failures are reported to the model, not returned.
func (t *Toolbox) Run(ctx context.Context, actor auth.Actor, branchID uint, call genai.FunctionCall) genai.FunctionResponse {
	var out map[string]any
	switch call.Name {
	case "check_inventory":
		out = t.checkInventory(ctx, branchID)
	case "update_product_price":
		out = t.updatePrice(ctx, actor, branchID, call.Args)
	case "get_sales_report":
		out = t.salesReport(ctx, branchID, call.Args)
	default:
		out = map[string]any{"error": "unknown tool " + call.Name}
	}
	return genai.FunctionResponse{Name: call.Name, Response: out}
}

func (t *Toolbox) checkInventory(ctx context.Context, branchID uint) map[string]any {
	var stocked []models.BranchProduct
	err := t.db.WithContext(ctx).Preload("Product").
		Where("branch_id = ?", branchID).
		Order("id asc").
		Find(&stocked).Error
	if err != nil {
		return map[string]any{"error": "could not read inventory"}
	}

	items := make([]InventoryItem, 0, len(stocked))
	for _, bp := range stocked {
		items = append(items, InventoryItem{
			ID:    bp.ProductID,
			Name:  bp.Product.Name,
			Stock: bp.StockQty,
			Price: bp.Product.SellingPrice,
			Cost:  bp.Product.UnitCost,
		})
	}
	return map[string]any{"inventory": items}
}

func (t *Toolbox) updatePrice(ctx context.Context, actor auth.Actor, branchID uint, args map[string]any) map[string]any {
	productID, ok1 := numberArg(args, "product_id")
	newPrice, ok2 := numberArg(args, "new_price")
	if !ok1 || !ok2 || newPrice < 0 {
		return map[string]any{"status": "product_id and a non-negative new_price are required"}
	}
	price := decimal.NewFromFloat(newPrice).Round(2)

	msg := "Success"
	err := t.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// Only products stocked at this branch may be touched.
		var n int64
		if err := tx.Model(&models.BranchProduct{}).
			Where("branch_id = ? AND product_id = ?", branchID, uint(productID)).
			Count(&n).Error; err != nil {
			return err
		}
		if n == 0 {
			msg = "Product ID not found"
			return nil
		}
		if err := tx.Model(&models.Product{}).Where("id = ?", uint(productID)).
			Update("selling_price", price).Error; err != nil {
			return err
		}
		return database.WriteAudit(tx, actor.UserID, "Update Product",
			fmt.Sprintf("Assistant set price of product #%d to %s", uint(productID), price.StringFixed(2)))
	})
	if err != nil {
		msg = "Failed to update price"
	}
	return map[string]any{"status": msg, "new_price": price.StringFixed(2)}
}

func (t *Toolbox) salesReport(ctx context.Context, branchID uint, args map[string]any) map[string]any {
	startStr, _ := args["start_date"].(string)
	endStr, _ := args["end_date"].(string)

	start, err1 := time.Parse("2006-01-02", startStr)
	end, err2 := time.Parse("2006-01-02", endStr)
	if err1 != nil || err2 != nil {
		return map[string]any{"error": "Dates must be in YYYY-MM-DD format."}
	}
	end = end.Add(24*time.Hour - time.Second)

	report, err := database.GetSalesReport(t.db.WithContext(ctx), branchID, start, end)
	if err != nil {
		return map[string]any{"error": "Error calculating sales."}
	}
	return map[string]any{
		"revenue":     report.TotalRevenue.StringFixed(2),
		"sales_count": report.TotalCount,
	}
}

// numberArg reads a JSON number argument; the model sends all numbers as float64.
func numberArg(args map[string]any, key string) (float64, bool) {
	switch v := args[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	}
	return 0, false
}
