package database

import (
	"sort"
	"time"

	"go-hardware-pos/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// SalesReportResult holds the data the AI needs
type SalesReportResult struct {
	TotalRevenue decimal.Decimal
	TotalCount   int64
}

// GetSalesReport calculates a branch's sales within a specific date range
func GetSalesReport(db *gorm.DB, branchID uint, start, end time.Time) (*SalesReportResult, error) {
	var result SalesReportResult
	q := func() *gorm.DB {
		return db.Model(&models.Sale{}).
			Where("branch_id = ? AND sale_date BETWEEN ? AND ?", branchID, start, end)
	}

	// 1. Calculate Revenue
	// COALESCE ensures we get 0 instead of NULL if no sales exist
	if err := q().Select("COALESCE(SUM(total_amount), 0)").Scan(&result.TotalRevenue).Error; err != nil {
		return nil, err
	}

	// 2. Count Orders
	if err := q().Count(&result.TotalCount).Error; err != nil {
		return nil, err
	}

	return &result, nil
}

type TopSeller struct {
	ProductName string          `json:"product_name"`
	Sold        int             `json:"sold"`
	Revenue     decimal.Decimal `json:"revenue"`
}

// BranchReport is the dashboard summary of one branch
type BranchReport struct {
	TotalRevenue decimal.Decimal `json:"total_revenue"`
	TotalOrders  int64           `json:"total_orders"`
	TopSelling   []TopSeller     `json:"top_selling"`
	RecentSales  []models.Sale   `json:"recent_sales"`
}

// GetBranchReport gathers all-time revenue, order count, the five best
// sellers and the ten latest sales of a branch.
func GetBranchReport(db *gorm.DB, branchID uint) (*BranchReport, error) {
	var data BranchReport

	// 1. Revenue
	err := db.Model(&models.Sale{}).Where("branch_id = ?", branchID).
		Select("COALESCE(SUM(total_amount), 0)").
		Scan(&data.TotalRevenue).Error
	if err != nil {
		return nil, err
	}

	// 2. Orders
	if err := db.Model(&models.Sale{}).Where("branch_id = ?", branchID).Count(&data.TotalOrders).Error; err != nil {
		return nil, err
	}

	// 3. Top 5 best sellers
	err = db.Table("sale_items").
		Select("products.name as product_name, SUM(sale_items.quantity) as sold, SUM(sale_items.subtotal) as revenue").
		Joins("JOIN sales ON sales.id = sale_items.sale_id").
		Joins("JOIN branch_products ON branch_products.id = sale_items.branch_product_id").
		Joins("JOIN products ON products.id = branch_products.product_id").
		Where("sales.branch_id = ?", branchID).
		Group("products.name").
		Order("sold desc").
		Limit(5).
		Scan(&data.TopSelling).Error
	if err != nil {
		return nil, err
	}

	// 4. Last 10 sales, newest first
	err = db.Where("branch_id = ?", branchID).
		Preload("Customer").
		Order("sale_date desc, id desc").Limit(10).
		Find(&data.RecentSales).Error
	if err != nil {
		return nil, err
	}

	return &data, nil
}

// ValuationItem is one stocked product's cost value
type ValuationItem struct {
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	CostPrice decimal.Decimal `json:"cost_price"`
	TotalCost decimal.Decimal `json:"total_cost"`
}

// CategoryGroup is every item of one category plus its subtotal
type CategoryGroup struct {
	CategoryName string          `json:"category_name"`
	Items        []ValuationItem `json:"items"`
	Subtotal     decimal.Decimal `json:"subtotal"`
}

type ValuationResponse struct {
	Categories []CategoryGroup `json:"categories"`
	GrandTotal decimal.Decimal `json:"grand_total"`
}

// GetStockValuation values a branch's stock at unit cost, grouped by category.
func GetStockValuation(db *gorm.DB, branchID uint) (*ValuationResponse, error) {
	var stocked []models.BranchProduct
	if err := db.Preload("Product").Where("branch_id = ?", branchID).Find(&stocked).Error; err != nil {
		return nil, err
	}

	grandTotal := decimal.Zero
	groupedMap := make(map[string]*CategoryGroup)
	for _, bp := range stocked {
		// No category goes under "Uncategorized"
		catName := bp.Product.Category
		if catName == "" {
			catName = "Uncategorized"
		}
		group, ok := groupedMap[catName]
		if !ok {
			group = &CategoryGroup{CategoryName: catName, Items: []ValuationItem{}, Subtotal: decimal.Zero}
			groupedMap[catName] = group
		}

		itemTotal := bp.Product.UnitCost.Mul(decimal.NewFromInt(int64(bp.StockQty)))
		group.Items = append(group.Items, ValuationItem{
			Name:      bp.Product.Name,
			Quantity:  bp.StockQty,
			CostPrice: bp.Product.UnitCost,
			TotalCost: itemTotal,
		})
		group.Subtotal = group.Subtotal.Add(itemTotal)
		grandTotal = grandTotal.Add(itemTotal)
	}

	response := &ValuationResponse{Categories: []CategoryGroup{}, GrandTotal: grandTotal}
	for _, group := range groupedMap {
		response.Categories = append(response.Categories, *group)
	}
	sort.Slice(response.Categories, func(i, j int) bool {
		return response.Categories[i].CategoryName < response.Categories[j].CategoryName
	})
	return response, nil
}
