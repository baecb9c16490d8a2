// Package ai talks to the language model: branch forecast summaries and the
// inventory chat assistant.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"go-hardware-pos/internal/apperr"
	"go-hardware-pos/internal/logger"
	"go-hardware-pos/internal/models"

	"github.com/rs/zerolog"
	"gorm.io/gorm"
)

const (
	// NoForecastText is stored when the model returns nothing.
	NoForecastText = "No forecast generated."
	// NoSummaryMessage is shown for a branch that has never been forecast.
	NoSummaryMessage = "No AI forecast has been generated yet for this branch."
)

// ProductSummary is what the model sees per stocked product.
type ProductSummary struct {
	ProductName string `json:"product_name"`
	StockQty    int    `json:"stock_qty"`
	ForecastQty int    `json:"forecast_qty"`
	Method      string `json:"method"`
}

type Forecaster struct {
	db    *gorm.DB
	gen   TextGenerator
	store SummaryStore
	now   func() time.Time
	log   zerolog.Logger
}

func NewForecaster(db *gorm.DB, gen TextGenerator, store SummaryStore) *Forecaster {
	return &Forecaster{
		db:    db,
		gen:   gen,
		store: store,
		now:   time.Now,
		log:   logger.WithComponent("forecast"),
	}
}

// WithClock swaps the time source, for tests.
func (f *Forecaster) WithClock(now func() time.Time) *Forecaster {
	f.now = now
	return f
}

// Summaries lists every product stocked at the branch with its latest forecast.
func (f *Forecaster) Summaries(ctx context.Context, branchID uint) ([]ProductSummary, error) {
	var stocked []models.BranchProduct
	err := f.db.WithContext(ctx).Preload("Product").
		Where("branch_id = ?", branchID).
		Order("id asc").
		Find(&stocked).Error
	if err != nil {
		return nil, err
	}
	if len(stocked) == 0 {
		return []ProductSummary{}, nil
	}

	ids := make([]uint, len(stocked))
	for i, bp := range stocked {
		ids[i] = bp.ID
	}

	// Newest first, so the first row seen per product is its latest.
	var forecasts []models.Forecast
	err = f.db.WithContext(ctx).
		Where("branch_product_id IN ?", ids).
		Order("period_start desc, id desc").
		Find(&forecasts).Error
	if err != nil {
		return nil, err
	}
	latest := make(map[uint]models.Forecast, len(forecasts))
	for _, fc := range forecasts {
		if _, seen := latest[fc.BranchProductID]; !seen {
			latest[fc.BranchProductID] = fc
		}
	}

	out := make([]ProductSummary, 0, len(stocked))
	for _, bp := range stocked {
		row := ProductSummary{ProductName: bp.Product.Name, StockQty: bp.StockQty, Method: "N/A"}
		if fc, ok := latest[bp.ID]; ok {
			row.ForecastQty = fc.ForecastQty
			if fc.Method != "" {
				row.Method = fc.Method
			}
		}
		out = append(out, row)
	}
	return out, nil
}

// BuildPrompt renders the forecast request for one branch.
func BuildPrompt(branchName string, products []ProductSummary) (string, error) {
	data, err := json.MarshalIndent(products, "", "  ")
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("You are an inventory AI assistant.\n")
	fmt.Fprintf(&sb, "Generate a short AI-based sales forecast summary for branch '%s'.\n", branchName)
	sb.WriteString("Each product has the following data:\n")
	sb.Write(data)
	sb.WriteString("\n\nDescribe expected sales and give short advice (e.g., restock suggestions or best sellers).\n")
	sb.WriteString("Be concise and readable.")
	return sb.String(), nil
}

// Generate asks the model for a fresh branch forecast and stores it.
func (f *Forecaster) Generate(ctx context.Context, branchID uint) (Summary, error) {
	// 1. Branch must exist
	var branch models.Branch
	if err := f.db.WithContext(ctx).First(&branch, branchID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Summary{}, apperr.NotFound("Branch not found.")
		}
		return Summary{}, apperr.Persistence("Failed to load branch.", err)
	}

	// 2. Collect stock and forecast data
	products, err := f.Summaries(ctx, branchID)
	if err != nil {
		return Summary{}, apperr.Persistence("Failed to load branch products.", err)
	}

	prompt, err := BuildPrompt(branch.Name, products)
	if err != nil {
		return Summary{}, fmt.Errorf("ai: build prompt: %w", err)
	}

	// 3. Ask the model
	text, err := f.gen.Generate(ctx, prompt)
	if err != nil {
		return Summary{}, err
	}
	text = strings.TrimSpace(text)
	if text == "" {
		text = NoForecastText
	}

	// 4. Persist per branch
	at := f.now().UTC()
	sum := Summary{BranchID: branchID, Text: text, GeneratedAt: &at}
	if err := f.store.Save(ctx, sum); err != nil {
		return Summary{}, err
	}

	f.log.Info().Uint("branch_id", branchID).Int("products", len(products)).Msg("forecast generated")
	return sum, nil
}

// Show returns the stored summary, or a placeholder when none exists.
func (f *Forecaster) Show(ctx context.Context, branchID uint) (Summary, error) {
	sum, ok, err := f.store.Load(ctx, branchID)
	if err != nil {
		return Summary{}, err
	}
	if !ok {
		return Summary{BranchID: branchID, Text: NoSummaryMessage}, nil
	}
	return sum, nil
}
