// Package sales records checkouts and settles or cancels credit sales.
package sales

import (
	"context"
	"fmt"
	"time"

	"go-hardware-pos/internal/apperr"
	"go-hardware-pos/internal/auth"
	"go-hardware-pos/internal/config"
	"go-hardware-pos/internal/database"
	"go-hardware-pos/internal/logger"
	"go-hardware-pos/internal/models"
	"go-hardware-pos/internal/utils"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreditTerm is how long a credit customer has to pay.
const CreditTerm = 7 * 24 * time.Hour

// ForecastDispatcher queues an AI forecast refresh for a branch.
type ForecastDispatcher interface {
	DispatchForecast(ctx context.Context, branchID uint) error
}

// Options tunes the checkout policies.
type Options struct {
	StockPolicy  string // config.StockClamp or config.StockReject
	ForecastMode string // config.ForecastReplace or config.ForecastAccumulate
	Now          func() time.Time
}

type Service struct {
	db         *gorm.DB
	dispatcher ForecastDispatcher
	opts       Options
	log        zerolog.Logger
}

// NewService builds the sales service. dispatcher may be nil.
func NewService(db *gorm.DB, dispatcher ForecastDispatcher, opts Options) *Service {
	if opts.StockPolicy == "" {
		opts.StockPolicy = config.StockClamp
	}
	if opts.ForecastMode == "" {
		opts.ForecastMode = config.ForecastReplace
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		db:         db,
		dispatcher: dispatcher,
		opts:       opts,
		log:        logger.WithComponent("sales"),
	}
}

// Line is one cart entry.
type Line struct {
	BranchProductID uint            `json:"branch_product_id" validate:"required"`
	Quantity        int             `json:"qty" validate:"gt=0"`
	UnitPrice       decimal.Decimal `json:"price" validate:"gte=0"`
}

// Checkout is everything the register submits.
type Checkout struct {
	CustomerID    *uint           `json:"customer_id"`
	Lines         []Line          `json:"cart" validate:"min=1,dive"`
	PaymentMethod string          `json:"payment_method" validate:"required,oneof=Cash Credit Other"`
	ShippingFee   decimal.Decimal `json:"shipping_fee" validate:"gte=0"`
}

// Total is the sum of line subtotals plus shipping.
func (c Checkout) Total() decimal.Decimal {
	total := c.ShippingFee
	for _, l := range c.Lines {
		total = total.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total
}

// CreateSale records a checkout in one transaction: the sale header, then for
// each line in order its item, stock movement, stock decrement and forecast,
// then the cash payment if any, then the audit entry.
func (s *Service) CreateSale(ctx context.Context, actor auth.Actor, branchID uint, in Checkout) (*models.Sale, error) {
	// 1. Validate input
	if branchID == 0 {
		return nil, apperr.Validation("No branch selected.")
	}
	if len(in.Lines) == 0 {
		return nil, apperr.Validation("No items in cart.")
	}
	if err := utils.ValidateStruct(in); err != nil {
		return nil, err
	}

	now := s.opts.Now()
	sale := &models.Sale{
		BranchID:    branchID,
		CustomerID:  in.CustomerID,
		TotalAmount: in.Total(),
		ShippingFee: in.ShippingFee,
		PaymentType: in.PaymentMethod,
		SaleDate:    now,
		CreatedBy:   actor.UserID,
	}
	if in.PaymentMethod == models.PaymentCredit {
		due := now.Add(CreditTerm)
		sale.DueDate = &due
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		// 2. Resolve references before writing anything
		names, err := s.checkReferences(tx, branchID, in)
		if err != nil {
			return err
		}

		// 3. Sale header
		if err := tx.Create(sale).Error; err != nil {
			return apperr.Persistence("Failed to create sale record", err)
		}

		// 4. Lines, in cart order
		weekStart, weekEnd := utils.WeekBounds(now)
		for _, l := range in.Lines {
			item := models.SaleItem{
				SaleID:          sale.ID,
				BranchProductID: l.BranchProductID,
				Quantity:        l.Quantity,
				UnitPrice:       l.UnitPrice,
				Subtotal:        l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))),
			}
			if err := tx.Create(&item).Error; err != nil {
				return apperr.Persistence("Failed to save sale item", err)
			}
			sale.Items = append(sale.Items, item)

			movement := models.StockMovement{
				BranchProductID: l.BranchProductID,
				ChangeQty:       -l.Quantity,
				MovementType:    models.MovementSale,
				ReferenceID:     sale.ID,
				MovementDate:    now,
				CreatedBy:       actor.UserID,
			}
			if err := tx.Create(&movement).Error; err != nil {
				return apperr.Persistence("Failed to record stock movement", err)
			}

			if err := s.decrementStock(tx, l, names[l.BranchProductID]); err != nil {
				return err
			}

			if err := s.upsertForecast(tx, l, sale.ID, weekStart, weekEnd); err != nil {
				return err
			}
		}

		// 5. Cash settles immediately
		if sale.PaymentType == models.PaymentCash {
			if err := recordPayment(tx, actor, sale, now, ""); err != nil {
				return err
			}
		}

		// 6. Audit
		return writeAudit(tx, actor, "Created Sale",
			fmt.Sprintf("Sale ID: %d for Customer %s", sale.ID, customerLabel(sale.CustomerID)))
	})
	if err != nil {
		if apperr.Is(err, apperr.KindPersistence) {
			s.log.Error().Err(err).Uint("branch_id", branchID).Msg("sale rolled back")
		}
		return nil, apperr.Wrap(err, "Failed to record sale")
	}

	s.log.Info().Uint("sale_id", sale.ID).Uint("branch_id", branchID).
		Str("payment_type", sale.PaymentType).Str("total", sale.TotalAmount.StringFixed(2)).
		Msg("sale recorded")

	// 7. The sale is committed; forecast regeneration is best effort.
	s.dispatchForecast(ctx, branchID)

	return sale, nil
}

// checkReferences makes sure the customer and every cart product belong to the
// branch. It returns product names keyed by branch product id.
func (s *Service) checkReferences(tx *gorm.DB, branchID uint, in Checkout) (map[uint]string, error) {
	var branch models.Branch
	if err := tx.Select("id").Where("id = ?", branchID).Limit(1).Find(&branch).Error; err != nil {
		return nil, apperr.Persistence("Failed to load branch", err)
	}
	if branch.ID == 0 {
		return nil, apperr.Validation("Branch %d not found.", branchID)
	}

	if in.CustomerID != nil {
		var count int64
		if err := tx.Model(&models.Customer{}).
			Where("id = ? AND branch_id = ?", *in.CustomerID, branchID).
			Count(&count).Error; err != nil {
			return nil, apperr.Persistence("Failed to load customer", err)
		}
		if count == 0 {
			return nil, apperr.NotFound("Customer %d not found in this branch.", *in.CustomerID)
		}
	}

	ids := make([]uint, 0, len(in.Lines))
	for _, l := range in.Lines {
		ids = append(ids, l.BranchProductID)
	}
	var stocked []models.BranchProduct
	if err := tx.Preload("Product").
		Where("id IN ? AND branch_id = ?", ids, branchID).
		Find(&stocked).Error; err != nil {
		return nil, apperr.Persistence("Failed to load products", err)
	}
	names := make(map[uint]string, len(stocked))
	for _, bp := range stocked {
		names[bp.ID] = bp.Product.Name
	}
	for _, id := range ids {
		if _, ok := names[id]; !ok {
			return nil, apperr.NotFound("Product %d is not stocked in this branch.", id)
		}
	}
	return names, nil
}

// decrementStock is a single conditional UPDATE so concurrent sales cannot
// lose each other's writes.
func (s *Service) decrementStock(tx *gorm.DB, l Line, name string) error {
	q := tx.Model(&models.BranchProduct{}).Where("id = ?", l.BranchProductID)

	if s.opts.StockPolicy == config.StockReject {
		res := q.Where("stock_qty >= ?", l.Quantity).
			Update("stock_qty", gorm.Expr("stock_qty - ?", l.Quantity))
		if res.Error != nil {
			return apperr.Persistence("Failed to update stock", res.Error)
		}
		if res.RowsAffected == 0 {
			return apperr.InsufficientStock("Insufficient stock for %s", name)
		}
		return nil
	}

	// Clamp: stock never drops below zero.
	err := q.Update("stock_qty", gorm.Expr("CASE WHEN stock_qty > ? THEN stock_qty - ? ELSE 0 END", l.Quantity, l.Quantity)).Error
	if err != nil {
		return apperr.Persistence("Failed to update stock", err)
	}
	return nil
}

// upsertForecast keeps one forecast row per branch product per week. The
// insert and the update are one statement on the period key, so two sales of
// the same product cannot race each other into a duplicate row.
func (s *Service) upsertForecast(tx *gorm.DB, l Line, saleID uint, start, end time.Time) error {
	notes := fmt.Sprintf("Updated after sale #%d", saleID)

	var qty any = l.Quantity
	if s.opts.ForecastMode == config.ForecastAccumulate {
		qty = gorm.Expr("forecasts.forecast_qty + ?", l.Quantity)
	}

	fc := models.Forecast{
		BranchProductID: l.BranchProductID,
		PeriodStart:     start,
		PeriodEnd:       end,
		ForecastQty:     l.Quantity,
		Method:          "auto",
		Notes:           notes,
	}
	err := tx.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "branch_product_id"}, {Name: "period_start"}, {Name: "period_end"}},
		DoUpdates: clause.Assignments(map[string]any{
			"forecast_qty": qty,
			"method":       "auto",
			"notes":        notes,
			"updated_at":   s.opts.Now(),
		}),
	}).Create(&fc).Error
	if err != nil {
		return apperr.Persistence("Failed to save forecast", err)
	}
	return nil
}

func (s *Service) dispatchForecast(ctx context.Context, branchID uint) {
	if s.dispatcher == nil {
		return
	}
	if err := s.dispatcher.DispatchForecast(context.WithoutCancel(ctx), branchID); err != nil {
		s.log.Warn().Err(err).Uint("branch_id", branchID).Msg("could not queue forecast regeneration")
	}
}

func recordPayment(tx *gorm.DB, actor auth.Actor, sale *models.Sale, now time.Time, notes string) error {
	payment := models.Payment{
		PaymentDate:   now,
		PaymentMethod: models.PaymentCash,
		PaymentStatus: "Completed",
		Notes:         notes,
		CreatedBy:     actor.UserID,
	}
	if err := tx.Create(&payment).Error; err != nil {
		return apperr.Persistence("Failed to record payment", err)
	}
	link := models.PaymentSale{
		PaymentID: payment.ID,
		SaleID:    sale.ID,
		Amount:    sale.TotalAmount,
	}
	if err := tx.Create(&link).Error; err != nil {
		return apperr.Persistence("Failed to link payment", err)
	}
	return nil
}

func writeAudit(tx *gorm.DB, actor auth.Actor, action, details string) error {
	if err := database.WriteAudit(tx, actor.UserID, action, details); err != nil {
		return apperr.Persistence("Failed to write audit log", err)
	}
	return nil
}

func customerLabel(id *uint) string {
	if id == nil {
		return "Walk-in"
	}
	return fmt.Sprint(*id)
}
