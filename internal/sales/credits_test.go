package sales

import (
	"context"
	"testing"

	"go-hardware-pos/internal/apperr"
	"go-hardware-pos/internal/auth"
	"go-hardware-pos/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestPaySale(t *testing.T) {
	f := newFixture(t, Options{})
	f.stock(t, 1, f.branch.ID, "Lumber", 50)
	sale := f.creditSale(t, 1, 2, 125)

	paid, err := f.svc.PaySale(context.Background(), f.scope, sale.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCash, paid.PaymentType)

	var links []models.PaymentSale
	require.NoError(t, f.db.Where("sale_id = ?", sale.ID).Find(&links).Error)
	require.Len(t, links, 1)
	assertDecimal(t, "250", links[0].Amount)

	var payment models.Payment
	require.NoError(t, f.db.First(&payment, links[0].PaymentID).Error)
	assert.Equal(t, "Completed", payment.PaymentStatus)
	assert.Equal(t, models.PaymentCash, payment.PaymentMethod)
	assert.Equal(t, int64(1), f.count(t, &models.AuditLog{}, "action = ?", "Pay Credit"))
}

func TestPaySaleTwiceIsRejected(t *testing.T) {
	f := newFixture(t, Options{})
	f.stock(t, 1, f.branch.ID, "Lumber", 50)
	sale := f.creditSale(t, 1, 1, 100)

	_, err := f.svc.PaySale(context.Background(), f.scope, sale.ID)
	require.NoError(t, err)

	payments := f.count(t, &models.Payment{}, "")
	links := f.count(t, &models.PaymentSale{}, "")
	audits := f.count(t, &models.AuditLog{}, "")

	_, err = f.svc.PaySale(context.Background(), f.scope, sale.ID)
	require.Error(t, err)
	assert.True(t, apperr.Is(err, apperr.KindInvalidState))
	assert.Equal(t, "This sale is already paid.", apperr.Message(err))

	assert.Equal(t, payments, f.count(t, &models.Payment{}, ""))
	assert.Equal(t, links, f.count(t, &models.PaymentSale{}, ""))
	assert.Equal(t, audits, f.count(t, &models.AuditLog{}, ""))
}

func TestPaySaleOutsideScope(t *testing.T) {
	f := newFixture(t, Options{})
	f.stock(t, 1, f.branch.ID, "Lumber", 50)
	sale := f.creditSale(t, 1, 1, 100)

	stranger := auth.Scope{Actor: auth.Actor{UserID: 99, Role: auth.Admin}, BranchIDs: []uint{f.other.ID}, CurrentBranchID: f.other.ID}
	_, err := f.svc.PaySale(context.Background(), stranger, sale.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = f.svc.PaySale(context.Background(), f.scope, 12345)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestPayAllCredits(t *testing.T) {
	f := newFixture(t, Options{})
	f.stock(t, 1, f.branch.ID, "Lumber", 50)
	for i := 0; i < 3; i++ {
		f.creditSale(t, 1, 1, 100)
	}
	// A cash sale for the same customer is left alone.
	_, err := f.svc.CreateSale(context.Background(), f.cashier, f.branch.ID, Checkout{
		CustomerID:    &f.customer.ID,
		Lines:         []Line{{BranchProductID: 1, Quantity: 1, UnitPrice: decimal.NewFromInt(100)}},
		PaymentMethod: models.PaymentCash,
	})
	require.NoError(t, err)
	paymentsBefore := f.count(t, &models.Payment{}, "")

	res, err := f.svc.PayAllCredits(context.Background(), f.scope, f.customer.ID)
	require.NoError(t, err)
	assert.Len(t, res.Processed, 3)
	assert.Empty(t, res.Failed)
	assert.Equal(t, "All credits for this customer have been paid.", res.Message)

	assert.Equal(t, paymentsBefore+3, f.count(t, &models.Payment{}, ""))
	assert.Equal(t, int64(4), f.count(t, &models.PaymentSale{}, ""))
	assert.Zero(t, f.count(t, &models.Sale{}, "payment_type = ?", models.PaymentCredit))
	assert.Equal(t, int64(3), f.count(t, &models.AuditLog{}, "action = ?", "Pay Credit"))
}

func TestPayAllCreditsWithNothingOwed(t *testing.T) {
	f := newFixture(t, Options{})

	res, err := f.svc.PayAllCredits(context.Background(), f.scope, f.customer.ID)
	require.NoError(t, err)
	assert.Equal(t, NoCreditsMessage, res.Message)
	assert.Empty(t, res.Processed)
	assert.Zero(t, f.count(t, &models.Payment{}, ""))

	_, err = f.svc.PayAllCredits(context.Background(), f.scope, 999)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestDeleteCredit(t *testing.T) {
	f := newFixture(t, Options{})
	f.stock(t, 1, f.branch.ID, "Lumber", 50)
	sale := f.creditSale(t, 1, 5, 10)

	require.NoError(t, f.svc.DeleteCredit(context.Background(), f.scope, sale.ID))

	assert.Zero(t, f.count(t, &models.Sale{}, "id = ?", sale.ID))
	assert.Zero(t, f.count(t, &models.SaleItem{}, "sale_id = ?", sale.ID))
	assert.Equal(t, int64(1), f.count(t, &models.AuditLog{}, "action = ?", "Delete Credit"))
	// Stock is not given back.
	assert.Equal(t, 45, f.stockQty(t, 1))
}

func TestDeleteCreditRefusesPaidSale(t *testing.T) {
	f := newFixture(t, Options{})
	f.stock(t, 1, f.branch.ID, "Lumber", 50)
	sale := f.creditSale(t, 1, 1, 10)
	_, err := f.svc.PaySale(context.Background(), f.scope, sale.ID)
	require.NoError(t, err)

	err = f.svc.DeleteCredit(context.Background(), f.scope, sale.ID)
	assert.True(t, apperr.Is(err, apperr.KindInvalidState))
	assert.Equal(t, int64(1), f.count(t, &models.Sale{}, "id = ?", sale.ID))
	assert.Zero(t, f.count(t, &models.AuditLog{}, "action = ?", "Delete Credit"))
}

func TestDeleteAllCredits(t *testing.T) {
	f := newFixture(t, Options{})
	f.stock(t, 1, f.branch.ID, "Lumber", 50)
	f.creditSale(t, 1, 1, 10)
	f.creditSale(t, 1, 1, 10)

	res, err := f.svc.DeleteAllCredits(context.Background(), f.scope, f.customer.ID)
	require.NoError(t, err)
	assert.Len(t, res.Processed, 2)
	assert.Zero(t, f.count(t, &models.Sale{}, ""))
	assert.Equal(t, int64(2), f.count(t, &models.AuditLog{}, "action = ?", "Delete Credit"))

	res, err = f.svc.DeleteAllCredits(context.Background(), f.scope, f.customer.ID)
	require.NoError(t, err)
	assert.Equal(t, NoCreditsMessage, res.Message)
}

func TestSalesLogScope(t *testing.T) {
	f := newFixture(t, Options{})
	f.stock(t, 1, f.branch.ID, "Lumber", 50)
	f.creditSale(t, 1, 1, 10)

	otherCashier := models.User{Username: "cashier2", Role: models.RoleCashier}
	require.NoError(t, f.db.Create(&otherCashier).Error)
	_, err := f.svc.CreateSale(context.Background(), auth.Actor{UserID: otherCashier.ID, Role: auth.Cashier}, f.branch.ID, Checkout{
		Lines:         []Line{{BranchProductID: 1, Quantity: 1, UnitPrice: decimal.NewFromInt(10)}},
		PaymentMethod: models.PaymentCash,
	})
	require.NoError(t, err)

	mine, err := f.svc.SalesLog(context.Background(), f.scope, LogFilter{})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	require.NotNil(t, mine[0].Customer)
	assert.Equal(t, "Juan Dela Cruz", mine[0].Customer.Name)
	require.NotNil(t, mine[0].Creator)
	assert.Equal(t, "cashier1", mine[0].Creator.Username)

	admin := auth.Scope{Actor: auth.Actor{UserID: 50, Role: auth.Admin}, BranchIDs: []uint{f.branch.ID}, CurrentBranchID: f.branch.ID}
	all, err := f.svc.SalesLog(context.Background(), admin, LogFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	found, err := f.svc.SalesLog(context.Background(), admin, LogFilter{Search: "Juan"})
	require.NoError(t, err)
	assert.Len(t, found, 1)

	got, err := f.svc.Get(context.Background(), admin, all[0].ID)
	require.NoError(t, err)
	require.Len(t, got.Items, 1)
	require.NotNil(t, got.Items[0].BranchProduct)
	assert.Equal(t, "Lumber", got.Items[0].BranchProduct.Product.Name)
}

func TestPayAllCreditsKeepsOtherSettlements(t *testing.T) {
	f := newFixture(t, Options{})
	f.stock(t, 1, f.branch.ID, "Lumber", 50)
	first := f.creditSale(t, 1, 1, 100)
	broken := f.creditSale(t, 1, 1, 100)
	last := f.creditSale(t, 1, 1, 100)

	f.failCreates(t, "payment_sales", func(tx *gorm.DB) bool {
		link, ok := tx.Statement.Dest.(*models.PaymentSale)
		return ok && link.SaleID == broken.ID
	})

	res, err := f.svc.PayAllCredits(context.Background(), f.scope, f.customer.ID)
	require.NoError(t, err)
	assert.Equal(t, "Paid 2 of 3 credits.", res.Message)
	assert.Equal(t, []uint{first.ID, last.ID}, res.Processed)
	assert.Equal(t, map[uint]string{broken.ID: "Failed to link payment"}, res.Failed)

	var open []models.Sale
	require.NoError(t, f.db.Where("payment_type = ?", models.PaymentCredit).Find(&open).Error)
	require.Len(t, open, 1)
	assert.Equal(t, broken.ID, open[0].ID)
	assert.Equal(t, int64(2), f.count(t, &models.Payment{}, ""))
	assert.Equal(t, int64(2), f.count(t, &models.PaymentSale{}, ""))
	assert.Equal(t, int64(2), f.count(t, &models.AuditLog{}, "action = ?", "Pay Credit"))
}
