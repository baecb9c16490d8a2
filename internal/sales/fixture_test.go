package sales

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go-hardware-pos/internal/auth"
	"go-hardware-pos/internal/database/dbtest"
	"go-hardware-pos/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// Wednesday; the week runs from Monday the 19th to Sunday the 25th.
var fixedNow = time.Date(2026, 10, 21, 15, 30, 0, 0, time.UTC)

type fixture struct {
	db       *gorm.DB
	svc      *Service
	dispatch *fakeDispatcher
	branch   models.Branch
	other    models.Branch
	cashier  auth.Actor
	scope    auth.Scope
	customer models.Customer
}

func newFixture(t *testing.T, opts Options) *fixture {
	t.Helper()
	db := dbtest.New(t)

	f := &fixture{db: db, dispatch: &fakeDispatcher{}}
	f.branch = models.Branch{Name: "Main", Location: "Downtown"}
	f.other = models.Branch{Name: "North", Location: "Uptown"}
	require.NoError(t, db.Create(&f.branch).Error)
	require.NoError(t, db.Create(&f.other).Error)

	user := models.User{Username: "cashier1", Role: models.RoleCashier}
	require.NoError(t, db.Create(&user).Error)
	require.NoError(t, db.Create(&models.UserBranch{UserID: user.ID, BranchID: f.branch.ID}).Error)

	f.cashier = auth.Actor{UserID: user.ID, Role: auth.Cashier}
	f.scope = auth.Scope{Actor: f.cashier, BranchIDs: []uint{f.branch.ID}, CurrentBranchID: f.branch.ID}

	f.customer = models.Customer{BranchID: f.branch.ID, Name: "Juan Dela Cruz"}
	require.NoError(t, db.Create(&f.customer).Error)

	if opts.Now == nil {
		opts.Now = func() time.Time { return fixedNow }
	}
	f.svc = NewService(db, f.dispatch, opts)
	return f
}

// stock adds a branch product with a fixed id.
func (f *fixture) stock(t *testing.T, id uint, branchID uint, name string, qty int) models.BranchProduct {
	t.Helper()
	p := models.Product{SKU: name, Name: name, SellingPrice: decimal.NewFromInt(10), IsActive: true}
	require.NoError(t, f.db.Create(&p).Error)
	bp := models.BranchProduct{ID: id, BranchID: branchID, ProductID: p.ID, StockQty: qty, IsActive: true}
	require.NoError(t, f.db.Create(&bp).Error)
	return bp
}

func (f *fixture) stockQty(t *testing.T, id uint) int {
	t.Helper()
	var bp models.BranchProduct
	require.NoError(t, f.db.First(&bp, id).Error)
	return bp.StockQty
}

func (f *fixture) count(t *testing.T, model any, query string, args ...any) int64 {
	t.Helper()
	var n int64
	q := f.db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	require.NoError(t, q.Count(&n).Error)
	return n
}

func (f *fixture) creditSale(t *testing.T, bpID uint, qty int, price int64) *models.Sale {
	t.Helper()
	sale, err := f.svc.CreateSale(context.Background(), f.cashier, f.branch.ID, Checkout{
		CustomerID:    &f.customer.ID,
		Lines:         []Line{{BranchProductID: bpID, Quantity: qty, UnitPrice: decimal.NewFromInt(price)}},
		PaymentMethod: models.PaymentCredit,
	})
	require.NoError(t, err)
	return sale
}

func assertDecimal(t *testing.T, want string, got decimal.Decimal) {
	t.Helper()
	assert.True(t, decimal.RequireFromString(want).Equal(got), "want %s, got %s", want, got)
}

type fakeDispatcher struct {
	mu       sync.Mutex
	branches []uint
	err      error
}

func (d *fakeDispatcher) DispatchForecast(_ context.Context, branchID uint) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.branches = append(d.branches, branchID)
	return d.err
}

var errQueueDown = errors.New("queue down")

var errDiskFull = errors.New("disk full")

// failCreates makes inserts into table fail while match returns true.
func (f *fixture) failCreates(t *testing.T, table string, match func(tx *gorm.DB) bool) {
	t.Helper()
	err := f.db.Callback().Create().Before("gorm:create").Register("test:fail_"+table, func(tx *gorm.DB) {
		if tx.Statement.Table == table && match(tx) {
			_ = tx.AddError(errDiskFull)
		}
	})
	require.NoError(t, err)
}
