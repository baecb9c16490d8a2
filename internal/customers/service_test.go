package customers

import (
	"context"
	"testing"
	"time"

	"go-hardware-pos/internal/apperr"
	"go-hardware-pos/internal/auth"
	"go-hardware-pos/internal/database/dbtest"
	"go-hardware-pos/internal/models"
	"go-hardware-pos/internal/utils"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var ctx = context.Background()

func scopeFor(branchID uint) auth.Scope {
	return auth.Scope{Actor: auth.Actor{UserID: 1, Role: auth.Admin}, BranchIDs: []uint{branchID}, CurrentBranchID: branchID}
}

func sale(t *testing.T, db *gorm.DB, branchID uint, customerID *uint, paymentType string, amount int64, at time.Time) models.Sale {
	t.Helper()
	s := models.Sale{
		BranchID:    branchID,
		CustomerID:  customerID,
		PaymentType: paymentType,
		TotalAmount: decimal.NewFromInt(amount),
		SaleDate:    at,
		CreatedBy:   1,
	}
	if paymentType == models.PaymentCredit {
		due := at.AddDate(0, 0, 7)
		s.DueDate = &due
	}
	require.NoError(t, db.Create(&s).Error)
	return s
}

func TestCustomerCRUD(t *testing.T) {
	db := dbtest.New(t)
	svc := NewService(db)

	c, err := svc.Create(ctx, 1, Input{Name: "Maria Santos", Contact: "0917-000"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, 1, Input{Name: "Pedro Reyes"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, 2, Input{Name: "Other Branch"})
	require.NoError(t, err)

	_, err = svc.Create(ctx, 0, Input{Name: "Nobody"})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
	_, err = svc.Create(ctx, 1, Input{})
	assert.True(t, apperr.Is(err, apperr.KindValidation))

	page, err := svc.List(ctx, 1, utils.ListFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), page.Total)

	page, err = svc.List(ctx, 1, utils.ListFilter{Search: "Maria"})
	require.NoError(t, err)
	require.Len(t, page.Items, 1)

	updated, err := svc.Update(ctx, scopeFor(1), c.ID, Input{Name: "Maria S. Santos", Address: "Cebu"})
	require.NoError(t, err)
	assert.Equal(t, "Maria S. Santos", updated.Name)

	_, err = svc.Update(ctx, scopeFor(2), c.ID, Input{Name: "Hijack"})
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestDeleteKeepsSalesAsWalkIn(t *testing.T) {
	db := dbtest.New(t)
	svc := NewService(db)
	c, err := svc.Create(ctx, 1, Input{Name: "Maria"})
	require.NoError(t, err)
	s := sale(t, db, 1, &c.ID, models.PaymentCash, 100, time.Now().UTC())

	require.NoError(t, svc.Delete(ctx, scopeFor(1), c.ID))

	var kept models.Sale
	require.NoError(t, db.First(&kept, s.ID).Error)
	assert.Nil(t, kept.CustomerID)
	_, err = svc.Get(ctx, scopeFor(1), c.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestCredits(t *testing.T) {
	db := dbtest.New(t)
	svc := NewService(db)
	c, err := svc.Create(ctx, 1, Input{Name: "Maria"})
	require.NoError(t, err)

	day := time.Date(2026, 10, 1, 10, 0, 0, 0, time.UTC)
	sale(t, db, 1, &c.ID, models.PaymentCredit, 300, day.AddDate(0, 0, 2))
	sale(t, db, 1, &c.ID, models.PaymentCredit, 200, day)
	sale(t, db, 1, &c.ID, models.PaymentCash, 50, day)

	st, err := svc.Credits(ctx, scopeFor(1), c.ID)
	require.NoError(t, err)
	assert.Equal(t, "Maria", st.CustomerName)
	require.Len(t, st.Credits, 2)
	assert.True(t, decimal.NewFromInt(200).Equal(st.Credits[0].Amount))
	require.NotNil(t, st.Credits[0].DueDate)
	assert.True(t, day.AddDate(0, 0, 7).Equal(*st.Credits[0].DueDate))

	sums, err := svc.CreditSummaries(ctx, 1)
	require.NoError(t, err)
	require.Len(t, sums, 1)
	assert.True(t, decimal.NewFromInt(500).Equal(sums[0].TotalCredit))
	require.NotNil(t, sums[0].NextDue)
	assert.True(t, day.AddDate(0, 0, 7).Equal(*sums[0].NextDue))
}

func TestPaidCredits(t *testing.T) {
	db := dbtest.New(t)
	svc := NewService(db)
	maria, err := svc.Create(ctx, 1, Input{Name: "Maria"})
	require.NoError(t, err)
	pedro, err := svc.Create(ctx, 1, Input{Name: "Pedro"})
	require.NoError(t, err)

	day := time.Date(2026, 10, 1, 10, 0, 0, 0, time.UTC)
	sale(t, db, 1, &maria.ID, models.PaymentCash, 100, day)
	sale(t, db, 1, &maria.ID, models.PaymentCash, 150, day.AddDate(0, 0, 3))
	sale(t, db, 1, &pedro.ID, models.PaymentCredit, 999, day)
	sale(t, db, 1, nil, models.PaymentCash, 10, day)

	sums, err := svc.PaidCredits(ctx, scopeFor(1), "")
	require.NoError(t, err)
	require.Len(t, sums, 1)
	assert.Equal(t, "Maria", sums[0].Name)
	assert.True(t, decimal.NewFromInt(250).Equal(sums[0].TotalPaid))
	assert.True(t, day.AddDate(0, 0, 3).Equal(sums[0].LastPaid))

	sums, err = svc.PaidCredits(ctx, scopeFor(1), "Pedro")
	require.NoError(t, err)
	assert.Empty(t, sums)
}
