package payroll

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

// Wednesday 21 Oct 2026; the week is Mon 19 to Sun 25.
var wednesday = time.Date(2026, 10, 21, 8, 0, 0, 0, time.UTC)

func newService(t *testing.T) (*Service, *gorm.DB) {
	t.Helper()
	db := dbtest.New(t)
	return NewService(db).WithClock(func() time.Time { return wednesday }), db
}

func hire(t *testing.T, svc *Service, branchID uint, first string, rate int64) *models.Employee {
	t.Helper()
	e, err := svc.CreateEmployee(ctx, branchID, EmployeeInput{FirstName: first, LastName: "Cruz", DailyRate: decimal.NewFromInt(rate)})
	require.NoError(t, err)
	return e
}

func day(d int) time.Time { return time.Date(2026, 10, d, 0, 0, 0, 0, time.UTC) }

func TestMarkAttendance(t *testing.T) {
	svc, db := newService(t)
	ana := hire(t, svc, 1, "Ana", 500)
	ben := hire(t, svc, 1, "Ben", 450)
	hire(t, svc, 2, "Cy", 400)

	res, err := svc.MarkAttendance(ctx, 1, []uint{ana.ID})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Present)
	assert.Equal(t, 1, res.Absent)

	// Same list again is a no-op apart from the overwrite.
	_, err = svc.MarkAttendance(ctx, 1, []uint{ana.ID})
	require.NoError(t, err)
	var rows []models.Attendance
	require.NoError(t, db.Order("employee_id").Find(&rows).Error)
	require.Len(t, rows, 2)
	assert.Equal(t, models.StatusPresent, rows[0].Status)
	assert.True(t, decimal.NewFromInt(500).Equal(rows[0].DailyRate))
	assert.True(t, day(21).Equal(rows[0].AttDate))
	assert.Equal(t, models.StatusAbsent, rows[1].Status)

	// Changing the list flips the existing rows.
	_, err = svc.MarkAttendance(ctx, 1, []uint{ben.ID})
	require.NoError(t, err)
	require.NoError(t, db.Order("employee_id").Find(&rows).Error)
	assert.Equal(t, models.StatusAbsent, rows[0].Status)
	assert.Equal(t, models.StatusPresent, rows[1].Status)

	page, err := svc.TodayAttendance(ctx, 1, utils.ListFilter{})
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	require.NotNil(t, page.Items[1].Attendance)
	assert.Equal(t, models.StatusPresent, page.Items[1].Attendance.Status)

	_, err = svc.MarkAttendance(ctx, 0, nil)
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

func TestPaySalaryConsumesOnlyTheWeek(t *testing.T) {
	svc, db := newService(t)
	ana := hire(t, svc, 1, "Ana", 500)

	seed := []models.Attendance{
		{EmployeeID: ana.ID, AttDate: day(12), Status: models.StatusPresent, DailyRate: decimal.NewFromInt(480)}, // last week
		{EmployeeID: ana.ID, AttDate: day(19), Status: models.StatusPresent, DailyRate: decimal.NewFromInt(480)},
		{EmployeeID: ana.ID, AttDate: day(20), Status: models.StatusAbsent, DailyRate: decimal.NewFromInt(500)},
		{EmployeeID: ana.ID, AttDate: day(21), Status: models.StatusPresent, DailyRate: decimal.NewFromInt(500)},
		{EmployeeID: ana.ID, AttDate: day(26), Status: models.StatusPresent, DailyRate: decimal.NewFromInt(500)}, // next week
	}
	require.NoError(t, db.Create(&seed).Error)

	scope := auth.Scope{Actor: auth.Actor{UserID: 7, Role: auth.Admin}, BranchIDs: []uint{1}, CurrentBranchID: 1}
	p, err := svc.PaySalary(ctx, scope, ana.ID)
	require.NoError(t, err)
	assert.True(t, decimal.NewFromInt(980).Equal(p.GrossPay))
	assert.True(t, p.GrossPay.Equal(p.NetPay))
	assert.True(t, p.Deductions.IsZero())
	assert.True(t, day(19).Equal(p.PeriodStart))
	assert.Equal(t, uint(7), p.CreatedBy)

	var rows []models.Attendance
	require.NoError(t, db.Order("att_date").Find(&rows).Error)
	require.Len(t, rows, 5)
	assert.Nil(t, rows[0].PayrollID)
	for _, r := range rows[1:4] {
		require.NotNil(t, r.PayrollID)
		assert.Equal(t, p.ID, *r.PayrollID)
	}
	assert.Nil(t, rows[4].PayrollID)

	// The week is spent.
	_, err = svc.PaySalary(ctx, scope, ana.ID)
	assert.True(t, apperr.Is(err, apperr.KindInvalidState))

	var payrolls int64
	require.NoError(t, db.Model(&models.Payroll{}).Count(&payrolls).Error)
	assert.Equal(t, int64(1), payrolls)

	// Paid days cannot be re-marked.
	res, err := svc.MarkAttendance(ctx, 1, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Skipped)
	var today models.Attendance
	require.NoError(t, db.Where("att_date = ?", day(21)).First(&today).Error)
	assert.Equal(t, models.StatusPresent, today.Status)
}

func TestPaySalaryOutsideScope(t *testing.T) {
	svc, _ := newService(t)
	ana := hire(t, svc, 1, "Ana", 500)

	other := auth.Scope{Actor: auth.Actor{UserID: 7, Role: auth.Admin}, BranchIDs: []uint{2}, CurrentBranchID: 2}
	_, err := svc.PaySalary(ctx, other, ana.ID)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))
}

func TestEmployeesScope(t *testing.T) {
	svc, _ := newService(t)
	hire(t, svc, 1, "Ana", 500)
	hire(t, svc, 2, "Ben", 500)

	owner := auth.Scope{Actor: auth.Actor{UserID: 1, Role: auth.Owner}, BranchIDs: []uint{1, 2}, CurrentBranchID: 1}
	all, err := svc.Employees(ctx, owner)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	admin := auth.Scope{Actor: auth.Actor{UserID: 2, Role: auth.Admin}, BranchIDs: []uint{2}, CurrentBranchID: 2}
	mine, err := svc.Employees(ctx, admin)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "Ben", mine[0].FirstName)
}
