package export

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"go-hardware-pos/internal/apperr"
	"go-hardware-pos/internal/auth"
	"go-hardware-pos/internal/customers"
	"go-hardware-pos/internal/database/dbtest"
	"go-hardware-pos/internal/models"
	"go-hardware-pos/internal/sales"
	"go-hardware-pos/internal/storage"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// Wednesday of the week starting Monday 2026-10-19.
var fixedNow = time.Date(2026, 10, 21, 10, 0, 0, 0, time.UTC)

type env struct {
	db      *gorm.DB
	exp     *Exporter
	main    models.Branch
	north   models.Branch
	owner   auth.Scope
	cashier auth.Scope
}

func setup(t *testing.T, files *storage.FileService) *env {
	t.Helper()
	db := dbtest.New(t)
	e := &env{db: db}

	e.main = models.Branch{Name: "Main", Location: "Downtown"}
	e.north = models.Branch{Name: "North", Location: "Uptown"}
	require.NoError(t, db.Create(&e.main).Error)
	require.NoError(t, db.Create(&e.north).Error)

	owner := models.User{Username: "boss", Role: models.RoleOwner}
	cashier := models.User{Username: "ana", Role: models.RoleCashier}
	require.NoError(t, db.Create(&owner).Error)
	require.NoError(t, db.Create(&cashier).Error)

	e.owner = auth.Scope{Actor: auth.Actor{UserID: owner.ID, Role: auth.Owner}, BranchIDs: []uint{e.main.ID, e.north.ID}, CurrentBranchID: e.main.ID}
	e.cashier = auth.Scope{Actor: auth.Actor{UserID: cashier.ID, Role: auth.Cashier}, BranchIDs: []uint{e.main.ID}, CurrentBranchID: e.main.ID}

	e.exp = NewExporter(db, customers.NewService(db), files).WithClock(func() time.Time { return fixedNow })
	return e
}

func rows(t *testing.T, wb *Workbook, sheet string) [][]string {
	t.Helper()
	out, err := wb.File().GetRows(sheet)
	require.NoError(t, err)
	return out
}

func TestBuildStylesHeader(t *testing.T) {
	wb, err := Build("x.xlsx",
		Sheet{Name: "First", Headers: []string{"A", "B"}, Rows: [][]any{{1, decimal.RequireFromString("2.50")}}},
		Sheet{Name: "Second", Headers: []string{"C"}},
	)
	require.NoError(t, err)
	assert.Equal(t, []string{"First", "Second"}, wb.File().GetSheetList())
	assert.Equal(t, [][]string{{"A", "B"}, {"1", "2.5"}}, rows(t, wb, "First"))

	styleID, err := wb.File().GetCellStyle("First", "B1")
	require.NoError(t, err)
	style, err := wb.File().GetStyle(styleID)
	require.NoError(t, err)
	require.NotNil(t, style.Font)
	assert.True(t, style.Font.Bold)

	width, err := wb.File().GetColWidth("First", "B")
	require.NoError(t, err)
	assert.Equal(t, float64(colWidth), width)

	data, err := wb.Bytes()
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}

func TestSalesExportIsScoped(t *testing.T) {
	e := setup(t, nil)
	cust := models.Customer{BranchID: e.main.ID, Name: "Juan"}
	require.NoError(t, e.db.Create(&cust).Error)
	list := []models.Sale{
		{BranchID: e.main.ID, CustomerID: &cust.ID, TotalAmount: decimal.NewFromInt(370), PaymentType: models.PaymentCash, SaleDate: fixedNow, CreatedBy: e.cashier.UserID},
		{BranchID: e.main.ID, TotalAmount: decimal.NewFromInt(50), PaymentType: models.PaymentCash, SaleDate: fixedNow.Add(-time.Hour), CreatedBy: e.owner.UserID},
		{BranchID: e.north.ID, TotalAmount: decimal.NewFromInt(80), PaymentType: models.PaymentCredit, SaleDate: fixedNow.Add(-2 * time.Hour), CreatedBy: e.owner.UserID},
	}
	require.NoError(t, e.db.Create(&list).Error)

	wb, err := e.exp.Sales(context.Background(), e.cashier, "")
	require.NoError(t, err)
	assert.Equal(t, "sales_20261021_100000.xlsx", wb.Filename)
	got := rows(t, wb, "Sales")
	require.Len(t, got, 2)
	assert.Equal(t, []string{"Sale ID", "Customer", "Cashier", "Total Amount", "Payment Type", "Sale Date"}, got[0])
	assert.Equal(t, []string{"1", "Juan", "ana", "370", "Cash", "2026-10-21 10:00"}, got[1])

	wb, err = e.exp.Sales(context.Background(), e.owner, "")
	require.NoError(t, err)
	got = rows(t, wb, "Sales")
	require.Len(t, got, 4)
	assert.Equal(t, "Walk-in", got[2][1])
}

func TestBranchAndSupplierExports(t *testing.T) {
	e := setup(t, nil)
	require.NoError(t, e.db.Create(&models.Supplier{BranchID: e.main.ID, Name: "Acme", Contact: "0917"}).Error)
	require.NoError(t, e.db.Create(&models.Supplier{BranchID: e.north.ID, Name: "Bolt Co"}).Error)

	wb, err := e.exp.Branches(context.Background(), e.cashier)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"Branch ID", "Branch Name", "Location"}, {"1", "Main", "Downtown"}}, rows(t, wb, "Branches"))

	wb, err = e.exp.Suppliers(context.Background(), e.owner)
	require.NoError(t, err)
	got := rows(t, wb, "Suppliers")
	require.Len(t, got, 3)
	assert.Equal(t, []string{"1", "Acme", "0917"}, got[1])
}

func TestProductsExportStatus(t *testing.T) {
	e := setup(t, nil)
	for i, qty := range []int{0, 20, 21} {
		p := models.Product{SKU: "PROD-0000" + string(rune('1'+i)), Name: "Item", UnitCost: decimal.NewFromInt(5), SellingPrice: decimal.NewFromInt(9)}
		require.NoError(t, e.db.Create(&p).Error)
		require.NoError(t, e.db.Create(&models.BranchProduct{BranchID: e.main.ID, ProductID: p.ID, StockQty: qty}).Error)
	}

	wb, err := e.exp.Products(context.Background(), e.main.ID)
	require.NoError(t, err)
	got := rows(t, wb, "Products")
	require.Len(t, got, 4)
	assert.Equal(t, "No Stock", got[1][6])
	assert.Equal(t, "Low Stock", got[2][6])
	assert.Equal(t, "In Stock", got[3][6])
}

func TestCustomersExportHasTwoSheets(t *testing.T) {
	e := setup(t, nil)
	cust := models.Customer{BranchID: e.main.ID, Name: "Juan", Contact: "0917", Address: "Cebu"}
	require.NoError(t, e.db.Create(&cust).Error)
	due := fixedNow.Add(7 * 24 * time.Hour)
	require.NoError(t, e.db.Create(&models.Sale{BranchID: e.main.ID, CustomerID: &cust.ID, TotalAmount: decimal.NewFromInt(120), PaymentType: models.PaymentCredit, SaleDate: fixedNow, DueDate: &due}).Error)

	wb, err := e.exp.Customers(context.Background(), e.main.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Customer Credits", "Customer Details"}, wb.File().GetSheetList())
	assert.Equal(t, []string{"1", "Juan", "120", "2026-10-28"}, rows(t, wb, "Customer Credits")[1])
	assert.Equal(t, []string{"1", "Juan", "0917", "Cebu"}, rows(t, wb, "Customer Details")[1])
}

func TestPaidCreditsExport(t *testing.T) {
	e := setup(t, nil)
	cust := models.Customer{BranchID: e.main.ID, Name: "Juan"}
	require.NoError(t, e.db.Create(&cust).Error)
	require.NoError(t, e.db.Create(&models.Sale{BranchID: e.main.ID, CustomerID: &cust.ID, TotalAmount: decimal.NewFromInt(40), PaymentType: models.PaymentCash, SaleDate: fixedNow}).Error)

	wb, err := e.exp.PaidCredits(context.Background(), e.owner, "")
	require.NoError(t, err)
	got := rows(t, wb, "Paid Credits")
	require.Len(t, got, 2)
	assert.Equal(t, []string{"1", "Juan", "40", "2026-10-21 10:00"}, got[1])
}

func seedStaff(t *testing.T, e *env) models.Employee {
	t.Helper()
	userID := e.cashier.UserID
	emp := models.Employee{BranchID: e.main.ID, UserID: &userID, FirstName: "Ana", LastName: "Cruz", Email: "ana@example.com", DailyRate: decimal.NewFromInt(500)}
	other := models.Employee{BranchID: e.north.ID, FirstName: "Ben", LastName: "Lim", DailyRate: decimal.NewFromInt(450)}
	require.NoError(t, e.db.Create(&emp).Error)
	require.NoError(t, e.db.Create(&other).Error)

	monday := time.Date(2026, 10, 19, 0, 0, 0, 0, time.UTC)
	marks := []models.Attendance{
		{EmployeeID: emp.ID, AttDate: monday, Status: models.StatusPresent, DailyRate: decimal.NewFromInt(500)},
		{EmployeeID: emp.ID, AttDate: monday.AddDate(0, 0, 1), Status: models.StatusAbsent, DailyRate: decimal.NewFromInt(500)},
		{EmployeeID: emp.ID, AttDate: monday.AddDate(0, 0, 2), Status: models.StatusPresent, DailyRate: decimal.NewFromInt(500)},
		{EmployeeID: other.ID, AttDate: monday, Status: models.StatusPresent, DailyRate: decimal.NewFromInt(450)},
		// Last week, outside the weekly sheet.
		{EmployeeID: emp.ID, AttDate: monday.AddDate(0, 0, -3), Status: models.StatusPresent, DailyRate: decimal.NewFromInt(500)},
	}
	require.NoError(t, e.db.Create(&marks).Error)
	return emp
}

func TestAttendanceAndPayrollExports(t *testing.T) {
	e := setup(t, nil)
	emp := seedStaff(t, e)
	require.NoError(t, e.db.Create(&models.Payroll{
		EmployeeID: emp.ID, PeriodStart: time.Date(2026, 10, 12, 0, 0, 0, 0, time.UTC), PeriodEnd: time.Date(2026, 10, 18, 23, 59, 59, 0, time.UTC),
		GrossPay: decimal.NewFromInt(500), Deductions: decimal.Zero, NetPay: decimal.NewFromInt(500),
	}).Error)

	wb, err := e.exp.Attendance(context.Background(), e.cashier)
	require.NoError(t, err)
	got := rows(t, wb, "Attendance")
	require.Len(t, got, 5) // header + Ana's four days
	assert.Equal(t, []string{"3", "Ana Cruz", "Main", "2026-10-21", "Present"}, got[1])

	wb, err = e.exp.Attendance(context.Background(), e.owner)
	require.NoError(t, err)
	assert.Len(t, rows(t, wb, "Attendance"), 6)

	wb, err = e.exp.Payroll(context.Background(), e.cashier)
	require.NoError(t, err)
	assert.Equal(t, []string{"Ana Cruz", "Main", "2026-10-12", "2026-10-18", "500", "0", "500"}, rows(t, wb, "Payroll")[1])
}

func TestEmployeesWeekExport(t *testing.T) {
	e := setup(t, nil)
	seedStaff(t, e)

	wb, err := e.exp.EmployeesWeek(context.Background(), e.owner)
	require.NoError(t, err)

	staff := rows(t, wb, "Employees")
	require.Len(t, staff, 3)
	assert.Equal(t, []string{"1", "1", "Ana Cruz", "ana@example.com", "ana", "Cashier"}, staff[1])

	week := rows(t, wb, "Attendance")
	require.Len(t, week, 3)
	assert.Equal(t, []string{"1", "1", "Ana Cruz", "500", "Present", "Absent", "Present", "", "", "", "", "1000"}, week[1])
	assert.Equal(t, "450", week[2][len(week[2])-1])
}

func TestCartExport(t *testing.T) {
	e := setup(t, nil)
	p := models.Product{SKU: "PROD-00001", Name: "Hammer"}
	require.NoError(t, e.db.Create(&p).Error)
	bp := models.BranchProduct{BranchID: e.main.ID, ProductID: p.ID, StockQty: 5}
	require.NoError(t, e.db.Create(&bp).Error)

	cart := sales.Checkout{
		Lines:       []sales.Line{{BranchProductID: bp.ID, Quantity: 2, UnitPrice: decimal.RequireFromString("150.00")}},
		ShippingFee: decimal.NewFromInt(70),
	}
	wb, err := e.exp.Cart(context.Background(), e.main.ID, cart)
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"Product", "Quantity", "Unit Price", "Subtotal"},
		{"Hammer", "2", "150", "300"},
		{"", "", "Shipping Fee", "70"},
		{"", "", "Total", "370"},
	}, rows(t, wb, "Cart"))

	cart.Lines[0].BranchProductID = 999
	_, err = e.exp.Cart(context.Background(), e.main.ID, cart)
	assert.True(t, apperr.Is(err, apperr.KindNotFound))

	_, err = e.exp.Cart(context.Background(), e.main.ID, sales.Checkout{})
	assert.True(t, apperr.Is(err, apperr.KindValidation))
}

type memUploader struct{ objects map[string][]byte }

func (m *memUploader) Put(_ context.Context, name, _ string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	m.objects[name] = data
	return "https://files.test/" + name, nil
}

func (m *memUploader) Remove(_ context.Context, name string) error {
	delete(m.objects, name)
	return nil
}

func TestSyncUploadsWorkbook(t *testing.T) {
	noCloud := setup(t, nil)
	wb, err := noCloud.exp.Branches(context.Background(), noCloud.owner)
	require.NoError(t, err)
	_, err = noCloud.exp.Sync(context.Background(), 1, wb)
	assert.True(t, apperr.Is(err, apperr.KindInvalidState))

	up := &memUploader{objects: map[string][]byte{}}
	db := dbtest.New(t)
	exp := NewExporter(db, customers.NewService(db), storage.NewFileService(db, up)).WithClock(func() time.Time { return fixedNow })

	file, err := exp.Sync(context.Background(), 5, wb)
	require.NoError(t, err)
	assert.Equal(t, wb.Filename, file.Filename)
	assert.Equal(t, ContentType, file.FileType)
	assert.True(t, strings.HasSuffix(file.ObjectKey, ".xlsx"))
	assert.Len(t, up.objects, 1)
}
