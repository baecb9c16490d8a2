package export

import (
	"context"
	"fmt"
	"time"

	"go-hardware-pos/internal/apperr"
	"go-hardware-pos/internal/auth"
	"go-hardware-pos/internal/customers"
	"go-hardware-pos/internal/logger"
	"go-hardware-pos/internal/models"
	"go-hardware-pos/internal/sales"
	"go-hardware-pos/internal/storage"
	"go-hardware-pos/internal/utils"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// LowStockLevel is the quantity at or below which a product shows as Low Stock.
const LowStockLevel = 20

type Exporter struct {
	db        *gorm.DB
	customers *customers.Service
	files     *storage.FileService
	now       func() time.Time
	log       zerolog.Logger
}

// NewExporter builds the exporter. files may be nil when cloud sync is off.
func NewExporter(db *gorm.DB, customers *customers.Service, files *storage.FileService) *Exporter {
	return &Exporter{
		db:        db,
		customers: customers,
		files:     files,
		now:       time.Now,
		log:       logger.WithComponent("export"),
	}
}

// WithClock swaps the time source, for tests.
func (e *Exporter) WithClock(now func() time.Time) *Exporter {
	e.now = now
	return e
}

// Sync uploads a finished workbook and records it under the user's files.
func (e *Exporter) Sync(ctx context.Context, userID uint, wb *Workbook) (*models.File, error) {
	if e.files == nil {
		return nil, apperr.InvalidState("Cloud storage is not configured.")
	}
	r, size, err := wb.Reader()
	if err != nil {
		return nil, err
	}
	file, err := e.files.Save(ctx, userID, storage.Upload{
		Filename:    wb.Filename,
		ContentType: ContentType,
		Size:        size,
		Body:        r,
	})
	if err != nil {
		return nil, err
	}
	e.log.Info().Uint("user_id", userID).Str("file", wb.Filename).Msg("export synced to cloud")
	return file, nil
}

// Sales exports the sales log the scope may see.
func (e *Exporter) Sales(ctx context.Context, scope auth.Scope, search string) (*Workbook, error) {
	var list []models.Sale
	err := sales.ScopedQuery(e.db.WithContext(ctx), scope, search).
		Preload("Customer").
		Preload("Creator").
		Order("sales.sale_date desc, sales.id desc").
		Find(&list).Error
	if err != nil {
		return nil, apperr.Persistence("Failed to fetch sales", err)
	}

	rows := make([][]any, 0, len(list))
	for _, s := range list {
		customer := "Walk-in"
		if s.Customer != nil {
			customer = s.Customer.Name
		}
		cashier := ""
		if s.Creator != nil {
			cashier = s.Creator.Username
		}
		rows = append(rows, []any{s.ID, customer, cashier, s.TotalAmount, s.PaymentType, s.SaleDate})
	}
	return Build(Filename("sales", e.now()), Sheet{
		Name:    "Sales",
		Headers: []string{"Sale ID", "Customer", "Cashier", "Total Amount", "Payment Type", "Sale Date"},
		Rows:    rows,
	})
}

// Branches exports every branch the actor belongs to.
func (e *Exporter) Branches(ctx context.Context, scope auth.Scope) (*Workbook, error) {
	var list []models.Branch
	if err := scope.Branches(e.db.WithContext(ctx).Model(&models.Branch{}), "id").Order("id").Find(&list).Error; err != nil {
		return nil, apperr.Persistence("Failed to fetch branches", err)
	}
	rows := make([][]any, 0, len(list))
	for _, b := range list {
		rows = append(rows, []any{b.ID, b.Name, b.Location})
	}
	return Build(Filename("branches", e.now()), Sheet{
		Name:    "Branches",
		Headers: []string{"Branch ID", "Branch Name", "Location"},
		Rows:    rows,
	})
}

// Suppliers exports the suppliers of every branch the actor belongs to.
func (e *Exporter) Suppliers(ctx context.Context, scope auth.Scope) (*Workbook, error) {
	var list []models.Supplier
	if err := scope.Branches(e.db.WithContext(ctx).Model(&models.Supplier{}), "branch_id").Order("id").Find(&list).Error; err != nil {
		return nil, apperr.Persistence("Failed to fetch suppliers", err)
	}
	rows := make([][]any, 0, len(list))
	for _, s := range list {
		rows = append(rows, []any{s.ID, s.Name, s.Contact, s.Address})
	}
	return Build(Filename("suppliers", e.now()), Sheet{
		Name:    "Suppliers",
		Headers: []string{"ID", "Supplier Name", "Contact", "Address"},
		Rows:    rows,
	})
}

// StockStatus labels a stock level.
func StockStatus(qty int) string {
	switch {
	case qty <= 0:
		return "No Stock"
	case qty <= LowStockLevel:
		return "Low Stock"
	}
	return "In Stock"
}

// Products exports the branch's stocked products.
func (e *Exporter) Products(ctx context.Context, branchID uint) (*Workbook, error) {
	var list []models.BranchProduct
	err := e.db.WithContext(ctx).Preload("Product").
		Where("branch_id = ?", branchID).
		Order("product_id").
		Find(&list).Error
	if err != nil {
		return nil, apperr.Persistence("Failed to fetch products", err)
	}
	rows := make([][]any, 0, len(list))
	for _, bp := range list {
		p := bp.Product
		rows = append(rows, []any{p.SKU, p.Name, p.Category, p.UnitCost, p.SellingPrice, bp.StockQty, StockStatus(bp.StockQty)})
	}
	return Build(Filename("products", e.now()), Sheet{
		Name:    "Products",
		Headers: []string{"SKU", "Product Name", "Category", "Unit Cost", "Selling Price", "Stock", "Status"},
		Rows:    rows,
	})
}

// Customers exports the branch's customers on two sheets: what each owes and
// their contact details.
func (e *Exporter) Customers(ctx context.Context, branchID uint) (*Workbook, error) {
	summaries, err := e.customers.CreditSummaries(ctx, branchID)
	if err != nil {
		return nil, err
	}

	credits := make([][]any, 0, len(summaries))
	details := make([][]any, 0, len(summaries))
	for _, s := range summaries {
		c := s.Customer
		credits = append(credits, []any{c.ID, c.Name, s.TotalCredit, s.NextDue})
		details = append(details, []any{c.ID, c.Name, c.Contact, c.Address, c.Notes})
	}
	return Build(Filename("customers", e.now()),
		Sheet{
			Name:    "Customer Credits",
			Headers: []string{"Customer ID", "Name", "Total Credit", "Next Due Date"},
			Rows:    credits,
		},
		Sheet{
			Name:    "Customer Details",
			Headers: []string{"Customer ID", "Name", "Contact", "Address", "Notes"},
			Rows:    details,
		},
	)
}

// PaidCredits exports settled totals per customer.
func (e *Exporter) PaidCredits(ctx context.Context, scope auth.Scope, search string) (*Workbook, error) {
	list, err := e.customers.PaidCredits(ctx, scope, search)
	if err != nil {
		return nil, err
	}
	rows := make([][]any, 0, len(list))
	for _, p := range list {
		rows = append(rows, []any{p.CustomerID, p.Name, p.TotalPaid, p.LastPaid})
	}
	return Build(Filename("paid_credits", e.now()), Sheet{
		Name:    "Paid Credits",
		Headers: []string{"Customer ID", "Name", "Total Paid Credits", "Last Paid Date"},
		Rows:    rows,
	})
}

type attendanceRow struct {
	ID         uint
	FirstName  string
	LastName   string
	BranchName string
	AttDate    time.Time
	Status     string
}

// Attendance exports every attendance row the scope may see, newest first.
func (e *Exporter) Attendance(ctx context.Context, scope auth.Scope) (*Workbook, error) {
	var list []attendanceRow
	q := e.db.WithContext(ctx).Table("attendances").
		Select("attendances.id, employees.first_name, employees.last_name, branches.name AS branch_name, attendances.att_date, attendances.status").
		Joins("JOIN employees ON employees.id = attendances.employee_id").
		Joins("LEFT JOIN branches ON branches.id = employees.branch_id")
	if err := scope.Employees(q).Order("attendances.att_date desc, attendances.id").Scan(&list).Error; err != nil {
		return nil, apperr.Persistence("Failed to fetch attendance", err)
	}

	rows := make([][]any, 0, len(list))
	for _, a := range list {
		rows = append(rows, []any{a.ID, a.FirstName + " " + a.LastName, a.BranchName, &a.AttDate, a.Status})
	}
	return Build(Filename("attendance", e.now()), Sheet{
		Name:    "Attendance",
		Headers: []string{"Attendance ID", "Employee Name", "Branch", "Date", "Status"},
		Rows:    rows,
	})
}

type payrollRow struct {
	FirstName   string
	LastName    string
	BranchName  string
	PeriodStart time.Time
	PeriodEnd   time.Time
	GrossPay    decimal.Decimal
	Deductions  decimal.Decimal
	NetPay      decimal.Decimal
}

// Payroll exports every payroll the scope may see, newest period first.
func (e *Exporter) Payroll(ctx context.Context, scope auth.Scope) (*Workbook, error) {
	var list []payrollRow
	q := e.db.WithContext(ctx).Table("payrolls").
		Select("employees.first_name, employees.last_name, branches.name AS branch_name, payrolls.period_start, payrolls.period_end, payrolls.gross_pay, payrolls.deductions, payrolls.net_pay").
		Joins("JOIN employees ON employees.id = payrolls.employee_id").
		Joins("LEFT JOIN branches ON branches.id = employees.branch_id")
	if err := scope.Employees(q).Order("payrolls.period_start desc, payrolls.id").Scan(&list).Error; err != nil {
		return nil, apperr.Persistence("Failed to fetch payroll", err)
	}

	rows := make([][]any, 0, len(list))
	for _, p := range list {
		rows = append(rows, []any{
			p.FirstName + " " + p.LastName, p.BranchName,
			&p.PeriodStart, &p.PeriodEnd,
			p.GrossPay, p.Deductions, p.NetPay,
		})
	}
	return Build(Filename("payroll", e.now()), Sheet{
		Name:    "Payroll",
		Headers: []string{"Employee Name", "Branch", "Period Start", "Period End", "Gross", "Deductions", "Net"},
		Rows:    rows,
	})
}

// EmployeesWeek exports the visible employees and their attendance for the
// current week, with what each has earned so far.
func (e *Exporter) EmployeesWeek(ctx context.Context, scope auth.Scope) (*Workbook, error) {
	var employees []models.Employee
	if err := scope.Employees(e.db.WithContext(ctx).Model(&models.Employee{})).Order("employees.id").Find(&employees).Error; err != nil {
		return nil, apperr.Persistence("Failed to fetch employees", err)
	}

	ids := make([]uint, 0, len(employees))
	userIDs := make([]uint, 0, len(employees))
	for _, emp := range employees {
		ids = append(ids, emp.ID)
		if emp.UserID != nil {
			userIDs = append(userIDs, *emp.UserID)
		}
	}

	users := map[uint]models.User{}
	if len(userIDs) > 0 {
		var list []models.User
		if err := e.db.WithContext(ctx).Where("id IN ?", userIDs).Find(&list).Error; err != nil {
			return nil, apperr.Persistence("Failed to fetch users", err)
		}
		for _, u := range list {
			users[u.ID] = u
		}
	}

	start, end := utils.WeekBounds(e.now())
	days := map[uint]map[int]models.Attendance{}
	if len(ids) > 0 {
		var marks []models.Attendance
		err := e.db.WithContext(ctx).
			Where("employee_id IN ? AND att_date BETWEEN ? AND ?", ids, start, end).
			Find(&marks).Error
		if err != nil {
			return nil, apperr.Persistence("Failed to fetch attendance", err)
		}
		for _, m := range marks {
			if days[m.EmployeeID] == nil {
				days[m.EmployeeID] = map[int]models.Attendance{}
			}
			day := int(utils.StartOfDay(m.AttDate.In(start.Location())).Sub(start).Hours() / 24)
			days[m.EmployeeID][day] = m
		}
	}

	staff := make([][]any, 0, len(employees))
	week := make([][]any, 0, len(employees))
	for i, emp := range employees {
		username, role := "", ""
		if emp.UserID != nil {
			if u, ok := users[*emp.UserID]; ok {
				username, role = u.Username, u.Role
			}
		}
		staff = append(staff, []any{i + 1, emp.ID, emp.FullName(), emp.Email, username, role})

		row := []any{i + 1, emp.ID, emp.FullName(), emp.DailyRate}
		total := decimal.Zero
		for d := 0; d < 7; d++ {
			m, ok := days[emp.ID][d]
			if !ok {
				row = append(row, "")
				continue
			}
			row = append(row, m.Status)
			if m.Status == models.StatusPresent {
				total = total.Add(m.DailyRate)
			}
		}
		week = append(week, append(row, total))
	}

	return Build(Filename("employees", e.now()),
		Sheet{
			Name:    "Employees",
			Headers: []string{"#", "ID", "Name", "Email", "Username", "Role"},
			Rows:    staff,
		},
		Sheet{
			Name:    "Attendance",
			Headers: []string{"#", "ID", "Name", "Daily Rate", "Mon", "Tue", "Wed", "Thu", "Fri", "Sat", "Sun", "Total Salary"},
			Rows:    week,
		},
	)
}

// Cart exports an unsaved cart with product names resolved from the branch.
func (e *Exporter) Cart(ctx context.Context, branchID uint, cart sales.Checkout) (*Workbook, error) {
	if len(cart.Lines) == 0 {
		return nil, apperr.Validation("No items in cart.")
	}
	ids := make([]uint, 0, len(cart.Lines))
	for _, l := range cart.Lines {
		ids = append(ids, l.BranchProductID)
	}

	var stocked []models.BranchProduct
	err := e.db.WithContext(ctx).Preload("Product").
		Where("branch_id = ? AND id IN ?", branchID, ids).
		Find(&stocked).Error
	if err != nil {
		return nil, apperr.Persistence("Failed to fetch products", err)
	}
	names := make(map[uint]string, len(stocked))
	for _, bp := range stocked {
		names[bp.ID] = bp.Product.Name
	}

	rows := make([][]any, 0, len(cart.Lines)+2)
	for _, l := range cart.Lines {
		name, ok := names[l.BranchProductID]
		if !ok {
			return nil, apperr.NotFound("Product %d is not stocked in this branch.", l.BranchProductID)
		}
		subtotal := l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
		rows = append(rows, []any{name, l.Quantity, l.UnitPrice, subtotal})
	}
	if cart.ShippingFee.IsPositive() {
		rows = append(rows, []any{"", "", "Shipping Fee", cart.ShippingFee})
	}
	rows = append(rows, []any{"", "", "Total", cart.Total()})

	return Build(Filename(fmt.Sprintf("cart_branch%d", branchID), e.now()), Sheet{
		Name:    "Cart",
		Headers: []string{"Product", "Quantity", "Unit Price", "Subtotal"},
		Rows:    rows,
	})
}
