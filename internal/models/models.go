package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Roles stored on User.Role.
const (
	RoleOwner   = "Owner"
	RoleAdmin   = "Admin"
	RoleCashier = "Cashier"
)

// Payment types on Sale.PaymentType.
const (
	PaymentCash   = "Cash"
	PaymentCredit = "Credit"
	PaymentOther  = "Other"
)

// Attendance statuses.
const (
	StatusPresent = "Present"
	StatusAbsent  = "Absent"
)

// Stock movement types.
const (
	MovementSale     = "Sale"
	MovementPurchase = "Purchase"
)

// User - The person logging in (Owner, Admin or Cashier)
type User struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	Username     string    `gorm:"uniqueIndex;size:50" json:"username"`
	PasswordHash string    `json:"-"` // Never return this in JSON
	Role         string    `gorm:"size:20" json:"role"`
	Branches     []Branch  `gorm:"many2many:user_branches" json:"branches,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Branch - A physical store; scopes stock, staff, customers and sales
type Branch struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	Name      string    `gorm:"size:255" json:"name"`
	Location  string    `gorm:"size:255" json:"location"`
	Users     []User    `gorm:"many2many:user_branches" json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// UserBranch - Membership pivot between users and branches
type UserBranch struct {
	UserID   uint `gorm:"primaryKey"`
	BranchID uint `gorm:"primaryKey"`
}

// Product - Global catalog entry. It has no stock of its own.
type Product struct {
	ID           uint              `gorm:"primaryKey" json:"id"`
	SKU          string            `gorm:"uniqueIndex;size:20" json:"sku"`
	Name         string            `gorm:"size:255" json:"name"`
	Description  string            `json:"description"`
	Category     string            `gorm:"size:255" json:"category"`
	UnitCost     decimal.Decimal   `gorm:"type:decimal(12,2)" json:"unit_cost"`
	SellingPrice decimal.Decimal   `gorm:"type:decimal(12,2)" json:"selling_price"`
	ImageURL     string            `json:"image_url"`
	IsActive     bool              `json:"is_active"`
	Suppliers    []ProductSupplier `gorm:"foreignKey:ProductID" json:"suppliers,omitempty"`
	CreatedAt    time.Time         `json:"created_at"`
}

// BranchProduct - A product as stocked at one branch. StockQty never goes below 0.
type BranchProduct struct {
	ID           uint      `gorm:"primaryKey" json:"id"`
	BranchID     uint      `gorm:"uniqueIndex:idx_branch_product;not null" json:"branch_id"`
	ProductID    uint      `gorm:"uniqueIndex:idx_branch_product;not null" json:"product_id"`
	Product      Product   `json:"product"`
	StockQty     int       `gorm:"not null;default:0" json:"stock_qty"`
	ReorderLevel int       `json:"reorder_level"`
	IsActive     bool      `json:"is_active"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Supplier - Branch-scoped vendor
type Supplier struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	BranchID  uint      `gorm:"index" json:"branch_id"`
	Name      string    `gorm:"size:255" json:"name"`
	Contact   string    `gorm:"size:50" json:"contact"`
	Email     string    `gorm:"size:255" json:"email"`
	Address   string    `gorm:"size:255" json:"address"`
	CreatedAt time.Time `json:"created_at"`
}

// ProductSupplier - Which supplier provides a product
type ProductSupplier struct {
	ID         uint     `gorm:"primaryKey" json:"id"`
	ProductID  uint     `gorm:"index" json:"product_id"`
	SupplierID uint     `gorm:"index" json:"supplier_id"`
	Supplier   Supplier `json:"supplier"`
	Preferred  bool     `json:"preferred"`
}

// Purchase - Stock received from a supplier
type Purchase struct {
	ID           uint            `gorm:"primaryKey" json:"id"`
	BranchID     uint            `gorm:"index" json:"branch_id"`
	SupplierID   uint            `gorm:"index" json:"supplier_id"`
	TotalAmount  decimal.Decimal `gorm:"type:decimal(12,2)" json:"total_amount"`
	PurchaseDate time.Time       `json:"purchase_date"`
	CreatedBy    uint            `json:"created_by"`
	Items        []PurchaseItem  `gorm:"foreignKey:PurchaseID" json:"items"`
}

type PurchaseItem struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	PurchaseID      uint            `gorm:"index" json:"purchase_id"`
	BranchProductID uint            `gorm:"index" json:"branch_product_id"`
	Quantity        int             `json:"quantity"`
	UnitCost        decimal.Decimal `gorm:"type:decimal(12,2)" json:"unit_cost"`
	Subtotal        decimal.Decimal `gorm:"type:decimal(12,2)" json:"subtotal"`
}

// Customer - Branch-scoped buyer; may owe credit sales
type Customer struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	BranchID  uint      `gorm:"index" json:"branch_id"`
	Name      string    `gorm:"size:255" json:"name"`
	Contact   string    `gorm:"size:50" json:"contact"`
	Address   string    `gorm:"size:255" json:"address"`
	Notes     string    `gorm:"size:255" json:"notes"`
	Sales     []Sale    `json:"-"`
	CreatedAt time.Time `json:"created_at"`
}

// Sale - The Transaction Header. CustomerID nil means walk-in.
type Sale struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	BranchID    uint            `gorm:"index" json:"branch_id"`
	CustomerID  *uint           `gorm:"index" json:"customer_id"`
	Customer    *Customer       `json:"customer,omitempty"`
	TotalAmount decimal.Decimal `gorm:"type:decimal(12,2)" json:"total_amount"`
	ShippingFee decimal.Decimal `gorm:"type:decimal(12,2)" json:"shipping_fee"`
	PaymentType string          `gorm:"size:10;index" json:"payment_type"`
	SaleDate    time.Time       `json:"sale_date"`
	DueDate     *time.Time      `json:"due_date"` // set only for Credit
	CreatedBy   uint            `gorm:"index" json:"created_by"`
	Creator     *User           `gorm:"foreignKey:CreatedBy" json:"creator,omitempty"`
	Items       []SaleItem      `gorm:"foreignKey:SaleID" json:"items"`
}

// SaleItem - One cart line of a sale
type SaleItem struct {
	ID              uint            `gorm:"primaryKey" json:"id"`
	SaleID          uint            `gorm:"index" json:"sale_id"`
	BranchProductID uint            `gorm:"index" json:"branch_product_id"`
	BranchProduct   *BranchProduct  `json:"branch_product,omitempty"`
	Quantity        int             `json:"quantity"`
	UnitPrice       decimal.Decimal `gorm:"type:decimal(12,2)" json:"unit_price"` // Snapshot of price at time of sale
	Subtotal        decimal.Decimal `gorm:"type:decimal(12,2)" json:"subtotal"`
}

// StockMovement - Append-only stock ledger. Rows are never updated.
type StockMovement struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	BranchProductID uint      `gorm:"index" json:"branch_product_id"`
	ChangeQty       int       `json:"change_qty"`
	MovementType    string    `gorm:"size:20" json:"movement_type"`
	ReferenceID     uint      `gorm:"index" json:"reference_id"`
	MovementDate    time.Time `json:"movement_date"`
	CreatedBy       uint      `json:"created_by"`
}

// Payment - Money received; linked to sales through PaymentSale
type Payment struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	PaymentDate   time.Time `json:"payment_date"`
	PaymentMethod string    `gorm:"size:20" json:"payment_method"`
	PaymentStatus string    `gorm:"size:20" json:"payment_status"`
	Notes         string    `json:"notes"`
	CreatedBy     uint      `json:"created_by"`
}

type PaymentSale struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	PaymentID uint            `gorm:"index" json:"payment_id"`
	SaleID    uint            `gorm:"index" json:"sale_id"`
	Amount    decimal.Decimal `gorm:"type:decimal(12,2)" json:"amount"`
}

// Forecast - Per branch product, per week. Upserted, not appended.
type Forecast struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	BranchProductID uint      `gorm:"uniqueIndex:idx_forecast_period" json:"branch_product_id"`
	PeriodStart     time.Time `gorm:"uniqueIndex:idx_forecast_period" json:"period_start"`
	PeriodEnd       time.Time `gorm:"uniqueIndex:idx_forecast_period" json:"period_end"`
	ForecastQty     int       `json:"forecast_qty"`
	Method          string    `gorm:"size:20" json:"method"`
	Notes           string    `json:"notes"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// AuditLog - Append-only record of state-changing actions
type AuditLog struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index" json:"user_id"`
	Action    string    `gorm:"size:50" json:"action"`
	Details   string    `json:"details"`
	CreatedAt time.Time `json:"created_at"`
}

// Employee - Branch staff. UserID links a login account when there is one.
type Employee struct {
	ID        uint            `gorm:"primaryKey" json:"id"`
	BranchID  uint            `gorm:"index" json:"branch_id"`
	UserID    *uint           `gorm:"index" json:"user_id"`
	FirstName string          `gorm:"size:100" json:"first_name"`
	LastName  string          `gorm:"size:100" json:"last_name"`
	Email     string          `gorm:"size:255" json:"email"`
	Position  string          `gorm:"size:50" json:"position"`
	DailyRate decimal.Decimal `gorm:"type:decimal(12,2)" json:"daily_rate"`
}

func (e Employee) FullName() string {
	return e.FirstName + " " + e.LastName
}

// Attendance - One row per employee per day. PayrollID is set once the day is paid.
type Attendance struct {
	ID         uint            `gorm:"primaryKey" json:"id"`
	EmployeeID uint            `gorm:"uniqueIndex:idx_employee_day" json:"employee_id"`
	AttDate    time.Time       `gorm:"uniqueIndex:idx_employee_day" json:"att_date"`
	Status     string          `gorm:"size:10" json:"status"`
	DailyRate  decimal.Decimal `gorm:"type:decimal(12,2)" json:"daily_rate"` // Snapshot of the employee rate on that day
	PayrollID  *uint           `gorm:"index" json:"payroll_id"`
}

// Payroll - Weekly salary payment for one employee
type Payroll struct {
	ID          uint            `gorm:"primaryKey" json:"id"`
	EmployeeID  uint            `gorm:"index" json:"employee_id"`
	Employee    *Employee       `json:"employee,omitempty"`
	PeriodStart time.Time       `json:"period_start"`
	PeriodEnd   time.Time       `json:"period_end"`
	GrossPay    decimal.Decimal `gorm:"type:decimal(12,2)" json:"gross_pay"`
	Deductions  decimal.Decimal `gorm:"type:decimal(12,2)" json:"deductions"`
	NetPay      decimal.Decimal `gorm:"type:decimal(12,2)" json:"net_pay"`
	CreatedBy   uint            `json:"created_by"`
	CreatedAt   time.Time       `json:"created_at"`
}

// File - A document uploaded to cloud storage by a user
type File struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    uint      `gorm:"index" json:"user_id"`
	Filename  string    `json:"filename"`
	ObjectKey string    `json:"-"`
	FileURL   string    `json:"file_url"`
	FileType  string    `json:"file_type"`
	FileSize  int64     `json:"file_size"`
	CreatedAt time.Time `json:"created_at"`
}

// All lists every table, in migration order.
func All() []any {
	return []any{
		&User{},
		&Branch{},
		&UserBranch{},
		&Product{},
		&BranchProduct{},
		&Supplier{},
		&ProductSupplier{},
		&Purchase{},
		&PurchaseItem{},
		&Customer{},
		&Sale{},
		&SaleItem{},
		&StockMovement{},
		&Payment{},
		&PaymentSale{},
		&Forecast{},
		&AuditLog{},
		&Employee{},
		&Attendance{},
		&Payroll{},
		&File{},
	}
}
