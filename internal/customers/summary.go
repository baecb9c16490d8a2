package customers

import (
	"context"
	"sort"
	"time"

	"go-hardware-pos/internal/apperr"
	"go-hardware-pos/internal/auth"
	"go-hardware-pos/internal/models"

	"github.com/shopspring/decimal"
)

// CreditSummary is what one customer of a branch still owes.
type CreditSummary struct {
	Customer    models.Customer `json:"customer"`
	TotalCredit decimal.Decimal `json:"total_credit"`
	NextDue     *time.Time      `json:"next_due"`
}

// CreditSummaries returns every customer of the branch with their unpaid total
// and earliest due date.
func (s *Service) CreditSummaries(ctx context.Context, branchID uint) ([]CreditSummary, error) {
	var customers []models.Customer
	err := s.db.WithContext(ctx).
		Preload("Sales", "payment_type = ?", models.PaymentCredit).
		Where("branch_id = ?", branchID).
		Order("id").Find(&customers).Error
	if err != nil {
		return nil, apperr.Persistence("Failed to fetch customers", err)
	}

	out := make([]CreditSummary, 0, len(customers))
	for _, c := range customers {
		sum := CreditSummary{Customer: c, TotalCredit: decimal.Zero}
		for _, sale := range c.Sales {
			sum.TotalCredit = sum.TotalCredit.Add(sale.TotalAmount)
			if sale.DueDate != nil && (sum.NextDue == nil || sale.DueDate.Before(*sum.NextDue)) {
				due := *sale.DueDate
				sum.NextDue = &due
			}
		}
		out = append(out, sum)
	}
	return out, nil
}

// PaidSummary is a customer's settled total within the scope.
type PaidSummary struct {
	CustomerID uint            `json:"customer_id"`
	Name       string          `json:"name"`
	TotalPaid  decimal.Decimal `json:"total_paid"`
	LastPaid   time.Time       `json:"last_paid"`
}

// PaidCredits totals cash-settled sales per customer, over the sales the scope
// may see.
func (s *Service) PaidCredits(ctx context.Context, scope auth.Scope, search string) ([]PaidSummary, error) {
	q := scope.Sales(s.db.WithContext(ctx).Model(&models.Sale{})).
		Joins("JOIN customers ON customers.id = sales.customer_id").
		Where("sales.payment_type = ?", models.PaymentCash)
	if search != "" {
		q = q.Where("customers.name LIKE ?", "%"+search+"%")
	}

	var sales []models.Sale
	if err := q.Preload("Customer").Find(&sales).Error; err != nil {
		return nil, apperr.Persistence("Failed to fetch paid credits", err)
	}

	byCustomer := map[uint]*PaidSummary{}
	for _, sale := range sales {
		if sale.Customer == nil {
			continue
		}
		sum, ok := byCustomer[sale.Customer.ID]
		if !ok {
			sum = &PaidSummary{CustomerID: sale.Customer.ID, Name: sale.Customer.Name, TotalPaid: decimal.Zero}
			byCustomer[sale.Customer.ID] = sum
		}
		sum.TotalPaid = sum.TotalPaid.Add(sale.TotalAmount)
		if sale.SaleDate.After(sum.LastPaid) {
			sum.LastPaid = sale.SaleDate
		}
	}

	out := make([]PaidSummary, 0, len(byCustomer))
	for _, sum := range byCustomer {
		out = append(out, *sum)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CustomerID < out[j].CustomerID })
	return out, nil
}
