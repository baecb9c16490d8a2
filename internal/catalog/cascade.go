package catalog

import (
	"fmt"

	"go-hardware-pos/internal/models"

	"gorm.io/gorm"
)

// Foreign keys are not declared in the schema, so dependents are removed
// explicitly, children before parents, inside the caller's transaction.

func deleteWhere(tx *gorm.DB, model any, query string, ids []uint) error {
	if len(ids) == 0 {
		return nil
	}
	if err := tx.Where(query, ids).Delete(model).Error; err != nil {
		return fmt.Errorf("delete %T: %w", model, err)
	}
	return nil
}

func pluckIDs(tx *gorm.DB, model any, query string, args ...any) ([]uint, error) {
	var ids []uint
	if err := tx.Model(model).Where(query, args...).Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("load %T ids: %w", model, err)
	}
	return ids, nil
}

// deleteBranchProducts removes stocked products with their forecasts, purchase
// items, stock movements and sale items.
func deleteBranchProducts(tx *gorm.DB, ids []uint) error {
	steps := []struct {
		model any
		query string
	}{
		{&models.Forecast{}, "branch_product_id IN ?"},
		{&models.PurchaseItem{}, "branch_product_id IN ?"},
		{&models.StockMovement{}, "branch_product_id IN ?"},
		{&models.SaleItem{}, "branch_product_id IN ?"},
		{&models.BranchProduct{}, "id IN ?"},
	}
	for _, step := range steps {
		if err := deleteWhere(tx, step.model, step.query, ids); err != nil {
			return err
		}
	}
	return nil
}

// deletePurchases removes purchases with their items and the stock movements
// they produced.
func deletePurchases(tx *gorm.DB, ids []uint) error {
	if err := deleteWhere(tx, &models.PurchaseItem{}, "purchase_id IN ?", ids); err != nil {
		return err
	}
	if len(ids) > 0 {
		err := tx.Where("movement_type = ? AND reference_id IN ?", models.MovementPurchase, ids).
			Delete(&models.StockMovement{}).Error
		if err != nil {
			return fmt.Errorf("delete purchase movements: %w", err)
		}
	}
	return deleteWhere(tx, &models.Purchase{}, "id IN ?", ids)
}

// deleteSales removes sales with their items, payment links and stock movements.
func deleteSales(tx *gorm.DB, ids []uint) error {
	if err := deleteWhere(tx, &models.SaleItem{}, "sale_id IN ?", ids); err != nil {
		return err
	}
	if err := deleteWhere(tx, &models.PaymentSale{}, "sale_id IN ?", ids); err != nil {
		return err
	}
	if len(ids) > 0 {
		err := tx.Where("movement_type = ? AND reference_id IN ?", models.MovementSale, ids).
			Delete(&models.StockMovement{}).Error
		if err != nil {
			return fmt.Errorf("delete sale movements: %w", err)
		}
	}
	return deleteWhere(tx, &models.Sale{}, "id IN ?", ids)
}

// deleteEmployees removes employees with their attendance and payroll.
func deleteEmployees(tx *gorm.DB, ids []uint) error {
	if err := deleteWhere(tx, &models.Attendance{}, "employee_id IN ?", ids); err != nil {
		return err
	}
	if err := deleteWhere(tx, &models.Payroll{}, "employee_id IN ?", ids); err != nil {
		return err
	}
	return deleteWhere(tx, &models.Employee{}, "id IN ?", ids)
}

// deleteSuppliers removes suppliers with their product links and purchases.
func deleteSuppliers(tx *gorm.DB, ids []uint) error {
	if err := deleteWhere(tx, &models.ProductSupplier{}, "supplier_id IN ?", ids); err != nil {
		return err
	}
	if len(ids) > 0 {
		purchases, err := pluckIDs(tx, &models.Purchase{}, "supplier_id IN ?", ids)
		if err != nil {
			return err
		}
		if err := deletePurchases(tx, purchases); err != nil {
			return err
		}
	}
	return deleteWhere(tx, &models.Supplier{}, "id IN ?", ids)
}

// cascadeBranch removes a branch and everything scoped to it.
func cascadeBranch(tx *gorm.DB, branchID uint) error {
	// 1. Stocked products and their dependents
	bps, err := pluckIDs(tx, &models.BranchProduct{}, "branch_id = ?", branchID)
	if err != nil {
		return err
	}
	if err := deleteBranchProducts(tx, bps); err != nil {
		return err
	}

	// 2. Purchases
	purchases, err := pluckIDs(tx, &models.Purchase{}, "branch_id = ?", branchID)
	if err != nil {
		return err
	}
	if err := deletePurchases(tx, purchases); err != nil {
		return err
	}

	// 3. Sales
	sales, err := pluckIDs(tx, &models.Sale{}, "branch_id = ?", branchID)
	if err != nil {
		return err
	}
	if err := deleteSales(tx, sales); err != nil {
		return err
	}

	// 4. Customers
	if err := tx.Where("branch_id = ?", branchID).Delete(&models.Customer{}).Error; err != nil {
		return fmt.Errorf("delete customers: %w", err)
	}

	// 5. Employees
	employees, err := pluckIDs(tx, &models.Employee{}, "branch_id = ?", branchID)
	if err != nil {
		return err
	}
	if err := deleteEmployees(tx, employees); err != nil {
		return err
	}

	// 6. Suppliers
	suppliers, err := pluckIDs(tx, &models.Supplier{}, "branch_id = ?", branchID)
	if err != nil {
		return err
	}
	if err := deleteSuppliers(tx, suppliers); err != nil {
		return err
	}

	// 7. Memberships, then the branch
	if err := tx.Where("branch_id = ?", branchID).Delete(&models.UserBranch{}).Error; err != nil {
		return fmt.Errorf("detach users: %w", err)
	}
	if err := tx.Delete(&models.Branch{}, branchID).Error; err != nil {
		return fmt.Errorf("delete branch: %w", err)
	}
	return nil
}

// cascadeProduct removes a catalog product from every branch.
func cascadeProduct(tx *gorm.DB, productID uint) error {
	bps, err := pluckIDs(tx, &models.BranchProduct{}, "product_id = ?", productID)
	if err != nil {
		return err
	}
	if err := deleteBranchProducts(tx, bps); err != nil {
		return err
	}
	if err := tx.Where("product_id = ?", productID).Delete(&models.ProductSupplier{}).Error; err != nil {
		return fmt.Errorf("delete product suppliers: %w", err)
	}
	if err := tx.Delete(&models.Product{}, productID).Error; err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	return nil
}
