package handlers

import (
	"go-hardware-pos/internal/auth"
	"go-hardware-pos/internal/middleware"

	"github.com/gin-gonic/gin"
)

// Mount registers every route on r.
func (h *Handler) Mount(r *gin.Engine, allowRegistration bool) {
	r.GET("/health", func(c *gin.Context) { c.JSON(200, gin.H{"status": "online"}) })
	r.POST("/login", h.Login)

	// --- FEATURE FLAG: Registration ---
	if allowRegistration {
		r.POST("/register", h.Register)
	}

	// --- PROTECTED ROUTES ---
	api := r.Group("/api")
	api.Use(middleware.AuthMiddleware(h.Tokens))
	api.Use(middleware.BranchScope(h.Catalog))
	{
		// EVERY ROLE
		api.GET("/branches", h.GetBranches)
		api.GET("/products", h.GetProducts)
		api.POST("/checkout", h.ProcessSale)

		api.GET("/sales", h.GetSales)
		api.GET("/sales/:id", h.GetSale)
		api.POST("/sales/:id/pay", h.PayCredit)
		api.DELETE("/sales/:id", h.DeleteCredit)

		api.GET("/customers", h.GetCustomers)
		api.POST("/customers", h.AddCustomer)
		api.GET("/customers/credits", h.GetCreditSummaries)
		api.GET("/customers/paid-credits", h.GetPaidCredits)
		api.GET("/customers/:id", h.GetCustomer)
		api.PUT("/customers/:id", h.UpdateCustomer)
		api.GET("/customers/:id/credits", h.GetCustomerCredits)
		api.POST("/customers/:id/credits/pay", h.PayAllCredits)
		api.DELETE("/customers/:id/credits", h.DeleteAllCredits)

		api.GET("/employees", h.GetEmployees)

		api.GET("/files", h.GetFiles)
		api.POST("/files", h.UploadFile)
		api.DELETE("/files/:id", h.DeleteFile)

		api.GET("/exports/:kind", h.Export)
		api.POST("/exports/cart", h.ExportCart)

		api.GET("/forecast", h.ShowForecast)

		// OWNER & ADMIN
		admin := api.Group("/")
		admin.Use(middleware.RequireRole(auth.Owner, auth.Admin))
		{
			admin.POST("/ask", h.AskAI)
			admin.POST("/forecast", h.GenerateForecast)

			admin.POST("/upload", h.UploadImage)
			admin.POST("/products", h.AddProduct)
			admin.PUT("/products/:id", h.UpdateProduct)
			admin.DELETE("/products/:id", h.DeleteProduct)

			admin.GET("/suppliers", h.GetSuppliers)
			admin.POST("/suppliers", h.AddSupplier)
			admin.PUT("/suppliers/:id", h.UpdateSupplier)
			admin.DELETE("/suppliers/:id", h.DeleteSupplier)
			admin.POST("/purchases", h.RecordPurchase)

			admin.DELETE("/customers/:id", h.DeleteCustomer)

			admin.POST("/employees", h.AddEmployee)
			admin.GET("/attendance/today", h.GetTodayAttendance)
			admin.POST("/attendance", h.MarkAttendance)
			admin.POST("/employees/:id/pay", h.PaySalary)

			admin.PUT("/branches/:id", h.UpdateBranch)

			admin.GET("/reports", h.GetSalesReport)
			admin.GET("/reports/valuation", h.GetStockValuation)
		}

		// OWNER ONLY
		owner := api.Group("/")
		owner.Use(middleware.RequireRole(auth.Owner))
		{
			owner.POST("/branches", h.AddBranch)
			owner.DELETE("/branches/:id", h.DeleteBranch)
		}
	}
}
