package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes wires the REST surface onto the gin engine. Everything
// except login and the health endpoint requires a valid token; catalog and
// pricing mutations additionally require the Admin role.
func RegisterRoutes(r *gin.Engine) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	v1 := r.Group("/api/v1")
	v1.Use(CorrelationIdMiddleware())
	v1.POST("/auth/login", login)

	authed := v1.Group("")
	authed.Use(AuthMiddleware())

	products := authed.Group("/products")
	{
		products.GET("", listProducts)
		products.GET("/:id", getProduct)
		products.POST("", AdminOnly(), createProduct)
		products.PUT("/:id", AdminOnly(), updateProduct)
		products.DELETE("/:id", AdminOnly(), deleteProduct)
	}

	categories := authed.Group("/categories")
	{
		categories.GET("", listCategories)
		categories.POST("", AdminOnly(), createCategory)
	}

	suppliers := authed.Group("/suppliers")
	{
		suppliers.GET("", listSuppliers)
		suppliers.GET("/:id", getSupplier)
		suppliers.POST("", AdminOnly(), createSupplier)
	}

	customers := authed.Group("/customers")
	{
		customers.GET("", listCustomers)
		customers.GET("/:id", getCustomer)
		customers.POST("", createCustomer)
	}

	branches := authed.Group("/branches")
	{
		branches.GET("", listBranches)
		branches.GET("/:id", getBranch)
		branches.POST("", AdminOnly(), createBranch)
		branches.GET("/:id/prices", listBranchPrices)
		branches.PUT("/:id/prices", AdminOnly(), setBranchPrice)
		branches.GET("/:id/stock", listBranchStock)
	}

	transfers := authed.Group("/transfers")
	{
		transfers.GET("", listBranchTransfers)
		transfers.GET("/:id", getBranchTransfer)
		transfers.POST("", createBranchTransfer)
		transfers.DELETE("/:id", deleteBranchTransfer)
	}

	purchases := authed.Group("/purchase-invoices")
	{
		purchases.GET("", listPurchaseInvoices)
		purchases.GET("/:id", getPurchaseInvoice)
		purchases.POST("", createPurchaseInvoice)
		purchases.PUT("/:id", updatePurchaseInvoice)
		purchases.DELETE("/:id", deletePurchaseInvoice)
		purchases.POST("/:id/pay", payPurchaseInvoice)
	}

	sales := authed.Group("/sale-invoices")
	{
		sales.GET("", listSaleInvoices)
		sales.GET("/:id", getSaleInvoice)
		sales.POST("", createSaleInvoice)
		sales.PUT("/:id", updateSaleInvoice)
		sales.DELETE("/:id", deleteSaleInvoice)
	}

	inventory := authed.Group("/inventory")
	{
		inventory.GET("", listInventory)
		inventory.GET("/:product_id", getInventoryItem)
		inventory.GET("/:product_id/availability", checkAvailability)
	}
}
