package api

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/partsflow/spareparts_backend/models"
)

func pathId(c *gin.Context, name string) (int, bool) {
	id, err := strconv.Atoi(c.Param(name))
	if err != nil || id <= 0 {
		respondValidation(c, []string{name + " must be a positive integer"})
		return 0, false
	}
	return id, true
}

func createProduct(c *gin.Context) {
	var input models.NewProduct
	if err := c.ShouldBindJSON(&input); err != nil {
		respondValidation(c, []string{err.Error()})
		return
	}
	product, err := models.CreateProduct(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, product)
}

func updateProduct(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	var input models.NewProduct
	if err := c.ShouldBindJSON(&input); err != nil {
		respondValidation(c, []string{err.Error()})
		return
	}
	product, err := models.UpdateProduct(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, product)
}

func deleteProduct(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	product, err := models.DeleteProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, product)
}

func getProduct(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	product, err := models.GetProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, product)
}

func listProducts(c *gin.Context) {
	activeOnly := c.Query("active") != "false"
	products, err := models.ListProducts(c.Request.Context(), c.Query("search"), activeOnly)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, products)
}

type newCategoryRequest struct {
	Name string `json:"name" binding:"required"`
}

func createCategory(c *gin.Context) {
	var req newCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, []string{"name is required"})
		return
	}
	category, err := models.CreateProductCategory(c.Request.Context(), req.Name)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, category)
}

func listCategories(c *gin.Context) {
	categories, err := models.ListProductCategories(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, categories)
}

func createSupplier(c *gin.Context) {
	var input models.NewSupplier
	if err := c.ShouldBindJSON(&input); err != nil {
		respondValidation(c, []string{err.Error()})
		return
	}
	supplier, err := models.CreateSupplier(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, supplier)
}

func getSupplier(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	supplier, err := models.GetSupplier(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, supplier)
}

func listSuppliers(c *gin.Context) {
	suppliers, err := models.ListSuppliers(c.Request.Context(), c.Query("search"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, suppliers)
}

func createCustomer(c *gin.Context) {
	var input models.NewCustomer
	if err := c.ShouldBindJSON(&input); err != nil {
		respondValidation(c, []string{err.Error()})
		return
	}
	customer, err := models.CreateCustomer(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, customer)
}

func getCustomer(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	customer, err := models.GetCustomer(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, customer)
}

func listCustomers(c *gin.Context) {
	customers, err := models.ListCustomers(c.Request.Context(), c.Query("search"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, customers)
}
