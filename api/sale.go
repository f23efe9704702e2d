package api

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/partsflow/spareparts_backend/models"
	"github.com/partsflow/spareparts_backend/workflow"
)

func queryInt(c *gin.Context, name string) int {
	value, err := strconv.Atoi(c.Query(name))
	if err != nil {
		return 0
	}
	return value
}

func createSaleInvoice(c *gin.Context) {
	var input models.NewSaleInvoice
	if err := c.ShouldBindJSON(&input); err != nil {
		respondValidation(c, []string{err.Error()})
		return
	}
	invoice, err := workflow.CreateSaleInvoice(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, invoice)
}

func updateSaleInvoice(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	var input models.NewSaleInvoice
	if err := c.ShouldBindJSON(&input); err != nil {
		respondValidation(c, []string{err.Error()})
		return
	}
	invoice, err := workflow.UpdateSaleInvoice(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, invoice)
}

func deleteSaleInvoice(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	if err := workflow.DeleteSaleInvoice(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"deleted": id})
}

func getSaleInvoice(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	invoice, err := models.GetSaleInvoice(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, invoice)
}

func listSaleInvoices(c *gin.Context) {
	saleType := models.SaleType(c.Query("sale_type"))
	invoices, err := models.ListSaleInvoices(c.Request.Context(), saleType, queryInt(c, "customer_id"), queryInt(c, "branch_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, invoices)
}
