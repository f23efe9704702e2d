package api

import (
	"github.com/gin-gonic/gin"
	"github.com/partsflow/spareparts_backend/models"
	"github.com/partsflow/spareparts_backend/workflow"
)

func createPurchaseInvoice(c *gin.Context) {
	var input models.NewPurchaseInvoice
	if err := c.ShouldBindJSON(&input); err != nil {
		respondValidation(c, []string{err.Error()})
		return
	}
	invoice, err := workflow.CreatePurchaseInvoice(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, invoice)
}

func updatePurchaseInvoice(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	var input models.NewPurchaseInvoice
	if err := c.ShouldBindJSON(&input); err != nil {
		respondValidation(c, []string{err.Error()})
		return
	}
	invoice, err := workflow.UpdatePurchaseInvoice(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, invoice)
}

func deletePurchaseInvoice(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	if err := workflow.DeletePurchaseInvoice(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"deleted": id})
}

func getPurchaseInvoice(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	invoice, err := models.GetPurchaseInvoice(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, invoice)
}

func listPurchaseInvoices(c *gin.Context) {
	supplierId := queryInt(c, "supplier_id")
	status := models.PurchaseInvoiceStatus(c.Query("status"))
	invoices, err := models.ListPurchaseInvoices(c.Request.Context(), supplierId, status)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, invoices)
}

type payPurchaseInvoiceRequest struct {
	PaymentMethod models.PaymentMethod `json:"payment_method" binding:"required"`
}

func payPurchaseInvoice(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	var req payPurchaseInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondValidation(c, []string{"payment_method is required"})
		return
	}
	invoice, err := workflow.MarkPurchaseInvoicePaid(c.Request.Context(), id, req.PaymentMethod)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, invoice)
}
