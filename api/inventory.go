package api

import (
	"github.com/gin-gonic/gin"
	"github.com/partsflow/spareparts_backend/models"
)

func listInventory(c *gin.Context) {
	rows, err := models.ListInventory(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, rows)
}

func getInventoryItem(c *gin.Context) {
	productId, ok := pathId(c, "product_id")
	if !ok {
		return
	}
	item, err := models.GetInventoryItem(c.Request.Context(), productId)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, item)
}

func checkAvailability(c *gin.Context) {
	productId, ok := pathId(c, "product_id")
	if !ok {
		return
	}
	quantity := queryInt(c, "quantity")
	if quantity <= 0 {
		respondValidation(c, []string{"quantity must be a positive integer"})
		return
	}
	available, err := models.CheckAvailable(c.Request.Context(), productId, quantity)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"product_id": productId, "quantity": quantity, "available": available})
}
