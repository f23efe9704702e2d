package api

import (
	"github.com/gin-gonic/gin"
	"github.com/partsflow/spareparts_backend/models"
	"github.com/partsflow/spareparts_backend/workflow"
)

func createBranch(c *gin.Context) {
	var input models.NewBranch
	if err := c.ShouldBindJSON(&input); err != nil {
		respondValidation(c, []string{err.Error()})
		return
	}
	branch, err := models.CreateBranch(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, branch)
}

func getBranch(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	branch, err := models.GetBranch(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, branch)
}

func listBranches(c *gin.Context) {
	branches, err := models.ListBranches(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, branches)
}

func setBranchPrice(c *gin.Context) {
	branchId, ok := pathId(c, "id")
	if !ok {
		return
	}
	var input models.NewBranchProductPrice
	if err := c.ShouldBindJSON(&input); err != nil {
		respondValidation(c, []string{err.Error()})
		return
	}
	input.BranchId = branchId
	price, err := workflow.SetBranchProductPrice(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, price)
}

func listBranchPrices(c *gin.Context) {
	branchId, ok := pathId(c, "id")
	if !ok {
		return
	}
	prices, err := models.ListBranchProductPrices(c.Request.Context(), branchId)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, prices)
}

func listBranchStock(c *gin.Context) {
	branchId, ok := pathId(c, "id")
	if !ok {
		return
	}
	stock, err := models.ListBranchInventory(c.Request.Context(), branchId)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, stock)
}

func createBranchTransfer(c *gin.Context) {
	var input models.NewBranchTransfer
	if err := c.ShouldBindJSON(&input); err != nil {
		respondValidation(c, []string{err.Error()})
		return
	}
	transfer, err := workflow.TransferToBranch(c.Request.Context(), &input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondCreated(c, transfer)
}

func getBranchTransfer(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	transfer, err := models.GetBranchTransfer(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, transfer)
}

func listBranchTransfers(c *gin.Context) {
	transfers, err := models.ListBranchTransfers(c.Request.Context(), queryInt(c, "branch_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, transfers)
}

func deleteBranchTransfer(c *gin.Context) {
	id, ok := pathId(c, "id")
	if !ok {
		return
	}
	if err := workflow.DeleteBranchTransfer(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, gin.H{"deleted": id})
}
