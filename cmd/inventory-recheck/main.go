// inventory-recheck compares the stock summary rows against the movement
// ledger and reports any drift. With --fix the summary quantity is rewritten
// to the ledger sum.
//
// Usage:
//
//	DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/inventory-recheck [--product-id N] [--fix]
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/partsflow/spareparts_backend/config"
	"github.com/partsflow/spareparts_backend/models"
	"gorm.io/gorm"
)

func main() {
	productID := flag.Int("product-id", 0, "Optional: restrict the check to one product")
	fix := flag.Bool("fix", false, "Rewrite drifting summary quantities to the ledger sum")
	flag.Parse()

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized")
		os.Exit(1)
	}

	drift := 0
	drift += recheckMain(db, *productID, *fix)
	drift += recheckBranches(db, *productID, *fix)

	if drift > 0 {
		fmt.Printf("%d row(s) drifted\n", drift)
		if !*fix {
			os.Exit(2)
		}
		return
	}
	fmt.Println("summary rows match the movement ledger")
}

func recheckMain(db *gorm.DB, productID int, fix bool) int {
	q := db.Model(&models.InventoryItem{})
	if productID > 0 {
		q = q.Where("product_id = ?", productID)
	}
	var items []models.InventoryItem
	if err := q.Find(&items).Error; err != nil {
		fmt.Fprintf(os.Stderr, "failed to load inventory items: %v\n", err)
		os.Exit(1)
	}

	drift := 0
	for _, item := range items {
		sum, err := models.SumMovements(db, item.ProductId)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to sum movements for product %d: %v\n", item.ProductId, err)
			os.Exit(1)
		}
		if sum == item.Quantity {
			continue
		}
		drift++
		fmt.Printf("main warehouse product=%d summary=%d ledger=%d\n", item.ProductId, item.Quantity, sum)
		if fix {
			if err := db.Model(&models.InventoryItem{}).
				Where("id = ?", item.ID).
				Update("quantity", sum).Error; err != nil {
				fmt.Fprintf(os.Stderr, "failed to fix product %d: %v\n", item.ProductId, err)
				os.Exit(1)
			}
		}
	}
	return drift
}

func recheckBranches(db *gorm.DB, productID int, fix bool) int {
	q := db.Model(&models.BranchInventory{})
	if productID > 0 {
		q = q.Where("product_id = ?", productID)
	}
	var rows []models.BranchInventory
	if err := q.Find(&rows).Error; err != nil {
		fmt.Fprintf(os.Stderr, "failed to load branch inventory: %v\n", err)
		os.Exit(1)
	}

	drift := 0
	for _, row := range rows {
		sum, err := models.SumBranchMovements(db, row.BranchId, row.ProductId)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to sum branch movements for branch %d product %d: %v\n", row.BranchId, row.ProductId, err)
			os.Exit(1)
		}
		if sum == row.Quantity {
			continue
		}
		drift++
		fmt.Printf("branch=%d product=%d summary=%d ledger=%d\n", row.BranchId, row.ProductId, row.Quantity, sum)
		if fix {
			if err := db.Model(&models.BranchInventory{}).
				Where("id = ?", row.ID).
				Update("quantity", sum).Error; err != nil {
				fmt.Fprintf(os.Stderr, "failed to fix branch %d product %d: %v\n", row.BranchId, row.ProductId, err)
				os.Exit(1)
			}
		}
	}
	return drift
}
