package models

import (
	"log"

	"github.com/partsflow/spareparts_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&User{},
		&ProductCategory{}, &Product{},
		&Supplier{}, &Customer{},
		&Branch{},
		&InventoryItem{},
		&BranchProductPrice{}, &BranchPriceSnapshot{}, &BranchInventory{},
		&PurchaseInvoice{}, &PurchaseInvoiceItem{},
		&SaleInvoice{}, &SaleInvoiceItem{},
		&BranchTransfer{}, &BranchTransferItem{},
		&StockMovement{},
		&DocumentSequence{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
