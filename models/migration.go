package models

import (
	"log"

	"github.com/kiranasoft/kirana_backend/config"
)

func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Product{},
		&Sale{}, &SaleItem{},
		&StockMovement{},
		&HeldBill{},
		&IdempotencyKey{},
		&ShopSettings{},
		&User{},
		&ReconciliationReport{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
