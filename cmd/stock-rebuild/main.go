// stock-rebuild recomputes products.current_stock from the stock movement
// ledger. Run it when the reconciliation sweep reports STOCK_PROJECTION
// drift. The ledger is the source of truth; this tool only rewrites the
// cached projection, it never touches ledger rows.
//
// Usage:
//   DB_USER=... DB_PASSWORD=... DB_HOST=... DB_PORT=... DB_NAME=... go run ./cmd/stock-rebuild
//   go run ./cmd/stock-rebuild --product-id 42
//   go run ./cmd/stock-rebuild --dry-run
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/kiranasoft/kirana_backend/config"
	"github.com/shopspring/decimal"
)

func main() {
	productID := flag.Int("product-id", 0, "Optional: rebuild a single product")
	dryRun := flag.Bool("dry-run", false, "Report what would change without writing")
	flag.Parse()

	config.ConnectDatabaseWithRetry()
	db := config.GetDB()
	if db == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil). Set DB_* env vars.")
		os.Exit(1)
	}

	type row struct {
		ProductId   int
		CachedStock decimal.Decimal
		LedgerStock decimal.Decimal
	}
	query := `
		SELECT
			p.id AS product_id,
			p.current_stock AS cached_stock,
			COALESCE(SUM(sm.new_stock - sm.previous_stock), 0) AS ledger_stock
		FROM products p
		LEFT JOIN stock_movements sm ON sm.product_id = p.id
		WHERE (? = 0 OR p.id = ?)
		GROUP BY p.id
		HAVING ROUND(p.current_stock, 4) <> ROUND(COALESCE(SUM(sm.new_stock - sm.previous_stock), 0), 4)`

	var drifted []row
	if err := db.Raw(query, *productID, *productID).Scan(&drifted).Error; err != nil {
		fmt.Fprintf(os.Stderr, "failed to scan for drift: %v\n", err)
		os.Exit(1)
	}

	if len(drifted) == 0 {
		fmt.Println("no drift found; projection matches the ledger")
		return
	}

	for _, d := range drifted {
		fmt.Printf("product %d: cached=%s ledger=%s\n", d.ProductId, d.CachedStock, d.LedgerStock)
		if *dryRun {
			continue
		}
		// CAS on the cached value so a checkout racing this tool loses
		// nothing; a missed row here just stays for the next run.
		res := db.Exec(
			"UPDATE products SET current_stock = ? WHERE id = ? AND current_stock = ?",
			d.LedgerStock, d.ProductId, d.CachedStock,
		)
		if res.Error != nil {
			fmt.Fprintf(os.Stderr, "product %d: update failed: %v\n", d.ProductId, res.Error)
			os.Exit(1)
		}
		if res.RowsAffected == 0 {
			fmt.Printf("product %d: changed concurrently, skipped\n", d.ProductId)
		}
	}

	if *dryRun {
		fmt.Printf("dry run: %d product(s) would be rewritten\n", len(drifted))
	} else {
		fmt.Printf("rebuilt %d product(s)\n", len(drifted))
	}
}
