package reports

import (
	"context"
	"time"

	"github.com/kiranasoft/kirana_backend/config"
	"github.com/kiranasoft/kirana_backend/utils"
	"github.com/shopspring/decimal"
)

type StockSummaryResponse struct {
	ProductId     int             `json:"productId"`
	ProductName   string          `json:"productName"`
	Category      string          `json:"category"`
	Unit          string          `json:"unit"`
	OpeningStock  decimal.Decimal `json:"openingStock"`
	StockIn       decimal.Decimal `json:"stockIn"`
	StockOut      decimal.Decimal `json:"stockOut"`
	Adjustment    decimal.Decimal `json:"adjustment"`
	ClosingStock  decimal.Decimal `json:"closingStock"`
	StockValue    decimal.Decimal `json:"stockValue"` // closing stock at purchase price
	MinStockLevel decimal.Decimal `json:"minStockLevel"`
}

// GetStockSummaryReport replays the ledger per product over the period:
// opening stock is the last new_stock before fromDate, the in/out/adjustment
// columns are the period's signed deltas by type, and closing is opening plus
// the deltas. Closing comes from the ledger, not from products.current_stock,
// so drift in the cached projection shows up as a difference against the
// reconciliation sweep rather than being silently reported.
func GetStockSummaryReport(ctx context.Context, fromDate time.Time, toDate time.Time, category *string) ([]*StockSummaryResponse, error) {
	sqlT := `
WITH Opening AS (
    SELECT
        sm.product_id,
        sm.new_stock AS opening_stock
    FROM
        stock_movements sm
            JOIN
        (SELECT product_id, MAX(id) AS last_id
            FROM stock_movements
            WHERE created_at < @fromDate
            GROUP BY product_id) last ON last.last_id = sm.id
),
Period AS (
    SELECT
        sm.product_id,
        SUM(CASE WHEN sm.movement_type = 'stock_in' THEN sm.new_stock - sm.previous_stock ELSE 0 END) AS stock_in,
        SUM(CASE WHEN sm.movement_type = 'stock_out' THEN sm.previous_stock - sm.new_stock ELSE 0 END) AS stock_out,
        SUM(CASE WHEN sm.movement_type = 'adjustment' THEN sm.new_stock - sm.previous_stock ELSE 0 END) AS adjustment
    FROM
        stock_movements sm
    WHERE
        sm.created_at BETWEEN @fromDate AND @toDate
    GROUP BY sm.product_id
)
SELECT
    p.id AS product_id,
    p.name AS product_name,
    p.category,
    p.unit,
    COALESCE(Opening.opening_stock, 0) AS opening_stock,
    COALESCE(Period.stock_in, 0) AS stock_in,
    COALESCE(Period.stock_out, 0) AS stock_out,
    COALESCE(Period.adjustment, 0) AS adjustment,
    COALESCE(Opening.opening_stock, 0) + COALESCE(Period.stock_in, 0) - COALESCE(Period.stock_out, 0) + COALESCE(Period.adjustment, 0) AS closing_stock,
    (COALESCE(Opening.opening_stock, 0) + COALESCE(Period.stock_in, 0) - COALESCE(Period.stock_out, 0) + COALESCE(Period.adjustment, 0)) * p.purchase_price AS stock_value,
    p.min_stock_level
FROM
    products p
        LEFT JOIN
    Opening ON Opening.product_id = p.id
        LEFT JOIN
    Period ON Period.product_id = p.id
WHERE
    p.status = 'active'
        {{- if .category }} AND p.category = @category {{- end }}
ORDER BY p.name;
`
	db := config.GetDB()

	sql, err := utils.ExecTemplate(sqlT, map[string]interface{}{
		"category": utils.DereferencePtr(category, ""),
	})
	if err != nil {
		return nil, err
	}

	var results []*StockSummaryResponse
	if err := db.WithContext(ctx).Raw(sql, map[string]interface{}{
		"fromDate": fromDate,
		"toDate":   toDate,
		"category": category,
	}).Scan(&results).Error; err != nil {
		return nil, err
	}

	return results, nil
}
