package reports

import (
	"context"
	"time"

	"github.com/kiranasoft/kirana_backend/config"
	"github.com/kiranasoft/kirana_backend/utils"
	"github.com/shopspring/decimal"
)

type ProductSalesResponse struct {
	ProductId    int             `json:"productId"`
	ProductName  string          `json:"productName"`
	Category     *string         `json:"category,omitempty"`
	SoldQty      decimal.Decimal `json:"soldQty"`
	TotalAmount  decimal.Decimal `json:"totalAmount"`
	TotalTax     decimal.Decimal `json:"totalTax"`
	SaleCount    int             `json:"saleCount"`
	AveragePrice decimal.Decimal `json:"averagePrice"`
}

// GetProductSalesReport ranks products by revenue over the period. Item rows
// carry the frozen sale-time name; the join to products only adds the current
// category for grouping in the UI.
func GetProductSalesReport(ctx context.Context, fromDate time.Time, toDate time.Time, category *string, limit int) ([]*ProductSalesResponse, error) {
	sqlT := `
SELECT
    si.product_id,
    si.product_name,
    p.category,
    SUM(si.quantity) AS sold_qty,
    SUM(si.subtotal) AS total_amount,
    SUM(si.gst_amount) AS total_tax,
    COUNT(DISTINCT si.sale_id) AS sale_count,
    AVG(si.unit_price) AS average_price
FROM
    sale_items si
        JOIN
    sales s ON s.id = si.sale_id
        LEFT JOIN
    products p ON p.id = si.product_id
WHERE
    s.sale_date BETWEEN @fromDate AND @toDate
        AND s.status = 'completed'
        {{- if .category }} AND p.category = @category {{- end }}
GROUP BY si.product_id , si.product_name , p.category
ORDER BY total_amount DESC
LIMIT @limit;
`
	db := config.GetDB()

	if limit <= 0 || limit > 500 {
		limit = 50
	}

	sql, err := utils.ExecTemplate(sqlT, map[string]interface{}{
		"category": utils.DereferencePtr(category, ""),
	})
	if err != nil {
		return nil, err
	}

	var results []*ProductSalesResponse
	if err := db.WithContext(ctx).Raw(sql, map[string]interface{}{
		"fromDate": fromDate,
		"toDate":   toDate,
		"category": category,
		"limit":    limit,
	}).Scan(&results).Error; err != nil {
		return nil, err
	}

	return results, nil
}
