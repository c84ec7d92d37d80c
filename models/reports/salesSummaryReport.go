package reports

import (
	"context"
	"time"

	"github.com/kiranasoft/kirana_backend/config"
	"github.com/shopspring/decimal"
)

type SalesSummaryResponse struct {
	SaleCount        int             `json:"saleCount"`
	TotalSales       decimal.Decimal `json:"totalSales"`
	TotalDiscount    decimal.Decimal `json:"totalDiscount"`
	TotalCgst        decimal.Decimal `json:"totalCgst"`
	TotalSgst        decimal.Decimal `json:"totalSgst"`
	TotalTax         decimal.Decimal `json:"totalTax"`
	CashSales        decimal.Decimal `json:"cashSales"`
	UpiSales         decimal.Decimal `json:"upiSales"`
	CardSales        decimal.Decimal `json:"cardSales"`
	AverageSaleValue decimal.Decimal `json:"averageSaleValue"`
}

// GetSalesSummaryReport aggregates completed sales over [fromDate, toDate],
// with a per-payment-mode breakdown. Returned/cancelled sales are excluded.
func GetSalesSummaryReport(ctx context.Context, fromDate time.Time, toDate time.Time) (*SalesSummaryResponse, error) {
	sql := `
SELECT
    COUNT(s.id) AS sale_count,
    COALESCE(SUM(s.total_amount), 0) AS total_sales,
    COALESCE(SUM(s.discount_amount), 0) AS total_discount,
    COALESCE(SUM(s.cgst_amount), 0) AS total_cgst,
    COALESCE(SUM(s.sgst_amount), 0) AS total_sgst,
    COALESCE(SUM(s.total_tax), 0) AS total_tax,
    COALESCE(SUM(CASE WHEN s.payment_mode = 'cash' THEN s.total_amount ELSE 0 END), 0) AS cash_sales,
    COALESCE(SUM(CASE WHEN s.payment_mode = 'upi' THEN s.total_amount ELSE 0 END), 0) AS upi_sales,
    COALESCE(SUM(CASE WHEN s.payment_mode = 'card' THEN s.total_amount ELSE 0 END), 0) AS card_sales,
    COALESCE(AVG(s.total_amount), 0) AS average_sale_value
FROM
    sales s
WHERE
    s.sale_date BETWEEN @fromDate AND @toDate
        AND s.status = 'completed';
`
	db := config.GetDB()

	var result SalesSummaryResponse
	if err := db.WithContext(ctx).Raw(sql, map[string]interface{}{
		"fromDate": fromDate,
		"toDate":   toDate,
	}).Scan(&result).Error; err != nil {
		return nil, err
	}

	return &result, nil
}
