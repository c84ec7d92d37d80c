package reports

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"
)

const exportSheet = "Sheet1"

// ExportProductSalesExcel writes the product sales report for the period as
// an XLSX workbook to w (typically the HTTP response).
func ExportProductSalesExcel(ctx context.Context, w io.Writer, fromDate time.Time, toDate time.Time) error {
	data, err := GetProductSalesReport(ctx, fromDate, toDate, nil, 500)
	if err != nil {
		return err
	}

	f := excelize.NewFile()
	defer f.Close()
	if _, err := f.NewSheet(exportSheet); err != nil {
		return err
	}

	// Add headers
	f.SetCellValue(exportSheet, "A1", "Product")
	f.SetCellValue(exportSheet, "B1", "Category")
	f.SetCellValue(exportSheet, "C1", "QtySold")
	f.SetCellValue(exportSheet, "D1", "SaleCount")
	f.SetCellValue(exportSheet, "E1", "Revenue")
	f.SetCellValue(exportSheet, "F1", "GstCollected")

	// Add data
	for i, d := range data {
		row := fmt.Sprint(i + 2)
		f.SetCellValue(exportSheet, "A"+row, d.ProductName)
		if d.Category != nil {
			f.SetCellValue(exportSheet, "B"+row, *d.Category)
		}
		f.SetCellValue(exportSheet, "C"+row, d.SoldQty.String())
		f.SetCellValue(exportSheet, "D"+row, d.SaleCount)
		f.SetCellValue(exportSheet, "E"+row, d.TotalAmount.String())
		f.SetCellValue(exportSheet, "F"+row, d.TotalTax.String())
	}

	return f.Write(w)
}

// ExportSalesSummaryExcel writes one summary row plus a per-day breakdown of
// the period to w.
func ExportSalesSummaryExcel(ctx context.Context, w io.Writer, fromDate time.Time, toDate time.Time) error {
	f := excelize.NewFile()
	defer f.Close()
	if _, err := f.NewSheet(exportSheet); err != nil {
		return err
	}

	f.SetCellValue(exportSheet, "A1", "Date")
	f.SetCellValue(exportSheet, "B1", "Sales")
	f.SetCellValue(exportSheet, "C1", "Discount")
	f.SetCellValue(exportSheet, "D1", "CGST")
	f.SetCellValue(exportSheet, "E1", "SGST")
	f.SetCellValue(exportSheet, "F1", "Total")

	row := 2
	for day := fromDate; !day.After(toDate); day = day.AddDate(0, 0, 1) {
		dayEnd := day.AddDate(0, 0, 1).Add(-time.Nanosecond)
		if dayEnd.After(toDate) {
			dayEnd = toDate
		}
		summary, err := GetSalesSummaryReport(ctx, day, dayEnd)
		if err != nil {
			return err
		}
		r := fmt.Sprint(row)
		f.SetCellValue(exportSheet, "A"+r, day.Format("2006-01-02"))
		f.SetCellValue(exportSheet, "B"+r, summary.SaleCount)
		f.SetCellValue(exportSheet, "C"+r, summary.TotalDiscount.String())
		f.SetCellValue(exportSheet, "D"+r, summary.TotalCgst.String())
		f.SetCellValue(exportSheet, "E"+r, summary.TotalSgst.String())
		f.SetCellValue(exportSheet, "F"+r, summary.TotalSales.String())
		row++
	}

	return f.Write(w)
}
