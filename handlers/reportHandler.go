package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kiranasoft/kirana_backend/models/reports"
)

func GetSalesSummaryReport(c *gin.Context) {
	from, to, ok := dateRange(c)
	if !ok {
		return
	}

	summary, err := reports.GetSalesSummaryReport(c.Request.Context(), from, to)
	if err != nil {
		respondError(c, "reportHandler.go", "GetSalesSummaryReport", err)
		return
	}
	c.JSON(http.StatusOK, summary)
}

func GetProductSalesReport(c *gin.Context) {
	from, to, ok := dateRange(c)
	if !ok {
		return
	}

	var category *string
	if raw := c.Query("category"); raw != "" {
		category = &raw
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	report, err := reports.GetProductSalesReport(c.Request.Context(), from, to, category, limit)
	if err != nil {
		respondError(c, "reportHandler.go", "GetProductSalesReport", err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func GetStockSummaryReport(c *gin.Context) {
	from, to, ok := dateRange(c)
	if !ok {
		return
	}

	var category *string
	if raw := c.Query("category"); raw != "" {
		category = &raw
	}

	report, err := reports.GetStockSummaryReport(c.Request.Context(), from, to, category)
	if err != nil {
		respondError(c, "reportHandler.go", "GetStockSummaryReport", err)
		return
	}
	c.JSON(http.StatusOK, report)
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func ExportSalesSummaryExcel(c *gin.Context) {
	from, to, ok := dateRange(c)
	if !ok {
		return
	}

	c.Header("Content-Type", xlsxContentType)
	c.Header("Content-Disposition", "attachment; filename=sales_summary.xlsx")
	if err := reports.ExportSalesSummaryExcel(c.Request.Context(), c.Writer, from, to); err != nil {
		respondError(c, "reportHandler.go", "ExportSalesSummaryExcel", err)
	}
}

func ExportProductSalesExcel(c *gin.Context) {
	from, to, ok := dateRange(c)
	if !ok {
		return
	}

	c.Header("Content-Type", xlsxContentType)
	c.Header("Content-Disposition", "attachment; filename=product_sales.xlsx")
	if err := reports.ExportProductSalesExcel(c.Request.Context(), c.Writer, from, to); err != nil {
		respondError(c, "reportHandler.go", "ExportProductSalesExcel", err)
	}
}
