package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kiranasoft/kirana_backend/models"
)

// dateRange parses from/to query params ("2006-01-02"); default is today.
func dateRange(c *gin.Context) (time.Time, time.Time, bool) {
	now := time.Now()
	from := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	to := from.AddDate(0, 0, 1).Add(-time.Nanosecond)

	if raw := c.Query("from"); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, now.Location())
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid from date, expected YYYY-MM-DD"})
			return from, to, false
		}
		from = parsed
	}
	if raw := c.Query("to"); raw != "" {
		parsed, err := time.ParseInLocation("2006-01-02", raw, now.Location())
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid to date, expected YYYY-MM-DD"})
			return from, to, false
		}
		to = parsed.AddDate(0, 0, 1).Add(-time.Nanosecond)
	}
	if to.Before(from) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "to date is before from date"})
		return from, to, false
	}
	return from, to, true
}

func GetSales(c *gin.Context) {
	from, to, ok := dateRange(c)
	if !ok {
		return
	}

	sales, err := models.GetSalesByDateRange(c.Request.Context(), from, to)
	if err != nil {
		respondError(c, "saleHandler.go", "GetSales", err)
		return
	}
	c.JSON(http.StatusOK, sales)
}

func GetSale(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sale id"})
		return
	}

	sale, err := models.GetSale(c.Request.Context(), id)
	if err != nil {
		respondError(c, "saleHandler.go", "GetSale", err)
		return
	}
	c.JSON(http.StatusOK, sale)
}

type updateSaleStatusInput struct {
	Status models.SaleStatus `json:"status" binding:"required"`
}

func UpdateSaleStatus(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid sale id"})
		return
	}

	var input updateSaleStatusInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	sale, err := models.UpdateSaleStatus(c.Request.Context(), id, input.Status)
	if err != nil {
		respondError(c, "saleHandler.go", "UpdateSaleStatus", err)
		return
	}
	c.JSON(http.StatusOK, sale)
}
