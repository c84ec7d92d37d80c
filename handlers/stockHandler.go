package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kiranasoft/kirana_backend/models"
)

func RecordStockMovement(c *gin.Context) {
	var input models.NewStockMovement
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	movement, err := models.RecordStockMovement(c.Request.Context(), &input)
	if err != nil {
		respondError(c, "stockHandler.go", "RecordStockMovement", err)
		return
	}
	c.JSON(http.StatusCreated, movement)
}

func GetStockMovements(c *gin.Context) {
	var productId *int
	if raw := c.Query("product_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product_id"})
			return
		}
		productId = &id
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))

	movements, err := models.GetStockMovements(c.Request.Context(), productId, limit)
	if err != nil {
		respondError(c, "stockHandler.go", "GetStockMovements", err)
		return
	}
	c.JSON(http.StatusOK, movements)
}

// GetStockAlerts surfaces what the shop needs to act on today: products at
// or under their minimum level, and products expiring inside the configured
// alert window.
func GetStockAlerts(c *gin.Context) {
	ctx := c.Request.Context()

	settings, err := models.GetShopSettings(ctx)
	if err != nil {
		respondError(c, "stockHandler.go", "GetStockAlerts", err)
		return
	}

	lowStock, err := models.GetLowStockProducts(ctx)
	if err != nil {
		respondError(c, "stockHandler.go", "GetStockAlerts", err)
		return
	}

	expiring, err := models.GetExpiringProducts(ctx, settings.ExpiryAlertDays)
	if err != nil {
		respondError(c, "stockHandler.go", "GetStockAlerts", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"low_stock": lowStock,
		"expiring":  expiring,
	})
}
