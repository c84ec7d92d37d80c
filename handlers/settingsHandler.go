package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kiranasoft/kirana_backend/models"
)

func GetSettings(c *gin.Context) {
	settings, err := models.GetShopSettings(c.Request.Context())
	if err != nil {
		respondError(c, "settingsHandler.go", "GetSettings", err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

func UpdateSettings(c *gin.Context) {
	var input models.UpdateShopSettingsInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	settings, err := models.UpdateShopSettings(c.Request.Context(), &input)
	if err != nil {
		respondError(c, "settingsHandler.go", "UpdateSettings", err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

func RunReconciliation(c *gin.Context) {
	correlationId, err := models.RunReconciliationChecks(c.Request.Context())
	if err != nil {
		respondError(c, "settingsHandler.go", "RunReconciliation", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"correlation_id": correlationId})
}

func GetReconciliationReports(c *gin.Context) {
	reports, err := models.GetReconciliationReports(c.Request.Context(), 100)
	if err != nil {
		respondError(c, "settingsHandler.go", "GetReconciliationReports", err)
		return
	}
	c.JSON(http.StatusOK, reports)
}
