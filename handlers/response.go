package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kiranasoft/kirana_backend/config"
	"github.com/kiranasoft/kirana_backend/models"
	"github.com/kiranasoft/kirana_backend/utils"
)

// respondError maps model-layer errors onto HTTP statuses. Conflict-class
// errors (stock races, double finalize) get 409 so clients can distinguish
// retryable contention from bad input.
func respondError(c *gin.Context, moduleName string, funcName string, err error) {
	switch {
	case errors.Is(err, utils.ErrorRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, utils.ErrorStockConflict),
		errors.Is(err, utils.ErrorAttemptInProgress),
		errors.Is(err, models.ErrorSweepAlreadyRunning):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, utils.ErrorEmptyCart),
		errors.Is(err, utils.ErrorInsufficientPayment):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		config.LogError(config.GetLogger(), moduleName, funcName, "request failed", nil, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"errors": utils.ProcessValidationErrors(err)})
}
