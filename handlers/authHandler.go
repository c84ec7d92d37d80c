package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kiranasoft/kirana_backend/models"
	"github.com/kiranasoft/kirana_backend/utils"
)

func Login(c *gin.Context) {
	var input models.LoginInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := models.Login(c.Request.Context(), &input)
	if err != nil {
		// wrong username and wrong password look the same to the caller
		if errors.Is(err, utils.ErrorRecordNotFound) || errors.Is(err, models.ErrorInvalidCredentials) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}
		respondError(c, "authHandler.go", "Login", err)
		return
	}

	c.JSON(http.StatusOK, result)
}
