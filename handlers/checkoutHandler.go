package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kiranasoft/kirana_backend/models"
)

// Checkout finalizes the session cart. The cart is cleared only after the
// sale committed; on any error the cart stays intact so the cashier can fix
// the problem and retry with the same attempt id.
func Checkout(c *gin.Context) {
	var input models.NewCheckout
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	cart := sessionCart(c)
	result, err := models.FinalizeSale(c.Request.Context(), cart.Snapshot(), &input)
	if err != nil {
		respondError(c, "checkoutHandler.go", "Checkout", err)
		return
	}

	cart.Clear()
	c.JSON(http.StatusCreated, result)
}
