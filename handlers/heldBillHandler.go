package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/kiranasoft/kirana_backend/models"
)

type holdCartInput struct {
	BillName string `json:"bill_name"`
}

// HoldCart parks the current cart durably and clears the live cart, freeing
// the till for the next customer.
func HoldCart(c *gin.Context) {
	var input holdCartInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	cart := sessionCart(c)
	bill, err := models.HoldCart(c.Request.Context(), cart.Snapshot(), input.BillName)
	if err != nil {
		respondError(c, "heldBillHandler.go", "HoldCart", err)
		return
	}

	cart.Clear()
	c.JSON(http.StatusCreated, bill)
}

func ListHeldBills(c *gin.Context) {
	bills, err := models.ListHeldBills(c.Request.Context())
	if err != nil {
		respondError(c, "heldBillHandler.go", "ListHeldBills", err)
		return
	}
	c.JSON(http.StatusOK, bills)
}

// ResumeHeldBill loads a held bill into the session cart. The store-side pop
// is atomic, so of two terminals racing for the same bill exactly one gets
// it; the other sees 404. A non-empty live cart is parked as a new held bill
// first so nothing is silently discarded.
func ResumeHeldBill(c *gin.Context) {
	id := c.Param("id")
	cart := sessionCart(c)

	current := cart.Snapshot()
	if len(current.Items) > 0 {
		if _, err := models.HoldCart(c.Request.Context(), current, "auto-held on resume"); err != nil {
			respondError(c, "heldBillHandler.go", "ResumeHeldBill", err)
			return
		}
	}

	bill, err := models.ResumeHeldBill(c.Request.Context(), id)
	if err != nil {
		respondError(c, "heldBillHandler.go", "ResumeHeldBill", err)
		return
	}

	snap, err := bill.Snapshot()
	if err != nil {
		respondError(c, "heldBillHandler.go", "ResumeHeldBill", err)
		return
	}

	cart.Restore(snap)
	c.JSON(http.StatusOK, viewOf(cart))
}

func DeleteHeldBill(c *gin.Context) {
	if err := models.DeleteHeldBill(c.Request.Context(), c.Param("id")); err != nil {
		respondError(c, "heldBillHandler.go", "DeleteHeldBill", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
