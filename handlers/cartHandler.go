package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kiranasoft/kirana_backend/middlewares"
	"github.com/kiranasoft/kirana_backend/models"
	"github.com/kiranasoft/kirana_backend/utils"
	"github.com/shopspring/decimal"
)

func sessionCart(c *gin.Context) *models.Cart {
	terminalId, ok := utils.GetTerminalIdFromContext(c.Request.Context())
	if !ok {
		terminalId = middlewares.DefaultTerminalId
	}
	return models.GetSessionCart(terminalId)
}

// cartView is what every cart mutation returns: the full recomputed state,
// so the till never has to total anything itself.
type cartView struct {
	Items          []models.CartItem   `json:"items"`
	Subtotal       decimal.Decimal     `json:"subtotal"`
	Discount       decimal.Decimal     `json:"discount"`
	DiscountType   utils.DiscountType  `json:"discount_type"`
	DiscountAmount decimal.Decimal     `json:"discount_amount"`
	Tax            models.TaxBreakdown `json:"tax"`
	Total          decimal.Decimal     `json:"total"`
}

func viewOf(cart *models.Cart) *cartView {
	snap := cart.Snapshot()
	return &cartView{
		Items:          snap.Items,
		Subtotal:       utils.RoundMoney(snap.Subtotal()),
		Discount:       snap.Discount,
		DiscountType:   snap.DiscountType,
		DiscountAmount: utils.RoundMoney(snap.DiscountAmount()),
		Tax:            snap.TaxBreakdown(),
		Total:          utils.RoundMoney(snap.Total()),
	}
}

func GetCart(c *gin.Context) {
	c.JSON(http.StatusOK, viewOf(sessionCart(c)))
}

type addCartItemInput struct {
	ProductId int              `json:"product_id" binding:"required"`
	Quantity  *decimal.Decimal `json:"quantity"` // default 1
}

func AddCartItem(c *gin.Context) {
	var input addCartItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	product, err := models.GetProduct(c.Request.Context(), input.ProductId)
	if err != nil {
		respondError(c, "cartHandler.go", "AddCartItem", err)
		return
	}

	qty := decimal.NewFromInt(1)
	if input.Quantity != nil {
		qty = *input.Quantity
	}

	cart := sessionCart(c)
	cart.AddItem(product, qty)
	c.JSON(http.StatusOK, viewOf(cart))
}

type updateCartItemInput struct {
	Quantity decimal.Decimal `json:"quantity"`
}

func UpdateCartItem(c *gin.Context) {
	productId, err := strconv.Atoi(c.Param("productId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}

	var input updateCartItemInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	cart := sessionCart(c)
	cart.UpdateQuantity(productId, input.Quantity)
	c.JSON(http.StatusOK, viewOf(cart))
}

func RemoveCartItem(c *gin.Context) {
	productId, err := strconv.Atoi(c.Param("productId"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}

	cart := sessionCart(c)
	cart.RemoveItem(productId)
	c.JSON(http.StatusOK, viewOf(cart))
}

type setDiscountInput struct {
	Discount     decimal.Decimal    `json:"discount"`
	DiscountType utils.DiscountType `json:"discount_type" binding:"required"`
}

func SetCartDiscount(c *gin.Context) {
	var input setDiscountInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}
	if input.DiscountType != utils.DiscountTypeAmount && input.DiscountType != utils.DiscountTypePercent {
		c.JSON(http.StatusBadRequest, gin.H{"error": "discount_type must be amount or percent"})
		return
	}
	if input.Discount.IsNegative() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "discount cannot be negative"})
		return
	}

	cart := sessionCart(c)
	cart.SetDiscount(input.Discount, input.DiscountType)
	c.JSON(http.StatusOK, viewOf(cart))
}

func ClearCart(c *gin.Context) {
	cart := sessionCart(c)
	cart.Clear()
	c.JSON(http.StatusOK, viewOf(cart))
}
