package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/kiranasoft/kirana_backend/models"
)

func GetProducts(c *gin.Context) {
	products, err := models.GetAllActiveProducts(c.Request.Context())
	if err != nil {
		respondError(c, "productHandler.go", "GetProducts", err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func SearchProducts(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "query parameter q is required"})
		return
	}

	products, err := models.SearchProducts(c.Request.Context(), query)
	if err != nil {
		respondError(c, "productHandler.go", "SearchProducts", err)
		return
	}
	c.JSON(http.StatusOK, products)
}

// ScanBarcode resolves a scanned code. Barcodes are not unique, so the
// response distinguishes all three outcomes: no match is 404, a single match
// returns the product, several matches return the list with 300 so the till
// can pop a picker.
func ScanBarcode(c *gin.Context) {
	barcode := c.Param("barcode")

	products, err := models.GetProductsByBarcode(c.Request.Context(), barcode)
	if err != nil {
		respondError(c, "productHandler.go", "ScanBarcode", err)
		return
	}

	switch len(products) {
	case 0:
		c.JSON(http.StatusNotFound, gin.H{"error": "no product matches barcode " + barcode})
	case 1:
		c.JSON(http.StatusOK, products[0])
	default:
		c.JSON(http.StatusMultipleChoices, gin.H{"products": products})
	}
}

func CreateProduct(c *gin.Context) {
	var input models.NewProduct
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	product, err := models.CreateProduct(c.Request.Context(), &input)
	if err != nil {
		respondError(c, "productHandler.go", "CreateProduct", err)
		return
	}
	c.JSON(http.StatusCreated, product)
}

func UpdateProduct(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}

	var input models.UpdateProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondBindError(c, err)
		return
	}

	product, err := models.UpdateProduct(c.Request.Context(), id, &input)
	if err != nil {
		respondError(c, "productHandler.go", "UpdateProduct", err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func DeleteProduct(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid product id"})
		return
	}

	if err := models.DeleteProduct(c.Request.Context(), id); err != nil {
		respondError(c, "productHandler.go", "DeleteProduct", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
