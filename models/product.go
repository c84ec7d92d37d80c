package models

import (
	"context"
	"errors"
	"time"

	"github.com/kiranasoft/kirana_backend/config"
	"github.com/kiranasoft/kirana_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type Product struct {
	ID       int    `gorm:"primary_key" json:"id"`
	Name     string `gorm:"size:100;not null;index" json:"name" binding:"required"`
	Category string `gorm:"size:50;index" json:"category"`
	Brand    string `gorm:"size:100" json:"brand"`
	Unit     string `gorm:"size:20" json:"unit"`
	// Barcode is intentionally NOT unique: loose items and repacked goods in
	// small shops share printed codes. Lookup surfaces every active match.
	Barcode       string          `gorm:"index;size:100" json:"barcode"`
	Description   string          `gorm:"type:text" json:"description"`
	PurchasePrice decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"purchase_price"`
	SellingPrice  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"selling_price"` // tax-inclusive MRP
	// CurrentStock is a cached projection of the stock ledger. It is written
	// only through applyMovementTx; product updates never touch it.
	CurrentStock  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"current_stock"`
	MinStockLevel decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"min_stock_level"`
	ExpiryDate    *time.Time      `gorm:"default:null" json:"expiry_date"`
	GstRate       decimal.Decimal `gorm:"type:decimal(5,2);default:0" json:"gst_rate"`
	Status        ProductStatus   `gorm:"type:enum('active','inactive');default:'active';index" json:"status"`
	CreatedAt     time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

type NewProduct struct {
	Name          string          `json:"name" binding:"required"`
	Category      string          `json:"category"`
	Brand         string          `json:"brand"`
	Unit          string          `json:"unit"`
	Barcode       string          `json:"barcode"`
	Description   string          `json:"description"`
	PurchasePrice decimal.Decimal `json:"purchase_price"`
	SellingPrice  decimal.Decimal `json:"selling_price"`
	MinStockLevel decimal.Decimal `json:"min_stock_level"`
	ExpiryDate    *time.Time      `json:"expiry_date"`
	GstRate       decimal.Decimal `json:"gst_rate"`
	OpeningStock  decimal.Decimal `json:"opening_stock"`
}

type UpdateProductInput struct {
	Name          *string          `json:"name"`
	Category      *string          `json:"category"`
	Brand         *string          `json:"brand"`
	Unit          *string          `json:"unit"`
	Barcode       *string          `json:"barcode"`
	Description   *string          `json:"description"`
	PurchasePrice *decimal.Decimal `json:"purchase_price"`
	SellingPrice  *decimal.Decimal `json:"selling_price"`
	MinStockLevel *decimal.Decimal `json:"min_stock_level"`
	ExpiryDate    *time.Time       `json:"expiry_date"`
	GstRate       *decimal.Decimal `json:"gst_rate"`
	Status        *ProductStatus   `json:"status"`
}

func (input *NewProduct) validate() error {
	if input.SellingPrice.IsNegative() || input.PurchasePrice.IsNegative() {
		return errors.New("price cannot be negative")
	}
	if input.GstRate.IsNegative() || input.GstRate.GreaterThan(decimal.NewFromInt(100)) {
		return errors.New("gst rate must be between 0 and 100")
	}
	if input.OpeningStock.IsNegative() {
		return errors.New("opening stock cannot be negative")
	}
	return nil
}

// CreateProduct inserts the product with zero stock and books the opening
// quantity as a stock_in ledger entry, so the ledger replays to the current
// stock from day one.
func CreateProduct(ctx context.Context, input *NewProduct) (*Product, error) {
	db := config.GetDB()

	if err := input.validate(); err != nil {
		return nil, err
	}

	product := Product{
		Name:          input.Name,
		Category:      input.Category,
		Brand:         input.Brand,
		Unit:          input.Unit,
		Barcode:       input.Barcode,
		Description:   input.Description,
		PurchasePrice: input.PurchasePrice,
		SellingPrice:  input.SellingPrice,
		CurrentStock:  decimal.Zero,
		MinStockLevel: input.MinStockLevel,
		ExpiryDate:    input.ExpiryDate,
		GstRate:       input.GstRate,
		Status:        ProductStatusActive,
	}

	tx := db.Begin()
	if err := tx.WithContext(ctx).Create(&product).Error; err != nil {
		tx.Rollback()
		return nil, err
	}

	if input.OpeningStock.GreaterThan(decimal.Zero) {
		_, err := applyMovementTx(tx, ctx, &NewStockMovement{
			ProductId:    product.ID,
			MovementType: MovementTypeStockIn,
			Quantity:     input.OpeningStock,
			Reason:       "opening stock",
		})
		if err != nil {
			tx.Rollback()
			return nil, err
		}
		product.CurrentStock = input.OpeningStock
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func GetProduct(ctx context.Context, id int) (*Product, error) {
	db := config.GetDB()

	var product Product
	if err := db.WithContext(ctx).First(&product, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &product, nil
}

func GetAllActiveProducts(ctx context.Context) ([]*Product, error) {
	db := config.GetDB()

	var products []*Product
	if err := db.WithContext(ctx).
		Where("status = ?", ProductStatusActive).
		Order("name ASC").
		Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// SearchProducts matches name, barcode, brand and category.
func SearchProducts(ctx context.Context, query string) ([]*Product, error) {
	db := config.GetDB()

	like := "%" + query + "%"
	var products []*Product
	if err := db.WithContext(ctx).
		Where("status = ?", ProductStatusActive).
		Where("name LIKE ? OR barcode LIKE ? OR brand LIKE ? OR category LIKE ?", like, like, like, like).
		Order("name ASC").
		Limit(config.SearchLimit).
		Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

// GetProductsByBarcode returns EVERY active product carrying the code.
// Zero, one and many are all valid outcomes; the caller disambiguates.
func GetProductsByBarcode(ctx context.Context, barcode string) ([]*Product, error) {
	db := config.GetDB()

	var products []*Product
	if err := db.WithContext(ctx).
		Where("status = ? AND barcode = ?", ProductStatusActive, barcode).
		Order("id ASC").
		Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func UpdateProduct(ctx context.Context, id int, input *UpdateProductInput) (*Product, error) {
	db := config.GetDB()

	product, err := GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if input.Name != nil {
		updates["name"] = *input.Name
	}
	if input.Category != nil {
		updates["category"] = *input.Category
	}
	if input.Brand != nil {
		updates["brand"] = *input.Brand
	}
	if input.Unit != nil {
		updates["unit"] = *input.Unit
	}
	if input.Barcode != nil {
		updates["barcode"] = *input.Barcode
	}
	if input.Description != nil {
		updates["description"] = *input.Description
	}
	if input.PurchasePrice != nil {
		updates["purchase_price"] = *input.PurchasePrice
	}
	if input.SellingPrice != nil {
		updates["selling_price"] = *input.SellingPrice
	}
	if input.MinStockLevel != nil {
		updates["min_stock_level"] = *input.MinStockLevel
	}
	if input.ExpiryDate != nil {
		updates["expiry_date"] = *input.ExpiryDate
	}
	if input.GstRate != nil {
		updates["gst_rate"] = *input.GstRate
	}
	if input.Status != nil {
		updates["status"] = *input.Status
	}
	if len(updates) == 0 {
		return product, nil
	}

	if err := db.WithContext(ctx).Model(&Product{}).Where("id = ?", id).Updates(updates).Error; err != nil {
		return nil, err
	}
	return GetProduct(ctx, id)
}

// DeleteProduct flips status to inactive. Historical sales keep referencing
// the row, so products are never hard-deleted.
func DeleteProduct(ctx context.Context, id int) error {
	db := config.GetDB()

	res := db.WithContext(ctx).Model(&Product{}).Where("id = ?", id).Update("status", ProductStatusInactive)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return utils.ErrorRecordNotFound
	}
	return nil
}

// low stock: at or below the per-product minimum, or the shop-wide threshold
// for products that never had one set
func GetLowStockProducts(ctx context.Context) ([]*Product, error) {
	db := config.GetDB()

	settings, err := GetShopSettings(ctx)
	if err != nil {
		return nil, err
	}

	var products []*Product
	if err := db.WithContext(ctx).
		Where("status = ?", ProductStatusActive).
		Where("current_stock <= (CASE WHEN min_stock_level > 0 THEN min_stock_level ELSE ? END)", settings.LowStockThreshold).
		Order("current_stock ASC").
		Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func GetExpiringProducts(ctx context.Context, days int) ([]*Product, error) {
	db := config.GetDB()

	cutoff := time.Now().AddDate(0, 0, days)
	var products []*Product
	if err := db.WithContext(ctx).
		Where("status = ? AND expiry_date IS NOT NULL AND expiry_date <= ?", ProductStatusActive, cutoff).
		Order("expiry_date ASC").
		Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}
