package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kiranasoft/kirana_backend/config"
	"github.com/kiranasoft/kirana_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// StockMovement is the append-only ledger of stock deltas. Rows are never
// updated or deleted; Product.CurrentStock is just the cached projection.
// For every row: new_stock = previous_stock + signed delta, where the signed
// delta is +qty (stock_in), -qty (stock_out) or new_stock - previous_stock
// (adjustment, qty stores |delta|).
type StockMovement struct {
	ID        int `gorm:"primary_key" json:"id"`
	ProductId int `gorm:"index;not null" json:"product_id"`
	// denormalized for audit: the ledger keeps the name the product had when
	// the movement happened, even if it is renamed later
	ProductName   string           `gorm:"size:100;not null" json:"product_name"`
	MovementType  MovementType     `gorm:"type:enum('stock_in','stock_out','adjustment');not null;index" json:"movement_type"`
	Quantity      decimal.Decimal  `gorm:"type:decimal(20,4);not null" json:"quantity"` // magnitude, always >= 0
	Reason        string           `gorm:"size:200" json:"reason"`
	SupplierName  string           `gorm:"size:100" json:"supplier_name"`
	PurchasePrice *decimal.Decimal `gorm:"type:decimal(20,4);default:null" json:"purchase_price"`
	PreviousStock decimal.Decimal  `gorm:"type:decimal(20,4);not null" json:"previous_stock"`
	NewStock      decimal.Decimal  `gorm:"type:decimal(20,4);not null" json:"new_stock"`
	// set for movements written by sale finalization; the (sale, sale item)
	// pair is what retry de-duplication keys on
	SaleId     *int      `gorm:"index" json:"sale_id"`
	SaleItemId *int      `gorm:"index" json:"sale_item_id"`
	CreatedBy  int       `json:"created_by"`
	CreatedAt  time.Time `gorm:"autoCreateTime" json:"created_at"`
}

type NewStockMovement struct {
	ProductId     int              `json:"product_id" binding:"required"`
	MovementType  MovementType     `json:"movement_type" binding:"required"`
	Quantity      decimal.Decimal  `json:"quantity"`
	TargetStock   *decimal.Decimal `json:"target_stock"` // adjustment only: the absolute on-hand to set
	Reason        string           `json:"reason"`
	SupplierName  string           `json:"supplier_name"`
	PurchasePrice *decimal.Decimal `json:"purchase_price"`

	saleId     *int
	saleItemId *int
}

func (input *NewStockMovement) validate() error {
	if !input.MovementType.Valid() {
		return fmt.Errorf("invalid movement type %q", input.MovementType)
	}
	switch input.MovementType {
	case MovementTypeStockIn, MovementTypeStockOut:
		if !input.Quantity.GreaterThan(decimal.Zero) {
			return errors.New("quantity must be greater than zero")
		}
	case MovementTypeAdjustment:
		if input.TargetStock == nil {
			return errors.New("adjustment requires target_stock")
		}
		if input.TargetStock.IsNegative() {
			return errors.New("target_stock cannot be negative")
		}
	}
	if input.MovementType == MovementTypeStockOut && input.Reason == "" {
		return errors.New("stock_out requires a reason")
	}
	return nil
}

// applyMovementTx applies one movement inside the caller's transaction.
//
// The product row is locked FOR UPDATE before the old value is read, and the
// projection update carries the old value in its WHERE clause, so two
// concurrent movements can never both read the same previous_stock and
// double-apply. A stock_out that would drive stock negative fails with
// ErrorStockConflict and writes nothing.
func applyMovementTx(tx *gorm.DB, ctx context.Context, input *NewStockMovement) (*StockMovement, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	var product Product
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&product, input.ProductId).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}

	previous := product.CurrentStock
	var next decimal.Decimal
	quantity := input.Quantity

	switch input.MovementType {
	case MovementTypeStockIn:
		next = previous.Add(quantity)
	case MovementTypeStockOut:
		next = previous.Sub(quantity)
		if next.IsNegative() {
			return nil, utils.ErrorStockConflict
		}
	case MovementTypeAdjustment:
		next = *input.TargetStock
		quantity = next.Sub(previous).Abs()
	}

	res := tx.WithContext(ctx).Model(&Product{}).
		Where("id = ? AND current_stock = ?", product.ID, previous).
		Update("current_stock", next)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, utils.ErrorStockConflict
	}

	createdBy, _ := utils.GetUserIdFromContext(ctx)
	movement := StockMovement{
		ProductId:     product.ID,
		ProductName:   product.Name,
		MovementType:  input.MovementType,
		Quantity:      quantity,
		Reason:        input.Reason,
		SupplierName:  input.SupplierName,
		PurchasePrice: input.PurchasePrice,
		PreviousStock: previous,
		NewStock:      next,
		SaleId:        input.saleId,
		SaleItemId:    input.saleItemId,
		CreatedBy:     createdBy,
	}
	if err := tx.WithContext(ctx).Create(&movement).Error; err != nil {
		return nil, err
	}
	return &movement, nil
}

// RecordStockMovement is the standalone entry point for explicit stock-in,
// stock-out and adjustment actions. Sale finalization writes its movements
// through applyMovementTx inside the checkout transaction instead.
func RecordStockMovement(ctx context.Context, input *NewStockMovement) (*StockMovement, error) {
	db := config.GetDB()

	tx := db.Begin()
	movement, err := applyMovementTx(tx, ctx, input)
	if err != nil {
		tx.Rollback()
		return nil, err
	}
	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return movement, nil
}

// GetStockMovements returns the ledger reverse-chronologically, optionally
// filtered by product.
func GetStockMovements(ctx context.Context, productId *int, limit int) ([]*StockMovement, error) {
	db := config.GetDB()

	if limit <= 0 || limit > 500 {
		limit = 100
	}

	dbCtx := db.WithContext(ctx).Model(&StockMovement{})
	if productId != nil {
		dbCtx = dbCtx.Where("product_id = ?", *productId)
	}

	var movements []*StockMovement
	if err := dbCtx.Order("id DESC").Limit(limit).Find(&movements).Error; err != nil {
		return nil, err
	}
	return movements, nil
}
