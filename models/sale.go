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
)

// Sale is immutable once created; only Status may transition afterwards
// (completed -> returned/cancelled). Amounts and item snapshots are frozen at
// finalize time: later price or product edits never alter historical totals.
type Sale struct {
	ID            int        `gorm:"primary_key" json:"id"`
	SequenceNo    int64      `gorm:"index;not null" json:"sequence_no"`
	InvoiceNumber string     `gorm:"size:32;uniqueIndex;not null" json:"invoice_number"`
	Items         []SaleItem `gorm:"foreignKey:SaleId" json:"items"`

	Subtotal       decimal.Decimal    `gorm:"type:decimal(20,4);default:0" json:"subtotal"`
	DiscountValue  decimal.Decimal    `gorm:"type:decimal(20,4);default:0" json:"discount_value"`
	DiscountType   utils.DiscountType `gorm:"size:10;default:'amount'" json:"discount_type"`
	DiscountAmount decimal.Decimal    `gorm:"type:decimal(20,4);default:0" json:"discount_amount"`
	CgstAmount     decimal.Decimal    `gorm:"type:decimal(20,4);default:0" json:"cgst_amount"`
	SgstAmount     decimal.Decimal    `gorm:"type:decimal(20,4);default:0" json:"sgst_amount"`
	TotalTax       decimal.Decimal    `gorm:"type:decimal(20,4);default:0" json:"total_tax"`
	TotalAmount    decimal.Decimal    `gorm:"type:decimal(20,4);default:0" json:"total_amount"`

	PaymentMode    PaymentMode      `gorm:"type:enum('cash','upi','card');not null" json:"payment_mode"`
	AmountReceived *decimal.Decimal `gorm:"type:decimal(20,4);default:null" json:"amount_received"` // cash only
	ChangeReturned *decimal.Decimal `gorm:"type:decimal(20,4);default:null" json:"change_returned"` // cash only

	Status        SaleStatus `gorm:"type:enum('completed','returned','cancelled');default:'completed';index" json:"status"`
	SaleDate      time.Time  `gorm:"not null;index" json:"sale_date"`
	CreatedBy     int        `json:"created_by"`
	CreatedByName string     `gorm:"size:100" json:"created_by_name"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// SaleItem freezes the product's name, price and gst rate at sale time.
type SaleItem struct {
	ID          int             `gorm:"primary_key" json:"id"`
	SaleId      int             `gorm:"index;not null" json:"sale_id"`
	ProductId   int             `gorm:"index;not null" json:"product_id"`
	ProductName string          `gorm:"size:100;not null" json:"product_name"`
	Barcode     string          `gorm:"size:100" json:"barcode"`
	Unit        string          `gorm:"size:20" json:"unit"`
	Quantity    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"quantity"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"unit_price"`
	Discount    decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"discount"` // reserved per-line discount
	GstRate     decimal.Decimal `gorm:"type:decimal(5,2);default:0" json:"gst_rate"`
	GstAmount   decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"gst_amount"`
	Subtotal    decimal.Decimal `gorm:"type:decimal(20,4);not null" json:"subtotal"`
}

func GetSale(ctx context.Context, id int) (*Sale, error) {
	db := config.GetDB()

	var sale Sale
	if err := db.WithContext(ctx).Preload("Items").First(&sale, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &sale, nil
}

func getSaleByInvoiceNumber(ctx context.Context, invoiceNumber string) (*Sale, error) {
	db := config.GetDB()

	var sale Sale
	if err := db.WithContext(ctx).Preload("Items").
		Where("invoice_number = ?", invoiceNumber).
		First(&sale).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}
	return &sale, nil
}

// GetSalesByDateRange lists completed sales, newest first.
func GetSalesByDateRange(ctx context.Context, from time.Time, to time.Time) ([]*Sale, error) {
	db := config.GetDB()

	var sales []*Sale
	if err := db.WithContext(ctx).Preload("Items").
		Where("sale_date BETWEEN ? AND ? AND status = ?", from, to, SaleStatusCompleted).
		Order("sale_date DESC").
		Find(&sales).Error; err != nil {
		return nil, err
	}
	return sales, nil
}

func GetTodaySales(ctx context.Context) ([]*Sale, error) {
	now := time.Now()
	start := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	return GetSalesByDateRange(ctx, start, start.AddDate(0, 0, 1).Add(-time.Nanosecond))
}

// UpdateSaleStatus performs the only mutation a sale allows:
// completed -> returned or completed -> cancelled. Stock effects of returns
// are booked separately through the stock ledger.
func UpdateSaleStatus(ctx context.Context, id int, status SaleStatus) (*Sale, error) {
	db := config.GetDB()

	if status != SaleStatusReturned && status != SaleStatusCancelled {
		return nil, fmt.Errorf("invalid status transition to %q", status)
	}

	res := db.WithContext(ctx).Model(&Sale{}).
		Where("id = ? AND status = ?", id, SaleStatusCompleted).
		Update("status", status)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, utils.ErrorRecordNotFound
	}
	return GetSale(ctx, id)
}
