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

// ShopSettings is a singleton row. Pricing reads it on every checkout, so the
// current value is cached in Redis and invalidated on update.
type ShopSettings struct {
	ID           int    `gorm:"primary_key" json:"id"`
	ShopName     string `gorm:"size:100;not null" json:"shop_name"`
	AddressLine1 string `gorm:"size:200" json:"address_line1"`
	AddressLine2 string `gorm:"size:200" json:"address_line2"`
	City         string `gorm:"size:50" json:"city"`
	State        string `gorm:"size:50" json:"state"`
	Pincode      string `gorm:"size:10" json:"pincode"`
	Phone        string `gorm:"size:20" json:"phone"`
	Email        string `gorm:"size:100" json:"email"`
	Gstin        string `gorm:"size:20" json:"gstin"`

	ReceiptHeader string `gorm:"size:200" json:"receipt_header"`
	ReceiptFooter string `gorm:"size:200" json:"receipt_footer"`

	InvoicePrefix         string `gorm:"size:10;not null;default:'INV'" json:"invoice_prefix"`
	StartingInvoiceNumber int64  `gorm:"not null;default:1" json:"starting_invoice_number"`

	TaxInclusive       *bool           `gorm:"not null;default:true" json:"tax_inclusive"`
	EnableDiscount     *bool           `gorm:"not null;default:true" json:"enable_discount"`
	MaxDiscountPercent decimal.Decimal `gorm:"type:decimal(5,2);default:50" json:"max_discount_percent"`
	ShowGstBreakdown   *bool           `gorm:"not null;default:true" json:"show_gst_breakdown"`

	LowStockThreshold decimal.Decimal `gorm:"type:decimal(20,4);default:10" json:"low_stock_threshold"`
	ExpiryAlertDays   int             `gorm:"not null;default:7" json:"expiry_alert_days"`

	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

type UpdateShopSettingsInput struct {
	ShopName     *string `json:"shop_name"`
	AddressLine1 *string `json:"address_line1"`
	AddressLine2 *string `json:"address_line2"`
	City         *string `json:"city"`
	State        *string `json:"state"`
	Pincode      *string `json:"pincode"`
	Phone        *string `json:"phone"`
	Email        *string `json:"email"`
	Gstin        *string `json:"gstin"`

	ReceiptHeader *string `json:"receipt_header"`
	ReceiptFooter *string `json:"receipt_footer"`

	InvoicePrefix         *string `json:"invoice_prefix"`
	StartingInvoiceNumber *int64  `json:"starting_invoice_number"`

	TaxInclusive       *bool            `json:"tax_inclusive"`
	EnableDiscount     *bool            `json:"enable_discount"`
	MaxDiscountPercent *decimal.Decimal `json:"max_discount_percent"`
	ShowGstBreakdown   *bool            `json:"show_gst_breakdown"`

	LowStockThreshold *decimal.Decimal `json:"low_stock_threshold"`
	ExpiryAlertDays   *int             `json:"expiry_alert_days"`
}

func GetShopSettings(ctx context.Context) (*ShopSettings, error) {
	cached, err := utils.RetrieveRedisSingleton[ShopSettings]()
	if err == nil && cached != nil {
		return cached, nil
	}

	db := config.GetDB()
	var settings ShopSettings
	if err := db.WithContext(ctx).Order("id ASC").First(&settings).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}

	if err := utils.StoreRedisSingleton[ShopSettings](&settings); err != nil {
		config.LogError(config.GetLogger(), "settings.go", "GetShopSettings", "StoreRedisSingleton", nil, err)
	}
	return &settings, nil
}

func UpdateShopSettings(ctx context.Context, input *UpdateShopSettingsInput) (*ShopSettings, error) {
	db := config.GetDB()

	var settings ShopSettings
	if err := db.WithContext(ctx).Order("id ASC").First(&settings).Error; err != nil {
		return nil, err
	}

	updates := map[string]interface{}{}
	if input.ShopName != nil {
		updates["shop_name"] = *input.ShopName
	}
	if input.AddressLine1 != nil {
		updates["address_line1"] = *input.AddressLine1
	}
	if input.AddressLine2 != nil {
		updates["address_line2"] = *input.AddressLine2
	}
	if input.City != nil {
		updates["city"] = *input.City
	}
	if input.State != nil {
		updates["state"] = *input.State
	}
	if input.Pincode != nil {
		updates["pincode"] = *input.Pincode
	}
	if input.Phone != nil {
		updates["phone"] = *input.Phone
	}
	if input.Email != nil {
		updates["email"] = *input.Email
	}
	if input.Gstin != nil {
		updates["gstin"] = *input.Gstin
	}
	if input.ReceiptHeader != nil {
		updates["receipt_header"] = *input.ReceiptHeader
	}
	if input.ReceiptFooter != nil {
		updates["receipt_footer"] = *input.ReceiptFooter
	}
	if input.InvoicePrefix != nil {
		updates["invoice_prefix"] = *input.InvoicePrefix
	}
	if input.StartingInvoiceNumber != nil {
		// the sequence only ever moves forward; a lower starting number has
		// no effect once the counter has advanced past it
		updates["starting_invoice_number"] = *input.StartingInvoiceNumber
	}
	if input.TaxInclusive != nil {
		updates["tax_inclusive"] = *input.TaxInclusive
	}
	if input.EnableDiscount != nil {
		updates["enable_discount"] = *input.EnableDiscount
	}
	if input.MaxDiscountPercent != nil {
		updates["max_discount_percent"] = *input.MaxDiscountPercent
	}
	if input.ShowGstBreakdown != nil {
		updates["show_gst_breakdown"] = *input.ShowGstBreakdown
	}
	if input.LowStockThreshold != nil {
		updates["low_stock_threshold"] = *input.LowStockThreshold
	}
	if input.ExpiryAlertDays != nil {
		updates["expiry_alert_days"] = *input.ExpiryAlertDays
	}

	if len(updates) > 0 {
		if err := db.WithContext(ctx).Model(&settings).Updates(updates).Error; err != nil {
			return nil, err
		}
	}

	if err := utils.RemoveRedisSingleton[ShopSettings](); err != nil {
		config.LogError(config.GetLogger(), "settings.go", "UpdateShopSettings", "RemoveRedisSingleton", nil, err)
	}

	if err := db.WithContext(ctx).First(&settings, settings.ID).Error; err != nil {
		return nil, err
	}
	return &settings, nil
}

// EnsureDefaultSettings seeds the singleton on first boot.
func EnsureDefaultSettings(ctx context.Context) error {
	db := config.GetDB()

	var count int64
	if err := db.WithContext(ctx).Model(&ShopSettings{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}

	settings := ShopSettings{
		ShopName:              "My Kirana Store",
		ReceiptHeader:         "Welcome!",
		ReceiptFooter:         "Thank you! Visit again!",
		InvoicePrefix:         "INV",
		StartingInvoiceNumber: 1,
		TaxInclusive:          utils.NewTrue(),
		EnableDiscount:        utils.NewTrue(),
		MaxDiscountPercent:    decimal.NewFromInt(50),
		ShowGstBreakdown:      utils.NewTrue(),
		LowStockThreshold:     decimal.NewFromInt(10),
		ExpiryAlertDays:       7,
	}
	return db.WithContext(ctx).Create(&settings).Error
}
