package models

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/kiranasoft/kirana_backend/config"
	"github.com/kiranasoft/kirana_backend/utils"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// HeldBill is a suspended cart parked durably so it survives a browser
// refresh or a terminal swap. The items snapshot is a deep copy; the live
// cart can keep changing without touching it. Any staff member may resume
// any held bill (no per-staff lock, deliberately).
type HeldBill struct {
	ID           string             `gorm:"size:36;primary_key" json:"id"` // uuid
	BillName     string             `gorm:"size:100" json:"bill_name"`
	Items        json.RawMessage    `gorm:"type:json;not null" json:"items"`
	Subtotal     decimal.Decimal    `gorm:"type:decimal(20,4);default:0" json:"subtotal"`
	Discount     decimal.Decimal    `gorm:"type:decimal(20,4);default:0" json:"discount"`
	DiscountType utils.DiscountType `gorm:"size:10;default:'amount'" json:"discount_type"`
	HeldBy       int                `gorm:"not null" json:"held_by"`
	HeldByName   string             `gorm:"size:100" json:"held_by_name"`
	HeldAt       time.Time          `gorm:"autoCreateTime;index" json:"held_at"`
}

func (b *HeldBill) Snapshot() (*CartSnapshot, error) {
	var snap CartSnapshot
	if err := json.Unmarshal(b.Items, &snap); err != nil {
		return nil, err
	}
	return &snap, nil
}

// HoldCart persists a snapshot of the cart and clears nothing; the caller
// decides whether to clear the live cart afterwards.
func HoldCart(ctx context.Context, snap *CartSnapshot, billName string) (*HeldBill, error) {
	db := config.GetDB()

	if len(snap.Items) == 0 {
		return nil, utils.ErrorEmptyCart
	}

	itemsJSON, err := json.Marshal(snap)
	if err != nil {
		return nil, err
	}

	heldBy, _ := utils.GetUserIdFromContext(ctx)
	heldByName, _ := utils.GetUserFullNameFromContext(ctx)

	bill := HeldBill{
		ID:           uuid.NewString(),
		BillName:     billName,
		Items:        itemsJSON,
		Subtotal:     snap.Subtotal(),
		Discount:     snap.Discount,
		DiscountType: snap.DiscountType,
		HeldBy:       heldBy,
		HeldByName:   heldByName,
	}
	if err := db.WithContext(ctx).Create(&bill).Error; err != nil {
		return nil, err
	}
	return &bill, nil
}

// ResumeHeldBill atomically retrieves AND removes the bill: the row is locked
// FOR UPDATE, read, and deleted in one transaction. Of two concurrent resumes
// for the same id, exactly one commits the delete; the loser sees
// ErrorRecordNotFound. A bill can therefore never be rung up twice.
func ResumeHeldBill(ctx context.Context, id string) (*HeldBill, error) {
	db := config.GetDB()

	tx := db.Begin()

	var bill HeldBill
	if err := tx.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("id = ?", id).
		First(&bill).Error; err != nil {
		tx.Rollback()
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, utils.ErrorRecordNotFound
		}
		return nil, err
	}

	res := tx.WithContext(ctx).Where("id = ?", id).Delete(&HeldBill{})
	if res.Error != nil {
		tx.Rollback()
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		tx.Rollback()
		return nil, utils.ErrorRecordNotFound
	}

	if err := tx.Commit().Error; err != nil {
		return nil, err
	}
	return &bill, nil
}

// DeleteHeldBill is idempotent; deleting an already-resumed or already-deleted
// bill is a no-op.
func DeleteHeldBill(ctx context.Context, id string) error {
	db := config.GetDB()
	return db.WithContext(ctx).Where("id = ?", id).Delete(&HeldBill{}).Error
}

func ListHeldBills(ctx context.Context) ([]*HeldBill, error) {
	db := config.GetDB()

	var bills []*HeldBill
	if err := db.WithContext(ctx).Order("held_at DESC").Find(&bills).Error; err != nil {
		return nil, err
	}
	return bills, nil
}
