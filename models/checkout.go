package models

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kiranasoft/kirana_backend/config"
	"github.com/kiranasoft/kirana_backend/utils"
	"github.com/shopspring/decimal"
)

type NewCheckout struct {
	// AttemptId is generated client-side when the payment dialog opens. A
	// retry after a timeout or refresh re-sends the same id and gets the
	// already-committed sale back instead of creating a second one.
	AttemptId      string           `json:"attempt_id" binding:"required"`
	PaymentMode    PaymentMode      `json:"payment_mode" binding:"required"`
	AmountReceived *decimal.Decimal `json:"amount_received"` // cash only
}

type CheckoutResult struct {
	Sale           *Sale           `json:"sale"`
	ChangeReturned decimal.Decimal `json:"change_returned"`
}

// staleAttemptAge is how long a STARTED finalize attempt may sit before a
// retry is allowed to take it over (the original caller is presumed dead).
const staleAttemptAge = time.Minute

// FinalizeSale turns a cart snapshot into an immutable sale:
// validate -> price -> claim attempt -> number -> one transaction writing the
// sale, its items, one stock_out ledger entry per line and the per-product
// stock decrements. Everything in the transaction commits or nothing does.
//
// If any line's quantity exceeds on-hand stock at commit time the whole sale
// aborts with ErrorStockConflict; the issued invoice number stays consumed
// (gaps are accepted, duplicates are not).
func FinalizeSale(ctx context.Context, snap *CartSnapshot, input *NewCheckout) (*CheckoutResult, error) {
	db := config.GetDB()
	logger := config.GetLogger()

	if len(snap.Items) == 0 {
		return nil, utils.ErrorEmptyCart
	}
	if !input.PaymentMode.Valid() {
		return nil, fmt.Errorf("invalid payment mode %q", input.PaymentMode)
	}

	settings, err := GetShopSettings(ctx)
	if err != nil {
		return nil, err
	}
	if snap.Discount.GreaterThan(decimal.Zero) {
		if settings.EnableDiscount != nil && !*settings.EnableDiscount {
			return nil, errors.New("discounts are disabled")
		}
		if snap.DiscountType == utils.DiscountTypePercent && snap.Discount.GreaterThan(settings.MaxDiscountPercent) {
			return nil, fmt.Errorf("discount exceeds maximum of %s%%", settings.MaxDiscountPercent)
		}
	}

	subtotal := utils.RoundMoney(snap.Subtotal())
	discountAmount := utils.RoundMoney(snap.DiscountAmount())
	taxes := snap.TaxBreakdown()
	total := subtotal.Sub(discountAmount)

	var received, change *decimal.Decimal
	if input.PaymentMode == PaymentModeCash {
		if input.AmountReceived == nil {
			return nil, errors.New("amount_received is required for cash payment")
		}
		if input.AmountReceived.LessThan(total) {
			return nil, utils.ErrorInsufficientPayment
		}
		c := utils.RoundMoney(input.AmountReceived.Sub(total))
		received = input.AmountReceived
		change = &c
	}

	// cheap pre-check; the decrement inside the transaction is the authority
	if err := validateCartStock(ctx, snap); err != nil {
		return nil, err
	}

	key, priorSale, err := claimFinalizeAttempt(ctx, input.AttemptId)
	if err != nil {
		return nil, err
	}
	if priorSale != nil {
		return checkoutResultFor(priorSale), nil
	}

	// A retried attempt that already drew a number keeps it: the number was
	// consumed the moment it was issued.
	invoiceNumber := key.InvoiceNumber
	sequenceNo := key.SequenceNo
	if invoiceNumber == "" {
		invoiceNumber, sequenceNo, err = NextInvoiceNumber(ctx)
		if err != nil {
			markAttemptFailed(ctx, key, err)
			return nil, err
		}
		if err := db.WithContext(ctx).Model(key).
			Updates(map[string]interface{}{"invoice_number": invoiceNumber, "sequence_no": sequenceNo}).Error; err != nil {
			markAttemptFailed(ctx, key, err)
			return nil, err
		}
	}

	createdBy, _ := utils.GetUserIdFromContext(ctx)
	createdByName, _ := utils.GetUserFullNameFromContext(ctx)

	sale := Sale{
		SequenceNo:     sequenceNo,
		InvoiceNumber:  invoiceNumber,
		Subtotal:       subtotal,
		DiscountValue:  snap.Discount,
		DiscountType:   snap.DiscountType,
		DiscountAmount: discountAmount,
		CgstAmount:     utils.RoundMoney(taxes.Cgst),
		SgstAmount:     utils.RoundMoney(taxes.Sgst),
		TotalTax:       utils.RoundMoney(taxes.Total),
		TotalAmount:    total,
		PaymentMode:    input.PaymentMode,
		AmountReceived: received,
		ChangeReturned: change,
		Status:         SaleStatusCompleted,
		SaleDate:       time.Now(),
		CreatedBy:      createdBy,
		CreatedByName:  createdByName,
	}
	for i := range snap.Items {
		item := &snap.Items[i]
		lineAmount := item.UnitPrice.Mul(item.Quantity)
		sale.Items = append(sale.Items, SaleItem{
			ProductId:   item.ProductId,
			ProductName: item.ProductName,
			Barcode:     item.Barcode,
			Unit:        item.Unit,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Discount:    item.Discount,
			GstRate:     item.GstRate,
			GstAmount:   utils.RoundMoney(utils.CalculateLineGstAmount(item.UnitPrice, item.Quantity, item.GstRate)),
			Subtotal:    utils.RoundMoney(lineAmount),
		})
	}

	tx := db.Begin()

	if err := tx.WithContext(ctx).Create(&sale).Error; err != nil {
		tx.Rollback()
		markAttemptFailed(ctx, key, err)
		return nil, err
	}

	// one ledger entry + one atomic decrement per line
	for i := range sale.Items {
		saleItem := &sale.Items[i]
		_, err := applyMovementTx(tx, ctx, &NewStockMovement{
			ProductId:    saleItem.ProductId,
			MovementType: MovementTypeStockOut,
			Quantity:     saleItem.Quantity,
			Reason:       "sale",
			saleId:       &sale.ID,
			saleItemId:   &saleItem.ID,
		})
		if err != nil {
			tx.Rollback()
			markAttemptFailed(ctx, key, err)
			if errors.Is(err, utils.ErrorStockConflict) {
				return nil, fmt.Errorf("%s: %w", saleItem.ProductName, utils.ErrorStockConflict)
			}
			return nil, err
		}
	}

	// success marker rides in the same transaction, so "sale exists" and
	// "attempt succeeded" are a single atomic fact
	if err := tx.WithContext(ctx).Model(&IdempotencyKey{}).
		Where("id = ?", key.ID).
		Updates(map[string]interface{}{"status": IdempotencyStatusSucceeded, "sale_id": sale.ID}).Error; err != nil {
		tx.Rollback()
		markAttemptFailed(ctx, key, err)
		return nil, err
	}

	if err := tx.Commit().Error; err != nil {
		markAttemptFailed(ctx, key, err)
		return nil, err
	}

	logger.WithField("invoice_number", sale.InvoiceNumber).Info("sale finalized")
	return checkoutResultFor(&sale), nil
}

func checkoutResultFor(sale *Sale) *CheckoutResult {
	change := decimal.Zero
	if sale.ChangeReturned != nil {
		change = *sale.ChangeReturned
	}
	return &CheckoutResult{Sale: sale, ChangeReturned: change}
}

// validateCartStock rejects obviously oversold carts before an invoice number
// is burned. It reads without locking; the serialized decrement in
// applyMovementTx remains the only authority.
func validateCartStock(ctx context.Context, snap *CartSnapshot) error {
	db := config.GetDB()

	for i := range snap.Items {
		item := &snap.Items[i]
		var currentStock decimal.Decimal
		if err := db.WithContext(ctx).Model(&Product{}).
			Where("id = ? AND status = ?", item.ProductId, ProductStatusActive).
			Select("current_stock").
			Scan(&currentStock).Error; err != nil {
			return err
		}
		if currentStock.LessThan(item.Quantity) {
			return fmt.Errorf("%s: %w", item.ProductName, utils.ErrorStockConflict)
		}
	}
	return nil
}

// claimFinalizeAttempt takes ownership of the attempt id. Returns the
// recorded sale when a previous run of the same attempt already committed.
func claimFinalizeAttempt(ctx context.Context, attemptId string) (*IdempotencyKey, *Sale, error) {
	db := config.GetDB()

	key := IdempotencyKey{
		HandlerName: handlerFinalizeSale,
		AttemptId:   attemptId,
		Status:      IdempotencyStatusStarted,
	}
	if err := db.WithContext(ctx).Create(&key).Error; err == nil {
		return &key, nil, nil
	}

	// unique index hit: someone (maybe us, earlier) already claimed it
	var existing IdempotencyKey
	if err := db.WithContext(ctx).
		Where("handler_name = ? AND attempt_id = ?", handlerFinalizeSale, attemptId).
		First(&existing).Error; err != nil {
		return nil, nil, err
	}

	switch existing.Status {
	case IdempotencyStatusSucceeded:
		if existing.SaleId == nil {
			return nil, nil, errors.New("attempt succeeded but has no sale recorded")
		}
		sale, err := GetSale(ctx, *existing.SaleId)
		if err != nil {
			return nil, nil, err
		}
		return &existing, sale, nil
	case IdempotencyStatusStarted:
		if time.Since(existing.UpdatedAt) < staleAttemptAge {
			return nil, nil, utils.ErrorAttemptInProgress
		}
	}

	// FAILED or stale STARTED: take over, but only if nobody else got there
	// first. The winner's update bumps updated_at, so the loser's guarded
	// update matches zero rows instead of running the attempt a second time.
	res := db.WithContext(ctx).Model(&IdempotencyKey{}).
		Where("id = ? AND status = ? AND updated_at <= ?", existing.ID, existing.Status, existing.UpdatedAt).
		Updates(map[string]interface{}{"status": IdempotencyStatusStarted, "last_error": nil})
	if res.Error != nil {
		return nil, nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil, utils.ErrorAttemptInProgress
	}

	// A taken-over key that already drew a number may belong to a run whose
	// transaction committed even though its success marker was lost (ambiguous
	// commit, or a racer overwriting the key before markAttemptFailed was
	// guarded). The invoice number is unique, so the sale settles it.
	if existing.InvoiceNumber != "" {
		sale, err := getSaleByInvoiceNumber(ctx, existing.InvoiceNumber)
		if err != nil && !errors.Is(err, utils.ErrorRecordNotFound) {
			return nil, nil, err
		}
		if sale != nil {
			if err := db.WithContext(ctx).Model(&IdempotencyKey{}).
				Where("id = ?", existing.ID).
				Updates(map[string]interface{}{"status": IdempotencyStatusSucceeded, "sale_id": sale.ID}).Error; err != nil {
				return nil, nil, err
			}
			return &existing, sale, nil
		}
	}
	return &existing, nil, nil
}

// markAttemptFailed records the failure on keys this run still owns. The
// STARTED guard keeps it from clobbering a SUCCEEDED marker another run
// committed after taking the attempt over.
func markAttemptFailed(ctx context.Context, key *IdempotencyKey, cause error) {
	db := config.GetDB()

	msg := cause.Error()
	if err := db.WithContext(ctx).Model(&IdempotencyKey{}).
		Where("id = ? AND status = ?", key.ID, IdempotencyStatusStarted).
		Updates(map[string]interface{}{"status": IdempotencyStatusFailed, "last_error": msg}).Error; err != nil {
		config.LogError(config.GetLogger(), "checkout.go", "markAttemptFailed", "update idempotency key", key.AttemptId, err)
	}
}
