package models

import "time"

// IdempotencyKey provides durable, DB-backed idempotency for sale
// finalization. The attempt id is generated client-side when the payment
// dialog opens, so a retry after a timeout or a refresh re-presents the same
// key instead of producing a second sale.
// Unique constraint: (handler_name, attempt_id).
type IdempotencyKey struct {
	ID          int               `gorm:"primary_key" json:"id"`
	HandlerName string            `gorm:"size:100;not null;index:uniq_idem,unique" json:"handler_name"`
	AttemptId   string            `gorm:"size:64;not null;index:uniq_idem,unique" json:"attempt_id"`
	Status      IdempotencyStatus `gorm:"size:20;not null;index" json:"status"`
	// recorded as soon as a number is drawn, so a retried attempt reuses it
	// instead of burning another one
	InvoiceNumber string    `gorm:"size:50" json:"invoice_number"`
	SequenceNo    int64     `json:"sequence_no"`
	SaleId        *int      `gorm:"index" json:"sale_id"`
	LastError     *string   `gorm:"type:text" json:"last_error"`
	CreatedAt     time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

const handlerFinalizeSale = "FinalizeSale"
