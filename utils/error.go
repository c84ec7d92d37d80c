package utils

import "errors"

var (
	ErrorRecordNotFound = errors.New("record not found")

	// checkout / billing failures surfaced to the caller as typed results
	ErrorEmptyCart           = errors.New("cart is empty")
	ErrorInsufficientPayment = errors.New("amount received is less than total")
	ErrorStockConflict       = errors.New("requested qty exceeds current stock on hand")
	ErrorAttemptInProgress   = errors.New("finalize attempt is already in progress")
)
