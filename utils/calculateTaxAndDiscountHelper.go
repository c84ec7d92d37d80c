package utils

import (
	"github.com/shopspring/decimal"
)

type DiscountType string

const (
	DiscountTypeAmount  DiscountType = "amount"
	DiscountTypePercent DiscountType = "percent"
)

var decimalOneHundred = decimal.NewFromInt(100)

// CalculateDiscountAmount resolves a discount directive against a subtotal.
// The result is always clamped to [0, subtotal]: the legacy behavior allowed
// a flat discount larger than the subtotal (and percent > 100), which produced
// negative totals. That is treated as a bug, not behavior to keep.
func CalculateDiscountAmount(subtotal decimal.Decimal, discount decimal.Decimal, discountType DiscountType) decimal.Decimal {
	var discountAmount decimal.Decimal

	if discount.GreaterThan(decimal.Zero) {
		if discountType == DiscountTypePercent {
			discountAmount = subtotal.Mul(discount).DivRound(decimalOneHundred, 4)
		} else {
			discountAmount = discount
		}
	} else {
		discountAmount = decimal.Zero
	}

	if discountAmount.IsNegative() {
		return decimal.Zero
	}
	if discountAmount.GreaterThan(subtotal) {
		return subtotal
	}
	return discountAmount
}

// CalculateLineGstAmount computes the GST portion of one line.
// Selling prices are tax-inclusive MRP, so the GST amount is informational
// (receipt breakdown) and is never added on top of the line total.
func CalculateLineGstAmount(unitPrice decimal.Decimal, qty decimal.Decimal, gstRate decimal.Decimal) decimal.Decimal {
	lineAmount := unitPrice.Mul(qty)
	return lineAmount.Mul(gstRate).DivRound(decimalOneHundred, 4)
}

// SplitGst splits total GST into equal CGST and SGST halves (intra-state sale).
func SplitGst(totalTax decimal.Decimal) (cgst decimal.Decimal, sgst decimal.Decimal) {
	half := totalTax.DivRound(decimal.NewFromInt(2), 4)
	return half, half
}

// RoundMoney rounds to 2 decimal places (half up). Apply only at the point of
// display or persistence; intermediate math keeps 4dp to avoid compounding error.
func RoundMoney(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
