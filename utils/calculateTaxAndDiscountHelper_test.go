package utils_test

import (
	"testing"

	"github.com/kiranasoft/kirana_backend/utils"
	"github.com/shopspring/decimal"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestCalculateDiscountAmount_Percent(t *testing.T) {
	got := utils.CalculateDiscountAmount(dec("74.00"), dec("10"), utils.DiscountTypePercent)
	if got.Cmp(dec("7.40")) != 0 {
		t.Fatalf("10%% of 74.00: expected 7.40, got %s", got)
	}
}

func TestCalculateDiscountAmount_FlatAmount(t *testing.T) {
	got := utils.CalculateDiscountAmount(dec("100.00"), dec("15.50"), utils.DiscountTypeAmount)
	if got.Cmp(dec("15.50")) != 0 {
		t.Fatalf("expected 15.50, got %s", got)
	}
}

// A flat discount larger than the subtotal clamps to the subtotal; the total
// can reach zero but never go negative.
func TestCalculateDiscountAmount_ClampsFlatToSubtotal(t *testing.T) {
	got := utils.CalculateDiscountAmount(dec("50.00"), dec("80.00"), utils.DiscountTypeAmount)
	if got.Cmp(dec("50.00")) != 0 {
		t.Fatalf("expected clamp to 50.00, got %s", got)
	}
}

func TestCalculateDiscountAmount_ClampsPercentOver100(t *testing.T) {
	got := utils.CalculateDiscountAmount(dec("50.00"), dec("150"), utils.DiscountTypePercent)
	if got.Cmp(dec("50.00")) != 0 {
		t.Fatalf("expected clamp to 50.00, got %s", got)
	}
}

func TestCalculateDiscountAmount_NegativeAndZero(t *testing.T) {
	if got := utils.CalculateDiscountAmount(dec("50.00"), dec("-5"), utils.DiscountTypeAmount); !got.IsZero() {
		t.Fatalf("negative discount: expected 0, got %s", got)
	}
	if got := utils.CalculateDiscountAmount(dec("50.00"), decimal.Zero, utils.DiscountTypePercent); !got.IsZero() {
		t.Fatalf("zero discount: expected 0, got %s", got)
	}
}

// Cart of {22.00 x2 @5%, 10.00 x3 @18%} with a 10% discount:
// subtotal 74.00, discount 7.40, total 66.60,
// tax = 44x0.05 + 30x0.18 = 2.20 + 5.40 = 7.60, split 3.80/3.80.
func TestReceiptScenario(t *testing.T) {
	line1 := utils.CalculateLineGstAmount(dec("22.00"), dec("2"), dec("5"))
	if line1.Cmp(dec("2.20")) != 0 {
		t.Fatalf("line1 gst: expected 2.20, got %s", line1)
	}
	line2 := utils.CalculateLineGstAmount(dec("10.00"), dec("3"), dec("18"))
	if line2.Cmp(dec("5.40")) != 0 {
		t.Fatalf("line2 gst: expected 5.40, got %s", line2)
	}

	subtotal := dec("22.00").Mul(dec("2")).Add(dec("10.00").Mul(dec("3")))
	if subtotal.Cmp(dec("74.00")) != 0 {
		t.Fatalf("subtotal: expected 74.00, got %s", subtotal)
	}

	discount := utils.CalculateDiscountAmount(subtotal, dec("10"), utils.DiscountTypePercent)
	total := subtotal.Sub(discount)
	if total.Cmp(dec("66.60")) != 0 {
		t.Fatalf("total: expected 66.60, got %s", total)
	}

	totalTax := line1.Add(line2)
	if totalTax.Cmp(dec("7.60")) != 0 {
		t.Fatalf("total tax: expected 7.60, got %s", totalTax)
	}
	cgst, sgst := utils.SplitGst(totalTax)
	if cgst.Cmp(dec("3.80")) != 0 || sgst.Cmp(dec("3.80")) != 0 {
		t.Fatalf("split: expected 3.80/3.80, got %s/%s", cgst, sgst)
	}
}

func TestSplitGst_OddPaisa(t *testing.T) {
	cgst, sgst := utils.SplitGst(dec("0.05"))
	if cgst.Cmp(sgst) != 0 {
		t.Fatalf("halves must be equal, got %s/%s", cgst, sgst)
	}
	if cgst.Cmp(dec("0.025")) != 0 {
		t.Fatalf("expected 0.025 per half, got %s", cgst)
	}
}

func TestRoundMoney(t *testing.T) {
	if got := utils.RoundMoney(dec("7.405")); got.Cmp(dec("7.41")) != 0 {
		t.Fatalf("expected 7.41, got %s", got)
	}
	if got := utils.RoundMoney(dec("7.404")); got.Cmp(dec("7.40")) != 0 {
		t.Fatalf("expected 7.40, got %s", got)
	}
}
