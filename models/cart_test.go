package models_test

import (
	"testing"

	"github.com/kiranasoft/kirana_backend/models"
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

func biscuits() *models.Product {
	return &models.Product{
		ID:           1,
		Name:         "Parle-G 250g",
		Barcode:      "8901063010017",
		Unit:         "pack",
		SellingPrice: dec("22.00"),
		GstRate:      dec("5"),
	}
}

func oil() *models.Product {
	return &models.Product{
		ID:           2,
		Name:         "Sunflower Oil 500ml",
		Barcode:      "8901030526008",
		Unit:         "bottle",
		SellingPrice: dec("10.00"),
		GstRate:      dec("18"),
	}
}

func TestCartAddItem_MergesByProduct(t *testing.T) {
	cart := models.NewCart()
	cart.AddItem(biscuits(), dec("1"))
	cart.AddItem(biscuits(), dec("2"))

	snap := cart.Snapshot()
	if len(snap.Items) != 1 {
		t.Fatalf("expected a single merged line, got %d", len(snap.Items))
	}
	if snap.Items[0].Quantity.Cmp(dec("3")) != 0 {
		t.Fatalf("expected merged qty 3, got %s", snap.Items[0].Quantity)
	}
}

func TestCartAddItem_IgnoresNonPositiveQty(t *testing.T) {
	cart := models.NewCart()
	cart.AddItem(biscuits(), decimal.Zero)
	cart.AddItem(biscuits(), dec("-2"))

	if len(cart.Snapshot().Items) != 0 {
		t.Fatal("non-positive quantities must not add lines")
	}
}

func TestCartUpdateQuantity_SetsExactlyAndRemovesAtZero(t *testing.T) {
	cart := models.NewCart()
	cart.AddItem(biscuits(), dec("5"))

	cart.UpdateQuantity(1, dec("2"))
	if got := cart.Snapshot().Items[0].Quantity; got.Cmp(dec("2")) != 0 {
		t.Fatalf("expected qty set to 2, got %s", got)
	}

	cart.UpdateQuantity(1, decimal.Zero)
	if len(cart.Snapshot().Items) != 0 {
		t.Fatal("qty 0 must remove the line")
	}
}

func TestCartKeepsInsertionOrder(t *testing.T) {
	cart := models.NewCart()
	cart.AddItem(oil(), dec("1"))
	cart.AddItem(biscuits(), dec("1"))

	snap := cart.Snapshot()
	if snap.Items[0].ProductId != 2 || snap.Items[1].ProductId != 1 {
		t.Fatal("items must stay in the order they were rung up")
	}
}

// The worked receipt: {22.00 x2 @5%, 10.00 x3 @18%}, 10% discount.
func TestCartTotals(t *testing.T) {
	cart := models.NewCart()
	cart.AddItem(biscuits(), dec("2"))
	cart.AddItem(oil(), dec("3"))
	cart.SetDiscount(dec("10"), utils.DiscountTypePercent)

	if got := cart.Subtotal(); got.Cmp(dec("74.00")) != 0 {
		t.Fatalf("subtotal: expected 74.00, got %s", got)
	}
	if got := cart.DiscountAmount(); got.Cmp(dec("7.40")) != 0 {
		t.Fatalf("discount: expected 7.40, got %s", got)
	}
	if got := cart.Total(); got.Cmp(dec("66.60")) != 0 {
		t.Fatalf("total: expected 66.60, got %s", got)
	}

	tax := cart.TaxBreakdown()
	if tax.Total.Cmp(dec("7.60")) != 0 {
		t.Fatalf("tax: expected 7.60, got %s", tax.Total)
	}
	if tax.Cgst.Cmp(dec("3.80")) != 0 || tax.Sgst.Cmp(dec("3.80")) != 0 {
		t.Fatalf("cgst/sgst: expected 3.80/3.80, got %s/%s", tax.Cgst, tax.Sgst)
	}
}

// The discount never drives the total negative, whatever was keyed in.
func TestCartTotal_NeverNegative(t *testing.T) {
	cart := models.NewCart()
	cart.AddItem(oil(), dec("1"))
	cart.SetDiscount(dec("500.00"), utils.DiscountTypeAmount)

	if got := cart.Total(); !got.IsZero() {
		t.Fatalf("expected total 0, got %s", got)
	}
}

func TestCartSnapshot_IsDeepCopy(t *testing.T) {
	cart := models.NewCart()
	cart.AddItem(biscuits(), dec("2"))

	snap := cart.Snapshot()
	cart.UpdateQuantity(1, dec("9"))
	cart.SetDiscount(dec("5"), utils.DiscountTypeAmount)

	if snap.Items[0].Quantity.Cmp(dec("2")) != 0 {
		t.Fatal("snapshot must not see later cart mutations")
	}
	if !snap.Discount.IsZero() {
		t.Fatal("snapshot discount must not see later cart mutations")
	}
}

func TestCartRestore_RoundTrip(t *testing.T) {
	cart := models.NewCart()
	cart.AddItem(biscuits(), dec("2"))
	cart.AddItem(oil(), dec("3"))
	cart.SetDiscount(dec("10"), utils.DiscountTypePercent)
	snap := cart.Snapshot()

	restored := models.NewCart()
	restored.Restore(snap)

	got := restored.Snapshot()
	if len(got.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(got.Items))
	}
	if got.Items[0].ProductId != 1 || got.Items[0].Quantity.Cmp(dec("2")) != 0 {
		t.Fatal("first line not restored")
	}
	if restored.Total().Cmp(cart.Total()) != 0 {
		t.Fatal("restored cart must total the same")
	}
}

func TestSessionCarts_AreIsolatedPerTerminal(t *testing.T) {
	t.Cleanup(func() {
		models.DropSessionCart("till-a")
		models.DropSessionCart("till-b")
	})

	a := models.GetSessionCart("till-a")
	b := models.GetSessionCart("till-b")
	a.AddItem(biscuits(), dec("1"))

	if len(b.Snapshot().Items) != 0 {
		t.Fatal("carts must be isolated per terminal")
	}
	if models.GetSessionCart("till-a") != a {
		t.Fatal("same terminal must get the same cart back")
	}
}
