package models

import (
	"sync"

	"github.com/kiranasoft/kirana_backend/utils"
	"github.com/shopspring/decimal"
)

// CartItem is a frozen snapshot of the product at add-to-cart time plus the
// requested quantity. Discount is a reserved per-line field; cart totals
// ignore it for now.
type CartItem struct {
	ProductId   int             `json:"product_id"`
	ProductName string          `json:"product_name"`
	Barcode     string          `json:"barcode"`
	Unit        string          `json:"unit"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	GstRate     decimal.Decimal `json:"gst_rate"`
	Quantity    decimal.Decimal `json:"quantity"`
	Discount    decimal.Decimal `json:"discount"`
}

type TaxBreakdown struct {
	Cgst  decimal.Decimal `json:"cgst"`
	Sgst  decimal.Decimal `json:"sgst"`
	Total decimal.Decimal `json:"total"`
}

// Cart is session-scoped, server-owned state. It never touches stock or
// persistence; items live here until the cart is held or finalized.
// Items keep insertion order so the bill reads the way it was rung up.
type Cart struct {
	mu           sync.Mutex
	items        []*CartItem
	discount     decimal.Decimal
	discountType utils.DiscountType
}

// CartSnapshot is a deep copy safe to hand to hold/finalize while the live
// cart keeps changing.
type CartSnapshot struct {
	Items        []CartItem         `json:"items"`
	Discount     decimal.Decimal    `json:"discount"`
	DiscountType utils.DiscountType `json:"discount_type"`
}

func NewCart() *Cart {
	return &Cart{discountType: utils.DiscountTypeAmount}
}

// AddItem merges by product id, incrementing quantity. qty <= 0 is a no-op.
func (c *Cart) AddItem(product *Product, qty decimal.Decimal) {
	if !qty.GreaterThan(decimal.Zero) {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, item := range c.items {
		if item.ProductId == product.ID {
			item.Quantity = item.Quantity.Add(qty)
			return
		}
	}
	c.items = append(c.items, &CartItem{
		ProductId:   product.ID,
		ProductName: product.Name,
		Barcode:     product.Barcode,
		Unit:        product.Unit,
		UnitPrice:   product.SellingPrice,
		GstRate:     product.GstRate,
		Quantity:    qty,
		Discount:    decimal.Zero,
	})
}

// UpdateQuantity sets the quantity exactly; qty <= 0 removes the line.
func (c *Cart) UpdateQuantity(productId int, qty decimal.Decimal) {
	if !qty.GreaterThan(decimal.Zero) {
		c.RemoveItem(productId)
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, item := range c.items {
		if item.ProductId == productId {
			item.Quantity = qty
			return
		}
	}
}

func (c *Cart) RemoveItem(productId int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, item := range c.items {
		if item.ProductId == productId {
			c.items = append(c.items[:i], c.items[i+1:]...)
			return
		}
	}
}

func (c *Cart) SetDiscount(value decimal.Decimal, discountType utils.DiscountType) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.discount = value
	c.discountType = discountType
}

func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = nil
	c.discount = decimal.Zero
	c.discountType = utils.DiscountTypeAmount
}

func (c *Cart) Snapshot() *CartSnapshot {
	c.mu.Lock()
	defer c.mu.Unlock()

	snap := &CartSnapshot{
		Items:        make([]CartItem, 0, len(c.items)),
		Discount:     c.discount,
		DiscountType: c.discountType,
	}
	for _, item := range c.items {
		snap.Items = append(snap.Items, *item)
	}
	return snap
}

// Restore replaces cart contents with a held snapshot.
func (c *Cart) Restore(snap *CartSnapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make([]*CartItem, 0, len(snap.Items))
	for i := range snap.Items {
		item := snap.Items[i]
		c.items = append(c.items, &item)
	}
	c.discount = snap.Discount
	c.discountType = snap.DiscountType
}

func (c *Cart) Subtotal() decimal.Decimal {
	return c.Snapshot().Subtotal()
}

func (c *Cart) DiscountAmount() decimal.Decimal {
	return c.Snapshot().DiscountAmount()
}

func (c *Cart) TaxBreakdown() TaxBreakdown {
	return c.Snapshot().TaxBreakdown()
}

func (c *Cart) Total() decimal.Decimal {
	return c.Snapshot().Total()
}

func (s *CartSnapshot) Subtotal() decimal.Decimal {
	subtotal := decimal.Zero
	for i := range s.Items {
		subtotal = subtotal.Add(s.Items[i].UnitPrice.Mul(s.Items[i].Quantity))
	}
	return subtotal
}

func (s *CartSnapshot) DiscountAmount() decimal.Decimal {
	return utils.CalculateDiscountAmount(s.Subtotal(), s.Discount, s.DiscountType)
}

// GST is carved out of the tax-inclusive MRP: informational split, never
// added to the total.
func (s *CartSnapshot) TaxBreakdown() TaxBreakdown {
	totalTax := decimal.Zero
	for i := range s.Items {
		totalTax = totalTax.Add(utils.CalculateLineGstAmount(s.Items[i].UnitPrice, s.Items[i].Quantity, s.Items[i].GstRate))
	}
	cgst, sgst := utils.SplitGst(totalTax)
	return TaxBreakdown{Cgst: cgst, Sgst: sgst, Total: totalTax}
}

func (s *CartSnapshot) Total() decimal.Decimal {
	return s.Subtotal().Sub(s.DiscountAmount())
}

/* session cart registry */

var cartRegistry = struct {
	mu    sync.Mutex
	carts map[string]*Cart
}{carts: make(map[string]*Cart)}

// GetSessionCart returns the cart for a terminal session, creating it lazily.
func GetSessionCart(terminalId string) *Cart {
	cartRegistry.mu.Lock()
	defer cartRegistry.mu.Unlock()

	cart, ok := cartRegistry.carts[terminalId]
	if !ok {
		cart = NewCart()
		cartRegistry.carts[terminalId] = cart
	}
	return cart
}

func DropSessionCart(terminalId string) {
	cartRegistry.mu.Lock()
	defer cartRegistry.mu.Unlock()
	delete(cartRegistry.carts, terminalId)
}
