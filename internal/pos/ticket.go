package pos

import (
	"go-pos-console/internal/models"

	"github.com/shopspring/decimal"
)

// LineItem - One product+variant in a ticket's cart.
type LineItem struct {
	ProductID     int64           `json:"productId"`
	Name          string          `json:"name"`
	UnitPrice     decimal.Decimal `json:"unitPrice"`               // already discount-adjusted
	OriginalPrice decimal.Decimal `json:"originalPrice,omitempty"` // display snapshot, zero when none
	Quantity      int             `json:"quantity"`
	Variant       string          `json:"variant,omitempty"`
	Image         string          `json:"image,omitempty"`
}

// Subtotal is unit price × quantity.
func (l LineItem) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

type CustomerRef struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

// Ticket - A client-local draft sale shown as a tab. It lives only in memory.
type Ticket struct {
	ID       string          `json:"id"`
	Lines    []LineItem      `json:"lines"`
	Customer *CustomerRef    `json:"customer,omitempty"`
	Voucher  *models.Voucher `json:"voucher,omitempty"`
}

// VoucherID returns the applied discount reference, nil when none.
func (t Ticket) VoucherID() *int64 {
	if t.Voucher == nil {
		return nil
	}
	id := t.Voucher.ID
	return &id
}

type Totals struct {
	Gross    decimal.Decimal `json:"gross"`
	Discount decimal.Decimal `json:"discount"`
	Net      decimal.Decimal `json:"net"`
	Items    int             `json:"items"`
}

// Totals are always derived from the lines; they are never stored.
func (t Ticket) Totals() Totals {
	gross := decimal.Zero
	items := 0
	for _, l := range t.Lines {
		gross = gross.Add(l.Subtotal())
		items += l.Quantity
	}
	discount := PreviewDiscount(t.Voucher, gross)
	return Totals{
		Gross:    gross,
		Discount: discount,
		Net:      gross.Sub(discount),
		Items:    items,
	}
}

// PreviewDiscount estimates what the backend will take off. PERCENT is
// capped by the voucher's max value, and no discount exceeds the gross.
func PreviewDiscount(v *models.Voucher, gross decimal.Decimal) decimal.Decimal {
	if v == nil || !gross.IsPositive() {
		return decimal.Zero
	}
	if v.MinOrderValue.IsPositive() && gross.LessThan(v.MinOrderValue) {
		return decimal.Zero
	}

	var d decimal.Decimal
	switch v.Type {
	case models.DiscountPercent:
		d = gross.Mul(v.Value).Div(decimal.NewFromInt(100)).Round(2)
		if v.MaxDiscountValue.IsPositive() && d.GreaterThan(v.MaxDiscountValue) {
			d = v.MaxDiscountValue
		}
	case models.DiscountFixed:
		d = v.Value
	default:
		return decimal.Zero
	}

	if d.GreaterThan(gross) {
		return gross
	}
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

func (t *Ticket) clone() Ticket {
	out := *t
	out.Lines = append([]LineItem(nil), t.Lines...)
	if t.Customer != nil {
		c := *t.Customer
		out.Customer = &c
	}
	if t.Voucher != nil {
		v := *t.Voucher
		out.Voucher = &v
	}
	return out
}

func (t *Ticket) find(productID int64, variant string) int {
	for i, l := range t.Lines {
		if l.ProductID == productID && l.Variant == variant {
			return i
		}
	}
	return -1
}

// settle removes what sold carried from the ticket. Quantities added while
// the order was being created stay behind, as do a customer or voucher that
// was changed in the meantime.
func (t *Ticket) settle(sold Ticket) {
	for _, l := range sold.Lines {
		i := t.find(l.ProductID, l.Variant)
		if i < 0 {
			continue
		}
		t.Lines[i].Quantity -= l.Quantity
		if t.Lines[i].Quantity <= 0 {
			t.Lines = append(t.Lines[:i], t.Lines[i+1:]...)
		}
	}
	if len(t.Lines) == 0 {
		t.Lines = nil
	}
	if sameCustomer(t.Customer, sold.Customer) {
		t.Customer = nil
	}
	if t.Voucher != nil && sold.Voucher != nil && t.Voucher.ID == sold.Voucher.ID {
		t.Voucher = nil
	}
}

func sameCustomer(a, b *CustomerRef) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
