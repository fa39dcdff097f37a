package pos

import (
	"go-pos-console/internal/models"

	"github.com/shopspring/decimal"
)

// Checkout - The payment modal's state for one settlement.
type Checkout struct {
	Method   string
	Net      decimal.Decimal
	tendered decimal.Decimal
}

func NewCheckout(method string, net decimal.Decimal) (*Checkout, error) {
	switch method {
	case models.MethodCash, models.MethodTransfer:
	default:
		return nil, ErrUnknownMethod
	}
	return &Checkout{Method: method, Net: net}, nil
}

// SetTendered records what the customer handed over. Ignored for transfers.
func (c *Checkout) SetTendered(amount decimal.Decimal) {
	c.tendered = amount
}

// AmountPaid is the tendered cash, or exactly the net total for a transfer.
func (c *Checkout) AmountPaid() decimal.Decimal {
	if c.Method == models.MethodTransfer {
		return c.Net
	}
	return c.tendered
}

// Change is max(0, tendered − net) for cash and always 0 for a transfer.
func (c *Checkout) Change() decimal.Decimal {
	if c.Method == models.MethodTransfer {
		return decimal.Zero
	}
	d := c.tendered.Sub(c.Net)
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// CanSubmit blocks cash settlement while tendered < net.
func (c *Checkout) CanSubmit() bool {
	if c.Method == models.MethodTransfer {
		return true
	}
	return c.tendered.GreaterThanOrEqual(c.Net)
}

func (c *Checkout) Payment() models.CheckoutPayment {
	return models.CheckoutPayment{
		Method:     c.Method,
		AmountPaid: c.AmountPaid(),
		Change:     c.Change(),
	}
}
