// Package returns turns a completed order into a return request and drives
// the server-owned lifecycle of submitted returns.
package returns

import (
	"errors"
	"sync"

	"go-pos-console/internal/models"

	"github.com/shopspring/decimal"
)

var (
	ErrNoSourceOrder      = errors.New("no source order selected")
	ErrNothingSelected    = errors.New("select at least one item to return")
	ErrOrderNotReturnable = errors.New("only paid orders can be returned")
	ErrLineNotFound       = errors.New("order line not found")
	ErrInvalidReason      = errors.New("unknown return reason")
)

// CandidateLine is one original order line and how much of it goes back.
type CandidateLine struct {
	OrderDetailID int64               `json:"orderDetailId"`
	ProductName   string              `json:"productName"`
	Variant       string              `json:"variant,omitempty"`
	UnitPrice     decimal.Decimal     `json:"unitPrice"`
	MaxQuantity   int                 `json:"maxQuantity"`
	Quantity      int                 `json:"quantity"`
	Reason        models.ReturnReason `json:"reason,omitempty"`
}

// Draft - An in-progress return built from a paid order. It is safe for
// concurrent use.
type Draft struct {
	mu    sync.Mutex
	order *models.OrderDetail
	lines []CandidateLine
	notes string
}

// NewDraft defaults every line to its full original quantity.
func NewDraft(order *models.OrderDetail) (*Draft, error) {
	if order == nil {
		return nil, ErrNoSourceOrder
	}
	if order.PaymentStatus != models.PaymentPaid {
		return nil, ErrOrderNotReturnable
	}
	d := &Draft{order: order}
	for _, it := range order.Items {
		d.lines = append(d.lines, CandidateLine{
			OrderDetailID: it.ID,
			ProductName:   it.ProductName,
			Variant:       it.Variant,
			UnitPrice:     it.Price,
			MaxQuantity:   it.Quantity,
			Quantity:      it.Quantity,
		})
	}
	return d, nil
}

// Order returns the source order.
func (d *Draft) Order() *models.OrderDetail {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.order
}

func (d *Draft) Lines() []CandidateLine {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]CandidateLine(nil), d.lines...)
}

// SetQuantity saturates the requested quantity into [0, original quantity]
// and returns the value kept.
func (d *Draft) SetQuantity(orderDetailID int64, qty int) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	i := d.indexLocked(orderDetailID)
	if i < 0 {
		return 0, ErrLineNotFound
	}
	l := &d.lines[i]
	switch {
	case qty < 0:
		qty = 0
	case qty > l.MaxQuantity:
		qty = l.MaxQuantity
	}
	l.Quantity = qty
	return qty, nil
}

// SetReason applies one reason code to the whole request.
func (d *Draft) SetReason(reason models.ReturnReason) error {
	if !reason.Valid() {
		return ErrInvalidReason
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	for i := range d.lines {
		d.lines[i].Reason = reason
	}
	return nil
}

// SetLineReason records a reason on a single line. Only the reason of the
// first line with a quantity is submitted; see Reason.
func (d *Draft) SetLineReason(orderDetailID int64, reason models.ReturnReason) error {
	if !reason.Valid() {
		return ErrInvalidReason
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	i := d.indexLocked(orderDetailID)
	if i < 0 {
		return ErrLineNotFound
	}
	d.lines[i].Reason = reason
	return nil
}

// Reason is taken from the first line with a return quantity. Per-line
// reasons on later lines are dropped; the backend stores one reason.
func (d *Draft) Reason() models.ReturnReason {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.reasonLocked()
}

func (d *Draft) reasonLocked() models.ReturnReason {
	for _, l := range d.lines {
		if l.Quantity > 0 {
			return l.Reason
		}
	}
	return ""
}

func (d *Draft) SetNotes(notes string) {
	d.mu.Lock()
	d.notes = notes
	d.mu.Unlock()
}

func (d *Draft) Notes() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.notes
}

// ReturnType is FULL when every original unit is selected, PARTIAL when
// some are, and "" when none are.
func (d *Draft) ReturnType() models.ReturnType {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.returnTypeLocked()
}

func (d *Draft) returnTypeLocked() models.ReturnType {
	selected, original := 0, 0
	for _, l := range d.lines {
		selected += l.Quantity
		original += l.MaxQuantity
	}
	switch {
	case selected == 0:
		return ""
	case selected == original:
		return models.ReturnFull
	default:
		return models.ReturnPartial
	}
}

// RefundRatio spreads order-level discounts over returned units:
// net total / gross product total. Without a positive gross total it is 1;
// a fully discounted order refunds nothing.
func (d *Draft) RefundRatio() decimal.Decimal {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.ratioLocked()
}

func (d *Draft) ratioLocked() decimal.Decimal {
	if d.order == nil {
		return decimal.NewFromInt(1)
	}
	gross := d.order.Payment.TotalProductPrice
	net := d.order.Payment.TotalOrderPrice
	if !gross.IsPositive() {
		return decimal.NewFromInt(1)
	}
	if net.IsNegative() {
		return decimal.Zero
	}
	return net.Div(gross)
}

type LinePreview struct {
	OrderDetailID   int64           `json:"orderDetailId"`
	Quantity        int             `json:"quantity"`
	RefundUnitPrice decimal.Decimal `json:"refundUnitPrice"`
	RefundAmount    decimal.Decimal `json:"refundAmount"`
}

type Preview struct {
	ReturnType models.ReturnType `json:"returnType"`
	Ratio      decimal.Decimal   `json:"ratio"`
	Lines      []LinePreview     `json:"lines"`
	Total      decimal.Decimal   `json:"total"`
}

// Preview prices every line at its pro-rated refund unit price.
func (d *Draft) Preview() Preview {
	d.mu.Lock()
	defer d.mu.Unlock()
	ratio := d.ratioLocked()
	p := Preview{ReturnType: d.returnTypeLocked(), Ratio: ratio, Total: decimal.Zero}
	for _, l := range d.lines {
		unit := l.UnitPrice.Mul(ratio).Round(2)
		amount := unit.Mul(decimal.NewFromInt(int64(l.Quantity)))
		p.Lines = append(p.Lines, LinePreview{
			OrderDetailID:   l.OrderDetailID,
			Quantity:        l.Quantity,
			RefundUnitPrice: unit,
			RefundAmount:    amount,
		})
		p.Total = p.Total.Add(amount)
	}
	return p
}

// Build validates the draft and produces the submission payload. Only lines
// with a quantity are included.
func (d *Draft) Build() (*models.CreateReturnRequest, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.order == nil {
		return nil, ErrNoSourceOrder
	}
	rt := d.returnTypeLocked()
	if rt == "" {
		return nil, ErrNothingSelected
	}

	ratio := d.ratioLocked()
	req := &models.CreateReturnRequest{
		OrderID:      d.order.ID,
		ReturnType:   rt,
		ReturnReason: d.reasonLocked(),
		Notes:        d.notes,
	}
	for _, l := range d.lines {
		if l.Quantity == 0 {
			continue
		}
		req.Lines = append(req.Lines, models.CreateReturnLine{
			OrderDetailID:  l.OrderDetailID,
			ReturnQuantity: l.Quantity,
			ReturnPrice:    l.UnitPrice.Mul(ratio).Round(2),
		})
	}
	return req, nil
}

func (d *Draft) indexLocked(id int64) int {
	for i, l := range d.lines {
		if l.OrderDetailID == id {
			return i
		}
	}
	return -1
}
