// Package pos holds the in-store sale workflow: a set of open tickets (tabs),
// each an independent cart, and checkout settlement.
package pos

import (
	"context"
	"errors"
	"log"
	"strconv"
	"sync"

	"go-pos-console/internal/models"

	"github.com/shopspring/decimal"
)

var (
	ErrLastTicket          = errors.New("at least one ticket must stay open")
	ErrTicketNotFound      = errors.New("ticket not found")
	ErrLineNotFound        = errors.New("line not found in ticket")
	ErrEmptyTicket         = errors.New("ticket has no items")
	ErrInsufficientPayment = errors.New("amount tendered is less than the total")
	ErrUnknownMethod       = errors.New("unknown payment method")
)

// Settler persists a ticket as an order on the backend.
type Settler interface {
	CreateOrder(ctx context.Context, req models.CreateOrderRequest) (*models.OrderDetail, error)
}

// Workspace - Every open ticket plus which one is active. Cart operations
// always target the active ticket.
type Workspace struct {
	mu        sync.Mutex
	tickets   []*Ticket
	active    string
	nextLabel int

	subMu   sync.Mutex
	subs    map[int]func(Snapshot)
	nextSub int
}

// Snapshot is a copy of the workspace for display.
type Snapshot struct {
	Tickets []Ticket `json:"tickets"`
	Active  string   `json:"active"`
}

// NewWorkspace starts with one empty ticket labelled "1".
func NewWorkspace() *Workspace {
	w := &Workspace{subs: make(map[int]func(Snapshot))}
	t := w.newTicketLocked()
	w.active = t.ID
	return w
}

func (w *Workspace) newTicketLocked() *Ticket {
	w.nextLabel++
	t := &Ticket{ID: strconv.Itoa(w.nextLabel)}
	w.tickets = append(w.tickets, t)
	return t
}

func (w *Workspace) Subscribe(fn func(Snapshot)) func() {
	w.subMu.Lock()
	id := w.nextSub
	w.nextSub++
	w.subs[id] = fn
	w.subMu.Unlock()
	return func() {
		w.subMu.Lock()
		delete(w.subs, id)
		w.subMu.Unlock()
	}
}

func (w *Workspace) notify() {
	s := w.Snapshot()
	w.subMu.Lock()
	fns := make([]func(Snapshot), 0, len(w.subs))
	for _, fn := range w.subs {
		fns = append(fns, fn)
	}
	w.subMu.Unlock()
	for _, fn := range fns {
		fn(s)
	}
}

func (w *Workspace) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	s := Snapshot{Active: w.active, Tickets: make([]Ticket, len(w.tickets))}
	for i, t := range w.tickets {
		s.Tickets[i] = t.clone()
	}
	return s
}

// Active returns a copy of the active ticket.
func (w *Workspace) Active() Ticket {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.activeLocked().clone()
}

func (w *Workspace) activeLocked() *Ticket {
	for _, t := range w.tickets {
		if t.ID == w.active {
			return t
		}
	}
	// unreachable while the one-ticket invariant holds
	return w.tickets[0]
}

func (w *Workspace) indexLocked(id string) int {
	for i, t := range w.tickets {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// mutate runs fn against the active ticket and notifies on success.
func (w *Workspace) mutate(fn func(t *Ticket) error) (Ticket, error) {
	w.mu.Lock()
	t := w.activeLocked()
	if err := fn(t); err != nil {
		w.mu.Unlock()
		return Ticket{}, err
	}
	out := t.clone()
	w.mu.Unlock()
	w.notify()
	return out, nil
}

// --- TABS ---

// OpenTicket adds a new tab and makes it active.
func (w *Workspace) OpenTicket() Ticket {
	w.mu.Lock()
	t := w.newTicketLocked()
	w.active = t.ID
	out := t.clone()
	w.mu.Unlock()
	w.notify()
	return out
}

func (w *Workspace) SwitchTicket(id string) error {
	w.mu.Lock()
	if w.indexLocked(id) < 0 {
		w.mu.Unlock()
		return ErrTicketNotFound
	}
	w.active = id
	w.mu.Unlock()
	w.notify()
	return nil
}

// CloseTicket discards a tab. The last remaining tab cannot be closed.
func (w *Workspace) CloseTicket(id string) error {
	w.mu.Lock()
	i := w.indexLocked(id)
	if i < 0 {
		w.mu.Unlock()
		return ErrTicketNotFound
	}
	if len(w.tickets) == 1 {
		w.mu.Unlock()
		return ErrLastTicket
	}
	w.tickets = append(w.tickets[:i], w.tickets[i+1:]...)
	if w.active == id {
		if i >= len(w.tickets) {
			i = len(w.tickets) - 1
		}
		w.active = w.tickets[i].ID
	}
	w.mu.Unlock()
	w.notify()
	return nil
}

// --- CART ---

// AddProduct increments an existing product+variant line or appends a new
// one with quantity 1, capturing the current selling price.
func (w *Workspace) AddProduct(p models.Product, variant string) (Ticket, error) {
	return w.mutate(func(t *Ticket) error {
		if i := t.find(p.ID, variant); i >= 0 {
			t.Lines[i].Quantity++
			return nil
		}
		line := LineItem{
			ProductID: p.ID,
			Name:      p.Name,
			UnitPrice: p.SellingPrice,
			Quantity:  1,
			Variant:   variant,
			Image:     p.Image,
		}
		if p.OriginalPrice.GreaterThan(p.SellingPrice) {
			line.OriginalPrice = p.OriginalPrice
		}
		t.Lines = append(t.Lines, line)
		return nil
	})
}

// SetQuantity sets a line's quantity exactly; zero or less removes the line.
func (w *Workspace) SetQuantity(productID int64, variant string, qty int) (Ticket, error) {
	return w.mutate(func(t *Ticket) error {
		i := t.find(productID, variant)
		if i < 0 {
			return ErrLineNotFound
		}
		if qty <= 0 {
			t.Lines = append(t.Lines[:i], t.Lines[i+1:]...)
			return nil
		}
		t.Lines[i].Quantity = qty
		return nil
	})
}

func (w *Workspace) Increment(productID int64, variant string) (Ticket, error) {
	return w.mutate(func(t *Ticket) error {
		i := t.find(productID, variant)
		if i < 0 {
			return ErrLineNotFound
		}
		t.Lines[i].Quantity++
		return nil
	})
}

// Decrement floors at 1; removal goes through RemoveLine.
func (w *Workspace) Decrement(productID int64, variant string) (Ticket, error) {
	return w.mutate(func(t *Ticket) error {
		i := t.find(productID, variant)
		if i < 0 {
			return ErrLineNotFound
		}
		if t.Lines[i].Quantity > 1 {
			t.Lines[i].Quantity--
		}
		return nil
	})
}

func (w *Workspace) RemoveLine(productID int64, variant string) (Ticket, error) {
	return w.SetQuantity(productID, variant, 0)
}

// ApplyVoucher replaces any voucher already on the ticket.
func (w *Workspace) ApplyVoucher(v models.Voucher) (Ticket, error) {
	return w.mutate(func(t *Ticket) error {
		t.Voucher = &v
		return nil
	})
}

func (w *Workspace) ClearVoucher() (Ticket, error) {
	return w.mutate(func(t *Ticket) error {
		t.Voucher = nil
		return nil
	})
}

func (w *Workspace) SetCustomer(c CustomerRef) (Ticket, error) {
	return w.mutate(func(t *Ticket) error {
		t.Customer = &c
		return nil
	})
}

func (w *Workspace) ClearCustomer() (Ticket, error) {
	return w.mutate(func(t *Ticket) error {
		t.Customer = nil
		return nil
	})
}

// --- CHECKOUT ---

type CheckoutRequest struct {
	Method   string
	Tendered decimal.Decimal
	Cashier  string
}

// Checkout settles the active ticket. Validation failures send nothing to
// the backend. On settlement failure the ticket is left untouched; on
// success the settled lines are taken off it and the created order is
// returned. Edits made while the order was in flight are kept.
func (w *Workspace) Checkout(ctx context.Context, s Settler, req CheckoutRequest) (*models.OrderDetail, error) {
	w.mu.Lock()
	t := w.activeLocked()
	ticket := t.clone()
	w.mu.Unlock()

	if len(ticket.Lines) == 0 {
		return nil, ErrEmptyTicket
	}
	co, err := NewCheckout(req.Method, ticket.Totals().Net)
	if err != nil {
		return nil, err
	}
	co.SetTendered(req.Tendered)
	if !co.CanSubmit() {
		return nil, ErrInsufficientPayment
	}

	order, err := s.CreateOrder(ctx, settlement(ticket, co.Payment(), req.Cashier))
	if err != nil {
		log.Printf("pos: checkout of ticket %s failed: %v", ticket.ID, err)
		return nil, err
	}

	w.mu.Lock()
	if i := w.indexLocked(ticket.ID); i >= 0 {
		w.tickets[i].settle(ticket)
	}
	w.mu.Unlock()
	w.notify()

	log.Printf("🧾 Ticket %s settled as order %s", ticket.ID, order.Code)
	return order, nil
}

func settlement(t Ticket, p models.CheckoutPayment, cashier string) models.CreateOrderRequest {
	req := models.CreateOrderRequest{
		Source:    models.SourcePOS,
		VoucherID: t.VoucherID(),
		Cashier:   cashier,
		Payment:   p,
	}
	if t.Customer != nil {
		req.CustomerName = t.Customer.Name
		req.CustomerPhone = t.Customer.Phone
	}
	for _, l := range t.Lines {
		req.Lines = append(req.Lines, models.CreateOrderLine{
			ProductID: l.ProductID,
			Variant:   l.Variant,
			Quantity:  l.Quantity,
			Price:     l.UnitPrice,
		})
	}
	return req
}
