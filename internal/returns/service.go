package returns

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"go-pos-console/internal/models"
)

var (
	ErrNotPending    = errors.New("only pending returns can change status")
	ErrDraftNotFound = errors.New("no return draft for this order")
)

// API is the slice of the backend the return workflow calls.
type API interface {
	GetOrder(ctx context.Context, ref string) (*models.OrderDetail, error)
	CreateReturn(ctx context.Context, req models.CreateReturnRequest) (*models.ReturnOrder, error)
	ListReturns(ctx context.Context, f models.ReturnFilter) (*models.Page[models.ReturnOrder], error)
	GetReturn(ctx context.Context, id int64) (*models.ReturnOrder, error)
	CancelReturn(ctx context.Context, id int64) error
	CompleteReturn(ctx context.Context, id int64) error
}

// Service keeps open drafts keyed by source order id and forwards lifecycle
// actions to the backend.
type Service struct {
	api API

	mu     sync.Mutex
	drafts map[int64]*Draft
}

func NewService(api API) *Service {
	return &Service{api: api, drafts: make(map[int64]*Draft)}
}

// Start resolves the source order by id or code and opens a draft for it.
// Starting again for the same order replaces the earlier draft.
func (s *Service) Start(ctx context.Context, orderRef string) (*Draft, error) {
	if orderRef == "" {
		return nil, ErrNoSourceOrder
	}
	order, err := s.api.GetOrder(ctx, orderRef)
	if err != nil {
		return nil, fmt.Errorf("look up order %s: %w", orderRef, err)
	}
	d, err := NewDraft(order)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	s.drafts[order.ID] = d
	s.mu.Unlock()
	return d, nil
}

func (s *Service) Draft(orderID int64) (*Draft, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.drafts[orderID]
	if !ok {
		return nil, ErrDraftNotFound
	}
	return d, nil
}

// Discard abandons a draft. Nothing is sent to the backend.
func (s *Service) Discard(orderID int64) {
	s.mu.Lock()
	delete(s.drafts, orderID)
	s.mu.Unlock()
}

// Submit validates and sends the draft. On success the draft is dropped.
func (s *Service) Submit(ctx context.Context, d *Draft) (*models.ReturnOrder, error) {
	req, err := d.Build()
	if err != nil {
		return nil, err
	}
	created, err := s.api.CreateReturn(ctx, *req)
	if err != nil {
		return nil, err
	}
	s.Discard(req.OrderID)
	log.Printf("↩️  Return %s created for order %d (%s)", created.Code, req.OrderID, req.ReturnType)
	return created, nil
}

func (s *Service) List(ctx context.Context, f models.ReturnFilter) (*models.Page[models.ReturnOrder], error) {
	return s.api.ListReturns(ctx, f)
}

func (s *Service) Get(ctx context.Context, id int64) (*models.ReturnOrder, error) {
	return s.api.GetReturn(ctx, id)
}

// Cancel moves a pending return to CANCELLED and returns the re-fetched record.
func (s *Service) Cancel(ctx context.Context, id int64) (*models.ReturnOrder, error) {
	return s.transition(ctx, id, s.api.CancelReturn)
}

// Complete marks a pending return received and refunded.
func (s *Service) Complete(ctx context.Context, id int64) (*models.ReturnOrder, error) {
	return s.transition(ctx, id, s.api.CompleteReturn)
}

func (s *Service) transition(ctx context.Context, id int64, call func(context.Context, int64) error) (*models.ReturnOrder, error) {
	current, err := s.api.GetReturn(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Status != models.ReturnPending {
		return nil, ErrNotPending
	}
	if err := call(ctx, id); err != nil {
		return nil, err
	}
	return s.api.GetReturn(ctx, id)
}
