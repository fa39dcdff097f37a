package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"go-pos-console/internal/models"
)

// --- AUTH ---

func (c *Client) Login(ctx context.Context, req models.LoginRequest) (*models.AuthTokens, error) {
	var out models.AuthTokens
	if err := c.do(ctx, http.MethodPost, "/api/auth/login", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthTokens, error) {
	var out models.AuthTokens
	if err := c.do(ctx, http.MethodPost, "/api/auth/register", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Refresh(ctx context.Context, refreshToken string) (*models.AuthTokens, error) {
	var out models.AuthTokens
	in := map[string]string{"refreshToken": refreshToken}
	if err := c.do(ctx, http.MethodPost, "/api/auth/refresh", nil, in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Profile(ctx context.Context) (*models.Profile, error) {
	var out models.Profile
	if err := c.do(ctx, http.MethodGet, "/api/users/me", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// --- ORDERS ---

func (c *Client) ListOrders(ctx context.Context, f models.OrderFilter) (*models.Page[models.OrderSummary], error) {
	var out models.Page[models.OrderSummary]
	if err := c.do(ctx, http.MethodGet, "/api/pos/orders", orderQuery(f), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetOrder resolves an order by numeric id or by code.
func (c *Client) GetOrder(ctx context.Context, ref string) (*models.OrderDetail, error) {
	var out models.OrderDetail
	if err := c.do(ctx, http.MethodGet, "/api/pos/orders/"+url.PathEscape(ref), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateOrder(ctx context.Context, req models.CreateOrderRequest) (*models.OrderDetail, error) {
	var out models.OrderDetail
	if err := c.do(ctx, http.MethodPost, "/api/pos/orders", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// --- RETURNS ---

func (c *Client) CreateReturn(ctx context.Context, req models.CreateReturnRequest) (*models.ReturnOrder, error) {
	var out models.ReturnOrder
	if err := c.do(ctx, http.MethodPost, "/api/pos/returns", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListReturns(ctx context.Context, f models.ReturnFilter) (*models.Page[models.ReturnOrder], error) {
	q := orderQuery(f.OrderFilter)
	if f.ReturnType != "" {
		q.Set("returnType", string(f.ReturnType))
	}
	if f.ReturnReason != "" {
		q.Set("returnReason", string(f.ReturnReason))
	}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}
	var out models.Page[models.ReturnOrder]
	if err := c.do(ctx, http.MethodGet, "/api/pos/returns", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetReturn(ctx context.Context, id int64) (*models.ReturnOrder, error) {
	var out models.ReturnOrder
	if err := c.do(ctx, http.MethodGet, returnPath(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CancelReturn(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodPut, returnPath(id)+"/cancel", nil, nil, nil)
}

func (c *Client) CompleteReturn(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodPut, returnPath(id)+"/complete", nil, nil, nil)
}

// --- CATALOG ---

func (c *Client) SearchProducts(ctx context.Context, keyword string) ([]models.Product, error) {
	var out []models.Product
	q := url.Values{"keyword": {keyword}}
	if err := c.do(ctx, http.MethodGet, "/api/pos/products/search", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) SearchVouchers(ctx context.Context, keyword string) ([]models.Voucher, error) {
	var out []models.Voucher
	q := url.Values{"keyword": {keyword}, "active": {"true"}}
	if err := c.do(ctx, http.MethodGet, "/api/pos/discounts/search", q, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func returnPath(id int64) string {
	return "/api/pos/returns/" + strconv.FormatInt(id, 10)
}

func orderQuery(f models.OrderFilter) url.Values {
	q := url.Values{}
	if f.Search != "" {
		q.Set("search", f.Search)
	}
	if !f.From.IsZero() {
		q.Set("fromDate", f.From.Format("2006-01-02"))
	}
	if !f.To.IsZero() {
		q.Set("toDate", f.To.Format("2006-01-02"))
	}
	q.Set("page", strconv.Itoa(f.Page))
	size := f.Size
	if size <= 0 {
		size = 20
	}
	q.Set("size", strconv.Itoa(size))
	if f.Sort != "" {
		q.Set("sort", f.Sort)
	}
	return q
}
