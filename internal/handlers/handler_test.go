package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go-pos-console/internal/backend"
	"go-pos-console/internal/middleware"
	"go-pos-console/internal/models"
	"go-pos-console/internal/pos"
	"go-pos-console/internal/returns"
	"go-pos-console/internal/session"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

type fakeSessions struct {
	state  session.State
	logins int
}

func (f *fakeSessions) Snapshot() session.State { return f.state }

func (f *fakeSessions) Login(_ context.Context, req models.LoginRequest) (*models.User, error) {
	f.logins++
	if req.Password != "secret" {
		return nil, &backend.APIError{Status: http.StatusUnauthorized, Message: "Sai tài khoản hoặc mật khẩu"}
	}
	u := &models.User{ID: 1, Username: req.Username, Role: models.RoleAdmin}
	f.state = session.State{User: u, IsAuthenticated: true}
	return u, nil
}

func (f *fakeSessions) Register(context.Context, models.RegisterRequest) (*models.User, error) {
	return nil, errors.New("not used")
}
func (f *fakeSessions) Logout(context.Context)            { f.state = session.State{} }
func (f *fakeSessions) RefreshAuth(context.Context) error { return nil }
func (f *fakeSessions) RefreshProfile(context.Context)    {}

func money(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

var paidOrder = &models.OrderDetail{
	ID: 42, Code: "HD0042", PaymentStatus: models.PaymentPaid, Method: models.MethodCash,
	Items: []models.OrderLine{
		{ID: 1, ProductName: "Shirt", Quantity: 2, Price: money(100000)},
	},
	Payment: models.PaymentSummary{TotalProductPrice: money(200000), TotalOrderPrice: money(200000)},
}

type fakeBackend struct {
	orders  []models.CreateOrderRequest
	returns []models.CreateReturnRequest
}

func (f *fakeBackend) CreateOrder(_ context.Context, req models.CreateOrderRequest) (*models.OrderDetail, error) {
	f.orders = append(f.orders, req)
	return &models.OrderDetail{ID: 7, Code: "HD0007"}, nil
}

func (f *fakeBackend) ListOrders(context.Context, models.OrderFilter) (*models.Page[models.OrderSummary], error) {
	return &models.Page[models.OrderSummary]{TotalPages: 1}, nil
}

func (f *fakeBackend) GetOrder(_ context.Context, ref string) (*models.OrderDetail, error) {
	if ref != "HD0042" && ref != "42" {
		return nil, &backend.APIError{Status: http.StatusNotFound, Message: "Order not found"}
	}
	o := *paidOrder
	return &o, nil
}

func (f *fakeBackend) SearchProducts(context.Context, string) ([]models.Product, error) {
	return nil, nil
}

func (f *fakeBackend) SearchVouchers(context.Context, string) ([]models.Voucher, error) {
	return nil, nil
}

func (f *fakeBackend) CreateReturn(_ context.Context, req models.CreateReturnRequest) (*models.ReturnOrder, error) {
	f.returns = append(f.returns, req)
	return &models.ReturnOrder{ID: 3, Code: "TH0003", OrderID: req.OrderID, Status: models.ReturnPending}, nil
}

func (f *fakeBackend) ListReturns(context.Context, models.ReturnFilter) (*models.Page[models.ReturnOrder], error) {
	return &models.Page[models.ReturnOrder]{}, nil
}

func (f *fakeBackend) GetReturn(_ context.Context, id int64) (*models.ReturnOrder, error) {
	return &models.ReturnOrder{ID: id, Status: models.ReturnCompleted}, nil
}

func (f *fakeBackend) CancelReturn(context.Context, int64) error   { return nil }
func (f *fakeBackend) CompleteReturn(context.Context, int64) error { return nil }

type harness struct {
	router  *gin.Engine
	session *fakeSessions
	backend *fakeBackend
	ws      *pos.Workspace
}

func newHarness(state session.State) *harness {
	gin.SetMode(gin.TestMode)
	b := &fakeBackend{}
	s := &fakeSessions{state: state}
	ws := pos.NewWorkspace()
	h := &Handler{
		Session:   s,
		Workspace: ws,
		Returns:   returns.NewService(b),
		Backend:   b,
		ShopName:  "Test Shop",
		DeviceID:  "POS-TEST",
	}
	r := gin.New()
	h.Routes(r, middleware.NewRateLimiter(60, 10))
	return &harness{router: r, session: s, backend: b, ws: ws}
}

func (h *harness) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.router.ServeHTTP(w, req)
	return w
}

var cashier = session.State{IsAuthenticated: true, User: &models.User{ID: 2, Username: "cashier01", Role: models.RoleUser}}

func TestLoginFlow(t *testing.T) {
	h := newHarness(session.State{})

	if w := h.do(http.MethodPost, "/api/auth/login", gin.H{"username": "admin"}); w.Code != http.StatusBadRequest {
		t.Fatalf("missing password: %d", w.Code)
	}
	w := h.do(http.MethodPost, "/api/auth/login", gin.H{"username": "admin", "password": "wrong"})
	if w.Code != http.StatusUnauthorized || !strings.Contains(w.Body.String(), "Sai tài khoản") {
		t.Fatalf("bad credentials: %d %s", w.Code, w.Body)
	}
	w = h.do(http.MethodPost, "/api/auth/login", gin.H{"username": "admin", "password": "secret"})
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"redirect":"/admin"`) {
		t.Fatalf("login: %d %s", w.Code, w.Body)
	}
	if w := h.do(http.MethodPost, "/api/auth/login", gin.H{"username": "admin", "password": "secret"}); w.Code != http.StatusConflict {
		t.Fatalf("second login while signed in: %d", w.Code)
	}
	if w := h.do(http.MethodPost, "/api/auth/register", gin.H{}); w.Code != http.StatusNotFound {
		t.Fatalf("registration should be closed: %d", w.Code)
	}
}

func TestGuardedRoutes(t *testing.T) {
	if w := newHarness(session.State{IsLoading: true}).do(http.MethodGet, "/api/pos/cart", nil); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("loading: %d", w.Code)
	}
	if w := newHarness(session.State{}).do(http.MethodGet, "/api/pos/cart", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("signed out: %d", w.Code)
	}
	if w := newHarness(cashier).do(http.MethodGet, "/api/reports/sales", nil); w.Code != http.StatusForbidden {
		t.Fatalf("cashier on reports: %d", w.Code)
	}
}

func TestSaleOverHTTP(t *testing.T) {
	h := newHarness(cashier)
	product := models.Product{ID: 1, Name: "P", SellingPrice: money(100000)}

	h.do(http.MethodPost, "/api/pos/cart/lines", gin.H{"product": product})
	w := h.do(http.MethodPut, "/api/pos/cart/lines", gin.H{"productId": 1, "quantity": 3})
	var view struct {
		Totals pos.Totals `json:"totals"`
	}
	_ = json.Unmarshal(w.Body.Bytes(), &view)
	if w.Code != http.StatusOK || !view.Totals.Net.Equal(money(300000)) {
		t.Fatalf("set quantity: %d %s", w.Code, w.Body)
	}

	w = h.do(http.MethodPost, "/api/pos/checkout", gin.H{"method": "CASH", "tendered": "200000"})
	if w.Code != http.StatusBadRequest || len(h.backend.orders) != 0 {
		t.Fatalf("short cash: %d, orders=%d", w.Code, len(h.backend.orders))
	}

	w = h.do(http.MethodPost, "/api/pos/checkout", gin.H{"method": "CASH", "tendered": "500000"})
	if w.Code != http.StatusCreated {
		t.Fatalf("checkout: %d %s", w.Code, w.Body)
	}
	got := h.backend.orders[0]
	if got.Cashier != "cashier01" || !got.Payment.Change.Equal(money(200000)) {
		t.Fatalf("settlement = %+v", got)
	}
	if len(h.ws.Active().Lines) != 0 {
		t.Fatal("ticket not cleared after checkout")
	}
}

func TestCloseLastTicketConflicts(t *testing.T) {
	h := newHarness(cashier)
	if w := h.do(http.MethodDelete, "/api/pos/tickets/1", nil); w.Code != http.StatusConflict {
		t.Fatalf("close last: %d", w.Code)
	}
	h.do(http.MethodPost, "/api/pos/tickets", nil)
	if w := h.do(http.MethodDelete, "/api/pos/tickets/1", nil); w.Code != http.StatusOK {
		t.Fatalf("close first of two: %d", w.Code)
	}
}

func TestReturnOverHTTP(t *testing.T) {
	h := newHarness(cashier)

	if w := h.do(http.MethodPost, "/api/returns/drafts", gin.H{"orderRef": "HD9999"}); w.Code != http.StatusNotFound {
		t.Fatalf("unknown order: %d %s", w.Code, w.Body)
	}
	w := h.do(http.MethodPost, "/api/returns/drafts", gin.H{"orderRef": "HD0042"})
	if w.Code != http.StatusCreated || !strings.Contains(w.Body.String(), `"returnType":"FULL"`) {
		t.Fatalf("start: %d %s", w.Code, w.Body)
	}

	w = h.do(http.MethodPut, "/api/returns/drafts/42/lines/1", gin.H{"quantity": 9, "reason": "DEFECTIVE"})
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"quantity":2`) {
		t.Fatalf("clamp: %d %s", w.Code, w.Body)
	}
	w = h.do(http.MethodPut, "/api/returns/drafts/42/lines/1", gin.H{"quantity": 1})
	if !strings.Contains(w.Body.String(), `"returnType":"PARTIAL"`) {
		t.Fatalf("partial: %s", w.Body)
	}

	w = h.do(http.MethodPost, "/api/returns/drafts/42/submit", nil)
	if w.Code != http.StatusCreated {
		t.Fatalf("submit: %d %s", w.Code, w.Body)
	}
	req := h.backend.returns[0]
	if req.ReturnType != models.ReturnPartial || req.ReturnReason != models.ReasonDefective || req.Lines[0].ReturnQuantity != 1 {
		t.Fatalf("payload = %+v", req)
	}
	if w := h.do(http.MethodGet, "/api/returns/drafts/42", nil); w.Code != http.StatusNotFound {
		t.Fatalf("draft kept after submit: %d", w.Code)
	}

	if w := h.do(http.MethodPut, "/api/returns/3/cancel", nil); w.Code != http.StatusConflict {
		t.Fatalf("cancel completed return: %d", w.Code)
	}
}

func TestReceiptIsPDF(t *testing.T) {
	h := newHarness(cashier)
	w := h.do(http.MethodGet, "/api/orders/HD0042/receipt", nil)
	if w.Code != http.StatusOK || w.Header().Get("Content-Type") != "application/pdf" {
		t.Fatalf("receipt: %d %s", w.Code, w.Header())
	}
	if !bytes.HasPrefix(w.Body.Bytes(), []byte("%PDF")) {
		t.Fatal("body is not a pdf")
	}
}

func TestAskWithoutAssistant(t *testing.T) {
	admin := session.State{IsAuthenticated: true, User: &models.User{ID: 1, Username: "boss", Role: models.RoleAdmin}}
	w := newHarness(admin).do(http.MethodPost, "/api/ask", gin.H{"message": "doanh thu hôm nay?"})
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("ask: %d %s", w.Code, w.Body)
	}
}
