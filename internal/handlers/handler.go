// Package handlers binds the console's HTTP routes to the session, the POS
// workspace and the return workflow.
package handlers

import (
	"context"
	"errors"
	"net/http"

	"go-pos-console/internal/ai"
	"go-pos-console/internal/backend"
	"go-pos-console/internal/events"
	"go-pos-console/internal/middleware"
	"go-pos-console/internal/models"
	"go-pos-console/internal/pos"
	"go-pos-console/internal/realtime"
	"go-pos-console/internal/reports"
	"go-pos-console/internal/returns"
	"go-pos-console/internal/session"

	"github.com/gin-gonic/gin"
)

// Sessions is the session manager as the handlers see it.
type Sessions interface {
	middleware.SessionSource
	Login(ctx context.Context, req models.LoginRequest) (*models.User, error)
	Register(ctx context.Context, req models.RegisterRequest) (*models.User, error)
	Logout(ctx context.Context)
	RefreshAuth(ctx context.Context) error
	RefreshProfile(ctx context.Context)
}

// Backend is the part of the REST client used directly by handlers.
type Backend interface {
	pos.Settler
	reports.OrderLister
	GetOrder(ctx context.Context, ref string) (*models.OrderDetail, error)
	SearchProducts(ctx context.Context, keyword string) ([]models.Product, error)
	SearchVouchers(ctx context.Context, keyword string) ([]models.Voucher, error)
}

// Handler carries every dependency a route needs. Optional parts (Events,
// Assistant, Hub) may be nil.
type Handler struct {
	Session   Sessions
	Workspace *pos.Workspace
	Returns   *returns.Service
	Backend   Backend
	Events    *events.Publisher
	Assistant *ai.Agent
	Hub       *realtime.Hub

	ShopName          string
	DeviceID          string
	AllowRegistration bool
}

// Routes registers every route on r. Login is throttled by limiter.
func (h *Handler) Routes(r gin.IRouter, limiter *middleware.RateLimiter) {
	r.GET("/health", func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"status": "online"}) })

	api := r.Group("/api")
	api.GET("/system/status", h.GetSystemStatus)
	api.GET("/auth/session", h.GetSession)

	public := api.Group("/auth")
	public.Use(middleware.PublicOnly(h.Session))
	{
		public.POST("/login", limiter.Limit(), h.Login)
		if h.AllowRegistration {
			public.POST("/register", limiter.Limit(), h.Register)
		}
	}

	staff := api.Group("/")
	staff.Use(middleware.RequireAuth(h.Session))
	{
		staff.POST("/auth/logout", h.Logout)
		staff.POST("/auth/refresh", h.Refresh)
		staff.GET("/auth/me", h.Me)

		staff.GET("/pos/tickets", h.ListTickets)
		staff.POST("/pos/tickets", h.OpenTicket)
		staff.PUT("/pos/tickets/:id/activate", h.SwitchTicket)
		staff.DELETE("/pos/tickets/:id", h.CloseTicket)
		staff.GET("/pos/cart", h.GetCart)
		staff.POST("/pos/cart/lines", h.AddLine)
		staff.PUT("/pos/cart/lines", h.SetLineQuantity)
		staff.POST("/pos/cart/lines/increment", h.IncrementLine)
		staff.POST("/pos/cart/lines/decrement", h.DecrementLine)
		staff.DELETE("/pos/cart/lines", h.RemoveLine)
		staff.PUT("/pos/cart/voucher", h.ApplyVoucher)
		staff.DELETE("/pos/cart/voucher", h.ClearVoucher)
		staff.PUT("/pos/cart/customer", h.SetCustomer)
		staff.DELETE("/pos/cart/customer", h.ClearCustomer)
		staff.POST("/pos/checkout/preview", h.PreviewCheckout)
		staff.POST("/pos/checkout", h.Checkout)
		staff.GET("/pos/products/search", h.SearchProducts)
		staff.GET("/pos/vouchers/search", h.SearchVouchers)

		staff.GET("/orders", h.ListOrders)
		staff.GET("/orders/:ref", h.GetOrder)
		staff.GET("/orders/:ref/receipt", h.PrintReceipt)

		staff.POST("/returns/drafts", h.StartReturn)
		staff.GET("/returns/drafts/:orderId", h.GetDraft)
		staff.PUT("/returns/drafts/:orderId", h.UpdateDraft)
		staff.PUT("/returns/drafts/:orderId/lines/:lineId", h.UpdateDraftLine)
		staff.POST("/returns/drafts/:orderId/submit", h.SubmitReturn)
		staff.DELETE("/returns/drafts/:orderId", h.DiscardDraft)
		staff.GET("/returns", h.ListReturns)
		staff.GET("/returns/:id", h.GetReturn)
		staff.PUT("/returns/:id/cancel", h.CancelReturn)
		staff.PUT("/returns/:id/complete", h.CompleteReturn)

		staff.GET("/ws", h.ServeWS)
	}

	admin := api.Group("/")
	admin.Use(middleware.RequireAuth(h.Session, models.RoleAdmin))
	{
		admin.GET("/reports/sales", h.GetSalesReport)
		admin.POST("/ask", h.AskAI)
	}
}

// respondError maps domain errors onto HTTP status codes. Remote failures
// keep the backend's client-error status and message.
func respondError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	var apiErr *backend.APIError
	switch {
	case errors.Is(err, pos.ErrTicketNotFound), errors.Is(err, pos.ErrLineNotFound),
		errors.Is(err, returns.ErrDraftNotFound), errors.Is(err, returns.ErrLineNotFound):
		status = http.StatusNotFound
	case errors.Is(err, pos.ErrEmptyTicket), errors.Is(err, pos.ErrInsufficientPayment),
		errors.Is(err, pos.ErrUnknownMethod), errors.Is(err, returns.ErrNoSourceOrder),
		errors.Is(err, returns.ErrNothingSelected), errors.Is(err, returns.ErrInvalidReason),
		errors.Is(err, reports.ErrBadRange):
		status = http.StatusBadRequest
	case errors.Is(err, pos.ErrLastTicket), errors.Is(err, returns.ErrOrderNotReturnable),
		errors.Is(err, returns.ErrNotPending):
		status = http.StatusConflict
	case errors.Is(err, session.ErrTokenExpired), errors.Is(err, session.ErrNoRefreshToken),
		errors.Is(err, session.ErrRefreshExpired):
		status = http.StatusUnauthorized
	case errors.Is(err, ai.ErrNotConfigured):
		status = http.StatusServiceUnavailable
	case errors.As(err, &apiErr):
		status = http.StatusBadGateway
		if apiErr.Status >= 400 && apiErr.Status < 500 {
			status = apiErr.Status
		}
	}
	c.JSON(status, gin.H{"error": backend.ErrorMessage(err)})
}
