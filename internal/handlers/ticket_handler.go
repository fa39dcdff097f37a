package handlers

import (
	"context"
	"log"
	"net/http"
	"strconv"
	"time"

	"go-pos-console/internal/events"
	"go-pos-console/internal/middleware"
	"go-pos-console/internal/models"
	"go-pos-console/internal/pos"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ticketView is a ticket plus its derived totals.
type ticketView struct {
	pos.Ticket
	Totals pos.Totals `json:"totals"`
}

func viewOf(t pos.Ticket) ticketView {
	return ticketView{Ticket: t, Totals: t.Totals()}
}

// replyTicket answers with the ticket or maps the error.
func replyTicket(c *gin.Context, t pos.Ticket, err error) {
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewOf(t))
}

type lineRef struct {
	ProductID int64  `json:"productId" form:"productId" binding:"required"`
	Variant   string `json:"variant" form:"variant"`
}

type addLineRequest struct {
	Product models.Product `json:"product"`
	Variant string         `json:"variant"`
}

type quantityRequest struct {
	lineRef
	Quantity int `json:"quantity"`
}

type checkoutRequest struct {
	Method   string          `json:"method" binding:"required"`
	Tendered decimal.Decimal `json:"tendered"`
}

// --- TABS ---

func (h *Handler) ListTickets(c *gin.Context) {
	snap := h.Workspace.Snapshot()
	views := make([]ticketView, len(snap.Tickets))
	for i, t := range snap.Tickets {
		views[i] = viewOf(t)
	}
	c.JSON(http.StatusOK, gin.H{"tickets": views, "active": snap.Active})
}

func (h *Handler) OpenTicket(c *gin.Context) {
	c.JSON(http.StatusCreated, viewOf(h.Workspace.OpenTicket()))
}

func (h *Handler) SwitchTicket(c *gin.Context) {
	if err := h.Workspace.SwitchTicket(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, viewOf(h.Workspace.Active()))
}

func (h *Handler) CloseTicket(c *gin.Context) {
	if err := h.Workspace.CloseTicket(c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	h.ListTickets(c)
}

// --- CART ---

func (h *Handler) GetCart(c *gin.Context) {
	c.JSON(http.StatusOK, viewOf(h.Workspace.Active()))
}

func (h *Handler) AddLine(c *gin.Context) {
	var req addLineRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Product.ID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid product"})
		return
	}
	t, err := h.Workspace.AddProduct(req.Product, req.Variant)
	replyTicket(c, t, err)
}

// SetLineQuantity is the quantity field: zero or less removes the line.
func (h *Handler) SetLineQuantity(c *gin.Context) {
	var req quantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	t, err := h.Workspace.SetQuantity(req.ProductID, req.Variant, req.Quantity)
	replyTicket(c, t, err)
}

func (h *Handler) IncrementLine(c *gin.Context) {
	var ref lineRef
	if err := c.ShouldBindJSON(&ref); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	t, err := h.Workspace.Increment(ref.ProductID, ref.Variant)
	replyTicket(c, t, err)
}

func (h *Handler) DecrementLine(c *gin.Context) {
	var ref lineRef
	if err := c.ShouldBindJSON(&ref); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	t, err := h.Workspace.Decrement(ref.ProductID, ref.Variant)
	replyTicket(c, t, err)
}

// RemoveLine reads the line from the query string: DELETE has no body.
func (h *Handler) RemoveLine(c *gin.Context) {
	id, err := strconv.ParseInt(c.Query("productId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid Product ID"})
		return
	}
	t, err := h.Workspace.RemoveLine(id, c.Query("variant"))
	replyTicket(c, t, err)
}

func (h *Handler) ApplyVoucher(c *gin.Context) {
	var v models.Voucher
	if err := c.ShouldBindJSON(&v); err != nil || v.ID == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid voucher"})
		return
	}
	t, err := h.Workspace.ApplyVoucher(v)
	replyTicket(c, t, err)
}

func (h *Handler) ClearVoucher(c *gin.Context) {
	t, err := h.Workspace.ClearVoucher()
	replyTicket(c, t, err)
}

func (h *Handler) SetCustomer(c *gin.Context) {
	var ref pos.CustomerRef
	if err := c.ShouldBindJSON(&ref); err != nil || (ref.Name == "" && ref.Phone == "") {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Customer name or phone is required"})
		return
	}
	t, err := h.Workspace.SetCustomer(ref)
	replyTicket(c, t, err)
}

func (h *Handler) ClearCustomer(c *gin.Context) {
	t, err := h.Workspace.ClearCustomer()
	replyTicket(c, t, err)
}

// --- CHECKOUT ---

// PreviewCheckout drives the payment modal: change and whether the
// confirm button is enabled.
func (h *Handler) PreviewCheckout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Payment method is required"})
		return
	}
	co, err := pos.NewCheckout(req.Method, h.Workspace.Active().Totals().Net)
	if err != nil {
		respondError(c, err)
		return
	}
	co.SetTendered(req.Tendered)
	c.JSON(http.StatusOK, gin.H{
		"net":        co.Net,
		"amountPaid": co.AmountPaid(),
		"change":     co.Change(),
		"canSubmit":  co.CanSubmit(),
	})
}

func (h *Handler) Checkout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Payment method is required"})
		return
	}

	cashier := ""
	if u := middleware.CurrentUser(c); u != nil {
		cashier = u.Username
	}
	items := h.Workspace.Active().Totals().Items

	// 1. Settle on the backend
	order, err := h.Workspace.Checkout(c.Request.Context(), h.Backend, pos.CheckoutRequest{
		Method:   req.Method,
		Tendered: req.Tendered,
		Cashier:  cashier,
	})
	middleware.SalesTotal.WithLabelValues(req.Method, middleware.Outcome(err)).Inc()
	if err != nil {
		respondError(c, err)
		return
	}

	// 2. Tell the rest of the store, without holding up the till
	go h.Events.SaleCompleted(context.Background(), events.SaleCompleted{
		OrderID:   order.ID,
		Code:      order.Code,
		Method:    req.Method,
		Total:     order.Payment.TotalOrderPrice,
		Items:     items,
		Cashier:   cashier,
		DeviceID:  h.DeviceID,
		CreatedAt: time.Now().UTC(),
	})

	log.Printf("💰 Sale %s completed by %s (%s)", order.Code, cashier, req.Method)
	c.JSON(http.StatusCreated, order)
}

// --- CATALOG SEARCH ---

func (h *Handler) SearchProducts(c *gin.Context) {
	products, err := h.Backend.SearchProducts(c.Request.Context(), c.Query("keyword"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *Handler) SearchVouchers(c *gin.Context) {
	vouchers, err := h.Backend.SearchVouchers(c.Request.Context(), c.Query("keyword"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, vouchers)
}
