package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"go-pos-console/internal/events"
	"go-pos-console/internal/middleware"
	"go-pos-console/internal/models"
	"go-pos-console/internal/returns"

	"github.com/gin-gonic/gin"
)

// draftView is everything the return screen renders.
type draftView struct {
	Order      *models.OrderDetail     `json:"order"`
	Lines      []returns.CandidateLine `json:"lines"`
	ReturnType models.ReturnType       `json:"returnType"`
	Reason     models.ReturnReason     `json:"reason"`
	Notes      string                  `json:"notes"`
	Preview    returns.Preview         `json:"preview"`
}

func viewOfDraft(d *returns.Draft) draftView {
	return draftView{
		Order:      d.Order(),
		Lines:      d.Lines(),
		ReturnType: d.ReturnType(),
		Reason:     d.Reason(),
		Notes:      d.Notes(),
		Preview:    d.Preview(),
	}
}

type startReturnRequest struct {
	OrderRef string `json:"orderRef" binding:"required"`
}

type updateDraftRequest struct {
	Reason *models.ReturnReason `json:"reason"`
	Notes  *string              `json:"notes"`
}

type updateLineRequest struct {
	Quantity *int                `json:"quantity"`
	Reason   models.ReturnReason `json:"reason"`
}

func (h *Handler) draft(c *gin.Context) (*returns.Draft, bool) {
	id, err := strconv.ParseInt(c.Param("orderId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid Order ID"})
		return nil, false
	}
	d, err := h.Returns.Draft(id)
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	return d, true
}

// StartReturn looks the order up by id or code and opens a draft with every
// line at full quantity.
func (h *Handler) StartReturn(c *gin.Context) {
	var req startReturnRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Order code is required"})
		return
	}
	d, err := h.Returns.Start(c.Request.Context(), req.OrderRef)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, viewOfDraft(d))
}

func (h *Handler) GetDraft(c *gin.Context) {
	if d, ok := h.draft(c); ok {
		c.JSON(http.StatusOK, viewOfDraft(d))
	}
}

// UpdateDraft sets the request-wide reason and notes.
func (h *Handler) UpdateDraft(c *gin.Context) {
	d, ok := h.draft(c)
	if !ok {
		return
	}
	var req updateDraftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	if req.Reason != nil {
		if err := d.SetReason(*req.Reason); err != nil {
			respondError(c, err)
			return
		}
	}
	if req.Notes != nil {
		d.SetNotes(*req.Notes)
	}
	c.JSON(http.StatusOK, viewOfDraft(d))
}

// UpdateDraftLine changes one line; the quantity kept after clamping is in
// the returned view.
func (h *Handler) UpdateDraftLine(c *gin.Context) {
	d, ok := h.draft(c)
	if !ok {
		return
	}
	lineID, err := strconv.ParseInt(c.Param("lineId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid line ID"})
		return
	}
	var req updateLineRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input"})
		return
	}
	if req.Quantity != nil {
		if _, err := d.SetQuantity(lineID, *req.Quantity); err != nil {
			respondError(c, err)
			return
		}
	}
	if req.Reason != "" {
		if err := d.SetLineReason(lineID, req.Reason); err != nil {
			respondError(c, err)
			return
		}
	}
	c.JSON(http.StatusOK, viewOfDraft(d))
}

func (h *Handler) SubmitReturn(c *gin.Context) {
	d, ok := h.draft(c)
	if !ok {
		return
	}
	created, err := h.Returns.Submit(c.Request.Context(), d)
	middleware.ReturnsTotal.WithLabelValues("submit", middleware.Outcome(err)).Inc()
	if err != nil {
		respondError(c, err)
		return
	}

	go h.Events.ReturnSubmitted(context.Background(), events.ReturnSubmitted{
		ReturnID:    created.ID,
		Code:        created.Code,
		OrderID:     created.OrderID,
		ReturnType:  created.ReturnType,
		Reason:      created.ReturnReason,
		TotalRefund: created.TotalRefund,
		DeviceID:    h.DeviceID,
		CreatedAt:   time.Now().UTC(),
	})
	c.JSON(http.StatusCreated, created)
}

func (h *Handler) DiscardDraft(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("orderId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid Order ID"})
		return
	}
	h.Returns.Discard(id)
	c.Status(http.StatusNoContent)
}

// --- SUBMITTED RETURNS ---

func (h *Handler) ListReturns(c *gin.Context) {
	base, err := parseOrderFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	f := models.ReturnFilter{
		OrderFilter:  base,
		ReturnType:   models.ReturnType(c.Query("returnType")),
		ReturnReason: models.ReturnReason(c.Query("returnReason")),
		Status:       models.ReturnStatus(c.Query("status")),
	}
	page, err := h.Returns.List(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func returnID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid Return ID"})
		return 0, false
	}
	return id, true
}

func (h *Handler) GetReturn(c *gin.Context) {
	id, ok := returnID(c)
	if !ok {
		return
	}
	r, err := h.Returns.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

func (h *Handler) CancelReturn(c *gin.Context) {
	h.transition(c, "cancel", h.Returns.Cancel)
}

func (h *Handler) CompleteReturn(c *gin.Context) {
	h.transition(c, "complete", h.Returns.Complete)
}

func (h *Handler) transition(c *gin.Context, action string, fn func(context.Context, int64) (*models.ReturnOrder, error)) {
	id, ok := returnID(c)
	if !ok {
		return
	}
	r, err := fn(c.Request.Context(), id)
	middleware.ReturnsTotal.WithLabelValues(action, middleware.Outcome(err)).Inc()
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}
