package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"go-pos-console/internal/models"
	"go-pos-console/internal/receipt"

	"github.com/gin-gonic/gin"
)

// parseOrderFilter reads search, from, to (YYYY-MM-DD), page, size and sort.
func parseOrderFilter(c *gin.Context) (models.OrderFilter, error) {
	f := models.OrderFilter{Search: c.Query("search"), Sort: c.Query("sort")}
	var err error
	if s := c.Query("from"); s != "" {
		if f.From, err = time.Parse("2006-01-02", s); err != nil {
			return f, errors.New("from must be YYYY-MM-DD")
		}
	}
	if s := c.Query("to"); s != "" {
		if f.To, err = time.Parse("2006-01-02", s); err != nil {
			return f, errors.New("to must be YYYY-MM-DD")
		}
	}
	if s := c.Query("page"); s != "" {
		if f.Page, err = strconv.Atoi(s); err != nil || f.Page < 0 {
			return f, errors.New("page must be a non-negative number")
		}
	}
	if s := c.Query("size"); s != "" {
		if f.Size, err = strconv.Atoi(s); err != nil || f.Size <= 0 {
			return f, errors.New("size must be a positive number")
		}
	}
	return f, nil
}

func (h *Handler) ListOrders(c *gin.Context) {
	f, err := parseOrderFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	page, err := h.Backend.ListOrders(c.Request.Context(), f)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *Handler) GetOrder(c *gin.Context) {
	order, err := h.Backend.GetOrder(c.Request.Context(), c.Param("ref"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

// PrintReceipt streams the order's PDF receipt.
func (h *Handler) PrintReceipt(c *gin.Context) {
	order, err := h.Backend.GetOrder(c.Request.Context(), c.Param("ref"))
	if err != nil {
		respondError(c, err)
		return
	}
	pdf, err := receipt.Render(order, h.ShopName)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate receipt"})
		return
	}
	c.Header("Content-Disposition", "inline; filename=receipt-"+order.Code+".pdf")
	c.Data(http.StatusOK, "application/pdf", pdf)
}
