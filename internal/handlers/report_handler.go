package handlers

import (
	"net/http"
	"time"

	"go-pos-console/internal/reports"

	"github.com/gin-gonic/gin"
)

// --- GET: /api/reports/sales?from=YYYY-MM-DD&to=YYYY-MM-DD ---
// Without dates the report covers today.
func (h *Handler) GetSalesReport(c *gin.Context) {
	f, err := parseOrderFilter(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if f.From.IsZero() && f.To.IsZero() {
		y, m, d := time.Now().Date()
		today := time.Date(y, m, d, 0, 0, 0, 0, time.Local)
		f.From, f.To = today, today
	}
	report, err := reports.Sales(c.Request.Context(), h.Backend, f.From, f.To)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}
