package api

import (
	"net/http"
	"time"

	"github.com/dukerupert/bharosa/internal/handler"
	"github.com/dukerupert/bharosa/internal/service"
)

// AnalyticsHandler serves sales reports
type AnalyticsHandler struct {
	analytics service.AnalyticsService
	now       func() time.Time
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(analytics service.AnalyticsService) *AnalyticsHandler {
	return &AnalyticsHandler{analytics: analytics, now: time.Now}
}

// Summary handles GET /api/analytics?period=30
// Custom ranges use period=custom&startDate=YYYY-MM-DD&endDate=YYYY-MM-DD.
func (h *AnalyticsHandler) Summary(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	period, err := service.ParsePeriod(q.Get("period"), q.Get("startDate"), q.Get("endDate"), h.now())
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}

	summary, err := h.analytics.Summary(r.Context(), period)
	if err != nil {
		handler.ErrorResponse(w, r, err)
		return
	}
	handler.WriteJSON(w, http.StatusOK, summary)
}
