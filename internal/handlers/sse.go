package handlers

import (
	"log/slog"
	"net/http"

	"github.com/starfederation/datastar-go/datastar"

	"superstore-dashboard/internal/models"
	"superstore-dashboard/internal/services"
	"superstore-dashboard/internal/ui/templates"
)

type SSEHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewSSEHandlers(analytics *services.Analytics, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

// dashboardSignals are the filter signals sent by the page. A nil slice
// means the signal was absent and the full domain applies.
type dashboardSignals struct {
	Regions       []string `json:"regions"`
	Categories    []string `json:"categories"`
	TrendCategory string   `json:"trendCategory"`
}

func (s dashboardSignals) selection(defaults models.FilterSelection) models.FilterSelection {
	sel := defaults
	if s.Regions != nil {
		sel.Regions = nonEmpty(s.Regions)
	}
	if s.Categories != nil {
		sel.Categories = nonEmpty(s.Categories)
	}
	if s.TrendCategory != "" {
		sel.TrendCategory = s.TrendCategory
	}
	return sel
}

// HandleDashboard recomputes the dashboard for the page's current filter
// signals and patches the metrics, the preview table and the chart signals.
func (h *SSEHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	var signals dashboardSignals
	if err := datastar.ReadSignals(r, &signals); err != nil {
		h.logger.Warn("read dashboard signals", "error", err)
		http.Error(w, "invalid signals", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	sel := signals.selection(h.analytics.DefaultSelection(ctx))
	dash := h.analytics.Dashboard(ctx, sel)

	sse := datastar.NewSSE(w, r)

	if err := sse.PatchElementTempl(templates.Metrics(dash)); err != nil {
		h.logger.Debug("patch metrics", "error", err)
		return
	}
	if err := sse.PatchElementTempl(templates.Preview(dash.Preview)); err != nil {
		h.logger.Debug("patch preview", "error", err)
		return
	}
	if err := sse.MarshalAndPatchSignals(templates.NewChartSignals(dash)); err != nil {
		h.logger.Debug("patch chart signals", "error", err)
		return
	}

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}
