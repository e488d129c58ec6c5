package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"superstore-dashboard/internal/errors"
	"superstore-dashboard/internal/models"
	"superstore-dashboard/internal/observability"
	"superstore-dashboard/internal/services"
)

const cacheControl = "public, max-age=300"

type APIHandlers struct {
	analytics *services.Analytics
	logger    *slog.Logger
}

func NewAPIHandlers(analytics *services.Analytics, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		analytics: analytics,
		logger:    logger,
	}
}

// view loads the dataset and resolves the request's filter selection. On
// failure the error response has been written and ok is false.
func (h *APIHandlers) view(w http.ResponseWriter, r *http.Request) (sel models.FilterSelection, view []models.Record, ok bool) {
	ctx := r.Context()
	if _, err := h.analytics.Load(ctx); err != nil {
		h.writeError(w, r, errors.FromLoadError(err))
		return sel, nil, false
	}

	sel = parseSelection(r.URL.Query(), h.analytics.DefaultSelection(ctx))
	view, err := h.analytics.View(ctx, sel)
	if err != nil {
		h.writeError(w, r, errors.FromLoadError(err))
		return sel, nil, false
	}
	return sel, view, true
}

func (h *APIHandlers) writeError(w http.ResponseWriter, r *http.Request, err error) {
	errors.WriteError(w, h.logger, err, observability.GetRequestID(r.Context()))
}

func (h *APIHandlers) writeData(w http.ResponseWriter, data any) {
	errors.WriteSuccessWithHeaders(w, data, map[string]string{
		"Cache-Control": cacheControl,
	})
}

func (h *APIHandlers) HandleOptions(w http.ResponseWriter, r *http.Request) {
	options, err := h.analytics.Options(r.Context())
	if err != nil {
		h.writeError(w, r, errors.FromLoadError(err))
		return
	}
	h.writeData(w, options)
}

func (h *APIHandlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	order, err := parseSort(r.URL.Query())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	ctx := r.Context()
	if _, err := h.analytics.Load(ctx); err != nil {
		h.writeError(w, r, errors.FromLoadError(err))
		return
	}

	sel := parseSelection(r.URL.Query(), h.analytics.DefaultSelection(ctx))
	dash := h.analytics.Dashboard(ctx, sel)
	dash.SalesByState = services.SortStates(dash.SalesByState, order)
	dash.SalesByCategory = services.SortCategories(dash.SalesByCategory, order)

	h.writeData(w, dash)
}

func (h *APIHandlers) HandleSalesByState(w http.ResponseWriter, r *http.Request) {
	order, err := parseSort(r.URL.Query())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	_, view, ok := h.view(w, r)
	if !ok {
		return
	}
	h.writeData(w, services.SortStates(services.SalesByState(view), order))
}

func (h *APIHandlers) HandleSalesByCategory(w http.ResponseWriter, r *http.Request) {
	order, err := parseSort(r.URL.Query())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	_, view, ok := h.view(w, r)
	if !ok {
		return
	}
	h.writeData(w, services.SortCategories(services.SalesByCategory(view), order))
}

func (h *APIHandlers) HandleCategoryCounts(w http.ResponseWriter, r *http.Request) {
	_, view, ok := h.view(w, r)
	if !ok {
		return
	}
	h.writeData(w, services.TransactionCountByCategory(view))
}

func (h *APIHandlers) HandleMonthlyTrend(w http.ResponseWriter, r *http.Request) {
	sel, view, ok := h.view(w, r)
	if !ok {
		return
	}
	h.writeData(w, services.MonthlySalesTrend(view, sel.TrendCategory))
}

func (h *APIHandlers) HandleProfitDiscount(w http.ResponseWriter, r *http.Request) {
	_, view, ok := h.view(w, r)
	if !ok {
		return
	}
	h.writeData(w, services.ProfitVsDiscount(view))
}

func (h *APIHandlers) HandlePreview(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r.URL.Query(), services.PreviewRows)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	_, view, ok := h.view(w, r)
	if !ok {
		return
	}
	h.writeData(w, services.Preview(view, limit))
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {

	healthData := map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
	}

	errors.WriteSuccess(w, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {

	stats := h.analytics.Stats(r.Context())

	errors.WriteSuccess(w, stats)
}
