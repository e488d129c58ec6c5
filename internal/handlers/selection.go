package handlers

import (
	"net/url"
	"strconv"
	"strings"

	"superstore-dashboard/internal/errors"
	"superstore-dashboard/internal/models"
	"superstore-dashboard/internal/services"
)

const maxPreviewRows = 500

// parseSelection applies the region, category and trend query parameters
// over defaults. An absent parameter keeps the default; a parameter present
// with only empty values selects nothing.
func parseSelection(q url.Values, defaults models.FilterSelection) models.FilterSelection {
	sel := defaults
	if values, ok := q["region"]; ok {
		sel.Regions = nonEmpty(values)
	}
	if values, ok := q["category"]; ok {
		sel.Categories = nonEmpty(values)
	}
	if trend := strings.TrimSpace(q.Get("trend")); trend != "" {
		sel.TrendCategory = trend
	}
	if sel.TrendCategory == "" || strings.EqualFold(sel.TrendCategory, models.AllCategories) {
		sel.TrendCategory = models.AllCategories
	}
	return sel
}

func parseSort(q url.Values) (services.SortOrder, error) {
	order, ok := services.ParseSortOrder(q.Get("sort"))
	if !ok {
		return "", errors.BadRequest("sort must be one of: name, sales")
	}
	return order, nil
}

func parseLimit(q url.Values, def int) (int, error) {
	raw := strings.TrimSpace(q.Get("limit"))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 || n > maxPreviewRows {
		return 0, errors.BadRequest("limit must be an integer between 0 and " + strconv.Itoa(maxPreviewRows))
	}
	return n, nil
}

func nonEmpty(values []string) []string {
	out := []string{}
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}
