package http

import (
	"net/http"

	"expensed/internal/core"
)

type (
	summaryPayload struct {
		Amount      string `json:"amount"`
		Description string `json:"description"`
		Category    string `json:"category"`
		ExpenseDate string `json:"expense_date"`
	}

	categoryPayload struct {
		Category string `json:"category"`
		Total    string `json:"total"`
	}

	trendPayload struct {
		Period string `json:"period"`
		Total  string `json:"total"`
	}
)

// handleSummary returns the user's records inside an inclusive date window,
// newest first. This is a selection, not a rollup.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	q := r.URL.Query()
	items, err := s.analytics.Summary(r.Context(), q.Get("user_id"), q.Get("start_date"), q.Get("end_date"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	payload := make([]summaryPayload, len(items))
	for i, item := range items {
		payload[i] = summaryPayload{
			Amount:      item.Amount.String(),
			Description: item.Description,
			Category:    item.Category,
			ExpenseDate: item.Date.Wire(),
		}
	}
	writeData(w, payload)
}

// handleCategories returns per-category totals scoped to the user and window,
// ordered alphabetically.
func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	q := r.URL.Query()
	totals, err := s.analytics.Categories(r.Context(), q.Get("user_id"), q.Get("start_date"), q.Get("end_date"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeData(w, toCategoryPayload(totals))
}

// handleTrend returns calendar-bucketed totals for the user. Unknown trend
// types fall back to yearly buckets.
func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeMessage(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	q := r.URL.Query()
	points, err := s.analytics.Trend(r.Context(), q.Get("user_id"), q.Get("trend_type"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	payload := make([]trendPayload, len(points))
	for i, p := range points {
		payload[i] = trendPayload{Period: p.Period, Total: p.Total.String()}
	}
	writeData(w, payload)
}

func toCategoryPayload(totals []core.CategoryTotal) []categoryPayload {
	payload := make([]categoryPayload, len(totals))
	for i, t := range totals {
		payload[i] = categoryPayload{Category: t.Category, Total: t.Total.String()}
	}
	return payload
}
