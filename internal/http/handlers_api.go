package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

type summaryResponse struct {
	Status string      `json:"status"`
	Data   summaryData `json:"data"`
}

type summaryData struct {
	MonthlyTotal   float64             `json:"monthly_total"`
	YearlyTotal    float64             `json:"yearly_total"`
	CategoryTotals []categoryTotalJSON `json:"category_totals"`
	Month          string              `json:"month"`
	Year           int                 `json:"year"`
}

type categoryTotalJSON struct {
	Category string  `json:"category"`
	Icon     string  `json:"icon"`
	Color    string  `json:"color"`
	Total    float64 `json:"total"`
}

type errorResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// handleSummaryAPI serves the current month/year spending summary as JSON.
func (s *Server) handleSummaryAPI(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	summary, err := s.svc.Summary(ctx, time.Now())
	if err != nil {
		slog.ErrorContext(ctx, "Failed computing summary", "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{
			Status:  "error",
			Message: "Failed to load expense summary",
		})
		return
	}

	// Empty months serialize as [] rather than null.
	totals := make([]categoryTotalJSON, 0, len(summary.CategoryTotals))
	for _, ct := range summary.CategoryTotals {
		totals = append(totals, categoryTotalJSON{
			Category: ct.Category,
			Icon:     ct.Icon,
			Color:    ct.Color,
			Total:    ct.Total.Dollars(),
		})
	}

	writeJSON(w, http.StatusOK, summaryResponse{
		Status: "success",
		Data: summaryData{
			MonthlyTotal:   summary.MonthlyTotal.Dollars(),
			YearlyTotal:    summary.YearlyTotal.Dollars(),
			CategoryTotals: totals,
			Month:          summary.Month,
			Year:           summary.Year,
		},
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
