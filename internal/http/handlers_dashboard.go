package http

import (
	"log/slog"
	"net/http"
	"time"

	"expensetracker/internal/core"
)

type dashboardData struct {
	Flashes        []Flash
	RecentExpenses []core.Expense
	Summary        core.Summary
	Categories     []core.Category
	TotalExpenses  int64
}

// handleDashboard renders the landing page with recent expenses and the
// current month/year spending summary. Store errors degrade to an empty
// dashboard with an error flash rather than a 500 page.
func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	data := dashboardData{Flashes: popFlashes(w, r)}

	recent, err := s.store.RecentExpenses(ctx, s.recentLimit)
	if err != nil {
		slog.ErrorContext(ctx, "Failed loading dashboard", "error", err)
		data.Flashes = append(data.Flashes, Flash{Level: "error", Message: "Error loading dashboard. Please try again."})
		s.render(w, r, "index.html", http.StatusOK, data)
		return
	}
	data.RecentExpenses = recent

	summary, err := s.svc.Summary(ctx, time.Now())
	if err != nil {
		slog.ErrorContext(ctx, "Failed loading dashboard", "error", err)
		data.Flashes = append(data.Flashes, Flash{Level: "error", Message: "Error loading dashboard. Please try again."})
		s.render(w, r, "index.html", http.StatusOK, dashboardData{Flashes: data.Flashes})
		return
	}
	data.Summary = summary

	if cats, err := s.store.ActiveCategories(ctx); err == nil {
		data.Categories = cats
	}
	if count, err := s.store.CountExpenses(ctx); err == nil {
		data.TotalExpenses = count
	}

	s.render(w, r, "index.html", http.StatusOK, data)
}

type notFoundData struct {
	Flashes []Flash
	Path    string
}

func (s *Server) handleNotFound(w http.ResponseWriter, r *http.Request) {
	s.render(w, r, "404.html", http.StatusNotFound, notFoundData{Path: r.URL.Path})
}
