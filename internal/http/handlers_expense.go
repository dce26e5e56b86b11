package http

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"

	"expensetracker/internal/core"
	"expensetracker/internal/services"
	"expensetracker/internal/store"
)

// Pagination carries page navigation state for the expense list template.
type Pagination struct {
	Page    int
	PerPage int
	Total   int
	Pages   int
}

func (p Pagination) HasPrev() bool { return p.Page > 1 }
func (p Pagination) HasNext() bool { return p.Page < p.Pages }
func (p Pagination) Prev() int     { return p.Page - 1 }
func (p Pagination) Next() int     { return p.Page + 1 }

type expenseListData struct {
	Flashes        []Flash
	Expenses       []core.Expense
	Categories     []core.Category
	Pagination     Pagination
	Search         string
	CategoryFilter int64
	Query          string
}

// handleExpenseList renders the paginated expense listing with optional
// search and category filters.
func (s *Server) handleExpenseList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	page := queryInt(r, "page", 1)
	if page < 1 {
		page = 1
	}
	search := sanitizeInput(r.URL.Query().Get("search"))
	categoryID := int64(queryInt(r, "category", 0))
	if categoryID < 0 {
		categoryID = 0
	}

	filter := store.ExpenseFilter{
		Search:     search,
		CategoryID: categoryID,
		Page:       page,
		PerPage:    s.perPage,
	}

	expenses, total, err := s.store.ListExpenses(ctx, filter)
	if err != nil {
		slog.ErrorContext(ctx, "Failed listing expenses", "error", err)
		flashErrors(w, []string{"Error loading expenses. Please try again."})
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	pages := (total + s.perPage - 1) / s.perPage
	if pages < 1 {
		pages = 1
	}

	categories, err := s.store.ActiveCategories(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Failed listing categories for filter", "error", err)
	}

	// Preserve filters across pagination links.
	q := url.Values{}
	if search != "" {
		q.Set("search", search)
	}
	if categoryID > 0 {
		q.Set("category", fmt.Sprintf("%d", categoryID))
	}
	query := q.Encode()
	if query != "" {
		query = "&" + query
	}

	s.render(w, r, "expenses.html", http.StatusOK, expenseListData{
		Flashes:        popFlashes(w, r),
		Expenses:       expenses,
		Categories:     categories,
		Pagination:     Pagination{Page: page, PerPage: s.perPage, Total: total, Pages: pages},
		Search:         search,
		CategoryFilter: categoryID,
		Query:          query,
	})
}

type expenseFormData struct {
	Flashes    []Flash
	Categories []core.Category
	Form       services.ExpenseForm
	Editing    bool
	ExpenseID  int64
	Today      string
}

// handleAddExpenseForm renders the creation form, lazily seeding default
// categories when none exist yet.
func (s *Server) handleAddExpenseForm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	categories, err := s.svc.EnsureCategories(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Failed preparing add-expense form", "error", err)
		flashErrors(w, []string{"Error loading categories. Please try again."})
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	s.render(w, r, "add_expense.html", http.StatusOK, expenseFormData{
		Flashes:    popFlashes(w, r),
		Categories: categories,
		Today:      core.Today().String(),
	})
}

func (s *Server) handleAddExpenseSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseForm(); err != nil {
		flashErrors(w, []string{"Invalid form submission"})
		http.Redirect(w, r, "/add_expense", http.StatusFound)
		return
	}

	form := formFromRequest(r)
	expense, problems, err := s.svc.SaveExpense(ctx, form, 0)
	if err != nil {
		slog.ErrorContext(ctx, "Failed creating expense", "error", err)
		flashErrors(w, []string{"Error saving expense. Please try again."})
		http.Redirect(w, r, "/add_expense", http.StatusFound)
		return
	}
	if len(problems) > 0 {
		flashErrors(w, problems)
		http.Redirect(w, r, "/add_expense", http.StatusFound)
		return
	}

	flashSuccess(w, fmt.Sprintf("Expense %q added successfully!", expense.Description))
	http.Redirect(w, r, "/", http.StatusFound)
}

// handleEditExpenseForm renders the edit form pre-filled with the stored
// expense. Unknown ids render the 404 page.
func (s *Server) handleEditExpenseForm(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := pathID(r)
	if !ok {
		s.handleNotFound(w, r)
		return
	}

	expense, err := s.store.GetExpense(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		s.handleNotFound(w, r)
		return
	}
	if err != nil {
		slog.ErrorContext(ctx, "Failed loading expense for edit", "error", err, "id", id)
		flashErrors(w, []string{"Error loading expense. Please try again."})
		http.Redirect(w, r, "/expenses", http.StatusFound)
		return
	}

	categories, err := s.svc.EnsureCategories(ctx)
	if err != nil {
		slog.ErrorContext(ctx, "Failed listing categories for edit", "error", err)
		flashErrors(w, []string{"Error loading categories. Please try again."})
		http.Redirect(w, r, "/expenses", http.StatusFound)
		return
	}

	s.render(w, r, "edit_expense.html", http.StatusOK, expenseFormData{
		Flashes:    popFlashes(w, r),
		Categories: categories,
		Form: services.ExpenseForm{
			Description: expense.Description,
			Amount:      fmt.Sprintf("%.2f", expense.Amount.Dollars()),
			CategoryID:  fmt.Sprintf("%d", expense.CategoryID),
			Date:        expense.Date.String(),
			Notes:       expense.Notes,
		},
		Editing:   true,
		ExpenseID: id,
	})
}

func (s *Server) handleEditExpenseSubmit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := pathID(r)
	if !ok {
		s.handleNotFound(w, r)
		return
	}

	if _, err := s.store.GetExpense(ctx, id); errors.Is(err, store.ErrNotFound) {
		s.handleNotFound(w, r)
		return
	} else if err != nil {
		slog.ErrorContext(ctx, "Failed loading expense for update", "error", err, "id", id)
		flashErrors(w, []string{"Error saving expense. Please try again."})
		http.Redirect(w, r, "/expenses", http.StatusFound)
		return
	}

	if err := r.ParseForm(); err != nil {
		flashErrors(w, []string{"Invalid form submission"})
		http.Redirect(w, r, fmt.Sprintf("/edit_expense/%d", id), http.StatusFound)
		return
	}

	form := formFromRequest(r)
	expense, problems, err := s.svc.SaveExpense(ctx, form, id)
	if err != nil {
		slog.ErrorContext(ctx, "Failed updating expense", "error", err, "id", id)
		flashErrors(w, []string{"Error saving expense. Please try again."})
		http.Redirect(w, r, fmt.Sprintf("/edit_expense/%d", id), http.StatusFound)
		return
	}
	if len(problems) > 0 {
		flashErrors(w, problems)
		http.Redirect(w, r, fmt.Sprintf("/edit_expense/%d", id), http.StatusFound)
		return
	}

	flashSuccess(w, fmt.Sprintf("Expense %q updated successfully!", expense.Description))
	http.Redirect(w, r, "/", http.StatusFound)
}

// handleDeleteExpense removes an expense and redirects back to the page the
// delete button lived on.
func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	id, ok := pathID(r)
	if !ok {
		s.handleNotFound(w, r)
		return
	}

	expense, err := s.store.GetExpense(ctx, id)
	if errors.Is(err, store.ErrNotFound) {
		s.handleNotFound(w, r)
		return
	}
	if err != nil {
		slog.ErrorContext(ctx, "Failed loading expense for delete", "error", err, "id", id)
		flashErrors(w, []string{"Error deleting expense. Please try again."})
		redirectBack(w, r, "/")
		return
	}

	if err := s.store.DeleteExpense(ctx, id); err != nil {
		slog.ErrorContext(ctx, "Failed deleting expense", "error", err, "id", id)
		flashErrors(w, []string{"Error deleting expense. Please try again."})
		redirectBack(w, r, "/")
		return
	}

	flashSuccess(w, fmt.Sprintf("Expense %q deleted successfully!", expense.Description))
	redirectBack(w, r, "/")
}

func formFromRequest(r *http.Request) services.ExpenseForm {
	return services.ExpenseForm{
		Description: sanitizeInput(r.FormValue("description")),
		Amount:      sanitizeInput(r.FormValue("amount")),
		CategoryID:  sanitizeInput(r.FormValue("category_id")),
		Date:        sanitizeInput(r.FormValue("date")),
		Notes:       sanitizeInput(r.FormValue("notes")),
	}
}
