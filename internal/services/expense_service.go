package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"expensetracker/internal/core"
	"expensetracker/internal/store"
)

// ExpenseService orchestrates expense persistence and the shared
// create/edit form validation flow.
type ExpenseService struct {
	store store.Store
}

func NewExpenseService(st store.Store) *ExpenseService {
	return &ExpenseService{store: st}
}

// ExpenseForm carries the raw string fields of the add/edit expense form.
type ExpenseForm struct {
	Description string
	Amount      string
	CategoryID  string
	Date        string
	Notes       string
}

// SaveExpense validates the form and creates a new expense, or updates the
// one identified by existingID when it is non-zero.
//
// Validation accumulates every failure instead of short-circuiting; the
// returned messages are user-facing and ordered description, amount,
// category, date. When any validation fails nothing is persisted. A non-nil
// error reports persistence-layer failure only.
func (s *ExpenseService) SaveExpense(ctx context.Context, form ExpenseForm, existingID int64) (core.Expense, []string, error) {
	var problems []string

	description := strings.TrimSpace(form.Description)
	if description == "" {
		problems = append(problems, "Description is required")
	} else if len(description) > core.MaxDescriptionLen {
		problems = append(problems, "Description must be less than 255 characters")
	}

	var amount core.Money
	amountStr := strings.TrimSpace(form.Amount)
	if amountStr == "" {
		problems = append(problems, "Amount is required")
	} else {
		cents, err := core.ParseDecimalToCents(amountStr)
		switch {
		case errors.Is(err, core.ErrNonPositiveAmount):
			problems = append(problems, "Amount must be positive")
		case errors.Is(err, core.ErrAmountTooLarge):
			problems = append(problems, "Amount is too large")
		case err != nil:
			problems = append(problems, "Invalid amount format")
		default:
			amount = core.Money{Cents: cents}
		}
	}

	var categoryID int64
	catStr := strings.TrimSpace(form.CategoryID)
	if catStr == "" {
		problems = append(problems, "Category is required")
	} else {
		id, err := strconv.ParseInt(catStr, 10, 64)
		if err != nil || id <= 0 {
			problems = append(problems, "Invalid category selected")
		} else {
			cat, err := s.store.GetCategory(ctx, id)
			if err != nil || !cat.IsActive {
				problems = append(problems, "Invalid category selected")
			} else {
				categoryID = id
			}
		}
	}

	date := core.Today()
	if dateStr := strings.TrimSpace(form.Date); dateStr != "" {
		parsed, err := core.ParseDate(dateStr)
		if err != nil {
			problems = append(problems, "Invalid date format")
		} else {
			date = parsed
		}
	}

	if len(problems) > 0 {
		return core.Expense{}, problems, nil
	}

	expense := core.Expense{
		ID:          existingID,
		Description: description,
		Amount:      amount,
		Date:        date,
		Notes:       strings.TrimSpace(form.Notes),
		CategoryID:  categoryID,
	}

	if existingID > 0 {
		if err := s.store.UpdateExpense(ctx, expense); err != nil {
			return core.Expense{}, nil, fmt.Errorf("update expense: %w", err)
		}
		slog.InfoContext(ctx, "Expense updated via form",
			"id", existingID, "description", description, "amount_cents", amount.Cents)
		return expense, nil, nil
	}

	id, err := s.store.CreateExpense(ctx, expense)
	if err != nil {
		return core.Expense{}, nil, fmt.Errorf("create expense: %w", err)
	}
	expense.ID = id

	slog.InfoContext(ctx, "Expense created via form",
		"id", id, "description", description, "amount_cents", amount.Cents)
	return expense, nil, nil
}

// EnsureCategories seeds the default category set when no active category
// exists. Used lazily by the add-expense page and best-effort at startup.
func (s *ExpenseService) EnsureCategories(ctx context.Context) ([]core.Category, error) {
	cats, err := s.store.ActiveCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active categories: %w", err)
	}
	if len(cats) > 0 {
		return cats, nil
	}

	created, err := s.store.SeedDefaultCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("seed default categories: %w", err)
	}
	slog.InfoContext(ctx, "Seeded default categories", "created", created)

	cats, err = s.store.ActiveCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list active categories after seed: %w", err)
	}
	return cats, nil
}

// Summary computes the dashboard and JSON summary figures for the month and
// year containing at.
func (s *ExpenseService) Summary(ctx context.Context, at time.Time) (core.Summary, error) {
	year, month := at.Year(), int(at.Month())

	monthly, err := s.store.MonthlyTotal(ctx, year, month)
	if err != nil {
		return core.Summary{}, fmt.Errorf("monthly total: %w", err)
	}
	yearly, err := s.store.YearlyTotal(ctx, year)
	if err != nil {
		return core.Summary{}, fmt.Errorf("yearly total: %w", err)
	}
	byCategory, err := s.store.CategoryTotals(ctx, year, month)
	if err != nil {
		return core.Summary{}, fmt.Errorf("category totals: %w", err)
	}

	return core.Summary{
		MonthlyTotal:   monthly,
		YearlyTotal:    yearly,
		CategoryTotals: byCategory,
		Month:          at.Format("January 2006"),
		Year:           year,
	}, nil
}
