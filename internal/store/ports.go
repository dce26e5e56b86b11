package store

import (
	"context"
	"errors"

	"expensetracker/internal/core"
)

// ErrNotFound is returned when a referenced entity id does not exist.
var ErrNotFound = errors.New("not found")

// ExpenseFilter narrows and paginates expense listings.
// A zero Search means no text filter; a zero CategoryID means all categories.
type ExpenseFilter struct {
	Search     string
	CategoryID int64
	Page       int
	PerPage    int
}

// Ports for storage backends.
type (
	ExpenseStore interface {
		CreateExpense(ctx context.Context, e core.Expense) (int64, error)
		GetExpense(ctx context.Context, id int64) (core.Expense, error)
		UpdateExpense(ctx context.Context, e core.Expense) error
		DeleteExpense(ctx context.Context, id int64) error
		// ListExpenses returns the filtered page ordered by date descending,
		// ties broken by creation time descending, plus the total row count.
		// Search matching is case-insensitive for ASCII (SQLite LIKE semantics).
		ListExpenses(ctx context.Context, f ExpenseFilter) ([]core.Expense, int, error)
		RecentExpenses(ctx context.Context, limit int) ([]core.Expense, error)
		CountExpenses(ctx context.Context) (int64, error)
	}

	CategoryStore interface {
		// SeedDefaultCategories idempotently inserts the fixed default set,
		// skipping names already present, in a single transaction.
		SeedDefaultCategories(ctx context.Context) (created int, err error)
		ActiveCategories(ctx context.Context) ([]core.Category, error)
		GetCategory(ctx context.Context, id int64) (core.Category, error)
		SetCategoryActive(ctx context.Context, id int64, active bool) error
		// DeleteCategory removes the category and cascades deletion of its
		// expenses. Not exposed over HTTP; callers must opt in deliberately.
		DeleteCategory(ctx context.Context, id int64) error
		CategoryStats(ctx context.Context) ([]core.CategoryStats, error)
	}

	// SummaryReader computes aggregate figures against current persisted state.
	SummaryReader interface {
		// MonthlyTotal sums amounts with date in [first-of-month, first-of-next-month).
		// Returns zero, never an error, for an empty month.
		MonthlyTotal(ctx context.Context, year, month int) (core.Money, error)
		YearlyTotal(ctx context.Context, year int) (core.Money, error)
		// CategoryTotals groups sums by category for the given month window;
		// year==0 && month==0 covers all time.
		CategoryTotals(ctx context.Context, year, month int) ([]core.CategoryTotal, error)
	}

	// Store is the full backend surface consumed by services and HTTP handlers.
	Store interface {
		ExpenseStore
		CategoryStore
		SummaryReader
	}
)
