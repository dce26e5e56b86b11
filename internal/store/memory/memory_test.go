package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expensetracker/internal/core"
	"expensetracker/internal/store"
)

func seededStore(t *testing.T) (*Store, []core.Category) {
	t.Helper()
	s := New()
	created, err := s.SeedDefaultCategories(context.Background())
	require.NoError(t, err)
	require.Equal(t, 9, created)

	cats, err := s.ActiveCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, cats, 9)
	return s, cats
}

func TestSeedDefaultCategoriesIdempotent(t *testing.T) {
	s, _ := seededStore(t)

	created, err := s.SeedDefaultCategories(context.Background())
	require.NoError(t, err)
	assert.Zero(t, created)

	cats, err := s.ActiveCategories(context.Background())
	require.NoError(t, err)
	assert.Len(t, cats, 9)
}

func TestExpenseCRUD(t *testing.T) {
	ctx := context.Background()
	s, cats := seededStore(t)

	id, err := s.CreateExpense(ctx, core.Expense{
		Description: "Coffee",
		Amount:      core.Money{Cents: 450},
		Date:        core.NewDate(2024, 3, 15),
		CategoryID:  cats[0].ID,
	})
	require.NoError(t, err)
	require.Positive(t, id)

	got, err := s.GetExpense(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Coffee", got.Description)
	assert.Equal(t, int64(450), got.Amount.Cents)
	assert.Equal(t, cats[0].Name, got.CategoryName)
	assert.False(t, got.CreatedAt.IsZero())

	got.Description = "Espresso"
	got.Amount.Cents = 500
	require.NoError(t, s.UpdateExpense(ctx, got))

	updated, err := s.GetExpense(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "Espresso", updated.Description)
	assert.Equal(t, got.CreatedAt, updated.CreatedAt)

	require.NoError(t, s.DeleteExpense(ctx, id))
	_, err = s.GetExpense(ctx, id)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCreateExpenseUnknownCategory(t *testing.T) {
	s := New()
	_, err := s.CreateExpense(context.Background(), core.Expense{
		Description: "Ghost",
		Amount:      core.Money{Cents: 100},
		Date:        core.Today(),
		CategoryID:  42,
	})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestListExpensesFilterAndPaginate(t *testing.T) {
	ctx := context.Background()
	s, cats := seededStore(t)

	for i := 0; i < 25; i++ {
		desc := "Lunch"
		catID := cats[0].ID
		if i%5 == 0 {
			desc = "Taxi ride"
			catID = cats[1].ID
		}
		_, err := s.CreateExpense(ctx, core.Expense{
			Description: desc,
			Amount:      core.Money{Cents: 1000},
			Date:        core.NewDate(2024, 3, 1+i%28),
			CategoryID:  catID,
		})
		require.NoError(t, err)
	}

	page1, total, err := s.ListExpenses(ctx, store.ExpenseFilter{Page: 1, PerPage: 20})
	require.NoError(t, err)
	assert.Equal(t, 25, total)
	assert.Len(t, page1, 20)

	page2, _, err := s.ListExpenses(ctx, store.ExpenseFilter{Page: 2, PerPage: 20})
	require.NoError(t, err)
	assert.Len(t, page2, 5)

	// Newest first
	for i := 1; i < len(page1); i++ {
		assert.False(t, page1[i-1].Date.Before(page1[i].Date.Time))
	}

	taxis, total, err := s.ListExpenses(ctx, store.ExpenseFilter{Search: "taxi", Page: 1, PerPage: 20})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	for _, e := range taxis {
		assert.Equal(t, "Taxi ride", e.Description)
	}

	byCat, total, err := s.ListExpenses(ctx, store.ExpenseFilter{CategoryID: cats[1].ID, Page: 1, PerPage: 20})
	require.NoError(t, err)
	assert.Equal(t, 5, total)
	assert.Len(t, byCat, 5)

	empty, total, err := s.ListExpenses(ctx, store.ExpenseFilter{Page: 99, PerPage: 20})
	require.NoError(t, err)
	assert.Equal(t, 25, total)
	assert.Empty(t, empty)
}

func TestRecentExpensesLimit(t *testing.T) {
	ctx := context.Background()
	s, cats := seededStore(t)

	for i := 0; i < 12; i++ {
		_, err := s.CreateExpense(ctx, core.Expense{
			Description: "Item",
			Amount:      core.Money{Cents: 100},
			Date:        core.NewDate(2024, 1, 1+i),
			CategoryID:  cats[0].ID,
		})
		require.NoError(t, err)
	}

	recent, err := s.RecentExpenses(ctx, 10)
	require.NoError(t, err)
	require.Len(t, recent, 10)
	assert.Equal(t, "2024-01-12", recent[0].Date.String())
}

func TestDeleteCategoryCascades(t *testing.T) {
	ctx := context.Background()
	s, cats := seededStore(t)

	id, err := s.CreateExpense(ctx, core.Expense{
		Description: "Doomed",
		Amount:      core.Money{Cents: 100},
		Date:        core.Today(),
		CategoryID:  cats[0].ID,
	})
	require.NoError(t, err)

	require.NoError(t, s.DeleteCategory(ctx, cats[0].ID))

	_, err = s.GetExpense(ctx, id)
	assert.ErrorIs(t, err, store.ErrNotFound)

	count, err := s.CountExpenses(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestSetCategoryActive(t *testing.T) {
	ctx := context.Background()
	s, cats := seededStore(t)

	require.NoError(t, s.SetCategoryActive(ctx, cats[0].ID, false))

	active, err := s.ActiveCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, active, 8)

	assert.ErrorIs(t, s.SetCategoryActive(ctx, 999, false), store.ErrNotFound)
}

func TestSummaryTotals(t *testing.T) {
	ctx := context.Background()
	s, cats := seededStore(t)

	add := func(cents int64, d core.Date, catID int64) {
		t.Helper()
		_, err := s.CreateExpense(ctx, core.Expense{
			Description: "x",
			Amount:      core.Money{Cents: cents},
			Date:        d,
			CategoryID:  catID,
		})
		require.NoError(t, err)
	}

	add(1000, core.NewDate(2024, 3, 1), cats[0].ID)   // in month
	add(2000, core.NewDate(2024, 3, 31), cats[1].ID)  // in month
	add(4000, core.NewDate(2024, 4, 1), cats[0].ID)   // next month, same year
	add(8000, core.NewDate(2023, 12, 31), cats[0].ID) // prior year

	monthly, err := s.MonthlyTotal(ctx, 2024, 3)
	require.NoError(t, err)
	assert.Equal(t, int64(3000), monthly.Cents)

	yearly, err := s.YearlyTotal(ctx, 2024)
	require.NoError(t, err)
	assert.Equal(t, int64(7000), yearly.Cents)

	totals, err := s.CategoryTotals(ctx, 2024, 3)
	require.NoError(t, err)
	require.Len(t, totals, 2)
	assert.Equal(t, cats[1].Name, totals[0].Category) // largest first
	assert.Equal(t, int64(2000), totals[0].Total.Cents)

	allTime, err := s.CategoryTotals(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, allTime, 2)
	assert.Equal(t, int64(13000), allTime[0].Total.Cents)
}

func TestDecemberWindowRollsToJanuary(t *testing.T) {
	ctx := context.Background()
	s, cats := seededStore(t)

	_, err := s.CreateExpense(ctx, core.Expense{
		Description: "NYE dinner",
		Amount:      core.Money{Cents: 5000},
		Date:        core.NewDate(2023, 12, 31),
		CategoryID:  cats[0].ID,
	})
	require.NoError(t, err)
	_, err = s.CreateExpense(ctx, core.Expense{
		Description: "New year brunch",
		Amount:      core.Money{Cents: 3000},
		Date:        core.NewDate(2024, 1, 1),
		CategoryID:  cats[0].ID,
	})
	require.NoError(t, err)

	december, err := s.MonthlyTotal(ctx, 2023, 12)
	require.NoError(t, err)
	assert.Equal(t, int64(5000), december.Cents)

	january, err := s.MonthlyTotal(ctx, 2024, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3000), january.Cents)
}
