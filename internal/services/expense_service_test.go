package services

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"expensetracker/internal/core"
	"expensetracker/internal/store/memory"
)

func newService(t *testing.T) (*ExpenseService, *memory.Store, []core.Category) {
	t.Helper()
	st := memory.New()
	svc := NewExpenseService(st)

	cats, err := svc.EnsureCategories(context.Background())
	require.NoError(t, err)
	require.Len(t, cats, 9)
	return svc, st, cats
}

func TestSaveExpenseCreates(t *testing.T) {
	ctx := context.Background()
	svc, st, cats := newService(t)

	expense, problems, err := svc.SaveExpense(ctx, ExpenseForm{
		Description: "  Groceries  ",
		Amount:      "42.50",
		CategoryID:  fmt.Sprintf("%d", cats[0].ID),
		Date:        "2024-03-15",
		Notes:       "weekly shop",
	}, 0)
	require.NoError(t, err)
	require.Empty(t, problems)

	assert.Equal(t, "Groceries", expense.Description)
	assert.Equal(t, int64(4250), expense.Amount.Cents)
	assert.Equal(t, "2024-03-15", expense.Date.String())

	stored, err := st.GetExpense(ctx, expense.ID)
	require.NoError(t, err)
	assert.Equal(t, "weekly shop", stored.Notes)
}

func TestSaveExpenseUpdates(t *testing.T) {
	ctx := context.Background()
	svc, st, cats := newService(t)

	created, problems, err := svc.SaveExpense(ctx, ExpenseForm{
		Description: "Lunch",
		Amount:      "10.00",
		CategoryID:  fmt.Sprintf("%d", cats[0].ID),
	}, 0)
	require.NoError(t, err)
	require.Empty(t, problems)

	_, problems, err = svc.SaveExpense(ctx, ExpenseForm{
		Description: "Team lunch",
		Amount:      "25.00",
		CategoryID:  fmt.Sprintf("%d", cats[1].ID),
		Date:        "2024-02-01",
	}, created.ID)
	require.NoError(t, err)
	require.Empty(t, problems)

	stored, err := st.GetExpense(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Team lunch", stored.Description)
	assert.Equal(t, int64(2500), stored.Amount.Cents)
	assert.Equal(t, cats[1].ID, stored.CategoryID)

	count, err := st.CountExpenses(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestSaveExpenseAccumulatesProblems(t *testing.T) {
	ctx := context.Background()
	svc, st, _ := newService(t)

	_, problems, err := svc.SaveExpense(ctx, ExpenseForm{
		Description: "",
		Amount:      "",
		CategoryID:  "",
		Date:        "bogus",
	}, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{
		"Description is required",
		"Amount is required",
		"Category is required",
		"Invalid date format",
	}, problems)

	count, err := st.CountExpenses(ctx)
	require.NoError(t, err)
	assert.Zero(t, count, "nothing should be persisted on validation failure")
}

func TestSaveExpenseValidationMessages(t *testing.T) {
	ctx := context.Background()
	svc, _, cats := newService(t)
	validCat := fmt.Sprintf("%d", cats[0].ID)

	tests := []struct {
		name string
		form ExpenseForm
		want string
	}{
		{
			name: "long description",
			form: ExpenseForm{Description: strings.Repeat("x", 256), Amount: "1.00", CategoryID: validCat},
			want: "Description must be less than 255 characters",
		},
		{
			name: "negative amount",
			form: ExpenseForm{Description: "d", Amount: "-5", CategoryID: validCat},
			want: "Amount must be positive",
		},
		{
			name: "oversized amount",
			form: ExpenseForm{Description: "d", Amount: "1000000", CategoryID: validCat},
			want: "Amount is too large",
		},
		{
			name: "malformed amount",
			form: ExpenseForm{Description: "d", Amount: "abc", CategoryID: validCat},
			want: "Invalid amount format",
		},
		{
			name: "unknown category",
			form: ExpenseForm{Description: "d", Amount: "1.00", CategoryID: "9999"},
			want: "Invalid category selected",
		},
		{
			name: "non-numeric category",
			form: ExpenseForm{Description: "d", Amount: "1.00", CategoryID: "food"},
			want: "Invalid category selected",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, problems, err := svc.SaveExpense(ctx, tt.form, 0)
			require.NoError(t, err)
			assert.Equal(t, []string{tt.want}, problems)
		})
	}
}

func TestSaveExpenseRejectsInactiveCategory(t *testing.T) {
	ctx := context.Background()
	svc, st, cats := newService(t)

	require.NoError(t, st.SetCategoryActive(ctx, cats[0].ID, false))

	_, problems, err := svc.SaveExpense(ctx, ExpenseForm{
		Description: "d",
		Amount:      "1.00",
		CategoryID:  fmt.Sprintf("%d", cats[0].ID),
	}, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"Invalid category selected"}, problems)
}

func TestSaveExpenseDefaultsDateToToday(t *testing.T) {
	ctx := context.Background()
	svc, _, cats := newService(t)

	expense, problems, err := svc.SaveExpense(ctx, ExpenseForm{
		Description: "d",
		Amount:      "1.00",
		CategoryID:  fmt.Sprintf("%d", cats[0].ID),
	}, 0)
	require.NoError(t, err)
	require.Empty(t, problems)
	assert.Equal(t, core.Today().String(), expense.Date.String())
}

func TestEnsureCategoriesSeedsOnce(t *testing.T) {
	ctx := context.Background()
	st := memory.New()
	svc := NewExpenseService(st)

	first, err := svc.EnsureCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, first, 9)

	again, err := svc.EnsureCategories(ctx)
	require.NoError(t, err)
	assert.Len(t, again, 9)
}

func TestSummary(t *testing.T) {
	ctx := context.Background()
	svc, st, cats := newService(t)

	at := time.Date(2024, time.March, 15, 12, 0, 0, 0, time.UTC)

	_, err := st.CreateExpense(ctx, core.Expense{
		Description: "In month",
		Amount:      core.Money{Cents: 1500},
		Date:        core.NewDate(2024, 3, 10),
		CategoryID:  cats[0].ID,
	})
	require.NoError(t, err)
	_, err = st.CreateExpense(ctx, core.Expense{
		Description: "Earlier this year",
		Amount:      core.Money{Cents: 2500},
		Date:        core.NewDate(2024, 1, 5),
		CategoryID:  cats[1].ID,
	})
	require.NoError(t, err)

	summary, err := svc.Summary(ctx, at)
	require.NoError(t, err)

	assert.Equal(t, int64(1500), summary.MonthlyTotal.Cents)
	assert.Equal(t, int64(4000), summary.YearlyTotal.Cents)
	assert.Equal(t, "March 2024", summary.Month)
	assert.Equal(t, 2024, summary.Year)
	require.Len(t, summary.CategoryTotals, 1)
	assert.Equal(t, cats[0].Name, summary.CategoryTotals[0].Category)
}

func TestSummaryEmptyState(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t)

	summary, err := svc.Summary(ctx, time.Date(2024, time.June, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Zero(t, summary.MonthlyTotal.Cents)
	assert.Zero(t, summary.YearlyTotal.Cents)
	assert.Empty(t, summary.CategoryTotals)
}
