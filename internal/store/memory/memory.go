// Package memory provides an in-memory Store implementation. It backs local
// development without a database file and doubles as the handler test double.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"expensetracker/internal/core"
	"expensetracker/internal/store"
)

type Store struct {
	mu         sync.Mutex
	categories map[int64]core.Category
	expenses   map[int64]core.Expense
	nextCatID  int64
	nextExpID  int64
}

func New() *Store {
	return &Store{
		categories: make(map[int64]core.Category),
		expenses:   make(map[int64]core.Expense),
	}
}

// CreateExpense implements store.ExpenseStore.
func (s *Store) CreateExpense(_ context.Context, e core.Expense) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[e.CategoryID]; !ok {
		return 0, fmt.Errorf("category %d: %w", e.CategoryID, store.ErrNotFound)
	}

	s.nextExpID++
	e.ID = s.nextExpID
	now := time.Now().UTC()
	e.CreatedAt = now
	e.UpdatedAt = now
	s.decorate(&e)
	s.expenses[e.ID] = e
	return e.ID, nil
}

// GetExpense implements store.ExpenseStore.
func (s *Store) GetExpense(_ context.Context, id int64) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.expenses[id]
	if !ok {
		return core.Expense{}, fmt.Errorf("expense %d: %w", id, store.ErrNotFound)
	}
	s.decorate(&e)
	return e, nil
}

// UpdateExpense implements store.ExpenseStore.
func (s *Store) UpdateExpense(_ context.Context, e core.Expense) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	old, ok := s.expenses[e.ID]
	if !ok {
		return fmt.Errorf("expense %d: %w", e.ID, store.ErrNotFound)
	}
	e.CreatedAt = old.CreatedAt
	e.UpdatedAt = time.Now().UTC()
	s.decorate(&e)
	s.expenses[e.ID] = e
	return nil
}

// DeleteExpense implements store.ExpenseStore.
func (s *Store) DeleteExpense(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.expenses[id]; !ok {
		return fmt.Errorf("expense %d: %w", id, store.ErrNotFound)
	}
	delete(s.expenses, id)
	return nil
}

// ListExpenses implements store.ExpenseStore. Search matching is
// case-insensitive to mirror SQLite LIKE semantics.
func (s *Store) ListExpenses(_ context.Context, f store.ExpenseFilter) ([]core.Expense, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []core.Expense
	search := strings.ToLower(f.Search)
	for _, e := range s.expenses {
		if search != "" && !strings.Contains(strings.ToLower(e.Description), search) {
			continue
		}
		if f.CategoryID > 0 && e.CategoryID != f.CategoryID {
			continue
		}
		s.decorate(&e)
		matched = append(matched, e)
	}
	sortNewestFirst(matched)

	total := len(matched)
	page := f.Page
	if page < 1 {
		page = 1
	}
	perPage := f.PerPage
	if perPage < 1 {
		perPage = 20
	}
	start := (page - 1) * perPage
	if start >= total {
		return nil, total, nil
	}
	end := start + perPage
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

// RecentExpenses implements store.ExpenseStore.
func (s *Store) RecentExpenses(_ context.Context, limit int) ([]core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all := make([]core.Expense, 0, len(s.expenses))
	for _, e := range s.expenses {
		s.decorate(&e)
		all = append(all, e)
	}
	sortNewestFirst(all)
	if limit > 0 && len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

// CountExpenses implements store.ExpenseStore.
func (s *Store) CountExpenses(_ context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return int64(len(s.expenses)), nil
}

// SeedDefaultCategories implements store.CategoryStore.
func (s *Store) SeedDefaultCategories(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing := make(map[string]struct{}, len(s.categories))
	for _, c := range s.categories {
		existing[c.Name] = struct{}{}
	}

	created := 0
	for _, c := range core.DefaultCategories() {
		if _, ok := existing[c.Name]; ok {
			continue
		}
		s.nextCatID++
		c.ID = s.nextCatID
		c.CreatedAt = time.Now().UTC()
		s.categories[c.ID] = c
		created++
	}
	return created, nil
}

// AddCategory inserts a category directly; names must stay unique.
func (s *Store) AddCategory(c core.Category) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, cur := range s.categories {
		if cur.Name == c.Name {
			return 0, fmt.Errorf("category %q already exists", c.Name)
		}
	}
	s.nextCatID++
	c.ID = s.nextCatID
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	s.categories[c.ID] = c
	return c.ID, nil
}

// ActiveCategories implements store.CategoryStore.
func (s *Store) ActiveCategories(_ context.Context) ([]core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var cats []core.Category
	for _, c := range s.categories {
		if c.IsActive {
			cats = append(cats, c)
		}
	}
	sort.Slice(cats, func(i, j int) bool { return cats[i].Name < cats[j].Name })
	return cats, nil
}

// GetCategory implements store.CategoryStore.
func (s *Store) GetCategory(_ context.Context, id int64) (core.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.categories[id]
	if !ok {
		return core.Category{}, fmt.Errorf("category %d: %w", id, store.ErrNotFound)
	}
	return c, nil
}

// SetCategoryActive implements store.CategoryStore.
func (s *Store) SetCategoryActive(_ context.Context, id int64, active bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.categories[id]
	if !ok {
		return fmt.Errorf("category %d: %w", id, store.ErrNotFound)
	}
	c.IsActive = active
	s.categories[id] = c
	return nil
}

// DeleteCategory implements store.CategoryStore, cascading to expenses.
func (s *Store) DeleteCategory(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.categories[id]; !ok {
		return fmt.Errorf("category %d: %w", id, store.ErrNotFound)
	}
	delete(s.categories, id)
	for eid, e := range s.expenses {
		if e.CategoryID == id {
			delete(s.expenses, eid)
		}
	}
	return nil
}

// CategoryStats implements store.CategoryStore.
func (s *Store) CategoryStats(_ context.Context) ([]core.CategoryStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var stats []core.CategoryStats
	for _, c := range s.categories {
		st := core.CategoryStats{Category: c}
		for _, e := range s.expenses {
			if e.CategoryID == c.ID {
				st.TotalSpent.Cents += e.Amount.Cents
				st.ExpenseCount++
			}
		}
		stats = append(stats, st)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Name < stats[j].Name })
	return stats, nil
}

// MonthlyTotal implements store.SummaryReader.
func (s *Store) MonthlyTotal(_ context.Context, year, month int) (core.Money, error) {
	start := core.NewDate(year, month, 1)
	end := core.Date{Time: start.AddDate(0, 1, 0)}
	return s.sumWindow(start, end), nil
}

// YearlyTotal implements store.SummaryReader.
func (s *Store) YearlyTotal(_ context.Context, year int) (core.Money, error) {
	return s.sumWindow(core.NewDate(year, 1, 1), core.NewDate(year+1, 1, 1)), nil
}

// CategoryTotals implements store.SummaryReader.
func (s *Store) CategoryTotals(_ context.Context, year, month int) ([]core.CategoryTotal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	allTime := year == 0 && month == 0
	var start, end core.Date
	if !allTime {
		start = core.NewDate(year, month, 1)
		end = core.Date{Time: start.AddDate(0, 1, 0)}
	}

	sums := make(map[int64]int64)
	for _, e := range s.expenses {
		if !allTime && (e.Date.Before(start.Time) || !e.Date.Before(end.Time)) {
			continue
		}
		sums[e.CategoryID] += e.Amount.Cents
	}

	var totals []core.CategoryTotal
	for catID, cents := range sums {
		c := s.categories[catID]
		totals = append(totals, core.CategoryTotal{
			Category: c.Name,
			Icon:     c.Icon,
			Color:    c.Color,
			Total:    core.Money{Cents: cents},
		})
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Total.Cents > totals[j].Total.Cents })
	return totals, nil
}

func (s *Store) sumWindow(start, end core.Date) core.Money {
	s.mu.Lock()
	defer s.mu.Unlock()

	var cents int64
	for _, e := range s.expenses {
		if e.Date.Before(start.Time) || !e.Date.Before(end.Time) {
			continue
		}
		cents += e.Amount.Cents
	}
	return core.Money{Cents: cents}
}

// decorate fills the joined category display fields. Callers hold the lock.
func (s *Store) decorate(e *core.Expense) {
	if c, ok := s.categories[e.CategoryID]; ok {
		e.CategoryName = c.Name
		e.CategoryIcon = c.Icon
		e.CategoryColor = c.Color
	}
}

func sortNewestFirst(expenses []core.Expense) {
	sort.Slice(expenses, func(i, j int) bool {
		if !expenses[i].Date.Equal(expenses[j].Date.Time) {
			return expenses[i].Date.After(expenses[j].Date.Time)
		}
		if !expenses[i].CreatedAt.Equal(expenses[j].CreatedAt) {
			return expenses[i].CreatedAt.After(expenses[j].CreatedAt)
		}
		return expenses[i].ID > expenses[j].ID
	})
}
