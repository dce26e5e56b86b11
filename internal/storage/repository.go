package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"expensetracker/internal/core"
	"expensetracker/internal/store"

	_ "modernc.org/sqlite"
)

const timeLayout = time.RFC3339Nano

// SQLiteRepository implements the store ports on a local SQLite database.
type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if dir := filepath.Dir(dbPath); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	// Foreign keys are off by default in SQLite; the category cascade depends on them.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateExpense implements store.ExpenseStore.
func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) (int64, error) {
	now := time.Now().UTC()
	res, err := r.db.ExecContext(ctx, `
		INSERT INTO expenses (description, amount_cents, date, notes, category_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.Description, e.Amount.Cents, e.Date.String(), e.Notes, e.CategoryID,
		now.Format(timeLayout), now.Format(timeLayout))
	if err != nil {
		return 0, fmt.Errorf("create expense: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("expense insert id: %w", err)
	}

	slog.InfoContext(ctx, "Expense saved",
		"id", id,
		"description", e.Description,
		"amount_cents", e.Amount.Cents,
		"category_id", e.CategoryID,
		"date", e.Date.String())

	return id, nil
}

const expenseColumns = `
	e.id, e.description, e.amount_cents, e.date, e.notes, e.category_id,
	e.created_at, e.updated_at, c.name, c.icon, c.color`

// GetExpense implements store.ExpenseStore.
func (r *SQLiteRepository) GetExpense(ctx context.Context, id int64) (core.Expense, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+expenseColumns+`
		FROM expenses e
		JOIN categories c ON c.id = e.category_id
		WHERE e.id = ?`, id)
	e, err := scanExpense(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Expense{}, fmt.Errorf("expense %d: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense: %w", err)
	}
	return e, nil
}

// UpdateExpense implements store.ExpenseStore. UpdatedAt is refreshed here.
func (r *SQLiteRepository) UpdateExpense(ctx context.Context, e core.Expense) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE expenses
		SET description = ?, amount_cents = ?, date = ?, notes = ?, category_id = ?, updated_at = ?
		WHERE id = ?`,
		e.Description, e.Amount.Cents, e.Date.String(), e.Notes, e.CategoryID,
		time.Now().UTC().Format(timeLayout), e.ID)
	if err != nil {
		return fmt.Errorf("update expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update expense rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("expense %d: %w", e.ID, store.ErrNotFound)
	}

	slog.InfoContext(ctx, "Expense updated", "id", e.ID, "amount_cents", e.Amount.Cents)
	return nil
}

// DeleteExpense implements store.ExpenseStore.
func (r *SQLiteRepository) DeleteExpense(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete expense rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("expense %d: %w", id, store.ErrNotFound)
	}

	slog.InfoContext(ctx, "Expense deleted", "id", id)
	return nil
}

// ListExpenses implements store.ExpenseStore.
func (r *SQLiteRepository) ListExpenses(ctx context.Context, f store.ExpenseFilter) ([]core.Expense, int, error) {
	where := " WHERE 1=1"
	var args []any
	if f.Search != "" {
		where += " AND e.description LIKE ?"
		args = append(args, "%"+f.Search+"%")
	}
	if f.CategoryID > 0 {
		where += " AND e.category_id = ?"
		args = append(args, f.CategoryID)
	}

	var total int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM expenses e"+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count filtered expenses: %w", err)
	}

	page := f.Page
	if page < 1 {
		page = 1
	}
	perPage := f.PerPage
	if perPage < 1 {
		perPage = 20
	}

	query := `
		SELECT ` + expenseColumns + `
		FROM expenses e
		JOIN categories c ON c.id = e.category_id` + where + `
		ORDER BY e.date DESC, e.created_at DESC
		LIMIT ? OFFSET ?`
	args = append(args, perPage, (page-1)*perPage)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	expenses, err := collectExpenses(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("list expenses: %w", err)
	}
	return expenses, total, nil
}

// RecentExpenses implements store.ExpenseStore.
func (r *SQLiteRepository) RecentExpenses(ctx context.Context, limit int) ([]core.Expense, error) {
	if limit < 1 {
		limit = 10
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+expenseColumns+`
		FROM expenses e
		JOIN categories c ON c.id = e.category_id
		ORDER BY e.date DESC, e.created_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("recent expenses: %w", err)
	}
	defer rows.Close()

	expenses, err := collectExpenses(rows)
	if err != nil {
		return nil, fmt.Errorf("recent expenses: %w", err)
	}
	return expenses, nil
}

// CountExpenses implements store.ExpenseStore.
func (r *SQLiteRepository) CountExpenses(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM expenses`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count expenses: %w", err)
	}
	return n, nil
}

// SeedDefaultCategories implements store.CategoryStore. The whole batch runs
// in one transaction; on any failure nothing is inserted.
func (r *SQLiteRepository) SeedDefaultCategories(ctx context.Context) (int, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin seed transaction: %w", err)
	}
	defer tx.Rollback()

	existing := make(map[string]struct{})
	rows, err := tx.QueryContext(ctx, `SELECT name FROM categories`)
	if err != nil {
		return 0, fmt.Errorf("query existing categories: %w", err)
	}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan category name: %w", err)
		}
		existing[name] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return 0, fmt.Errorf("iterate category names: %w", err)
	}
	if err := rows.Close(); err != nil {
		return 0, fmt.Errorf("close category rows: %w", err)
	}

	created := 0
	now := time.Now().UTC().Format(timeLayout)
	for _, c := range core.DefaultCategories() {
		if _, ok := existing[c.Name]; ok {
			continue
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO categories (name, description, color, icon, is_active, created_at)
			VALUES (?, ?, ?, ?, 1, ?)`,
			c.Name, c.Description, c.Color, c.Icon, now); err != nil {
			return 0, fmt.Errorf("insert default category %q: %w", c.Name, err)
		}
		created++
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit seed transaction: %w", err)
	}

	if created > 0 {
		slog.InfoContext(ctx, "Default categories created", "count", created)
	}
	return created, nil
}

// ActiveCategories implements store.CategoryStore.
func (r *SQLiteRepository) ActiveCategories(ctx context.Context) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, description, color, icon, is_active, created_at
		FROM categories
		WHERE is_active = 1
		ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("active categories: %w", err)
	}
	defer rows.Close()

	var cats []core.Category
	for rows.Next() {
		c, err := scanCategory(rows)
		if err != nil {
			return nil, fmt.Errorf("active categories: %w", err)
		}
		cats = append(cats, c)
	}
	return cats, rows.Err()
}

// GetCategory implements store.CategoryStore.
func (r *SQLiteRepository) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, description, color, icon, is_active, created_at
		FROM categories WHERE id = ?`, id)
	c, err := scanCategory(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, fmt.Errorf("category %d: %w", id, store.ErrNotFound)
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	return c, nil
}

// SetCategoryActive implements store.CategoryStore.
func (r *SQLiteRepository) SetCategoryActive(ctx context.Context, id int64, active bool) error {
	res, err := r.db.ExecContext(ctx, `UPDATE categories SET is_active = ? WHERE id = ?`, boolToInt(active), id)
	if err != nil {
		return fmt.Errorf("set category active: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set category active rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("category %d: %w", id, store.ErrNotFound)
	}
	return nil
}

// DeleteCategory implements store.CategoryStore. The schema-level
// ON DELETE CASCADE removes the category's expenses with it.
func (r *SQLiteRepository) DeleteCategory(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete category rows: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("category %d: %w", id, store.ErrNotFound)
	}

	slog.WarnContext(ctx, "Category deleted with cascading expenses", "id", id)
	return nil
}

// CategoryStats implements store.CategoryStore.
func (r *SQLiteRepository) CategoryStats(ctx context.Context) ([]core.CategoryStats, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT c.id, c.name, c.description, c.color, c.icon, c.is_active, c.created_at,
		       COALESCE(SUM(e.amount_cents), 0), COUNT(e.id)
		FROM categories c
		LEFT JOIN expenses e ON e.category_id = c.id
		GROUP BY c.id
		ORDER BY c.name ASC`)
	if err != nil {
		return nil, fmt.Errorf("category stats: %w", err)
	}
	defer rows.Close()

	var stats []core.CategoryStats
	for rows.Next() {
		var (
			s         core.CategoryStats
			isActive  int64
			createdAt string
		)
		if err := rows.Scan(&s.ID, &s.Name, &s.Description, &s.Color, &s.Icon,
			&isActive, &createdAt, &s.TotalSpent.Cents, &s.ExpenseCount); err != nil {
			return nil, fmt.Errorf("scan category stats: %w", err)
		}
		s.IsActive = isActive != 0
		s.CreatedAt = parseTime(createdAt)
		stats = append(stats, s)
	}
	return stats, rows.Err()
}

// MonthlyTotal implements store.SummaryReader.
func (r *SQLiteRepository) MonthlyTotal(ctx context.Context, year, month int) (core.Money, error) {
	start, end := monthWindow(year, month)
	return r.sumWindow(ctx, start, end)
}

// YearlyTotal implements store.SummaryReader.
func (r *SQLiteRepository) YearlyTotal(ctx context.Context, year int) (core.Money, error) {
	start := core.NewDate(year, 1, 1)
	end := core.NewDate(year+1, 1, 1)
	return r.sumWindow(ctx, start, end)
}

// CategoryTotals implements store.SummaryReader.
func (r *SQLiteRepository) CategoryTotals(ctx context.Context, year, month int) ([]core.CategoryTotal, error) {
	query := `
		SELECT c.name, c.icon, c.color, SUM(e.amount_cents) AS total
		FROM expenses e
		JOIN categories c ON c.id = e.category_id`
	var args []any
	if year != 0 || month != 0 {
		start, end := monthWindow(year, month)
		query += ` WHERE e.date >= ? AND e.date < ?`
		args = append(args, start.String(), end.String())
	}
	query += ` GROUP BY c.id ORDER BY total DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("category totals: %w", err)
	}
	defer rows.Close()

	var totals []core.CategoryTotal
	for rows.Next() {
		var ct core.CategoryTotal
		if err := rows.Scan(&ct.Category, &ct.Icon, &ct.Color, &ct.Total.Cents); err != nil {
			return nil, fmt.Errorf("scan category total: %w", err)
		}
		totals = append(totals, ct)
	}
	return totals, rows.Err()
}

func (r *SQLiteRepository) sumWindow(ctx context.Context, start, end core.Date) (core.Money, error) {
	var cents int64
	err := r.db.QueryRowContext(ctx, `
		SELECT COALESCE(SUM(amount_cents), 0)
		FROM expenses
		WHERE date >= ? AND date < ?`, start.String(), end.String()).Scan(&cents)
	if err != nil {
		return core.Money{}, fmt.Errorf("sum window [%s, %s): %w", start, end, err)
	}
	return core.Money{Cents: cents}, nil
}

// monthWindow returns [first-of-month, first-of-next-month). Dates are stored
// as YYYY-MM-DD text, so lexicographic comparison matches calendar order.
func monthWindow(year, month int) (core.Date, core.Date) {
	start := core.NewDate(year, month, 1)
	end := core.Date{Time: start.AddDate(0, 1, 0)}
	return start, end
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExpense(row rowScanner) (core.Expense, error) {
	var (
		e                    core.Expense
		date                 string
		createdAt, updatedAt string
	)
	if err := row.Scan(&e.ID, &e.Description, &e.Amount.Cents, &date, &e.Notes,
		&e.CategoryID, &createdAt, &updatedAt,
		&e.CategoryName, &e.CategoryIcon, &e.CategoryColor); err != nil {
		return core.Expense{}, err
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return core.Expense{}, fmt.Errorf("stored date %q: %w", date, err)
	}
	e.Date = d
	e.CreatedAt = parseTime(createdAt)
	e.UpdatedAt = parseTime(updatedAt)
	return e, nil
}

func collectExpenses(rows *sql.Rows) ([]core.Expense, error) {
	var expenses []core.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, err
		}
		expenses = append(expenses, e)
	}
	return expenses, rows.Err()
}

func scanCategory(row rowScanner) (core.Category, error) {
	var (
		c         core.Category
		isActive  int64
		createdAt string
	)
	if err := row.Scan(&c.ID, &c.Name, &c.Description, &c.Color, &c.Icon, &isActive, &createdAt); err != nil {
		return core.Category{}, err
	}
	c.IsActive = isActive != 0
	c.CreatedAt = parseTime(createdAt)
	return c, nil
}

func parseTime(s string) time.Time {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

func boolToInt(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
