package core

// CategoryTotal is a per-category sum for a reporting period.
type CategoryTotal struct {
	Category string
	Icon     string
	Color    string
	Total    Money
}

// CategoryStats extends a category with its all-time spending figures.
type CategoryStats struct {
	Category
	TotalSpent   Money
	ExpenseCount int64
}

// Summary aggregates the dashboard and JSON summary figures.
type Summary struct {
	MonthlyTotal   Money
	YearlyTotal    Money
	CategoryTotals []CategoryTotal
	Month          string // e.g. "March 2024"
	Year           int
}
