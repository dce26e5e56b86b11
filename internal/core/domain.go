package core

import (
	"errors"
	"strings"
	"time"
)

const (
	MaxDescriptionLen  = 255
	MaxCategoryNameLen = 50

	DefaultCategoryColor = "#007bff"
	DefaultCategoryIcon  = "💰"
)

var (
	ErrInvalidAmount     = errors.New("invalid amount")
	ErrNonPositiveAmount = errors.New("amount must be positive")
	ErrAmountTooLarge    = errors.New("amount too large")
	ErrEmptyDescription  = errors.New("empty description")
	ErrInvalidDate       = errors.New("invalid date")
	ErrMissingCategory   = errors.New("missing category")
	ErrEmptyCategoryName = errors.New("empty category name")
)

type (
	// Date is a calendar date (UTC midnight, no time component).
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Category struct {
		ID          int64
		Name        string
		Description string
		Color       string
		Icon        string
		IsActive    bool
		CreatedAt   time.Time
	}

	Expense struct {
		ID          int64
		Description string
		Amount      Money
		Date        Date
		Notes       string
		CategoryID  int64
		CreatedAt   time.Time
		UpdatedAt   time.Time

		// Display fields populated by joined queries.
		CategoryName  string
		CategoryIcon  string
		CategoryColor string
	}
)

// NewDate creates a Date from year, month, day.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current calendar date.
func Today() Date {
	now := time.Now()
	return NewDate(now.Year(), int(now.Month()), now.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format("2006-01-02")
}

// Display returns a user-friendly date string, e.g. "March 15, 2024".
func (d Date) Display() string {
	return d.Format("January 2, 2006")
}

// Year returns the calendar year.
func (d Date) Year() int {
	return d.Time.Year()
}

// Month returns the calendar month as an int.
func (d Date) Month() int {
	return int(d.Time.Month())
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrNonPositiveAmount
	}
	if m.Cents > MaxAmountCents {
		return ErrAmountTooLarge
	}
	return nil
}

// NewCategory builds a category, applying default color and icon for blanks.
func NewCategory(name, description, color, icon string) Category {
	if strings.TrimSpace(color) == "" {
		color = DefaultCategoryColor
	}
	if strings.TrimSpace(icon) == "" {
		icon = DefaultCategoryIcon
	}
	return Category{
		Name:        strings.TrimSpace(name),
		Description: description,
		Color:       color,
		Icon:        icon,
		IsActive:    true,
	}
}

func (c Category) Validate() error {
	name := strings.TrimSpace(c.Name)
	if name == "" {
		return ErrEmptyCategoryName
	}
	if len(name) > MaxCategoryNameLen {
		return errors.New("category name too long (max 50 characters)")
	}
	return nil
}

// Label returns the icon-prefixed display name, e.g. "🍽️ Food & Dining".
func (c Category) Label() string {
	return c.Icon + " " + c.Name
}

func (e Expense) Validate() error {
	if len(strings.TrimSpace(e.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(e.Description) > MaxDescriptionLen {
		return errors.New("description too long (max 255 characters)")
	}
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if err := e.Date.Validate(); err != nil {
		return err
	}
	if e.CategoryID <= 0 {
		return ErrMissingCategory
	}
	return nil
}

// IsRecent reports whether the expense date falls within the last 7 days.
func (e Expense) IsRecent() bool {
	return Today().Sub(e.Date.Time) <= 7*24*time.Hour
}

// DefaultCategories is the fixed set inserted by first-run seeding.
// Names are unique; seeding skips any name already present.
func DefaultCategories() []Category {
	return []Category{
		NewCategory("Food & Dining", "Restaurants, groceries, and food-related expenses", "#FF6B6B", "🍽️"),
		NewCategory("Transportation", "Gas, parking, public transport, and travel costs", "#4ECDC4", "🚗"),
		NewCategory("Entertainment", "Movies, games, hobbies, and recreational activities", "#45B7D1", "🎬"),
		NewCategory("Shopping", "Clothing, accessories, and personal items", "#96CEB4", "🛍️"),
		NewCategory("Bills & Utilities", "Electricity, water, internet, and monthly bills", "#FECA57", "💡"),
		NewCategory("Healthcare", "Medical expenses, pharmacy, and health-related costs", "#FF9FF3", "🏥"),
		NewCategory("Education", "Books, courses, and educational materials", "#54A0FF", "📚"),
		NewCategory("Travel", "Flights, hotels, and vacation expenses", "#5F27CD", "✈️"),
		NewCategory("Others", "Miscellaneous expenses that don't fit other categories", "#747D8C", "📝"),
	}
}
