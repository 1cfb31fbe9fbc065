package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// ExpenseDateFormat is the wire format for expense dates (dd-mm-yyyy).
const ExpenseDateFormat = "02-01-2006"

var (
	// ErrValidation marks a missing or malformed required input.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound marks an unknown user, record or message id.
	ErrNotFound = errors.New("not found")

	ErrInvalidAmount = fmt.Errorf("%w: invalid amount", ErrValidation)
	ErrEmptyCategory = fmt.Errorf("%w: empty category", ErrValidation)
)

type (
	// User is an external account reference. Users are created out-of-band
	// and never mutated by the ledger.
	User struct {
		ID        int64
		UserID    string
		CreatedAt time.Time
	}

	// Date is a calendar day pinned to UTC midnight. Time-of-day carries no
	// meaning beyond day granularity.
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Expense is a single ledger record owned by exactly one user.
	Expense struct {
		ID          int64
		UserID      string // external id of the owning user
		Amount      Money
		Category    string
		Description string
		Date        Date
		Source      string
		MessageID   string // idempotency key, unique when present
		UpdatedAt   time.Time
	}
)

// NewDate builds a Date at UTC midnight.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// Today returns the current UTC calendar day.
func Today() Date {
	now := time.Now().UTC()
	return NewDate(now.Year(), int(now.Month()), now.Day())
}

// ParseExpenseDate parses a dd-mm-yyyy string into a Date. Create and update
// share this single routine so the accepted formats cannot drift.
func ParseExpenseDate(s string) (Date, error) {
	t, err := time.ParseInLocation(ExpenseDateFormat, strings.TrimSpace(s), time.UTC)
	if err != nil {
		return Date{}, fmt.Errorf("%w: expense_date %q is not in dd-mm-yyyy format", ErrValidation, s)
	}
	return Date{Time: t}, nil
}

// ParseISODate parses a yyyy-mm-dd string, the storage representation.
func ParseISODate(s string) (Date, error) {
	t, err := time.ParseInLocation("2006-01-02", s, time.UTC)
	if err != nil {
		return Date{}, fmt.Errorf("parse stored date %q: %w", s, err)
	}
	return Date{Time: t}, nil
}

// ISO returns the date as yyyy-mm-dd.
func (d Date) ISO() string {
	return d.Format("2006-01-02")
}

// Wire returns the date in the dd-mm-yyyy API format.
func (d Date) Wire() string {
	return d.Format(ExpenseDateFormat)
}

func (d Date) Before(other Date) bool { return d.Time.Before(other.Time) }
func (d Date) Equal(other Date) bool  { return d.Time.Equal(other.Time) }

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Validate checks the creation invariants: positive amount, non-empty
// category, a concrete date and an owner.
func (e Expense) Validate() error {
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(e.Category) == "" {
		return ErrEmptyCategory
	}
	if e.Date.IsZero() {
		return fmt.Errorf("%w: expense date is required", ErrValidation)
	}
	if strings.TrimSpace(e.UserID) == "" {
		return fmt.Errorf("%w: user id is required", ErrValidation)
	}
	return nil
}
