package services

import (
	"context"

	"expensed/internal/core"
)

// Store is the persistence port consumed by the ledger services. Both the
// SQLite repository and the in-memory backend implement it.
type Store interface {
	// GetUser resolves an external user id, returning core.ErrNotFound when
	// no such user exists.
	GetUser(ctx context.Context, userID string) (core.User, error)

	// ListExpenses returns a user's records, newest expense date first.
	// A nil window means the whole ledger for that user.
	ListExpenses(ctx context.Context, userID string, window *core.TimeWindow) ([]core.Expense, error)

	// CreateExpense persists a new record and returns it with the assigned id.
	CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error)

	// FindByMessageID resolves the record holding the given idempotency key,
	// returning core.ErrNotFound when nothing matches.
	FindByMessageID(ctx context.Context, messageID string) (core.Expense, error)

	// UpdateExpense overwrites the stored record identified by e.ID.
	UpdateExpense(ctx context.Context, e core.Expense) error

	// DeleteByMessageID removes every record holding the key and reports how
	// many rows went away. The unique index keeps that at most one.
	DeleteByMessageID(ctx context.Context, messageID string) (int64, error)

	// SumByCategory groups a user's records inside the window by category,
	// ordered alphabetically.
	SumByCategory(ctx context.Context, userID string, window core.TimeWindow) ([]core.CategoryTotal, error)

	// SumByPeriod rolls a user's whole ledger up into calendar buckets,
	// ascending by bucket start.
	SumByPeriod(ctx context.Context, userID string, g core.Granularity) ([]core.PeriodTotal, error)
}

// EventPublisher emits export events after successful ingestion. A nil
// publisher disables the export pipeline.
type EventPublisher interface {
	PublishExpenseExport(ctx context.Context, id int64) error
}
