// Package export defines the outbound port for mirroring ledger rows to an
// external sheet.
package export

import (
	"context"

	"expensed/internal/core"
)

// RowAppender appends a single ledger record to the export destination.
type RowAppender interface {
	AppendExpense(ctx context.Context, e core.Expense) error
}
