package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"expensed/internal/amqp"
	"expensed/internal/core"
	"expensed/internal/export"
	"expensed/internal/storage"
)

// ExportWorker mirrors recorded expenses from SQLite to the export sheet. It
// reacts to AMQP messages and periodically sweeps rows whose messages were
// lost.
type ExportWorker struct {
	storage   *storage.SQLiteRepository
	appender  export.RowAppender
	batchSize int
}

func NewExportWorker(storage *storage.SQLiteRepository, appender export.RowAppender, batchSize int) *ExportWorker {
	return &ExportWorker{
		storage:   storage,
		appender:  appender,
		batchSize: batchSize,
	}
}

// HandleExportMessage processes a single export message from AMQP.
func (w *ExportWorker) HandleExportMessage(msg *amqp.ExpenseExportMessage) error {
	ctx := context.Background()

	slog.InfoContext(ctx, "Processing export message", "id", msg.ID)

	expense, err := w.storage.GetExpense(ctx, msg.ID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			// The row was deleted before we got to it; nothing to export.
			slog.WarnContext(ctx, "Expense gone before export, skipping", "id", msg.ID)
			return nil
		}
		return fmt.Errorf("get expense from storage: %w", err)
	}

	return w.exportExpense(ctx, expense)
}

// ProcessPending sweeps expenses whose export messages were lost. This is the
// backup mechanism behind the AMQP path.
func (w *ExportWorker) ProcessPending(ctx context.Context) error {
	pending, err := w.storage.ListPendingExport(ctx, w.batchSize)
	if err != nil {
		return fmt.Errorf("list pending export: %w", err)
	}
	if len(pending) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Processing pending exports", "count", len(pending))

	for _, expense := range pending {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := w.exportExpense(ctx, expense); err != nil {
			slog.ErrorContext(ctx, "Pending export failed",
				"id", expense.ID, "error", err)
			// Keep going; the row stays pending or is marked errored.
		}
	}

	return nil
}

func (w *ExportWorker) exportExpense(ctx context.Context, expense core.Expense) error {
	if err := w.appender.AppendExpense(ctx, expense); err != nil {
		if markErr := w.storage.MarkExportError(ctx, expense.ID); markErr != nil {
			slog.ErrorContext(ctx, "Failed to mark export error",
				"id", expense.ID, "error", markErr)
		}
		return fmt.Errorf("append expense %d to sheet: %w", expense.ID, err)
	}

	if err := w.storage.MarkExported(ctx, expense.ID); err != nil {
		return fmt.Errorf("mark expense %d exported: %w", expense.ID, err)
	}

	return nil
}
