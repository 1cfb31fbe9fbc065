package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"expensed/internal/core"
)

// IngestionService applies the ledger's write rules: validation, the
// dd-mm-yyyy date contract, and idempotency keyed by the external message id.
type IngestionService struct {
	store     Store
	publisher EventPublisher
	now       func() time.Time
}

// CreateRequest carries the raw create inputs. Amount and dates arrive as
// strings straight from the transport layer; parsing happens here so every
// caller gets the same rules.
type CreateRequest struct {
	UserID      string
	Amount      string
	Category    string
	Description string
	ExpenseDate string
	Source      string
	MessageID   string
}

// UpdateRequest carries the raw partial-update inputs. Empty fields are
// skipped; a zero amount counts as absent (truthy-skip rule).
type UpdateRequest struct {
	MessageID   string
	Amount      string
	Category    string
	Description string
	ExpenseDate string
}

func NewIngestionService(store Store, publisher EventPublisher) *IngestionService {
	return &IngestionService{
		store:     store,
		publisher: publisher,
		now:       time.Now,
	}
}

// Create validates and persists a new expense record. When the request omits
// the expense date, the current UTC day is used. A message id already present
// in the ledger makes the call idempotent: the existing record is returned
// unchanged.
func (s *IngestionService) Create(ctx context.Context, req CreateRequest) (core.Expense, error) {
	if strings.TrimSpace(req.Amount) == "" || strings.TrimSpace(req.Category) == "" {
		return core.Expense{}, fmt.Errorf("%w: amount and category must be specified", core.ErrValidation)
	}

	amount, err := core.ParseAmount(req.Amount)
	if err != nil {
		return core.Expense{}, err
	}

	date := core.Today()
	if strings.TrimSpace(req.ExpenseDate) != "" {
		date, err = core.ParseExpenseDate(req.ExpenseDate)
		if err != nil {
			return core.Expense{}, err
		}
	}

	user, err := s.store.GetUser(ctx, strings.TrimSpace(req.UserID))
	if err != nil {
		return core.Expense{}, fmt.Errorf("resolve user %q: %w", req.UserID, err)
	}

	messageID := strings.TrimSpace(req.MessageID)
	if messageID != "" {
		existing, err := s.store.FindByMessageID(ctx, messageID)
		if err == nil {
			slog.InfoContext(ctx, "Duplicate message id, returning existing record",
				"message_id", messageID, "expense_id", existing.ID)
			return existing, nil
		}
		if !isNotFound(err) {
			return core.Expense{}, fmt.Errorf("check message id %q: %w", messageID, err)
		}
	}

	expense := core.Expense{
		UserID:      user.UserID,
		Amount:      amount,
		Category:    strings.TrimSpace(req.Category),
		Description: strings.TrimSpace(req.Description),
		Date:        date,
		Source:      strings.TrimSpace(req.Source),
		MessageID:   messageID,
		UpdatedAt:   s.now().UTC(),
	}
	if err := expense.Validate(); err != nil {
		return core.Expense{}, err
	}

	created, err := s.store.CreateExpense(ctx, expense)
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}

	slog.InfoContext(ctx, "Expense recorded",
		"expense_id", created.ID,
		"user_id", created.UserID,
		"amount_cents", created.Amount.Cents,
		"category", created.Category,
		"expense_date", created.Date.ISO())

	s.publishExport(ctx, created.ID)
	return created, nil
}

// Update applies a partial overwrite to the record addressed by its message
// id. Each field is replaced only when the incoming value is present: blank
// strings and a zero amount are skipped. The expense date goes through the
// same dd-mm-yyyy parser as create.
func (s *IngestionService) Update(ctx context.Context, req UpdateRequest) (core.Expense, error) {
	messageID := strings.TrimSpace(req.MessageID)
	if messageID == "" {
		return core.Expense{}, fmt.Errorf("%w: message_id is required", core.ErrValidation)
	}

	expense, err := s.store.FindByMessageID(ctx, messageID)
	if err != nil {
		return core.Expense{}, fmt.Errorf("resolve message id %q: %w", messageID, err)
	}

	if v := strings.TrimSpace(req.Amount); v != "" && !isZeroAmount(v) {
		amount, err := core.ParseAmount(v)
		if err != nil {
			return core.Expense{}, err
		}
		expense.Amount = amount
	}
	if v := strings.TrimSpace(req.Category); v != "" {
		expense.Category = v
	}
	if v := strings.TrimSpace(req.Description); v != "" {
		expense.Description = v
	}
	if v := strings.TrimSpace(req.ExpenseDate); v != "" {
		date, err := core.ParseExpenseDate(v)
		if err != nil {
			return core.Expense{}, err
		}
		expense.Date = date
	}
	expense.UpdatedAt = s.now().UTC()

	if err := s.store.UpdateExpense(ctx, expense); err != nil {
		return core.Expense{}, fmt.Errorf("update expense %d: %w", expense.ID, err)
	}

	slog.InfoContext(ctx, "Expense updated",
		"expense_id", expense.ID, "message_id", messageID)
	return expense, nil
}

// Delete removes the record addressed by its message id. Deletion is
// physical; a key with no match is a not-found condition.
func (s *IngestionService) Delete(ctx context.Context, messageID string) error {
	messageID = strings.TrimSpace(messageID)
	if messageID == "" {
		return fmt.Errorf("%w: message_id is required", core.ErrValidation)
	}

	deleted, err := s.store.DeleteByMessageID(ctx, messageID)
	if err != nil {
		return fmt.Errorf("delete by message id %q: %w", messageID, err)
	}
	if deleted == 0 {
		return fmt.Errorf("no expense mapped to message id %q: %w", messageID, core.ErrNotFound)
	}

	slog.InfoContext(ctx, "Expense deleted", "message_id", messageID, "rows", deleted)
	return nil
}

// List returns every record owned by the user, newest expense date first.
func (s *IngestionService) List(ctx context.Context, userID string) ([]core.Expense, error) {
	user, err := s.store.GetUser(ctx, strings.TrimSpace(userID))
	if err != nil {
		return nil, fmt.Errorf("resolve user %q: %w", userID, err)
	}
	expenses, err := s.store.ListExpenses(ctx, user.UserID, nil)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return expenses, nil
}

func (s *IngestionService) publishExport(ctx context.Context, id int64) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.PublishExpenseExport(ctx, id); err != nil {
		// The record is saved either way; the worker's catch-up pass will
		// pick it up later.
		slog.ErrorContext(ctx, "Failed to publish export message", "expense_id", id, "error", err)
	}
}

// isZeroAmount reports whether the value spells zero ("0", "0.00", ...).
// Zero counts as absent under the partial-overwrite rule, so the field is
// skipped rather than rejected.
func isZeroAmount(v string) bool {
	return strings.Trim(v, "0.,") == ""
}

func isNotFound(err error) bool {
	return errors.Is(err, core.ErrNotFound)
}
