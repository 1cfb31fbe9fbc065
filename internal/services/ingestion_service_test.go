package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"expensed/internal/core"
	"expensed/internal/storage/memory"
)

type stubPublisher struct {
	published []int64
	err       error
}

func (p *stubPublisher) PublishExpenseExport(_ context.Context, id int64) error {
	if p.err != nil {
		return p.err
	}
	p.published = append(p.published, id)
	return nil
}

func newTestIngestion(t *testing.T) (*IngestionService, *memory.Store, *stubPublisher) {
	t.Helper()
	store := memory.New()
	store.AddUser("alice")
	store.AddUser("bob")
	publisher := &stubPublisher{}
	svc := NewIngestionService(store, publisher)
	svc.now = func() time.Time {
		return time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)
	}
	return svc, store, publisher
}

func TestCreateExpense(t *testing.T) {
	svc, _, publisher := newTestIngestion(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateRequest{
		UserID:      "alice",
		Amount:      "12.50",
		Category:    "groceries",
		Description: "weekly shop",
		ExpenseDate: "15-01-2024",
		Source:      "telegram",
		MessageID:   "msg-1",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if created.ID == 0 {
		t.Error("expected a persisted id")
	}
	if created.Amount.Cents != 1250 {
		t.Errorf("expected 1250 cents, got %d", created.Amount.Cents)
	}
	if created.Date.ISO() != "2024-01-15" {
		t.Errorf("expected date 2024-01-15, got %s", created.Date.ISO())
	}
	if len(publisher.published) != 1 || publisher.published[0] != created.ID {
		t.Errorf("expected export event for expense %d, got %v", created.ID, publisher.published)
	}
}

func TestCreateExpenseDefaultsToToday(t *testing.T) {
	svc, _, _ := newTestIngestion(t)

	created, err := svc.Create(context.Background(), CreateRequest{
		UserID:   "alice",
		Amount:   "5",
		Category: "coffee",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if created.Date.ISO() != core.Today().ISO() {
		t.Errorf("expected today's date %s, got %s", core.Today().ISO(), created.Date.ISO())
	}
	if h, m, s := created.Date.Clock(); h != 0 || m != 0 || s != 0 {
		t.Errorf("expected UTC midnight, got %02d:%02d:%02d", h, m, s)
	}
}

func TestCreateExpenseValidation(t *testing.T) {
	tests := []struct {
		name string
		req  CreateRequest
	}{
		{"missing amount", CreateRequest{UserID: "alice", Category: "food"}},
		{"missing category", CreateRequest{UserID: "alice", Amount: "10"}},
		{"malformed amount", CreateRequest{UserID: "alice", Amount: "abc", Category: "food"}},
		{"negative amount", CreateRequest{UserID: "alice", Amount: "-5", Category: "food"}},
		{"zero amount", CreateRequest{UserID: "alice", Amount: "0", Category: "food"}},
		{"iso date rejected", CreateRequest{UserID: "alice", Amount: "10", Category: "food", ExpenseDate: "2024-01-15"}},
		{"slash date rejected", CreateRequest{UserID: "alice", Amount: "10", Category: "food", ExpenseDate: "15/01/2024"}},
	}

	svc, _, _ := newTestIngestion(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), tt.req)
			if !errors.Is(err, core.ErrValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestCreateExpenseUnknownUser(t *testing.T) {
	svc, _, _ := newTestIngestion(t)

	_, err := svc.Create(context.Background(), CreateRequest{
		UserID:   "nobody",
		Amount:   "10",
		Category: "food",
	})
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected not found error, got %v", err)
	}
}

func TestCreateExpenseIdempotent(t *testing.T) {
	svc, _, publisher := newTestIngestion(t)
	ctx := context.Background()

	first, err := svc.Create(ctx, CreateRequest{
		UserID: "alice", Amount: "10", Category: "food", MessageID: "msg-dup",
	})
	if err != nil {
		t.Fatalf("first Create failed: %v", err)
	}

	second, err := svc.Create(ctx, CreateRequest{
		UserID: "alice", Amount: "99", Category: "other", MessageID: "msg-dup",
	})
	if err != nil {
		t.Fatalf("second Create failed: %v", err)
	}

	if second.ID != first.ID {
		t.Errorf("expected existing record %d, got %d", first.ID, second.ID)
	}
	if second.Amount.Cents != 1000 {
		t.Errorf("duplicate must not overwrite: expected 1000 cents, got %d", second.Amount.Cents)
	}
	if len(publisher.published) != 1 {
		t.Errorf("duplicate must not publish again, got %d events", len(publisher.published))
	}
}

func TestCreateExpensePublishFailureIsNotFatal(t *testing.T) {
	store := memory.New()
	store.AddUser("alice")
	svc := NewIngestionService(store, &stubPublisher{err: errors.New("broker down")})

	created, err := svc.Create(context.Background(), CreateRequest{
		UserID: "alice", Amount: "10", Category: "food",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if created.ID == 0 {
		t.Error("expected record to be persisted despite publish failure")
	}
}

func TestUpdateExpense(t *testing.T) {
	svc, _, _ := newTestIngestion(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, CreateRequest{
		UserID: "alice", Amount: "10", Category: "food",
		Description: "lunch", ExpenseDate: "10-01-2024", MessageID: "msg-up",
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	updated, err := svc.Update(ctx, UpdateRequest{
		MessageID: "msg-up",
		Amount:    "25.75",
		Category:  "restaurant",
	})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if updated.Amount.Cents != 2575 {
		t.Errorf("expected 2575 cents, got %d", updated.Amount.Cents)
	}
	if updated.Category != "restaurant" {
		t.Errorf("expected category restaurant, got %s", updated.Category)
	}
	if updated.Description != "lunch" {
		t.Errorf("omitted field must survive, got description %q", updated.Description)
	}
	if updated.Date.ISO() != "2024-01-10" {
		t.Errorf("omitted date must survive, got %s", updated.Date.ISO())
	}
	if updated.ID != created.ID {
		t.Errorf("update must keep the record id %d, got %d", created.ID, updated.ID)
	}
}

func TestUpdateExpenseSkipsZeroAmount(t *testing.T) {
	svc, _, _ := newTestIngestion(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, CreateRequest{
		UserID: "alice", Amount: "10", Category: "food", MessageID: "msg-zero",
	}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	for _, zero := range []string{"0", "0.0", "0.00", "0,00"} {
		updated, err := svc.Update(ctx, UpdateRequest{
			MessageID:   "msg-zero",
			Amount:      zero,
			Description: "annotated",
		})
		if err != nil {
			t.Fatalf("Update with amount %q failed: %v", zero, err)
		}
		if updated.Amount.Cents != 1000 {
			t.Errorf("amount %q must be skipped, got %d cents", zero, updated.Amount.Cents)
		}
	}
}

func TestUpdateExpenseLastWriteWins(t *testing.T) {
	svc, _, _ := newTestIngestion(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, CreateRequest{
		UserID: "alice", Amount: "10", Category: "food", MessageID: "msg-seq",
	}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if _, err := svc.Update(ctx, UpdateRequest{MessageID: "msg-seq", Amount: "20"}); err != nil {
		t.Fatalf("first Update failed: %v", err)
	}
	final, err := svc.Update(ctx, UpdateRequest{MessageID: "msg-seq", Amount: "30"})
	if err != nil {
		t.Fatalf("second Update failed: %v", err)
	}

	if final.Amount.Cents != 3000 {
		t.Errorf("expected the last write 3000, got %d", final.Amount.Cents)
	}
}

func TestUpdateExpenseErrors(t *testing.T) {
	svc, _, _ := newTestIngestion(t)
	ctx := context.Background()

	if _, err := svc.Update(ctx, UpdateRequest{Amount: "10"}); !errors.Is(err, core.ErrValidation) {
		t.Errorf("missing message_id: expected validation error, got %v", err)
	}
	if _, err := svc.Update(ctx, UpdateRequest{MessageID: "ghost", Amount: "10"}); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("unknown message_id: expected not found, got %v", err)
	}

	if _, err := svc.Create(ctx, CreateRequest{
		UserID: "alice", Amount: "10", Category: "food", MessageID: "msg-bad",
	}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := svc.Update(ctx, UpdateRequest{MessageID: "msg-bad", ExpenseDate: "2024-01-15"}); !errors.Is(err, core.ErrValidation) {
		t.Errorf("iso date on update: expected validation error, got %v", err)
	}
}

func TestDeleteExpense(t *testing.T) {
	svc, store, _ := newTestIngestion(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, CreateRequest{
		UserID: "alice", Amount: "10", Category: "food", MessageID: "msg-del",
	}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := svc.Delete(ctx, "msg-del"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := store.FindByMessageID(ctx, "msg-del"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("record should be gone, got %v", err)
	}

	if err := svc.Delete(ctx, "msg-del"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("second delete: expected not found, got %v", err)
	}
	if err := svc.Delete(ctx, ""); !errors.Is(err, core.ErrValidation) {
		t.Errorf("empty message_id: expected validation error, got %v", err)
	}
}

func TestListExpenses(t *testing.T) {
	svc, _, _ := newTestIngestion(t)
	ctx := context.Background()

	dates := []string{"10-01-2024", "20-01-2024", "15-01-2024"}
	for _, d := range dates {
		if _, err := svc.Create(ctx, CreateRequest{
			UserID: "alice", Amount: "10", Category: "food", ExpenseDate: d,
		}); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}
	if _, err := svc.Create(ctx, CreateRequest{
		UserID: "bob", Amount: "99", Category: "other", ExpenseDate: "25-01-2024",
	}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	expenses, err := svc.List(ctx, "alice")
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(expenses) != 3 {
		t.Fatalf("expected 3 expenses for alice, got %d", len(expenses))
	}
	want := []string{"2024-01-20", "2024-01-15", "2024-01-10"}
	for i, e := range expenses {
		if e.Date.ISO() != want[i] {
			t.Errorf("position %d: expected %s, got %s", i, want[i], e.Date.ISO())
		}
	}

	if _, err := svc.List(ctx, "nobody"); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("unknown user: expected not found, got %v", err)
	}
}
