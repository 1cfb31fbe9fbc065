package services

import (
	"context"
	"errors"
	"testing"

	"expensed/internal/core"
	"expensed/internal/storage/memory"
)

func newTestAnalytics(t *testing.T) (*AnalyticsService, *memory.Store) {
	t.Helper()
	store := memory.New()
	store.AddUser("alice")
	store.AddUser("bob")
	return NewAnalyticsService(store, ""), store
}

func seedExpense(t *testing.T, store *memory.Store, userID, iso, category string, cents int64) {
	t.Helper()
	date, err := core.ParseISODate(iso)
	if err != nil {
		t.Fatalf("bad seed date %s: %v", iso, err)
	}
	if _, err := store.CreateExpense(context.Background(), core.Expense{
		UserID:   userID,
		Amount:   core.Money{Cents: cents},
		Category: category,
		Date:     date,
	}); err != nil {
		t.Fatalf("seed expense: %v", err)
	}
}

func TestSummary(t *testing.T) {
	svc, store := newTestAnalytics(t)
	ctx := context.Background()

	seedExpense(t, store, "alice", "2024-01-10", "food", 1000)
	seedExpense(t, store, "alice", "2024-01-31", "travel", 2500)
	seedExpense(t, store, "alice", "2024-02-01", "food", 500)
	seedExpense(t, store, "bob", "2024-01-15", "food", 9900)

	items, err := svc.Summary(ctx, "alice", "2024-01-01", "2024-01-31")
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}

	if len(items) != 2 {
		t.Fatalf("expected 2 items in window, got %d", len(items))
	}
	// Newest first, and the record on the end boundary is included.
	if items[0].Date.ISO() != "2024-01-31" || items[1].Date.ISO() != "2024-01-10" {
		t.Errorf("unexpected order: %s, %s", items[0].Date.ISO(), items[1].Date.ISO())
	}
}

func TestSummaryWindowIsInclusive(t *testing.T) {
	svc, store := newTestAnalytics(t)

	seedExpense(t, store, "alice", "2024-01-15", "food", 1000)

	items, err := svc.Summary(context.Background(), "alice", "2024-01-15", "2024-01-15")
	if err != nil {
		t.Fatalf("Summary failed: %v", err)
	}
	if len(items) != 1 {
		t.Errorf("same-day window must include the day's records, got %d", len(items))
	}
}

func TestSummaryValidation(t *testing.T) {
	tests := []struct {
		name       string
		start, end string
	}{
		{"missing start", "", "2024-01-31"},
		{"missing end", "2024-01-01", ""},
		{"missing both", "", ""},
		{"malformed start", "01-01-2024", "2024-01-31"},
		{"malformed end", "2024-01-01", "31/01/2024"},
	}

	svc, _ := newTestAnalytics(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Summary(context.Background(), "alice", tt.start, tt.end)
			if !errors.Is(err, core.ErrValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestSummaryUnknownUser(t *testing.T) {
	svc, _ := newTestAnalytics(t)

	_, err := svc.Summary(context.Background(), "nobody", "2024-01-01", "2024-01-31")
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestCategories(t *testing.T) {
	svc, store := newTestAnalytics(t)

	seedExpense(t, store, "alice", "2024-01-10", "food", 1000)
	seedExpense(t, store, "alice", "2024-01-12", "food", 500)
	seedExpense(t, store, "alice", "2024-01-20", "travel", 2500)
	seedExpense(t, store, "alice", "2024-02-05", "food", 9999)
	seedExpense(t, store, "bob", "2024-01-15", "food", 7777)

	totals, err := svc.Categories(context.Background(), "alice", "2024-01-01", "2024-01-31")
	if err != nil {
		t.Fatalf("Categories failed: %v", err)
	}

	if len(totals) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(totals))
	}
	if totals[0].Category != "food" || totals[0].Total.Cents != 1500 {
		t.Errorf("expected food=1500, got %s=%d", totals[0].Category, totals[0].Total.Cents)
	}
	if totals[1].Category != "travel" || totals[1].Total.Cents != 2500 {
		t.Errorf("expected travel=2500, got %s=%d", totals[1].Category, totals[1].Total.Cents)
	}
}

func TestTrendMonthly(t *testing.T) {
	svc, store := newTestAnalytics(t)

	seedExpense(t, store, "alice", "2024-01-05", "food", 1000)
	seedExpense(t, store, "alice", "2024-01-28", "travel", 500)
	seedExpense(t, store, "alice", "2024-03-01", "food", 300)
	seedExpense(t, store, "bob", "2024-01-15", "food", 7777)

	points, err := svc.Trend(context.Background(), "alice", "monthly")
	if err != nil {
		t.Fatalf("Trend failed: %v", err)
	}

	if len(points) != 2 {
		t.Fatalf("expected 2 buckets, got %d", len(points))
	}
	if points[0].Period != "Jan 2024" || points[0].Total.Cents != 1500 {
		t.Errorf("expected Jan 2024=1500, got %s=%d", points[0].Period, points[0].Total.Cents)
	}
	if points[1].Period != "Mar 2024" || points[1].Total.Cents != 300 {
		t.Errorf("expected Mar 2024=300, got %s=%d", points[1].Period, points[1].Total.Cents)
	}
}

func TestTrendWeeklyLabels(t *testing.T) {
	svc, store := newTestAnalytics(t)

	// Thursday Jan 18 and Friday Jan 19 share the ISO week starting Monday Jan 15.
	seedExpense(t, store, "alice", "2024-01-18", "food", 1000)
	seedExpense(t, store, "alice", "2024-01-19", "food", 500)

	points, err := svc.Trend(context.Background(), "alice", "weekly")
	if err != nil {
		t.Fatalf("Trend failed: %v", err)
	}

	if len(points) != 1 {
		t.Fatalf("expected 1 bucket, got %d", len(points))
	}
	if points[0].Period != "2024-W03" {
		t.Errorf("expected label 2024-W03, got %s", points[0].Period)
	}
	if points[0].Start.ISO() != "2024-01-15" {
		t.Errorf("expected bucket start 2024-01-15, got %s", points[0].Start.ISO())
	}
	if points[0].Total.Cents != 1500 {
		t.Errorf("expected 1500 cents, got %d", points[0].Total.Cents)
	}
}

func TestTrendUnknownTypeFallsBackToYearly(t *testing.T) {
	svc, store := newTestAnalytics(t)

	seedExpense(t, store, "alice", "2023-06-15", "food", 1000)
	seedExpense(t, store, "alice", "2024-02-20", "food", 500)

	points, err := svc.Trend(context.Background(), "alice", "hourly")
	if err != nil {
		t.Fatalf("Trend failed: %v", err)
	}

	if len(points) != 2 {
		t.Fatalf("expected 2 yearly buckets, got %d", len(points))
	}
	if points[0].Period != "2023" || points[1].Period != "2024" {
		t.Errorf("expected yearly labels, got %s and %s", points[0].Period, points[1].Period)
	}
}

func TestTrendUnknownUser(t *testing.T) {
	svc, _ := newTestAnalytics(t)

	_, err := svc.Trend(context.Background(), "nobody", "monthly")
	if !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}
