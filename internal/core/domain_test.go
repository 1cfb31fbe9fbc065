package core

import (
	"errors"
	"testing"
	"time"
)

func TestParseExpenseDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Date
		wantErr bool
	}{
		{name: "valid", input: "15-01-2024", want: NewDate(2024, 1, 15)},
		{name: "valid with spaces", input: " 01-12-2023 ", want: NewDate(2023, 12, 1)},
		{name: "slash separators rejected", input: "2024/01/15", wantErr: true},
		{name: "iso order rejected", input: "2024-01-15", wantErr: true},
		{name: "empty", input: "", wantErr: true},
		{name: "nonsense", input: "yesterday", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseExpenseDate(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q", tt.input)
				}
				if !errors.Is(err, ErrValidation) {
					t.Fatalf("expected validation error, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !got.Equal(tt.want) {
				t.Fatalf("got %s, want %s", got.ISO(), tt.want.ISO())
			}
		})
	}
}

func TestTodayIsUTCMidnight(t *testing.T) {
	d := Today()
	if d.Location() != time.UTC {
		t.Fatalf("expected UTC, got %v", d.Location())
	}
	h, m, s := d.Clock()
	if h != 0 || m != 0 || s != 0 {
		t.Fatalf("expected midnight, got %02d:%02d:%02d", h, m, s)
	}
}

func TestExpenseValidate(t *testing.T) {
	valid := Expense{
		UserID:   "u1",
		Amount:   Money{Cents: 1250},
		Category: "groceries",
		Date:     NewDate(2024, 1, 10),
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid expense rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*Expense)
	}{
		{"zero amount", func(e *Expense) { e.Amount = Money{} }},
		{"negative amount", func(e *Expense) { e.Amount = Money{Cents: -5} }},
		{"blank category", func(e *Expense) { e.Category = "  " }},
		{"zero date", func(e *Expense) { e.Date = Date{} }},
		{"missing user", func(e *Expense) { e.UserID = "" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := valid
			tt.mutate(&e)
			err := e.Validate()
			if err == nil {
				t.Fatal("expected error")
			}
			if !errors.Is(err, ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestDateRoundTrip(t *testing.T) {
	d := NewDate(2024, 3, 7)
	if d.ISO() != "2024-03-07" {
		t.Fatalf("ISO() = %s", d.ISO())
	}
	if d.Wire() != "07-03-2024" {
		t.Fatalf("Wire() = %s", d.Wire())
	}
	back, err := ParseISODate(d.ISO())
	if err != nil {
		t.Fatalf("ParseISODate: %v", err)
	}
	if !back.Equal(d) {
		t.Fatalf("round trip mismatch: %s != %s", back.ISO(), d.ISO())
	}
}
