package core

import "testing"

func TestParseAmount(t *testing.T) {
	tests := []struct {
		input   string
		cents   int64
		wantErr bool
	}{
		{input: "12.34", cents: 1234},
		{input: "12,34", cents: 1234},
		{input: "7", cents: 700},
		{input: "0.01", cents: 1},
		{input: ".50", cents: 50},
		{input: "12.344", cents: 1234}, // rounds down
		{input: "12.345", cents: 1235}, // half-up
		{input: "12.346", cents: 1235}, // rounds up
		{input: "0", wantErr: true},
		{input: "0.00", wantErr: true},
		{input: "-3.50", wantErr: true},
		{input: "+3.50", wantErr: true},
		{input: "abc", wantErr: true},
		{input: "1.2.3", wantErr: true},
		{input: "", wantErr: true},
		{input: "  ", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseAmount(tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q, got %d cents", tt.input, got.Cents)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Cents != tt.cents {
				t.Fatalf("got %d cents, want %d", got.Cents, tt.cents)
			}
		})
	}
}

func TestMoneyString(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{1234, "12.34"},
		{5, "0.05"},
		{100, "1.00"},
		{-250, "-2.50"},
	}
	for _, tt := range tests {
		if got := (Money{Cents: tt.cents}).String(); got != tt.want {
			t.Errorf("Money{%d}.String() = %q, want %q", tt.cents, got, tt.want)
		}
	}
}
