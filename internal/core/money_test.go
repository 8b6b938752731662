package core

import (
	"errors"
	"testing"
)

func TestParseAmountToCents(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    int64
		wantErr bool
	}{
		{name: "empty is zero", input: "", want: 0},
		{name: "whitespace is zero", input: "  ", want: 0},
		{name: "integer", input: "150", want: 15000},
		{name: "two decimals", input: "12.34", want: 1234},
		{name: "one decimal", input: "12.5", want: 1250},
		{name: "comma separator", input: "12,34", want: 1234},
		{name: "leading dot", input: ".50", want: 50},
		{name: "trailing dot", input: "12.", want: 1200},
		{name: "third decimal rounds down", input: "12.344", want: 1234},
		{name: "third decimal rounds up", input: "12.345", want: 1235},
		{name: "extra decimals beyond third ignored", input: "12.3449", want: 1234},
		{name: "zero", input: "0", want: 0},
		{name: "zero with decimals", input: "0.00", want: 0},
		{name: "bare dot", input: ".", wantErr: true},
		{name: "negative rejected", input: "-5", wantErr: true},
		{name: "explicit plus rejected", input: "+5", wantErr: true},
		{name: "letters rejected", input: "abc", wantErr: true},
		{name: "mixed rejected", input: "12a.50", wantErr: true},
		{name: "two dots rejected", input: "1.2.3", wantErr: true},
		{name: "non-digit fraction rejected", input: "12.x", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseAmountToCents(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidAmount) {
					t.Fatalf("ParseAmountToCents(%q) error = %v, want ErrInvalidAmount", tt.input, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseAmountToCents(%q) unexpected error: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseAmountToCents(%q) = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestMoneyString(t *testing.T) {
	tests := []struct {
		cents int64
		want  string
	}{
		{0, "0.00"},
		{5, "0.05"},
		{50, "0.50"},
		{1234, "12.34"},
		{15000, "150.00"},
		{-150, "-1.50"},
	}

	for _, tt := range tests {
		if got := (Money{Cents: tt.cents}).String(); got != tt.want {
			t.Errorf("Money{%d}.String() = %q, want %q", tt.cents, got, tt.want)
		}
	}
}

func TestMoneyMarshalJSON(t *testing.T) {
	b, err := Money{Cents: 5667}.MarshalJSON()
	if err != nil {
		t.Fatalf("MarshalJSON: %v", err)
	}
	if string(b) != `"56.67"` {
		t.Errorf("MarshalJSON = %s, want \"56.67\"", b)
	}
}

func TestMoneyUnits(t *testing.T) {
	if got := (Money{Cents: 1250}).Units(); got != 12.5 {
		t.Errorf("Units() = %v, want 12.5", got)
	}
}
