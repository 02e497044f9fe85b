package wallet

import (
	"errors"
	"testing"
)

func TestParseRoundTrip(t *testing.T) {
	conv := NewConverter(100000)

	tests := []struct {
		in    string
		units Amount
		out   string
	}{
		{"1.23456", 123456, "1.23456"},
		{"0.005", 500, "0.00500"},
		{"2", 200000, "2"},
		{"10.00000", 1000000, "10"},
		{"0.00001", 1, "0.00001"},
	}
	for _, tt := range tests {
		got, err := conv.Parse(tt.in)
		if err != nil {
			t.Fatalf("parse %q failed: %v", tt.in, err)
		}
		if got != tt.units {
			t.Fatalf("parse %q: expected %d base units, got %d", tt.in, tt.units, got)
		}
		if s := conv.Format(got); s != tt.out {
			t.Fatalf("format %d: expected %q, got %q", got, tt.out, s)
		}
	}
}

func TestParseRejectsInvalidInput(t *testing.T) {
	conv := NewConverter(100000)

	if _, err := conv.Parse("abc"); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for garbage, got %v", err)
	}
	if _, err := conv.Parse("-1"); !errors.Is(err, ErrNegativeAmount) {
		t.Fatalf("expected ErrNegativeAmount, got %v", err)
	}
	if _, err := conv.Parse("0.000001"); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for sub-unit precision, got %v", err)
	}
}

func TestFormatWholeCoinsPrintPlain(t *testing.T) {
	conv := NewConverter(100000)
	if s := conv.Format(500000); s != "5" {
		t.Fatalf("expected plain integer, got %q", s)
	}
	if s := conv.Format(550000); s != "5.50000" {
		t.Fatalf("expected five decimal places, got %q", s)
	}
}
