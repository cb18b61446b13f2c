package domain

import (
	"errors"
	"testing"
)

func TestParseTicker(t *testing.T) {
	tests := []struct {
		raw    string
		expect Ticker
	}{
		{"AAPL", "AAPL"},
		{"aapl", "AAPL"},
		{"  msft  ", "MSFT"},
		{"A", "A"},
		{"GOOGL", "GOOGL"},
		{"\tBrk\n", "BRK"},
	}

	for _, tt := range tests {
		got, err := ParseTicker(tt.raw)
		if err != nil {
			t.Errorf("ParseTicker(%q) returned error: %v", tt.raw, err)
			continue
		}
		if got != tt.expect {
			t.Errorf("ParseTicker(%q) = %q, want %q", tt.raw, got, tt.expect)
		}
	}
}

func TestParseTickerRejects(t *testing.T) {
	tests := []struct {
		raw  string
		code string
	}{
		{"", CodeEmptyTicker},
		{"   ", CodeEmptyTicker},
		{"\t\n", CodeEmptyTicker},
		{"TOOLONG", CodeInvalidTickerFormat},
		{"AAPL1", CodeInvalidTickerFormat},
		{"AA-PL", CodeInvalidTickerFormat},
		{"A.B", CodeInvalidTickerFormat},
		{"BRK B", CodeInvalidTickerFormat},
		{"123", CodeInvalidTickerFormat},
		{"aapl$", CodeInvalidTickerFormat},
	}

	for _, tt := range tests {
		_, err := ParseTicker(tt.raw)
		if err == nil {
			t.Errorf("ParseTicker(%q) accepted invalid input", tt.raw)
			continue
		}

		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Errorf("ParseTicker(%q) error type = %T, want *ValidationError", tt.raw, err)
			continue
		}
		if verr.Code != tt.code {
			t.Errorf("ParseTicker(%q) code = %s, want %s", tt.raw, verr.Code, tt.code)
		}
		if verr.Message == "" {
			t.Errorf("ParseTicker(%q) has empty message", tt.raw)
		}
	}
}

func TestParseTickerDoesNotMutateInput(t *testing.T) {
	raw := " nvda "
	if _, err := ParseTicker(raw); err != nil {
		t.Fatalf("ParseTicker(%q) returned error: %v", raw, err)
	}
	if raw != " nvda " {
		t.Errorf("input string changed to %q", raw)
	}
}
