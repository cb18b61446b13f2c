package domain

import (
	"fmt"
	"regexp"
	"strings"
)

// Ticker is a validated stock symbol: 1-5 uppercase letters.
type Ticker string

var tickerPattern = regexp.MustCompile(`^[A-Z]{1,5}$`)

// Validation codes attached to rejected ticker input.
const (
	CodeEmptyTicker         = "EMPTY_TICKER"
	CodeInvalidTickerFormat = "INVALID_TICKER_FORMAT"
)

// ValidationError describes rejected input with a stable code. Its message
// is safe to show to users verbatim.
type ValidationError struct {
	Code    string
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NormalizeSymbol uppercases and trims raw ticker input without validating it.
func NormalizeSymbol(raw string) string {
	return strings.ToUpper(strings.TrimSpace(raw))
}

// ParseTicker normalizes raw user input into a Ticker. Surrounding
// whitespace is dropped and the symbol uppercased before matching, so
// " aapl " and "AAPL" are the same ticker.
func ParseTicker(raw string) (Ticker, error) {
	normalized := NormalizeSymbol(raw)
	if normalized == "" {
		return "", &ValidationError{
			Code:    CodeEmptyTicker,
			Message: "Please enter a ticker symbol.",
		}
	}
	if !tickerPattern.MatchString(normalized) {
		return "", &ValidationError{
			Code:    CodeInvalidTickerFormat,
			Message: fmt.Sprintf("%q is not a valid ticker. Use 1-5 letters, like AAPL.", strings.TrimSpace(raw)),
		}
	}
	return Ticker(normalized), nil
}

func (t Ticker) String() string { return string(t) }
