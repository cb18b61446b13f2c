package fault

import (
	"strings"
	"testing"
)

func TestUserMessageByKind(t *testing.T) {
	tests := []struct {
		name     string
		err      *Classified
		contains string
	}{
		{
			name:     "nil",
			err:      nil,
			contains: "Something went wrong",
		},
		{
			name:     "validation passes through verbatim",
			err:      &Classified{Kind: KindValidation, Message: "Please enter a ticker symbol."},
			contains: "Please enter a ticker symbol.",
		},
		{
			name:     "network",
			err:      &Classified{Kind: KindNetwork},
			contains: "Unable to reach",
		},
		{
			name:     "timeout",
			err:      &Classified{Kind: KindTimeout},
			contains: "took too long",
		},
		{
			name:     "cancelled",
			err:      &Classified{Kind: KindCancelled},
			contains: "cancelled",
		},
		{
			name:     "unknown",
			err:      &Classified{Kind: KindUnknown, Message: "boom"},
			contains: "Something went wrong",
		},
		{
			name:     "api not found",
			err:      &Classified{Kind: KindAPI, Code: CodeTickerNotFound, HTTPStatus: 404},
			contains: "No prediction found",
		},
		{
			name:     "api rate limited",
			err:      &Classified{Kind: KindAPI, Code: CodeRateLimited, HTTPStatus: 429},
			contains: "Too many requests",
		},
		{
			name:     "api server error",
			err:      &Classified{Kind: KindAPI, Code: CodeServerError, HTTPStatus: 503},
			contains: "internal error",
		},
		{
			name:     "api invalid response",
			err:      &Classified{Kind: KindAPI, Code: CodeInvalidResponse, HTTPStatus: 200},
			contains: "could not understand",
		},
		{
			name:     "api other status",
			err:      &Classified{Kind: KindAPI, Code: CodeHTTPError, HTTPStatus: 418, Message: "unexpected status 418"},
			contains: "rejected the request",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := UserMessage(tt.err)
			if got == "" {
				t.Fatal("empty user message")
			}
			if !strings.Contains(got, tt.contains) {
				t.Errorf("UserMessage = %q, want substring %q", got, tt.contains)
			}
		})
	}
}

func TestUserMessageNeverLeaksInternalText(t *testing.T) {
	err := &Classified{
		Kind:       KindAPI,
		Code:       CodeServerError,
		HTTPStatus: 500,
		Message:    `upstream server error (500)`,
		Context:    map[string]any{"payload": `{"stack":"secret"}`},
	}
	got := UserMessage(err)
	if strings.Contains(got, "secret") || strings.Contains(got, "payload") {
		t.Errorf("user message leaked diagnostics: %q", got)
	}
}
