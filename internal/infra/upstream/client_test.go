package upstream

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/vietddude/predictdash/internal/core/domain"
	"github.com/vietddude/predictdash/internal/core/fault"
	"github.com/vietddude/predictdash/internal/core/retry"
)

func testClient(t *testing.T, baseURL string, policy retry.Policy, timeout time.Duration) *Client {
	t.Helper()
	c := NewClient(Config{BaseURL: baseURL, Timeout: timeout, Policy: policy}, slog.Default())
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func fastPolicy(attempts int) retry.Policy {
	return retry.Policy{MaxAttempts: attempts, BaseDelay: time.Millisecond}
}

func classify(t *testing.T, err error) *fault.Classified {
	t.Helper()
	var cerr *fault.Classified
	if !errors.As(err, &cerr) {
		t.Fatalf("error is %T, want *fault.Classified: %v", err, err)
	}
	return cerr
}

func TestPredictionSuccess(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		if r.URL.Path != "/predict/AAPL" {
			t.Errorf("path = %s, want /predict/AAPL", r.URL.Path)
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Error("missing X-Request-ID header")
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(validPredictionBody))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, fastPolicy(3), time.Second)

	pred, err := c.Prediction(context.Background(), " aapl ")
	if err != nil {
		t.Fatalf("Prediction failed: %v", err)
	}

	if pred.Direction != domain.DirectionUp {
		t.Errorf("direction = %s, want UP", pred.Direction)
	}
	if pred.Level != domain.ConfidenceHigh {
		t.Errorf("level = %s, want High", pred.Level)
	}
	if pred.ProbabilityUp != 0.65 {
		t.Errorf("probability up = %v, want 0.65", pred.ProbabilityUp)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("attempts = %d, want 1", n)
	}
}

func TestPredictionInvalidTickerSkipsNetwork(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, fastPolicy(3), time.Second)

	_, err := c.Prediction(context.Background(), "not-a-ticker")
	cerr := classify(t, err)

	if cerr.Kind != fault.KindValidation {
		t.Errorf("kind = %s, want VALIDATION", cerr.Kind)
	}
	if cerr.Code != domain.CodeInvalidTickerFormat {
		t.Errorf("code = %s, want %s", cerr.Code, domain.CodeInvalidTickerFormat)
	}
	if n := atomic.LoadInt32(&calls); n != 0 {
		t.Errorf("attempts = %d, want 0 for invalid input", n)
	}
}

func TestPredictionNotFoundDoesNotRetry(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, `{"error": "no prediction"}`, http.StatusNotFound)
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, fastPolicy(3), time.Second)

	_, err := c.Prediction(context.Background(), "ZZZZZ")
	cerr := classify(t, err)

	if cerr.Kind != fault.KindAPI || cerr.Code != fault.CodeTickerNotFound {
		t.Errorf("classification = %s/%s, want API/TICKER_NOT_FOUND", cerr.Kind, cerr.Code)
	}
	if cerr.Retryable {
		t.Error("404 must not be retryable")
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("attempts = %d, want exactly 1", n)
	}
}

func TestPredictionRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, fastPolicy(3), time.Second)

	_, err := c.Prediction(context.Background(), "AAPL")
	cerr := classify(t, err)

	if cerr.Code != fault.CodeServerError {
		t.Errorf("code = %s, want SERVER_ERROR", cerr.Code)
	}
	if cerr.HTTPStatus != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", cerr.HTTPStatus)
	}
	if n := atomic.LoadInt32(&calls); n != 3 {
		t.Errorf("attempts = %d, want 3 (attempt budget exhausted)", n)
	}
}

func TestPredictionRecoversAfterRateLimit(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.Header().Set("Retry-After", "1")
			http.Error(w, "slow down", http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(validPredictionBody))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, fastPolicy(3), time.Second)

	pred, err := c.Prediction(context.Background(), "AAPL")
	if err != nil {
		t.Fatalf("Prediction failed after rate limit: %v", err)
	}
	if pred.Ticker != "AAPL" {
		t.Errorf("ticker = %s, want AAPL", pred.Ticker)
	}
	if n := atomic.LoadInt32(&calls); n != 2 {
		t.Errorf("attempts = %d, want 2", n)
	}
}

func TestPredictionTimesOut(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, fastPolicy(1), 50*time.Millisecond)

	_, err := c.Prediction(context.Background(), "AAPL")
	cerr := classify(t, err)

	if cerr.Kind != fault.KindTimeout || cerr.Code != fault.CodeTimeout {
		t.Errorf("classification = %s/%s, want TIMEOUT/TIMEOUT", cerr.Kind, cerr.Code)
	}
	if !cerr.Retryable {
		t.Error("timeouts should be retryable")
	}
}

func TestPredictionInvalidShapeAttachesPayload(t *testing.T) {
	var calls int32
	body := `{"ticker": "AAPL", "prediction": "Sideways", "confidence": 0.8}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, fastPolicy(3), time.Second)

	_, err := c.Prediction(context.Background(), "AAPL")
	cerr := classify(t, err)

	if cerr.Kind != fault.KindAPI || cerr.Code != fault.CodeInvalidResponse {
		t.Errorf("classification = %s/%s, want API/INVALID_RESPONSE", cerr.Kind, cerr.Code)
	}
	if cerr.Retryable {
		t.Error("invalid responses must not be retryable")
	}
	if payload, _ := cerr.Context["payload"].(string); payload != body {
		t.Errorf("payload context = %q, want raw body", payload)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Errorf("attempts = %d, want 1", n)
	}
}

func TestPredictionNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing is listening anymore

	c := testClient(t, srv.URL, fastPolicy(2), time.Second)

	_, err := c.Prediction(context.Background(), "AAPL")
	cerr := classify(t, err)

	if cerr.Kind != fault.KindNetwork || cerr.Code != fault.CodeNetworkError {
		t.Errorf("classification = %s/%s, want NETWORK/NETWORK_ERROR", cerr.Kind, cerr.Code)
	}
	if !cerr.Retryable {
		t.Error("network failures should be retryable")
	}
}

func TestCancelPendingRequests(t *testing.T) {
	arrived := make(chan struct{}, 2)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		arrived <- struct{}{}
		<-r.Context().Done()
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, fastPolicy(3), 10*time.Second)

	result := make(chan error, 1)
	go func() {
		_, err := c.Prediction(context.Background(), "AAPL")
		result <- err
	}()

	select {
	case <-arrived:
	case <-time.After(2 * time.Second):
		t.Fatal("request never reached the server")
	}
	if got := c.InFlight(); got != 1 {
		t.Errorf("in flight = %d, want 1", got)
	}

	c.CancelPendingRequests()
	c.CancelPendingRequests() // idempotent

	select {
	case err := <-result:
		cerr := classify(t, err)
		if cerr.Kind != fault.KindCancelled || cerr.Code != fault.CodeCancelled {
			t.Errorf("classification = %s/%s, want CANCELLED/CANCELLED", cerr.Kind, cerr.Code)
		}
		if cerr.Retryable {
			t.Error("cancellations must not be retryable")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled request never returned")
	}

	if got := c.InFlight(); got != 0 {
		t.Errorf("in flight after cancel = %d, want 0", got)
	}
}

func TestCancelDoesNotAffectLaterRequests(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(validPredictionBody))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, fastPolicy(3), time.Second)

	c.CancelPendingRequests()

	if _, err := c.Prediction(context.Background(), "AAPL"); err != nil {
		t.Fatalf("request after cancel failed: %v", err)
	}
}

func TestHistoryEndToEnd(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/get-history/MSFT" {
			t.Errorf("path = %s, want /get-history/MSFT", r.URL.Path)
		}
		_, _ = w.Write([]byte(`[
			{"model_version": "v3", "data_found_for": "2025-05-28", "ingested_at": "2025-05-29T01:00:00Z",
			 "confidence": "0.71", "prediction": "Up", "probability_up": "0.61", "ticker_date": "MSFT#2025-05-28"},
			{"model_version": "v3", "data_found_for": "2025-06-02", "ingested_at": "2025-06-03T01:00:00Z",
			 "confidence": "0.55", "prediction": "Down", "probability_up": "0.40", "ticker_date": "MSFT#2025-06-02"}
		]`))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, fastPolicy(3), time.Second)

	history, err := c.History(context.Background(), "msft")
	if err != nil {
		t.Fatalf("History failed: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("entries = %d, want 2", len(history))
	}
	if history[0].Date.Format("2006-01-02") != "2025-06-02" {
		t.Errorf("first entry date = %s, want newest (2025-06-02)", history[0].Date.Format("2006-01-02"))
	}
	if history[0].Direction != domain.DirectionDown {
		t.Errorf("first entry direction = %s, want DOWN", history[0].Direction)
	}
}

func TestCallerContextCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	c := testClient(t, srv.URL, fastPolicy(3), 10*time.Second)

	ctx, cancel := context.WithCancel(context.Background())
	result := make(chan error, 1)
	go func() {
		_, err := c.Prediction(ctx, "AAPL")
		result <- err
	}()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-result:
		if cerr := classify(t, err); cerr.Kind != fault.KindCancelled {
			t.Errorf("kind = %s, want CANCELLED", cerr.Kind)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("request did not observe caller cancellation")
	}
}
