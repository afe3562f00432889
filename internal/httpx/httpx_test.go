package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type echoResponse struct {
	Greeting string `json:"greeting"`
}

func TestPostJSONDecodesSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("expected JSON content type, got %s", r.Header.Get("Content-Type"))
		}
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("missing auth header, got %q", r.Header.Get("Authorization"))
		}
		w.Write([]byte(`{"greeting":"hello"}`))
	}))
	defer server.Close()

	headers := map[string]string{"Authorization": "Bearer test-key"}
	out, err := PostJSON[echoResponse](context.Background(), server.Client(), server.URL, headers, map[string]string{"in": "x"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Greeting != "hello" {
		t.Errorf("expected hello, got %s", out.Greeting)
	}
}

func TestPostJSONNon2xxReturnsStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"quota exhausted"}}`))
	}))
	defer server.Close()

	_, err := PostJSON[echoResponse](context.Background(), server.Client(), server.URL, nil, struct{}{})
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.Code != http.StatusTooManyRequests {
		t.Errorf("expected 429, got %d", statusErr.Code)
	}
	if statusErr.RetryAfter != 7*time.Second {
		t.Errorf("expected 7s retry hint, got %v", statusErr.RetryAfter)
	}
	if statusErr.Message() != "quota exhausted" {
		t.Errorf("expected provider message, got %q", statusErr.Message())
	}
}

func TestStatusErrorMessageRepairsMalformedBody(t *testing.T) {
	// Truncated JSON, as providers sometimes emit on gateway errors.
	statusErr := &StatusError{
		Code: 500,
		Body: `{"error":{"message":"backend exploded"`,
	}
	if got := statusErr.Message(); got != "backend exploded" {
		t.Errorf("expected repaired message, got %q", got)
	}
}

func TestStatusErrorMessageFallsBackToRawBody(t *testing.T) {
	statusErr := &StatusError{Code: 502, Body: "Bad Gateway"}
	if got := statusErr.Message(); !strings.Contains(got, "Bad Gateway") {
		t.Errorf("expected raw body fallback, got %q", got)
	}
}

func TestPostJSONUndecodableBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`not json at all`))
	}))
	defer server.Close()

	_, err := PostJSON[echoResponse](context.Background(), server.Client(), server.URL, nil, struct{}{})
	if err == nil {
		t.Fatal("expected decode error")
	}
	if !strings.Contains(err.Error(), "Response preview") {
		t.Errorf("decode error should include a response preview, got %v", err)
	}
}

func TestPostJSONHonorsContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := PostJSON[echoResponse](ctx, server.Client(), server.URL, nil, struct{}{})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestParseRetryAfter(t *testing.T) {
	header := http.Header{}
	if got := parseRetryAfter(header); got != 0 {
		t.Errorf("expected 0 for missing header, got %v", got)
	}

	header.Set("Retry-After", "30")
	if got := parseRetryAfter(header); got != 30*time.Second {
		t.Errorf("expected 30s, got %v", got)
	}

	header.Set("Retry-After", "Wed, 21 Oct 2025 07:28:00 GMT")
	if got := parseRetryAfter(header); got != 0 {
		t.Errorf("expected 0 for http-date form, got %v", got)
	}
}
