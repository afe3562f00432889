package openrouter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/larkin/modelgate/providers/ai"
)

func testRequest() ai.Request {
	return ai.Request{
		Model: "openai/gpt-4o-mini",
		Turns: []ai.Turn{
			{Role: ai.RoleSystem, Content: "be brief"},
			{Role: ai.RoleUser, Content: "hello"},
		},
		Config: ai.GenerationConfig{MaxTokens: 100},
	}
}

func TestSendSuccess(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test-key" {
			t.Errorf("expected bearer auth, got %q", r.Header.Get("Authorization"))
		}

		var wire chatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&wire); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if wire.Model != "openai/gpt-4o-mini" {
			t.Errorf("unexpected model: %s", wire.Model)
		}
		if len(wire.Messages) != 2 || wire.Messages[0].Role != "system" || wire.Messages[1].Content != "hello" {
			t.Errorf("unexpected messages: %+v", wire.Messages)
		}
		if wire.MaxTokens == nil || *wire.MaxTokens != 100 {
			t.Error("expected max_tokens to be forwarded")
		}

		json.NewEncoder(w).Encode(chatCompletionResponse{
			ID:    "gen-1",
			Model: "openai/gpt-4o-mini",
			Choices: []chatChoice{
				{Message: chatMessage{Role: "assistant", Content: "hi"}, FinishReason: "stop"},
			},
			Usage: &chatUsage{PromptTokens: 12, CompletionTokens: 1, TotalTokens: 13},
		})
	}))
	defer server.Close()

	adapter := New().WithAPIKey("test-key").WithBaseURL(server.URL)
	outcome := adapter.Send(context.Background(), testRequest())

	if !outcome.OK() {
		t.Fatalf("expected success, got %s: %s", outcome.Kind(), outcome.Reason())
	}
	if outcome.Content() != "hi" {
		t.Errorf("unexpected content: %q", outcome.Content())
	}
	if outcome.Usage().PromptTokens != 12 || outcome.Usage().CompletionTokens != 1 {
		t.Errorf("unexpected usage: %+v", outcome.Usage())
	}
}

func TestSendRateLimited(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "3")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"slow down"}}`))
	}))
	defer server.Close()

	adapter := New().WithAPIKey("test-key").WithBaseURL(server.URL)
	outcome := adapter.Send(context.Background(), testRequest())

	if outcome.Kind() != ai.OutcomeRateLimited {
		t.Fatalf("expected rate limited, got %s", outcome.Kind())
	}
	if outcome.RetryAfter() != 3*time.Second {
		t.Errorf("expected 3s retry hint, got %v", outcome.RetryAfter())
	}
}

func TestSendInvalidInput(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"message":"prompt too long"}}`))
	}))
	defer server.Close()

	adapter := New().WithAPIKey("test-key").WithBaseURL(server.URL)
	outcome := adapter.Send(context.Background(), testRequest())

	if outcome.Kind() != ai.OutcomeInvalidInput {
		t.Fatalf("expected invalid input, got %s", outcome.Kind())
	}
	if outcome.Reason() != "prompt too long" {
		t.Errorf("expected provider reason, got %q", outcome.Reason())
	}
}

func TestSendServerErrorIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte(`{"error":{"message":"upstream sad"}}`))
	}))
	defer server.Close()

	adapter := New().WithAPIKey("test-key").WithBaseURL(server.URL)
	outcome := adapter.Send(context.Background(), testRequest())

	if outcome.Kind() != ai.OutcomeUnavailable {
		t.Fatalf("expected unavailable, got %s", outcome.Kind())
	}
}

func TestSendEmptyChoicesIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"gen-1","choices":[]}`))
	}))
	defer server.Close()

	adapter := New().WithAPIKey("test-key").WithBaseURL(server.URL)
	outcome := adapter.Send(context.Background(), testRequest())

	if outcome.Kind() != ai.OutcomeUnavailable {
		t.Errorf("expected unavailable for empty choices, got %s", outcome.Kind())
	}
}

func TestSendWithoutAPIKey(t *testing.T) {
	adapter := &Adapter{baseURL: "http://unused", client: &http.Client{}}
	outcome := adapter.Send(context.Background(), testRequest())

	if outcome.Kind() != ai.OutcomeUnavailable {
		t.Errorf("expected unavailable without api key, got %s", outcome.Kind())
	}
}

func TestSendTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{}`))
	}))
	defer server.Close()

	adapter := New().WithAPIKey("test-key").WithBaseURL(server.URL)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	outcome := adapter.Send(ctx, testRequest())
	if outcome.Kind() != ai.OutcomeUnavailable {
		t.Errorf("expected unavailable on timeout, got %s", outcome.Kind())
	}
}
