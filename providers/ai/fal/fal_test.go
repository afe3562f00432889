package fal

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/larkin/modelgate/providers/ai"
)

func TestSendReturnsImageURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Key test-key" {
			t.Errorf("expected fal key auth, got %q", r.Header.Get("Authorization"))
		}
		if !strings.HasSuffix(r.URL.Path, "/fal-ai/flux/dev") {
			t.Errorf("model id must form the endpoint path, got %s", r.URL.Path)
		}

		var wire imageRequest
		if err := json.NewDecoder(r.Body).Decode(&wire); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		if wire.Prompt != "a red fox" {
			t.Errorf("unexpected prompt: %q", wire.Prompt)
		}

		json.NewEncoder(w).Encode(imageResponse{
			Images: []imageRef{{URL: "https://img.example/fox.png", Width: 1024, Height: 1024}},
		})
	}))
	defer server.Close()

	adapter := New().WithAPIKey("test-key").WithBaseURL(server.URL)
	outcome := adapter.Send(context.Background(), ai.Request{
		Model: "fal-ai/flux/dev",
		Turns: []ai.Turn{
			{Role: ai.RoleUser, Content: "ignore this older prompt"},
			{Role: ai.RoleAssistant, Content: "https://img.example/old.png"},
			{Role: ai.RoleUser, Content: "a red fox"},
		},
	})

	if !outcome.OK() {
		t.Fatalf("expected success, got %s: %s", outcome.Kind(), outcome.Reason())
	}
	if outcome.Content() != "https://img.example/fox.png" {
		t.Errorf("unexpected content: %q", outcome.Content())
	}
}

func TestSendWithoutPromptIsInvalid(t *testing.T) {
	adapter := New().WithAPIKey("test-key")
	outcome := adapter.Send(context.Background(), ai.Request{
		Model: "fal-ai/flux/dev",
		Turns: []ai.Turn{{Role: ai.RoleAssistant, Content: "no user turn here"}},
	})
	if outcome.Kind() != ai.OutcomeInvalidInput {
		t.Errorf("expected invalid input, got %s", outcome.Kind())
	}
}

func TestSendNoImagesIsUnavailable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"images":[]}`))
	}))
	defer server.Close()

	adapter := New().WithAPIKey("test-key").WithBaseURL(server.URL)
	outcome := adapter.Send(context.Background(), ai.Request{
		Model: "fal-ai/flux/dev",
		Turns: []ai.Turn{{Role: ai.RoleUser, Content: "a red fox"}},
	})
	if outcome.Kind() != ai.OutcomeUnavailable {
		t.Errorf("expected unavailable, got %s", outcome.Kind())
	}
}

func TestSendWithoutAPIKey(t *testing.T) {
	adapter := &Adapter{baseURL: "http://unused", client: &http.Client{}}
	outcome := adapter.Send(context.Background(), ai.Request{
		Turns: []ai.Turn{{Role: ai.RoleUser, Content: "a red fox"}},
	})
	if outcome.Kind() != ai.OutcomeUnavailable {
		t.Errorf("expected unavailable without api key, got %s", outcome.Kind())
	}
}
