// Package gemini implements the ai.Adapter interface for Google's Gemini
// generateContent API.
package gemini

import (
	"context"
	"net/http"
	"os"

	"github.com/larkin/modelgate/internal/httpx"
	"github.com/larkin/modelgate/providers/ai"
)

const (
	defaultBaseURL = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel   = "gemini-2.0-flash-lite"
)

// Adapter implements ai.Adapter for Gemini.
type Adapter struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// New creates a Gemini adapter with defaults from the environment.
// Environment variables:
//   - GEMINI_API_KEY: API key for authentication
//   - GEMINI_API_BASE_URL: base URL override (optional)
func New() *Adapter {
	baseURL := os.Getenv("GEMINI_API_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Adapter{
		apiKey:  os.Getenv("GEMINI_API_KEY"),
		baseURL: baseURL,
		client:  &http.Client{},
	}
}

var _ ai.Adapter = (*Adapter)(nil)

// WithAPIKey sets the API key for the adapter.
func (a *Adapter) WithAPIKey(apiKey string) ai.Adapter {
	a.apiKey = apiKey
	return a
}

// WithBaseURL sets the base URL for the API.
func (a *Adapter) WithBaseURL(baseURL string) ai.Adapter {
	a.baseURL = baseURL
	return a
}

// WithHTTPClient sets a custom HTTP client.
func (a *Adapter) WithHTTPClient(httpClient *http.Client) ai.Adapter {
	a.client = httpClient
	return a
}

// Send implements the ai.Adapter interface against
// /models/{model}:generateContent.
func (a *Adapter) Send(ctx context.Context, request ai.Request) (outcome ai.Outcome) {
	defer ai.Guard(&outcome)

	if a.apiKey == "" {
		return ai.Unavailable("Gemini API key is not set")
	}

	model := request.Model
	if model == "" {
		model = defaultModel
	}

	headers := map[string]string{
		"x-goog-api-key": a.apiKey,
	}
	url := a.baseURL + "/models/" + model + ":generateContent"
	response, err := httpx.PostJSON[generateContentResponse](ctx, a.client, url, headers, requestToGemini(request))
	if err != nil {
		return ai.OutcomeFromTransport(err)
	}
	return outcomeFromResponse(*response)
}
