// Package openrouter implements the ai.Adapter interface against the
// OpenRouter chat-completions API, which fronts OpenAI, Anthropic, and
// Perplexity models behind one OpenAI-compatible endpoint.
package openrouter

import (
	"context"
	"net/http"
	"os"

	"github.com/larkin/modelgate/internal/httpx"
	"github.com/larkin/modelgate/providers/ai"
)

const (
	defaultBaseURL          = "https://openrouter.ai/api/v1"
	chatCompletionsEndpoint = "/chat/completions"
)

// Adapter implements ai.Adapter for OpenRouter.
type Adapter struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// New creates an OpenRouter adapter with defaults from the environment.
// Environment variables:
//   - OPENROUTER_API_KEY: API key for authentication
//   - OPENROUTER_API_BASE_URL: base URL override (optional)
func New() *Adapter {
	baseURL := os.Getenv("OPENROUTER_API_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Adapter{
		apiKey:  os.Getenv("OPENROUTER_API_KEY"),
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

// Send implements the ai.Adapter interface: one POST to /chat/completions,
// every failure classified into the Outcome variant set.
func (a *Adapter) Send(ctx context.Context, request ai.Request) (outcome ai.Outcome) {
	defer ai.Guard(&outcome)

	if a.apiKey == "" {
		return ai.Unavailable("OpenRouter API key is not set")
	}

	headers := map[string]string{
		"Authorization": "Bearer " + a.apiKey,
	}
	response, err := httpx.PostJSON[chatCompletionResponse](
		ctx, a.client, a.baseURL+chatCompletionsEndpoint, headers, requestFromGeneric(request))
	if err != nil {
		return ai.OutcomeFromTransport(err)
	}
	return outcomeFromResponse(*response)
}
