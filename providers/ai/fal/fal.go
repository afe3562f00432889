// Package fal implements the ai.Adapter interface for fal.ai image
// generation. The adapter submits a text prompt synchronously and returns a
// hosted URL for the generated image inside the success outcome.
package fal

import (
	"context"
	"net/http"
	"os"

	"github.com/larkin/modelgate/internal/httpx"
	"github.com/larkin/modelgate/internal/textutil"
	"github.com/larkin/modelgate/providers/ai"
)

const defaultBaseURL = "https://fal.run"

// imageRequest is the synchronous generation request body.
type imageRequest struct {
	Prompt    string `json:"prompt"`
	NumImages int    `json:"num_images,omitempty"`
}

// imageResponse is the synchronous generation response body.
type imageResponse struct {
	Images []imageRef `json:"images"`
}

type imageRef struct {
	URL         string `json:"url"`
	ContentType string `json:"content_type,omitempty"`
	Width       int    `json:"width,omitempty"`
	Height      int    `json:"height,omitempty"`
}

// Adapter implements ai.Adapter for fal.ai.
type Adapter struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

// New creates a fal adapter with defaults from the environment.
// Environment variables:
//   - FAL_API_KEY: API key for authentication
//   - FAL_API_BASE_URL: base URL override (optional)
func New() *Adapter {
	baseURL := os.Getenv("FAL_API_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	return &Adapter{
		apiKey:  os.Getenv("FAL_API_KEY"),
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

// Send implements the ai.Adapter interface. Image generation has no
// meaningful use for conversation history, so the prompt is the content of
// the most recent user turn. The model id doubles as the fal endpoint path
// (e.g. "fal-ai/flux/dev").
func (a *Adapter) Send(ctx context.Context, request ai.Request) (outcome ai.Outcome) {
	defer ai.Guard(&outcome)

	if a.apiKey == "" {
		return ai.Unavailable("fal API key is not set")
	}

	prompt := lastUserPrompt(request.Turns)
	if prompt == "" {
		return ai.Invalid("image generation needs a text prompt")
	}

	headers := map[string]string{
		"Authorization": "Key " + a.apiKey,
	}
	url := a.baseURL + "/" + request.Model
	response, err := httpx.PostJSON[imageResponse](ctx, a.client, url, headers, imageRequest{Prompt: prompt, NumImages: 1})
	if err != nil {
		return ai.OutcomeFromTransport(err)
	}
	if len(response.Images) == 0 || response.Images[0].URL == "" {
		return ai.Unavailable("provider returned no image")
	}

	// fal does not meter tokens; estimate the prompt cost so usage records
	// stay comparable across modalities.
	usage := ai.Usage{PromptTokens: textutil.EstimateTokens(prompt)}
	return ai.Succeed(response.Images[0].URL, usage)
}

// lastUserPrompt returns the content of the most recent user turn.
func lastUserPrompt(turns []ai.Turn) string {
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == ai.RoleUser {
			return turns[i].Content
		}
	}
	return ""
}
