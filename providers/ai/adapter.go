package ai

import (
	"context"
	"net/http"
)

// Adapter is the core interface every backend implementation must satisfy.
// It covers the full lifecycle of a single request: authentication, endpoint
// configuration, message dispatch, and response interpretation.
//
// Send performs exactly one network call. Adapters never retry internally
// and never panic past this boundary; every provider-side condition resolves
// to one of the Outcome variants. The context carries the per-request
// deadline imposed by the caller; an expired context resolves to an
// Unavailable outcome.
type Adapter interface {
	// Send translates the uniform request into the provider's wire call and
	// maps the result (or failure) into an Outcome.
	Send(ctx context.Context, request Request) Outcome

	// WithAPIKey sets the API key used for authenticating requests.
	WithAPIKey(apiKey string) Adapter

	// WithBaseURL overrides the default base URL for API requests.
	WithBaseURL(baseURL string) Adapter

	// WithHTTPClient sets the HTTP client used for outbound requests.
	WithHTTPClient(httpClient *http.Client) Adapter
}
