// Package httpx holds the shared HTTP plumbing used by every provider
// adapter: a generic JSON POST helper and error-payload decoding.
package httpx

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/kaptinlin/jsonrepair"

	"github.com/larkin/modelgate/internal/textutil"
)

// StatusError is returned by PostJSON for non-2xx responses. Adapters switch
// on Code to classify the failure; Body keeps the raw payload for diagnostics.
type StatusError struct {
	Code       int
	Body       string
	RetryAfter time.Duration // parsed from the Retry-After header, zero if absent
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("non-2xx status %d: %s", e.Code, textutil.Truncate(e.Body, 200))
}

// Message extracts the provider's human-readable error message from the JSON
// error body. Providers occasionally return truncated or otherwise malformed
// JSON in error responses, so a failed strict parse is retried after running
// the body through jsonrepair. Falls back to the truncated raw body.
func (e *StatusError) Message() string {
	if msg, ok := decodeErrorMessage(e.Body); ok {
		return msg
	}
	if repaired, err := jsonrepair.JSONRepair(e.Body); err == nil {
		if msg, ok := decodeErrorMessage(repaired); ok {
			return msg
		}
	}
	return textutil.Truncate(e.Body, 200)
}

// decodeErrorMessage handles the two error envelope shapes used by the
// supported providers: {"error":{"message":...}} and {"message":...}.
func decodeErrorMessage(body string) (string, bool) {
	var envelope struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal([]byte(body), &envelope); err != nil {
		return "", false
	}
	if envelope.Error.Message != "" {
		return envelope.Error.Message, true
	}
	if envelope.Message != "" {
		return envelope.Message, true
	}
	return "", false
}

// PostJSON performs a synchronous HTTP POST with a JSON body and parses the
// response into Output.
//
// Error handling strategy:
//   - Context errors (timeout, cancellation) are propagated immediately
//   - Connection failures return the transport error
//   - Non-2xx responses return a *StatusError carrying the status code, the
//     raw body, and any Retry-After hint
//   - JSON parsing errors include a response preview for debugging
//
// The response body is always closed; close errors are logged without
// overriding the primary error.
func PostJSON[Output any](ctx context.Context, client *http.Client, url string, headers map[string]string, body any) (*Output, error) {
	httpClient := client
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	jsonBody, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("error marshaling body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("error creating request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	for key, value := range headers {
		req.Header.Set(key, value)
	}

	res, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error sending request: %w", err)
	}
	defer func(rc io.ReadCloser) {
		if closeErr := rc.Close(); closeErr != nil {
			slog.Warn("failed to close response body", "error", closeErr.Error(), "url", url)
		}
	}(res.Body)

	respBody, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}

	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return nil, &StatusError{
			Code:       res.StatusCode,
			Body:       string(respBody),
			RetryAfter: parseRetryAfter(res.Header),
		}
	}

	var out Output
	if err = json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("error unmarshaling response body (status %d): %w\nResponse preview: %s",
			res.StatusCode, err, textutil.Truncate(string(respBody), 500))
	}

	return &out, nil
}

// parseRetryAfter reads the Retry-After header in its delta-seconds form.
// The HTTP-date form is not used by the supported providers.
func parseRetryAfter(header http.Header) time.Duration {
	value := header.Get("Retry-After")
	if value == "" {
		return 0
	}
	seconds, err := strconv.Atoi(value)
	if err != nil || seconds < 0 {
		return 0
	}
	return time.Duration(seconds) * time.Second
}
