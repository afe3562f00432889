package ai

import "time"

// OutcomeKind discriminates the closed set of results an adapter call can
// produce. Adapters must resolve every provider-side condition (HTTP errors,
// malformed payloads, quota exhaustion) to one of these kinds; nothing else
// crosses the adapter boundary.
type OutcomeKind int

const (
	// OutcomeSuccess carries generated content plus token usage.
	OutcomeSuccess OutcomeKind = iota

	// OutcomeRateLimited indicates the provider rejected the call for quota
	// reasons and may succeed after RetryAfter. Retry policy belongs to the
	// dispatcher, never to the adapter.
	OutcomeRateLimited

	// OutcomeInvalidInput indicates the request itself was rejected
	// (malformed prompt, safety refusal, oversized payload). Retrying the
	// same request is wasted work.
	OutcomeInvalidInput

	// OutcomeUnavailable covers everything else: transport failures,
	// timeouts, 5xx responses, undecodable payloads, adapter panics.
	OutcomeUnavailable
)

// String returns a short lowercase label, used in logs and usage records.
func (k OutcomeKind) String() string {
	switch k {
	case OutcomeSuccess:
		return "success"
	case OutcomeRateLimited:
		return "rate_limited"
	case OutcomeInvalidInput:
		return "invalid_input"
	default:
		return "unavailable"
	}
}

// Outcome is the result of one adapter call. The kind field is unexported so
// the variant set stays closed: values are built only through Succeed,
// RateLimit, Invalid, and Unavailable.
type Outcome struct {
	kind       OutcomeKind
	content    string
	usage      Usage
	retryAfter time.Duration
	reason     string
}

// Succeed builds a success outcome. For image models content is a URL or
// data reference rather than the bytes themselves.
func Succeed(content string, usage Usage) Outcome {
	return Outcome{kind: OutcomeSuccess, content: content, usage: usage}
}

// RateLimit builds a rate-limited outcome. retryAfter may be zero when the
// provider did not include a hint; the dispatcher substitutes its default.
func RateLimit(retryAfter time.Duration) Outcome {
	return Outcome{kind: OutcomeRateLimited, retryAfter: retryAfter}
}

// Invalid builds an invalid-input outcome with a user-presentable reason.
func Invalid(reason string) Outcome {
	return Outcome{kind: OutcomeInvalidInput, reason: reason}
}

// Unavailable builds a provider-unavailable outcome with a diagnostic reason.
func Unavailable(reason string) Outcome {
	return Outcome{kind: OutcomeUnavailable, reason: reason}
}

// Kind returns the variant discriminator.
func (o Outcome) Kind() OutcomeKind { return o.kind }

// OK reports whether the outcome is a success.
func (o Outcome) OK() bool { return o.kind == OutcomeSuccess }

// Content returns the generated content. Empty unless OK.
func (o Outcome) Content() string { return o.content }

// Usage returns token usage. Zero unless OK.
func (o Outcome) Usage() Usage { return o.usage }

// RetryAfter returns the provider's retry hint for rate-limited outcomes.
func (o Outcome) RetryAfter() time.Duration { return o.retryAfter }

// Reason returns the failure reason for invalid-input and unavailable
// outcomes. Empty on success and rate limits.
func (o Outcome) Reason() string { return o.reason }
