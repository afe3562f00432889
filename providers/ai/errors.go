package ai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/larkin/modelgate/internal/httpx"
)

// OutcomeFromTransport classifies a transport-layer error from an adapter's
// HTTP call into the Outcome variant set. Shared by all adapters so status
// codes map consistently:
//
//	400, 404, 413, 422 -> InvalidInput (the request itself was rejected)
//	429                -> RateLimited, with any Retry-After hint
//	everything else    -> Unavailable (auth, 5xx, network, timeout, decode)
func OutcomeFromTransport(err error) Outcome {
	var statusErr *httpx.StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.Code {
		case 400, 404, 413, 422:
			return Invalid(statusErr.Message())
		case 429:
			return RateLimit(statusErr.RetryAfter)
		default:
			return Unavailable(statusErr.Message())
		}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return Unavailable("provider call timed out")
	}
	if errors.Is(err, context.Canceled) {
		return Unavailable("provider call canceled")
	}
	return Unavailable(err.Error())
}

// Guard converts a panic escaping an adapter into an Unavailable outcome.
// Call via defer with a pointer to the named return:
//
//	func (p *X) Send(...) (outcome ai.Outcome) {
//	    defer ai.Guard(&outcome)
//	    ...
//	}
func Guard(outcome *Outcome) {
	if r := recover(); r != nil {
		slog.Error("adapter panic recovered", "panic", fmt.Sprint(r))
		*outcome = Unavailable("internal adapter fault")
	}
}
