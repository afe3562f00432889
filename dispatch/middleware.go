package dispatch

import (
	"context"
	"log/slog"
	"time"

	"github.com/larkin/modelgate/providers/ai"
)

// SendFunc is the signature of an adapter call as seen by middleware.
type SendFunc func(ctx context.Context, request ai.Request) ai.Outcome

// Middleware wraps a SendFunc with cross-cutting behavior (deadlines,
// logging). Middlewares compose; the first one in the chain runs outermost.
type Middleware func(next SendFunc) SendFunc

// Chain applies middlewares around base so that middlewares[0] is the
// outermost wrapper.
func Chain(base SendFunc, middlewares ...Middleware) SendFunc {
	wrapped := base
	for i := len(middlewares) - 1; i >= 0; i-- {
		wrapped = middlewares[i](wrapped)
	}
	return wrapped
}

// Timeout returns a middleware that enforces a per-call deadline. The
// context is canceled once the adapter returns or the deadline expires; a
// caller-supplied context with a shorter deadline wins as per normal context
// semantics.
func Timeout(timeout time.Duration) Middleware {
	return func(next SendFunc) SendFunc {
		return func(ctx context.Context, request ai.Request) ai.Outcome {
			ctx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()

			return next(ctx, request)
		}
	}
}

// Logging returns a middleware that emits structured log entries before and
// after every adapter call: model, duration, outcome kind, and token totals.
// Content is never logged.
func Logging(logger *slog.Logger) Middleware {
	if logger == nil {
		logger = slog.Default()
	}
	return func(next SendFunc) SendFunc {
		return func(ctx context.Context, request ai.Request) ai.Outcome {
			logger.InfoContext(ctx, "provider send",
				slog.String("model", request.Model),
				slog.Int("turns", len(request.Turns)),
			)

			start := time.Now()
			outcome := next(ctx, request)
			elapsed := time.Since(start)

			if !outcome.OK() {
				logger.WarnContext(ctx, "provider send failed",
					slog.String("model", request.Model),
					slog.Duration("duration", elapsed),
					slog.String("outcome", outcome.Kind().String()),
					slog.String("reason", outcome.Reason()),
				)
				return outcome
			}

			logger.InfoContext(ctx, "provider send completed",
				slog.String("model", request.Model),
				slog.Duration("duration", elapsed),
				slog.Int("prompt_tokens", outcome.Usage().PromptTokens),
				slog.Int("completion_tokens", outcome.Usage().CompletionTokens),
			)
			return outcome
		}
	}
}
