// Package usage defines the usage-record sink consumed after every
// completed dispatcher invocation. Emission is fire-and-forget from the
// dispatcher's point of view: a failing sink is logged and never aborts the
// user-facing reply.
package usage

import (
	"log/slog"
	"time"
)

// Record captures one completed dispatcher invocation. Records are immutable
// once emitted; the sink owns them afterwards.
type Record struct {
	RequestID        string    `json:"request_id"`
	UserID           string    `json:"user_id"`
	ModelID          string    `json:"model_id"`
	PromptTokens     int       `json:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens"`
	Success          bool      `json:"success"`
	Timestamp        time.Time `json:"timestamp"`
}

// Sink receives usage records. Implementations must be safe for concurrent
// use; the dispatcher calls Emit from per-user goroutines.
type Sink interface {
	Emit(record Record) error
}

// LogSink writes records to a structured logger. It is the fallback sink
// when no persistent store is configured, and doubles as an audit trail in
// front of one.
type LogSink struct {
	logger *slog.Logger
}

// NewLogSink returns a LogSink writing to logger, or slog.Default() when nil.
func NewLogSink(logger *slog.Logger) *LogSink {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogSink{logger: logger}
}

var _ Sink = (*LogSink)(nil)

// Emit logs the record at info level. Never fails.
func (s *LogSink) Emit(record Record) error {
	s.logger.Info("usage",
		slog.String("request_id", record.RequestID),
		slog.String("user_id", record.UserID),
		slog.String("model_id", record.ModelID),
		slog.Int("prompt_tokens", record.PromptTokens),
		slog.Int("completion_tokens", record.CompletionTokens),
		slog.Bool("success", record.Success),
	)
	return nil
}
