// Package dispatch is the orchestration core. Every inbound user event runs
// one state machine instance:
//
//	Received -> Authorized -> ContextResolved -> ProviderInvoked -> Completed|Failed
//
// The dispatcher consults the access gate, resolves the active model through
// the session store and registry, invokes the provider adapter through the
// middleware chain, updates session state, emits a usage record, and returns
// a well-formed reply. The transport never sees an unhandled fault.
package dispatch

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/larkin/modelgate/access"
	"github.com/larkin/modelgate/providers/ai"
	"github.com/larkin/modelgate/registry"
	"github.com/larkin/modelgate/session"
	"github.com/larkin/modelgate/usage"
)

// ErrAccessDenied marks replies rejected by the access gate. Exposed for
// transports that distinguish denial from provider failure.
var ErrAccessDenied = errors.New("modelgate: access denied")

// Command names the recognized inbound commands. An empty command is a
// plain chat message.
type Command string

const (
	CommandNone        Command = ""
	CommandSwitchModel Command = "switch-model" // Text carries the model id
	CommandClear       Command = "clear"
	CommandRegenerate  Command = "regenerate"
	CommandBroadcast   Command = "broadcast" // admin only; Text carries the message
	CommandReset       Command = "reset"     // admin only; Text carries the target user id
)

// Event is one inbound user event from the transport.
type Event struct {
	UserID  string
	Text    string
	Command Command
}

// Reply is the outbound result handed back to the transport. Exactly one of
// the success content or ErrorMessage is meaningful, discriminated by OK.
type Reply struct {
	Content      string
	Binary       bool // Content is a URL or data reference, not display text
	OK           bool
	ErrorMessage string
	Recipients   []string // set only for broadcast: who the transport should deliver Content to
}

func failure(message string) Reply {
	return Reply{OK: false, ErrorMessage: message}
}

// Config wires a Dispatcher. Gate, Sessions, and Registry are required;
// Sink defaults to a log sink and Logger to slog.Default().
type Config struct {
	Gate     *access.Gate
	Sessions *session.Store
	Registry *registry.Registry
	Sink     usage.Sink
	Logger   *slog.Logger

	MaxTokens  int           // generation cap passed to adapters
	Timeout    time.Duration // per provider call; zero means 60s
	RetryDelay time.Duration // wait before the single rate-limit retry when the provider gave no hint; zero means 2s
}

// Dispatcher executes the per-request state machine. Safe for concurrent
// use; per-user serialization is delegated to the session store's request
// gate.
type Dispatcher struct {
	gate     *access.Gate
	sessions *session.Store
	registry *registry.Registry
	sink     usage.Sink
	logger   *slog.Logger

	maxTokens   int
	retryDelay  time.Duration
	middlewares []Middleware
}

// New builds a Dispatcher from cfg, applying defaults for optional fields.
func New(cfg Config) *Dispatcher {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	sink := cfg.Sink
	if sink == nil {
		sink = usage.NewLogSink(logger)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	retryDelay := cfg.RetryDelay
	if retryDelay <= 0 {
		retryDelay = 2 * time.Second
	}

	return &Dispatcher{
		gate:        cfg.Gate,
		sessions:    cfg.Sessions,
		registry:    cfg.Registry,
		sink:        sink,
		logger:      logger,
		maxTokens:   cfg.MaxTokens,
		retryDelay:  retryDelay,
		middlewares: []Middleware{Timeout(timeout), Logging(logger)},
	}
}

// Handle runs one inbound event through the state machine and always
// returns a well-formed reply.
func (d *Dispatcher) Handle(ctx context.Context, event Event) Reply {
	// Received -> Authorized. Denied short-circuits before any session or
	// provider interaction and emits no usage record.
	decision := d.gate.Authorize(event.UserID)
	if decision == access.Denied {
		d.logger.Info("access denied", slog.String("user_id", event.UserID))
		return failure("you are not authorized to use this service")
	}

	switch event.Command {
	case CommandNone:
		return d.chat(ctx, event, event.Text, true)
	case CommandSwitchModel:
		return d.switchModel(event)
	case CommandClear:
		d.sessions.Clear(event.UserID)
		return Reply{OK: true, Content: "conversation cleared"}
	case CommandRegenerate:
		return d.regenerate(ctx, event)
	case CommandBroadcast:
		if decision != access.AdminAllowed {
			return failure("broadcast is an admin-only command")
		}
		return Reply{OK: true, Content: event.Text, Recipients: d.gate.AllowedIDs()}
	case CommandReset:
		if decision != access.AdminAllowed {
			return failure("reset is an admin-only command")
		}
		if event.Text == "" {
			return failure("reset needs a target user id")
		}
		d.sessions.Reset(event.Text)
		return Reply{OK: true, Content: "session reset for " + event.Text}
	default:
		return failure("unknown command")
	}
}

// switchModel handles the switch-model command. A failed switch leaves the
// previous selection untouched.
func (d *Dispatcher) switchModel(event Event) Reply {
	if err := d.sessions.SetActiveModel(event.UserID, event.Text); err != nil {
		if errors.Is(err, registry.ErrUnknownModel) {
			return failure("unknown model " + event.Text)
		}
		return failure(err.Error())
	}
	return Reply{OK: true, Content: "active model set to " + event.Text}
}

// regenerate drops the last assistant turn and re-invokes the provider with
// the retained history, so the model re-answers the same user turn.
func (d *Dispatcher) regenerate(ctx context.Context, event Event) Reply {
	return d.chat(ctx, event, "", false)
}

// chat runs the Authorized -> ContextResolved -> ProviderInvoked ->
// Completed|Failed portion of the state machine. When appendUser is false
// (regenerate) the provider is re-invoked on the existing history after the
// trailing assistant turn is removed.
func (d *Dispatcher) chat(ctx context.Context, event Event, text string, appendUser bool) Reply {
	// Serialize with any in-flight request for the same user. A canceled
	// wait means the transport has moved on; nothing was mutated yet.
	if err := d.sessions.Acquire(ctx, event.UserID); err != nil {
		return failure("request canceled")
	}
	defer d.sessions.Release(event.UserID)

	// Authorized -> ContextResolved. A session referencing a deregistered
	// model falls back to the default instead of failing the request.
	d.sessions.GetOrCreate(event.UserID)
	modelID := d.sessions.RepairActiveModel(event.UserID)
	descriptor, err := d.registry.Resolve(modelID)
	if err != nil {
		d.logger.Error("default model not registered", slog.String("model", modelID))
		return failure("no model is available right now")
	}

	// ContextResolved -> ProviderInvoked.
	var history []ai.Turn
	var seq uint64
	if appendUser {
		if text == "" {
			return failure("empty message")
		}
		history, seq = d.sessions.AppendTurn(event.UserID, ai.Turn{
			Role:      ai.RoleUser,
			Content:   text,
			Timestamp: time.Now(),
		})
	} else {
		if !d.sessions.PopLastAssistant(event.UserID) {
			return failure("nothing to regenerate")
		}
		history, seq = d.sessions.History(event.UserID)
		if len(history) == 0 {
			return failure("nothing to regenerate")
		}
	}

	request := ai.Request{
		Model: descriptor.Wire(),
		Turns: history,
		Config: ai.GenerationConfig{
			MaxTokens: d.maxTokens,
			Modality:  descriptor.Modality,
		},
	}
	outcome := d.invokeWithRetry(ctx, descriptor.Adapter, request)

	// ProviderInvoked -> Completed|Failed.
	record := usage.Record{
		RequestID:        uuid.NewString(),
		UserID:           event.UserID,
		ModelID:          descriptor.ID,
		PromptTokens:     outcome.Usage().PromptTokens,
		CompletionTokens: outcome.Usage().CompletionTokens,
		Success:          outcome.OK(),
		Timestamp:        time.Now(),
	}
	d.emit(record)

	if !outcome.OK() {
		return failure(userMessage(outcome))
	}

	applied := d.sessions.AppendTurnIf(event.UserID, ai.Turn{
		Role:      ai.RoleAssistant,
		Content:   outcome.Content(),
		Timestamp: time.Now(),
	}, seq)
	if !applied {
		// The session moved forward while the call was in flight (admin
		// reset or clear). The completion is stale: deliver nothing and
		// leave the session alone.
		d.logger.Info("stale completion dropped",
			slog.String("user_id", event.UserID),
			slog.String("model", descriptor.ID),
		)
		return failure("conversation changed while generating, please resend")
	}

	return Reply{
		OK:      true,
		Content: outcome.Content(),
		Binary:  descriptor.Modality == ai.ModalityImage,
	}
}

// invokeWithRetry calls the adapter through the middleware chain, applying
// the single bounded retry on a rate-limited outcome. A second rate limit,
// or any other failure, terminates the request; invalid input is never
// retried.
func (d *Dispatcher) invokeWithRetry(ctx context.Context, adapter ai.Adapter, request ai.Request) ai.Outcome {
	send := Chain(adapter.Send, d.middlewares...)

	outcome := send(ctx, request)
	if outcome.Kind() != ai.OutcomeRateLimited {
		return outcome
	}

	delay := outcome.RetryAfter()
	if delay <= 0 {
		delay = d.retryDelay
	}
	select {
	case <-time.After(delay):
	case <-ctx.Done():
		return ai.Unavailable("request canceled while waiting to retry")
	}

	return send(ctx, request)
}

// emit hands the record to the sink. Sink failures are logged and never
// abort the user-facing reply.
func (d *Dispatcher) emit(record usage.Record) {
	if err := d.sink.Emit(record); err != nil {
		d.logger.Error("usage sink failed",
			slog.String("request_id", record.RequestID),
			slog.String("user_id", record.UserID),
			slog.String("error", err.Error()),
		)
	}
}

// userMessage renders a failed outcome as a user-facing reason.
func userMessage(outcome ai.Outcome) string {
	switch outcome.Kind() {
	case ai.OutcomeRateLimited:
		return "the model is rate limited right now, please try again shortly"
	case ai.OutcomeInvalidInput:
		return "the model rejected this request: " + outcome.Reason()
	default:
		return "the model is unavailable: " + outcome.Reason()
	}
}
