// Package session owns per-user conversation state: the ordered turn
// history, the active model selection, and the monotonic sequence number
// used to detect stale completions.
//
// Locking is striped per user. Each user's session carries its own mutex for
// short read-modify-write sections plus a request gate that serializes whole
// dispatcher requests for that user, so unrelated users never queue behind
// one slow provider call.
package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/larkin/modelgate/internal/textutil"
	"github.com/larkin/modelgate/providers/ai"
	"github.com/larkin/modelgate/registry"
)

// Session is a read-only snapshot of one user's conversation state. The
// turns slice is a copy; mutating it does not affect the store.
type Session struct {
	Turns       []ai.Turn
	ActiveModel string
	CreatedAt   time.Time
}

// entry is the live per-user state. mu guards the mutable fields; gate is a
// one-slot semaphore serializing whole requests for this user. seq is bumped
// on every mutation and never resets for the lifetime of the entry, so a
// sequence number captured before a provider call can always be compared
// against the current one afterwards.
type entry struct {
	mu   sync.Mutex
	gate chan struct{}

	turns       []ai.Turn
	activeModel string
	createdAt   time.Time
	seq         uint64
}

// Store holds all user sessions. The registry pointer is used to validate
// model switches and to look up each model's history token budget.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*entry

	registry     *registry.Registry
	defaultModel string
	defaultMax   int // budget fallback when the active model cannot be resolved
}

// NewStore builds an empty Store. defaultModel seeds new sessions and
// defaultMaxTokens bounds history when the active model is no longer
// registered.
func NewStore(reg *registry.Registry, defaultModel string, defaultMaxTokens int) *Store {
	return &Store{
		sessions:     make(map[string]*entry),
		registry:     reg,
		defaultModel: defaultModel,
		defaultMax:   defaultMaxTokens,
	}
}

// lookup returns the live entry for userID, creating an empty session with
// the default model on first access.
func (s *Store) lookup(userID string) *entry {
	s.mu.RLock()
	e, ok := s.sessions[userID]
	s.mu.RUnlock()
	if ok {
		return e
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e, ok = s.sessions[userID]; ok {
		return e
	}
	e = &entry{
		gate:        make(chan struct{}, 1),
		activeModel: s.defaultModel,
		createdAt:   time.Now(),
	}
	s.sessions[userID] = e
	return e
}

// GetOrCreate returns a snapshot of the user's session, creating an empty
// one with the default model on first access.
func (s *Store) GetOrCreate(userID string) Session {
	e := s.lookup(userID)
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot()
}

// snapshot must be called with e.mu held.
func (e *entry) snapshot() Session {
	turns := make([]ai.Turn, len(e.turns))
	copy(turns, e.turns)
	return Session{
		Turns:       turns,
		ActiveModel: e.activeModel,
		CreatedAt:   e.createdAt,
	}
}

// Acquire claims the user's request gate, blocking until the previous
// request for the same user releases it or ctx is done. Requests for
// distinct users never contend.
func (s *Store) Acquire(ctx context.Context, userID string) error {
	e := s.lookup(userID)
	select {
	case e.gate <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Release frees the user's request gate. Must pair with a successful Acquire.
func (s *Store) Release(userID string) {
	e := s.lookup(userID)
	select {
	case <-e.gate:
	default:
		// Release without Acquire is a programming error; keep the gate
		// consistent rather than blocking.
	}
}

// AppendTurn appends a turn to the user's history, enforces the history
// budget of the active model, and returns a copy of the retained history
// together with the session's new sequence number.
func (s *Store) AppendTurn(userID string, turn ai.Turn) ([]ai.Turn, uint64) {
	e := s.lookup(userID)
	e.mu.Lock()
	defer e.mu.Unlock()

	e.turns = append(e.turns, turn)
	e.turns = evict(e.turns, s.budgetFor(e.activeModel))
	e.seq++

	turns := make([]ai.Turn, len(e.turns))
	copy(turns, e.turns)
	return turns, e.seq
}

// AppendTurnIf appends a turn only when the session's sequence number still
// equals expectedSeq, i.e. no other actor mutated the session since the
// caller captured it. Returns false when the completion is stale and was
// dropped.
func (s *Store) AppendTurnIf(userID string, turn ai.Turn, expectedSeq uint64) bool {
	e := s.lookup(userID)
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.seq != expectedSeq {
		return false
	}
	e.turns = append(e.turns, turn)
	e.turns = evict(e.turns, s.budgetFor(e.activeModel))
	e.seq++
	return true
}

// History returns a copy of the retained turns together with the current
// sequence number, for callers that invoke the provider without appending a
// new turn first (regenerate).
func (s *Store) History(userID string) ([]ai.Turn, uint64) {
	e := s.lookup(userID)
	e.mu.Lock()
	defer e.mu.Unlock()

	turns := make([]ai.Turn, len(e.turns))
	copy(turns, e.turns)
	return turns, e.seq
}

// PopLastAssistant removes the trailing assistant turn, if any. Used by
// regenerate so the model re-answers the same user turn. Reports whether a
// turn was removed.
func (s *Store) PopLastAssistant(userID string) bool {
	e := s.lookup(userID)
	e.mu.Lock()
	defer e.mu.Unlock()

	n := len(e.turns)
	if n == 0 || e.turns[n-1].Role != ai.RoleAssistant {
		return false
	}
	e.turns = e.turns[:n-1]
	e.seq++
	return true
}

// SetActiveModel switches the user's active model. Fails with
// registry.ErrUnknownModel when the id does not resolve. History is kept
// either way; the new model's budget applies on the next append.
func (s *Store) SetActiveModel(userID, modelID string) error {
	if !s.registry.Has(modelID) {
		return fmt.Errorf("%w: %q", registry.ErrUnknownModel, modelID)
	}
	e := s.lookup(userID)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.activeModel = modelID
	e.seq++
	return nil
}

// ActiveModel returns the user's current model selection.
func (s *Store) ActiveModel(userID string) string {
	e := s.lookup(userID)
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.activeModel
}

// RepairActiveModel replaces the active model when the stored id no longer
// resolves (e.g. the model was removed from the registry between restarts).
// Returns the model id in effect afterwards.
func (s *Store) RepairActiveModel(userID string) string {
	e := s.lookup(userID)
	e.mu.Lock()
	defer e.mu.Unlock()
	if !s.registry.Has(e.activeModel) {
		e.activeModel = s.defaultModel
		e.seq++
	}
	return e.activeModel
}

// Clear empties the user's history. The active model selection is retained;
// history and model selection are independent axes.
func (s *Store) Clear(userID string) {
	e := s.lookup(userID)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.turns = e.turns[:0]
	e.seq++
}

// Reset is the admin operation: it clears the history and restores the
// default model selection. The entry itself (and its sequence counter)
// survives so in-flight completions for the old conversation are detected
// as stale rather than applied to the reset session.
func (s *Store) Reset(userID string) {
	e := s.lookup(userID)
	e.mu.Lock()
	defer e.mu.Unlock()
	e.turns = e.turns[:0]
	e.activeModel = s.defaultModel
	e.seq++
}

// budgetFor resolves the history token budget for modelID, falling back to
// the store default when the model is not registered.
func (s *Store) budgetFor(modelID string) int {
	if descriptor, err := s.registry.Resolve(modelID); err == nil && descriptor.MaxTokens > 0 {
		return descriptor.MaxTokens
	}
	return s.defaultMax
}

// evict enforces the sliding-window history budget: while the cumulative
// token estimate exceeds budget, drop turns from the oldest end. The most
// recent system turn is preserved, and the newest turn is never evicted, so
// the loop always terminates even when a single turn exceeds the budget.
func evict(turns []ai.Turn, budget int) []ai.Turn {
	if budget <= 0 {
		return turns
	}

	protected := -1
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == ai.RoleSystem {
			protected = i
			break
		}
	}

	total := 0
	for _, t := range turns {
		total += textutil.EstimateTokens(t.Content)
	}

	drop := make(map[int]bool)
	for i := 0; total > budget && i < len(turns)-1; i++ {
		if i == protected {
			continue
		}
		drop[i] = true
		total -= textutil.EstimateTokens(turns[i].Content)
	}

	if len(drop) == 0 {
		return turns
	}
	kept := turns[:0]
	for i, t := range turns {
		if !drop[i] {
			kept = append(kept, t)
		}
	}
	return kept
}
