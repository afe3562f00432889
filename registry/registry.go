// Package registry maps model identifiers to their provider adapters and
// declared capabilities. A Registry is assembled once at startup and is
// read-only afterwards, so lookups need no locking.
package registry

import (
	"errors"
	"fmt"

	"github.com/larkin/modelgate/providers/ai"
)

var (
	// ErrDuplicateModel is returned by Register when the model identifier
	// is already present.
	ErrDuplicateModel = errors.New("modelgate: model already registered")

	// ErrUnknownModel is returned by Resolve when no model with the given
	// identifier exists.
	ErrUnknownModel = errors.New("modelgate: unknown model")
)

// ModelDescriptor describes one routable model: identity, presentation,
// capabilities, and its adapter binding. Descriptors are immutable after
// registration.
type ModelDescriptor struct {
	ID          string      // stable identifier users select by
	DisplayName string      // human-readable name for model-switch menus
	WireName    string      // provider-side model name; defaults to ID when empty
	Modality    ai.Modality // text or image
	MaxTokens   int         // history token budget for this model
	Adapter     ai.Adapter  // backend that serves this model
}

// Wire returns the provider-side model name sent on requests.
func (d ModelDescriptor) Wire() string {
	if d.WireName != "" {
		return d.WireName
	}
	return d.ID
}

// Registry is the model routing table. Build it with Register calls during
// startup; after that it must be treated as read-only.
type Registry struct {
	models map[string]ModelDescriptor
	order  []string // preserves registration order for List
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{
		models: make(map[string]ModelDescriptor),
	}
}

// Register adds a model descriptor. Returns ErrDuplicateModel if the
// identifier is already taken, and rejects descriptors without an ID or an
// adapter binding.
func (r *Registry) Register(descriptor ModelDescriptor) error {
	if descriptor.ID == "" {
		return fmt.Errorf("modelgate: descriptor has empty model id")
	}
	if descriptor.Adapter == nil {
		return fmt.Errorf("modelgate: model %q has no adapter", descriptor.ID)
	}
	if _, exists := r.models[descriptor.ID]; exists {
		return fmt.Errorf("%w: %q", ErrDuplicateModel, descriptor.ID)
	}
	r.models[descriptor.ID] = descriptor
	r.order = append(r.order, descriptor.ID)
	return nil
}

// Resolve returns the descriptor for modelID, or ErrUnknownModel.
func (r *Registry) Resolve(modelID string) (ModelDescriptor, error) {
	descriptor, exists := r.models[modelID]
	if !exists {
		return ModelDescriptor{}, fmt.Errorf("%w: %q", ErrUnknownModel, modelID)
	}
	return descriptor, nil
}

// Has reports whether modelID is registered.
func (r *Registry) Has(modelID string) bool {
	_, exists := r.models[modelID]
	return exists
}

// List returns all descriptors in registration order, as a new slice.
func (r *Registry) List() []ModelDescriptor {
	out := make([]ModelDescriptor, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.models[id])
	}
	return out
}
