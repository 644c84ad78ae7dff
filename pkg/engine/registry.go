package engine

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"
)

// Command is one executable step of a config tree.
//
// Execute decodes its own payload and performs the step for the given
// action. It returns (true, nil) on success, (false, nil) for a controlled
// failure that halts the enclosing sequence, and a non-nil error for a
// failure that aborts the whole run.
type Command interface {
	Execute(ctx context.Context, s *Session, payload json.RawMessage, action ActionType) (bool, error)
}

// CommandFunc adapts a function to the Command interface.
type CommandFunc func(ctx context.Context, s *Session, payload json.RawMessage, action ActionType) (bool, error)

// Execute calls f.
func (f CommandFunc) Execute(ctx context.Context, s *Session, payload json.RawMessage, action ActionType) (bool, error) {
	return f(ctx, s, payload, action)
}

// Factory builds a fresh Command for one node execution.
type Factory func() Command

// Registry maps node tags to command factories. The set is filled at
// startup; adding a command means registering a tag, the renderer does not
// change.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		factories: make(map[string]Factory),
	}
}

// Register adds a factory for tag. Registering the same tag twice is an error.
func (r *Registry) Register(tag string, factory Factory) error {
	if tag == "" {
		return NewInternalError("cannot register an empty tag", nil)
	}
	if factory == nil {
		return NewInternalError(fmt.Sprintf("nil factory for tag %q", tag), nil)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.factories[tag]; exists {
		return NewInternalError(fmt.Sprintf("tag %q already registered", tag), nil).
			WithCode(ErrCodeDuplicateTag)
	}
	r.factories[tag] = factory
	return nil
}

// MustRegister is Register that panics on error. For startup wiring only.
func (r *Registry) MustRegister(tag string, factory Factory) {
	if err := r.Register(tag, factory); err != nil {
		panic(err)
	}
}

// Lookup builds the command registered for tag. An unknown tag is a
// configuration error: there is no safe way to skip a step.
func (r *Registry) Lookup(tag string) (Command, error) {
	r.mu.RLock()
	factory, ok := r.factories[tag]
	r.mu.RUnlock()

	if !ok {
		return nil, NewConfigurationError(fmt.Sprintf("no command registered for tag %q", tag), nil).
			WithTag(tag).
			WithCode(ErrCodeUnknownTag)
	}
	return factory(), nil
}

// Has reports whether tag is registered.
func (r *Registry) Has(tag string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[tag]
	return ok
}

// Tags returns all registered tags in sorted order.
func (r *Registry) Tags() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	tags := make([]string, 0, len(r.factories))
	for tag := range r.factories {
		tags = append(tags, tag)
	}
	sort.Strings(tags)
	return tags
}
