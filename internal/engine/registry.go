package engine

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/OxanaKozlova/workflow/internal/compiler"
	"github.com/OxanaKozlova/workflow/internal/ir"
)

// ErrWorkflowNotFound is returned by Registry.Get for an unknown name.
var ErrWorkflowNotFound = errors.New("workflow not found")

// Registry holds workflows by name.
//
// Thread-safety: Registry is safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	workflows map[string]*Workflow
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{workflows: make(map[string]*Workflow)}
}

// Add registers w under its name. Names must be unique.
func (r *Registry) Add(w *Workflow) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.workflows[w.Name()]; exists {
		return fmt.Errorf("workflow %q already registered", w.Name())
	}
	r.workflows[w.Name()] = w
	return nil
}

// Get returns the workflow registered under name.
func (r *Registry) Get(name string) (*Workflow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	w, ok := r.workflows[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrWorkflowNotFound, name)
	}
	return w, nil
}

// Names returns the registered names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.workflows))
	for name := range r.workflows {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Build creates the engine described by spec: a StateMachine for
// state_machine specs, a Workflow otherwise. The spec name becomes the
// workflow name. A nil store is replaced by the built-in store matching
// spec.StoreKind().
func Build(spec ir.WorkflowSpec, store MarkingStore, opts ...Option) (*Workflow, error) {
	def, err := compiler.ValidateSpec(spec)
	if err != nil {
		return nil, err
	}

	if store == nil {
		if store, err = StoreFor(spec.StoreKind()); err != nil {
			return nil, err
		}
	}

	opts = append([]Option{WithName(spec.Name)}, opts...)
	if spec.IsStateMachine() {
		sm, err := NewStateMachine(def, store, opts...)
		if err != nil {
			return nil, err
		}
		return sm.Workflow, nil
	}
	return New(def, store, opts...)
}
