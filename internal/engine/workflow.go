package engine

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/OxanaKozlova/workflow/internal/compiler"
	"github.com/OxanaKozlova/workflow/internal/ir"
)

// DefaultName is the workflow name used when WithName is not given.
const DefaultName = "unnamed"

// Workflow is the generic Petri-net engine.
//
// A Workflow holds no per-subject state and is reused across subjects.
// The Definition is immutable, so sharing one Workflow between goroutines is
// safe as long as the store and dispatcher are.
type Workflow struct {
	def        *ir.Definition
	store      MarkingStore
	dispatcher Dispatcher
	name       string
	logger     *zap.Logger
	validators []compiler.Validator
}

// Option configures a Workflow at construction.
type Option func(*Workflow)

// WithName sets the workflow name used in event names and errors. An empty
// name keeps DefaultName, since event names need a workflow segment.
func WithName(name string) Option {
	return func(w *Workflow) {
		if name != "" {
			w.name = name
		}
	}
}

// WithDispatcher sets the event dispatcher. Without one no event is
// dispatched and no guard can block a transition.
func WithDispatcher(d Dispatcher) Option {
	return func(w *Workflow) {
		w.dispatcher = d
	}
}

// WithValidators adds definition validators, run in order at construction.
func WithValidators(validators ...compiler.Validator) Option {
	return func(w *Workflow) {
		w.validators = append(w.validators, validators...)
	}
}

// WithLogger sets the logger. Default: zap.NewNop().
func WithLogger(l *zap.Logger) Option {
	return func(w *Workflow) {
		if l != nil {
			w.logger = l
		}
	}
}

// New creates a Workflow over def.
//
// A nil store defaults to MultipleStateMarkingStore. When the store is a
// SinglePlaceStore, SinglePlaceWorkflowValidator is added to the validators.
// Any validation failure is returned and no Workflow is built.
func New(def *ir.Definition, store MarkingStore, opts ...Option) (*Workflow, error) {
	if def == nil {
		return nil, errors.New("engine: nil definition")
	}
	if store == nil {
		store = MultipleStateMarkingStore{}
	}

	w := &Workflow{
		def:    def,
		store:  store,
		name:   DefaultName,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(w)
	}

	validators := append([]compiler.Validator{compiler.WorkflowValidator{}}, w.validators...)
	if sp, ok := store.(SinglePlaceStore); ok && sp.SinglePlace() {
		validators = append(validators, compiler.SinglePlaceWorkflowValidator{})
	}
	if err := compiler.Chain(validators...).Validate(def, w.name); err != nil {
		return nil, err
	}

	return w, nil
}

// Name returns the workflow name.
func (w *Workflow) Name() string { return w.name }

// Definition returns the workflow definition.
func (w *Workflow) Definition() *ir.Definition { return w.def }

// MarkingStore returns the marking store.
func (w *Workflow) MarkingStore() MarkingStore { return w.store }

// GetMarking returns the subject's current marking.
//
// An empty marking is seeded with the initial place and persisted. Fails
// with EMPTY_MARKING when there is no initial place, and with INVALID_PLACE
// when the marking holds a place the definition does not know.
func (w *Workflow) GetMarking(ctx context.Context, subject any) (ir.Marking, error) {
	m, err := w.store.GetMarking(ctx, subject)
	if err != nil {
		return ir.Marking{}, fmt.Errorf("workflow %q: get marking: %w", w.name, err)
	}

	seeded := false
	if m.IsEmpty() {
		initial := w.def.InitialPlace()
		if initial == "" {
			return ir.Marking{}, newEmptyMarkingError(w.name)
		}
		m = ir.NewMarking(initial)
		seeded = true
	}

	noPlaces := len(w.def.Places()) == 0
	for _, place := range m.PlaceNames() {
		if !w.def.HasPlace(place) {
			return ir.Marking{}, newInvalidPlaceError(w.name, place, noPlaces)
		}
	}

	if seeded {
		if err := w.store.SetMarking(ctx, subject, m); err != nil {
			return ir.Marking{}, fmt.Errorf("workflow %q: set initial marking: %w", w.name, err)
		}
		w.logger.Debug("initial marking set",
			zap.String("workflow", w.name),
			zap.Stringer("marking", m))
	}

	return m, nil
}

// Can reports whether a transition named name is enabled for subject.
// Fails with UNKNOWN_TRANSITION when the definition has no such transition.
func (w *Workflow) Can(ctx context.Context, subject any, name string) (bool, error) {
	t, _, err := w.resolve(ctx, subject, name)
	if err != nil {
		return false, err
	}
	return t != nil, nil
}

// EnabledTransitions returns every enabled transition in definition order.
func (w *Workflow) EnabledTransitions(ctx context.Context, subject any) ([]ir.Transition, error) {
	m, err := w.GetMarking(ctx, subject)
	if err != nil {
		return nil, err
	}
	return w.enabledTransitions(ctx, subject, m)
}

// Apply fires the first enabled transition named name and returns the new
// marking. Fails with UNKNOWN_TRANSITION or TRANSITION_NOT_APPLICABLE.
//
// The store is written once, after every event has been dispatched. If a
// listener fails, the error is returned and the store is left untouched.
func (w *Workflow) Apply(ctx context.Context, subject any, name string) (ir.Marking, error) {
	t, current, err := w.resolve(ctx, subject, name)
	if err != nil {
		return ir.Marking{}, err
	}
	if t == nil {
		return ir.Marking{}, newNotApplicableError(w.name, name)
	}

	next := current.Clone()
	if err := w.leave(ctx, subject, *t, &next); err != nil {
		return ir.Marking{}, err
	}
	if err := w.transition(ctx, subject, *t, next); err != nil {
		return ir.Marking{}, err
	}
	if err := w.enter(ctx, subject, *t, &next); err != nil {
		return ir.Marking{}, err
	}
	if err := w.announce(ctx, subject, *t, next); err != nil {
		return ir.Marking{}, err
	}

	if err := w.store.SetMarking(ctx, subject, next); err != nil {
		return ir.Marking{}, fmt.Errorf("workflow %q: set marking: %w", w.name, err)
	}

	w.logger.Debug("transition applied",
		zap.String("workflow", w.name),
		zap.String("transition", t.Name),
		zap.Stringer("from", current),
		zap.Stringer("to", next))

	return next.Clone(), nil
}

// resolve returns the first enabled transition named name (nil when none
// is enabled) together with the marking it was evaluated against.
func (w *Workflow) resolve(ctx context.Context, subject any, name string) (*ir.Transition, ir.Marking, error) {
	candidates := w.def.TransitionsNamed(name)
	if len(candidates) == 0 {
		return nil, ir.Marking{}, newUnknownTransitionError(w.name, name)
	}

	m, err := w.GetMarking(ctx, subject)
	if err != nil {
		return nil, ir.Marking{}, err
	}

	for i := range candidates {
		ok, err := w.isEnabled(ctx, subject, m, candidates[i])
		if err != nil {
			return nil, ir.Marking{}, err
		}
		if ok {
			return &candidates[i], m, nil
		}
	}
	return nil, m, nil
}

func (w *Workflow) enabledTransitions(ctx context.Context, subject any, m ir.Marking) ([]ir.Transition, error) {
	var enabled []ir.Transition
	for _, t := range w.def.Transitions() {
		ok, err := w.isEnabled(ctx, subject, m, t)
		if err != nil {
			return nil, err
		}
		if ok {
			enabled = append(enabled, t)
		}
	}
	return enabled, nil
}

func (w *Workflow) isEnabled(ctx context.Context, subject any, m ir.Marking, t ir.Transition) (bool, error) {
	for _, place := range t.Froms {
		if !m.Has(place) {
			return false, nil
		}
	}

	blocked, err := w.guard(ctx, subject, m, t)
	if err != nil {
		return false, err
	}
	return !blocked, nil
}

func (w *Workflow) guard(ctx context.Context, subject any, m ir.Marking, t ir.Transition) (bool, error) {
	if w.dispatcher == nil {
		return false, nil
	}

	event := w.newEvent(PhaseGuard, subject, m, t)
	err := w.dispatchAll(ctx, event,
		EventName("", PhaseGuard, ""),
		EventName(w.name, PhaseGuard, ""),
		EventName(w.name, PhaseGuard, t.Name),
	)
	if err != nil {
		return false, err
	}
	return event.IsBlocked(), nil
}

func (w *Workflow) leave(ctx context.Context, subject any, t ir.Transition, m *ir.Marking) error {
	var event *Event
	if w.dispatcher != nil {
		event = w.newEvent(PhaseLeave, subject, *m, t)
		err := w.dispatchAll(ctx, event,
			EventName("", PhaseLeave, ""),
			EventName(w.name, PhaseLeave, ""),
		)
		if err != nil {
			return err
		}
	}

	for _, place := range t.Froms {
		m.Unmark(place)
		if event != nil {
			event.Marking = m.Clone()
			if err := w.dispatchAll(ctx, event, EventName(w.name, PhaseLeave, place)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *Workflow) transition(ctx context.Context, subject any, t ir.Transition, m ir.Marking) error {
	if w.dispatcher == nil {
		return nil
	}

	event := w.newEvent(PhaseTransition, subject, m, t)
	return w.dispatchAll(ctx, event,
		EventName("", PhaseTransition, ""),
		EventName(w.name, PhaseTransition, ""),
		EventName(w.name, PhaseTransition, t.Name),
	)
}

func (w *Workflow) enter(ctx context.Context, subject any, t ir.Transition, m *ir.Marking) error {
	var event *Event
	if w.dispatcher != nil {
		event = w.newEvent(PhaseEnter, subject, *m, t)
		err := w.dispatchAll(ctx, event,
			EventName("", PhaseEnter, ""),
			EventName(w.name, PhaseEnter, ""),
		)
		if err != nil {
			return err
		}
	}

	for _, place := range t.Tos {
		m.Mark(place)
		if event != nil {
			event.Marking = m.Clone()
			if err := w.dispatchAll(ctx, event, EventName(w.name, PhaseEnter, place)); err != nil {
				return err
			}
		}
	}
	return nil
}

// announce dispatches one event per transition enabled by the new marking.
// The event carries the transition that was just applied.
func (w *Workflow) announce(ctx context.Context, subject any, t ir.Transition, m ir.Marking) error {
	if w.dispatcher == nil {
		return nil
	}

	enabled, err := w.enabledTransitions(ctx, subject, m)
	if err != nil {
		return err
	}

	event := w.newEvent(PhaseAnnounce, subject, m, t)
	for _, next := range enabled {
		if err := w.dispatchAll(ctx, event, EventName(w.name, PhaseAnnounce, next.Name)); err != nil {
			return err
		}
	}
	return nil
}

func (w *Workflow) newEvent(phase Phase, subject any, m ir.Marking, t ir.Transition) *Event {
	return &Event{
		Workflow:   w.name,
		Phase:      phase,
		Subject:    subject,
		Marking:    m.Clone(),
		Transition: t,
	}
}

func (w *Workflow) dispatchAll(ctx context.Context, event *Event, names ...string) error {
	for _, name := range names {
		if err := w.dispatcher.Dispatch(ctx, name, event); err != nil {
			return fmt.Errorf("workflow %q: %w", w.name, err)
		}
	}
	return nil
}
