package harness

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"go.uber.org/zap"

	"github.com/OxanaKozlova/workflow/internal/compiler"
	"github.com/OxanaKozlova/workflow/internal/engine"
	"github.com/OxanaKozlova/workflow/internal/ir"
	"github.com/OxanaKozlova/workflow/internal/listener"
	"github.com/OxanaKozlova/workflow/internal/store"
	"github.com/OxanaKozlova/workflow/internal/testutil"
)

// Harness holds the collaborators of one scenario run.
type Harness struct {
	store    *store.Store
	markings *store.MarkingStore
	workflow *engine.Workflow
	recorder *engine.Recorder
	subject  *testutil.Subject
	logger   *zap.Logger
}

// Option configures a run.
type Option func(*config)

type config struct {
	logger *zap.Logger
}

// WithLogger routes engine and listener logs to l. Runs are silent by
// default.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) { c.logger = l }
}

// Run executes a scenario and returns its result. A non-nil error means the
// scenario could not be set up; failed expectations are reported in the
// result instead.
//
// Each run uses a fresh in-memory database.
func Run(ctx context.Context, scenario *Scenario, opts ...Option) (*Result, error) {
	cfg := &config{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(cfg)
	}

	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	h, err := setup(ctx, st, scenario, cfg.logger)
	if err != nil {
		return nil, err
	}

	result := NewResult()
	for i, step := range scenario.Steps {
		h.recorder.Reset()
		if err := h.runStep(ctx, i, step, result); err != nil {
			return nil, fmt.Errorf("step %d: %w", i, err)
		}
	}

	final, err := h.markings.GetMarking(ctx, h.subject)
	if err != nil {
		return nil, fmt.Errorf("failed to read final marking: %w", err)
	}
	result.FinalMarking = final
	result.addTrace("final %s", final)

	if scenario.FinalMarking != nil {
		want := ir.NewMarking(scenario.FinalMarking...)
		if !final.Equal(want) {
			result.AddError("final marking: expected %s, got %s", want, final)
		}
	}

	entries, err := st.History(ctx, h.workflow.Name(), h.subject.SubjectID())
	if err != nil {
		return nil, fmt.Errorf("failed to read history: %w", err)
	}
	result.History = len(entries)

	return result, nil
}

func setup(ctx context.Context, st *store.Store, scenario *Scenario, logger *zap.Logger) (*Harness, error) {
	spec, err := compiler.LoadWorkflow(scenario.Definition, scenario.Workflow)
	if err != nil {
		return nil, fmt.Errorf("failed to load definition: %w", err)
	}

	def, err := compiler.ValidateSpec(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid definition: %w", err)
	}

	var storeOpts []store.MarkingStoreOption
	if spec.StoreKind() == ir.StoreSingleState {
		storeOpts = append(storeOpts, store.WithSinglePlace())
	}
	markings, err := st.ForWorkflow(spec.Name, def, storeOpts...)
	if err != nil {
		return nil, err
	}

	id := scenario.Subject
	if id == "" {
		id = DefaultSubject
	}
	subject := testutil.NewSubject(id)

	if len(scenario.Marking) > 0 {
		if err := markings.SetMarking(ctx, subject, ir.NewMarking(scenario.Marking...)); err != nil {
			return nil, fmt.Errorf("failed to set starting marking: %w", err)
		}
	}

	dispatcher := engine.NewEventDispatcher()
	guard, err := listener.NewGuard(spec.Name, spec.Guards(), logger)
	if err != nil {
		return nil, err
	}
	guard.Register(dispatcher)
	for _, name := range scenario.Block {
		dispatcher.AddListener(engine.EventName(spec.Name, engine.PhaseGuard, name), blockListener)
	}

	recorder := engine.NewRecorder(dispatcher)
	wf, err := engine.Build(spec, markings,
		engine.WithDispatcher(recorder),
		engine.WithLogger(logger))
	if err != nil {
		return nil, err
	}

	return &Harness{
		store:    st,
		markings: markings,
		workflow: wf,
		recorder: recorder,
		subject:  subject,
		logger:   logger,
	}, nil
}

func blockListener(_ context.Context, event *engine.Event) error {
	event.SetBlocked(true)
	return nil
}

func (h *Harness) runStep(ctx context.Context, index int, step Step, result *Result) error {
	switch step.Kind() {
	case StepCan:
		ok, err := h.workflow.Can(ctx, h.subject, step.Can)
		if err != nil {
			result.addTrace("can %s -> error %s", step.Can, errorCode(err))
		} else {
			result.addTrace("can %s -> %t", step.Can, ok)
		}
		h.traceEvents(result)
		if checkError(result, index, step, err) && step.Expect != nil && ok != *step.Expect {
			result.AddError("steps[%d]: can %s: expected %t, got %t", index, step.Can, *step.Expect, ok)
		}

	case StepApply:
		m, err := h.workflow.Apply(ctx, h.subject, step.Apply)
		if err != nil {
			result.addTrace("apply %s -> error %s", step.Apply, errorCode(err))
		} else {
			result.addTrace("apply %s -> %s", step.Apply, m)
		}
		h.traceEvents(result)
		if checkError(result, index, step, err) && step.Marking != nil {
			if want := ir.NewMarking(step.Marking...); !m.Equal(want) {
				result.AddError("steps[%d]: apply %s: expected marking %s, got %s", index, step.Apply, want, m)
			}
		}

	case StepEnabled:
		transitions, err := h.workflow.EnabledTransitions(ctx, h.subject)
		names := make([]string, len(transitions))
		for i, t := range transitions {
			names[i] = t.Name
		}
		if err != nil {
			result.addTrace("enabled -> error %s", errorCode(err))
		} else {
			result.addTrace("enabled -> [%s]", strings.Join(names, ", "))
		}
		h.traceEvents(result)
		if checkError(result, index, step, err) && !slices.Equal(names, *step.Enabled) {
			result.AddError("steps[%d]: enabled: expected [%s], got [%s]", index,
				strings.Join(*step.Enabled, ", "), strings.Join(names, ", "))
		}

	default:
		return fmt.Errorf("unknown step kind")
	}
	return nil
}

// traceEvents appends the events recorded since the last reset. Of the
// three guard events dispatched per check only the transition-specific one
// is kept.
func (h *Harness) traceEvents(result *Result) {
	genericGuards := []string{
		engine.EventName("", engine.PhaseGuard, ""),
		engine.EventName(h.workflow.Name(), engine.PhaseGuard, ""),
	}
	for _, e := range h.recorder.Fetch() {
		if slices.Contains(genericGuards, e.Name) {
			continue
		}
		if e.Blocked {
			result.addTrace("  %s (blocked)", e.Name)
			continue
		}
		result.addTrace("  %s", e.Name)
	}
}

// checkError compares err with the step's expected error code and reports
// whether the step succeeded as expected, so its result can be checked.
func checkError(result *Result, index int, step Step, err error) bool {
	switch {
	case err == nil && step.Error == "":
		return true
	case err == nil:
		result.AddError("steps[%d]: expected error %s, got none", index, step.Error)
	case step.Error == "":
		result.AddError("steps[%d]: unexpected error: %v", index, err)
	case errorCode(err) != step.Error:
		result.AddError("steps[%d]: expected error %s, got %s", index, step.Error, errorCode(err))
	}
	return false
}

func errorCode(err error) string {
	if code := engine.LogicErrorCodeOf(err); code != "" {
		return string(code)
	}
	var ge *listener.GuardError
	if errors.As(err, &ge) {
		return "GUARD_ERROR"
	}
	return "ERROR"
}
