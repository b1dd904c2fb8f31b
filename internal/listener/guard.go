package listener

import (
	"context"
	"fmt"
	"sort"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
	"go.uber.org/zap"

	"github.com/OxanaKozlova/workflow/internal/engine"
)

// GuardError reports a guard expression that failed to compile or run.
type GuardError struct {
	Workflow   string
	Transition string
	Expression string
	Err        error
}

func (e *GuardError) Error() string {
	return fmt.Sprintf("guard of transition %q in workflow %q (%s): %v", e.Transition, e.Workflow, e.Expression, e.Err)
}

func (e *GuardError) Unwrap() error { return e.Err }

// Guard evaluates one boolean expression per transition name. A transition
// whose expression is false is blocked.
//
// Variables available to expressions:
//
//	workflow    string          workflow name
//	transition  string          transition name
//	marking     map[string]int  place -> token count
//	subject     any             the subject
//	subject_id  string          SubjectID() when the subject has one
//	marked(p)   bool            p holds at least one token
//	tokens(p)   int             token count of p
type Guard struct {
	workflow    string
	expressions map[string]string
	programs    map[string]*vm.Program
	logger      *zap.Logger
}

// NewGuard compiles expressions (transition name -> expression) for one
// workflow. Every expression must type-check as a boolean.
func NewGuard(workflow string, expressions map[string]string, logger *zap.Logger) (*Guard, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	g := &Guard{
		workflow:    workflow,
		expressions: make(map[string]string, len(expressions)),
		programs:    make(map[string]*vm.Program, len(expressions)),
		logger:      logger,
	}

	sample := guardEnv(&engine.Event{})
	for name, src := range expressions {
		program, err := expr.Compile(src, expr.Env(sample), expr.AsBool())
		if err != nil {
			return nil, &GuardError{Workflow: workflow, Transition: name, Expression: src, Err: err}
		}
		g.expressions[name] = src
		g.programs[name] = program
	}

	return g, nil
}

// Transitions returns the guarded transition names, sorted.
func (g *Guard) Transitions() []string {
	names := make([]string, 0, len(g.programs))
	for name := range g.programs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Register adds one listener per guarded transition on
// workflow.<workflow>.guard.<transition>.
func (g *Guard) Register(d *engine.EventDispatcher) {
	for _, name := range g.Transitions() {
		d.AddListener(engine.EventName(g.workflow, engine.PhaseGuard, name), g.Check)
	}
}

// Check evaluates the guard of event's transition and blocks the event when
// it is false. Transitions without a guard are left alone.
func (g *Guard) Check(_ context.Context, event *engine.Event) error {
	program, ok := g.programs[event.Transition.Name]
	if !ok {
		return nil
	}

	out, err := expr.Run(program, guardEnv(event))
	if err != nil {
		return &GuardError{
			Workflow:   g.workflow,
			Transition: event.Transition.Name,
			Expression: g.expressions[event.Transition.Name],
			Err:        err,
		}
	}

	if allowed, _ := out.(bool); !allowed {
		event.SetBlocked(true)
		g.logger.Debug("transition blocked by guard",
			zap.String("workflow", g.workflow),
			zap.String("transition", event.Transition.Name),
			zap.String("expression", g.expressions[event.Transition.Name]))
	}
	return nil
}

func guardEnv(event *engine.Event) map[string]any {
	marking := event.Marking
	subjectID := ""
	if s, ok := event.Subject.(identifiable); ok {
		subjectID = s.SubjectID()
	}

	return map[string]any{
		"workflow":   event.Workflow,
		"transition": event.Transition.Name,
		"marking":    marking.Places(),
		"subject":    event.Subject,
		"subject_id": subjectID,
		"marked":     func(place string) bool { return marking.Has(place) },
		"tokens":     func(place string) int { return marking.Count(place) },
	}
}
