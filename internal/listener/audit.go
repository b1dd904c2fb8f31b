package listener

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/OxanaKozlova/workflow/internal/engine"
)

// AuditTrail logs every place left, transition fired and place entered.
type AuditTrail struct {
	logger *zap.Logger
}

// NewAuditTrail creates an audit trail writing to logger.
func NewAuditTrail(logger *zap.Logger) *AuditTrail {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditTrail{logger: logger}
}

// Register subscribes to the generic leave, transition and enter events,
// so every workflow sharing the dispatcher is audited.
func (a *AuditTrail) Register(d *engine.EventDispatcher) {
	d.AddListener(engine.EventName("", engine.PhaseLeave, ""), a.OnLeave)
	d.AddListener(engine.EventName("", engine.PhaseTransition, ""), a.OnTransition)
	d.AddListener(engine.EventName("", engine.PhaseEnter, ""), a.OnEnter)
}

// OnLeave logs one entry per input place of the transition.
func (a *AuditTrail) OnLeave(_ context.Context, event *engine.Event) error {
	for _, place := range event.Transition.Froms {
		a.logger.Info("leaving place", a.fields(event, zap.String("place", place))...)
	}
	return nil
}

// OnTransition logs the transition.
func (a *AuditTrail) OnTransition(_ context.Context, event *engine.Event) error {
	a.logger.Info("transition", a.fields(event)...)
	return nil
}

// OnEnter logs one entry per output place of the transition.
func (a *AuditTrail) OnEnter(_ context.Context, event *engine.Event) error {
	for _, place := range event.Transition.Tos {
		a.logger.Info("entering place", a.fields(event, zap.String("place", place))...)
	}
	return nil
}

func (a *AuditTrail) fields(event *engine.Event, extra ...zap.Field) []zap.Field {
	fields := []zap.Field{
		zap.String("workflow", event.Workflow),
		zap.String("transition", event.Transition.Name),
		zap.String("subject", subjectLabel(event.Subject)),
	}
	return append(fields, extra...)
}

// subjectLabel is the subject id when available, its type otherwise.
func subjectLabel(subject any) string {
	switch s := subject.(type) {
	case identifiable:
		return s.SubjectID()
	case string:
		return s
	default:
		return fmt.Sprintf("%T", subject)
	}
}
