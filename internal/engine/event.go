package engine

import (
	"strings"

	"github.com/OxanaKozlova/workflow/internal/ir"
)

// Phase is the lifecycle step an event belongs to.
type Phase string

const (
	PhaseGuard      Phase = "guard"
	PhaseLeave      Phase = "leave"
	PhaseTransition Phase = "transition"
	PhaseEnter      Phase = "enter"
	PhaseAnnounce   Phase = "announce"
)

// Event is the payload passed to listeners.
//
// Marking is a snapshot taken when the event is dispatched; listeners cannot
// change the marking Apply is computing. Only guard events honour SetBlocked.
type Event struct {
	Workflow   string
	Phase      Phase
	Subject    any
	Marking    ir.Marking
	Transition ir.Transition

	blocked bool
}

// SetBlocked marks a guard event as blocked (or unblocks it).
func (e *Event) SetBlocked(blocked bool) {
	e.blocked = blocked
}

// IsBlocked reports whether a guard listener blocked the transition.
func (e *Event) IsBlocked() bool {
	return e.blocked
}

// EventName builds a dispatched event name:
//
//	workflow.<phase>                    (workflow == "")
//	workflow.<workflow>.<phase>         (detail == "")
//	workflow.<workflow>.<phase>.<detail>
//
// detail is a place name for leave/enter and a transition name otherwise.
func EventName(workflow string, phase Phase, detail string) string {
	parts := []string{"workflow"}
	if workflow != "" {
		parts = append(parts, workflow)
	}
	parts = append(parts, string(phase))
	if workflow != "" && detail != "" {
		parts = append(parts, detail)
	}
	return strings.Join(parts, ".")
}
