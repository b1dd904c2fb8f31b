package ir

import (
	"fmt"
	"strings"
)

// Transition is a named, directed hyperedge consuming one token from every
// place in Froms and producing one token in every place in Tos.
//
// Names are not unique across a Definition: two transitions may share a name
// as long as the validator in use accepts it.
type Transition struct {
	Name  string   `json:"name"`
	Froms []string `json:"froms"`
	Tos   []string `json:"tos"`
}

// NewTransition creates a transition, copying the place slices.
func NewTransition(name string, froms, tos []string) Transition {
	return Transition{
		Name:  name,
		Froms: append([]string(nil), froms...),
		Tos:   append([]string(nil), tos...),
	}
}

// String renders the transition as "name: a,b -> c".
func (t Transition) String() string {
	return fmt.Sprintf("%s: %s -> %s", t.Name, strings.Join(t.Froms, ","), strings.Join(t.Tos, ","))
}

// clone returns a deep copy so a Definition never shares slices with callers.
func (t Transition) clone() Transition {
	return NewTransition(t.Name, t.Froms, t.Tos)
}

// Definition is the immutable workflow graph.
//
// INVARIANTS (enforced by NewDefinition):
//   - every place referenced by a transition is in the place set
//   - the initial place, when set, is in the place set
//   - every transition has a name, at least one from and at least one to
type Definition struct {
	places       []string
	placeIndex   map[string]struct{}
	transitions  []Transition
	initialPlace string
}

// NewDefinition builds a Definition from a place set, an ordered transition
// list and an optional initial place (empty string means none).
//
// Places behave as a set: duplicates collapse and the first occurrence fixes
// the enumeration order. Transitions are copied so later mutation of the
// caller's slices does not reach the Definition.
func NewDefinition(places []string, transitions []Transition, initialPlace string) (*Definition, error) {
	d := &Definition{
		placeIndex:   make(map[string]struct{}, len(places)),
		initialPlace: initialPlace,
	}

	for _, p := range places {
		if _, ok := d.placeIndex[p]; ok {
			continue
		}
		d.placeIndex[p] = struct{}{}
		d.places = append(d.places, p)
	}

	if initialPlace != "" && !d.HasPlace(initialPlace) {
		return nil, &InvalidDefinitionError{
			Code:    ErrUnknownInitialPlace,
			Place:   initialPlace,
			Message: fmt.Sprintf("Place %q cannot be the initial place as it does not exist.", initialPlace),
		}
	}

	d.transitions = make([]Transition, 0, len(transitions))
	for _, t := range transitions {
		if err := d.checkTransition(t); err != nil {
			return nil, err
		}
		d.transitions = append(d.transitions, t.clone())
	}

	return d, nil
}

// checkTransition verifies a transition against the place set.
func (d *Definition) checkTransition(t Transition) error {
	if strings.TrimSpace(t.Name) == "" {
		return &InvalidDefinitionError{
			Code:    ErrMalformedTransition,
			Message: "A transition must have a name.",
		}
	}
	if len(t.Froms) == 0 || len(t.Tos) == 0 {
		return &InvalidDefinitionError{
			Code:       ErrMalformedTransition,
			Transition: t.Name,
			Message:    fmt.Sprintf("Transition %q must have at least one input and one output place (got %d inputs, %d outputs).", t.Name, len(t.Froms), len(t.Tos)),
		}
	}
	for _, p := range t.Froms {
		if !d.HasPlace(p) {
			return unknownPlaceError(t.Name, p)
		}
	}
	for _, p := range t.Tos {
		if !d.HasPlace(p) {
			return unknownPlaceError(t.Name, p)
		}
	}
	return nil
}

func unknownPlaceError(transition, place string) *InvalidDefinitionError {
	return &InvalidDefinitionError{
		Code:       ErrUnknownPlace,
		Transition: transition,
		Place:      place,
		Message:    fmt.Sprintf("Place %q referenced in transition %q does not exist.", place, transition),
	}
}

// Places returns the place names in insertion order.
func (d *Definition) Places() []string {
	return append([]string(nil), d.places...)
}

// HasPlace reports whether name is in the place set.
func (d *Definition) HasPlace(name string) bool {
	_, ok := d.placeIndex[name]
	return ok
}

// Transitions returns a copy of the transitions in declaration order.
func (d *Definition) Transitions() []Transition {
	out := make([]Transition, len(d.transitions))
	for i, t := range d.transitions {
		out[i] = t.clone()
	}
	return out
}

// TransitionsNamed returns the transitions called name, in declaration order.
func (d *Definition) TransitionsNamed(name string) []Transition {
	var out []Transition
	for _, t := range d.transitions {
		if t.Name == name {
			out = append(out, t.clone())
		}
	}
	return out
}

// InitialPlace returns the initial place, or "" when none is configured.
func (d *Definition) InitialPlace() string {
	return d.initialPlace
}
