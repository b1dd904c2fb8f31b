package engine

import (
	"context"
	"fmt"

	"github.com/OxanaKozlova/workflow/internal/ir"
)

// MarkingStore maps a subject to and from its Marking.
//
// GetMarking returns an empty marking for a subject that has never entered
// the workflow; seeding the initial place is the Workflow's job.
// SetMarking overwrites whatever the store held for the subject.
type MarkingStore interface {
	GetMarking(ctx context.Context, subject any) (ir.Marking, error)
	SetMarking(ctx context.Context, subject any, marking ir.Marking) error
}

// SinglePlaceStore is implemented by stores that can only hold one marked
// place per subject. Workflows over such a store reject transitions with
// more than one output at construction.
type SinglePlaceStore interface {
	SinglePlace() bool
}

// SinglePlaceSubject keeps its current place in a single field.
type SinglePlaceSubject interface {
	MarkingPlace() string
	SetMarkingPlace(place string)
}

// MultiPlaceSubject keeps a place -> token count map.
type MultiPlaceSubject interface {
	MarkingPlaces() map[string]int
	SetMarkingPlaces(places map[string]int)
}

// SingleStateMarkingStore stores the marking in a SinglePlaceSubject.
type SingleStateMarkingStore struct{}

// GetMarking implements MarkingStore.
func (SingleStateMarkingStore) GetMarking(_ context.Context, subject any) (ir.Marking, error) {
	s, ok := subject.(SinglePlaceSubject)
	if !ok {
		return ir.Marking{}, fmt.Errorf("%w: %T does not implement SinglePlaceSubject", ErrUnsupportedSubject, subject)
	}
	if place := s.MarkingPlace(); place != "" {
		return ir.NewMarking(place), nil
	}
	return ir.Marking{}, nil
}

// SetMarking implements MarkingStore. An empty marking clears the place.
func (SingleStateMarkingStore) SetMarking(_ context.Context, subject any, marking ir.Marking) error {
	s, ok := subject.(SinglePlaceSubject)
	if !ok {
		return fmt.Errorf("%w: %T does not implement SinglePlaceSubject", ErrUnsupportedSubject, subject)
	}

	names := marking.PlaceNames()
	switch {
	case len(names) == 0:
		s.SetMarkingPlace("")
	case len(names) > 1 || marking.Count(names[0]) > 1:
		return fmt.Errorf("%w: got %s", ErrTooManyPlaces, marking)
	default:
		s.SetMarkingPlace(names[0])
	}
	return nil
}

// SinglePlace implements SinglePlaceStore.
func (SingleStateMarkingStore) SinglePlace() bool { return true }

// MultipleStateMarkingStore stores the marking in a MultiPlaceSubject.
type MultipleStateMarkingStore struct{}

// GetMarking implements MarkingStore.
func (MultipleStateMarkingStore) GetMarking(_ context.Context, subject any) (ir.Marking, error) {
	s, ok := subject.(MultiPlaceSubject)
	if !ok {
		return ir.Marking{}, fmt.Errorf("%w: %T does not implement MultiPlaceSubject", ErrUnsupportedSubject, subject)
	}
	return ir.NewMarkingFromCounts(s.MarkingPlaces()), nil
}

// SetMarking implements MarkingStore.
func (MultipleStateMarkingStore) SetMarking(_ context.Context, subject any, marking ir.Marking) error {
	s, ok := subject.(MultiPlaceSubject)
	if !ok {
		return fmt.Errorf("%w: %T does not implement MultiPlaceSubject", ErrUnsupportedSubject, subject)
	}
	s.SetMarkingPlaces(marking.Places())
	return nil
}

// StoreFor returns the built-in store for a marking store kind
// (ir.StoreSingleState or ir.StoreMultipleState).
func StoreFor(kind string) (MarkingStore, error) {
	switch kind {
	case ir.StoreSingleState:
		return SingleStateMarkingStore{}, nil
	case ir.StoreMultipleState, "":
		return MultipleStateMarkingStore{}, nil
	default:
		return nil, fmt.Errorf("unknown marking store %q", kind)
	}
}
