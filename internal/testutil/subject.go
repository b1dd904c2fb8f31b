// Package testutil provides subjects and helpers shared by tests.
package testutil

import (
	"sort"
	"sync"
)

// Subject is a test subject that satisfies every marking accessor used by
// the built-in and SQLite marking stores: a scalar place, a place -> count
// map, and a stable identifier.
//
// Thread-safety: Subject is safe for concurrent use via internal mutex.
type Subject struct {
	mu     sync.Mutex
	id     string
	place  string
	places map[string]int
}

// NewSubject creates a subject with the given id and no marking.
func NewSubject(id string) *Subject {
	return &Subject{id: id}
}

// NewSubjectAt creates a subject whose multi-place marking holds one token
// in each place and whose scalar place is the first one.
func NewSubjectAt(id string, places ...string) *Subject {
	s := &Subject{id: id}
	if len(places) > 0 {
		s.place = places[0]
		s.places = make(map[string]int, len(places))
		for _, p := range places {
			s.places[p]++
		}
	}
	return s
}

// SubjectID returns the identifier.
func (s *Subject) SubjectID() string { return s.id }

// MarkingPlace returns the scalar place.
func (s *Subject) MarkingPlace() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.place
}

// SetMarkingPlace sets the scalar place.
func (s *Subject) SetMarkingPlace(place string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.place = place
}

// MarkingPlaces returns a copy of the place -> count map.
func (s *Subject) MarkingPlaces() map[string]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.places == nil {
		return nil
	}
	out := make(map[string]int, len(s.places))
	for p, n := range s.places {
		out[p] = n
	}
	return out
}

// SetMarkingPlaces replaces the place -> count map.
func (s *Subject) SetMarkingPlaces(places map[string]int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.places = make(map[string]int, len(places))
	for p, n := range places {
		s.places[p] = n
	}
}

// PlaceList returns the multi-place marking's place names, sorted.
func (s *Subject) PlaceList() []string {
	places := s.MarkingPlaces()
	names := make([]string, 0, len(places))
	for p := range places {
		names = append(names, p)
	}
	sort.Strings(names)
	return names
}

// Opaque is a subject with no marking accessors, for unsupported-subject
// error paths.
type Opaque struct{ Name string }
