package ir

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Marking holds the tokens of one subject: a count per occupied place.
//
// A place with zero tokens is not present. For a state machine the marking
// holds exactly one place with one token.
//
// The zero value is an empty marking ready to use.
type Marking struct {
	places map[string]int
}

// NewMarking creates a marking with one token in each given place.
// A place listed twice receives two tokens.
func NewMarking(places ...string) Marking {
	m := Marking{}
	for _, p := range places {
		m.Mark(p)
	}
	return m
}

// NewMarkingFromCounts creates a marking from a place -> token count map.
// Non-positive counts are ignored.
func NewMarkingFromCounts(counts map[string]int) Marking {
	m := Marking{}
	for p, n := range counts {
		if n > 0 {
			if m.places == nil {
				m.places = make(map[string]int, len(counts))
			}
			m.places[p] = n
		}
	}
	return m
}

// Mark adds one token to place.
func (m *Marking) Mark(place string) {
	if m.places == nil {
		m.places = make(map[string]int)
	}
	m.places[place]++
}

// Unmark removes one token from place. The place disappears when its count
// reaches zero; unmarking an empty place is a no-op.
func (m *Marking) Unmark(place string) {
	n, ok := m.places[place]
	if !ok {
		return
	}
	if n <= 1 {
		delete(m.places, place)
		return
	}
	m.places[place] = n - 1
}

// Has reports whether place holds at least one token.
func (m Marking) Has(place string) bool {
	return m.places[place] > 0
}

// Count returns the number of tokens in place.
func (m Marking) Count(place string) int {
	return m.places[place]
}

// Len returns the number of occupied places.
func (m Marking) Len() int {
	return len(m.places)
}

// IsEmpty reports whether no place holds a token.
func (m Marking) IsEmpty() bool {
	return len(m.places) == 0
}

// Places returns a copy of the place -> token count map.
func (m Marking) Places() map[string]int {
	out := make(map[string]int, len(m.places))
	for p, n := range m.places {
		out[p] = n
	}
	return out
}

// PlaceNames returns the occupied places sorted by name.
func (m Marking) PlaceNames() []string {
	names := make([]string, 0, len(m.places))
	for p := range m.places {
		names = append(names, p)
	}
	sort.Strings(names)
	return names
}

// Clone returns an independent copy.
func (m Marking) Clone() Marking {
	if m.places == nil {
		return Marking{}
	}
	return Marking{places: m.Places()}
}

// Equal reports whether both markings hold the same tokens.
func (m Marking) Equal(other Marking) bool {
	if len(m.places) != len(other.places) {
		return false
	}
	for p, n := range m.places {
		if other.places[p] != n {
			return false
		}
	}
	return true
}

// String renders the marking as "{a, b:2}" with places sorted by name.
// Single tokens omit the count.
func (m Marking) String() string {
	parts := make([]string, 0, len(m.places))
	for _, p := range m.PlaceNames() {
		if n := m.places[p]; n != 1 {
			parts = append(parts, fmt.Sprintf("%s:%d", p, n))
			continue
		}
		parts = append(parts, p)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// MarshalJSON encodes the marking as a canonical {"place": count} object.
func (m Marking) MarshalJSON() ([]byte, error) {
	return MarshalCanonical(m.Places())
}

// UnmarshalJSON decodes a {"place": count} object.
func (m *Marking) UnmarshalJSON(data []byte) error {
	var counts map[string]int
	if err := json.Unmarshal(data, &counts); err != nil {
		return fmt.Errorf("decode marking: %w", err)
	}
	*m = NewMarkingFromCounts(counts)
	return nil
}
