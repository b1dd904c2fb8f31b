package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMarked_MinTokens(t *testing.T) {
	assert.Equal(t, 1, Marked{Place: "a"}.MinTokens())
	assert.Equal(t, 1, Marked{Place: "a", Min: -2}.MinTokens())
	assert.Equal(t, 3, Marked{Place: "a", Min: 3}.MinTokens())
}

func TestInPlaces(t *testing.T) {
	got := InPlaces("article", "review", "spellcheck")

	assert.Equal(t, And{Predicates: []Predicate{
		Equals{Field: FieldWorkflow, Value: "article"},
		Marked{Place: "review"},
		Marked{Place: "spellcheck"},
	}}, got)
}

func TestInPlaces_NoPlaces(t *testing.T) {
	got := InPlaces("article")

	assert.Equal(t, And{Predicates: []Predicate{
		Equals{Field: FieldWorkflow, Value: "article"},
	}}, got)
}
