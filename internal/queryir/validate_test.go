package queryir

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_ValidQuery(t *testing.T) {
	query := Select{
		Filter: And{Predicates: []Predicate{
			Equals{Field: FieldWorkflow, Value: "article"},
			Equals{Field: FieldVersion, Value: 3},
			Marked{Place: "review"},
			Not{Predicate: Marked{Place: "published", Min: 2}},
		}},
		Limit: 10,
	}

	result := Validate(query)

	assert.True(t, result.Valid)
	assert.Empty(t, result.Errors)
	assert.NoError(t, result.Err())
}

func TestValidate_PointerTypes(t *testing.T) {
	query := &Select{
		Filter: &And{Predicates: []Predicate{
			&Equals{Field: FieldSubjectID, Value: "a-1"},
			&Marked{Place: "draft"},
			&Not{Predicate: &Equals{Field: FieldDefinitionHash, Value: "abc"}},
		}},
	}

	assert.True(t, Validate(query).Valid)
}

func TestValidate_NoFilter(t *testing.T) {
	assert.True(t, Validate(Select{}).Valid)
}

func TestValidate_Errors(t *testing.T) {
	tests := []struct {
		name  string
		query Query
		want  string
	}{
		{"nil query", nil, "nil query"},
		{"unknown field", Select{Filter: Equals{Field: "places", Value: "x"}}, `unknown field "places"`},
		{"int for text field", Select{Filter: Equals{Field: FieldWorkflow, Value: 3}}, `field "workflow" needs a string value`},
		{"string for version", Select{Filter: Equals{Field: FieldVersion, Value: "3"}}, `field "version" needs an int value`},
		{"unsupported value", Select{Filter: Equals{Field: FieldWorkflow, Value: 1.5}}, "unsupported value type float64"},
		{"empty place", Select{Filter: Marked{}}, "marked predicate needs a place"},
		{"negative limit", Select{Limit: -1}, "limit must not be negative"},
		{"nested nil", Select{Filter: Not{}}, "nil predicate"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Validate(tt.query)
			assert.False(t, result.Valid)
			require.Len(t, result.Errors, 1)
			assert.Contains(t, result.Errors[0], tt.want)
			assert.Error(t, result.Err())
		})
	}
}

func TestValidate_CollectsAllErrors(t *testing.T) {
	query := Select{
		Filter: And{Predicates: []Predicate{
			Equals{Field: "nope", Value: "x"},
			Marked{},
		}},
		Limit: -5,
	}

	result := Validate(query)
	assert.Len(t, result.Errors, 3)
}
