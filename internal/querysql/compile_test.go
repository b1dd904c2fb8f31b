package querysql

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OxanaKozlova/workflow/internal/queryir"
)

func TestCompile_SelectAll(t *testing.T) {
	sql, params, err := NewSQLCompiler().Compile(queryir.Select{})
	require.NoError(t, err)

	assert.Equal(t,
		"SELECT workflow, subject_id, places, definition_hash, version FROM markings"+
			" ORDER BY workflow COLLATE BINARY ASC, subject_id COLLATE BINARY ASC",
		sql)
	assert.Empty(t, params)
}

func TestCompile_Equals(t *testing.T) {
	query := queryir.Select{
		Filter: queryir.Equals{Field: queryir.FieldWorkflow, Value: "article"},
	}

	sql, params, err := NewSQLCompiler().Compile(query)
	require.NoError(t, err)

	assert.Contains(t, sql, "WHERE workflow = ?")
	assert.NotContains(t, sql, "article")
	assert.Equal(t, []any{"article"}, params)
	assert.Contains(t, sql, "ORDER BY")
}

func TestCompile_PointerTypes(t *testing.T) {
	query := &queryir.Select{
		Filter: &queryir.Equals{Field: queryir.FieldSubjectID, Value: "s-1"},
	}

	sql, params, err := NewSQLCompiler().Compile(query)
	require.NoError(t, err)

	assert.Contains(t, sql, "WHERE subject_id = ?")
	assert.Equal(t, []any{"s-1"}, params)
}

func TestCompile_Marked(t *testing.T) {
	query := queryir.Select{
		Filter: queryir.Marked{Place: "review", Min: 2},
	}

	sql, params, err := NewSQLCompiler().Compile(query)
	require.NoError(t, err)

	assert.Contains(t, sql,
		"WHERE EXISTS (SELECT 1 FROM json_each(markings.places) AS t WHERE t.key = ? AND t.value >= ?)")
	assert.Equal(t, []any{"review", 2}, params)
}

func TestCompile_AndNot(t *testing.T) {
	query := queryir.Select{
		Filter: queryir.And{Predicates: []queryir.Predicate{
			queryir.Equals{Field: queryir.FieldWorkflow, Value: "article"},
			queryir.Not{Predicate: queryir.Marked{Place: "published"}},
		}},
	}

	sql, params, err := NewSQLCompiler().Compile(query)
	require.NoError(t, err)

	assert.Contains(t, sql, "WHERE (workflow = ? AND NOT EXISTS (")
	assert.Equal(t, []any{"article", "published", 1}, params)
}

func TestCompile_SingleAndIsUnwrapped(t *testing.T) {
	query := queryir.Select{
		Filter: queryir.And{Predicates: []queryir.Predicate{
			queryir.Equals{Field: queryir.FieldVersion, Value: 2},
		}},
	}

	sql, params, err := NewSQLCompiler().Compile(query)
	require.NoError(t, err)

	assert.Contains(t, sql, "WHERE version = ? ORDER BY")
	assert.Equal(t, []any{2}, params)
}

func TestCompile_EmptyAnd(t *testing.T) {
	sql, params, err := NewSQLCompiler().Compile(queryir.Select{Filter: queryir.And{}})
	require.NoError(t, err)

	assert.Contains(t, sql, "WHERE 1 = 1")
	assert.Empty(t, params)
}

func TestCompile_Limit(t *testing.T) {
	sql, params, err := NewSQLCompiler().Compile(queryir.Select{
		Filter: queryir.Equals{Field: queryir.FieldWorkflow, Value: "a"},
		Limit:  5,
	})
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(sql, " LIMIT ?"), sql)
	assert.Equal(t, []any{"a", 5}, params)
}

func TestCompile_InvalidQuery(t *testing.T) {
	_, _, err := NewSQLCompiler().Compile(queryir.Select{
		Filter: queryir.Equals{Field: "places; DROP TABLE markings", Value: "x"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid query")
	assert.Contains(t, err.Error(), "unknown field")
}

func TestCompile_NilQuery(t *testing.T) {
	_, _, err := NewSQLCompiler().Compile(nil)
	assert.Error(t, err)
}
