// Package querysql compiles queryir queries to parameterized SQLite SQL
// over the markings table.
package querysql

import (
	"fmt"
	"strings"

	"github.com/OxanaKozlova/workflow/internal/queryir"
)

// Columns is the column list every compiled query selects, in scan order.
const Columns = "workflow, subject_id, places, definition_hash, version"

// stableOrder is appended to every query so results are deterministic.
// COLLATE BINARY keeps text ordering independent of the SQLite build.
const stableOrder = "workflow COLLATE BINARY ASC, subject_id COLLATE BINARY ASC"

// SQLCompiler compiles queries to SQL. Values are always bound as
// parameters, never interpolated; field names come from the validated
// whitelist in queryir.Fields.
type SQLCompiler struct{}

// NewSQLCompiler creates a new SQLCompiler.
func NewSQLCompiler() *SQLCompiler {
	return &SQLCompiler{}
}

// Compile validates q and converts it to (sql, params).
func (c *SQLCompiler) Compile(q queryir.Query) (string, []any, error) {
	if err := queryir.Validate(q).Err(); err != nil {
		return "", nil, fmt.Errorf("invalid query: %w", err)
	}

	switch query := q.(type) {
	case queryir.Select:
		return c.compileSelect(query)
	case *queryir.Select:
		return c.compileSelect(*query)
	default:
		return "", nil, fmt.Errorf("unsupported query type: %T", q)
	}
}

func (c *SQLCompiler) compileSelect(q queryir.Select) (string, []any, error) {
	var b strings.Builder
	var params []any

	b.WriteString("SELECT " + Columns + " FROM markings")

	if q.Filter != nil {
		where, whereParams, err := c.compilePredicate(q.Filter)
		if err != nil {
			return "", nil, fmt.Errorf("compile filter: %w", err)
		}
		b.WriteString(" WHERE " + where)
		params = append(params, whereParams...)
	}

	b.WriteString(" ORDER BY " + stableOrder)

	if q.Limit > 0 {
		b.WriteString(" LIMIT ?")
		params = append(params, q.Limit)
	}

	return b.String(), params, nil
}

func (c *SQLCompiler) compilePredicate(p queryir.Predicate) (string, []any, error) {
	switch pred := p.(type) {
	case queryir.Equals:
		return c.compileEquals(pred)
	case *queryir.Equals:
		return c.compileEquals(*pred)
	case queryir.Marked:
		return c.compileMarked(pred)
	case *queryir.Marked:
		return c.compileMarked(*pred)
	case queryir.And:
		return c.compileAnd(pred)
	case *queryir.And:
		return c.compileAnd(*pred)
	case queryir.Not:
		return c.compileNot(pred)
	case *queryir.Not:
		return c.compileNot(*pred)
	default:
		return "", nil, fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func (c *SQLCompiler) compileEquals(eq queryir.Equals) (string, []any, error) {
	if _, ok := queryir.Fields[eq.Field]; !ok {
		return "", nil, fmt.Errorf("unknown field %q", eq.Field)
	}
	return eq.Field + " = ?", []any{eq.Value}, nil
}

// compileMarked looks the place up in the JSON token map.
func (c *SQLCompiler) compileMarked(m queryir.Marked) (string, []any, error) {
	sql := "EXISTS (SELECT 1 FROM json_each(markings.places) AS t WHERE t.key = ? AND t.value >= ?)"
	return sql, []any{m.Place, m.MinTokens()}, nil
}

func (c *SQLCompiler) compileAnd(and queryir.And) (string, []any, error) {
	if len(and.Predicates) == 0 {
		return "1 = 1", nil, nil
	}

	parts := make([]string, 0, len(and.Predicates))
	var params []any
	for _, pred := range and.Predicates {
		sql, predParams, err := c.compilePredicate(pred)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, sql)
		params = append(params, predParams...)
	}

	if len(parts) == 1 {
		return parts[0], params, nil
	}
	return "(" + strings.Join(parts, " AND ") + ")", params, nil
}

func (c *SQLCompiler) compileNot(not queryir.Not) (string, []any, error) {
	sql, params, err := c.compilePredicate(not.Predicate)
	if err != nil {
		return "", nil, err
	}
	return "NOT " + sql, params, nil
}
