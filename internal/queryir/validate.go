package queryir

import (
	"errors"
	"fmt"
)

// ValidationResult lists every problem found in a query.
type ValidationResult struct {
	// Valid is true when Errors is empty.
	Valid bool

	Errors []string
}

// Err joins the errors into one, or returns nil.
func (r ValidationResult) Err() error {
	if r.Valid {
		return nil
	}
	errs := make([]error, len(r.Errors))
	for i, e := range r.Errors {
		errs[i] = errors.New(e)
	}
	return errors.Join(errs...)
}

// Validate checks that a query only compares known fields with values of
// the right type, that Marked names a place, and that Limit is not
// negative. It is a pure function.
func Validate(query Query) ValidationResult {
	v := &validator{}
	v.validateQuery(query)
	return ValidationResult{Valid: len(v.errors) == 0, Errors: v.errors}
}

type validator struct {
	errors []string
}

func (v *validator) addError(format string, args ...any) {
	v.errors = append(v.errors, fmt.Sprintf(format, args...))
}

func (v *validator) validateQuery(q Query) {
	switch query := q.(type) {
	case nil:
		v.addError("nil query")
	case Select:
		v.validateSelect(query)
	case *Select:
		v.validateSelect(*query)
	default:
		v.addError("unknown query type %T", q)
	}
}

func (v *validator) validateSelect(sel Select) {
	if sel.Limit < 0 {
		v.addError("limit must not be negative, got %d", sel.Limit)
	}
	if sel.Filter != nil {
		v.validatePredicate(sel.Filter)
	}
}

func (v *validator) validatePredicate(p Predicate) {
	switch pred := p.(type) {
	case nil:
		v.addError("nil predicate")
	case Equals:
		v.validateEquals(pred)
	case *Equals:
		v.validateEquals(*pred)
	case Marked:
		v.validateMarked(pred)
	case *Marked:
		v.validateMarked(*pred)
	case And:
		for _, sub := range pred.Predicates {
			v.validatePredicate(sub)
		}
	case *And:
		for _, sub := range pred.Predicates {
			v.validatePredicate(sub)
		}
	case Not:
		v.validatePredicate(pred.Predicate)
	case *Not:
		v.validatePredicate(pred.Predicate)
	default:
		v.addError("unknown predicate type %T", p)
	}
}

func (v *validator) validateEquals(eq Equals) {
	kind, ok := Fields[eq.Field]
	if !ok {
		v.addError("unknown field %q", eq.Field)
		return
	}

	switch eq.Value.(type) {
	case string:
		if kind != "string" {
			v.addError("field %q needs an int value, got string", eq.Field)
		}
	case int, int64:
		if kind != "int" {
			v.addError("field %q needs a string value, got %T", eq.Field, eq.Value)
		}
	default:
		v.addError("field %q: unsupported value type %T", eq.Field, eq.Value)
	}
}

func (v *validator) validateMarked(m Marked) {
	if m.Place == "" {
		v.addError("marked predicate needs a place")
	}
}
