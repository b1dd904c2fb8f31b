// Package queryir is a small abstract query representation over stored
// markings: which subjects of which workflow hold tokens where.
//
// Queries are built from sealed node types and compiled by a backend
// (package querysql for SQLite). Keeping the representation separate from
// SQL means callers never assemble SQL strings, and every predicate a
// backend receives has passed Validate.
//
//	Select{
//		Filter: And{Predicates: []Predicate{
//			Equals{Field: FieldWorkflow, Value: "article"},
//			Marked{Place: "review"},
//			Not{Predicate: Marked{Place: "published"}},
//		}},
//	}
//
// Query and Predicate are sealed with marker methods so backends can use
// exhaustive type switches.
package queryir
