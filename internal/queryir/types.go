package queryir

// Query is a query over stored markings.
type Query interface {
	queryNode()
}

// Predicate filters stored markings.
type Predicate interface {
	predicateNode()
}

// Record fields a predicate may compare.
const (
	FieldWorkflow       = "workflow"
	FieldSubjectID      = "subject_id"
	FieldDefinitionHash = "definition_hash"
	FieldVersion        = "version"
)

// Fields lists the comparable fields with the Go type their values must
// have.
var Fields = map[string]string{
	FieldWorkflow:       "string",
	FieldSubjectID:      "string",
	FieldDefinitionHash: "string",
	FieldVersion:        "int",
}

// Select returns the current marking record of every subject matching
// Filter (all subjects when nil), ordered by workflow then subject id.
// Limit caps the result size; zero means no limit.
type Select struct {
	Filter Predicate
	Limit  int
}

func (Select) queryNode() {}

// Equals matches records whose Field equals Value. Value is a string for
// text fields and an int for version.
type Equals struct {
	Field string
	Value any
}

func (Equals) predicateNode() {}

// Marked matches records holding at least Min tokens in Place. A Min of
// zero or less means one.
type Marked struct {
	Place string
	Min   int
}

func (Marked) predicateNode() {}

// MinTokens returns the effective token threshold.
func (m Marked) MinTokens() int {
	if m.Min < 1 {
		return 1
	}
	return m.Min
}

// And matches when every predicate matches. An empty And matches all.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// Not inverts a predicate.
type Not struct {
	Predicate Predicate
}

func (Not) predicateNode() {}

// InPlaces builds the common "subjects of workflow marked in every one of
// places" filter.
func InPlaces(workflow string, places ...string) Predicate {
	preds := []Predicate{Equals{Field: FieldWorkflow, Value: workflow}}
	for _, p := range places {
		preds = append(preds, Marked{Place: p})
	}
	return And{Predicates: preds}
}
