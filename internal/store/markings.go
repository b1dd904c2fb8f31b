package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/OxanaKozlova/workflow/internal/engine"
	"github.com/OxanaKozlova/workflow/internal/ir"
	"github.com/OxanaKozlova/workflow/internal/queryir"
	"github.com/OxanaKozlova/workflow/internal/querysql"
)

// Identifiable is implemented by subjects persisted in the store.
// A plain string subject is used as its own identifier.
type Identifiable interface {
	SubjectID() string
}

// Record is the current stored marking of one subject.
type Record struct {
	Workflow       string     `json:"workflow"`
	SubjectID      string     `json:"subject_id"`
	Marking        ir.Marking `json:"marking"`
	DefinitionHash string     `json:"definition_hash"`
	Version        int64      `json:"version"`
}

// MarkingStore is an engine.MarkingStore persisting one workflow's
// markings in a Store.
type MarkingStore struct {
	store    *Store
	workflow string
	defHash  string
	single   bool
	ids      engine.IDGenerator
}

var (
	_ engine.MarkingStore     = (*MarkingStore)(nil)
	_ engine.SinglePlaceStore = (*MarkingStore)(nil)
)

// MarkingStoreOption configures a MarkingStore.
type MarkingStoreOption func(*MarkingStore)

// WithSinglePlace restricts the store to one token per subject, like
// engine.SingleStateMarkingStore.
func WithSinglePlace() MarkingStoreOption {
	return func(m *MarkingStore) {
		m.single = true
	}
}

// WithIDGenerator sets the generator for log entry ids.
// Default: engine.UUIDv7Generator.
func WithIDGenerator(g engine.IDGenerator) MarkingStoreOption {
	return func(m *MarkingStore) {
		m.ids = g
	}
}

// ForWorkflow binds a MarkingStore to a workflow name and definition.
// Every marking written is tagged with the definition hash.
func (s *Store) ForWorkflow(workflow string, def *ir.Definition, opts ...MarkingStoreOption) (*MarkingStore, error) {
	hash, err := ir.DefinitionHash(def)
	if err != nil {
		return nil, fmt.Errorf("marking store %q: %w", workflow, err)
	}

	m := &MarkingStore{
		store:    s,
		workflow: workflow,
		defHash:  hash,
		ids:      engine.UUIDv7Generator{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Workflow returns the bound workflow name.
func (m *MarkingStore) Workflow() string { return m.workflow }

// SinglePlace implements engine.SinglePlaceStore.
func (m *MarkingStore) SinglePlace() bool { return m.single }

// GetMarking implements engine.MarkingStore. An unknown subject has an
// empty marking.
func (m *MarkingStore) GetMarking(ctx context.Context, subject any) (ir.Marking, error) {
	id, err := subjectID(subject)
	if err != nil {
		return ir.Marking{}, err
	}

	rec, found, err := m.store.Lookup(ctx, m.workflow, id)
	if err != nil {
		return ir.Marking{}, err
	}
	if !found {
		return ir.Marking{}, nil
	}
	return rec.Marking, nil
}

// SetMarking implements engine.MarkingStore. The current marking is
// upserted and a log entry appended in a single transaction.
func (m *MarkingStore) SetMarking(ctx context.Context, subject any, marking ir.Marking) error {
	id, err := subjectID(subject)
	if err != nil {
		return err
	}

	if m.single {
		names := marking.PlaceNames()
		if len(names) > 1 || (len(names) == 1 && marking.Count(names[0]) > 1) {
			return fmt.Errorf("set marking: %w: got %s", engine.ErrTooManyPlaces, marking)
		}
	}

	placesJSON, err := json.Marshal(marking)
	if err != nil {
		return fmt.Errorf("set marking: %w", err)
	}
	markingHash, err := ir.MarkingHash(marking)
	if err != nil {
		return fmt.Errorf("set marking: %w", err)
	}

	tx, err := m.store.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("set marking: begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO markings (workflow, subject_id, places, definition_hash)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(workflow, subject_id) DO UPDATE SET
			places = excluded.places,
			definition_hash = excluded.definition_hash,
			version = markings.version + 1
	`, m.workflow, id, string(placesJSON), m.defHash)
	if err != nil {
		return fmt.Errorf("set marking: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO marking_log
		(id, workflow, subject_id, places, marking_hash, definition_hash, engine_version)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, m.ids.Generate(), m.workflow, id, string(placesJSON), markingHash, m.defHash, ir.EngineVersion)
	if err != nil {
		return fmt.Errorf("set marking: append log: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("set marking: commit: %w", err)
	}
	return nil
}

// Lookup returns the current record of a subject. found is false when the
// subject was never stored.
func (s *Store) Lookup(ctx context.Context, workflow, subjectID string) (rec Record, found bool, err error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT workflow, subject_id, places, definition_hash, version
		FROM markings
		WHERE workflow = ? AND subject_id = ?
	`, workflow, subjectID)

	rec, err = scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("lookup %s/%s: %w", workflow, subjectID, err)
	}
	return rec, true, nil
}

// Subjects returns the current records of a workflow.
// Results are ordered by subject_id COLLATE BINARY ASC.
func (s *Store) Subjects(ctx context.Context, workflow string) ([]Record, error) {
	return s.Find(ctx, queryir.Select{
		Filter: queryir.Equals{Field: queryir.FieldWorkflow, Value: workflow},
	})
}

// Find returns the current records matching q, ordered by workflow then
// subject id.
func (s *Store) Find(ctx context.Context, q queryir.Query) ([]Record, error) {
	query, params, err := querysql.NewSQLCompiler().Compile(q)
	if err != nil {
		return nil, fmt.Errorf("find markings: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, query, params...)
	if err != nil {
		return nil, fmt.Errorf("find markings: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("find markings: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (Record, error) {
	var rec Record
	var places string
	if err := row.Scan(&rec.Workflow, &rec.SubjectID, &places, &rec.DefinitionHash, &rec.Version); err != nil {
		return Record{}, err
	}
	if err := json.Unmarshal([]byte(places), &rec.Marking); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func subjectID(subject any) (string, error) {
	switch s := subject.(type) {
	case string:
		if s == "" {
			return "", fmt.Errorf("%w: empty subject id", engine.ErrUnsupportedSubject)
		}
		return s, nil
	case Identifiable:
		return s.SubjectID(), nil
	default:
		return "", fmt.Errorf("%w: %T has no SubjectID", engine.ErrUnsupportedSubject, subject)
	}
}
