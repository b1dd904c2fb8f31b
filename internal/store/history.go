package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/OxanaKozlova/workflow/internal/ir"
)

// LogEntry is one row of the marking history.
type LogEntry struct {
	Seq            int64      `json:"seq"`
	ID             string     `json:"id"`
	Workflow       string     `json:"workflow"`
	SubjectID      string     `json:"subject_id"`
	Marking        ir.Marking `json:"marking"`
	MarkingHash    string     `json:"marking_hash"`
	DefinitionHash string     `json:"definition_hash"`
	EngineVersion  string     `json:"engine_version"`
}

// History returns every marking written for a subject, oldest first.
// Results are ordered by seq ASC.
func (s *Store) History(ctx context.Context, workflow, subjectID string) ([]LogEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, id, workflow, subject_id, places, marking_hash, definition_hash, engine_version
		FROM marking_log
		WHERE workflow = ? AND subject_id = ?
		ORDER BY seq ASC
	`, workflow, subjectID)
	if err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	defer rows.Close()

	var entries []LogEntry
	for rows.Next() {
		var e LogEntry
		var places string
		if err := rows.Scan(&e.Seq, &e.ID, &e.Workflow, &e.SubjectID, &places, &e.MarkingHash, &e.DefinitionHash, &e.EngineVersion); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		if err := json.Unmarshal([]byte(places), &e.Marking); err != nil {
			return nil, fmt.Errorf("decode history marking: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate history: %w", err)
	}

	return entries, nil
}
