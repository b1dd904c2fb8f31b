package store

import (
	"path/filepath"
	"testing"

	"github.com/OxanaKozlova/workflow/internal/ir"
)

// createTestStore creates a new temp-dir store for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// articleDefinition is draft -> review -> published with a parallel
// split into two checks.
func articleDefinition(t *testing.T) *ir.Definition {
	t.Helper()
	def, err := ir.NewDefinition(
		[]string{"draft", "checking_content", "checking_spelling", "published"},
		[]ir.Transition{
			ir.NewTransition("request_review", []string{"draft"}, []string{"checking_content", "checking_spelling"}),
			ir.NewTransition("publish", []string{"checking_content", "checking_spelling"}, []string{"published"}),
		},
		"draft",
	)
	if err != nil {
		t.Fatalf("NewDefinition() failed: %v", err)
	}
	return def
}
