package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/OxanaKozlova/workflow/internal/engine"
	"github.com/OxanaKozlova/workflow/internal/ir"
	"github.com/OxanaKozlova/workflow/internal/queryir"
	"github.com/OxanaKozlova/workflow/internal/testutil"
)

func TestMarkingStoreUnknownSubjectIsEmpty(t *testing.T) {
	s := createTestStore(t)
	ms, err := s.ForWorkflow("article", articleDefinition(t))
	require.NoError(t, err)

	m, err := ms.GetMarking(context.Background(), "order-1")
	require.NoError(t, err)
	assert.True(t, m.IsEmpty())
}

func TestMarkingStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	def := articleDefinition(t)
	ms, err := s.ForWorkflow("article", def, WithIDGenerator(engine.NewFixedGenerator("log-1", "log-2")))
	require.NoError(t, err)

	subject := testutil.NewSubject("order-1")
	require.NoError(t, ms.SetMarking(ctx, subject, ir.NewMarking("draft")))
	require.NoError(t, ms.SetMarking(ctx, subject, ir.NewMarking("checking_content", "checking_spelling")))

	m, err := ms.GetMarking(ctx, subject)
	require.NoError(t, err)
	assert.Equal(t, "{checking_content, checking_spelling}", m.String())

	rec, found, err := s.Lookup(ctx, "article", "order-1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int64(2), rec.Version)
	assert.Equal(t, ir.MustDefinitionHash(def), rec.DefinitionHash)

	history, err := s.History(ctx, "article", "order-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, "log-1", history[0].ID)
	assert.Equal(t, "{draft}", history[0].Marking.String())
	assert.Equal(t, "log-2", history[1].ID)
	assert.Less(t, history[0].Seq, history[1].Seq)
	assert.Equal(t, ir.EngineVersion, history[1].EngineVersion)

	hash, err := ir.MarkingHash(history[1].Marking)
	require.NoError(t, err)
	assert.Equal(t, hash, history[1].MarkingHash)
}

func TestMarkingStoreIsolatesWorkflows(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	def := articleDefinition(t)

	a, err := s.ForWorkflow("article", def)
	require.NoError(t, err)
	b, err := s.ForWorkflow("blog", def)
	require.NoError(t, err)

	require.NoError(t, a.SetMarking(ctx, "id-1", ir.NewMarking("published")))

	m, err := b.GetMarking(ctx, "id-1")
	require.NoError(t, err)
	assert.True(t, m.IsEmpty())
}

func TestMarkingStoreSinglePlace(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	ms, err := s.ForWorkflow("article", articleDefinition(t), WithSinglePlace())
	require.NoError(t, err)

	assert.True(t, ms.SinglePlace())
	err = ms.SetMarking(ctx, "id-1", ir.NewMarking("draft", "published"))
	assert.ErrorIs(t, err, engine.ErrTooManyPlaces)

	_, found, err := s.Lookup(ctx, "article", "id-1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestMarkingStoreRejectsUnidentifiedSubject(t *testing.T) {
	s := createTestStore(t)
	ms, err := s.ForWorkflow("article", articleDefinition(t))
	require.NoError(t, err)

	_, err = ms.GetMarking(context.Background(), testutil.Opaque{})
	assert.ErrorIs(t, err, engine.ErrUnsupportedSubject)

	err = ms.SetMarking(context.Background(), "", ir.NewMarking("draft"))
	assert.ErrorIs(t, err, engine.ErrUnsupportedSubject)
}

func TestSubjectsOrdered(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	ms, err := s.ForWorkflow("article", articleDefinition(t))
	require.NoError(t, err)

	for _, id := range []string{"c", "a", "b"} {
		require.NoError(t, ms.SetMarking(ctx, id, ir.NewMarking("draft")))
	}

	records, err := s.Subjects(ctx, "article")
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "a", records[0].SubjectID)
	assert.Equal(t, "c", records[2].SubjectID)
}

func TestFindByPlace(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	def := articleDefinition(t)
	article, err := s.ForWorkflow("article", def)
	require.NoError(t, err)
	blog, err := s.ForWorkflow("blog", def)
	require.NoError(t, err)

	require.NoError(t, article.SetMarking(ctx, "a-2", ir.NewMarking("checking_content", "checking_spelling")))
	require.NoError(t, article.SetMarking(ctx, "a-1", ir.NewMarking("checking_content")))
	require.NoError(t, article.SetMarking(ctx, "a-3", ir.NewMarking("published")))
	require.NoError(t, article.SetMarking(ctx, "a-4", ir.NewMarkingFromCounts(map[string]int{"checking_content": 2})))
	require.NoError(t, blog.SetMarking(ctx, "b-1", ir.NewMarking("checking_content")))

	records, err := s.Find(ctx, queryir.Select{Filter: queryir.InPlaces("article", "checking_content")})
	require.NoError(t, err)
	assert.Equal(t, []string{"a-1", "a-2", "a-4"}, subjectIDs(records))

	records, err = s.Find(ctx, queryir.Select{Filter: queryir.InPlaces("article", "checking_content", "checking_spelling")})
	require.NoError(t, err)
	assert.Equal(t, []string{"a-2"}, subjectIDs(records))

	records, err = s.Find(ctx, queryir.Select{Filter: queryir.Marked{Place: "checking_content", Min: 2}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a-4"}, subjectIDs(records))

	records, err = s.Find(ctx, queryir.Select{Filter: queryir.And{Predicates: []queryir.Predicate{
		queryir.Equals{Field: queryir.FieldWorkflow, Value: "article"},
		queryir.Not{Predicate: queryir.Marked{Place: "checking_content"}},
	}}})
	require.NoError(t, err)
	assert.Equal(t, []string{"a-3"}, subjectIDs(records))
}

func TestFindOrderAndLimit(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	def := articleDefinition(t)
	for _, wf := range []string{"blog", "article"} {
		ms, err := s.ForWorkflow(wf, def)
		require.NoError(t, err)
		require.NoError(t, ms.SetMarking(ctx, "x", ir.NewMarking("draft")))
	}

	records, err := s.Find(ctx, queryir.Select{})
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "article", records[0].Workflow)
	assert.Equal(t, "blog", records[1].Workflow)

	records, err = s.Find(ctx, queryir.Select{Limit: 1})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "article", records[0].Workflow)
}

func TestFindRejectsInvalidQuery(t *testing.T) {
	s := createTestStore(t)

	_, err := s.Find(context.Background(), queryir.Select{Filter: queryir.Equals{Field: "places", Value: "x"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown field")
}

func subjectIDs(records []Record) []string {
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.SubjectID
	}
	return ids
}

// =============================================================================
// Workflow over SQLite
// =============================================================================

func TestWorkflowOverSQLite(t *testing.T) {
	ctx := context.Background()
	s := createTestStore(t)
	def := articleDefinition(t)
	ms, err := s.ForWorkflow("article", def)
	require.NoError(t, err)

	w, err := engine.New(def, ms, engine.WithName("article"))
	require.NoError(t, err)

	ok, err := w.Can(ctx, "order-1", "publish")
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = w.Apply(ctx, "order-1", "request_review")
	require.NoError(t, err)
	m, err := w.Apply(ctx, "order-1", "publish")
	require.NoError(t, err)
	assert.Equal(t, "{published}", m.String())

	history, err := s.History(ctx, "article", "order-1")
	require.NoError(t, err)
	var trail []string
	for _, e := range history {
		trail = append(trail, e.Marking.String())
	}
	assert.Equal(t, []string{
		"{draft}",
		"{checking_content, checking_spelling}",
		"{published}",
	}, trail, "initial seed plus one row per apply")
}

func TestStateMachineOverSinglePlaceSQLiteRejectsSplit(t *testing.T) {
	s := createTestStore(t)
	def := articleDefinition(t)
	ms, err := s.ForWorkflow("article", def, WithSinglePlace())
	require.NoError(t, err)

	_, err = engine.New(def, ms)
	assert.Equal(t, ir.ErrSinglePlaceOutputs, ir.DefinitionErrorCode(err))
}
