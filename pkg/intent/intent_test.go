package intent_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voxdoc/voxdoc/internal/models"
	"github.com/voxdoc/voxdoc/pkg/intent"
)

func testDocs() []intent.Candidate {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return []intent.Candidate{
		{ID: "chemistry-101-pdf", Name: "Chemistry_101.pdf", IngestedAt: base},
		{ID: "organic-chemistry-pdf", Name: "Organic_Chemistry.pdf", IngestedAt: base.Add(time.Hour)},
		{ID: "biology-pdf", Name: "Biology.pdf", IngestedAt: base.Add(2 * time.Hour)},
	}
}

func TestClassify_Grammar(t *testing.T) {
	d := intent.NewDispatcher(intent.Config{})
	docs := testDocs()

	tests := []struct {
		utterance string
		kind      models.IntentKind
	}{
		{"stop", models.IntentStop},
		{"be quiet", models.IntentStop},
		{"delete everything", models.IntentDeleteAll},
		{"clear the workspace", models.IntentDeleteAll},
		{"remove all documents", models.IntentDeleteAll},
		{"delete biology", models.IntentDeleteDocument},
		{"open notes.txt", models.IntentOpenDocument},
		{"load the file report.md", models.IntentOpenDocument},
		{"summarize everything", models.IntentSummarize},
		{"go to page 12", models.IntentNavigatePage},
		{"turn to page seven", models.IntentNavigatePage},
		{"next page", models.IntentNavigateNext},
		{"keep reading", models.IntentNavigateNext},
		{"previous page", models.IntentNavigateNext},
		{"what is photosynthesis", models.IntentQuery},
		{"find the word mitosis", models.IntentFind},
		{"search for cell membrane", models.IntentFind},
		{"explain the krebs cycle", models.IntentQuery},
		{"xyzzy", models.IntentUnrecognized},
		{"", models.IntentUnrecognized},
	}

	for _, tt := range tests {
		t.Run(tt.utterance, func(t *testing.T) {
			it := d.Classify(tt.utterance, docs)
			assert.Equal(t, tt.kind, it.Kind, "utterance %q", tt.utterance)
		})
	}
}

func TestClassify_Slots(t *testing.T) {
	d := intent.NewDispatcher(intent.Config{})
	docs := testDocs()

	it := d.Classify("open the file /tmp/notes.txt", docs)
	assert.Equal(t, models.IntentOpenDocument, it.Kind)
	assert.Equal(t, "/tmp/notes.txt", it.Target)

	it = d.Classify("go to page 12", docs)
	assert.Equal(t, 12, it.Page)

	it = d.Classify("turn to page seven", docs)
	assert.Equal(t, 7, it.Page)

	it = d.Classify("go to page zero", docs)
	assert.Equal(t, models.IntentUnrecognized, it.Kind)

	it = d.Classify("next document", docs)
	assert.Equal(t, models.IntentNavigateNext, it.Kind)
	assert.Equal(t, "document", it.Target)

	it = d.Classify("previous page", docs)
	assert.Equal(t, -1, it.Delta)

	it = d.Classify("next page", docs)
	assert.Equal(t, 1, it.Delta)

	it = d.Classify("find the word mitosis", docs)
	assert.Equal(t, models.IntentFind, it.Kind)
	assert.Equal(t, "mitosis", it.Query)
}

func TestClassify_SummaryGranularityAndTarget(t *testing.T) {
	d := intent.NewDispatcher(intent.Config{})
	docs := testDocs()

	it := d.Classify("summarize everything", docs)
	assert.Equal(t, models.IntentSummarize, it.Kind)
	assert.Empty(t, it.Target)
	assert.Empty(t, it.DocID)
	assert.Equal(t, models.SummaryBrief, it.Granularity)

	it = d.Classify("summarize biology in detail", docs)
	assert.Equal(t, models.SummaryDetailed, it.Granularity)
	assert.Equal(t, "biology-pdf", it.DocID)

	it = d.Classify("summarize", docs)
	assert.Equal(t, models.IntentSummarize, it.Kind)
	assert.Empty(t, it.Target)
}

func TestClassify_ScopedQuery(t *testing.T) {
	d := intent.NewDispatcher(intent.Config{})
	docs := testDocs()

	it := d.Classify("in biology, what is a cell membrane?", docs)
	require.Equal(t, models.IntentQuery, it.Kind)
	assert.Equal(t, "biology-pdf", it.DocID)
	assert.Contains(t, it.Query, "cell membrane")

	// Unscoped question searches everything.
	it = d.Classify("what is a cell membrane?", docs)
	assert.Equal(t, models.IntentQuery, it.Kind)
	assert.Empty(t, it.DocID)
}

func TestResolve_ExactAndFuzzy(t *testing.T) {
	d := intent.NewDispatcher(intent.Config{})
	docs := testDocs()

	m, err := d.Resolve("biology", docs, false)
	require.NoError(t, err)
	assert.Equal(t, "biology-pdf", m.ID)
	assert.InDelta(t, 1.0, m.Score, 1e-9)

	// A truncated spoken form still lands on the obvious candidate.
	m, err = d.Resolve("biolo", docs, false)
	require.NoError(t, err)
	assert.Equal(t, "biology-pdf", m.ID)
}

func TestResolve_AmbiguousBetweenEqualMatches(t *testing.T) {
	d := intent.NewDispatcher(intent.Config{})
	docs := testDocs()

	// "chemistry" is a whole word of both chemistry documents.
	_, err := d.Resolve("chemistry", docs, true)
	var ambiguous *models.AmbiguousTargetError
	require.ErrorAs(t, err, &ambiguous)
	assert.Equal(t, "chemistry", ambiguous.Spoken)
	require.Len(t, ambiguous.Candidates, 2)
	names := []string{ambiguous.Candidates[0].Name, ambiguous.Candidates[1].Name}
	assert.Contains(t, names, "Chemistry_101.pdf")
	assert.Contains(t, names, "Organic_Chemistry.pdf")
}

func TestResolve_ReadTieBreaksOnRecency(t *testing.T) {
	d := intent.NewDispatcher(intent.Config{})
	docs := testDocs()

	// Same tie as above, but a read intent picks the newer document.
	m, err := d.Resolve("chemistry", docs, false)
	require.NoError(t, err)
	assert.Equal(t, "organic-chemistry-pdf", m.ID)
}

func TestResolve_BelowThreshold(t *testing.T) {
	d := intent.NewDispatcher(intent.Config{})
	docs := testDocs()

	_, err := d.Resolve("underwater basket weaving", docs, false)
	var ambiguous *models.AmbiguousTargetError
	require.ErrorAs(t, err, &ambiguous)
	assert.LessOrEqual(t, len(ambiguous.Candidates), 3)
}

func TestResolve_DeleteStricterThanRead(t *testing.T) {
	d := intent.NewDispatcher(intent.Config{ReadThreshold: 0.55, DeleteThreshold: 0.90})
	docs := []intent.Candidate{
		{ID: "chemistry-101-pdf", Name: "Chemistry_101.pdf", IngestedAt: time.Now()},
	}

	// A partial match clears the read bar but not the stricter delete bar.
	m, err := d.Resolve("chem", docs, false)
	require.NoError(t, err)
	assert.Equal(t, "chemistry-101-pdf", m.ID)

	_, err = d.Resolve("chem", docs, true)
	var ambiguous *models.AmbiguousTargetError
	require.ErrorAs(t, err, &ambiguous)

	// The full name clears both.
	m, err = d.Resolve("chemistry", docs, true)
	require.NoError(t, err)
	assert.Equal(t, "chemistry-101-pdf", m.ID)
}

func TestResolve_EmptyRegistry(t *testing.T) {
	d := intent.NewDispatcher(intent.Config{})

	_, err := d.Resolve("anything", nil, false)
	var notFound *models.DocumentNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "anything", notFound.Name)
}

func TestClassify_DeleteResolvesTarget(t *testing.T) {
	d := intent.NewDispatcher(intent.Config{})
	docs := testDocs()

	it := d.Classify("delete biology", docs)
	require.Equal(t, models.IntentDeleteDocument, it.Kind)
	assert.Equal(t, "biology-pdf", it.DocID)

	// Ambiguous delete keeps the spoken target but leaves DocID empty so
	// the caller re-resolves and reports the candidates.
	it = d.Classify("delete chemistry", docs)
	require.Equal(t, models.IntentDeleteDocument, it.Kind)
	assert.Equal(t, "chemistry", it.Target)
	assert.Empty(t, it.DocID)
}

func TestClassify_TrailingPunctuation(t *testing.T) {
	d := intent.NewDispatcher(intent.Config{})

	it := d.Classify("Stop!", nil)
	assert.Equal(t, models.IntentStop, it.Kind)

	it = d.Classify("  DELETE   Everything.  ", nil)
	assert.Equal(t, models.IntentDeleteAll, it.Kind)
}
