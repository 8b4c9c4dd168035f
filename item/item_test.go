package item

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewItemSeedsAliasesAndMarksNeedsAliases(t *testing.T) {
	it := NewItem("tiid1", []Alias{{"doi", "10.5061/dryad.7898"}})
	require.NotNil(t, it.NeedsAliases)
	assert.Equal(t, []string{"10.5061/dryad.7898"}, it.Aliases["doi"])
}

func TestMergeBiblioFirstWriterWins(t *testing.T) {
	it := NewItem("tiid1", nil)
	it.MergeBiblio(map[string]any{"year": "2010"})
	it.MergeBiblio(map[string]any{"year": "2099", "title": "X"})
	assert.Equal(t, "2010", it.Biblio["year"])
	assert.Equal(t, "X", it.Biblio["title"])
}

func TestMergeMetricsAppendsHistoryAndUpdatesRaw(t *testing.T) {
	it := NewItem("tiid1", nil)
	it.MergeMetrics("wikipedia", map[string]MetricSample{"mentions": {Value: 1}})
	rec := it.Metrics["wikipedia:mentions"]
	require.Len(t, rec.Values.RawHistory, 1)
	assert.Equal(t, float64(1), rec.Values.Raw)

	it.MergeMetrics("wikipedia", map[string]MetricSample{"mentions": {Value: 2}})
	rec = it.Metrics["wikipedia:mentions"]
	assert.Equal(t, float64(2), rec.Values.Raw)
	latest, ok := rec.Values.LatestHistoryValue()
	require.True(t, ok)
	assert.Equal(t, float64(2), latest)
}

func TestMergeMetricsEmptyIsNoOp(t *testing.T) {
	it := NewItem("tiid1", nil)
	before := it.LastModified
	it.MergeMetrics("wikipedia", map[string]MetricSample{})
	assert.Equal(t, before, it.LastModified)
	assert.Empty(t, it.Metrics)
}

func TestInvariantRawEqualsLatestHistoryEntry(t *testing.T) {
	it := NewItem("tiid1", nil)
	it.MergeMetrics("mendeley", map[string]MetricSample{"readers": {Value: 5}})
	it.MergeMetrics("mendeley", map[string]MetricSample{"readers": {Value: 9}})
	rec := it.Metrics["mendeley:readers"]
	latest, ok := rec.Values.LatestHistoryValue()
	require.True(t, ok)
	assert.Equal(t, rec.Values.Raw, latest)
}

func TestMarkCompletedIsIdempotentAndPerPhase(t *testing.T) {
	it := NewItem("tiid1", nil)
	it.MarkCompleted("aliases", "dryad")
	it.MarkCompleted("aliases", "dryad")
	it.MarkCompleted("biblio", "dryad")
	assert.Equal(t, []string{"dryad"}, it.Completed["aliases"])
	assert.True(t, it.CompletedSet("aliases")["dryad"])
	assert.True(t, it.CompletedSet("biblio")["dryad"])
	assert.False(t, it.CompletedSet("metrics")["dryad"])
}

func TestGenreDerivation(t *testing.T) {
	cases := []struct {
		aliases map[string][]string
		want    Genre
	}{
		{map[string][]string{"github": {"x/y"}}, GenreSoftware},
		{map[string][]string{"dryad": {"1"}}, GenreDataset},
		{map[string][]string{"doi": {"10.1"}}, GenreArticle},
		{map[string][]string{"url": {"http://x"}}, GenreWebpage},
		{map[string][]string{}, GenreUnknown},
	}
	for _, c := range cases {
		it := &Item{Aliases: c.aliases}
		assert.Equal(t, c.want, it.Genre())
	}
}

func TestCleanIDStripsControlAndZeroWidth(t *testing.T) {
	raw := "10.1371/ journal​.pone.0012345  "
	assert.Equal(t, "10.1371/journal.pone.0012345", CleanID(raw))
}

func TestCleanIDTrimsWhitespace(t *testing.T) {
	assert.Equal(t, "pmid:123", CleanID("  pmid:123  "))
}
