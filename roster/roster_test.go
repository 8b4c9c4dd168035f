package roster

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"altimpact.dev/providers"
)

func TestLoadMissingFileReturnsDefault(t *testing.T) {
	entries, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	require.NoError(t, err)
	assert.Equal(t, Default(), entries)
}

func TestSaveThenLoadRoundTrips(t *testing.T) {
	path := filepath.Join(t.TempDir(), "roster.json")
	entries := []Entry{
		{Name: "dryad", Workers: 3, Enabled: true},
		{Name: "bibtex", Workers: 1, Enabled: false},
	}
	require.NoError(t, Save(path, entries))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, entries, got)
}

func TestSelectFiltersDisabledAndUnknownProviders(t *testing.T) {
	all := providers.Default()
	entries := []Entry{
		{Name: "dryad", Workers: 2, Enabled: true},
		{Name: "bibtex", Workers: 2, Enabled: false},
	}
	selected := Select(all, entries)
	require.Len(t, selected, 1)
	assert.Equal(t, "dryad", selected[0].Name())
}

func TestWorkerCountsFallsBackToDefault(t *testing.T) {
	entries := []Entry{
		{Name: "dryad", Workers: 0, Enabled: true},
		{Name: "crossref", Workers: 5, Enabled: true},
		{Name: "bibtex", Workers: 9, Enabled: false},
	}
	counts := WorkerCounts(entries, 2)
	assert.Equal(t, map[string]int{"dryad": 2, "crossref": 5}, counts)
}
