package providers

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"testing"

	"altimpact.dev/item"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubClient returns a fixed response for every request, recording the last
// request it saw.
type stubClient struct {
	status int
	body   string
	lastReq *http.Request
}

func (s *stubClient) Do(req *http.Request) (*http.Response, error) {
	s.lastReq = req
	return &http.Response{
		StatusCode: s.status,
		Body:       io.NopCloser(bytes.NewBufferString(s.body)),
	}, nil
}

func TestDryadIsRelevantAlias(t *testing.T) {
	d := NewDryad()
	assert.True(t, d.IsRelevantAlias(item.Alias{Namespace: "doi", ID: "10.5061/dryad.7898"}))
	assert.False(t, d.IsRelevantAlias(item.Alias{Namespace: "doi", ID: "10.1371/journal.pone.1"}))
}

func TestDryadAliasesAndBiblio(t *testing.T) {
	d := NewDryad()
	d.Client = &stubClient{status: 200, body: `{"title":"Data from: Can clone size...","publicationDate":"2010","identifier":"http://dx.doi.org/10.5061/dryad.7898"}`}

	aliases, err := d.Aliases(context.Background(), []item.Alias{{Namespace: "doi", ID: "10.5061/dryad.7898"}})
	require.NoError(t, err)
	require.Len(t, aliases, 2)
	assert.Equal(t, "url", aliases[0].Namespace)

	biblio, err := d.Biblio(context.Background(), []item.Alias{{Namespace: "doi", ID: "10.5061/dryad.7898"}})
	require.NoError(t, err)
	assert.Equal(t, "2010", biblio["year"])
}

func TestDryadClientErrorIsPermanent(t *testing.T) {
	d := NewDryad()
	d.Client = &stubClient{status: 404, body: ""}
	_, err := d.Aliases(context.Background(), []item.Alias{{Namespace: "doi", ID: "10.5061/dryad.7898"}})
	require.Error(t, err)
}

func TestGitHubSlugExtraction(t *testing.T) {
	g := NewGitHub()
	assert.Equal(t, "foo/bar", g.slugFor(item.Alias{Namespace: "github", ID: "foo/bar"}))
	assert.Equal(t, "foo/bar", g.slugFor(item.Alias{Namespace: "url", ID: "https://github.com/foo/bar"}))
}

func TestBibtexParsesFields(t *testing.T) {
	b := NewBibtex()
	entry := "title = {Some Paper}\nyear = {2011}\n"
	fields, err := b.Biblio(context.Background(), []item.Alias{{Namespace: "biblio", ID: entry}})
	require.NoError(t, err)
	assert.Equal(t, "Some Paper", fields["title"])
	assert.Equal(t, "2011", fields["year"])
}

func TestWebpageExtractsTitle(t *testing.T) {
	w := NewWebpage()
	w.Client = &stubClient{status: 200, body: "<html><head><title>Hello World</title></head></html>"}
	aliases, err := w.Aliases(context.Background(), []item.Alias{{Namespace: "url", ID: "http://example.com"}})
	require.NoError(t, err)
	require.Len(t, aliases, 2)
	assert.Equal(t, "Hello World", aliases[1].ID)
}

func TestDefaultRosterNamesAreUnique(t *testing.T) {
	seen := map[string]bool{}
	for _, p := range Default() {
		require.False(t, seen[p.Name()], "duplicate provider name %s", p.Name())
		seen[p.Name()] = true
	}
}
