package api

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpkit "altimpact.dev/http"
	"altimpact.dev/item"
	"altimpact.dev/progress"
	"altimpact.dev/providers"
	"altimpact.dev/store"
)

func discardLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func newTestServer() (*echo.Echo, store.Store, progress.Registry) {
	st := store.NewMemory()
	reg := progress.NewMemoryRegistry()
	roster := providers.Default()
	a := New(st, reg, roster, discardLogger())
	e := NewServer(a, httpkit.DefaultServerConfig())
	return e, st, reg
}

func doRequest(e *echo.Echo, method, path string, body []byte) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestCreateItemIsIdempotentByAlias(t *testing.T) {
	e, _, _ := newTestServer()

	rec1 := doRequest(e, http.MethodPost, "/item/doi/10.1371%2Fjournal.pone.0000308", nil)
	require.Equal(t, http.StatusCreated, rec1.Code)
	var first map[string]string
	require.NoError(t, json.Unmarshal(rec1.Body.Bytes(), &first))

	rec2 := doRequest(e, http.MethodPost, "/item/doi/10.1371%2Fjournal.pone.0000308", nil)
	require.Equal(t, http.StatusCreated, rec2.Code)
	var second map[string]string
	require.NoError(t, json.Unmarshal(rec2.Body.Bytes(), &second))

	assert.Equal(t, first["tiid"], second["tiid"])
}

func TestCreateItemsBulkCoalescesDuplicates(t *testing.T) {
	e, _, _ := newTestServer()

	body, err := json.Marshal([][2]string{{"doi", "10.1"}, {"doi", "10.1"}})
	require.NoError(t, err)
	rec := doRequest(e, http.MethodPost, "/items", body)
	require.Equal(t, http.StatusCreated, rec.Code)

	var tiids []string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &tiids))
	require.Len(t, tiids, 2)
	assert.Equal(t, tiids[0], tiids[1])
}

func TestGetItemReturns404ForUnknownTIID(t *testing.T) {
	e, _, _ := newTestServer()
	rec := doRequest(e, http.MethodGet, "/item/000000000000000000000000", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGetItemReports210WhileUpdating(t *testing.T) {
	e, st, reg := newTestServer()

	it := item.NewItem("abc123abc123abc123abc123", []item.Alias{{Namespace: "doi", ID: "10.1"}})
	it.NeedsAliases = nil
	require.NoError(t, st.CreateItem(t.Context(), it))
	require.NoError(t, reg.Set(t.Context(), it.TIID, 3))

	rec := doRequest(e, http.MethodGet, "/item/"+it.TIID, nil)
	assert.Equal(t, 210, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["currently_updating"])

	_, err := reg.Decr(t.Context(), it.TIID)
	require.NoError(t, err)
	_, err = reg.Decr(t.Context(), it.TIID)
	require.NoError(t, err)
	_, err = reg.Decr(t.Context(), it.TIID)
	require.NoError(t, err)

	rec2 := doRequest(e, http.MethodGet, "/item/"+it.TIID, nil)
	assert.Equal(t, http.StatusOK, rec2.Code)
}

func TestLookupTIIDRedirectsOrNotFound(t *testing.T) {
	e, _, _ := newTestServer()

	rec := doRequest(e, http.MethodPost, "/item/doi/10.5061%2Fdryad.f4s1q", nil)
	require.Equal(t, http.StatusCreated, rec.Code)
	var created map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))

	found := doRequest(e, http.MethodGet, "/tiid/doi/10.5061%2Fdryad.f4s1q", nil)
	assert.Equal(t, http.StatusSeeOther, found.Code)
	assert.Equal(t, "/item/"+created["tiid"], found.Header().Get("Location"))

	missing := doRequest(e, http.MethodGet, "/tiid/doi/nonexistent", nil)
	assert.Equal(t, http.StatusNotFound, missing.Code)
}

func TestListProvidersIncludesCapabilityFlags(t *testing.T) {
	e, _, _ := newTestServer()
	rec := doRequest(e, http.MethodGet, "/provider", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var infos []providerInfo
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &infos))
	require.NotEmpty(t, infos)

	found := false
	for _, info := range infos {
		if info.Name == "dryad" {
			found = true
			assert.True(t, info.ProvidesAliases)
			assert.True(t, info.ProvidesBiblio)
			assert.False(t, info.ProvidesMetrics)
		}
	}
	assert.True(t, found)
}

func TestCollectionCreateGetAndCSVExport(t *testing.T) {
	e, st, _ := newTestServer()

	it := item.NewItem("feedfeedfeedfeedfeedfeed", []item.Alias{{Namespace: "doi", ID: "10.1"}})
	it.NeedsAliases = nil
	it.MergeBiblio(map[string]any{"title": "A Paper"})
	it.MergeMetrics("github", map[string]item.MetricSample{"stars": {Value: 42}})
	require.NoError(t, st.CreateItem(t.Context(), it))

	body, err := json.Marshal(createCollectionRequest{Items: []string{it.TIID}, Title: "my collection"})
	require.NoError(t, err)
	createRec := doRequest(e, http.MethodPost, "/collection", body)
	require.Equal(t, http.StatusCreated, createRec.Code)
	var col item.Collection
	require.NoError(t, json.Unmarshal(createRec.Body.Bytes(), &col))
	require.NotEmpty(t, col.CID)

	getRec := doRequest(e, http.MethodGet, "/collection/"+col.CID, nil)
	require.Equal(t, http.StatusOK, getRec.Code)
	var got collectionResponse
	require.NoError(t, json.Unmarshal(getRec.Body.Bytes(), &got))
	require.Len(t, got.Items, 1)
	assert.Equal(t, "A Paper", got.Items[0].Biblio["title"])

	csvRec := doRequest(e, http.MethodGet, "/collection/"+col.CID+".csv", nil)
	require.Equal(t, http.StatusOK, csvRec.Code)
	assert.Contains(t, csvRec.Header().Get(echo.HeaderContentType), "text/csv")
	assert.Contains(t, csvRec.Body.String(), "github:stars")
	assert.Contains(t, csvRec.Body.String(), "42")
}

func TestResubmitCollectionClearsCompletedAndReAdmits(t *testing.T) {
	e, st, reg := newTestServer()

	it := item.NewItem("1234123412341234123412aa", []item.Alias{{Namespace: "doi", ID: "10.1"}})
	it.NeedsAliases = nil
	it.MarkCompleted("aliases", "dryad")
	it.MarkCompleted("biblio", "dryad")
	it.MarkCompleted("metrics", "wikipedia")
	require.NoError(t, st.CreateItem(t.Context(), it))
	require.NoError(t, reg.Set(t.Context(), it.TIID, 0))

	body, err := json.Marshal(createCollectionRequest{Items: []string{it.TIID}, Title: "refresh me"})
	require.NoError(t, err)
	createRec := doRequest(e, http.MethodPost, "/collection", body)
	require.Equal(t, http.StatusCreated, createRec.Code)
	var col item.Collection
	require.NoError(t, json.Unmarshal(createRec.Body.Bytes(), &col))

	resubmitRec := doRequest(e, http.MethodPost, "/collection/"+col.CID, nil)
	require.Equal(t, http.StatusOK, resubmitRec.Code)

	refreshed, err := st.GetItem(t.Context(), it.TIID)
	require.NoError(t, err)
	assert.NotNil(t, refreshed.NeedsAliases)
	assert.Nil(t, refreshed.Completed, "resubmit must clear prior-cycle completion tracking")
}

func TestCreateCollectionAttributesOwnerFromAPIKey(t *testing.T) {
	e, st, _ := newTestServer()

	it := item.NewItem("aaaabbbbccccddddeeeeffff", []item.Alias{{Namespace: "doi", ID: "10.1"}})
	it.NeedsAliases = nil
	require.NoError(t, st.CreateItem(t.Context(), it))

	body, err := json.Marshal(createCollectionRequest{Items: []string{it.TIID}, Title: "mine"})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/collection", bytes.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	req.Header.Set("X-API-Key", "key-123")
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var col item.Collection
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &col))
	assert.Equal(t, "key-123", col.OwnerAPIKey)

	u, err := st.GetUser(t.Context(), "key-123")
	require.NoError(t, err)
	assert.Equal(t, "key-123", u.APIKey)
}

func TestMemberItemsJobRunsAndPolls(t *testing.T) {
	e, _, _ := newTestServer()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	fw, err := w.CreateFormFile("file", "query.txt")
	require.NoError(t, err)
	_, err = fw.Write([]byte("octocat"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/provider/bibtex/memberitems", &buf)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code)

	var started map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &started))
	require.NotEmpty(t, started["handle"])

	// bibtex doesn't implement MemberItemsProvider, so the job completes
	// immediately with an empty result (the NotImplemented-as-empty policy).
	deadline := time.Now().Add(2 * time.Second)
	var pollRec *httptest.ResponseRecorder
	for time.Now().Before(deadline) {
		pollRec = doRequest(e, http.MethodGet, "/provider/bibtex/memberitems/"+started["handle"], nil)
		var status map[string]any
		require.NoError(t, json.Unmarshal(pollRec.Body.Bytes(), &status))
		if status["status"] == "done" {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	require.NotNil(t, pollRec)
	assert.Equal(t, http.StatusOK, pollRec.Code)
}
