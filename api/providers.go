package api

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/labstack/echo/v4"

	"altimpact.dev/item"
	"altimpact.dev/provider"
)

// providerMeta is static display metadata for the roster endpoint; not
// derivable from the Provider interface itself (which only exposes
// capability flags), so it is a small hand-maintained table mirroring this
// codebase's provider listing views.
type providerMeta struct {
	Namespaces   []string `json:"namespaces"`
	ExampleAlias string   `json:"example_alias"`
}

var providerMetadata = map[string]providerMeta{
	"dryad":     {Namespaces: []string{"doi"}, ExampleAlias: "10.5061/dryad.f4s1q"},
	"crossref":  {Namespaces: []string{"doi"}, ExampleAlias: "10.1371/journal.pone.0000308"},
	"mendeley":  {Namespaces: []string{"doi"}, ExampleAlias: "10.1371/journal.pone.0000308"},
	"pmc":       {Namespaces: []string{"pmid"}, ExampleAlias: "17183658"},
	"wikipedia": {Namespaces: []string{"doi", "url"}, ExampleAlias: "10.1371/journal.pone.0000308"},
	"github":    {Namespaces: []string{"github", "url"}, ExampleAlias: "impactstory/total-impact-core"},
	"bibtex":    {Namespaces: []string{"biblio"}, ExampleAlias: "@article{...}"},
	"webpage":   {Namespaces: []string{"url"}, ExampleAlias: "http://example.com/paper"},
}

type providerInfo struct {
	Name            string   `json:"name"`
	ProvidesAliases bool     `json:"provides_aliases"`
	ProvidesBiblio  bool     `json:"provides_biblio"`
	ProvidesMetrics bool     `json:"provides_metrics"`
	Namespaces      []string `json:"namespaces,omitempty"`
	ExampleAlias    string   `json:"example_alias,omitempty"`
}

func (a *API) listProviders(c echo.Context) error {
	out := make([]providerInfo, 0, len(a.Roster))
	for _, p := range a.Roster {
		info := providerInfo{
			Name:            p.Name(),
			ProvidesAliases: p.ProvidesAliases(),
			ProvidesBiblio:  p.ProvidesBiblio(),
			ProvidesMetrics: p.ProvidesMetrics(),
		}
		if meta, ok := providerMetadata[p.Name()]; ok {
			info.Namespaces = meta.Namespaces
			info.ExampleAlias = meta.ExampleAlias
		}
		out = append(out, info)
	}
	return c.JSON(http.StatusOK, out)
}

// MemberItemsProvider is the optional capability a provider implements to
// expand a membership query (e.g. a GitHub org, a Dryad collection) into
// its member aliases; providers that don't implement it are treated
// as returning an empty list, matching the NotImplemented policy.
type MemberItemsProvider interface {
	provider.Provider
	MemberItems(ctx context.Context, query io.Reader) ([]item.Alias, error)
}

type memberItemsStatus string

const (
	memberItemsPending memberItemsStatus = "pending"
	memberItemsDone     memberItemsStatus = "done"
	memberItemsFailed   memberItemsStatus = "failed"
)

type memberItemsJob struct {
	mu      sync.Mutex
	status  memberItemsStatus
	aliases []item.Alias
	errMsg  string
}

func (j *memberItemsJob) snapshot() (memberItemsStatus, []item.Alias, string) {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.status, j.aliases, j.errMsg
}

func (j *memberItemsJob) finish(aliases []item.Alias, err error) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if err != nil {
		j.status = memberItemsFailed
		j.errMsg = err.Error()
		return
	}
	j.status = memberItemsDone
	j.aliases = aliases
}

// memberItemsJobs is a small in-memory job table keyed by an MD5 handle of
// the provider name plus query body; this is a collaborator-level feature
// not part of the core pipeline, so it deliberately doesn't use the
// Work Queue or Progress Registry.
type memberItemsJobs struct {
	mu   sync.Mutex
	byID map[string]*memberItemsJob
}

func newMemberItemsJobs() *memberItemsJobs {
	return &memberItemsJobs{byID: map[string]*memberItemsJob{}}
}

func (a *API) startMemberItems(c echo.Context) error {
	name := c.Param("name")
	p, ok := a.providerByName(name)
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "unknown provider")
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "multipart field \"file\" is required")
	}
	src, err := fileHeader.Open()
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "could not read uploaded file")
	}
	defer src.Close()
	body, err := io.ReadAll(src)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "could not read uploaded file")
	}

	sum := md5.Sum(append([]byte(name+":"), body...))
	handle := hex.EncodeToString(sum[:])

	a.jobs.mu.Lock()
	job, exists := a.jobs.byID[handle]
	if !exists {
		job = &memberItemsJob{status: memberItemsPending}
		a.jobs.byID[handle] = job
	}
	a.jobs.mu.Unlock()

	if !exists {
		go a.runMemberItems(p, body, job)
	}

	return c.JSON(http.StatusCreated, map[string]string{"handle": handle})
}

func (a *API) runMemberItems(p provider.Provider, body []byte, job *memberItemsJob) {
	mp, ok := p.(MemberItemsProvider)
	if !ok {
		job.finish(nil, nil)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	aliases, err := mp.MemberItems(ctx, bytes.NewReader(body))
	if err != nil {
		a.Logger.WithField("provider", p.Name()).WithError(err).Warn("memberitems expansion failed")
	}
	job.finish(aliases, err)
}

func (a *API) pollMemberItems(c echo.Context) error {
	handle := c.Param("handle")

	a.jobs.mu.Lock()
	job, ok := a.jobs.byID[handle]
	a.jobs.mu.Unlock()
	if !ok {
		return echo.NewHTTPError(http.StatusNotFound, "unknown job handle")
	}

	if c.QueryParam("method") == "sync" {
		deadline := time.Now().Add(10 * time.Second)
		for {
			status, _, _ := job.snapshot()
			if status != memberItemsPending || time.Now().After(deadline) {
				break
			}
			time.Sleep(50 * time.Millisecond)
		}
	}

	status, aliases, errMsg := job.snapshot()
	resp := map[string]any{"status": string(status)}
	if status == memberItemsDone {
		resp["aliases"] = aliases
	}
	if status == memberItemsFailed {
		resp["error"] = errMsg
	}
	return c.JSON(http.StatusOK, resp)
}
