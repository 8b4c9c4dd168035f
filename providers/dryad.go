package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"altimpact.dev/item"
	"altimpact.dev/provider"
)

// Dryad contributes aliases (a landing-page URL and title) and biblio
// (publication year) for Dryad-minted DOIs (10.5061/dryad.*). It does not
// provide metrics.
type Dryad struct {
	base
	Client  provider.HTTPClient
	BaseURL string
}

// NewDryad builds a Dryad adapter using http.DefaultClient; tests override
// Client with a fake transport.
func NewDryad() *Dryad {
	return &Dryad{
		base:    base{name: "dryad", maxRetries: 3, baseSleep: time.Second},
		Client:  provider.NewCachingHTTPClient(http.DefaultClient),
		BaseURL: "https://datadryad.org/api/v2",
	}
}

func (d *Dryad) ProvidesAliases() bool { return true }
func (d *Dryad) ProvidesBiblio() bool  { return true }
func (d *Dryad) ProvidesMetrics() bool { return false }

func (d *Dryad) IsRelevantAlias(a item.Alias) bool {
	ns := item.CanonicalNamespace(a.Namespace)
	return ns == "doi" && dryadDOIPrefix.MatchString(a.ID)
}

type dryadPackage struct {
	Title        string `json:"title"`
	PublishedYear string `json:"publicationDate"`
	IdentifierURL string `json:"identifier"`
}

func (d *Dryad) fetch(ctx context.Context, doi string) (*dryadPackage, error) {
	url := fmt.Sprintf("%s/dois/%s", d.BaseURL, doi)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, provider.NewError(provider.KindUnknown, d.name, "fetch", err)
	}
	resp, err := d.Client.Do(req)
	if err != nil {
		return nil, provider.NewError(provider.KindTimeout, d.name, "fetch", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, provider.NewError(provider.ClassifyHTTPStatus(resp.StatusCode), d.name, "fetch", fmt.Errorf("status %d", resp.StatusCode))
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, provider.NewError(provider.KindContentMalformed, d.name, "fetch", err)
	}
	var pkg dryadPackage
	if err := json.Unmarshal(body, &pkg); err != nil {
		return nil, provider.NewError(provider.KindContentMalformed, d.name, "fetch", err)
	}
	return &pkg, nil
}

// Aliases returns a landing-page URL and title for the first relevant DOI.
func (d *Dryad) Aliases(ctx context.Context, aliases []item.Alias) ([]item.Alias, error) {
	for _, a := range aliases {
		if !d.IsRelevantAlias(a) {
			continue
		}
		pkg, err := d.fetch(ctx, a.ID)
		if err != nil {
			return nil, err
		}
		out := []item.Alias{{Namespace: "url", ID: pkg.IdentifierURL}}
		if pkg.Title != "" {
			out = append(out, item.Alias{Namespace: "title", ID: pkg.Title})
		}
		return out, nil
	}
	return nil, provider.ErrNotImplemented(d.name, "aliases")
}

// Biblio returns the publication year, keyed "year".
func (d *Dryad) Biblio(ctx context.Context, aliases []item.Alias) (map[string]any, error) {
	for _, a := range aliases {
		if !d.IsRelevantAlias(a) {
			continue
		}
		pkg, err := d.fetch(ctx, a.ID)
		if err != nil {
			return nil, err
		}
		out := map[string]any{}
		if pkg.PublishedYear != "" {
			out["year"] = pkg.PublishedYear
		}
		return out, nil
	}
	return nil, provider.ErrNotImplemented(d.name, "biblio")
}

// Metrics is not implemented by Dryad.
func (d *Dryad) Metrics(ctx context.Context, aliases []item.Alias) (map[string]item.MetricSample, error) {
	return nil, provider.ErrNotImplemented(d.name, "metrics")
}
