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

// CrossRef resolves any DOI into biblio metadata (title, year, journal). It
// does not mint new aliases or metrics.
type CrossRef struct {
	base
	Client  provider.HTTPClient
	BaseURL string
}

func NewCrossRef() *CrossRef {
	return &CrossRef{
		base:    base{name: "crossref", maxRetries: 3, baseSleep: time.Second},
		Client:  provider.NewCachingHTTPClient(http.DefaultClient),
		BaseURL: "https://api.crossref.org/works",
	}
}

func (c *CrossRef) ProvidesAliases() bool { return false }
func (c *CrossRef) ProvidesBiblio() bool  { return true }
func (c *CrossRef) ProvidesMetrics() bool { return false }

func (c *CrossRef) IsRelevantAlias(a item.Alias) bool {
	return item.CanonicalNamespace(a.Namespace) == "doi"
}

type crossrefResponse struct {
	Message struct {
		Title     []string `json:"title"`
		Published struct {
			DateParts [][]int `json:"date-parts"`
		} `json:"published"`
		ContainerTitle []string `json:"container-title"`
	} `json:"message"`
}

func (c *CrossRef) Aliases(ctx context.Context, aliases []item.Alias) ([]item.Alias, error) {
	return nil, provider.ErrNotImplemented(c.name, "aliases")
}

func (c *CrossRef) Biblio(ctx context.Context, aliases []item.Alias) (map[string]any, error) {
	for _, a := range aliases {
		if !c.IsRelevantAlias(a) {
			continue
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/%s", c.BaseURL, a.ID), nil)
		if err != nil {
			return nil, provider.NewError(provider.KindUnknown, c.name, "biblio", err)
		}
		resp, err := c.Client.Do(req)
		if err != nil {
			return nil, provider.NewError(provider.KindTimeout, c.name, "biblio", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, provider.NewError(provider.ClassifyHTTPStatus(resp.StatusCode), c.name, "biblio", fmt.Errorf("status %d", resp.StatusCode))
		}
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, provider.NewError(provider.KindContentMalformed, c.name, "biblio", err)
		}
		var parsed crossrefResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			return nil, provider.NewError(provider.KindContentMalformed, c.name, "biblio", err)
		}
		out := map[string]any{}
		if len(parsed.Message.Title) > 0 {
			out["title"] = parsed.Message.Title[0]
		}
		if len(parsed.Message.ContainerTitle) > 0 {
			out["journal"] = parsed.Message.ContainerTitle[0]
		}
		if len(parsed.Message.Published.DateParts) > 0 && len(parsed.Message.Published.DateParts[0]) > 0 {
			out["year"] = fmt.Sprintf("%d", parsed.Message.Published.DateParts[0][0])
		}
		return out, nil
	}
	return nil, provider.ErrNotImplemented(c.name, "biblio")
}

func (c *CrossRef) Metrics(ctx context.Context, aliases []item.Alias) (map[string]item.MetricSample, error) {
	return nil, provider.ErrNotImplemented(c.name, "metrics")
}
