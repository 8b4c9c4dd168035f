package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"altimpact.dev/item"
	"altimpact.dev/provider"
)

// Wikipedia is a metrics-only provider: it counts mentions of a DOI or URL
// across Wikipedia article text via the search API. Relevant only to doi
// and url aliases.
type Wikipedia struct {
	base
	Client  provider.HTTPClient
	BaseURL string
}

func NewWikipedia() *Wikipedia {
	return &Wikipedia{
		base:    base{name: "wikipedia", maxRetries: 2, baseSleep: time.Second},
		Client:  provider.NewCachingHTTPClient(http.DefaultClient),
		BaseURL: "https://en.wikipedia.org/w/api.php",
	}
}

func (w *Wikipedia) ProvidesAliases() bool { return false }
func (w *Wikipedia) ProvidesBiblio() bool  { return false }
func (w *Wikipedia) ProvidesMetrics() bool { return true }

func (w *Wikipedia) IsRelevantAlias(a item.Alias) bool {
	ns := item.CanonicalNamespace(a.Namespace)
	return ns == "doi" || ns == "url"
}

func (w *Wikipedia) Aliases(ctx context.Context, aliases []item.Alias) ([]item.Alias, error) {
	return nil, provider.ErrNotImplemented(w.name, "aliases")
}

func (w *Wikipedia) Biblio(ctx context.Context, aliases []item.Alias) (map[string]any, error) {
	return nil, provider.ErrNotImplemented(w.name, "biblio")
}

type wikipediaSearchResponse struct {
	Query struct {
		SearchInfo struct {
			TotalHits int `json:"totalhits"`
		} `json:"searchinfo"`
	} `json:"query"`
}

func (w *Wikipedia) Metrics(ctx context.Context, aliases []item.Alias) (map[string]item.MetricSample, error) {
	for _, a := range aliases {
		if !w.IsRelevantAlias(a) {
			continue
		}
		q := url.Values{}
		q.Set("action", "query")
		q.Set("list", "search")
		q.Set("format", "json")
		q.Set("srsearch", a.ID)
		u := w.BaseURL + "?" + q.Encode()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, provider.NewError(provider.KindUnknown, w.name, "metrics", err)
		}
		resp, err := w.Client.Do(req)
		if err != nil {
			return nil, provider.NewError(provider.KindTimeout, w.name, "metrics", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, provider.NewError(provider.ClassifyHTTPStatus(resp.StatusCode), w.name, "metrics", fmt.Errorf("status %d", resp.StatusCode))
		}
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, provider.NewError(provider.KindContentMalformed, w.name, "metrics", err)
		}
		var parsed wikipediaSearchResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			return nil, provider.NewError(provider.KindContentMalformed, w.name, "metrics", err)
		}
		if parsed.Query.SearchInfo.TotalHits == 0 {
			return map[string]item.MetricSample{}, nil
		}
		return map[string]item.MetricSample{
			"mentions": {Value: float64(parsed.Query.SearchInfo.TotalHits), ProvenanceURL: u},
		}, nil
	}
	return map[string]item.MetricSample{}, nil
}
