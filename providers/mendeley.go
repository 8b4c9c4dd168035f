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

// Mendeley contributes reader-count metrics for DOIs; it does not mint
// aliases or biblio.
type Mendeley struct {
	base
	Client  provider.HTTPClient
	BaseURL string
}

func NewMendeley() *Mendeley {
	return &Mendeley{
		base:    base{name: "mendeley", maxRetries: 2, baseSleep: 2 * time.Second},
		Client:  provider.NewCachingHTTPClient(http.DefaultClient),
		BaseURL: "https://api.mendeley.com/catalog",
	}
}

func (m *Mendeley) ProvidesAliases() bool { return false }
func (m *Mendeley) ProvidesBiblio() bool  { return false }
func (m *Mendeley) ProvidesMetrics() bool { return true }

func (m *Mendeley) IsRelevantAlias(a item.Alias) bool {
	return item.CanonicalNamespace(a.Namespace) == "doi"
}

func (m *Mendeley) Aliases(ctx context.Context, aliases []item.Alias) ([]item.Alias, error) {
	return nil, provider.ErrNotImplemented(m.name, "aliases")
}

func (m *Mendeley) Biblio(ctx context.Context, aliases []item.Alias) (map[string]any, error) {
	return nil, provider.ErrNotImplemented(m.name, "biblio")
}

type mendeleyCatalogResponse struct {
	Reader struct {
		Count int `json:"count"`
	} `json:"reader_count"`
}

func (m *Mendeley) Metrics(ctx context.Context, aliases []item.Alias) (map[string]item.MetricSample, error) {
	for _, a := range aliases {
		if !m.IsRelevantAlias(a) {
			continue
		}
		u := fmt.Sprintf("%s?doi=%s", m.BaseURL, url.QueryEscape(a.ID))
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return nil, provider.NewError(provider.KindUnknown, m.name, "metrics", err)
		}
		resp, err := m.Client.Do(req)
		if err != nil {
			return nil, provider.NewError(provider.KindTimeout, m.name, "metrics", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode == http.StatusNotFound {
			return map[string]item.MetricSample{}, nil
		}
		if resp.StatusCode != http.StatusOK {
			return nil, provider.NewError(provider.ClassifyHTTPStatus(resp.StatusCode), m.name, "metrics", fmt.Errorf("status %d", resp.StatusCode))
		}
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, provider.NewError(provider.KindContentMalformed, m.name, "metrics", err)
		}
		var parsed mendeleyCatalogResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			return nil, provider.NewError(provider.KindContentMalformed, m.name, "metrics", err)
		}
		if parsed.Reader.Count == 0 {
			return map[string]item.MetricSample{}, nil
		}
		return map[string]item.MetricSample{
			"readers": {Value: float64(parsed.Reader.Count), ProvenanceURL: u},
		}, nil
	}
	return map[string]item.MetricSample{}, nil
}
