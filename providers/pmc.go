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

// PMC (PubMed Central) contributes a pmcid alias for pubmed ids and
// download-count metrics.
type PMC struct {
	base
	Client  provider.HTTPClient
	BaseURL string
}

func NewPMC() *PMC {
	return &PMC{
		base:    base{name: "pmc", maxRetries: 3, baseSleep: time.Second},
		Client:  provider.NewCachingHTTPClient(http.DefaultClient),
		BaseURL: "https://www.ncbi.nlm.nih.gov/pmc/utils",
	}
}

func (p *PMC) ProvidesAliases() bool { return true }
func (p *PMC) ProvidesBiblio() bool  { return false }
func (p *PMC) ProvidesMetrics() bool { return true }

func (p *PMC) IsRelevantAlias(a item.Alias) bool {
	ns := item.CanonicalNamespace(a.Namespace)
	return ns == "pmid" || ns == "pmcid"
}

type pmcIDConvResponse struct {
	Records []struct {
		PMCID string `json:"pmcid"`
	} `json:"records"`
}

func (p *PMC) Aliases(ctx context.Context, aliases []item.Alias) ([]item.Alias, error) {
	for _, a := range aliases {
		if item.CanonicalNamespace(a.Namespace) != "pmid" {
			continue
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/idconv/v1.0/?ids=%s", p.BaseURL, a.ID), nil)
		if err != nil {
			return nil, provider.NewError(provider.KindUnknown, p.name, "aliases", err)
		}
		resp, err := p.Client.Do(req)
		if err != nil {
			return nil, provider.NewError(provider.KindTimeout, p.name, "aliases", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, provider.NewError(provider.ClassifyHTTPStatus(resp.StatusCode), p.name, "aliases", fmt.Errorf("status %d", resp.StatusCode))
		}
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, provider.NewError(provider.KindContentMalformed, p.name, "aliases", err)
		}
		var parsed pmcIDConvResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			return nil, provider.NewError(provider.KindContentMalformed, p.name, "aliases", err)
		}
		if len(parsed.Records) == 0 || parsed.Records[0].PMCID == "" {
			return nil, nil
		}
		return []item.Alias{{Namespace: "pmcid", ID: parsed.Records[0].PMCID}}, nil
	}
	return nil, provider.ErrNotImplemented(p.name, "aliases")
}

func (p *PMC) Biblio(ctx context.Context, aliases []item.Alias) (map[string]any, error) {
	return nil, provider.ErrNotImplemented(p.name, "biblio")
}

type pmcUsageResponse struct {
	PDFDownloads int `json:"pdf_downloads"`
}

func (p *PMC) Metrics(ctx context.Context, aliases []item.Alias) (map[string]item.MetricSample, error) {
	for _, a := range aliases {
		if item.CanonicalNamespace(a.Namespace) != "pmcid" {
			continue
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fmt.Sprintf("%s/usage/%s", p.BaseURL, a.ID), nil)
		if err != nil {
			return nil, provider.NewError(provider.KindUnknown, p.name, "metrics", err)
		}
		resp, err := p.Client.Do(req)
		if err != nil {
			return nil, provider.NewError(provider.KindTimeout, p.name, "metrics", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, provider.NewError(provider.ClassifyHTTPStatus(resp.StatusCode), p.name, "metrics", fmt.Errorf("status %d", resp.StatusCode))
		}
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, provider.NewError(provider.KindContentMalformed, p.name, "metrics", err)
		}
		var parsed pmcUsageResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			return nil, provider.NewError(provider.KindContentMalformed, p.name, "metrics", err)
		}
		if parsed.PDFDownloads == 0 {
			return map[string]item.MetricSample{}, nil
		}
		return map[string]item.MetricSample{
			"pdf_downloads": {Value: float64(parsed.PDFDownloads), ProvenanceURL: req.URL.String()},
		}, nil
	}
	return map[string]item.MetricSample{}, nil
}
