package providers

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"golang.org/x/net/html"

	"altimpact.dev/item"
	"altimpact.dev/provider"
)

// Webpage is the Sniffer's fallback for unknown-namespace identifiers
// it resolves any id that looks like it has no home
// namespace into a `url` alias plus a scraped <title>. It provides no
// metrics of its own.
type Webpage struct {
	base
	Client provider.HTTPClient
}

func NewWebpage() *Webpage {
	return &Webpage{
		base:   base{name: "webpage", maxRetries: 2, baseSleep: time.Second},
		Client: provider.NewCachingHTTPClient(http.DefaultClient),
	}
}

func (w *Webpage) ProvidesAliases() bool { return true }
func (w *Webpage) ProvidesBiblio() bool  { return false }
func (w *Webpage) ProvidesMetrics() bool { return false }

// IsRelevantAlias accepts anything already namespaced `url`, plus bare
// identifiers under any namespace the Sniffer has decided it cannot
// otherwise resolve (the Sniffer only ever routes such ids here).
func (w *Webpage) IsRelevantAlias(a item.Alias) bool {
	return true
}

// extractTitle walks body as an HTML token stream and returns the text
// content of the first <title> element, if any. Scanning token-by-token
// means malformed markup (an unclosed tag, a stray '<' in a script) doesn't
// throw off extraction the way a single greedy regex would.
func extractTitle(body []byte) (string, bool) {
	z := html.NewTokenizer(strings.NewReader(string(body)))
	inTitle := false
	for {
		switch z.Next() {
		case html.ErrorToken:
			return "", false
		case html.StartTagToken:
			name, _ := z.TagName()
			inTitle = string(name) == "title"
		case html.TextToken:
			if inTitle {
				if title := strings.TrimSpace(string(z.Text())); title != "" {
					return title, true
				}
			}
		case html.EndTagToken:
			name, _ := z.TagName()
			if string(name) == "title" {
				inTitle = false
			}
		}
	}
}

func (w *Webpage) Aliases(ctx context.Context, aliases []item.Alias) ([]item.Alias, error) {
	for _, a := range aliases {
		target := a.ID
		if item.CanonicalNamespace(a.Namespace) != "url" {
			target = "http://" + a.ID
		}
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, provider.NewError(provider.KindContentMalformed, w.name, "aliases", err)
		}
		resp, err := w.Client.Do(req)
		if err != nil {
			return nil, provider.NewError(provider.KindTimeout, w.name, "aliases", err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			return nil, provider.NewError(provider.ClassifyHTTPStatus(resp.StatusCode), w.name, "aliases", fmt.Errorf("status %d", resp.StatusCode))
		}
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, provider.NewError(provider.KindContentMalformed, w.name, "aliases", err)
		}
		out := []item.Alias{{Namespace: "url", ID: target}}
		if title, ok := extractTitle(body); ok {
			out = append(out, item.Alias{Namespace: "title", ID: title})
		}
		return out, nil
	}
	return nil, provider.ErrNotImplemented(w.name, "aliases")
}

func (w *Webpage) Biblio(ctx context.Context, aliases []item.Alias) (map[string]any, error) {
	return nil, provider.ErrNotImplemented(w.name, "biblio")
}

func (w *Webpage) Metrics(ctx context.Context, aliases []item.Alias) (map[string]item.MetricSample, error) {
	return nil, provider.ErrNotImplemented(w.name, "metrics")
}
