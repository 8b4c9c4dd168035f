package providers

import (
	"bufio"
	"context"
	"errors"
	"strings"
	"time"

	"altimpact.dev/item"
	"altimpact.dev/provider"
)

// Bibtex contributes biblio fields parsed out of a `biblio` namespace alias
// holding a raw .bib entry (the original total-impact-core accepted bibtex
// payloads directly as an alias rather than fetching them). It never
// mints new aliases or metrics, and never performs network I/O.
type Bibtex struct {
	base
}

func NewBibtex() *Bibtex {
	return &Bibtex{base: base{name: "bibtex", maxRetries: 0, baseSleep: time.Millisecond}}
}

func (b *Bibtex) ProvidesAliases() bool { return false }
func (b *Bibtex) ProvidesBiblio() bool  { return true }
func (b *Bibtex) ProvidesMetrics() bool { return false }

func (b *Bibtex) IsRelevantAlias(a item.Alias) bool {
	return item.CanonicalNamespace(a.Namespace) == "biblio"
}

func (b *Bibtex) Aliases(ctx context.Context, aliases []item.Alias) ([]item.Alias, error) {
	return nil, provider.ErrNotImplemented(b.name, "aliases")
}

// parseBibtexFields extracts `key = {value}` or `key = "value"` pairs from
// a single bibtex entry body; a minimal, dependency-free parser sufficient
// for the fields this system cares about (title, year, journal, author).
func parseBibtexFields(raw string) map[string]any {
	out := map[string]any{}
	scanner := bufio.NewScanner(strings.NewReader(raw))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		eq := strings.Index(line, "=")
		if eq < 0 {
			continue
		}
		key := strings.ToLower(strings.TrimSpace(line[:eq]))
		val := strings.TrimSpace(line[eq+1:])
		val = strings.Trim(val, "{}\",")
		if key == "" || val == "" {
			continue
		}
		out[key] = val
	}
	return out
}

func (b *Bibtex) Biblio(ctx context.Context, aliases []item.Alias) (map[string]any, error) {
	for _, a := range aliases {
		if !b.IsRelevantAlias(a) {
			continue
		}
		fields := parseBibtexFields(a.ID)
		if len(fields) == 0 {
			return nil, provider.NewError(provider.KindContentMalformed, b.name, "biblio", errors.New("no recognisable bibtex fields"))
		}
		return fields, nil
	}
	return nil, provider.ErrNotImplemented(b.name, "biblio")
}

func (b *Bibtex) Metrics(ctx context.Context, aliases []item.Alias) (map[string]item.MetricSample, error) {
	return nil, provider.ErrNotImplemented(b.name, "metrics")
}
