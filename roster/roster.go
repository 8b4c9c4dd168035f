// Package roster loads the declarative provider roster file: which
// adapters are enabled and how many workers each gets, in the same
// JSON-LD "ItemList" shape this codebase's file-backed service registry
// already uses, repurposed from service endpoints to provider adapters.
package roster

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"altimpact.dev/provider"
)

// Entry is one provider's roster configuration.
type Entry struct {
	Name    string `json:"identifier"`
	Workers int    `json:"workers"`
	Enabled bool   `json:"enabled"`
}

type file struct {
	Context         string         `json:"@context"`
	Type            string         `json:"@type"`
	Identifier      string         `json:"identifier"`
	DateModified    string         `json:"dateModified"`
	ItemListElement []listItem     `json:"itemListElement"`
}

type listItem struct {
	Type     string `json:"@type"`
	Position int    `json:"position"`
	Item     *Entry `json:"item"`
}

// Default returns every shipped adapter enabled with a conservative
// default worker count, used when no roster file is present.
func Default() []Entry {
	names := []string{"dryad", "crossref", "mendeley", "pmc", "wikipedia", "github", "bibtex", "webpage"}
	entries := make([]Entry, len(names))
	for i, n := range names {
		entries[i] = Entry{Name: n, Workers: 1, Enabled: true}
	}
	return entries
}

// Load reads and parses the roster file at path. A missing file is not an
// error: callers get Default() instead, mirroring the existing registry's
// "not-yet-created is fine" load semantics.
func Load(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Default(), nil
		}
		return nil, fmt.Errorf("roster: read %s: %w", path, err)
	}

	var f file
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("roster: parse %s: %w", path, err)
	}

	entries := make([]Entry, 0, len(f.ItemListElement))
	for _, li := range f.ItemListElement {
		if li.Item != nil {
			entries = append(entries, *li.Item)
		}
	}
	return entries, nil
}

// Save writes entries to path in the same JSON-LD ItemList shape Load
// reads, for operators hand-editing worker counts between deploys.
func Save(path string, entries []Entry) error {
	f := file{
		Context:      "https://schema.org",
		Type:         "ItemList",
		Identifier:   "provider-roster",
		DateModified: time.Now().UTC().Format(time.RFC3339),
	}
	for i, e := range entries {
		entry := e
		f.ItemListElement = append(f.ItemListElement, listItem{Type: "ListItem", Position: i + 1, Item: &entry})
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return fmt.Errorf("roster: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("roster: write %s: %w", path, err)
	}
	return nil
}

// Select filters all down to the providers named by an enabled entry,
// preserving all's order (not the roster file's), since downstream phase
// ordering only depends on each provider's declared capabilities.
func Select(all []provider.Provider, entries []Entry) []provider.Provider {
	enabled := map[string]bool{}
	for _, e := range entries {
		if e.Enabled {
			enabled[e.Name] = true
		}
	}
	var out []provider.Provider
	for _, p := range all {
		if enabled[p.Name()] {
			out = append(out, p)
		}
	}
	return out
}

// WorkerCounts returns a provider-name -> worker-count map suitable for
// worker.Pool.Start's queues argument, falling back to defaultWorkers for any enabled
// entry that doesn't specify a positive count.
func WorkerCounts(entries []Entry, defaultWorkers int) map[string]int {
	out := map[string]int{}
	for _, e := range entries {
		if !e.Enabled {
			continue
		}
		n := e.Workers
		if n <= 0 {
			n = defaultWorkers
		}
		out[e.Name] = n
	}
	return out
}
