// Package sniffer implements the pure, deterministic routing function that
// decides which providers run next for an item, in which phase.
package sniffer

import (
	"altimpact.dev/item"
	"altimpact.dev/provider"
)

// Plan is the sniffer's output: three disjoint provider-name lists, one per
// phase, naming what should be enqueued next.
type Plan struct {
	Aliases []string
	Biblio  []string
	Metrics []string
}

// AlreadyRun tracks, per phase, which provider names have already executed
// (successfully, permanently-failed, or skipped — any terminal outcome)
// during the current pipeline run for an item.
type AlreadyRun struct {
	Aliases map[string]bool
	Biblio  map[string]bool
	Metrics map[string]bool
}

// NewAlreadyRun returns an empty tracker.
func NewAlreadyRun() AlreadyRun {
	return AlreadyRun{
		Aliases: map[string]bool{},
		Biblio:  map[string]bool{},
		Metrics: map[string]bool{},
	}
}

// Route is the pure routing function for provider fan-out. Given the item's
// current aliases, which providers have already run this update (per
// phase), and the full provider roster, it returns the next providers to
// enqueue for each phase. Same inputs always produce the same output
// (invariant 5): Route never performs I/O and never mutates its arguments.
func Route(aliases *item.AliasSet, already AlreadyRun, roster []provider.Provider) Plan {
	plan := Plan{}

	// Phase 1: aliases. Schedule every alias-capable provider that is
	// relevant to at least one current alias and has not yet run.
	anyAliasCandidate := false
	for _, p := range roster {
		if !p.ProvidesAliases() {
			continue
		}
		if already.Aliases[p.Name()] {
			continue
		}
		if p.Name() == "webpage" {
			continue // webpage is the fallback, considered last (rule 2)
		}
		if relevantToAny(p, aliases) {
			plan.Aliases = append(plan.Aliases, p.Name())
			anyAliasCandidate = true
		}
	}

	// Rule 2: if nothing else can contribute aliases, fall back to webpage
	// when a URL is absent but some identifier of unknown origin exists.
	if !anyAliasCandidate && len(aliases.IDsFor("url")) == 0 && hasUnknownNamespaceAlias(aliases, roster) {
		for _, p := range roster {
			if p.Name() == "webpage" && p.ProvidesAliases() && !already.Aliases["webpage"] {
				plan.Aliases = append(plan.Aliases, "webpage")
			}
		}
	}

	if len(plan.Aliases) > 0 {
		return plan // aliases strictly precede biblio/metrics
	}

	// Phase 2: biblio, symmetric to aliases (no webpage fallback — biblio
	// has no equivalent "resolve a URL" special case).
	for _, p := range roster {
		if !p.ProvidesBiblio() {
			continue
		}
		if already.Biblio[p.Name()] {
			continue
		}
		if relevantToAny(p, aliases) {
			plan.Biblio = append(plan.Biblio, p.Name())
		}
	}

	if len(plan.Biblio) > 0 {
		return plan // biblio strictly precedes metrics
	}

	// Phase 3: metrics. Only reached once aliases and biblio are at a fixed
	// point: fan out to every metrics-capable provider relevant to any
	// current alias that has not already run.
	for _, p := range roster {
		if !p.ProvidesMetrics() {
			continue
		}
		if already.Metrics[p.Name()] {
			continue
		}
		if relevantToAny(p, aliases) {
			plan.Metrics = append(plan.Metrics, p.Name())
		}
	}

	return plan
}

func relevantToAny(p provider.Provider, aliases *item.AliasSet) bool {
	for _, a := range aliases.Tuples() {
		if p.IsRelevantAlias(a) {
			return true
		}
	}
	return false
}

// hasUnknownNamespaceAlias reports whether some alias other than a url or
// title is relevant to no alias- or biblio-capable roster provider (webpage
// itself aside); such an alias counts as "unknown" for rule 2's webpage
// fallback. Metrics-only providers do not make a namespace known.
func hasUnknownNamespaceAlias(aliases *item.AliasSet, roster []provider.Provider) bool {
	for _, a := range aliases.Tuples() {
		known := false
		for _, p := range roster {
			if p.Name() == "webpage" || (!p.ProvidesAliases() && !p.ProvidesBiblio()) {
				continue
			}
			if p.IsRelevantAlias(a) {
				known = true
				break
			}
		}
		if !known && a.Namespace != "url" && a.Namespace != "title" {
			return true
		}
	}
	return false
}

// DoneProvidersForMetrics returns every metrics-capable roster provider
// whose IsRelevantAlias does not hold for any current alias — these count
// as immediately "done" and should cause a Progress Registry
// decrement without ever being enqueued.
func DoneProvidersForMetrics(aliases *item.AliasSet, roster []provider.Provider) []string {
	var done []string
	for _, p := range roster {
		if !p.ProvidesMetrics() {
			continue
		}
		if !relevantToAny(p, aliases) {
			done = append(done, p.Name())
		}
	}
	return done
}

// MetricProviderCount returns the number of providers able to produce
// metrics at all (used to initialise the Progress Registry counter on
// admission, independent of current alias relevance).
func MetricProviderCount(roster []provider.Provider) int {
	n := 0
	for _, p := range roster {
		if p.ProvidesMetrics() {
			n++
		}
	}
	return n
}
