package sniffer

import (
	"testing"

	"altimpact.dev/item"
	"altimpact.dev/provider"
	"altimpact.dev/providers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRoster() []provider.Provider {
	dryad := providers.NewFake("dryad")
	dryad.HasAliases = true
	dryad.HasBiblio = true
	dryad.Relevant = func(a item.Alias) bool {
		return item.CanonicalNamespace(a.Namespace) == "doi"
	}

	wikipedia := providers.NewFake("wikipedia")
	wikipedia.HasMetrics = true
	wikipedia.Relevant = func(a item.Alias) bool { return true }

	webpage := providers.NewFake("webpage")
	webpage.HasAliases = true
	webpage.Relevant = func(a item.Alias) bool { return true }

	return []provider.Provider{dryad, wikipedia, webpage}
}

func TestRouteSchedulesAliasesFirst(t *testing.T) {
	aliases := item.NewAliasSet()
	aliases.Add(item.Alias{Namespace: "doi", ID: "10.5061/dryad.7898"})

	plan := Route(aliases, NewAlreadyRun(), testRoster())
	assert.Equal(t, []string{"dryad"}, plan.Aliases)
	assert.Empty(t, plan.Biblio)
	assert.Empty(t, plan.Metrics)
}

func TestRouteSchedulesBiblioAfterAliasesExhausted(t *testing.T) {
	aliases := item.NewAliasSet()
	aliases.Add(item.Alias{Namespace: "doi", ID: "10.5061/dryad.7898"})

	already := NewAlreadyRun()
	already.Aliases["dryad"] = true

	plan := Route(aliases, already, testRoster())
	assert.Equal(t, []string{"dryad"}, plan.Biblio)
	assert.Empty(t, plan.Metrics)
}

func TestRouteFansOutMetricsOnlyAfterFixedPoint(t *testing.T) {
	aliases := item.NewAliasSet()
	aliases.Add(item.Alias{Namespace: "doi", ID: "10.5061/dryad.7898"})

	already := NewAlreadyRun()
	already.Aliases["dryad"] = true
	already.Biblio["dryad"] = true

	plan := Route(aliases, already, testRoster())
	assert.Empty(t, plan.Aliases)
	assert.Empty(t, plan.Biblio)
	assert.ElementsMatch(t, []string{"wikipedia"}, plan.Metrics)
}

func TestRouteUnknownNamespaceFallsBackToWebpage(t *testing.T) {
	aliases := item.NewAliasSet()
	aliases.Add(item.Alias{Namespace: "foo", ID: "bar"})

	plan := Route(aliases, NewAlreadyRun(), testRoster())
	assert.Equal(t, []string{"webpage"}, plan.Aliases)
}

func TestRouteIsPure(t *testing.T) {
	aliases := item.NewAliasSet()
	aliases.Add(item.Alias{Namespace: "doi", ID: "10.5061/dryad.7898"})
	roster := testRoster()

	p1 := Route(aliases, NewAlreadyRun(), roster)
	p2 := Route(aliases, NewAlreadyRun(), roster)
	require.Equal(t, p1, p2)
}

func TestMetricProviderCount(t *testing.T) {
	assert.Equal(t, 1, MetricProviderCount(testRoster()))
}

func TestDoneProvidersForMetricsWhenNoAliasRelevant(t *testing.T) {
	onlyDOI := providers.NewFake("onlydoi")
	onlyDOI.HasMetrics = true
	onlyDOI.Relevant = func(a item.Alias) bool { return item.CanonicalNamespace(a.Namespace) == "doi" }

	aliases := item.NewAliasSet()
	aliases.Add(item.Alias{Namespace: "pmid", ID: "12345"})

	done := DoneProvidersForMetrics(aliases, []provider.Provider{onlyDOI})
	assert.Equal(t, []string{"onlydoi"}, done)
}
