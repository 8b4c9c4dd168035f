// Package providers ships concrete Provider Adapter implementations:
// Dryad, CrossRef, Mendeley, PubMed Central, Wikipedia, GitHub, Bibtex, a
// generic Webpage fallback, and a deterministic Fake used by tests.
package providers

import (
	"regexp"
	"time"

	"altimpact.dev/provider"
)

// base centralises the retry-parameter plumbing shared by every concrete
// adapter; concrete providers embed it and override only what they need.
type base struct {
	name       string
	maxRetries int
	baseSleep  time.Duration
}

func (b base) Name() string { return b.name }

func (b base) MaxRetries() int {
	if b.maxRetries == 0 {
		return 2
	}
	return b.maxRetries
}

func (b base) SleepTime(errorCount int) time.Duration {
	sleep := b.baseSleep
	if sleep == 0 {
		sleep = 500 * time.Millisecond
	}
	d := sleep
	for i := 1; i < errorCount; i++ {
		d *= 2
	}
	const cap = 30 * time.Second
	if d > cap {
		d = cap
	}
	return d
}

var dryadDOIPrefix = regexp.MustCompile(`^10\.5061/dryad\.`)

// Default builds the standard roster used in production: one instance of
// every concrete adapter below.
func Default() []provider.Provider {
	return []provider.Provider{
		NewDryad(),
		NewCrossRef(),
		NewMendeley(),
		NewPMC(),
		NewWikipedia(),
		NewGitHub(),
		NewBibtex(),
		NewWebpage(),
	}
}
