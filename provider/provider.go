// Package provider defines the uniform capability set every altimpact
// provider plugin implements, and the retry envelope that wraps every call
// into one of it.
package provider

import (
	"context"
	"net/http"
	"time"

	"altimpact.dev/item"
)

// HTTPClient is the minimal surface providers need from an HTTP transport,
// dependency-injected so tests substitute a fake instead of dialing out.
type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Provider is the fixed capability set every plugin implements. Providers
// participate in any subset of aliases/biblio/metrics; the three methods
// are independent rather than inherited, so a provider that only supplies
// metrics leaves Aliases/Biblio returning ErrNotImplemented.
type Provider interface {
	Name() string

	ProvidesAliases() bool
	ProvidesBiblio() bool
	ProvidesMetrics() bool

	// IsRelevantAlias declares whether this provider can act on a given
	// alias at all (independent of which phase is being run).
	IsRelevantAlias(a item.Alias) bool

	Aliases(ctx context.Context, aliases []item.Alias) ([]item.Alias, error)
	Biblio(ctx context.Context, aliases []item.Alias) (map[string]any, error)
	Metrics(ctx context.Context, aliases []item.Alias) (map[string]item.MetricSample, error)

	// MaxRetries returns the bounded retry count for transient failures;
	// -1 means retry indefinitely (subject to context cancellation).
	MaxRetries() int
	// SleepTime returns how long to sleep before the (errorCount+1)'th
	// attempt. Exposed as a method (not a free function) so tests can
	// swap in a zero-delay provider implementation.
	SleepTime(errorCount int) time.Duration
}

// Clock abstracts time.Sleep so the retry envelope is testable without
// burning wall-clock time; production code uses RealClock.
type Clock interface {
	Sleep(d time.Duration)
}

// RealClock sleeps for real.
type RealClock struct{}

// Sleep blocks for d.
func (RealClock) Sleep(d time.Duration) { time.Sleep(d) }
