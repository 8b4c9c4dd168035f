package providers

import (
	"context"
	"time"

	"altimpact.dev/item"
	"altimpact.dev/provider"
)

// Fake is a deterministic, network-free provider used exclusively by tests,
// grounded on the original codebase's fakes module: canned responses and
// optional scripted failures, never touching the network.
type Fake struct {
	base
	Relevant    func(item.Alias) bool
	AliasFn     func([]item.Alias) ([]item.Alias, error)
	BiblioFn    func([]item.Alias) (map[string]any, error)
	MetricsFn   func([]item.Alias) (map[string]item.MetricSample, error)
	HasAliases  bool
	HasBiblio   bool
	HasMetrics  bool
}

// NewFake builds a Fake named name with all three capability flags off;
// set HasAliases/HasBiblio/HasMetrics and the matching *Fn to opt in.
func NewFake(name string) *Fake {
	return &Fake{
		base:     base{name: name, maxRetries: 1, baseSleep: time.Millisecond},
		Relevant: func(item.Alias) bool { return true },
	}
}

func (f *Fake) ProvidesAliases() bool { return f.HasAliases }
func (f *Fake) ProvidesBiblio() bool  { return f.HasBiblio }
func (f *Fake) ProvidesMetrics() bool { return f.HasMetrics }

func (f *Fake) IsRelevantAlias(a item.Alias) bool {
	if f.Relevant == nil {
		return false
	}
	return f.Relevant(a)
}

func (f *Fake) Aliases(ctx context.Context, aliases []item.Alias) ([]item.Alias, error) {
	if f.AliasFn == nil {
		return nil, provider.ErrNotImplemented(f.name, "aliases")
	}
	return f.AliasFn(aliases)
}

func (f *Fake) Biblio(ctx context.Context, aliases []item.Alias) (map[string]any, error) {
	if f.BiblioFn == nil {
		return nil, provider.ErrNotImplemented(f.name, "biblio")
	}
	return f.BiblioFn(aliases)
}

func (f *Fake) Metrics(ctx context.Context, aliases []item.Alias) (map[string]item.MetricSample, error) {
	if f.MetricsFn == nil {
		return nil, provider.ErrNotImplemented(f.name, "metrics")
	}
	return f.MetricsFn(aliases)
}
