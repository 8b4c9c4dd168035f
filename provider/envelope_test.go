package provider

import (
	"context"
	"testing"
	"time"

	"altimpact.dev/item"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock records every requested sleep instead of blocking.
type fakeClock struct {
	slept []time.Duration
}

func (f *fakeClock) Sleep(d time.Duration) { f.slept = append(f.slept, d) }

// scriptedProvider returns a scripted sequence of (outcome, error) results
// for whichever phase method is invoked, one per call.
type scriptedProvider struct {
	name    string
	calls   int
	results []error
	relevant bool
	maxRetries int
}

func (s *scriptedProvider) Name() string            { return s.name }
func (s *scriptedProvider) ProvidesAliases() bool    { return true }
func (s *scriptedProvider) ProvidesBiblio() bool     { return true }
func (s *scriptedProvider) ProvidesMetrics() bool    { return true }
func (s *scriptedProvider) IsRelevantAlias(item.Alias) bool { return s.relevant }
func (s *scriptedProvider) MaxRetries() int          { return s.maxRetries }
func (s *scriptedProvider) SleepTime(errorCount int) time.Duration {
	return time.Duration(errorCount) * time.Second
}

func (s *scriptedProvider) next() error {
	err := s.results[s.calls]
	s.calls++
	return err
}

func (s *scriptedProvider) Aliases(ctx context.Context, aliases []item.Alias) ([]item.Alias, error) {
	if err := s.next(); err != nil {
		return nil, err
	}
	return []item.Alias{{Namespace: "url", ID: "http://x"}}, nil
}

func (s *scriptedProvider) Biblio(ctx context.Context, aliases []item.Alias) (map[string]any, error) {
	if err := s.next(); err != nil {
		return nil, err
	}
	return map[string]any{"year": "2010"}, nil
}

func (s *scriptedProvider) Metrics(ctx context.Context, aliases []item.Alias) (map[string]item.MetricSample, error) {
	if err := s.next(); err != nil {
		return nil, err
	}
	return map[string]item.MetricSample{"readers": {Value: 1}}, nil
}

func newTestEnvelope() (*Envelope, *fakeClock) {
	clock := &fakeClock{}
	logger := logrus.New()
	logger.SetOutput(testDiscard{})
	return &Envelope{Clock: clock, Logger: logger}, clock
}

type testDiscard struct{}

func (testDiscard) Write(p []byte) (int, error) { return len(p), nil }

func TestEnvelopeSkipsWhenNoRelevantAlias(t *testing.T) {
	env, _ := newTestEnvelope()
	p := &scriptedProvider{name: "dryad", relevant: false}
	out := env.Run(context.Background(), p, PhaseAliases, []item.Alias{{Namespace: "doi", ID: "x"}})
	assert.True(t, out.Skipped)
	assert.Equal(t, 0, p.calls)
}

func TestEnvelopeServerErrorThreeTimesThenSucceeds(t *testing.T) {
	env, clock := newTestEnvelope()
	p := &scriptedProvider{
		name: "dryad", relevant: true, maxRetries: 5,
		results: []error{
			NewError(KindServerError, "dryad", "aliases", assertErr),
			NewError(KindServerError, "dryad", "aliases", assertErr),
			NewError(KindServerError, "dryad", "aliases", assertErr),
			nil,
		},
	}
	out := env.Run(context.Background(), p, PhaseAliases, []item.Alias{{Namespace: "doi", ID: "x"}})
	require.NoError(t, out.Err)
	require.False(t, out.Skipped)
	assert.Len(t, clock.slept, 3)
	assert.Equal(t, []item.Alias{{Namespace: "url", ID: "http://x"}}, out.Aliases)
}

func TestEnvelopeClientErrorFailsImmediately(t *testing.T) {
	env, clock := newTestEnvelope()
	p := &scriptedProvider{
		name: "dryad", relevant: true, maxRetries: 5,
		results: []error{NewError(KindClientError, "dryad", "aliases", assertErr)},
	}
	out := env.Run(context.Background(), p, PhaseAliases, []item.Alias{{Namespace: "doi", ID: "x"}})
	require.Error(t, out.Err)
	assert.Empty(t, clock.slept)
}

func TestEnvelopeNotImplementedIsEmptySuccess(t *testing.T) {
	env, _ := newTestEnvelope()
	p := &scriptedProvider{
		name: "dryad", relevant: true, maxRetries: 5,
		results: []error{ErrNotImplemented("dryad", "biblio")},
	}
	out := env.Run(context.Background(), p, PhaseBiblio, []item.Alias{{Namespace: "doi", ID: "x"}})
	require.NoError(t, out.Err)
	assert.False(t, out.Skipped)
	assert.Empty(t, out.Biblio)
}

func TestEnvelopeMaxRetriesExhausted(t *testing.T) {
	env, clock := newTestEnvelope()
	p := &scriptedProvider{
		name: "dryad", relevant: true, maxRetries: 2,
		results: []error{
			NewError(KindTimeout, "dryad", "aliases", assertErr),
			NewError(KindTimeout, "dryad", "aliases", assertErr),
			NewError(KindTimeout, "dryad", "aliases", assertErr),
		},
	}
	out := env.Run(context.Background(), p, PhaseAliases, []item.Alias{{Namespace: "doi", ID: "x"}})
	require.Error(t, out.Err)
	assert.Len(t, clock.slept, 2)
}

var assertErr = context.DeadlineExceeded
