package provider

import (
	"context"
	"errors"

	"altimpact.dev/item"
	"github.com/sirupsen/logrus"
)

// Phase identifies which of a provider's three methods the envelope invokes.
type Phase string

const (
	PhaseAliases Phase = "aliases"
	PhaseBiblio  Phase = "biblio"
	PhaseMetrics Phase = "metrics"
)

// Outcome is the envelope's tri-state result: exactly one of Skipped,
// failure (Err != nil), or success (Err == nil, with the phase's result in
// Aliases, Biblio or Metrics). The envelope
// never lets a provider's error escape; this is always what callers get.
type Outcome struct {
	Skipped bool
	Err     error

	Aliases []item.Alias
	Biblio  map[string]any
	Metrics map[string]item.MetricSample
}

// Envelope wraps a single provider method invocation with classified error
// handling, bounded retries, exponential-ish backoff (delegated to the
// provider's own SleepTime schedule) and cache-bypass-on-retry semantics.
// The coroutine-style loop keeps explicit (attempt, lastError) state rather
// than recursing, so it is straightforward to unit test with a virtual clock.
type Envelope struct {
	Clock  Clock
	Logger *logrus.Logger
}

// NewEnvelope builds an envelope using a real clock and the given logger
// (or logrus's standard logger if nil).
func NewEnvelope(logger *logrus.Logger) *Envelope {
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Envelope{Clock: RealClock{}, Logger: logger}
}

// Run invokes p's method for phase against aliases, retrying on transient errors.
func (e *Envelope) Run(ctx context.Context, p Provider, phase Phase, aliases []item.Alias) Outcome {
	relevant := false
	for _, a := range aliases {
		if p.IsRelevantAlias(a) {
			relevant = true
			break
		}
	}
	if !relevant {
		return Outcome{Skipped: true}
	}

	errorCount := 0
	maxRetries := p.MaxRetries()
	for {
		select {
		case <-ctx.Done():
			return Outcome{Err: ctx.Err()}
		default:
		}

		// The first attempt may be served from a provider's response
		// cache; every retry bypasses it, since a cached response can't
		// tell us whether whatever made the previous attempt transient
		// has cleared.
		attemptCtx := WithCacheBypass(ctx, errorCount > 0)
		outcome, kind, err := e.invoke(attemptCtx, p, phase, aliases)
		if err == nil {
			return outcome
		}

		if kind == KindNotImplemented {
			return Outcome{Aliases: nil, Biblio: map[string]any{}, Metrics: map[string]item.MetricSample{}}
		}

		if !kind.Transient() {
			return Outcome{Err: err}
		}

		errorCount++
		if maxRetries >= 0 && errorCount > maxRetries {
			return Outcome{Err: err}
		}
		e.log(p, phase, err)
		e.Clock.Sleep(p.SleepTime(errorCount))
	}
}

func (e *Envelope) invoke(ctx context.Context, p Provider, phase Phase, aliases []item.Alias) (Outcome, ErrorKind, error) {
	switch phase {
	case PhaseAliases:
		result, err := p.Aliases(ctx, aliases)
		if err != nil {
			return Outcome{}, classify(err), err
		}
		return Outcome{Aliases: result}, KindUnknown, nil
	case PhaseBiblio:
		result, err := p.Biblio(ctx, aliases)
		if err != nil {
			return Outcome{}, classify(err), err
		}
		return Outcome{Biblio: result}, KindUnknown, nil
	case PhaseMetrics:
		result, err := p.Metrics(ctx, aliases)
		if err != nil {
			return Outcome{}, classify(err), err
		}
		return Outcome{Metrics: result}, KindUnknown, nil
	default:
		return Outcome{}, KindUnknown, errors.New("envelope: unknown phase")
	}
}

func classify(err error) ErrorKind {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindUnknown
}

func (e *Envelope) log(p Provider, phase Phase, err error) {
	var pe *ProviderError
	fields := logrus.Fields{"provider": p.Name(), "phase": string(phase)}
	if errors.As(err, &pe) {
		fields["kind"] = pe.Kind.String()
	}
	if !classify(err).Transient() {
		e.Logger.WithFields(fields).WithError(err).Error("provider call failed permanently")
		return
	}
	e.Logger.WithFields(fields).WithError(err).Warn("provider call failed, retrying")
}
