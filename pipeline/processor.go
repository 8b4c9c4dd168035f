package pipeline

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"altimpact.dev/item"
	"altimpact.dev/progress"
	"altimpact.dev/provider"
	"altimpact.dev/store"
	"altimpact.dev/workqueue"
)

// maxSaveAttempts bounds the read-modify-write retry loop in Process: the
// merge rules are commutative, so a losing writer just reloads the latest
// revision and replays its own merge, but a ceiling keeps a pathologically
// hot item from retrying forever.
const maxSaveAttempts = 10

// Processor runs one provider-phase Job: invoke the provider through the
// retry envelope, merge whatever it returned, record completion, and
// re-route the item so the next phase (or fan-out) is scheduled the moment
// this one reaches a terminal outcome — no central scheduler tick required
// (the coalescing/termination behaviour falls out of this being called
// after every single job).
type Processor struct {
	Store    store.Store
	Queue    workqueue.Queue
	Registry progress.Registry
	Envelope *provider.Envelope
	Roster   map[string]provider.Provider
	Logger   *logrus.Logger
}

// Process implements worker.JobProcessor. queueName is the provider name
// the job was dequeued from, which always equals the decoded job's
// Provider field.
func (p *Processor) Process(ctx context.Context, queueName, payload string) error {
	job, err := DecodeJob(payload)
	if err != nil {
		return err
	}

	prov, ok := p.Roster[job.Provider]
	if !ok {
		return fmt.Errorf("pipeline: unknown provider %q in job for %s", job.Provider, job.TIID)
	}

	it, err := p.Store.GetItem(ctx, job.TIID)
	if err != nil {
		return fmt.Errorf("pipeline: load %s: %w", job.TIID, err)
	}
	// route schedules every relevant provider that has not completed yet,
	// so the same (provider, phase) can be enqueued twice; a job whose
	// provider already completed this phase is dropped rather than merged
	// and counted again.
	if it.CompletedSet(string(job.Phase))[job.Provider] {
		return nil
	}

	outcome := p.Envelope.Run(ctx, prov, job.Phase, it.AliasSet().Tuples())

	// Concurrent metrics (or biblio) workers race to save the same item.
	// The merge rules are all commutative, so on an optimistic-concurrency
	// conflict the losing writer just reloads the latest revision and
	// replays its own merge against it, rather than discarding outcome.
	for attempt := 0; ; attempt++ {
		p.applyOutcome(it, job, outcome)
		it.MarkCompleted(string(job.Phase), job.Provider)

		saveErr := p.Store.SaveItem(ctx, it)
		if saveErr == nil {
			break
		}
		if !errors.Is(saveErr, store.ErrConflict) || attempt >= maxSaveAttempts-1 {
			return fmt.Errorf("pipeline: save %s: %w", job.TIID, saveErr)
		}
		it, err = p.Store.GetItem(ctx, job.TIID)
		if err != nil {
			return fmt.Errorf("pipeline: reload %s after conflict: %w", job.TIID, err)
		}
		if it.CompletedSet(string(job.Phase))[job.Provider] {
			return nil
		}
	}

	// Only decrement once the merge has actually landed, so a reader who
	// observes the registry at zero is guaranteed to see this provider's
	// contribution if they then read the item.
	if job.Phase == provider.PhaseMetrics {
		if _, err := p.Registry.Decr(ctx, job.TIID); err != nil {
			p.Logger.WithField("tiid", job.TIID).WithError(err).Warn("registry decrement failed")
		}
	}

	if _, err := route(ctx, p.Queue, rosterSlice(p.Roster), it); err != nil {
		return fmt.Errorf("pipeline: re-route %s: %w", job.TIID, err)
	}
	return nil
}

func (p *Processor) applyOutcome(it *item.Item, job Job, outcome provider.Outcome) {
	if outcome.Skipped {
		return
	}
	if outcome.Err != nil {
		p.Logger.WithFields(logrus.Fields{
			"tiid": job.TIID, "provider": job.Provider, "phase": job.Phase,
		}).WithError(outcome.Err).Error("provider phase failed permanently")
		return
	}
	switch job.Phase {
	case provider.PhaseAliases:
		it.MergeAliases(outcome.Aliases)
	case provider.PhaseBiblio:
		it.MergeBiblio(outcome.Biblio)
	case provider.PhaseMetrics:
		it.MergeMetrics(job.Provider, outcome.Metrics)
	}
}

func rosterSlice(byName map[string]provider.Provider) []provider.Provider {
	out := make([]provider.Provider, 0, len(byName))
	for _, p := range byName {
		out = append(out, p)
	}
	return out
}
