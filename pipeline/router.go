package pipeline

import (
	"context"
	"fmt"

	"altimpact.dev/item"
	"altimpact.dev/provider"
	"altimpact.dev/sniffer"
	"altimpact.dev/workqueue"
)

// alreadyRun rebuilds a sniffer.AlreadyRun from an item's persisted
// per-phase completion record.
func alreadyRun(it *item.Item) sniffer.AlreadyRun {
	return sniffer.AlreadyRun{
		Aliases: it.CompletedSet("aliases"),
		Biblio:  it.CompletedSet("biblio"),
		Metrics: it.CompletedSet("metrics"),
	}
}

// route re-derives the next plan for it and enqueues a Job for each
// scheduled provider onto its provider-named queue. It never touches
// providers absent from roster and is safe to call repeatedly: a provider
// already marked completed for a phase is never re-scheduled (sniffer.Route
// invariant 5).
func route(ctx context.Context, q workqueue.Queue, roster []provider.Provider, it *item.Item) (sniffer.Plan, error) {
	plan := sniffer.Route(it.AliasSet(), alreadyRun(it), roster)

	if err := enqueuePhase(ctx, q, it.TIID, provider.PhaseAliases, plan.Aliases); err != nil {
		return plan, err
	}
	if err := enqueuePhase(ctx, q, it.TIID, provider.PhaseBiblio, plan.Biblio); err != nil {
		return plan, err
	}
	if err := enqueuePhase(ctx, q, it.TIID, provider.PhaseMetrics, plan.Metrics); err != nil {
		return plan, err
	}
	return plan, nil
}

func enqueuePhase(ctx context.Context, q workqueue.Queue, tiid string, phase provider.Phase, providerNames []string) error {
	for _, name := range providerNames {
		job := Job{TIID: tiid, Provider: name, Phase: phase}
		payload, err := job.Encode()
		if err != nil {
			return err
		}
		if err := q.Enqueue(ctx, name, payload); err != nil {
			return fmt.Errorf("pipeline: enqueue %s/%s for %s: %w", phase, name, tiid, err)
		}
	}
	return nil
}
