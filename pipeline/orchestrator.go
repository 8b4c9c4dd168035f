package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"altimpact.dev/progress"
	"altimpact.dev/provider"
	"altimpact.dev/sniffer"
	"altimpact.dev/store"
	"altimpact.dev/workqueue"
)

// Orchestrator owns admission: discovering items awaiting their first
// routing pass, seeding the Progress Registry, and handing them to the
// alias pre-queue (the admission step and registry seeding).
type Orchestrator struct {
	Store    store.Store
	Queue    workqueue.Queue
	Registry progress.Registry
	Roster   []provider.Provider
	Logger   *logrus.Logger
}

// AdmitPending scans for items whose needs_aliases marker is still set,
// seeds their metrics-provider countdown, immediately retires any
// metrics-capable provider that is already irrelevant to their current
// aliases, clears the marker, and enqueues them onto the alias pre-queue.
func (o *Orchestrator) AdmitPending(ctx context.Context) (int, error) {
	tiids, err := o.Store.ItemsNeedingAliases(ctx)
	if err != nil {
		return 0, fmt.Errorf("pipeline: list pending admissions: %w", err)
	}

	admitted := 0
	for _, tiid := range tiids {
		if err := o.admitOne(ctx, tiid); err != nil {
			o.Logger.WithField("tiid", tiid).WithError(err).Error("admission failed")
			continue
		}
		admitted++
	}
	return admitted, nil
}

func (o *Orchestrator) admitOne(ctx context.Context, tiid string) error {
	it, err := o.Store.GetItem(ctx, tiid)
	if err != nil {
		return fmt.Errorf("load %s: %w", tiid, err)
	}
	if it.NeedsAliases == nil {
		return nil // raced with another admission pass; nothing to do
	}

	// A refresh (POST /collection/:cid, or any re-admission of an item
	// that already ran a full pipeline cycle) must start every phase's
	// completion tracking from scratch: otherwise the Sniffer sees every
	// provider that finished the *previous* cycle as already-done and
	// never re-enqueues them, while the registry below still counts them
	// toward the new countdown, which then never reaches zero.
	it.Completed = nil

	if err := o.Registry.Set(ctx, tiid, sniffer.MetricProviderCount(o.Roster)); err != nil {
		return fmt.Errorf("seed registry for %s: %w", tiid, err)
	}

	aliases := it.AliasSet()
	for _, name := range sniffer.DoneProvidersForMetrics(aliases, o.Roster) {
		it.MarkCompleted(string(provider.PhaseMetrics), name)
		if _, err := o.Registry.Decr(ctx, tiid); err != nil {
			return fmt.Errorf("retire irrelevant provider %s for %s: %w", name, tiid, err)
		}
	}

	it.NeedsAliases = nil
	it.Touch()
	if err := o.Store.SaveItem(ctx, it); err != nil {
		return fmt.Errorf("save %s after admission: %w", tiid, err)
	}

	if err := o.Queue.Enqueue(ctx, workqueue.AliasQueueName, tiid); err != nil {
		return fmt.Errorf("enqueue %s onto alias pre-queue: %w", tiid, err)
	}
	return nil
}

// AliasRouter dequeues bare tiids from the alias pre-queue and performs the
// item's first sniffer routing pass, fanning out onto provider-named
// queues. It implements worker.JobProcessor so a Pool can run several of
// these concurrently; queueName is ignored since this processor only ever
// serves workqueue.AliasQueueName.
type AliasRouter struct {
	Store  store.Store
	Queue  workqueue.Queue
	Roster []provider.Provider
	Logger *logrus.Logger
}

func (a *AliasRouter) Process(ctx context.Context, queueName, tiid string) error {
	it, err := a.Store.GetItem(ctx, tiid)
	if err != nil {
		return fmt.Errorf("alias router: load %s: %w", tiid, err)
	}
	if _, err := route(ctx, a.Queue, a.Roster, it); err != nil {
		return fmt.Errorf("alias router: route %s: %w", tiid, err)
	}
	return nil
}

// RunAliasRouter blocks, repeatedly dequeuing from the alias pre-queue and
// routing, until ctx is cancelled. Intended to run in its own goroutine.
func RunAliasRouter(ctx context.Context, r *AliasRouter, wait time.Duration) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}
		tiid, ok, err := r.Queue.Dequeue(ctx, workqueue.AliasQueueName, wait)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			r.Logger.WithError(err).Warn("alias pre-queue dequeue failed")
			continue
		}
		if !ok {
			continue
		}
		if err := r.Process(ctx, workqueue.AliasQueueName, tiid); err != nil {
			r.Logger.WithField("tiid", tiid).WithError(err).Error("alias routing failed")
		}
	}
}
