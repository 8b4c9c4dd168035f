// Package workqueue implements the Work Queue: one logical FIFO per
// provider name plus a distinguished "aliases" pre-queue, grounded on this
// codebase's existing Redis-backed job queue (BLPop/RPush), simplified to
// carry plain string payloads (a bare tiid on the pre-queue, an encoded
// pipeline job on a provider queue) since per-job retry state lives in the
// Retry Envelope rather than the queue itself.
package workqueue

import (
	"context"
	"time"
)

// AliasQueueName is the distinguished pre-alias queue the Orchestrator's
// admission step enqueues onto.
const AliasQueueName = "aliases"

// Queue is a durable, at-least-once FIFO keyed by queue name (a provider
// name, or AliasQueueName). At-least-once delivery is acceptable because
// every merge operation downstream is idempotent.
type Queue interface {
	// Enqueue appends tiid to the named queue.
	Enqueue(ctx context.Context, queueName, tiid string) error
	// Dequeue blocks up to timeout for an item; ok is false on timeout.
	Dequeue(ctx context.Context, queueName string, timeout time.Duration) (tiid string, ok bool, err error)
	// Size returns the current queue depth.
	Size(ctx context.Context, queueName string) (int64, error)
}
