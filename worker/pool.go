// Package worker runs a configurable number of goroutines per named queue,
// each pulling payloads from a Queue and handing them to a JobProcessor.
// Retry state lives in the provider envelope, not here, so a worker never
// acknowledges, requeues, or fails a job explicitly: it processes and loops.
package worker

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"altimpact.dev/workqueue"
)

// JobProcessor handles one dequeued payload pulled from queueName.
type JobProcessor interface {
	Process(ctx context.Context, queueName, payload string) error
}

// Config tunes a Pool's dequeue behaviour; which queues to run and how many
// workers each gets is passed to Start, since that's usually derived from
// the provider roster at startup rather than fixed at construction time.
type Config struct {
	DequeueWait time.Duration // defaults to 5s
}

// Pool runs a configurable number of goroutines per named queue against a
// single JobProcessor.
type Pool struct {
	queue     workqueue.Queue
	processor JobProcessor
	logger    *logrus.Logger
	wait      time.Duration

	wg   sync.WaitGroup
	stop chan struct{}
}

// NewPool builds a pool pulling from queue and dispatching to processor.
func NewPool(queue workqueue.Queue, processor JobProcessor, cfg Config, logger *logrus.Logger) *Pool {
	wait := cfg.DequeueWait
	if wait <= 0 {
		wait = 5 * time.Second
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Pool{queue: queue, processor: processor, logger: logger, wait: wait, stop: make(chan struct{})}
}

// Start launches queues[name] workers per named queue; returns immediately,
// workers run until ctx is cancelled or Stop is called.
func (p *Pool) Start(ctx context.Context, queues map[string]int) {
	for name, n := range queues {
		for i := 0; i < n; i++ {
			p.wg.Add(1)
			go p.runWorker(ctx, name, i)
		}
	}
}

func (p *Pool) runWorker(ctx context.Context, queueName string, id int) {
	defer p.wg.Done()
	for {
		select {
		case <-p.stop:
			return
		case <-ctx.Done():
			return
		default:
		}

		payload, ok, err := p.queue.Dequeue(ctx, queueName, p.wait)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.WithField("queue", queueName).WithError(err).Warn("dequeue failed")
			continue
		}
		if !ok {
			continue // timed out, no job available
		}

		if err := p.processor.Process(ctx, queueName, payload); err != nil {
			p.logger.WithFields(logrus.Fields{"queue": queueName, "worker": id}).
				WithError(err).Error("job processing failed")
		}
	}
}

// Stop signals every worker to exit and waits for them to drain.
func (p *Pool) Stop() {
	close(p.stop)
	p.wg.Wait()
}
