// Package worker implements the interaction queue consumer: the process
// that drains queued interaction events into durable storage.
package worker

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/learnloop/learnloop-core/internal/domain/interaction"
	"github.com/learnloop/learnloop-core/internal/domain/shared"
	"github.com/learnloop/learnloop-core/pkg/logger"
	"github.com/learnloop/learnloop-core/pkg/retry"
)

// ══════════════════════════════════════════════════════════════════════════════
// CONSUMER
// ══════════════════════════════════════════════════════════════════════════════

// Config contains configuration for the consumer.
type Config struct {
	// BlockTimeout is how long a dequeue blocks before re-checking for
	// shutdown.
	BlockTimeout time.Duration

	// Concurrency is the number of parallel drain loops.
	Concurrency int

	// Logger for structured logging
	Logger *logger.Logger
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		BlockTimeout: 5 * time.Second,
		Concurrency:  4,
	}
}

// Consumer drains the interaction queue into the repository.
//
// Delivery from the queue is at-least-once: a crash after persist but
// before ack causes a redelivery. The repository absorbs duplicate IDs,
// so processing the same event twice is harmless, and an event is only
// acked after it is durably stored.
type Consumer struct {
	queue   interaction.Queue
	repo    interaction.Repository
	config  Config
	log     *logger.Logger
	retrier *retry.Retrier

	persisted  atomic.Int64
	duplicates atomic.Int64
	malformed  atomic.Int64
	rejected   atomic.Int64
}

// NewConsumer creates a consumer over a queue and repository.
func NewConsumer(queue interaction.Queue, repo interaction.Repository, config Config) *Consumer {
	if config.BlockTimeout <= 0 {
		config.BlockTimeout = 5 * time.Second
	}
	if config.Concurrency <= 0 {
		config.Concurrency = 1
	}
	if config.Logger == nil {
		config.Logger = logger.Default()
	}

	return &Consumer{
		queue:   queue,
		repo:    repo,
		config:  config,
		log:     config.Logger.With(logger.Component("interaction-consumer")),
		retrier: retry.DatabaseRetrier(),
	}
}

// Run recovers abandoned in-flight events and drains the queue until
// the context is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	recovered, err := c.queue.RecoverInFlight(ctx)
	if err != nil {
		return err
	}
	if recovered > 0 {
		c.log.Info("recovered in-flight interactions", logger.Int("recovered", recovered))
	}

	c.log.Info("consumer started",
		logger.Int("concurrency", c.config.Concurrency),
		logger.Duration("block_timeout", c.config.BlockTimeout),
	)

	var wg sync.WaitGroup
	for i := 0; i < c.config.Concurrency; i++ {
		wg.Add(1)
		go func(worker int) {
			defer wg.Done()
			c.drainLoop(ctx, worker)
		}(i)
	}
	wg.Wait()

	c.log.Info("consumer stopped",
		logger.Int64("persisted", c.persisted.Load()),
		logger.Int64("malformed", c.malformed.Load()),
		logger.Int64("rejected", c.rejected.Load()),
	)
	return nil
}

// drainLoop is a single worker's dequeue-persist-ack cycle.
func (c *Consumer) drainLoop(ctx context.Context, worker int) {
	log := c.log.With(logger.Int("worker", worker))

	for {
		if ctx.Err() != nil {
			return
		}

		data, err := c.queue.Dequeue(ctx, c.config.BlockTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Error("dequeue failed", logger.Err(err))
			// Back off so a dead Redis doesn't spin the loop.
			select {
			case <-ctx.Done():
				return
			case <-time.After(time.Second):
			}
			continue
		}
		if data == nil {
			continue
		}

		c.process(ctx, log, data)
	}
}

// process persists one queued event and acks it.
func (c *Consumer) process(ctx context.Context, log *logger.Logger, data []byte) {
	evt, err := interaction.Unmarshal(data)
	if err != nil {
		// Poison entry: it will never deserialize, so acking is the
		// only way to keep it from cycling through recovery forever.
		c.malformed.Add(1)
		log.Error("dropping malformed queue entry", logger.Err(err))
		if ackErr := c.queue.Ack(ctx, data); ackErr != nil {
			log.Error("failed to ack malformed entry", logger.Err(ackErr))
		}
		return
	}

	err = c.retrier.Do(ctx, func(ctx context.Context) error {
		if storeErr := c.repo.Store(ctx, evt); storeErr != nil {
			if shared.IsRetryable(storeErr) {
				return retry.Retryable(storeErr)
			}
			return retry.Permanent(storeErr)
		}
		return nil
	})
	switch {
	case err == nil:
		c.persisted.Add(1)
	case errors.Is(err, shared.ErrAlreadyProcessed):
		c.duplicates.Add(1)
	case errors.Is(err, shared.ErrInvalidEntity):
		// The event references a learner or node storage no longer
		// has. Retrying cannot repair that, so it is dropped like a
		// poison entry instead of cycling through recovery forever.
		c.rejected.Add(1)
		log.Error("dropping unstorable interaction",
			logger.InteractionID(evt.ID),
			logger.Err(err),
		)
	default:
		// Leave it in-flight: recovery requeues it on next startup.
		log.Error("failed to persist interaction",
			logger.InteractionID(evt.ID),
			logger.Err(err),
		)
		return
	}

	if err := c.queue.Ack(ctx, data); err != nil {
		// The event is stored; a redelivery dedupes against it.
		log.Warn("failed to ack interaction",
			logger.InteractionID(evt.ID),
			logger.Err(err),
		)
		return
	}

	log.Debug("interaction persisted",
		logger.InteractionID(evt.ID),
		logger.LearnerID(evt.LearnerID),
		logger.String("type", evt.Type.String()),
	)
}

// Stats is a snapshot of consumer counters.
type Stats struct {
	Persisted  int64
	Duplicates int64
	Malformed  int64
	Rejected   int64
}

// Stats returns the current counters.
func (c *Consumer) Stats() Stats {
	return Stats{
		Persisted:  c.persisted.Load(),
		Duplicates: c.duplicates.Load(),
		Malformed:  c.malformed.Load(),
		Rejected:   c.rejected.Load(),
	}
}
