package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/learnloop/learnloop-core/internal/domain/shared"
)

// ══════════════════════════════════════════════════════════════════════════════
// INTERACTION QUEUE
// ══════════════════════════════════════════════════════════════════════════════

// Queue is a Redis list-based reliable queue implementing
// interaction.Queue.
//
// Producers LPUSH onto the main list. The consumer BLMOVEs an entry to
// a per-queue processing list, persists it, then LREMs it from the
// processing list as the ack. A crash between move and ack leaves the
// entry in the processing list; RecoverInFlight pushes those back at
// startup, which yields at-least-once delivery. The consumer's dedupe
// on event ID turns that into exactly-once storage.
type Queue struct {
	client *redis.Client
	main   string
	proc   string
}

// NewQueue creates a queue with the given name.
func NewQueue(client *redis.Client, name string) *Queue {
	return &Queue{
		client: client,
		main:   PrefixQueue + name,
		proc:   PrefixQueue + name + ":processing",
	}
}

// Enqueue pushes a serialized interaction onto the queue.
func (q *Queue) Enqueue(ctx context.Context, data []byte) error {
	if err := q.client.LPush(ctx, q.main, data).Err(); err != nil {
		return shared.WrapError("interaction", "Enqueue", shared.ErrServiceUnavailable, "failed to enqueue", err)
	}
	return nil
}

// Dequeue blocks up to timeout for the next entry and moves it to the
// processing list. Returns (nil, nil) when the timeout expires with an
// empty queue.
func (q *Queue) Dequeue(ctx context.Context, timeout time.Duration) ([]byte, error) {
	data, err := q.client.BLMove(ctx, q.main, q.proc, "RIGHT", "LEFT", timeout).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, shared.WrapError("interaction", "Dequeue", shared.ErrServiceUnavailable, "failed to dequeue", err)
	}
	return data, nil
}

// Ack removes a processed entry from the processing list.
func (q *Queue) Ack(ctx context.Context, data []byte) error {
	if err := q.client.LRem(ctx, q.proc, 1, data).Err(); err != nil {
		return shared.WrapError("interaction", "Ack", shared.ErrServiceUnavailable, "failed to ack", err)
	}
	return nil
}

// RecoverInFlight moves abandoned in-flight entries back to the main
// queue. Called once at consumer startup, before the drain loop, so a
// previous crash cannot strand events.
func (q *Queue) RecoverInFlight(ctx context.Context) (int, error) {
	recovered := 0
	for {
		err := q.client.LMove(ctx, q.proc, q.main, "RIGHT", "LEFT").Err()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				return recovered, nil
			}
			return recovered, fmt.Errorf("failed to recover in-flight entries: %w", err)
		}
		recovered++
	}
}

// Len returns the current queue depth (main list only).
func (q *Queue) Len(ctx context.Context) (int64, error) {
	n, err := q.client.LLen(ctx, q.main).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get queue length: %w", err)
	}
	return n, nil
}

// InFlight returns the number of entries currently being processed.
func (q *Queue) InFlight(ctx context.Context) (int64, error) {
	n, err := q.client.LLen(ctx, q.proc).Result()
	if err != nil {
		return 0, fmt.Errorf("failed to get in-flight length: %w", err)
	}
	return n, nil
}
