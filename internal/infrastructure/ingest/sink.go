// Package ingest provides the two interaction.Sink implementations a
// deployment can wire: queue-backed or direct-to-storage.
package ingest

import (
	"context"

	"github.com/learnloop/learnloop-core/internal/domain/interaction"
)

// ══════════════════════════════════════════════════════════════════════════════
// QUEUED SINK
// ══════════════════════════════════════════════════════════════════════════════

// QueuedSink accepts interactions by enqueueing them; a separate
// consumer persists them later. Acceptance is durable once the
// enqueue returns.
type QueuedSink struct {
	queue interaction.Queue
}

// Compile-time interface check.
var _ interaction.Sink = (*QueuedSink)(nil)

// NewQueuedSink creates a sink over a queue.
func NewQueuedSink(queue interaction.Queue) *QueuedSink {
	return &QueuedSink{queue: queue}
}

// Accept serializes and enqueues the interaction.
func (s *QueuedSink) Accept(ctx context.Context, i *interaction.Interaction) error {
	data, err := i.Marshal()
	if err != nil {
		return err
	}
	return s.queue.Enqueue(ctx, data)
}

// ══════════════════════════════════════════════════════════════════════════════
// SYNC SINK
// ══════════════════════════════════════════════════════════════════════════════

// SyncSink accepts interactions by writing them straight to storage.
// Used by deployments that run without the queue and consumer.
type SyncSink struct {
	repo interaction.Repository
}

// Compile-time interface check.
var _ interaction.Sink = (*SyncSink)(nil)

// NewSyncSink creates a sink over a repository.
func NewSyncSink(repo interaction.Repository) *SyncSink {
	return &SyncSink{repo: repo}
}

// Accept stores the interaction in-call.
func (s *SyncSink) Accept(ctx context.Context, i *interaction.Interaction) error {
	return s.repo.Store(ctx, i)
}
