package relay

import (
	"context"
	"log/slog"
	"sync"

	"github.com/lightcade/lightcade/internal/model"
)

// Queue is the slice of the score ledger the relay drives. The ledger
// implements it.
type Queue interface {
	SnapshotAndClearQueue(ctx context.Context) ([]model.QueueEntry, error)
	ResubmitEntry(ctx context.Context, entry model.QueueEntry) error
	Requeue(ctx context.Context, entries []model.QueueEntry) error
}

// Relay replays queued score submissions when connectivity returns. It is
// event-driven only: nothing polls, nothing retries in a loop. Notify is the
// connectivity-restored signal.
type Relay struct {
	queue  Queue
	logger *slog.Logger

	mu      sync.Mutex
	running bool
	pending bool
	wg      sync.WaitGroup
}

// New creates a relay for the given queue
func New(queue Queue, logger *slog.Logger) *Relay {
	return &Relay{
		queue:  queue,
		logger: logger,
	}
}

// Notify signals that connectivity was restored. It never blocks the caller.
// Only one replay pass runs at a time; a signal arriving mid-pass is
// coalesced into exactly one follow-up pass.
func (r *Relay) Notify() {
	r.mu.Lock()
	if r.running {
		r.pending = true
		r.mu.Unlock()
		return
	}
	r.running = true
	r.mu.Unlock()

	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		r.run(context.Background())
	}()
}

// Wait blocks until any in-flight replay finishes. Used on shutdown and in
// tests.
func (r *Relay) Wait() {
	r.wg.Wait()
}

func (r *Relay) run(ctx context.Context) {
	for {
		r.replayOnce(ctx)

		r.mu.Lock()
		if !r.pending {
			r.running = false
			r.mu.Unlock()
			return
		}
		r.pending = false
		r.mu.Unlock()
	}
}

// replayOnce snapshots and clears the queue, then resubmits each entry in
// original order. Entries that fail again go back on the queue; a permanent
// outage leaves the queue intact rather than dropping records.
func (r *Relay) replayOnce(ctx context.Context) {
	entries, err := r.queue.SnapshotAndClearQueue(ctx)
	if err != nil {
		r.logger.Error("failed to snapshot score queue", slog.String("error", err.Error()))
		return
	}
	if len(entries) == 0 {
		return
	}

	var failed []model.QueueEntry
	for _, entry := range entries {
		if err := r.queue.ResubmitEntry(ctx, entry); err != nil {
			failed = append(failed, entry)
		}
	}

	if len(failed) > 0 {
		if err := r.queue.Requeue(ctx, failed); err != nil {
			r.logger.Error("failed to requeue undelivered scores",
				slog.Int("count", len(failed)),
				slog.String("error", err.Error()),
			)
		}
	}

	r.logger.Info("score queue replay finished",
		slog.Int("delivered", len(entries)-len(failed)),
		slog.Int("requeued", len(failed)),
	)
}
