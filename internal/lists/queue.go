package lists

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/mmcdole/moviebase/internal/domain"
)

type pendingWrite struct {
	actor domain.Actor
	coll  domain.ListCollection
}

// writeQueue persists optimistic changes in the background. Queued writes
// coalesce: only the newest snapshot is written, and at most one write is in
// flight at a time.
type writeQueue struct {
	adapter   domain.PersistenceAdapter
	timeout   time.Duration
	logger    *slog.Logger
	onSettled func(err error)

	mu       sync.Mutex
	next     *pendingWrite
	inflight bool
	idle     chan struct{} // Closed whenever nothing is queued or in flight
	lastErr  error

	kick     chan struct{}
	stop     chan struct{}
	done     chan struct{}
	stopOnce sync.Once
}

func newWriteQueue(adapter domain.PersistenceAdapter, timeout time.Duration, logger *slog.Logger, onSettled func(error)) *writeQueue {
	idle := make(chan struct{})
	close(idle)
	q := &writeQueue{
		adapter:   adapter,
		timeout:   timeout,
		logger:    logger,
		onSettled: onSettled,
		idle:      idle,
		kick:      make(chan struct{}, 1),
		stop:      make(chan struct{}),
		done:      make(chan struct{}),
	}
	go q.run()
	return q
}

func (q *writeQueue) enqueue(actor domain.Actor, coll domain.ListCollection) {
	q.mu.Lock()
	if q.next == nil && !q.inflight {
		q.idle = make(chan struct{})
	} else if q.next != nil {
		q.logger.Debug("coalescing queued list write", "actor", actor.String())
	}
	q.next = &pendingWrite{actor: actor, coll: coll}
	q.mu.Unlock()

	select {
	case q.kick <- struct{}{}:
	default:
	}
}

func (q *writeQueue) run() {
	defer close(q.done)
	for {
		select {
		case <-q.stop:
			return
		case <-q.kick:
		}
		q.drain()
	}
}

func (q *writeQueue) drain() {
	for {
		q.mu.Lock()
		w := q.next
		if w == nil {
			q.mu.Unlock()
			return
		}
		q.next = nil
		q.inflight = true
		q.mu.Unlock()

		ctx, cancel := context.WithTimeout(context.Background(), q.timeout)
		err := q.adapter.Save(ctx, w.actor, w.coll)
		cancel()
		if err != nil {
			err = &domain.PersistenceError{Op: "save", Err: err}
			q.logger.Error("failed to save lists", "error", err, "actor", w.actor.String())
		} else {
			q.logger.Debug("saved queued list write", "actor", w.actor.String())
		}

		q.mu.Lock()
		q.inflight = false
		q.lastErr = err
		settled := q.next == nil
		if settled {
			close(q.idle)
		}
		q.mu.Unlock()

		if q.onSettled != nil {
			q.onSettled(err)
		}
	}
}

// pending reports whether a write is queued or in flight
func (q *writeQueue) pending() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.next != nil || q.inflight
}

func (q *writeQueue) lastError() error {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.lastErr
}

// flush blocks until every queued write has settled
func (q *writeQueue) flush(ctx context.Context) error {
	q.mu.Lock()
	idle := q.idle
	q.mu.Unlock()

	select {
	case <-idle:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// close flushes and stops the worker. Safe to call more than once.
func (q *writeQueue) close(ctx context.Context) error {
	err := q.flush(ctx)
	q.stopOnce.Do(func() { close(q.stop) })
	<-q.done
	return err
}
