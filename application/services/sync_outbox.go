package services

import (
	"context"
	"sync"
	"time"

	"tripgraph/domain/core/entities"
)

type syncKind string

const (
	syncCreate syncKind = "create"
	syncRename syncKind = "rename"
	syncRemove syncKind = "remove"
)

// syncOp is one store call owed for a local mutation
type syncOp struct {
	kind       syncKind
	eventID    string
	event      *entities.Event
	title      string
	enqueuedAt time.Time
}

// syncOutbox is a FIFO of store calls drained by a single worker, so the
// store sees writes in the order the user made them
type syncOutbox struct {
	mu      sync.Mutex
	cond    *sync.Cond
	queue   []syncOp
	busy    bool
	closed  bool
	stopped chan struct{}
}

func newSyncOutbox() *syncOutbox {
	o := &syncOutbox{stopped: make(chan struct{})}
	o.cond = sync.NewCond(&o.mu)
	return o
}

// push appends an op; returns false once the outbox is closed
func (o *syncOutbox) push(op syncOp) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return false
	}
	o.queue = append(o.queue, op)
	o.cond.Broadcast()
	return true
}

// next blocks until an op is available. ok is false when the outbox is
// closed and drained.
func (o *syncOutbox) next() (op syncOp, ok bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	for len(o.queue) == 0 && !o.closed {
		o.cond.Wait()
	}
	if len(o.queue) == 0 {
		return syncOp{}, false
	}
	op = o.queue[0]
	o.queue = o.queue[1:]
	o.busy = true
	return op, true
}

// done marks the op returned by next as finished
func (o *syncOutbox) done() {
	o.mu.Lock()
	o.busy = false
	o.cond.Broadcast()
	o.mu.Unlock()
}

// pending counts queued plus in-flight ops
func (o *syncOutbox) pending() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := len(o.queue)
	if o.busy {
		n++
	}
	return n
}

// drain waits until nothing is queued or in flight, or until ctx ends.
// Cancellation wakes the waiter, so an abandoned drain leaves nothing behind.
func (o *syncOutbox) drain(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		o.mu.Lock()
		o.cond.Broadcast()
		o.mu.Unlock()
	})
	defer stop()

	o.mu.Lock()
	defer o.mu.Unlock()
	for len(o.queue) > 0 || o.busy {
		if err := ctx.Err(); err != nil {
			return err
		}
		o.cond.Wait()
	}
	return nil
}

// close stops accepting ops; the worker exits after draining the queue
func (o *syncOutbox) close() {
	o.mu.Lock()
	o.closed = true
	o.cond.Broadcast()
	o.mu.Unlock()
}
