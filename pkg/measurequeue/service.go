package measurequeue

import (
	"context"

	"github.com/NotCoffee418/amshan_reader/pkg/metrics"
	"github.com/NotCoffee418/amshan_reader/pkg/types"
)

// New creates a queue holding at most capacity messages, or any number when
// capacity is zero or negative.
func New(capacity int, policy OverflowPolicy) *Queue {
	if capacity < 0 {
		capacity = 0
	}
	if policy == "" {
		policy = DropOldest
	}
	return &Queue{
		capacity: capacity,
		policy:   policy,
		notEmpty: make(chan struct{}, 1),
		notFull:  make(chan struct{}, 1),
	}
}

// Put adds msg to the queue. When the queue is full it applies the overflow
// policy: DropOldest always succeeds, DropNewest returns ErrQueueFull and
// Block waits for room or for ctx. The stop message is always accepted so
// that shutdown cannot be lost.
func (q *Queue) Put(ctx context.Context, msg types.Message) error {
	for {
		q.mu.Lock()
		if !q.full() || types.IsStop(msg) {
			q.items = append(q.items, msg)
			q.mu.Unlock()
			signal(q.notEmpty)
			return nil
		}

		switch q.policy {
		case DropNewest:
			q.dropped++
			q.mu.Unlock()
			metrics.RecordQueueDrop(string(q.policy))
			return ErrQueueFull
		case Block:
			q.mu.Unlock()
			select {
			case <-q.notFull:
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		default:
			dropped := q.dropOldest()
			q.items = append(q.items, msg)
			if dropped {
				q.dropped++
			}
			q.mu.Unlock()
			if dropped {
				metrics.RecordQueueDrop(string(q.policy))
			}
			signal(q.notEmpty)
			return nil
		}
	}
}

// Get removes and returns the oldest message, waiting until one is available
// or ctx is done.
func (q *Queue) Get(ctx context.Context) (types.Message, error) {
	for {
		q.mu.Lock()
		if len(q.items) > 0 {
			msg := q.items[0]
			q.items[0] = nil
			q.items = q.items[1:]
			remaining := len(q.items)
			q.mu.Unlock()

			signal(q.notFull)
			if remaining > 0 {
				// wake another consumer
				signal(q.notEmpty)
			}
			return msg, nil
		}
		q.mu.Unlock()

		select {
		case <-q.notEmpty:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// Len returns the number of queued messages.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}

// Dropped returns the number of messages lost to the overflow policy.
func (q *Queue) Dropped() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.dropped
}

func (q *Queue) Capacity() int {
	return q.capacity
}

func (q *Queue) Policy() OverflowPolicy {
	return q.policy
}

// dropOldest removes the oldest message other than a stop message.
func (q *Queue) dropOldest() bool {
	for i, m := range q.items {
		if types.IsStop(m) {
			continue
		}
		copy(q.items[i:], q.items[i+1:])
		q.items[len(q.items)-1] = nil
		q.items = q.items[:len(q.items)-1]
		return true
	}
	return false
}

func (q *Queue) full() bool {
	return q.capacity > 0 && len(q.items) >= q.capacity
}

// signal wakes one waiter without blocking.
func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
