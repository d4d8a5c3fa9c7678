// Package measurequeue is the bounded FIFO between the meter readers and the
// message processor.
package measurequeue

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/NotCoffee418/amshan_reader/pkg/types"
)

// OverflowPolicy decides what Put does when the queue is full.
type OverflowPolicy string

const (
	// DropOldest discards the oldest queued message to make room.
	DropOldest OverflowPolicy = "drop_oldest"
	// DropNewest refuses the new message.
	DropNewest OverflowPolicy = "drop_newest"
	// Block makes Put wait for room.
	Block OverflowPolicy = "block"
)

var ErrQueueFull = errors.New("measurement queue full")

// ParseOverflowPolicy parses a configured policy. The empty string selects
// DropOldest.
func ParseOverflowPolicy(s string) (OverflowPolicy, error) {
	switch p := OverflowPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "":
		return DropOldest, nil
	case DropOldest, DropNewest, Block:
		return p, nil
	}
	return "", fmt.Errorf("unknown overflow policy %q", s)
}

// Queue is a FIFO of meter messages safe for concurrent producers and
// consumers. A capacity of zero makes it unbounded.
type Queue struct {
	capacity int
	policy   OverflowPolicy

	mu       sync.Mutex
	items    []types.Message
	dropped  uint64
	notEmpty chan struct{}
	notFull  chan struct{}
}
