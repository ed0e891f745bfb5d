package consensus

import (
	"sync"
	"time"
)

// ActiveNodes tracks the last time each oracle node contacted the
// aggregator. Pruning is lazy and happens on Touch and Count.
type ActiveNodes struct {
	mu       sync.Mutex
	lastSeen map[string]int64
	window   int64
	now      func() time.Time
}

func NewActiveNodes(window time.Duration, now func() time.Time) *ActiveNodes {
	if now == nil {
		now = time.Now
	}
	return &ActiveNodes{
		lastSeen: make(map[string]int64),
		window:   int64(window / time.Second),
		now:      now,
	}
}

func (n *ActiveNodes) Touch(nodeID string) {
	n.mu.Lock()
	defer n.mu.Unlock()

	now := n.now().Unix()
	n.lastSeen[nodeID] = now
	n.pruneLocked(now)
}

func (n *ActiveNodes) Count() int {
	n.mu.Lock()
	defer n.mu.Unlock()

	n.pruneLocked(n.now().Unix())
	return len(n.lastSeen)
}

func (n *ActiveNodes) pruneLocked(now int64) {
	for id, last := range n.lastSeen {
		if now-last > n.window {
			delete(n.lastSeen, id)
		}
	}
}
