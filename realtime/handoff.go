package realtime

import (
	"fmt"
	"sync"

	"github.com/comalice/hybridx"
)

// QueueMode selects how submitted automata are queued for adoption.
type QueueMode int

const (
	// Replace discards automata still waiting for adoption, so only the
	// most recent submission survives.
	Replace QueueMode = iota
	// Append adopts every submission in order, one per tick.
	Append
)

func (m QueueMode) String() string {
	if m == Append {
		return "append"
	}
	return "replace"
}

// ParseQueueMode accepts "replace", "append" and the empty string (replace).
func ParseQueueMode(s string) (QueueMode, error) {
	switch s {
	case "", "replace":
		return Replace, nil
	case "append":
		return Append, nil
	default:
		return Replace, fmt.Errorf("unknown queue mode %q", s)
	}
}

// handoff is the mutex-guarded queue between definition workers and the
// control loop. Producers may wait for the lock; the consumer never does.
type handoff struct {
	mu      sync.Mutex
	mode    QueueMode
	limit   int
	pending []*hybridx.Automaton
}

func newHandoff(mode QueueMode, limit int) *handoff {
	return &handoff{mode: mode, limit: limit}
}

// push enqueues a. In Replace mode the queue is cleared first.
func (h *handoff) push(a *hybridx.Automaton) (dropped int, err error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.mode == Replace {
		dropped = len(h.pending)
		clear(h.pending)
		h.pending = h.pending[:0]
	} else if h.limit > 0 && len(h.pending) >= h.limit {
		return 0, ErrQueueFull
	}
	h.pending = append(h.pending, a)
	return dropped, nil
}

// tryPop removes the oldest automaton. It returns false when the queue is
// empty or the lock is held by a producer.
func (h *handoff) tryPop() (*hybridx.Automaton, bool) {
	if !h.mu.TryLock() {
		return nil, false
	}
	defer h.mu.Unlock()

	if len(h.pending) == 0 {
		return nil, false
	}
	a := h.pending[0]
	h.pending[0] = nil
	h.pending = h.pending[1:]
	return a, true
}

func (h *handoff) len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.pending)
}
