package production

import (
	"sync"
	"sync/atomic"

	"github.com/comalice/hybridx/realtime"
)

// ChannelPublisher forwards scheduler snapshots to a Go channel.
// Non-blocking publish with drop on backpressure.
type ChannelPublisher struct {
	ch      chan realtime.Snapshot
	every   uint64
	dropped atomic.Uint64
	once    sync.Once
}

// NewChannelPublisher creates a publisher with a buffer of size snapshots
// that forwards one snapshot out of every.
func NewChannelPublisher(size int, every uint64) *ChannelPublisher {
	if every == 0 {
		every = 1
	}
	return &ChannelPublisher{ch: make(chan realtime.Snapshot, size), every: every}
}

// Snapshots returns the receive side.
func (p *ChannelPublisher) Snapshots() <-chan realtime.Snapshot { return p.ch }

// Publish implements realtime.Publisher.
func (p *ChannelPublisher) Publish(s realtime.Snapshot) {
	if s.Tick%p.every != 0 {
		return
	}
	select {
	case p.ch <- s:
	default:
		p.dropped.Add(1)
	}
}

// Dropped returns the number of snapshots dropped on a full buffer.
func (p *ChannelPublisher) Dropped() uint64 { return p.dropped.Load() }

// Close closes the channel. Publish must not be called afterwards.
func (p *ChannelPublisher) Close() error {
	p.once.Do(func() { close(p.ch) })
	return nil
}
