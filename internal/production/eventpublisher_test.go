package production

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/comalice/hybridx/realtime"
)

func TestChannelPublisher_NonBlocking(t *testing.T) {
	p := NewChannelPublisher(2, 1)
	for i := uint64(0); i < 5; i++ {
		p.Publish(realtime.Snapshot{Tick: i})
	}
	assert.Equal(t, uint64(3), p.Dropped())

	first := <-p.Snapshots()
	assert.Equal(t, uint64(0), first.Tick)

	assert.NoError(t, p.Close())
	assert.NoError(t, p.Close())
}

func TestChannelPublisher_Decimation(t *testing.T) {
	p := NewChannelPublisher(10, 3)
	for i := uint64(0); i < 9; i++ {
		p.Publish(realtime.Snapshot{Tick: i})
	}
	p.Close()

	var ticks []uint64
	for s := range p.Snapshots() {
		ticks = append(ticks, s.Tick)
	}
	assert.Equal(t, []uint64{0, 3, 6}, ticks)
	assert.Zero(t, p.Dropped())
}
