package hw

import (
	"context"
	"sync/atomic"
	"time"
)

// TickPeriod is the period of the millisecond tick.
const TickPeriod = time.Millisecond

// Clock is a monotonically increasing millisecond counter. Only the tick
// source advances it; everything else reads it.
type Clock struct {
	ms atomic.Uint32
}

// Millis returns the number of ticks since boot.
func (c *Clock) Millis() uint32 {
	return c.ms.Load()
}

// Tick advances the counter by one millisecond.
func (c *Clock) Tick() {
	c.ms.Add(1)
}

// Run advances the clock once per tick until ctx is done.
func (c *Clock) Run(ctx context.Context, tick <-chan time.Time) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-tick:
			c.Tick()
		}
	}
}
