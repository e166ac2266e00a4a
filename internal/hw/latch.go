package hw

import "sync/atomic"

const (
	flagPressed uint32 = 1 << iota
	flagReleased
)

// Button is an edge latch for a push button.
//
// The edge path writes it, the alarm machine reads it and clears it once a
// complete press/release cycle has been consumed. Both flags live in one
// word so a reader never sees a half-applied edge.
type Button struct {
	flags atomic.Uint32
}

// Edge records a level change seen on the input. asserted is true when the
// button is being held down.
//
// Asserting sets pressed and clears released. Releasing while pressed sets
// released and clears pressed. A release with no press pending is ignored.
func (b *Button) Edge(asserted bool) {
	for {
		old := b.flags.Load()

		var next uint32
		switch {
		case asserted:
			next = flagPressed
		case old&flagPressed != 0:
			next = flagReleased
		default:
			return
		}

		if b.flags.CompareAndSwap(old, next) {
			return
		}
	}
}

// Latch returns the current pressed and released flags.
func (b *Button) Latch() (pressed, released bool) {
	f := b.flags.Load()
	return f&flagPressed != 0, f&flagReleased != 0
}

// Completed reports whether a full press/release cycle is waiting.
func (b *Button) Completed() bool {
	return b.flags.Load() == flagReleased
}

// Clear resets both flags, consuming the pending event.
func (b *Button) Clear() {
	b.flags.Store(0)
}

// Presence is a level latch for a binary sensor such as a PIR detector.
type Presence struct {
	active atomic.Bool
}

// Set stores the level observed by the edge path.
func (p *Presence) Set(active bool) {
	p.active.Store(active)
}

// Active returns the last stored level.
func (p *Presence) Active() bool {
	return p.active.Load()
}
