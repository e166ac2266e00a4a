// Package fsm is a small table-driven finite state machine engine.
// It has no knowledge of hardware: guards and actions are supplied by the
// concrete machines built on top of it.
package fsm

import (
	"errors"
	"fmt"
)

// State identifies a machine state. Each concrete machine declares its own
// closed set of values.
type State int

// Guard decides whether a transition may fire. Implementations must not
// have side effects.
type Guard interface {
	Check() bool
}

// Action runs when a transition fires. It is the only place where side
// effects happen.
type Action interface {
	Do()
}

// GuardFunc adapts a plain function to Guard.
type GuardFunc func() bool

// Check calls f.
func (f GuardFunc) Check() bool { return f() }

// ActionFunc adapts a plain function to Action.
type ActionFunc func()

// Do calls f.
func (f ActionFunc) Do() { f() }

// Transition is one row of a transition table.
type Transition struct {
	From   State
	Guard  Guard
	To     State
	Action Action // optional
}

var (
	// ErrEmptyTable is returned when a machine is built without transitions.
	ErrEmptyTable = errors.New("fsm: empty transition table")
	// ErrNilGuard is returned when a transition has no guard.
	ErrNilGuard = errors.New("fsm: transition without guard")
)

// Machine holds the current state and the ordered transition table.
// It is not safe for concurrent use: Fire is meant to be called from a
// single polling loop.
type Machine struct {
	current State
	table   []Transition
}

// New builds a machine from table. The initial state is the origin of the
// first row. The table is copied, so later changes by the caller have no effect.
func New(table []Transition) (*Machine, error) {
	if len(table) == 0 {
		return nil, ErrEmptyTable
	}

	for i, t := range table {
		if t.Guard == nil {
			return nil, fmt.Errorf("row %d (%d -> %d): %w", i, t.From, t.To, ErrNilGuard)
		}
	}

	rows := make([]Transition, len(table))
	copy(rows, table)

	return &Machine{
		current: rows[0].From,
		table:   rows,
	}, nil
}

// Fire evaluates the machine once. Rows are scanned in table order; the first
// row leaving the current state whose guard holds has its action executed and
// its destination adopted. At most one transition happens per call.
// Returns true if a transition fired.
func (m *Machine) Fire() bool {
	for _, t := range m.table {
		if t.From != m.current {
			continue
		}
		if !t.Guard.Check() {
			continue
		}

		if t.Action != nil {
			t.Action.Do()
		}
		m.current = t.To
		return true
	}

	return false
}

// State returns the current state.
func (m *Machine) State() State {
	return m.current
}
