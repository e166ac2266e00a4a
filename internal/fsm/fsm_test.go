package fsm

import (
	"errors"
	"slices"
	"testing"
)

const (
	stateA State = iota
	stateB
	stateC
)

var always = GuardFunc(func() bool { return true })

func mustNew(t *testing.T, table []Transition) *Machine {
	t.Helper()
	m, err := New(table)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return m
}

func TestNewRejectsEmptyTable(t *testing.T) {
	m, err := New(nil)
	if !errors.Is(err, ErrEmptyTable) {
		t.Errorf("expected ErrEmptyTable, got %v", err)
	}
	if m != nil {
		t.Error("expected no machine for an empty table")
	}
}

func TestNewRejectsNilGuard(t *testing.T) {
	_, err := New([]Transition{
		{From: stateA, Guard: always, To: stateB},
		{From: stateB, To: stateA},
	})
	if !errors.Is(err, ErrNilGuard) {
		t.Errorf("expected ErrNilGuard, got %v", err)
	}
}

func TestInitialStateIsFirstOrigin(t *testing.T) {
	never := GuardFunc(func() bool { return false })
	m := mustNew(t, []Transition{
		{From: stateB, Guard: never, To: stateA},
		{From: stateA, Guard: never, To: stateB},
	})

	if m.State() != stateB {
		t.Errorf("initial state: got %d, want %d", m.State(), stateB)
	}
}

func TestFireNoMatchIsNoop(t *testing.T) {
	ran := false
	m := mustNew(t, []Transition{{
		From:   stateA,
		Guard:  GuardFunc(func() bool { return false }),
		To:     stateB,
		Action: ActionFunc(func() { ran = true }),
	}})

	if m.Fire() {
		t.Error("Fire reported a transition with a false guard")
	}
	if m.State() != stateA {
		t.Errorf("state changed to %d", m.State())
	}
	if ran {
		t.Error("action ran without a transition")
	}
}

func TestFireAtMostOneTransitionPerCall(t *testing.T) {
	var trail []State
	record := func(s State) Action {
		return ActionFunc(func() { trail = append(trail, s) })
	}

	m := mustNew(t, []Transition{
		{From: stateA, Guard: always, To: stateB, Action: record(stateB)},
		{From: stateB, Guard: always, To: stateC, Action: record(stateC)},
		{From: stateC, Guard: always, To: stateA, Action: record(stateA)},
	})

	for i, want := range []State{stateB, stateC, stateA} {
		if !m.Fire() {
			t.Fatalf("fire %d: no transition", i)
		}
		if m.State() != want {
			t.Fatalf("fire %d: got state %d, want %d", i, m.State(), want)
		}
		if len(trail) != i+1 {
			t.Fatalf("fire %d: %d actions ran, want %d", i, len(trail), i+1)
		}
	}
	if !slices.Equal(trail, []State{stateB, stateC, stateA}) {
		t.Errorf("trail: got %v", trail)
	}
}

func TestFireTableOrderBreaksTies(t *testing.T) {
	var fired []string
	m := mustNew(t, []Transition{
		{From: stateA, Guard: always, To: stateB, Action: ActionFunc(func() { fired = append(fired, "first") })},
		{From: stateA, Guard: always, To: stateC, Action: ActionFunc(func() { fired = append(fired, "second") })},
	})

	m.Fire()
	if m.State() != stateB {
		t.Errorf("got state %d, want the first matching row", m.State())
	}
	if !slices.Equal(fired, []string{"first"}) {
		t.Errorf("actions: got %v", fired)
	}
}

func TestFireSkipsFalseGuardsInOrder(t *testing.T) {
	var checked []int
	guard := func(id int, result bool) Guard {
		return GuardFunc(func() bool {
			checked = append(checked, id)
			return result
		})
	}

	m := mustNew(t, []Transition{
		{From: stateA, Guard: guard(1, false), To: stateB},
		{From: stateB, Guard: guard(2, true), To: stateA},
		{From: stateA, Guard: guard(3, true), To: stateC},
		{From: stateA, Guard: guard(4, true), To: stateB},
	})

	if !m.Fire() || m.State() != stateC {
		t.Fatalf("got state %d, want %d", m.State(), stateC)
	}
	// Row 2 leaves another state and row 4 is never reached.
	if !slices.Equal(checked, []int{1, 3}) {
		t.Errorf("guards evaluated: got %v, want [1 3]", checked)
	}
}

func TestFireNilActionStillTransitions(t *testing.T) {
	m := mustNew(t, []Transition{{From: stateA, Guard: always, To: stateB}})

	if !m.Fire() || m.State() != stateB {
		t.Fatalf("got state %d, want %d", m.State(), stateB)
	}

	// No row leaves stateB.
	if m.Fire() {
		t.Error("fired from a state with no rows")
	}
	if m.State() != stateB {
		t.Errorf("state changed to %d", m.State())
	}
}

func TestNewCopiesTable(t *testing.T) {
	table := []Transition{{From: stateA, Guard: always, To: stateB}}
	m := mustNew(t, table)

	table[0].To = stateC

	m.Fire()
	if m.State() != stateB {
		t.Errorf("caller mutation leaked into the machine: state %d", m.State())
	}
}
