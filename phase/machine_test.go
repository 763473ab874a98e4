package phase

import (
	"log/slog"
	"testing"
)

func newMachine(t *testing.T) *Machine {
	t.Helper()
	m, err := NewMachine(slog.Default())
	if err != nil {
		t.Fatalf("NewMachine: %v", err)
	}
	return m
}

// force drives the machine to p through legal transitions.
func force(t *testing.T, m *Machine, p Phase) {
	t.Helper()
	routes := map[Phase][]Phase{
		Initial:   nil,
		Countdown: {Countdown},
		Running:   {Countdown, Running},
		Paused:    {Countdown, Running, Paused},
		GameOver:  {Countdown, Running, GameOver},
	}
	m.Reset()
	for _, step := range routes[p] {
		if !m.TransitionTo(step) {
			t.Fatalf("setup transition to %s failed at %s", p, step)
		}
	}
}

func TestTransitionTableConformance(t *testing.T) {
	all := []Phase{Initial, Countdown, Running, Paused, GameOver}
	allowed := map[Phase]map[Phase]bool{
		Initial:   {Countdown: true},
		Countdown: {Running: true},
		Running:   {Paused: true, GameOver: true, Initial: true},
		Paused:    {Running: true},
		GameOver:  {Initial: true},
	}

	m := newMachine(t)
	for _, from := range all {
		for _, to := range all {
			t.Run(string(from)+"_to_"+string(to), func(t *testing.T) {
				force(t, m, from)
				got := m.TransitionTo(to)
				want := allowed[from][to] || from == to
				if got != want {
					t.Fatalf("TransitionTo(%s) from %s = %v, want %v", to, from, got, want)
				}
				wantState := from
				if allowed[from][to] {
					wantState = to
				}
				if m.Current() != wantState {
					t.Fatalf("current = %s, want %s", m.Current(), wantState)
				}
			})
		}
	}
}

func TestIllegalTransitionLeavesStateUntouched(t *testing.T) {
	m := newMachine(t)
	if m.Current() != Initial {
		t.Fatalf("machine should start in %s", Initial)
	}
	if m.TransitionTo(Running) {
		t.Fatalf("INITIAL -> RUNNING should be rejected")
	}
	if m.Current() != Initial {
		t.Fatalf("rejected transition changed state to %s", m.Current())
	}
}

func TestSelfTransitionIsNoOp(t *testing.T) {
	m := newMachine(t)
	entered := 0
	m.SetHooks(Initial, Hooks{Enter: func() { entered++ }})
	changes := 0
	m.Changed().Subscribe(func(Change) { changes++ })

	if !m.TransitionTo(Initial) {
		t.Fatalf("self transition should report success")
	}
	if entered != 0 || changes != 0 {
		t.Fatalf("self transition ran hooks (%d) or notified (%d)", entered, changes)
	}
}

func TestHookOrderAndNotification(t *testing.T) {
	m := newMachine(t)
	var order []string
	m.SetHooks(Initial, Hooks{Exit: func() { order = append(order, "exit_initial") }})
	m.SetHooks(Countdown, Hooks{Enter: func() { order = append(order, "enter_countdown") }})
	m.Changed().Subscribe(func(c Change) {
		order = append(order, "changed:"+string(c.From)+">"+string(c.To))
	})

	if !m.TransitionTo(Countdown) {
		t.Fatalf("INITIAL -> COUNTDOWN failed")
	}

	want := []string{"exit_initial", "enter_countdown", "changed:INITIAL>COUNTDOWN"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
	if m.Previous() != Initial {
		t.Fatalf("previous = %s, want %s", m.Previous(), Initial)
	}
}

func TestReentrantTransitionRejected(t *testing.T) {
	m := newMachine(t)
	var nested bool
	m.SetHooks(Countdown, Hooks{Enter: func() {
		// A hook calling back into the machine must be refused outright.
		nested = m.TransitionTo(Running)
	}})

	if !m.TransitionTo(Countdown) {
		t.Fatalf("INITIAL -> COUNTDOWN failed")
	}
	if nested {
		t.Fatalf("reentrant transition was accepted")
	}
	if m.Current() != Countdown {
		t.Fatalf("current = %s, want %s", m.Current(), Countdown)
	}
}

func TestHookPanicRollsBack(t *testing.T) {
	m := newMachine(t)
	m.SetHooks(Countdown, Hooks{Enter: func() { panic("boom") }})

	if m.TransitionTo(Countdown) {
		t.Fatalf("panicking transition reported success")
	}
	if m.Current() != Initial {
		t.Fatalf("current = %s after rollback, want %s", m.Current(), Initial)
	}
	// The lock must have been cleared: a later legal transition succeeds.
	m.SetHooks(Countdown, Hooks{})
	if !m.TransitionTo(Countdown) {
		t.Fatalf("machine stuck locked after panic")
	}
}

func TestHookPanicRestoresPrevious(t *testing.T) {
	m := newMachine(t)
	if !m.TransitionTo(Countdown) {
		t.Fatalf("INITIAL -> COUNTDOWN failed")
	}
	m.SetHooks(Running, Hooks{Enter: func() { panic("boom") }})

	if m.TransitionTo(Running) {
		t.Fatalf("panicking transition reported success")
	}
	if m.Current() != Countdown {
		t.Fatalf("current = %s after rollback, want %s", m.Current(), Countdown)
	}
	if m.Previous() != Initial {
		t.Fatalf("previous = %s after rollback, want %s", m.Previous(), Initial)
	}
}

func TestStopConfirmedLifecycle(t *testing.T) {
	m := newMachine(t)
	if m.StopConfirmed() {
		t.Fatalf("stopConfirmed should start false")
	}
	m.ConfirmStop()
	if !m.StopConfirmed() {
		t.Fatalf("ConfirmStop did not set the flag")
	}
	m.ClearStopConfirmed()
	if m.StopConfirmed() {
		t.Fatalf("ClearStopConfirmed did not clear the flag")
	}

	m.ConfirmStop()
	m.Reset()
	if m.StopConfirmed() {
		t.Fatalf("Reset did not clear stopConfirmed")
	}
	if m.Current() != Initial {
		t.Fatalf("Reset did not force %s", Initial)
	}
}
