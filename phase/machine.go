// Package phase implements the game phase state machine. The transition
// table is data, loaded from an embedded YAML document, and gates every
// other component: enter/exit hooks start and stop the rest of the core.
package phase

import (
	_ "embed"
	"fmt"
	"log/slog"

	"gopkg.in/yaml.v3"

	"github.com/milk9111/blockade/signal"
)

// Phase is one game phase.
type Phase string

const (
	Initial   Phase = "INITIAL"
	Countdown Phase = "COUNTDOWN"
	Running   Phase = "RUNNING"
	Paused    Phase = "PAUSED"
	GameOver  Phase = "GAME_OVER"
)

//go:embed phases.yaml
var tableYAML []byte

type rawTable struct {
	Initial     string             `yaml:"initial"`
	Transitions map[string][]string `yaml:"transitions"`
}

// Hooks run on entering and exiting a phase. Hooks must complete without
// blocking; follow-up transitions belong on a later tick, never inside a
// hook (the lock would reject them anyway).
type Hooks struct {
	Enter func()
	Exit  func()
}

// Change is the payload of the phase-change notification.
type Change struct {
	From Phase
	To   Phase
}

// Machine is the table-driven phase state machine. It lives for the whole
// process; Reset forces it back to Initial outside the table.
type Machine struct {
	current  Phase
	previous Phase
	// locked rejects reentrant TransitionTo calls from inside hooks. It is
	// a non-reentrant guard within one call stack, not a mutex.
	locked        bool
	stopConfirmed bool

	table   map[Phase][]Phase
	hooks   map[Phase]Hooks
	changed signal.Source[Change]
	log     *slog.Logger
}

// NewMachine parses the embedded transition table and starts in Initial.
func NewMachine(log *slog.Logger) (*Machine, error) {
	if log == nil {
		log = slog.Default()
	}
	var raw rawTable
	if err := yaml.Unmarshal(tableYAML, &raw); err != nil {
		return nil, fmt.Errorf("phase: parse transition table: %w", err)
	}
	if raw.Initial == "" {
		return nil, fmt.Errorf("phase: transition table missing initial phase")
	}
	table := make(map[Phase][]Phase, len(raw.Transitions))
	for from, targets := range raw.Transitions {
		list := make([]Phase, len(targets))
		for i, t := range targets {
			list[i] = Phase(t)
		}
		table[Phase(from)] = list
	}
	return &Machine{
		current:  Phase(raw.Initial),
		previous: Phase(raw.Initial),
		table:    table,
		hooks:    make(map[Phase]Hooks),
		log:      log,
	}, nil
}

// SetHooks installs the enter/exit hooks for p, replacing any previous.
func (m *Machine) SetHooks(p Phase, h Hooks) {
	m.hooks[p] = h
}

// Current returns the active phase.
func (m *Machine) Current() Phase { return m.current }

// Previous returns the phase before the last completed transition.
func (m *Machine) Previous() Phase { return m.previous }

// Changed is emitted after every completed transition.
func (m *Machine) Changed() *signal.Source[Change] { return &m.changed }

// Allowed reports whether target is reachable from the current phase.
func (m *Machine) Allowed(target Phase) bool {
	for _, t := range m.table[m.current] {
		if t == target {
			return true
		}
	}
	return false
}

// TransitionTo moves to target. It returns false, leaving all state
// untouched, when a transition is already in progress or the table forbids
// the move. Requesting the current phase is an idempotent no-op. A panic
// inside a hook rolls the phase back and still clears the lock.
func (m *Machine) TransitionTo(target Phase) (ok bool) {
	if m.locked {
		m.log.Warn("phase: transition rejected, already in progress", "target", string(target))
		return false
	}
	if target == m.current {
		return true
	}
	if !m.Allowed(target) {
		m.log.Warn("phase: illegal transition", "from", string(m.current), "to", string(target))
		return false
	}

	m.locked = true
	prev := m.current
	prevPrevious := m.previous
	defer func() {
		if r := recover(); r != nil {
			m.log.Error("phase: hook panicked, rolling back", "from", string(prev), "to", string(target), "panic", r)
			m.current = prev
			m.previous = prevPrevious
			ok = false
		}
		m.locked = false
	}()

	if h := m.hooks[prev]; h.Exit != nil {
		h.Exit()
	}
	m.previous = prev
	m.current = target
	if h := m.hooks[target]; h.Enter != nil {
		h.Enter()
	}
	m.changed.Emit(Change{From: prev, To: target})
	return true
}

// Reset forces the machine back to Initial without consulting the table,
// running hooks, or notifying. Administrative use only; callers that need
// a real reset compose this with their own teardown.
func (m *Machine) Reset() {
	m.previous = m.current
	m.current = Initial
	m.locked = false
	m.stopConfirmed = false
}

// ConfirmStop sets the stop-confirmed flag. The flag never triggers a
// transition synchronously; the orchestrator checks it on the next tick so
// routine logic can never silently exit a running game.
func (m *Machine) ConfirmStop() {
	m.stopConfirmed = true
}

// StopConfirmed reports the flag.
func (m *Machine) StopConfirmed() bool { return m.stopConfirmed }

// ClearStopConfirmed resets the flag; called on entering Initial.
func (m *Machine) ClearStopConfirmed() { m.stopConfirmed = false }
