// Package game wires the graph store, blocker manager, pathfinding engine,
// agent, and phase machine into one tick-driven core. Collaborators
// (renderer, audio, UI) subscribe to its notification sources and feed it
// edge interactions and phase requests; everything else is internal.
package game

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/milk9111/blockade/agent"
	"github.com/milk9111/blockade/blocker"
	"github.com/milk9111/blockade/common"
	"github.com/milk9111/blockade/graph"
	"github.com/milk9111/blockade/maps"
	"github.com/milk9111/blockade/pathfind"
	"github.com/milk9111/blockade/phase"
	"github.com/milk9111/blockade/progress"
	"github.com/milk9111/blockade/signal"
)

// Game is the decision core. All mutation happens synchronously inside
// tick-driven calls; there is no internal goroutine.
type Game struct {
	cfg Config
	log *slog.Logger

	machine *phase.Machine
	rng     *common.Rand

	g    *graph.Graph
	view *pathfind.View
	ag   *agent.Agent
	mgr  *blocker.Manager
	eng  *pathfind.Engine

	mapName    string
	difficulty int
	seed       int64

	countdown float64
	pending   []graph.EdgeID
	ticks     int
	sessionID string
}

// New builds a game on the initial phase with the world already loaded.
func New(cfg Config) (*Game, error) {
	cfg.applyDefaults()
	machine, err := phase.NewMachine(cfg.Logger)
	if err != nil {
		return nil, err
	}

	gm := &Game{
		cfg:     cfg,
		log:     cfg.Logger,
		machine: machine,
		rng:     common.NewRand(1),
	}

	spec, g, err := gm.loadWorld()
	if err != nil {
		return nil, err
	}
	spawn, err := spec.SpawnNode()
	if err != nil {
		return nil, err
	}

	gm.g = g
	gm.view = pathfind.NewView(g)
	gm.ag = agent.New(spawn, gm.agentSpeed(), gm.nodePosition)
	gm.mgr = blocker.NewManager(g, cfg.MaxBlockers, gm.agentTransitEdge, gm.log)
	gm.eng = pathfind.NewEngine(gm.view, gm.ag, gm.log)

	// Blocker toggles before agent movement: the manager announces each
	// graph mutation and the engine settles the path before any tick
	// consumes it.
	gm.mgr.Added().Subscribe(func(e graph.EdgeID) { gm.eng.Replan(e) })
	gm.mgr.Removed().Subscribe(func(r blocker.Removal) { gm.eng.Replan(r.Edge) })

	machine.SetHooks(phase.Initial, phase.Hooks{Enter: gm.enterInitial})
	machine.SetHooks(phase.Countdown, phase.Hooks{Enter: gm.enterCountdown})
	machine.SetHooks(phase.Running, phase.Hooks{Enter: gm.enterRunning, Exit: gm.exitRunning})
	machine.SetHooks(phase.Paused, phase.Hooks{Enter: gm.stopAgent})
	machine.SetHooks(phase.GameOver, phase.Hooks{Enter: gm.enterGameOver})

	return gm, nil
}

// Tick advances the core by dt seconds. Within one tick, the deferred
// confirm-stop transition runs first, then queued blocker toggles, then
// agent movement.
func (gm *Game) Tick(dt float64) {
	gm.ticks++

	if gm.machine.StopConfirmed() && gm.machine.Current() == phase.Running {
		gm.machine.TransitionTo(phase.Initial)
		return
	}

	switch gm.machine.Current() {
	case phase.Countdown:
		gm.countdown -= dt
		if gm.countdown <= 0 {
			gm.machine.TransitionTo(phase.Running)
		}
	case phase.Running:
		gm.drainEdgeInteractions()
		gm.mgr.Advance(dt)
		if gm.ag.State().Terminal() {
			gm.machine.TransitionTo(phase.GameOver)
			return
		}
		if node, arrived := gm.ag.Advance(dt); arrived {
			if n, ok := gm.g.Node(node); ok && n.Hole {
				gm.ag.SetState(agent.StateEscaped)
			}
		}
		if gm.ag.State().Terminal() {
			gm.machine.TransitionTo(phase.GameOver)
		}
	}
}

// EdgeInteraction queues an edge click for the next tick. Interactions are
// only accepted while the game is running.
func (gm *Game) EdgeInteraction(edge graph.EdgeID) {
	if gm.machine.Current() != phase.Running {
		return
	}
	gm.pending = append(gm.pending, edge)
}

// ConfirmStop is the explicit confirmation that a running game should
// return to the initial phase. The transition happens on the next tick.
func (gm *Game) ConfirmStop() {
	if gm.machine.Current() != phase.Running {
		return
	}
	gm.machine.ConfirmStop()
}

// RequestTransition asks the phase machine for a transition; false means
// the table forbade it or a transition was in progress.
func (gm *Game) RequestTransition(target phase.Phase) bool {
	return gm.machine.TransitionTo(target)
}

// SelectMap writes the chosen map and difficulty back to the progress
// holder; it takes effect on the next return to the initial phase.
func (gm *Game) SelectMap(name string, difficulty int) error {
	if _, err := maps.LoadSpec(name); err != nil {
		return err
	}
	if gm.cfg.Progress == nil {
		return fmt.Errorf("game: no progress holder configured")
	}
	return gm.cfg.Progress.Save(progress.Snapshot{MapName: name, Difficulty: difficulty})
}

// Phase returns the current game phase.
func (gm *Game) Phase() phase.Phase { return gm.machine.Current() }

// Agent returns the agent movement controller.
func (gm *Game) Agent() *agent.Agent { return gm.ag }

// Graph returns the current map's graph store.
func (gm *Game) Graph() *graph.Graph { return gm.g }

// Blockers returns the blocker lifecycle manager.
func (gm *Game) Blockers() *blocker.Manager { return gm.mgr }

// MapName returns the loaded map's name.
func (gm *Game) MapName() string { return gm.mapName }

// Difficulty returns the active difficulty.
func (gm *Game) Difficulty() int { return gm.difficulty }

// Seed returns the RNG seed of the current session.
func (gm *Game) Seed() int64 { return gm.seed }

// Ticks returns the number of ticks since the last reset.
func (gm *Game) Ticks() int { return gm.ticks }

// PhaseChanged is emitted after every completed phase transition.
func (gm *Game) PhaseChanged() *signal.Source[phase.Change] { return gm.machine.Changed() }

// BlockerAdded is emitted when a blocker is placed.
func (gm *Game) BlockerAdded() *signal.Source[graph.EdgeID] { return gm.mgr.Added() }

// BlockerRemoved is emitted when a blocker is removed individually.
func (gm *Game) BlockerRemoved() *signal.Source[blocker.Removal] { return gm.mgr.Removed() }

// AgentStateChanged is emitted on agent lifecycle changes.
func (gm *Game) AgentStateChanged() *signal.Source[agent.State] { return gm.ag.StateChanged() }

// PathUpdated is emitted with the installed path after every (re)plan.
func (gm *Game) PathUpdated() *signal.Source[[]graph.NodeID] { return gm.eng.PathUpdated() }

// loadWorld reseeds the RNG, reads carried progress, and builds the graph
// for the selected (or randomly drawn) map.
func (gm *Game) loadWorld() (*maps.Spec, *graph.Graph, error) {
	seed := gm.cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	gm.seed = seed
	gm.rng.Seed(seed)

	gm.difficulty = 0
	mapName := gm.cfg.MapName
	if gm.cfg.Progress != nil {
		snap, err := gm.cfg.Progress.Load()
		if err != nil {
			gm.log.Warn("game: progress load failed", "error", err)
		} else {
			gm.difficulty = snap.Difficulty
			if mapName == "" {
				mapName = snap.MapName
			}
		}
	}
	if mapName == "" {
		names := maps.List()
		if len(names) == 0 {
			return nil, nil, fmt.Errorf("game: no maps available")
		}
		mapName = names[gm.rng.Intn(len(names))]
	}

	spec, err := maps.LoadSpec(mapName)
	if err != nil {
		return nil, nil, err
	}
	g, err := spec.Build()
	if err != nil {
		return nil, nil, err
	}
	gm.mapName = mapName
	return spec, g, nil
}

// enterInitial is the full reset: blockers cleared, path dropped, graph
// rebuilt from the stored map, agent reset in place.
func (gm *Game) enterInitial() {
	gm.endSession("ABANDONED")

	spec, g, err := gm.loadWorld()
	if err != nil {
		// Non-fatal: keep the previous world so the core stays playable.
		// The kept graph must still come out clean, so unblock the queued
		// edges before the queue is dropped below.
		gm.log.Error("game: reset failed, keeping previous map", "error", err)
		gm.mgr.Clear()
		spec = nil
		g = gm.g
	}

	spawn := gm.ag.Current()
	if spec != nil {
		if s, err := spec.SpawnNode(); err == nil {
			spawn = s
		}
	}

	gm.g = g
	gm.view = pathfind.NewView(g)
	gm.eng.Reset(gm.view)
	gm.mgr.Reset(g)
	gm.ag.Reset(spawn, gm.agentSpeed(), gm.nodePosition)
	gm.pending = nil
	gm.ticks = 0
	gm.countdown = 0
	gm.machine.ClearStopConfirmed()
}

func (gm *Game) enterCountdown() {
	gm.countdown = gm.cfg.CountdownSeconds
	gm.stopAgent()
}

func (gm *Game) enterRunning() {
	if gm.ag.State().Terminal() {
		return
	}
	if len(gm.ag.Path()) == 0 {
		gm.eng.Plan()
	}
	if gm.ag.State().Terminal() {
		// Planning can immediately decide the game (spawned on a hole, or
		// no route at all); movement never starts.
		return
	}
	gm.ag.SetState(agent.StateMoving)
	gm.beginSession()
}

func (gm *Game) exitRunning() {
	gm.pending = nil
}

func (gm *Game) enterGameOver() {
	outcome := string(gm.ag.State())
	if !gm.ag.State().Terminal() {
		outcome = "ABANDONED"
	}
	gm.stopAgent()
	gm.endSession(outcome)
}

func (gm *Game) stopAgent() {
	if !gm.ag.State().Terminal() {
		gm.ag.SetState(agent.StateIdle)
	}
}

func (gm *Game) beginSession() {
	if gm.cfg.Recorder == nil || gm.sessionID != "" {
		return
	}
	id, err := gm.cfg.Recorder.BeginSession(gm.seed, gm.mapName, gm.difficulty)
	if err != nil {
		gm.log.Warn("game: begin session failed", "error", err)
		return
	}
	gm.sessionID = id
}

func (gm *Game) endSession(outcome string) {
	if gm.cfg.Recorder == nil || gm.sessionID == "" {
		return
	}
	if err := gm.cfg.Recorder.EndSession(gm.sessionID, outcome, gm.ticks); err != nil {
		gm.log.Warn("game: end session failed", "error", err)
	}
	gm.sessionID = ""
}

func (gm *Game) agentSpeed() float64 {
	return gm.cfg.BaseAgentSpeed * (1 + 0.25*float64(gm.difficulty))
}

func (gm *Game) nodePosition(id graph.NodeID) (float64, float64, bool) {
	n, ok := gm.g.Node(id)
	if !ok {
		return 0, 0, false
	}
	return n.X, n.Y, true
}

func (gm *Game) agentTransitEdge() (graph.EdgeID, bool) {
	if gm.ag.State() != agent.StateMoving {
		return graph.EdgeID{}, false
	}
	return gm.ag.TransitEdge()
}

func (gm *Game) drainEdgeInteractions() {
	pending := gm.pending
	gm.pending = nil
	for _, edge := range pending {
		gm.mgr.Toggle(edge)
	}
}
