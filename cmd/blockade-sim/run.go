package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/milk9111/blockade/agent"
	"github.com/milk9111/blockade/game"
	"github.com/milk9111/blockade/graph"
	"github.com/milk9111/blockade/phase"
	"github.com/milk9111/blockade/progress"
	"github.com/milk9111/blockade/script"
)

var (
	runMap    string
	runScript string
	runTicks  int
	runDT     float64
	runSeed   int64
	runDB     string
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run one headless session",
	Long: `Run one session of the decision core at a fixed tick rate.

The controller side is played by a tengo script (embedded name or file
path) that sees the agent's node, path, and current blockers each tick and
answers with edge toggles. Without a script the agent walks unopposed.`,
	RunE: runSession,
}

func init() {
	runCmd.Flags().StringVar(&runMap, "map", "", "Map name (random embedded map if empty)")
	runCmd.Flags().StringVar(&runScript, "script", "", "Controller script: embedded name or file path")
	runCmd.Flags().IntVar(&runTicks, "ticks", 10000, "Maximum ticks before giving up")
	runCmd.Flags().Float64Var(&runDT, "dt", 1.0/60, "Seconds per tick")
	runCmd.Flags().Int64Var(&runSeed, "seed", 0, "RNG seed (0 = from clock)")
	runCmd.Flags().StringVar(&runDB, "db", "", "Progress database path (optional)")
}

func runSession(cmd *cobra.Command, args []string) error {
	cfg := game.Config{
		MapName: runMap,
		Seed:    runSeed,
		Logger:  slog.Default(),
	}

	if runDB != "" {
		store, err := progress.Open(runDB)
		if err != nil {
			return err
		}
		defer store.Close()
		cfg.Progress = store
		cfg.Recorder = store
	}

	g, err := game.New(cfg)
	if err != nil {
		return err
	}

	g.PhaseChanged().Subscribe(func(c phase.Change) {
		slog.Info("phase", "from", string(c.From), "to", string(c.To))
	})
	g.BlockerAdded().Subscribe(func(e graph.EdgeID) {
		slog.Debug("blocker added", "edge", e.String())
	})
	g.AgentStateChanged().Subscribe(func(s agent.State) {
		slog.Info("agent", "state", string(s))
	})

	var rt *script.Runtime
	if runScript != "" {
		src, err := loadControllerScript(runScript)
		if err != nil {
			return err
		}
		if rt, err = script.New(src); err != nil {
			return err
		}
	}

	if !g.RequestTransition(phase.Countdown) {
		return fmt.Errorf("could not start countdown from %s", g.Phase())
	}

	for i := 0; i < runTicks; i++ {
		if rt != nil && g.Phase() == phase.Running {
			toggles, err := rt.Step(snapshotOf(g))
			if err != nil {
				return err
			}
			for _, edge := range toggles {
				g.EdgeInteraction(edge)
			}
		}
		g.Tick(runDT)
		if g.Phase() == phase.GameOver {
			break
		}
	}

	outcome := string(g.Agent().State())
	if g.Phase() != phase.GameOver {
		outcome = "UNDECIDED"
	}
	fmt.Fprintf(os.Stdout, "map=%s seed=%d ticks=%d outcome=%s\n",
		g.MapName(), g.Seed(), g.Ticks(), outcome)
	return nil
}

func snapshotOf(g *game.Game) script.Snapshot {
	blockers := g.Blockers().Blockers()
	blocked := make([]graph.EdgeID, len(blockers))
	for i, b := range blockers {
		blocked[i] = b.Edge
	}
	return script.Snapshot{
		Tick:    g.Ticks(),
		Agent:   g.Agent().Current(),
		Path:    g.Agent().Remaining(),
		Blocked: blocked,
	}
}

func loadControllerScript(name string) ([]byte, error) {
	if src, err := script.Load(name); err == nil {
		return src, nil
	}
	src, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("script %q is neither embedded nor a file: %w", name, err)
	}
	return src, nil
}
