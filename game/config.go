package game

import (
	"log/slog"

	"github.com/milk9111/blockade/progress"
)

// ProgressHolder carries the selected map and difficulty across resets.
// The core reads it on every return to the initial phase and writes it
// back when the selection changes; the values are otherwise opaque to it.
type ProgressHolder interface {
	Load() (progress.Snapshot, error)
	Save(progress.Snapshot) error
}

// SessionRecorder logs play-throughs. Optional.
type SessionRecorder interface {
	BeginSession(seed int64, mapName string, difficulty int) (string, error)
	EndSession(id string, outcome string, ticks int) error
}

// Config configures a Game. Zero values pick the defaults below.
type Config struct {
	// MaxBlockers caps the blocker queue. Default 5.
	MaxBlockers int
	// CountdownSeconds is how long the countdown phase lasts. Default 3.
	CountdownSeconds float64
	// BaseAgentSpeed is the traversal speed in edges per second at
	// difficulty 0; each difficulty step adds 25%. Default 1.5.
	BaseAgentSpeed float64
	// Seed seeds the session RNG. 0 derives a fresh seed from the clock on
	// every reset, so map selection differs across sessions.
	Seed int64
	// MapName pins a map, overriding progress and random selection.
	MapName string

	// Progress and Recorder are optional collaborators.
	Progress ProgressHolder
	Recorder SessionRecorder

	Logger *slog.Logger
}

const (
	defaultMaxBlockers      = 5
	defaultCountdownSeconds = 3.0
	defaultBaseAgentSpeed   = 1.5
)

func (c *Config) applyDefaults() {
	if c.MaxBlockers <= 0 {
		c.MaxBlockers = defaultMaxBlockers
	}
	if c.CountdownSeconds <= 0 {
		c.CountdownSeconds = defaultCountdownSeconds
	}
	if c.BaseAgentSpeed <= 0 {
		c.BaseAgentSpeed = defaultBaseAgentSpeed
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}
