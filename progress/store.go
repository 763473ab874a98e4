// Package progress persists the player's selected map and difficulty across
// sessions and keeps a per-session log. The game core treats the snapshot
// values as opaque pass-through state.
package progress

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Snapshot is the carried state read on every reset and written back when
// the player changes map or difficulty.
type Snapshot struct {
	MapName    string
	Difficulty int
}

// Store wraps the SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the progress database at path.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("progress: open database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("progress: migrate: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS progress (
		id INTEGER PRIMARY KEY CHECK (id = 1),
		map_name TEXT NOT NULL DEFAULT '',
		difficulty INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		seed INTEGER NOT NULL,
		map_name TEXT NOT NULL,
		difficulty INTEGER NOT NULL,
		started_at DATETIME NOT NULL,
		ended_at DATETIME,
		outcome TEXT NOT NULL DEFAULT '',
		ticks INTEGER NOT NULL DEFAULT 0
	);

	CREATE INDEX IF NOT EXISTS idx_sessions_map ON sessions(map_name);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Load returns the stored snapshot; a zero Snapshot when nothing was saved.
func (s *Store) Load() (Snapshot, error) {
	row := s.db.QueryRow(`SELECT map_name, difficulty FROM progress WHERE id = 1`)
	var snap Snapshot
	err := row.Scan(&snap.MapName, &snap.Difficulty)
	if errors.Is(err, sql.ErrNoRows) {
		return Snapshot{}, nil
	}
	if err != nil {
		return Snapshot{}, fmt.Errorf("progress: load: %w", err)
	}
	return snap, nil
}

// Save upserts the snapshot.
func (s *Store) Save(snap Snapshot) error {
	_, err := s.db.Exec(
		`INSERT INTO progress (id, map_name, difficulty) VALUES (1, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET map_name = excluded.map_name, difficulty = excluded.difficulty`,
		snap.MapName, snap.Difficulty,
	)
	if err != nil {
		return fmt.Errorf("progress: save: %w", err)
	}
	return nil
}

// BeginSession records a new session and returns its id.
func (s *Store) BeginSession(seed int64, mapName string, difficulty int) (string, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(
		`INSERT INTO sessions (id, seed, map_name, difficulty, started_at) VALUES (?, ?, ?, ?, ?)`,
		id, seed, mapName, difficulty, time.Now().UTC(),
	)
	if err != nil {
		return "", fmt.Errorf("progress: begin session: %w", err)
	}
	return id, nil
}

// EndSession marks a session finished with its outcome ("ESCAPED",
// "TRAPPED", or "ABANDONED") and total tick count.
func (s *Store) EndSession(id string, outcome string, ticks int) error {
	_, err := s.db.Exec(
		`UPDATE sessions SET ended_at = ?, outcome = ?, ticks = ? WHERE id = ?`,
		time.Now().UTC(), outcome, ticks, id,
	)
	if err != nil {
		return fmt.Errorf("progress: end session: %w", err)
	}
	return nil
}

// Session is one recorded play-through.
type Session struct {
	ID         string
	Seed       int64
	MapName    string
	Difficulty int
	StartedAt  time.Time
	EndedAt    *time.Time
	Outcome    string
	Ticks      int
}

// RecentSessions returns the most recent sessions, newest first.
func (s *Store) RecentSessions(limit int) ([]*Session, error) {
	rows, err := s.db.Query(
		`SELECT id, seed, map_name, difficulty, started_at, ended_at, outcome, ticks
		 FROM sessions ORDER BY started_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("progress: recent sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		var sess Session
		var endedAt sql.NullTime
		if err := rows.Scan(&sess.ID, &sess.Seed, &sess.MapName, &sess.Difficulty,
			&sess.StartedAt, &endedAt, &sess.Outcome, &sess.Ticks); err != nil {
			return nil, fmt.Errorf("progress: recent sessions: %w", err)
		}
		if endedAt.Valid {
			sess.EndedAt = &endedAt.Time
		}
		sessions = append(sessions, &sess)
	}
	return sessions, rows.Err()
}
