// Package journal records drive sessions and control-state transitions in a
// SQLite database.
package journal

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// ErrNoSession is returned when recording without an active session.
var ErrNoSession = errors.New("no active session")

// ErrNotFound is returned when a requested session does not exist.
var ErrNotFound = errors.New("not found")

// Journal is a SQLite-backed drive journal. One session is active at a time.
type Journal struct {
	db      *sql.DB
	path    string
	mu      sync.Mutex
	session string
}

// Open opens or creates the journal at path, enabling foreign keys and
// running migrations. Missing parent directories are created.
func Open(path string) (*Journal, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create journal directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Enable foreign key constraints
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	j := &Journal{
		db:   db,
		path: path,
	}

	if err := j.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return j, nil
}

// Close closes the database connection.
func (j *Journal) Close() error {
	return j.db.Close()
}

// Path returns the database file path.
func (j *Journal) Path() string {
	return j.path
}

// Settings summarises the configuration a session was driven with.
type Settings struct {
	Radius     int
	Threshold  float64
	MaxAngle   float64
	KeyBackend string
}

// Session is one run of the frame loop.
type Session struct {
	ID        string
	StartedAt time.Time
	EndedAt   *time.Time
	Frames    int64
	Settings  Settings
}

// Transition is a change of control state.
type Transition struct {
	Frame int64
	State string
	Angle float64
	At    time.Time
}

// StartSession begins a new session and makes it the active one.
func (j *Journal) StartSession(s Settings) (string, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	id := uuid.New().String()
	_, err := j.db.Exec(
		`INSERT INTO sessions (id, started_at, radius, threshold, max_angle, key_backend)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		id, time.Now(), s.Radius, s.Threshold, s.MaxAngle, s.KeyBackend,
	)
	if err != nil {
		return "", fmt.Errorf("failed to start session: %w", err)
	}

	j.session = id
	return id, nil
}

// Active returns the active session ID, or "" when none is active.
func (j *Journal) Active() string {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.session
}

// RecordTransition stores a state change of the active session.
func (j *Journal) RecordTransition(frame int64, state string, angle float64) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.session == "" {
		return ErrNoSession
	}

	_, err := j.db.Exec(
		`INSERT INTO transitions (session_id, frame, state, angle, at) VALUES (?, ?, ?, ?, ?)`,
		j.session, frame, state, angle, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("failed to record transition: %w", err)
	}
	return nil
}

// EndSession closes the active session with its frame count.
func (j *Journal) EndSession(frames int64) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.session == "" {
		return ErrNoSession
	}

	_, err := j.db.Exec(
		`UPDATE sessions SET ended_at = ?, frames = ? WHERE id = ?`,
		time.Now(), frames, j.session,
	)
	if err != nil {
		return fmt.Errorf("failed to end session: %w", err)
	}

	j.session = ""
	return nil
}

// Sessions lists all sessions, most recent first.
func (j *Journal) Sessions() ([]*Session, error) {
	rows, err := j.db.Query(
		`SELECT id, started_at, ended_at, frames, radius, threshold, max_angle, key_backend
		 FROM sessions ORDER BY started_at DESC, rowid DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		s := &Session{}
		var ended sql.NullTime
		if err := rows.Scan(&s.ID, &s.StartedAt, &ended, &s.Frames,
			&s.Settings.Radius, &s.Settings.Threshold, &s.Settings.MaxAngle, &s.Settings.KeyBackend); err != nil {
			return nil, err
		}
		if ended.Valid {
			t := ended.Time
			s.EndedAt = &t
		}
		sessions = append(sessions, s)
	}

	return sessions, rows.Err()
}

// Transitions lists the transitions of a session in frame order.
func (j *Journal) Transitions(sessionID string) ([]*Transition, error) {
	var exists int
	err := j.db.QueryRow(`SELECT 1 FROM sessions WHERE id = ?`, sessionID).Scan(&exists)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	rows, err := j.db.Query(
		`SELECT frame, state, angle, at FROM transitions
		 WHERE session_id = ? ORDER BY frame, id`,
		sessionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var transitions []*Transition
	for rows.Next() {
		t := &Transition{}
		if err := rows.Scan(&t.Frame, &t.State, &t.Angle, &t.At); err != nil {
			return nil, err
		}
		transitions = append(transitions, t)
	}

	return transitions, rows.Err()
}
