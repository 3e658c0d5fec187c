// Package journal keeps an append-only SQLite log of tracking events.
// It is an audit trail only; nothing is ever restored from it.
package journal

import (
	"context"
	"crypto/rand"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/oklog/ulid/v2"

	"github.com/teslashibe/go-bullseye/pkg/tracking"
)

// Kind is the type of a journal entry.
type Kind string

const (
	KindLocked        Kind = Kind(tracking.EventLocked)
	KindUnlocked      Kind = Kind(tracking.EventUnlocked)
	KindLost          Kind = Kind(tracking.EventLost)
	KindCoasting      Kind = Kind(tracking.EventCoasting)
	KindRecovered     Kind = Kind(tracking.EventRecovered)
	KindTrackingOn    Kind = Kind(tracking.EventTrackingOn)
	KindTrackingOff   Kind = Kind(tracking.EventTrackingOff)
	KindCommandFailed Kind = "command_failed"
)

// Event is one journal row.
type Event struct {
	ID        string    `db:"id" json:"id"`
	SessionID string    `db:"session_id" json:"session_id"`
	Kind      Kind      `db:"kind" json:"kind"`
	Pan       float64   `db:"pan" json:"pan"`
	Tilt      float64   `db:"tilt" json:"tilt"`
	Zoom      float64   `db:"zoom" json:"zoom"`
	Detail    string    `db:"detail" json:"detail,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// FromTracking converts a state machine event.
func FromTracking(sessionID string, e tracking.Event) Event {
	return Event{
		SessionID: sessionID,
		Kind:      Kind(e.Kind),
		Pan:       e.Pose.Pan,
		Tilt:      e.Pose.Tilt,
		Zoom:      e.Zoom,
		CreatedAt: e.At,
	}
}

const schema = `
CREATE TABLE IF NOT EXISTS events (
	id         TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	kind       TEXT NOT NULL,
	pan        REAL NOT NULL DEFAULT 0,
	tilt       REAL NOT NULL DEFAULT 0,
	zoom       REAL NOT NULL DEFAULT 1,
	detail     TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_session ON events(session_id, kind);
`

const (
	queryInsert = `INSERT INTO events (id, session_id, kind, pan, tilt, zoom, detail, created_at)
		VALUES (:id, :session_id, :kind, :pan, :tilt, :zoom, :detail, :created_at)`
	queryRecent      = `SELECT * FROM events ORDER BY id DESC LIMIT ?`
	queryCountByKind = `SELECT kind, COUNT(*) AS n FROM events WHERE session_id = ? GROUP BY kind`
)

// Store is the SQLite-backed journal.
type Store struct {
	db *sqlx.DB

	mu      sync.Mutex
	entropy *ulid.MonotonicEntropy
}

// Open opens (creating if needed) the journal at path.
func Open(path string) (*Store, error) {
	db, err := sqlx.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("journal: open %s: %w", path, err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal: migrate: %w", err)
	}

	return &Store{
		db:      db,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}, nil
}

// Record appends e, assigning an ID and timestamp when missing.
func (s *Store) Record(ctx context.Context, e Event) (Event, error) {
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}
	e.CreatedAt = e.CreatedAt.UTC()

	if e.ID == "" {
		id, err := s.newID(e.CreatedAt)
		if err != nil {
			return e, err
		}
		e.ID = id
	}

	if _, err := s.db.NamedExecContext(ctx, queryInsert, e); err != nil {
		return e, fmt.Errorf("journal: insert %s: %w", e.Kind, err)
	}
	return e, nil
}

// Recent returns up to limit events, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 50
	}
	var events []Event
	if err := s.db.SelectContext(ctx, &events, queryRecent, limit); err != nil {
		return nil, fmt.Errorf("journal: recent: %w", err)
	}
	return events, nil
}

// CountByKind tallies a session's events.
func (s *Store) CountByKind(ctx context.Context, sessionID string) (map[Kind]int, error) {
	var rows []struct {
		Kind Kind `db:"kind"`
		N    int  `db:"n"`
	}
	if err := s.db.SelectContext(ctx, &rows, queryCountByKind, sessionID); err != nil {
		return nil, fmt.Errorf("journal: count: %w", err)
	}

	out := make(map[Kind]int, len(rows))
	for _, r := range rows {
		out[r.Kind] = r.N
	}
	return out, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) newID(t time.Time) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, err := ulid.New(ulid.Timestamp(t), s.entropy)
	if err != nil {
		return "", fmt.Errorf("journal: ulid: %w", err)
	}
	return id.String(), nil
}
