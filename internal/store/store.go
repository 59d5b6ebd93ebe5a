// Package store handles SQLite persistence of finished counting sessions.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/cartrack/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// Store wraps SQLite access for the session archive.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id INTEGER PRIMARY KEY,
			session_key TEXT NOT NULL UNIQUE,
			label TEXT NOT NULL,
			started_at TEXT NOT NULL,
			first_event_at TEXT NOT NULL,
			last_event_at TEXT NOT NULL,
			ended_at TEXT NOT NULL,
			count INTEGER NOT NULL,
			minutes_elapsed INTEGER NOT NULL,
			rate_per_minute REAL NOT NULL,
			elapsed_mode TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_ended_at ON sessions(ended_at);`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_label ON sessions(label);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// InsertSession stores a finished session and returns its row id.
func (s *Store) InsertSession(ctx context.Context, rec model.SessionRecord) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (session_key, label, started_at, first_event_at, last_event_at, ended_at, count, minutes_elapsed, rate_per_minute, elapsed_mode)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.SessionKey,
		rec.Label,
		formatTime(rec.StartedAt),
		formatTime(rec.FirstEventAt),
		formatTime(rec.LastEventAt),
		formatTime(rec.EndedAt),
		rec.Count,
		rec.MinutesElapsed,
		rec.RatePerMinute,
		rec.ElapsedMode,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListSessions returns archived sessions matching the filter, oldest first.
// Last keeps only the most recent N matches.
func (s *Store) ListSessions(ctx context.Context, filter model.HistoryFilter) ([]model.SessionRecord, error) {
	where, args := filterClauses(filter)
	query := fmt.Sprintf(`SELECT id, session_key, label, started_at, first_event_at, last_event_at, ended_at,
		count, minutes_elapsed, rate_per_minute, elapsed_mode
		FROM sessions
		WHERE %s
		ORDER BY ended_at DESC, id DESC`, where)
	if filter.Last > 0 {
		query += " LIMIT ?"
		args = append(args, filter.Last)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var sessions []model.SessionRecord
	for rows.Next() {
		var rec model.SessionRecord
		var startedAt, firstAt, lastAt, endedAt string
		if err := rows.Scan(&rec.ID, &rec.SessionKey, &rec.Label, &startedAt, &firstAt, &lastAt, &endedAt,
			&rec.Count, &rec.MinutesElapsed, &rec.RatePerMinute, &rec.ElapsedMode); err != nil {
			return nil, err
		}
		if rec.StartedAt, err = parseTime(startedAt); err != nil {
			return nil, err
		}
		if rec.FirstEventAt, err = parseTime(firstAt); err != nil {
			return nil, err
		}
		if rec.LastEventAt, err = parseTime(lastAt); err != nil {
			return nil, err
		}
		if rec.EndedAt, err = parseTime(endedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i, j := 0, len(sessions)-1; i < j; i, j = i+1, j-1 {
		sessions[i], sessions[j] = sessions[j], sessions[i]
	}
	return sessions, nil
}

// LastSession returns the most recently ended session for a label. An empty
// label matches any session.
func (s *Store) LastSession(ctx context.Context, label string) (model.SessionRecord, bool, error) {
	sessions, err := s.ListSessions(ctx, model.HistoryFilter{Label: label, Last: 1})
	if err != nil {
		return model.SessionRecord{}, false, err
	}
	if len(sessions) == 0 {
		return model.SessionRecord{}, false, nil
	}
	return sessions[0], true, nil
}

// Labels returns the distinct session labels in alphabetical order.
func (s *Store) Labels(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT DISTINCT label FROM sessions ORDER BY label`)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var labels []string
	for rows.Next() {
		var label string
		if err := rows.Scan(&label); err != nil {
			return nil, err
		}
		labels = append(labels, label)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return labels, nil
}

func filterClauses(filter model.HistoryFilter) (string, []any) {
	clauses := []string{"1=1"}
	args := []any{}
	if filter.Label != "" {
		clauses = append(clauses, "label = ?")
		args = append(args, filter.Label)
	}
	if filter.Since != nil {
		clauses = append(clauses, "ended_at >= ?")
		args = append(args, formatTime(*filter.Since))
	}
	return strings.Join(clauses, " AND "), args
}

// Fixed-width UTC timestamps keep lexical order equal to chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}
