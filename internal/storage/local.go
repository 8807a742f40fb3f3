package storage

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/meltforce/formcoach/internal/workout"
	_ "modernc.org/sqlite"
)

// LocalDB is a single-file SQLite journal for deployments without PostgreSQL.
type LocalDB struct {
	db *sql.DB
}

// OpenLocal opens (or creates) the SQLite journal at path.
func OpenLocal(path string) (*LocalDB, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating journal dir %s: %w", dir, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening journal db: %w", err)
	}

	_, err = db.Exec(`CREATE TABLE IF NOT EXISTS workout_sessions (
		id             INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id     TEXT NOT NULL UNIQUE,
		exercise       TEXT NOT NULL,
		reps           INTEGER NOT NULL,
		good_reps      INTEGER NOT NULL,
		duration_s     REAL NOT NULL,
		frames         INTEGER NOT NULL DEFAULT 0,
		skipped_frames INTEGER NOT NULL DEFAULT 0,
		started_at     TEXT NOT NULL,
		ended_at       TEXT NOT NULL,
		created_at     TEXT NOT NULL
	)`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("creating journal table: %w", err)
	}

	return &LocalDB{db: db}, nil
}

// RecordSession stores a finished workout. Recording the same session twice
// keeps the first row.
func (l *LocalDB) RecordSession(ctx context.Context, s workout.Summary) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO workout_sessions (session_id, exercise, reps, good_reps, duration_s,
		 frames, skipped_frames, started_at, ended_at, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.SessionID, s.Exercise, s.Reps, s.GoodReps, s.Duration,
		s.Frames, s.SkippedFrames, formatTime(s.StartedAt), formatTime(s.EndedAt), formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("inserting workout session %s: %w", s.SessionID, err)
	}
	return nil
}

// RecentSessions returns the most recently recorded workouts, newest first.
func (l *LocalDB) RecentSessions(ctx context.Context, limit int) ([]SessionRecord, error) {
	rows, err := l.db.QueryContext(ctx,
		`SELECT id, session_id, exercise, reps, good_reps, duration_s,
		 frames, skipped_frames, started_at, ended_at, created_at
		 FROM workout_sessions
		 ORDER BY id DESC
		 LIMIT ?`,
		clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("querying workout sessions: %w", err)
	}
	defer rows.Close()

	result := []SessionRecord{}
	for rows.Next() {
		var r SessionRecord
		var started, ended, recorded string
		if err := rows.Scan(&r.ID, &r.SessionID, &r.Exercise, &r.Reps, &r.GoodReps, &r.Duration,
			&r.Frames, &r.SkippedFrames, &started, &ended, &recorded); err != nil {
			return nil, fmt.Errorf("scanning workout session: %w", err)
		}
		if r.StartedAt, err = parseTime(started); err != nil {
			return nil, err
		}
		if r.EndedAt, err = parseTime(ended); err != nil {
			return nil, err
		}
		if r.RecordedAt, err = parseTime(recorded); err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// Close closes the journal database.
func (l *LocalDB) Close() error {
	return l.db.Close()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("parsing journal timestamp %q: %w", s, err)
	}
	return t, nil
}
