package storage

import (
	"context"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/meltforce/formcoach/internal/workout"
)

// DB is the PostgreSQL journal. It wraps a pgxpool.Pool.
type DB struct {
	Pool *pgxpool.Pool
}

// New creates a new DB with a connection pool.
func New(ctx context.Context, dsn string) (*DB, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	return &DB{Pool: pool}, nil
}

// Close closes the connection pool.
func (db *DB) Close() error {
	db.Pool.Close()
	return nil
}

// RunMigrations applies all pending migrations from the given directory.
func RunMigrations(dsn, migrationsPath string) error {
	m, err := migrate.New("file://"+migrationsPath, dsn)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

// RecordSession stores a finished workout. Recording the same session twice
// keeps the first row.
func (db *DB) RecordSession(ctx context.Context, s workout.Summary) error {
	_, err := db.Pool.Exec(ctx,
		`INSERT INTO workout_sessions (session_id, exercise, reps, good_reps, duration_s,
		 frames, skipped_frames, started_at, ended_at)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
		 ON CONFLICT (session_id) DO NOTHING`,
		s.SessionID, s.Exercise, s.Reps, s.GoodReps, s.Duration,
		s.Frames, s.SkippedFrames, s.StartedAt, s.EndedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting workout session %s: %w", s.SessionID, err)
	}
	return nil
}

// RecentSessions returns the most recently recorded workouts, newest first.
func (db *DB) RecentSessions(ctx context.Context, limit int) ([]SessionRecord, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT id, session_id, exercise, reps, good_reps, duration_s,
		 frames, skipped_frames, started_at, ended_at, created_at
		 FROM workout_sessions
		 ORDER BY created_at DESC, id DESC
		 LIMIT $1`,
		clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("querying workout sessions: %w", err)
	}
	defer rows.Close()

	result := []SessionRecord{}
	for rows.Next() {
		var r SessionRecord
		if err := rows.Scan(&r.ID, &r.SessionID, &r.Exercise, &r.Reps, &r.GoodReps, &r.Duration,
			&r.Frames, &r.SkippedFrames, &r.StartedAt, &r.EndedAt, &r.RecordedAt); err != nil {
			return nil, fmt.Errorf("scanning workout session: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}
