// Package storage keeps an append-only journal of finished workouts. The live
// session never touches it.
package storage

import (
	"context"
	"time"

	"github.com/meltforce/formcoach/internal/workout"
)

const (
	defaultSessionLimit = 20
	maxSessionLimit     = 200
)

// SessionRecord is a journaled workout summary.
type SessionRecord struct {
	ID int64 `json:"id"`
	workout.Summary
	RecordedAt time.Time `json:"recorded_at"`
}

// Journal stores finished workout summaries. *DB and *LocalDB implement it.
type Journal interface {
	RecordSession(ctx context.Context, s workout.Summary) error
	RecentSessions(ctx context.Context, limit int) ([]SessionRecord, error)
	Close() error
}

// Nop is the journal used when none is configured. It keeps nothing.
type Nop struct{}

func (Nop) RecordSession(context.Context, workout.Summary) error { return nil }
func (Nop) Close() error                                         { return nil }

func (Nop) RecentSessions(context.Context, int) ([]SessionRecord, error) {
	return []SessionRecord{}, nil
}

// RecordFinished journals s if it belongs to a started workout. Ending
// without a prior start produces a summary with no session id, which is skipped.
func RecordFinished(ctx context.Context, j Journal, s workout.Summary) error {
	if s.SessionID == "" {
		return nil
	}
	return j.RecordSession(ctx, s)
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return defaultSessionLimit
	}
	return min(limit, maxSessionLimit)
}
