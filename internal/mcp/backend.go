package mcp

import (
	"context"
	"log/slog"

	"github.com/meltforce/formcoach/internal/storage"
	"github.com/meltforce/formcoach/internal/workout"
)

// Backend abstracts the workout service for MCP tools. Both *Local (in-process
// tracker) and HTTPClient (remote via REST API) satisfy this interface.
type Backend interface {
	StartWorkout(ctx context.Context, exercise string) (workout.StartResult, error)
	EndWorkout(ctx context.Context) (workout.Summary, error)
	WorkoutStatus(ctx context.Context) (workout.Status, error)
	RecentSessions(ctx context.Context, limit int) ([]storage.SessionRecord, error)
}

// Local drives the tracker of the running server.
type Local struct {
	tracker *workout.Controller
	journal storage.Journal
	log     *slog.Logger
}

// Compile-time check: *Local satisfies Backend.
var _ Backend = (*Local)(nil)

// NewLocal creates a Backend over an in-process tracker. journal may be nil.
func NewLocal(tracker *workout.Controller, journal storage.Journal, log *slog.Logger) *Local {
	if journal == nil {
		journal = storage.Nop{}
	}
	return &Local{tracker: tracker, journal: journal, log: log}
}

func (l *Local) StartWorkout(_ context.Context, exercise string) (workout.StartResult, error) {
	return l.tracker.Start(exercise)
}

// EndWorkout ends the workout and journals it. Journal failures are logged
// and do not fail the call.
func (l *Local) EndWorkout(ctx context.Context) (workout.Summary, error) {
	summary := l.tracker.End()
	if err := storage.RecordFinished(ctx, l.journal, summary); err != nil {
		l.log.Warn("journal write failed", "session_id", summary.SessionID, "error", err)
	}
	return summary, nil
}

func (l *Local) WorkoutStatus(context.Context) (workout.Status, error) {
	return l.tracker.Status(), nil
}

func (l *Local) RecentSessions(ctx context.Context, limit int) ([]storage.SessionRecord, error) {
	return l.journal.RecentSessions(ctx, limit)
}
