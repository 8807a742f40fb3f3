// Package workout owns the single live workout session and serializes every
// frame applied to it.
package workout

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/meltforce/formcoach/internal/exercise"
	"github.com/meltforce/formcoach/internal/pose"
)

// State is the live session record. Starting a workout replaces it entirely.
type State struct {
	SessionID string `json:"session_id,omitempty"`
	Active    bool   `json:"active"`
	Exercise  string `json:"exercise,omitempty"`
	exercise.Progress

	LastSeq       uint64 `json:"last_seq,omitempty"`
	Frames        int    `json:"frames"`
	SkippedFrames int    `json:"skipped_frames"`
}

// Metrics is the per-frame snapshot sent back to clients.
type Metrics struct {
	Reps     int            `json:"reps"`
	Stage    exercise.Stage `json:"stage"`
	GoodReps int            `json:"good_reps"`
	Feedback []string       `json:"feedback"`
}

// Summary describes a finished (or abandoned) workout.
type Summary struct {
	SessionID     string    `json:"session_id,omitempty"`
	Exercise      string    `json:"exercise"`
	Reps          int       `json:"reps"`
	GoodReps      int       `json:"good_reps"`
	Duration      float64   `json:"duration"`
	StartedAt     time.Time `json:"started_at,omitzero"`
	EndedAt       time.Time `json:"ended_at,omitzero"`
	Frames        int       `json:"frames"`
	SkippedFrames int       `json:"skipped_frames"`
}

// Status is the live workout as reported to clients.
type Status struct {
	Active    bool   `json:"active"`
	Exercise  string `json:"exercise,omitempty"`
	SessionID string `json:"session_id,omitempty"`
	Metrics
	Frames        int `json:"frames"`
	SkippedFrames int `json:"skipped_frames"`
}

// StartResult acknowledges a started workout.
type StartResult struct {
	Status    string `json:"status"`
	Exercise  string `json:"exercise"`
	SessionID string `json:"session_id"`
}

// FrameInput is one landmark frame. Seq is optional; when set, frames must
// arrive with strictly increasing sequence numbers.
type FrameInput struct {
	Seq       uint64
	Landmarks pose.Frame
}

// Observer receives controller events. *metrics.Collector implements it.
type Observer interface {
	RecordSessionStart(exercise string)
	RecordSessionEnd(exercise string)
	RecordFrame(exercise, result string, duration time.Duration)
	RecordRep(exercise string, good bool)
}

// Controller serializes all access to the session state.
type Controller struct {
	mu       sync.Mutex
	state    State
	exercise exercise.Exercise

	log           *slog.Logger
	now           func() time.Time
	minVisibility float64
	allowUnknown  bool
	observer      Observer
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock replaces time.Now, mainly for tests and recorded replays.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithMinVisibility rejects landmarks whose visibility is below v.
func WithMinVisibility(v float64) Option {
	return func(c *Controller) { c.minVisibility = v }
}

// WithUnknownExercises accepts unregistered exercise ids at Start. Frames for
// such sessions are accepted but never change the counters.
func WithUnknownExercises(allow bool) Option {
	return func(c *Controller) { c.allowUnknown = allow }
}

// WithObserver reports session and frame events to o.
func WithObserver(o Observer) Option {
	return func(c *Controller) { c.observer = o }
}

// New creates a Controller with no active session.
func New(log *slog.Logger, opts ...Option) *Controller {
	c := &Controller{
		log: log,
		now: time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	c.state.Stage = exercise.StageDown
	c.state.Feedback = []string{}
	return c
}

// Start discards any previous session and begins a new one.
func (c *Controller) Start(exerciseID string) (StartResult, error) {
	ex, ok := exercise.Lookup(exerciseID)
	if !ok {
		if !c.allowUnknown {
			return StartResult{}, fmt.Errorf("%w: %q", ErrInvalidExercise, exerciseID)
		}
		ex = exercise.Unknown(exerciseID)
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.exercise = ex
	c.state = State{
		SessionID: uuid.NewString(),
		Active:    true,
		Exercise:  ex.ID(),
		Progress: exercise.Progress{
			Stage:     ex.DefaultStage(),
			Feedback:  []string{},
			StartTime: c.now(),
		},
	}
	if c.observer != nil {
		c.observer.RecordSessionStart(ex.ID())
	}
	c.log.Info("workout started", "exercise", ex.ID(), "session_id", c.state.SessionID)

	return StartResult{Status: "started", Exercise: ex.ID(), SessionID: c.state.SessionID}, nil
}

// End marks the session inactive and returns its summary. Calling End without
// a prior Start returns an empty summary.
func (c *Controller) End() Summary {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	s := Summary{
		SessionID:     c.state.SessionID,
		Exercise:      c.state.Exercise,
		Reps:          c.state.Counter,
		GoodReps:      c.state.GoodReps,
		StartedAt:     c.state.StartTime,
		Frames:        c.state.Frames,
		SkippedFrames: c.state.SkippedFrames,
	}
	if !c.state.StartTime.IsZero() {
		s.Duration = now.Sub(c.state.StartTime).Seconds()
		s.EndedAt = now
	}

	if c.state.Active {
		c.state.Active = false
		if c.observer != nil {
			c.observer.RecordSessionEnd(c.state.Exercise)
		}
		c.log.Info("workout ended",
			"exercise", s.Exercise,
			"session_id", s.SessionID,
			"reps", s.Reps,
			"good_reps", s.GoodReps,
			"duration", s.Duration,
		)
	}
	return s
}

// ProcessFrame applies one frame to the active session and returns the
// resulting metrics. A frame that cannot be applied leaves the state as it
// was and returns the unchanged metrics with a *FrameError, ErrInactive or
// ErrStaleFrame.
func (c *Controller) ProcessFrame(in FrameInput) (Metrics, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.state.Active {
		return c.metricsLocked(), ErrInactive
	}
	if in.Seq != 0 && in.Seq <= c.state.LastSeq {
		if c.observer != nil {
			c.observer.RecordFrame(c.state.Exercise, "stale", 0)
		}
		return c.metricsLocked(), fmt.Errorf("%w: seq %d, last applied %d", ErrStaleFrame, in.Seq, c.state.LastSeq)
	}

	started := time.Now()
	next := c.state.Progress
	err := c.exercise.Update(exercise.Input{
		Frame:         in.Landmarks,
		Now:           c.now(),
		MinVisibility: c.minVisibility,
	}, &next)
	elapsed := time.Since(started)

	if in.Seq != 0 {
		c.state.LastSeq = in.Seq
	}

	if err != nil {
		fe := newFrameError(err)
		c.state.SkippedFrames++
		if c.observer != nil {
			c.observer.RecordFrame(c.state.Exercise, string(fe.Kind), elapsed)
		}
		c.log.Debug("frame skipped", "exercise", c.state.Exercise, "kind", fe.Kind, "error", err)
		return c.metricsLocked(), fe
	}

	reps := next.Counter - c.state.Counter
	good := next.GoodReps - c.state.GoodReps
	c.state.Progress = next
	c.state.Frames++

	if c.observer != nil {
		c.observer.RecordFrame(c.state.Exercise, "ok", elapsed)
		if !c.exercise.TimeBased() {
			for i := 0; i < reps; i++ {
				c.observer.RecordRep(c.state.Exercise, i < good)
			}
		}
	}
	return c.metricsLocked(), nil
}

// Metrics returns the current per-frame snapshot.
func (c *Controller) Metrics() Metrics {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.metricsLocked()
}

// Status reports whether a workout is running along with its metrics.
func (c *Controller) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Status{
		Active:        c.state.Active,
		Exercise:      c.state.Exercise,
		SessionID:     c.state.SessionID,
		Metrics:       c.state.Metrics(),
		Frames:        c.state.Frames,
		SkippedFrames: c.state.SkippedFrames,
	}
}

// State returns a copy of the session state.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := c.state
	s.Feedback = cloneFeedback(c.state.Feedback)
	return s
}

func (c *Controller) metricsLocked() Metrics {
	return c.state.Metrics()
}

// Metrics returns the client-facing view of s.
func (s State) Metrics() Metrics {
	return Metrics{
		Reps:     s.Counter,
		Stage:    s.Stage,
		GoodReps: s.GoodReps,
		Feedback: cloneFeedback(s.Feedback),
	}
}

func cloneFeedback(f []string) []string {
	out := make([]string, len(f))
	copy(out, f)
	return out
}

// IsFrameSkip reports whether err only means the frame was not applied.
// Transports use it to keep a stream open.
func IsFrameSkip(err error) bool {
	var fe *FrameError
	return errors.As(err, &fe) || errors.Is(err, ErrInactive) || errors.Is(err, ErrStaleFrame)
}
