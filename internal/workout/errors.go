package workout

import (
	"errors"

	"github.com/meltforce/formcoach/internal/exercise"
	"github.com/meltforce/formcoach/internal/pose"
)

var (
	// ErrInactive is returned for frames that arrive while no workout is running.
	ErrInactive = errors.New("no active workout")
	// ErrStaleFrame is returned for frames whose sequence number is not newer
	// than the last applied frame.
	ErrStaleFrame = errors.New("stale frame")
	// ErrInvalidExercise is returned by Start for an unregistered exercise id.
	ErrInvalidExercise = errors.New("invalid exercise")
)

// FrameErrorKind classifies a frame that could not be applied.
type FrameErrorKind string

const (
	KindMissingLandmark FrameErrorKind = "missing_landmark"
	KindDegenerateAngle FrameErrorKind = "degenerate_angle"
	KindUnknownExercise FrameErrorKind = "unknown_exercise"
	KindInvalidFrame    FrameErrorKind = "invalid_frame"
)

// FrameError reports a single skipped frame. The session keeps its previous
// state and stays active.
type FrameError struct {
	Kind FrameErrorKind
	Err  error
}

func (e *FrameError) Error() string {
	return string(e.Kind) + ": " + e.Err.Error()
}

func (e *FrameError) Unwrap() error {
	return e.Err
}

func newFrameError(err error) *FrameError {
	kind := KindInvalidFrame
	switch {
	case errors.Is(err, pose.ErrMissingLandmark):
		kind = KindMissingLandmark
	case errors.Is(err, pose.ErrDegenerateAngle):
		kind = KindDegenerateAngle
	case errors.Is(err, exercise.ErrUnknownExercise):
		kind = KindUnknownExercise
	}
	return &FrameError{Kind: kind, Err: err}
}
