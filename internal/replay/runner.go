package replay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/meltforce/formcoach/internal/pose"
	"github.com/meltforce/formcoach/internal/workout"
)

// defaultFPS spaces frames that carry no timestamp.
const defaultFPS = 30

// Result is the outcome of one replay.
type Result struct {
	Summary workout.Summary `json:"summary"`
	Last    workout.Metrics `json:"last"`
	Applied int             `json:"applied"`
	// Skipped counts rejected frames by reason.
	Skipped map[string]int `json:"skipped,omitempty"`
}

func (r *Result) skip(reason string) {
	if r.Skipped == nil {
		r.Skipped = make(map[string]int)
	}
	r.Skipped[reason]++
}

// Progress is called after every frame with the number handled so far.
type Progress func(done int)

// replayClock reports recording time instead of wall time.
type replayClock struct {
	base time.Time
	at   time.Duration
	// untimed frames since the last timestamp
	anchor time.Duration
	since  int
}

func (c *replayClock) now() time.Time { return c.base.Add(c.at) }

// advance moves the clock to the frame's timestamp. Frames without one are
// spaced at defaultFPS. It never moves backwards.
func (c *replayClock) advance(i int, msg pose.Message) {
	if msg.T > 0 {
		if at := time.Duration(msg.T * float64(time.Second)); at > c.at {
			c.at = at
		}
		c.anchor, c.since = c.at, 0
		return
	}
	if i > 0 {
		c.since++
		c.at = c.anchor + time.Duration(c.since)*time.Second/defaultFPS
	}
}

// Local replays frames through an in-process controller. Timing comes from
// the frames' t field so holds are counted in recording time.
func Local(ctx context.Context, log *slog.Logger, exerciseID string, frames []pose.Message, progress Progress, opts ...workout.Option) (Result, error) {
	clock := &replayClock{base: time.Now().UTC()}
	if len(frames) > 0 {
		clock.advance(0, frames[0])
	}
	tracker := workout.New(log, append(opts, workout.WithClock(clock.now))...)

	if _, err := tracker.Start(exerciseID); err != nil {
		return Result{}, err
	}

	var res Result
	for i, msg := range frames {
		if err := ctx.Err(); err != nil {
			tracker.End()
			return res, err
		}
		clock.advance(i, msg)

		landmarks, err := msg.Frame()
		if err != nil {
			res.skip("decode")
			reportProgress(progress, i+1)
			continue
		}
		m, err := tracker.ProcessFrame(workout.FrameInput{Seq: msg.Seq, Landmarks: landmarks})
		res.Last = m
		switch {
		case err == nil:
			res.Applied++
		case errors.Is(err, workout.ErrStaleFrame):
			res.skip("stale")
		default:
			var fe *workout.FrameError
			if !errors.As(err, &fe) {
				return res, fmt.Errorf("frame %d: %w", i, err)
			}
			res.skip(string(fe.Kind))
		}
		reportProgress(progress, i+1)
	}

	res.Summary = tracker.End()
	return res, nil
}

func reportProgress(p Progress, done int) {
	if p != nil {
		p(done)
	}
}
