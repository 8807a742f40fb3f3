package exercise

import (
	"fmt"
	"time"

	"github.com/meltforce/formcoach/internal/pose"
)

const plankMinBodyLine = 160.0

const (
	plankHolding  = "Good form! Keep holding!"
	plankStraight = "Keep your body straight!"
)

// Plank tracks hold time. Counter is whole seconds since the session start
// and GoodReps is the number of seconds credited with a straight body line.
type Plank struct{}

func (Plank) ID() string          { return "plank" }
func (Plank) Name() string        { return "Plank" }
func (Plank) DefaultStage() Stage { return StageReady }
func (Plank) TimeBased() bool     { return true }

func plankForm(bodyLine float64) []string {
	if bodyLine <= plankMinBodyLine {
		return []string{plankStraight}
	}
	return nil
}

// HoldStage formats the stage label shown during a hold.
func HoldStage(seconds int) Stage {
	return Stage(fmt.Sprintf("Hold: %ds", seconds))
}

func (Plank) Update(in Input, p *Progress) error {
	pts, err := in.Frame.Points(in.MinVisibility, pose.LeftShoulder, pose.LeftHip, pose.LeftKnee)
	if err != nil {
		return err
	}
	bodyLine, err := pose.Angle(pts[0], pts[1], pts[2])
	if err != nil {
		return fmt.Errorf("body line angle: %w", err)
	}

	if p.StartTime.IsZero() {
		p.StartTime = in.Now
	}
	// Replayed or skewed clocks must never move the counter backwards.
	if held := int(in.Now.Sub(p.StartTime) / time.Second); held > p.Counter {
		p.Counter = held
	}

	violations := plankForm(bodyLine)
	if len(violations) == 0 {
		if p.Counter > p.CreditedSecond {
			p.GoodReps++
			p.CreditedSecond = p.Counter
		}
		p.Feedback = []string{plankHolding}
	} else {
		p.Feedback = violations
	}
	p.Stage = HoldStage(p.Counter)
	return nil
}
