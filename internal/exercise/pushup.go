package exercise

import (
	"fmt"

	"github.com/meltforce/formcoach/internal/pose"
)

const (
	pushUpTop         = 160.0
	pushUpBottom      = 90.0
	pushUpShallow     = 120.0
	pushUpMinBodyLine = 160.0
)

// PushUp counts push-ups from the left shoulder-elbow-wrist angle.
type PushUp struct{}

func (PushUp) ID() string          { return "pushups" }
func (PushUp) Name() string        { return "Push-ups" }
func (PushUp) DefaultStage() Stage { return StageDown }
func (PushUp) TimeBased() bool     { return false }

func pushUpForm(shoulder, elbow float64, stage Stage) []string {
	var feedback []string
	if stage == StageDown && elbow > pushUpShallow {
		feedback = append(feedback, "Lower yourself more for full range.")
	}
	if shoulder < pushUpMinBodyLine {
		feedback = append(feedback, "Keep your body straight.")
	}
	return feedback
}

// Update advances the push-up. Like the squat, a counted rep is credited
// against the "down" stage it transitions into.
func (PushUp) Update(in Input, p *Progress) error {
	pts, err := in.Frame.Points(in.MinVisibility, pose.LeftShoulder, pose.LeftElbow, pose.LeftWrist, pose.LeftHip)
	if err != nil {
		return err
	}
	elbow, err := pose.Angle(pts[0], pts[1], pts[2])
	if err != nil {
		return fmt.Errorf("elbow angle: %w", err)
	}
	shoulder, err := pose.Angle(pts[1], pts[0], pts[3])
	if err != nil {
		return fmt.Errorf("shoulder angle: %w", err)
	}

	feedback := pushUpForm(shoulder, elbow, p.Stage)

	if elbow > pushUpTop {
		p.Stage = StageUp
	}
	if elbow < pushUpBottom && p.Stage == StageUp {
		p.Stage = StageDown
		p.Counter++
		if len(pushUpForm(shoulder, elbow, StageDown)) == 0 {
			p.GoodReps++
		}
	}
	p.Feedback = orGoodForm(feedback)
	return nil
}
