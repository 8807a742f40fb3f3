package exercise

import (
	"fmt"

	"github.com/meltforce/formcoach/internal/pose"
)

const (
	squatStanding = 160.0
	squatBottom   = 100.0
	squatMinHip   = 80.0
)

// Squat counts squats from the left hip-knee-ankle angle.
type Squat struct{}

func (Squat) ID() string          { return "squats" }
func (Squat) Name() string        { return "Squats" }
func (Squat) DefaultStage() Stage { return StageDown }
func (Squat) TimeBased() bool     { return false }

func squatForm(knee, hip float64, stage Stage) []string {
	var feedback []string
	if stage == StageDown && knee > squatBottom {
		feedback = append(feedback, "Squat deeper for full range of motion.")
	}
	if hip < squatMinHip {
		feedback = append(feedback, "Keep your chest up and back straight.")
	}
	return feedback
}

// Update advances the squat. A counted rep is credited against the "down"
// stage it transitions into.
func (Squat) Update(in Input, p *Progress) error {
	pts, err := in.Frame.Points(in.MinVisibility, pose.LeftShoulder, pose.LeftHip, pose.LeftKnee, pose.LeftAnkle)
	if err != nil {
		return err
	}
	knee, err := pose.Angle(pts[1], pts[2], pts[3])
	if err != nil {
		return fmt.Errorf("knee angle: %w", err)
	}
	hip, err := pose.Angle(pts[0], pts[1], pts[2])
	if err != nil {
		return fmt.Errorf("hip angle: %w", err)
	}

	feedback := squatForm(knee, hip, p.Stage)

	if knee > squatStanding {
		p.Stage = StageUp
	}
	if knee < squatBottom && p.Stage == StageUp {
		p.Stage = StageDown
		p.Counter++
		if len(squatForm(knee, hip, StageDown)) == 0 {
			p.GoodReps++
		}
	}
	p.Feedback = orGoodForm(feedback)
	return nil
}
