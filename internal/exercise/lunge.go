package exercise

import (
	"fmt"

	"github.com/meltforce/formcoach/internal/pose"
)

const (
	lungeStanding = 160.0
	lungeBottom   = 120.0
)

// Lunge counts lunges from the right (front) leg's hip-knee-ankle angle.
// It has no form rules, so every counted rep is good.
type Lunge struct{}

func (Lunge) ID() string          { return "lunges" }
func (Lunge) Name() string        { return "Lunges" }
func (Lunge) DefaultStage() Stage { return StageDown }
func (Lunge) TimeBased() bool     { return false }

func (Lunge) Update(in Input, p *Progress) error {
	pts, err := in.Frame.Points(in.MinVisibility, pose.RightHip, pose.RightKnee, pose.RightAnkle)
	if err != nil {
		return err
	}
	knee, err := pose.Angle(pts[0], pts[1], pts[2])
	if err != nil {
		return fmt.Errorf("knee angle: %w", err)
	}

	if knee > lungeStanding {
		p.Stage = StageUp
	}
	if knee < lungeBottom && p.Stage == StageUp {
		p.Stage = StageDown
		p.Counter++
		p.GoodReps++
	}
	p.Feedback = []string{GoodForm}
	return nil
}
