package exercise

import (
	"fmt"
	"math"

	"github.com/meltforce/formcoach/internal/pose"
)

const (
	curlExtended   = 160.0
	curlContracted = 30.0

	// maxCurlDrift is the horizontal offset, in normalized frame units, allowed
	// between shoulder and hip and between elbow and shoulder.
	maxCurlDrift = 0.08
)

// BicepCurl counts left-arm curls from the shoulder-elbow-wrist angle. The
// "down" stage is the extended arm and a rep is counted on contraction.
type BicepCurl struct{}

func (BicepCurl) ID() string          { return "bicep_curl" }
func (BicepCurl) Name() string        { return "Bicep Curls" }
func (BicepCurl) DefaultStage() Stage { return StageDown }
func (BicepCurl) TimeBased() bool     { return false }

type curlAngles struct {
	Elbow    float64
	Shoulder pose.Point
	ElbowPos pose.Point
	Hip      pose.Point
}

func curlForm(a curlAngles, stage Stage) []string {
	var feedback []string
	if stage == StageUp && a.Elbow > 45 {
		feedback = append(feedback, "Lift higher for a full contraction!")
	}
	if stage == StageDown && a.Elbow < 150 {
		feedback = append(feedback, "Lower your arm completely!")
	}
	if math.Abs(a.Shoulder.X-a.Hip.X) > maxCurlDrift {
		feedback = append(feedback, "Avoid swinging your body.")
	}
	if a.ElbowPos.X-a.Shoulder.X > maxCurlDrift {
		feedback = append(feedback, "Keep elbows tucked in.")
	}
	return feedback
}

// Update advances the curl. A counted rep is credited as good when the form
// holds at the contracted stage.
func (BicepCurl) Update(in Input, p *Progress) error {
	pts, err := in.Frame.Points(in.MinVisibility, pose.LeftShoulder, pose.LeftElbow, pose.LeftWrist, pose.LeftHip)
	if err != nil {
		return err
	}
	elbow, err := pose.Angle(pts[0], pts[1], pts[2])
	if err != nil {
		return fmt.Errorf("elbow angle: %w", err)
	}
	a := curlAngles{Elbow: elbow, Shoulder: pts[0], ElbowPos: pts[1], Hip: pts[3]}

	feedback := curlForm(a, p.Stage)

	if elbow > curlExtended {
		p.Stage = StageDown
	}
	if elbow < curlContracted && p.Stage == StageDown {
		p.Stage = StageUp
		p.Counter++
		if len(curlForm(a, StageUp)) == 0 {
			p.GoodReps++
		}
	}
	p.Feedback = orGoodForm(feedback)
	return nil
}
