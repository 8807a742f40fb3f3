package replay

import (
	"fmt"
	"math"

	"github.com/meltforce/formcoach/internal/exercise"
	"github.com/meltforce/formcoach/internal/pose"
)

// SynthOptions describes a generated recording.
type SynthOptions struct {
	Exercise string
	// Reps is the number of repetitions, or seconds held for time-based exercises.
	Reps int
	// FPS is the frame rate. Defaults to 30.
	FPS float64
	// RepSeconds is the length of one repetition. Defaults to 2.
	RepSeconds float64
	// Sloppy generates every rep with a form fault.
	Sloppy bool
}

// range of the driving joint angle over a repetition
type sweep struct {
	top, bottom float64
}

var sweeps = map[string]sweep{
	"bicep_curl": {top: 170, bottom: 25},
	"squats":     {top: 172, bottom: 85},
	"pushups":    {top: 170, bottom: 80},
	"lunges":     {top: 170, bottom: 100},
}

// Synthesize generates a recording of clean (or sloppy) repetitions. Every
// recording opens with half a second at the top of the movement so the
// counter is armed before the first rep.
func Synthesize(opts SynthOptions) ([]pose.Message, error) {
	ex, ok := exercise.Lookup(opts.Exercise)
	if !ok {
		return nil, fmt.Errorf("synthesize: unknown exercise %q", opts.Exercise)
	}
	if opts.Reps <= 0 {
		return nil, fmt.Errorf("synthesize: reps must be positive")
	}
	if opts.FPS <= 0 {
		opts.FPS = 30
	}
	if opts.RepSeconds <= 0 {
		opts.RepSeconds = 2
	}

	if ex.TimeBased() {
		body := 176.0
		if opts.Sloppy {
			body = 140
		}
		n := int(math.Round(float64(opts.Reps)*opts.FPS)) + 1
		frames := make([]pose.Message, n)
		for i := range frames {
			frames[i] = message(i, opts.FPS, plankPose(body))
		}
		return frames, nil
	}

	sw := sweeps[ex.ID()]
	lead := int(opts.FPS / 2)
	perRep := max(int(math.Round(opts.RepSeconds*opts.FPS)), 4)
	// an even count puts a frame exactly at the bottom of the movement
	perRep += perRep % 2
	// trailing frame at the top closes the last rep
	frames := make([]pose.Message, 0, lead+perRep*opts.Reps+1)
	for i := 0; i < lead; i++ {
		frames = append(frames, message(len(frames), opts.FPS, posePoint(ex.ID(), sw.top, opts.Sloppy)))
	}
	for r := 0; r < opts.Reps; r++ {
		for i := 0; i < perRep; i++ {
			phase := float64(i) / float64(perRep)
			angle := sw.top - (sw.top-sw.bottom)*(1-math.Cos(2*math.Pi*phase))/2
			frames = append(frames, message(len(frames), opts.FPS, posePoint(ex.ID(), angle, opts.Sloppy)))
		}
	}
	frames = append(frames, message(len(frames), opts.FPS, posePoint(ex.ID(), sw.top, opts.Sloppy)))
	return frames, nil
}

func message(i int, fps float64, f pose.Frame) pose.Message {
	return pose.Message{Seq: uint64(i + 1), T: float64(i) / fps, Landmarks: f}
}

func posePoint(id string, angle float64, sloppy bool) pose.Frame {
	switch id {
	case "bicep_curl":
		hipX := 0.5
		if sloppy {
			hipX = 0.62
		}
		return curlPose(angle, hipX)
	case "squats":
		// torso stays close to the shin angle; sloppy squats fold the chest forward
		hip := math.Max(angle, 95)
		if sloppy {
			hip = math.Min(angle, 60)
		}
		return squatPose(angle, hip)
	case "pushups":
		body := 175.0
		if sloppy {
			body = 140
		}
		return pushUpPose(angle, body)
	default:
		return lungePose(angle)
	}
}

func lm(p pose.Point) pose.Landmark {
	return pose.Landmark{X: p.X, Y: p.Y, Visibility: 0.99}
}

func curlPose(elbowDeg, hipX float64) pose.Frame {
	shoulder := pose.Point{X: 0.5, Y: 0.3}
	elbow := pose.Point{X: 0.5, Y: 0.5}
	wrist := pose.PointAt(elbow, shoulder, elbowDeg, 0.2)
	return pose.Frame{
		pose.LeftShoulder: lm(shoulder),
		pose.LeftElbow:    lm(elbow),
		pose.LeftWrist:    lm(wrist),
		pose.LeftHip:      lm(pose.Point{X: hipX, Y: 0.7}),
	}
}

func squatPose(kneeDeg, hipDeg float64) pose.Frame {
	hip := pose.Point{X: 0.5, Y: 0.5}
	knee := pose.Point{X: 0.5, Y: 0.7}
	return pose.Frame{
		pose.LeftShoulder: lm(pose.PointAt(hip, knee, hipDeg, 0.25)),
		pose.LeftHip:      lm(hip),
		pose.LeftKnee:     lm(knee),
		pose.LeftAnkle:    lm(pose.PointAt(knee, hip, kneeDeg, 0.2)),
	}
}

func pushUpPose(elbowDeg, bodyDeg float64) pose.Frame {
	shoulder := pose.Point{X: 0.3, Y: 0.5}
	elbow := pose.Point{X: 0.3, Y: 0.7}
	return pose.Frame{
		pose.LeftShoulder: lm(shoulder),
		pose.LeftElbow:    lm(elbow),
		pose.LeftWrist:    lm(pose.PointAt(elbow, shoulder, elbowDeg, 0.2)),
		pose.LeftHip:      lm(pose.PointAt(shoulder, elbow, bodyDeg, 0.3)),
	}
}

func lungePose(kneeDeg float64) pose.Frame {
	hip := pose.Point{X: 0.5, Y: 0.5}
	knee := pose.Point{X: 0.5, Y: 0.7}
	return pose.Frame{
		pose.RightHip:   lm(hip),
		pose.RightKnee:  lm(knee),
		pose.RightAnkle: lm(pose.PointAt(knee, hip, kneeDeg, 0.2)),
	}
}

func plankPose(bodyDeg float64) pose.Frame {
	shoulder := pose.Point{X: 0.2, Y: 0.5}
	hip := pose.Point{X: 0.5, Y: 0.5}
	return pose.Frame{
		pose.LeftShoulder: lm(shoulder),
		pose.LeftHip:      lm(hip),
		pose.LeftKnee:     lm(pose.PointAt(hip, shoulder, bodyDeg, 0.25)),
	}
}
