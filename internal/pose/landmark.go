// Package pose holds the landmark model supplied by an external pose detector
// and the geometry used to turn landmarks into joint angles.
package pose

import (
	"errors"
	"fmt"
)

// Joint names a tracked body landmark. Values follow the MediaPipe pose naming.
type Joint string

const (
	Nose           Joint = "NOSE"
	LeftEyeInner   Joint = "LEFT_EYE_INNER"
	LeftEye        Joint = "LEFT_EYE"
	LeftEyeOuter   Joint = "LEFT_EYE_OUTER"
	RightEyeInner  Joint = "RIGHT_EYE_INNER"
	RightEye       Joint = "RIGHT_EYE"
	RightEyeOuter  Joint = "RIGHT_EYE_OUTER"
	LeftEar        Joint = "LEFT_EAR"
	RightEar       Joint = "RIGHT_EAR"
	MouthLeft      Joint = "MOUTH_LEFT"
	MouthRight     Joint = "MOUTH_RIGHT"
	LeftShoulder   Joint = "LEFT_SHOULDER"
	RightShoulder  Joint = "RIGHT_SHOULDER"
	LeftElbow      Joint = "LEFT_ELBOW"
	RightElbow     Joint = "RIGHT_ELBOW"
	LeftWrist      Joint = "LEFT_WRIST"
	RightWrist     Joint = "RIGHT_WRIST"
	LeftPinky      Joint = "LEFT_PINKY"
	RightPinky     Joint = "RIGHT_PINKY"
	LeftIndex      Joint = "LEFT_INDEX"
	RightIndex     Joint = "RIGHT_INDEX"
	LeftThumb      Joint = "LEFT_THUMB"
	RightThumb     Joint = "RIGHT_THUMB"
	LeftHip        Joint = "LEFT_HIP"
	RightHip       Joint = "RIGHT_HIP"
	LeftKnee       Joint = "LEFT_KNEE"
	RightKnee      Joint = "RIGHT_KNEE"
	LeftAnkle      Joint = "LEFT_ANKLE"
	RightAnkle     Joint = "RIGHT_ANKLE"
	LeftHeel       Joint = "LEFT_HEEL"
	RightHeel      Joint = "RIGHT_HEEL"
	LeftFootIndex  Joint = "LEFT_FOOT_INDEX"
	RightFootIndex Joint = "RIGHT_FOOT_INDEX"
)

// ErrMissingLandmark is returned when a required joint is absent from a frame
// or below the configured visibility threshold.
var ErrMissingLandmark = errors.New("missing landmark")

// Point is a 2D position in normalized frame coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Landmark is one joint's position and detection confidence for a single frame.
// Z is carried for 3D detectors but never read by the angle logic.
type Landmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z,omitempty"`
	Visibility float64 `json:"visibility"`
}

// Point returns the landmark's 2D position.
func (l Landmark) Point() Point {
	return Point{X: l.X, Y: l.Y}
}

// Frame is the set of landmarks detected at one instant, keyed by joint.
type Frame map[Joint]Landmark

// Point returns the position of joint j. A minVisibility of zero accepts any
// detected landmark regardless of its confidence.
func (f Frame) Point(j Joint, minVisibility float64) (Point, error) {
	lm, ok := f[j]
	if !ok {
		return Point{}, fmt.Errorf("%w: %s", ErrMissingLandmark, j)
	}
	if minVisibility > 0 && lm.Visibility < minVisibility {
		return Point{}, fmt.Errorf("%w: %s visibility %.2f below %.2f", ErrMissingLandmark, j, lm.Visibility, minVisibility)
	}
	return lm.Point(), nil
}

// Points returns the positions of joints in the order requested. It fails on
// the first joint that is missing.
func (f Frame) Points(minVisibility float64, joints ...Joint) ([]Point, error) {
	pts := make([]Point, len(joints))
	for i, j := range joints {
		p, err := f.Point(j, minVisibility)
		if err != nil {
			return nil, err
		}
		pts[i] = p
	}
	return pts, nil
}
