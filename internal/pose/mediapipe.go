package pose

import "fmt"

// MediaPipeLandmarks is the number of landmarks in a MediaPipe pose result.
const MediaPipeLandmarks = 33

// mediaPipeOrder maps MediaPipe pose landmark indices to joints.
var mediaPipeOrder = [MediaPipeLandmarks]Joint{
	Nose,
	LeftEyeInner, LeftEye, LeftEyeOuter,
	RightEyeInner, RightEye, RightEyeOuter,
	LeftEar, RightEar,
	MouthLeft, MouthRight,
	LeftShoulder, RightShoulder,
	LeftElbow, RightElbow,
	LeftWrist, RightWrist,
	LeftPinky, RightPinky,
	LeftIndex, RightIndex,
	LeftThumb, RightThumb,
	LeftHip, RightHip,
	LeftKnee, RightKnee,
	LeftAnkle, RightAnkle,
	LeftHeel, RightHeel,
	LeftFootIndex, RightFootIndex,
}

// JointAt returns the joint for a MediaPipe landmark index.
func JointAt(index int) (Joint, bool) {
	if index < 0 || index >= MediaPipeLandmarks {
		return "", false
	}
	return mediaPipeOrder[index], true
}

// FromIndexed builds a Frame from landmarks listed in MediaPipe index order,
// as browser and Python detectors emit them. A shorter list yields a partial
// frame; the missing joints surface later as ErrMissingLandmark.
func FromIndexed(points []Landmark) (Frame, error) {
	if len(points) > MediaPipeLandmarks {
		return nil, fmt.Errorf("got %d landmarks, want at most %d", len(points), MediaPipeLandmarks)
	}
	f := make(Frame, len(points))
	for i, lm := range points {
		f[mediaPipeOrder[i]] = lm
	}
	return f, nil
}
