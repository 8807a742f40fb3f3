package pose

import (
	"errors"
	"fmt"
)

// ErrMalformedFrame is returned for a frame message that cannot be turned
// into a Frame.
var ErrMalformedFrame = errors.New("malformed frame")

// Message is the JSON form of one frame on the wire and in recordings.
// Landmarks are keyed by joint name; Points is the alternative positional form
// in MediaPipe index order. T is the capture time in seconds, used when
// replaying recordings.
type Message struct {
	Seq       uint64     `json:"seq,omitempty"`
	T         float64    `json:"t,omitempty"`
	Landmarks Frame      `json:"landmarks,omitempty"`
	Points    []Landmark `json:"points,omitempty"`
}

// Frame returns the landmarks carried by m. Keyed landmarks win when both
// forms are present. An empty message yields an empty frame.
func (m Message) Frame() (Frame, error) {
	if len(m.Landmarks) > 0 || len(m.Points) == 0 {
		if m.Landmarks == nil {
			return Frame{}, nil
		}
		return m.Landmarks, nil
	}
	f, err := FromIndexed(m.Points)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedFrame, err)
	}
	return f, nil
}
