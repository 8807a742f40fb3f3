// Package replay feeds recorded or synthetic landmark frames through the
// tracker, either in-process or against a running server.
package replay

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/meltforce/formcoach/internal/pose"
)

// maxLineBytes bounds one recorded frame.
const maxLineBytes = 1 << 20

// ReadRecording parses a JSON Lines recording, one pose.Message per line.
// Blank lines and lines starting with # are ignored.
func ReadRecording(r io.Reader) ([]pose.Message, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), maxLineBytes)

	var frames []pose.Message
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		var msg pose.Message
		if err := json.Unmarshal([]byte(text), &msg); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		frames = append(frames, msg)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading recording: %w", err)
	}
	return frames, nil
}

// WriteRecording writes frames as JSON Lines.
func WriteRecording(w io.Writer, frames []pose.Message) error {
	bw := bufio.NewWriter(w)
	enc := json.NewEncoder(bw)
	for i, msg := range frames {
		if err := enc.Encode(msg); err != nil {
			return fmt.Errorf("writing frame %d: %w", i, err)
		}
	}
	return bw.Flush()
}
