package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/meltforce/formcoach/internal/pose"
	"github.com/meltforce/formcoach/internal/workout"
	"golang.org/x/time/rate"
)

const (
	streamReadLimit = 64 << 10
	streamIdle      = 60 * time.Second
	streamWriteWait = 5 * time.Second
)

// Stream event names.
const (
	EventPoseAnalysis = "pose_analysis"
	EventError        = "error"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  4096,
	WriteBufferSize: 4096,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// StreamEvent is a server-to-client stream message.
type StreamEvent struct {
	Event   string           `json:"event"`
	Seq     uint64           `json:"seq,omitempty"`
	Metrics *workout.Metrics `json:"metrics,omitempty"`
	Message string           `json:"message,omitempty"`
}

// handleStream reads frames from a WebSocket one at a time and answers each
// applied frame with the new metrics. Frames outside a workout, stale frames
// and frames above the rate cap get no reply.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	s.metrics.StreamOpened()
	defer s.metrics.StreamClosed()

	log := s.log.With("remote", r.RemoteAddr, "user", userInfoFromContext(r).Login)
	log.Info("stream opened")

	conn.SetReadLimit(streamReadLimit)
	var limiter *rate.Limiter
	if s.opts.MaxFPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(s.opts.MaxFPS), s.opts.MaxFPS)
	}

	for {
		conn.SetReadDeadline(time.Now().Add(streamIdle))
		msgType, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Warn("stream read failed", "error", err)
			}
			break
		}
		if msgType != websocket.TextMessage {
			s.metrics.RecordDropped("ws", "binary")
			continue
		}
		if limiter != nil && !limiter.Allow() {
			s.metrics.RecordDropped("ws", "rate_limited")
			continue
		}

		event, ok := s.applyStreamFrame(data)
		if !ok {
			continue
		}
		conn.SetWriteDeadline(time.Now().Add(streamWriteWait))
		if err := conn.WriteJSON(event); err != nil {
			log.Warn("stream write failed", "error", err)
			break
		}
	}
	log.Info("stream closed")
}

// applyStreamFrame runs one raw message through the tracker. ok is false when
// the frame deserves no reply.
func (s *Server) applyStreamFrame(data []byte) (event StreamEvent, ok bool) {
	var msg pose.Message
	if err := json.Unmarshal(data, &msg); err != nil {
		s.metrics.RecordDropped("ws", "decode")
		return StreamEvent{Event: EventError, Message: "invalid frame: " + err.Error()}, true
	}
	frame, err := msg.Frame()
	if err != nil {
		s.metrics.RecordDropped("ws", "decode")
		return StreamEvent{Event: EventError, Seq: msg.Seq, Message: err.Error()}, true
	}

	m, err := s.tracker.ProcessFrame(workout.FrameInput{Seq: msg.Seq, Landmarks: frame})
	var fe *workout.FrameError
	switch {
	case err == nil:
		return StreamEvent{Event: EventPoseAnalysis, Seq: msg.Seq, Metrics: &m}, true
	case errors.As(err, &fe):
		return StreamEvent{Event: EventError, Seq: msg.Seq, Message: fe.Error()}, true
	case errors.Is(err, workout.ErrInactive), errors.Is(err, workout.ErrStaleFrame):
		return StreamEvent{}, false
	default:
		s.log.Error("stream frame failed", "error", err)
		return StreamEvent{Event: EventError, Seq: msg.Seq, Message: err.Error()}, true
	}
}
