package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/meltforce/formcoach/internal/exercise"
	"github.com/meltforce/formcoach/internal/pose"
	"github.com/meltforce/formcoach/internal/storage"
	"github.com/meltforce/formcoach/internal/workout"
)

// maxFrameBody bounds a single REST frame; 33 landmarks fit in a few KB.
const maxFrameBody = 64 << 10

// FrameResult is the reply to a REST frame. Skipped names the frame error
// kind when the frame was not applied.
type FrameResult struct {
	Metrics workout.Metrics `json:"metrics"`
	Skipped string          `json:"skipped,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// EndResult is the reply to /end_workout.
type EndResult struct {
	Status  string          `json:"status"`
	Summary workout.Summary `json:"summary"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy", "service": "pose_estimation"})
}

func (s *Server) handleStartWorkout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Exercise string `json:"exercise"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	result, err := s.tracker.Start(req.Exercise)
	if errors.Is(err, workout.ErrInvalidExercise) {
		writeJSON(w, http.StatusBadRequest, map[string]any{"error": err.Error(), "exercises": exercise.Catalog()})
		return
	}
	if err != nil {
		s.log.Error("start workout failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	s.log.Info("workout requested", "exercise", result.Exercise, "user", userInfoFromContext(r).Login)
	writeJSON(w, http.StatusOK, result)
}

func (s *Server) handleEndWorkout(w http.ResponseWriter, r *http.Request) {
	summary := s.tracker.End()
	if err := storage.RecordFinished(r.Context(), s.journal, summary); err != nil {
		s.log.Warn("journal write failed", "session_id", summary.SessionID, "error", err)
	}
	writeJSON(w, http.StatusOK, EndResult{Status: "ended", Summary: summary})
}

func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	var msg pose.Message
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxFrameBody)).Decode(&msg); err != nil {
		s.metrics.RecordDropped("rest", "decode")
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	frame, err := msg.Frame()
	if err != nil {
		s.metrics.RecordDropped("rest", "decode")
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	m, err := s.tracker.ProcessFrame(workout.FrameInput{Seq: msg.Seq, Landmarks: frame})
	var fe *workout.FrameError
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, FrameResult{Metrics: m})
	case errors.Is(err, workout.ErrInactive):
		writeJSON(w, http.StatusConflict, FrameResult{Metrics: m, Error: err.Error()})
	case errors.Is(err, workout.ErrStaleFrame):
		writeJSON(w, http.StatusOK, FrameResult{Metrics: m, Skipped: "stale", Error: err.Error()})
	case errors.As(err, &fe):
		writeJSON(w, http.StatusOK, FrameResult{Metrics: m, Skipped: string(fe.Kind), Error: fe.Error()})
	default:
		s.log.Error("frame failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
	}
}

func (s *Server) handleWorkoutStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.tracker.Status())
}

func (s *Server) handleExercises(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, exercise.Catalog())
}

func (s *Server) handleSessions(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit: " + v})
			return
		}
		limit = n
	}

	sessions, err := s.journal.RecentSessions(r.Context(), limit)
	if err != nil {
		s.log.Error("journal read failed", "error", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
