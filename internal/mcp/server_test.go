package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/meltforce/formcoach/internal/exercise"
	"github.com/meltforce/formcoach/internal/storage"
	"github.com/meltforce/formcoach/internal/workout"
)

type recordingJournal struct {
	storage.Nop
	recorded []workout.Summary
}

func (j *recordingJournal) RecordSession(_ context.Context, s workout.Summary) error {
	j.recorded = append(j.recorded, s)
	return nil
}

func newTestHandlers(t *testing.T) (*handlers, *workout.Controller, *recordingJournal) {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	tracker := workout.New(log)
	journal := &recordingJournal{}
	return &handlers{backend: NewLocal(tracker, journal, log), log: log}, tracker, journal
}

func callRequest(args map[string]any) mcp.CallToolRequest {
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("empty tool result")
	}
	switch c := res.Content[0].(type) {
	case mcp.TextContent:
		return c.Text
	case *mcp.TextContent:
		return c.Text
	default:
		t.Fatalf("content type %T, want text", res.Content[0])
		return ""
	}
}

// TestStartAndEndWorkoutTools verifies a workout started and ended through
// the tools lands in the journal.
func TestStartAndEndWorkoutTools(t *testing.T) {
	h, tracker, journal := newTestHandlers(t)
	ctx := context.Background()

	res, err := h.startWorkout(ctx, callRequest(map[string]any{"exercise": "squats"}))
	if err != nil || res.IsError {
		t.Fatalf("start: err=%v result=%v", err, resultText(t, res))
	}
	var started workout.StartResult
	if err := json.Unmarshal([]byte(resultText(t, res)), &started); err != nil {
		t.Fatal(err)
	}
	if started.Exercise != "squats" || !tracker.State().Active {
		t.Errorf("started = %+v", started)
	}

	res, err = h.endWorkout(ctx, callRequest(nil))
	if err != nil || res.IsError {
		t.Fatalf("end: err=%v", err)
	}
	if len(journal.recorded) != 1 || journal.recorded[0].SessionID != started.SessionID {
		t.Errorf("journal = %+v", journal.recorded)
	}
}

// TestStartWorkoutToolInvalid verifies an unknown exercise is a tool error
// listing the supported ids.
func TestStartWorkoutToolInvalid(t *testing.T) {
	h, _, _ := newTestHandlers(t)
	res, err := h.startWorkout(context.Background(), callRequest(map[string]any{"exercise": "burpees"}))
	if err != nil {
		t.Fatal(err)
	}
	if !res.IsError {
		t.Fatal("expected tool error")
	}
	if text := resultText(t, res); !strings.Contains(text, "bicep_curl") {
		t.Errorf("error text %q does not list exercises", text)
	}

	res, _ = h.startWorkout(context.Background(), callRequest(nil))
	if !res.IsError {
		t.Error("expected tool error for missing exercise")
	}
}

// TestGetWorkoutStatusTool verifies the status tool reports the live workout.
func TestGetWorkoutStatusTool(t *testing.T) {
	h, tracker, _ := newTestHandlers(t)
	tracker.Start("plank")

	res, err := h.getWorkoutStatus(context.Background(), callRequest(nil))
	if err != nil || res.IsError {
		t.Fatalf("err=%v", err)
	}
	var st workout.Status
	if err := json.Unmarshal([]byte(resultText(t, res)), &st); err != nil {
		t.Fatal(err)
	}
	if !st.Active || st.Exercise != "plank" || st.Stage != exercise.StageReady {
		t.Errorf("status = %+v", st)
	}
}

// TestListExercisesTool verifies the catalog is returned in display order.
func TestListExercisesTool(t *testing.T) {
	h, _, _ := newTestHandlers(t)
	res, _ := h.listExercises(context.Background(), callRequest(nil))
	var got []exercise.Info
	if err := json.Unmarshal([]byte(resultText(t, res)), &got); err != nil {
		t.Fatal(err)
	}
	if len(got) != 5 || got[0].ID != "bicep_curl" || got[4].ID != "plank" {
		t.Errorf("catalog = %+v", got)
	}
}

// TestGetRecentSessionsTool verifies the limit validation.
func TestGetRecentSessionsTool(t *testing.T) {
	h, _, _ := newTestHandlers(t)

	res, err := h.getRecentSessions(context.Background(), callRequest(map[string]any{"limit": 5}))
	if err != nil || res.IsError {
		t.Fatalf("err=%v", err)
	}
	if text := strings.TrimSpace(resultText(t, res)); text != "[]" {
		t.Errorf("sessions = %s, want []", text)
	}

	res, _ = h.getRecentSessions(context.Background(), callRequest(map[string]any{"limit": -1}))
	if !res.IsError {
		t.Error("expected tool error for negative limit")
	}
}

// TestExerciseCatalogResource verifies the catalog resource body.
func TestExerciseCatalogResource(t *testing.T) {
	h, _, _ := newTestHandlers(t)
	var req mcp.ReadResourceRequest
	req.Params.URI = "formcoach://exercise_catalog"

	contents, err := h.exerciseCatalog(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	text, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("contents type %T", contents[0])
	}
	if text.URI != req.Params.URI || !strings.Contains(text.Text, `"time_based":true`) {
		t.Errorf("contents = %+v", text)
	}
}

// TestNewRegistersTools verifies the server builds with the local backend.
func TestNewRegistersTools(t *testing.T) {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	if s := New(NewLocal(workout.New(log), nil, log), "test", log); s == nil {
		t.Fatal("New returned nil")
	}
}
