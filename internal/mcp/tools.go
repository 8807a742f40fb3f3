package mcp

import (
	"context"
	"errors"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/meltforce/formcoach/internal/exercise"
	"github.com/meltforce/formcoach/internal/workout"
)

// --- Tool definitions ---

var toolStartWorkout = mcp.NewTool("start_workout",
	mcp.WithDescription("Start a new workout. Any running workout is discarded and all counters reset."),
	mcp.WithString("exercise", mcp.Required(), mcp.Description("Exercise id"), mcp.Enum(exercise.IDs()...)),
)

var toolEndWorkout = mcp.NewTool("end_workout",
	mcp.WithDescription("End the current workout and return its summary: reps, good reps, duration in seconds. The summary is kept in the session journal when one is configured."),
)

var toolGetWorkoutStatus = mcp.NewTool("get_workout_status",
	mcp.WithDescription("Live workout state: whether a workout is active, the exercise, reps, good-form reps, current stage and form feedback."),
	mcp.WithReadOnlyHintAnnotation(true),
)

var toolListExercises = mcp.NewTool("list_exercises",
	mcp.WithDescription("List the supported exercises. Plank is counted in seconds held; the others in repetitions."),
	mcp.WithReadOnlyHintAnnotation(true),
)

var toolGetRecentSessions = mcp.NewTool("get_recent_sessions",
	mcp.WithDescription("Finished workouts from the session journal, newest first. Empty when no journal is configured."),
	mcp.WithNumber("limit", mcp.Description("Maximum number of sessions. Defaults to 10."), mcp.Min(1), mcp.Max(200)),
	mcp.WithReadOnlyHintAnnotation(true),
)

// --- Tool handlers ---

func (h *handlers) startWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ex, err := req.RequireString("exercise")
	if err != nil {
		return mcp.NewToolResultError("exercise parameter is required"), nil
	}

	res, err := h.backend.StartWorkout(ctx, ex)
	if err != nil {
		if errors.Is(err, workout.ErrInvalidExercise) {
			return mcp.NewToolResultError("unknown exercise " + ex + "; supported: " + strings.Join(exercise.IDs(), ", ")), nil
		}
		h.log.Error("mcp start_workout", "error", err)
		return mcp.NewToolResultError("start failed: " + err.Error()), nil
	}
	return jsonResult(res)
}

func (h *handlers) endWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	summary, err := h.backend.EndWorkout(ctx)
	if err != nil {
		h.log.Error("mcp end_workout", "error", err)
		return mcp.NewToolResultError("end failed: " + err.Error()), nil
	}
	return jsonResult(summary)
}

func (h *handlers) getWorkoutStatus(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	st, err := h.backend.WorkoutStatus(ctx)
	if err != nil {
		h.log.Error("mcp get_workout_status", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(st)
}

func (h *handlers) listExercises(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(exercise.Catalog())
}

func (h *handlers) getRecentSessions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", 10)
	if limit <= 0 {
		return mcp.NewToolResultError("limit must be positive"), nil
	}

	sessions, err := h.backend.RecentSessions(ctx, limit)
	if err != nil {
		h.log.Error("mcp get_recent_sessions", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(sessions)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}
