package mcp

import (
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// New creates an MCP server with all tools and resources registered.
func New(backend Backend, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("FormCoach", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("FormCoach exercise tracker. Start and end workouts, check live rep counts and form feedback, and review finished sessions. Pose frames are streamed by the camera client, not through these tools."),
	)

	h := &handlers{backend: backend, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolStartWorkout, Handler: h.startWorkout},
		server.ServerTool{Tool: toolEndWorkout, Handler: h.endWorkout},
		server.ServerTool{Tool: toolGetWorkoutStatus, Handler: h.getWorkoutStatus},
		server.ServerTool{Tool: toolListExercises, Handler: h.listExercises},
		server.ServerTool{Tool: toolGetRecentSessions, Handler: h.getRecentSessions},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resExerciseCatalog, Handler: h.exerciseCatalog},
		server.ServerResource{Resource: resCurrentWorkout, Handler: h.currentWorkout},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	backend Backend
	log     *slog.Logger
}

// --- Resource definitions ---

var resExerciseCatalog = mcp.NewResource(
	"formcoach://exercise_catalog",
	"Exercise Catalog",
	mcp.WithResourceDescription("Supported exercises with their ids, whether they are counted in seconds held, and their starting stage"),
	mcp.WithMIMEType("application/json"),
)

var resCurrentWorkout = mcp.NewResource(
	"formcoach://current_workout",
	"Current Workout",
	mcp.WithResourceDescription("The live workout: active flag, exercise, reps, good reps, stage and latest form feedback"),
	mcp.WithMIMEType("application/json"),
)
