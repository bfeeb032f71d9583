// Package mcp exposes the workout log to MCP clients: exercise search,
// workout logging, and history as tools, plus a recent-workouts resource.
package mcp

import (
	"context"
	"log/slog"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/trakr-app/trakr/internal/history"
	"github.com/trakr-app/trakr/internal/lookup"
	"github.com/trakr-app/trakr/internal/submit"
)

type contextKey int

const userIDKey contextKey = iota

// UserIDFromContext extracts the user id injected by the transport layer.
// Empty means no user, which blocks logging tools the same way the form's
// submit path is blocked.
func UserIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(userIDKey).(string); ok {
		return id
	}
	return ""
}

// WithUserID returns a context carrying the given user id.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// New creates an MCP server with all tools and resources registered.
func New(searcher lookup.Searcher, submitter *submit.Submitter, hist *history.Service, version string, log *slog.Logger) *server.MCPServer {
	s := server.NewMCPServer("Trakr", version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
		server.WithInstructions("Trakr workout log. Search the exercise catalog, log workout sessions (exercises with weighted sets), and list past sessions. All data is scoped to the configured user."),
	)

	h := &handlers{searcher: searcher, submitter: submitter, history: hist, log: log}

	// Tools
	s.AddTools(
		server.ServerTool{Tool: toolSearchExercises, Handler: h.searchExercises},
		server.ServerTool{Tool: toolLogWorkout, Handler: h.logWorkout},
		server.ServerTool{Tool: toolListWorkouts, Handler: h.listWorkouts},
	)

	// Resources
	s.AddResources(
		server.ServerResource{Resource: resRecentWorkouts, Handler: h.recentWorkouts},
	)

	return s
}

// handlers holds dependencies for MCP tool/resource handlers.
type handlers struct {
	searcher  lookup.Searcher
	submitter *submit.Submitter
	history   *history.Service
	log       *slog.Logger
}

// --- Resource definitions ---

var resRecentWorkouts = mcp.NewResource(
	"trakr://recent_workouts",
	"Recent Workouts",
	mcp.WithResourceDescription("The user's logged workout sessions, newest first"),
	mcp.WithMIMEType("application/json"),
)
