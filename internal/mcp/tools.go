package mcp

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/trakr-app/trakr/internal/models"
)

// --- Tool definitions ---

var toolSearchExercises = mcp.NewTool("search_exercises",
	mcp.WithDescription("Search the exercise catalog by name. Returns matching exercises with category and muscle groups."),
	mcp.WithString("query", mcp.Required(), mcp.Description("Exercise name fragment (e.g. 'bench', 'squat'). At least 2 characters.")),
)

var toolLogWorkout = mcp.NewTool("log_workout",
	mcp.WithDescription("Log a workout session: a date plus one or more exercises, each with weighted sets. Returns the stored session id."),
	mcp.WithString("date", mcp.Required(), mcp.Description("Session date (YYYY-MM-DD)")),
	mcp.WithString("exercises", mcp.Required(), mcp.Description(`JSON array of exercises: [{"name":"Bench Press","sets":[{"weight":80,"reps":8}],"notes":"optional"}]`)),
)

var toolListWorkouts = mcp.NewTool("list_workouts",
	mcp.WithDescription("List the user's logged workout sessions, newest first."),
)

// --- Tool handlers ---

func (h *handlers) searchExercises(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError("query parameter is required"), nil
	}

	results, err := h.searcher.Search(ctx, query)
	if err != nil {
		h.log.Error("mcp search_exercises", "error", err)
		return mcp.NewToolResultError("search failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(results)
	if err != nil {
		return mcp.NewToolResultError("encoding results failed"), nil
	}
	return result, nil
}

// loggedExercise is the tool-facing workout shape, with numbers already
// numeric. It is converted into a draft so the same validation and
// persistence path as the form applies.
type loggedExercise struct {
	Name  string      `json:"name"`
	Sets  []loggedSet `json:"sets"`
	Notes string      `json:"notes"`
}

type loggedSet struct {
	Weight float64 `json:"weight"`
	Reps   int     `json:"reps"`
}

func (h *handlers) logWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	date, err := req.RequireString("date")
	if err != nil {
		return mcp.NewToolResultError("date parameter is required"), nil
	}
	exercisesJSON, err := req.RequireString("exercises")
	if err != nil {
		return mcp.NewToolResultError("exercises parameter is required"), nil
	}

	var exercises []loggedExercise
	if err := json.Unmarshal([]byte(exercisesJSON), &exercises); err != nil {
		return mcp.NewToolResultError("exercises must be a JSON array: " + err.Error()), nil
	}
	if len(exercises) == 0 {
		return mcp.NewToolResultError("at least one exercise is required"), nil
	}

	draft := models.SessionDraft{Date: date}
	for _, ex := range exercises {
		entry := models.ExerciseEntry{Name: ex.Name, Notes: ex.Notes}
		for _, set := range ex.Sets {
			entry.Sets = append(entry.Sets, models.SetRow{
				Weight: strconv.FormatFloat(set.Weight, 'f', -1, 64),
				Reps:   strconv.Itoa(set.Reps),
			})
		}
		if len(entry.Sets) == 0 {
			return mcp.NewToolResultError("exercise " + ex.Name + " has no sets"), nil
		}
		draft.Exercises = append(draft.Exercises, entry)
	}

	id, err := h.submitter.Submit(ctx, draft, UserIDFromContext(ctx))
	if err != nil {
		h.log.Error("mcp log_workout", "error", err)
		return mcp.NewToolResultError("logging workout failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(map[string]string{"id": id})
	if err != nil {
		return mcp.NewToolResultError("encoding result failed"), nil
	}
	return result, nil
}

func (h *handlers) listWorkouts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sessions, err := h.history.List(ctx, UserIDFromContext(ctx))
	if err != nil {
		h.log.Error("mcp list_workouts", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}

	result, err := mcp.NewToolResultJSON(sessions)
	if err != nil {
		return mcp.NewToolResultError("encoding results failed"), nil
	}
	return result, nil
}

// --- Resource handlers ---

func (h *handlers) recentWorkouts(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	sessions, err := h.history.List(ctx, UserIDFromContext(ctx))
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(sessions)
	if err != nil {
		return nil, err
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}
