package mcp

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/trakr-app/trakr/internal/history"
	"github.com/trakr-app/trakr/internal/models"
	"github.com/trakr-app/trakr/internal/submit"
)

// TestUserIDFromContextDefault verifies the empty user id when no value is
// set in the context.
func TestUserIDFromContextDefault(t *testing.T) {
	if id := UserIDFromContext(context.Background()); id != "" {
		t.Errorf("UserIDFromContext(empty) = %q, want empty", id)
	}
}

// TestUserIDFromContextSet verifies the user id is extracted from context
// after being set by WithUserID.
func TestUserIDFromContextSet(t *testing.T) {
	ctx := WithUserID(context.Background(), "user-42")
	if id := UserIDFromContext(ctx); id != "user-42" {
		t.Errorf("UserIDFromContext = %q, want user-42", id)
	}
}

// fakeDocs records created documents and serves canned query results.
type fakeDocs struct {
	created  []any
	queryRes []json.RawMessage
}

func (f *fakeDocs) CreateDocument(ctx context.Context, collection string, body any) (string, error) {
	f.created = append(f.created, body)
	return "doc-1", nil
}

func (f *fakeDocs) QueryDocuments(ctx context.Context, collection, ownerID string) ([]json.RawMessage, error) {
	return f.queryRes, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func callArgs(args map[string]any) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

func resultText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	if len(res.Content) == 0 {
		t.Fatal("tool result has no content")
	}
	text, ok := res.Content[0].(mcp.TextContent)
	if !ok {
		t.Fatalf("tool result content is %T, want TextContent", res.Content[0])
	}
	return text.Text
}

// TestLogWorkoutStoresSession verifies log_workout converts the exercises
// payload into a stored document and returns its id.
func TestLogWorkoutStoresSession(t *testing.T) {
	docs := &fakeDocs{}
	h := &handlers{
		submitter: submit.New(docs, nil, discardLogger()),
		log:       discardLogger(),
	}

	ctx := WithUserID(context.Background(), "user-1")
	res, err := h.logWorkout(ctx, callArgs(map[string]any{
		"date":      "2026-02-10",
		"exercises": `[{"name":"Bench Press","sets":[{"weight":82.5,"reps":6}],"notes":"paused"}]`,
	}))
	if err != nil {
		t.Fatalf("logWorkout: %v", err)
	}
	if res.IsError {
		t.Fatalf("logWorkout returned tool error: %s", resultText(t, res))
	}
	if !strings.Contains(resultText(t, res), "doc-1") {
		t.Errorf("result = %s, want stored id doc-1", resultText(t, res))
	}

	if len(docs.created) != 1 {
		t.Fatalf("created %d documents, want 1", len(docs.created))
	}
	doc, ok := docs.created[0].(*models.SessionDocument)
	if !ok {
		t.Fatalf("stored document is %T, want *models.SessionDocument", docs.created[0])
	}
	if doc.UserID != "user-1" || doc.Date != "2026-02-10" {
		t.Errorf("stored userId=%q date=%q, want user-1 / 2026-02-10", doc.UserID, doc.Date)
	}
	if len(doc.Exercises) != 1 || len(doc.Exercises[0].Sets) != 1 {
		t.Fatalf("stored exercises = %+v, want 1 exercise with 1 set", doc.Exercises)
	}
	set := doc.Exercises[0].Sets[0]
	if set.Weight != 82.5 || set.Reps != 6 {
		t.Errorf("stored set = %+v, want weight 82.5 reps 6", set)
	}
}

// TestLogWorkoutRequiresUser verifies log_workout reports a tool error when
// the context carries no user id, without touching the store.
func TestLogWorkoutRequiresUser(t *testing.T) {
	docs := &fakeDocs{}
	h := &handlers{
		submitter: submit.New(docs, nil, discardLogger()),
		log:       discardLogger(),
	}

	res, err := h.logWorkout(context.Background(), callArgs(map[string]any{
		"date":      "2026-02-10",
		"exercises": `[{"name":"Squat","sets":[{"weight":100,"reps":5}]}]`,
	}))
	if err != nil {
		t.Fatalf("logWorkout: %v", err)
	}
	if !res.IsError {
		t.Error("expected tool error without a user id")
	}
	if len(docs.created) != 0 {
		t.Errorf("created %d documents, want 0", len(docs.created))
	}
}

// TestLogWorkoutRejectsBadPayload verifies malformed or empty exercises
// arrays produce tool errors.
func TestLogWorkoutRejectsBadPayload(t *testing.T) {
	h := &handlers{
		submitter: submit.New(&fakeDocs{}, nil, discardLogger()),
		log:       discardLogger(),
	}
	ctx := WithUserID(context.Background(), "user-1")

	for name, payload := range map[string]string{
		"not json":     "not json",
		"empty array":  "[]",
		"set-less":     `[{"name":"Squat","sets":[]}]`,
		"missing name": `[{"name":"","sets":[{"weight":100,"reps":5}]}]`,
	} {
		res, err := h.logWorkout(ctx, callArgs(map[string]any{
			"date":      "2026-02-10",
			"exercises": payload,
		}))
		if err != nil {
			t.Fatalf("%s: logWorkout: %v", name, err)
		}
		if !res.IsError {
			t.Errorf("%s: expected tool error", name)
		}
	}
}

// TestListWorkoutsReturnsSessions verifies list_workouts surfaces decoded
// sessions from the store.
func TestListWorkoutsReturnsSessions(t *testing.T) {
	docs := &fakeDocs{queryRes: []json.RawMessage{
		json.RawMessage(`{"id":"s1","userId":"user-1","date":"2026-02-10","exercises":[{"name":"Deadlift","sets":[{"weight":140,"reps":3}]}]}`),
	}}
	h := &handlers{
		history: history.New(docs, discardLogger()),
		log:     discardLogger(),
	}

	ctx := WithUserID(context.Background(), "user-1")
	res, err := h.listWorkouts(ctx, callArgs(nil))
	if err != nil {
		t.Fatalf("listWorkouts: %v", err)
	}
	if res.IsError {
		t.Fatalf("listWorkouts returned tool error: %s", resultText(t, res))
	}
	text := resultText(t, res)
	if !strings.Contains(text, "Deadlift") || !strings.Contains(text, "s1") {
		t.Errorf("result = %s, want session s1 with Deadlift", text)
	}
}

// TestRecentWorkoutsResource verifies the resource handler serves the
// session list as JSON.
func TestRecentWorkoutsResource(t *testing.T) {
	docs := &fakeDocs{queryRes: []json.RawMessage{
		json.RawMessage(`{"id":"s1","userId":"user-1","date":"2026-02-10","exercises":[]}`),
	}}
	h := &handlers{
		history: history.New(docs, discardLogger()),
		log:     discardLogger(),
	}

	req := mcp.ReadResourceRequest{}
	req.Params.URI = "trakr://recent_workouts"
	contents, err := h.recentWorkouts(WithUserID(context.Background(), "user-1"), req)
	if err != nil {
		t.Fatalf("recentWorkouts: %v", err)
	}
	if len(contents) != 1 {
		t.Fatalf("got %d contents, want 1", len(contents))
	}
	text, ok := contents[0].(mcp.TextResourceContents)
	if !ok {
		t.Fatalf("contents[0] is %T, want TextResourceContents", contents[0])
	}
	if text.MIMEType != "application/json" || !strings.Contains(text.Text, "s1") {
		t.Errorf("resource = %+v, want JSON containing s1", text)
	}
}
