package submit

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/trakr-app/trakr/internal/models"
)

// fakeStore records created documents and can be scripted to fail.
type fakeStore struct {
	created    []any
	collection string
	id         string
	err        error
}

func (f *fakeStore) CreateDocument(_ context.Context, collection string, body any) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	f.collection = collection
	f.created = append(f.created, body)
	return f.id, nil
}

func (f *fakeStore) QueryDocuments(context.Context, string, string) ([]json.RawMessage, error) {
	return nil, nil
}

func draftFixture() models.SessionDraft {
	return models.SessionDraft{
		Date: "2026-09-01",
		Exercises: []models.ExerciseEntry{
			{
				ID:             1,
				ExerciseID:     "bench-press",
				Name:           "Bench Press",
				Category:       "strength",
				PrimaryMuscles: []string{"chest"},
				Sets: []models.SetRow{
					{ID: 2, Weight: "80", Reps: "8"},
					{ID: 3, Weight: "82.5", Reps: "6"},
				},
				Notes: "paused reps",
			},
			{
				ID:   4,
				Name: "Squat",
				Sets: []models.SetRow{{ID: 5, Weight: "100", Reps: "5"}},
			},
		},
	}
}

// TestSubmitUnauthenticated verifies submission without a user makes no
// store call and returns ErrUnauthenticated.
func TestSubmitUnauthenticated(t *testing.T) {
	fs := &fakeStore{id: "doc-1"}
	s := New(fs, nil, slog.Default())

	_, err := s.Submit(context.Background(), draftFixture(), "")
	if !errors.Is(err, ErrUnauthenticated) {
		t.Errorf("err = %v, want ErrUnauthenticated", err)
	}
	if len(fs.created) != 0 {
		t.Error("no persistence call should be made without a user")
	}
}

// TestSubmitRoundTrip verifies the produced document keeps the set structure,
// coerces numbers, strips UI-only fields, and attaches user id and timestamp.
func TestSubmitRoundTrip(t *testing.T) {
	fs := &fakeStore{id: "doc-42"}
	s := New(fs, nil, slog.Default())
	fixed := time.Date(2026, 9, 1, 18, 30, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	id, err := s.Submit(context.Background(), draftFixture(), "user-7")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "doc-42" {
		t.Errorf("id = %q, want doc-42", id)
	}
	if fs.collection != Collection {
		t.Errorf("collection = %q, want %q", fs.collection, Collection)
	}

	doc, ok := fs.created[0].(*models.SessionDocument)
	if !ok {
		t.Fatalf("created %T, want *models.SessionDocument", fs.created[0])
	}
	if doc.UserID != "user-7" || doc.Date != "2026-09-01" || !doc.CreatedAt.Equal(fixed) {
		t.Errorf("document header = %+v", doc)
	}
	if len(doc.Exercises) != 2 {
		t.Fatalf("exercises = %d, want 2", len(doc.Exercises))
	}
	if len(doc.Exercises[0].Sets) != 2 || len(doc.Exercises[1].Sets) != 1 {
		t.Errorf("set counts = %d, %d, want 2, 1", len(doc.Exercises[0].Sets), len(doc.Exercises[1].Sets))
	}
	if got := doc.Exercises[0].Sets[1]; got.Weight != 82.5 || got.Reps != 6 {
		t.Errorf("coerced set = %+v, want weight 82.5 reps 6", got)
	}
	if doc.Exercises[0].Notes != "paused reps" {
		t.Errorf("notes = %q", doc.Exercises[0].Notes)
	}

	// UI-only fields must not leak into the stored shape.
	raw, err := json.Marshal(doc)
	if err != nil {
		t.Fatal(err)
	}
	for _, field := range []string{"category", "primaryMuscles", "images", "exerciseId", `"id"`} {
		if strings.Contains(string(raw), field) {
			t.Errorf("document leaks UI-only field %s: %s", field, raw)
		}
	}
}

// TestSubmitRejectsNonNumericValues verifies the reject policy names the
// first offending row instead of silently coercing to zero.
func TestSubmitRejectsNonNumericValues(t *testing.T) {
	fs := &fakeStore{id: "doc-1"}
	s := New(fs, nil, slog.Default())

	draft := draftFixture()
	draft.Exercises[1].Sets[0].Weight = "heavy"

	_, err := s.Submit(context.Background(), draft, "user-7")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if verr.ExerciseIndex != 1 || verr.SetIndex != 0 || verr.Field != "weight" {
		t.Errorf("validation error = %+v", verr)
	}
	if len(fs.created) != 0 {
		t.Error("invalid draft must not reach the store")
	}
}

// TestSubmitRejectsEmptyNumericValues verifies blank weight/reps fail
// validation under the reject policy.
func TestSubmitRejectsEmptyNumericValues(t *testing.T) {
	fs := &fakeStore{id: "doc-1"}
	s := New(fs, nil, slog.Default())

	draft := draftFixture()
	draft.Exercises[0].Sets[1].Reps = ""

	_, err := s.Submit(context.Background(), draft, "user-7")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if verr.ExerciseIndex != 0 || verr.SetIndex != 1 || verr.Field != "reps" {
		t.Errorf("validation error = %+v", verr)
	}
}

// TestSubmitRejectsEmptyExerciseName verifies a nameless exercise blocks
// submission.
func TestSubmitRejectsEmptyExerciseName(t *testing.T) {
	fs := &fakeStore{id: "doc-1"}
	s := New(fs, nil, slog.Default())

	draft := draftFixture()
	draft.Exercises[1].Name = "   "

	_, err := s.Submit(context.Background(), draft, "user-7")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("err = %v, want ValidationError", err)
	}
	if verr.ExerciseIndex != 1 || verr.Field != "name" {
		t.Errorf("validation error = %+v", verr)
	}
}

// TestSubmitPersistenceFailureJournalsDraft verifies a store failure wraps
// into PersistenceError and the draft lands in the journal for recovery.
func TestSubmitPersistenceFailureJournalsDraft(t *testing.T) {
	journal, err := OpenJournal(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer journal.Close()

	fs := &fakeStore{err: fmt.Errorf("backend unavailable")}
	s := New(fs, journal, slog.Default())

	_, err = s.Submit(context.Background(), draftFixture(), "user-7")
	var perr *PersistenceError
	if !errors.As(err, &perr) {
		t.Fatalf("err = %v, want PersistenceError", err)
	}

	saved, ok, err := journal.Load()
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("draft should be journaled after a persistence failure")
	}
	if len(saved.Exercises) != 2 || saved.Exercises[0].Name != "Bench Press" {
		t.Errorf("journaled draft = %+v", saved)
	}
}

// TestSubmitSuccessClearsJournal verifies a successful submit removes any
// journaled draft.
func TestSubmitSuccessClearsJournal(t *testing.T) {
	journal, err := OpenJournal(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer journal.Close()

	if err := journal.Save(draftFixture()); err != nil {
		t.Fatal(err)
	}

	fs := &fakeStore{id: "doc-1"}
	s := New(fs, journal, slog.Default())
	if _, err := s.Submit(context.Background(), draftFixture(), "user-7"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, ok, _ := journal.Load(); ok {
		t.Error("journal should be empty after a successful submit")
	}
}

// TestJournalSaveReplacesPrevious verifies only the most recent draft is kept.
func TestJournalSaveReplacesPrevious(t *testing.T) {
	journal, err := OpenJournal(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer journal.Close()

	first := draftFixture()
	if err := journal.Save(first); err != nil {
		t.Fatal(err)
	}

	second := draftFixture()
	second.Date = "2026-09-02"
	if err := journal.Save(second); err != nil {
		t.Fatal(err)
	}

	saved, ok, err := journal.Load()
	if err != nil || !ok {
		t.Fatalf("load = %v, %v", ok, err)
	}
	if saved.Date != "2026-09-02" {
		t.Errorf("journaled date = %q, want 2026-09-02", saved.Date)
	}
}
