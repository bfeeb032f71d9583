// Package submit validates a session draft, serializes it to the document
// store's shape, and hands it to the persistence collaborator.
package submit

import (
	"context"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/trakr-app/trakr/internal/models"
	"github.com/trakr-app/trakr/internal/store"
)

// Collection is the document store collection sessions are written to.
const Collection = "workouts"

// Submitter turns a valid draft into one persisted session document.
type Submitter struct {
	store   store.DocumentStore
	journal *Journal
	log     *slog.Logger
	now     func() time.Time
}

// New creates a Submitter. journal may be nil to disable the local draft
// journal.
func New(docs store.DocumentStore, journal *Journal, log *slog.Logger) *Submitter {
	return &Submitter{store: docs, journal: journal, log: log, now: time.Now}
}

// Submit validates the draft and persists it for the given user, returning
// the server-assigned document id.
//
// Numeric set fields follow the reject policy: an empty or non-numeric
// weight or reps value fails with a ValidationError naming the offending row
// rather than being silently recorded as zero. On a store failure the draft
// is journaled locally and a PersistenceError is returned; the caller keeps
// the draft so no input is lost.
func (s *Submitter) Submit(ctx context.Context, draft models.SessionDraft, userID string) (string, error) {
	if userID == "" {
		return "", ErrUnauthenticated
	}

	doc, err := buildDocument(draft, userID, s.now())
	if err != nil {
		return "", err
	}

	id, err := s.store.CreateDocument(ctx, Collection, doc)
	if err != nil {
		if s.journal != nil {
			if jerr := s.journal.Save(draft); jerr != nil {
				s.log.Warn("journaling draft failed", "error", jerr)
			}
		}
		return "", &PersistenceError{Err: err}
	}

	if s.journal != nil {
		if jerr := s.journal.Clear(); jerr != nil {
			s.log.Warn("clearing draft journal failed", "error", jerr)
		}
	}
	return id, nil
}

// buildDocument coerces the draft into the persisted shape, stripping
// UI-only fields (row ids, lookup metadata, images).
func buildDocument(draft models.SessionDraft, userID string, createdAt time.Time) (*models.SessionDocument, error) {
	if strings.TrimSpace(draft.Date) == "" {
		return nil, &ValidationError{ExerciseIndex: -1, SetIndex: -1, Field: "date", Reason: "is required"}
	}

	doc := &models.SessionDocument{
		UserID:    userID,
		Date:      draft.Date,
		Exercises: make([]models.PersistedExercise, 0, len(draft.Exercises)),
		CreatedAt: createdAt,
	}

	for i, entry := range draft.Exercises {
		if strings.TrimSpace(entry.Name) == "" {
			return nil, &ValidationError{ExerciseIndex: i, SetIndex: -1, Field: "name", Reason: "is required"}
		}

		out := models.PersistedExercise{
			Name:  entry.Name,
			Notes: entry.Notes,
			Sets:  make([]models.PersistedSet, 0, len(entry.Sets)),
		}
		for j, set := range entry.Sets {
			weight, err := parseWeight(set.Weight)
			if err != nil {
				return nil, &ValidationError{ExerciseIndex: i, SetIndex: j, Field: "weight", Reason: "must be a number"}
			}
			reps, err := parseReps(set.Reps)
			if err != nil {
				return nil, &ValidationError{ExerciseIndex: i, SetIndex: j, Field: "reps", Reason: "must be a whole number"}
			}
			out.Sets = append(out.Sets, models.PersistedSet{Weight: weight, Reps: reps})
		}
		doc.Exercises = append(doc.Exercises, out)
	}
	return doc, nil
}

func parseWeight(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

func parseReps(s string) (int, error) {
	return strconv.Atoi(strings.TrimSpace(s))
}
