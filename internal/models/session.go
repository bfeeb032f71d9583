package models

import "time"

// SetRow is one performed set inside an exercise entry. Weight and reps stay
// free-form text while the form is being edited; they are coerced to numbers
// only at submission time.
type SetRow struct {
	ID     int64  `json:"id"`
	Weight string `json:"weight"`
	Reps   string `json:"reps"`
}

// ExerciseEntry is a named exercise within a session draft, holding an ordered
// list of sets plus optional metadata merged in from a selected suggestion.
// Sets is never empty while the entry is being edited.
type ExerciseEntry struct {
	ID               int64    `json:"id"`
	ExerciseID       string   `json:"exerciseId,omitempty"`
	Name             string   `json:"name"`
	Category         string   `json:"category,omitempty"`
	PrimaryMuscles   []string `json:"primaryMuscles,omitempty"`
	SecondaryMuscles []string `json:"secondaryMuscles,omitempty"`
	Images           []string `json:"images,omitempty"`
	Sets             []SetRow `json:"sets"`
	Notes            string   `json:"notes"`
}

// SessionDraft is the in-memory tree the form edits. At least one exercise
// row always exists.
type SessionDraft struct {
	Date      string          `json:"date"`
	Exercises []ExerciseEntry `json:"exercises"`
}

// Suggestion is a read-only record returned by the exercise lookup service.
// It is never mutated, only copied field-by-field into an ExerciseEntry.
type Suggestion struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Category         string   `json:"category,omitempty"`
	PrimaryMuscles   []string `json:"primaryMuscles,omitempty"`
	SecondaryMuscles []string `json:"secondaryMuscles,omitempty"`
	Images           []string `json:"images,omitempty"`
}

// PersistedSet is a set as stored in the document store, with numbers coerced.
type PersistedSet struct {
	Weight float64 `json:"weight"`
	Reps   int     `json:"reps"`
}

// PersistedExercise is an exercise as stored, stripped of UI-only fields.
type PersistedExercise struct {
	Name  string         `json:"name"`
	Sets  []PersistedSet `json:"sets"`
	Notes string         `json:"notes,omitempty"`
}

// SessionDocument is the plain document handed to the persistence collaborator
// on submit. CreatedAt is filled by the server with its own timestamp.
type SessionDocument struct {
	UserID    string              `json:"userId"`
	Date      string              `json:"date"`
	Exercises []PersistedExercise `json:"exercises"`
	CreatedAt time.Time           `json:"createdAt"`
}

// PersistedSession is a stored session read back from the document store.
// Never mutated after creation.
type PersistedSession struct {
	ID string `json:"id"`
	SessionDocument
}
