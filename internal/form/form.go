// Package form owns the in-memory session draft and its structural edits.
// Every transition produces a fresh tree along the mutated path; untouched
// rows may be shared between the old and new drafts but are never aliased
// mutably. Rows carry stable identifiers generated per form instance so
// consumers can key off identity rather than list position.
package form

import (
	"errors"
	"fmt"

	"github.com/trakr-app/trakr/internal/models"
)

// Editable field names accepted by the update transitions.
const (
	FieldName   = "name"
	FieldNotes  = "notes"
	FieldWeight = "weight"
	FieldReps   = "reps"
)

var (
	// ErrLastExercise is returned when removal would leave the draft with
	// no exercise rows.
	ErrLastExercise = errors.New("cannot remove the last exercise")

	// ErrLastSet is returned when removal would leave an exercise with no sets.
	ErrLastSet = errors.New("cannot remove the last set")
)

// Form owns one SessionDraft from creation until a successful submit or
// teardown. All edits go through its transition methods.
type Form struct {
	draft  models.SessionDraft
	nextID int64
	rev    int64
}

// New creates a form seeded with the given date, one empty exercise and one
// empty set.
func New(date string) *Form {
	f := &Form{draft: models.SessionDraft{Date: date}}
	f.draft.Exercises = []models.ExerciseEntry{f.newExercise()}
	return f
}

func (f *Form) newExercise() models.ExerciseEntry {
	return models.ExerciseEntry{
		ID:   f.nextIDVal(),
		Sets: []models.SetRow{{ID: f.nextIDVal()}},
	}
}

func (f *Form) nextIDVal() int64 {
	f.nextID++
	return f.nextID
}

// Draft returns the current draft tree. Callers must treat it as read-only;
// transitions never mutate a previously returned tree in place.
func (f *Form) Draft() models.SessionDraft {
	return f.draft
}

// Revision increments on every successful transition. A caller that snapshots
// the draft, does slow work, and then wants to replace it can compare
// revisions to detect edits that landed in between.
func (f *Form) Revision() int64 {
	return f.rev
}

// Reset replaces the draft with a fresh one-exercise, one-set tree for the
// given date. Used after a successful submit.
func (f *Form) Reset(date string) {
	f.rev++
	f.draft = models.SessionDraft{Date: date}
	f.draft.Exercises = []models.ExerciseEntry{f.newExercise()}
}

// Restore replaces the draft with a previously journaled one, reassigning
// row ids so they stay unique within this form instance. An empty exercise
// list is reseeded so the draft invariant holds.
func (f *Form) Restore(draft models.SessionDraft) {
	entries := make([]models.ExerciseEntry, len(draft.Exercises))
	for i, entry := range draft.Exercises {
		entry.ID = f.nextIDVal()
		sets := cloneSets(entry.Sets)
		for j := range sets {
			sets[j].ID = f.nextIDVal()
		}
		if len(sets) == 0 {
			sets = []models.SetRow{{ID: f.nextIDVal()}}
		}
		entry.Sets = sets
		entries[i] = entry
	}
	if len(entries) == 0 {
		entries = []models.ExerciseEntry{f.newExercise()}
	}
	f.rev++
	f.draft = models.SessionDraft{Date: draft.Date, Exercises: entries}
}

// SetDate replaces the draft's date.
func (f *Form) SetDate(date string) {
	f.rev++
	next := f.draft
	next.Date = date
	f.draft = next
}

// AddExercise appends a new empty exercise row and returns it.
func (f *Form) AddExercise() models.ExerciseEntry {
	f.rev++
	entry := f.newExercise()
	next := f.draft
	next.Exercises = append(cloneEntries(f.draft.Exercises), entry)
	f.draft = next
	return entry
}

// RemoveExercise removes the exercise at index. Removing the only remaining
// exercise is rejected so the draft invariant holds even for programmatic
// callers. Indices of subsequent rows shift down by one.
func (f *Form) RemoveExercise(index int) error {
	if err := f.checkExercise(index); err != nil {
		return err
	}
	if len(f.draft.Exercises) == 1 {
		return ErrLastExercise
	}
	f.rev++
	next := f.draft
	entries := cloneEntries(f.draft.Exercises)
	next.Exercises = append(entries[:index], entries[index+1:]...)
	f.draft = next
	return nil
}

// UpdateExerciseField sets name or notes on the exercise at index. Any other
// field name is rejected.
func (f *Form) UpdateExerciseField(index int, field, value string) error {
	if err := f.checkExercise(index); err != nil {
		return err
	}
	entry := f.draft.Exercises[index]
	switch field {
	case FieldName:
		entry.Name = value
	case FieldNotes:
		entry.Notes = value
	default:
		return fmt.Errorf("unknown exercise field %q", field)
	}
	f.replaceExercise(index, entry)
	return nil
}

// AddSet appends an empty set row to the exercise at exerciseIndex.
func (f *Form) AddSet(exerciseIndex int) error {
	if err := f.checkExercise(exerciseIndex); err != nil {
		return err
	}
	entry := f.draft.Exercises[exerciseIndex]
	entry.Sets = append(cloneSets(entry.Sets), models.SetRow{ID: f.nextIDVal()})
	f.replaceExercise(exerciseIndex, entry)
	return nil
}

// RemoveSet removes the set at setIndex from the exercise at exerciseIndex.
// Removing an exercise's only set is rejected.
func (f *Form) RemoveSet(exerciseIndex, setIndex int) error {
	if err := f.checkSet(exerciseIndex, setIndex); err != nil {
		return err
	}
	entry := f.draft.Exercises[exerciseIndex]
	if len(entry.Sets) == 1 {
		return ErrLastSet
	}
	sets := cloneSets(entry.Sets)
	entry.Sets = append(sets[:setIndex], sets[setIndex+1:]...)
	f.replaceExercise(exerciseIndex, entry)
	return nil
}

// UpdateSetField sets weight or reps on one set. Values stay free-form text
// here; numeric coercion happens at submission.
func (f *Form) UpdateSetField(exerciseIndex, setIndex int, field, value string) error {
	if err := f.checkSet(exerciseIndex, setIndex); err != nil {
		return err
	}
	entry := f.draft.Exercises[exerciseIndex]
	sets := cloneSets(entry.Sets)
	switch field {
	case FieldWeight:
		sets[setIndex].Weight = value
	case FieldReps:
		sets[setIndex].Reps = value
	default:
		return fmt.Errorf("unknown set field %q", field)
	}
	entry.Sets = sets
	f.replaceExercise(exerciseIndex, entry)
	return nil
}

// ApplySuggestion merges a lookup suggestion into the exercise at index using
// an explicit field allowlist. The entry's existing sets are left untouched;
// if the sets list is somehow empty it is seeded with one empty row.
func (f *Form) ApplySuggestion(index int, s models.Suggestion) error {
	if err := f.checkExercise(index); err != nil {
		return err
	}
	entry := f.draft.Exercises[index]
	entry.ExerciseID = s.ID
	entry.Name = s.Name
	entry.Category = s.Category
	entry.PrimaryMuscles = cloneStrings(s.PrimaryMuscles)
	entry.SecondaryMuscles = cloneStrings(s.SecondaryMuscles)
	entry.Images = cloneStrings(s.Images)
	if len(entry.Sets) == 0 {
		entry.Sets = []models.SetRow{{ID: f.nextIDVal()}}
	}
	f.replaceExercise(index, entry)
	return nil
}

func (f *Form) replaceExercise(index int, entry models.ExerciseEntry) {
	f.rev++
	next := f.draft
	entries := cloneEntries(f.draft.Exercises)
	entries[index] = entry
	next.Exercises = entries
	f.draft = next
}

func (f *Form) checkExercise(index int) error {
	if index < 0 || index >= len(f.draft.Exercises) {
		return fmt.Errorf("exercise index %d out of range (have %d)", index, len(f.draft.Exercises))
	}
	return nil
}

func (f *Form) checkSet(exerciseIndex, setIndex int) error {
	if err := f.checkExercise(exerciseIndex); err != nil {
		return err
	}
	sets := f.draft.Exercises[exerciseIndex].Sets
	if setIndex < 0 || setIndex >= len(sets) {
		return fmt.Errorf("set index %d out of range (have %d)", setIndex, len(sets))
	}
	return nil
}

func cloneEntries(entries []models.ExerciseEntry) []models.ExerciseEntry {
	out := make([]models.ExerciseEntry, len(entries))
	copy(out, entries)
	return out
}

func cloneSets(sets []models.SetRow) []models.SetRow {
	out := make([]models.SetRow, len(sets))
	copy(out, sets)
	return out
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}
