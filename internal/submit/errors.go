package submit

import (
	"errors"
	"fmt"
)

// ErrUnauthenticated is returned when submit is attempted with no signed-in
// user. No network call is made in that case.
var ErrUnauthenticated = errors.New("no user is signed in")

// ValidationError reports the first malformed field found while building the
// session document. SetIndex is -1 for exercise-level problems.
type ValidationError struct {
	ExerciseIndex int
	SetIndex      int
	Field         string
	Reason        string
}

func (e *ValidationError) Error() string {
	if e.SetIndex < 0 {
		return fmt.Sprintf("exercise %d: %s %s", e.ExerciseIndex+1, e.Field, e.Reason)
	}
	return fmt.Sprintf("exercise %d, set %d: %s %s", e.ExerciseIndex+1, e.SetIndex+1, e.Field, e.Reason)
}

// PersistenceError wraps a document store failure. The draft is left
// untouched so the user can retry without re-entering data.
type PersistenceError struct {
	Err error
}

func (e *PersistenceError) Error() string {
	return "saving workout failed: " + e.Err.Error()
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}
