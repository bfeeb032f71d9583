package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/trakr-app/trakr/internal/form"
	"github.com/trakr-app/trakr/internal/models"
	"github.com/trakr-app/trakr/internal/submit"
)

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (s *Server) handleSignUp(w http.ResponseWriter, r *http.Request) {
	var creds credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if err := s.auth.SignUp(r.Context(), creds.Email, creds.Password); err != nil {
		s.log.Error("sign-up failed", "error", err)
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "sign-up failed"})
		return
	}
	userID, _ := s.auth.CurrentUserID()
	writeJSON(w, http.StatusOK, map[string]string{"userId": userID})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var creds credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&creds); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if err := s.auth.SignIn(r.Context(), creds.Email, creds.Password); err != nil {
		s.log.Error("login failed", "error", err)
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "login failed"})
		return
	}
	userID, _ := s.auth.CurrentUserID()
	writeJSON(w, http.StatusOK, map[string]string{"userId": userID})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	s.auth.SignOut()
	writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.auth.CurrentUserID()
	writeJSON(w, http.StatusOK, map[string]any{"userId": userID, "authenticated": ok})
}

// handleSuggest is the keystroke path for one exercise row's search box:
// it records the query edit (which also lands in the row's name field, the
// way typing does) and returns the suggester's current snapshot. Candidates
// for a settled query appear on a subsequent poll once the debounce elapses.
func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(r.URL.Query().Get("exercise"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "exercise parameter required"})
		return
	}

	s.mu.Lock()
	draft := s.form.Draft()
	if index < 0 || index >= len(draft.Exercises) {
		s.mu.Unlock()
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("exercise index %d out of range", index)})
		return
	}
	entryID := draft.Exercises[index].ID

	focus := r.URL.Query().Get("focus") != ""
	query := r.URL.Query().Get("q")
	if !focus {
		if err := s.form.UpdateExerciseField(index, form.FieldName, query); err != nil {
			s.mu.Unlock()
			s.writeError(w, err)
			return
		}
	}
	s.mu.Unlock()

	sg := s.suggesterFor(entryID)
	if focus {
		sg.Focus()
	} else {
		sg.SetQuery(query)
	}
	writeJSON(w, http.StatusOK, sg.Snapshot())
}

func (s *Server) handleGetDraft(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	draft := s.form.Draft()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, draft)
}

func (s *Server) handleSetDate(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Date string `json:"date"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	s.mu.Lock()
	s.form.SetDate(body.Date)
	draft := s.form.Draft()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, draft)
}

func (s *Server) handleAddExercise(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	s.form.AddExercise()
	draft := s.form.Draft()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, draft)
}

func (s *Server) handleRemoveExercise(w http.ResponseWriter, r *http.Request) {
	index, err := indexParam(r, "index")
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.mu.Lock()
	if err := s.form.RemoveExercise(index); err != nil {
		s.mu.Unlock()
		s.writeError(w, err)
		return
	}
	s.closeStaleSuggestersLocked()
	draft := s.form.Draft()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, draft)
}

func (s *Server) handleUpdateExercise(w http.ResponseWriter, r *http.Request) {
	index, err := indexParam(r, "index")
	if err != nil {
		s.writeError(w, err)
		return
	}
	var body struct {
		Field string `json:"field"`
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	s.mu.Lock()
	if err := s.form.UpdateExerciseField(index, body.Field, body.Value); err != nil {
		s.mu.Unlock()
		s.writeError(w, err)
		return
	}
	draft := s.form.Draft()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, draft)
}

// handleApplySuggestion commits a picked candidate through the suggester so
// the dropdown closes and the row's name and metadata update together.
func (s *Server) handleApplySuggestion(w http.ResponseWriter, r *http.Request) {
	index, err := indexParam(r, "index")
	if err != nil {
		s.writeError(w, err)
		return
	}
	var sug models.Suggestion
	if err := json.NewDecoder(r.Body).Decode(&sug); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	s.mu.Lock()
	draft := s.form.Draft()
	if index < 0 || index >= len(draft.Exercises) {
		s.mu.Unlock()
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": fmt.Sprintf("exercise index %d out of range", index)})
		return
	}
	entryID := draft.Exercises[index].ID
	s.mu.Unlock()

	s.suggesterFor(entryID).Select(sug)

	s.mu.Lock()
	draft = s.form.Draft()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, draft)
}

func (s *Server) handleAddSet(w http.ResponseWriter, r *http.Request) {
	index, err := indexParam(r, "index")
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.mu.Lock()
	if err := s.form.AddSet(index); err != nil {
		s.mu.Unlock()
		s.writeError(w, err)
		return
	}
	draft := s.form.Draft()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, draft)
}

func (s *Server) handleRemoveSet(w http.ResponseWriter, r *http.Request) {
	index, err := indexParam(r, "index")
	if err != nil {
		s.writeError(w, err)
		return
	}
	setIndex, err := indexParam(r, "setIndex")
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.mu.Lock()
	if err := s.form.RemoveSet(index, setIndex); err != nil {
		s.mu.Unlock()
		s.writeError(w, err)
		return
	}
	draft := s.form.Draft()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, draft)
}

func (s *Server) handleUpdateSet(w http.ResponseWriter, r *http.Request) {
	index, err := indexParam(r, "index")
	if err != nil {
		s.writeError(w, err)
		return
	}
	setIndex, err := indexParam(r, "setIndex")
	if err != nil {
		s.writeError(w, err)
		return
	}
	var body struct {
		Field string `json:"field"`
		Value string `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}

	s.mu.Lock()
	if err := s.form.UpdateSetField(index, setIndex, body.Field, body.Value); err != nil {
		s.mu.Unlock()
		s.writeError(w, err)
		return
	}
	draft := s.form.Draft()
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, draft)
}

// handleSubmit validates and persists the current draft. On success the
// draft resets to a single empty exercise dated today; on any failure the
// draft is left exactly as it was so no input is lost. The reset is skipped
// when an edit landed while the store call was in flight, so the reset can
// only ever discard the exact tree that was persisted.
func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	userID, _ := s.auth.CurrentUserID()

	s.mu.Lock()
	draft := s.form.Draft()
	rev := s.form.Revision()
	s.mu.Unlock()

	id, err := s.submitter.Submit(r.Context(), draft, userID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	s.mu.Lock()
	if s.form.Revision() == rev {
		s.form.Reset(s.today())
		s.closeStaleSuggestersLocked()
	}
	s.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]string{"id": id, "message": "Workout saved"})
}

func (s *Server) handleListSessions(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.auth.CurrentUserID()
	if !ok {
		s.writeError(w, submit.ErrUnauthenticated)
		return
	}

	sessions, err := s.history.List(r.Context(), userID)
	if err != nil {
		s.log.Error("listing sessions", "error", err)
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

// writeError maps the error taxonomy onto HTTP statuses: 401 for a missing
// user, 422 for validation, 502 for a persistence failure, 400 for rejected
// transitions and bad indices.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var verr *submit.ValidationError
	var perr *submit.PersistenceError

	status := http.StatusBadRequest
	switch {
	case errors.Is(err, submit.ErrUnauthenticated):
		status = http.StatusUnauthorized
	case errors.As(err, &verr):
		status = http.StatusUnprocessableEntity
	case errors.As(err, &perr):
		status = http.StatusBadGateway
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func indexParam(r *http.Request, name string) (int, error) {
	v, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		return 0, fmt.Errorf("invalid %s parameter", name)
	}
	return v, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
