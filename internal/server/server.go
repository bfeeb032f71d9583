package server

import (
	"io/fs"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/trakr-app/trakr/internal/auth"
	"github.com/trakr-app/trakr/internal/form"
	"github.com/trakr-app/trakr/internal/history"
	"github.com/trakr-app/trakr/internal/lookup"
	"github.com/trakr-app/trakr/internal/models"
	"github.com/trakr-app/trakr/internal/submit"
	"github.com/trakr-app/trakr/internal/suggest"
)

// Server holds dependencies for HTTP handlers and owns the session draft
// being edited. One draft exists at a time: this is a single-user app.
type Server struct {
	auth      *auth.Client
	searcher  lookup.Searcher
	submitter *submit.Submitter
	history   *history.Service
	log       *slog.Logger
	router    chi.Router

	suggestOpts suggest.Options
	now         func() time.Time

	mu         sync.Mutex
	form       *form.Form
	suggesters map[int64]*suggest.Suggester
}

// New creates a Server with all routes configured and a fresh draft dated
// today.
func New(authClient *auth.Client, searcher lookup.Searcher, submitter *submit.Submitter, hist *history.Service, suggestOpts suggest.Options, log *slog.Logger) *Server {
	s := &Server{
		auth:        authClient,
		searcher:    searcher,
		submitter:   submitter,
		history:     hist,
		log:         log,
		router:      chi.NewRouter(),
		suggestOpts: suggestOpts,
		now:         time.Now,
		suggesters:  make(map[int64]*suggest.Suggester),
	}
	s.form = form.New(s.today())
	s.routes()
	return s
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.router.Use(RequestLogging(s.log))
	s.router.Use(CORS)

	s.router.Route("/api/v1", func(r chi.Router) {
		r.Post("/auth/signup", s.handleSignUp)
		r.Post("/auth/login", s.handleLogin)
		r.Post("/auth/logout", s.handleLogout)
		r.Get("/me", s.handleMe)

		r.Get("/exercises/suggest", s.handleSuggest)

		r.Get("/draft", s.handleGetDraft)
		r.Put("/draft/date", s.handleSetDate)
		r.Post("/draft/exercises", s.handleAddExercise)
		r.Delete("/draft/exercises/{index}", s.handleRemoveExercise)
		r.Patch("/draft/exercises/{index}", s.handleUpdateExercise)
		r.Post("/draft/exercises/{index}/suggestion", s.handleApplySuggestion)
		r.Post("/draft/exercises/{index}/sets", s.handleAddSet)
		r.Delete("/draft/exercises/{index}/sets/{setIndex}", s.handleRemoveSet)
		r.Patch("/draft/exercises/{index}/sets/{setIndex}", s.handleUpdateSet)

		r.Post("/sessions", s.handleSubmit)
		r.Get("/sessions", s.handleListSessions)
	})
}

// SetFrontend mounts the embedded SPA filesystem.
// Unmatched routes serve index.html for client-side routing.
func (s *Server) SetFrontend(webFS fs.FS) {
	fileServer := http.FileServerFS(webFS)

	s.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		// Try to serve the exact file first
		f, err := webFS.Open(r.URL.Path[1:]) // strip leading /
		if err == nil {
			f.Close()
			fileServer.ServeHTTP(w, r)
			return
		}
		// Fallback to index.html for SPA routing
		r.URL.Path = "/"
		fileServer.ServeHTTP(w, r)
	})
}

// RestoreDraft replaces the current draft, used at startup when the journal
// holds a draft that never reached the store.
func (s *Server) RestoreDraft(draft models.SessionDraft) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form.Restore(draft)
	s.closeStaleSuggestersLocked()
}

func (s *Server) today() string {
	return s.now().Format("2006-01-02")
}

// suggesterFor returns (creating if needed) the suggester owned by the
// exercise row with the given stable id. Selection feeds back into the form
// through the row's callbacks.
func (s *Server) suggesterFor(entryID int64) *suggest.Suggester {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sg, ok := s.suggesters[entryID]; ok {
		return sg
	}

	opts := s.suggestOpts
	opts.OnChange = func(name string) { s.setNameByID(entryID, name) }
	opts.OnSelect = func(sug models.Suggestion) { s.applySuggestionByID(entryID, sug) }
	sg := suggest.New(s.searcher, s.log, opts)
	s.suggesters[entryID] = sg
	return sg
}

// closeStaleSuggestersLocked shuts down suggesters whose exercise row no
// longer exists, so a pending debounce timer can never mutate state for a
// row that is gone. Caller holds s.mu.
func (s *Server) closeStaleSuggestersLocked() {
	live := make(map[int64]bool, len(s.form.Draft().Exercises))
	for _, ex := range s.form.Draft().Exercises {
		live[ex.ID] = true
	}
	for id, sg := range s.suggesters {
		if !live[id] {
			sg.Close()
			delete(s.suggesters, id)
		}
	}
}

func (s *Server) setNameByID(entryID int64, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, ex := range s.form.Draft().Exercises {
		if ex.ID == entryID {
			if err := s.form.UpdateExerciseField(i, form.FieldName, name); err != nil {
				s.log.Error("updating name from selection", "error", err)
			}
			return
		}
	}
}

func (s *Server) applySuggestionByID(entryID int64, sug models.Suggestion) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, ex := range s.form.Draft().Exercises {
		if ex.ID == entryID {
			if err := s.form.ApplySuggestion(i, sug); err != nil {
				s.log.Error("applying suggestion", "error", err)
			}
			return
		}
	}
}
