// Package history is the read-only projection of persisted sessions.
package history

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/trakr-app/trakr/internal/models"
	"github.com/trakr-app/trakr/internal/store"
	"github.com/trakr-app/trakr/internal/submit"
)

// Service fetches the current user's sessions, newest first.
type Service struct {
	store store.DocumentStore
	log   *slog.Logger
}

// New creates a history service over the given document store.
func New(docs store.DocumentStore, log *slog.Logger) *Service {
	return &Service{store: docs, log: log}
}

// List returns the user's persisted sessions ordered by date descending.
// Individual documents that fail to decode are skipped, not fatal: one
// corrupt record must not blank the whole history view.
func (s *Service) List(ctx context.Context, userID string) ([]models.PersistedSession, error) {
	docs, err := s.store.QueryDocuments(ctx, submit.Collection, userID)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}

	sessions := make([]models.PersistedSession, 0, len(docs))
	for _, raw := range docs {
		var session models.PersistedSession
		if err := json.Unmarshal(raw, &session); err != nil {
			s.log.Warn("skipping malformed session document", "error", err)
			continue
		}
		sessions = append(sessions, session)
	}
	return sessions, nil
}
