package submit

import (
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/trakr-app/trakr/internal/models"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Journal keeps at most one draft on disk so a draft that failed to persist
// survives a process restart.
type Journal struct {
	db *sql.DB
}

// OpenJournal opens (or creates) the SQLite journal at dir/journal.db and
// applies pending migrations.
func OpenJournal(dir string) (*Journal, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating journal dir %s: %w", dir, err)
	}

	dbPath := filepath.Join(dir, "journal.db")
	if err := runMigrations(dbPath); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening journal db: %w", err)
	}
	return &Journal{db: db}, nil
}

func runMigrations(dbPath string) error {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("loading migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, "sqlite://"+dbPath)
	if err != nil {
		return fmt.Errorf("creating migrator: %w", err)
	}
	defer m.Close()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("running migrations: %w", err)
	}
	return nil
}

// Save replaces the journaled draft with the given one.
func (j *Journal) Save(draft models.SessionDraft) error {
	payload, err := json.Marshal(draft)
	if err != nil {
		return fmt.Errorf("marshaling draft: %w", err)
	}

	tx, err := j.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning journal tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.Exec(`DELETE FROM draft_journal`); err != nil {
		return fmt.Errorf("clearing old draft: %w", err)
	}
	if _, err := tx.Exec(
		`INSERT INTO draft_journal (id, payload) VALUES (?, ?)`,
		uuid.NewString(), string(payload),
	); err != nil {
		return fmt.Errorf("saving draft: %w", err)
	}
	return tx.Commit()
}

// Load returns the journaled draft if one exists.
func (j *Journal) Load() (models.SessionDraft, bool, error) {
	var payload string
	err := j.db.QueryRow(`SELECT payload FROM draft_journal ORDER BY saved_at DESC LIMIT 1`).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return models.SessionDraft{}, false, nil
	}
	if err != nil {
		return models.SessionDraft{}, false, fmt.Errorf("loading draft: %w", err)
	}

	var draft models.SessionDraft
	if err := json.Unmarshal([]byte(payload), &draft); err != nil {
		return models.SessionDraft{}, false, fmt.Errorf("decoding journaled draft: %w", err)
	}
	return draft, true, nil
}

// Clear removes any journaled draft. Called after a successful submit.
func (j *Journal) Clear() error {
	_, err := j.db.Exec(`DELETE FROM draft_journal`)
	return err
}

// Close closes the journal database.
func (j *Journal) Close() error {
	return j.db.Close()
}
