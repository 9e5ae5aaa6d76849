package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"github.com/poiesic/witness/storage"
)

// Store implements storage.Store using SQLite.
type Store struct {
	db          *sql.DB
	chunks      *ChunkRepository
	contacts    *ContactRepository
	checkpoints *CheckpointRepository
}

var _ storage.Store = (*Store)(nil)

// Open opens or creates a SQLite database at the given path.
func Open(dbPath string) (*Store, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &Store{
		db:          db,
		chunks:      &ChunkRepository{db: db},
		contacts:    &ContactRepository{db: db},
		checkpoints: &CheckpointRepository{db: db},
	}, nil
}

func migrate(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS chunks (
		id            TEXT PRIMARY KEY,
		ts            INTEGER NOT NULL,
		source        TEXT NOT NULL,
		has_embedding INTEGER NOT NULL DEFAULT 0,
		data          BLOB NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_chunks_ts ON chunks(ts);
	CREATE INDEX IF NOT EXISTS idx_chunks_embedding ON chunks(has_embedding);

	CREATE TABLE IF NOT EXISTS chunk_entities (
		value_key TEXT NOT NULL,
		chunk_id  TEXT NOT NULL REFERENCES chunks(id),
		PRIMARY KEY (value_key, chunk_id)
	);

	CREATE TABLE IF NOT EXISTS contacts (
		name_key   TEXT PRIMARY KEY,
		name       TEXT NOT NULL,
		count      INTEGER NOT NULL DEFAULT 0,
		first_seen INTEGER NOT NULL,
		last_seen  INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_contacts_count ON contacts(count DESC);

	CREATE TABLE IF NOT EXISTS checkpoints (
		processor TEXT PRIMARY KEY,
		data      BLOB NOT NULL
	);
	`
	_, err := db.Exec(schema)
	return err
}

// Chunks returns the chunk repository.
func (s *Store) Chunks() storage.ChunkRepository {
	return s.chunks
}

// Contacts returns the contact repository.
func (s *Store) Contacts() storage.ContactRepository {
	return s.contacts
}

// Checkpoints returns the checkpoint repository.
func (s *Store) Checkpoints() storage.CheckpointRepository {
	return s.checkpoints
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func withTx(ctx context.Context, db *sql.DB, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
