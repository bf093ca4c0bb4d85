package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/lightcade/lightcade/internal/localstore"
	"github.com/lightcade/lightcade/internal/model"
)

const schema = `
CREATE TABLE IF NOT EXISTS blobs (
	namespace  TEXT NOT NULL,
	key        TEXT NOT NULL,
	data       BLOB NOT NULL,
	updated_at INTEGER NOT NULL DEFAULT (unixepoch()),
	PRIMARY KEY (namespace, key)
);
`

// Store is a SQLite-backed implementation of the local durable store.
// WAL mode keeps reads from blocking the fire-and-forget submission writes.
type Store struct {
	db *sql.DB
}

// Open creates or opens the store at the given path and applies the schema
func Open(path string) (*Store, error) {
	dsn := path + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	// SQLite supports a single writer; avoid lock contention in the pool
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the underlying database handle
func (s *Store) Close() error {
	return s.db.Close()
}

// Ensure Store implements the interface
var _ localstore.Store = (*Store)(nil)

func (s *Store) Get(ctx context.Context, namespace, key string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT data FROM blobs WHERE namespace = ? AND key = ?`,
		namespace, key,
	).Scan(&data)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("get blob: %w", err)
	}
	return data, nil
}

func (s *Store) Put(ctx context.Context, namespace, key string, data []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO blobs (namespace, key, data, updated_at) VALUES (?, ?, ?, unixepoch())
		 ON CONFLICT (namespace, key) DO UPDATE SET data = excluded.data, updated_at = excluded.updated_at`,
		namespace, key, data,
	)
	if err != nil {
		return fmt.Errorf("put blob: %w", err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, namespace, key string) error {
	_, err := s.db.ExecContext(ctx,
		`DELETE FROM blobs WHERE namespace = ? AND key = ?`,
		namespace, key,
	)
	if err != nil {
		return fmt.Errorf("delete blob: %w", err)
	}
	return nil
}
