package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"

	"github.com/ruteri/bonding-factory-backend/interfaces"
)

const createStateTable = `CREATE TABLE IF NOT EXISTS factory_state (
	name       TEXT PRIMARY KEY,
	data       BYTEA NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// PostgresStore keeps the snapshot as one row of the factory_state table.
// Several factories can share a database under different names.
type PostgresStore struct {
	db          *sql.DB
	name        string
	log         *slog.Logger
	locationURI string
}

// NewPostgresStore opens the database at connStr and creates the state table if needed.
func NewPostgresStore(ctx context.Context, connStr, name, locationURI string, log *slog.Logger) (*PostgresStore, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.ExecContext(ctx, createStateTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create state table: %w", err)
	}

	return &PostgresStore{
		db:          db,
		name:        name,
		log:         log,
		locationURI: locationURI,
	}, nil
}

// Load returns the stored snapshot. Returns ErrStateNotFound if no row exists yet.
func (s *PostgresStore) Load(ctx context.Context) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM factory_state WHERE name = $1`, s.name).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, interfaces.ErrStateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query state: %w", err)
	}

	s.log.Debug("Loaded state from postgres", slog.String("name", s.name), slog.Int("size", len(data)))
	return data, nil
}

// Save upserts the snapshot row.
func (s *PostgresStore) Save(ctx context.Context, data []byte) error {
	query := `INSERT INTO factory_state(name, data, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (name) DO UPDATE SET data = EXCLUDED.data, updated_at = EXCLUDED.updated_at`
	if _, err := s.db.ExecContext(ctx, query, s.name, data); err != nil {
		return fmt.Errorf("failed to store state: %w", err)
	}
	return nil
}

func (s *PostgresStore) Available(ctx context.Context) bool {
	if err := s.db.PingContext(ctx); err != nil {
		s.log.Debug("Postgres store unavailable", "err", err)
		return false
	}
	return true
}

func (s *PostgresStore) Name() string {
	return fmt.Sprintf("postgres-%s", s.name)
}

func (s *PostgresStore) LocationURI() string {
	return s.locationURI
}

// Close releases the database connection pool.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}
