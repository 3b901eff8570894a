package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/hupe1980/teammesh/hierarchy"
)

// SQLiteStore implements DocumentStore using SQLite. The agent list is kept
// as a JSON column; the composite key is enforced with a unique primary key
// over (tenant_id, instance_id).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and runs
// the schema migration.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open hierarchy db: %w", err)
	}
	// WAL mode for better concurrent reads.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate hierarchy db: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// NewSQLiteStoreFromDB wraps an existing database handle, running the schema
// migration. Useful when the transcript store shares the same file.
func NewSQLiteStoreFromDB(db *sql.DB) (*SQLiteStore, error) {
	if err := migrate(db); err != nil {
		return nil, fmt.Errorf("migrate hierarchy db: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS hierarchies (
			tenant_id    TEXT NOT NULL,
			instance_id  TEXT NOT NULL,
			instructions TEXT NOT NULL,
			agents       TEXT NOT NULL DEFAULT '[]',
			created_at   TEXT NOT NULL,
			updated_at   TEXT NOT NULL,
			PRIMARY KEY (tenant_id, instance_id)
		)
	`)
	return err
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// FindOne returns the configuration for the key or ErrNotFound.
func (s *SQLiteStore) FindOne(ctx context.Context, tenantID, instanceID string) (*hierarchy.Config, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT tenant_id, instance_id, instructions, agents, created_at, updated_at FROM hierarchies WHERE tenant_id = ? AND instance_id = ?",
		tenantID, instanceID,
	)
	cfg, err := scanConfig(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	return cfg, err
}

// Save inserts or replaces the configuration under its key.
func (s *SQLiteStore) Save(ctx context.Context, cfg *hierarchy.Config) error {
	agentsJSON, err := json.Marshal(cfg.Agents)
	if err != nil {
		return fmt.Errorf("marshal agents: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO hierarchies (tenant_id, instance_id, instructions, agents, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (tenant_id, instance_id) DO UPDATE SET
			instructions = excluded.instructions,
			agents       = excluded.agents,
			updated_at   = excluded.updated_at`,
		cfg.TenantID, cfg.InstanceID, cfg.DelegatorInstructions, string(agentsJSON),
		cfg.CreatedAt.Format(time.RFC3339Nano), cfg.UpdatedAt.Format(time.RFC3339Nano),
	)
	return err
}

// ListByTenant returns every configuration owned by a tenant ordered by
// instance id.
func (s *SQLiteStore) ListByTenant(ctx context.Context, tenantID string) ([]*hierarchy.Config, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT tenant_id, instance_id, instructions, agents, created_at, updated_at FROM hierarchies WHERE tenant_id = ? ORDER BY instance_id",
		tenantID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*hierarchy.Config
	for rows.Next() {
		cfg, err := scanConfig(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, cfg)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanConfig(row rowScanner) (*hierarchy.Config, error) {
	var (
		cfg        hierarchy.Config
		agentsJSON string
		createdAt  string
		updatedAt  string
	)
	if err := row.Scan(&cfg.TenantID, &cfg.InstanceID, &cfg.DelegatorInstructions, &agentsJSON, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(agentsJSON), &cfg.Agents); err != nil {
		return nil, fmt.Errorf("unmarshal agents: %w", err)
	}
	var err error
	if cfg.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if cfg.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &cfg, nil
}
