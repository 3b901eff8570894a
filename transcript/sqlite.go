package transcript

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore implements Store using SQLite. Messages are kept as a JSON
// column; the composite key is enforced with a unique primary key over
// (tenant_id, instance_id, session_id).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and runs
// the schema migration.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open transcript db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate transcript db: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// NewSQLiteStoreFromDB wraps an existing database handle, running the schema
// migration. Useful when the hierarchy store shares the same file.
func NewSQLiteStoreFromDB(db *sql.DB) (*SQLiteStore, error) {
	if err := migrate(db); err != nil {
		return nil, fmt.Errorf("migrate transcript db: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func migrate(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS transcripts (
			tenant_id   TEXT NOT NULL,
			instance_id TEXT NOT NULL,
			session_id  TEXT NOT NULL,
			messages    TEXT NOT NULL DEFAULT '[]',
			created_at  TEXT NOT NULL,
			updated_at  TEXT NOT NULL,
			PRIMARY KEY (tenant_id, instance_id, session_id)
		)
	`)
	return err
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// Append adds messages to a session's transcript, creating it if absent.
// Read-modify-write runs inside a transaction so concurrent appends to the
// same session never lose messages.
func (s *SQLiteStore) Append(ctx context.Context, tenantID, instanceID, sessionID string, msgs ...Message) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var existing string
	row := tx.QueryRowContext(ctx,
		"SELECT messages FROM transcripts WHERE tenant_id = ? AND instance_id = ? AND session_id = ?",
		tenantID, instanceID, sessionID,
	)
	now := time.Now().UTC().Format(time.RFC3339Nano)
	switch err := row.Scan(&existing); {
	case errors.Is(err, sql.ErrNoRows):
		msgsJSON, err := json.Marshal(msgs)
		if err != nil {
			return fmt.Errorf("marshal messages: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			"INSERT INTO transcripts (tenant_id, instance_id, session_id, messages, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)",
			tenantID, instanceID, sessionID, string(msgsJSON), now, now,
		); err != nil {
			return err
		}
	case err != nil:
		return err
	default:
		var all []Message
		if err := json.Unmarshal([]byte(existing), &all); err != nil {
			return fmt.Errorf("unmarshal messages: %w", err)
		}
		all = append(all, msgs...)
		msgsJSON, err := json.Marshal(all)
		if err != nil {
			return fmt.Errorf("marshal messages: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			"UPDATE transcripts SET messages = ?, updated_at = ? WHERE tenant_id = ? AND instance_id = ? AND session_id = ?",
			string(msgsJSON), now, tenantID, instanceID, sessionID,
		); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Get returns the full transcript for a session or ErrNotFound.
func (s *SQLiteStore) Get(ctx context.Context, tenantID, instanceID, sessionID string) (*Transcript, error) {
	row := s.db.QueryRowContext(ctx,
		"SELECT messages, created_at, updated_at FROM transcripts WHERE tenant_id = ? AND instance_id = ? AND session_id = ?",
		tenantID, instanceID, sessionID,
	)
	var (
		msgsJSON  string
		createdAt string
		updatedAt string
	)
	switch err := row.Scan(&msgsJSON, &createdAt, &updatedAt); {
	case errors.Is(err, sql.ErrNoRows):
		return nil, ErrNotFound
	case err != nil:
		return nil, err
	}

	tr := &Transcript{TenantID: tenantID, InstanceID: instanceID, SessionID: sessionID}
	if err := json.Unmarshal([]byte(msgsJSON), &tr.Messages); err != nil {
		return nil, fmt.Errorf("unmarshal messages: %w", err)
	}
	var err error
	if tr.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if tr.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return tr, nil
}

// List returns summaries of all sessions under an instance, most recently
// updated first.
func (s *SQLiteStore) List(ctx context.Context, tenantID, instanceID string) ([]Summary, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT session_id, messages, created_at, updated_at FROM transcripts WHERE tenant_id = ? AND instance_id = ? ORDER BY updated_at DESC",
		tenantID, instanceID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Summary
	for rows.Next() {
		var (
			sum       Summary
			msgsJSON  string
			createdAt string
			updatedAt string
		)
		if err := rows.Scan(&sum.SessionID, &msgsJSON, &createdAt, &updatedAt); err != nil {
			return nil, err
		}
		var msgs []Message
		if err := json.Unmarshal([]byte(msgsJSON), &msgs); err != nil {
			return nil, fmt.Errorf("unmarshal messages: %w", err)
		}
		sum.MessageCount = len(msgs)
		if sum.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
			return nil, fmt.Errorf("parse created_at: %w", err)
		}
		if sum.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
			return nil, fmt.Errorf("parse updated_at: %w", err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}
