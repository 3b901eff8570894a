// Package transcript houses per-conversation message logs keyed by
// (tenantID, instanceID, sessionID). The team runtime appends one user and
// one assistant message per turn and reads history back when the delegator
// routes with conversation context enabled. Listing and lookup back the
// inspection endpoints; there is no merge logic here.
//
// Add additional backends (Redis, Postgres, Mongo, etc.) alongside the
// in-memory and SQLite implementations without changing any calling code.
package transcript

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound indicates no transcript exists for a session key.
var ErrNotFound = errors.New("transcript not found")

// Message is one logged conversation turn half.
type Message struct {
	Role      string    `json:"role"` // "user" or "assistant"
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// Transcript is the full message log of one session.
type Transcript struct {
	TenantID   string    `json:"tenant_id"`
	InstanceID string    `json:"instance_id"`
	SessionID  string    `json:"session_id"`
	Messages   []Message `json:"messages"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Clone returns a deep copy safe for divergent mutation.
func (t *Transcript) Clone() *Transcript {
	clone := *t
	clone.Messages = make([]Message, len(t.Messages))
	copy(clone.Messages, t.Messages)
	return &clone
}

// Summary is the listing view of one session: identity and shape, no content.
type Summary struct {
	SessionID    string    `json:"session_id"`
	MessageCount int       `json:"message_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Store persists transcripts. (tenantID, instanceID, sessionID) is unique;
// Append creates the transcript lazily on first use.
type Store interface {
	// Append adds messages to a session's transcript, creating it if absent.
	Append(ctx context.Context, tenantID, instanceID, sessionID string, msgs ...Message) error

	// Get returns the full transcript for a session or ErrNotFound.
	Get(ctx context.Context, tenantID, instanceID, sessionID string) (*Transcript, error)

	// List returns summaries of all sessions under an instance, most
	// recently updated first.
	List(ctx context.Context, tenantID, instanceID string) ([]Summary, error)
}
