package transcript

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InMemoryStore is a volatile Store implementation keeping transcripts in a
// process local map. It is safe for concurrent access and best suited for
// tests or ephemeral demo servers. Each returned transcript is cloned to
// prevent external mutation of internal state.
type InMemoryStore struct {
	mu          sync.RWMutex
	transcripts map[string]*Transcript
}

// NewInMemoryStore constructs an empty in-memory transcript store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{transcripts: make(map[string]*Transcript)}
}

func key(tenantID, instanceID, sessionID string) string {
	return tenantID + ":" + instanceID + ":" + sessionID
}

// Append adds messages to a session's transcript, creating it if absent.
func (s *InMemoryStore) Append(_ context.Context, tenantID, instanceID, sessionID string, msgs ...Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := key(tenantID, instanceID, sessionID)
	tr, ok := s.transcripts[k]
	if !ok {
		now := time.Now().UTC()
		tr = &Transcript{
			TenantID:   tenantID,
			InstanceID: instanceID,
			SessionID:  sessionID,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		s.transcripts[k] = tr
	}
	tr.Messages = append(tr.Messages, msgs...)
	tr.UpdatedAt = time.Now().UTC()
	return nil
}

// Get returns a clone of the transcript or ErrNotFound.
func (s *InMemoryStore) Get(_ context.Context, tenantID, instanceID, sessionID string) (*Transcript, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	tr, ok := s.transcripts[key(tenantID, instanceID, sessionID)]
	if !ok {
		return nil, ErrNotFound
	}
	return tr.Clone(), nil
}

// List returns summaries of all sessions under an instance, most recently
// updated first.
func (s *InMemoryStore) List(_ context.Context, tenantID, instanceID string) ([]Summary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []Summary
	for _, tr := range s.transcripts {
		if tr.TenantID == tenantID && tr.InstanceID == instanceID {
			out = append(out, Summary{
				SessionID:    tr.SessionID,
				MessageCount: len(tr.Messages),
				CreatedAt:    tr.CreatedAt,
				UpdatedAt:    tr.UpdatedAt,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UpdatedAt.After(out[j].UpdatedAt) })
	return out, nil
}
