package transcript

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Interface compliance (compile-time assertions)
var (
	_ Store = (*InMemoryStore)(nil)
	_ Store = (*SQLiteStore)(nil)
)

func TestInMemoryStore_AppendCreatesLazily(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	now := time.Now().UTC()
	require.NoError(t, s.Append(ctx, "t1", "i1", "s1",
		Message{Role: "user", Content: "hi", CreatedAt: now},
		Message{Role: "assistant", Content: "hello", CreatedAt: now},
	))

	tr, err := s.Get(ctx, "t1", "i1", "s1")
	require.NoError(t, err)
	require.Len(t, tr.Messages, 2)
	assert.Equal(t, "user", tr.Messages[0].Role)
	assert.Equal(t, "hello", tr.Messages[1].Content)
}

func TestInMemoryStore_GetNotFound(t *testing.T) {
	s := NewInMemoryStore()
	_, err := s.Get(context.Background(), "t1", "i1", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestInMemoryStore_ClonesOnReturn(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "t1", "i1", "s1", Message{Role: "user", Content: "hi"}))

	tr, err := s.Get(ctx, "t1", "i1", "s1")
	require.NoError(t, err)
	tr.Messages[0].Content = "mutated"

	again, err := s.Get(ctx, "t1", "i1", "s1")
	require.NoError(t, err)
	assert.Equal(t, "hi", again.Messages[0].Content)
}

func TestInMemoryStore_ListScopedToInstance(t *testing.T) {
	s := NewInMemoryStore()
	ctx := context.Background()

	require.NoError(t, s.Append(ctx, "t1", "i1", "s1", Message{Role: "user", Content: "a"}))
	time.Sleep(2 * time.Millisecond) // keep UpdatedAt ordering unambiguous
	require.NoError(t, s.Append(ctx, "t1", "i1", "s2",
		Message{Role: "user", Content: "b"},
		Message{Role: "assistant", Content: "c"},
	))
	require.NoError(t, s.Append(ctx, "t1", "other", "s3", Message{Role: "user", Content: "d"}))

	sums, err := s.List(ctx, "t1", "i1")
	require.NoError(t, err)
	require.Len(t, sums, 2)
	// Most recently updated first.
	assert.Equal(t, "s2", sums[0].SessionID)
	assert.Equal(t, 2, sums[0].MessageCount)
	assert.Equal(t, "s1", sums[1].SessionID)
}
