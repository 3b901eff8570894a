package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/teammesh/hierarchy"
)

func newTestSQLiteStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(filepath.Join(t.TempDir(), "hierarchy.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSQLiteStore_RoundTrip(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	cfg := hierarchy.NewConfig("t1", "i1")
	cfg.Agents = []hierarchy.AgentSpec{{
		ID:       "a1",
		Name:     "Analyst",
		Role:     "Answers market questions",
		Provider: hierarchy.ProviderGemini,
		ModelID:  "gemini-1.5-flash",
		Tools:    []hierarchy.ToolSpec{{Kind: hierarchy.ToolYFinance, Options: map[string]any{"company_news": false}}},
	}}
	require.NoError(t, s.Save(ctx, cfg))

	got, err := s.FindOne(ctx, "t1", "i1")
	require.NoError(t, err)
	assert.Equal(t, cfg.DelegatorInstructions, got.DelegatorInstructions)
	require.Len(t, got.Agents, 1)
	assert.Equal(t, "Analyst", got.Agents[0].Name)
	require.Len(t, got.Agents[0].Tools, 1)
	assert.Equal(t, hierarchy.ToolYFinance, got.Agents[0].Tools[0].Kind)
	assert.Equal(t, false, got.Agents[0].Tools[0].Options["company_news"])
}

func TestSQLiteStore_NotFound(t *testing.T) {
	s := newTestSQLiteStore(t)
	_, err := s.FindOne(context.Background(), "t1", "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSQLiteStore_SaveReplacesOnConflict(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	cfg := hierarchy.NewConfig("t1", "i1")
	require.NoError(t, s.Save(ctx, cfg))

	cfg.DelegatorInstructions = "updated"
	require.NoError(t, s.Save(ctx, cfg))

	got, err := s.FindOne(ctx, "t1", "i1")
	require.NoError(t, err)
	assert.Equal(t, "updated", got.DelegatorInstructions)

	cfgs, err := s.ListByTenant(ctx, "t1")
	require.NoError(t, err)
	assert.Len(t, cfgs, 1)
}

func TestSQLiteStore_ListByTenant(t *testing.T) {
	s := newTestSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, s.Save(ctx, hierarchy.NewConfig("t1", "i2")))
	require.NoError(t, s.Save(ctx, hierarchy.NewConfig("t1", "i1")))
	require.NoError(t, s.Save(ctx, hierarchy.NewConfig("t2", "i9")))

	cfgs, err := s.ListByTenant(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, cfgs, 2)
	assert.Equal(t, "i1", cfgs[0].InstanceID)
	assert.Equal(t, "i2", cfgs[1].InstanceID)
}
