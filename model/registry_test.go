package model

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/teammesh/hierarchy"
)

var _ Model = (*MockModel)(nil)

func TestRegistry_ResolvePassesModelID(t *testing.T) {
	r := NewRegistry()
	r.Register(hierarchy.ProviderOpenAI, func(modelID string) (Model, error) {
		return NewMockModel(modelID, "openai"), nil
	})

	m, registered, err := r.Resolve(hierarchy.ProviderOpenAI, "gpt-4o")
	require.NoError(t, err)
	require.True(t, registered)
	assert.Equal(t, "gpt-4o", m.Info().Name)
}

func TestRegistry_UnregisteredProvider(t *testing.T) {
	r := NewRegistry()
	m, registered, err := r.Resolve(hierarchy.ProviderGroq, "llama-3.1-8b-instant")
	require.NoError(t, err)
	assert.False(t, registered)
	assert.Nil(t, m)
}

func TestRegistry_FactoryErrorWrapped(t *testing.T) {
	r := NewRegistry()
	r.Register(hierarchy.ProviderClaude, func(string) (Model, error) {
		return nil, errors.New("missing api key")
	})

	_, registered, err := r.Resolve(hierarchy.ProviderClaude, "claude-3-5-sonnet-20241022")
	assert.True(t, registered)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "provider claude")
}

func TestMockModel_CannedAndEchoResponses(t *testing.T) {
	m := NewMockModel("mock", "test")
	m.AddResponse("ping", "pong")

	resp, err := m.Generate(context.Background(), Request{Messages: []Message{{Role: "user", Text: "ping"}}})
	require.NoError(t, err)
	assert.Equal(t, "pong", resp.Text)

	resp, err = m.Generate(context.Background(), Request{Messages: []Message{{Role: "user", Text: "anything"}}})
	require.NoError(t, err)
	assert.Equal(t, "Mock response to: anything", resp.Text)

	_, err = m.Generate(context.Background(), Request{})
	require.Error(t, err)
}
