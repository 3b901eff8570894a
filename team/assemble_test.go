package team

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/teammesh/hierarchy"
	"github.com/hupe1980/teammesh/model"
	"github.com/hupe1980/teammesh/tool"
	"github.com/hupe1980/teammesh/transcript"
)

func newTestModelRegistry() *model.Registry {
	r := model.NewRegistry()
	r.Register(hierarchy.DefaultProvider, func(modelID string) (model.Model, error) {
		return model.NewMockModel(modelID, string(hierarchy.DefaultProvider)), nil
	})
	r.Register(hierarchy.ProviderOpenAI, func(modelID string) (model.Model, error) {
		return model.NewMockModel(modelID, string(hierarchy.ProviderOpenAI)), nil
	})
	return r
}

func newTestConfig(agents ...hierarchy.AgentSpec) *hierarchy.Config {
	cfg := hierarchy.NewConfig("acme", "support")
	cfg.Agents = agents
	return cfg
}

func TestAssembler_MembersInConfigOrder(t *testing.T) {
	a := NewAssembler(newTestModelRegistry(), tool.DefaultRegistry(), transcript.NewInMemoryStore())

	tm, err := a.Assemble(newTestConfig(
		hierarchy.AgentSpec{ID: "a1", Name: "Analyst", Role: "Covers markets", Provider: hierarchy.ProviderOpenAI, ModelID: "gpt-4o"},
		hierarchy.AgentSpec{ID: "a2", Name: "Researcher", Role: "Finds sources", Provider: hierarchy.DefaultProvider, ModelID: hierarchy.DefaultModelID},
	))
	require.NoError(t, err)

	members := tm.Members()
	require.Len(t, members, 2)
	assert.Equal(t, "Analyst", members[0].Name())
	assert.Equal(t, "Researcher", members[1].Name())
	assert.Equal(t, string(hierarchy.ProviderOpenAI), members[0].Model().Info().Provider)
	assert.Equal(t, "acme", tm.TenantID())
	assert.Equal(t, "support", tm.InstanceID())
}

func TestAssembler_ToolsBoundInSpecOrder(t *testing.T) {
	a := NewAssembler(newTestModelRegistry(), tool.DefaultRegistry(), transcript.NewInMemoryStore())

	tm, err := a.Assemble(newTestConfig(hierarchy.AgentSpec{
		ID: "a1", Name: "Analyst", Provider: hierarchy.DefaultProvider, ModelID: hierarchy.DefaultModelID,
		Tools: []hierarchy.ToolSpec{
			{Kind: hierarchy.ToolYFinance},
			{Kind: hierarchy.ToolDuckDuckGo},
		},
	}))
	require.NoError(t, err)

	tools := tm.Members()[0].Tools()
	require.Len(t, tools, 2)
	assert.Equal(t, "yfinance_lookup", tools[0].Name())
	assert.Equal(t, "duckduckgo_search", tools[1].Name())
}

func TestAssembler_UnregisteredToolKindSkipped(t *testing.T) {
	// An empty tool registry stands in for a config persisted under a build
	// that knew more kinds than this one.
	a := NewAssembler(newTestModelRegistry(), tool.NewRegistry(), transcript.NewInMemoryStore())

	tm, err := a.Assemble(newTestConfig(hierarchy.AgentSpec{
		ID: "a1", Name: "Analyst", Provider: hierarchy.DefaultProvider, ModelID: hierarchy.DefaultModelID,
		Tools: []hierarchy.ToolSpec{{Kind: hierarchy.ToolYFinance}},
	}))
	require.NoError(t, err)
	assert.Empty(t, tm.Members()[0].Tools())
}

func TestAssembler_ToolFactoryErrorWrapped(t *testing.T) {
	tools := tool.NewRegistry()
	tools.Register(hierarchy.ToolYFinance, nil, func(map[string]any) (tool.Tool, error) {
		return nil, errors.New("bad options")
	})
	a := NewAssembler(newTestModelRegistry(), tools, transcript.NewInMemoryStore())

	_, err := a.Assemble(newTestConfig(hierarchy.AgentSpec{
		ID: "a1", Name: "Analyst", Provider: hierarchy.DefaultProvider, ModelID: hierarchy.DefaultModelID,
		Tools: []hierarchy.ToolSpec{{Kind: hierarchy.ToolYFinance}},
	}))

	var bindErr *ToolBindingError
	require.ErrorAs(t, err, &bindErr)
	assert.Equal(t, "Analyst", bindErr.Agent)
	assert.Equal(t, hierarchy.ToolYFinance, bindErr.Kind)
}

func TestAssembler_UnregisteredProviderFallsBackToDefault(t *testing.T) {
	models := model.NewRegistry()
	models.Register(hierarchy.DefaultProvider, func(modelID string) (model.Model, error) {
		return model.NewMockModel(modelID, string(hierarchy.DefaultProvider)), nil
	})
	a := NewAssembler(models, tool.DefaultRegistry(), transcript.NewInMemoryStore())

	tm, err := a.Assemble(newTestConfig(hierarchy.AgentSpec{
		ID: "a1", Name: "Analyst", Provider: hierarchy.ProviderGroq, ModelID: "llama-3.1-8b-instant",
	}))
	require.NoError(t, err)
	assert.Equal(t, string(hierarchy.DefaultProvider), tm.Members()[0].Model().Info().Provider)
	assert.Equal(t, hierarchy.DefaultModelID, tm.Members()[0].Model().Info().Name)
}

func TestAssembler_NoDefaultProvider(t *testing.T) {
	a := NewAssembler(model.NewRegistry(), tool.DefaultRegistry(), transcript.NewInMemoryStore())

	_, err := a.Assemble(newTestConfig())

	var bindErr *ModelBindingError
	require.ErrorAs(t, err, &bindErr)
	assert.Equal(t, hierarchy.DefaultProvider, bindErr.Provider)
}

func TestAssembler_ModelFactoryErrorWrapped(t *testing.T) {
	models := newTestModelRegistry()
	models.Register(hierarchy.ProviderOpenAI, func(modelID string) (model.Model, error) {
		return nil, errors.New("missing api key")
	})
	a := NewAssembler(models, tool.DefaultRegistry(), transcript.NewInMemoryStore())

	_, err := a.Assemble(newTestConfig(hierarchy.AgentSpec{
		ID: "a1", Name: "Analyst", Provider: hierarchy.ProviderOpenAI, ModelID: "gpt-4o",
	}))

	var bindErr *ModelBindingError
	require.ErrorAs(t, err, &bindErr)
	assert.Equal(t, "Analyst", bindErr.Agent)
	assert.Equal(t, hierarchy.ProviderOpenAI, bindErr.Provider)
}

func TestAssembler_Options(t *testing.T) {
	a := NewAssembler(newTestModelRegistry(), tool.DefaultRegistry(), transcript.NewInMemoryStore(),
		func(o *AssemblerOptions) {
			o.HistoryEnabled = false
			o.MaxModelCalls = 2
		})

	tm, err := a.Assemble(newTestConfig())
	require.NoError(t, err)
	assert.False(t, tm.delegator.historyEnabled)
	assert.Equal(t, 2, tm.maxModelCalls)
}
