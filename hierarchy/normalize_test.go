package hierarchy

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawToolUnmarshal_BareString(t *testing.T) {
	var raw RawTool
	require.NoError(t, json.Unmarshal([]byte(`"YFINANCE"`), &raw))
	assert.Equal(t, "YFINANCE", raw.Bare)
}

func TestRawToolUnmarshal_Record(t *testing.T) {
	var raw RawTool
	require.NoError(t, json.Unmarshal([]byte(`{"type":"yfinance","config":{"stock_price":false}}`), &raw))
	assert.Equal(t, "yfinance", raw.Type)
	assert.Equal(t, map[string]any{"stock_price": false}, raw.options())
}

func TestRawToolUnmarshal_TypedSpec(t *testing.T) {
	var raw RawTool
	require.NoError(t, json.Unmarshal([]byte(`{"kind":"duckduckgo","options":{"max_results":3}}`), &raw))
	assert.Equal(t, "duckduckgo", raw.kindName())
}

func TestRawToolUnmarshal_Invalid(t *testing.T) {
	var raw RawTool
	assert.Error(t, json.Unmarshal([]byte(`42`), &raw))
}

func TestNormalizeAgent_StringAndRecordToolsEquivalent(t *testing.T) {
	n := NewNormalizer(nil)

	fromString, err := n.Agent(RawAgent{Name: "Analyst", Tools: []RawTool{{Bare: "YFINANCE"}}})
	require.NoError(t, err)
	fromRecord, err := n.Agent(RawAgent{Name: "Analyst", Tools: []RawTool{{Type: "yfinance"}}})
	require.NoError(t, err)

	require.Len(t, fromString.Tools, 1)
	require.Len(t, fromRecord.Tools, 1)
	assert.Equal(t, fromString.Tools[0].Kind, fromRecord.Tools[0].Kind)
	assert.Equal(t, ToolYFinance, fromString.Tools[0].Kind)
}

func TestNormalizeAgent_UnknownToolKindDropped(t *testing.T) {
	n := NewNormalizer(nil)

	spec, err := n.Agent(RawAgent{
		Name:  "Analyst",
		Tools: []RawTool{{Bare: "FOOBAR"}, {Bare: "duckduckgo"}, {Type: "yfinance"}},
	})
	require.NoError(t, err)

	// The malformed entry is dropped; the rest normalizes in order.
	require.Len(t, spec.Tools, 2)
	assert.Equal(t, ToolDuckDuckGo, spec.Tools[0].Kind)
	assert.Equal(t, ToolYFinance, spec.Tools[1].Kind)
}

func TestNormalizeAgent_GeneratesID(t *testing.T) {
	n := NewNormalizer(nil)

	first, err := n.Agent(RawAgent{Name: "Analyst"})
	require.NoError(t, err)
	second, err := n.Agent(RawAgent{Name: "Analyst"})
	require.NoError(t, err)

	assert.NotEmpty(t, first.ID)
	assert.NotEqual(t, first.ID, second.ID)
}

func TestNormalizeAgent_KeepsSuppliedID(t *testing.T) {
	n := NewNormalizer(nil)

	spec, err := n.Agent(RawAgent{AgentID: "agent-1", Name: "Analyst"})
	require.NoError(t, err)
	assert.Equal(t, "agent-1", spec.ID)

	// Legacy "id" field is accepted too.
	spec, err = n.Agent(RawAgent{ID: "agent-2", Name: "Analyst"})
	require.NoError(t, err)
	assert.Equal(t, "agent-2", spec.ID)
}

func TestNormalizeAgent_ProviderHandling(t *testing.T) {
	n := NewNormalizer(nil)

	tests := []struct {
		name     string
		provider string
		want     ModelProvider
	}{
		{"lowercase", "openai", ProviderOpenAI},
		{"uppercase", "CLAUDE", ProviderClaude},
		{"mixed case", "GrOq", ProviderGroq},
		{"whitespace", " gemini ", ProviderGemini},
		{"unknown falls back", "mistral", DefaultProvider},
		{"empty falls back", "", DefaultProvider},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := n.Agent(RawAgent{Name: "Analyst", Provider: tt.provider})
			require.NoError(t, err)
			assert.Equal(t, tt.want, spec.Provider)
		})
	}
}

func TestNormalizeAgent_ModelIDDefault(t *testing.T) {
	n := NewNormalizer(nil)

	spec, err := n.Agent(RawAgent{Name: "Analyst"})
	require.NoError(t, err)
	assert.Equal(t, DefaultModelID, spec.ModelID)

	spec, err = n.Agent(RawAgent{Name: "Analyst", ModelID: "gpt-4o"})
	require.NoError(t, err)
	assert.Equal(t, "gpt-4o", spec.ModelID)
}

func TestNormalizeAgent_NameRequired(t *testing.T) {
	n := NewNormalizer(nil)

	_, err := n.Agent(RawAgent{Role: "does things"})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "name", vErr.Field)
}

func TestNormalizeAgents_PreservesOrder(t *testing.T) {
	n := NewNormalizer(nil)

	specs, err := n.Agents([]RawAgent{
		{Name: "First"}, {Name: "Second"}, {Name: "Third"},
	})
	require.NoError(t, err)
	require.Len(t, specs, 3)
	assert.Equal(t, "First", specs[0].Name)
	assert.Equal(t, "Second", specs[1].Name)
	assert.Equal(t, "Third", specs[2].Name)
}

func TestNormalizeUpdate(t *testing.T) {
	n := NewNormalizer(nil)

	instructions := "route carefully"
	upd, err := n.Update(RawUpdate{
		DelegatorInstructions: &instructions,
		Agents:                &[]RawAgent{{Name: "Analyst", Tools: []RawTool{{Bare: "yfinance"}}}},
	})
	require.NoError(t, err)
	require.NotNil(t, upd.DelegatorInstructions)
	assert.Equal(t, "route carefully", *upd.DelegatorInstructions)
	require.NotNil(t, upd.Agents)
	require.Len(t, *upd.Agents, 1)

	// Absent fields stay unset.
	upd, err = n.Update(RawUpdate{})
	require.NoError(t, err)
	assert.True(t, upd.IsZero())
}

func TestNormalizeUpdate_MalformedAgentAborts(t *testing.T) {
	n := NewNormalizer(nil)

	_, err := n.Update(RawUpdate{Agents: &[]RawAgent{{Name: "ok"}, {Name: ""}}})
	assert.Error(t, err)
}
