package tool

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/teammesh/hierarchy"
)

// Interface compliance (compile-time assertions)
var (
	_ Tool = (*DuckDuckGoTool)(nil)
	_ Tool = (*YFinanceTool)(nil)
)

func TestRegistry_ResolveLayersDefaultsUnderOptions(t *testing.T) {
	r := NewRegistry()

	var captured map[string]any
	r.Register(hierarchy.ToolYFinance,
		map[string]any{"stock_price": true, "company_news": true},
		func(options map[string]any) (Tool, error) {
			captured = options
			return NewYFinanceTool(options), nil
		})

	_, registered, err := r.Resolve(hierarchy.ToolSpec{
		Kind:    hierarchy.ToolYFinance,
		Options: map[string]any{"company_news": false, "extra": "x"},
	})
	require.NoError(t, err)
	require.True(t, registered)

	// Caller values win on conflict; defaults fill the rest.
	assert.Equal(t, true, captured["stock_price"])
	assert.Equal(t, false, captured["company_news"])
	assert.Equal(t, "x", captured["extra"])
}

func TestRegistry_UnknownKind(t *testing.T) {
	r := NewRegistry()
	_, registered, err := r.Resolve(hierarchy.ToolSpec{Kind: hierarchy.ToolKind("nope")})
	require.NoError(t, err)
	assert.False(t, registered)
}

func TestDefaultRegistry_CoversBuiltinKinds(t *testing.T) {
	r := DefaultRegistry()

	for _, kind := range []hierarchy.ToolKind{hierarchy.ToolDuckDuckGo, hierarchy.ToolYFinance} {
		tl, registered, err := r.Resolve(hierarchy.ToolSpec{Kind: kind})
		require.NoError(t, err)
		require.True(t, registered, "kind %s", kind)
		assert.NotEmpty(t, tl.Name())
		assert.NotEmpty(t, tl.Description())
		assert.Equal(t, "object", tl.Parameters()["type"])
	}
}

func TestYFinanceTool_DescriptionFollowsCapabilities(t *testing.T) {
	full := NewYFinanceTool(YFinanceDefaults())
	assert.Contains(t, full.Description(), "analyst recommendations")

	priceOnly := NewYFinanceTool(map[string]any{"stock_price": true})
	assert.Contains(t, priceOnly.Description(), "current stock price")
	assert.NotContains(t, priceOnly.Description(), "analyst recommendations")
}

func TestYFinanceTool_RequiresSymbol(t *testing.T) {
	tl := NewYFinanceTool(YFinanceDefaults())
	_, err := tl.Call(context.Background(), map[string]any{})

	var tErr *Error
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, "VALIDATION_ERROR", tErr.Code)
}

func TestDuckDuckGoTool_RequiresQuery(t *testing.T) {
	tl := NewDuckDuckGoTool(nil)
	_, err := tl.Call(context.Background(), map[string]any{"query": ""})

	var tErr *Error
	require.ErrorAs(t, err, &tErr)
	assert.Equal(t, "VALIDATION_ERROR", tErr.Code)
}

func TestError_Format(t *testing.T) {
	withCode := NewError("yfinance_lookup", "boom", "EXECUTION_ERROR")
	assert.Equal(t, "tool error [EXECUTION_ERROR] in yfinance_lookup: boom", withCode.Error())

	noCode := NewError("yfinance_lookup", "boom", "")
	assert.Equal(t, "tool error in yfinance_lookup: boom", noCode.Error())
}
