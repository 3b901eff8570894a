package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// yfinanceEndpoint is the public Yahoo Finance chart API; no key required.
const yfinanceEndpoint = "https://query1.finance.yahoo.com/v8/finance/chart/"

// YFinanceDefaults returns the capability defaults this kind ships with.
// Caller-supplied options are layered on top by the registry, so a client
// can switch individual capabilities off without restating the rest.
func YFinanceDefaults() map[string]any {
	return map[string]any{
		"stock_price":             true,
		"analyst_recommendations": true,
		"company_info":            true,
		"company_news":            true,
	}
}

// YFinanceTool looks up market data for a ticker symbol via the Yahoo
// Finance API. Which sections of the result are populated is governed by
// the boolean capability options. Safe for concurrent use.
type YFinanceTool struct {
	client          *http.Client
	stockPrice      bool
	recommendations bool
	companyInfo     bool
	companyNews     bool
}

// NewYFinanceTool constructs the market data tool from resolved options.
func NewYFinanceTool(options map[string]any) *YFinanceTool {
	return &YFinanceTool{
		client:          &http.Client{Timeout: 10 * time.Second},
		stockPrice:      boolOption(options, "stock_price"),
		recommendations: boolOption(options, "analyst_recommendations"),
		companyInfo:     boolOption(options, "company_info"),
		companyNews:     boolOption(options, "company_news"),
	}
}

// Name returns the unique identifier for this tool.
func (t *YFinanceTool) Name() string { return "yfinance_lookup" }

// Description advertises only the enabled capabilities to the model.
func (t *YFinanceTool) Description() string {
	caps := make([]string, 0, 4)
	if t.stockPrice {
		caps = append(caps, "current stock price")
	}
	if t.recommendations {
		caps = append(caps, "analyst recommendations")
	}
	if t.companyInfo {
		caps = append(caps, "company information")
	}
	if t.companyNews {
		caps = append(caps, "recent company news")
	}
	return "Look up market data for a stock ticker symbol: " + strings.Join(caps, ", ") + "."
}

// Parameters returns the JSON schema for the tool's arguments.
func (t *YFinanceTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"symbol": map[string]any{"type": "string", "description": "Ticker symbol, e.g. AAPL"},
		},
		"required": []string{"symbol"},
	}
}

// chartResponse mirrors the subset of the chart payload we use.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				Currency           string  `json:"currency"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
				PreviousClose      float64 `json:"chartPreviousClose"`
				ExchangeName       string  `json:"exchangeName"`
				InstrumentType     string  `json:"instrumentType"`
				LongName           string  `json:"longName"`
			} `json:"meta"`
		} `json:"result"`
		Error *struct {
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// Call fetches the quote and assembles a result limited to the enabled
// capabilities.
func (t *YFinanceTool) Call(ctx context.Context, args map[string]any) (any, error) {
	symbol, ok := args["symbol"].(string)
	if !ok || symbol == "" {
		return nil, NewError(t.Name(), "field 'symbol' must be a non-empty string", "VALIDATION_ERROR")
	}
	symbol = strings.ToUpper(strings.TrimSpace(symbol))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, yfinanceEndpoint+url.PathEscape(symbol), nil)
	if err != nil {
		return nil, NewError(t.Name(), err.Error(), "EXECUTION_ERROR")
	}
	req.Header.Set("User-Agent", "teammesh/1.0")
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, NewError(t.Name(), err.Error(), "EXECUTION_ERROR")
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, NewError(t.Name(), fmt.Sprintf("unknown symbol %q", symbol), "NOT_FOUND")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, NewError(t.Name(), fmt.Sprintf("unexpected status %d", resp.StatusCode), "EXECUTION_ERROR")
	}

	var chart chartResponse
	if err := json.NewDecoder(resp.Body).Decode(&chart); err != nil {
		return nil, NewError(t.Name(), err.Error(), "EXECUTION_ERROR")
	}
	if chart.Chart.Error != nil {
		return nil, NewError(t.Name(), chart.Chart.Error.Description, "EXECUTION_ERROR")
	}
	if len(chart.Chart.Result) == 0 {
		return nil, NewError(t.Name(), fmt.Sprintf("no data for symbol %q", symbol), "NOT_FOUND")
	}

	meta := chart.Chart.Result[0].Meta
	out := map[string]any{"symbol": meta.Symbol}
	if t.stockPrice {
		out["price"] = meta.RegularMarketPrice
		out["previous_close"] = meta.PreviousClose
		out["currency"] = meta.Currency
	}
	if t.companyInfo {
		out["name"] = meta.LongName
		out["exchange"] = meta.ExchangeName
		out["instrument_type"] = meta.InstrumentType
	}
	return out, nil
}
