package tool

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// duckDuckGoEndpoint is the instant answer API; no key required.
const duckDuckGoEndpoint = "https://api.duckduckgo.com/"

// DuckDuckGoTool performs web search via the DuckDuckGo instant answer API.
// It has no mutable state after construction and is safe for concurrent use.
type DuckDuckGoTool struct {
	client     *http.Client
	maxResults int
}

// NewDuckDuckGoTool constructs the search tool. Recognized options:
//
//	max_results (number) - cap on returned related topics, default 5
func NewDuckDuckGoTool(options map[string]any) *DuckDuckGoTool {
	maxResults := 5
	if v, ok := options["max_results"].(float64); ok && v > 0 {
		maxResults = int(v)
	}
	return &DuckDuckGoTool{
		client:     &http.Client{Timeout: 10 * time.Second},
		maxResults: maxResults,
	}
}

// Name returns the unique identifier for this tool.
func (t *DuckDuckGoTool) Name() string { return "duckduckgo_search" }

// Description returns a human-readable description of what this tool does.
func (t *DuckDuckGoTool) Description() string {
	return "Search the web for current information on a topic. Returns a summary and related results."
}

// Parameters returns the JSON schema for the tool's arguments.
func (t *DuckDuckGoTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"query": map[string]any{"type": "string", "description": "Search query"},
		},
		"required": []string{"query"},
	}
}

// duckDuckGoResult mirrors the subset of the instant answer payload we use.
type duckDuckGoResult struct {
	AbstractText  string `json:"AbstractText"`
	AbstractURL   string `json:"AbstractURL"`
	Heading       string `json:"Heading"`
	RelatedTopics []struct {
		Text     string `json:"Text"`
		FirstURL string `json:"FirstURL"`
	} `json:"RelatedTopics"`
}

// Call executes the search and returns a structured result.
func (t *DuckDuckGoTool) Call(ctx context.Context, args map[string]any) (any, error) {
	query, ok := args["query"].(string)
	if !ok || query == "" {
		return nil, NewError(t.Name(), "field 'query' must be a non-empty string", "VALIDATION_ERROR")
	}

	u := duckDuckGoEndpoint + "?" + url.Values{
		"q":           {query},
		"format":      {"json"},
		"no_redirect": {"1"},
		"no_html":     {"1"},
	}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, NewError(t.Name(), err.Error(), "EXECUTION_ERROR")
	}
	resp, err := t.client.Do(req)
	if err != nil {
		return nil, NewError(t.Name(), err.Error(), "EXECUTION_ERROR")
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, NewError(t.Name(), fmt.Sprintf("unexpected status %d", resp.StatusCode), "EXECUTION_ERROR")
	}

	var result duckDuckGoResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, NewError(t.Name(), err.Error(), "EXECUTION_ERROR")
	}

	results := make([]map[string]any, 0, t.maxResults)
	for _, topic := range result.RelatedTopics {
		if topic.Text == "" {
			continue
		}
		results = append(results, map[string]any{"text": topic.Text, "url": topic.FirstURL})
		if len(results) >= t.maxResults {
			break
		}
	}

	return map[string]any{
		"heading":  result.Heading,
		"abstract": result.AbstractText,
		"url":      result.AbstractURL,
		"results":  results,
	}, nil
}
