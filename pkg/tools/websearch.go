package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/charmbracelet/log"
)

const searchUserAgent = "Mozilla/5.0 (compatible; ironbot/1.0)"

// SearchResult is one hit from a web search provider.
type SearchResult struct {
	Title   string
	URL     string
	Snippet string
	Source  string
}

// WebSearch fans out to the configured search providers in a fixed order
// (Brave, Serper, Tavily) and returns the first provider's non-empty
// results. Provider failures are logged and the next provider is tried.
type WebSearch struct {
	braveAPIKey  string
	serperAPIKey string
	tavilyAPIKey string
	maxResults   int
	httpClient   *http.Client
}

func NewWebSearch(braveKey, serperKey, tavilyKey string, maxResults int) *WebSearch {
	if maxResults <= 0 || maxResults > 10 {
		maxResults = 5
	}
	return &WebSearch{
		braveAPIKey:  braveKey,
		serperAPIKey: serperKey,
		tavilyAPIKey: tavilyKey,
		maxResults:   maxResults,
		httpClient:   &http.Client{Timeout: 20 * time.Second},
	}
}

// Search runs the query against the provider chain. Returns an empty slice
// when all providers fail or none are configured.
func (w *WebSearch) Search(ctx context.Context, query string) []SearchResult {
	if query == "" {
		return nil
	}

	providers := []struct {
		name string
		fn   func(context.Context, string) ([]SearchResult, error)
	}{
		{"brave", w.braveSearch},
		{"serper", w.serperSearch},
		{"tavily", w.tavilySearch},
	}

	for _, p := range providers {
		results, err := p.fn(ctx, query)
		if err != nil {
			log.Warn("web search provider failed", "provider", p.name, "err", err)
			continue
		}
		if len(results) > 0 {
			return results
		}
	}
	return nil
}

func (w *WebSearch) braveSearch(ctx context.Context, query string) ([]SearchResult, error) {
	if w.braveAPIKey == "" {
		return nil, nil
	}

	searchURL := fmt.Sprintf("https://api.search.brave.com/res/v1/web/search?q=%s&count=%d",
		url.QueryEscape(query), w.maxResults)

	req, err := http.NewRequestWithContext(ctx, "GET", searchURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", searchUserAgent)
	req.Header.Set("X-Subscription-Token", w.braveAPIKey)

	body, err := w.doRequest(req)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Web struct {
			Results []struct {
				Title       string `json:"title"`
				URL         string `json:"url"`
				Description string `json:"description"`
			} `json:"results"`
		} `json:"web"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse brave response: %w", err)
	}

	var out []SearchResult
	for _, r := range resp.Web.Results {
		if r.URL == "" {
			continue
		}
		out = append(out, SearchResult{Title: r.Title, URL: r.URL, Snippet: r.Description, Source: "brave"})
		if len(out) >= w.maxResults {
			break
		}
	}
	return out, nil
}

func (w *WebSearch) serperSearch(ctx context.Context, query string) ([]SearchResult, error) {
	if w.serperAPIKey == "" {
		return nil, nil
	}

	payload, _ := json.Marshal(map[string]any{"q": query, "num": w.maxResults})
	req, err := http.NewRequestWithContext(ctx, "POST", "https://google.serper.dev/search", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-API-KEY", w.serperAPIKey)

	body, err := w.doRequest(req)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Organic []struct {
			Title   string `json:"title"`
			Link    string `json:"link"`
			Snippet string `json:"snippet"`
		} `json:"organic"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse serper response: %w", err)
	}

	var out []SearchResult
	for _, r := range resp.Organic {
		if r.Link == "" {
			continue
		}
		out = append(out, SearchResult{Title: r.Title, URL: r.Link, Snippet: r.Snippet, Source: "serper"})
		if len(out) >= w.maxResults {
			break
		}
	}
	return out, nil
}

func (w *WebSearch) tavilySearch(ctx context.Context, query string) ([]SearchResult, error) {
	if w.tavilyAPIKey == "" {
		return nil, nil
	}

	payload, _ := json.Marshal(map[string]any{
		"api_key":     w.tavilyAPIKey,
		"query":       query,
		"max_results": w.maxResults,
	})
	req, err := http.NewRequestWithContext(ctx, "POST", "https://api.tavily.com/search", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	body, err := w.doRequest(req)
	if err != nil {
		return nil, err
	}

	var resp struct {
		Results []struct {
			Title   string `json:"title"`
			URL     string `json:"url"`
			Content string `json:"content"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("parse tavily response: %w", err)
	}

	var out []SearchResult
	for _, r := range resp.Results {
		if r.URL == "" {
			continue
		}
		out = append(out, SearchResult{Title: r.Title, URL: r.URL, Snippet: r.Content, Source: "tavily"})
		if len(out) >= w.maxResults {
			break
		}
	}
	return out, nil
}

func (w *WebSearch) doRequest(req *http.Request) ([]byte, error) {
	resp, err := w.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}
	return body, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// FormatResults renders search results as prompt-injectable lines.
func FormatResults(results []SearchResult) []string {
	lines := make([]string, 0, len(results))
	for _, r := range results {
		lines = append(lines, fmt.Sprintf("- %s (%s): %s", r.Title, r.URL, r.Snippet))
	}
	return lines
}
