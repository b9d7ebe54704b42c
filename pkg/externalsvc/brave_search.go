package externalsvc

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/newsroom-systems/chief/pkg/chieferrors"
)

// braveSearchURL is the Brave Search API's web search endpoint, per
// the original system's ingestion/search.py BraveSearchProvider.
const braveSearchURL = "https://api.search.brave.com/res/v1/web/search"

// BraveSearcher implements Searcher against the Brave Search API, a
// plain JSON-over-HTTPS REST call with no Go SDK anywhere in the
// retrieval pack — the standard library's net/http is the idiomatic
// choice for a single unauthenticated-shape GET request like this one.
type BraveSearcher struct {
	apiKey string
	client *http.Client
}

// NewBraveSearcher builds a BraveSearcher using apiKey.
func NewBraveSearcher(apiKey string) *BraveSearcher {
	return &BraveSearcher{apiKey: apiKey, client: &http.Client{Timeout: 10 * time.Second}}
}

type braveSearchResponse struct {
	Web struct {
		Results []struct {
			Title       string `json:"title"`
			URL         string `json:"url"`
			Description string `json:"description"`
		} `json:"results"`
	} `json:"web"`
}

// Search queries Brave's web search endpoint for query, returning up
// to maxResults (capped at Brave's own limit of 20). Each call makes a
// single request; a transient failure is returned to the caller, not
// retried here, and no circuit breaker wraps the call.
func (b *BraveSearcher) Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error) {
	if b.apiKey == "" {
		return nil, chieferrors.New(chieferrors.Unavailable, "externalsvc.brave_search", fmt.Errorf("no API key configured"))
	}
	if maxResults > 20 {
		maxResults = 20
	}

	q := url.Values{"q": {query}, "count": {fmt.Sprintf("%d", maxResults)}}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, braveSearchURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("building search request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Subscription-Token", b.apiKey)

	resp, err := b.client.Do(req)
	if err != nil {
		return nil, chieferrors.New(chieferrors.Transient, "externalsvc.brave_search", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= http.StatusInternalServerError {
		return nil, chieferrors.New(chieferrors.Transient, "externalsvc.brave_search", fmt.Errorf("status %d", resp.StatusCode))
	}
	if resp.StatusCode != http.StatusOK {
		return nil, chieferrors.New(chieferrors.Unavailable, "externalsvc.brave_search", fmt.Errorf("status %d", resp.StatusCode))
	}

	var parsed braveSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}

	out := make([]SearchResult, 0, len(parsed.Web.Results))
	for _, r := range parsed.Web.Results {
		out = append(out, SearchResult{Title: r.Title, URL: r.URL, Snippet: r.Description})
	}
	return out, nil
}
