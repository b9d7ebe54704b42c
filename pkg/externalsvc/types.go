// Package externalsvc defines the external service boundary of
// spec.md §6: embedding, search, chat/LLM, and feed-reading are
// collaborators the substrate calls into but does not implement
// end-to-end logic for. It also provides a resilience wrapper
// (exponential backoff + circuit breaker) any concrete implementation
// can compose around its outbound calls.
package externalsvc

import (
	"context"
	"time"
)

// Embedder computes a deterministic embedding vector for text. dim is
// fixed per model, per spec.md §4.4.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// SearchResult is one organic result from Searcher.
type SearchResult struct {
	Title   string
	URL     string
	Snippet string
}

// Searcher executes a web/news search, returning up to maxResults hits.
// FallbackSearcher chains several implementations; when every provider
// fails, its caller sees the last provider's error, whatever its kind.
type Searcher interface {
	Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error)
}

// ChatMessage is one turn of a Chat conversation.
type ChatMessage struct {
	Role    string // "user" or "assistant"
	Content string
}

// Chat generates text completions from a system prompt and message
// history. Stateless: callers supply the full conversation each call.
type Chat interface {
	Generate(ctx context.Context, system string, messages []ChatMessage, maxTokens int, temperature float64) (string, error)
}

// FeedEntry is one item pulled from a feed, per spec.md §4.7's
// ingestion loop.
type FeedEntry struct {
	Title     string
	Summary   string
	Link      string
	Published time.Time
}

// FeedReader pulls entries from an RSS-style feed URL.
type FeedReader interface {
	Fetch(ctx context.Context, feedURL string) ([]FeedEntry, error)
}
