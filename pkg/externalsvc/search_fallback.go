package externalsvc

import (
	"context"
	"errors"
	"log/slog"
)

// FallbackSearcher tries each Searcher in order, returning the first
// successful result set. Adapted from the original system's
// ingestion/search_fallback.py multi-provider fallback chain. Each
// provider is called as it is; FallbackSearcher adds no retry or
// circuit breaker of its own and only decides when to move on to the
// next provider.
type FallbackSearcher struct {
	providers []Searcher
	log       *slog.Logger
}

// NewFallbackSearcher builds a FallbackSearcher trying providers in
// the given order.
func NewFallbackSearcher(providers ...Searcher) *FallbackSearcher {
	return &FallbackSearcher{providers: providers, log: slog.With("component", "externalsvc.search_fallback")}
}

// Search tries each provider in order, returning the first success.
// If every provider fails, returns the last error.
func (f *FallbackSearcher) Search(ctx context.Context, query string, maxResults int) ([]SearchResult, error) {
	if len(f.providers) == 0 {
		return nil, errors.New("externalsvc: no search providers configured")
	}

	var lastErr error
	for i, p := range f.providers {
		results, err := p.Search(ctx, query, maxResults)
		if err == nil {
			return results, nil
		}
		f.log.Warn("search provider failed, trying next", "provider_index", i, "error", err)
		lastErr = err
	}
	return nil, lastErr
}
