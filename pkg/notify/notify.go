// Package notify implements the publish channels of spec.md §6's
// publish output shape: `results: { <channel>: { success, ... } }`.
// Channel shape is adapted from the original system's Publisher
// interface (publishing/__init__.py): a channel has a name, publishes
// an article, and reports a per-channel result.
package notify

import (
	"context"
)

// Article is the minimal article view a publish channel needs — a
// narrower read-only projection of pkg/article.Article so this package
// doesn't depend on the store-backed article package.
type Article struct {
	ArticleID string
	Headline  string
	Body      string
	Byline    string
	Summary   string
}

// Result is one channel's outcome. It carries the same fields as
// worker.ChannelResult but no JSON tags; the publisher copies it into
// that type field by field.
type Result struct {
	Success bool
	Detail  string
}

// Channel publishes an article to one destination.
type Channel interface {
	Name() string
	Publish(ctx context.Context, article Article) Result
}

// Dispatcher fans a publish request out to named channels, collecting
// one Result per channel — the concrete shape behind the publish
// worker's `results` map.
type Dispatcher struct {
	channels map[string]Channel
}

// NewDispatcher builds a Dispatcher over the given channels, keyed by
// their own Name().
func NewDispatcher(channels ...Channel) *Dispatcher {
	d := &Dispatcher{channels: make(map[string]Channel, len(channels))}
	for _, c := range channels {
		d.channels[c.Name()] = c
	}
	return d
}

// Publish sends article to every name in channels, skipping any name
// with no registered Channel (reported as a failed result rather than
// silently dropped, so callers can see the misconfiguration).
func (d *Dispatcher) Publish(ctx context.Context, article Article, channels []string) map[string]Result {
	out := make(map[string]Result, len(channels))
	for _, name := range channels {
		ch, ok := d.channels[name]
		if !ok {
			out[name] = Result{Success: false, Detail: "channel not registered"}
			continue
		}
		out[name] = ch.Publish(ctx, article)
	}
	return out
}
