package scout

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/newsroom-systems/chief/pkg/eventlog"
	"github.com/newsroom-systems/chief/pkg/externalsvc"
	"github.com/newsroom-systems/chief/pkg/ids"
	"github.com/newsroom-systems/chief/pkg/memory"
	"github.com/newsroom-systems/chief/pkg/metrics"
	"github.com/newsroom-systems/chief/pkg/store"
)

// Config controls the Scout loop's pacing and thresholds.
type Config struct {
	Feeds          []string
	ScanInterval   time.Duration
	ScoreThreshold float64
	DedupThreshold float64
}

// Scout periodically pulls feeds, scores entries, and emits
// story.detected events — the role that never claims queued tasks, per
// spec.md §4.7.
type Scout struct {
	reader externalsvc.FeedReader
	embed  externalsvc.Embedder
	mem    *memory.Memory
	events *eventlog.Log

	cfg Config

	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
	log      *slog.Logger
}

// New builds a Scout over st, using reader to pull feeds and embed to
// compute embeddings for the dedup gate.
func New(st *store.Store, reader externalsvc.FeedReader, embed externalsvc.Embedder, mem *memory.Memory, cfg Config) *Scout {
	if cfg.ScanInterval <= 0 {
		cfg.ScanInterval = 5 * time.Minute
	}
	if cfg.ScoreThreshold <= 0 {
		cfg.ScoreThreshold = 0.6
	}
	if cfg.DedupThreshold <= 0 {
		cfg.DedupThreshold = 0.85
	}
	return &Scout{
		reader: reader,
		embed:  embed,
		mem:    mem,
		events: eventlog.New(st),
		cfg:    cfg,
		stopCh: make(chan struct{}),
		log:    slog.With("component", "scout"),
	}
}

// Start launches the scan loop in a background goroutine.
func (s *Scout) Start(ctx context.Context) {
	s.wg.Add(1)
	go s.run(ctx)
}

// Stop signals the loop to exit and waits for it to finish.
func (s *Scout) Stop() {
	s.stopOnce.Do(func() { close(s.stopCh) })
	s.wg.Wait()
}

func (s *Scout) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.cfg.ScanInterval)
	defer ticker.Stop()

	s.scanAll(ctx)
	for {
		select {
		case <-s.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.scanAll(ctx)
		}
	}
}

func (s *Scout) scanAll(ctx context.Context) {
	for _, feedURL := range s.cfg.Feeds {
		if err := s.scanFeed(ctx, feedURL); err != nil {
			s.log.Error("feed scan failed", "feed_url", feedURL, "error", err)
		}
	}
}

func (s *Scout) scanFeed(ctx context.Context, feedURL string) error {
	log := s.log.With("feed_url", feedURL)
	log.Info("scanning feed")

	entries, err := s.reader.Fetch(ctx, feedURL)
	if err != nil {
		return fmt.Errorf("fetching feed: %w", err)
	}

	for _, entry := range entries {
		score := Newsworthiness(entry)
		if score < s.cfg.ScoreThreshold {
			continue
		}
		if err := s.process(ctx, feedURL, entry, score); err != nil {
			log.Error("processing entry failed", "title", entry.Title, "error", err)
		}
	}
	return nil
}

// process runs the detect→dedup→emit sequence of spec.md §4.7 steps 3-6
// for a single scored entry.
func (s *Scout) process(ctx context.Context, feedURL string, entry externalsvc.FeedEntry, score float64) error {
	content := entry.Title + ". " + entry.Summary
	embedding, err := s.embed.Embed(ctx, content)
	if err != nil {
		return fmt.Errorf("computing embedding: %w", err)
	}

	match, err := s.mem.FindDuplicate(ctx, embedding, s.cfg.DedupThreshold)
	if err != nil {
		return fmt.Errorf("querying memory: %w", err)
	}

	payload := map[string]any{
		"source":    feedURL,
		"title":     entry.Title,
		"url":       entry.Link,
		"summary":   truncate(entry.Summary, 500),
		"score":     score,
		"published": entry.Published,
	}

	if match != nil {
		payload["is_duplicate"] = true
		if _, err := s.events.Append(ctx, match.StoryID, eventlog.TypeStoryDetected, payload, nil); err != nil {
			return fmt.Errorf("appending story.detected: %w", err)
		}
		metrics.DedupHitsTotal.Inc()
		s.log.Info("duplicate detection", "story_id", match.StoryID, "similarity", match.Similarity)
		return nil
	}

	storyID := ids.NewStoryID()
	payload["is_duplicate"] = false
	if _, err := s.events.Append(ctx, storyID, eventlog.TypeStoryDetected, payload, nil); err != nil {
		return fmt.Errorf("appending story.detected: %w", err)
	}
	if _, err := s.mem.Add(ctx, storyID, content, embedding, memory.TypeStoryDetection, map[string]any{"source": feedURL}); err != nil {
		return fmt.Errorf("writing memory row: %w", err)
	}

	s.log.Info("new story detected", "story_id", storyID, "title", entry.Title, "score", score)
	return nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
