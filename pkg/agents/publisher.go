package agents

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/newsroom-systems/chief/pkg/article"
	"github.com/newsroom-systems/chief/pkg/notify"
	"github.com/newsroom-systems/chief/pkg/taskqueue"
	"github.com/newsroom-systems/chief/pkg/worker"
)

// Publisher handles the publish stage: loads the approved article and
// fans it out to the requested channels, mirroring
// PublisherAgent.publish's per-channel dispatch and result tally.
type Publisher struct {
	articles   *article.Store
	dispatcher *notify.Dispatcher
	log        *slog.Logger
}

// NewPublisher builds a Publisher over articles and a channel
// dispatcher.
func NewPublisher(articles *article.Store, dispatcher *notify.Dispatcher) *Publisher {
	return &Publisher{articles: articles, dispatcher: dispatcher, log: slog.With("component", "agents.publisher")}
}

// Handle publishes the task's article to its requested channels, per
// spec.md §4.5's per-role Handler contract.
func (p *Publisher) Handle(ctx context.Context, task *taskqueue.Task) (worker.Output, error) {
	if task.Stage != taskqueue.StagePublish {
		return nil, fmt.Errorf("publisher cannot handle stage %q", task.Stage)
	}

	articleID, _ := task.Input["article_id"].(string)
	if articleID == "" {
		return nil, fmt.Errorf("publisher: publish task missing article_id")
	}

	channels := stringSlice(task.Input["channels"])
	if len(channels) == 0 {
		channels = []string{"rss"}
	}

	art, err := p.articles.Get(ctx, articleID)
	if err != nil {
		return nil, fmt.Errorf("loading article: %w", err)
	}
	if art == nil {
		return nil, fmt.Errorf("article %s not found", articleID)
	}

	p.log.Info("publishing article", "article_id", articleID, "channels", channels)

	byline, summary := "", ""
	if art.Byline != nil {
		byline = *art.Byline
	}
	if art.Summary != nil {
		summary = *art.Summary
	}

	results := p.dispatcher.Publish(ctx, notify.Article{
		ArticleID: art.ArticleID,
		Headline:  art.Headline,
		Body:      art.Body,
		Byline:    byline,
		Summary:   summary,
	}, channels)

	out := worker.PublishOutput{
		ArticleID: articleID,
		Channels:  channels,
		Results:   make(map[string]worker.ChannelResult, len(results)),
	}
	for name, r := range results {
		out.Results[name] = worker.ChannelResult{Success: r.Success, Detail: r.Detail}
		if r.Success {
			out.SuccessCount++
		}
	}

	p.log.Info("publishing complete", "article_id", articleID, "success_count", out.SuccessCount, "total_channels", len(channels))
	return toOutput(out), nil
}

func stringSlice(v any) []string {
	raw, ok := v.([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
