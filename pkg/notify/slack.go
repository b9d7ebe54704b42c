package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	goslack "github.com/slack-go/slack"
)

// SlackChannel publishes articles as a formatted message to a Slack
// channel, adapted from the teacher's pkg/slack client wrapper: same
// goslack.Client + PostMessageContext usage, pointed at story
// publication instead of alert session notifications.
type SlackChannel struct {
	api       *goslack.Client
	channelID string
	timeout   time.Duration
	log       *slog.Logger
}

// NewSlackChannel builds a SlackChannel posting to channelID using
// token.
func NewSlackChannel(token, channelID string) *SlackChannel {
	return &SlackChannel{
		api:       goslack.New(token),
		channelID: channelID,
		timeout:   10 * time.Second,
		log:       slog.With("component", "notify.slack"),
	}
}

// Name returns "slack".
func (s *SlackChannel) Name() string { return "slack" }

// Publish posts article's headline and summary to the configured
// channel.
func (s *SlackChannel) Publish(ctx context.Context, article Article) Result {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	text := fmt.Sprintf("*%s*\n%s", article.Headline, article.Summary)
	_, _, err := s.api.PostMessageContext(ctx, s.channelID, goslack.MsgOptionText(text, false))
	if err != nil {
		s.log.Error("slack publish failed", "article_id", article.ArticleID, "error", err)
		return Result{Success: false, Detail: err.Error()}
	}

	s.log.Info("article published to slack", "article_id", article.ArticleID)
	return Result{Success: true}
}
