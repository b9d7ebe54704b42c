//go:build integration

package agents

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/newsroom-systems/chief/internal/testdb"
	"github.com/newsroom-systems/chief/pkg/article"
	"github.com/newsroom-systems/chief/pkg/ids"
	"github.com/newsroom-systems/chief/pkg/notify"
	"github.com/newsroom-systems/chief/pkg/taskqueue"
)

func TestPublisherPublishesToRegisteredChannel(t *testing.T) {
	st := testdb.New(t)
	articles := article.New(st)
	ctx := context.Background()

	storyID := ids.NewStoryID()
	articleID, err := articles.Create(ctx, storyID, "Council Votes Yes", "Body text.", nil, nil, nil, nil, nil, nil)
	require.NoError(t, err)

	rss := notify.NewRSSChannel("Town News", "http://town.example", "local news", 10)
	dispatcher := notify.NewDispatcher(rss)
	p := NewPublisher(articles, dispatcher)

	task := &taskqueue.Task{
		StoryID: storyID,
		Stage:   taskqueue.StagePublish,
		Input:   map[string]any{"article_id": articleID, "channels": []any{"rss"}},
	}

	out, err := p.Handle(ctx, task)
	require.NoError(t, err)
	assert.Equal(t, float64(1), out["success_count"])

	feed, err := rss.Generate()
	require.NoError(t, err)
	assert.Contains(t, string(feed), "Council Votes Yes")
}

func TestPublisherReportsUnregisteredChannel(t *testing.T) {
	st := testdb.New(t)
	articles := article.New(st)
	ctx := context.Background()

	storyID := ids.NewStoryID()
	articleID, err := articles.Create(ctx, storyID, "Headline", "Body.", nil, nil, nil, nil, nil, nil)
	require.NoError(t, err)

	dispatcher := notify.NewDispatcher(notify.NewRSSChannel("T", "http://t", "d", 10))
	p := NewPublisher(articles, dispatcher)

	task := &taskqueue.Task{
		StoryID: storyID,
		Stage:   taskqueue.StagePublish,
		Input:   map[string]any{"article_id": articleID, "channels": []any{"email"}},
	}

	out, err := p.Handle(ctx, task)
	require.NoError(t, err)
	assert.Equal(t, float64(0), out["success_count"])
}

func TestPublisherErrorsOnMissingArticle(t *testing.T) {
	st := testdb.New(t)
	articles := article.New(st)
	p := NewPublisher(articles, notify.NewDispatcher())

	task := &taskqueue.Task{
		Stage: taskqueue.StagePublish,
		Input: map[string]any{"article_id": ids.NewArticleID()},
	}

	_, err := p.Handle(context.Background(), task)
	assert.Error(t, err)
}
