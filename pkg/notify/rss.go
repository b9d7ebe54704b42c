package notify

import (
	"context"
	"encoding/xml"
	"log/slog"
	"sync"
	"time"
)

// rssItem mirrors one <item> of an RSS 2.0 feed.
type rssItem struct {
	Title   string `xml:"title"`
	Link    string `xml:"link"`
	GUID    string `xml:"guid"`
	PubDate string `xml:"pubDate"`
	Desc    string `xml:"description"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Items       []rssItem `xml:"item"`
}

type rssFeed struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	Channel rssChannel `xml:"channel"`
}

// RSSChannel accumulates published articles into an in-memory RSS 2.0
// feed, regenerated on demand — the same "publish just records the
// item, feed XML is generated on read" split the original system's
// publishing/rss.py uses. No feed-generation library appears anywhere
// in the retrieval pack, so this renders XML directly with the
// standard library rather than fabricating a dependency on one.
type RSSChannel struct {
	title       string
	link        string
	description string
	maxItems    int

	mu    sync.Mutex
	items []rssItem
	log   *slog.Logger
}

// NewRSSChannel builds an RSSChannel retaining at most maxItems most
// recent articles.
func NewRSSChannel(title, link, description string, maxItems int) *RSSChannel {
	if maxItems <= 0 {
		maxItems = 50
	}
	return &RSSChannel{
		title:       title,
		link:        link,
		description: description,
		maxItems:    maxItems,
		log:         slog.With("component", "notify.rss"),
	}
}

// Name returns "rss".
func (r *RSSChannel) Name() string { return "rss" }

// Publish records article as a new feed item.
func (r *RSSChannel) Publish(ctx context.Context, article Article) Result {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items = append([]rssItem{{
		Title:   article.Headline,
		Link:    r.link + "/articles/" + article.ArticleID,
		GUID:    article.ArticleID,
		PubDate: time.Now().UTC().Format(time.RFC1123Z),
		Desc:    article.Summary,
	}}, r.items...)
	if len(r.items) > r.maxItems {
		r.items = r.items[:r.maxItems]
	}

	r.log.Info("article added to rss feed", "article_id", article.ArticleID)
	return Result{Success: true}
}

// Generate renders the current feed as RSS 2.0 XML.
func (r *RSSChannel) Generate() ([]byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	feed := rssFeed{
		Version: "2.0",
		Channel: rssChannel{
			Title:       r.title,
			Link:        r.link,
			Description: r.description,
			Items:       r.items,
		},
	}
	return xml.MarshalIndent(feed, "", "  ")
}
