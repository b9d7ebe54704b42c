package externalsvc

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"time"
)

// rssReadItem mirrors one <item> of an RSS 2.0 feed, the read-side
// counterpart of notify.RSSChannel's write-side rssItem. No feed
// parsing library appears anywhere in the retrieval pack, so this
// decodes with the standard library rather than fabricating a
// dependency on one, the same call the RSS publish channel makes.
type rssReadItem struct {
	Title   string `xml:"title"`
	Link    string `xml:"link"`
	PubDate string `xml:"pubDate"`
	Desc    string `xml:"description"`
}

type rssReadFeed struct {
	Channel struct {
		Items []rssReadItem `xml:"item"`
	} `xml:"channel"`
}

// RSSFeedReader implements FeedReader by fetching and parsing an RSS
// 2.0 document over HTTP, the ingestion-side equivalent of the
// original system's feed-polling loop.
type RSSFeedReader struct {
	client *http.Client
}

// NewRSSFeedReader builds an RSSFeedReader with a bounded request
// timeout.
func NewRSSFeedReader(timeout time.Duration) *RSSFeedReader {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &RSSFeedReader{client: &http.Client{Timeout: timeout}}
}

// Fetch retrieves feedURL and parses its items into FeedEntry values.
func (r *RSSFeedReader) Fetch(ctx context.Context, feedURL string) ([]FeedEntry, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("building feed request: %w", err)
	}

	resp, err := r.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed %s returned status %d", feedURL, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading feed body: %w", err)
	}

	var feed rssReadFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("parsing feed xml: %w", err)
	}

	entries := make([]FeedEntry, 0, len(feed.Channel.Items))
	for _, item := range feed.Channel.Items {
		entries = append(entries, FeedEntry{
			Title:     item.Title,
			Summary:   item.Desc,
			Link:      item.Link,
			Published: parseRSSDate(item.PubDate),
		})
	}
	return entries, nil
}

// parseRSSDate parses RFC1123Z, RSS 2.0's conventional pubDate format,
// returning the zero time if it doesn't parse rather than failing the
// whole fetch over one malformed date.
func parseRSSDate(s string) time.Time {
	t, err := time.Parse(time.RFC1123Z, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
