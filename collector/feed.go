package collector

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"net/url"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mmcdole/gofeed"
	"github.com/pevans/hnsort/article"
	"github.com/sirupsen/logrus"
)

// ageMagnitudes renders durations in the same vocabulary the HTML listing
// uses, so feed ages go through the same parser.
var ageMagnitudes = []humanize.RelTimeMagnitude{
	{D: time.Minute, Format: "0 minutes %s", DivBy: time.Minute},
	{D: 2 * time.Minute, Format: "1 minute %s", DivBy: time.Minute},
	{D: time.Hour, Format: "%d minutes %s", DivBy: time.Minute},
	{D: 2 * time.Hour, Format: "1 hour %s", DivBy: time.Hour},
	{D: humanize.Day, Format: "%d hours %s", DivBy: time.Hour},
	{D: 2 * humanize.Day, Format: "1 day %s", DivBy: humanize.Day},
	{D: math.MaxInt64, Format: "%d days %s", DivBy: humanize.Day},
}

// RelativeAge renders the time between published and now as e.g.
// "3 hours ago". Timestamps in the future count as "0 minutes ago".
func RelativeAge(published, now time.Time) string {
	if published.After(now) {
		published = now
	}
	return humanize.CustomRelTime(published, now, "ago", "from now", ageMagnitudes)
}

// FeedCollector reads a batch from an RSS or Atom rendering of the listing.
// Feeds are a single document, so there is no pagination.
type FeedCollector struct {
	session  *Session
	url      string
	parser   *gofeed.Parser
	now      func() time.Time
	logger   logrus.FieldLogger
	observer PageObserver
}

// NewFeedCollector creates a collector for feedURL. The gofeed parser
// handles both RSS and Atom.
func NewFeedCollector(session *Session, feedURL string, opts Options) *FeedCollector {
	return &FeedCollector{
		session:  session,
		url:      feedURL,
		parser:   gofeed.NewParser(),
		now:      time.Now,
		logger:   opts.logger(),
		observer: opts.Observer,
	}
}

// WithClock replaces the clock used to compute ages.
func (c *FeedCollector) WithClock(now func() time.Time) *FeedCollector {
	c.now = now
	return c
}

// Collect returns the first target feed entries as items, or a
// *CollectionError when the feed has fewer entries.
func (c *FeedCollector) Collect(ctx context.Context, target int) ([]article.Item, error) {
	if target <= 0 {
		return nil, fmt.Errorf("target must be positive, got %d", target)
	}

	fail := func(collected int, err error) error {
		return &CollectionError{Collected: collected, Want: target, Page: 1, URL: c.url, Err: err}
	}

	body, err := c.session.Fetch(ctx, c.url)
	if err != nil {
		return nil, fail(0, err)
	}

	feed, err := c.parser.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fail(0, fmt.Errorf("failed to parse feed: %w", err))
	}

	if c.observer != nil {
		c.observer.ObservePage(c.url, len(feed.Items))
	}

	if len(feed.Items) < target {
		return nil, fail(len(feed.Items), fmt.Errorf("%w: feed has %d entries", ErrShortBatch, len(feed.Items)))
	}

	now := c.now()
	items := make([]article.Item, 0, target)
	for i, entry := range feed.Items[:target] {
		item := FeedItemToItem(entry, i, now)
		if err := item.Validate(); err != nil {
			return nil, fail(len(items), fmt.Errorf("%w: %w", ErrMissingField, err))
		}
		items = append(items, item)
	}

	c.logger.WithFields(logrus.Fields{
		"feed":      feed.Title,
		"collected": len(items),
	}).Info("Collected feed items")

	return items, nil
}

// FeedItemToItem converts a feed entry at position index into an Item. The
// age is empty when the entry carries no date.
func FeedItemToItem(entry *gofeed.Item, index int, now time.Time) article.Item {
	item := article.Item{
		Index: index,
		ID:    feedItemID(entry),
		Title: normalizeSpace(entry.Title),
		URL:   entry.Link,
		Site:  SiteFromURL(entry.Link),
	}

	var published *time.Time
	if entry.PublishedParsed != nil {
		published = entry.PublishedParsed
	} else if entry.UpdatedParsed != nil {
		published = entry.UpdatedParsed
	}
	if published != nil {
		item.Age = RelativeAge(*published, now)
	}

	return item
}

// feedItemID prefers the numeric "id" query parameter of the discussion URL
// (e.g. item?id=123), then the raw GUID, then the link.
func feedItemID(entry *gofeed.Item) string {
	for _, candidate := range []string{entry.GUID, entry.Link} {
		if u, err := url.Parse(candidate); err == nil {
			if id := u.Query().Get("id"); id != "" {
				return id
			}
		}
	}
	if entry.GUID != "" {
		return entry.GUID
	}
	return entry.Link
}
