package collector

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/pevans/hnsort/article"
	"github.com/pevans/hnsort/scraper"
	"github.com/sirupsen/logrus"
)

// PageObserver is told about every listing page that was loaded.
type PageObserver interface {
	ObservePage(url string, items int)
}

// Options holds optional collaborators for a collector.
type Options struct {
	Logger   logrus.FieldLogger
	Observer PageObserver
}

func (o Options) logger() logrus.FieldLogger {
	if o.Logger != nil {
		return o.Logger
	}
	discard := logrus.New()
	discard.SetOutput(io.Discard)
	return discard
}

// ListingCollector walks a paginated HTML listing, following the "More" link
// until it holds the requested number of items.
type ListingCollector struct {
	session  *Session
	config   scraper.ListConfig
	logger   logrus.FieldLogger
	observer PageObserver
}

// NewListingCollector creates a collector that loads pages through session.
// Empty selectors in config are replaced with the defaults.
func NewListingCollector(session *Session, config scraper.ListConfig, opts Options) *ListingCollector {
	return &ListingCollector{
		session:  session,
		config:   config.WithDefaults(),
		logger:   opts.logger(),
		observer: opts.Observer,
	}
}

// Collect returns exactly target items in listing order, or a
// *CollectionError.
func (c *ListingCollector) Collect(ctx context.Context, target int) ([]article.Item, error) {
	if target <= 0 {
		return nil, fmt.Errorf("target must be positive, got %d", target)
	}

	items := make([]article.Item, 0, target)
	pageURL := c.config.URL

	for page := 1; len(items) < target; page++ {
		fail := func(err error) error {
			return &CollectionError{
				Collected: len(items),
				Want:      target,
				Page:      page,
				URL:       pageURL,
				Err:       err,
			}
		}

		if c.config.MaxPages > 0 && page > c.config.MaxPages {
			return nil, fail(fmt.Errorf("%w (%d pages)", ErrPageLimit, c.config.MaxPages))
		}

		doc, err := c.session.FetchHTML(ctx, pageURL)
		if err != nil {
			return nil, fail(err)
		}

		rows := doc.Find(c.config.ItemSelector)
		if rows.Length() == 0 {
			return nil, fail(fmt.Errorf("%w with selector %q", ErrNoItems, c.config.ItemSelector))
		}

		c.logger.WithFields(logrus.Fields{
			"page": page,
			"url":  pageURL,
			"rows": rows.Length(),
		}).Debug("Loaded listing page")

		if c.observer != nil {
			c.observer.ObservePage(pageURL, rows.Length())
		}

		var extractErr error
		rows.EachWithBreak(func(_ int, row *goquery.Selection) bool {
			item, err := c.extractItem(row, len(items), doc)
			if err != nil {
				extractErr = err
				return false
			}
			items = append(items, item)
			return len(items) < target
		})
		if extractErr != nil {
			return nil, fail(extractErr)
		}

		if len(items) >= target {
			break
		}

		next, ok := c.nextPage(doc)
		if !ok {
			return nil, fail(ErrNoMoreLink)
		}
		pageURL = next
	}

	c.logger.WithField("collected", len(items)).Info("Collected listing items")

	return items, nil
}

// extractItem reads one item row and the metadata row that follows it.
func (c *ListingCollector) extractItem(row *goquery.Selection, index int, doc *goquery.Document) (article.Item, error) {
	id, _ := row.Attr("id")

	titleLink := row.Find(c.config.TitleSelector).First()

	meta := row.Next()
	age := normalizeSpace(meta.Find(c.config.AgeSelector).First().Text())
	if age == "" && c.config.AgeFallback != "" {
		age = normalizeSpace(meta.Find(c.config.AgeFallback).First().Text())
	}

	item := article.Item{
		Index: index,
		ID:    strings.TrimSpace(id),
		Title: normalizeSpace(titleLink.Text()),
		Age:   age,
	}
	if err := item.Validate(); err != nil {
		return item, fmt.Errorf("%w: %w", ErrMissingField, err)
	}

	if href, ok := titleLink.Attr("href"); ok && strings.TrimSpace(href) != "" {
		item.URL = resolveURL(doc.Url, href)
		item.Site = SiteFromURL(item.URL)
	}

	return item, nil
}

// nextPage returns the absolute URL of the pagination link, if present.
func (c *ListingCollector) nextPage(doc *goquery.Document) (string, bool) {
	href, ok := doc.Find(c.config.PaginationSelector).First().Attr("href")
	if !ok || strings.TrimSpace(href) == "" {
		return "", false
	}
	return resolveURL(doc.Url, href), true
}

// normalizeSpace collapses runs of whitespace into single spaces.
func normalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
