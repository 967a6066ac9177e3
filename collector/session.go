// Package collector gathers a fixed-size batch of items from a paginated
// listing or a feed.
package collector

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

const (
	defaultTimeout   = 10 * time.Second
	defaultUserAgent = "hnsort/1.0 (+https://github.com/pevans/hnsort)"
	maxBodySize      = 10 * 1024 * 1024 // 10MB
)

// ErrBodyTooLarge is returned by Fetch for responses over the size limit.
var ErrBodyTooLarge = errors.New("response body too large")

// SessionConfig configures a Session.
type SessionConfig struct {
	Timeout   time.Duration
	UserAgent string
}

// Session is the single HTTP session a run uses to load pages. The caller
// owns it and must Close it when the run is over.
type Session struct {
	client    *http.Client
	userAgent string
}

// NewSession creates a session with its own cookie jar.
func NewSession(config SessionConfig) (*Session, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create cookie jar: %w", err)
	}

	timeout := config.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	userAgent := config.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}

	return &Session{
		client: &http.Client{
			Timeout: timeout,
			Jar:     jar,
		},
		userAgent: userAgent,
	}, nil
}

// Close releases idle connections held by the session.
func (s *Session) Close() {
	s.client.CloseIdleConnections()
}

// Fetch performs a GET request and returns the response body.
func (s *Session) Fetch(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %s", resp.Status)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if len(body) > maxBodySize {
		return nil, fmt.Errorf("%w: more than %d bytes from %s", ErrBodyTooLarge, maxBodySize, rawURL)
	}

	return body, nil
}

// FetchHTML loads rawURL and parses it as HTML. The returned document's Url
// is set so relative links can be resolved.
func (s *Session) FetchHTML(ctx context.Context, rawURL string) (*goquery.Document, error) {
	body, err := s.Fetch(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	root, err := html.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc := goquery.NewDocumentFromNode(root)
	if parsed, err := url.Parse(rawURL); err == nil {
		doc.Url = parsed
	}

	return doc, nil
}
