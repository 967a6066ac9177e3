package collector

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pevans/hnsort/scraper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// bodyServer serves size bytes of filler on every request
func bodyServer(t *testing.T, size int) *httptest.Server {
	t.Helper()
	body := bytes.Repeat([]byte("a"), size)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write(body)
	}))
	t.Cleanup(server.Close)
	return server
}

// TestSessionFetch_AtLimit verifies a body of exactly the limit is returned
// whole
func TestSessionFetch_AtLimit(t *testing.T) {
	server := bodyServer(t, maxBodySize)

	body, err := newTestSession(t).Fetch(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Len(t, body, maxBodySize)
}

// TestSessionFetch_TooLarge verifies an oversized body is an error rather
// than a truncated page
func TestSessionFetch_TooLarge(t *testing.T) {
	server := bodyServer(t, maxBodySize+1)

	body, err := newTestSession(t).Fetch(context.Background(), server.URL)
	require.ErrorIs(t, err, ErrBodyTooLarge)
	assert.Nil(t, body)
	assert.Contains(t, err.Error(), server.URL)
}

// TestListingCollector_PageTooLarge verifies the size error surfaces as the
// collection failure reason
func TestListingCollector_PageTooLarge(t *testing.T) {
	server := bodyServer(t, maxBodySize+1)

	c := NewListingCollector(newTestSession(t), *scraper.NewListConfig(server.URL), Options{})
	items, err := c.Collect(context.Background(), 3)

	assert.Nil(t, items)
	assert.ErrorIs(t, err, ErrCollection)
	assert.ErrorIs(t, err, ErrBodyTooLarge)
}
