// {{RIPER-5-Enhanced:
//   Action: "Added"
//   Task_ID: "Keyword Search Source Tests"
//   Timestamp: "2025-12-09T09:10:00Z"
//   Authoring_Role: "TE"
//   Analysis_Performed: "Covered result extraction, per-keyword cap and fetch pacing"
//   Principle_Applied: "Aether-Engineering-Testability"
//   Quality_Check: "Fixture fetcher, no network access"
// }}

package frontier

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const searchHTML = `
<html><body>
<div class="search-result"><a class="search-comments" href="/r/shopify/comments/a1/first/">12 comments</a></div>
<div class="search-result"><a class="search-comments" href="https://old.reddit.com/r/shopify/comments/a2/second/">3 comments</a></div>
<div class="search-result"><a class="search-comments" href="/r/shopify/comments/a3/third/">1 comment</a></div>
</body></html>
`

type searchFetcher struct {
	calls []string
	html  string
}

func (f *searchFetcher) Fetch(ctx context.Context, url string) (*goquery.Document, error) {
	f.calls = append(f.calls, url)
	return goquery.NewDocumentFromReader(strings.NewReader(f.html))
}

func TestSearchSourceExtractsResultLinks(t *testing.T) {
	fetcher := &searchFetcher{html: searchHTML}
	s := NewSearchSource("https://old.reddit.com/r/shopify/search", []string{"checkout"}, 0, 0, fetcher)

	urls, err := s.URLs(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"https://old.reddit.com/r/shopify/comments/a1/first/",
		"https://old.reddit.com/r/shopify/comments/a2/second/",
		"https://old.reddit.com/r/shopify/comments/a3/third/",
	}, urls)
	require.Len(t, fetcher.calls, 1)
	assert.Contains(t, fetcher.calls[0], "q=checkout")
}

func TestSearchSourceCapsResultsPerKeyword(t *testing.T) {
	fetcher := &searchFetcher{html: searchHTML}
	s := NewSearchSource("https://old.reddit.com/r/shopify/search", []string{"checkout"}, 2, 0, fetcher)

	urls, err := s.URLs(context.Background())
	require.NoError(t, err)
	assert.Len(t, urls, 2)
}

func TestSearchSourceDelaysBetweenKeywordFetches(t *testing.T) {
	fetcher := &searchFetcher{html: searchHTML}
	delay := 30 * time.Millisecond
	s := NewSearchSource("https://old.reddit.com/r/shopify/search", []string{"k1", "k2", "k3"}, 0, delay, fetcher)

	start := time.Now()
	_, err := s.URLs(context.Background())
	require.NoError(t, err)

	// One delay after every search fetch, the last included
	assert.GreaterOrEqual(t, time.Since(start), 3*delay)
	assert.Len(t, fetcher.calls, 3)
}

func TestSearchSourceStopsDelayOnCancel(t *testing.T) {
	fetcher := &searchFetcher{html: searchHTML}
	s := NewSearchSource("https://old.reddit.com/r/shopify/search", []string{"k1", "k2"}, 0, time.Hour, fetcher)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := s.URLs(ctx)
		assert.Error(t, err)
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("搜索来源未在取消后及时返回")
	}
}
