// {{RIPER-5-Enhanced:
//   Action: "Added"
//   Task_ID: "Page Fetcher Implementation"
//   Timestamp: "2025-12-08T10:15:00Z"
//   Authoring_Role: "LD"
//   Analysis_Performed: "Analyzed Python Selenium fetch layer from reddit_scraper_no_api.py"
//   Principle_Applied: "Aether-Engineering-SOLID-D (Dependency Inversion)"
//   Quality_Check: "Context-aware HTTP client, substitutable by fixture fetcher in tests"
// }}

package fetch

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const userAgent = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// Fetcher retrieves a parsed document for a URL. The production fetcher is a
// serially-reusable resource: the pipeline never calls it concurrently.
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*goquery.Document, error)
}

// HTTPFetcher fetches pages over plain HTTP
type HTTPFetcher struct {
	client *http.Client
}

// Ensure HTTPFetcher implements Fetcher interface
var _ Fetcher = (*HTTPFetcher)(nil)

// NewHTTPFetcher creates an HTTP fetcher with a request timeout
func NewHTTPFetcher() *HTTPFetcher {
	return &HTTPFetcher{
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Fetch retrieves and parses one page
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("构建请求失败: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("获取页面失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("页面返回状态码 %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("解析 HTML 失败: %w", err)
	}

	return doc, nil
}
