// {{RIPER-5-Enhanced:
//   Action: "Added"
//   Task_ID: "Keyword Search Frontier Source"
//   Timestamp: "2025-12-08T10:26:00Z"
//   Authoring_Role: "LD"
//   Analysis_Performed: "Analyzed Python search_subreddit from reddit_scraper_no_api.py"
//   Principle_Applied: "Aether-Engineering-SOLID-S"
//   Quality_Check: "Search result extraction with goquery"
// }}

package frontier

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	log "github.com/sirupsen/logrus"

	"github.com/imhuimie/qa-harvest-go/internal/fetch"
)

// SearchSource yields thread permalinks by running keyword searches against
// the platform's search page. Each search page load is a fetch operation
// toward the platform and pays the same minimum delay as thread fetches.
type SearchSource struct {
	baseURL    string
	keywords   []string
	perKeyword int
	delay      time.Duration
	fetcher    fetch.Fetcher
}

// Ensure SearchSource implements Source interface
var _ Source = (*SearchSource)(nil)

// NewSearchSource creates a keyword-search frontier source
func NewSearchSource(baseURL string, keywords []string, perKeyword int, delay time.Duration, fetcher fetch.Fetcher) *SearchSource {
	if perKeyword <= 0 {
		perKeyword = 30
	}
	return &SearchSource{
		baseURL:    baseURL,
		keywords:   keywords,
		perKeyword: perKeyword,
		delay:      delay,
		fetcher:    fetcher,
	}
}

func (s *SearchSource) Name() string { return "keyword_search" }

// URLs runs every keyword search and extracts result permalinks. A single
// keyword failure is logged and skipped.
func (s *SearchSource) URLs(ctx context.Context) ([]string, error) {
	var urls []string

	for _, keyword := range s.keywords {
		if ctx.Err() != nil {
			return urls, ctx.Err()
		}

		found, err := s.search(ctx, keyword)
		if err != nil {
			log.Warnf("关键词搜索失败 '%s': %v", keyword, err)
		} else {
			log.Infof("关键词 '%s' 找到 %d 个帖子", keyword, len(found))
			urls = append(urls, found...)
		}

		// Minimum delay after every search fetch, including the last one so
		// the next thread fetch does not abut it
		if s.delay > 0 {
			select {
			case <-ctx.Done():
				return urls, ctx.Err()
			case <-time.After(s.delay):
			}
		}
	}

	return urls, nil
}

func (s *SearchSource) search(ctx context.Context, keyword string) ([]string, error) {
	searchURL := fmt.Sprintf("%s?q=%s&restrict_sr=on&sort=relevance&t=year",
		s.baseURL, url.QueryEscape(keyword))

	doc, err := s.fetcher.Fetch(ctx, searchURL)
	if err != nil {
		return nil, err
	}

	base, err := url.Parse(s.baseURL)
	if err != nil {
		return nil, fmt.Errorf("解析 search_base_url 失败: %w", err)
	}

	var urls []string
	doc.Find("div.search-result a.search-comments").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if len(urls) >= s.perKeyword {
			return false
		}

		href, ok := sel.Attr("href")
		if !ok || href == "" {
			return true
		}
		if !strings.HasPrefix(href, "http") {
			href = base.Scheme + "://" + base.Host + href
		}

		urls = append(urls, href)
		return true
	})

	return urls, nil
}
