// {{RIPER-5-Enhanced:
//   Action: "Added"
//   Task_ID: "RSS Feed Frontier Source"
//   Timestamp: "2025-12-08T10:24:00Z"
//   Authoring_Role: "LD"
//   Analysis_Performed: "Analyzed feed-driven discovery from scraper.py link frontier"
//   Principle_Applied: "Aether-Engineering-SOLID-S"
//   Quality_Check: "RSS feed parsing with gofeed library"
// }}

package frontier

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/mmcdole/gofeed"
	log "github.com/sirupsen/logrus"
)

// Only the freshest items per feed are considered each pass
const maxFeedItems = 6

// FeedSource yields thread permalinks from RSS/Atom feeds. Feed loads are
// fetch operations toward the platform and pay the same minimum delay as
// thread fetches.
type FeedSource struct {
	feedURLs []string
	delay    time.Duration
	parser   *gofeed.Parser
	client   *http.Client
}

// Ensure FeedSource implements Source interface
var _ Source = (*FeedSource)(nil)

// NewFeedSource creates a feed-backed frontier source
func NewFeedSource(feedURLs []string, delay time.Duration) *FeedSource {
	return &FeedSource{
		feedURLs: feedURLs,
		delay:    delay,
		parser:   gofeed.NewParser(),
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (s *FeedSource) Name() string { return "feeds" }

// URLs parses every configured feed and collects item links. A single feed
// failure is logged and skipped.
func (s *FeedSource) URLs(ctx context.Context) ([]string, error) {
	var urls []string

	for _, feedURL := range s.feedURLs {
		if ctx.Err() != nil {
			return urls, ctx.Err()
		}

		items, err := s.parseFeed(ctx, feedURL)
		if err != nil {
			log.Warnf("解析 RSS feed 失败 %s: %v", feedURL, err)
		} else {
			urls = append(urls, items...)
		}

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

func (s *FeedSource) parseFeed(ctx context.Context, feedURL string) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("构建请求失败: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("获取 RSS feed 失败: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("RSS feed 返回状态码 %d", resp.StatusCode)
	}

	feed, err := s.parser.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("解析 RSS feed 失败: %w", err)
	}

	var urls []string
	for i, item := range feed.Items {
		if i >= maxFeedItems {
			break
		}
		if item.Link == "" {
			continue
		}
		urls = append(urls, item.Link)
	}

	return urls, nil
}
