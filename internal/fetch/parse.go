// {{RIPER-5-Enhanced:
//   Action: "Added"
//   Task_ID: "Thread Document Parsing"
//   Timestamp: "2025-12-08T10:18:00Z"
//   Authoring_Role: "LD"
//   Analysis_Performed: "Analyzed Python extract_post_data from reddit_scraper_no_api.py"
//   Principle_Applied: "Aether-Engineering-SOLID-S"
//   Quality_Check: "Mandatory field checks raise ParseError, dangling replies pruned with warning"
// }}

package fetch

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	log "github.com/sirupsen/logrus"

	"github.com/imhuimie/qa-harvest-go/internal/thread"
)

// ParseError marks a source document missing mandatory thread fields. The
// orchestrator logs it and skips the thread; the run continues.
type ParseError struct {
	URL    string
	Reason string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("解析线程失败 %s: %s", e.URL, e.Reason)
}

// Edit markers the original poster inserts after resolving an issue
var editMarkers = []string{"Edit:", "Update:"}

const maxReplies = 50

const timeLayout = "2006-01-02T15:04:05-07:00"

var reThreadID = regexp.MustCompile(`/comments/([^/]+)`)
var reDigits = regexp.MustCompile(`-?\d+`)

// Parser turns fetched forum documents into thread models
type Parser struct {
	staffKeywords []string
}

// NewParser creates a parser. staffKeywords flag author names as platform
// staff when no explicit role badge is present.
func NewParser(staffKeywords []string) *Parser {
	lowered := make([]string, len(staffKeywords))
	for i, k := range staffKeywords {
		lowered[i] = strings.ToLower(k)
	}
	return &Parser{staffKeywords: lowered}
}

// BuildThread parses the root post and flat reply list from a document.
// Replies whose parent link references a missing reply are pruned with a
// warning; the thread stays usable.
func (p *Parser) BuildThread(doc *goquery.Document, sourceURL string) (*thread.Thread, error) {
	id := extractThreadID(sourceURL)
	if id == "" {
		return nil, &ParseError{URL: sourceURL, Reason: "无法从 URL 派生线程 id"}
	}

	title := strings.TrimSpace(doc.Find("a.title").First().Text())
	if title == "" {
		return nil, &ParseError{URL: sourceURL, Reason: "未找到标题"}
	}

	bodySel := doc.Find("div.usertext-body").First()
	if bodySel.Length() == 0 {
		return nil, &ParseError{URL: sourceURL, Reason: "未找到正文"}
	}
	body := strings.TrimSpace(bodySel.Text())

	author := strings.TrimSpace(doc.Find("p.tagline a.author").First().Text())
	score := parseScore(doc.Find("div.score").First().Text())
	flair := strings.TrimSpace(doc.Find("span.linkflairlabel").First().Text())
	created := parseTime(doc.Find("time").First())

	t := &thread.Thread{
		ID:        id,
		Title:     title,
		Body:      body,
		SourceURL: sourceURL,
		Author:    author,
		Score:     score,
		Flair:     flair,
		CreatedAt: created,
	}

	p.parseReplies(doc, t)

	if dropped := t.PruneDangling(); len(dropped) > 0 {
		log.Warnf("线程 %s 剪除 %d 条悬空回复: %v", id, len(dropped), dropped)
	}

	t.EditMarkers = collectEditMarkers(t)

	return t, nil
}

// parseReplies extracts the flat reply list with parent linkage from the
// nested comment markup. Document order puts every parent before its
// children, so parent ids only point backward.
func (p *Parser) parseReplies(doc *goquery.Document, t *thread.Thread) {
	doc.Find("div.comment").EachWithBreak(func(i int, sel *goquery.Selection) bool {
		if len(t.Replies) >= maxReplies {
			return false
		}

		fullname, ok := sel.Attr("data-fullname")
		if !ok || fullname == "" {
			return true
		}
		id := strings.TrimPrefix(fullname, "t1_")

		body := strings.TrimSpace(sel.Find("div.md").First().Text())
		if body == "" {
			return true
		}

		parentID := ""
		if parent := sel.Parent().Closest("div.comment"); parent.Length() > 0 {
			if pf, ok := parent.Attr("data-fullname"); ok {
				parentID = strings.TrimPrefix(pf, "t1_")
			}
		}

		authorSel := sel.Find("a.author").First()
		author := strings.TrimSpace(authorSel.Text())

		t.Replies = append(t.Replies, thread.Reply{
			ID:        id,
			ParentID:  parentID,
			Author:    author,
			Role:      p.resolveRole(author, authorSel, t.Author),
			Score:     parseScore(sel.Find("span.score").First().Text()),
			Body:      body,
			CreatedAt: parseTime(sel.Find("time").First()),
		})
		return true
	})
}

// resolveRole classifies a reply author from platform signals: role badge
// classes, username match against the root author, staff keyword list.
func (p *Parser) resolveRole(author string, authorSel *goquery.Selection, rootAuthor string) thread.AuthorRole {
	if author == "" {
		return thread.RoleUnknown
	}
	if authorSel.HasClass("moderator") || authorSel.HasClass("admin") {
		return thread.RoleStaff
	}
	lower := strings.ToLower(author)
	for _, kw := range p.staffKeywords {
		if strings.Contains(lower, kw) {
			return thread.RoleStaff
		}
	}
	if rootAuthor != "" && author == rootAuthor {
		return thread.RoleOP
	}
	return thread.RoleRegular
}

// collectEditMarkers scans the root body and OP replies for post-hoc
// resolution annotations, in appearance order.
func collectEditMarkers(t *thread.Thread) []string {
	var found []string
	appendMarkers := func(body string) {
		lower := strings.ToLower(body)
		for _, m := range editMarkers {
			if strings.Contains(lower, strings.ToLower(m)) {
				found = append(found, m)
			}
		}
	}

	appendMarkers(t.Body)
	for i := range t.Replies {
		if t.Replies[i].Role == thread.RoleOP {
			appendMarkers(t.Replies[i].Body)
		}
	}
	return found
}

func extractThreadID(sourceURL string) string {
	if m := reThreadID.FindStringSubmatch(sourceURL); len(m) == 2 {
		return m[1]
	}
	return ""
}

// parseScore reads the first integer out of a vote label like "12 points".
// Absent or unparseable scores count as 0.
func parseScore(text string) int {
	m := reDigits.FindString(text)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}

func parseTime(sel *goquery.Selection) time.Time {
	if ts, ok := sel.Attr("datetime"); ok {
		if parsed, err := time.Parse(timeLayout, ts); err == nil {
			return parsed
		}
		if parsed, err := time.Parse(time.RFC3339, ts); err == nil {
			return parsed
		}
	}
	return time.Now().UTC()
}
