// {{RIPER-5-Enhanced:
//   Action: "Added"
//   Task_ID: "Reference Corpus Matching"
//   Timestamp: "2025-12-08T09:50:00Z"
//   Authoring_Role: "LD"
//   Analysis_Performed: "Analyzed Python docs matching from content_cleaner.py"
//   Principle_Applied: "Aether-Engineering-SOLID-D (Dependency Inversion)"
//   Quality_Check: "Read-only corpus snapshot, keyword overlap similarity"
// }}

package identify

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	log "github.com/sirupsen/logrus"
)

// Corpus matches free text against a read-only reference-document set.
// Implementations must be safe for concurrent reads; the pipeline shares one
// immutable snapshot per run.
type Corpus interface {
	// BestMatch returns the highest similarity score for text and whether any
	// document matched at all.
	BestMatch(text string) (float64, bool)
}

type refDoc struct {
	question string
	answer   string
	url      string
}

// DocsCorpus is a Corpus backed by a JSONL file of reference documents in the
// same chat-record format the emitter produces.
type DocsCorpus struct {
	docs []refDoc
}

// Ensure DocsCorpus implements Corpus interface
var _ Corpus = (*DocsCorpus)(nil)

// LoadDocsCorpus loads reference documents from a JSONL file. Structurally
// invalid lines are skipped with a warning.
func LoadDocsCorpus(path string) (*DocsCorpus, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("无法打开参考文档文件: %w", err)
	}
	defer f.Close()

	c := &DocsCorpus{}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var entry struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
			Metadata struct {
				SourceURL string `json:"source_url"`
			} `json:"metadata"`
		}
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			log.Warnf("参考文档第 %d 行解析失败: %v", lineNum, err)
			continue
		}
		if len(entry.Messages) < 2 {
			continue
		}

		c.docs = append(c.docs, refDoc{
			question: entry.Messages[0].Content,
			answer:   entry.Messages[1].Content,
			url:      entry.Metadata.SourceURL,
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("读取参考文档失败: %w", err)
	}

	log.Infof("参考文档加载成功: %d 条", len(c.docs))
	return c, nil
}

// Len returns the number of loaded documents
func (c *DocsCorpus) Len() int {
	return len(c.docs)
}

// BestMatch scores text against every document, taking the better of the
// question match and a discounted answer match per document.
func (c *DocsCorpus) BestMatch(text string) (float64, bool) {
	if len(c.docs) == 0 {
		return 0, false
	}

	best := 0.0
	for _, doc := range c.docs {
		score := Similarity(text, doc.question)
		if a := Similarity(text, doc.answer) * 0.7; a > score {
			score = a
		}
		if score > best {
			best = score
		}
	}

	return best, best > 0
}

var stopWords = map[string]bool{
	"the": true, "a": true, "an": true, "and": true, "or": true, "but": true,
	"in": true, "on": true, "at": true, "to": true, "for": true, "of": true,
	"with": true, "by": true, "is": true, "are": true, "was": true, "were": true,
}

// Similarity computes keyword overlap between two texts as Jaccard similarity
// over lowercased words with stop words removed. Result is in [0, 1].
func Similarity(a, b string) float64 {
	setA := wordSet(a)
	setB := wordSet(b)

	if len(setA) == 0 || len(setB) == 0 {
		return 0
	}

	intersection := 0
	for w := range setA {
		if setB[w] {
			intersection++
		}
	}
	union := len(setA) + len(setB) - intersection

	return float64(intersection) / float64(union)
}

func wordSet(text string) map[string]bool {
	set := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(text)) {
		if !stopWords[w] {
			set[w] = true
		}
	}
	return set
}
