// {{RIPER-5-Enhanced:
//   Action: "Added"
//   Task_ID: "Record Builder Implementation"
//   Timestamp: "2025-12-08T10:05:00Z"
//   Authoring_Role: "LD"
//   Analysis_Performed: "Analyzed Python extract_qa_pair and is_valid_qa_pair from reddit_scraper_no_api.py"
//   Principle_Applied: "Aether-Engineering-SOLID-S"
//   Quality_Check: "Normalization, quality gates and dedup before assembly"
// }}

package record

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/imhuimie/qa-harvest-go/internal/clean"
	"github.com/imhuimie/qa-harvest-go/internal/identify"
	"github.com/imhuimie/qa-harvest-go/internal/thread"
)

// ErrDuplicate marks a thread whose source_url has already produced a record
var ErrDuplicate = errors.New("重复的 source_url")

// Deduper reports whether a source URL already produced a record. The emitter
// owns the underlying index; the builder only consults it.
type Deduper interface {
	Seen(sourceURL string) bool
}

// Options tunes record quality gates
type Options struct {
	Platform       string
	MinQuestionLen int
	MinAnswerLen   int
}

// Builder assembles output records from a thread and its winning candidate
type Builder struct {
	norm   *clean.Normalizer
	topics *TopicMatcher
	dedup  Deduper
	opts   Options
	now    func() time.Time
}

// NewBuilder creates a record builder. dedup may be nil for tests.
func NewBuilder(norm *clean.Normalizer, topics *TopicMatcher, dedup Deduper, opts Options) *Builder {
	if opts.Platform == "" {
		opts.Platform = "reddit"
	}
	if opts.MinQuestionLen <= 0 {
		opts.MinQuestionLen = 20
	}
	if opts.MinAnswerLen <= 0 {
		opts.MinAnswerLen = 50
	}
	return &Builder{
		norm:   norm,
		topics: topics,
		dedup:  dedup,
		opts:   opts,
		now:    time.Now,
	}
}

// WithClock overrides wall-clock lookup, used by tests
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	return b
}

var questionIndicators = []string{
	"?", "how", "what", "why", "when", "where", "can", "does", "is", "help", "issue", "problem",
}

// Build combines the thread's root post with the candidate answer into a
// record. Returns ErrDuplicate for an already-seen source URL and a
// clean.ErrRejected-wrapped error when either side fails quality gates.
func (b *Builder) Build(t *thread.Thread, c *identify.Candidate) (*Record, error) {
	if b.dedup != nil && b.dedup.Seen(t.SourceURL) {
		return nil, ErrDuplicate
	}

	questionRaw := t.Title
	if t.Body != "" {
		questionRaw = t.Title + "\n\n" + t.Body
	}
	question, err := b.norm.Question(questionRaw)
	if err != nil {
		return nil, fmt.Errorf("问题规范化失败: %w", err)
	}

	answer := clean.FormatAsAnswer(c.Text)

	if err := b.validate(question, answer); err != nil {
		return nil, err
	}

	confidence := math.Round(c.Confidence*100) / 100

	return &Record{
		Messages: []Message{
			{Role: "user", Content: question},
			{Role: "assistant", Content: answer},
		},
		Metadata: Metadata{
			SourceURL:      t.SourceURL,
			Platform:       b.opts.Platform,
			ResolutionType: string(c.Strategy),
			Confidence:     confidence,
			OriginalScore:  t.Score,
			NumComments:    len(t.Replies),
			Topic:          b.topics.Lookup(question),
			DateExtracted:  b.now().Format("2006-01-02"),
		},
	}, nil
}

// validate applies the quality gates from the original dataset pipeline
func (b *Builder) validate(question, answer string) error {
	if len(question) < b.opts.MinQuestionLen {
		return fmt.Errorf("问题过短 (<%d 字符): %w", b.opts.MinQuestionLen, clean.ErrRejected)
	}
	if len(answer) < b.opts.MinAnswerLen {
		return fmt.Errorf("回答过短 (<%d 字符): %w", b.opts.MinAnswerLen, clean.ErrRejected)
	}

	lower := strings.ToLower(question)
	hasIndicator := false
	for _, ind := range questionIndicators {
		if strings.Contains(lower, ind) {
			hasIndicator = true
			break
		}
	}
	if !hasIndicator {
		return fmt.Errorf("文本不构成问题: %w", clean.ErrRejected)
	}

	answerLower := strings.ToLower(answer)
	if strings.Contains(answerLower, "i don't know") || strings.Count(answerLower, "not sure") > 1 {
		return fmt.Errorf("回答不确定: %w", clean.ErrRejected)
	}

	return nil
}
