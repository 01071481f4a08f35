// {{RIPER-5-Enhanced:
//   Action: "Added"
//   Task_ID: "Record Builder Tests"
//   Timestamp: "2025-12-08T12:25:00Z"
//   Authoring_Role: "TE"
//   Analysis_Performed: "Covered quality gates, metadata assembly and dedup consult"
//   Principle_Applied: "Aether-Engineering-Testability"
//   Quality_Check: "Injected clock, no wall-clock dependence"
// }}

package record

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imhuimie/qa-harvest-go/internal/clean"
	"github.com/imhuimie/qa-harvest-go/internal/identify"
	"github.com/imhuimie/qa-harvest-go/internal/thread"
)

type fakeDeduper map[string]bool

func (f fakeDeduper) Seen(url string) bool { return f[url] }

func testBuilder(dedup Deduper) *Builder {
	norm := clean.NewNormalizer(3)
	topics := NewTopicMatcher(map[string]string{
		"payments": "payment,checkout",
		"shipping": "shipping,delivery",
	})
	b := NewBuilder(norm, topics, dedup, Options{
		Platform:       "reddit",
		MinQuestionLen: 20,
		MinAnswerLen:   50,
	})
	return b.WithClock(func() time.Time {
		return time.Date(2025, 12, 1, 9, 0, 0, 0, time.UTC)
	})
}

func testThread() *thread.Thread {
	return &thread.Thread{
		ID:        "abc123",
		Title:     "Why does my checkout page keep timing out?",
		Body:      "Customers report the payment step hangs forever before failing.",
		SourceURL: "https://old.reddit.com/r/shopify/comments/abc123/checkout/",
		Score:     12,
		Replies:   make([]thread.Reply, 3),
	}
}

func testCandidate() *identify.Candidate {
	return &identify.Candidate{
		Text:       "You can fix the timeout by re-enabling the payment provider in settings.",
		Strategy:   identify.StrategyOfficial,
		Confidence: 0.95,
	}
}

func TestBuildAssemblesRecord(t *testing.T) {
	b := testBuilder(nil)

	rec, err := b.Build(testThread(), testCandidate())
	require.NoError(t, err)

	require.Len(t, rec.Messages, 2)
	assert.Equal(t, "user", rec.Messages[0].Role)
	assert.Equal(t, "assistant", rec.Messages[1].Role)
	assert.Contains(t, rec.Question(), "checkout page keep timing out")
	assert.Contains(t, rec.Answer(), "re-enabling the payment provider")

	assert.Equal(t, "https://old.reddit.com/r/shopify/comments/abc123/checkout/", rec.Metadata.SourceURL)
	assert.Equal(t, "reddit", rec.Metadata.Platform)
	assert.Equal(t, "official_response", rec.Metadata.ResolutionType)
	assert.Equal(t, 0.95, rec.Metadata.Confidence)
	assert.Equal(t, 12, rec.Metadata.OriginalScore)
	assert.Equal(t, 3, rec.Metadata.NumComments)
	assert.Equal(t, "payments", rec.Metadata.Topic)
	assert.Equal(t, "2025-12-01", rec.Metadata.DateExtracted)
}

func TestBuildRoundsConfidence(t *testing.T) {
	b := testBuilder(nil)

	c := testCandidate()
	c.Confidence = 0.8333333

	rec, err := b.Build(testThread(), c)
	require.NoError(t, err)
	assert.Equal(t, 0.83, rec.Metadata.Confidence)
}

func TestBuildRejectsSeenURL(t *testing.T) {
	th := testThread()
	b := testBuilder(fakeDeduper{th.SourceURL: true})

	_, err := b.Build(th, testCandidate())
	assert.True(t, errors.Is(err, ErrDuplicate))
}

func TestBuildRejectsShortQuestion(t *testing.T) {
	b := testBuilder(nil)

	th := testThread()
	th.Title = "Why fail now?"
	th.Body = ""

	_, err := b.Build(th, testCandidate())
	assert.True(t, errors.Is(err, clean.ErrRejected))
}

func TestBuildRejectsShortAnswer(t *testing.T) {
	b := testBuilder(nil)

	c := testCandidate()
	c.Text = "You can retry it."

	_, err := b.Build(testThread(), c)
	assert.True(t, errors.Is(err, clean.ErrRejected))
}

func TestBuildRejectsNonQuestion(t *testing.T) {
	b := testBuilder(nil)

	th := testThread()
	th.Title = "Sharing my store setup notes"
	th.Body = "Just wanted to say the new theme looks great after the update."

	_, err := b.Build(th, testCandidate())
	assert.True(t, errors.Is(err, clean.ErrRejected))
}

func TestBuildRejectsUncertainAnswer(t *testing.T) {
	b := testBuilder(nil)

	c := testCandidate()
	c.Text = "You can try rebooting but honestly I don't know whether that changes anything at all."

	_, err := b.Build(testThread(), c)
	assert.True(t, errors.Is(err, clean.ErrRejected))
}

func TestTopicMatcher(t *testing.T) {
	m := NewTopicMatcher(map[string]string{
		"apps":     "app+install,plugin",
		"payments": "payment",
	})

	// AND group: both keywords required
	assert.Equal(t, "apps", m.Lookup("cannot install the review app"))
	assert.Equal(t, DefaultTopic, m.Lookup("the app crashes on load"))

	// OR alternative
	assert.Equal(t, "apps", m.Lookup("my plugin stopped working"))

	assert.Equal(t, "payments", m.Lookup("payment gateway rejected the card"))
	assert.Equal(t, DefaultTopic, m.Lookup("unrelated text entirely"))
}

func TestTopicMatcherDeterministicOrder(t *testing.T) {
	m := NewTopicMatcher(map[string]string{
		"zeta":  "overlap",
		"alpha": "overlap",
	})

	// Both rules match; sorted topic order makes "alpha" win every time
	for i := 0; i < 10; i++ {
		assert.Equal(t, "alpha", m.Lookup("this text contains overlap keyword"))
	}
}
