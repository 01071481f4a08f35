// {{RIPER-5-Enhanced:
//   Action: "Added"
//   Task_ID: "Content Normalizer Tests"
//   Timestamp: "2025-12-08T12:05:00Z"
//   Authoring_Role: "TE"
//   Analysis_Performed: "Covered markup stripping, redaction and rejection paths"
//   Principle_Applied: "Aether-Engineering-Testability"
//   Quality_Check: "Deterministic assertions, no fixtures required"
// }}

package clean

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuestionStripsMarkupAndNoise(t *testing.T) {
	n := NewNormalizer(3)

	raw := "Hi everyone,\n\n**How** do I *fix* my ~~broken~~ checkout page?\n\nThanks in advance!"
	got, err := n.Question(raw)
	require.NoError(t, err)

	assert.Equal(t, "How do I fix my broken checkout page?", got)
}

func TestQuestionRemovesEditAnnotations(t *testing.T) {
	n := NewNormalizer(3)

	raw := "My payments keep failing, what can I do?\nEdit: never mind, found it"
	got, err := n.Question(raw)
	require.NoError(t, err)

	assert.Equal(t, "My payments keep failing, what can I do?", got)
	assert.NotContains(t, got, "Edit:")
}

func TestQuestionRedactsMentions(t *testing.T) {
	n := NewNormalizer(3)

	got, err := n.Question("Can u/someuser or @support tell me why shipping rates are wrong?")
	require.NoError(t, err)

	assert.NotContains(t, got, "someuser")
	assert.NotContains(t, got, "@support")
	assert.Contains(t, got, Placeholder)
}

func TestQuestionStripsURLs(t *testing.T) {
	n := NewNormalizer(3)

	got, err := n.Question("My store at https://example.com/shop keeps crashing, any ideas?")
	require.NoError(t, err)

	assert.NotContains(t, got, "https://")
}

func TestAnswerPreservesStructure(t *testing.T) {
	n := NewNormalizer(3)

	raw := "Go to settings.\n\nThen disable the broken app."
	got, err := n.Answer(raw)
	require.NoError(t, err)

	assert.Contains(t, got, "\n\n")
}

func TestRejectsTombstones(t *testing.T) {
	n := NewNormalizer(3)

	for _, raw := range []string{"[deleted]", "[removed]", "  [Deleted]  "} {
		_, err := n.Question(raw)
		assert.True(t, errors.Is(err, ErrRejected), "expected rejection for %q", raw)

		_, err = n.Answer(raw)
		assert.True(t, errors.Is(err, ErrRejected), "expected rejection for %q", raw)
	}
}

func TestRejectsTooFewWords(t *testing.T) {
	n := NewNormalizer(3)

	_, err := n.Answer("yes thanks")
	assert.True(t, errors.Is(err, ErrRejected))
}

func TestNormalizationIsDeterministic(t *testing.T) {
	n := NewNormalizer(3)
	raw := "Hello team, **why** does u/helper say my order   export fails?\nEdit: typo"

	first, err := n.Question(raw)
	require.NoError(t, err)
	second, err := n.Question(raw)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestHasSteps(t *testing.T) {
	assert.True(t, HasSteps("1. open settings\n2. click save"))
	assert.True(t, HasSteps("- first thing\n- second thing"))
	assert.False(t, HasSteps("1. a single step only"))
	assert.False(t, HasSteps("no steps here at all"))
}

func TestFormatAsAnswer(t *testing.T) {
	// Text already opening helpfully is left alone
	helpful := "You can disable the app in settings."
	assert.Equal(t, helpful, FormatAsAnswer(helpful))

	// Stepwise content gets the procedure opening
	steps := "1. open settings\n2. disable the app"
	got := FormatAsAnswer(steps)
	assert.True(t, strings.HasPrefix(got, "Here's how to resolve this issue:\n\n"))

	// Plain content gets the generic opening
	plain := "Disable the app in settings."
	got = FormatAsAnswer(plain)
	assert.True(t, strings.HasPrefix(got, "Here's the solution:\n\n"))

	assert.Equal(t, "", FormatAsAnswer(""))
}
