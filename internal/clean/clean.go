// {{RIPER-5-Enhanced:
//   Action: "Added"
//   Task_ID: "Content Normalizer Implementation"
//   Timestamp: "2025-12-08T09:45:00Z"
//   Authoring_Role: "LD"
//   Analysis_Performed: "Analyzed Python cleaning utilities from content_cleaner.py"
//   Principle_Applied: "Aether-Engineering-SOLID-S, Pure Functions"
//   Quality_Check: "Deterministic normalization, rejection as typed outcome"
// }}

package clean

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrRejected marks text filtered out by normalization. It is a normal
// outcome, not a failure: callers skip the text and continue.
var ErrRejected = errors.New("内容被拒绝")

// Placeholder substituted for redacted username mentions
const Placeholder = "[user]"

var (
	reBold   = regexp.MustCompile(`\*\*(.+?)\*\*`)
	reItalic = regexp.MustCompile(`\*(.+?)\*`)
	reStrike = regexp.MustCompile(`~~(.+?)~~`)

	// Noise stripped from question text only
	reGreeting   = regexp.MustCompile(`(?im)^(hi|hello|hey|dear)\s+[\w@]+[,!.\s]*`)
	reThanks     = regexp.MustCompile(`(?i)thanks?\s+in\s+advance[!.]*`)
	rePleaseHelp = regexp.MustCompile(`(?im)(any|please)\s+help[!.]*$`)
	reTLDR       = regexp.MustCompile(`(?im)tldr:.*$`)

	// Username mentions, redacted from everything
	reMentionU  = regexp.MustCompile(`\bu/\w+`)
	reMentionAt = regexp.MustCompile(`@\w+`)

	// Post-hoc edit annotations
	reEditBold = regexp.MustCompile(`(?im)\*\*(edit|update):\*\*.*$`)
	reEditLine = regexp.MustCompile(`(?im)^\s*edit\s*:.*$`)

	reTombstone = regexp.MustCompile(`(?i)\[(deleted|removed)\]`)
	reURL       = regexp.MustCompile(`https?://[^\s)\]]+`)

	reBlankRuns = regexp.MustCompile(`\n\s*\n\s*\n+`)
	reSpaceRuns = regexp.MustCompile(`[ \t]+`)
)

// Boilerplate bodies that carry no content
var blocklist = map[string]bool{
	"[deleted]": true,
	"[removed]": true,
	"deleted":   true,
	"removed":   true,
}

// Normalizer strips platform markup, redacts mentions and collapses
// whitespace. All methods are pure: identical input yields identical output.
type Normalizer struct {
	minWords int
}

// NewNormalizer creates a normalizer rejecting text shorter than minWords
func NewNormalizer(minWords int) *Normalizer {
	if minWords <= 0 {
		minWords = 3
	}
	return &Normalizer{minWords: minWords}
}

// Question normalizes root-post text: markup stripped, greetings and filler
// removed, mentions redacted. Returns ErrRejected for degenerate text.
func (n *Normalizer) Question(raw string) (string, error) {
	if isBoilerplate(raw) {
		return "", fmt.Errorf("样板内容: %w", ErrRejected)
	}

	text := stripMarkup(raw)
	text = reGreeting.ReplaceAllString(text, "")
	text = reThanks.ReplaceAllString(text, "")
	text = rePleaseHelp.ReplaceAllString(text, "")
	text = reEditBold.ReplaceAllString(text, "")
	text = reEditLine.ReplaceAllString(text, "")
	text = reTLDR.ReplaceAllString(text, "")
	text = redact(text)
	text = collapse(text)

	return n.accept(text)
}

// Answer normalizes reply text: markup stripped, edit annotations removed,
// mentions redacted, structure otherwise preserved.
func (n *Normalizer) Answer(raw string) (string, error) {
	if isBoilerplate(raw) {
		return "", fmt.Errorf("样板内容: %w", ErrRejected)
	}

	text := stripMarkup(raw)
	text = reEditLine.ReplaceAllString(text, "")
	text = redact(text)
	text = collapse(text)

	return n.accept(text)
}

func (n *Normalizer) accept(text string) (string, error) {
	if text == "" {
		return "", fmt.Errorf("清理后为空: %w", ErrRejected)
	}
	if len(strings.Fields(text)) < n.minWords {
		return "", fmt.Errorf("少于 %d 个词: %w", n.minWords, ErrRejected)
	}
	return text, nil
}

func stripMarkup(text string) string {
	text = reBold.ReplaceAllString(text, "$1")
	text = reItalic.ReplaceAllString(text, "$1")
	text = reStrike.ReplaceAllString(text, "$1")
	text = reTombstone.ReplaceAllString(text, "")
	text = reURL.ReplaceAllString(text, "")
	return text
}

func redact(text string) string {
	text = reMentionU.ReplaceAllString(text, Placeholder)
	text = reMentionAt.ReplaceAllString(text, Placeholder)
	return text
}

func collapse(text string) string {
	text = reBlankRuns.ReplaceAllString(text, "\n\n")
	text = reSpaceRuns.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

func isBoilerplate(raw string) bool {
	return blocklist[strings.ToLower(strings.TrimSpace(raw))]
}

var (
	reNumberedStep = regexp.MustCompile(`(?m)^\s*\d+[.)]\s+.+$`)
	reBulletStep   = regexp.MustCompile(`(?m)^\s*[-*•]\s+.+$`)
)

// HasSteps reports whether text contains at least two numbered or bulleted
// step lines.
func HasSteps(text string) bool {
	if len(reNumberedStep.FindAllString(text, 3)) >= 2 {
		return true
	}
	return len(reBulletStep.FindAllString(text, 3)) >= 2
}

var openings = []string{
	"here", "you can", "to solve", "try", "follow these", "the solution",
}

// FormatAsAnswer prefixes normalized text with a helpful opening when it does
// not already start with one.
func FormatAsAnswer(text string) string {
	if text == "" {
		return ""
	}

	lower := strings.ToLower(text)
	for _, opening := range openings {
		if strings.HasPrefix(lower, opening) {
			return text
		}
	}

	if HasSteps(text) {
		return "Here's how to resolve this issue:\n\n" + text
	}
	return "Here's the solution:\n\n" + text
}
