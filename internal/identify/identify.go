// {{RIPER-5-Enhanced:
//   Action: "Added"
//   Task_ID: "Solution Identification Strategies"
//   Timestamp: "2025-12-08T09:55:00Z"
//   Authoring_Role: "LD"
//   Analysis_Performed: "Analyzed Python identify_solution from reddit_scraper_no_api.py"
//   Principle_Applied: "Aether-Engineering-SOLID-O, Strategy Pattern"
//   Quality_Check: "Total-ordered priority table, deterministic tie-breaks"
// }}

package identify

import (
	"sort"
	"strings"
	"time"

	"github.com/imhuimie/qa-harvest-go/internal/clean"
	"github.com/imhuimie/qa-harvest-go/internal/thread"
)

// Strategy names the rule that produced a candidate answer
type Strategy string

const (
	StrategyOfficial    Strategy = "official_response"
	StrategyOPConfirmed Strategy = "op_confirmed"
	StrategyOPUpdate    Strategy = "op_update"
	StrategyUpvoted     Strategy = "upvoted"
	StrategyReference   Strategy = "matched_reference"
)

// Fixed confidence per strategy. StrategyReference carries a variable
// similarity score instead, capped at ReferenceCap.
const (
	ConfidenceOfficial    = 0.95
	ConfidenceOPConfirmed = 0.90
	ConfidenceOPUpdate    = 0.70
	ConfidenceUpvoted     = 0.60
	ReferenceCap          = 0.85
)

// Candidate is a scored, strategy-tagged answer proposed for a thread
type Candidate struct {
	Text       string
	Strategy   Strategy
	Confidence float64
	ReplyID    string
	Score      int
	CreatedAt  time.Time
}

// Options tunes strategy thresholds
type Options struct {
	// Minimum score for an upvoted reply to qualify
	MinUpvotes int
	// Minimum score for an OP acknowledgment reply to be considered
	MinAckScore int
	// Minimum corpus similarity for matched_reference
	SimilarityThreshold float64
	// When true a matched_reference candidate may outrank fixed-confidence
	// strategies on raw score. Default policy keeps fixed strategies on top.
	AllowReferenceOverride bool
}

// Identifier applies the ordered strategy set to a thread
type Identifier struct {
	norm   *clean.Normalizer
	corpus Corpus
	opts   Options
}

// NewIdentifier creates an identifier. corpus may be nil, which disables the
// matched_reference strategy.
func NewIdentifier(norm *clean.Normalizer, corpus Corpus, opts Options) *Identifier {
	if opts.MinUpvotes <= 0 {
		opts.MinUpvotes = 5
	}
	if opts.MinAckScore <= 0 {
		opts.MinAckScore = 2
	}
	if opts.SimilarityThreshold <= 0 {
		opts.SimilarityThreshold = 0.3
	}
	return &Identifier{norm: norm, corpus: corpus, opts: opts}
}

var ackWords = []string{"thank", "worked", "fixed", "solved", "perfect"}

var resolutionWords = []string{"fixed", "solved", "resolved", "worked", "solution", "figured"}

// Identify evaluates every strategy and returns the winning candidate, or nil
// when no strategy produced one. A thread without replies never yields a
// candidate.
func (idf *Identifier) Identify(t *thread.Thread) *Candidate {
	if t == nil || len(t.Replies) == 0 {
		return nil
	}

	// Fixed-confidence strategies in priority order
	var fixed []*Candidate
	for _, eval := range []func(*thread.Thread) *Candidate{
		idf.officialResponse,
		idf.opConfirmed,
		idf.opUpdate,
		idf.upvoted,
	} {
		if c := eval(t); c != nil {
			fixed = append(fixed, c)
		}
	}

	best := pickBest(fixed)
	ref := idf.matchedReference(t)

	if ref == nil {
		return best
	}
	if best == nil {
		return ref
	}
	if idf.opts.AllowReferenceOverride && ref.Confidence > best.Confidence {
		return ref
	}
	return best
}

// pickBest returns the highest-confidence candidate. Input is in strategy
// priority order, so keeping the earlier candidate on equal confidence
// implements the priority tie-break; same-confidence candidates from one
// strategy cannot occur (each strategy yields at most one).
func pickBest(candidates []*Candidate) *Candidate {
	var best *Candidate
	for _, c := range candidates {
		if best == nil || c.Confidence > best.Confidence {
			best = c
		}
	}
	return best
}

// officialResponse selects the best verified-staff reply
func (idf *Identifier) officialResponse(t *thread.Thread) *Candidate {
	var best *Candidate
	for i := range t.Replies {
		r := &t.Replies[i]
		if r.Role != thread.RoleStaff {
			continue
		}
		text, err := idf.norm.Answer(r.Body)
		if err != nil {
			continue
		}
		if best == nil || betterReply(r, best) {
			best = &Candidate{
				Text:       text,
				Strategy:   StrategyOfficial,
				Confidence: ConfidenceOfficial,
				ReplyID:    r.ID,
				Score:      r.Score,
				CreatedAt:  r.CreatedAt,
			}
		}
	}
	return best
}

// opConfirmed looks for an original-poster acknowledgment and resolves the
// reply it confirms: the parent reply when linked, otherwise the
// highest-scored non-OP reply.
func (idf *Identifier) opConfirmed(t *thread.Thread) *Candidate {
	order := sortedByScore(t)

	for _, i := range order {
		ack := &t.Replies[i]
		if ack.Role != thread.RoleOP || ack.Score < idf.opts.MinAckScore {
			continue
		}
		if !containsAny(ack.Body, ackWords) {
			continue
		}

		if ack.ParentID != "" && ack.ParentID != t.ID {
			if parent := t.FindReply(ack.ParentID); parent != nil && parent.Role != thread.RoleOP {
				if text, err := idf.norm.Answer(parent.Body); err == nil {
					return &Candidate{
						Text:       text,
						Strategy:   StrategyOPConfirmed,
						Confidence: ConfidenceOPConfirmed,
						ReplyID:    parent.ID,
						Score:      parent.Score,
						CreatedAt:  parent.CreatedAt,
					}
				}
			}
		}

		// No usable parent link: fall back to the best non-OP reply
		for _, j := range order {
			r := &t.Replies[j]
			if r.Role == thread.RoleOP {
				continue
			}
			if text, err := idf.norm.Answer(r.Body); err == nil {
				return &Candidate{
					Text:       text,
					Strategy:   StrategyOPConfirmed,
					Confidence: ConfidenceOPConfirmed,
					ReplyID:    r.ID,
					Score:      r.Score,
					CreatedAt:  r.CreatedAt,
				}
			}
		}
	}
	return nil
}

// opUpdate extracts the post-hoc edit segment the original poster added after
// resolving the issue. The segment itself becomes the candidate text.
func (idf *Identifier) opUpdate(t *thread.Thread) *Candidate {
	if len(t.EditMarkers) == 0 {
		return nil
	}

	segment, replyID, score, created := editSegment(t)
	if segment == "" || !containsAny(segment, resolutionWords) {
		return nil
	}

	text, err := idf.norm.Answer(segment)
	if err != nil {
		return nil
	}

	return &Candidate{
		Text:       text,
		Strategy:   StrategyOPUpdate,
		Confidence: ConfidenceOPUpdate,
		ReplyID:    replyID,
		Score:      score,
		CreatedAt:  created,
	}
}

// editSegment locates the first edit marker in the root body, then in OP
// replies, and returns the text following it.
func editSegment(t *thread.Thread) (segment, replyID string, score int, created time.Time) {
	if seg := segmentAfterMarker(t.Body, t.EditMarkers); seg != "" {
		return seg, "", t.Score, t.CreatedAt
	}
	for i := range t.Replies {
		r := &t.Replies[i]
		if r.Role != thread.RoleOP {
			continue
		}
		if seg := segmentAfterMarker(r.Body, t.EditMarkers); seg != "" {
			return seg, r.ID, r.Score, r.CreatedAt
		}
	}
	return "", "", 0, time.Time{}
}

func segmentAfterMarker(body string, markers []string) string {
	idx := -1
	width := 0
	for _, m := range markers {
		if pos := indexFold(body, m); pos >= 0 && (idx < 0 || pos < idx) {
			idx = pos
			width = len(m)
		}
	}
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(body[idx+width:])
}

// indexFold returns the byte offset of the first case-insensitive occurrence
// of substr in s, or -1. Offsets are computed on s itself: lowercasing the
// whole string can change byte lengths and shift indexes.
func indexFold(s, substr string) int {
	n := len(substr)
	if n == 0 || n > len(s) {
		return -1
	}
	for i := 0; i+n <= len(s); i++ {
		if strings.EqualFold(s[i:i+n], substr) {
			return i
		}
	}
	return -1
}

// upvoted selects the highest-scored reply above the vote threshold
func (idf *Identifier) upvoted(t *thread.Thread) *Candidate {
	for _, i := range sortedByScore(t) {
		r := &t.Replies[i]
		if r.Score < idf.opts.MinUpvotes {
			return nil // sorted descending, nothing further qualifies
		}
		text, err := idf.norm.Answer(r.Body)
		if err != nil {
			continue
		}
		return &Candidate{
			Text:       text,
			Strategy:   StrategyUpvoted,
			Confidence: ConfidenceUpvoted,
			ReplyID:    r.ID,
			Score:      r.Score,
			CreatedAt:  r.CreatedAt,
		}
	}
	return nil
}

// matchedReference corroborates the best reply against the reference corpus.
// Confidence is the similarity score, capped below every fixed strategy's
// natural ceiling.
func (idf *Identifier) matchedReference(t *thread.Thread) *Candidate {
	if idf.corpus == nil {
		return nil
	}

	for _, i := range sortedByScore(t) {
		r := &t.Replies[i]
		text, err := idf.norm.Answer(r.Body)
		if err != nil {
			continue
		}

		sim, ok := idf.corpus.BestMatch(text)
		if !ok || sim < idf.opts.SimilarityThreshold {
			return nil
		}
		if sim > ReferenceCap {
			sim = ReferenceCap
		}
		return &Candidate{
			Text:       text,
			Strategy:   StrategyReference,
			Confidence: sim,
			ReplyID:    r.ID,
			Score:      r.Score,
			CreatedAt:  r.CreatedAt,
		}
	}
	return nil
}

// sortedByScore returns reply indexes ordered by score descending, then by
// created time ascending.
func sortedByScore(t *thread.Thread) []int {
	order := make([]int, len(t.Replies))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ra, rb := &t.Replies[order[a]], &t.Replies[order[b]]
		if ra.Score != rb.Score {
			return ra.Score > rb.Score
		}
		return ra.CreatedAt.Before(rb.CreatedAt)
	})
	return order
}

func betterReply(r *thread.Reply, cur *Candidate) bool {
	if r.Score != cur.Score {
		return r.Score > cur.Score
	}
	return r.CreatedAt.Before(cur.CreatedAt)
}

func containsAny(text string, words []string) bool {
	lower := strings.ToLower(text)
	for _, w := range words {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}
