// {{RIPER-5-Enhanced:
//   Action: "Added"
//   Task_ID: "Thread Parsing Tests"
//   Timestamp: "2025-12-08T12:55:00Z"
//   Authoring_Role: "TE"
//   Analysis_Performed: "Covered root extraction, reply linkage, role resolution and failures"
//   Principle_Applied: "Aether-Engineering-Testability"
//   Quality_Check: "Inline HTML fixtures, no network access"
// }}

package fetch

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/imhuimie/qa-harvest-go/internal/thread"
)

const threadURL = "https://old.reddit.com/r/shopify/comments/abc123/checkout_broken/"

const threadHTML = `
<html><body>
<a class="title">Checkout keeps failing for every customer</a>
<div class="score">42 points</div>
<span class="linkflairlabel">Help</span>
<div class="usertext-body">Orders error out at the payment step. Edit: solved by re-adding the provider.</div>
<p class="tagline"><a class="author">op_user</a> <time datetime="2025-11-01T12:00:00+00:00"></time></p>

<div class="comment" data-fullname="t1_c1">
  <p class="tagline"><a class="author">helper_one</a> <time datetime="2025-11-01T13:00:00+00:00"></time><span class="score">7 points</span></p>
  <div class="md">Re-add the payment provider under settings and save twice.</div>
  <div class="child">
    <div class="comment" data-fullname="t1_c2">
      <p class="tagline"><a class="author">op_user</a> <time datetime="2025-11-01T14:00:00+00:00"></time><span class="score">3 points</span></p>
      <div class="md">Thank you, that worked!</div>
    </div>
  </div>
</div>

<div class="comment" data-fullname="t1_c3">
  <p class="tagline"><a class="author moderator">shopify_staff</a> <time datetime="2025-11-01T15:00:00+00:00"></time><span class="score">12 points</span></p>
  <div class="md">We have confirmed the provider outage is resolved now.</div>
</div>
</body></html>
`

func parseDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

func TestBuildThreadExtractsRootPost(t *testing.T) {
	p := NewParser([]string{"shopify"})

	th, err := p.BuildThread(parseDoc(t, threadHTML), threadURL)
	require.NoError(t, err)

	assert.Equal(t, "abc123", th.ID)
	assert.Equal(t, "Checkout keeps failing for every customer", th.Title)
	assert.Contains(t, th.Body, "payment step")
	assert.Equal(t, "op_user", th.Author)
	assert.Equal(t, 42, th.Score)
	assert.Equal(t, "Help", th.Flair)
	assert.Equal(t, threadURL, th.SourceURL)
	assert.Contains(t, th.EditMarkers, "Edit:")
}

func TestBuildThreadLinksReplies(t *testing.T) {
	p := NewParser([]string{"shopify"})

	th, err := p.BuildThread(parseDoc(t, threadHTML), threadURL)
	require.NoError(t, err)
	require.Len(t, th.Replies, 3)

	first := th.FindReply("c1")
	require.NotNil(t, first)
	assert.Equal(t, "", first.ParentID)
	assert.Equal(t, 7, first.Score)
	assert.Equal(t, thread.RoleRegular, first.Role)

	nested := th.FindReply("c2")
	require.NotNil(t, nested)
	assert.Equal(t, "c1", nested.ParentID)
	assert.Equal(t, thread.RoleOP, nested.Role)

	staff := th.FindReply("c3")
	require.NotNil(t, staff)
	assert.Equal(t, thread.RoleStaff, staff.Role)
}

func TestBuildThreadStaffKeywordFallback(t *testing.T) {
	// No badge class, author name matches a staff keyword
	html := strings.Replace(threadHTML, `class="author moderator"`, `class="author"`, 1)
	p := NewParser([]string{"shopify"})

	th, err := p.BuildThread(parseDoc(t, html), threadURL)
	require.NoError(t, err)

	staff := th.FindReply("c3")
	require.NotNil(t, staff)
	assert.Equal(t, thread.RoleStaff, staff.Role)
}

func TestBuildThreadMissingTitle(t *testing.T) {
	p := NewParser(nil)

	_, err := p.BuildThread(parseDoc(t, `<html><body><div class="usertext-body">body</div></body></html>`), threadURL)
	require.Error(t, err)

	var perr *ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, threadURL, perr.URL)
}

func TestBuildThreadMissingBody(t *testing.T) {
	p := NewParser(nil)

	_, err := p.BuildThread(parseDoc(t, `<html><body><a class="title">a title</a></body></html>`), threadURL)

	var perr *ParseError
	require.ErrorAs(t, err, &perr)
}

func TestBuildThreadRejectsBadURL(t *testing.T) {
	p := NewParser(nil)

	_, err := p.BuildThread(parseDoc(t, threadHTML), "https://old.reddit.com/r/shopify/")

	var perr *ParseError
	require.ErrorAs(t, err, &perr)
}

func TestExtractThreadID(t *testing.T) {
	assert.Equal(t, "abc123", extractThreadID("https://old.reddit.com/r/shopify/comments/abc123/title/"))
	assert.Equal(t, "", extractThreadID("https://old.reddit.com/r/shopify/new/"))
}

func TestParseScore(t *testing.T) {
	assert.Equal(t, 12, parseScore("12 points"))
	assert.Equal(t, -3, parseScore("-3 points"))
	assert.Equal(t, 0, parseScore(""))
	assert.Equal(t, 0, parseScore("hidden"))
}
