// {{RIPER-5-Enhanced:
//   Action: "Added"
//   Task_ID: "Thread Data Model"
//   Timestamp: "2025-12-08T09:42:00Z"
//   Authoring_Role: "AR"
//   Analysis_Performed: "Analyzed Python post dict structure from reddit_scraper_no_api.py"
//   Principle_Applied: "Aether-Engineering-SOLID-S, Anemic Domain Model"
//   Quality_Check: "Flat reply arena with backward-only parent links, dangling links pruned"
// }}

package thread

import "time"

// AuthorRole classifies a post author from platform signals
type AuthorRole string

const (
	RoleRegular AuthorRole = "regular_user"
	RoleStaff   AuthorRole = "verified_staff"
	RoleOP      AuthorRole = "original_poster"
	RoleUnknown AuthorRole = "unknown"
)

// Reply represents one reply within a thread.
// ParentID is empty for top-level replies; otherwise it must reference an
// earlier reply in the same thread.
type Reply struct {
	ID        string     `json:"id"`
	ParentID  string     `json:"parent_id"`
	Author    string     `json:"author"`
	Role      AuthorRole `json:"author_role"`
	Score     int        `json:"score"`
	Body      string     `json:"body"`
	CreatedAt time.Time  `json:"created_at"`
}

// Thread represents one fetched discussion: a root post plus a flat list of
// replies forming a tree via parent ids. Pure data, constructed fresh per
// fetch and discarded after one pipeline pass.
type Thread struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Body        string     `json:"body"`
	SourceURL   string     `json:"source_url"`
	Author      string     `json:"author"`
	Score       int        `json:"score"`
	Flair       string     `json:"flair"`
	CreatedAt   time.Time  `json:"created_at"`
	EditedAt    *time.Time `json:"edited_at,omitempty"`
	EditMarkers []string   `json:"edit_markers,omitempty"`
	Replies     []Reply    `json:"replies"`
}

// FindReply returns the reply with the given id, or nil
func (t *Thread) FindReply(id string) *Reply {
	for i := range t.Replies {
		if t.Replies[i].ID == id {
			return &t.Replies[i]
		}
	}
	return nil
}

// PruneDangling drops replies whose parent id references neither the root nor
// an earlier reply. Parent ids may only point backward in insertion order, so
// a single forward pass is sufficient and cycles are impossible. Returns the
// ids of dropped replies.
func (t *Thread) PruneDangling() []string {
	seen := make(map[string]bool, len(t.Replies))
	kept := t.Replies[:0]
	var dropped []string

	for _, r := range t.Replies {
		if r.ParentID != "" && r.ParentID != t.ID && !seen[r.ParentID] {
			dropped = append(dropped, r.ID)
			continue
		}
		seen[r.ID] = true
		kept = append(kept, r)
	}

	t.Replies = kept
	return dropped
}
