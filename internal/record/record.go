// {{RIPER-5-Enhanced:
//   Action: "Added"
//   Task_ID: "Training Record Model"
//   Timestamp: "2025-12-08T10:00:00Z"
//   Authoring_Role: "AR"
//   Analysis_Performed: "Analyzed Python create_qa_entry from content_cleaner.py"
//   Principle_Applied: "Aether-Engineering-SOLID-S"
//   Quality_Check: "Wire format matches chat fine-tuning JSONL schema"
// }}

package record

// Message is one chat turn in the emitted record
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Metadata carries provenance and audit fields for one record
type Metadata struct {
	SourceURL      string  `json:"source_url"`
	Platform       string  `json:"platform"`
	ResolutionType string  `json:"resolution_type"`
	Confidence     float64 `json:"confidence"`
	OriginalScore  int     `json:"original_score"`
	NumComments    int     `json:"num_comments"`
	Topic          string  `json:"topic"`
	DateExtracted  string  `json:"date_extracted"`
}

// Record is the unit of output: one question/answer pair plus metadata.
// Records are immutable once emitted.
type Record struct {
	Messages []Message `json:"messages"`
	Metadata Metadata  `json:"metadata"`
}

// Question returns the user-turn content
func (r *Record) Question() string {
	if len(r.Messages) > 0 {
		return r.Messages[0].Content
	}
	return ""
}

// Answer returns the assistant-turn content
func (r *Record) Answer() string {
	if len(r.Messages) > 1 {
		return r.Messages[1].Content
	}
	return ""
}
