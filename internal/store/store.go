// {{RIPER-5-Enhanced:
//   Action: "Added"
//   Task_ID: "Record Archive Interface Abstraction"
//   Timestamp: "2025-12-08T10:30:00Z"
//   Authoring_Role: "AR"
//   Analysis_Performed: "Extracted common archive interface over SQLite and MongoDB"
//   Principle_Applied: "Aether-Engineering-SOLID-I (Interface Segregation)"
//   Quality_Check: "Interface supports both MongoDB and SQLite implementations"
// }}

package store

import "time"

// Store mirrors emitted records and skip audit entries for the admin API.
// The JSONL output log stays canonical: archive failures are advisory and
// never stop the pipeline, and the archive is never consulted for dedup.
type Store interface {
	// Record operations
	InsertRecord(rec *ArchivedRecord) error
	RecentRecords(limit int) ([]*ArchivedRecord, error)
	CountRecords() (int, error)

	// Skip audit operations
	InsertSkip(entry *SkipEntry) error
	SkipCounts(runID string) (map[string]int, error)

	// Connection management
	Disconnect() error
	Ping() error
}

// ArchivedRecord is one emitted record as mirrored into the archive
type ArchivedRecord struct {
	ID             interface{} `json:"id" bson:"_id,omitempty"` // int64 for SQLite, ObjectID for MongoDB
	RunID          string      `json:"run_id" bson:"run_id"`
	SourceURL      string      `json:"source_url" bson:"source_url"`
	Question       string      `json:"question" bson:"question"`
	Answer         string      `json:"answer" bson:"answer"`
	ResolutionType string      `json:"resolution_type" bson:"resolution_type"`
	Confidence     float64     `json:"confidence" bson:"confidence"`
	Topic          string      `json:"topic" bson:"topic"`
	EmittedAt      time.Time   `json:"emitted_at" bson:"emitted_at"`
}

// SkipEntry records one skipped thread and the stage that rejected it
type SkipEntry struct {
	ID        interface{} `json:"id" bson:"_id,omitempty"` // int64 for SQLite, ObjectID for MongoDB
	RunID     string      `json:"run_id" bson:"run_id"`
	SourceURL string      `json:"source_url" bson:"source_url"`
	Stage     string      `json:"stage" bson:"stage"` // "fetch", "parse", "identify", "build", "duplicate"
	Reason    string      `json:"reason" bson:"reason"`
	CreatedAt time.Time   `json:"created_at" bson:"created_at"`
}
