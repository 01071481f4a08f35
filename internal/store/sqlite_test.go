// {{RIPER-5-Enhanced:
//   Action: "Added"
//   Task_ID: "SQLite Archive Tests"
//   Timestamp: "2025-12-09T09:40:00Z"
//   Authoring_Role: "TE"
//   Analysis_Performed: "Covered record round-trip, URL dedup and skip counting"
//   Principle_Applied: "Aether-Engineering-Testability"
//   Quality_Check: "Temp-file database, no shared state between tests"
// }}

package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLite {
	t.Helper()

	s, err := NewSQLite(filepath.Join(t.TempDir(), "archive.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Disconnect() })

	return s
}

func testRecord(url string, emittedAt time.Time) *ArchivedRecord {
	return &ArchivedRecord{
		RunID:          "run-1",
		SourceURL:      url,
		Question:       "Why does checkout fail at the payment step?",
		Answer:         "Re-enable the payment provider and save the settings.",
		ResolutionType: "official_response",
		Confidence:     0.95,
		Topic:          "checkout",
		EmittedAt:      emittedAt,
	}
}

func TestInsertRecordRoundTripsEmittedAt(t *testing.T) {
	s := newTestStore(t)

	emittedAt := time.Date(2025, 11, 1, 13, 0, 0, 0, time.UTC)
	require.NoError(t, s.InsertRecord(testRecord("https://example.com/t/1", emittedAt)))

	records, err := s.RecentRecords(10)
	require.NoError(t, err)
	require.Len(t, records, 1)

	assert.Equal(t, "https://example.com/t/1", records[0].SourceURL)
	assert.Equal(t, "official_response", records[0].ResolutionType)
	assert.InDelta(t, 0.95, records[0].Confidence, 0.0001)
	assert.WithinDuration(t, emittedAt, records[0].EmittedAt, time.Second)
}

func TestInsertRecordIgnoresDuplicateURL(t *testing.T) {
	s := newTestStore(t)

	base := time.Date(2025, 11, 1, 13, 0, 0, 0, time.UTC)
	require.NoError(t, s.InsertRecord(testRecord("https://example.com/t/1", base)))
	require.NoError(t, s.InsertRecord(testRecord("https://example.com/t/1", base.Add(time.Hour))))

	count, err := s.CountRecords()
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRecentRecordsOrdersByEmittedAtDesc(t *testing.T) {
	s := newTestStore(t)

	base := time.Date(2025, 11, 1, 13, 0, 0, 0, time.UTC)
	require.NoError(t, s.InsertRecord(testRecord("https://example.com/t/old", base)))
	require.NoError(t, s.InsertRecord(testRecord("https://example.com/t/new", base.Add(time.Hour))))

	records, err := s.RecentRecords(1)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "https://example.com/t/new", records[0].SourceURL)
}

func TestSkipCountsGroupsByStageWithinRun(t *testing.T) {
	s := newTestStore(t)

	now := time.Now().UTC()
	entries := []*SkipEntry{
		{RunID: "run-1", SourceURL: "https://example.com/t/1", Stage: "fetch", Reason: "状态码 404", CreatedAt: now},
		{RunID: "run-1", SourceURL: "https://example.com/t/2", Stage: "fetch", Reason: "状态码 503", CreatedAt: now},
		{RunID: "run-1", SourceURL: "https://example.com/t/3", Stage: "identify", Reason: "无候选答案", CreatedAt: now},
		{RunID: "run-2", SourceURL: "https://example.com/t/4", Stage: "fetch", Reason: "状态码 404", CreatedAt: now},
	}
	for _, entry := range entries {
		require.NoError(t, s.InsertSkip(entry))
	}

	counts, err := s.SkipCounts("run-1")
	require.NoError(t, err)
	assert.Equal(t, map[string]int{"fetch": 2, "identify": 1}, counts)
}
