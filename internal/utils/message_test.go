// {{RIPER-5-Enhanced:
//   Action: "Added"
//   Task_ID: "Message Formatting Tests"
//   Timestamp: "2025-12-08T13:20:00Z"
//   Authoring_Role: "TE"
//   Analysis_Performed: "Covered summary and record message rendering"
//   Principle_Applied: "Aether-Engineering-Testability"
//   Quality_Check: "Truncation boundary exercised"
// }}

package utils

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/imhuimie/qa-harvest-go/internal/record"
)

func TestFormatRunSummary(t *testing.T) {
	msg := FormatRunSummary(RunSummary{
		RunID:     "run-1",
		Platform:  "reddit",
		Processed: 10,
		Emitted:   4,
		Skipped:   6,
		SkipStage: map[string]int{"fetch": 2, "duplicate": 4},
		Duration:  90 * time.Second,
	})

	assert.Contains(t, msg, "REDDIT 采集完成")
	assert.Contains(t, msg, "run-1")
	assert.Contains(t, msg, "处理：10")
	assert.Contains(t, msg, "duplicate: 4")
	assert.NotContains(t, msg, "致命错误")
}

func TestFormatRunSummaryFatal(t *testing.T) {
	msg := FormatRunSummary(RunSummary{
		Platform: "reddit",
		Fatal:    "磁盘已满",
	})

	assert.Contains(t, msg, "REDDIT 采集中止")
	assert.Contains(t, msg, "致命错误：磁盘已满")
}

func TestFormatRecordMessage(t *testing.T) {
	rec := &record.Record{
		Messages: []record.Message{
			{Role: "user", Content: strings.Repeat("q", 250)},
			{Role: "assistant", Content: "answer"},
		},
		Metadata: record.Metadata{
			SourceURL:      "https://example.com/t/1",
			Platform:       "reddit",
			ResolutionType: "official_response",
			Confidence:     0.95,
			Topic:          "payments",
		},
	}

	msg := FormatRecordMessage(rec)
	assert.Contains(t, msg, "REDDIT 新问答记录")
	assert.Contains(t, msg, "official_response")
	assert.Contains(t, msg, "https://example.com/t/1")
	// Long questions are truncated with an ellipsis
	assert.Contains(t, msg, strings.Repeat("q", 200)+"...")
	assert.NotContains(t, msg, strings.Repeat("q", 201))
}
