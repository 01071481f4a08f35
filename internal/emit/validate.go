// {{RIPER-5-Enhanced:
//   Action: "Added"
//   Task_ID: "Output Log Validation"
//   Timestamp: "2025-12-08T10:12:00Z"
//   Authoring_Role: "LD"
//   Analysis_Performed: "Analyzed Python validate_output.py structural checks"
//   Principle_Applied: "Aether-Engineering-DRY"
//   Quality_Check: "Shared by resume fold and standalone validation"
// }}

package emit

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/imhuimie/qa-harvest-go/internal/record"
)

// LineIssue describes one structurally invalid log line
type LineIssue struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

// LogStats is the result of folding over an output log
type LogStats struct {
	Total    int             `json:"total"`
	Valid    int             `json:"valid"`
	Issues   []LineIssue     `json:"issues,omitempty"`
	SeenURLs map[string]bool `json:"-"`
}

// ValidateLog reads a JSONL output log line by line and checks each line's
// structure. Invalid lines (including a final line truncated mid-write) are
// reported, never repaired in place. The valid lines' source URLs form the
// dedup index.
func ValidateLog(path string) (*LogStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	stats := &LogStats{SeenURLs: make(map[string]bool)}

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		stats.Total++

		var rec record.Record
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			stats.Issues = append(stats.Issues, LineIssue{Line: lineNum, Reason: fmt.Sprintf("无效 JSON: %v", err)})
			continue
		}

		if reason := checkRecord(&rec); reason != "" {
			stats.Issues = append(stats.Issues, LineIssue{Line: lineNum, Reason: reason})
			continue
		}

		stats.Valid++
		stats.SeenURLs[rec.Metadata.SourceURL] = true
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("读取输出日志失败: %w", err)
	}

	return stats, nil
}

func checkRecord(rec *record.Record) string {
	if len(rec.Messages) != 2 {
		return "messages 必须恰好包含 2 条"
	}
	if rec.Messages[0].Role != "user" {
		return "第一条消息的 role 必须是 'user'"
	}
	if rec.Messages[1].Role != "assistant" {
		return "第二条消息的 role 必须是 'assistant'"
	}
	if rec.Messages[0].Content == "" || rec.Messages[1].Content == "" {
		return "消息内容为空"
	}
	if rec.Metadata.SourceURL == "" {
		return "metadata 缺少 source_url"
	}
	return ""
}
