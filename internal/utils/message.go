// {{RIPER-5-Enhanced:
//   Action: "Added"
//   Task_ID: "Message Formatting Utilities"
//   Timestamp: "2025-12-08T10:44:00Z"
//   Authoring_Role: "LD"
//   Analysis_Performed: "Analyzed run summary logging from reddit_scraper_no_api.py"
//   Principle_Applied: "Aether-Engineering-DRY"
//   Quality_Check: "Summary format covers processed/emitted/skipped audit counts"
// }}

package utils

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/imhuimie/qa-harvest-go/internal/record"
)

// RunSummary describes one completed (or aborted) pipeline pass
type RunSummary struct {
	RunID     string
	Platform  string
	Processed int
	Emitted   int
	Skipped   int
	SkipStage map[string]int
	Duration  time.Duration
	Fatal     string // non-empty when the run halted on a persistence failure
}

// FormatRunSummary formats a pass summary into a notification message
func FormatRunSummary(s RunSummary) string {
	var sb strings.Builder

	if s.Fatal != "" {
		sb.WriteString(fmt.Sprintf("%s 采集中止\n", strings.ToUpper(s.Platform)))
	} else {
		sb.WriteString(fmt.Sprintf("%s 采集完成\n", strings.ToUpper(s.Platform)))
	}
	sb.WriteString(fmt.Sprintf("运行：%s\n", s.RunID))
	sb.WriteString(fmt.Sprintf("处理：%d  产出：%d  跳过：%d\n", s.Processed, s.Emitted, s.Skipped))
	sb.WriteString(fmt.Sprintf("耗时：%s\n", s.Duration.Round(time.Second)))

	if len(s.SkipStage) > 0 {
		stages := make([]string, 0, len(s.SkipStage))
		for stage := range s.SkipStage {
			stages = append(stages, stage)
		}
		sort.Strings(stages)

		sb.WriteString("\n跳过明细：\n")
		for _, stage := range stages {
			sb.WriteString(fmt.Sprintf("  %s: %d\n", stage, s.SkipStage[stage]))
		}
	}

	if s.Fatal != "" {
		sb.WriteString(fmt.Sprintf("\n致命错误：%s\n", s.Fatal))
	}

	return sb.String()
}

// FormatRecordMessage formats an emitted record into a notification message
func FormatRecordMessage(rec *record.Record) string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%s 新问答记录\n", strings.ToUpper(rec.Metadata.Platform)))
	sb.WriteString(fmt.Sprintf("主题：%s\n", rec.Metadata.Topic))
	sb.WriteString(fmt.Sprintf("来源：%s\n", rec.Metadata.ResolutionType))
	sb.WriteString(fmt.Sprintf("置信度：%.2f\n\n", rec.Metadata.Confidence))

	question := rec.Question()
	if len(question) > 200 {
		sb.WriteString(fmt.Sprintf("%s...\n\n", question[:200]))
	} else {
		sb.WriteString(fmt.Sprintf("%s\n\n", question))
	}

	sb.WriteString(rec.Metadata.SourceURL)

	return sb.String()
}
