// {{RIPER-5-Enhanced:
//   Action: "Added"
//   Task_ID: "Streaming JSONL Emitter"
//   Timestamp: "2025-12-08T10:10:00Z"
//   Authoring_Role: "LD"
//   Analysis_Performed: "Analyzed Python save_qa_pair from reddit_scraper_no_api.py and fix_jsonl.py"
//   Principle_Applied: "Aether-Engineering-SOLID-S, Write-Ahead-Log Pattern"
//   Quality_Check: "Per-line flush, dedup index rebuilt as fold over log contents"
// }}

package emit

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/imhuimie/qa-harvest-go/internal/record"
)

// ErrIOFailure marks a persistence failure. It is fatal for the current run;
// lines already written remain valid.
var ErrIOFailure = errors.New("输出日志写入失败")

// ErrDuplicate re-exported for callers that only import emit
var ErrDuplicate = record.ErrDuplicate

// Emitter appends records to an append-only JSONL log. The emitter owns both
// the log file and the in-memory dedup index; the index is always a
// deterministic fold over the log's contents and is never persisted
// separately.
type Emitter struct {
	path  string
	f     *os.File
	seen  map[string]bool
	count int
	mu    sync.Mutex
}

// Ensure Emitter satisfies the builder's dedup dependency
var _ record.Deduper = (*Emitter)(nil)

// NewEmitter opens the output log for appending, first replaying existing
// contents to rebuild the dedup index. A truncated final line is ignored, so
// resuming after a crash never corrupts the index beyond the last complete
// line.
func NewEmitter(path string) (*Emitter, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("无法创建输出目录: %w (%w)", err, ErrIOFailure)
		}
	}

	seen := make(map[string]bool)
	count := 0

	if stats, err := ValidateLog(path); err == nil {
		for url := range stats.SeenURLs {
			seen[url] = true
		}
		count = stats.Valid
		if len(stats.Issues) > 0 {
			log.Warnf("输出日志包含 %d 个无效行，恢复时已跳过", len(stats.Issues))
		}
		log.Infof("输出日志恢复完成: %d 条已有记录", count)
	} else if !os.IsNotExist(err) {
		return nil, fmt.Errorf("无法恢复输出日志: %w (%w)", err, ErrIOFailure)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("无法打开输出日志: %w (%w)", err, ErrIOFailure)
	}

	// Seal a truncated final line so the next append starts a fresh line
	if endsMidLine(path) {
		if _, err := f.Write([]byte{'\n'}); err != nil {
			f.Close()
			return nil, fmt.Errorf("无法封闭截断行: %w (%w)", err, ErrIOFailure)
		}
	}

	return &Emitter{path: path, f: f, seen: seen, count: count}, nil
}

// endsMidLine reports whether the log's last byte is not a newline
func endsMidLine(path string) bool {
	fi, err := os.Stat(path)
	if err != nil || fi.Size() == 0 {
		return false
	}
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	buf := make([]byte, 1)
	if _, err := f.ReadAt(buf, fi.Size()-1); err != nil {
		return false
	}
	return buf[0] != '\n'
}

// Seen reports whether a source URL already produced a record
func (e *Emitter) Seen(sourceURL string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.seen[sourceURL]
}

// Count returns the number of records in the log
func (e *Emitter) Count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.count
}

// Emit appends one record as a single JSON line and flushes it to disk.
// Duplicate source URLs return ErrDuplicate without writing; any write error
// wraps ErrIOFailure.
func (e *Emitter) Emit(rec *record.Record) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	url := rec.Metadata.SourceURL
	if e.seen[url] {
		return ErrDuplicate
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("无法序列化记录: %w", err)
	}
	data = append(data, '\n')

	if _, err := e.f.Write(data); err != nil {
		return fmt.Errorf("写入记录失败: %w (%w)", err, ErrIOFailure)
	}
	// Flush after every write: a crash must leave only complete prior lines
	if err := e.f.Sync(); err != nil {
		return fmt.Errorf("刷新输出日志失败: %w (%w)", err, ErrIOFailure)
	}

	e.seen[url] = true
	e.count++
	return nil
}

// Close closes the underlying log file
func (e *Emitter) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.f == nil {
		return nil
	}
	err := e.f.Close()
	e.f = nil
	return err
}
