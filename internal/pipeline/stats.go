// {{RIPER-5-Enhanced:
//   Action: "Added"
//   Task_ID: "Run Statistics Tracking"
//   Timestamp: "2025-12-08T10:40:00Z"
//   Authoring_Role: "LD"
//   Analysis_Performed: "Analyzed Python qa_count/processed_urls bookkeeping from reddit_scraper_no_api.py"
//   Principle_Applied: "Aether-Engineering-SOLID-S"
//   Quality_Check: "Thread-safe counters, per-reason skip breakdown for post-hoc audit"
// }}

package pipeline

import (
	"sync"
	"time"
)

// Stats tracks processed/emitted/skipped counts for the current run. Counts
// plus the per-stage skip breakdown are the run's audit surface: every skip
// carries the stage that rejected it.
type Stats struct {
	mu sync.RWMutex

	runID     string
	startedAt time.Time
	processed int
	emitted   int
	skipped   int
	skipStage map[string]int
}

// StatsView is an immutable snapshot of Stats
type StatsView struct {
	RunID     string         `json:"run_id"`
	StartedAt time.Time      `json:"started_at"`
	Processed int            `json:"processed"`
	Emitted   int            `json:"emitted"`
	Skipped   int            `json:"skipped"`
	SkipStage map[string]int `json:"skip_stage"`
}

func newStats() *Stats {
	return &Stats{skipStage: make(map[string]int)}
}

func (s *Stats) beginRun(runID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.runID = runID
	s.startedAt = time.Now().UTC()
	s.processed = 0
	s.emitted = 0
	s.skipped = 0
	s.skipStage = make(map[string]int)
}

func (s *Stats) addProcessed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.processed++
}

func (s *Stats) addEmitted() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.emitted++
}

func (s *Stats) addSkip(stage string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.skipped++
	s.skipStage[stage]++
}

// Snapshot returns a copy safe for serialization
func (s *Stats) Snapshot() StatsView {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stages := make(map[string]int, len(s.skipStage))
	for k, v := range s.skipStage {
		stages[k] = v
	}

	return StatsView{
		RunID:     s.runID,
		StartedAt: s.startedAt,
		Processed: s.processed,
		Emitted:   s.emitted,
		Skipped:   s.skipped,
		SkipStage: stages,
	}
}
