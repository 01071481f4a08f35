// {{RIPER-5-Enhanced:
//   Action: "Added"
//   Task_ID: "Core Pipeline Orchestrator"
//   Timestamp: "2025-12-08T10:52:00Z"
//   Authoring_Role: "LD"
//   Analysis_Performed: "Analyzed Python scrape_with_keywords loop from reddit_scraper_no_api.py"
//   Principle_Applied: "Aether-Engineering-SOLID-S, High Cohesion"
//   Quality_Check: "Sequential processing, bounded retry, graceful shutdown between iterations"
// }}

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/imhuimie/qa-harvest-go/internal/clean"
	"github.com/imhuimie/qa-harvest-go/internal/config"
	"github.com/imhuimie/qa-harvest-go/internal/emit"
	"github.com/imhuimie/qa-harvest-go/internal/fetch"
	"github.com/imhuimie/qa-harvest-go/internal/frontier"
	"github.com/imhuimie/qa-harvest-go/internal/identify"
	"github.com/imhuimie/qa-harvest-go/internal/notifier"
	"github.com/imhuimie/qa-harvest-go/internal/record"
	"github.com/imhuimie/qa-harvest-go/internal/store"
	"github.com/imhuimie/qa-harvest-go/internal/utils"
)

// Skip stages reported in the audit breakdown
const (
	stageDuplicate = "duplicate"
	stageFetch     = "fetch"
	stageParse     = "parse"
	stageIdentify  = "identify"
	stageBuild     = "build"
)

// Pipeline drives threads from the frontier through fetch, parse, identify,
// build and emit. Processing is strictly sequential: one thread completes
// before the next begins, so the dedup index and output log observe a total
// order over emitted records.
type Pipeline struct {
	config  *config.Manager
	emitter *emit.Emitter
	archive store.Store

	fetcher       fetch.Fetcher
	parser        *fetch.Parser
	identifier    *identify.Identifier
	builder       *record.Builder
	notify        notifier.Notifier
	notifySummary bool
	notifyRecords bool

	stats *Stats

	// Control
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
	mu     sync.RWMutex
}

// NewPipeline creates a pipeline. archive may be nil (no record mirror).
func NewPipeline(cfgMgr *config.Manager, emitter *emit.Emitter, archive store.Store) (*Pipeline, error) {
	cfg := cfgMgr.Get()
	if cfg == nil {
		return nil, fmt.Errorf("配置未加载")
	}

	ctx, cancel := context.WithCancel(context.Background())

	p := &Pipeline{
		config:  cfgMgr,
		emitter: emitter,
		archive: archive,
		fetcher: fetch.NewHTTPFetcher(),
		stats:   newStats(),
		ctx:     ctx,
		cancel:  cancel,
	}

	if err := p.buildComponents(cfg); err != nil {
		cancel()
		return nil, err
	}

	return p, nil
}

// WithFetcher substitutes the page fetcher, used by tests
func (p *Pipeline) WithFetcher(f fetch.Fetcher) *Pipeline {
	p.fetcher = f
	return p
}

// buildComponents creates the per-config pipeline stages
func (p *Pipeline) buildComponents(cfg *config.Config) error {
	norm := clean.NewNormalizer(cfg.MinWords)

	var corpus identify.Corpus
	if cfg.ReferenceDocsFile != "" {
		docs, err := identify.LoadDocsCorpus(cfg.ReferenceDocsFile)
		if err != nil {
			log.Warnf("加载参考文档失败: %v，matched_reference 策略将被禁用", err)
		} else {
			corpus = docs
		}
	}

	p.identifier = identify.NewIdentifier(norm, corpus, identify.Options{
		MinUpvotes:             cfg.MinUpvotes,
		MinAckScore:            cfg.MinAckScore,
		SimilarityThreshold:    cfg.SimilarityThreshold,
		AllowReferenceOverride: cfg.AllowReferenceOverride,
	})

	p.parser = fetch.NewParser(cfg.StaffKeywords)

	p.builder = record.NewBuilder(norm, record.NewTopicMatcher(cfg.TopicRules), p.emitter, record.Options{
		Platform:       cfg.Platform,
		MinQuestionLen: cfg.MinQuestionLen,
		MinAnswerLen:   cfg.MinAnswerLen,
	})

	p.notify = nil
	p.notifySummary = cfg.NotifySummary
	p.notifyRecords = cfg.NotifyRecords
	if cfg.NotifySummary || cfg.NotifyRecords {
		ntf, err := notifier.NewNotifier(cfg)
		if err != nil {
			log.Warnf("创建通知器失败: %v，通知将被禁用", err)
		} else {
			p.notify = ntf
		}
	}

	return nil
}

// WithNotifier substitutes the notification channel, used by tests
func (p *Pipeline) WithNotifier(n notifier.Notifier) *Pipeline {
	p.notify = n
	return p
}

// Start starts the harvest loop in the background
func (p *Pipeline) Start() {
	log.Info("开始采集...")

	p.wg.Add(1)
	go p.runLoop()
}

// Stop stops the pipeline gracefully. The current thread iteration finishes;
// no record is ever half-emitted.
func (p *Pipeline) Stop() {
	log.Info("停止采集...")
	p.cancel()
	p.wg.Wait()
	log.Info("采集已停止")
}

// Reload reloads configuration and recreates components
func (p *Pipeline) Reload() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.config.Reload(); err != nil {
		return fmt.Errorf("重新加载配置失败: %w", err)
	}

	if err := p.buildComponents(p.config.Get()); err != nil {
		return fmt.Errorf("重建组件失败: %w", err)
	}

	log.Info("配置重新加载成功")
	return nil
}

// IsRunning returns whether the pipeline is currently running
func (p *Pipeline) IsRunning() bool {
	select {
	case <-p.ctx.Done():
		return false
	default:
		return true
	}
}

// Stats returns a snapshot of the current run's counters
func (p *Pipeline) Stats() StatsView {
	return p.stats.Snapshot()
}

// EmittedTotal returns the total number of records in the output log
func (p *Pipeline) EmittedTotal() int {
	return p.emitter.Count()
}

// runLoop runs one pass immediately, then one per configured frequency
func (p *Pipeline) runLoop() {
	defer p.wg.Done()

	cfg := p.config.Get()
	ticker := time.NewTicker(time.Duration(cfg.Frequency) * time.Second)
	defer ticker.Stop()

	if err := p.runPass(); err != nil {
		return
	}

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			if err := p.runPass(); err != nil {
				return
			}
		}
	}
}

// runPass drains the frontier once. The returned error is non-nil only for a
// persistence failure, which halts the pipeline; everything else is contained
// per thread.
func (p *Pipeline) runPass() error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	cfg := p.config.Get()
	runID := uuid.NewString()
	p.stats.beginRun(runID)
	started := time.Now()

	log.Infof("[运行 %s] 开始检查...", runID)

	fr := p.buildFrontier(cfg)
	emitted := 0

	var fatal error
	for {
		if p.ctx.Err() != nil {
			log.Info("收到取消信号，在迭代边界停止")
			break
		}
		if cfg.RecordLimit > 0 && emitted >= cfg.RecordLimit {
			log.Infof("已达到本次运行的记录上限 %d", cfg.RecordLimit)
			break
		}

		url, ok := fr.Next(p.ctx)
		if !ok {
			break
		}

		ok, err := p.processOne(cfg, runID, url)
		if err != nil {
			fatal = err
			break
		}
		if ok {
			emitted++
		}

		// Mandatory minimum delay between fetch operations
		p.sleep(time.Duration(cfg.DelaySeconds) * time.Second)
	}

	view := p.stats.Snapshot()
	log.Infof("[运行 %s] 检查完成: 处理 %d，产出 %d，跳过 %d",
		runID, view.Processed, view.Emitted, view.Skipped)

	summary := utils.RunSummary{
		RunID:     runID,
		Platform:  cfg.Platform,
		Processed: view.Processed,
		Emitted:   view.Emitted,
		Skipped:   view.Skipped,
		SkipStage: view.SkipStage,
		Duration:  time.Since(started),
	}
	if fatal != nil {
		summary.Fatal = fatal.Error()
	}
	p.sendSummary(summary)

	if fatal != nil {
		log.Errorf("持久化失败，管道停止: %v", fatal)
		p.cancel()
	}
	return fatal
}

// buildFrontier assembles the per-pass frontier: explicit URLs first, then
// feeds and keyword search unless only_extra is set.
func (p *Pipeline) buildFrontier(cfg *config.Config) *frontier.Frontier {
	var sources []frontier.Source

	if len(cfg.ExtraURLs) > 0 {
		sources = append(sources, frontier.NewStaticSource(cfg.ExtraURLs))
	}
	delay := time.Duration(cfg.DelaySeconds) * time.Second
	if !cfg.OnlyExtra {
		if len(cfg.FeedURLs) > 0 {
			sources = append(sources, frontier.NewFeedSource(cfg.FeedURLs, delay))
		}
		if keywords := cfg.Keywords(); len(keywords) > 0 && cfg.SearchBaseURL != "" {
			sources = append(sources, frontier.NewSearchSource(
				cfg.SearchBaseURL, keywords, cfg.PostsPerKeyword, delay, p.fetcher))
		}
	}

	return frontier.New(sources...)
}

// processOne runs a single thread through the full pipeline. It returns
// whether a record was emitted; the error is non-nil only for persistence
// failures.
func (p *Pipeline) processOne(cfg *config.Config, runID, url string) (bool, error) {
	p.stats.addProcessed()

	// Cheap pre-check before spending a fetch on a known URL
	if p.emitter.Seen(url) {
		p.skip(runID, url, stageDuplicate, "source_url 已产出记录")
		return false, nil
	}

	doc, err := p.fetchWithRetry(cfg, url)
	if err != nil {
		p.skip(runID, url, stageFetch, err.Error())
		return false, nil
	}

	t, err := p.parser.BuildThread(doc, url)
	if err != nil {
		p.skip(runID, url, stageParse, err.Error())
		return false, nil
	}

	candidate := p.identifier.Identify(t)
	if candidate == nil {
		p.skip(runID, url, stageIdentify, "未找到合格的解答")
		return false, nil
	}

	rec, err := p.builder.Build(t, candidate)
	if err != nil {
		switch {
		case errors.Is(err, record.ErrDuplicate):
			p.skip(runID, url, stageDuplicate, err.Error())
		case errors.Is(err, clean.ErrRejected):
			p.skip(runID, url, stageBuild, err.Error())
		default:
			p.skip(runID, url, stageBuild, err.Error())
		}
		return false, nil
	}

	if err := p.emitter.Emit(rec); err != nil {
		if errors.Is(err, emit.ErrDuplicate) {
			p.skip(runID, url, stageDuplicate, err.Error())
			return false, nil
		}
		// Persistence failures are fatal; already-written lines stay valid
		return false, err
	}

	p.stats.addEmitted()
	log.Infof("产出问答记录: %s (策略 %s, 置信度 %.2f)",
		url, rec.Metadata.ResolutionType, rec.Metadata.Confidence)

	p.mirror(runID, rec)

	if p.notify != nil && p.notifyRecords {
		if err := p.notify.Send(utils.FormatRecordMessage(rec)); err != nil {
			log.Warnf("发送记录通知失败: %v", err)
		}
	}

	return true, nil
}

// fetchWithRetry retries transient fetch failures with linear backoff, then
// gives up. Fetch failures are never fatal for the run.
func (p *Pipeline) fetchWithRetry(cfg *config.Config, url string) (doc *goquery.Document, err error) {
	backoff := time.Duration(cfg.BackoffSecond) * time.Second

	for attempt := 1; attempt <= cfg.MaxRetries; attempt++ {
		doc, err = p.fetcher.Fetch(p.ctx, url)
		if err == nil {
			return doc, nil
		}
		if p.ctx.Err() != nil {
			return nil, err
		}

		log.Warnf("获取失败 %s (第 %d/%d 次): %v", url, attempt, cfg.MaxRetries, err)
		if attempt < cfg.MaxRetries {
			p.sleep(backoff * time.Duration(attempt))
		}
	}

	return nil, fmt.Errorf("重试 %d 次后放弃: %w", cfg.MaxRetries, err)
}

// skip records one skipped thread in the counters, the log and the archive
func (p *Pipeline) skip(runID, url, stage, reason string) {
	p.stats.addSkip(stage)
	log.Infof("跳过 %s [%s]: %s", url, stage, reason)

	if p.archive != nil {
		entry := &store.SkipEntry{
			RunID:     runID,
			SourceURL: url,
			Stage:     stage,
			Reason:    reason,
			CreatedAt: time.Now().UTC(),
		}
		if err := p.archive.InsertSkip(entry); err != nil {
			log.Warnf("写入跳过审计失败: %v", err)
		}
	}
}

// mirror copies an emitted record into the optional archive
func (p *Pipeline) mirror(runID string, rec *record.Record) {
	if p.archive == nil {
		return
	}

	arch := &store.ArchivedRecord{
		RunID:          runID,
		SourceURL:      rec.Metadata.SourceURL,
		Question:       rec.Question(),
		Answer:         rec.Answer(),
		ResolutionType: rec.Metadata.ResolutionType,
		Confidence:     rec.Metadata.Confidence,
		Topic:          rec.Metadata.Topic,
		EmittedAt:      time.Now().UTC(),
	}
	if err := p.archive.InsertRecord(arch); err != nil {
		log.Warnf("写入记录存档失败: %v", err)
	}
}

// sendSummary delivers the pass summary when summary notifications are enabled
func (p *Pipeline) sendSummary(summary utils.RunSummary) {
	if p.notify == nil || !p.notifySummary {
		return
	}
	if err := p.notify.SendSummary(summary); err != nil {
		log.Warnf("发送运行摘要失败: %v", err)
	}
}

// sleep waits for d or until the pipeline is cancelled
func (p *Pipeline) sleep(d time.Duration) {
	select {
	case <-p.ctx.Done():
	case <-time.After(d):
	}
}
