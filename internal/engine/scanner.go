package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/wonny/prophet/internal/contracts"
	"github.com/wonny/prophet/pkg/logger"
	"github.com/wonny/prophet/pkg/metrics"
)

// SkipCancelled marks tickers not started because the scan was stopped
const SkipCancelled = "cancelled"

// Scanner runs the engine over many tickers with a bounded worker pool
// ⭐ SSOT: 종목 단위 격리 (한 종목 실패가 배치를 중단하지 않음)
type Scanner struct {
	engine      *Engine
	collector   contracts.Collector
	emitter     contracts.Emitter
	concurrency int
	metrics     *metrics.Recorder
	logger      *logger.Logger
}

// NewScanner creates a scanner. rec may be nil.
func NewScanner(
	engine *Engine,
	collector contracts.Collector,
	emitter contracts.Emitter,
	concurrency int,
	rec *metrics.Recorder,
	log *logger.Logger,
) *Scanner {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Scanner{
		engine:      engine,
		collector:   collector,
		emitter:     emitter,
		concurrency: concurrency,
		metrics:     rec,
		logger:      log.WithComponent("scanner"),
	}
}

// Engine returns the underlying engine
func (s *Scanner) Engine() *Engine {
	return s.engine
}

// ScoreOne collects, evaluates and emits a single ticker
func (s *Scanner) ScoreOne(ctx context.Context, ticker contracts.Ticker, asOf time.Time) (contracts.Verdict, error) {
	v, reason, err := s.process(ctx, ticker, asOf)
	if err != nil {
		s.metrics.RecordSkip(reason)
		return contracts.Verdict{}, err
	}
	return v, nil
}

// Scan evaluates every ticker. Tickers whose snapshot cannot be collected
// are recorded in Skipped and produce no verdict. When ctx is cancelled no
// new ticker starts; in-flight tickers finish and the partial report is
// returned together with ctx.Err().
func (s *Scanner) Scan(ctx context.Context, tickers []contracts.Ticker, asOf time.Time) (*contracts.ScanReport, error) {
	report := &contracts.ScanReport{
		RunID:      uuid.NewString(),
		AsOf:       asOf,
		StartedAt:  time.Now(),
		ConfigHash: s.engine.ConfigHash(),
		Requested:  len(tickers),
		Skipped:    make(map[contracts.Ticker]string),
	}

	slots := make([]*contracts.Verdict, len(tickers))
	var mu sync.Mutex

	var g errgroup.Group
	g.SetLimit(s.concurrency)

	for i, ticker := range tickers {
		if ctx.Err() != nil {
			mu.Lock()
			report.Skipped[ticker] = SkipCancelled
			mu.Unlock()
			continue
		}

		g.Go(func() error {
			// 대기 중 중단되었으면 시작하지 않음
			if ctx.Err() != nil {
				mu.Lock()
				report.Skipped[ticker] = SkipCancelled
				mu.Unlock()
				return nil
			}

			v, reason, err := s.process(ctx, ticker, asOf)
			if err != nil {
				s.metrics.RecordSkip(reason)
				mu.Lock()
				report.Skipped[ticker] = reason
				mu.Unlock()
				return nil
			}
			slots[i] = &v
			return nil
		})
	}
	_ = g.Wait()

	for _, v := range slots {
		if v != nil {
			report.Verdicts = append(report.Verdicts, *v)
		}
	}
	report.FinishedAt = time.Now()
	s.metrics.RecordScan(report.Duration().Seconds())

	counts := report.CountByTier()
	s.logger.WithFields(map[string]interface{}{
		"run_id":      report.RunID,
		"requested":   report.Requested,
		"scored":      report.Scored(),
		"skipped":     len(report.Skipped),
		"imminent":    counts[contracts.TierImminent],
		"likely":      counts[contracts.TierLikely],
		"watch":       counts[contracts.TierWatch],
		"forbidden":   counts[contracts.TierForbidden],
		"config_hash": report.ConfigHash,
		"duration":    report.Duration().String(),
	}).Info("Scan finished")

	return report, ctx.Err()
}

// process is the per-ticker failure boundary
func (s *Scanner) process(ctx context.Context, ticker contracts.Ticker, asOf time.Time) (v contracts.Verdict, reason string, err error) {
	log := s.logger.WithField("ticker", ticker)

	defer func() {
		if r := recover(); r != nil {
			v = contracts.Verdict{}
			reason = contracts.SkipPanic
			err = fmt.Errorf("ticker %s: panic: %v", ticker, r)
			log.WithField("panic", fmt.Sprint(r)).Error("Ticker evaluation panicked")
		}
	}()

	snap, err := s.collector.FetchSnapshot(ctx, ticker, asOf)
	if err != nil {
		reason = contracts.SkipReason(err)
		log.WithError(err).WithField("reason", reason).Warn("Snapshot unavailable, skipping ticker")
		return contracts.Verdict{}, reason, fmt.Errorf("ticker %s: %w", ticker, err)
	}

	v = s.engine.Evaluate(snap)

	degraded := v.Score.Degraded()
	names := make([]string, len(degraded))
	for i, id := range degraded {
		names[i] = string(id)
	}
	s.metrics.RecordVerdict(string(ticker), string(v.Tier), v.Score.Total, v.Score.Vetoed, names)

	log.WithFields(map[string]interface{}{
		"tier":     v.Tier,
		"total":    v.Score.Total,
		"vetoed":   v.Score.Vetoed,
		"degraded": names,
	}).Debug("Ticker evaluated")

	s.emitter.Emit(ctx, v)
	return v, "", nil
}
