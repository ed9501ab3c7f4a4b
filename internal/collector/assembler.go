package collector

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/wonny/prophet/internal/contracts"
	"github.com/wonny/prophet/pkg/logger"
	"github.com/wonny/prophet/pkg/metrics"
	"github.com/wonny/prophet/pkg/redis"
)

// SourceSpec registers a source with the assembler
type SourceSpec struct {
	Source   Source
	Required bool    // 실패 시 종목 전체를 건너뜀
	Limiter  Limiter // nil이면 제한 없음
}

// Assembler implements contracts.Collector over several sources.
// Sources run concurrently; on overlapping features the later source wins.
// ⭐ SSOT: FeatureSnapshot 조립은 여기서만
type Assembler struct {
	sources  []*guarded
	cache    *redis.Cache
	cacheTTL time.Duration
	metrics  *metrics.Recorder
	logger   *logger.Logger
}

// NewAssembler creates an assembler with the default breaker settings
func NewAssembler(log *logger.Logger, specs ...SourceSpec) *Assembler {
	return NewAssemblerWithBreaker(log, DefaultBreakerSettings, specs...)
}

// NewAssemblerWithBreaker creates an assembler with custom breaker settings
func NewAssemblerWithBreaker(log *logger.Logger, settings BreakerSettings, specs ...SourceSpec) *Assembler {
	log = log.WithComponent("collector")
	a := &Assembler{logger: log}
	for _, spec := range specs {
		a.sources = append(a.sources, newGuarded(spec, settings, log))
	}
	return a
}

// WithCache caches assembled snapshots per ticker and as-of date
func (a *Assembler) WithCache(cache *redis.Cache, ttl time.Duration) *Assembler {
	a.cache = cache
	a.cacheTTL = ttl
	return a
}

// WithMetrics records source failures
func (a *Assembler) WithMetrics(rec *metrics.Recorder) *Assembler {
	a.metrics = rec
	return a
}

// Sources returns the registered source names in merge order
func (a *Assembler) Sources() []string {
	names := make([]string, len(a.sources))
	for i, g := range a.sources {
		names[i] = g.name()
	}
	return names
}

// FetchSnapshot collects, merges and sanitizes the features of one ticker
func (a *Assembler) FetchSnapshot(ctx context.Context, ticker contracts.Ticker, asOf time.Time) (*contracts.FeatureSnapshot, error) {
	log := a.logger.WithField("ticker", ticker)
	key := redis.SnapshotKey(string(ticker), asOf)

	if a.cache.Enabled() {
		var doc contracts.SnapshotDocument
		found, err := a.cache.Get(ctx, key, &doc)
		if err != nil {
			log.WithError(err).Warn("Snapshot cache read failed")
		}
		if found {
			log.Debug("Snapshot cache hit")
			return doc.Build(), nil
		}
	}

	docs := make([]*contracts.SnapshotDocument, len(a.sources))
	g, gctx := errgroup.WithContext(ctx)
	for i, src := range a.sources {
		g.Go(func() error {
			doc, err := src.fill(gctx, ticker, asOf)
			if err == nil {
				docs[i] = &doc
				return nil
			}

			reason := contracts.SkipReason(err)
			a.metrics.RecordSourceError(src.name(), reason)
			if src.required {
				return err
			}
			log.WithError(err).WithFields(map[string]interface{}{
				"source": src.name(),
				"reason": reason,
			}).Warn("Optional source failed, features left absent")
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := contracts.SnapshotDocument{
		Ticker:  ticker,
		AsOf:    asOf,
		Numbers: make(map[string]float64),
		Labels:  make(map[string]string),
		Series:  make(map[string][]float64),
	}
	for _, doc := range docs {
		if doc == nil {
			continue
		}
		for k, v := range doc.Numbers {
			merged.Numbers[k] = v
		}
		for k, v := range doc.Labels {
			merged.Labels[k] = v
		}
		for k, v := range doc.Series {
			merged.Series[k] = v
		}
	}

	dropped := Sanitize(&merged)
	snap := merged.Build()

	log.WithFields(map[string]interface{}{
		"features": snap.Len(),
		"dropped":  dropped,
	}).Debug("Snapshot assembled")

	if a.cache.Enabled() {
		if err := a.cache.Set(ctx, key, snap.Document(), a.cacheTTL); err != nil {
			log.WithError(err).Warn("Snapshot cache write failed")
		}
	}
	return snap, nil
}
