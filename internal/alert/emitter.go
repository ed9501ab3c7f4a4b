package alert

import (
	"context"

	"github.com/wonny/prophet/internal/contracts"
	"github.com/wonny/prophet/pkg/logger"
)

// LogEmitter writes each verdict as a structured log line
type LogEmitter struct {
	logger *logger.Logger
}

// NewLogEmitter creates a log emitter
func NewLogEmitter(log *logger.Logger) *LogEmitter {
	return &LogEmitter{logger: log.WithComponent("alert")}
}

// Emit logs the verdict
func (e *LogEmitter) Emit(ctx context.Context, v contracts.Verdict) {
	e.logger.WithFields(map[string]interface{}{
		"ticker":   v.Ticker(),
		"tier":     v.Tier,
		"total":    v.Score.Total,
		"vetoed":   v.Score.Vetoed,
		"degraded": v.Score.Degraded(),
	}).Info(Headline(v.Tier))
}

// Fanout forwards every verdict to each emitter in order
type Fanout []contracts.Emitter

// Emit forwards the verdict
func (f Fanout) Emit(ctx context.Context, v contracts.Verdict) {
	for _, e := range f {
		e.Emit(ctx, v)
	}
}

// TierFilter forwards only verdicts at or above a tier
type TierFilter struct {
	min  contracts.Tier
	next contracts.Emitter
}

// MinTier wraps next so that lower tiers are dropped
func MinTier(min contracts.Tier, next contracts.Emitter) *TierFilter {
	return &TierFilter{min: min, next: next}
}

// Emit forwards the verdict when its tier ranks at least the minimum
func (f *TierFilter) Emit(ctx context.Context, v contracts.Verdict) {
	if v.Tier.Rank() < f.min.Rank() {
		return
	}
	f.next.Emit(ctx, v)
}
