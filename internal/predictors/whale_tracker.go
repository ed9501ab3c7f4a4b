package predictors

import (
	"fmt"
	"math"
	"strings"

	"github.com/wonny/prophet/internal/contracts"
	"github.com/wonny/prophet/internal/scoreconfig"
)

const (
	whaleMin = 0.0
	whaleMax = 15.0
)

// WhaleTracker rewards sustained net buying by large holders
// ⭐ SSOT: 연기금/외국인 연속 순매수 + 대량보유 공시 (0 ~ 15)
type WhaleTracker struct {
	cfg scoreconfig.WhaleTracker
}

// NewWhaleTracker creates the whale tracker predictor
func NewWhaleTracker(cfg scoreconfig.WhaleTracker) *WhaleTracker {
	return &WhaleTracker{cfg: cfg}
}

// ID returns the predictor ID
func (p *WhaleTracker) ID() contracts.PredictorID {
	return contracts.PredictorWhaleTracker
}

// Bounds returns the score range
func (p *WhaleTracker) Bounds() (float64, float64) {
	return whaleMin, whaleMax
}

// Predict computes the score
func (p *WhaleTracker) Predict(snap *contracts.FeatureSnapshot) contracts.PredictorResult {
	var (
		factors []contracts.Factor
		parts   []string
		absent  []string
		total   float64
		seen    int
	)

	for _, account := range p.cfg.Accounts {
		name := contracts.NetBuySeries(account)
		series, ok := snap.Series(name)
		if !ok {
			absent = append(absent, name)
			continue
		}
		seen++

		streak := p.Streak(series)
		points := 0.0
		if streak >= p.cfg.MinConsecutiveDays {
			points = p.cfg.AccountPoints * math.Min(float64(streak)/float64(p.cfg.SaturationDays), 1)
		}
		total += points
		factors = append(factors, contracts.Factor{Name: name, Value: float64(streak), Points: points})
		parts = append(parts, fmt.Sprintf("%s %dd", account, streak))
	}

	filings, hasFilings := number(snap, contracts.FeatureLargeHoldingFilings)
	if hasFilings {
		seen++
		bonus := 0.0
		if filings > 0 {
			bonus = p.cfg.LargeHoldingBonus
		}
		total += bonus
		factors = append(factors, contracts.Factor{Name: contracts.FeatureLargeHoldingFilings, Value: filings, Points: bonus})
		parts = append(parts, fmt.Sprintf("%.0f large-holding filings", filings))
	} else {
		absent = append(absent, contracts.FeatureLargeHoldingFilings)
	}

	if seen == 0 {
		return missing(p.ID(), whaleMin, whaleMax, absent...)
	}

	score := clamp(total, whaleMin, whaleMax)
	return contracts.PredictorResult{
		PredictorID: p.ID(),
		Score:       score,
		Min:         whaleMin,
		Max:         whaleMax,
		Rationale:   "net-buy streaks: " + strings.Join(parts, ", "),
		Factors:     factors,
	}
}

// Streak counts trailing consecutive net-buy days within the lookback window
func (p *WhaleTracker) Streak(series []float64) int {
	if len(series) > p.cfg.LookbackDays {
		series = series[len(series)-p.cfg.LookbackDays:]
	}

	streak := 0
	for i := len(series) - 1; i >= 0; i-- {
		if series[i] <= p.cfg.MinNetBuy {
			break
		}
		streak++
	}
	return streak
}
