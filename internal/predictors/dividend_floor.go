package predictors

import (
	"fmt"

	"github.com/wonny/prophet/internal/contracts"
	"github.com/wonny/prophet/internal/scoreconfig"
)

const (
	dividendMin = 0.0
	dividendMax = 15.0
)

// DividendFloor rewards yield support under the price
// ⭐ SSOT: 배당수익률 하방 지지 (0 ~ 15)
type DividendFloor struct {
	cfg scoreconfig.DividendFloor
}

// NewDividendFloor creates the dividend floor predictor
func NewDividendFloor(cfg scoreconfig.DividendFloor) *DividendFloor {
	return &DividendFloor{cfg: cfg}
}

// ID returns the predictor ID
func (p *DividendFloor) ID() contracts.PredictorID {
	return contracts.PredictorDividendFloor
}

// Bounds returns the score range
func (p *DividendFloor) Bounds() (float64, float64) {
	return dividendMin, dividendMax
}

// Predict computes the score
func (p *DividendFloor) Predict(snap *contracts.FeatureSnapshot) contracts.PredictorResult {
	yield, ok := number(snap, contracts.FeatureDividendYieldPct)
	if !ok || yield < 0 {
		return missing(p.ID(), dividendMin, dividendMax, contracts.FeatureDividendYieldPct)
	}

	frac := (yield - p.cfg.FloorYieldPct) / (p.cfg.CeilingYieldPct - p.cfg.FloorYieldPct)
	score := dividendMax * clamp01(frac)

	return contracts.PredictorResult{
		PredictorID: p.ID(),
		Score:       score,
		Min:         dividendMin,
		Max:         dividendMax,
		Rationale:   fmt.Sprintf("dividend yield %.2f%% (floor %.1f%%, ceiling %.1f%%)", yield, p.cfg.FloorYieldPct, p.cfg.CeilingYieldPct),
		Factors: []contracts.Factor{
			{Name: "dividend_yield_pct", Value: yield, Points: score},
		},
	}
}
