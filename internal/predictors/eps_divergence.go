package predictors

import (
	"fmt"

	"github.com/wonny/prophet/internal/contracts"
	"github.com/wonny/prophet/internal/scoreconfig"
)

const (
	epsMin = 0.0
	epsMax = 30.0
)

// EPS patterns (growth vs price direction)
const (
	PatternSpringLoading = "spring_loading" // EPS↑ 주가↓
	PatternFloating      = "floating"       // EPS↓ 주가↑
	PatternHealthy       = "healthy"        // EPS↑ 주가↑
	PatternFalling       = "falling"        // EPS↓ 주가↓
)

// EPSDivergence scores the gap between price and EPS-implied fair value
// ⭐ SSOT: "주가는 EPS에 수렴한다" - 적정가 대비 저평가 폭 (0 ~ 30)
type EPSDivergence struct {
	cfg scoreconfig.EPSDivergence
}

// NewEPSDivergence creates the EPS divergence predictor
func NewEPSDivergence(cfg scoreconfig.EPSDivergence) *EPSDivergence {
	return &EPSDivergence{cfg: cfg}
}

// ID returns the predictor ID
func (p *EPSDivergence) ID() contracts.PredictorID {
	return contracts.PredictorEPSDivergence
}

// Bounds returns the score range
func (p *EPSDivergence) Bounds() (float64, float64) {
	return epsMin, epsMax
}

// Predict computes the score
func (p *EPSDivergence) Predict(snap *contracts.FeatureSnapshot) contracts.PredictorResult {
	var absent []string

	price, ok := number(snap, contracts.FeaturePrice)
	if !ok || price <= 0 {
		absent = append(absent, contracts.FeaturePrice)
	}

	// forward EPS 우선, 없으면 trailing
	eps, source := 0.0, ""
	if v, ok := number(snap, contracts.FeatureForwardEPS); ok {
		eps, source = v, "forward"
	} else if v, ok := number(snap, contracts.FeatureTrailingEPS); ok {
		eps, source = v, "trailing"
	} else {
		absent = append(absent, contracts.FeatureForwardEPS, contracts.FeatureTrailingEPS)
	}

	if len(absent) > 0 {
		return missing(p.ID(), epsMin, epsMax, absent...)
	}

	fair := eps * p.cfg.FairPER
	gap := (fair - price) / price
	score := clamp(epsMax*gap/p.cfg.FullScaleGap, epsMin, epsMax)

	rationale := fmt.Sprintf("fair %.0f vs price %.0f (gap %+.1f%%, %s EPS %.0f)", fair, price, gap*100, source, eps)
	if pattern, ok := p.pattern(snap); ok {
		rationale += ", pattern " + pattern
	}

	return contracts.PredictorResult{
		PredictorID: p.ID(),
		Score:       score,
		Min:         epsMin,
		Max:         epsMax,
		Rationale:   rationale,
		Factors: []contracts.Factor{
			{Name: "eps_" + source, Value: eps},
			{Name: "fair_price", Value: fair},
			{Name: "gap", Value: gap, Points: score},
		},
	}
}

// pattern labels EPS growth against price change; it does not affect the score
func (p *EPSDivergence) pattern(snap *contracts.FeatureSnapshot) (string, bool) {
	growth, ok1 := number(snap, contracts.FeatureEPSGrowthPct)
	change, ok2 := number(snap, contracts.FeaturePriceChangePct)
	if !ok1 || !ok2 {
		return "", false
	}
	return ClassifyEPSPattern(growth, change, p.cfg.GrowthThresholdPct), true
}

// ClassifyEPSPattern returns one of the four EPS/price patterns
func ClassifyEPSPattern(epsGrowthPct, priceChangePct, thresholdPct float64) string {
	epsUp := epsGrowthPct > thresholdPct
	priceUp := priceChangePct > 0

	switch {
	case epsUp && !priceUp:
		return PatternSpringLoading
	case !epsUp && priceUp:
		return PatternFloating
	case epsUp && priceUp:
		return PatternHealthy
	default:
		return PatternFalling
	}
}
