package predictors

import (
	"fmt"

	"github.com/wonny/prophet/internal/contracts"
	"github.com/wonny/prophet/internal/scoreconfig"
)

const (
	liquidationMin = 0.0
	liquidationMax = 5.0
)

// LiquidationFloor scores proximity to a forced-liquidation trigger price
// ⭐ SSOT: 담보 반대매매 물량 소화 후 바닥 (0 ~ 5)
type LiquidationFloor struct {
	cfg scoreconfig.LiquidationFloor
}

// NewLiquidationFloor creates the liquidation floor predictor
func NewLiquidationFloor(cfg scoreconfig.LiquidationFloor) *LiquidationFloor {
	return &LiquidationFloor{cfg: cfg}
}

// ID returns the predictor ID
func (p *LiquidationFloor) ID() contracts.PredictorID {
	return contracts.PredictorLiquidationFloor
}

// Bounds returns the score range
func (p *LiquidationFloor) Bounds() (float64, float64) {
	return liquidationMin, liquidationMax
}

// Predict computes the score
func (p *LiquidationFloor) Predict(snap *contracts.FeatureSnapshot) contracts.PredictorResult {
	var absent []string

	price, ok := number(snap, contracts.FeaturePrice)
	if !ok || price <= 0 {
		absent = append(absent, contracts.FeaturePrice)
	}
	trigger, ok := number(snap, contracts.FeatureLiquidationTriggerPrice)
	if !ok || trigger <= 0 {
		absent = append(absent, contracts.FeatureLiquidationTriggerPrice)
	}
	if len(absent) > 0 {
		return missing(p.ID(), liquidationMin, liquidationMax, absent...)
	}

	// 0 이하: 이미 반대매매 구간 도달
	distance := (price - trigger) / trigger
	score := liquidationMax * clamp01(1-distance/p.cfg.Band)

	return contracts.PredictorResult{
		PredictorID: p.ID(),
		Score:       score,
		Min:         liquidationMin,
		Max:         liquidationMax,
		Rationale:   fmt.Sprintf("price %.0f is %+.1f%% from liquidation trigger %.0f", price, distance*100, trigger),
		Factors: []contracts.Factor{
			{Name: "liquidation_trigger_price", Value: trigger},
			{Name: "distance", Value: distance, Points: score},
		},
	}
}
