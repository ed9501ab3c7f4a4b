package predictors

import (
	"fmt"
	"strings"

	"github.com/wonny/prophet/internal/contracts"
	"github.com/wonny/prophet/internal/scoreconfig"
)

const (
	chickenMin = 0.0
	chickenMax = 10.0
)

// ChickenSurvivor rewards dominant survivors of an industry shakeout
// ⭐ SSOT: 치킨게임 종료 업종의 생존자 (0 ~ 10)
type ChickenSurvivor struct {
	cfg scoreconfig.ChickenSurvivor
}

// NewChickenSurvivor creates the chicken-game survivor predictor
func NewChickenSurvivor(cfg scoreconfig.ChickenSurvivor) *ChickenSurvivor {
	return &ChickenSurvivor{cfg: cfg}
}

// ID returns the predictor ID
func (p *ChickenSurvivor) ID() contracts.PredictorID {
	return contracts.PredictorChickenSurvivor
}

// Bounds returns the score range
func (p *ChickenSurvivor) Bounds() (float64, float64) {
	return chickenMin, chickenMax
}

// Predict computes the score
func (p *ChickenSurvivor) Predict(snap *contracts.FeatureSnapshot) contracts.PredictorResult {
	state, ok := snap.Label(contracts.FeatureIndustryState)
	if !ok || strings.TrimSpace(state) == "" {
		return missing(p.ID(), chickenMin, chickenMax, contracts.FeatureIndustryState)
	}

	if !p.isShakeout(state) {
		return contracts.PredictorResult{
			PredictorID: p.ID(),
			Score:       0,
			Min:         chickenMin,
			Max:         chickenMax,
			Rationale:   fmt.Sprintf("industry state %q is not a shakeout", state),
		}
	}

	var absent []string
	concentration, ok := number(snap, contracts.FeatureIndustryConcentration)
	if !ok {
		absent = append(absent, contracts.FeatureIndustryConcentration)
	}
	share, ok := number(snap, contracts.FeatureMarketShare)
	if !ok {
		absent = append(absent, contracts.FeatureMarketShare)
	}
	if len(absent) > 0 {
		return missing(p.ID(), chickenMin, chickenMax, absent...)
	}

	score := chickenMax * clamp01(concentration) * clamp01(share/p.cfg.ShareSaturation)

	return contracts.PredictorResult{
		PredictorID: p.ID(),
		Score:       score,
		Min:         chickenMin,
		Max:         chickenMax,
		Rationale:   fmt.Sprintf("industry %s, concentration %.2f, market share %.1f%%", state, concentration, share*100),
		Factors: []contracts.Factor{
			{Name: "industry_concentration", Value: concentration},
			{Name: "market_share", Value: share, Points: score},
		},
	}
}

func (p *ChickenSurvivor) isShakeout(state string) bool {
	for _, s := range p.cfg.ShakeoutStates {
		if strings.EqualFold(s, strings.TrimSpace(state)) {
			return true
		}
	}
	return false
}
