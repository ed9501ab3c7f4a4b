package contracts

import (
	"math"
	"time"
)

// PredictorID identifies one of the six predictors
type PredictorID string

const (
	PredictorEPSDivergence    PredictorID = "eps_divergence"
	PredictorCreditDanger     PredictorID = "credit_danger"
	PredictorDividendFloor    PredictorID = "dividend_floor"
	PredictorLiquidationFloor PredictorID = "liquidation_floor"
	PredictorWhaleTracker     PredictorID = "whale_tracker"
	PredictorChickenSurvivor  PredictorID = "chicken_survivor"
)

// PredictorOrder is the canonical component order of a CompositeScore
var PredictorOrder = []PredictorID{
	PredictorEPSDivergence,
	PredictorCreditDanger,
	PredictorDividendFloor,
	PredictorLiquidationFloor,
	PredictorWhaleTracker,
	PredictorChickenSurvivor,
}

// Factor is one observed input and the points it contributed
type Factor struct {
	Name   string  `json:"name"`
	Value  float64 `json:"value"`
	Points float64 `json:"points"`
}

// PredictorResult is a bounded sub-score produced by one predictor
// ⭐ SSOT: Predictor → Synthesizer 점수 전달
type PredictorResult struct {
	PredictorID   PredictorID `json:"predictor_id"`
	Score         float64     `json:"score"`
	Min           float64     `json:"min"`
	Max           float64     `json:"max"`
	Rationale     string      `json:"rationale"`
	Factors       []Factor    `json:"factors,omitempty"`
	MissingData   bool        `json:"missing_data"`
	MissingFields []string    `json:"missing_fields,omitempty"`
}

// scoreScale rounds scores to 1e-9 points before they are compared or summed
const scoreScale = 1e9

// RoundScore snaps v to the 1e-9 grid so that -29.999999999999989 is -30
func RoundScore(v float64) float64 {
	return math.Round(v*scoreScale) / scoreScale
}

// InBounds reports whether Min <= Score <= Max
func (r PredictorResult) InBounds() bool {
	return r.Min <= r.Score && r.Score <= r.Max
}

// CompositeScore aggregates the six predictor results for one ticker
// ⭐ SSOT: Synthesizer → Classifier 점수 전달
type CompositeScore struct {
	Ticker     Ticker            `json:"ticker"`
	AsOf       time.Time         `json:"as_of"`
	Total      float64           `json:"total"`
	RawTotal   float64           `json:"raw_total"`
	Components []PredictorResult `json:"components"`
	Vetoed     bool              `json:"vetoed"`
}

// Component returns the component produced by a predictor
func (c CompositeScore) Component(id PredictorID) (PredictorResult, bool) {
	for _, r := range c.Components {
		if r.PredictorID == id {
			return r, true
		}
	}
	return PredictorResult{}, false
}

// Degraded returns the predictors that scored on missing data
func (c CompositeScore) Degraded() []PredictorID {
	var ids []PredictorID
	for _, r := range c.Components {
		if r.MissingData {
			ids = append(ids, r.PredictorID)
		}
	}
	return ids
}

// IsDegraded reports whether any component lacked data
func (c CompositeScore) IsDegraded() bool {
	return len(c.Degraded()) > 0
}
