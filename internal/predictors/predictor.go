package predictors

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/wonny/prophet/internal/contracts"
	"github.com/wonny/prophet/internal/scoreconfig"
)

// Predictor turns a feature snapshot into one bounded sub-score
// ⭐ SSOT: 시그널 점수 계산은 Predictor 구현체에서만 (I/O 없음, 결정적)
type Predictor interface {
	ID() contracts.PredictorID
	Bounds() (min, max float64)
	Predict(snap *contracts.FeatureSnapshot) contracts.PredictorResult
}

// New returns the six predictors in canonical order
func New(cfg *scoreconfig.Config) []Predictor {
	return []Predictor{
		NewEPSDivergence(cfg.EPSDivergence),
		NewCreditDanger(cfg.CreditDanger),
		NewDividendFloor(cfg.DividendFloor),
		NewLiquidationFloor(cfg.LiquidationFloor),
		NewWhaleTracker(cfg.WhaleTracker),
		NewChickenSurvivor(cfg.ChickenSurvivor),
	}
}

// Guard runs a predictor and enforces its contract: a panic or a
// non-finite score becomes a degraded zero, and the score is rounded
// and kept inside the predictor's bounds.
func Guard(p Predictor, snap *contracts.FeatureSnapshot) (res contracts.PredictorResult) {
	lo, hi := p.Bounds()

	defer func() {
		if r := recover(); r != nil {
			res = contracts.PredictorResult{
				PredictorID: p.ID(),
				Score:       0,
				Min:         lo,
				Max:         hi,
				Rationale:   fmt.Sprintf("predictor failed: %v", r),
				MissingData: true,
			}
		}
	}()

	res = p.Predict(snap)
	res.PredictorID = p.ID()
	res.Min, res.Max = lo, hi

	if math.IsNaN(res.Score) || math.IsInf(res.Score, 0) {
		res.Score = 0
		res.MissingData = true
		res.Rationale = "non-finite score"
		return res
	}
	res.Score = clamp(contracts.RoundScore(res.Score), lo, hi)
	return res
}

// missing builds the neutral result for absent inputs
func missing(id contracts.PredictorID, lo, hi float64, fields ...string) contracts.PredictorResult {
	sort.Strings(fields)
	return contracts.PredictorResult{
		PredictorID:   id,
		Score:         0,
		Min:           lo,
		Max:           hi,
		Rationale:     "missing data: " + strings.Join(fields, ", "),
		MissingData:   true,
		MissingFields: fields,
	}
}

// number returns a finite numeric feature
func number(snap *contracts.FeatureSnapshot, name string) (float64, bool) {
	v, ok := snap.Number(name)
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

func clamp01(v float64) float64 {
	return clamp(v, 0, 1)
}
