package synthesizer

import (
	"math"
	"time"

	"github.com/wonny/prophet/internal/contracts"
	"github.com/wonny/prophet/internal/scoreconfig"
)

// Synthesizer aggregates predictor results into a CompositeScore
// ⭐ SSOT: 합산 → 클램프 → Credit Danger 거부권
type Synthesizer struct {
	cfg scoreconfig.Synthesis
}

// New creates a synthesizer
func New(cfg scoreconfig.Synthesis) *Synthesizer {
	return &Synthesizer{cfg: cfg}
}

// Synthesize sums the components, clamps the total and applies the credit veto.
// Components are returned in canonical order; a predictor with no result
// is carried as a degraded zero.
func (s *Synthesizer) Synthesize(ticker contracts.Ticker, asOf time.Time, results []contracts.PredictorResult) contracts.CompositeScore {
	components := canonical(results)

	raw := 0.0
	for _, r := range components {
		raw += r.Score
	}
	raw = contracts.RoundScore(raw)

	score := contracts.CompositeScore{
		Ticker:     ticker,
		AsOf:       asOf,
		RawTotal:   raw,
		Total:      math.Max(s.cfg.ClampMin, math.Min(s.cfg.ClampMax, raw)),
		Components: components,
	}

	// 거부권: 다른 점수와 무관하게 매수 금지
	if credit, ok := score.Component(contracts.PredictorCreditDanger); ok && !credit.MissingData {
		if contracts.RoundScore(credit.Score) <= s.cfg.VetoThreshold {
			score.Vetoed = true
			score.Total = s.cfg.VetoSentinel
		}
	}

	return score
}

func canonical(results []contracts.PredictorResult) []contracts.PredictorResult {
	byID := make(map[contracts.PredictorID]contracts.PredictorResult, len(results))
	for _, r := range results {
		byID[r.PredictorID] = r
	}

	out := make([]contracts.PredictorResult, 0, len(contracts.PredictorOrder))
	for _, id := range contracts.PredictorOrder {
		r, ok := byID[id]
		if !ok {
			r = contracts.PredictorResult{
				PredictorID: id,
				Rationale:   "no result",
				MissingData: true,
			}
		}
		if r.Factors != nil {
			r.Factors = append([]contracts.Factor(nil), r.Factors...)
		}
		if r.MissingFields != nil {
			r.MissingFields = append([]string(nil), r.MissingFields...)
		}
		out = append(out, r)
	}
	return out
}
