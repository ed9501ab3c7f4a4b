package predictors

import (
	"fmt"
	"math"

	"github.com/wonny/prophet/internal/contracts"
	"github.com/wonny/prophet/internal/scoreconfig"
)

const (
	creditMin = -50.0
	creditMax = 0.0
)

// Credit danger levels (rationale only)
const (
	CreditFearBottom = "fear_bottom"
	CreditNormal     = "normal"
	CreditCaution    = "caution"
	CreditExtreme    = "extreme"
)

// CreditDanger penalizes overheated margin debt
// ⭐ SSOT: 신용잔고 과열 감지 (-50 ~ 0), Synthesizer 거부권의 입력
type CreditDanger struct {
	cfg scoreconfig.CreditDanger
}

// NewCreditDanger creates the credit danger predictor
func NewCreditDanger(cfg scoreconfig.CreditDanger) *CreditDanger {
	return &CreditDanger{cfg: cfg}
}

// ID returns the predictor ID
func (p *CreditDanger) ID() contracts.PredictorID {
	return contracts.PredictorCreditDanger
}

// Bounds returns the score range
func (p *CreditDanger) Bounds() (float64, float64) {
	return creditMin, creditMax
}

// Predict computes the score
func (p *CreditDanger) Predict(snap *contracts.FeatureSnapshot) contracts.PredictorResult {
	ratio, ok := number(snap, contracts.FeatureMarginDebtRatio)
	if !ok || ratio < 0 {
		return missing(p.ID(), creditMin, creditMax, contracts.FeatureMarginDebtRatio)
	}

	// 변화율 없으면 0으로 간주
	change, _ := number(snap, contracts.FeatureMarginDebtChange)

	score := 0.0
	if ratio >= p.cfg.SafeRatio {
		severity := (ratio-p.cfg.SafeRatio)/(p.cfg.CriticalRatio-p.cfg.SafeRatio) +
			p.cfg.ChangeWeight*math.Max(change, 0)
		if severity > 0 {
			score = clamp(creditMin*math.Min(severity, 1), creditMin, creditMax)
		}
	}

	level := p.level(ratio)
	return contracts.PredictorResult{
		PredictorID: p.ID(),
		Score:       score,
		Min:         creditMin,
		Max:         creditMax,
		Rationale:   fmt.Sprintf("margin debt ratio %.2f, change %+.1f%% (%s)", ratio, change*100, level),
		Factors: []contracts.Factor{
			{Name: "margin_debt_ratio", Value: ratio, Points: score},
			{Name: "margin_debt_change", Value: change},
		},
	}
}

func (p *CreditDanger) level(ratio float64) string {
	switch {
	case ratio >= p.cfg.CriticalRatio:
		return CreditExtreme
	case ratio >= p.cfg.SafeRatio:
		return CreditCaution
	case ratio <= p.cfg.FearBottomRatio:
		return CreditFearBottom
	default:
		return CreditNormal
	}
}
