package synthesizer

import (
	"github.com/wonny/prophet/internal/contracts"
	"github.com/wonny/prophet/internal/scoreconfig"
)

// Classifier maps a CompositeScore to a Tier
// ⭐ SSOT: 등급 판정 (첫 번째 일치 규칙, 하한 포함)
type Classifier struct {
	cfg scoreconfig.Classification
}

// NewClassifier creates a classifier
func NewClassifier(cfg scoreconfig.Classification) *Classifier {
	return &Classifier{cfg: cfg}
}

// Classify returns the verdict for a composite score
func (c *Classifier) Classify(score contracts.CompositeScore) contracts.Verdict {
	return contracts.Verdict{Tier: c.Tier(score), Score: score}
}

// Tier returns the tier only
func (c *Classifier) Tier(score contracts.CompositeScore) contracts.Tier {
	switch {
	case score.Vetoed:
		return contracts.TierForbidden
	case score.Total < 0:
		return contracts.TierForbidden
	case score.Total >= c.cfg.Imminent:
		return contracts.TierImminent
	case score.Total >= c.cfg.Likely:
		return contracts.TierLikely
	case score.Total >= c.cfg.Watch:
		return contracts.TierWatch
	default:
		return contracts.TierNone
	}
}
