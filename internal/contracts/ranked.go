package contracts

import (
	"fmt"
	"strings"
)

// Tier is the discrete classification of a CompositeScore
type Tier string

const (
	TierImminent  Tier = "IMMINENT"
	TierLikely    Tier = "LIKELY"
	TierWatch     Tier = "WATCH"
	TierNone      Tier = "NONE"
	TierForbidden Tier = "FORBIDDEN"
)

// Rank orders tiers from FORBIDDEN (0) to IMMINENT (4)
func (t Tier) Rank() int {
	switch t {
	case TierImminent:
		return 4
	case TierLikely:
		return 3
	case TierWatch:
		return 2
	case TierNone:
		return 1
	default:
		return 0
	}
}

// ParseTier parses a tier name (case-insensitive)
func ParseTier(s string) (Tier, error) {
	t := Tier(strings.ToUpper(strings.TrimSpace(s)))
	switch t {
	case TierImminent, TierLikely, TierWatch, TierNone, TierForbidden:
		return t, nil
	}
	return "", fmt.Errorf("unknown tier %q", s)
}

// Verdict is the final output for one ticker
// ⭐ SSOT: Classifier → Alert 결과 전달
type Verdict struct {
	Tier  Tier           `json:"tier"`
	Score CompositeScore `json:"score"`
}

// Ticker returns the verdict's ticker
func (v Verdict) Ticker() Ticker {
	return v.Score.Ticker
}

// IsForbidden reports whether the ticker must not be bought
func (v Verdict) IsForbidden() bool {
	return v.Tier == TierForbidden
}
