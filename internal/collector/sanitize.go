package collector

import (
	"math"
	"sort"
	"strings"

	"github.com/wonny/prophet/internal/contracts"
)

type numberRule func(v float64) bool

func positive(v float64) bool    { return v > 0 }
func nonNegative(v float64) bool { return v >= 0 }
func unit(v float64) bool        { return v >= 0 && v <= 1 }
func anyFinite(float64) bool     { return true }

// numberRules lists the admissible range of every known numeric feature.
// Unknown features only need to be finite.
var numberRules = map[string]numberRule{
	contracts.FeaturePrice:                   positive,
	contracts.FeatureTrailingEPS:             anyFinite,
	contracts.FeatureForwardEPS:              anyFinite,
	contracts.FeatureEPSGrowthPct:            anyFinite,
	contracts.FeaturePriceChangePct:          func(v float64) bool { return v >= -100 },
	contracts.FeatureDividendYieldPct:        func(v float64) bool { return v >= 0 && v <= 100 },
	contracts.FeatureMarginDebtRatio:         unit,
	contracts.FeatureMarginDebtChange:        func(v float64) bool { return v >= -1 },
	contracts.FeatureLiquidationTriggerPrice: positive,
	contracts.FeatureLargeHoldingFilings:     nonNegative,
	contracts.FeatureIndustryConcentration:   unit,
	contracts.FeatureMarketShare:             unit,
}

// Sanitize drops non-finite and impossible values from doc in place and
// returns the dropped feature names, sorted.
// ⭐ SSOT: 스냅샷 품질 검증 (동결 전 마지막 단계)
func Sanitize(doc *contracts.SnapshotDocument) []string {
	var dropped []string

	for name, v := range doc.Numbers {
		rule, ok := numberRules[name]
		if !ok {
			rule = anyFinite
		}
		if math.IsNaN(v) || math.IsInf(v, 0) || !rule(v) {
			delete(doc.Numbers, name)
			dropped = append(dropped, name)
		}
	}

	for name, v := range doc.Labels {
		if s := strings.TrimSpace(v); s == "" {
			delete(doc.Labels, name)
			dropped = append(dropped, name)
		} else {
			doc.Labels[name] = s
		}
	}

	// 하나라도 비정상이면 시계열 전체를 버림 (연속성 판단이 왜곡됨)
	for name, s := range doc.Series {
		for _, v := range s {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				delete(doc.Series, name)
				dropped = append(dropped, name)
				break
			}
		}
	}

	sort.Strings(dropped)
	return dropped
}
