package predictors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/prophet/internal/contracts"
	"github.com/wonny/prophet/internal/scoreconfig"
)

func TestEPSDivergence_Predict(t *testing.T) {
	p := NewEPSDivergence(scoreconfig.Default().EPSDivergence)

	tests := []struct {
		name        string
		price       float64
		forward     float64
		trailing    float64
		wantScore   float64
		wantMissing []string
	}{
		{
			name:      "fair value equals price",
			price:     60000,
			forward:   5000, // fair 60000
			wantScore: 0,
		},
		{
			name:      "half gap",
			price:     40000,
			forward:   5000, // fair 60000, gap 0.5
			wantScore: 15,
		},
		{
			name:      "gap beyond full scale saturates",
			price:     20000,
			forward:   5000, // gap 2.0
			wantScore: 30,
		},
		{
			name:      "overvalued floors at zero",
			price:     100000,
			forward:   5000,
			wantScore: 0,
		},
		{
			name:      "trailing EPS fallback",
			price:     50000,
			trailing:  5000, // fair 60000, gap 0.2
			wantScore: 6,
		},
		{
			name:        "no EPS",
			price:       50000,
			wantMissing: []string{contracts.FeatureForwardEPS, contracts.FeatureTrailingEPS},
		},
		{
			name:        "zero price",
			price:       0,
			forward:     5000,
			wantMissing: []string{contracts.FeaturePrice},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := snapshot(func(b *contracts.SnapshotBuilder) {
				b.SetNumber(contracts.FeaturePrice, tt.price)
				if tt.forward != 0 {
					b.SetNumber(contracts.FeatureForwardEPS, tt.forward)
				}
				if tt.trailing != 0 {
					b.SetNumber(contracts.FeatureTrailingEPS, tt.trailing)
				}
			})

			res := p.Predict(snap)
			if tt.wantMissing != nil {
				assert.True(t, res.MissingData)
				assert.ElementsMatch(t, tt.wantMissing, res.MissingFields)
				assert.Equal(t, 0.0, res.Score)
				return
			}
			assert.False(t, res.MissingData)
			assert.InDelta(t, tt.wantScore, res.Score, 1e-9)
		})
	}
}

func TestEPSDivergence_MonotonicInGap(t *testing.T) {
	p := NewEPSDivergence(scoreconfig.Default().EPSDivergence)

	prev := -1.0
	// fair value fixed at 60000; lower price means larger gap
	for price := 120000.0; price >= 10000; price -= 2500 {
		snap := snapshot(func(b *contracts.SnapshotBuilder) {
			b.SetNumber(contracts.FeaturePrice, price).SetNumber(contracts.FeatureForwardEPS, 5000)
		})
		res := p.Predict(snap)
		require.GreaterOrEqual(t, res.Score, prev, "price %.0f", price)
		prev = res.Score
	}
	assert.Equal(t, 30.0, prev)
}

func TestEPSDivergence_PatternInRationale(t *testing.T) {
	p := NewEPSDivergence(scoreconfig.Default().EPSDivergence)
	snap := snapshot(func(b *contracts.SnapshotBuilder) {
		b.SetNumber(contracts.FeaturePrice, 40000).
			SetNumber(contracts.FeatureForwardEPS, 5000).
			SetNumber(contracts.FeatureEPSGrowthPct, 20).
			SetNumber(contracts.FeaturePriceChangePct, -8)
	})

	res := p.Predict(snap)
	assert.Contains(t, res.Rationale, PatternSpringLoading)
}

func TestClassifyEPSPattern(t *testing.T) {
	tests := []struct {
		growth, change float64
		want           string
	}{
		{growth: 12, change: -3, want: PatternSpringLoading},
		{growth: 2, change: 10, want: PatternFloating},
		{growth: 12, change: 10, want: PatternHealthy},
		{growth: -5, change: -10, want: PatternFalling},
		{growth: 5, change: 0, want: PatternFalling}, // 5% 초과해야 EPS↑
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifyEPSPattern(tt.growth, tt.change, 5))
		})
	}
}
