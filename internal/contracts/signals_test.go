package contracts

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotBuilder_BuildIsDetached(t *testing.T) {
	asOf := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	series := []float64{1, 2, 3}

	b := NewSnapshotBuilder("005930", asOf).
		SetNumber(FeaturePrice, 70000).
		SetLabel(FeatureIndustryState, "consolidating").
		SetSeries(FeatureNetBuyForeign, series)
	snap := b.Build()

	// mutating inputs after Build must not leak into the snapshot
	series[0] = 99
	b.SetNumber(FeaturePrice, 1)
	got, ok := snap.Series(FeatureNetBuyForeign)
	require.True(t, ok)
	got[1] = 42

	again, _ := snap.Series(FeatureNetBuyForeign)
	assert.Equal(t, []float64{1, 2, 3}, again)

	price, ok := snap.Number(FeaturePrice)
	require.True(t, ok)
	assert.Equal(t, 70000.0, price)

	state, ok := snap.Label(FeatureIndustryState)
	require.True(t, ok)
	assert.Equal(t, "consolidating", state)

	assert.Equal(t, Ticker("005930"), snap.Ticker())
	assert.Equal(t, asOf, snap.AsOf())
	assert.Equal(t, 3, snap.Len())
	assert.True(t, snap.Has(FeatureNetBuyForeign))
	assert.False(t, snap.Has(FeatureDividendYieldPct))
}

func TestFeatureSnapshot_JSON(t *testing.T) {
	asOf := time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC)
	snap := NewSnapshotBuilder("000660", asOf).
		SetNumber(FeatureDividendYieldPct, 3.1).
		SetSeries(FeatureNetBuyPension, []float64{10, -2, 5}).
		Build()

	data, err := json.Marshal(snap)
	require.NoError(t, err)

	var decoded FeatureSnapshot
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, snap.Names(), decoded.Names())
	assert.Equal(t, snap.Document(), decoded.Document())
}

func TestCompositeScore_Degraded(t *testing.T) {
	score := CompositeScore{
		Components: []PredictorResult{
			{PredictorID: PredictorEPSDivergence, Score: 10},
			{PredictorID: PredictorCreditDanger, MissingData: true},
			{PredictorID: PredictorWhaleTracker, MissingData: true},
		},
	}

	assert.Equal(t, []PredictorID{PredictorCreditDanger, PredictorWhaleTracker}, score.Degraded())
	assert.True(t, score.IsDegraded())

	c, ok := score.Component(PredictorEPSDivergence)
	require.True(t, ok)
	assert.Equal(t, 10.0, c.Score)

	_, ok = score.Component(PredictorChickenSurvivor)
	assert.False(t, ok)
}

func TestTier_RankAndParse(t *testing.T) {
	tests := []struct {
		input   string
		want    Tier
		rank    int
		wantErr bool
	}{
		{input: "imminent", want: TierImminent, rank: 4},
		{input: "LIKELY", want: TierLikely, rank: 3},
		{input: " watch ", want: TierWatch, rank: 2},
		{input: "none", want: TierNone, rank: 1},
		{input: "forbidden", want: TierForbidden, rank: 0},
		{input: "maybe", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseTier(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.rank, got.Rank())
		})
	}
}

func TestRoundScore(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{-29.999999999999989, -30},
		{0.1 + 0.2, 0.3},
		{39.99999999999999, 40},
		{12.5, 12.5},
		{0, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, RoundScore(tt.in), fmt.Sprint(tt.in))
	}
}

func TestSkipReason(t *testing.T) {
	assert.Equal(t, SkipRateLimited, SkipReason(wrap(ErrRateLimited)))
	assert.Equal(t, SkipNotFound, SkipReason(wrap(ErrNotFound)))
	assert.Equal(t, SkipSourceUnavailable, SkipReason(wrap(ErrSourceUnavailable)))
	assert.Equal(t, SkipUnknown, SkipReason(assert.AnError))
}

func wrap(err error) error {
	return fmt.Errorf("naver: %w", err)
}
