package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/prophet/internal/contracts"
	"github.com/wonny/prophet/internal/scoreconfig"
)

var asOf = time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)

// mixedSnapshot scores EPS 25, credit 0, dividend 10, liquidation 3,
// whale 12 and chicken 5 under the default thresholds.
func mixedSnapshot(ticker contracts.Ticker, marginRatio float64) *contracts.FeatureSnapshot {
	streak := func(n int) []float64 {
		s := []float64{-1}
		for i := 0; i < n; i++ {
			s = append(s, 1000)
		}
		return s
	}

	return contracts.NewSnapshotBuilder(ticker, asOf).
		SetNumber(contracts.FeaturePrice, 36000).
		SetNumber(contracts.FeatureForwardEPS, 5500). // fair 66000, gap 0.8333
		SetNumber(contracts.FeatureMarginDebtRatio, marginRatio).
		SetNumber(contracts.FeatureDividendYieldPct, 4.0).
		SetNumber(contracts.FeatureLiquidationTriggerPrice, 36000/1.08).
		SetSeries(contracts.FeatureNetBuyForeign, streak(7)).
		SetSeries(contracts.FeatureNetBuyPension, streak(5)).
		SetNumber(contracts.FeatureLargeHoldingFilings, 0).
		SetLabel(contracts.FeatureIndustryState, "consolidating").
		SetNumber(contracts.FeatureIndustryConcentration, 0.5).
		SetNumber(contracts.FeatureMarketShare, 0.30).
		Build()
}

func newEngine(t *testing.T) *Engine {
	t.Helper()
	e, err := New(scoreconfig.Default())
	require.NoError(t, err)
	return e
}

func TestEvaluate_MixedSignalsWatch(t *testing.T) {
	v := newEngine(t).Evaluate(mixedSnapshot("005930", 0.5))

	want := map[contracts.PredictorID]float64{
		contracts.PredictorEPSDivergence:    25,
		contracts.PredictorCreditDanger:     0,
		contracts.PredictorDividendFloor:    10,
		contracts.PredictorLiquidationFloor: 3,
		contracts.PredictorWhaleTracker:     12,
		contracts.PredictorChickenSurvivor:  5,
	}
	for id, score := range want {
		c, ok := v.Score.Component(id)
		require.True(t, ok, id)
		assert.InDelta(t, score, c.Score, 1e-6, id)
		assert.False(t, c.MissingData, id)
	}

	assert.InDelta(t, 55, v.Score.Total, 1e-6)
	assert.False(t, v.Score.Vetoed)
	assert.Equal(t, contracts.TierWatch, v.Tier)
}

func TestEvaluate_CreditVeto(t *testing.T) {
	// ratio 0.84 → credit -35
	v := newEngine(t).Evaluate(mixedSnapshot("005930", 0.84))

	credit, ok := v.Score.Component(contracts.PredictorCreditDanger)
	require.True(t, ok)
	assert.InDelta(t, -35, credit.Score, 1e-6)
	assert.True(t, v.Score.Vetoed)
	assert.Equal(t, -100.0, v.Score.Total)
	assert.Equal(t, contracts.TierForbidden, v.Tier)
}

func TestEvaluate_CreditVetoAtThreshold(t *testing.T) {
	// ratio 0.82 → credit exactly -30, the veto line
	v := newEngine(t).Evaluate(mixedSnapshot("005930", 0.82))

	credit, ok := v.Score.Component(contracts.PredictorCreditDanger)
	require.True(t, ok)
	assert.Equal(t, -30.0, credit.Score)
	assert.InDelta(t, 25, v.Score.RawTotal, 1e-9)
	assert.True(t, v.Score.Vetoed)
	assert.Equal(t, -100.0, v.Score.Total)
	assert.Equal(t, contracts.TierForbidden, v.Tier)
}

func TestEvaluate_AllMissing(t *testing.T) {
	v := newEngine(t).Evaluate(contracts.NewSnapshotBuilder("005930", asOf).Build())

	assert.Equal(t, 0.0, v.Score.Total)
	assert.Equal(t, contracts.TierNone, v.Tier)
	assert.Equal(t, contracts.PredictorOrder, v.Score.Degraded())
	for _, c := range v.Score.Components {
		assert.True(t, c.MissingData, c.PredictorID)
		assert.Equal(t, 0.0, c.Score, c.PredictorID)
	}
}

func TestEvaluate_Deterministic(t *testing.T) {
	e := newEngine(t)
	snap := mixedSnapshot("005930", 0.77)

	first := e.Evaluate(snap)
	for i := 0; i < 100; i++ {
		require.Equal(t, first, e.Evaluate(snap))
	}
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	cfg := scoreconfig.Default()
	cfg.Classification.Watch = 70 // above likely

	_, err := New(cfg)
	require.Error(t, err)

	var verr scoreconfig.ValidationError
	assert.ErrorAs(t, err, &verr)
}
