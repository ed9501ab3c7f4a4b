package collector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/prophet/internal/contracts"
	"github.com/wonny/prophet/pkg/logger"
	"github.com/wonny/prophet/pkg/redis"
)

var asOf = time.Date(2024, 6, 3, 0, 0, 0, 0, time.UTC)

type funcSource struct {
	name  string
	calls int32
	fn    func(b *contracts.SnapshotBuilder) error
}

func (s *funcSource) Name() string { return s.name }

func (s *funcSource) Fill(ctx context.Context, ticker contracts.Ticker, asOf time.Time, b *contracts.SnapshotBuilder) error {
	atomic.AddInt32(&s.calls, 1)
	return s.fn(b)
}

type failingLimiter struct{}

func (failingLimiter) Wait(ctx context.Context) error {
	return errors.New("rate: Wait(n=1) would exceed context deadline")
}

func numbers(kv map[string]float64) func(b *contracts.SnapshotBuilder) error {
	return func(b *contracts.SnapshotBuilder) error {
		for k, v := range kv {
			b.SetNumber(k, v)
		}
		return nil
	}
}

func failWith(err error) func(b *contracts.SnapshotBuilder) error {
	return func(b *contracts.SnapshotBuilder) error {
		// partial writes of a failed source never reach the snapshot
		b.SetNumber(contracts.FeatureMarketShare, 0.9)
		return err
	}
}

func TestAssembler_MergeOrder(t *testing.T) {
	primary := &funcSource{name: "primary", fn: numbers(map[string]float64{
		contracts.FeaturePrice:            36000,
		contracts.FeatureDividendYieldPct: 3.0,
	})}
	override := &funcSource{name: "override", fn: numbers(map[string]float64{
		contracts.FeatureDividendYieldPct: 4.0,
	})}

	a := NewAssembler(logger.NewNop(),
		SourceSpec{Source: primary, Required: true},
		SourceSpec{Source: override},
	)
	assert.Equal(t, []string{"primary", "override"}, a.Sources())

	snap, err := a.FetchSnapshot(context.Background(), "005930", asOf)
	require.NoError(t, err)

	price, _ := snap.Number(contracts.FeaturePrice)
	yield, _ := snap.Number(contracts.FeatureDividendYieldPct)
	assert.Equal(t, 36000.0, price)
	assert.Equal(t, 4.0, yield)
	assert.Equal(t, contracts.Ticker("005930"), snap.Ticker())
	assert.Equal(t, asOf, snap.AsOf())
}

func TestAssembler_OptionalFailureLeavesFeaturesAbsent(t *testing.T) {
	a := NewAssembler(logger.NewNop(),
		SourceSpec{Source: &funcSource{name: "primary", fn: numbers(map[string]float64{contracts.FeaturePrice: 100})}, Required: true},
		SourceSpec{Source: &funcSource{name: "flaky", fn: failWith(errors.New("connection reset by peer"))}},
	)

	snap, err := a.FetchSnapshot(context.Background(), "005930", asOf)
	require.NoError(t, err)
	assert.True(t, snap.Has(contracts.FeaturePrice))
	assert.False(t, snap.Has(contracts.FeatureMarketShare))
}

func TestAssembler_RequiredFailureSkipsTicker(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		reason string
	}{
		{"not found", fmt.Errorf("lookup: %w", contracts.ErrNotFound), contracts.SkipNotFound},
		{"rate limited", contracts.ErrRateLimited, contracts.SkipRateLimited},
		{"unclassified", errors.New("boom"), contracts.SkipSourceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAssembler(logger.NewNop(),
				SourceSpec{Source: &funcSource{name: "primary", fn: failWith(tt.err)}, Required: true},
			)

			_, err := a.FetchSnapshot(context.Background(), "005930", asOf)
			require.Error(t, err)
			assert.Equal(t, tt.reason, contracts.SkipReason(err))
			assert.Contains(t, err.Error(), "primary")
		})
	}
}

func TestAssembler_LimiterFailureIsRateLimited(t *testing.T) {
	a := NewAssembler(logger.NewNop(), SourceSpec{
		Source:   &funcSource{name: "naver", fn: numbers(nil)},
		Required: true,
		Limiter:  failingLimiter{},
	})

	_, err := a.FetchSnapshot(context.Background(), "005930", asOf)
	assert.ErrorIs(t, err, contracts.ErrRateLimited)
}

func TestAssembler_BreakerOpens(t *testing.T) {
	src := &funcSource{name: "dart", fn: failWith(errors.New("i/o timeout"))}
	a := NewAssemblerWithBreaker(logger.NewNop(),
		BreakerSettings{ConsecutiveFailures: 2, OpenTimeout: time.Minute},
		SourceSpec{Source: src, Required: true},
	)

	for i := 0; i < 2; i++ {
		_, err := a.FetchSnapshot(context.Background(), "005930", asOf)
		require.ErrorIs(t, err, contracts.ErrSourceUnavailable)
	}

	// open: the source is no longer called
	_, err := a.FetchSnapshot(context.Background(), "005930", asOf)
	assert.ErrorIs(t, err, contracts.ErrSourceUnavailable)
	assert.Equal(t, int32(2), atomic.LoadInt32(&src.calls))
}

func TestAssembler_NotFoundDoesNotTripBreaker(t *testing.T) {
	src := &funcSource{name: "file", fn: failWith(contracts.ErrNotFound)}
	a := NewAssemblerWithBreaker(logger.NewNop(),
		BreakerSettings{ConsecutiveFailures: 1, OpenTimeout: time.Minute},
		SourceSpec{Source: src, Required: true},
	)

	for i := 0; i < 3; i++ {
		_, err := a.FetchSnapshot(context.Background(), "005930", asOf)
		require.ErrorIs(t, err, contracts.ErrNotFound)
	}
	assert.Equal(t, int32(3), atomic.LoadInt32(&src.calls))
}

func TestAssembler_Sanitizes(t *testing.T) {
	a := NewAssembler(logger.NewNop(), SourceSpec{
		Source: &funcSource{name: "primary", fn: numbers(map[string]float64{
			contracts.FeaturePrice:           -5,
			contracts.FeatureMarginDebtRatio: 0.8,
		})},
		Required: true,
	})

	snap, err := a.FetchSnapshot(context.Background(), "005930", asOf)
	require.NoError(t, err)
	assert.False(t, snap.Has(contracts.FeaturePrice))
	assert.True(t, snap.Has(contracts.FeatureMarginDebtRatio))
}

func TestAssembler_CacheHit(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := redis.NewCache(redis.Wrap(db), "prophet")

	cached := contracts.NewSnapshotBuilder("005930", asOf).SetNumber(contracts.FeaturePrice, 777).Build()
	data, err := json.Marshal(cached)
	require.NoError(t, err)
	mock.ExpectGet("prophet:cache:snapshot:005930:2024-06-03").SetVal(string(data))

	src := &funcSource{name: "primary", fn: numbers(map[string]float64{contracts.FeaturePrice: 1})}
	a := NewAssembler(logger.NewNop(), SourceSpec{Source: src, Required: true}).WithCache(cache, time.Hour)

	snap, err := a.FetchSnapshot(context.Background(), "005930", asOf)
	require.NoError(t, err)

	price, _ := snap.Number(contracts.FeaturePrice)
	assert.Equal(t, 777.0, price)
	assert.Equal(t, int32(0), atomic.LoadInt32(&src.calls))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssembler_CacheMissCollects(t *testing.T) {
	db, mock := redismock.NewClientMock()
	cache := redis.NewCache(redis.Wrap(db), "prophet")
	mock.ExpectGet("prophet:cache:snapshot:005930:2024-06-03").RedisNil()

	src := &funcSource{name: "primary", fn: numbers(map[string]float64{contracts.FeaturePrice: 1})}
	a := NewAssembler(logger.NewNop(), SourceSpec{Source: src, Required: true}).WithCache(cache, time.Hour)

	// the unexpected SET fails in the mock; a cache write failure is only logged
	snap, err := a.FetchSnapshot(context.Background(), "005930", asOf)
	require.NoError(t, err)
	assert.True(t, snap.Has(contracts.FeaturePrice))
	assert.Equal(t, int32(1), atomic.LoadInt32(&src.calls))
}
