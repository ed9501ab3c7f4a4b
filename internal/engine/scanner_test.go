package engine

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/prophet/internal/contracts"
	"github.com/wonny/prophet/pkg/logger"
	"github.com/wonny/prophet/pkg/metrics"
)

func tickers(n int) []contracts.Ticker {
	out := make([]contracts.Ticker, n)
	for i := range out {
		out[i] = contracts.Ticker(fmt.Sprintf("%06d", i+1))
	}
	return out
}

func snapshotsFor(ts []contracts.Ticker) map[contracts.Ticker]*contracts.FeatureSnapshot {
	out := make(map[contracts.Ticker]*contracts.FeatureSnapshot, len(ts))
	for i, t := range ts {
		// vary the margin ratio so tiers differ
		out[t] = mixedSnapshot(t, 0.3+float64(i%7)*0.1)
	}
	return out
}

func TestScan_SkipsFailedTickers(t *testing.T) {
	ts := tickers(6)
	col := &fakeCollector{
		snapshots: snapshotsFor(ts),
		errs: map[contracts.Ticker]error{
			ts[1]: fmt.Errorf("naver: %w", contracts.ErrRateLimited),
			ts[3]: fmt.Errorf("dart: %w", contracts.ErrSourceUnavailable),
		},
		panics: map[contracts.Ticker]bool{ts[4]: true},
	}
	em := &recordingEmitter{}
	rec := metrics.NewWithRegistry(prometheus.NewRegistry())
	s := NewScanner(newEngine(t), col, em, 3, rec, logger.NewNop())

	report, err := s.Scan(context.Background(), ts, asOf)
	require.NoError(t, err)

	assert.Equal(t, 6, report.Requested)
	assert.Equal(t, 3, report.Scored())
	assert.Equal(t, map[contracts.Ticker]string{
		ts[1]: contracts.SkipRateLimited,
		ts[3]: contracts.SkipSourceUnavailable,
		ts[4]: contracts.SkipPanic,
	}, report.Skipped)
	assert.Equal(t, 3, em.count())
	assert.NotEmpty(t, report.ConfigHash)

	// verdicts keep input order
	assert.Equal(t, ts[0], report.Verdicts[0].Ticker())
	assert.Equal(t, ts[2], report.Verdicts[1].Ticker())
	assert.Equal(t, ts[5], report.Verdicts[2].Ticker())
}

func TestScan_BoundedConcurrency(t *testing.T) {
	ts := tickers(20)
	col := &fakeCollector{snapshots: snapshotsFor(ts), delay: 5 * time.Millisecond}
	s := NewScanner(newEngine(t), col, &recordingEmitter{}, 4, nil, logger.NewNop())

	report, err := s.Scan(context.Background(), ts, asOf)
	require.NoError(t, err)

	assert.Equal(t, 20, report.Scored())
	assert.LessOrEqual(t, atomic.LoadInt32(&col.maxInFlight), int32(4))
	assert.Greater(t, atomic.LoadInt32(&col.maxInFlight), int32(1))
}

func TestScan_DeterministicAcrossConcurrency(t *testing.T) {
	ts := tickers(15)
	snaps := snapshotsFor(ts)

	run := func(n int) []contracts.Verdict {
		s := NewScanner(newEngine(t), &fakeCollector{snapshots: snaps}, &recordingEmitter{}, n, nil, logger.NewNop())
		report, err := s.Scan(context.Background(), ts, asOf)
		require.NoError(t, err)
		return report.Verdicts
	}

	assert.Equal(t, run(1), run(8))
}

func TestScan_CancelStopsNewTickers(t *testing.T) {
	ts := tickers(10)
	col := &fakeCollector{snapshots: snapshotsFor(ts), delay: 20 * time.Millisecond}
	em := &recordingEmitter{}
	s := NewScanner(newEngine(t), col, em, 2, nil, logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(30*time.Millisecond, cancel)

	report, err := s.Scan(ctx, ts, asOf)
	require.ErrorIs(t, err, context.Canceled)

	// every ticker is either scored or skipped as cancelled, never lost
	assert.Equal(t, 10, report.Scored()+len(report.Skipped))
	assert.Less(t, report.Scored(), 10)
	for _, reason := range report.Skipped {
		assert.Equal(t, SkipCancelled, reason)
	}
	// in-flight tickers completed and were emitted
	assert.Equal(t, report.Scored(), em.count())
}

func TestScoreOne(t *testing.T) {
	ts := tickers(1)
	s := NewScanner(newEngine(t), &fakeCollector{snapshots: snapshotsFor(ts)}, &recordingEmitter{}, 1, nil, logger.NewNop())

	v, err := s.ScoreOne(context.Background(), ts[0], asOf)
	require.NoError(t, err)
	assert.Equal(t, ts[0], v.Ticker())

	_, err = s.ScoreOne(context.Background(), "999999", asOf)
	assert.ErrorIs(t, err, contracts.ErrNotFound)
}
