package engine

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/prophet/internal/contracts"
	"github.com/wonny/prophet/pkg/logger"
)

func TestMonitor_RunsImmediatelyAndStops(t *testing.T) {
	ts := tickers(3)
	s := NewScanner(newEngine(t), &fakeCollector{snapshots: snapshotsFor(ts)}, &recordingEmitter{}, 2, nil, logger.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	var (
		mu      sync.Mutex
		reports []*contracts.ScanReport
	)
	m := NewMonitor(s, staticUniverse(ts), time.Hour, func(r *contracts.ScanReport) {
		mu.Lock()
		reports = append(reports, r)
		mu.Unlock()
		cancel()
	}, logger.NewNop())

	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("monitor did not stop")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, reports, 1)
	assert.Equal(t, 3, reports[0].Scored())
	assert.Equal(t, 1, m.Stats().TotalRuns)
}

func TestMonitor_InvalidInterval(t *testing.T) {
	s := NewScanner(newEngine(t), &fakeCollector{}, &recordingEmitter{}, 1, nil, logger.NewNop())
	m := NewMonitor(s, staticUniverse(nil), 0, nil, logger.NewNop())

	assert.Error(t, m.Run(context.Background()))
}
