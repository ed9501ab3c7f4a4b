package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/wonny/prophet/internal/contracts"
)

type fakeCollector struct {
	snapshots map[contracts.Ticker]*contracts.FeatureSnapshot
	errs      map[contracts.Ticker]error
	panics    map[contracts.Ticker]bool
	delay     time.Duration

	inFlight    int32
	maxInFlight int32
	calls       int32
}

func (c *fakeCollector) FetchSnapshot(ctx context.Context, ticker contracts.Ticker, asOf time.Time) (*contracts.FeatureSnapshot, error) {
	n := atomic.AddInt32(&c.inFlight, 1)
	defer atomic.AddInt32(&c.inFlight, -1)
	atomic.AddInt32(&c.calls, 1)
	for {
		m := atomic.LoadInt32(&c.maxInFlight)
		if n <= m || atomic.CompareAndSwapInt32(&c.maxInFlight, m, n) {
			break
		}
	}

	if c.delay > 0 {
		time.Sleep(c.delay)
	}
	if c.panics[ticker] {
		panic("corrupt page for " + string(ticker))
	}
	if err, ok := c.errs[ticker]; ok {
		return nil, err
	}
	if snap, ok := c.snapshots[ticker]; ok {
		return snap, nil
	}
	return nil, fmt.Errorf("fake: %s: %w", ticker, contracts.ErrNotFound)
}

type recordingEmitter struct {
	mu       sync.Mutex
	verdicts []contracts.Verdict
}

func (e *recordingEmitter) Emit(ctx context.Context, v contracts.Verdict) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.verdicts = append(e.verdicts, v)
}

func (e *recordingEmitter) count() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.verdicts)
}

type staticUniverse []contracts.Ticker

func (u staticUniverse) Build(ctx context.Context, asOf time.Time) (*contracts.Universe, error) {
	return &contracts.Universe{Date: asOf, Tickers: u}, nil
}
