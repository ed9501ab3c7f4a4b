package collector

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/wonny/prophet/internal/contracts"
	"github.com/wonny/prophet/internal/external/dart"
)

// DARTClient is the subset of the DART client the source uses
type DARTClient interface {
	FetchLargeHoldingReports(ctx context.Context, from, to time.Time, maxPages int) ([]dart.Disclosure, error)
}

// DARTSource fills large_holding_filings from 대량보유 reports.
// The market-wide list is fetched once per as-of date and shared by all tickers.
type DARTSource struct {
	client     DARTClient
	windowDays int
	maxPages   int

	group  singleflight.Group
	mu     sync.Mutex
	counts map[string]map[string]int
}

// NewDARTSource creates the source
func NewDARTSource(client DARTClient, windowDays, maxPages int) *DARTSource {
	if windowDays < 1 {
		windowDays = 180
	}
	if maxPages < 1 {
		maxPages = 50
	}
	return &DARTSource{
		client:     client,
		windowDays: windowDays,
		maxPages:   maxPages,
		counts:     make(map[string]map[string]int),
	}
}

// Name returns the source name
func (s *DARTSource) Name() string {
	return "dart"
}

// Fill sets the filing count; a ticker without filings gets 0
func (s *DARTSource) Fill(ctx context.Context, ticker contracts.Ticker, asOf time.Time, b *contracts.SnapshotBuilder) error {
	counts, err := s.load(ctx, asOf)
	if err != nil {
		return err
	}
	b.SetNumber(contracts.FeatureLargeHoldingFilings, float64(counts[string(ticker)]))
	return nil
}

func (s *DARTSource) load(ctx context.Context, asOf time.Time) (map[string]int, error) {
	key := asOf.Format("2006-01-02")

	s.mu.Lock()
	counts, ok := s.counts[key]
	s.mu.Unlock()
	if ok {
		return counts, nil
	}

	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		s.mu.Lock()
		counts, ok := s.counts[key]
		s.mu.Unlock()
		if ok {
			return counts, nil
		}
		list, err := s.client.FetchLargeHoldingReports(ctx, asOf.AddDate(0, 0, -s.windowDays), asOf, s.maxPages)
		if err != nil {
			return nil, err
		}
		counts = dart.CountByStock(list)
		s.mu.Lock()
		s.counts[key] = counts
		s.mu.Unlock()
		return counts, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(map[string]int), nil
}
