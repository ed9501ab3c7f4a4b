package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/wonny/prophet/internal/contracts"
	"github.com/wonny/prophet/internal/external/naver"
)

// NaverClient is the subset of the Naver Finance client the source uses
type NaverClient interface {
	FetchPrices(ctx context.Context, stockCode string, from, to time.Time) ([]naver.PriceData, error)
	FetchInvestorFlow(ctx context.Context, stockCode string, from, to time.Time) ([]naver.InvestorFlowData, error)
	FetchCreditBalances(ctx context.Context, pages int) ([]naver.CreditBalance, error)
}

// NaverSource fills price, investor flow and market credit features
type NaverSource struct {
	client       NaverClient
	lookbackDays int // 거래일 기준
	creditPages  int

	group  singleflight.Group
	mu     sync.Mutex
	credit map[string]CreditReading // as-of 날짜별 (시장 전체 값)
}

// CreditReading is the market-wide margin debt gauge
type CreditReading struct {
	Ratio  float64 // 구간 내 위치 (0 = 최저, 1 = 최고)
	Change float64 // 구간 변화율
}

// NewNaverSource creates the source. lookbackDays bounds the flow series.
func NewNaverSource(client NaverClient, lookbackDays, creditPages int) *NaverSource {
	if lookbackDays < 1 {
		lookbackDays = 20
	}
	if creditPages < 1 {
		creditPages = 6
	}
	return &NaverSource{
		client:       client,
		lookbackDays: lookbackDays,
		creditPages:  creditPages,
		credit:       make(map[string]CreditReading),
	}
}

// Name returns the source name
func (s *NaverSource) Name() string {
	return "naver"
}

// Fill fetches the ticker's prices and flows plus the shared credit gauge
func (s *NaverSource) Fill(ctx context.Context, ticker contracts.Ticker, asOf time.Time, b *contracts.SnapshotBuilder) error {
	code := string(ticker)
	// 거래일 lookback을 달력일로 넉넉히 환산
	from := asOf.AddDate(0, 0, -2*s.lookbackDays-7)

	prices, err := s.client.FetchPrices(ctx, code, from, asOf)
	if err != nil {
		return err
	}
	prices = pricesUntil(prices, asOf)
	if len(prices) == 0 {
		return fmt.Errorf("no prices for %s until %s: %w", code, asOf.Format("2006-01-02"), naver.ErrNoData)
	}
	if len(prices) > s.lookbackDays+1 {
		prices = prices[len(prices)-s.lookbackDays-1:]
	}
	first, last := prices[0].ClosePrice, prices[len(prices)-1].ClosePrice
	b.SetNumber(contracts.FeaturePrice, float64(last))
	if first > 0 && len(prices) > 1 {
		b.SetNumber(contracts.FeaturePriceChangePct, float64(last-first)/float64(first)*100)
	}

	flows, err := s.client.FetchInvestorFlow(ctx, code, from, asOf)
	if err != nil {
		return err
	}
	if len(flows) > s.lookbackDays {
		flows = flows[len(flows)-s.lookbackDays:]
	}
	foreign := make([]float64, len(flows))
	institution := make([]float64, len(flows))
	for i, f := range flows {
		foreign[i] = float64(f.ForeignNet)
		institution[i] = float64(f.InstitutionNet)
	}
	b.SetSeries(contracts.FeatureNetBuyForeign, foreign)
	b.SetSeries(contracts.FeatureNetBuyInstitution, institution)

	credit, err := s.creditGauge(ctx, asOf)
	if err != nil {
		return err
	}
	b.SetNumber(contracts.FeatureMarginDebtRatio, credit.Ratio)
	b.SetNumber(contracts.FeatureMarginDebtChange, credit.Change)
	return nil
}

// creditGauge loads the market credit balance once per as-of date
func (s *NaverSource) creditGauge(ctx context.Context, asOf time.Time) (CreditReading, error) {
	key := asOf.Format("2006-01-02")

	s.mu.Lock()
	cached, ok := s.credit[key]
	s.mu.Unlock()
	if ok {
		return cached, nil
	}

	v, err, _ := s.group.Do(key, func() (interface{}, error) {
		s.mu.Lock()
		cached, ok := s.credit[key]
		s.mu.Unlock()
		if ok {
			return cached, nil
		}
		rows, err := s.client.FetchCreditBalances(ctx, s.creditPages)
		if err != nil {
			return nil, err
		}
		features, err := CreditGauge(rows, asOf)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.credit[key] = features
		s.mu.Unlock()
		return features, nil
	})
	if err != nil {
		return CreditReading{}, err
	}
	return v.(CreditReading), nil
}

// CreditGauge turns a credit balance history (oldest first) into the ratio
// of the latest balance within the window's range and the window change.
func CreditGauge(rows []naver.CreditBalance, asOf time.Time) (CreditReading, error) {
	var window []naver.CreditBalance
	for _, r := range rows {
		if !r.TradeDate.After(asOf) {
			window = append(window, r)
		}
	}
	if len(window) == 0 {
		return CreditReading{}, fmt.Errorf("credit balance until %s: %w", asOf.Format("2006-01-02"), naver.ErrNoData)
	}

	lo, hi := window[0].Balance, window[0].Balance
	for _, r := range window {
		lo = min(lo, r.Balance)
		hi = max(hi, r.Balance)
	}
	first, latest := window[0].Balance, window[len(window)-1].Balance

	out := CreditReading{Ratio: 0.5}
	if hi > lo {
		out.Ratio = float64(latest-lo) / float64(hi-lo)
	}
	if first > 0 {
		out.Change = float64(latest-first) / float64(first)
	}
	return out, nil
}

func pricesUntil(prices []naver.PriceData, asOf time.Time) []naver.PriceData {
	end := len(prices)
	for end > 0 && prices[end-1].TradeDate.After(asOf) {
		end--
	}
	return prices[:end]
}
