package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wonny/prophet/internal/contracts"
)

// MarketFeatures is one ticker's row set from the market database.
// Nil fields were not available.
type MarketFeatures struct {
	Price              *float64
	PriceChangePct     *float64
	TrailingEPS        *float64
	ForwardEPS         *float64
	EPSGrowthPct       *float64
	DividendYieldPct   *float64
	LiquidationTrigger *float64
	IndustryState      *string
	Concentration      *float64
	MarketShare        *float64
	PensionNetBuy      []float64 // 오래된 순
}

// MarketStore loads stored features for a ticker
type MarketStore interface {
	LoadFeatures(ctx context.Context, ticker contracts.Ticker, asOf time.Time, lookbackDays int) (*MarketFeatures, error)
}

// PostgresSource fills fundamentals, pension flow, pledges and industry structure
type PostgresSource struct {
	store        MarketStore
	lookbackDays int
}

// NewPostgresSource creates the source
func NewPostgresSource(store MarketStore, lookbackDays int) *PostgresSource {
	if lookbackDays < 1 {
		lookbackDays = 20
	}
	return &PostgresSource{store: store, lookbackDays: lookbackDays}
}

// Name returns the source name
func (s *PostgresSource) Name() string {
	return "postgres"
}

// Fill copies every available column
func (s *PostgresSource) Fill(ctx context.Context, ticker contracts.Ticker, asOf time.Time, b *contracts.SnapshotBuilder) error {
	f, err := s.store.LoadFeatures(ctx, ticker, asOf, s.lookbackDays)
	if err != nil {
		return err
	}

	setIf := func(name string, v *float64) {
		if v != nil {
			b.SetNumber(name, *v)
		}
	}
	setIf(contracts.FeaturePrice, f.Price)
	setIf(contracts.FeaturePriceChangePct, f.PriceChangePct)
	setIf(contracts.FeatureTrailingEPS, f.TrailingEPS)
	setIf(contracts.FeatureForwardEPS, f.ForwardEPS)
	setIf(contracts.FeatureEPSGrowthPct, f.EPSGrowthPct)
	setIf(contracts.FeatureDividendYieldPct, f.DividendYieldPct)
	setIf(contracts.FeatureLiquidationTriggerPrice, f.LiquidationTrigger)
	setIf(contracts.FeatureIndustryConcentration, f.Concentration)
	setIf(contracts.FeatureMarketShare, f.MarketShare)
	if f.IndustryState != nil {
		b.SetLabel(contracts.FeatureIndustryState, *f.IndustryState)
	}
	if len(f.PensionNetBuy) > 0 {
		b.SetSeries(contracts.FeatureNetBuyPension, f.PensionNetBuy)
	}
	return nil
}

// PGStore reads the data.* schema with pgx
// ⭐ SSOT: 스냅샷용 DB 조회는 여기서만
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore creates a store over a pool
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

// LoadFeatures returns pgx.ErrNoRows when the ticker has no price on or before asOf
func (s *PGStore) LoadFeatures(ctx context.Context, ticker contracts.Ticker, asOf time.Time, lookbackDays int) (*MarketFeatures, error) {
	code := string(ticker)
	f := &MarketFeatures{}

	// 가격: 최근 종가와 lookback 구간 등락률
	var first, last float64
	err := s.pool.QueryRow(ctx, `
		WITH recent AS (
			SELECT trade_date, close_price
			FROM data.daily_prices
			WHERE stock_code = $1 AND trade_date <= $2
			ORDER BY trade_date DESC
			LIMIT $3
		)
		SELECT
			(SELECT close_price::float8 FROM recent ORDER BY trade_date ASC LIMIT 1),
			(SELECT close_price::float8 FROM recent ORDER BY trade_date DESC LIMIT 1)
		WHERE EXISTS (SELECT 1 FROM recent)
	`, code, asOf, lookbackDays+1).Scan(&first, &last)
	if err != nil {
		return nil, fmt.Errorf("query prices %s: %w", code, err)
	}
	f.Price = &last
	if first > 0 {
		change := (last - first) / first * 100
		f.PriceChangePct = &change
	}

	err = s.pool.QueryRow(ctx, `
		SELECT eps::float8, forward_eps::float8, eps_growth_pct::float8, dividend_yield::float8
		FROM data.fundamentals
		WHERE stock_code = $1 AND report_date <= $2
		ORDER BY report_date DESC
		LIMIT 1
	`, code, asOf).Scan(&f.TrailingEPS, &f.ForwardEPS, &f.EPSGrowthPct, &f.DividendYieldPct)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("query fundamentals %s: %w", code, err)
	}

	// 대주주 담보 반대매매 가격 (가장 높은 트리거가 바닥)
	err = s.pool.QueryRow(ctx, `
		SELECT MAX(liquidation_price)::float8
		FROM data.share_pledges
		WHERE stock_code = $1 AND report_date <= $2 AND released_at IS NULL
	`, code, asOf).Scan(&f.LiquidationTrigger)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("query pledges %s: %w", code, err)
	}

	err = s.pool.QueryRow(ctx, `
		SELECT i.state, i.concentration::float8, i.market_share::float8
		FROM data.industry_stats i
		WHERE i.stock_code = $1 AND i.as_of <= $2
		ORDER BY i.as_of DESC
		LIMIT 1
	`, code, asOf).Scan(&f.IndustryState, &f.Concentration, &f.MarketShare)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("query industry %s: %w", code, err)
	}

	rows, err := s.pool.Query(ctx, `
		SELECT pension_net_value::float8
		FROM (
			SELECT trade_date, pension_net_value
			FROM data.investor_flow
			WHERE stock_code = $1 AND trade_date <= $2 AND pension_net_value IS NOT NULL
			ORDER BY trade_date DESC
			LIMIT $3
		) t
		ORDER BY trade_date ASC
	`, code, asOf, lookbackDays)
	if err != nil {
		return nil, fmt.Errorf("query pension flow %s: %w", code, err)
	}
	f.PensionNetBuy, err = pgx.CollectRows(rows, pgx.RowTo[float64])
	if err != nil {
		return nil, fmt.Errorf("scan pension flow %s: %w", code, err)
	}

	return f, nil
}
