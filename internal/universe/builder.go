package universe

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/wonny/prophet/internal/contracts"
	"github.com/wonny/prophet/pkg/logger"
)

// SPAC 판별을 위한 정규식 패턴
var spacPattern = regexp.MustCompile(`(?i)(스팩|SPAC|스펙|제\d+호|\d+호$)`)

// Config holds universe filter criteria
type Config struct {
	Markets        []string `yaml:"markets"`          // KOSPI, KOSDAQ
	MinMarketCap   int64    `yaml:"min_market_cap"`   // 최소 시가총액 (억원)
	MinListingDays int      `yaml:"min_listing_days"` // 최소 상장일수
	ExcludeAdmin   bool     `yaml:"exclude_admin"`    // 관리종목 제외
	ExcludeSPAC    bool     `yaml:"exclude_spac"`     // SPAC 제외
	ExcludeSectors []string `yaml:"exclude_sectors"`  // 제외 섹터
	MaxStocks      int      `yaml:"max_stocks"`       // 시총 상위 N (0 = 제한 없음)
}

// DefaultConfig returns the full-market scan defaults
func DefaultConfig() Config {
	return Config{
		Markets:      []string{"KOSPI", "KOSDAQ"},
		MinMarketCap: 1000,
		ExcludeAdmin: true,
		ExcludeSPAC:  true,
		MaxStocks:    300,
	}
}

// Stock represents a listed stock with filter criteria
type Stock struct {
	Code        string
	Name        string
	Market      string
	Sector      string
	MarketCap   int64 // 시가총액 (원)
	ListingDays int   // 상장일수
	IsAdmin     bool  // 관리종목 여부
	IsSPAC      bool  // SPAC 여부
}

// StockLister lists active stocks as of a date
type StockLister interface {
	ListStocks(ctx context.Context, asOf time.Time) ([]Stock, error)
}

// Builder filters the listed stocks into the scan universe
// ⭐ SSOT: 전체 시장 스캔 대상 종목 생성
type Builder struct {
	stocks StockLister
	config Config
	logger *logger.Logger
}

// NewBuilder creates a new universe Builder
func NewBuilder(stocks StockLister, config Config, log *logger.Logger) *Builder {
	return &Builder{
		stocks: stocks,
		config: config,
		logger: log.WithComponent("universe"),
	}
}

// Build lists the stocks passing every filter, largest market cap first,
// capped at MaxStocks
func (b *Builder) Build(ctx context.Context, asOf time.Time) (*contracts.Universe, error) {
	stocks, err := b.stocks.ListStocks(ctx, asOf)
	if err != nil {
		return nil, fmt.Errorf("list stocks: %w", err)
	}

	universe := &contracts.Universe{
		Date:       asOf,
		Tickers:    make([]contracts.Ticker, 0),
		Excluded:   make(map[contracts.Ticker]string),
		TotalCount: len(stocks),
	}

	eligible := make([]Stock, 0, len(stocks))
	for _, stock := range stocks {
		if reason := b.checkExclusion(stock); reason != "" {
			universe.Excluded[contracts.Ticker(stock.Code)] = reason
			continue
		}
		eligible = append(eligible, stock)
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		if eligible[i].MarketCap != eligible[j].MarketCap {
			return eligible[i].MarketCap > eligible[j].MarketCap
		}
		return eligible[i].Code < eligible[j].Code
	})

	for i, stock := range eligible {
		if b.config.MaxStocks > 0 && i >= b.config.MaxStocks {
			universe.Excluded[contracts.Ticker(stock.Code)] = fmt.Sprintf("시총 상위 %d 밖", b.config.MaxStocks)
			continue
		}
		universe.Tickers = append(universe.Tickers, contracts.Ticker(stock.Code))
	}

	b.logger.WithFields(map[string]interface{}{
		"date":     asOf.Format("2006-01-02"),
		"total":    universe.TotalCount,
		"tickers":  universe.Count(),
		"excluded": len(universe.Excluded),
	}).Info("Universe built")

	return universe, nil
}

// checkExclusion checks if a stock should be excluded and returns the reason
func (b *Builder) checkExclusion(stock Stock) string {
	// 우선순위 순서로 체크

	// 1. 시장
	if len(b.config.Markets) > 0 && !containsFold(b.config.Markets, stock.Market) {
		return fmt.Sprintf("제외 시장 (%s)", stock.Market)
	}

	// 2. 관리종목
	if b.config.ExcludeAdmin && stock.IsAdmin {
		return "관리종목"
	}

	// 3. SPAC
	if b.config.ExcludeSPAC && stock.IsSPAC {
		return "SPAC"
	}

	// 4. 시가총액 미달
	minMarketCap := b.config.MinMarketCap * 100_000_000 // 억 → 원
	if stock.MarketCap < minMarketCap {
		return fmt.Sprintf("시가총액 미달 (%d억)", stock.MarketCap/100_000_000)
	}

	// 5. 상장일수 미달
	if stock.ListingDays < b.config.MinListingDays {
		return fmt.Sprintf("상장일수 미달 (%d일)", stock.ListingDays)
	}

	// 6. 제외 섹터
	for _, sector := range b.config.ExcludeSectors {
		if stock.Sector == sector {
			return fmt.Sprintf("제외 섹터 (%s)", sector)
		}
	}

	return ""
}

func containsFold(list []string, s string) bool {
	for _, v := range list {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

// isSPAC checks if a stock is a SPAC based on name pattern
func isSPAC(name string) bool {
	return spacPattern.MatchString(name)
}

// isAdminStock checks if a stock is under administrative supervision
func isAdminStock(name string) bool {
	return strings.Contains(name, "관리") || strings.Contains(name, "*")
}
