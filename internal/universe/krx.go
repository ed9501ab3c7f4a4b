package universe

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/wonny/prophet/internal/external/krx"
)

// MarketCapFetcher is the KRX call the lister depends on
type MarketCapFetcher interface {
	FetchMarketCaps(ctx context.Context, market string, asOf time.Time) ([]krx.MarketCapItem, error)
}

// KRXLister lists stocks straight from the KRX market cap table.
// Used when no database is available.
type KRXLister struct {
	krx     MarketCapFetcher
	markets []string
}

// NewKRXLister creates a lister over the given markets
func NewKRXLister(client MarketCapFetcher, markets []string) *KRXLister {
	return &KRXLister{krx: client, markets: markets}
}

// ListStocks implements StockLister
func (l *KRXLister) ListStocks(ctx context.Context, asOf time.Time) ([]Stock, error) {
	var stocks []Stock
	for _, market := range l.markets {
		items, err := l.krx.FetchMarketCaps(ctx, market, asOf)
		if err != nil {
			return nil, fmt.Errorf("krx %s: %w", market, err)
		}
		for _, it := range items {
			stocks = append(stocks, Stock{
				Code:      it.StockCode,
				Name:      it.StockName,
				Market:    it.Market,
				MarketCap: it.MarketCap,
				// 상장일 정보 없음: 상장일 필터는 통과
				ListingDays: math.MaxInt32,
				IsAdmin:     isAdminStock(it.StockName),
				IsSPAC:      isSPAC(it.StockName),
			})
		}
	}
	return stocks, nil
}
