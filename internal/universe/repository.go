package universe

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository lists stocks from the data.* schema
type Repository struct {
	db *pgxpool.Pool
}

// NewRepository creates a new Repository instance
func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// ListStocks retrieves all active stocks with their latest market cap
func (r *Repository) ListStocks(ctx context.Context, asOf time.Time) ([]Stock, error) {
	// 시가총액은 as-of 이전 가장 최근 값 사용
	query := `
		SELECT
			s.code,
			s.name,
			s.market,
			COALESCE(s.sector, ''),
			COALESCE(mc.market_cap, 0)::BIGINT,
			($1::date - s.listing_date) AS listing_days
		FROM data.stocks s
		LEFT JOIN LATERAL (
			SELECT market_cap FROM data.market_cap
			WHERE stock_code = s.code AND trade_date <= $1
			ORDER BY trade_date DESC LIMIT 1
		) mc ON TRUE
		WHERE s.status = 'active'
		ORDER BY s.code
	`

	rows, err := r.db.Query(ctx, query, asOf)
	if err != nil {
		return nil, fmt.Errorf("query stocks: %w", err)
	}
	defer rows.Close()

	stocks := make([]Stock, 0)
	for rows.Next() {
		var stock Stock
		if err := rows.Scan(
			&stock.Code,
			&stock.Name,
			&stock.Market,
			&stock.Sector,
			&stock.MarketCap,
			&stock.ListingDays,
		); err != nil {
			return nil, fmt.Errorf("scan stock: %w", err)
		}

		stock.IsSPAC = isSPAC(stock.Name)
		stock.IsAdmin = isAdminStock(stock.Name)
		stocks = append(stocks, stock)
	}

	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate stocks: %w", rows.Err())
	}

	return stocks, nil
}
