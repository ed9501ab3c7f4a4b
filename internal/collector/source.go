package collector

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/wonny/prophet/internal/contracts"
	"github.com/wonny/prophet/internal/external/dart"
	"github.com/wonny/prophet/internal/external/naver"
	"github.com/wonny/prophet/pkg/httputil"
)

// Source fills part of a snapshot from one upstream
type Source interface {
	Name() string
	Fill(ctx context.Context, ticker contracts.Ticker, asOf time.Time, b *contracts.SnapshotBuilder) error
}

// Limiter throttles calls to a source. *rate.Limiter satisfies it.
type Limiter interface {
	Wait(ctx context.Context) error
}

// Classify maps a source error onto the collector failure classes.
// Errors already carrying a class are wrapped unchanged.
// ⭐ SSOT: 수집 오류 분류는 여기서만
func Classify(source string, err error) error {
	if err == nil {
		return nil
	}

	var class error
	var statusErr *httputil.StatusError
	switch {
	case errors.Is(err, contracts.ErrRateLimited),
		errors.Is(err, contracts.ErrNotFound),
		errors.Is(err, contracts.ErrSourceUnavailable):
		return fmt.Errorf("%s: %w", source, err)
	case errors.Is(err, naver.ErrNoData),
		errors.Is(err, pgx.ErrNoRows),
		errors.Is(err, os.ErrNotExist):
		class = contracts.ErrNotFound
	case errors.Is(err, dart.ErrQuotaExceeded):
		class = contracts.ErrRateLimited
	case errors.As(err, &statusErr):
		switch statusErr.StatusCode {
		case http.StatusTooManyRequests:
			class = contracts.ErrRateLimited
		case http.StatusNotFound:
			class = contracts.ErrNotFound
		default:
			class = contracts.ErrSourceUnavailable
		}
	default:
		class = contracts.ErrSourceUnavailable
	}
	return fmt.Errorf("%s: %w: %w", source, class, err)
}
