package contracts

import "errors"

// Collector failure classes
var (
	ErrRateLimited       = errors.New("rate limited")
	ErrNotFound          = errors.New("not found")
	ErrSourceUnavailable = errors.New("source unavailable")
)

// Skip reasons recorded for tickers without a verdict
const (
	SkipRateLimited       = "rate_limited"
	SkipNotFound          = "not_found"
	SkipSourceUnavailable = "source_unavailable"
	SkipPanic             = "panic"
	SkipUnknown           = "unknown"
)

// SkipReason classifies a collector error
func SkipReason(err error) string {
	switch {
	case errors.Is(err, ErrRateLimited):
		return SkipRateLimited
	case errors.Is(err, ErrNotFound):
		return SkipNotFound
	case errors.Is(err, ErrSourceUnavailable):
		return SkipSourceUnavailable
	default:
		return SkipUnknown
	}
}
