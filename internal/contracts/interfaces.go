package contracts

import (
	"context"
	"time"
)

// Collector produces the feature snapshot for a ticker
// ⭐ SSOT: 데이터 수집 인터페이스 (외부 I/O는 여기서만)
//
// Errors are classified with ErrRateLimited, ErrNotFound or
// ErrSourceUnavailable. Callers skip the ticker for that run.
type Collector interface {
	FetchSnapshot(ctx context.Context, ticker Ticker, asOf time.Time) (*FeatureSnapshot, error)
}

// Emitter delivers verdicts (fire-and-forget)
// ⭐ SSOT: 알림 전달 인터페이스
type Emitter interface {
	Emit(ctx context.Context, verdict Verdict)
}

// UniverseBuilder lists the tickers a scan covers
type UniverseBuilder interface {
	Build(ctx context.Context, asOf time.Time) (*Universe, error)
}
