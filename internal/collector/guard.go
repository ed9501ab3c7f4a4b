package collector

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sony/gobreaker"

	"github.com/wonny/prophet/internal/contracts"
	"github.com/wonny/prophet/pkg/logger"
	"github.com/wonny/prophet/pkg/redis"
)

// BreakerSettings controls the per-source circuit breaker
type BreakerSettings struct {
	ConsecutiveFailures uint32        // 연속 실패 시 차단
	OpenTimeout         time.Duration // 차단 유지 시간
}

// DefaultBreakerSettings trips after 5 consecutive failures for 30s
var DefaultBreakerSettings = BreakerSettings{
	ConsecutiveFailures: 5,
	OpenTimeout:         30 * time.Second,
}

// guarded wraps a source with a limiter and a circuit breaker
type guarded struct {
	source   Source
	required bool
	limiter  Limiter
	breaker  *gobreaker.CircuitBreaker
}

func newGuarded(spec SourceSpec, settings BreakerSettings, log *logger.Logger) *guarded {
	name := spec.Source.Name()
	return &guarded{
		source:   spec.Source,
		required: spec.Required,
		limiter:  spec.Limiter,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        name,
			MaxRequests: 1,
			Timeout:     settings.OpenTimeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= settings.ConsecutiveFailures
			},
			// 종목 없음은 소스 장애가 아님
			IsSuccessful: func(err error) bool {
				return err == nil || errors.Is(err, contracts.ErrNotFound)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.WithFields(map[string]interface{}{
					"source": name,
					"from":   from.String(),
					"to":     to.String(),
				}).Warn("Source circuit breaker state changed")
			},
		}),
	}
}

func (g *guarded) name() string {
	return g.source.Name()
}

// fill runs the source into a fresh builder and returns its document
func (g *guarded) fill(ctx context.Context, ticker contracts.Ticker, asOf time.Time) (contracts.SnapshotDocument, error) {
	if g.limiter != nil {
		if err := g.limiter.Wait(ctx); err != nil {
			return contracts.SnapshotDocument{}, fmt.Errorf("%s: %w: %w", g.name(), contracts.ErrRateLimited, err)
		}
	}

	b := contracts.NewSnapshotBuilder(ticker, asOf)
	_, err := g.breaker.Execute(func() (interface{}, error) {
		return nil, Classify(g.name(), g.source.Fill(ctx, ticker, asOf, b))
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return contracts.SnapshotDocument{}, fmt.Errorf("%s: %w: %w", g.name(), contracts.ErrSourceUnavailable, err)
	}
	if err != nil {
		return contracts.SnapshotDocument{}, err
	}
	return b.Build().Document(), nil
}

// RedisLimiter adapts the shared Redis sliding window to Limiter
type RedisLimiter struct {
	limiter *redis.RateLimiter
	config  redis.RateLimitConfig
}

// NewRedisLimiter creates a limiter shared across processes
func NewRedisLimiter(limiter *redis.RateLimiter, cfg redis.RateLimitConfig) *RedisLimiter {
	return &RedisLimiter{limiter: limiter, config: cfg}
}

// Wait blocks until the shared window admits a request
func (l *RedisLimiter) Wait(ctx context.Context) error {
	return l.limiter.Wait(ctx, l.config)
}
