package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/time/rate"

	"github.com/wonny/prophet/internal/alert"
	"github.com/wonny/prophet/internal/collector"
	"github.com/wonny/prophet/internal/contracts"
	"github.com/wonny/prophet/internal/engine"
	"github.com/wonny/prophet/internal/external/dart"
	"github.com/wonny/prophet/internal/external/krx"
	"github.com/wonny/prophet/internal/external/naver"
	"github.com/wonny/prophet/internal/scoreconfig"
	"github.com/wonny/prophet/internal/universe"
	"github.com/wonny/prophet/pkg/config"
	"github.com/wonny/prophet/pkg/database"
	"github.com/wonny/prophet/pkg/httputil"
	"github.com/wonny/prophet/pkg/logger"
	"github.com/wonny/prophet/pkg/metrics"
	"github.com/wonny/prophet/pkg/redis"
)

const (
	redisPrefix = "prophet"

	naverLookbackDays = 20
	naverCreditPages  = 6
	dartWindowDays    = 180
	dartMaxPages      = 50
	pgLookbackDays    = 20
)

// app holds the wired dependencies shared by the commands
// ⭐ SSOT: 의존성 조립은 여기서만
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	scoring *scoreconfig.Config
	engine  *engine.Engine
	metrics *metrics.Recorder
	redis   *redis.Client
	db      *database.DB
}

// newApp loads process and scoring config and connects Redis when enabled.
// The database connects lazily.
func newApp() (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if verbose {
		cfg.LogLevel = "debug"
	}
	if scoringFile != "" {
		cfg.ScoringConfigPath = scoringFile
	}

	log := logger.New(cfg)

	scoring, err := loadScoring(cfg.ScoringConfigPath, log)
	if err != nil {
		return nil, err
	}

	eng, err := engine.New(scoring)
	if err != nil {
		return nil, err
	}

	rdb, err := redis.New(cfg)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:     cfg,
		log:     log,
		scoring: scoring,
		engine:  eng,
		redis:   rdb,
	}
	if cfg.MetricsEnabled {
		a.metrics = metrics.New()
	}

	log.WithFields(map[string]interface{}{
		"config_hash": eng.ConfigHash(),
		"sources":     cfg.Scan.Sources,
		"redis":       rdb.Enabled(),
	}).Debug("Prophet initialized")

	return a, nil
}

// loadScoring reads the scoring YAML. A missing file falls back to the
// built-in defaults; an invalid one is an error.
func loadScoring(path string, log *logger.Logger) (*scoreconfig.Config, error) {
	cfg, _, err := scoreconfig.Load(path)
	if errors.Is(err, os.ErrNotExist) {
		log.WithField("path", path).Warn("Scoring config not found, using defaults")
		cfg = scoreconfig.Default()
		err = scoreconfig.Validate(cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("scoring config %s: %w", path, err)
	}

	for _, w := range scoreconfig.Warn(cfg) {
		log.WithField("code", w.Code).Warn(w.Message)
	}
	return cfg, nil
}

// Close releases connections
func (a *app) Close() {
	a.db.Close()
	if err := a.redis.Close(); err != nil {
		a.log.WithError(err).Warn("Failed to close redis")
	}
}

// database connects on first use
func (a *app) database(ctx context.Context) (*database.DB, error) {
	if a.db != nil {
		return a.db, nil
	}
	db, err := database.New(ctx, a.cfg)
	if err != nil {
		return nil, err
	}
	a.db = db
	return db, nil
}

// collector assembles the configured sources. The first listed source is required.
func (a *app) collector(ctx context.Context) (*collector.Assembler, error) {
	var shared *redis.RateLimiter
	if a.redis.Enabled() {
		shared = redis.NewRateLimiter(a.redis, redisPrefix)
	}

	specs := make([]collector.SourceSpec, 0, len(a.cfg.Scan.Sources))
	for i, name := range a.cfg.Scan.Sources {
		src, err := a.source(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("source %s: %w", name, err)
		}

		spec := collector.SourceSpec{Source: src, Required: i == 0}
		// 로컬 fixture는 제한 없음
		if name != config.SourceFile {
			spec.Limiter = a.limiter(name, shared)
		}
		specs = append(specs, spec)
	}

	asm := collector.NewAssembler(a.log, specs...).WithMetrics(a.metrics)
	if a.redis.Enabled() && a.cfg.Scan.SnapshotCacheTTL > 0 {
		asm = asm.WithCache(redis.NewCache(a.redis, redisPrefix), a.cfg.Scan.SnapshotCacheTTL)
	}
	return asm, nil
}

func (a *app) source(ctx context.Context, name string) (collector.Source, error) {
	switch name {
	case config.SourceFile:
		return collector.NewFileSource(a.cfg.Scan.FixtureDir), nil
	case config.SourceNaver:
		client := naver.NewClient(httputil.New(a.log), a.cfg.Naver.BaseURL, "", a.log)
		return collector.NewNaverSource(client, naverLookbackDays, naverCreditPages), nil
	case config.SourceDART:
		client := dart.NewClient(a.cfg.DART.APIKey, a.cfg.DART.BaseURL, a.log)
		return collector.NewDARTSource(client, dartWindowDays, dartMaxPages), nil
	case config.SourcePostgres:
		db, err := a.database(ctx)
		if err != nil {
			return nil, err
		}
		return collector.NewPostgresSource(collector.NewPGStore(db.Pool), pgLookbackDays), nil
	default:
		return nil, fmt.Errorf("unknown collector source %q", name)
	}
}

// limiter shares the Redis window across processes when Redis is enabled
func (a *app) limiter(name string, shared *redis.RateLimiter) collector.Limiter {
	rps := a.cfg.Scan.RequestsPerSec
	if shared != nil {
		return collector.NewRedisLimiter(shared, redis.PerSecond("collector:"+name, rps))
	}
	return rate.NewLimiter(rate.Limit(rps), 1)
}

// emitter sends verdicts at or above ALERT_MIN_TIER to the log and Telegram;
// extra emitters (the websocket hub) receive every verdict.
func (a *app) emitter(extra ...contracts.Emitter) contracts.Emitter {
	minTier, err := contracts.ParseTier(a.cfg.Scan.AlertMinTier)
	if err != nil {
		a.log.WithError(err).Warn("Invalid ALERT_MIN_TIER, using LIKELY")
		minTier = contracts.TierLikely
	}

	alerts := alert.Fanout{alert.NewLogEmitter(a.log)}
	if a.cfg.Telegram.Enabled() {
		alerts = append(alerts, alert.NewTelegram(
			httputil.New(a.log),
			a.cfg.Telegram.BaseURL,
			a.cfg.Telegram.BotToken,
			a.cfg.Telegram.ChatID,
			a.log,
		))
	}

	out := alert.Fanout{alert.MinTier(minTier, alerts)}
	return append(out, extra...)
}

// scanner wires engine, collector and emitter
func (a *app) scanner(ctx context.Context, concurrency int, extra ...contracts.Emitter) (*engine.Scanner, error) {
	col, err := a.collector(ctx)
	if err != nil {
		return nil, err
	}
	if concurrency <= 0 {
		concurrency = a.cfg.Scan.Concurrency
	}
	return engine.NewScanner(a.engine, col, a.emitter(extra...), concurrency, a.metrics, a.log), nil
}

// universe picks the ticker list: explicit tickers, then a file, then the
// market-wide builder over the database or KRX
func (a *app) universe(ctx context.Context, tickers, file string) (contracts.UniverseBuilder, error) {
	if strings.TrimSpace(tickers) != "" {
		return universe.ParseTickers(tickers), nil
	}
	if file == "" {
		file = a.cfg.Scan.UniverseFile
	}
	if file != "" {
		return universe.NewFile(file), nil
	}

	cfg := universe.DefaultConfig()
	cfg.Markets = a.cfg.Scan.Markets
	cfg.MinMarketCap = a.cfg.Scan.MinMarketCap
	cfg.MaxStocks = a.cfg.Scan.MaxStocks

	if a.cfg.Scan.UniverseSource == config.UniverseKRX {
		client := krx.NewClient(httputil.New(a.log), a.cfg.Scan.KRXBaseURL, a.log)
		return universe.NewBuilder(universe.NewKRXLister(client, cfg.Markets), cfg, a.log), nil
	}

	if !a.cfg.Database.Enabled() {
		return nil, errors.New("no universe: pass --tickers or --universe, or set UNIVERSE_FILE, DATABASE_URL or UNIVERSE_SOURCE=krx")
	}
	db, err := a.database(ctx)
	if err != nil {
		return nil, err
	}
	return universe.NewBuilder(universe.NewRepository(db.Pool), cfg, a.log), nil
}
