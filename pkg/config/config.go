package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Collector source names
const (
	SourceFile     = "file"
	SourceNaver    = "naver"
	SourceDART     = "dart"
	SourcePostgres = "postgres"
)

// Market-wide universe sources
const (
	UniverseDB  = "db"
	UniverseKRX = "krx"
)

// Config holds all configuration for the application
// ⭐ SSOT: 모든 환경변수는 여기서만 읽음
type Config struct {
	// Server
	Port string
	Env  string // development, staging, production

	// Database
	Database DatabaseConfig

	// Redis
	Redis RedisConfig

	// External APIs
	DART     DARTConfig
	Naver    NaverConfig
	Telegram TelegramConfig

	// Scoring
	ScoringConfigPath string // 임계값 YAML (scoreconfig)
	Scan              ScanConfig

	// Logging
	LogLevel  string
	LogFormat string

	// Monitoring
	MetricsEnabled bool
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
	Enabled  bool
}

// DatabaseConfig holds PostgreSQL configuration
type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	URL      string

	// Connection Pool
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
}

// Enabled reports whether a database is configured
func (d DatabaseConfig) Enabled() bool {
	return d.URL != ""
}

// DARTConfig holds DART (전자공시) API configuration
type DARTConfig struct {
	APIKey  string
	BaseURL string
}

// NaverConfig holds Naver Finance configuration
type NaverConfig struct {
	BaseURL string
}

// TelegramConfig holds Telegram bot configuration
type TelegramConfig struct {
	BotToken string
	ChatID   string
	BaseURL  string
}

// Enabled reports whether Telegram alerts can be sent
func (t TelegramConfig) Enabled() bool {
	return t.BotToken != "" && t.ChatID != ""
}

// ScanConfig holds scan / monitor settings
type ScanConfig struct {
	Concurrency      int           // 동시 처리 종목 수
	MonitorInterval  time.Duration // 모니터링 주기
	TopN             int           // 상위 출력 개수
	UniverseFile     string        // 종목 목록 파일 (비어 있으면 DB)
	FixtureDir       string        // file 소스 스냅샷 디렉토리
	Sources          []string      // 활성 수집 소스
	RequestsPerSec   float64       // 소스별 요청 제한
	SnapshotCacheTTL time.Duration // Redis 스냅샷 캐시
	AlertMinTier     string        // 알림 최소 등급

	// 전체 시장 유니버스 (DB 또는 KRX)
	UniverseSource string   // db, krx
	KRXBaseURL     string   // KRX 시가총액 조회
	Markets        []string // KOSPI, KOSDAQ
	MinMarketCap   int64    // 억원
	MaxStocks      int      // 시총 상위 N
}

// Load reads configuration from environment variables
// ⭐ SSOT: 이 함수만 os.Getenv()를 호출함
func Load() (*Config, error) {
	// Try multiple paths for .env file
	loadEnvFile()

	cfg := &Config{
		// Server
		Port: getEnv("PORT", "8089"),
		Env:  getEnv("ENV", "development"),

		// Database
		Database: DatabaseConfig{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnv("DB_PORT", "5432"),
			Name:            getEnv("DB_NAME", "prophet"),
			User:            getEnv("DB_USER", "prophet"),
			Password:        getEnv("DB_PASSWORD", ""),
			URL:             getEnv("DATABASE_URL", ""),
			MaxConns:        getEnvAsInt("DB_MAX_CONNS", 25),
			MinConns:        getEnvAsInt("DB_MIN_CONNS", 5),
			MaxConnLifetime: getEnvAsDuration("DB_MAX_CONN_LIFETIME", "1h"),
			MaxConnIdleTime: getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", "30m"),
		},

		// Redis
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
		},

		// External APIs
		DART: DARTConfig{
			APIKey:  getEnv("DART_API_KEY", ""),
			BaseURL: getEnv("DART_BASE_URL", "https://opendart.fss.or.kr/api"),
		},

		Naver: NaverConfig{
			BaseURL: getEnv("NAVER_BASE_URL", "https://finance.naver.com"),
		},

		Telegram: TelegramConfig{
			BotToken: getEnv("TELEGRAM_BOT_TOKEN", ""),
			ChatID:   getEnv("TELEGRAM_CHAT_ID", ""),
			BaseURL:  getEnv("TELEGRAM_BASE_URL", "https://api.telegram.org"),
		},

		// Scoring
		ScoringConfigPath: getEnv("SCORING_CONFIG", "config/scoring.yaml"),
		Scan: ScanConfig{
			Concurrency:      getEnvAsInt("SCAN_CONCURRENCY", 8),
			MonitorInterval:  getEnvAsDuration("MONITOR_INTERVAL", "1h"),
			TopN:             getEnvAsInt("SCAN_TOP_N", 20),
			UniverseFile:     getEnv("UNIVERSE_FILE", ""),
			FixtureDir:       getEnv("FIXTURE_DIR", "fixtures"),
			Sources:          getEnvAsList("COLLECTOR_SOURCES", SourceFile),
			RequestsPerSec:   getEnvAsFloat("COLLECTOR_RPS", 5),
			SnapshotCacheTTL: getEnvAsDuration("SNAPSHOT_CACHE_TTL", "30m"),
			AlertMinTier:     getEnv("ALERT_MIN_TIER", "LIKELY"),
			UniverseSource:   strings.ToLower(getEnv("UNIVERSE_SOURCE", UniverseDB)),
			KRXBaseURL:       getEnv("KRX_BASE_URL", "http://data.krx.co.kr"),
			Markets:          upper(getEnvAsList("UNIVERSE_MARKETS", "KOSPI,KOSDAQ")),
			MinMarketCap:     int64(getEnvAsInt("UNIVERSE_MIN_MARKET_CAP", 1000)),
			MaxStocks:        getEnvAsInt("UNIVERSE_MAX_STOCKS", 300),
		},

		// Logging
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogFormat: getEnv("LOG_FORMAT", "json"),

		// Monitoring
		MetricsEnabled: getEnvAsBool("METRICS_ENABLED", true),
	}

	// Validate configuration
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// HasSource reports whether a collector source is enabled
func (c *Config) HasSource(name string) bool {
	for _, s := range c.Scan.Sources {
		if s == name {
			return true
		}
	}
	return false
}

// validate checks if required configuration values are set
func (c *Config) validate() error {
	// Validate environment
	if c.Env != "development" && c.Env != "staging" && c.Env != "production" {
		return fmt.Errorf("ENV must be one of: development, staging, production")
	}

	if c.Scan.Concurrency < 1 {
		return fmt.Errorf("SCAN_CONCURRENCY must be >= 1")
	}
	if c.Scan.MonitorInterval <= 0 {
		return fmt.Errorf("MONITOR_INTERVAL must be > 0")
	}
	if c.Scan.RequestsPerSec <= 0 {
		return fmt.Errorf("COLLECTOR_RPS must be > 0")
	}
	if c.Scan.MaxStocks < 0 {
		return fmt.Errorf("UNIVERSE_MAX_STOCKS must be >= 0")
	}
	if c.Scan.UniverseSource != UniverseDB && c.Scan.UniverseSource != UniverseKRX {
		return fmt.Errorf("UNIVERSE_SOURCE must be one of: db, krx")
	}
	if len(c.Scan.Sources) == 0 {
		return fmt.Errorf("COLLECTOR_SOURCES must not be empty")
	}

	for _, s := range c.Scan.Sources {
		switch s {
		case SourceFile, SourceNaver:
		case SourceDART:
			if c.DART.APIKey == "" {
				return fmt.Errorf("DART_API_KEY is required for the dart source")
			}
		case SourcePostgres:
			if !c.Database.Enabled() {
				return fmt.Errorf("DATABASE_URL is required for the postgres source")
			}
		default:
			return fmt.Errorf("unknown collector source %q", s)
		}
	}

	return nil
}

// Helper functions (private, only used within this file)

// loadEnvFile tries to load .env from multiple locations
func loadEnvFile() {
	paths := []string{".env"}

	// Also try relative to executable
	if exe, err := os.Executable(); err == nil {
		exeDir := filepath.Dir(exe)
		paths = append(paths,
			filepath.Join(exeDir, ".env"),
			filepath.Join(exeDir, "..", ".env"),
		)
	}

	for _, path := range paths {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			return
		}
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	value, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	value, err := strconv.ParseFloat(os.Getenv(key), 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsBool(key string, defaultValue bool) bool {
	value, err := strconv.ParseBool(os.Getenv(key))
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvAsDuration(key string, defaultValue string) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		valueStr = defaultValue
	}

	duration, err := time.ParseDuration(valueStr)
	if err != nil {
		// Fallback to default
		duration, _ = time.ParseDuration(defaultValue)
	}

	return duration
}

// getEnvAsList parses a comma-separated list
func getEnvAsList(key, defaultValue string) []string {
	var out []string
	for _, part := range strings.Split(getEnv(key, defaultValue), ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, strings.ToLower(p))
		}
	}
	return out
}

func upper(list []string) []string {
	for i, s := range list {
		list[i] = strings.ToUpper(s)
	}
	return list
}
