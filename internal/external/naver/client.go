package naver

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/wonny/prophet/pkg/httputil"
	"github.com/wonny/prophet/pkg/logger"
)

// ErrNoData is returned when a page parses but holds no rows
var ErrNoData = errors.New("naver: no data")

const (
	DefaultBaseURL  = "https://finance.naver.com"
	DefaultChartURL = "https://fchart.stock.naver.com"
	userAgent       = "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36"
)

// Client handles communication with Naver Finance
// ⭐ SSOT: Naver Finance 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
	chartURL   string
}

// NewClient creates a new Naver Finance client. Empty URLs use the public hosts.
func NewClient(httpClient *httputil.Client, baseURL, chartURL string, log *logger.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if chartURL == "" {
		chartURL = DefaultChartURL
	}
	httpClient.
		WithHeader("User-Agent", userAgent).
		WithHeader("Referer", DefaultBaseURL+"/")

	return &Client{
		httpClient: httpClient,
		logger:     log.WithComponent("naver"),
		baseURL:    baseURL,
		chartURL:   chartURL,
	}
}

// fetchHTML fetches a page from Naver Finance
func (c *Client) fetchHTML(ctx context.Context, base, path string, params url.Values) (string, error) {
	fullURL := base + path
	if len(params) > 0 {
		fullURL = fmt.Sprintf("%s?%s", fullURL, params.Encode())
	}

	body, err := c.httpClient.GetBody(ctx, fullURL)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// PriceData represents daily price data
type PriceData struct {
	TradeDate    time.Time
	OpenPrice    int64
	HighPrice    int64
	LowPrice     int64
	ClosePrice   int64
	Volume       int64
	TradingValue int64
}

// InvestorFlowData represents investor trading flow
type InvestorFlowData struct {
	StockCode      string
	TradeDate      time.Time
	ForeignNet     int64 // 외국인 순매수
	InstitutionNet int64 // 기관 순매수
	IndividualNet  int64 // 개인 순매수 (계산)
}

// CreditBalance is one day of market-wide margin debt (신용잔고, 억원)
type CreditBalance struct {
	TradeDate time.Time
	Balance   int64
}
