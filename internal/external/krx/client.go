package krx

import (
	"strings"

	"github.com/wonny/prophet/pkg/httputil"
	"github.com/wonny/prophet/pkg/logger"
)

// DefaultBaseURL is the KRX market data host
const DefaultBaseURL = "http://data.krx.co.kr"

// Client handles communication with the KRX market data service
// ⭐ SSOT: KRX 시장 데이터 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

// NewClient creates a new KRX client. KRX rejects requests without
// browser-like headers, so they are set on httpClient.
func NewClient(httpClient *httputil.Client, baseURL string, log *logger.Logger) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	baseURL = strings.TrimRight(baseURL, "/")

	httpClient.
		WithHeader("User-Agent", "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36").
		WithHeader("Accept", "application/json, text/javascript, */*; q=0.01").
		WithHeader("Accept-Language", "ko-KR,ko;q=0.9,en-US;q=0.8,en;q=0.7").
		WithHeader("Origin", baseURL).
		WithHeader("Referer", baseURL+"/contents/MDC/MDI/mdiLoader/index.cmd?menuId=MDC0201020101")

	return &Client{
		httpClient: httpClient,
		logger:     log.WithComponent("krx"),
		baseURL:    baseURL,
	}
}
