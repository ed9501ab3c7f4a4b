package krx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/prophet/pkg/httputil"
)

// ErrNoData is returned when KRX has no rows for the trade date
var ErrNoData = errors.New("krx: no data")

// MarketCapItem represents a single stock's market cap data from KRX API
type MarketCapItem struct {
	StockCode         string    // 종목코드
	StockName         string    // 종목명
	Market            string    // KOSPI, KOSDAQ
	MarketCap         int64     // 시가총액 (원)
	SharesOutstanding int64     // 상장주식수
	ClosePrice        int64     // 종가
	TradeDate         time.Time // 거래일
}

// krxMarketCapResponse represents KRX API response
type krxMarketCapResponse struct {
	OutBlock1 []krxMarketCapRow `json:"OutBlock_1"`
}

// krxMarketCapRow represents a row in KRX market cap response
type krxMarketCapRow struct {
	ShortCode  string `json:"ISU_SRT_CD"` // 종목코드 (단축)
	Name       string `json:"ISU_ABBRV"`  // 종목명
	ClosePrice string `json:"TDD_CLSPRC"` // 종가
	MarketCap  string `json:"MKTCAP"`     // 시가총액
	Shares     string `json:"LIST_SHRS"`  // 상장주식수
}

var marketIDs = map[string]string{
	"KOSPI":  "STK",
	"KOSDAQ": "KSQ",
}

// TradeDate returns the last weekday on or before t
func TradeDate(t time.Time) time.Time {
	for t.Weekday() == time.Saturday || t.Weekday() == time.Sunday {
		t = t.AddDate(0, 0, -1)
	}
	return t
}

// FetchMarketCaps fetches market cap and shares outstanding for every stock
// of a market on the last trade date on or before asOf
// ⭐ SSOT: KRX 시가총액/상장주식수 조회는 이 함수에서만
func (c *Client) FetchMarketCaps(ctx context.Context, market string, asOf time.Time) ([]MarketCapItem, error) {
	market = strings.ToUpper(market)
	mktID, ok := marketIDs[market]
	if !ok {
		return nil, fmt.Errorf("unsupported market: %s", market)
	}

	tradeDate := TradeDate(asOf)
	trdDd := tradeDate.Format("20060102")

	formData := url.Values{
		"bld":         {"dbms/MDC/STAT/standard/MDCSTAT01501"},
		"locale":      {"ko_KR"},
		"mktId":       {mktID},
		"trdDd":       {trdDd},
		"share":       {"1"},
		"money":       {"1"},
		"csvxls_isNo": {"false"},
	}

	log := c.logger.WithFields(map[string]interface{}{
		"market":     market,
		"trade_date": trdDd,
	})
	log.Debug("Fetching market caps from KRX")

	resp, err := c.httpClient.Post(ctx, c.baseURL+"/comm/bldAttendant/getJsonData.cmd",
		"application/x-www-form-urlencoded", []byte(formData.Encode()))
	if err != nil {
		return nil, fmt.Errorf("KRX API request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &httputil.StatusError{URL: c.baseURL, StatusCode: resp.StatusCode}
	}

	var apiResp krxMarketCapResponse
	if err := json.Unmarshal(body, &apiResp); err != nil {
		preview := string(body[:min(200, len(body))])
		log.WithField("response_preview", preview).Error("Failed to parse KRX response")
		return nil, fmt.Errorf("decode KRX response: %w", err)
	}
	if len(apiResp.OutBlock1) == 0 {
		return nil, fmt.Errorf("%s %s: %w", market, trdDd, ErrNoData)
	}

	result := make([]MarketCapItem, 0, len(apiResp.OutBlock1))
	for _, row := range apiResp.OutBlock1 {
		shares := parseKRXNumber(row.Shares)

		// Skip if essential data is missing
		if row.ShortCode == "" || shares == 0 {
			continue
		}

		result = append(result, MarketCapItem{
			StockCode:         row.ShortCode,
			StockName:         strings.TrimSpace(row.Name),
			Market:            market,
			MarketCap:         parseKRXNumber(row.MarketCap),
			SharesOutstanding: shares,
			ClosePrice:        parseKRXNumber(row.ClosePrice),
			TradeDate:         tradeDate,
		})
	}

	log.WithField("count", len(result)).Info("Fetched market caps from KRX")
	return result, nil
}

// parseKRXNumber parses KRX number format (with commas) to int64
func parseKRXNumber(s string) int64 {
	s = strings.ReplaceAll(s, ",", "")
	s = strings.TrimSpace(s)
	if s == "" || s == "-" {
		return 0
	}
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}
