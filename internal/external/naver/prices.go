package naver

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

var priceRowPattern = regexp.MustCompile(`\["(\d{8})",\s*(\d+),\s*(\d+),\s*(\d+),\s*(\d+),\s*(\d+)\]`)

// FetchPrices fetches daily price data for a stock, oldest first
// ⭐ SSOT: Naver Finance 가격 API 호출은 이 함수에서만
func (c *Client) FetchPrices(ctx context.Context, stockCode string, from, to time.Time) ([]PriceData, error) {
	params := url.Values{}
	params.Set("symbol", stockCode)
	params.Set("requestType", "1")
	params.Set("startTime", from.Format("20060102"))
	params.Set("endTime", to.Format("20060102"))
	params.Set("timeframe", "day")

	body, err := c.fetchHTML(ctx, c.chartURL, "/siseJson.naver", params)
	if err != nil {
		return nil, fmt.Errorf("fetch prices %s: %w", stockCode, err)
	}

	prices, err := c.parsePriceResponse(body)
	if err != nil {
		return nil, fmt.Errorf("parse prices %s: %w", stockCode, err)
	}
	if len(prices) == 0 {
		return nil, fmt.Errorf("prices %s: %w", stockCode, ErrNoData)
	}

	sort.Slice(prices, func(i, j int) bool { return prices[i].TradeDate.Before(prices[j].TradeDate) })

	c.logger.WithFields(map[string]interface{}{
		"stock_code": stockCode,
		"count":      len(prices),
	}).Debug("Fetched prices")
	return prices, nil
}

// parsePriceResponse parses the chart API's quasi-JSON body
func (c *Client) parsePriceResponse(body string) ([]PriceData, error) {
	body = strings.TrimSpace(body)
	body = strings.ReplaceAll(body, "'", "\"")

	var rawData [][]interface{}
	if err := json.Unmarshal([]byte(body), &rawData); err == nil {
		return c.parsePriceJSON(rawData)
	}

	// Fallback to regex parsing
	return c.parsePriceRegex(body)
}

// parsePriceJSON parses JSON array format
func (c *Client) parsePriceJSON(rawData [][]interface{}) ([]PriceData, error) {
	var prices []PriceData
	for i, row := range rawData {
		if i == 0 || len(row) < 6 {
			continue // Skip header
		}

		dateStr, ok := row[0].(string)
		if !ok {
			continue
		}
		tradeDate, err := time.Parse("20060102", strings.Trim(strings.TrimSpace(dateStr), "\""))
		if err != nil {
			continue
		}

		closePrice := toInt64(row[4])
		volume := toInt64(row[5])
		prices = append(prices, PriceData{
			TradeDate:    tradeDate,
			OpenPrice:    toInt64(row[1]),
			HighPrice:    toInt64(row[2]),
			LowPrice:     toInt64(row[3]),
			ClosePrice:   closePrice,
			Volume:       volume,
			TradingValue: closePrice * volume,
		})
	}
	return prices, nil
}

// parsePriceRegex parses using regex (fallback)
func (c *Client) parsePriceRegex(body string) ([]PriceData, error) {
	var prices []PriceData
	for _, match := range priceRowPattern.FindAllStringSubmatch(body, -1) {
		tradeDate, err := time.Parse("20060102", match[1])
		if err != nil {
			continue
		}

		closePrice, _ := strconv.ParseInt(match[5], 10, 64)
		volume, _ := strconv.ParseInt(match[6], 10, 64)
		prices = append(prices, PriceData{
			TradeDate:    tradeDate,
			OpenPrice:    toInt64(match[2]),
			HighPrice:    toInt64(match[3]),
			LowPrice:     toInt64(match[4]),
			ClosePrice:   closePrice,
			Volume:       volume,
			TradingValue: closePrice * volume,
		})
	}
	return prices, nil
}

// toInt64 converts various types to int64
func toInt64(v interface{}) int64 {
	switch val := v.(type) {
	case float64:
		return int64(val)
	case int64:
		return val
	case int:
		return int64(val)
	case string:
		n, _ := strconv.ParseInt(strings.TrimSpace(val), 10, 64)
		return n
	default:
		return 0
	}
}
