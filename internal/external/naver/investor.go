package naver

import (
	"context"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

const maxInvestorPages = 10

var dotDatePattern = regexp.MustCompile(`^\d{2}(\d{2})?\.\d{2}\.\d{2}$`)

// FetchInvestorFlow fetches foreign/institution net buying between from and to, oldest first
// ⭐ SSOT: Naver Finance 투자자 수급 데이터 호출은 이 함수에서만
func (c *Client) FetchInvestorFlow(ctx context.Context, stockCode string, from, to time.Time) ([]InvestorFlowData, error) {
	var allTrades []InvestorFlowData

	for page := 1; page <= maxInvestorPages; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		params := url.Values{}
		params.Set("code", stockCode)
		params.Set("page", strconv.Itoa(page))

		html, err := c.fetchHTML(ctx, c.baseURL, "/item/frgn.naver", params)
		if err != nil {
			return nil, fmt.Errorf("fetch investor flow %s: %w", stockCode, err)
		}

		trades, lastDate, hasMore := c.parseInvestorHTML(html, stockCode, from, to)
		allTrades = append(allTrades, trades...)

		// 기준일보다 이전 데이터면 종료
		if lastDate.IsZero() || lastDate.Before(from) || !hasMore {
			break
		}
	}

	if len(allTrades) == 0 {
		return nil, fmt.Errorf("investor flow %s: %w", stockCode, ErrNoData)
	}
	sort.Slice(allTrades, func(i, j int) bool { return allTrades[i].TradeDate.Before(allTrades[j].TradeDate) })

	c.logger.WithFields(map[string]interface{}{
		"stock_code": stockCode,
		"count":      len(allTrades),
	}).Debug("Fetched investor flow")
	return allTrades, nil
}

// parseInvestorHTML parses the frgn page: second table.type2 holds the rows
func (c *Client) parseInvestorHTML(html string, stockCode string, from, to time.Time) ([]InvestorFlowData, time.Time, bool) {
	var trades []InvestorFlowData
	var lastDate time.Time

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return trades, lastDate, false
	}

	tables := doc.Find("table.type2")
	if tables.Length() < 2 {
		return trades, lastDate, false
	}

	tables.Eq(1).Find("tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 7 {
			return
		}

		tradeDate, ok := parseDotDate(cells.Eq(0).Text())
		if !ok {
			return
		}
		lastDate = tradeDate

		if tradeDate.Before(from) || tradeDate.After(to) {
			return
		}

		// 컬럼: 날짜 | 종가 | 대비 | 등락률 | 거래량 | 기관 | 외국인
		instNet := parseNum(cells.Eq(5).Text())
		foreignNet := parseNum(cells.Eq(6).Text())

		trades = append(trades, InvestorFlowData{
			StockCode:      stockCode,
			TradeDate:      tradeDate,
			ForeignNet:     foreignNet,
			InstitutionNet: instNet,
			IndividualNet:  -(foreignNet + instNet),
		})
	})

	hasMore := doc.Find(".pgRR").Length() > 0
	return trades, lastDate, hasMore
}

// parseDotDate accepts "2024.01.15" and "24.01.15"
func parseDotDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if !dotDatePattern.MatchString(s) {
		return time.Time{}, false
	}
	layout := "2006.01.02"
	if len(s) == 8 {
		layout = "06.01.02"
	}
	t, err := time.Parse(layout, s)
	return t, err == nil
}

func parseNum(s string) int64 {
	s = strings.TrimSpace(s)
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, "+", "")
	if s == "" || s == "-" {
		return 0
	}
	n, _ := strconv.ParseInt(s, 10, 64)
	return n
}
