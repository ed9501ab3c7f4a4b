package naver

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// FetchCreditBalances fetches market margin debt (증시자금동향), oldest first
func (c *Client) FetchCreditBalances(ctx context.Context, pages int) ([]CreditBalance, error) {
	if pages < 1 {
		pages = 1
	}

	seen := make(map[string]bool)
	var all []CreditBalance
	for page := 1; page <= pages; page++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		params := url.Values{}
		params.Set("page", strconv.Itoa(page))
		html, err := c.fetchHTML(ctx, c.baseURL, "/sise/sise_deposit.naver", params)
		if err != nil {
			return nil, fmt.Errorf("fetch credit balance: %w", err)
		}

		rows := parseCreditHTML(html)
		if len(rows) == 0 {
			break
		}
		for _, r := range rows {
			key := r.TradeDate.Format("2006-01-02")
			if !seen[key] {
				seen[key] = true
				all = append(all, r)
			}
		}
	}

	if len(all) == 0 {
		return nil, fmt.Errorf("credit balance: %w", ErrNoData)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].TradeDate.Before(all[j].TradeDate) })
	return all, nil
}

// parseCreditHTML reads table.type_1 rows
// 컬럼: 날짜 | 고객예탁금 | 증감 | 신용잔고 | 증감 | ...
func parseCreditHTML(html string) []CreditBalance {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var rows []CreditBalance
	doc.Find("table.type_1 tr").Each(func(i int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 4 {
			return
		}
		date, ok := parseDotDate(cells.Eq(0).Text())
		if !ok {
			return
		}
		balance := parseNum(cells.Eq(3).Text())
		if balance <= 0 {
			return
		}
		rows = append(rows, CreditBalance{TradeDate: date, Balance: balance})
	})
	return rows
}
