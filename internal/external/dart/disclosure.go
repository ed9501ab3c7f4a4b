package dart

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// DART status codes
const (
	statusOK        = "000"
	statusNoData    = "013"
	statusOverLimit = "020"
)

// ErrQuotaExceeded is returned when DART rejects the key's request budget
var ErrQuotaExceeded = errors.New("dart: request quota exceeded")

// APIError is a non-success DART status
type APIError struct {
	Status  string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("dart API error: %s - %s", e.Status, e.Message)
}

// FetchLargeHoldingReports lists 지분공시 between from and to and keeps the
// 대량보유 reports. At most maxPages pages of 100 are read.
// ⭐ SSOT: DART 공시 데이터 호출은 이 함수에서만
func (c *Client) FetchLargeHoldingReports(ctx context.Context, from, to time.Time, maxPages int) ([]Disclosure, error) {
	var out []Disclosure
	for page := 1; page <= maxPages; page++ {
		list, totalPage, err := c.fetchPage(ctx, from, to, page)
		if err != nil {
			return nil, err
		}
		for _, d := range list {
			if d.StockCode != "" && IsLargeHoldingReport(d.ReportNm) {
				out = append(out, d)
			}
		}
		if page >= totalPage {
			break
		}
	}

	c.logger.WithFields(map[string]interface{}{
		"from":  from.Format("2006-01-02"),
		"to":    to.Format("2006-01-02"),
		"count": len(out),
	}).Debug("Fetched large holding reports")
	return out, nil
}

// CountByStock counts disclosures per stock code
func CountByStock(disclosures []Disclosure) map[string]int {
	counts := make(map[string]int)
	for _, d := range disclosures {
		counts[d.StockCode]++
	}
	return counts
}

// fetchPage fetches a single page of 지분공시 (pblntf_ty=D) for all companies
func (c *Client) fetchPage(ctx context.Context, from, to time.Time, page int) ([]Disclosure, int, error) {
	params := url.Values{}
	params.Set("crtfc_key", c.apiKey)
	params.Set("bgn_de", from.Format("20060102"))
	params.Set("end_de", to.Format("20060102"))
	params.Set("pblntf_ty", "D")
	params.Set("page_no", strconv.Itoa(page))
	params.Set("page_count", "100")

	body, err := c.httpClient.GetBody(ctx, c.baseURL+"/list.json?"+params.Encode())
	if err != nil {
		return nil, 0, fmt.Errorf("dart list page %d: %w", page, err)
	}

	var result DisclosureResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, 0, fmt.Errorf("decode response: %w", err)
	}

	switch result.Status {
	case statusOK:
		return result.Disclosures, result.TotalPage, nil
	case statusNoData:
		return nil, 0, nil // No data is not an error
	case statusOverLimit:
		return nil, 0, fmt.Errorf("%w: %s", ErrQuotaExceeded, result.Message)
	default:
		return nil, 0, &APIError{Status: result.Status, Message: result.Message}
	}
}
