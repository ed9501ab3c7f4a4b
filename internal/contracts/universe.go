package contracts

import "time"

// Universe is the list of tickers a scan covers
// ⭐ SSOT: Universe → Scanner 대상 종목 전달
type Universe struct {
	Date       time.Time         `json:"date"`
	Tickers    []Ticker          `json:"tickers"`
	Excluded   map[Ticker]string `json:"excluded"`              // 제외 종목: 사유
	TotalCount int               `json:"total_count,omitempty"` // 전체 종목 수
}

// Contains checks if a ticker is in the universe
func (u *Universe) Contains(ticker Ticker) bool {
	for _, t := range u.Tickers {
		if t == ticker {
			return true
		}
	}
	return false
}

// Count returns the number of tickers to scan
func (u *Universe) Count() int {
	return len(u.Tickers)
}
