package contracts

import "time"

// ScanReport summarizes one scan over a universe
// ⭐ SSOT: Scanner → CLI/API 결과 전달
type ScanReport struct {
	RunID      string            `json:"run_id"`
	AsOf       time.Time         `json:"as_of"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
	ConfigHash string            `json:"config_hash"`
	Requested  int               `json:"requested"`
	Verdicts   []Verdict         `json:"verdicts"`
	Skipped    map[Ticker]string `json:"skipped"` // 종목: 사유
}

// Scored returns the number of tickers that produced a verdict
func (r *ScanReport) Scored() int {
	return len(r.Verdicts)
}

// CoverageRate returns scored / requested
func (r *ScanReport) CoverageRate() float64 {
	if r.Requested == 0 {
		return 0.0
	}
	return float64(len(r.Verdicts)) / float64(r.Requested)
}

// Duration returns the wall time of the scan
func (r *ScanReport) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// CountByTier returns the number of verdicts per tier
func (r *ScanReport) CountByTier() map[Tier]int {
	counts := make(map[Tier]int)
	for _, v := range r.Verdicts {
		counts[v.Tier]++
	}
	return counts
}
