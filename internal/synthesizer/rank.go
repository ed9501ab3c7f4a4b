package synthesizer

import (
	"sort"

	"github.com/wonny/prophet/internal/contracts"
)

// Rank orders verdicts for reporting: buyable tickers by total (desc),
// then FORBIDDEN ones by total (desc). Ties break on ticker.
func Rank(verdicts []contracts.Verdict) []contracts.Verdict {
	out := make([]contracts.Verdict, len(verdicts))
	copy(out, verdicts)

	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.IsForbidden() != b.IsForbidden() {
			return !a.IsForbidden()
		}
		if a.Score.Total != b.Score.Total {
			return a.Score.Total > b.Score.Total
		}
		return a.Score.Ticker < b.Score.Ticker
	})
	return out
}

// Top returns the first n ranked buyable verdicts
func Top(verdicts []contracts.Verdict, n int) []contracts.Verdict {
	ranked := Rank(verdicts)
	out := make([]contracts.Verdict, 0, n)
	for _, v := range ranked {
		if len(out) >= n || v.IsForbidden() {
			break
		}
		out = append(out, v)
	}
	return out
}
