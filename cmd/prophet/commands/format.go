package commands

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/wonny/prophet/internal/alert"
	"github.com/wonny/prophet/internal/contracts"
	"github.com/wonny/prophet/internal/synthesizer"
)

// ═══════════════════════════════════════════════════════════
// Common Formatting Utilities
// 모든 커맨드가 동일한 출력 포맷을 사용하도록 통일
// ═══════════════════════════════════════════════════════════

const (
	doubleLine = "═══════════════════════════════════════════════════════════"
	singleLine = "───────────────────────────────────────────────────────────"
)

// parseAsOf parses YYYY-MM-DD; empty means now
func parseAsOf(s string) (time.Time, error) {
	if s == "" {
		return time.Now(), nil
	}
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, fmt.Errorf("--as-of must be YYYY-MM-DD: %w", err)
	}
	return t, nil
}

// printVerdict prints one verdict with every component
func printVerdict(w io.Writer, v contracts.Verdict) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, doubleLine)
	fmt.Fprintf(w, "  %s  (%s)\n", v.Ticker(), v.Score.AsOf.Format("2006-01-02"))
	fmt.Fprintln(w, singleLine)
	fmt.Fprintf(w, "  Total     : %.1f (raw %.1f)\n", v.Score.Total, v.Score.RawTotal)
	fmt.Fprintf(w, "  Tier      : %s  %s\n", v.Tier, alert.Headline(v.Tier))
	if v.Score.Vetoed {
		fmt.Fprintln(w, "  Veto      : credit danger")
	}
	fmt.Fprintln(w, singleLine)

	for _, c := range v.Score.Components {
		flag := ""
		if c.MissingData {
			flag = " [degraded]"
		}
		fmt.Fprintf(w, "  %-18s %+6.1f  [%4.0f, %3.0f]%s\n", c.PredictorID, c.Score, c.Min, c.Max, flag)
		if c.Rationale != "" {
			fmt.Fprintf(w, "  %-18s └ %s\n", "", c.Rationale)
		}
	}
	fmt.Fprintln(w, doubleLine)
}

// printReport prints the scan summary and the top n buyable verdicts
func printReport(w io.Writer, r *contracts.ScanReport, n int) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, doubleLine)
	fmt.Fprintf(w, "  Prophet Scan  %s\n", r.AsOf.Format("2006-01-02"))
	fmt.Fprintln(w, singleLine)
	fmt.Fprintf(w, "  Run ID    : %s\n", r.RunID)
	fmt.Fprintf(w, "  Config    : %s\n", shortHash(r.ConfigHash))
	fmt.Fprintf(w, "  Scored    : %d/%d (%.1f%%)\n", r.Scored(), r.Requested, r.CoverageRate()*100)
	fmt.Fprintf(w, "  Skipped   : %d\n", len(r.Skipped))
	fmt.Fprintf(w, "  Duration  : %s\n", r.Duration().Round(time.Millisecond))

	counts := r.CountByTier()
	tiers := []contracts.Tier{
		contracts.TierImminent, contracts.TierLikely, contracts.TierWatch,
		contracts.TierNone, contracts.TierForbidden,
	}
	parts := make([]string, 0, len(tiers))
	for _, t := range tiers {
		parts = append(parts, fmt.Sprintf("%s=%d", t, counts[t]))
	}
	fmt.Fprintf(w, "  Tiers     : %s\n", strings.Join(parts, " "))
	fmt.Fprintln(w, singleLine)

	top := synthesizer.Top(r.Verdicts, n)
	if len(top) == 0 {
		fmt.Fprintln(w, "  (no buyable verdicts)")
	}
	for i, v := range top {
		fmt.Fprintf(w, "  %3d. %-8s %6.1f  %-9s %s\n", i+1, v.Ticker(), v.Score.Total, v.Tier, degradedNote(v))
	}
	fmt.Fprintln(w, doubleLine)
}

func degradedNote(v contracts.Verdict) string {
	ids := v.Score.Degraded()
	if len(ids) == 0 {
		return ""
	}
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = string(id)
	}
	return "degraded: " + strings.Join(names, ",")
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

// writeJSON writes v as indented JSON
func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeCSV exports ranked verdicts, one row per ticker with a column per predictor
func writeCSV(w io.Writer, verdicts []contracts.Verdict) error {
	cw := csv.NewWriter(w)

	header := []string{"rank", "ticker", "as_of", "total", "tier", "vetoed"}
	for _, id := range contracts.PredictorOrder {
		header = append(header, string(id))
	}
	header = append(header, "degraded")
	if err := cw.Write(header); err != nil {
		return err
	}

	for i, v := range synthesizer.Rank(verdicts) {
		row := []string{
			strconv.Itoa(i + 1),
			string(v.Ticker()),
			v.Score.AsOf.Format("2006-01-02"),
			strconv.FormatFloat(v.Score.Total, 'f', 2, 64),
			string(v.Tier),
			strconv.FormatBool(v.Score.Vetoed),
		}
		for _, id := range contracts.PredictorOrder {
			c, _ := v.Score.Component(id)
			row = append(row, strconv.FormatFloat(c.Score, 'f', 2, 64))
		}
		row = append(row, strings.TrimPrefix(degradedNote(v), "degraded: "))
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}
