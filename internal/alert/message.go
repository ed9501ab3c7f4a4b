package alert

import (
	"fmt"
	"strings"

	"github.com/wonny/prophet/internal/contracts"
)

// Headline returns the human-readable verdict for a tier
func Headline(t contracts.Tier) string {
	switch t {
	case contracts.TierImminent:
		return "🔮🔮🔮 포물선 임박 - 적극 매수 준비"
	case contracts.TierLikely:
		return "🔮🔮 포물선 가능성 높음 - 모니터링 강화"
	case contracts.TierWatch:
		return "🔮 관심 종목 - 모니터링"
	case contracts.TierForbidden:
		return "🚫 절대 금지 - 시장 과열"
	default:
		return "📊 신호 미약 - 관찰"
	}
}

// FormatMessage renders a verdict as a Telegram Markdown message
func FormatMessage(v contracts.Verdict) string {
	var b strings.Builder

	fmt.Fprintf(&b, "🔮 *예언자 알림*\n\n")
	fmt.Fprintf(&b, "*%s* (%s)\n", v.Ticker(), v.Score.AsOf.Format("2006-01-02"))
	fmt.Fprintf(&b, "점수: *%.0f점* [%s]\n", v.Score.Total, v.Tier)
	fmt.Fprintf(&b, "판정: %s\n\n", Headline(v.Tier))

	for _, c := range v.Score.Components {
		mark := "⚪"
		switch {
		case c.MissingData:
			mark = "❔"
		case c.Score > 0:
			mark = "🟢"
		case c.Score < 0:
			mark = "🔴"
		}
		fmt.Fprintf(&b, "  %s %s: %+.0f | %s\n", mark, escapeMarkdown(string(c.PredictorID)), c.Score, escapeMarkdown(c.Rationale))
	}

	if v.Score.Vetoed {
		b.WriteString("\n_신용 위험으로 거부권 발동_\n")
	}
	return b.String()
}

var markdownEscaper = strings.NewReplacer("_", "\\_", "*", "\\*", "`", "\\`", "[", "\\[")

// escapeMarkdown escapes legacy Markdown control characters
func escapeMarkdown(s string) string {
	return markdownEscaper.Replace(s)
}
