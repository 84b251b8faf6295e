package scan

import (
	"fmt"
	"strings"

	"github.com/mimamori/mimamori/internal/alerts"
	"github.com/mimamori/mimamori/internal/bps"
)

const assessInstructions = `あなたは在宅ケアの見守り支援AIです。
以下のパターン一覧と患者の報告内容を確認し、該当するパターンを検出してください。
ルール検出で既に見つかったものを繰り返す必要はありません。

回答は次のJSON形式のみで返してください:
{
  "detections": [
    {"pattern_id": "パターンID", "evidence": ["根拠となる報告内容"]}
  ]
}

該当なしの場合は {"detections": []} を返してください。`

func assessPrompt(patterns []alerts.Pattern, ss *ScanState) string {
	var b strings.Builder
	b.WriteString(assessInstructions)

	b.WriteString("\n\n## パターン一覧\n")
	for _, p := range patterns {
		fmt.Fprintf(&b, "- %s (%s): %s\n", p.ID, p.Severity, p.Title)
	}

	if ss.Context != nil {
		b.WriteString("\n## 現在の状況\n")
		for _, axis := range bps.Axes() {
			summary := ss.Context.Summary(axis)
			if summary.Narrative != "" {
				fmt.Fprintf(&b, "- %s: %s（%s）\n", axis, summary.Narrative, summary.Trend)
			}
		}
	}

	b.WriteString("\n## 直近の報告所見\n")
	for _, r := range ss.Reports {
		for _, axis := range bps.Axes() {
			for _, f := range r.Classification.Axis(axis) {
				fmt.Fprintf(&b, "- [%s] %s: %s\n", r.CreatedAt.Format("01/02"), f.Label, f.Text)
			}
		}
	}

	return b.String()
}
