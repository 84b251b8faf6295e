package scan

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/mimamori/mimamori/internal/alerts"
)

// FormatDigest renders the morning digest from a batch of scan results:
// severity counts first, then one line per patient with alerts, highest
// severity first, then any scan failures.
func FormatDigest(now time.Time, results []PatientResult) string {
	counts := map[alerts.Severity]int{}
	var flagged []PatientResult
	var failed []PatientResult

	for _, r := range results {
		if r.Error != "" {
			failed = append(failed, r)
			continue
		}
		if len(r.Alerts) > 0 {
			flagged = append(flagged, r)
			for _, a := range r.Alerts {
				counts[a.Severity]++
			}
		}
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 みまもり朝のまとめ（%s）\n", now.Format("2006-01-02"))
	fmt.Fprintf(&b, "対象 %d名 / 新規アラート %d件（高 %d / 中 %d / 低 %d）\n",
		len(results),
		counts[alerts.SeverityHigh]+counts[alerts.SeverityMedium]+counts[alerts.SeverityLow],
		counts[alerts.SeverityHigh],
		counts[alerts.SeverityMedium],
		counts[alerts.SeverityLow],
	)

	if len(flagged) == 0 {
		b.WriteString("新しいアラートはありません。\n")
	} else {
		sort.SliceStable(flagged, func(i, j int) bool {
			return maxRank(flagged[i]) > maxRank(flagged[j])
		})

		for _, r := range flagged {
			titles := make([]string, 0, len(r.Alerts))
			for _, a := range r.Alerts {
				titles = append(titles, a.Title)
			}
			fmt.Fprintf(&b, "・%s: %s\n", r.PatientName, strings.Join(titles, "、"))
		}
	}

	for _, r := range failed {
		fmt.Fprintf(&b, "⚠️ %s: スキャン失敗（%s）\n", r.PatientName, r.Error)
	}

	return b.String()
}

func maxRank(r PatientResult) int {
	rank := 0
	for _, a := range r.Alerts {
		if v := a.Severity.Rank(); v > rank {
			rank = v
		}
	}
	return rank
}
