package scan_test

import (
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/mimamori/mimamori/internal/alerts"
	"github.com/mimamori/mimamori/internal/scan"
)

func result(name string, severities ...alerts.Severity) scan.PatientResult {
	r := scan.PatientResult{
		Success:     true,
		PatientID:   uuid.New(),
		PatientName: name,
		CompletedAt: time.Date(2026, 2, 10, 7, 0, 0, 0, time.UTC),
	}
	for _, s := range severities {
		r.Alerts = append(r.Alerts, alerts.Alert{
			ID:       uuid.New(),
			Severity: s,
			Title:    string(s) + "アラート",
		})
	}
	return r
}

func TestFormatDigestCounts(t *testing.T) {
	now := time.Date(2026, 2, 10, 7, 0, 0, 0, time.UTC)
	results := []scan.PatientResult{
		result("佐藤花子", alerts.SeverityHigh, alerts.SeverityLow),
		result("田中一郎", alerts.SeverityMedium),
		result("鈴木二郎"),
	}

	digest := scan.FormatDigest(now, results)

	if !strings.Contains(digest, "2026-02-10") {
		t.Errorf("digest missing date:\n%s", digest)
	}
	if !strings.Contains(digest, "対象 3名 / 新規アラート 3件（高 1 / 中 1 / 低 1）") {
		t.Errorf("digest counts wrong:\n%s", digest)
	}
	if !strings.Contains(digest, "・佐藤花子:") {
		t.Errorf("flagged patient missing:\n%s", digest)
	}
	if strings.Contains(digest, "鈴木二郎") {
		t.Errorf("quiet patient should not be listed:\n%s", digest)
	}
}

func TestFormatDigestSeverityOrdering(t *testing.T) {
	now := time.Date(2026, 2, 10, 7, 0, 0, 0, time.UTC)
	results := []scan.PatientResult{
		result("低の人", alerts.SeverityLow),
		result("高の人", alerts.SeverityHigh),
		result("中の人", alerts.SeverityMedium),
	}

	digest := scan.FormatDigest(now, results)

	high := strings.Index(digest, "高の人")
	medium := strings.Index(digest, "中の人")
	low := strings.Index(digest, "低の人")
	if high < 0 || medium < 0 || low < 0 {
		t.Fatalf("patient missing from digest:\n%s", digest)
	}
	if !(high < medium && medium < low) {
		t.Errorf("patients not ordered by severity:\n%s", digest)
	}
}

func TestFormatDigestNoAlerts(t *testing.T) {
	now := time.Date(2026, 2, 10, 7, 0, 0, 0, time.UTC)
	results := []scan.PatientResult{
		result("佐藤花子"),
		result("田中一郎"),
	}

	digest := scan.FormatDigest(now, results)

	if !strings.Contains(digest, "新しいアラートはありません。") {
		t.Errorf("quiet digest missing placeholder:\n%s", digest)
	}
	if !strings.Contains(digest, "新規アラート 0件") {
		t.Errorf("quiet digest counts wrong:\n%s", digest)
	}
}

func TestFormatDigestFailures(t *testing.T) {
	now := time.Date(2026, 2, 10, 7, 0, 0, 0, time.UTC)

	failed := scan.PatientResult{
		PatientID:   uuid.New(),
		PatientName: "山田三郎",
		Error:       "context deadline exceeded",
	}
	results := []scan.PatientResult{
		result("佐藤花子", alerts.SeverityMedium),
		failed,
	}

	digest := scan.FormatDigest(now, results)

	if !strings.Contains(digest, "⚠️ 山田三郎: スキャン失敗（context deadline exceeded）") {
		t.Errorf("failure line missing:\n%s", digest)
	}
	if !strings.Contains(digest, "・佐藤花子:") {
		t.Errorf("successful patient missing:\n%s", digest)
	}
}
