package alerts

import (
	"fmt"
	"strconv"

	"github.com/mimamori/mimamori/internal/bps"
)

// Pattern kinds understood by the catalog.
const (
	KindVitalBelow     = "vital_below"
	KindVitalAbove     = "vital_above"
	KindVitalDecline   = "vital_decline"
	KindKeywordAny     = "keyword_any"
	KindAdherenceLapse = "adherence_lapse"
	KindAxisCompound   = "axis_compound"
)

// Pattern is one catalog entry. The catalog is configuration: deployments
// override or extend the defaults via [[scan.patterns]] in TOML.
type Pattern struct {
	ID              string   `toml:"id" json:"id"`
	Severity        Severity `toml:"severity" json:"severity"`
	Title           string   `toml:"title" json:"title"`
	Message         string   `toml:"message" json:"message"`
	Kind            string   `toml:"kind" json:"kind"`
	VitalType       string   `toml:"vital_type" json:"vital_type,omitempty"`
	Threshold       float64  `toml:"threshold" json:"threshold,omitempty"`
	Delta           float64  `toml:"delta" json:"delta,omitempty"`
	Keywords        []string `toml:"keywords" json:"keywords,omitempty"`
	Axes            []string `toml:"axes" json:"axes,omitempty"`
	MinCount        int      `toml:"min_count" json:"min_count,omitempty"`
	Recommendations []string `toml:"recommendations" json:"recommendations,omitempty"`
}

// Detection is a pattern that fired, with the evidence it fired on.
type Detection struct {
	Pattern  Pattern  `json:"pattern"`
	Evidence []string `json:"evidence"`
}

// DetectInput is the material one patient scan evaluates patterns against.
type DetectInput struct {
	Reports []bps.ClassifiedReport
	Context *bps.Context
}

// Catalog is a validated, ordered set of patterns.
type Catalog struct {
	patterns []Pattern
}

// NewCatalog validates the given patterns and returns a Catalog.
// An empty slice yields the default catalog.
func NewCatalog(patterns []Pattern) (*Catalog, error) {
	if len(patterns) == 0 {
		patterns = DefaultPatterns()
	}

	seen := make(map[string]bool)
	for i, p := range patterns {
		if p.ID == "" {
			return nil, fmt.Errorf("%w: pattern %d missing id", ErrInvalidPattern, i)
		}
		if seen[p.ID] {
			return nil, fmt.Errorf("%w: duplicate pattern id %s", ErrInvalidPattern, p.ID)
		}
		seen[p.ID] = true

		if !p.Severity.Valid() {
			return nil, fmt.Errorf("%w: pattern %s severity %q", ErrInvalidPattern, p.ID, p.Severity)
		}

		switch p.Kind {
		case KindVitalBelow, KindVitalAbove, KindVitalDecline:
			if p.VitalType == "" {
				return nil, fmt.Errorf("%w: pattern %s requires vital_type", ErrInvalidPattern, p.ID)
			}
		case KindKeywordAny:
			if len(p.Keywords) == 0 {
				return nil, fmt.Errorf("%w: pattern %s requires keywords", ErrInvalidPattern, p.ID)
			}
		case KindAxisCompound:
			if len(p.Axes) == 0 {
				return nil, fmt.Errorf("%w: pattern %s requires axes", ErrInvalidPattern, p.ID)
			}
		case KindAdherenceLapse:
		default:
			return nil, fmt.Errorf("%w: pattern %s kind %q", ErrInvalidPattern, p.ID, p.Kind)
		}
	}

	return &Catalog{patterns: patterns}, nil
}

// Patterns returns the catalog entries.
func (c *Catalog) Patterns() []Pattern {
	return c.patterns
}

// Evaluate runs every pattern against the input and returns the detections,
// in catalog order.
func (c *Catalog) Evaluate(input DetectInput) []Detection {
	detections := make([]Detection, 0)

	for _, p := range c.patterns {
		evidence := evaluate(p, input)
		if len(evidence) > 0 {
			detections = append(detections, Detection{Pattern: p, Evidence: evidence})
		}
	}

	return detections
}

func evaluate(p Pattern, input DetectInput) []string {
	switch p.Kind {
	case KindVitalBelow:
		return evaluateVitalThreshold(p, input, true)
	case KindVitalAbove:
		return evaluateVitalThreshold(p, input, false)
	case KindVitalDecline:
		return evaluateVitalDecline(p, input)
	case KindKeywordAny:
		return evaluateKeywords(p.Keywords, input)
	case KindAdherenceLapse:
		keywords := p.Keywords
		if len(keywords) == 0 {
			keywords = []string{"服薬中断", "飲み忘れ", "服薬拒否"}
		}
		return evaluateKeywords(keywords, input)
	case KindAxisCompound:
		return evaluateAxisCompound(p, input)
	}
	return nil
}

// evaluateVitalThreshold checks the latest reading of the vital against the
// threshold. Reports are assumed sorted oldest first.
func evaluateVitalThreshold(p Pattern, input DetectInput, below bool) []string {
	latest := latestVital(p.VitalType, input.Reports)
	if latest == nil {
		return nil
	}

	fired := latest.Value >= p.Threshold
	if below {
		fired = latest.Value < p.Threshold
	}
	if !fired {
		return nil
	}

	return []string{fmt.Sprintf(
		"%s %s%s（基準 %s%s）",
		p.VitalType, formatValue(latest.Value), latest.Unit,
		formatValue(p.Threshold), latest.Unit,
	)}
}

// evaluateVitalDecline fires when the vital dropped by at least Delta
// between the first and last readings in the window.
func evaluateVitalDecline(p Pattern, input DetectInput) []string {
	var first, last *bps.VitalReading
	for _, report := range input.Reports {
		for _, f := range report.Classification.Bio {
			if f.Vital == nil || f.Vital.Type != p.VitalType {
				continue
			}
			if first == nil {
				first = f.Vital
			}
			last = f.Vital
		}
	}

	if first == nil || last == nil || first == last {
		return nil
	}

	decline := first.Value - last.Value
	if decline < p.Delta {
		return nil
	}

	return []string{fmt.Sprintf(
		"%s %s%s → %s%s（低下幅 %s）",
		p.VitalType,
		formatValue(first.Value), first.Unit,
		formatValue(last.Value), last.Unit,
		formatValue(decline),
	)}
}

func evaluateKeywords(keywords []string, input DetectInput) []string {
	evidence := make([]string, 0)
	seen := make(map[string]bool)

	for _, report := range input.Reports {
		for _, axis := range bps.Axes() {
			for _, f := range report.Classification.Axis(axis) {
				for _, keyword := range keywords {
					if f.Label != keyword || seen[keyword] {
						continue
					}
					seen[keyword] = true
					evidence = append(evidence, f.Text)
				}
			}
		}
	}

	return evidence
}

// evaluateAxisCompound fires when every listed axis carries at least
// MinCount worsening findings across the window.
func evaluateAxisCompound(p Pattern, input DetectInput) []string {
	minCount := p.MinCount
	if minCount < 1 {
		minCount = 1
	}

	evidence := make([]string, 0)
	for _, axisName := range p.Axes {
		axis := bps.Axis(axisName)
		worsening := make([]string, 0)

		for _, report := range input.Reports {
			for _, f := range report.Classification.Axis(axis) {
				if f.Polarity == bps.Worsening {
					worsening = append(worsening, f.Text)
				}
			}
		}

		if len(worsening) < minCount {
			return nil
		}
		evidence = append(evidence, worsening...)
	}

	return evidence
}

func latestVital(vitalType string, reports []bps.ClassifiedReport) *bps.VitalReading {
	var latest *bps.VitalReading
	for _, report := range reports {
		for _, f := range report.Classification.Bio {
			if f.Vital != nil && f.Vital.Type == vitalType {
				latest = f.Vital
			}
		}
	}
	return latest
}

func formatValue(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// DefaultPatterns is the catalog shipped when configuration provides none.
func DefaultPatterns() []Pattern {
	return []Pattern{
		{
			ID:        "vital-spo2-low",
			Severity:  SeverityHigh,
			Title:     "SpO2低下",
			Message:   "SpO2が基準値を下回っています。呼吸状態の確認が必要です。",
			Kind:      KindVitalBelow,
			VitalType: "SpO2",
			Threshold: 95,
			Recommendations: []string{
				"バイタル再測定と呼吸状態の観察",
				"継続する場合は主治医へ連絡",
			},
		},
		{
			ID:        "vital-spo2-decline",
			Severity:  SeverityHigh,
			Title:     "バイタル低下トレンド",
			Message:   "SpO2が報告期間内で低下し続けています。",
			Kind:      KindVitalDecline,
			VitalType: "SpO2",
			Delta:     3,
			Recommendations: []string{
				"訪問頻度の引き上げを検討",
			},
		},
		{
			ID:        "vital-fever",
			Severity:  SeverityMedium,
			Title:     "発熱",
			Message:   "体温が37.5℃以上です。",
			Kind:      KindVitalAbove,
			VitalType: "体温",
			Threshold: 37.5,
			Recommendations: []string{
				"水分摂取の確認と経過観察",
			},
		},
		{
			ID:       "bio-compound",
			Severity: SeverityHigh,
			Title:    "複合的な身体症状の悪化",
			Message:  "複数の身体症状が同時に悪化しています。",
			Kind:     KindAxisCompound,
			Axes:     []string{"bio"},
			MinCount: 2,
			Recommendations: []string{
				"主治医・訪問看護への情報共有",
			},
		},
		{
			ID:       "bio-psycho-compound",
			Severity: SeverityMedium,
			Title:    "身体・心理の複合悪化",
			Message:  "身体症状と心理面の悪化が重なっています。",
			Kind:     KindAxisCompound,
			Axes:     []string{"bio", "psycho"},
		},
		{
			ID:       "bio-social-compound",
			Severity: SeverityMedium,
			Title:    "身体・社会面の複合悪化",
			Message:  "身体症状と介護環境の悪化が重なっています。",
			Kind:     KindAxisCompound,
			Axes:     []string{"bio", "social"},
		},
		{
			ID:       "all-axes-compound",
			Severity: SeverityHigh,
			Title:    "全軸での悪化",
			Message:  "身体・心理・社会のすべての軸で悪化が見られます。",
			Kind:     KindAxisCompound,
			Axes:     []string{"bio", "psycho", "social"},
			Recommendations: []string{
				"ケアカンファレンスの開催を検討",
			},
		},
		{
			ID:       "cognitive-change",
			Severity: SeverityMedium,
			Title:    "認知機能の変化",
			Message:  "認知面の変化が報告されています。",
			Kind:     KindKeywordAny,
			Keywords: []string{"認知機能低下", "見当識障害", "物忘れ", "混乱", "幻覚", "妄想"},
		},
		{
			ID:       "med-adherence",
			Severity: SeverityMedium,
			Title:    "服薬アドヒアランス低下",
			Message:  "服薬の中断・飲み忘れが報告されています。",
			Kind:     KindAdherenceLapse,
			Recommendations: []string{
				"服薬カレンダー等の導入を検討",
			},
		},
	}
}
