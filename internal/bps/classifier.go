package bps

import (
	"context"
	"regexp"
	"strconv"
	"strings"
)

// Classifier structures free-text report content into axis findings.
type Classifier interface {
	Classify(ctx context.Context, text string) (*Classification, error)
}

type vitalPattern struct {
	vtype string
	unit  string
	re    *regexp.Regexp
}

// Capture group 1 is always the numeric value.
var vitalPatterns = []vitalPattern{
	{"SpO2", "%", regexp.MustCompile(`(?i)(?:SpO2|サチュレーション|酸素飽和度)[:：\s]*([0-9]{2,3})\s*[%％]?`)},
	{"体温", "℃", regexp.MustCompile(`(?:体温|BT|KT|発熱)[:：\s]*([3-4][0-9](?:\.[0-9])?)\s*(?:℃|度)?`)},
	{"脈拍", "bpm", regexp.MustCompile(`(?:脈拍|心拍|HR)[:：\s]*([0-9]{2,3})`)},
	{"血圧", "mmHg", regexp.MustCompile(`(?:血圧|BP)[:：\s]*([0-9]{2,3})\s*/\s*[0-9]{2,3}`)},
	{"体重", "kg", regexp.MustCompile(`体重[:：\s]*([0-9]{2,3}(?:\.[0-9])?)\s*(?:kg|キロ)?`)},
}

type keywordSet struct {
	axis     Axis
	polarity Polarity
	terms    []string
}

var keywordSets = []keywordSet{
	{AxisBio, Worsening, []string{
		"発熱", "食欲低下", "食欲不振", "嘔吐", "下痢", "便秘", "咳", "痰",
		"痛み", "疼痛", "呼吸苦", "息切れ", "浮腫", "むくみ", "転倒", "褥瘡",
		"倦怠感", "ふらつき", "脱水", "服薬中断", "飲み忘れ", "服薬拒否",
	}},
	{AxisBio, Improving, []string{
		"解熱", "食欲良好", "食欲回復", "症状改善", "傷の治癒",
	}},
	{AxisPsycho, Worsening, []string{
		"不安", "抑うつ", "落ち込み", "意欲低下", "混乱", "物忘れ",
		"認知機能低下", "見当識障害", "幻覚", "妄想", "不眠", "眠れない",
		"興奮", "帰宅願望", "拒否的",
	}},
	{AxisPsycho, Improving, []string{
		"穏やか", "落ち着いて", "笑顔", "意欲向上", "よく眠れ",
	}},
	{AxisSocial, Worsening, []string{
		"介護負担", "家族疲労", "老老介護", "独居", "孤立",
		"サービス中断", "サービス拒否", "経済的", "金銭管理",
		"キーパーソン不在", "近隣トラブル",
	}},
	{AxisSocial, Improving, []string{
		"サービス開始", "サービス利用", "家族の協力", "見守り強化",
	}},
}

// RuleClassifier classifies report text with vital-sign extraction and a
// fixed symptom keyword table. It is the deterministic fallback used when
// no language model is configured, and the baseline the agent classifier
// is measured against.
type RuleClassifier struct{}

// NewRuleClassifier creates a RuleClassifier.
func NewRuleClassifier() *RuleClassifier {
	return &RuleClassifier{}
}

func (c *RuleClassifier) Classify(_ context.Context, text string) (*Classification, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyText
	}

	result := NewClassification()
	seen := make(map[string]bool)

	for _, vp := range vitalPatterns {
		m := vp.re.FindStringSubmatch(text)
		if m == nil || seen[vp.vtype] {
			continue
		}
		value, err := strconv.ParseFloat(m[1], 64)
		if err != nil {
			continue
		}
		seen[vp.vtype] = true
		result.Append(AxisBio, Finding{
			Label:    vp.vtype,
			Text:     clauseAround(text, m[0]),
			Polarity: vitalPolarity(vp.vtype, value),
			Vital: &VitalReading{
				Type:  vp.vtype,
				Value: value,
				Unit:  vp.unit,
			},
		})
	}

	for _, ks := range keywordSets {
		for _, term := range ks.terms {
			if !strings.Contains(text, term) || seen[term] {
				continue
			}
			seen[term] = true
			result.Append(ks.axis, Finding{
				Label:    term,
				Text:     clauseAround(text, term),
				Polarity: ks.polarity,
			})
		}
	}

	return result, nil
}

func vitalPolarity(vtype string, value float64) Polarity {
	switch vtype {
	case "SpO2":
		if value < 95 {
			return Worsening
		}
	case "体温":
		if value >= 37.5 {
			return Worsening
		}
	case "脈拍":
		if value >= 110 || value <= 50 {
			return Worsening
		}
	case "血圧":
		if value >= 180 || value <= 90 {
			return Worsening
		}
	}
	return Neutral
}

var clauseSplitter = regexp.MustCompile(`[。\n]+`)

// clauseAround returns the sentence containing the match, so findings keep
// enough source text to be readable in context summaries.
func clauseAround(text, match string) string {
	for _, clause := range clauseSplitter.Split(text, -1) {
		if strings.Contains(clause, match) {
			return strings.TrimSpace(clause)
		}
	}
	return match
}
