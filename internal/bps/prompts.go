package bps

import (
	"fmt"
	"strings"
)

const classifyInstructions = `あなたは在宅介護の報告を整理するアシスタントです。
以下の報告文を Bio(身体)・Psycho(心理)・Social(社会/環境) の3軸に分類してください。

ルール:
- バイタル値 (SpO2, 体温, 脈拍, 血圧, 体重) は bio の finding として vital に数値を入れる
- polarity は "worsening" (悪化), "improving" (改善), "neutral" のいずれか
- 該当する所見がない軸は空配列にする
- 報告文にない情報を推測で追加しない

次の JSON のみを返してください:
{
  "bio": [{"label": "...", "text": "...", "polarity": "...", "vital": {"type": "...", "value": 0, "unit": "..."}}],
  "psycho": [{"label": "...", "text": "...", "polarity": "..."}],
  "social": [{"label": "...", "text": "...", "polarity": "..."}]
}`

func classifyPrompt(text string) string {
	return fmt.Sprintf("%s\n\n報告文:\n%s", classifyInstructions, text)
}

var axisLabels = map[Axis]string{
	AxisBio:    "身体 (Bio)",
	AxisPsycho: "心理 (Psycho)",
	AxisSocial: "社会/環境 (Social)",
}

func summaryPrompt(axis Axis, summary AxisSummary, reportCount int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "在宅介護の %s 軸の状況を、介護職員向けに2〜3文の日本語で要約してください。\n", axisLabels[axis])
	fmt.Fprintf(&sb, "対象期間の報告件数: %d件\n", reportCount)
	fmt.Fprintf(&sb, "トレンド: %s\n", summary.Trend)
	sb.WriteString("観測された事実:\n")
	for label, value := range summary.Facts {
		fmt.Fprintf(&sb, "- %s: %s\n", label, value)
	}
	sb.WriteString("\n事実に含まれない情報は追加しないでください。要約文のみを返してください。")
	return sb.String()
}
