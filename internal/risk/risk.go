// Package risk derives patient risk levels from unacknowledged alerts and
// maintains the append-only risk history chain.
package risk

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Level is a patient risk level. Ordering: high > medium > low.
type Level string

const (
	LevelHigh   Level = "high"
	LevelMedium Level = "medium"
	LevelLow    Level = "low"
)

// Rank returns the sort weight of a level, higher is more at risk.
func (l Level) Rank() int {
	switch l {
	case LevelHigh:
		return 3
	case LevelMedium:
		return 2
	case LevelLow:
		return 1
	}
	return 0
}

// Valid reports whether l is a known level.
func (l Level) Valid() bool {
	return l.Rank() > 0
}

// StepDown returns the next lower level. Low stays low.
func (l Level) StepDown() Level {
	switch l {
	case LevelHigh:
		return LevelMedium
	case LevelMedium:
		return LevelLow
	}
	return LevelLow
}

// Source records what set the current level.
type Source string

const (
	SourceAuto   Source = "auto"
	SourceManual Source = "manual"
)

// Snapshot captures unacknowledged alert counts at calculation time.
type Snapshot struct {
	High   int `json:"high"`
	Medium int `json:"medium"`
	Low    int `json:"low"`
}

// Total returns the total unacknowledged count.
func (s Snapshot) Total() int {
	return s.High + s.Medium + s.Low
}

// Entry is one link in a patient's risk history chain. PreviousLevel always
// equals the prior entry's NewLevel because every change flows through this
// package.
type Entry struct {
	ID            uuid.UUID `json:"id"`
	PatientID     uuid.UUID `json:"patient_id"`
	PreviousLevel Level     `json:"previous_level"`
	NewLevel      Level     `json:"new_level"`
	Source        Source    `json:"source"`
	Reason        string    `json:"reason"`
	Trigger       string    `json:"trigger"`
	AlertSnapshot Snapshot  `json:"alert_snapshot"`
	CreatedBy     *string   `json:"created_by"`
	CreatedAt     time.Time `json:"created_at"`
}

// ManualCommand carries a manual risk level change.
type ManualCommand struct {
	Level     Level  `json:"level"`
	Reason    string `json:"reason"`
	CreatedBy string `json:"created_by"`
}

// Input is the material Calculate derives a level from.
type Input struct {
	Current     Level
	Source      Source
	Counts      Snapshot
	LastAlertAt *time.Time
	Now         time.Time
}

// De-escalation thresholds for patients with no unacknowledged alerts.
const (
	quietResetDays    = 14
	quietStepDownDays = 7
)

// Calculate derives the risk level for a patient. Escalation comes from
// unacknowledged alert counts; with zero unacknowledged alerts the level
// de-escalates on a quiet-period ladder, except that manually set levels
// hold until changed by a human.
func Calculate(in Input) (Level, string) {
	switch {
	case in.Counts.High >= 1:
		return LevelHigh, fmt.Sprintf("未対応のHIGHアラート %d件", in.Counts.High)
	case in.Counts.Medium >= 2:
		return LevelHigh, fmt.Sprintf("未対応のMEDIUMアラート %d件", in.Counts.Medium)
	case in.Counts.Medium == 1:
		return LevelMedium, "未対応のMEDIUMアラート 1件"
	case in.Counts.Low >= 3:
		return LevelMedium, fmt.Sprintf("未対応のLOWアラート %d件", in.Counts.Low)
	case in.Counts.Low >= 1:
		return LevelLow, fmt.Sprintf("未対応のLOWアラート %d件", in.Counts.Low)
	}

	if in.Source == SourceManual {
		return in.Current, "手動設定のため維持"
	}

	if in.LastAlertAt == nil {
		return LevelLow, "アラート履歴なし"
	}

	quiet := in.Now.Sub(*in.LastAlertAt)
	switch {
	case quiet >= quietResetDays*24*time.Hour:
		return LevelLow, fmt.Sprintf("%d日以上アラートなし", quietResetDays)
	case quiet >= quietStepDownDays*24*time.Hour:
		return in.Current.StepDown(), fmt.Sprintf("%d日以上アラートなし", quietStepDownDays)
	}

	return in.Current, "変更なし"
}
