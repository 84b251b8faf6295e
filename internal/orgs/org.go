package orgs

import (
	"time"

	"github.com/google/uuid"
)

// Organization holds per-tenant settings: the IANA timezone and the
// org-local wall clock slots the scheduler fires on.
type Organization struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	Timezone        string    `json:"timezone"`
	AlertScanTimes  []string  `json:"alert_scan_times"`
	MorningScanTime string    `json:"morning_scan_time"`
	DigestChannel   string    `json:"digest_channel"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// ValidClock reports whether s is a wall clock time in HH:MM form.
func ValidClock(s string) bool {
	if len(s) != 5 || s[2] != ':' {
		return false
	}
	_, err := time.Parse("15:04", s)
	return err == nil
}

// UpdateScheduleCommand replaces an organization's alert scan slots.
type UpdateScheduleCommand struct {
	AlertScanTimes []string `json:"alert_scan_times"`
}

// UpdateMorningCommand replaces an organization's morning digest slot.
type UpdateMorningCommand struct {
	Time string `json:"time"`
}
