package model

import "time"

const (
	// DisqualificationThreshold is the tab-switch count that blocks further
	// contest submissions.
	DisqualificationThreshold = 3
	// TabSwitchPenalty is added per tab switch under the duration time model.
	TabSwitchPenalty = 20 * time.Minute
)

// MonitoringRecord is unique per (user, contest).
type MonitoringRecord struct {
	UserID        string     `json:"user_id"`
	ContestID     string     `json:"contest_id"`
	TabSwitches   int        `json:"tab_switches"`
	RunCount      int        `json:"run_count"`
	FirstOpenedAt *time.Time `json:"first_opened_at,omitempty"`
	LastWarningAt *time.Time `json:"last_warning_at,omitempty"`
}

func (m *MonitoringRecord) Disqualified() bool {
	return m != nil && m.TabSwitches >= DisqualificationThreshold
}
