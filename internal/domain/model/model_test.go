package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestStreamFromDepartment(t *testing.T) {
	cases := map[string]string{
		"CSE":     Stream1,
		"it":      Stream1,
		"ai&ds":   Stream1,
		"M.Tech":  Stream1,
		" ece ":   Stream2,
		"EIE":     Stream2,
		"r&a":     Stream2,
		"AERO":    Stream3,
		"mech":    Stream3,
		"":        Stream3,
		"PHYSICS": Stream3,
	}
	for dept, want := range cases {
		assert.Equal(t, want, StreamFromDepartment(dept), "department %q", dept)
	}
}

func TestJudgeLanguageID(t *testing.T) {
	for lang, want := range map[string]int{"python": 71, "cpp": 54, "java": 62, "c": 50, "Python": 71} {
		id, ok := JudgeLanguageID(lang)
		assert.True(t, ok)
		assert.Equal(t, want, id)
	}
	_, ok := JudgeLanguageID("rust")
	assert.False(t, ok)
}

func TestContestStatus(t *testing.T) {
	start := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	c := Contest{StartTime: start, EndTime: start.Add(2 * time.Hour)}

	assert.Equal(t, ContestUpcoming, c.Status(start.Add(-time.Minute)))
	assert.Equal(t, ContestActive, c.Status(start))
	assert.Equal(t, ContestActive, c.Status(c.EndTime))
	assert.Equal(t, ContestFinished, c.Status(c.EndTime.Add(time.Second)))
	assert.False(t, c.HasEnded(c.EndTime))
}

func TestFormatPenalty(t *testing.T) {
	assert.Equal(t, "00:00:00", FormatPenalty(-5*time.Minute))
	assert.Equal(t, "00:05:00", FormatPenalty(5*time.Minute))
	assert.Equal(t, "26:01:09", FormatPenalty(26*time.Hour+69*time.Second))
}

func TestEntryLabels(t *testing.T) {
	exec := 0.0421
	mem := 2048
	e := LeaderboardEntry{BestExecutionTime: &exec, BestMemory: &mem}
	assert.Equal(t, "0.042s", e.ExecutionTimeLabel())
	assert.Equal(t, "2048 KB", e.MemoryLabel())
	assert.Equal(t, "N/A", LeaderboardEntry{}.ExecutionTimeLabel())
}

func TestMonitoringDisqualified(t *testing.T) {
	var none *MonitoringRecord
	assert.False(t, none.Disqualified())
	assert.False(t, (&MonitoringRecord{TabSwitches: 2}).Disqualified())
	assert.True(t, (&MonitoringRecord{TabSwitches: 3}).Disqualified())
}
