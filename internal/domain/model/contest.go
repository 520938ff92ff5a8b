package model

import "time"

type ContestStatus string

const (
	ContestUpcoming ContestStatus = "Upcoming"
	ContestActive   ContestStatus = "Active"
	ContestFinished ContestStatus = "Finished"
)

type Contest struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Slug        string    `json:"slug"`
	Description string    `json:"description"`
	StartTime   time.Time `json:"start_time"`
	EndTime     time.Time `json:"end_time"`
	Stream      string    `json:"stream"`
	CreatedByID *string   `json:"created_by_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Status is derived from the window and never stored.
func (c *Contest) Status(now time.Time) ContestStatus {
	switch {
	case now.Before(c.StartTime):
		return ContestUpcoming
	case now.After(c.EndTime):
		return ContestFinished
	default:
		return ContestActive
	}
}

// HasEnded reports whether the end time has passed.
func (c *Contest) HasEnded(now time.Time) bool {
	return now.After(c.EndTime)
}

// ContestView is a contest with its status resolved at read time.
type ContestView struct {
	Contest
	Status ContestStatus `json:"status"`
}

func NewContestView(c Contest, now time.Time) ContestView {
	return ContestView{Contest: c, Status: c.Status(now)}
}
