package service

import (
	"sort"
	"time"

	"contest_arena/internal/domain/model"
	"contest_arena/internal/platform/config"

	mapset "github.com/deckarep/golang-set/v2"
)

type standing struct {
	entry        model.LeaderboardEntry
	solved       mapset.Set[string]
	penalty      time.Duration
	lastAccepted time.Time
}

// Aggregate ranks the users behind a contest's accepted submissions.
//
// Only the first acceptance of each problem counts toward the solved count
// and the time score. Best time and memory are minima over every accepted
// submission. Ranking is solved DESC, then time ASC, then the moment the
// final counted problem was solved ASC, then user id, so identical input
// always yields the identical order.
func Aggregate(contest *model.Contest, subs []model.AcceptedSubmission, monitoring []model.MonitoringRecord, timeModel string) []model.LeaderboardEntry {
	ordered := make([]model.AcceptedSubmission, len(subs))
	copy(ordered, subs)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].SubmittedAt.Before(ordered[j].SubmittedAt)
	})

	byUser := make(map[string]*standing)
	var users []string
	for _, sub := range ordered {
		st, ok := byUser[sub.UserID]
		if !ok {
			st = &standing{
				entry: model.LeaderboardEntry{
					UserID:     sub.UserID,
					FullName:   sub.Profile.FullName,
					RollNo:     sub.Profile.RollNo,
					Department: sub.Profile.Department,
					Year:       sub.Profile.Year,
				},
				solved: mapset.NewThreadUnsafeSet[string](),
			}
			byUser[sub.UserID] = st
			users = append(users, sub.UserID)
		}

		if sub.ExecutionTime != nil && (st.entry.BestExecutionTime == nil || *sub.ExecutionTime < *st.entry.BestExecutionTime) {
			t := *sub.ExecutionTime
			st.entry.BestExecutionTime = &t
		}
		if sub.Memory != nil && (st.entry.BestMemory == nil || *sub.Memory < *st.entry.BestMemory) {
			m := *sub.Memory
			st.entry.BestMemory = &m
		}
		st.lastAccepted = sub.SubmittedAt

		if st.solved.Contains(sub.ProblemID) {
			continue
		}
		st.solved.Add(sub.ProblemID)
		if elapsed := sub.SubmittedAt.Sub(contest.StartTime); elapsed > 0 {
			st.penalty += elapsed
		}
		st.entry.LastAcceptedAt = sub.SubmittedAt
	}

	records := make(map[string]model.MonitoringRecord, len(monitoring))
	for _, m := range monitoring {
		records[m.UserID] = m
	}

	entries := make([]model.LeaderboardEntry, 0, len(users))
	for _, userID := range users {
		st := byUser[userID]
		e := st.entry
		e.ProblemsSolved = st.solved.Cardinality()

		if m, ok := records[userID]; ok {
			e.TabSwitches = m.TabSwitches
			e.Disqualified = m.Disqualified()
			e.FirstOpenedAt = m.FirstOpenedAt
		}

		score := st.penalty
		if timeModel == config.TimeModelDuration {
			score = sessionDuration(contest, e, st.lastAccepted)
		}
		e.PenaltySeconds = int64(score / time.Second)
		e.Penalty = model.FormatPenalty(score)
		e.ExecutionTime = e.ExecutionTimeLabel()
		e.Memory = e.MemoryLabel()
		entries = append(entries, e)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.ProblemsSolved != b.ProblemsSolved {
			return a.ProblemsSolved > b.ProblemsSolved
		}
		if a.PenaltySeconds != b.PenaltySeconds {
			return a.PenaltySeconds < b.PenaltySeconds
		}
		if !a.LastAcceptedAt.Equal(b.LastAcceptedAt) {
			return a.LastAcceptedAt.Before(b.LastAcceptedAt)
		}
		return a.UserID < b.UserID
	})
	for i := range entries {
		entries[i].Rank = i + 1
	}
	return entries
}

// sessionDuration is the time from first open (or contest start) to the
// user's latest accepted submission, plus a fixed penalty per tab switch.
func sessionDuration(contest *model.Contest, e model.LeaderboardEntry, lastAccepted time.Time) time.Duration {
	from := contest.StartTime
	if e.FirstOpenedAt != nil {
		from = *e.FirstOpenedAt
	}
	d := lastAccepted.Sub(from)
	if d < 0 {
		d = 0
	}
	return d + time.Duration(e.TabSwitches)*model.TabSwitchPenalty
}
