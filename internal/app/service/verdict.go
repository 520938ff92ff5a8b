package service

import (
	"strings"

	"contest_arena/internal/app/executor"
	"contest_arena/internal/domain/model"
)

// VerdictSummary is the reduction of one batch of judged runs.
type VerdictSummary struct {
	Verdict   model.Verdict
	Error     string
	TotalTime *float64 // max seconds over all runs
	MaxMemory *int     // max KB over all runs
	// FailedCase is the index of the first run that was not accepted, or -1.
	FailedCase int
}

// ReduceVerdict fails fast: the first run that is not accepted decides the
// verdict and later runs are ignored for that purpose. Time and memory are
// maxima over every run that reported them.
func ReduceVerdict(results []executor.Result) VerdictSummary {
	summary := VerdictSummary{Verdict: model.VerdictAccepted, FailedCase: -1}

	for i, r := range results {
		if r.Time != nil && (summary.TotalTime == nil || *r.Time > *summary.TotalTime) {
			t := *r.Time
			summary.TotalTime = &t
		}
		if r.Memory != nil && (summary.MaxMemory == nil || *r.Memory > *summary.MaxMemory) {
			m := *r.Memory
			summary.MaxMemory = &m
		}

		if summary.FailedCase >= 0 || r.Outcome == model.OutcomeAccepted {
			continue
		}
		summary.FailedCase = i
		summary.Verdict = verdictFor(r)
		summary.Error = errorDetail(r)
	}
	return summary
}

func verdictFor(r executor.Result) model.Verdict {
	if r.Outcome == model.OutcomePending {
		return model.VerdictJudgingTimedOut
	}
	if d := strings.TrimSpace(r.Description); d != "" {
		return model.Verdict(d)
	}
	return r.Outcome.Verdict()
}

func errorDetail(r executor.Result) string {
	if out := strings.TrimSpace(r.CompileOutput); out != "" {
		return out
	}
	if out := strings.TrimSpace(r.Stderr); out != "" {
		return out
	}
	switch r.Outcome {
	case model.OutcomeWrongAnswer:
		return "Your output did not match the expected output."
	case model.OutcomeTimeLimitExceeded:
		return "Your code exceeded the time limit."
	case model.OutcomeCompileError:
		return "Your code failed to compile."
	case model.OutcomeRuntimeError:
		return "Your code crashed while running."
	case model.OutcomePending:
		return "Judging did not finish in time, please resubmit."
	}
	return "The judge could not evaluate your code."
}
