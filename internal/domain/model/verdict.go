package model

// Outcome classifies a single judged run.
type Outcome int

const (
	OutcomePending Outcome = iota
	OutcomeAccepted
	OutcomeWrongAnswer
	OutcomeTimeLimitExceeded
	OutcomeCompileError
	OutcomeRuntimeError
	OutcomeSystemError
)

func (o Outcome) String() string {
	switch o {
	case OutcomePending:
		return "Pending"
	case OutcomeAccepted:
		return "Accepted"
	case OutcomeWrongAnswer:
		return "WrongAnswer"
	case OutcomeTimeLimitExceeded:
		return "TimeLimitExceeded"
	case OutcomeCompileError:
		return "CompileError"
	case OutcomeRuntimeError:
		return "RuntimeError"
	case OutcomeSystemError:
		return "SystemError"
	}
	return "Unknown"
}

// Verdict is the stored outcome of a submission. Besides the constants it may
// hold the judge's own status description, e.g. "Runtime Error (NZEC)".
type Verdict string

const (
	VerdictAccepted          Verdict = "Accepted"
	VerdictWrongAnswer       Verdict = "Wrong Answer"
	VerdictTimeLimitExceeded Verdict = "Time Limit Exceeded"
	VerdictCompilationError  Verdict = "Compilation Error"
	VerdictRuntimeError      Verdict = "Runtime Error"
	VerdictSystemError       Verdict = "System Error"
	VerdictJudgingTimedOut   Verdict = "Judging Timed Out"
)

// Verdict is the canonical verdict for an outcome.
func (o Outcome) Verdict() Verdict {
	switch o {
	case OutcomeAccepted:
		return VerdictAccepted
	case OutcomeWrongAnswer:
		return VerdictWrongAnswer
	case OutcomeTimeLimitExceeded:
		return VerdictTimeLimitExceeded
	case OutcomeCompileError:
		return VerdictCompilationError
	case OutcomeRuntimeError:
		return VerdictRuntimeError
	case OutcomePending:
		return VerdictJudgingTimedOut
	}
	return VerdictSystemError
}
