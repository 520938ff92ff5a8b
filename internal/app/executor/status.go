package executor

import (
	"fmt"

	"contest_arena/internal/domain/model"
)

// Judge status ids.
const (
	statusInQueue           = 1
	statusProcessing        = 2
	statusAccepted          = 3
	statusWrongAnswer       = 4
	statusTimeLimitExceeded = 5
	statusCompilationError  = 6
	statusRuntimeSIGSEGV    = 7
	statusRuntimeOther      = 12
	statusInternalError     = 13
	statusExecFormatError   = 14
)

// outcomeFor parses a judge status id. Unrecognised ids are an error.
func outcomeFor(statusID int) (model.Outcome, error) {
	switch {
	case statusID == statusInQueue || statusID == statusProcessing:
		return model.OutcomePending, nil
	case statusID == statusAccepted:
		return model.OutcomeAccepted, nil
	case statusID == statusWrongAnswer:
		return model.OutcomeWrongAnswer, nil
	case statusID == statusTimeLimitExceeded:
		return model.OutcomeTimeLimitExceeded, nil
	case statusID == statusCompilationError:
		return model.OutcomeCompileError, nil
	case statusID >= statusRuntimeSIGSEGV && statusID <= statusRuntimeOther:
		return model.OutcomeRuntimeError, nil
	case statusID == statusInternalError || statusID == statusExecFormatError:
		return model.OutcomeSystemError, nil
	}
	return model.OutcomeSystemError, fmt.Errorf("unrecognized judge status id %d", statusID)
}
