package common

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrNotFound           = errors.New("requested resource not found")
	ErrUnauthorized       = errors.New("unauthorized access")
	ErrForbidden          = errors.New("forbidden access")
	ErrBadRequest         = errors.New("bad request")
	ErrConflict           = errors.New("resource conflict")
	ErrInternalServer     = errors.New("internal server error")
	ErrValidation         = errors.New("validation failed")
	ErrServiceUnavailable = errors.New("service unavailable") // judge down or saturated
	ErrBadGateway         = errors.New("upstream failure")
	ErrTooManyRequests    = errors.New("too many requests")
)

// Policy rejections raised before a submission is judged.
var (
	ErrDisqualified      = fmt.Errorf("%w: you have been disqualified from this contest for switching tabs too often", ErrForbidden)
	ErrContestEnded      = fmt.Errorf("%w: the contest has already ended, submissions are closed", ErrForbidden)
	ErrContestNotStarted = fmt.Errorf("%w: the contest has not started yet", ErrForbidden)
	ErrStreamMismatch    = fmt.Errorf("%w: this contest is not open to your stream", ErrForbidden)
	ErrContestLive       = fmt.Errorf("%w: the contest is live, practice opens once it ends", ErrForbidden)
)

// Submission pipeline failures. Each one aborts before anything is persisted.
var (
	ErrNoTestCases        = fmt.Errorf("%w: could not judge this problem, contact an admin", ErrInternalServer)
	ErrJudgeFailed        = fmt.Errorf("%w: failed to execute code", ErrBadGateway)
	ErrJudgeBusy          = fmt.Errorf("%w: the judge is busy, try again shortly", ErrServiceUnavailable)
	ErrSubmissionNotSaved = fmt.Errorf("%w: the database refused the submission, please resubmit", ErrInternalServer)
)

// HTTPStatusFromError maps domain errors to HTTP status codes.
func HTTPStatusFromError(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if errors.Is(err, ErrNotFound) {
		return http.StatusNotFound
	}
	if errors.Is(err, ErrUnauthorized) {
		return http.StatusUnauthorized
	}
	if errors.Is(err, ErrForbidden) {
		return http.StatusForbidden
	}
	if errors.Is(err, ErrBadRequest) || errors.Is(err, ErrValidation) {
		return http.StatusBadRequest
	}
	if errors.Is(err, ErrConflict) {
		return http.StatusConflict
	}
	if errors.Is(err, ErrTooManyRequests) {
		return http.StatusTooManyRequests
	}
	if errors.Is(err, ErrServiceUnavailable) {
		return http.StatusServiceUnavailable
	}
	if errors.Is(err, ErrBadGateway) {
		return http.StatusBadGateway
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23505" { // unique violation
			return http.StatusConflict
		}
	}

	return http.StatusInternalServerError
}

// PublicMessage returns the text safe to show an end user for err.
// Unclassified errors collapse to a generic message.
func PublicMessage(err error) string {
	for _, known := range []error{
		ErrDisqualified, ErrContestEnded, ErrContestNotStarted, ErrStreamMismatch, ErrContestLive,
		ErrNoTestCases, ErrJudgeFailed, ErrJudgeBusy, ErrSubmissionNotSaved,
	} {
		if errors.Is(err, known) {
			return known.Error()
		}
	}
	switch HTTPStatusFromError(err) {
	case http.StatusInternalServerError:
		return "something went wrong, please try again"
	default:
		return err.Error()
	}
}

// Errorf creates a new error with formatting, useful for wrapping.
func Errorf(format string, args ...interface{}) error {
	return fmt.Errorf(format, args...)
}
