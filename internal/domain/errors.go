package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrAuthorizationDenied is returned when the token provider refuses a token
	ErrAuthorizationDenied = errors.New("authorization denied")

	// ErrNotDownloaded is returned when opening an edition that is not on disk
	ErrNotDownloaded = errors.New("edition is not downloaded")

	// ErrEditionNotFound is returned for unknown edition identifiers
	ErrEditionNotFound = errors.New("edition not found")

	// ErrDownloadCancelled is reported to listeners of a cancelled download
	ErrDownloadCancelled = errors.New("download cancelled")

	// ErrLoopStopped is returned when posting to a stopped event loop
	ErrLoopStopped = errors.New("event loop stopped")
)

// OpenOutcome classifies the result of opening an edition
type OpenOutcome string

const (
	OutcomeOpened        OpenOutcome = "opened"
	OutcomeNotDownloaded OpenOutcome = "not_downloaded"
	OutcomeNotFound      OpenOutcome = "not_found"
	OutcomeInternalError OpenOutcome = "internal_error"
)

// OpenError wraps a failure of the content presenter
type OpenError struct {
	EditionID EditionID
	Outcome   OpenOutcome
	Err       error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("open edition %s: %s: %v", e.EditionID, e.Outcome, e.Err)
}

func (e *OpenError) Unwrap() error {
	return e.Err
}

// ClassifyOpenError maps a presenter error onto an OpenOutcome
func ClassifyOpenError(err error) OpenOutcome {
	switch {
	case err == nil:
		return OutcomeOpened
	case errors.Is(err, ErrNotDownloaded):
		return OutcomeNotDownloaded
	case errors.Is(err, ErrEditionNotFound):
		return OutcomeNotFound
	default:
		return OutcomeInternalError
	}
}

// AuthorizationError carries the reason a token request was denied
type AuthorizationError struct {
	Reason TokenRequestReason
	Detail string
}

func (e *AuthorizationError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s (%s)", ErrAuthorizationDenied, e.Reason)
	}
	return fmt.Sprintf("%s (%s): %s", ErrAuthorizationDenied, e.Reason, e.Detail)
}

func (e *AuthorizationError) Is(target error) bool {
	return target == ErrAuthorizationDenied
}
