package app

import (
	"errors"
	"fmt"

	"github.com/yourusername/editions-go/internal/domain"
)

// OpenFailedMessage formats the notice for a failed open
func OpenFailedMessage(outcome domain.OpenOutcome, err error) string {
	switch outcome {
	case domain.OutcomeNotDownloaded:
		return "Error opening edition: Edition is not downloaded."
	case domain.OutcomeNotFound:
		return "Error opening edition: Edition not found."
	default:
		return fmt.Sprintf("Error opening edition: %s.", rootCause(err))
	}
}

// DownloadFailedMessage formats the notice for a failed download
func DownloadFailedMessage(err error) string {
	if errors.Is(err, domain.ErrAuthorizationDenied) {
		return AuthorizationDeniedMessage(err)
	}
	return fmt.Sprintf("Error downloading edition: %s", rootCause(err))
}

// AuthorizationDeniedMessage formats the notice for a denied token request
func AuthorizationDeniedMessage(err error) string {
	var authErr *domain.AuthorizationError
	if errors.As(err, &authErr) {
		switch authErr.Reason {
		case domain.ReasonNoEntitlements:
			return "You are not entitled to this edition."
		case domain.ReasonNoAccess:
			return "Your session has expired. Please sign in again."
		}
	}
	return "Authorization failed. Please sign in again."
}

// CatalogRefreshFailedMessage formats the notice for a failed catalog refresh
func CatalogRefreshFailedMessage(err error) string {
	return fmt.Sprintf("Error loading editions: %s", rootCause(err))
}

// DeleteFailedMessage formats the notice for a failed delete
func DeleteFailedMessage(err error) string {
	return fmt.Sprintf("Error deleting edition: %s", rootCause(err))
}

func rootCause(err error) string {
	if err == nil {
		return "unknown error"
	}
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}
