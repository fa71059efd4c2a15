package expense

import (
	"errors"
	"fmt"
	"net/http"

	"google.golang.org/api/googleapi"
)

// StoreErrorKind tags the class of a backing-store failure so callers can
// render an actionable message without handling transport error types
type StoreErrorKind string

const (
	// StoreUnreachable covers connectivity and transport problems
	StoreUnreachable StoreErrorKind = "unreachable"
	// StoreAuthFailure covers credential and permission problems
	StoreAuthFailure StoreErrorKind = "auth_failure"
	// StoreNotFound means the named spreadsheet does not exist or is not
	// shared with the service credential
	StoreNotFound StoreErrorKind = "not_found"
)

// StoreError wraps a backing-store failure with its classified kind. Raw
// transport errors never cross the ledger boundary unconverted.
type StoreError struct {
	Kind StoreErrorKind
	Op   string
	Err  error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("ledger %s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Message returns a user-presentable description of the failure
func (e *StoreError) Message() string {
	switch e.Kind {
	case StoreNotFound:
		return "Spreadsheet not found. Create it and share it with the service account email."
	case StoreAuthFailure:
		return "Could not authenticate with the spreadsheet. Check the service account credential."
	default:
		return "Could not reach the spreadsheet. Check connectivity and try again."
	}
}

// classifyStoreError converts an error from the Sheets API into a tagged
// StoreError. HTTP status codes carry the classification; anything else is
// treated as unreachable.
func classifyStoreError(op string, err error) *StoreError {
	kind := StoreUnreachable
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusNotFound:
			kind = StoreNotFound
		case http.StatusUnauthorized, http.StatusForbidden:
			kind = StoreAuthFailure
		}
	}
	return &StoreError{Kind: kind, Op: op, Err: err}
}
