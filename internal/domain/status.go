package domain

import (
	"fmt"

	"github.com/akulikov/review-request-service/internal/apperrors"
)

// Status is the lifecycle state of a ReviewRequest, stored as a single
// character. StatusAll is the "no status filter" value used by list queries.
type Status string

const (
	StatusPending   Status = "P"
	StatusSubmitted Status = "S"
	StatusDiscarded Status = "D"
	StatusAll       Status = ""
)

// ParseStatus converts the external status string into a Status. Unknown
// strings are a hard error, never silently ignored.
func ParseStatus(s string) (Status, error) {
	switch s {
	case "pending":
		return StatusPending, nil
	case "submitted":
		return StatusSubmitted, nil
	case "discarded":
		return StatusDiscarded, nil
	case "all":
		return StatusAll, nil
	default:
		return StatusAll, fmt.Errorf("%w: '%s'", apperrors.ErrInvalidStatus, s)
	}
}

// String returns the external form of the status.
func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusSubmitted:
		return "submitted"
	case StatusDiscarded:
		return "discarded"
	case StatusAll:
		return "all"
	default:
		return "unknown"
	}
}
