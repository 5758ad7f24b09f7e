package gephi

import (
	"errors"
	"fmt"
)

var (
	// ErrReport is matched by every failed graph update.
	ErrReport = errors.New("graph update failed")

	// ErrInvalidEndpoint is returned when the workspace URL cannot be used.
	ErrInvalidEndpoint = errors.New("invalid gephi endpoint")
)

// ReportError describes one rejected or undeliverable graph update.
type ReportError struct {
	// Operation is the update kind, "an" (add node) or "ae" (add edge).
	Operation string

	// ID is the node or edge id of the update.
	ID string

	// StatusCode is set when the streaming server answered with a non-2xx status.
	StatusCode int

	// Err is the transport error, if any.
	Err error
}

func (e *ReportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("gephi %s %q: unexpected status %d", e.Operation, e.ID, e.StatusCode)
	}
	return fmt.Sprintf("gephi %s %q: %v", e.Operation, e.ID, e.Err)
}

func (e *ReportError) Unwrap() error {
	return e.Err
}

// Is makes every ReportError match ErrReport.
func (e *ReportError) Is(target error) bool {
	return target == ErrReport
}
