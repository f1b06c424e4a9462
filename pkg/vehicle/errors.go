package vehicle

import (
	"errors"
	"fmt"

	"gcslink/pkg/mav"
	"gcslink/pkg/plan"
)

var (
	// ErrBusy means another transfer is active on this session.
	ErrBusy = errors.New("vehicle: another transfer is in progress")
	// ErrLinkLost means the heartbeat timeout fired; in-flight operations
	// fail with it.
	ErrLinkLost = errors.New("vehicle: link lost")
	// ErrTimeout means a retry budget was exhausted.
	ErrTimeout = errors.New("vehicle: operation timed out")
	// ErrCancelled means the caller cancelled the operation.
	ErrCancelled = errors.New("vehicle: operation cancelled")
	// ErrNotConnected means the session is closed or was never connected.
	ErrNotConnected = errors.New("vehicle: not connected")
	// ErrSeqOutOfRange means a set-current index beyond the mission total.
	ErrSeqOutOfRange = errors.New("vehicle: sequence out of range")
	// ErrNoHeartbeat means no heartbeat arrived within the connect window.
	ErrNoHeartbeat = errors.New("vehicle: no heartbeat")
	// ErrModeNotAvailable means the named mode is unknown for the vehicle.
	ErrModeNotAvailable = errors.New("vehicle: mode not available")
)

// CommandError is a non-accepted COMMAND_ACK.
type CommandError struct {
	Command uint16
	Result  uint8
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("vehicle: command %d rejected: %s", e.Command, mav.ResultName(e.Result))
}

// ValidationError is returned before transmission when a plan fails
// validation.
type ValidationError struct {
	Issues []plan.Issue
}

func (e *ValidationError) Error() string {
	for _, issue := range e.Issues {
		if issue.Severity == plan.SeverityError {
			return fmt.Sprintf("vehicle: invalid plan: %s", issue)
		}
	}
	return "vehicle: invalid plan"
}

// TransportError wraps a fatal link I/O failure.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("vehicle: transport: %v", e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }
