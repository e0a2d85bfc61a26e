package hookexecution

import (
	"fmt"

	"github.com/prebid/prebid-response-engine/errortypes"
)

// TimeoutError is reported for a hook that did not return before its group timeout.
type TimeoutError struct{}

func (e TimeoutError) Error() string {
	return "Hook execution timeout"
}

// NewFailure lets a module report an anticipated failure of one of its hooks.
func NewFailure(format string, a ...any) FailureError {
	return FailureError{Message: fmt.Sprintf(format, a...)}
}

type FailureError struct {
	Message string
}

func (e FailureError) Error() string {
	return "hook execution failed: " + e.Message
}

// RejectError describes a bidder response dropped by a hook.
// It carries warning severity so the rejection never fails the response.
type RejectError struct {
	NBR   int
	Hook  HookID
	Stage string
}

func (e RejectError) Code() int {
	return errortypes.ModuleRejectionErrorCode
}

func (e RejectError) Severity() errortypes.Severity {
	return errortypes.SeverityWarning
}

func (e RejectError) Error() string {
	return fmt.Sprintf(
		"Module %s (hook: %s) rejected bidder response with code %d at %s stage",
		e.Hook.ModuleCode,
		e.Hook.HookImplCode,
		e.NBR,
		e.Stage,
	)
}
