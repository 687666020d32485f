package pipeline

import (
	"errors"
	"fmt"
)

// Messages recorded in State.Error when a run ends with nothing to recommend.
const (
	ErrMsgNoCandidates         = "No candidates found matching budget and criteria"
	ErrMsgAllFiltered          = "All candidates filtered out — try adjusting your preferences"
	ErrMsgNoNewRecommendations = "No new recommendations found — try a different refresh reason"
)

// Contract violations. These are returned as errors, never recorded in State.
var (
	ErrInvalidProfile       = errors.New("invalid partner profile")
	ErrInvalidBudget        = errors.New("invalid budget range")
	ErrBudgetNotFound       = errors.New("no budget configured for occasion")
	ErrUnknownOccasion      = errors.New("unknown occasion type")
	ErrMilestoneNotFound    = errors.New("milestone not found")
	ErrInvalidRefreshReason = errors.New("invalid refresh reason")
)

// Error represents a request the pipeline refuses to run. Kind is one of the
// sentinel errors above; errors.Is matches both Kind and Cause.
type Error struct {
	Kind    error
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := e.Message
	if e.Kind != nil {
		msg = fmt.Sprintf("%v: %s", e.Kind, e.Message)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *Error) Unwrap() []error {
	var errs []error
	for _, err := range []error{e.Kind, e.Cause} {
		if err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func contractError(kind error, message string, cause error) *Error {
	return &Error{Kind: kind, Message: message, Cause: cause}
}
