package quiz

import (
	"errors"
	"fmt"
)

var (
	ErrWrongPhase      = errors.New("action not allowed in current phase")
	ErrNoCategory      = errors.New("a business category must be selected")
	ErrUnknownOption   = errors.New("answer does not match a selectable option")
	ErrAnswerRequired  = errors.New("answer the current question before moving on")
	ErrAtFirstQuestion = errors.New("already at the first question")
	ErrLoadInProgress  = errors.New("question set is already loading")
	ErrStaleLoad       = errors.New("question set arrived after the session was reset")

	ErrMalformedPayload = errors.New("malformed payload")
)

// ValidationError reports a rejected transition. The session state is left
// untouched whenever one is returned.
type ValidationError struct {
	Op  string
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(op string, err error) error {
	return &ValidationError{Op: op, Err: err}
}

// FetchError is returned when the catalog or a question set could not be
// retrieved: transport failure, non-2xx status or an unreadable payload.
type FetchError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: status %d: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}
