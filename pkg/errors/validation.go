package errors

import (
	"errors"
	"fmt"
)

// Subject names the kind of market entity a validation fault refers to.
type Subject string

const (
	SubjectStudent Subject = "student"
	SubjectSchool  Subject = "school"
	SubjectMarket  Subject = "market"
)

// ValidationError identifies the student or school whose input broke a
// market invariant. Index is -1 for market-wide faults such as list count
// mismatches.
type ValidationError struct {
	Subject Subject
	Index   int
	Reason  string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Index < 0 {
		return fmt.Sprintf("%s: %s", e.Subject, e.Reason)
	}
	return fmt.Sprintf("%s %d: %s", e.Subject, e.Index, e.Reason)
}

// Invalid builds an INVALID_MARKET error carrying a ValidationError.
func Invalid(subject Subject, index int, format string, args ...any) *Error {
	v := &ValidationError{Subject: subject, Index: index, Reason: fmt.Sprintf(format, args...)}
	return Wrap(ErrCodeInvalidMarket, v, "invalid market")
}

// AsValidation extracts the ValidationError from err's chain.
func AsValidation(err error) (*ValidationError, bool) {
	var v *ValidationError
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}
