package pipeline

import (
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
)

// InvalidRequestError reports a generation request that failed validation.
// Fields lists the offending request fields when the validator named them.
type InvalidRequestError struct {
	Fields []string
	Cause  error
}

func invalidRequest(err error) *InvalidRequestError {
	e := &InvalidRequestError{Cause: err}
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		for _, fe := range fieldErrs {
			e.Fields = append(e.Fields, fe.Field())
		}
	}
	return e
}

func (e *InvalidRequestError) Error() string {
	msg := "invalid generation request"
	if len(e.Fields) > 0 {
		msg += " (" + strings.Join(e.Fields, ", ") + ")"
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *InvalidRequestError) Unwrap() error {
	return e.Cause
}
