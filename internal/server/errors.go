package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/ghostpen/internal/config"
	"github.com/jonathan/ghostpen/internal/db"
	"github.com/jonathan/ghostpen/internal/pipeline"
	"github.com/jonathan/ghostpen/internal/profiler"
	"github.com/jonathan/ghostpen/internal/prompting"
)

// ErrInvalidCredentials indicates invalid login credentials.
var ErrInvalidCredentials = errors.New("invalid email or password")

// ErrValidation indicates request validation failure.
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation error: %s", e.Message)
	}
	return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
}

// validationError converts validator output into an ErrValidation naming the
// first failing field.
func validationError(err error) *ErrValidation {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		return &ErrValidation{Field: verrs[0].Field(), Message: verrs[0].Tag()}
	}
	return &ErrValidation{Message: err.Error()}
}

// HTTPStatus returns the HTTP status code for an error.
func HTTPStatus(err error) int {
	var (
		validation   *ErrValidation
		invalidReq   *pipeline.InvalidRequestError
		notFound     *prompting.NotFoundError
		invalidInput *profiler.InvalidInputError
	)
	switch {
	case errors.As(err, &validation), errors.As(err, &invalidReq), errors.Is(err, config.ErrPasswordTooLong):
		return http.StatusBadRequest
	case errors.Is(err, ErrInvalidCredentials), errors.Is(err, ErrWrongTokenType):
		return http.StatusUnauthorized
	case errors.As(err, &notFound), errors.Is(err, db.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, db.ErrEmailTaken):
		return http.StatusConflict
	case errors.As(err, &invalidInput):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
