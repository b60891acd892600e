package pkg

import (
	"errors"
	"net/http"

	log "github.com/sirupsen/logrus"
)

var ErrUnauthorized = errors.New("unauthorized")

// ValidationError reports malformed or missing input.
type ValidationError struct {
	Field   string
	Message string
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

func (e *ValidationError) Error() string {
	return e.Message
}

// ConflictError reports a uniqueness clash, like an already registered email.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string {
	return e.Message
}

func IsValidationError(err error) bool {
	var verr *ValidationError
	return errors.As(err, &verr)
}

// WriteErrorResponse maps a service error onto the HTTP error taxonomy:
// validation and conflict errors are 400, unauthorized is 401,
// anything else is logged with the operation name and returned as 500 with internalMsg.
func WriteErrorResponse(w http.ResponseWriter, op string, err error, internalMsg string) {
	var verr *ValidationError
	var cerr *ConflictError
	switch {
	case errors.As(err, &verr):
		log.Tracef("%s: validation: %s", op, verr)
		WriteError(w, http.StatusBadRequest, verr.Message)
	case errors.As(err, &cerr):
		log.Debugf("%s: conflict: %s", op, cerr)
		WriteError(w, http.StatusBadRequest, cerr.Message)
	case errors.Is(err, ErrUnauthorized):
		WriteError(w, http.StatusUnauthorized, "Unauthorized")
	default:
		log.Errorf("%s: %s", op, err)
		WriteError(w, http.StatusInternalServerError, internalMsg)
	}
}
