package shared

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrValidation             = errors.New("validation failed")
	ErrNoActiveSession        = errors.New("no active session")
	ErrInvalidState           = errors.New("invalid session state")
	ErrStoreIO                = errors.New("record store unavailable")
	ErrInsufficientCandidates = errors.New("insufficient candidates")
	ErrOracle                 = errors.New("oracle unavailable")
	ErrUnauthorized           = errors.New("unauthorized")
)

// AppError carries the HTTP status and client-facing message for an error.
// Err keeps the cause chain so errors.Is works on the sentinels above.
type AppError struct {
	StatusCode int
	Message    string
	Data       interface{}
	Err        error
}

func (e *AppError) Error() string {
	if e.Err == nil {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func GetAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

func NewAppError(statusCode int, err error, message string) *AppError {
	return &AppError{StatusCode: statusCode, Message: message, Err: err}
}

func NewBadRequestError(err error, message string) *AppError {
	return NewAppError(http.StatusBadRequest, err, message)
}

func NewUnauthorizedError(err error, message string) *AppError {
	return NewAppError(http.StatusUnauthorized, err, message)
}

func NewNotFoundError(err error, message string) *AppError {
	return NewAppError(http.StatusNotFound, err, message)
}

func NewInternalError(err error, message string) *AppError {
	return NewAppError(http.StatusInternalServerError, err, message)
}

// NewValidationError wraps a user-correctable input error. details is echoed
// back to the client as the response data.
func NewValidationError(err error, details interface{}) *AppError {
	appErr := NewBadRequestError(fmt.Errorf("%w: %w", ErrValidation, err), "Validation failed")
	appErr.Data = details
	return appErr
}

func NewNoActiveSessionError() *AppError {
	return NewBadRequestError(ErrNoActiveSession, "No game in progress")
}

func NewInvalidStateError(message string) *AppError {
	return NewBadRequestError(ErrInvalidState, message)
}

// NewStoreError reports a record store failure. These are never retried.
func NewStoreError(err error, message string) *AppError {
	return NewInternalError(fmt.Errorf("%w: %w", ErrStoreIO, err), message)
}

func NewInsufficientCandidatesError(found int) *AppError {
	return NewBadRequestError(
		fmt.Errorf("%w: found %d of %d", ErrInsufficientCandidates, found, DistributionSlots),
		InsufficientPlayersMsg,
	)
}
