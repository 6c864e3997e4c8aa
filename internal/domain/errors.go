package domain

import "errors"

var (
	ErrInvalidInput         = errors.New("invalid input")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrForbidden            = errors.New("forbidden")
	ErrNotFound             = errors.New("resource not found")
	ErrConflict             = errors.New("conflict")
	ErrTransitionNotAllowed = errors.New("transition not allowed")
	ErrUnsupportedEventType = errors.New("unsupported event type")
	ErrStorageUnavailable   = errors.New("storage unavailable")
)
