package errors

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalid      = errors.New("invalid")
	ErrConflict     = errors.New("conflict")
	ErrTooMany      = errors.New("too many requests")
	ErrInternal     = errors.New("internal")
	ErrNotReady     = errors.New("document not ready")
	ErrInvalidFile  = errors.New("invalid file")
	ErrEmptyContent = errors.New("no text content extracted")
)

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsNotReady(err error) bool {
	return errors.Is(err, ErrNotReady)
}
