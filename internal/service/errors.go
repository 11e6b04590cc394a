package service

import (
	"errors"
	"fmt"
)

var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrInvalidIdentity = errors.New("invalid identity assertion")
	ErrMissingClaim    = errors.New("missing required claim")
	ErrForbidden       = errors.New("forbidden")
	ErrConflict        = errors.New("conflict")
	ErrNotFound        = errors.New("not found")
	ErrInvalidInput    = errors.New("invalid input")
	ErrMisconfigured   = errors.New("misconfigured")
)

// DetailError pairs a sentinel with the message shown to clients.
type DetailError struct {
	Kind   error
	Detail string
}

func (e *DetailError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func (e *DetailError) Unwrap() error {
	return e.Kind
}

func detailed(kind error, detail string) error {
	return &DetailError{Kind: kind, Detail: detail}
}

// Detail returns the client-facing message carried by err, or "".
func Detail(err error) string {
	var de *DetailError
	if errors.As(err, &de) {
		return de.Detail
	}
	return ""
}
