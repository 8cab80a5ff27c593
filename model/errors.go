package model

import (
	"errors"
	"fmt"
)

// Error kinds. Lower layers wrap these with fmt.Errorf("%w: ...") and the
// HTTP layer maps them onto status codes.
var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrValidation      = errors.New("validation error")
	ErrInternal        = errors.New("internal error")
)

// Token failures are all reported to clients as ErrUnauthenticated.
var (
	ErrInvalidToken = fmt.Errorf("%w: invalid token", ErrUnauthenticated)
	ErrExpiredToken = fmt.Errorf("%w: token has expired", ErrUnauthenticated)
	ErrRevokedToken = fmt.Errorf("%w: token has been revoked", ErrUnauthenticated)
)
