package service

import (
	"errors"
	"fmt"
)

// Service-level sentinel errors. Handlers map these to HTTP statuses.
var (
	// Identity errors, always wrapped in an *AuthError.
	ErrUserAlreadyExists  = errors.New("user with this email already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrTokenRevoked       = errors.New("token has been revoked")

	ErrUserNotFound = errors.New("user not found")
	ErrLoadNotFound = errors.New("load not found")

	// Device capabilities.
	ErrCallNotSupported  = errors.New("phone call not supported")
	ErrNoDocument        = errors.New("no document selected")
	ErrInvalidFileFormat = errors.New("invalid file format. only images and .pdf are allowed")
	ErrFileSizeExceeded  = errors.New("file size exceeds limit")
)

// AuthError is returned by every failing Identity Gateway operation.
type AuthError struct {
	Op  string
	Err error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

func authErr(op string, err error) error {
	return &AuthError{Op: op, Err: err}
}
