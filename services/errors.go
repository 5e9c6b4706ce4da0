package services

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrNoAccess           = errors.New("email has no dashboard access")
	ErrPasswordSet        = errors.New("password already set")
	ErrPasswordMismatch   = errors.New("passwords do not match")
	ErrWeakPassword       = errors.New("password must be at least 8 characters")
	ErrThrottled          = errors.New("too many failed attempts")
	ErrUnauthorized       = errors.New("invalid or expired session")
)

// notFound maps pgx.ErrNoRows to ErrNotFound and wraps everything else with what.
func notFound(err error, what string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return fmt.Errorf("%s: %w", what, err)
}

// ThrottledError carries how long the caller must wait.
type ThrottledError struct {
	WaitSeconds int
}

func (e *ThrottledError) Error() string {
	return fmt.Sprintf("too many failed attempts, retry in %ds", e.WaitSeconds)
}

func (e *ThrottledError) Is(target error) bool { return target == ErrThrottled }
