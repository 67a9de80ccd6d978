// Package service holds the activation workflow, the OTP engine and the
// admin-side record operations.  Every failure a caller must react to is an
// exported sentinel or typed error; handlers map them to HTTP statuses.
package service

import (
	"errors"
	"fmt"

	"github.com/iliyamo/voter-registry/internal/model"
)

var (
	ErrVoterNotFound      = errors.New("voter id not found")
	ErrUserNotFound       = errors.New("user not found")
	ErrAlreadyActive      = errors.New("account already exists for this voter id")
	ErrEmailMismatch      = errors.New("voter id and email do not match")
	ErrOTPNotFound        = errors.New("invalid or unverified otp")
	ErrOTPExpired         = errors.New("otp has expired, please request a new one")
	ErrEmailTaken         = errors.New("email already exists")
	ErrVoterIDTaken       = errors.New("voter id already exists")
	ErrInvalidCredentials = errors.New("incorrect password")
	ErrNotActivated       = errors.New("account has not been activated")

	// ErrDependency marks a failure of the store or another collaborator.
	ErrDependency = errors.New("dependency failure")
)

// ValidationError reports malformed or missing input.
type ValidationError struct{ Msg string }

func (e *ValidationError) Error() string { return e.Msg }

func invalid(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// RoleMismatchError is returned by Login when the account is registered
// under a different role than the one requested.
type RoleMismatchError struct {
	Registered model.Role
	Requested  string
}

func (e *RoleMismatchError) Error() string {
	return fmt.Sprintf("this account is registered as %s, not %s", e.Registered, e.Requested)
}

// dependency wraps err so that errors.Is(err, ErrDependency) holds and the
// underlying message survives for diagnostics.
func dependency(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrDependency, op, err)
}
