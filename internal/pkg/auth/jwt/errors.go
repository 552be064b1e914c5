package jwt

import (
	"errors"
	"fmt"

	"rosterhub/internal/pkg/errs"
)

// Kind classifies an authentication failure.
type Kind int

const (
	KindMissing Kind = iota + 1
	KindInvalid
	KindExpired
	KindUserNotFound
)

func (k Kind) String() string {
	switch k {
	case KindMissing:
		return "missing"
	case KindInvalid:
		return "invalid"
	case KindExpired:
		return "expired"
	case KindUserNotFound:
		return "user_not_found"
	}
	return "unknown"
}

// AuthError is a connection- or request-scoped authentication failure.
// Compare with errors.Is against ErrMissing, ErrInvalid, ErrExpired or ErrUserNotFound.
type AuthError struct {
	Kind Kind
	Err  error
}

var (
	ErrMissing      = &AuthError{Kind: KindMissing}
	ErrInvalid      = &AuthError{Kind: KindInvalid}
	ErrExpired      = &AuthError{Kind: KindExpired}
	ErrUserNotFound = &AuthError{Kind: KindUserNotFound}
)

func newAuthError(kind Kind, cause error) *AuthError {
	return &AuthError{Kind: kind, Err: cause}
}

func (e *AuthError) Error() string {
	if e.Err == nil {
		return "auth: " + e.Kind.String()
	}
	return fmt.Sprintf("auth: %s: %v", e.Kind, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

// Is matches any AuthError of the same kind.
func (e *AuthError) Is(target error) bool {
	t, ok := target.(*AuthError)
	return ok && t.Kind == e.Kind
}

// Code returns the application error code for the kind.
func (e *AuthError) Code() int {
	switch e.Kind {
	case KindMissing:
		return errs.ErrAuthMissing
	case KindExpired:
		return errs.ErrAuthExpired
	case KindUserNotFound:
		return errs.ErrAuthUserNotFound
	}
	return errs.ErrAuthInvalid
}

// ToCustomError maps a verification error to its client-facing CustomError.
// Errors that are not AuthErrors (e.g. a failing user store) become ErrUnknown.
func ToCustomError(err error) *errs.CustomError {
	var authErr *AuthError
	if errors.As(err, &authErr) {
		return errs.NewError(authErr.Code())
	}
	return errs.NewError(errs.ErrUnknown, err)
}
