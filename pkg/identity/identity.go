// Package identity models the identity provider contract: who signed in and
// the provider failures surfaced to users.
package identity

import (
	"context"
	"errors"
	"strings"

	pkgerrors "github.com/angelmondragon/gasdrop-backend/pkg/errors"
)

// Identity is a verified assertion from an identity provider.
type Identity struct {
	UID         string
	Email       string
	DisplayName string
	Provider    string
}

// Verifier validates an opaque provider token.
type Verifier interface {
	Verify(ctx context.Context, idToken string) (Identity, error)
}

// Kind classifies provider failures.
type Kind string

const (
	KindEmailInUse        Kind = "EmailInUse"
	KindWeakPassword      Kind = "WeakPassword"
	KindInvalidEmail      Kind = "InvalidEmail"
	KindUserNotFound      Kind = "UserNotFound"
	KindWrongPassword     Kind = "WrongPassword"
	KindInvalidCredential Kind = "InvalidCredential"
	KindAccountNotFound   Kind = "AccountNotFound"
)

var kindMessages = map[Kind]string{
	KindEmailInUse:        "This email is already registered. Please use a different email or try logging in.",
	KindWeakPassword:      "Password is too weak. Please choose a stronger password.",
	KindInvalidEmail:      "Please enter a valid email address.",
	KindUserNotFound:      "No account found with this email. Please check your email or register.",
	KindWrongPassword:     "Incorrect password. Please try again.",
	KindInvalidCredential: "Invalid email or password. Please check your credentials.",
	KindAccountNotFound:   "Account not found. Please sign in again.",
}

// Message returns the user-facing text for kind.
func (k Kind) Message() string {
	if msg, ok := kindMessages[k]; ok {
		return msg
	}
	return "Authentication failed. Please try again."
}

// Error is a provider failure carrying its Kind.
type Error struct {
	Kind  Kind
	cause error
}

// NewError builds an Error for kind, optionally wrapping the provider error.
func NewError(kind Kind, cause error) *Error {
	return &Error{Kind: kind, cause: cause}
}

func (e *Error) Error() string {
	return e.Kind.Message()
}

func (e *Error) Unwrap() error {
	return e.cause
}

// KindOf returns the Kind carried by err, if any.
func KindOf(err error) (Kind, bool) {
	var idErr *Error
	if errors.As(err, &idErr) {
		return idErr.Kind, true
	}
	return "", false
}

// NormalizeEmail lowercases and trims an address for lookups.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// APIError renders kind as a typed API error whose details carry the kind so
// clients can branch on it.
func APIError(kind Kind, cause error) *pkgerrors.Error {
	code := pkgerrors.CodeUnauthorized
	switch kind {
	case KindEmailInUse:
		code = pkgerrors.CodeConflict
	case KindWeakPassword, KindInvalidEmail:
		code = pkgerrors.CodeValidation
	}
	var typed *pkgerrors.Error
	if cause != nil {
		typed = pkgerrors.Wrap(code, cause, kind.Message())
	} else {
		typed = pkgerrors.New(code, kind.Message())
	}
	return typed.WithDetails(map[string]any{"kind": string(kind)})
}

// ToAPIError converts a provider failure into a typed API error. Errors that
// carry no Kind become dependency failures.
func ToAPIError(err error) error {
	if err == nil {
		return nil
	}
	if kind, ok := KindOf(err); ok {
		return APIError(kind, err)
	}
	return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "identity provider")
}
