package domain

import (
	"errors"
	"fmt"
)

// NotFoundError is returned for 404 responses and unknown local lookups.
type NotFoundError struct {
	Resource string
	Err      error
}

func (e NotFoundError) Error() string {
	if e.Resource == "" {
		return "not found"
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e NotFoundError) Unwrap() error { return e.Err }

// ValidationError covers both local pre-flight checks and backend payload
// errors. Msg is shown to the user verbatim.
type ValidationError struct {
	Field string
	Msg   string
	Err   error
}

func (e ValidationError) Error() string {
	if e.Msg != "" && e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Msg)
	}
	if e.Msg != "" {
		return e.Msg
	}
	if e.Field != "" {
		return fmt.Sprintf("invalid %s", e.Field)
	}
	return "validation error"
}

func (e ValidationError) Unwrap() error { return e.Err }

type ConflictError struct {
	Resource string
	Msg      string
	Err      error
}

func (e ConflictError) Error() string {
	switch {
	case e.Msg != "" && e.Resource != "":
		return fmt.Sprintf("%s conflict: %s", e.Resource, e.Msg)
	case e.Msg != "":
		return e.Msg
	case e.Resource != "":
		return fmt.Sprintf("%s conflict", e.Resource)
	default:
		return "conflict"
	}
}

func (e ConflictError) Unwrap() error { return e.Err }

type InternalError struct {
	Msg string
	Err error
}

func (e InternalError) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	return "internal error"
}

func (e InternalError) Unwrap() error { return e.Err }

// NetworkError wraps transport failures: the request never produced a response.
type NetworkError struct {
	Op  string
	Err error
}

func (e NetworkError) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("network error: %v", e.Err)
	}
	return fmt.Sprintf("network error (%s): %v", e.Op, e.Err)
}

func (e NetworkError) Unwrap() error { return e.Err }

type AuthKind string

const (
	AuthUnauthorized       AuthKind = "unauthorized"
	AuthForbidden          AuthKind = "forbidden"
	AuthRefreshFailed      AuthKind = "refresh_failed"
	AuthInvalidCredentials AuthKind = "invalid_credentials"
)

type AuthError struct {
	Kind AuthKind
	Msg  string
	Err  error
}

func (e AuthError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
	}
	return string(e.Kind)
}

func (e AuthError) Unwrap() error { return e.Err }

// UnknownError is any non-2xx response without a more specific mapping.
type UnknownError struct {
	Status int
	Msg    string
}

func (e UnknownError) Error() string {
	if e.Msg != "" {
		return fmt.Sprintf("unexpected status %d: %s", e.Status, e.Msg)
	}
	return fmt.Sprintf("unexpected status %d", e.Status)
}

func IsNotFound(err error) bool {
	var target NotFoundError
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target ValidationError
	return errors.As(err, &target)
}

func IsConflict(err error) bool {
	var target ConflictError
	return errors.As(err, &target)
}

func IsInternal(err error) bool {
	var target InternalError
	return errors.As(err, &target)
}

func IsNetwork(err error) bool {
	var target NetworkError
	return errors.As(err, &target)
}

func IsAuth(err error) bool {
	var target AuthError
	return errors.As(err, &target)
}

// AuthKindOf returns the kind of the first AuthError in the chain, or "".
func AuthKindOf(err error) AuthKind {
	var target AuthError
	if errors.As(err, &target) {
		return target.Kind
	}
	return ""
}

// UserMessage renders err as the text of a user-facing notification.
// Backend validation messages pass through verbatim.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var (
		validation ValidationError
		conflict   ConflictError
		notFound   NotFoundError
		auth       AuthError
	)
	switch {
	case errors.As(err, &validation):
		if validation.Msg != "" {
			return validation.Msg
		}
		return validation.Error()
	case errors.As(err, &conflict):
		if conflict.Msg != "" {
			return conflict.Msg
		}
		return conflict.Error()
	case errors.As(err, &notFound):
		return notFound.Error()
	case errors.As(err, &auth):
		switch auth.Kind {
		case AuthInvalidCredentials:
			return "invalid email or password"
		case AuthForbidden:
			return "access denied"
		default:
			return "session expired, please log in again"
		}
	case IsNetwork(err):
		return "request failed, check your connection and try again"
	default:
		return "something went wrong, please try again"
	}
}
