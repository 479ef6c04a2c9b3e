// Package common defines shared constants and sentinel errors used across
// client and server layers of cloudrive. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound          = errors.New("not found")
	ErrorDuplicateUsername = errors.New("username already taken")

	// Authorization errors. Unauthorized means no valid credential was
	// presented, Forbidden means the caller is known but does not own the node.
	ErrorUnauthorized       = errors.New("unauthorized")
	ErrorForbidden          = errors.New("forbidden")
	ErrorInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken         = errors.New("invalid token")

	// Tree structure errors.
	ErrorInvalidParent = errors.New("invalid parent")
	ErrorCycleDetected = errors.New("cycle detected")
	ErrorInvalidName   = errors.New("invalid name")

	// Content store failures.
	ErrorIO = errors.New("io error")

	// Service-level errors.
	ErrorValidation = errors.New("validation error")
	ErrorInternal   = errors.New("internal error")
)
