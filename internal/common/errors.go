// Package common defines sentinel errors and small helpers shared by the
// tenantkeeper packages. Callers should use errors.Is to match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// ErrAccountNotFound is returned by authentication lookups. The message is
	// fixed and never mentions the username that was tried.
	ErrAccountNotFound = errors.New("User not found")

	// Schema provisioning errors.
	ErrUnsafeIdentifier = errors.New("unsafe schema identifier")

	// Locking errors.
	ErrLockTimeout = errors.New("lock wait timeout")
)
