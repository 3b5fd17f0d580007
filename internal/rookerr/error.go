// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

// Package rookerr provides the engine's single typed error, carrying a
// closed Kind rather than the teacher's ad hoc fmt.Errorf wrapping, so
// callers across process boundaries (an MCP tool handler, a webhook
// delivery failure) can branch on errors.Is/As without string matching.
package rookerr

import (
	"errors"
	"fmt"
)

// Kind is one of the eleven error categories the engine distinguishes.
type Kind string

const (
	KindNotConfigured           Kind = "not_configured"
	KindInvalidInput            Kind = "invalid_input"
	KindNotFound                Kind = "not_found"
	KindScopeViolation          Kind = "scope_violation"
	KindConflict                Kind = "conflict"
	KindContradictionUnresolved Kind = "contradiction_unresolved"
	KindProviderError           Kind = "provider_error"
	KindTimeout                 Kind = "timeout"
	KindCancelled               Kind = "cancelled"
	KindStoreError              Kind = "store_error"
	KindInternal                Kind = "internal"
)

// Error is the engine's single error type. It always carries a Kind so
// recovery policy (§7) can be selected mechanically.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds an Error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds an Error of the given kind around an underlying cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Is reports whether err carries the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

// KindOf extracts the Kind from err, defaulting to KindInternal for errors
// that never passed through this package.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Retryable reports whether the recovery policy (§7) says a caller should
// retry err with backoff rather than surface it immediately.
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindTimeout, KindProviderError, KindStoreError:
		return true
	default:
		return false
	}
}
