// Package internalerr defines the engine's error taxonomy (spec.md §7) and
// its mapping onto HTTP status codes at the control-plane boundary.
package internalerr

import (
	"errors"
	"net/http"
)

// Kind is one of the six internal error kinds the spec names. Every error
// that crosses from the core (book/registry/sink) to the control plane is
// wrapped in a *Error carrying one of these.
type Kind int

const (
	// KindInvalidOrder covers bad price/amount/expiration/market mismatch.
	KindInvalidOrder Kind = iota
	// KindDuplicateOrder covers a resubmitted order id.
	KindDuplicateOrder
	// KindNotFound covers an unknown market or order id.
	KindNotFound
	// KindAlreadyExists covers a market create on an existing market.
	KindAlreadyExists
	// KindUpstream covers an unreachable or 5xx Executioner.
	KindUpstream
	// KindInternal covers invariant violations and arithmetic overflow.
	KindInternal
)

func (k Kind) String() string {
	switch k {
	case KindInvalidOrder:
		return "InvalidOrder"
	case KindDuplicateOrder:
		return "DuplicateOrder"
	case KindNotFound:
		return "NotFound"
	case KindAlreadyExists:
		return "AlreadyExists"
	case KindUpstream:
		return "Upstream"
	case KindInternal:
		return "Internal"
	default:
		return "Unknown"
	}
}

// HTTPStatus maps a Kind to the status code the control plane writes
// (spec.md §7).
func (k Kind) HTTPStatus() int {
	switch k {
	case KindInvalidOrder:
		return http.StatusBadRequest
	case KindDuplicateOrder:
		return http.StatusConflict
	case KindNotFound:
		return http.StatusNotFound
	case KindAlreadyExists:
		return http.StatusConflict
	case KindUpstream:
		return http.StatusBadGateway
	case KindInternal:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}

// Error is a taxonomy-tagged error. The underlying cause is preserved for
// errors.Is/errors.As, and its text is appended to Msg by Error().
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

// New constructs a taxonomy error with no wrapped cause.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, Msg: msg}
}

// Wrap constructs a taxonomy error around an existing cause.
func Wrap(kind Kind, msg string, err error) *Error {
	return &Error{Kind: kind, Msg: msg, Err: err}
}

// KindOf extracts the Kind from err, defaulting to KindInternal for
// untagged errors — an unrecognized internal failure should fail closed as
// a 500, not leak as a 400 or be silently swallowed.
func KindOf(err error) Kind {
	var tagged *Error
	if errors.As(err, &tagged) {
		return tagged.Kind
	}
	return KindInternal
}

var (
	ErrInvalidOrder   = New(KindInvalidOrder, "invalid order")
	ErrDuplicateOrder = New(KindDuplicateOrder, "duplicate order id")
	ErrNotFound       = New(KindNotFound, "not found")
	ErrAlreadyExists  = New(KindAlreadyExists, "already exists")
	ErrUpstream       = New(KindUpstream, "executioner unreachable")
	ErrInternal       = New(KindInternal, "internal error")
)
