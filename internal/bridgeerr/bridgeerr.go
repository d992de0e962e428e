// Package bridgeerr defines the bridge-wide error kind taxonomy (see SPEC_FULL.md §7).
package bridgeerr

import (
	"errors"
	"fmt"
)

// Kind classifies an error so callers can apply a single recovery policy
// without string-matching messages.
type Kind string

const (
	TransportUnavailable Kind = "transport-unavailable"
	TransportClosed       Kind = "transport-closed"
	RPCTimeout            Kind = "rpc-timeout"
	RPCError              Kind = "rpc-error"
	UpstreamUnavailable   Kind = "upstream-unavailable"
	Validation            Kind = "validation"
	NotFound              Kind = "not-found"
	NoOp                  Kind = "no-op"
	FatalConfig           Kind = "fatal-config"
)

// Error wraps an underlying error with a Kind for classification.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Wrap annotates err with kind. Wrap(kind, nil) returns nil.
func Wrap(kind Kind, err error) error {
	if err == nil {
		return nil
	}
	return &Error{Kind: kind, Err: err}
}

// New creates a bare Kind error with no wrapped cause.
func New(kind Kind, msg string) error {
	return &Error{Kind: kind, Err: errors.New(msg)}
}

// KindOf extracts the Kind from err, or "" if err does not carry one.
func KindOf(err error) Kind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	return ""
}

// Is reports whether err carries the given Kind anywhere in its chain.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
