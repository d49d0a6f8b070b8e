// Package pipeerr defines the error taxonomy of a calibration run.
//
//	ErrConfiguration  unknown or duplicated step names, bad parameters,
//	                  incompatible model registry keys, unknown profiles.
//	ErrAssociation    malformed association descriptors or unreadable members.
//	ErrUpstream       anything raised while the engine executes a step,
//	                  reference-file resolution included.
//
// Errors are never retried. *Error carries the step and exposure that
// failed so the message alone is enough to diagnose a run.
package pipeerr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrConfiguration = errors.New("configuration error")
	ErrAssociation   = errors.New("association error")
	ErrUpstream      = errors.New("upstream pipeline error")
)

// Error is a classified run failure.
type Error struct {
	Kind     error
	Step     string
	Exposure string
	Msg      string
	Err      error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	var b strings.Builder
	b.WriteString(e.Kind.Error())
	if e.Step != "" {
		fmt.Fprintf(&b, " [step=%s]", e.Step)
	}
	if e.Exposure != "" {
		fmt.Fprintf(&b, " [exposure=%s]", e.Exposure)
	}
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap exposes both the kind and the cause to errors.Is / errors.As.
func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// Configf creates a configuration error.
func Configf(format string, args ...any) error {
	return &Error{Kind: ErrConfiguration, Msg: fmt.Sprintf(format, args...)}
}

// WrapConfig classifies err as a configuration error.
func WrapConfig(err error, format string, args ...any) error {
	return &Error{Kind: ErrConfiguration, Msg: fmt.Sprintf(format, args...), Err: err}
}

// Associationf creates an association error, optionally naming the member.
func Associationf(exposure string, format string, args ...any) error {
	return &Error{Kind: ErrAssociation, Exposure: exposure, Msg: fmt.Sprintf(format, args...)}
}

// WrapAssociation classifies err as an association error.
func WrapAssociation(err error, exposure string, format string, args ...any) error {
	return &Error{Kind: ErrAssociation, Exposure: exposure, Msg: fmt.Sprintf(format, args...), Err: err}
}

// Upstream classifies an engine failure during step execution.
func Upstream(step, exposure string, err error) error {
	return &Error{Kind: ErrUpstream, Step: step, Exposure: exposure, Err: err}
}

// IsConfiguration reports whether err is (or wraps) a configuration error.
func IsConfiguration(err error) bool { return errors.Is(err, ErrConfiguration) }

// IsAssociation reports whether err is (or wraps) an association error.
func IsAssociation(err error) bool { return errors.Is(err, ErrAssociation) }

// IsUpstream reports whether err is (or wraps) an upstream pipeline error.
func IsUpstream(err error) bool { return errors.Is(err, ErrUpstream) }
