package rtkit

import (
	"errors"
	"fmt"

	idbus "github.com/b0bbywan/go-rtkit/internal/dbus"
)

// ErrorKind classifies every failure returned by a Client.
type ErrorKind int

const (
	Unknown ErrorKind = iota
	RemoteUnavailable
	PermissionDenied
	PriorityOutOfRange
	RateLimited
	LimitNegotiationFailed
)

var errorKindNames = map[ErrorKind]string{
	Unknown:                "unknown",
	RemoteUnavailable:      "remote unavailable",
	PermissionDenied:       "permission denied",
	PriorityOutOfRange:     "priority out of range",
	RateLimited:            "rate limited",
	LimitNegotiationFailed: "limit negotiation failed",
}

func (k ErrorKind) String() string {
	if name, ok := errorKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// remoteErrorKinds maps D-Bus error names to the kind they are reported as.
// Names missing from the table become an *UnknownError.
var remoteErrorKinds = map[string]ErrorKind{
	idbus.ERR_SERVICE_UNKNOWN:   RemoteUnavailable,
	idbus.ERR_NAME_HAS_NO_OWNER: RemoteUnavailable,
	idbus.ERR_NO_REPLY:          RemoteUnavailable,
	idbus.ERR_TIMEOUT:           RemoteUnavailable,
	idbus.ERR_TIMED_OUT:         RemoteUnavailable,
	idbus.ERR_NO_SERVER:         RemoteUnavailable,
	idbus.ERR_NO_NETWORK:        RemoteUnavailable,
	idbus.ERR_DISCONNECTED:      RemoteUnavailable,
	idbus.ERR_UNKNOWN_METHOD:    RemoteUnavailable,
	idbus.ERR_UNKNOWN_OBJECT:    RemoteUnavailable,
	idbus.ERR_UNKNOWN_INTERFACE: RemoteUnavailable,
	idbus.ERR_UNKNOWN_PROPERTY:  RemoteUnavailable,

	idbus.ERR_ACCESS_DENIED:                      PermissionDenied,
	idbus.ERR_AUTH_FAILED:                        PermissionDenied,
	idbus.ERR_INTERACTIVE_AUTHORIZATION_REQUIRED: PermissionDenied,
	idbus.POLKIT_ERR_NOT_AUTHORIZED:              PermissionDenied,

	idbus.ERR_INVALID_ARGS: PriorityOutOfRange,

	idbus.ERR_LIMITS_EXCEEDED: RateLimited,
}

// RemoteUnavailableError means the daemon could not be reached or its reply
// could not be understood.
type RemoteUnavailableError struct {
	Method string
	Name   string
	Err    error
}

func (e *RemoteUnavailableError) Error() string {
	return describe(e.Method, RemoteUnavailable, e.Name, e.Err)
}
func (e *RemoteUnavailableError) Unwrap() error   { return e.Err }
func (e *RemoteUnavailableError) Kind() ErrorKind { return RemoteUnavailable }

// PermissionDeniedError means the daemon's policy refused this caller.
type PermissionDeniedError struct {
	Method string
	Name   string
	Err    error
}

func (e *PermissionDeniedError) Error() string {
	return describe(e.Method, PermissionDenied, e.Name, e.Err)
}
func (e *PermissionDeniedError) Unwrap() error   { return e.Err }
func (e *PermissionDeniedError) Kind() ErrorKind { return PermissionDenied }

// PriorityOutOfRangeError means the requested priority or nice level is
// outside the daemon's limits. Name is empty when the check was local.
type PriorityOutOfRangeError struct {
	Method string
	Name   string
	Reason string
	Err    error
}

func (e *PriorityOutOfRangeError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("rtkit: %s: %s: %s", e.Method, PriorityOutOfRange, e.Reason)
	}
	return describe(e.Method, PriorityOutOfRange, e.Name, e.Err)
}
func (e *PriorityOutOfRangeError) Unwrap() error   { return e.Err }
func (e *PriorityOutOfRangeError) Kind() ErrorKind { return PriorityOutOfRange }

// RateLimitedError means the daemon refused because too many promotions
// were requested recently.
type RateLimitedError struct {
	Method string
	Name   string
	Err    error
}

func (e *RateLimitedError) Error() string {
	return describe(e.Method, RateLimited, e.Name, e.Err)
}
func (e *RateLimitedError) Unwrap() error   { return e.Err }
func (e *RateLimitedError) Kind() ErrorKind { return RateLimited }

// LimitNegotiationError means RLIMIT_RTTIME could not be set. The remote
// call was not attempted.
type LimitNegotiationError struct {
	Ceiling       CPUTimeCeiling
	RTTimeUSecMax int64
	Reason        string
	Err           error
}

func (e *LimitNegotiationError) Error() string {
	msg := fmt.Sprintf("rtkit: %s: RLIMIT_RTTIME %s (max %dus)", LimitNegotiationFailed, e.Ceiling, e.RTTimeUSecMax)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}
func (e *LimitNegotiationError) Unwrap() error   { return e.Err }
func (e *LimitNegotiationError) Kind() ErrorKind { return LimitNegotiationFailed }

// UnknownError carries a daemon error name that has no mapping.
type UnknownError struct {
	Method string
	Name   string
	Err    error
}

func (e *UnknownError) Error() string {
	return describe(e.Method, Unknown, e.Name, e.Err)
}
func (e *UnknownError) Unwrap() error   { return e.Err }
func (e *UnknownError) Kind() ErrorKind { return Unknown }

type kinded interface {
	Kind() ErrorKind
}

// KindOf returns the kind of a Client error. ok is false for nil and for
// errors that did not come from a Client.
func KindOf(err error) (kind ErrorKind, ok bool) {
	var k kinded
	if errors.As(err, &k) {
		return k.Kind(), true
	}
	return Unknown, false
}

func describe(method string, kind ErrorKind, name string, err error) string {
	msg := fmt.Sprintf("rtkit: %s: %s", method, kind)
	if name != "" {
		msg += " (" + name + ")"
	}
	if err != nil && err.Error() != name {
		msg += ": " + err.Error()
	}
	return msg
}

// translate maps a failure of method into the error taxonomy.
func translate(method string, err error) error {
	if err == nil {
		return nil
	}
	var k kinded
	if errors.As(err, &k) {
		return err
	}

	name, ok := idbus.ErrorName(err)
	if !ok {
		// transport failures, timeouts and undecodable replies
		return &RemoteUnavailableError{Method: method, Err: err}
	}

	kind, mapped := remoteErrorKinds[name]
	if !mapped {
		return &UnknownError{Method: method, Name: name, Err: err}
	}
	switch kind {
	case RemoteUnavailable:
		return &RemoteUnavailableError{Method: method, Name: name, Err: err}
	case PermissionDenied:
		return &PermissionDeniedError{Method: method, Name: name, Err: err}
	case PriorityOutOfRange:
		return &PriorityOutOfRangeError{Method: method, Name: name, Err: err}
	case RateLimited:
		return &RateLimitedError{Method: method, Name: name, Err: err}
	default:
		return &UnknownError{Method: method, Name: name, Err: err}
	}
}
