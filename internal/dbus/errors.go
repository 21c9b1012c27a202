package dbus

import "fmt"

// TimeoutError is returned when a D-Bus call exceeds its deadline.
type TimeoutError struct {
	Method string
}

func (e *TimeoutError) Error() string {
	if e.Method == "" {
		return "dbus: call timed out"
	}
	return fmt.Sprintf("dbus: call %s timed out", e.Method)
}

// ReplyError is returned when a reply cannot be decoded into the expected type.
type ReplyError struct {
	Method string
	Reason string
}

func (e *ReplyError) Error() string {
	return fmt.Sprintf("dbus: malformed reply to %s: %s", e.Method, e.Reason)
}
