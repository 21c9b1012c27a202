package rtkit

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/godbus/dbus/v5"

	idbus "github.com/b0bbywan/go-rtkit/internal/dbus"
)

func TestTranslate(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantKind ErrorKind
		wantName string
	}{
		{"service unknown", dbus.Error{Name: idbus.ERR_SERVICE_UNKNOWN}, RemoteUnavailable, idbus.ERR_SERVICE_UNKNOWN},
		{"no reply", dbus.Error{Name: idbus.ERR_NO_REPLY}, RemoteUnavailable, idbus.ERR_NO_REPLY},
		{"disconnected", &dbus.Error{Name: idbus.ERR_DISCONNECTED}, RemoteUnavailable, idbus.ERR_DISCONNECTED},
		{"access denied", dbus.Error{Name: idbus.ERR_ACCESS_DENIED}, PermissionDenied, idbus.ERR_ACCESS_DENIED},
		{"auth failed", dbus.Error{Name: idbus.ERR_AUTH_FAILED}, PermissionDenied, idbus.ERR_AUTH_FAILED},
		{"polkit", dbus.Error{Name: idbus.POLKIT_ERR_NOT_AUTHORIZED}, PermissionDenied, idbus.POLKIT_ERR_NOT_AUTHORIZED},
		{"invalid args", dbus.Error{Name: idbus.ERR_INVALID_ARGS}, PriorityOutOfRange, idbus.ERR_INVALID_ARGS},
		{"limits exceeded", dbus.Error{Name: idbus.ERR_LIMITS_EXCEEDED}, RateLimited, idbus.ERR_LIMITS_EXCEEDED},
		{"generic failure", dbus.Error{Name: idbus.ERR_FAILED}, Unknown, idbus.ERR_FAILED},
		{"daemon specific", dbus.Error{Name: "org.freedesktop.RealtimeKit1.Error.Busy"}, Unknown, "org.freedesktop.RealtimeKit1.Error.Busy"},
		{"wrapped name", fmt.Errorf("call: %w", dbus.Error{Name: idbus.ERR_ACCESS_DENIED}), PermissionDenied, idbus.ERR_ACCESS_DENIED},
		{"transport", errors.New("write: broken pipe"), RemoteUnavailable, ""},
		{"timeout", &idbus.TimeoutError{}, RemoteUnavailable, ""},
		{"canceled", context.Canceled, RemoteUnavailable, ""},
		{"bad reply", &idbus.ReplyError{Method: "Get", Reason: "x"}, RemoteUnavailable, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := translate("ResetKnown", tt.err)
			kind, ok := KindOf(err)
			if !ok || kind != tt.wantKind {
				t.Fatalf("KindOf(translate(%v)) = (%v, %v), want %v", tt.err, kind, ok, tt.wantKind)
			}
			if name := remoteName(err); name != tt.wantName {
				t.Errorf("remote name = %q, want %q", name, tt.wantName)
			}
			if tt.wantName != "" {
				if name, _ := idbus.ErrorName(err); name != tt.wantName {
					t.Errorf("translated error should wrap the D-Bus error %s, got %q", tt.wantName, name)
				}
			} else if !errors.Is(err, tt.err) {
				t.Errorf("translated error should wrap the original")
			}
		})
	}
}

// remoteName digs the remote error name out of any taxonomy error.
func remoteName(err error) string {
	var (
		unavailable *RemoteUnavailableError
		denied      *PermissionDeniedError
		outOfRange  *PriorityOutOfRangeError
		limited     *RateLimitedError
		unknown     *UnknownError
	)
	switch {
	case errors.As(err, &unavailable):
		return unavailable.Name
	case errors.As(err, &denied):
		return denied.Name
	case errors.As(err, &outOfRange):
		return outOfRange.Name
	case errors.As(err, &limited):
		return limited.Name
	case errors.As(err, &unknown):
		return unknown.Name
	}
	return ""
}

func TestTranslateNil(t *testing.T) {
	if err := translate("ResetAll", nil); err != nil {
		t.Errorf("translate(nil) = %v, want nil", err)
	}
}

func TestTranslateKeepsTaxonomyErrors(t *testing.T) {
	orig := &LimitNegotiationError{Reason: "x"}
	if got := translate("MakeThreadRealtime", orig); got != orig {
		t.Errorf("translate() should return taxonomy errors unchanged, got %v", got)
	}
}

func TestUnknownKeepsName(t *testing.T) {
	const name = "com.example.Daemon.Error.Unmapped"
	err := translate(METHOD_MAKE_THREAD_HIGH_PRIORITY, dbus.Error{Name: name, Body: []interface{}{"nope"}})

	var unknown *UnknownError
	if !errors.As(err, &unknown) {
		t.Fatalf("translate() = %T, want *UnknownError", err)
	}
	if unknown.Name != name {
		t.Errorf("Name = %q, want %q", unknown.Name, name)
	}
	var unavailable *RemoteUnavailableError
	if errors.As(err, &unavailable) {
		t.Error("an unmapped name must not collapse into RemoteUnavailable")
	}
}

func TestKindOf(t *testing.T) {
	if _, ok := KindOf(nil); ok {
		t.Error("KindOf(nil) should not be ok")
	}
	if _, ok := KindOf(errors.New("plain")); ok {
		t.Error("KindOf(plain error) should not be ok")
	}
	wrapped := fmt.Errorf("promote: %w", &RateLimitedError{Method: "x"})
	if kind, ok := KindOf(wrapped); !ok || kind != RateLimited {
		t.Errorf("KindOf(wrapped) = (%v, %v), want RateLimited", kind, ok)
	}
}

func TestErrorMessages(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{
			"permission denied with body",
			&PermissionDeniedError{Method: "ResetAll", Name: idbus.ERR_ACCESS_DENIED, Err: dbus.Error{Name: idbus.ERR_ACCESS_DENIED, Body: []interface{}{"not privileged"}}},
			"rtkit: ResetAll: permission denied (org.freedesktop.DBus.Error.AccessDenied): not privileged",
		},
		{
			"name only",
			&UnknownError{Method: "ResetKnown", Name: "a.b.C", Err: dbus.Error{Name: "a.b.C"}},
			"rtkit: ResetKnown: unknown (a.b.C)",
		},
		{
			"local range check",
			&PriorityOutOfRangeError{Method: "MakeThreadRealtime", Reason: "priority 21 above MaxRealtimePriority 20"},
			"rtkit: MakeThreadRealtime: priority out of range: priority 21 above MaxRealtimePriority 20",
		},
		{
			"transport",
			&RemoteUnavailableError{Method: "ListNames", Err: errors.New("EOF")},
			"rtkit: ListNames: remote unavailable: EOF",
		},
		{
			"limit negotiation",
			&LimitNegotiationError{Ceiling: CPUTimeCeiling{Soft: 5, Hard: 5}, RTTimeUSecMax: 10, Err: errors.New("EPERM")},
			"rtkit: limit negotiation failed: RLIMIT_RTTIME soft=5us hard=5us (max 10us): EPERM",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() =\n%q\nwant\n%q", got, tt.want)
			}
		})
	}
}

func TestErrorKindString(t *testing.T) {
	if RateLimited.String() != "rate limited" {
		t.Errorf("RateLimited.String() = %q", RateLimited.String())
	}
	if ErrorKind(99).String() != "ErrorKind(99)" {
		t.Errorf("ErrorKind(99).String() = %q", ErrorKind(99).String())
	}
}
