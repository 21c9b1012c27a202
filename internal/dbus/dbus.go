package dbus

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/godbus/dbus/v5"
)

// DefaultTimeout is the timeout used for D-Bus calls whose context has no deadline.
var DefaultTimeout = 5 * time.Second

// WithTimeout returns ctx bounded by timeout, unless ctx already has a deadline.
// A non-positive timeout means DefaultTimeout.
func WithTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return context.WithCancel(ctx)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

// Call executes a D-Bus method call bounded by ctx. A context deadline is
// reported as a *TimeoutError.
func Call(ctx context.Context, obj dbus.BusObject, method string, args ...interface{}) (*dbus.Call, error) {
	call := obj.CallWithContext(ctx, method, 0, args...)
	if call.Err != nil {
		if errors.Is(call.Err, context.DeadlineExceeded) {
			return nil, &TimeoutError{Method: method}
		}
		return nil, call.Err
	}
	return call, nil
}

// CallMethod calls a method that returns nothing of interest.
func CallMethod(ctx context.Context, obj dbus.BusObject, method string, args ...interface{}) error {
	_, err := Call(ctx, obj, method, args...)
	return err
}

// GetProperty retrieves a single property from a D-Bus object.
func GetProperty(ctx context.Context, obj dbus.BusObject, iface, prop string) (dbus.Variant, error) {
	var v dbus.Variant
	call, err := Call(ctx, obj, PROP_GET, iface, prop)
	if err != nil {
		return dbus.Variant{}, err
	}
	if err := call.Store(&v); err != nil {
		return dbus.Variant{}, &ReplyError{Method: PROP_GET + " " + prop, Reason: err.Error()}
	}
	return v, nil
}

// GetInt64Property retrieves an integer property of any width as an int64.
func GetInt64Property(ctx context.Context, obj dbus.BusObject, iface, prop string) (int64, error) {
	v, err := GetProperty(ctx, obj, iface, prop)
	if err != nil {
		return 0, err
	}
	n, ok := ExtractInt64(v)
	if !ok {
		return 0, &ReplyError{
			Method: PROP_GET + " " + prop,
			Reason: fmt.Sprintf("expected integer, got signature %q", v.Signature().String()),
		}
	}
	return n, nil
}

// GetObject returns a D-Bus object for the given service and object path.
func GetObject(conn *dbus.Conn, service, path string) dbus.BusObject {
	return conn.Object(service, dbus.ObjectPath(path))
}

// ListNames returns the names currently owned on the bus. obj is the bus
// driver object, usually conn.BusObject().
func ListNames(ctx context.Context, obj dbus.BusObject) ([]string, error) {
	return listNames(ctx, obj, BUS_LIST_NAMES)
}

// ListActivatableNames returns the names the bus can start on demand.
func ListActivatableNames(ctx context.Context, obj dbus.BusObject) ([]string, error) {
	return listNames(ctx, obj, BUS_LIST_ACTIVATABLE_NAMES)
}

func listNames(ctx context.Context, obj dbus.BusObject, method string) ([]string, error) {
	var names []string
	call, err := Call(ctx, obj, method)
	if err != nil {
		return nil, err
	}
	if err := call.Store(&names); err != nil {
		return nil, &ReplyError{Method: method, Reason: err.Error()}
	}
	return names, nil
}

// HasName reports whether name is in names.
func HasName(names []string, name string) bool {
	return slices.Contains(names, name)
}

// ErrorName returns the D-Bus error name carried by err, if any.
func ErrorName(err error) (string, bool) {
	var dErr dbus.Error
	if errors.As(err, &dErr) {
		return dErr.Name, true
	}
	var dErrPtr *dbus.Error
	if errors.As(err, &dErrPtr) && dErrPtr != nil {
		return dErrPtr.Name, true
	}
	return "", false
}

// --- Variant extraction helpers ---

// ExtractInt64 extracts any integer from a dbus.Variant as an int64.
// Unsigned values above math.MaxInt64 are rejected.
func ExtractInt64(v dbus.Variant) (int64, bool) {
	switch val := v.Value().(type) {
	case int64:
		return val, true
	case int32:
		return int64(val), true
	case int16:
		return int64(val), true
	case byte:
		return int64(val), true
	case uint16:
		return int64(val), true
	case uint32:
		return int64(val), true
	case uint64:
		if val > 1<<63-1 {
			return 0, false
		}
		return int64(val), true
	default:
		return 0, false
	}
}
