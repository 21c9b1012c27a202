// Package dbustest provides an in-memory dbus.BusObject for tests.
package dbustest

import (
	"context"
	"sync"

	"github.com/godbus/dbus/v5"
)

const (
	propGet = "org.freedesktop.DBus.Properties.Get"

	errUnknownMethod   = "org.freedesktop.DBus.Error.UnknownMethod"
	errUnknownProperty = "org.freedesktop.DBus.Error.UnknownProperty"
)

// Record is one method call received by an Object.
type Record struct {
	Method string
	Args   []interface{}
}

// Object answers method calls and Properties.Get from static tables and
// records everything it receives. Property reads are recorded separately
// from method calls.
type Object struct {
	dbus.BusObject

	Dest       string
	ObjectPath dbus.ObjectPath

	// Properties maps a property name to its value.
	Properties map[string]dbus.Variant
	// PropertyErrors maps a property name to the error its read returns.
	PropertyErrors map[string]error
	// Replies maps a full method name to the reply body.
	Replies map[string][]interface{}
	// Errors maps a full method name to the error the call returns.
	Errors map[string]error
	// Hang makes every call block until its context is done.
	Hang bool
	// OnCall, if set, runs for every method call before the reply is built.
	OnCall func(method string, args []interface{})

	mu    sync.Mutex
	calls []Record
	reads []string
}

// NewObject returns an Object that knows every method in methods and
// answers them with an empty reply.
func NewObject(methods ...string) *Object {
	o := &Object{
		Properties:     map[string]dbus.Variant{},
		PropertyErrors: map[string]error{},
		Replies:        map[string][]interface{}{},
		Errors:         map[string]error{},
	}
	for _, m := range methods {
		o.Replies[m] = nil
	}
	return o
}

func (o *Object) Call(method string, flags dbus.Flags, args ...interface{}) *dbus.Call {
	return o.CallWithContext(context.Background(), method, flags, args...)
}

func (o *Object) CallWithContext(ctx context.Context, method string, _ dbus.Flags, args ...interface{}) *dbus.Call {
	call := &dbus.Call{Destination: o.Dest, Path: o.ObjectPath, Method: method, Args: args}

	if o.Hang {
		<-ctx.Done()
	}
	if err := ctx.Err(); err != nil {
		call.Err = err
		return call
	}

	if method == propGet {
		return o.getProperty(call, args)
	}

	o.mu.Lock()
	o.calls = append(o.calls, Record{Method: method, Args: args})
	hook := o.OnCall
	o.mu.Unlock()

	if hook != nil {
		hook(method, args)
	}

	if err, ok := o.Errors[method]; ok {
		call.Err = err
		return call
	}
	body, ok := o.Replies[method]
	if !ok {
		call.Err = dbus.Error{Name: errUnknownMethod, Body: []interface{}{method}}
		return call
	}
	call.Body = body
	return call
}

func (o *Object) getProperty(call *dbus.Call, args []interface{}) *dbus.Call {
	var prop string
	if len(args) == 2 {
		prop, _ = args[1].(string)
	}

	o.mu.Lock()
	o.reads = append(o.reads, prop)
	o.mu.Unlock()

	if err, ok := o.PropertyErrors[prop]; ok {
		call.Err = err
		return call
	}
	v, ok := o.Properties[prop]
	if !ok {
		call.Err = dbus.Error{Name: errUnknownProperty, Body: []interface{}{prop}}
		return call
	}
	call.Body = []interface{}{v}
	return call
}

func (o *Object) GetProperty(p string) (dbus.Variant, error) {
	v, ok := o.Properties[p]
	if !ok {
		return dbus.Variant{}, dbus.Error{Name: errUnknownProperty, Body: []interface{}{p}}
	}
	return v, nil
}

func (o *Object) Destination() string { return o.Dest }

func (o *Object) Path() dbus.ObjectPath { return o.ObjectPath }

// Calls returns the method calls received so far, property reads excluded.
func (o *Object) Calls() []Record {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Record(nil), o.calls...)
}

// CallCount returns how many times method was called.
func (o *Object) CallCount(method string) int {
	o.mu.Lock()
	defer o.mu.Unlock()
	n := 0
	for _, c := range o.calls {
		if c.Method == method {
			n++
		}
	}
	return n
}

// Reads returns the property names read so far.
func (o *Object) Reads() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]string(nil), o.reads...)
}

// NewError builds the error a remote service returns under name.
func NewError(name string, msg ...interface{}) error {
	return dbus.Error{Name: name, Body: msg}
}
