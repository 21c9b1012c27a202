package rtkit

import (
	"context"
	"errors"
	"fmt"
	"os"
	"runtime"

	"github.com/godbus/dbus/v5"

	"github.com/b0bbywan/go-rtkit/config"
	idbus "github.com/b0bbywan/go-rtkit/internal/dbus"
	"github.com/b0bbywan/go-rtkit/logger"
)

// New creates a client on an open system bus connection. The caller keeps
// ownership of conn. A nil cfg selects the defaults.
func New(conn *dbus.Conn, cfg *config.RTKitConfig) (*Client, error) {
	if conn == nil {
		return nil, errors.New("rtkit: nil bus connection")
	}
	client := newClient(
		idbus.GetObject(conn, RTKIT_SERVICE, RTKIT_PATH),
		conn.BusObject(),
		SystemLimiter{},
		cfg,
	)
	client.conn = conn
	return client, nil
}

// Connect opens the system bus and returns a client owning that connection,
// after checking the daemon is running or can be activated.
func Connect(ctx context.Context, cfg *config.RTKitConfig) (*Client, error) {
	// The connection outlives ctx, which only bounds the availability check.
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, &RemoteUnavailableError{Method: "ConnectSystemBus", Err: err}
	}

	client, err := New(conn, cfg)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	client.owned = true

	available, err := client.Available(ctx)
	if err != nil {
		client.Close()
		return nil, err
	}
	if !available {
		client.Close()
		return nil, &RemoteUnavailableError{
			Method: "Connect",
			Name:   idbus.ERR_SERVICE_UNKNOWN,
			Err:    fmt.Errorf("%s is neither running nor activatable", RTKIT_SERVICE),
		}
	}

	logger.Debug("[rtkit] connected to %s", RTKIT_SERVICE)
	return client, nil
}

func newClient(obj, bus dbus.BusObject, limiter Limiter, cfg *config.RTKitConfig) *Client {
	if cfg == nil {
		cfg = config.DefaultRTKit()
	}
	return &Client{
		obj:     obj,
		bus:     bus,
		limiter: limiter,
		timeout: cfg.Timeout,
		ceiling: cfg.RTTimeUSec,
	}
}

// Close closes the bus connection if the client opened it.
func (c *Client) Close() {
	if c.owned && c.conn != nil {
		if err := c.conn.Close(); err != nil {
			logger.Error("[rtkit] Failed to close D-Bus connection: %v", err)
		}
		c.conn = nil
	}
}

// Available reports whether the daemon owns its name on the bus or can be
// started by the bus on first use.
func (c *Client) Available(ctx context.Context) (bool, error) {
	names, err := c.listNames(ctx, false)
	if err != nil {
		return false, err
	}
	if idbus.HasName(names, RTKIT_SERVICE) {
		return true, nil
	}
	activatable, err := c.listNames(ctx, true)
	if err != nil {
		return false, err
	}
	return idbus.HasName(activatable, RTKIT_SERVICE), nil
}

// MakeThreadRealtime asks the daemon to give thread tid of process pid the
// realtime priority. A pid of 0 designates the caller's own process.
//
// RLIMIT_RTTIME is set on the calling thread first; if that fails the daemon
// is not contacted. Priorities above the daemon's MaxRealtimePriority are
// rejected locally.
func (c *Client) MakeThreadRealtime(ctx context.Context, pid, tid uint64, priority uint32) error {
	// The limit and the request must come from the same OS thread.
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	name, args := METHOD_MAKE_THREAD_REALTIME, []interface{}{tid, priority}
	if pid != 0 {
		name, args = METHOD_MAKE_THREAD_REALTIME_WITH_PID, []interface{}{pid, tid, priority}
	}

	limits, err := c.PolicyLimits(ctx)
	if err != nil {
		return err
	}
	if err := checkRealtimePriority(name, priority, limits); err != nil {
		logger.Warn("[rtkit] refusing realtime request for thread %d: %v", tid, err)
		return err
	}

	ceiling, err := c.negotiate(limits)
	if err != nil {
		logger.Warn("[rtkit] not requesting realtime for thread %d: %v", tid, err)
		return err
	}
	logger.Debug("[rtkit] RLIMIT_RTTIME set to %s, requesting realtime priority %d for %d/%d", ceiling, priority, pid, tid)

	return c.callMethod(ctx, name, args...)
}

// MakeThreadHighPriority asks the daemon to set the nice level of thread tid
// of process pid. A pid of 0 designates the caller's own process.
//
// Nice levels below the daemon's MinNiceLevel are rejected locally.
func (c *Client) MakeThreadHighPriority(ctx context.Context, pid, tid uint64, niceLevel int32) error {
	name, args := METHOD_MAKE_THREAD_HIGH_PRIORITY, []interface{}{tid, niceLevel}
	if pid != 0 {
		name, args = METHOD_MAKE_THREAD_HIGH_PRIORITY_WITH_PID, []interface{}{pid, tid, niceLevel}
	}

	minNice, err := c.MinNiceLevel(ctx)
	if err != nil {
		return err
	}
	if err := checkNiceLevel(name, niceLevel, minNice); err != nil {
		logger.Warn("[rtkit] refusing high priority request for thread %d: %v", tid, err)
		return err
	}
	logger.Debug("[rtkit] requesting nice level %d for %d/%d", niceLevel, pid, tid)
	return c.callMethod(ctx, name, args...)
}

// ResetKnown asks the daemon to reset every thread it promoted for this client.
func (c *Client) ResetKnown(ctx context.Context) error {
	return c.callMethod(ctx, METHOD_RESET_KNOWN)
}

// ResetAll asks the daemon to reset every thread it promoted for any client.
// The daemon only accepts it from privileged callers.
func (c *Client) ResetAll(ctx context.Context) error {
	return c.callMethod(ctx, METHOD_RESET_ALL)
}

// Apply performs req for thread tid of process pid.
func (c *Client) Apply(ctx context.Context, pid, tid uint64, req Request) error {
	switch req.Kind {
	case Realtime:
		return c.MakeThreadRealtime(ctx, pid, tid, req.Priority)
	case HighPriority:
		return c.MakeThreadHighPriority(ctx, pid, tid, req.NiceLevel)
	default:
		return fmt.Errorf("rtkit: unsupported request kind %s", req.Kind)
	}
}

// CurrentProcessID returns the id of the calling process.
func CurrentProcessID() uint64 {
	return uint64(os.Getpid())
}

func checkRealtimePriority(name string, priority uint32, limits PolicyLimits) error {
	if priority == 0 {
		return &PriorityOutOfRangeError{Method: name, Reason: "realtime priority must be positive"}
	}
	if limits.MaxRealtimePriority < 0 || int64(priority) > int64(limits.MaxRealtimePriority) {
		return &PriorityOutOfRangeError{
			Method: name,
			Reason: fmt.Sprintf("priority %d above MaxRealtimePriority %d", priority, limits.MaxRealtimePriority),
		}
	}
	return nil
}

func checkNiceLevel(name string, niceLevel, minNice int32) error {
	if niceLevel < minNice {
		return &PriorityOutOfRangeError{
			Method: name,
			Reason: fmt.Sprintf("nice level %d below MinNiceLevel %d", niceLevel, minNice),
		}
	}
	return nil
}
