package rtkit

import (
	"fmt"
	"time"

	"github.com/godbus/dbus/v5"
)

// Client talks to the RealtimeKit daemon over an already open bus connection.
// It keeps no state between calls and is safe for concurrent use.
type Client struct {
	conn    *dbus.Conn
	obj     dbus.BusObject // RealtimeKit object
	bus     dbus.BusObject // bus driver, for name lookups
	limiter Limiter
	timeout time.Duration
	// ceiling overrides RTTimeUSecMax as the RLIMIT_RTTIME target when non-zero.
	ceiling uint64
	// owned is set when the client opened conn itself.
	owned bool
}

// PolicyLimits is a snapshot of the daemon's configured limits.
type PolicyLimits struct {
	MaxRealtimePriority int32 `json:"max_realtime_priority"`
	MinNiceLevel        int32 `json:"min_nice_level"`
	RTTimeUSecMax       int64 `json:"rttime_usec_max"`
}

// CPUTimeCeiling is an RLIMIT_RTTIME value, in microseconds.
type CPUTimeCeiling struct {
	Soft uint64
	Hard uint64
}

func (c CPUTimeCeiling) String() string {
	return fmt.Sprintf("soft=%dus hard=%dus", c.Soft, c.Hard)
}

type RequestKind int

const (
	Realtime RequestKind = iota + 1
	HighPriority
)

func (k RequestKind) String() string {
	switch k {
	case Realtime:
		return "realtime"
	case HighPriority:
		return "high"
	default:
		return fmt.Sprintf("RequestKind(%d)", int(k))
	}
}

// Request is a scheduling change asked of the daemon. Priority is used by
// Realtime requests, NiceLevel by HighPriority ones.
type Request struct {
	Kind      RequestKind
	Priority  uint32
	NiceLevel int32
}

func RealtimeRequest(priority uint32) Request {
	return Request{Kind: Realtime, Priority: priority}
}

func HighPriorityRequest(niceLevel int32) Request {
	return Request{Kind: HighPriority, NiceLevel: niceLevel}
}

func (r Request) String() string {
	switch r.Kind {
	case Realtime:
		return fmt.Sprintf("realtime priority %d", r.Priority)
	case HighPriority:
		return fmt.Sprintf("nice level %d", r.NiceLevel)
	default:
		return r.Kind.String()
	}
}
