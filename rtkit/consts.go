package rtkit

const (
	// RealtimeKit D-Bus constants
	RTKIT_SERVICE   = "org.freedesktop.RealtimeKit1"
	RTKIT_PATH      = "/org/freedesktop/RealtimeKit1"
	RTKIT_INTERFACE = "org.freedesktop.RealtimeKit1"

	// RealtimeKit methods, relative to RTKIT_INTERFACE
	METHOD_MAKE_THREAD_REALTIME               = "MakeThreadRealtime"
	METHOD_MAKE_THREAD_REALTIME_WITH_PID      = "MakeThreadRealtimeWithPID"
	METHOD_MAKE_THREAD_HIGH_PRIORITY          = "MakeThreadHighPriority"
	METHOD_MAKE_THREAD_HIGH_PRIORITY_WITH_PID = "MakeThreadHighPriorityWithPID"
	METHOD_RESET_KNOWN                        = "ResetKnown"
	METHOD_RESET_ALL                          = "ResetAll"

	// RealtimeKit properties
	PROP_RTTIME_USEC_MAX       = "RTTimeUSecMax"
	PROP_MAX_REALTIME_PRIORITY = "MaxRealtimePriority"
	PROP_MIN_NICE_LEVEL        = "MinNiceLevel"
)

// method returns the fully qualified name of a RealtimeKit method.
func method(name string) string {
	return RTKIT_INTERFACE + "." + name
}
