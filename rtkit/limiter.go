package rtkit

import (
	"fmt"

	"github.com/b0bbywan/go-rtkit/logger"
)

// Limiter reads and writes the RLIMIT_RTTIME ceiling of the calling thread.
// RealtimeKit refuses realtime scheduling to callers without one.
type Limiter interface {
	SetCPUTimeCeiling(CPUTimeCeiling) error
	CPUTimeCeiling() (CPUTimeCeiling, error)
}

// SystemLimiter applies the ceiling through setrlimit(2). On Linux the
// kernel keeps RLIMIT_RTTIME per process, so every thread of the caller
// sees the new value.
type SystemLimiter struct{}

// negotiate sets RLIMIT_RTTIME to the configured override, or to the
// daemon's RTTimeUSecMax, before a realtime request.
func (c *Client) negotiate(limits PolicyLimits) (CPUTimeCeiling, error) {
	usecMax := limits.RTTimeUSecMax
	if usecMax <= 0 {
		return CPUTimeCeiling{}, &LimitNegotiationError{
			RTTimeUSecMax: usecMax,
			Reason:        "daemon reports no usable RTTimeUSecMax",
		}
	}

	target := uint64(usecMax)
	if c.ceiling != 0 {
		if c.ceiling > uint64(usecMax) {
			return CPUTimeCeiling{}, &LimitNegotiationError{
				Ceiling:       CPUTimeCeiling{Soft: c.ceiling, Hard: c.ceiling},
				RTTimeUSecMax: usecMax,
				Reason:        fmt.Sprintf("configured ceiling %dus exceeds RTTimeUSecMax", c.ceiling),
			}
		}
		target = c.ceiling
	}

	ceiling := CPUTimeCeiling{Soft: target, Hard: target}
	if c.limiter == nil {
		return ceiling, &LimitNegotiationError{Ceiling: ceiling, RTTimeUSecMax: usecMax, Reason: "no limiter"}
	}
	if previous, err := c.limiter.CPUTimeCeiling(); err == nil {
		logger.Debug("[rtkit] replacing RLIMIT_RTTIME %s with %s", previous, ceiling)
	} else {
		logger.Debug("[rtkit] current RLIMIT_RTTIME unknown: %v", err)
	}
	if err := c.limiter.SetCPUTimeCeiling(ceiling); err != nil {
		return ceiling, &LimitNegotiationError{Ceiling: ceiling, RTTimeUSecMax: usecMax, Err: err}
	}
	return ceiling, nil
}
