//go:build linux

package rtkit

import (
	"fmt"

	"golang.org/x/sys/unix"
)

func (SystemLimiter) SetCPUTimeCeiling(c CPUTimeCeiling) error {
	if c.Soft == 0 || c.Hard == 0 {
		return fmt.Errorf("setrlimit RTTIME: zero ceiling")
	}
	lim := &unix.Rlimit{Cur: c.Soft, Max: c.Hard}
	if err := unix.Setrlimit(unix.RLIMIT_RTTIME, lim); err != nil {
		return fmt.Errorf("setrlimit RTTIME: %w", err)
	}
	return nil
}

func (SystemLimiter) CPUTimeCeiling() (CPUTimeCeiling, error) {
	var lim unix.Rlimit
	if err := unix.Getrlimit(unix.RLIMIT_RTTIME, &lim); err != nil {
		return CPUTimeCeiling{}, fmt.Errorf("getrlimit RTTIME: %w", err)
	}
	return CPUTimeCeiling{Soft: lim.Cur, Hard: lim.Max}, nil
}
