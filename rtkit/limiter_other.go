//go:build !linux

package rtkit

import (
	"errors"
	"fmt"
)

func (SystemLimiter) SetCPUTimeCeiling(CPUTimeCeiling) error {
	return fmt.Errorf("setrlimit RTTIME: %w", errors.ErrUnsupported)
}

func (SystemLimiter) CPUTimeCeiling() (CPUTimeCeiling, error) {
	return CPUTimeCeiling{}, fmt.Errorf("getrlimit RTTIME: %w", errors.ErrUnsupported)
}
