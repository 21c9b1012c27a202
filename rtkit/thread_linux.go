//go:build linux

package rtkit

import "golang.org/x/sys/unix"

// CurrentThreadID returns the kernel id of the calling thread. The value is
// only meaningful while the goroutine is locked with runtime.LockOSThread.
func CurrentThreadID() uint64 {
	return uint64(unix.Gettid())
}
