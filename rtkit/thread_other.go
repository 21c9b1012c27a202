//go:build !linux

package rtkit

// CurrentThreadID returns 0: thread ids are only exposed on Linux.
func CurrentThreadID() uint64 {
	return 0
}
