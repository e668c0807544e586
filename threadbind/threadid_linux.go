//go:build linux

package threadbind

import "golang.org/x/sys/unix"

// CurrentThreadID returns the kernel thread id of the calling OS thread.
// Callers that need a stable value across the lifetime of a scoped
// measurement should runtime.LockOSThread first, since Go otherwise may
// migrate a goroutine across OS threads between calls.
func CurrentThreadID() uint64 {
	return uint64(unix.Gettid())
}
