//go:build !linux

package threadbind

import (
	"bytes"
	"runtime"
	"strconv"
)

// CurrentThreadID falls back to the calling goroutine's id on platforms
// without a cheap unix.Gettid() equivalent wired in. Combined with
// runtime.LockOSThread, a goroutine id is 1:1 with an OS thread for the
// lifetime of the binding.
func CurrentThreadID() uint64 {
	var buf [64]byte
	n := runtime.Stack(buf[:], false)
	// Stack traces start with "goroutine <id> [running]:".
	fields := bytes.Fields(buf[:n])
	if len(fields) < 2 {
		return 0
	}
	id, err := strconv.ParseUint(string(fields[1]), 10, 64)
	if err != nil {
		return 0
	}
	return id
}
