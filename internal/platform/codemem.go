// Package platform isolates the OS-specific memory management a finalized
// code buffer needs to become executable.
package platform

import "runtime"

// CompilerSupported reports whether this platform can map and run x86-64
// code: true only on Linux/amd64. Only Linux has an MmapCodeSegment backed
// by real mmap/mprotect calls (on any architecture); everywhere else
// MmapCodeSegment returns an error instead of panicking or segfaulting.
func CompilerSupported() bool {
	return runtime.GOOS == "linux" && runtime.GOARCH == "amd64"
}
