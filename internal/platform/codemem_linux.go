//go:build linux

package platform

import (
	"fmt"
	"io"

	"golang.org/x/sys/unix"
)

// MmapCodeSegment copies length bytes from r into a fresh anonymous mapping
// and marks it executable. The returned slice must be released with
// MunmapCodeSegment once the caller is done running code out of it.
func MmapCodeSegment(r io.Reader, length int) ([]byte, error) {
	if length == 0 {
		panic("BUG: MmapCodeSegment with zero length")
	}
	mem, err := unix.Mmap(-1, 0, length, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_ANON|unix.MAP_PRIVATE)
	if err != nil {
		return nil, fmt.Errorf("mmap: %w", err)
	}
	if _, err := io.ReadFull(r, mem); err != nil {
		_ = unix.Munmap(mem)
		return nil, fmt.Errorf("copying code into mapping: %w", err)
	}
	if err := unix.Mprotect(mem, unix.PROT_READ|unix.PROT_EXEC); err != nil {
		_ = unix.Munmap(mem)
		return nil, fmt.Errorf("mprotect: %w", err)
	}
	return mem, nil
}

// MunmapCodeSegment releases a mapping obtained from MmapCodeSegment.
func MunmapCodeSegment(code []byte) error {
	if len(code) == 0 {
		panic("BUG: MunmapCodeSegment with zero length")
	}
	return unix.Munmap(code)
}
