//go:build !linux

package platform

import (
	"fmt"
	"io"
)

// MmapCodeSegment is unavailable outside Linux in this build; callers should
// check CompilerSupported before reaching for it.
func MmapCodeSegment(r io.Reader, length int) ([]byte, error) {
	if length == 0 {
		panic("BUG: MmapCodeSegment with zero length")
	}
	return nil, fmt.Errorf("platform: executable code mapping is not supported on this OS")
}

// MunmapCodeSegment is unavailable outside Linux in this build.
func MunmapCodeSegment(code []byte) error {
	if len(code) == 0 {
		panic("BUG: MunmapCodeSegment with zero length")
	}
	return fmt.Errorf("platform: executable code mapping is not supported on this OS")
}
