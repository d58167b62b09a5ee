//go:build linux

package platform

import (
	"bytes"
	"runtime"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMmapCodeSegmentRoundTrip(t *testing.T) {
	code := []byte{0xB8, 0x2A, 0x00, 0x00, 0x00, 0xC3} // mov eax, 42; ret
	mem, err := MmapCodeSegment(bytes.NewReader(code), len(code))
	require.NoError(t, err)
	require.Equal(t, code, mem[:len(code)])
	require.NoError(t, MunmapCodeSegment(mem))
}

func TestMmapCodeSegmentZeroLengthPanics(t *testing.T) {
	require.Panics(t, func() {
		_, _ = MmapCodeSegment(bytes.NewReader(nil), 0)
	})
}

func TestMunmapCodeSegmentZeroLengthPanics(t *testing.T) {
	require.Panics(t, func() {
		_ = MunmapCodeSegment(nil)
	})
}

func TestMunmapCodeSegmentTwiceErrors(t *testing.T) {
	code := []byte{0xC3}
	mem, err := MmapCodeSegment(bytes.NewReader(code), len(code))
	require.NoError(t, err)
	require.NoError(t, MunmapCodeSegment(mem))
	require.Error(t, MunmapCodeSegment(mem))
}

func TestCompilerSupported(t *testing.T) {
	require.Equal(t, runtime.GOARCH == "amd64", CompilerSupported())
}
