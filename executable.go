package x86asm

import (
	"bytes"
	"fmt"
	"unsafe"

	"github.com/codejit/x86asm/internal/platform"
)

// ExecutableBuffer is a finalized, page-mapped code buffer ready to be
// invoked through a function pointer obtained from EntryPoint. Callers are
// responsible for bridging the raw address into a callable Go value (e.g.
// via a small cgo shim or unsafe function-pointer cast); this package stops
// at handing back the mapped, executable bytes.
type ExecutableBuffer struct {
	mem []byte
	// labels is the Finalize label table unchanged; since the code is copied
	// to the start of mem, its offsets are byte offsets from &mem[0].
	labels map[int]int
}

// AssembleToExecutable finalizes the assembler's buffer and copies the
// result into a fresh read+execute mapping. The returned ExecutableBuffer
// must be released with Close once no longer needed.
func AssembleToExecutable(a *Assembler) (*ExecutableBuffer, error) {
	code, labels, err := a.Finalize()
	if err != nil {
		return nil, err
	}
	if len(code) == 0 {
		return nil, newErr(ErrUnsupportedInstruction, 0, "cannot map an empty code buffer")
	}
	mem, err := platform.MmapCodeSegment(bytes.NewReader(code), len(code))
	if err != nil {
		return nil, fmt.Errorf("mapping executable code: %w", err)
	}
	return &ExecutableBuffer{mem: mem, labels: labels}, nil
}

// CompilerSupported reports whether the current platform can both map and
// run the emitted x86-64 code: true only on Linux/amd64.
func CompilerSupported() bool { return platform.CompilerSupported() }

// EntryPoint returns the address of the mapped code as a uintptr. Combine
// with a bound label offset from LabelOffset to get the address of a
// specific entry point rather than the buffer's start.
func (e *ExecutableBuffer) EntryPoint() uintptr {
	if len(e.mem) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&e.mem[0]))
}

// LabelOffset returns the byte offset a bound label resolved to, and
// whether that label ID was present in the finalized table.
func (e *ExecutableBuffer) LabelOffset(id int) (int, bool) {
	off, ok := e.labels[id]
	return off, ok
}

// Len returns the size in bytes of the mapped region.
func (e *ExecutableBuffer) Len() int { return len(e.mem) }

// Close unmaps the executable region. The ExecutableBuffer must not be used
// afterward.
func (e *ExecutableBuffer) Close() error {
	if len(e.mem) == 0 {
		return nil
	}
	err := platform.MunmapCodeSegment(e.mem)
	e.mem = nil
	return err
}
