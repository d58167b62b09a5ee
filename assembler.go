package x86asm

import "fmt"

// EmitOption configures optional encoder behavior via the functional
// options idiom.
type EmitOption func(*options)

type options struct {
	optimizeMovImm64 bool // take the MOV r32,imm32 zero-extension shortcut for MOV r64,imm64
	trace            func(offset int, text string)
}

// WithMovImm64Optimization controls whether `MOV r64, imm64` prefers the
// 5-byte `MOV r32, imm32` zero-extension form when the immediate fits an
// unsigned 32-bit value. Default: enabled.
func WithMovImm64Optimization(enabled bool) EmitOption {
	return func(o *options) { o.optimizeMovImm64 = enabled }
}

// WithTrace installs a callback invoked after every successfully encoded
// instruction with the buffer offset it started at and a short
// human-readable disassembly-like description, mirroring the debugging
// affordance of a disassembly listing.
func WithTrace(fn func(offset int, text string)) EmitOption {
	return func(o *options) { o.trace = fn }
}

type bufferState byte

const (
	stateOpen bufferState = iota
	stateFinalized
)

// Assembler is a single encoding session: it holds the only pointers to the
// CodeBuffer and LabelManager that NewAssembler creates for it, with no
// back-references and no shared ownership between the three. It is not safe for concurrent use;
// independent sessions on disjoint buffers on different goroutines do not
// interact and require no synchronization.
type Assembler struct {
	mode  Mode
	buf   *CodeBuffer
	lm    *LabelManager
	opts  options
	state bufferState
}

// NewAssembler constructs a fresh encoding session targeting the given
// mode (32- or 64-bit).
func NewAssembler(mode Mode, opts ...EmitOption) *Assembler {
	a := &Assembler{
		mode: mode,
		buf:  NewCodeBuffer(),
		lm:   NewLabelManager(),
		opts: options{optimizeMovImm64: true},
	}
	for _, o := range opts {
		o(&a.opts)
	}
	return a
}

// Mode returns the target environment this assembler was constructed for.
func (a *Assembler) Mode() Mode { return a.mode }

// Offset returns the current write position in the underlying buffer.
func (a *Assembler) Offset() int { return a.buf.Offset() }

// NewLabel issues a fresh, unbound label.
func (a *Assembler) NewLabel() *Label { return a.lm.NewLabel() }

// Bind marks l as bound at the assembler's current offset. Encoding after
// the buffer has been finalized, or rebinding a label, is an error.
func (a *Assembler) Bind(l *Label) error {
	if a.state == stateFinalized {
		return newErr(ErrUnsupportedInstruction, a.buf.Offset(), "cannot bind a label after finalize")
	}
	return a.lm.Bind(l, a.buf.Offset())
}

// checkOpen rejects further encoding once Finalize has run, enforcing the
// one-way Open -> Finalized buffer lifecycle.
func (a *Assembler) checkOpen() error {
	if a.state == stateFinalized {
		return newErr(ErrUnsupportedInstruction, a.buf.Offset(), "buffer already finalized")
	}
	return nil
}

func (a *Assembler) trace(start int, format string, args ...any) {
	if a.opts.trace != nil {
		a.opts.trace(start, fmt.Sprintf(format, args...))
	}
}

// Finalize runs the fixup pass: every pending label reference is patched
// with its now-known displacement, and the buffer transitions
// Open -> Finalized so further encoding is rejected. It returns the
// immutable byte slice together with the bound-label offset table.
func (a *Assembler) Finalize() ([]byte, map[int]int, error) {
	if a.state == stateFinalized {
		return nil, nil, newErr(ErrUnsupportedInstruction, a.buf.Offset(), "Finalize called twice")
	}
	if err := a.lm.ResolveAll(a.buf); err != nil {
		return nil, nil, err
	}
	a.state = stateFinalized
	return a.buf.Bytes(), a.lm.ExportedLabels(), nil
}

// Bytes returns the buffer's contents as encoded so far, without running
// the fixup pass. Useful for inspecting in-progress output; label
// references are still unpatched placeholders, so prefer Finalize for the
// final result.
func (a *Assembler) Bytes() []byte { return a.buf.Bytes() }
