package x86asm

import (
	"errors"
	"fmt"
)

// ErrorKind identifies one of the taxonomy of encoding failures the
// assembler can report. The kind, not the Go type, is what callers should
// branch on via errors.Is.
type ErrorKind byte

const (
	// ErrInvalidOperandKind: an operand's kind is not among those the opcode accepts.
	ErrInvalidOperandKind ErrorKind = iota + 1
	// ErrOperandSizeMismatch: binary instruction received operands of incompatible widths.
	ErrOperandSizeMismatch
	// ErrMissingOperandSize: memory operand has no explicit size where one is required.
	ErrMissingOperandSize
	// ErrImmediateOutOfRange: immediate does not fit the width the selected encoding requires.
	ErrImmediateOutOfRange
	// ErrHighByteWithRex: one of AH/CH/DH/BH appears in an instruction that forces REX.
	ErrHighByteWithRex
	// ErrInvalidScale: scale not in {1,2,4,8}.
	ErrInvalidScale
	// ErrInvalidMemoryForm: e.g. RSP as index, or label combined with base/index.
	ErrInvalidMemoryForm
	// ErrLabelRebind: bind on an already-bound label.
	ErrLabelRebind
	// ErrLabelUnbound: finalize found a fixup whose target was never bound.
	ErrLabelUnbound
	// ErrDisplacementOverflow: resolved value does not fit the fixup width.
	ErrDisplacementOverflow
	// ErrUnsupportedInstruction: recognized mnemonic, but no encoder exists for that operand combination.
	ErrUnsupportedInstruction
)

func (k ErrorKind) String() string {
	switch k {
	case ErrInvalidOperandKind:
		return "InvalidOperandKind"
	case ErrOperandSizeMismatch:
		return "OperandSizeMismatch"
	case ErrMissingOperandSize:
		return "MissingOperandSize"
	case ErrImmediateOutOfRange:
		return "ImmediateOutOfRange"
	case ErrHighByteWithRex:
		return "HighByteWithRex"
	case ErrInvalidScale:
		return "InvalidScale"
	case ErrInvalidMemoryForm:
		return "InvalidMemoryForm"
	case ErrLabelRebind:
		return "LabelRebind"
	case ErrLabelUnbound:
		return "LabelUnbound"
	case ErrDisplacementOverflow:
		return "DisplacementOverflow"
	case ErrUnsupportedInstruction:
		return "UnsupportedInstruction"
	default:
		return "Unknown"
	}
}

// EncodingError is the error type of the encoder entries and of Finalize;
// a general-purpose operand width other than 8/16/32/64 is instead reported
// as a plain error. Offset is the buffer offset at which encoding failed:
// the instruction's start for errors raised before any byte of it is
// written, a later position inside the instruction for errors raised after
// its prefix or opcode bytes, and the fixup site for errors raised during
// finalization.
type EncodingError struct {
	Kind   ErrorKind
	Offset int
	Detail string
}

func (e *EncodingError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("x86asm: %s at offset 0x%x", e.Kind, e.Offset)
	}
	return fmt.Sprintf("x86asm: %s at offset 0x%x: %s", e.Kind, e.Offset, e.Detail)
}

// Is implements the errors.Is protocol against the sentinel kind values
// below, e.g. errors.Is(err, x86asm.SentinelImmediateOutOfRange).
func (e *EncodingError) Is(target error) bool {
	var kindErr *kindSentinel
	if errors.As(target, &kindErr) {
		return e.Kind == kindErr.kind
	}
	return false
}

type kindSentinel struct{ kind ErrorKind }

func (s *kindSentinel) Error() string { return "x86asm: " + s.kind.String() }

func newErr(kind ErrorKind, offset int, format string, args ...any) *EncodingError {
	return &EncodingError{Kind: kind, Offset: offset, Detail: fmt.Sprintf(format, args...)}
}

// Sentinels usable with errors.Is against any *EncodingError of that kind.
var (
	SentinelInvalidOperandKind    = &kindSentinel{ErrInvalidOperandKind}
	SentinelOperandSizeMismatch   = &kindSentinel{ErrOperandSizeMismatch}
	SentinelMissingOperandSize    = &kindSentinel{ErrMissingOperandSize}
	SentinelImmediateOutOfRange   = &kindSentinel{ErrImmediateOutOfRange}
	SentinelHighByteWithRex       = &kindSentinel{ErrHighByteWithRex}
	SentinelInvalidScale          = &kindSentinel{ErrInvalidScale}
	SentinelInvalidMemoryForm     = &kindSentinel{ErrInvalidMemoryForm}
	SentinelLabelRebind           = &kindSentinel{ErrLabelRebind}
	SentinelLabelUnbound          = &kindSentinel{ErrLabelUnbound}
	SentinelDisplacementOverflow  = &kindSentinel{ErrDisplacementOverflow}
	SentinelUnsupportedInstr      = &kindSentinel{ErrUnsupportedInstruction}
)
