package x86asm

// MemIndexKind distinguishes a general-purpose index register from a
// vector index register, the latter only legal in VSIB gather/scatter
// addressing. Modeling the index field of Mem as a {GP, Vector} sum,
// rather than a single Register with an implicit assumption, lets the
// EVEX emitter read the memory operand directly instead of relying on
// precomputed extension bits.
type MemIndexKind byte

const (
	MemIndexNone MemIndexKind = iota
	MemIndexGP
	MemIndexVector
)

// Mem is an immutable memory reference: [base + index*scale + disp] or, in
// the label form, [label] / [rip + label], mutually exclusive with having
// a base or index.
type Mem struct {
	Base      Register
	HasBase   bool
	Index     Register
	IndexKind MemIndexKind
	Scale     byte // 1, 2, 4, or 8; must be 1 if IndexKind == MemIndexNone.
	Disp      int32
	Label     *Label // optional, mutually exclusive with HasBase/IndexKind != None
	SizeBytes int    // explicit operand size in bytes; 0 means "opcode fixes it"
}

// M builds a base(+disp) memory operand: [base + disp].
func M(base Register, disp int32) Mem {
	return Mem{Base: base, HasBase: true, Disp: disp, Scale: 1}
}

// MSib builds a base+index*scale(+disp) memory operand.
func MSib(base Register, index Register, scale byte, disp int32) Mem {
	kind := MemIndexGP
	if index.IsVector() {
		kind = MemIndexVector
	}
	return Mem{Base: base, HasBase: true, Index: index, IndexKind: kind, Scale: scale, Disp: disp}
}

// MLabel builds a RIP-relative (64-bit mode) / absolute (32-bit mode)
// reference to an as-yet-unbound or already-bound label.
func MLabel(l *Label) Mem {
	return Mem{Label: l, Scale: 1}
}

// WithSize returns a copy of m with an explicit operand size in bytes,
// required whenever the opcode does not otherwise fix the size (e.g.
// `ADD [mem], imm`).
func (m Mem) WithSize(bytes int) Mem {
	m.SizeBytes = bytes
	return m
}

func (m Mem) isLabelOnly() bool {
	return m.Label != nil
}

// Imm is a signed immediate with a nominal width; the encoder reports
// ErrImmediateOutOfRange if the value does not fit the width the chosen
// encoding demands.
type Imm struct {
	Value int64
	Bits  byte // 8, 16, 32, or 64
}

func I8(v int8) Imm   { return Imm{Value: int64(v), Bits: 8} }
func I16(v int16) Imm { return Imm{Value: int64(v), Bits: 16} }
func I32(v int32) Imm { return Imm{Value: int64(v), Bits: 32} }
func I64(v int64) Imm { return Imm{Value: v, Bits: 64} }

func fitsSigned(v int64, bits byte) bool {
	switch bits {
	case 8:
		return v >= -128 && v <= 127
	case 16:
		return v >= -32768 && v <= 32767
	case 32:
		return v >= -2147483648 && v <= 2147483647
	default:
		return true
	}
}

func fitsUnsigned32(v int64) bool {
	return v >= 0 && v <= 0xFFFFFFFF
}

// OperandKind tags the Operand sum type's active alternative.
type OperandKind byte

const (
	OperandNone OperandKind = iota
	OperandReg
	OperandMem
	OperandImm
	OperandLabelRef
)

// Operand is the sum type every encoder entry decomposes: a general
// purpose/vector/mask register, a memory reference, an immediate, or a
// bare label reference (used by control-flow encoders).
type Operand struct {
	Kind  OperandKind
	Reg   Register
	Mem   Mem
	Imm   Imm
	Label *Label
}

func RegOp(r Register) Operand   { return Operand{Kind: OperandReg, Reg: r} }
func MemOp(m Mem) Operand        { return Operand{Kind: OperandMem, Mem: m} }
func ImmOp(i Imm) Operand        { return Operand{Kind: OperandImm, Imm: i} }
func LabelOp(l *Label) Operand   { return Operand{Kind: OperandLabelRef, Label: l} }

func (o Operand) String() string {
	switch o.Kind {
	case OperandReg:
		return "reg"
	case OperandMem:
		return "mem"
	case OperandImm:
		return "imm"
	case OperandLabelRef:
		return "label"
	default:
		return "none"
	}
}
