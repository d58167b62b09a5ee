package x86asm

import "fmt"

// aluGroup describes one of the eight classic ALU instruction families
// (ADD, OR, ADC, SBB, AND, SUB, XOR, CMP), which all share a single opcode
// layout differing only by a 3-bit /digit and the base opcode byte.
type aluGroup struct {
	base byte // opcode for "op r/m8, r8"; +1 = full width, +2 = "op r8, r/m8", +3 = full, +4/+5 = accumulator imm8/full
	ext  byte // ModRM /digit used by the imm-group opcodes (0x80/0x81/0x83)
}

var aluGroups = map[string]aluGroup{
	"ADD": {base: 0x00, ext: 0},
	"OR":  {base: 0x08, ext: 1},
	"ADC": {base: 0x10, ext: 2},
	"SBB": {base: 0x18, ext: 3},
	"AND": {base: 0x20, ext: 4},
	"SUB": {base: 0x28, ext: 5},
	"XOR": {base: 0x30, ext: 6},
	"CMP": {base: 0x38, ext: 7},
}

// gpSizeInfo bundles the REX.W / 0x66 decision and opcode "w bit" for a
// general-purpose operand width.
type gpSizeInfo struct {
	w8         bool // 8-bit operand: opcode uses the "w=0" byte, no 0x66
	prefix66   bool // 16-bit operand with a 32-bit default opcode
	rexW       byte
}

func gpSize(bits int) (gpSizeInfo, error) {
	switch bits {
	case 8:
		return gpSizeInfo{w8: true}, nil
	case 16:
		return gpSizeInfo{prefix66: true}, nil
	case 32:
		return gpSizeInfo{}, nil
	case 64:
		return gpSizeInfo{rexW: 1}, nil
	default:
		return gpSizeInfo{}, fmt.Errorf("unsupported operand width %d", bits)
	}
}

// ALU encodes one of ADD/OR/ADC/SBB/AND/SUB/XOR/CMP. dst and src follow
// the Intel operand order (dst, src); TEST has its own entry below because
// it lacks the "reg, r/m" direction and uses a different imm-group opcode.
func (a *Assembler) ALU(mnemonic string, dst, src Operand) error {
	if err := a.checkOpen(); err != nil {
		return err
	}
	g, ok := aluGroups[mnemonic]
	if !ok {
		return newErr(ErrUnsupportedInstruction, a.buf.Offset(), "unknown ALU mnemonic %s", mnemonic)
	}
	start := a.buf.Offset()

	switch {
	case dst.Kind == OperandReg && src.Kind == OperandReg:
		if dst.Reg.SizeBits() != src.Reg.SizeBits() {
			return newErr(ErrOperandSizeMismatch, start, "%s register operands differ in size", mnemonic)
		}
		if err := a.emitRegRM(g.base, dst.Reg.SizeBits(), src.Reg, dst.Reg); err != nil {
			return err
		}
	case dst.Kind == OperandReg && src.Kind == OperandMem:
		sz := dst.Reg.SizeBits()
		if err := a.emitRegMem(g.base+2, sz, dst.Reg, src.Mem); err != nil {
			return err
		}
	case dst.Kind == OperandMem && src.Kind == OperandReg:
		sz := src.Reg.SizeBits()
		if err := a.emitRegMem(g.base, sz, src.Reg, dst.Mem); err != nil {
			return err
		}
	case dst.Kind == OperandReg && src.Kind == OperandImm:
		if err := a.emitALUImm(g, dst.Reg, src.Imm); err != nil {
			return err
		}
	case dst.Kind == OperandMem && src.Kind == OperandImm:
		if dst.Mem.SizeBytes == 0 {
			return newErr(ErrMissingOperandSize, start, "%s to memory requires an explicit operand size", mnemonic)
		}
		if err := a.emitALUImmMem(g, dst.Mem, src.Imm); err != nil {
			return err
		}
	default:
		return newErr(ErrInvalidOperandKind, start, "%s does not accept %s, %s", mnemonic, dst, src)
	}

	a.trace(start, "%s %s, %s", mnemonic, dst, src)
	return nil
}

// emitRegRM emits `opcode r/m, reg` (reg field = regSrc, r/m field =
// rmDst), the "op r/m, reg" direction used when the destination is a
// register or memory location and the source is a register.
func (a *Assembler) emitRegRM(opcodeFull byte, bits int, regSrc, rmDst Register) error {
	sz, err := gpSize(bits)
	if err != nil {
		return err
	}
	forcesRex := sz.rexW != 0 || regSrc.extBit() != 0 || rmDst.extBit() != 0
	if err := checkHighByteRex(a.buf.Offset(), forcesRex, regSrc, rmDst); err != nil {
		return err
	}
	opcode := opcodeFull + 1
	if sz.w8 {
		opcode = opcodeFull
	}
	return a.emitRRGeneric(opcode, sz, regSrc, rmDst, true)
}

// emitRegMem emits `opcode reg, r/m` where r/m is a memory operand. opcode
// is the byte-form opcode; it is incremented by one for 16/32/64-bit
// operands.
func (a *Assembler) emitRegMem(opcode byte, bits int, reg Register, mem Mem) error {
	sz, err := gpSize(bits)
	if err != nil {
		return err
	}
	if sz.prefix66 {
		a.buf.EmitU8(legacyOperandSize16)
	}
	op := opcode
	if !sz.w8 {
		op++
	}
	plan, err := planMemOperand(a.buf.Offset(), reg.low3(), mem, a.mode)
	if err != nil {
		return err
	}
	forcesRex := sz.rexW != 0 || plan.rexB != 0 || plan.rexX != 0 || reg.extBit() != 0
	if err := checkHighByteRex(a.buf.Offset(), forcesRex, reg); err != nil {
		return err
	}
	r := rex{w: sz.rexW, r: reg.extBit(), x: plan.rexX, b: plan.rexB}
	emitREX(a.buf, r)
	a.buf.EmitU8(op)
	emitMem(a.buf, a.lm, a.mode, plan)
	return nil
}

// emitRRGeneric writes the REX + opcode + ModRM for a register-to-register
// form; aOnReg selects whether regA occupies ModRM.reg (true) or
// ModRM.r/m (false).
func (a *Assembler) emitRRGeneric(opcode byte, sz gpSizeInfo, regA, regB Register, aOnReg bool) error {
	forcesRex := sz.rexW != 0 || regA.extBit() != 0 || regB.extBit() != 0
	if err := checkHighByteRex(a.buf.Offset(), forcesRex, regA, regB); err != nil {
		return err
	}
	if sz.prefix66 {
		a.buf.EmitU8(legacyOperandSize16)
	}
	var modrm byte
	var extB byte
	if aOnReg {
		modrm, extB = planRegisterOperand(regA.low3(), regB)
		emitREX(a.buf, rex{w: sz.rexW, r: regA.extBit(), b: extB})
	} else {
		modrm, extB = planRegisterOperand(regB.low3(), regA)
		emitREX(a.buf, rex{w: sz.rexW, r: regB.extBit(), b: extB})
	}
	a.buf.EmitU8(opcode)
	a.buf.EmitU8(modrm)
	return nil
}

// emitALUImm encodes `ALU reg, imm` choosing the shortest legal form
//: the accumulator short form for AX/EAX/RAX, else imm8
// sign-extension (opcode 0x83, /digit) if the value fits a signed byte,
// else the full imm16/imm32 form (opcode 0x81, /digit).
func (a *Assembler) emitALUImm(g aluGroup, dst Register, imm Imm) error {
	sz, err := gpSize(dst.SizeBits())
	if err != nil {
		return err
	}
	if sz.prefix66 {
		a.buf.EmitU8(legacyOperandSize16)
	}

	isAccumulator := dst.id == 0 // AL/AX/EAX/RAX
	if isAccumulator && !sz.w8 {
		emitREX(a.buf, rex{w: sz.rexW})
		a.buf.EmitU8(g.base + 5)
		a.emitImmWidth(imm, dst.SizeBits())
		return nil
	}
	if isAccumulator && sz.w8 {
		a.buf.EmitU8(g.base + 4)
		a.emitImmWidth(imm, 8)
		return nil
	}

	modrm, extB := planRegisterOperand(g.ext, dst)
	emitREX(a.buf, rex{w: sz.rexW, b: extB})

	if sz.w8 {
		if !fitsSigned(imm.Value, 8) {
			return newErr(ErrImmediateOutOfRange, a.buf.Offset(), "immediate does not fit 8 bits")
		}
		a.buf.EmitU8(0x80)
		a.buf.EmitU8(modrm)
		a.buf.EmitU8(byte(int8(imm.Value)))
		return nil
	}

	if fitsSigned(imm.Value, 8) {
		a.buf.EmitU8(0x83)
		a.buf.EmitU8(modrm)
		a.buf.EmitU8(byte(int8(imm.Value)))
		return nil
	}

	a.buf.EmitU8(0x81)
	a.buf.EmitU8(modrm)
	a.emitImmWidth(imm, dst.SizeBits())
	return nil
}

func (a *Assembler) emitALUImmMem(g aluGroup, dst Mem, imm Imm) error {
	bits := dst.SizeBytes * 8
	sz, err := gpSize(bits)
	if err != nil {
		return err
	}
	if sz.prefix66 {
		a.buf.EmitU8(legacyOperandSize16)
	}
	plan, err := planMemOperand(a.buf.Offset(), g.ext, dst, a.mode)
	if err != nil {
		return err
	}
	emitREX(a.buf, rex{w: sz.rexW, x: plan.rexX, b: plan.rexB})

	if sz.w8 {
		if !fitsSigned(imm.Value, 8) {
			return newErr(ErrImmediateOutOfRange, a.buf.Offset(), "immediate does not fit 8 bits")
		}
		a.buf.EmitU8(0x80)
		emitMem(a.buf, a.lm, a.mode, plan)
		a.buf.EmitU8(byte(int8(imm.Value)))
		return nil
	}

	if fitsSigned(imm.Value, 8) {
		a.buf.EmitU8(0x83)
		emitMem(a.buf, a.lm, a.mode, plan)
		a.buf.EmitU8(byte(int8(imm.Value)))
		return nil
	}

	a.buf.EmitU8(0x81)
	emitMem(a.buf, a.lm, a.mode, plan)
	a.emitImmWidth(imm, bits)
	return nil
}

func (a *Assembler) emitImmWidth(imm Imm, bits int) {
	switch bits {
	case 8:
		a.buf.EmitU8(byte(int8(imm.Value)))
	case 16:
		a.buf.EmitU16LE(uint16(int16(imm.Value)))
	default: // 32 or 64: ALU-class immediates never exceed imm32 even for 64-bit operands.
		a.buf.EmitU32LE(uint32(int32(imm.Value)))
	}
}

// TEST encodes the TEST instruction: it shares the ALU imm-group opcode
// shape (0xF6/0xF7, /0) but has no "reg, r/m" form and its own
// register/register and accumulator opcodes.
func (a *Assembler) TEST(dst, src Operand) error {
	if err := a.checkOpen(); err != nil {
		return err
	}
	start := a.buf.Offset()
	switch {
	case dst.Kind == OperandReg && src.Kind == OperandReg:
		if dst.Reg.SizeBits() != src.Reg.SizeBits() {
			return newErr(ErrOperandSizeMismatch, start, "TEST register operands differ in size")
		}
		sz, err := gpSize(dst.Reg.SizeBits())
		if err != nil {
			return err
		}
		op := byte(0x85)
		if sz.w8 {
			op = 0x84
		}
		if err := a.emitRRGeneric(op, sz, src.Reg, dst.Reg, true); err != nil {
			return err
		}
	case dst.Kind == OperandMem && src.Kind == OperandImm:
		if dst.Mem.SizeBytes == 0 {
			return newErr(ErrMissingOperandSize, start, "TEST to memory requires an explicit operand size")
		}
		sz, err := gpSize(dst.Mem.SizeBytes * 8)
		if err != nil {
			return err
		}
		if sz.prefix66 {
			a.buf.EmitU8(legacyOperandSize16)
		}
		plan, err := planMemOperand(a.buf.Offset(), 0, dst.Mem, a.mode)
		if err != nil {
			return err
		}
		emitREX(a.buf, rex{w: sz.rexW, x: plan.rexX, b: plan.rexB})
		op := byte(0xF7)
		if sz.w8 {
			op = 0xF6
		}
		a.buf.EmitU8(op)
		emitMem(a.buf, a.lm, a.mode, plan)
		a.emitImmWidth(src.Imm, dst.Mem.SizeBytes*8)
	case dst.Kind == OperandReg && src.Kind == OperandImm:
		sz, err := gpSize(dst.Reg.SizeBits())
		if err != nil {
			return err
		}
		if sz.prefix66 {
			a.buf.EmitU8(legacyOperandSize16)
		}
		if dst.Reg.id == 0 {
			emitREX(a.buf, rex{w: sz.rexW})
			op := byte(0xA9)
			if sz.w8 {
				op = 0xA8
			}
			a.buf.EmitU8(op)
		} else {
			modrm, extB := planRegisterOperand(0, dst.Reg)
			if err := checkHighByteRex(a.buf.Offset(), sz.rexW != 0 || extB != 0, dst.Reg); err != nil {
				return err
			}
			emitREX(a.buf, rex{w: sz.rexW, b: extB})
			op := byte(0xF7)
			if sz.w8 {
				op = 0xF6
			}
			a.buf.EmitU8(op)
			a.buf.EmitU8(modrm)
		}
		a.emitImmWidth(src.Imm, dst.Reg.SizeBits())
	default:
		return newErr(ErrInvalidOperandKind, start, "TEST does not accept %s, %s", dst, src)
	}
	a.trace(start, "TEST %s, %s", dst, src)
	return nil
}

// MOV encodes the MOV family across register/memory/immediate operand
// shapes, including the MOV r64,imm64 -> MOV r32,imm32
// zero-extension optimization (enabled by default, see
// WithMovImm64Optimization).
func (a *Assembler) MOV(dst, src Operand) error {
	if err := a.checkOpen(); err != nil {
		return err
	}
	start := a.buf.Offset()
	switch {
	case dst.Kind == OperandReg && src.Kind == OperandReg:
		if dst.Reg.SizeBits() != src.Reg.SizeBits() {
			return newErr(ErrOperandSizeMismatch, start, "MOV register operands differ in size")
		}
		sz, err := gpSize(dst.Reg.SizeBits())
		if err != nil {
			return err
		}
		op := byte(0x89)
		if sz.w8 {
			op = 0x88
		}
		if err := a.emitRRGeneric(op, sz, src.Reg, dst.Reg, true); err != nil {
			return err
		}
	case dst.Kind == OperandMem && src.Kind == OperandReg:
		sz := src.Reg.SizeBits()
		if err := a.emitRegMem(0x88, sz, src.Reg, dst.Mem); err != nil {
			return err
		}
	case dst.Kind == OperandReg && src.Kind == OperandMem:
		sz := dst.Reg.SizeBits()
		if err := a.emitRegMem(0x8A, sz, dst.Reg, src.Mem); err != nil {
			return err
		}
	case dst.Kind == OperandReg && src.Kind == OperandImm:
		return a.movImmToReg(dst.Reg, src.Imm)
	case dst.Kind == OperandMem && src.Kind == OperandImm:
		if dst.Mem.SizeBytes == 0 {
			return newErr(ErrMissingOperandSize, start, "MOV to memory requires an explicit operand size")
		}
		sz, err := gpSize(dst.Mem.SizeBytes * 8)
		if err != nil {
			return err
		}
		if sz.prefix66 {
			a.buf.EmitU8(legacyOperandSize16)
		}
		plan, err := planMemOperand(a.buf.Offset(), 0, dst.Mem, a.mode)
		if err != nil {
			return err
		}
		emitREX(a.buf, rex{w: sz.rexW, x: plan.rexX, b: plan.rexB})
		op := byte(0xC7)
		if sz.w8 {
			op = 0xC6
		}
		a.buf.EmitU8(op)
		emitMem(a.buf, a.lm, a.mode, plan)
		if sz.w8 {
			if !fitsSigned(src.Imm.Value, 8) && !fitsUnsigned8(src.Imm.Value) {
				return newErr(ErrImmediateOutOfRange, a.buf.Offset(), "immediate does not fit 8 bits")
			}
			a.buf.EmitU8(byte(src.Imm.Value))
		} else {
			a.emitImmWidth(src.Imm, dst.Mem.SizeBytes*8)
		}
	default:
		return newErr(ErrInvalidOperandKind, start, "MOV does not accept %s, %s", dst, src)
	}
	a.trace(start, "MOV %s, %s", dst, src)
	return nil
}

func fitsUnsigned8(v int64) bool { return v >= 0 && v <= 0xFF }

func (a *Assembler) movImmToReg(dst Register, imm Imm) error {
	switch dst.SizeBits() {
	case 8:
		_, extB := planRegisterOperand(0, dst)
		forceByte := dst.id >= 4 && dst.id <= 7 && dst.Kind() == KindGP8
		if err := checkHighByteRex(a.buf.Offset(), extB != 0, dst); err != nil {
			return err
		}
		emitREX(a.buf, rex{b: extB, forceByte: forceByte})
		a.buf.EmitU8(0xB0 + dst.low3())
		if !fitsSigned(imm.Value, 8) && !fitsUnsigned8(imm.Value) {
			return newErr(ErrImmediateOutOfRange, a.buf.Offset(), "immediate does not fit 8 bits")
		}
		a.buf.EmitU8(byte(imm.Value))
		return nil
	case 16:
		a.buf.EmitU8(legacyOperandSize16)
		extB := dst.extBit()
		emitREX(a.buf, rex{b: extB})
		a.buf.EmitU8(0xB8 + dst.low3())
		a.buf.EmitU16LE(uint16(imm.Value))
		return nil
	case 32:
		extB := dst.extBit()
		emitREX(a.buf, rex{b: extB})
		a.buf.EmitU8(0xB8 + dst.low3())
		a.buf.EmitU32LE(uint32(imm.Value))
		return nil
	case 64:
		if a.opts.optimizeMovImm64 && fitsUnsigned32(imm.Value) {
			// MOV r32, imm32: the implicit zero-extension to the full
			// 64-bit register gives the same result in 5 bytes instead
			// of 10.
			extB := dst.extBit()
			emitREX(a.buf, rex{b: extB})
			a.buf.EmitU8(0xB8 + dst.low3())
			a.buf.EmitU32LE(uint32(imm.Value))
			return nil
		}
		extB := dst.extBit()
		emitREX(a.buf, rex{w: 1, b: extB})
		a.buf.EmitU8(0xB8 + dst.low3())
		a.buf.EmitU64LE(uint64(imm.Value))
		return nil
	default:
		return newErr(ErrInvalidOperandKind, a.buf.Offset(), "unsupported MOV destination width")
	}
}

// LEA computes a memory operand's effective address into dst; unlike
// every other memory-operand encoder, the memory reference is never
// dereferenced, so a RIP-relative [label] form is its most common use
// (computing a position-independent address).
func (a *Assembler) LEA(dst Register, src Mem) error {
	if err := a.checkOpen(); err != nil {
		return err
	}
	start := a.buf.Offset()
	sz, err := gpSize(dst.SizeBits())
	if err != nil {
		return err
	}
	if sz.prefix66 {
		a.buf.EmitU8(legacyOperandSize16)
	}
	plan, err := planMemOperand(a.buf.Offset(), dst.low3(), src, a.mode)
	if err != nil {
		return err
	}
	emitREX(a.buf, rex{w: sz.rexW, r: dst.extBit(), x: plan.rexX, b: plan.rexB})
	a.buf.EmitU8(0x8D)
	emitMem(a.buf, a.lm, a.mode, plan)
	a.trace(start, "LEA %s, %s", RegOp(dst), MemOp(src))
	return nil
}

// PUSH/POP: only the 64-bit (default operand size in 64-bit mode) and
// 16-bit forms are legal in 64-bit mode; REX.W is never encoded for them
// (the opcode's default operand size is already 64 bits).
func (a *Assembler) PUSH(r Register) error {
	if err := a.checkOpen(); err != nil {
		return err
	}
	start := a.buf.Offset()
	if r.SizeBits() == 16 {
		a.buf.EmitU8(legacyOperandSize16)
	}
	emitREX(a.buf, rex{b: r.extBit()})
	a.buf.EmitU8(0x50 + r.low3())
	a.trace(start, "PUSH %s", RegOp(r))
	return nil
}

func (a *Assembler) POP(r Register) error {
	if err := a.checkOpen(); err != nil {
		return err
	}
	start := a.buf.Offset()
	if r.SizeBits() == 16 {
		a.buf.EmitU8(legacyOperandSize16)
	}
	emitREX(a.buf, rex{b: r.extBit()})
	a.buf.EmitU8(0x58 + r.low3())
	a.trace(start, "POP %s", RegOp(r))
	return nil
}

// unaryExt covers NEG/NOT/MUL/IMUL(1-operand)/DIV/IDIV, all encoded as
// 0xF6/0xF7 /digit against a register or memory r/m operand.
var unaryExt = map[string]byte{
	"NOT":  2,
	"NEG":  3,
	"MUL":  4,
	"IMUL": 5,
	"DIV":  6,
	"IDIV": 7,
}

// Unary1 encodes the 0xF6/0xF7 /digit unary group (NOT, NEG, MUL, IMUL,
// DIV, IDIV in their one-operand forms).
func (a *Assembler) Unary1(mnemonic string, rm Operand) error {
	if err := a.checkOpen(); err != nil {
		return err
	}
	ext, ok := unaryExt[mnemonic]
	if !ok {
		return newErr(ErrUnsupportedInstruction, a.buf.Offset(), "unknown unary mnemonic %s", mnemonic)
	}
	start := a.buf.Offset()
	switch rm.Kind {
	case OperandReg:
		sz, err := gpSize(rm.Reg.SizeBits())
		if err != nil {
			return err
		}
		if sz.prefix66 {
			a.buf.EmitU8(legacyOperandSize16)
		}
		modrm, extB := planRegisterOperand(ext, rm.Reg)
		emitREX(a.buf, rex{w: sz.rexW, b: extB})
		op := byte(0xF7)
		if sz.w8 {
			op = 0xF6
		}
		a.buf.EmitU8(op)
		a.buf.EmitU8(modrm)
	case OperandMem:
		if rm.Mem.SizeBytes == 0 {
			return newErr(ErrMissingOperandSize, start, "%s to memory requires an explicit operand size", mnemonic)
		}
		sz, err := gpSize(rm.Mem.SizeBytes * 8)
		if err != nil {
			return err
		}
		if sz.prefix66 {
			a.buf.EmitU8(legacyOperandSize16)
		}
		plan, err := planMemOperand(a.buf.Offset(), ext, rm.Mem, a.mode)
		if err != nil {
			return err
		}
		emitREX(a.buf, rex{w: sz.rexW, x: plan.rexX, b: plan.rexB})
		op := byte(0xF7)
		if sz.w8 {
			op = 0xF6
		}
		a.buf.EmitU8(op)
		emitMem(a.buf, a.lm, a.mode, plan)
	default:
		return newErr(ErrInvalidOperandKind, start, "%s does not accept %s", mnemonic, rm)
	}
	a.trace(start, "%s %s", mnemonic, rm)
	return nil
}

// INC/DEC use their own /digit group (0xFE/0xFF, /0 and /1).
func (a *Assembler) IncDec(mnemonic string, rm Operand) error {
	if err := a.checkOpen(); err != nil {
		return err
	}
	var ext byte
	switch mnemonic {
	case "INC":
		ext = 0
	case "DEC":
		ext = 1
	default:
		return newErr(ErrUnsupportedInstruction, a.buf.Offset(), "unknown mnemonic %s", mnemonic)
	}
	start := a.buf.Offset()
	switch rm.Kind {
	case OperandReg:
		sz, err := gpSize(rm.Reg.SizeBits())
		if err != nil {
			return err
		}
		if sz.prefix66 {
			a.buf.EmitU8(legacyOperandSize16)
		}
		modrm, extB := planRegisterOperand(ext, rm.Reg)
		emitREX(a.buf, rex{w: sz.rexW, b: extB})
		op := byte(0xFF)
		if sz.w8 {
			op = 0xFE
		}
		a.buf.EmitU8(op)
		a.buf.EmitU8(modrm)
	case OperandMem:
		if rm.Mem.SizeBytes == 0 {
			return newErr(ErrMissingOperandSize, start, "%s to memory requires an explicit operand size", mnemonic)
		}
		sz, err := gpSize(rm.Mem.SizeBytes * 8)
		if err != nil {
			return err
		}
		if sz.prefix66 {
			a.buf.EmitU8(legacyOperandSize16)
		}
		plan, err := planMemOperand(a.buf.Offset(), ext, rm.Mem, a.mode)
		if err != nil {
			return err
		}
		emitREX(a.buf, rex{w: sz.rexW, x: plan.rexX, b: plan.rexB})
		op := byte(0xFF)
		if sz.w8 {
			op = 0xFE
		}
		a.buf.EmitU8(op)
		emitMem(a.buf, a.lm, a.mode, plan)
	default:
		return newErr(ErrInvalidOperandKind, start, "%s does not accept %s", mnemonic, rm)
	}
	a.trace(start, "%s %s", mnemonic, rm)
	return nil
}

// IMUL2 encodes the two-operand form `IMUL dst, src` (0F AF /r).
func (a *Assembler) IMUL2(dst Register, src Operand) error {
	if err := a.checkOpen(); err != nil {
		return err
	}
	start := a.buf.Offset()
	sz, err := gpSize(dst.SizeBits())
	if err != nil {
		return err
	}
	if sz.prefix66 {
		a.buf.EmitU8(legacyOperandSize16)
	}
	switch src.Kind {
	case OperandReg:
		modrm, extB := planRegisterOperand(dst.low3(), src.Reg)
		emitREX(a.buf, rex{w: sz.rexW, r: dst.extBit(), b: extB})
		a.buf.EmitU8(0x0F)
		a.buf.EmitU8(0xAF)
		a.buf.EmitU8(modrm)
	case OperandMem:
		plan, err := planMemOperand(a.buf.Offset(), dst.low3(), src.Mem, a.mode)
		if err != nil {
			return err
		}
		emitREX(a.buf, rex{w: sz.rexW, r: dst.extBit(), x: plan.rexX, b: plan.rexB})
		a.buf.EmitU8(0x0F)
		a.buf.EmitU8(0xAF)
		emitMem(a.buf, a.lm, a.mode, plan)
	default:
		return newErr(ErrInvalidOperandKind, start, "IMUL does not accept %s", src)
	}
	a.trace(start, "IMUL %s, %s", RegOp(dst), src)
	return nil
}

// IMUL3 encodes the three-operand form `IMUL dst, src, imm`.
func (a *Assembler) IMUL3(dst, src Register, imm Imm) error {
	if err := a.checkOpen(); err != nil {
		return err
	}
	start := a.buf.Offset()
	sz, err := gpSize(dst.SizeBits())
	if err != nil {
		return err
	}
	if sz.prefix66 {
		a.buf.EmitU8(legacyOperandSize16)
	}
	modrm, extB := planRegisterOperand(dst.low3(), src)
	emitREX(a.buf, rex{w: sz.rexW, r: dst.extBit(), b: extB})
	if fitsSigned(imm.Value, 8) {
		a.buf.EmitU8(0x6B)
		a.buf.EmitU8(modrm)
		a.buf.EmitU8(byte(int8(imm.Value)))
	} else {
		a.buf.EmitU8(0x69)
		a.buf.EmitU8(modrm)
		a.emitImmWidth(imm, dst.SizeBits())
	}
	a.trace(start, "IMUL %s, %s, 0x%x", RegOp(dst), RegOp(src), imm.Value)
	return nil
}

// ShiftBy distinguishes a shift/rotate's count operand: an immediate
// (0xC0/0xC1 /digit), the implicit CL register (0xD2/0xD3 /digit), or the
// implicit count of 1 (0xD0/0xD1 /digit).
type ShiftBy byte

const (
	ShiftByImm ShiftBy = iota
	ShiftByCL
	ShiftByOne
)

var shiftExt = map[string]byte{
	"ROL": 0, "ROR": 1, "RCL": 2, "RCR": 3,
	"SHL": 4, "SAL": 4, "SHR": 5, "SAR": 7,
}

// Shift encodes SHL/SHR/SAR/ROL/ROR (and RCL/RCR) by an immediate count,
// by CL, or by the implicit count of one.
func (a *Assembler) Shift(mnemonic string, rm Operand, by ShiftBy, imm byte) error {
	if err := a.checkOpen(); err != nil {
		return err
	}
	ext, ok := shiftExt[mnemonic]
	if !ok {
		return newErr(ErrUnsupportedInstruction, a.buf.Offset(), "unknown shift mnemonic %s", mnemonic)
	}
	start := a.buf.Offset()

	var reg Register
	var mem Mem
	isMem := rm.Kind == OperandMem
	if isMem {
		mem = rm.Mem
		if mem.SizeBytes == 0 {
			return newErr(ErrMissingOperandSize, start, "%s to memory requires an explicit operand size", mnemonic)
		}
	} else if rm.Kind == OperandReg {
		reg = rm.Reg
	} else {
		return newErr(ErrInvalidOperandKind, start, "%s does not accept %s", mnemonic, rm)
	}

	bits := reg.SizeBits()
	if isMem {
		bits = mem.SizeBytes * 8
	}
	sz, err := gpSize(bits)
	if err != nil {
		return err
	}
	if sz.prefix66 {
		a.buf.EmitU8(legacyOperandSize16)
	}

	var base byte
	switch by {
	case ShiftByOne:
		base = 0xD0
	case ShiftByCL:
		base = 0xD2
	case ShiftByImm:
		base = 0xC0
	}
	if !sz.w8 {
		base++
	}

	if isMem {
		plan, err := planMemOperand(a.buf.Offset(), ext, mem, a.mode)
		if err != nil {
			return err
		}
		emitREX(a.buf, rex{w: sz.rexW, x: plan.rexX, b: plan.rexB})
		a.buf.EmitU8(base)
		emitMem(a.buf, a.lm, a.mode, plan)
	} else {
		modrm, extB := planRegisterOperand(ext, reg)
		if err := checkHighByteRex(a.buf.Offset(), sz.rexW != 0 || extB != 0, reg); err != nil {
			return err
		}
		emitREX(a.buf, rex{w: sz.rexW, b: extB})
		a.buf.EmitU8(base)
		a.buf.EmitU8(modrm)
	}
	if by == ShiftByImm {
		a.buf.EmitU8(imm)
	}
	a.trace(start, "%s %s", mnemonic, rm)
	return nil
}

// movxOp covers MOVZX/MOVSX/MOVSXD: widening moves whose source is
// narrower than the destination.
type movxOp struct {
	opcode  []byte
	srcBits int
}

var movx = map[string]movxOp{
	"MOVZX8":  {opcode: []byte{0x0F, 0xB6}, srcBits: 8},
	"MOVZX16": {opcode: []byte{0x0F, 0xB7}, srcBits: 16},
	"MOVSX8":  {opcode: []byte{0x0F, 0xBE}, srcBits: 8},
	"MOVSX16": {opcode: []byte{0x0F, 0xBF}, srcBits: 16},
	"MOVSXD":  {opcode: []byte{0x63}, srcBits: 32},
}

// MOVX encodes MOVZX/MOVSX/MOVSXD; mnemonic selects the exact widening
// (e.g. "MOVSX8" = MOVSX from an 8-bit source).
func (a *Assembler) MOVX(mnemonic string, dst Register, src Operand) error {
	if err := a.checkOpen(); err != nil {
		return err
	}
	op, ok := movx[mnemonic]
	if !ok {
		return newErr(ErrUnsupportedInstruction, a.buf.Offset(), "unknown movx mnemonic %s", mnemonic)
	}
	start := a.buf.Offset()
	dstSz, err := gpSize(dst.SizeBits())
	if err != nil {
		return err
	}
	if dstSz.prefix66 {
		a.buf.EmitU8(legacyOperandSize16)
	}
	switch src.Kind {
	case OperandReg:
		if src.Reg.SizeBits() != op.srcBits {
			return newErr(ErrOperandSizeMismatch, start, "%s source must be %d-bit", mnemonic, op.srcBits)
		}
		modrm, extB := planRegisterOperand(dst.low3(), src.Reg)
		forcesRex := dstSz.rexW != 0 || dst.extBit() != 0 || extB != 0
		if err := checkHighByteRex(a.buf.Offset(), forcesRex, dst, src.Reg); err != nil {
			return err
		}
		emitREX(a.buf, rex{w: dstSz.rexW, r: dst.extBit(), b: extB})
		a.buf.EmitBytes(op.opcode)
		a.buf.EmitU8(modrm)
	case OperandMem:
		plan, err := planMemOperand(a.buf.Offset(), dst.low3(), src.Mem, a.mode)
		if err != nil {
			return err
		}
		emitREX(a.buf, rex{w: dstSz.rexW, r: dst.extBit(), x: plan.rexX, b: plan.rexB})
		a.buf.EmitBytes(op.opcode)
		emitMem(a.buf, a.lm, a.mode, plan)
	default:
		return newErr(ErrInvalidOperandKind, start, "%s does not accept %s", mnemonic, src)
	}
	a.trace(start, "%s %s, %s", mnemonic, RegOp(dst), src)
	return nil
}

// XCHG encodes XCHG, taking the single-byte 0x90+r accumulator short form
// when one operand is AX/EAX/RAX, else the general 0x87 /r form.
func (a *Assembler) XCHG(a1, a2 Register) error {
	if err := a.checkOpen(); err != nil {
		return err
	}
	start := a.buf.Offset()
	if a1.SizeBits() != a2.SizeBits() {
		return newErr(ErrOperandSizeMismatch, start, "XCHG operands differ in size")
	}
	sz, err := gpSize(a1.SizeBits())
	if err != nil {
		return err
	}
	if sz.prefix66 {
		a.buf.EmitU8(legacyOperandSize16)
	}

	if !sz.w8 {
		if a1.id == 0 && a2.id != 0 {
			emitREX(a.buf, rex{b: a2.extBit(), w: sz.rexW})
			a.buf.EmitU8(0x90 + a2.low3())
			a.trace(start, "XCHG %s, %s", RegOp(a1), RegOp(a2))
			return nil
		}
		if a2.id == 0 && a1.id != 0 {
			emitREX(a.buf, rex{b: a1.extBit(), w: sz.rexW})
			a.buf.EmitU8(0x90 + a1.low3())
			a.trace(start, "XCHG %s, %s", RegOp(a1), RegOp(a2))
			return nil
		}
	}

	modrm, extB := planRegisterOperand(a1.low3(), a2)
	forcesRex := sz.rexW != 0 || a1.extBit() != 0 || extB != 0
	if err := checkHighByteRex(a.buf.Offset(), forcesRex, a1, a2); err != nil {
		return err
	}
	emitREX(a.buf, rex{w: sz.rexW, r: a1.extBit(), b: extB})
	op := byte(0x87)
	if sz.w8 {
		op = 0x86
	}
	a.buf.EmitU8(op)
	a.buf.EmitU8(modrm)
	a.trace(start, "XCHG %s, %s", RegOp(a1), RegOp(a2))
	return nil
}

// XORSelf encodes the two-operand `XOR r, r` idiom used to zero a
// register; no dedicated short form exists for this, so it is
// always the full two-operand XOR.
func (a *Assembler) XORSelf(r Register) error {
	mnemonic := "XOR"
	return a.ALU(mnemonic, RegOp(r), RegOp(r))
}

// CondCode names the 16 x86 condition codes used by Jcc/SETcc/CMOVcc; the
// low nibble is the condition's "tttn" encoding, shared across all three
// families (0F 80+cc, 0F 90+cc, 0F 40+cc respectively).
type CondCode byte

const (
	CondO CondCode = iota
	CondNO
	CondB
	CondAE
	CondE
	CondNE
	CondBE
	CondA
	CondS
	CondNS
	CondP
	CondNP
	CondL
	CondGE
	CondLE
	CondG
)

// CMOVcc encodes the conditional move `CMOVcc dst, src`.
func (a *Assembler) CMOVcc(cc CondCode, dst Register, src Operand) error {
	if err := a.checkOpen(); err != nil {
		return err
	}
	start := a.buf.Offset()
	sz, err := gpSize(dst.SizeBits())
	if err != nil {
		return err
	}
	if sz.prefix66 {
		a.buf.EmitU8(legacyOperandSize16)
	}
	switch src.Kind {
	case OperandReg:
		modrm, extB := planRegisterOperand(dst.low3(), src.Reg)
		emitREX(a.buf, rex{w: sz.rexW, r: dst.extBit(), b: extB})
		a.buf.EmitU8(0x0F)
		a.buf.EmitU8(0x40 + byte(cc))
		a.buf.EmitU8(modrm)
	case OperandMem:
		plan, err := planMemOperand(a.buf.Offset(), dst.low3(), src.Mem, a.mode)
		if err != nil {
			return err
		}
		emitREX(a.buf, rex{w: sz.rexW, r: dst.extBit(), x: plan.rexX, b: plan.rexB})
		a.buf.EmitU8(0x0F)
		a.buf.EmitU8(0x40 + byte(cc))
		emitMem(a.buf, a.lm, a.mode, plan)
	default:
		return newErr(ErrInvalidOperandKind, start, "CMOVcc does not accept %s", src)
	}
	a.trace(start, "CMOV%d %s, %s", cc, RegOp(dst), src)
	return nil
}

// SETcc encodes `SETcc r/m8`.
func (a *Assembler) SETcc(cc CondCode, rm Operand) error {
	if err := a.checkOpen(); err != nil {
		return err
	}
	start := a.buf.Offset()
	switch rm.Kind {
	case OperandReg:
		modrm, extB := planRegisterOperand(0, rm.Reg)
		forceByte := rm.Reg.id >= 4 && rm.Reg.id <= 7 && rm.Reg.Kind() == KindGP8
		emitREX(a.buf, rex{b: extB, forceByte: forceByte})
		a.buf.EmitU8(0x0F)
		a.buf.EmitU8(0x90 + byte(cc))
		a.buf.EmitU8(modrm)
	case OperandMem:
		plan, err := planMemOperand(a.buf.Offset(), 0, rm.Mem, a.mode)
		if err != nil {
			return err
		}
		emitREX(a.buf, rex{x: plan.rexX, b: plan.rexB})
		a.buf.EmitU8(0x0F)
		a.buf.EmitU8(0x90 + byte(cc))
		emitMem(a.buf, a.lm, a.mode, plan)
	default:
		return newErr(ErrInvalidOperandKind, start, "SETcc does not accept %s", rm)
	}
	a.trace(start, "SET%d %s", cc, rm)
	return nil
}

// StandAlone encodes the no-operand instructions: CDQ/CQO/CBW/CWDE/CDQE/
// CWD, RET, NOP, INT3, flag ops, fences, PAUSE, UD2, VZEROUPPER/VZEROALL
// dispatch through the vector encoder instead (they need VEX).
func (a *Assembler) StandAlone(mnemonic string) error {
	if err := a.checkOpen(); err != nil {
		return err
	}
	start := a.buf.Offset()
	switch mnemonic {
	case "CWD":
		a.buf.EmitU8(legacyOperandSize16)
		a.buf.EmitU8(0x99)
	case "CDQ":
		a.buf.EmitU8(0x99)
	case "CQO":
		emitREX(a.buf, rex{w: 1})
		a.buf.EmitU8(0x99)
	case "CBW":
		a.buf.EmitU8(legacyOperandSize16)
		a.buf.EmitU8(0x98)
	case "CWDE":
		a.buf.EmitU8(0x98)
	case "CDQE":
		emitREX(a.buf, rex{w: 1})
		a.buf.EmitU8(0x98)
	case "RET":
		a.buf.EmitU8(0xC3)
	case "NOP":
		a.buf.EmitU8(0x90)
	case "INT3":
		a.buf.EmitU8(0xCC)
	case "UD2":
		a.buf.EmitU8(0x0F)
		a.buf.EmitU8(0x0B)
	case "CLC":
		a.buf.EmitU8(0xF8)
	case "STC":
		a.buf.EmitU8(0xF9)
	case "CMC":
		a.buf.EmitU8(0xF5)
	case "CLD":
		a.buf.EmitU8(0xFC)
	case "STD":
		a.buf.EmitU8(0xFD)
	case "MFENCE":
		a.buf.EmitU8(0x0F)
		a.buf.EmitU8(0xAE)
		a.buf.EmitU8(0xF0)
	case "SFENCE":
		a.buf.EmitU8(0x0F)
		a.buf.EmitU8(0xAE)
		a.buf.EmitU8(0xF8)
	case "LFENCE":
		a.buf.EmitU8(0x0F)
		a.buf.EmitU8(0xAE)
		a.buf.EmitU8(0xE8)
	case "PAUSE":
		a.buf.EmitU8(0xF3)
		a.buf.EmitU8(0x90)
	default:
		return newErr(ErrUnsupportedInstruction, start, "unknown stand-alone mnemonic %s", mnemonic)
	}
	a.trace(start, "%s", mnemonic)
	return nil
}

// INT encodes `INT imm8`.
func (a *Assembler) INT(vector byte) error {
	if err := a.checkOpen(); err != nil {
		return err
	}
	start := a.buf.Offset()
	a.buf.EmitU8(0xCD)
	a.buf.EmitU8(vector)
	a.trace(start, "INT 0x%x", vector)
	return nil
}

// nopOpcodes holds the Intel/AMD-recommended multi-byte NOP padding
// sequences, 1 through 9 bytes.
var nopOpcodes = [9][]byte{
	{0x90},
	{0x66, 0x90},
	{0x0f, 0x1f, 0x00},
	{0x0f, 0x1f, 0x40, 0x00},
	{0x0f, 0x1f, 0x44, 0x00, 0x00},
	{0x66, 0x0f, 0x1f, 0x44, 0x00, 0x00},
	{0x0f, 0x1f, 0x80, 0x00, 0x00, 0x00, 0x00},
	{0x0f, 0x1f, 0x84, 0x00, 0x00, 0x00, 0x00, 0x00},
	{0x66, 0x0f, 0x1f, 0x84, 0x00, 0x00, 0x00, 0x00, 0x00},
}

// NOPn emits a single multi-byte NOP of exactly n bytes (1..9), used for
// manual alignment padding.
func (a *Assembler) NOPn(n int) error {
	if err := a.checkOpen(); err != nil {
		return err
	}
	if n < 1 || n > 9 {
		return newErr(ErrImmediateOutOfRange, a.buf.Offset(), "NOP length %d must be 1..9", n)
	}
	start := a.buf.Offset()
	a.buf.EmitBytes(nopOpcodes[n-1])
	a.trace(start, "NOP(%d)", n)
	return nil
}

// bitScan covers BSF/BSR/POPCNT/LZCNT/TZCNT, all `0F xx /r`
// register-from-r/m forms differing only in opcode and mandatory prefix.
var bitScan = map[string]struct {
	opcode          byte
	mandatoryPrefix byte
}{
	"BSF":    {opcode: 0xBC},
	"BSR":    {opcode: 0xBD},
	"POPCNT": {opcode: 0xB8, mandatoryPrefix: legacyRepPrefix},
	"LZCNT":  {opcode: 0xBD, mandatoryPrefix: legacyRepPrefix},
	"TZCNT":  {opcode: 0xBC, mandatoryPrefix: legacyRepPrefix},
}

// BitScan encodes BSF/BSR/POPCNT/LZCNT/TZCNT `dst, src`.
func (a *Assembler) BitScan(mnemonic string, dst Register, src Operand) error {
	if err := a.checkOpen(); err != nil {
		return err
	}
	op, ok := bitScan[mnemonic]
	if !ok {
		return newErr(ErrUnsupportedInstruction, a.buf.Offset(), "unknown bit-scan mnemonic %s", mnemonic)
	}
	start := a.buf.Offset()
	sz, err := gpSize(dst.SizeBits())
	if err != nil {
		return err
	}
	if sz.prefix66 {
		a.buf.EmitU8(legacyOperandSize16)
	}
	if op.mandatoryPrefix != 0 {
		a.buf.EmitU8(op.mandatoryPrefix)
	}
	switch src.Kind {
	case OperandReg:
		modrm, extB := planRegisterOperand(dst.low3(), src.Reg)
		emitREX(a.buf, rex{w: sz.rexW, r: dst.extBit(), b: extB})
		a.buf.EmitU8(0x0F)
		a.buf.EmitU8(op.opcode)
		a.buf.EmitU8(modrm)
	case OperandMem:
		plan, err := planMemOperand(a.buf.Offset(), dst.low3(), src.Mem, a.mode)
		if err != nil {
			return err
		}
		emitREX(a.buf, rex{w: sz.rexW, r: dst.extBit(), x: plan.rexX, b: plan.rexB})
		a.buf.EmitU8(0x0F)
		a.buf.EmitU8(op.opcode)
		emitMem(a.buf, a.lm, a.mode, plan)
	default:
		return newErr(ErrInvalidOperandKind, start, "%s does not accept %s", mnemonic, src)
	}
	a.trace(start, "%s %s, %s", mnemonic, RegOp(dst), src)
	return nil
}

var btExt = map[string]byte{"BT": 4, "BTS": 5, "BTR": 6, "BTC": 7}

// BT encodes BT/BTS/BTR/BTC `r/m, imm8` (the register-bit-index form uses
// the two-operand 0F A3/AB/B3/BB opcodes instead; both share the same
// family here for brevity, selected by whether idx is an Imm or Reg).
func (a *Assembler) BT(mnemonic string, rm Operand, idx Operand) error {
	if err := a.checkOpen(); err != nil {
		return err
	}
	ext, ok := btExt[mnemonic]
	if !ok {
		return newErr(ErrUnsupportedInstruction, a.buf.Offset(), "unknown BT mnemonic %s", mnemonic)
	}
	start := a.buf.Offset()

	if idx.Kind == OperandReg {
		// 0F xx /r register-index form, opcode base differs per mnemonic.
		var opcode byte
		switch mnemonic {
		case "BT":
			opcode = 0xA3
		case "BTS":
			opcode = 0xAB
		case "BTR":
			opcode = 0xB3
		case "BTC":
			opcode = 0xBB
		}
		switch rm.Kind {
		case OperandReg:
			sz, err := gpSize(rm.Reg.SizeBits())
			if err != nil {
				return err
			}
			if sz.prefix66 {
				a.buf.EmitU8(legacyOperandSize16)
			}
			modrm, extB := planRegisterOperand(idx.Reg.low3(), rm.Reg)
			forcesRex := sz.rexW != 0 || idx.Reg.extBit() != 0 || extB != 0
			if err := checkHighByteRex(a.buf.Offset(), forcesRex, idx.Reg, rm.Reg); err != nil {
				return err
			}
			emitREX(a.buf, rex{w: sz.rexW, r: idx.Reg.extBit(), b: extB})
			a.buf.EmitU8(0x0F)
			a.buf.EmitU8(opcode)
			a.buf.EmitU8(modrm)
		case OperandMem:
			sz, err := gpSize(rm.Mem.SizeBytes * 8)
			if err != nil {
				return err
			}
			if sz.prefix66 {
				a.buf.EmitU8(legacyOperandSize16)
			}
			plan, err := planMemOperand(a.buf.Offset(), idx.Reg.low3(), rm.Mem, a.mode)
			if err != nil {
				return err
			}
			emitREX(a.buf, rex{w: sz.rexW, r: idx.Reg.extBit(), x: plan.rexX, b: plan.rexB})
			a.buf.EmitU8(0x0F)
			a.buf.EmitU8(opcode)
			emitMem(a.buf, a.lm, a.mode, plan)
		default:
			return newErr(ErrInvalidOperandKind, start, "%s does not accept %s", mnemonic, rm)
		}
		a.trace(start, "%s %s, %s", mnemonic, rm, idx)
		return nil
	}

	// 0F BA /digit imm8 form.
	switch rm.Kind {
	case OperandReg:
		sz, err := gpSize(rm.Reg.SizeBits())
		if err != nil {
			return err
		}
		if sz.prefix66 {
			a.buf.EmitU8(legacyOperandSize16)
		}
		modrm, extB := planRegisterOperand(ext, rm.Reg)
		if err := checkHighByteRex(a.buf.Offset(), sz.rexW != 0 || extB != 0, rm.Reg); err != nil {
			return err
		}
		emitREX(a.buf, rex{w: sz.rexW, b: extB})
		a.buf.EmitU8(0x0F)
		a.buf.EmitU8(0xBA)
		a.buf.EmitU8(modrm)
	case OperandMem:
		sz, err := gpSize(rm.Mem.SizeBytes * 8)
		if err != nil {
			return err
		}
		if sz.prefix66 {
			a.buf.EmitU8(legacyOperandSize16)
		}
		plan, err := planMemOperand(a.buf.Offset(), ext, rm.Mem, a.mode)
		if err != nil {
			return err
		}
		emitREX(a.buf, rex{w: sz.rexW, x: plan.rexX, b: plan.rexB})
		a.buf.EmitU8(0x0F)
		a.buf.EmitU8(0xBA)
		emitMem(a.buf, a.lm, a.mode, plan)
	default:
		return newErr(ErrInvalidOperandKind, start, "%s does not accept %s", mnemonic, rm)
	}
	if !fitsUnsigned8(idx.Imm.Value) {
		return newErr(ErrImmediateOutOfRange, a.buf.Offset(), "bit index does not fit 8 bits")
	}
	a.buf.EmitU8(byte(idx.Imm.Value))
	a.trace(start, "%s %s, %d", mnemonic, rm, idx.Imm.Value)
	return nil
}

// BSWAP reverses the byte order of a 32- or 64-bit register in place.
func (a *Assembler) BSWAP(r Register) error {
	if err := a.checkOpen(); err != nil {
		return err
	}
	start := a.buf.Offset()
	sz, err := gpSize(r.SizeBits())
	if err != nil {
		return err
	}
	emitREX(a.buf, rex{w: sz.rexW, b: r.extBit()})
	a.buf.EmitU8(0x0F)
	a.buf.EmitU8(0xC8 + r.low3())
	a.trace(start, "BSWAP %s", RegOp(r))
	return nil
}

// REPStringOp encodes a REP-prefixed string operation: MOVS/STOS/CMPS/
// SCAS/LODS at the given operand width in bytes (1, 2, 4, or 8).
func (a *Assembler) REPStringOp(mnemonic string, widthBytes int) error {
	if err := a.checkOpen(); err != nil {
		return err
	}
	start := a.buf.Offset()
	sz, err := gpSize(widthBytes * 8)
	if err != nil {
		return err
	}

	var base byte
	var repPrefix byte = legacyRepPrefix
	switch mnemonic {
	case "MOVS":
		base = 0xA4
	case "STOS":
		base = 0xAA
	case "LODS":
		base = 0xAC
	case "CMPS":
		base, repPrefix = 0xA6, legacyRepPrefix // REPE CMPS
	case "SCAS":
		base, repPrefix = 0xAE, legacyRepPrefix // REPE SCAS
	default:
		return newErr(ErrUnsupportedInstruction, start, "unknown string mnemonic %s", mnemonic)
	}
	if !sz.w8 {
		base++
	}

	a.buf.EmitU8(repPrefix)
	if sz.prefix66 {
		a.buf.EmitU8(legacyOperandSize16)
	}
	emitREX(a.buf, rex{w: sz.rexW})
	a.buf.EmitU8(base)
	a.trace(start, "REP %s (%d-byte)", mnemonic, widthBytes)
	return nil
}
