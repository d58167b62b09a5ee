package x86asm

// evexALU mirrors vexALU for the EVEX-encoded AVX-512 arithmetic/logical
// family, adding the mask/zeroing/broadcast operands VEX has no room for.
type evexALU struct {
	pp     ppField
	mmap   opcodeMap
	opcode byte
	wBit   byte
}

var evexALUOps = map[string]evexALU{
	"VADDPS": {pp: ppNone, mmap: map0F, opcode: 0x58},
	"VADDPD": {pp: pp66, mmap: map0F, opcode: 0x58, wBit: 1},
	"VSUBPS": {pp: ppNone, mmap: map0F, opcode: 0x5C},
	"VSUBPD": {pp: pp66, mmap: map0F, opcode: 0x5C, wBit: 1},
	"VMULPS": {pp: ppNone, mmap: map0F, opcode: 0x59},
	"VMULPD": {pp: pp66, mmap: map0F, opcode: 0x59, wBit: 1},
	"VDIVPS": {pp: ppNone, mmap: map0F, opcode: 0x5E},
	"VDIVPD": {pp: pp66, mmap: map0F, opcode: 0x5E, wBit: 1},
	"VPADDD": {pp: pp66, mmap: map0F, opcode: 0xFE},
	"VPADDQ": {pp: pp66, mmap: map0F, opcode: 0xD4, wBit: 1},
	"VPANDD": {pp: pp66, mmap: map0F, opcode: 0xDB},
	"VPORD":  {pp: pp66, mmap: map0F, opcode: 0xEB},
	"VPXORD": {pp: pp66, mmap: map0F, opcode: 0xEF},
}

// evexCvt describes a unary EVEX-encoded conversion instruction: no vvvv
// source, just dst and one reg/mem operand plus the mask/zero/broadcast
// bits every EVEX instruction carries.
type evexCvt struct {
	pp     ppField
	opcode byte
	wBit   byte
}

var evexCvtOps = map[string]evexCvt{
	"VCVTTPS2DQ": {pp: ppF3, opcode: 0x5B},
	"VCVTDQ2PS":  {pp: ppNone, opcode: 0x5B},
	"VCVTPS2PD":  {pp: ppNone, opcode: 0x5A},
	"VCVTPD2PS":  {pp: pp66, opcode: 0x5A},
}

// EvexCvt encodes the EVEX form of a unary conversion `VOP dst{k}{z}, src`.
func (a *Assembler) EvexCvt(mnemonic string, dst Register, src Operand, m MaskOp) error {
	if err := a.checkOpen(); err != nil {
		return err
	}
	op, ok := evexCvtOps[mnemonic]
	if !ok {
		return newErr(ErrUnsupportedInstruction, a.buf.Offset(), "unknown EVEX conversion mnemonic %s", mnemonic)
	}
	start := a.buf.Offset()

	zBit := byte(0)
	if m.Zeroing {
		zBit = 1
	}
	aaa := m.Mask.low3()

	switch src.Kind {
	case OperandReg:
		f := evexFields{
			rExt: (dst.id >> 3) & 1, bExt: (src.Reg.id >> 3) & 1,
			rPrimeExt: (dst.id >> 4) & 1, vPrimeExt: 0,
			vvvv: 0, wBit: op.wBit, mmap: map0F, pp: op.pp,
			zeroing: zBit, length: lenOf(dst), aaa: aaa,
		}
		emitEVEX(a.buf, f)
		a.buf.EmitU8(op.opcode)
		modrm, _ := planRegisterOperand(dst.low3(), src.Reg)
		a.buf.EmitU8(modrm)
	case OperandMem:
		plan, err := planMemOperand(a.buf.Offset(), dst.low3(), src.Mem, a.mode)
		if err != nil {
			return err
		}
		bBit := byte(0)
		if m.Broadcast {
			bBit = 1
		}
		f := evexFields{
			rExt: (dst.id >> 3) & 1, xExt: plan.rexX, bExt: plan.rexB,
			rPrimeExt: (dst.id >> 4) & 1, vPrimeExt: 0,
			vvvv: 0, wBit: op.wBit, mmap: map0F, pp: op.pp,
			zeroing: zBit, length: lenOf(dst), aaa: aaa, broadcastOrRound: bBit,
		}
		emitEVEX(a.buf, f)
		a.buf.EmitU8(op.opcode)
		emitMem(a.buf, a.lm, a.mode, plan)
	default:
		return newErr(ErrInvalidOperandKind, start, "%s does not accept %s", mnemonic, src)
	}
	a.trace(start, "%s %s, %s", mnemonic, RegOp(dst), src)
	return nil
}

// MaskOp bundles the optional opmask register, zeroing-vs-merging flag,
// and embedded-broadcast request shared by every EVEX instruction.
type MaskOp struct {
	Mask      Register // Kind() == KindMask; zero value means "no masking" (k0)
	Zeroing   bool
	Broadcast bool // valid only when the corresponding operand is memory
}

// EvexALU3 encodes the EVEX form of `VOP dst{k}{z}, src1, src2`.
func (a *Assembler) EvexALU3(mnemonic string, dst, src1 Register, src2 Operand, m MaskOp) error {
	if err := a.checkOpen(); err != nil {
		return err
	}
	op, ok := evexALUOps[mnemonic]
	if !ok {
		return newErr(ErrUnsupportedInstruction, a.buf.Offset(), "unknown EVEX ALU mnemonic %s", mnemonic)
	}
	start := a.buf.Offset()

	zBit := byte(0)
	if m.Zeroing {
		zBit = 1
	}
	aaa := m.Mask.low3()

	switch src2.Kind {
	case OperandReg:
		f := evexFields{
			rExt: (dst.id >> 3) & 1, bExt: (src2.Reg.id >> 3) & 1,
			rPrimeExt: (dst.id >> 4) & 1,
			vvvv:      src1.id & 0xF, vPrimeExt: (src1.id >> 4) & 1,
			wBit: op.wBit, mmap: op.mmap, pp: op.pp,
			zeroing: zBit, length: lenOf(dst), aaa: aaa,
		}
		emitEVEX(a.buf, f)
		a.buf.EmitU8(op.opcode)
		modrm, _ := planRegisterOperand(dst.low3(), src2.Reg)
		a.buf.EmitU8(modrm)
	case OperandMem:
		plan, err := planMemOperand(a.buf.Offset(), dst.low3(), src2.Mem, a.mode)
		if err != nil {
			return err
		}
		bBit := byte(0)
		if m.Broadcast {
			bBit = 1
		}
		f := evexFields{
			rExt: (dst.id >> 3) & 1, xExt: plan.rexX, bExt: plan.rexB,
			rPrimeExt: (dst.id >> 4) & 1,
			vvvv:      src1.id & 0xF, vPrimeExt: (src1.id >> 4) & 1,
			wBit: op.wBit, mmap: op.mmap, pp: op.pp,
			zeroing: zBit, length: lenOf(dst), aaa: aaa, broadcastOrRound: bBit,
		}
		emitEVEX(a.buf, f)
		a.buf.EmitU8(op.opcode)
		emitMem(a.buf, a.lm, a.mode, plan)
	default:
		return newErr(ErrInvalidOperandKind, start, "%s does not accept %s", mnemonic, src2)
	}
	a.trace(start, "%s %s, %s, %s", mnemonic, RegOp(dst), RegOp(src1), src2)
	return nil
}

// VPternlog encodes VPTERNLOGD/VPTERNLOGQ, the 4-operand (dst, src1, src2,
// imm8) bitwise ternary-logic instruction unique to AVX-512 (0F3A 0x25).
func (a *Assembler) VPternlog(mnemonic string, dst, src1 Register, src2 Operand, imm byte, m MaskOp) error {
	if err := a.checkOpen(); err != nil {
		return err
	}
	var wBit byte
	switch mnemonic {
	case "VPTERNLOGD":
		wBit = 0
	case "VPTERNLOGQ":
		wBit = 1
	default:
		return newErr(ErrUnsupportedInstruction, a.buf.Offset(), "unknown ternlog mnemonic %s", mnemonic)
	}
	start := a.buf.Offset()
	zBit := byte(0)
	if m.Zeroing {
		zBit = 1
	}

	switch src2.Kind {
	case OperandReg:
		f := evexFields{
			rExt: (dst.id >> 3) & 1, bExt: (src2.Reg.id >> 3) & 1,
			rPrimeExt: (dst.id >> 4) & 1,
			vvvv:      src1.id & 0xF, vPrimeExt: (src1.id >> 4) & 1,
			wBit: wBit, mmap: map0F3A, pp: pp66,
			zeroing: zBit, length: lenOf(dst), aaa: m.Mask.low3(),
		}
		emitEVEX(a.buf, f)
		a.buf.EmitU8(0x25)
		modrm, _ := planRegisterOperand(dst.low3(), src2.Reg)
		a.buf.EmitU8(modrm)
	case OperandMem:
		plan, err := planMemOperand(a.buf.Offset(), dst.low3(), src2.Mem, a.mode)
		if err != nil {
			return err
		}
		bBit := byte(0)
		if m.Broadcast {
			bBit = 1
		}
		f := evexFields{
			rExt: (dst.id >> 3) & 1, xExt: plan.rexX, bExt: plan.rexB,
			rPrimeExt: (dst.id >> 4) & 1,
			vvvv:      src1.id & 0xF, vPrimeExt: (src1.id >> 4) & 1,
			wBit: wBit, mmap: map0F3A, pp: pp66,
			zeroing: zBit, length: lenOf(dst), aaa: m.Mask.low3(), broadcastOrRound: bBit,
		}
		emitEVEX(a.buf, f)
		a.buf.EmitU8(0x25)
		emitMem(a.buf, a.lm, a.mode, plan)
	default:
		return newErr(ErrInvalidOperandKind, start, "%s does not accept %s", mnemonic, src2)
	}
	a.buf.EmitU8(imm)
	a.trace(start, "%s %s, %s, %s, 0x%x", mnemonic, RegOp(dst), RegOp(src1), src2, imm)
	return nil
}

// KMov encodes KMOVW/KMOVB/KMOVD/KMOVQ, the opmask-register move family.
// These are VEX- not EVEX-encoded (0F 90/91), distinguished by pp: none =
// W, 66 = B, F2 = Q, F3 = D.
func (a *Assembler) KMov(mnemonic string, dst, src Operand) error {
	if err := a.checkOpen(); err != nil {
		return err
	}
	var pp ppField
	switch mnemonic {
	case "KMOVW":
		pp = ppNone
	case "KMOVB":
		pp = pp66
	case "KMOVQ":
		pp = ppF2
	case "KMOVD":
		pp = ppF3
	default:
		return newErr(ErrUnsupportedInstruction, a.buf.Offset(), "unknown kmov mnemonic %s", mnemonic)
	}
	start := a.buf.Offset()

	switch {
	case dst.Kind == OperandReg && dst.Reg.Kind() == KindMask && src.Kind == OperandReg && src.Reg.Kind() == KindMask:
		emitVEX(a.buf, vexFields{bExt: src.Reg.extBit(), pp: pp, mmap: map0F})
		a.buf.EmitU8(0x90)
		modrm, _ := planRegisterOperand(dst.Reg.low3(), src.Reg)
		a.buf.EmitU8(modrm)
	case dst.Kind == OperandReg && dst.Reg.Kind() == KindMask && src.Kind == OperandMem:
		plan, err := planMemOperand(a.buf.Offset(), dst.Reg.low3(), src.Mem, a.mode)
		if err != nil {
			return err
		}
		emitVEX(a.buf, vexFields{xExt: plan.rexX, bExt: plan.rexB, pp: pp, mmap: map0F})
		a.buf.EmitU8(0x90)
		emitMem(a.buf, a.lm, a.mode, plan)
	case dst.Kind == OperandMem && src.Kind == OperandReg && src.Reg.Kind() == KindMask:
		plan, err := planMemOperand(a.buf.Offset(), src.Reg.low3(), dst.Mem, a.mode)
		if err != nil {
			return err
		}
		emitVEX(a.buf, vexFields{xExt: plan.rexX, bExt: plan.rexB, pp: pp, mmap: map0F})
		a.buf.EmitU8(0x91)
		emitMem(a.buf, a.lm, a.mode, plan)
	default:
		return newErr(ErrInvalidOperandKind, start, "%s does not accept %s, %s", mnemonic, dst, src)
	}
	a.trace(start, "%s %s, %s", mnemonic, dst, src)
	return nil
}
