package x86asm

// bmi1/BMI2 instructions are VEX-encoded but operate on general-purpose
// registers: VEX.W selects the 32- vs 64-bit operand width the way REX.W
// would for a legacy instruction, and VEX.vvvv carries the second source
// register instead of an immediate-mode ModRM extension.

// ANDN encodes `ANDN dst, src1, src2` (VEX.NDS.LZ.0F38.W0 F2 /r, W1 for
// 64-bit operands): dst = ~src1 & src2.
func (a *Assembler) ANDN(dst, src1 Register, src2 Operand) error {
	return a.bmiVexNDS(dst, src1, src2, ppNone, map0F38, 0xF2)
}

// BEXTR encodes `BEXTR dst, src, ctrl` where ctrl supplies the start/length
// control in its low 16 bits (VEX.NDS.0F38 F7 /r).
func (a *Assembler) BEXTR(dst Register, src Operand, ctrl Register) error {
	return a.bmiVexNDSSwapped(dst, ctrl, src, ppNone, map0F38, 0xF7)
}

// BZHI encodes `BZHI dst, src, ctrl` (VEX.NDS.0F38 F5 /r): zero bits in
// src above the position ctrl specifies.
func (a *Assembler) BZHI(dst Register, src Operand, ctrl Register) error {
	return a.bmiVexNDSSwapped(dst, ctrl, src, ppNone, map0F38, 0xF5)
}

// PDEP encodes `PDEP dst, src, mask` (VEX.NDS.F2.0F38 F5 /r).
func (a *Assembler) PDEP(dst, src Register, mask Operand) error {
	return a.bmiVexNDS(dst, src, mask, ppF2, map0F38, 0xF5)
}

// PEXT encodes `PEXT dst, src, mask` (VEX.NDS.F3.0F38 F5 /r).
func (a *Assembler) PEXT(dst, src Register, mask Operand) error {
	return a.bmiVexNDS(dst, src, mask, ppF3, map0F38, 0xF5)
}

// SARX/SHLX/SHRX encode `OP dst, src, count` with the shift count as the
// VEX.vvvv operand instead of CL or an immediate.
func (a *Assembler) SARX(dst Register, src Operand, count Register) error {
	return a.bmiVexNDSSwapped(dst, count, src, ppF3, map0F38, 0xF7)
}
func (a *Assembler) SHLX(dst Register, src Operand, count Register) error {
	return a.bmiVexNDSSwapped(dst, count, src, pp66, map0F38, 0xF7)
}
func (a *Assembler) SHRX(dst Register, src Operand, count Register) error {
	return a.bmiVexNDSSwapped(dst, count, src, ppF2, map0F38, 0xF7)
}

// MULX encodes `MULX dst1, dst2, src` (VEX.NDD.F2.0F38 F6 /r): implicit
// multiplicand RDX/EDX, dst1 (ModRM.reg) gets the high half, dst2
// (VEX.vvvv) the low half, src is the explicit multiplier.
func (a *Assembler) MULX(dst1, dst2 Register, src Operand) error {
	return a.bmiVexNDS(dst1, dst2, src, ppF2, map0F38, 0xF6)
}

// RORX encodes `RORX dst, src, imm8` (VEX.LZ.F2.0F3A F0 /r ib), a
// flag-free rotate with no VEX.vvvv source.
func (a *Assembler) RORX(dst Register, src Operand, imm byte) error {
	if err := a.checkOpen(); err != nil {
		return err
	}
	start := a.buf.Offset()
	w := gpWBit(dst)
	switch src.Kind {
	case OperandReg:
		f := vexFields{rExt: dst.extBit(), bExt: src.Reg.extBit(), wBit: w, pp: ppF2, mmap: map0F3A}
		emitVEX(a.buf, f)
		a.buf.EmitU8(0xF0)
		modrm, _ := planRegisterOperand(dst.low3(), src.Reg)
		a.buf.EmitU8(modrm)
	case OperandMem:
		plan, err := planMemOperand(a.buf.Offset(), dst.low3(), src.Mem, a.mode)
		if err != nil {
			return err
		}
		f := vexFields{rExt: dst.extBit(), xExt: plan.rexX, bExt: plan.rexB, wBit: w, pp: ppF2, mmap: map0F3A}
		emitVEX(a.buf, f)
		a.buf.EmitU8(0xF0)
		emitMem(a.buf, a.lm, a.mode, plan)
	default:
		return newErr(ErrInvalidOperandKind, start, "RORX does not accept %s", src)
	}
	a.buf.EmitU8(imm)
	a.trace(start, "RORX %s, %s, 0x%x", RegOp(dst), src, imm)
	return nil
}

// bmi1Ext covers the BLSI/BLSMSK/BLSR single-source BMI1 group, which
// uses a ModRM /digit instead of a second explicit operand (VEX.NDD.0F38
// F3 /digit, dst supplied via vvvv rather than ModRM.reg).
var bmi1Ext = map[string]byte{"BLSR": 1, "BLSMSK": 2, "BLSI": 3}

// BLSGroup encodes BLSR/BLSMSK/BLSI `dst, src`.
func (a *Assembler) BLSGroup(mnemonic string, dst Register, src Operand) error {
	if err := a.checkOpen(); err != nil {
		return err
	}
	ext, ok := bmi1Ext[mnemonic]
	if !ok {
		return newErr(ErrUnsupportedInstruction, a.buf.Offset(), "unknown BMI1 mnemonic %s", mnemonic)
	}
	start := a.buf.Offset()
	w := gpWBit(dst)
	switch src.Kind {
	case OperandReg:
		f := vexFields{vvvv: dst.id, bExt: src.Reg.extBit(), wBit: w, pp: ppNone, mmap: map0F38}
		emitVEX(a.buf, f)
		a.buf.EmitU8(0xF3)
		modrm, _ := planRegisterOperand(ext, src.Reg)
		a.buf.EmitU8(modrm)
	case OperandMem:
		plan, err := planMemOperand(a.buf.Offset(), ext, src.Mem, a.mode)
		if err != nil {
			return err
		}
		f := vexFields{vvvv: dst.id, xExt: plan.rexX, bExt: plan.rexB, wBit: w, pp: ppNone, mmap: map0F38}
		emitVEX(a.buf, f)
		a.buf.EmitU8(0xF3)
		emitMem(a.buf, a.lm, a.mode, plan)
	default:
		return newErr(ErrInvalidOperandKind, start, "%s does not accept %s", mnemonic, src)
	}
	a.trace(start, "%s %s, %s", mnemonic, RegOp(dst), src)
	return nil
}

// bmiVexNDS encodes the common VEX.NDS shape `OP dst, src1, src2`: dst and
// src1 are registers, src2 is the register/memory r/m operand.
func (a *Assembler) bmiVexNDS(dst, src1 Register, src2 Operand, pp ppField, mmap opcodeMap, opcode byte) error {
	if err := a.checkOpen(); err != nil {
		return err
	}
	start := a.buf.Offset()
	w := gpWBit(dst)
	switch src2.Kind {
	case OperandReg:
		f := vexFields{rExt: dst.extBit(), bExt: src2.Reg.extBit(), vvvv: src1.id, wBit: w, pp: pp, mmap: mmap}
		emitVEX(a.buf, f)
		a.buf.EmitU8(opcode)
		modrm, _ := planRegisterOperand(dst.low3(), src2.Reg)
		a.buf.EmitU8(modrm)
	case OperandMem:
		plan, err := planMemOperand(a.buf.Offset(), dst.low3(), src2.Mem, a.mode)
		if err != nil {
			return err
		}
		f := vexFields{rExt: dst.extBit(), xExt: plan.rexX, bExt: plan.rexB, vvvv: src1.id, wBit: w, pp: pp, mmap: mmap}
		emitVEX(a.buf, f)
		a.buf.EmitU8(opcode)
		emitMem(a.buf, a.lm, a.mode, plan)
	default:
		return newErr(ErrInvalidOperandKind, start, "opcode 0x%x does not accept %s", opcode, src2)
	}
	a.trace(start, "bmi 0x%x %s, %s, %s", opcode, RegOp(dst), RegOp(src1), src2)
	return nil
}

// bmiVexNDSSwapped is bmiVexNDS with the parameter order of
// BEXTR/BZHI/SARX/SHLX/SHRX: the r/m operand (the value being
// shifted/extracted/masked) is the last argument and the control register
// the middle one. dst goes in ModRM.reg, rm in ModRM.r/m and the control
// register in VEX.vvvv.
func (a *Assembler) bmiVexNDSSwapped(dst, vvvvSrc Register, rm Operand, pp ppField, mmap opcodeMap, opcode byte) error {
	if err := a.checkOpen(); err != nil {
		return err
	}
	start := a.buf.Offset()
	w := gpWBit(dst)
	switch rm.Kind {
	case OperandReg:
		f := vexFields{rExt: dst.extBit(), bExt: rm.Reg.extBit(), vvvv: vvvvSrc.id, wBit: w, pp: pp, mmap: mmap}
		emitVEX(a.buf, f)
		a.buf.EmitU8(opcode)
		modrm, _ := planRegisterOperand(dst.low3(), rm.Reg)
		a.buf.EmitU8(modrm)
	case OperandMem:
		plan, err := planMemOperand(a.buf.Offset(), dst.low3(), rm.Mem, a.mode)
		if err != nil {
			return err
		}
		f := vexFields{rExt: dst.extBit(), xExt: plan.rexX, bExt: plan.rexB, vvvv: vvvvSrc.id, wBit: w, pp: pp, mmap: mmap}
		emitVEX(a.buf, f)
		a.buf.EmitU8(opcode)
		emitMem(a.buf, a.lm, a.mode, plan)
	default:
		return newErr(ErrInvalidOperandKind, start, "opcode 0x%x does not accept %s", opcode, rm)
	}
	a.trace(start, "bmi 0x%x %s, %s, %s", opcode, RegOp(dst), rm, RegOp(vvvvSrc))
	return nil
}

func gpWBit(r Register) byte {
	if r.SizeBits() == 64 {
		return 1
	}
	return 0
}

// adxOps holds ADCX/ADOX: legacy-encoded (no VEX) 66/F3 0F38 F6 /r, each the
// extended-precision-carry counterpart of ADC using CF/OF respectively
// instead of sharing one flag.
var adxOps = map[string]byte{"ADCX": legacyOperandSize16, "ADOX": legacyRepPrefix}

// ADX encodes ADCX/ADOX `dst, src`.
func (a *Assembler) ADX(mnemonic string, dst Register, src Operand) error {
	if err := a.checkOpen(); err != nil {
		return err
	}
	prefix, ok := adxOps[mnemonic]
	if !ok {
		return newErr(ErrUnsupportedInstruction, a.buf.Offset(), "unknown ADX mnemonic %s", mnemonic)
	}
	start := a.buf.Offset()
	a.buf.EmitU8(prefix)
	w := gpWBit(dst)
	switch src.Kind {
	case OperandReg:
		emitREX(a.buf, rex{w: w, r: dst.extBit(), b: src.Reg.extBit()})
		a.buf.EmitU8(0x0F)
		a.buf.EmitU8(0x38)
		a.buf.EmitU8(0xF6)
		modrm, _ := planRegisterOperand(dst.low3(), src.Reg)
		a.buf.EmitU8(modrm)
	case OperandMem:
		plan, err := planMemOperand(a.buf.Offset(), dst.low3(), src.Mem, a.mode)
		if err != nil {
			return err
		}
		emitREX(a.buf, rex{w: w, r: dst.extBit(), x: plan.rexX, b: plan.rexB})
		a.buf.EmitU8(0x0F)
		a.buf.EmitU8(0x38)
		a.buf.EmitU8(0xF6)
		emitMem(a.buf, a.lm, a.mode, plan)
	default:
		return newErr(ErrInvalidOperandKind, start, "%s does not accept %s", mnemonic, src)
	}
	a.trace(start, "%s %s, %s", mnemonic, RegOp(dst), src)
	return nil
}
