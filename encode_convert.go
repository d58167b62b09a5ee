package x86asm

// convertGPToXMM describes CVTSI2SS/CVTSI2SD: a GP (or 32/64-bit memory)
// source converted into the low element of an XMM destination. REX.W
// selects the 64-bit integer source form.
var convertGPToXMM = map[string]byte{
	"CVTSI2SS": legacyRepPrefix,
	"CVTSI2SD": legacyRepnePrefix,
}

// ConvertGPToXMM encodes CVTSI2SS/CVTSI2SD `dst(xmm), src(gp32/gp64 or mem)`.
func (a *Assembler) ConvertGPToXMM(mnemonic string, dst Register, src Operand) error {
	if err := a.checkOpen(); err != nil {
		return err
	}
	prefix, ok := convertGPToXMM[mnemonic]
	if !ok {
		return newErr(ErrUnsupportedInstruction, a.buf.Offset(), "unknown mnemonic %s", mnemonic)
	}
	start := a.buf.Offset()
	a.buf.EmitU8(prefix)
	switch src.Kind {
	case OperandReg:
		w := byte(0)
		if src.Reg.SizeBits() == 64 {
			w = 1
		}
		emitREX(a.buf, rex{w: w, r: dst.extBit(), b: src.Reg.extBit()})
		a.buf.EmitU8(0x0F)
		a.buf.EmitU8(0x2A)
		modrm, _ := planRegisterOperand(dst.low3(), src.Reg)
		a.buf.EmitU8(modrm)
	case OperandMem:
		w := byte(0)
		if src.Mem.SizeBytes == 8 {
			w = 1
		}
		plan, err := planMemOperand(a.buf.Offset(), dst.low3(), src.Mem, a.mode)
		if err != nil {
			return err
		}
		emitREX(a.buf, rex{w: w, r: dst.extBit(), x: plan.rexX, b: plan.rexB})
		a.buf.EmitU8(0x0F)
		a.buf.EmitU8(0x2A)
		emitMem(a.buf, a.lm, a.mode, plan)
	default:
		return newErr(ErrInvalidOperandKind, start, "%s does not accept %s", mnemonic, src)
	}
	a.trace(start, "%s %s, %s", mnemonic, RegOp(dst), src)
	return nil
}

// convertXMMToGP describes CVTSS2SI/CVTSD2SI and their truncating CVTTxx2SI
// forms: an XMM (or memory) source's low element converted to a GP
// destination, REX.W selecting the 64-bit result width.
var convertXMMToGP = map[string]struct {
	prefix byte
	opcode byte
}{
	"CVTSS2SI":  {prefix: legacyRepPrefix, opcode: 0x2D},
	"CVTSD2SI":  {prefix: legacyRepnePrefix, opcode: 0x2D},
	"CVTTSS2SI": {prefix: legacyRepPrefix, opcode: 0x2C},
	"CVTTSD2SI": {prefix: legacyRepnePrefix, opcode: 0x2C},
}

// ConvertXMMToGP encodes CVTSS2SI/CVTSD2SI/CVTTSS2SI/CVTTSD2SI `dst(gp), src(xmm or mem)`.
func (a *Assembler) ConvertXMMToGP(mnemonic string, dst Register, src Operand) error {
	if err := a.checkOpen(); err != nil {
		return err
	}
	op, ok := convertXMMToGP[mnemonic]
	if !ok {
		return newErr(ErrUnsupportedInstruction, a.buf.Offset(), "unknown mnemonic %s", mnemonic)
	}
	start := a.buf.Offset()
	a.buf.EmitU8(op.prefix)
	w := byte(0)
	if dst.SizeBits() == 64 {
		w = 1
	}
	switch src.Kind {
	case OperandReg:
		emitREX(a.buf, rex{w: w, r: dst.extBit(), b: src.Reg.extBit()})
		a.buf.EmitU8(0x0F)
		a.buf.EmitU8(op.opcode)
		modrm, _ := planRegisterOperand(dst.low3(), src.Reg)
		a.buf.EmitU8(modrm)
	case OperandMem:
		plan, err := planMemOperand(a.buf.Offset(), dst.low3(), src.Mem, a.mode)
		if err != nil {
			return err
		}
		emitREX(a.buf, rex{w: w, r: dst.extBit(), x: plan.rexX, b: plan.rexB})
		a.buf.EmitU8(0x0F)
		a.buf.EmitU8(op.opcode)
		emitMem(a.buf, a.lm, a.mode, plan)
	default:
		return newErr(ErrInvalidOperandKind, start, "%s does not accept %s", mnemonic, src)
	}
	a.trace(start, "%s %s, %s", mnemonic, RegOp(dst), src)
	return nil
}

// convertPacked describes CVTDQ2PS/CVTPS2DQ/CVTTPS2DQ: packed XMM-to-XMM
// conversions between four 32-bit integers and four packed singles, sharing
// opcode 0F 5B and differing only by mandatory prefix (none/66/F3).
var convertPacked = map[string]sseALU{
	"CVTDQ2PS":  {opcode: 0x5B},
	"CVTPS2DQ":  {mandatoryPrefix: legacyOperandSize16, opcode: 0x5B},
	"CVTTPS2DQ": {mandatoryPrefix: legacyRepPrefix, opcode: 0x5B},
}

// ConvertPacked encodes CVTDQ2PS/CVTPS2DQ/CVTTPS2DQ `dst(xmm), src(xmm or mem)`.
func (a *Assembler) ConvertPacked(mnemonic string, dst Register, src Operand) error {
	if err := a.checkOpen(); err != nil {
		return err
	}
	op, ok := convertPacked[mnemonic]
	if !ok {
		return newErr(ErrUnsupportedInstruction, a.buf.Offset(), "unknown mnemonic %s", mnemonic)
	}
	start := a.buf.Offset()
	if op.mandatoryPrefix != 0 {
		a.buf.EmitU8(op.mandatoryPrefix)
	}
	switch src.Kind {
	case OperandReg:
		emitREX(a.buf, rex{r: dst.extBit(), b: src.Reg.extBit()})
		a.buf.EmitU8(0x0F)
		a.buf.EmitU8(op.opcode)
		modrm, _ := planRegisterOperand(dst.low3(), src.Reg)
		a.buf.EmitU8(modrm)
	case OperandMem:
		plan, err := planMemOperand(a.buf.Offset(), dst.low3(), src.Mem, a.mode)
		if err != nil {
			return err
		}
		emitREX(a.buf, rex{r: dst.extBit(), x: plan.rexX, b: plan.rexB})
		a.buf.EmitU8(0x0F)
		a.buf.EmitU8(op.opcode)
		emitMem(a.buf, a.lm, a.mode, plan)
	default:
		return newErr(ErrInvalidOperandKind, start, "%s does not accept %s", mnemonic, src)
	}
	a.trace(start, "%s %s, %s", mnemonic, RegOp(dst), src)
	return nil
}
