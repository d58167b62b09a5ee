package x86asm

// aesOps describes one AES-NI instruction: legacy-encoded, 66 0F 38, a
// two-operand `OP dst, src` over XMM registers.
var aesOps = map[string]byte{
	"AESENC":     0xDC,
	"AESENCLAST": 0xDD,
	"AESDEC":     0xDE,
	"AESDECLAST": 0xDF,
	"AESIMC":     0xDB,
}

// AES encodes one of AESENC/AESENCLAST/AESDEC/AESDECLAST/AESIMC.
func (a *Assembler) AES(mnemonic string, dst Register, src Operand) error {
	if err := a.checkOpen(); err != nil {
		return err
	}
	opcode, ok := aesOps[mnemonic]
	if !ok {
		return newErr(ErrUnsupportedInstruction, a.buf.Offset(), "unknown AES mnemonic %s", mnemonic)
	}
	start := a.buf.Offset()
	a.buf.EmitU8(legacyOperandSize16)
	switch src.Kind {
	case OperandReg:
		emitREX(a.buf, rex{r: dst.extBit(), b: src.Reg.extBit()})
		a.buf.EmitU8(0x0F)
		a.buf.EmitU8(0x38)
		a.buf.EmitU8(opcode)
		modrm, _ := planRegisterOperand(dst.low3(), src.Reg)
		a.buf.EmitU8(modrm)
	case OperandMem:
		plan, err := planMemOperand(a.buf.Offset(), dst.low3(), src.Mem, a.mode)
		if err != nil {
			return err
		}
		emitREX(a.buf, rex{r: dst.extBit(), x: plan.rexX, b: plan.rexB})
		a.buf.EmitU8(0x0F)
		a.buf.EmitU8(0x38)
		a.buf.EmitU8(opcode)
		emitMem(a.buf, a.lm, a.mode, plan)
	default:
		return newErr(ErrInvalidOperandKind, start, "%s does not accept %s", mnemonic, src)
	}
	a.trace(start, "%s %s, %s", mnemonic, RegOp(dst), src)
	return nil
}

// AESKeygenAssist encodes AESKEYGENASSIST `dst, src, imm8` (66 0F 3A DF).
func (a *Assembler) AESKeygenAssist(dst Register, src Operand, imm byte) error {
	if err := a.checkOpen(); err != nil {
		return err
	}
	start := a.buf.Offset()
	a.buf.EmitU8(legacyOperandSize16)
	switch src.Kind {
	case OperandReg:
		emitREX(a.buf, rex{r: dst.extBit(), b: src.Reg.extBit()})
		a.buf.EmitU8(0x0F)
		a.buf.EmitU8(0x3A)
		a.buf.EmitU8(0xDF)
		modrm, _ := planRegisterOperand(dst.low3(), src.Reg)
		a.buf.EmitU8(modrm)
	case OperandMem:
		plan, err := planMemOperand(a.buf.Offset(), dst.low3(), src.Mem, a.mode)
		if err != nil {
			return err
		}
		emitREX(a.buf, rex{r: dst.extBit(), x: plan.rexX, b: plan.rexB})
		a.buf.EmitU8(0x0F)
		a.buf.EmitU8(0x3A)
		a.buf.EmitU8(0xDF)
		emitMem(a.buf, a.lm, a.mode, plan)
	default:
		return newErr(ErrInvalidOperandKind, start, "AESKEYGENASSIST does not accept %s", src)
	}
	a.buf.EmitU8(imm)
	a.trace(start, "AESKEYGENASSIST %s, %s, 0x%x", RegOp(dst), src, imm)
	return nil
}

// shaOps describes one SHA extension instruction: legacy-encoded, 0F 38,
// no mandatory prefix.
var shaOps = map[string]byte{
	"SHA1NEXTE":  0xC8,
	"SHA1MSG1":   0xC9,
	"SHA1MSG2":   0xCA,
	"SHA256RNDS2": 0xCB,
	"SHA256MSG1": 0xCC,
	"SHA256MSG2": 0xCD,
}

// SHA encodes one of the two-operand SHA1/SHA256 instructions (SHA1RNDS4
// is a three-operand imm8 form handled separately).
func (a *Assembler) SHA(mnemonic string, dst Register, src Operand) error {
	if err := a.checkOpen(); err != nil {
		return err
	}
	opcode, ok := shaOps[mnemonic]
	if !ok {
		return newErr(ErrUnsupportedInstruction, a.buf.Offset(), "unknown SHA mnemonic %s", mnemonic)
	}
	start := a.buf.Offset()
	switch src.Kind {
	case OperandReg:
		emitREX(a.buf, rex{r: dst.extBit(), b: src.Reg.extBit()})
		a.buf.EmitU8(0x0F)
		a.buf.EmitU8(0x38)
		a.buf.EmitU8(opcode)
		modrm, _ := planRegisterOperand(dst.low3(), src.Reg)
		a.buf.EmitU8(modrm)
	case OperandMem:
		plan, err := planMemOperand(a.buf.Offset(), dst.low3(), src.Mem, a.mode)
		if err != nil {
			return err
		}
		emitREX(a.buf, rex{r: dst.extBit(), x: plan.rexX, b: plan.rexB})
		a.buf.EmitU8(0x0F)
		a.buf.EmitU8(0x38)
		a.buf.EmitU8(opcode)
		emitMem(a.buf, a.lm, a.mode, plan)
	default:
		return newErr(ErrInvalidOperandKind, start, "%s does not accept %s", mnemonic, src)
	}
	a.trace(start, "%s %s, %s", mnemonic, RegOp(dst), src)
	return nil
}

// SHA1RNDS4 encodes `SHA1RNDS4 dst, src, imm8` (0F 3A CC).
func (a *Assembler) SHA1RNDS4(dst Register, src Operand, imm byte) error {
	if err := a.checkOpen(); err != nil {
		return err
	}
	start := a.buf.Offset()
	switch src.Kind {
	case OperandReg:
		emitREX(a.buf, rex{r: dst.extBit(), b: src.Reg.extBit()})
		a.buf.EmitU8(0x0F)
		a.buf.EmitU8(0x3A)
		a.buf.EmitU8(0xCC)
		modrm, _ := planRegisterOperand(dst.low3(), src.Reg)
		a.buf.EmitU8(modrm)
	case OperandMem:
		plan, err := planMemOperand(a.buf.Offset(), dst.low3(), src.Mem, a.mode)
		if err != nil {
			return err
		}
		emitREX(a.buf, rex{r: dst.extBit(), x: plan.rexX, b: plan.rexB})
		a.buf.EmitU8(0x0F)
		a.buf.EmitU8(0x3A)
		a.buf.EmitU8(0xCC)
		emitMem(a.buf, a.lm, a.mode, plan)
	default:
		return newErr(ErrInvalidOperandKind, start, "SHA1RNDS4 does not accept %s", src)
	}
	a.buf.EmitU8(imm)
	a.trace(start, "SHA1RNDS4 %s, %s, 0x%x", RegOp(dst), src, imm)
	return nil
}
