package x86asm

// sseALU describes a legacy (non-VEX) SSE/SSE2 two-operand `OP dst, src`
// instruction: opcode map 0F plus an optional mandatory prefix (66/F2/F3)
// standing in for what VEX.pp later formalizes.
type sseALU struct {
	mandatoryPrefix byte // 0 = none
	opcode          byte
}

var sseALUOps = map[string]sseALU{
	"ADDPS":  {opcode: 0x58},
	"ADDPD":  {mandatoryPrefix: legacyOperandSize16, opcode: 0x58},
	"ADDSS":  {mandatoryPrefix: legacyRepPrefix, opcode: 0x58},
	"ADDSD":  {mandatoryPrefix: legacyRepnePrefix, opcode: 0x58},
	"SUBPS":  {opcode: 0x5C},
	"SUBPD":  {mandatoryPrefix: legacyOperandSize16, opcode: 0x5C},
	"SUBSS":  {mandatoryPrefix: legacyRepPrefix, opcode: 0x5C},
	"SUBSD":  {mandatoryPrefix: legacyRepnePrefix, opcode: 0x5C},
	"MULPS":  {opcode: 0x59},
	"MULPD":  {mandatoryPrefix: legacyOperandSize16, opcode: 0x59},
	"MULSS":  {mandatoryPrefix: legacyRepPrefix, opcode: 0x59},
	"MULSD":  {mandatoryPrefix: legacyRepnePrefix, opcode: 0x59},
	"DIVPS":  {opcode: 0x5E},
	"DIVPD":  {mandatoryPrefix: legacyOperandSize16, opcode: 0x5E},
	"DIVSS":  {mandatoryPrefix: legacyRepPrefix, opcode: 0x5E},
	"DIVSD":  {mandatoryPrefix: legacyRepnePrefix, opcode: 0x5E},
	"XORPS":  {opcode: 0x57},
	"XORPD":  {mandatoryPrefix: legacyOperandSize16, opcode: 0x57},
	"ANDPS":  {opcode: 0x54},
	"ANDPD":  {mandatoryPrefix: legacyOperandSize16, opcode: 0x54},
	"ANDNPS": {opcode: 0x55},
	"ORPS":   {opcode: 0x56},
	"PXOR":   {mandatoryPrefix: legacyOperandSize16, opcode: 0xEF},
	"PAND":   {mandatoryPrefix: legacyOperandSize16, opcode: 0xDB},
	"POR":    {mandatoryPrefix: legacyOperandSize16, opcode: 0xEB},
	"PADDB":  {mandatoryPrefix: legacyOperandSize16, opcode: 0xFC},
	"PADDW":  {mandatoryPrefix: legacyOperandSize16, opcode: 0xFD},
	"PADDD":  {mandatoryPrefix: legacyOperandSize16, opcode: 0xFE},
	"PADDQ":  {mandatoryPrefix: legacyOperandSize16, opcode: 0xD4},
	"PSUBB":  {mandatoryPrefix: legacyOperandSize16, opcode: 0xF8},
	"PSUBD":  {mandatoryPrefix: legacyOperandSize16, opcode: 0xFA},
	"PCMPEQB": {mandatoryPrefix: legacyOperandSize16, opcode: 0x74},
	"PCMPEQD": {mandatoryPrefix: legacyOperandSize16, opcode: 0x76},
	"MINPS":   {opcode: 0x5D},
	"MINSS":   {mandatoryPrefix: legacyRepPrefix, opcode: 0x5D},
	"MAXPS":   {opcode: 0x5F},
	"MAXSS":   {mandatoryPrefix: legacyRepPrefix, opcode: 0x5F},
	"SQRTPS":  {opcode: 0x51},
	"SQRTSS":  {mandatoryPrefix: legacyRepPrefix, opcode: 0x51},
	"COMISS":  {opcode: 0x2F},
	"COMISD":  {mandatoryPrefix: legacyOperandSize16, opcode: 0x2F},
	"UCOMISS": {opcode: 0x2E},
	"UCOMISD": {mandatoryPrefix: legacyOperandSize16, opcode: 0x2E},
	"RCPSS":   {mandatoryPrefix: legacyRepPrefix, opcode: 0x53},
	"RSQRTSS": {mandatoryPrefix: legacyRepPrefix, opcode: 0x52},
}

// SSEAlu encodes a legacy-SSE two-operand `OP dst, src` where both dst and
// the register form of src are XMM registers.
func (a *Assembler) SSEAlu(mnemonic string, dst Register, src Operand) error {
	if err := a.checkOpen(); err != nil {
		return err
	}
	op, ok := sseALUOps[mnemonic]
	if !ok {
		return newErr(ErrUnsupportedInstruction, a.buf.Offset(), "unknown SSE mnemonic %s", mnemonic)
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

// sseMoves covers MOVUPS/MOVAPS/MOVDQU/MOVDQA: two-operand loads (opcode)
// and stores (opcode+1, except MOVDQU/MOVDQA which store with 0x7F), no
// mandatory-prefix mixing beyond the lookup.
var sseMoves = map[string]sseALU{
	"MOVUPS": {opcode: 0x10},
	"MOVAPS": {opcode: 0x28},
	"MOVUPD": {mandatoryPrefix: legacyOperandSize16, opcode: 0x10},
	"MOVAPD": {mandatoryPrefix: legacyOperandSize16, opcode: 0x28},
	"MOVDQU": {mandatoryPrefix: legacyRepPrefix, opcode: 0x6F},
	"MOVDQA": {mandatoryPrefix: legacyOperandSize16, opcode: 0x6F},
	"MOVSS":  {mandatoryPrefix: legacyRepPrefix, opcode: 0x10},
	"MOVSD":  {mandatoryPrefix: legacyRepnePrefix, opcode: 0x10},
}

// SSEMove encodes a legacy-SSE load/store move between an XMM register and
// an XMM register or memory operand.
func (a *Assembler) SSEMove(mnemonic string, dst, src Operand) error {
	if err := a.checkOpen(); err != nil {
		return err
	}
	mv, ok := sseMoves[mnemonic]
	if !ok {
		return newErr(ErrUnsupportedInstruction, a.buf.Offset(), "unknown SSE move mnemonic %s", mnemonic)
	}
	start := a.buf.Offset()
	if mv.mandatoryPrefix != 0 {
		a.buf.EmitU8(mv.mandatoryPrefix)
	}
	switch {
	case dst.Kind == OperandReg && src.Kind == OperandReg:
		emitREX(a.buf, rex{r: dst.Reg.extBit(), b: src.Reg.extBit()})
		a.buf.EmitU8(0x0F)
		a.buf.EmitU8(mv.opcode)
		modrm, _ := planRegisterOperand(dst.Reg.low3(), src.Reg)
		a.buf.EmitU8(modrm)
	case dst.Kind == OperandReg && src.Kind == OperandMem:
		plan, err := planMemOperand(a.buf.Offset(), dst.Reg.low3(), src.Mem, a.mode)
		if err != nil {
			return err
		}
		emitREX(a.buf, rex{r: dst.Reg.extBit(), x: plan.rexX, b: plan.rexB})
		a.buf.EmitU8(0x0F)
		a.buf.EmitU8(mv.opcode)
		emitMem(a.buf, a.lm, a.mode, plan)
	case dst.Kind == OperandMem && src.Kind == OperandReg:
		plan, err := planMemOperand(a.buf.Offset(), src.Reg.low3(), dst.Mem, a.mode)
		if err != nil {
			return err
		}
		emitREX(a.buf, rex{r: src.Reg.extBit(), x: plan.rexX, b: plan.rexB})
		a.buf.EmitU8(0x0F)
		storeOp := mv.opcode + 1
		if mv.opcode == 0x6F {
			storeOp = 0x7F
		}
		a.buf.EmitU8(storeOp)
		emitMem(a.buf, a.lm, a.mode, plan)
	default:
		return newErr(ErrInvalidOperandKind, start, "%s does not accept %s, %s", mnemonic, dst, src)
	}
	a.trace(start, "%s %s, %s", mnemonic, dst, src)
	return nil
}

// MOVD/MOVQ between a GP register and an XMM register (66 0F 6E load,
// 66 0F 7E store; MOVQ sets REX.W).
func (a *Assembler) MOVDQGP(mnemonic string, dst, src Operand) error {
	if err := a.checkOpen(); err != nil {
		return err
	}
	var w byte
	switch mnemonic {
	case "MOVD":
		w = 0
	case "MOVQ":
		w = 1
	default:
		return newErr(ErrUnsupportedInstruction, a.buf.Offset(), "unknown mnemonic %s", mnemonic)
	}
	start := a.buf.Offset()
	a.buf.EmitU8(legacyOperandSize16)
	switch {
	case dst.Kind == OperandReg && dst.Reg.IsVector() && src.Kind == OperandReg && !src.Reg.IsVector():
		emitREX(a.buf, rex{w: w, r: dst.Reg.extBit(), b: src.Reg.extBit()})
		a.buf.EmitU8(0x0F)
		a.buf.EmitU8(0x6E)
		modrm, _ := planRegisterOperand(dst.Reg.low3(), src.Reg)
		a.buf.EmitU8(modrm)
	case dst.Kind == OperandReg && !dst.Reg.IsVector() && src.Kind == OperandReg && src.Reg.IsVector():
		emitREX(a.buf, rex{w: w, r: src.Reg.extBit(), b: dst.Reg.extBit()})
		a.buf.EmitU8(0x0F)
		a.buf.EmitU8(0x7E)
		modrm, _ := planRegisterOperand(src.Reg.low3(), dst.Reg)
		a.buf.EmitU8(modrm)
	default:
		return newErr(ErrInvalidOperandKind, start, "%s requires one GP and one XMM operand", mnemonic)
	}
	a.trace(start, "%s %s, %s", mnemonic, dst, src)
	return nil
}

// sseCmpOps maps the scalar/packed CMPxx mnemonics to their mandatory
// prefix; all four share opcode 0F C2 /r ib, differing only by the
// prefix that also selects packed-vs-scalar and single-vs-double.
var sseCmpOps = map[string]byte{
	"CMPPS": 0,
	"CMPPD": legacyOperandSize16,
	"CMPSS": legacyRepPrefix,
	"CMPSD": legacyRepnePrefix,
}

// SSECompare encodes CMPSS/CMPSD/CMPPS/CMPPD `dst, src, imm8`: a two-operand
// XMM compare whose imm8 selects the predicate (EQ/LT/LE/UNORD/...).
func (a *Assembler) SSECompare(mnemonic string, dst Register, src Operand, predicate byte) error {
	if err := a.checkOpen(); err != nil {
		return err
	}
	prefix, ok := sseCmpOps[mnemonic]
	if !ok {
		return newErr(ErrUnsupportedInstruction, a.buf.Offset(), "unknown compare mnemonic %s", mnemonic)
	}
	start := a.buf.Offset()
	if prefix != 0 {
		a.buf.EmitU8(prefix)
	}
	switch src.Kind {
	case OperandReg:
		emitREX(a.buf, rex{r: dst.extBit(), b: src.Reg.extBit()})
		a.buf.EmitU8(0x0F)
		a.buf.EmitU8(0xC2)
		modrm, _ := planRegisterOperand(dst.low3(), src.Reg)
		a.buf.EmitU8(modrm)
	case OperandMem:
		plan, err := planMemOperand(a.buf.Offset(), dst.low3(), src.Mem, a.mode)
		if err != nil {
			return err
		}
		emitREX(a.buf, rex{r: dst.extBit(), x: plan.rexX, b: plan.rexB})
		a.buf.EmitU8(0x0F)
		a.buf.EmitU8(0xC2)
		emitMem(a.buf, a.lm, a.mode, plan)
	default:
		return newErr(ErrInvalidOperandKind, start, "%s does not accept %s", mnemonic, src)
	}
	a.buf.EmitU8(predicate)
	a.trace(start, "%s %s, %s, 0x%x", mnemonic, RegOp(dst), src, predicate)
	return nil
}
