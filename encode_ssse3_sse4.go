package x86asm

// ssse3Sse4Op describes a legacy-encoded (66 0F 38 or 66 0F 3A) two-operand
// instruction from the SSSE3/SSE4.1 extensions.
type ssse3Sse4Op struct {
	escape byte // 0x38 or 0x3A
	opcode byte
	hasImm bool
}

var ssse3Sse4Ops = map[string]ssse3Sse4Op{
	"PSHUFB":   {escape: 0x38, opcode: 0x00},
	"PABSB":    {escape: 0x38, opcode: 0x1C},
	"PABSW":    {escape: 0x38, opcode: 0x1D},
	"PABSD":    {escape: 0x38, opcode: 0x1E},
	"PMOVZXBW": {escape: 0x38, opcode: 0x30},
	"PMOVZXWD": {escape: 0x38, opcode: 0x33},
	"PMOVZXDQ": {escape: 0x38, opcode: 0x35},
	"PMOVSXBW": {escape: 0x38, opcode: 0x20},
	"PMOVSXWD": {escape: 0x38, opcode: 0x23},
	"PMOVSXDQ": {escape: 0x38, opcode: 0x25},
	"PTEST":    {escape: 0x38, opcode: 0x17},
	"PALIGNR":  {escape: 0x3A, opcode: 0x0F, hasImm: true},
	"ROUNDPS":  {escape: 0x3A, opcode: 0x08, hasImm: true},
	"ROUNDSS":  {escape: 0x3A, opcode: 0x0A, hasImm: true},
	"BLENDPS":  {escape: 0x3A, opcode: 0x0C, hasImm: true},
	"PBLENDW":  {escape: 0x3A, opcode: 0x0E, hasImm: true},
	"INSERTPS": {escape: 0x3A, opcode: 0x21, hasImm: true},
	"EXTRACTPS": {escape: 0x3A, opcode: 0x17, hasImm: true},
	"PEXTRB":   {escape: 0x3A, opcode: 0x14, hasImm: true},
	"PEXTRD":   {escape: 0x3A, opcode: 0x16, hasImm: true},
	"PINSRB":   {escape: 0x3A, opcode: 0x20, hasImm: true},
	"PINSRD":   {escape: 0x3A, opcode: 0x22, hasImm: true},
}

// SSSE3SSE4 encodes `OP dst, src[, imm8]` from the SSSE3/SSE4.1 family;
// pass imm as 0 when the instruction in question has no immediate.
func (a *Assembler) SSSE3SSE4(mnemonic string, dst Register, src Operand, imm byte) error {
	if err := a.checkOpen(); err != nil {
		return err
	}
	op, ok := ssse3Sse4Ops[mnemonic]
	if !ok {
		return newErr(ErrUnsupportedInstruction, a.buf.Offset(), "unknown mnemonic %s", mnemonic)
	}
	start := a.buf.Offset()
	a.buf.EmitU8(legacyOperandSize16)
	switch src.Kind {
	case OperandReg:
		emitREX(a.buf, rex{r: dst.extBit(), b: src.Reg.extBit()})
		a.buf.EmitU8(0x0F)
		a.buf.EmitU8(op.escape)
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
		a.buf.EmitU8(op.escape)
		a.buf.EmitU8(op.opcode)
		emitMem(a.buf, a.lm, a.mode, plan)
	default:
		return newErr(ErrInvalidOperandKind, start, "%s does not accept %s", mnemonic, src)
	}
	if op.hasImm {
		a.buf.EmitU8(imm)
	}
	a.trace(start, "%s %s, %s", mnemonic, RegOp(dst), src)
	return nil
}
