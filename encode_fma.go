package x86asm

// fmaOp describes one FMA3 template: the "132/213/231" suffix names which
// operand holds the addend versus the two multiplicands, each a distinct
// opcode byte under the same VEX.DDS.66.0F38 prefix shape.
type fmaOp struct {
	opcode132, opcode213, opcode231 byte
	wBit                             byte
}

var fmaOps = map[string]fmaOp{
	"VFMADD_SD": {opcode132: 0x99, opcode213: 0xA9, opcode231: 0xB9, wBit: 1},
	"VFMADD_SS": {opcode132: 0x99, opcode213: 0xA9, opcode231: 0xB9},
	"VFMADD_PD": {opcode132: 0x98, opcode213: 0xA8, opcode231: 0xB8, wBit: 1},
	"VFMADD_PS": {opcode132: 0x98, opcode213: 0xA8, opcode231: 0xB8},
	"VFMSUB_SD": {opcode132: 0x9B, opcode213: 0xAB, opcode231: 0xBB, wBit: 1},
	"VFMSUB_PS": {opcode132: 0x9A, opcode213: 0xAA, opcode231: 0xBA},
	"VFNMADD_SD": {opcode132: 0x9D, opcode213: 0xAD, opcode231: 0xBD, wBit: 1},
}

// FmaTemplate selects which of the three FMA3 operand orderings to use:
// 132 computes dst = dst*src2 + src1, 213 computes dst = src1*dst + src2,
// 231 computes dst = src1*src2 + dst.
type FmaTemplate byte

const (
	Fma132 FmaTemplate = iota
	Fma213
	Fma231
)

// FMA3 encodes one of the VFMADD/VFMSUB/VFNMADD family in the requested
// operand-ordering template.
func (a *Assembler) FMA3(mnemonic string, tmpl FmaTemplate, dst, src1 Register, src2 Operand) error {
	if err := a.checkOpen(); err != nil {
		return err
	}
	op, ok := fmaOps[mnemonic]
	if !ok {
		return newErr(ErrUnsupportedInstruction, a.buf.Offset(), "unknown FMA mnemonic %s", mnemonic)
	}
	var opcode byte
	switch tmpl {
	case Fma132:
		opcode = op.opcode132
	case Fma213:
		opcode = op.opcode213
	case Fma231:
		opcode = op.opcode231
	}
	start := a.buf.Offset()

	switch src2.Kind {
	case OperandReg:
		f := vexFields{rExt: dst.extBit(), bExt: src2.Reg.extBit(), vvvv: src1.id, wBit: op.wBit, pp: pp66, mmap: map0F38}
		emitVEX(a.buf, f)
		a.buf.EmitU8(opcode)
		modrm, _ := planRegisterOperand(dst.low3(), src2.Reg)
		a.buf.EmitU8(modrm)
	case OperandMem:
		plan, err := planMemOperand(a.buf.Offset(), dst.low3(), src2.Mem, a.mode)
		if err != nil {
			return err
		}
		f := vexFields{rExt: dst.extBit(), xExt: plan.rexX, bExt: plan.rexB, vvvv: src1.id, wBit: op.wBit, pp: pp66, mmap: map0F38}
		emitVEX(a.buf, f)
		a.buf.EmitU8(opcode)
		emitMem(a.buf, a.lm, a.mode, plan)
	default:
		return newErr(ErrInvalidOperandKind, start, "%s does not accept %s", mnemonic, src2)
	}
	a.trace(start, "%s(%d) %s, %s, %s", mnemonic, tmpl, RegOp(dst), RegOp(src1), src2)
	return nil
}
