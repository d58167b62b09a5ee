package x86asm

// The Jcc encoders derive their opcodes from a CondCode: 0x70+cc (rel8) and
// 0x0F 0x80+cc (rel32), the same "tttn" nibble SETcc/CMOVcc use.

// JmpLabel encodes an unconditional JMP to a label, defaulting to the
// 5-byte rel32 form. Use JmpLabelRel8 to opt into the 2-byte rel8 form for
// a reference known to be short; a rel8 fixup whose resolved displacement
// does not fit a signed byte is reported as ErrDisplacementOverflow at
// Finalize rather than silently widened, since the direct-encode model has
// no reassembly pass to fall back on.
func (a *Assembler) JmpLabel(l *Label) error {
	return a.jmpOrCallLabel(0xE9, l, FixupRel32)
}

// JmpLabelRel8 encodes JMP to a label using the short rel8 form.
func (a *Assembler) JmpLabelRel8(l *Label) error {
	return a.jmpOrCallLabel(0xEB, l, FixupRel8)
}

// CallLabel encodes CALL to a label; CALL has no rel8 form.
func (a *Assembler) CallLabel(l *Label) error {
	return a.jmpOrCallLabel(0xE8, l, FixupRel32)
}

func (a *Assembler) jmpOrCallLabel(opcode byte, l *Label, kind FixupKind) error {
	if err := a.checkOpen(); err != nil {
		return err
	}
	start := a.buf.Offset()
	a.buf.EmitU8(opcode)
	at := a.buf.Offset()
	if kind == FixupRel8 {
		a.buf.EmitU8(0)
	} else {
		a.buf.EmitU32LE(0)
	}
	a.lm.AddFixup(l, at, kind, 0)
	a.trace(start, "0x%x -> label", opcode)
	return nil
}

// JccLabel encodes a conditional jump to a label, defaulting to the 6-byte
// rel32 form (0F 80+cc). Use JccLabelRel8 for the 2-byte short form.
func (a *Assembler) JccLabel(cc CondCode, l *Label) error {
	if err := a.checkOpen(); err != nil {
		return err
	}
	start := a.buf.Offset()
	a.buf.EmitU8(0x0F)
	a.buf.EmitU8(0x80 + byte(cc))
	at := a.buf.Offset()
	a.buf.EmitU32LE(0)
	a.lm.AddFixup(l, at, FixupRel32, 0)
	a.trace(start, "J%d -> label", cc)
	return nil
}

// JccLabelRel8 encodes a conditional jump to a label using the short rel8
// form (0x70+cc).
func (a *Assembler) JccLabelRel8(cc CondCode, l *Label) error {
	if err := a.checkOpen(); err != nil {
		return err
	}
	start := a.buf.Offset()
	a.buf.EmitU8(0x70 + byte(cc))
	at := a.buf.Offset()
	a.buf.EmitU8(0)
	a.lm.AddFixup(l, at, FixupRel8, 0)
	a.trace(start, "J%d(rel8) -> label", cc)
	return nil
}

// JmpIndirect encodes JMP through a register or memory operand (FF /4).
func (a *Assembler) JmpIndirect(rm Operand) error {
	return a.indirectControl(0xFF, 4, rm, "JMP")
}

// CallIndirect encodes CALL through a register or memory operand (FF /2;
// JMP indirect is FF /4).
func (a *Assembler) CallIndirect(rm Operand) error {
	return a.indirectControl(0xFF, 2, rm, "CALL")
}

func (a *Assembler) indirectControl(opcode, ext byte, rm Operand, name string) error {
	if err := a.checkOpen(); err != nil {
		return err
	}
	start := a.buf.Offset()
	switch rm.Kind {
	case OperandReg:
		if rm.Reg.SizeBits() != 64 && a.mode == Mode64 {
			return newErr(ErrOperandSizeMismatch, start, "%s indirect requires a 64-bit register in 64-bit mode", name)
		}
		modrm, extB := planRegisterOperand(ext, rm.Reg)
		emitREX(a.buf, rex{b: extB})
		a.buf.EmitU8(opcode)
		a.buf.EmitU8(modrm)
	case OperandMem:
		plan, err := planMemOperand(a.buf.Offset(), ext, rm.Mem, a.mode)
		if err != nil {
			return err
		}
		emitREX(a.buf, rex{x: plan.rexX, b: plan.rexB})
		a.buf.EmitU8(opcode)
		emitMem(a.buf, a.lm, a.mode, plan)
	default:
		return newErr(ErrInvalidOperandKind, start, "%s indirect does not accept %s", name, rm)
	}
	a.trace(start, "%s %s", name, rm)
	return nil
}
