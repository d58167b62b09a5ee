package x86asm

// Mode selects the target environment: it governs how label-only memory
// references resolve (RIP-relative in 64-bit mode, absolute in 32-bit
// mode) and whether REX/VEX.W/64-bit GP registers are legal at all.
type Mode byte

const (
	Mode32 Mode = iota
	Mode64
)

// modrmPlan is the fully computed ModRM/SIB/displacement shape for one
// memory or register operand, decided once up front so the extension bits
// (rexX/rexB/vsibIndexExt) are available before the caller formats
// whichever prefix family (REX/VEX/EVEX) the opcode table selected — the
// prefix always precedes ModRM/SIB in the byte stream, but the *decision*
// of which bits to set has to happen before any bytes are written.
type modrmPlan struct {
	modrm        byte
	hasSIB       bool
	sib          byte
	dispWidth    byte // 0, 8, or 32
	disp         int32
	rexX, rexB   byte // extension bits contributed by index/base
	vsibIndexExt byte // extension bit (id >= 8) of a VSIB vector index register; no encoder reads it
	isLabel      bool
	label        *Label
	labelDispW   byte // always 32 for label forms (rel32/ripRel32/abs32)
}

// planRegisterOperand computes the ModRM byte for a register-direct (mod
// = 11) operand, e.g. the r/m field of a register-to-register instruction,
// or the lone operand of a unary instruction.
func planRegisterOperand(regField byte, rm Register) (modrm byte, extB byte) {
	modrm = 0b11_000_000 | ((regField & 0b111) << 3) | rm.low3()
	return modrm, rm.extBit()
}

// planMemOperand computes the ModRM/SIB/displacement shape for a memory
// operand, including every x86 special case: RBP/R13 base forces an
// explicit (possibly zero) 1-byte
// displacement so the decoder cannot confuse it with the disp32-only
// escape; RSP/R12 base always requires SIB; no-base-no-index-no-label
// uses the SIB disp32-absolute escape; label-only references use the
// disp32 RIP-relative (64-bit) or absolute (32-bit) escape.
func planMemOperand(offset int, regField byte, m Mem, mode Mode) (modrmPlan, error) {
	if m.isLabelOnly() {
		if m.HasBase || m.IndexKind != MemIndexNone {
			return modrmPlan{}, newErr(ErrInvalidMemoryForm, offset, "label reference combined with base/index")
		}
		return modrmPlan{
			modrm:      0b00_000_101 | ((regField & 0b111) << 3),
			isLabel:    true,
			label:      m.Label,
			labelDispW: 32,
		}, nil
	}

	if !m.HasBase && m.IndexKind == MemIndexNone {
		// No base, no index, no label: disp32-absolute via the SIB escape.
		return modrmPlan{
			modrm:     0b00_000_100 | ((regField & 0b111) << 3),
			hasSIB:    true,
			sib:       0b00_100_101,
			dispWidth: 32,
			disp:      m.Disp,
		}, nil
	}

	if m.IndexKind == MemIndexGP && m.Index.id == RSP.id {
		return modrmPlan{}, newErr(ErrInvalidMemoryForm, offset, "RSP cannot be used as a SIB index")
	}
	if m.Scale != 1 && m.Scale != 2 && m.Scale != 4 && m.Scale != 8 {
		return modrmPlan{}, newErr(ErrInvalidScale, offset, "scale %d is not one of 1, 2, 4, 8", m.Scale)
	}

	if !m.HasBase && m.IndexKind != MemIndexNone {
		// [index*scale + disp32], no base: SIB.base=101 with mod=00 means
		// "no base" here rather than RBP/R13, so the disp32 that would
		// otherwise be optional is mandatory.
		var scaleBits byte
		switch m.Scale {
		case 1:
			scaleBits = 0b00
		case 2:
			scaleBits = 0b01
		case 4:
			scaleBits = 0b10
		case 8:
			scaleBits = 0b11
		}
		plan := modrmPlan{
			modrm:     0b00_000_100 | ((regField & 0b111) << 3),
			hasSIB:    true,
			sib:       (scaleBits << 6) | (m.Index.low3() << 3) | 0b101,
			dispWidth: 32,
			disp:      m.Disp,
			rexX:      m.Index.extBit(),
		}
		if m.IndexKind == MemIndexVector {
			plan.vsibIndexExt = m.Index.extBit()
		}
		return plan, nil
	}

	base := m.Base
	baseLow3 := base.low3()
	needsExplicitDisp := baseLow3 == 0b101 // RBP or R13: [R/M] form undefined, must carry a displacement.
	needsSIB := m.IndexKind != MemIndexNone || baseLow3 == 0b100 // index present, or RSP/R12 base.

	var dispWidth byte
	var mod byte
	switch {
	case m.Disp == 0 && !needsExplicitDisp:
		mod, dispWidth = 0b00, 0
	case fitsSigned(int64(m.Disp), 8):
		mod, dispWidth = 0b01, 8
	default:
		mod, dispWidth = 0b10, 32
	}

	plan := modrmPlan{dispWidth: dispWidth, disp: m.Disp}

	if needsSIB {
		plan.modrm = (mod << 6) | ((regField & 0b111) << 3) | 0b100
		plan.hasSIB = true
		plan.rexB = base.extBit()

		var scaleBits byte
		switch m.Scale {
		case 1:
			scaleBits = 0b00
		case 2:
			scaleBits = 0b01
		case 4:
			scaleBits = 0b10
		case 8:
			scaleBits = 0b11
		}

		var indexLow3 byte = 0b100 // "no index" encoding
		if m.IndexKind != MemIndexNone {
			indexLow3 = m.Index.low3()
			plan.rexX = m.Index.extBit()
			if m.IndexKind == MemIndexVector {
				plan.vsibIndexExt = m.Index.extBit()
			}
		}
		plan.sib = (scaleBits << 6) | (indexLow3 << 3) | baseLow3
	} else {
		plan.modrm = (mod << 6) | ((regField & 0b111) << 3) | baseLow3
		plan.rexB = base.extBit()
	}

	return plan, nil
}

// fixupKindForMode returns the relocation kind used for a label-only
// memory reference under the given target mode.
func fixupKindForMode(mode Mode) FixupKind {
	if mode == Mode64 {
		return FixupRipRel32
	}
	return FixupAbs32
}

// emitMem writes the already-planned ModRM byte, optional SIB byte, and
// displacement (or label placeholder + fixup registration) to buf. This
// must run immediately after the primary opcode byte(s) have been
// written, so that a recorded fixup's offset is correct and, for
// ripRel32, so the "RIP at execution time" is unambiguously the byte
// right after the four placeholder bytes this call emits.
func emitMem(buf *CodeBuffer, lm *LabelManager, mode Mode, plan modrmPlan) {
	buf.EmitU8(plan.modrm)
	if plan.hasSIB {
		buf.EmitU8(plan.sib)
	}

	if plan.isLabel {
		at := buf.Offset()
		buf.EmitU32LE(0)
		lm.AddFixup(plan.label, at, fixupKindForMode(mode), 0)
		return
	}

	switch plan.dispWidth {
	case 8:
		buf.EmitU8(byte(int8(plan.disp)))
	case 32:
		buf.EmitU32LE(uint32(plan.disp))
	}
}
