package x86asm

// This file formats legacy/REX/VEX/EVEX prefixes. It never chooses which
// prefix family a given encoding needs — that decision belongs to the
// opcode table consulted by the caller; selection is driven by the
// mnemonic and operand shape, this file only formats the bytes.

const (
	legacyOperandSize16 = 0x66
	legacyAddressSize32 = 0x67
	legacyLockPrefix    = 0xF0
	legacyRepnePrefix   = 0xF2
	legacyRepPrefix     = 0xF3
)

// rex holds the four independent REX bits. Present reports whether any bit
// is set or a high-REX-form GP register (SPL/BPL/SIL/DIL) forces the
// prefix to be emitted even when W/R/X/B are all zero.
type rex struct {
	w, r, x, b byte
	forceByte  bool // true when a GP8 register with id 4..7 (SPL/BPL/SIL/DIL) is involved
}

func (p rex) present() bool {
	return p.w != 0 || p.r != 0 || p.x != 0 || p.b != 0 || p.forceByte
}

func (p rex) byteValue() byte {
	return 0x40 | (p.w << 3) | (p.r << 2) | (p.x << 1) | p.b
}

// emitREX writes the REX prefix if needed. It is the caller's
// responsibility to have already rejected a high-byte (AH/CH/DH/BH)
// register under a REX-forcing condition; see checkHighByteRex.
func emitREX(buf *CodeBuffer, p rex) {
	if p.present() {
		buf.EmitU8(p.byteValue())
	}
}

// checkHighByteRex enforces that a high-byte register (AH/CH/DH/BH) may
// never appear in an instruction whose encoding requires a REX prefix.
func checkHighByteRex(offset int, forcesRex bool, regs ...Register) error {
	if !forcesRex {
		return nil
	}
	for _, r := range regs {
		if r.IsHighByte() {
			return newErr(ErrHighByteWithRex, offset, "high-byte register used where REX is required")
		}
	}
	return nil
}

// vectorLen is the VEX.L / EVEX.L'L vector-length selector.
type vectorLen byte

const (
	lenLIG vectorLen = 0 // length-ignored (scalar SSE-style ops promoted to VEX)
	len128 vectorLen = 0
	len256 vectorLen = 1
	len512 vectorLen = 2
)

func lenOf(r Register) vectorLen {
	switch r.Kind() {
	case KindYMM:
		return len256
	case KindZMM:
		return len512
	default:
		return len128
	}
}

// opcodeMap is the two/three-byte opcode-escape family, encoded as VEX.mmmmm
// / EVEX.mm.
type opcodeMap byte

const (
	map0F opcodeMap = 1
	map0F38 opcodeMap = 2
	map0F3A opcodeMap = 3
)

// ppField is the VEX/EVEX "pp" mandatory-prefix substitute.
type ppField byte

const (
	ppNone ppField = 0
	pp66   ppField = 1
	ppF3   ppField = 2
	ppF2   ppField = 3
)

// vexFields carries the decoded extension/operand information the
// PrefixEmitter needs to format either a 2- or 3-byte VEX prefix.
type vexFields struct {
	rExt, xExt, bExt byte // one per extension bit, pre-one's-complement
	wBit             byte
	vvvv             byte // raw (non-inverted) vvvv source register id, 4 bits
	length           vectorLen
	pp               ppField
	mmap             opcodeMap
}

// emitVEX writes either the 2-byte (C5) or 3-byte (C4) VEX prefix,
// choosing the short form exactly when legal: REX.X and REX.B are
// both zero, the opcode map is 0F, and W is zero.
func emitVEX(buf *CodeBuffer, f vexFields) {
	canUseShort := f.xExt == 0 && f.bExt == 0 && f.mmap == map0F && f.wBit == 0
	notVvvv := (^f.vvvv) & 0b1111

	if canUseShort {
		buf.EmitU8(0xC5)
		b1 := ((^f.rExt & 1) << 7) | (notVvvv << 3) | (byte(f.length) << 2) | byte(f.pp)
		buf.EmitU8(b1)
		return
	}

	buf.EmitU8(0xC4)
	b1 := ((^f.rExt & 1) << 7) | ((^f.xExt & 1) << 6) | ((^f.bExt & 1) << 5) | byte(f.mmap)
	buf.EmitU8(b1)
	b2 := (f.wBit << 7) | (notVvvv << 3) | (byte(f.length) << 2) | byte(f.pp)
	buf.EmitU8(b2)
}

// evexFields carries the decoded information needed to format the 4-byte
// EVEX prefix.
type evexFields struct {
	rExt, xExt, bExt byte // low extension bits (bit 3 of the 4-bit register id)
	rPrimeExt        byte // high-16 extension of ModRM.reg (bit 4)
	vPrimeExt        byte // high bit of vvvv source (bit 4)
	wBit             byte
	vvvv             byte // low 4 bits of the vvvv source register id
	mmap             opcodeMap
	pp               ppField
	zeroing          byte // z bit: zeroing (1) vs merging (0) masking
	length           vectorLen
	broadcastOrRound byte // b bit: embedded broadcast / rounding / SAE
	aaa              byte // opmask register 0..7
}

// emitEVEX writes the 4-byte (0x62) EVEX prefix:
// P0=0x62; P1 carries inverted R,X,B and R'; P2 carries W, inverted vvvv
// low4, a fixed 1 bit, and pp; P3 carries z, L'L, b, V', aaa.
func emitEVEX(buf *CodeBuffer, f evexFields) {
	buf.EmitU8(0x62)

	p1 := ((^f.rExt & 1) << 7) | ((^f.xExt & 1) << 6) | ((^f.bExt & 1) << 5) |
		((^f.rPrimeExt & 1) << 4) | byte(f.mmap)
	buf.EmitU8(p1)

	notVvvv4 := (^f.vvvv) & 0b1111
	p2 := (f.wBit << 7) | (notVvvv4 << 3) | (1 << 2) | byte(f.pp)
	buf.EmitU8(p2)

	notVPrime := (^f.vPrimeExt) & 1
	p3 := (f.zeroing << 7) | (byte(f.length) << 5) | (f.broadcastOrRound << 4) |
		(notVPrime << 3) | (f.aaa & 0b111)
	buf.EmitU8(p3)
}
