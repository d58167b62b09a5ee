package x86asm

// FixupKind identifies how a deferred displacement/address must be
// computed once its target label is bound.
type FixupKind byte

const (
	FixupRel8 FixupKind = iota
	FixupRel32
	FixupRipRel32
	FixupAbs32
	FixupAbs64
)

// Label is issued by LabelManager. Unbound on creation; Bind records its
// offset in the buffer exactly once. Rebinding is an error.
type Label struct {
	id     int
	bound  bool
	offset int
}

// Bound reports whether Bind has been called for this label.
func (l *Label) Bound() bool { return l.bound }

// Offset returns the bound offset; only valid if Bound() is true.
func (l *Label) Offset() int { return l.offset }

// fixup is a deferred patch: at finalize, the byte(s) at Offset must be
// overwritten with a value computed from Target's now-known offset.
type fixup struct {
	target *Label
	offset int // buffer offset of the displacement/address field
	kind   FixupKind
	addend int64
}

// LabelManager issues labels and tracks pending fixups keyed by
// (buffer offset, relocation kind, addend), resolving them all at
// finalize time. A LabelManager is owned by exactly one Assembler for the
// duration of one encoding session, with no back-references and no
// shared ownership.
type LabelManager struct {
	labels  []*Label
	fixups  []fixup
}

// NewLabelManager returns an empty, ready to use LabelManager.
func NewLabelManager() *LabelManager {
	return &LabelManager{}
}

// NewLabel issues a fresh, unbound label.
func (m *LabelManager) NewLabel() *Label {
	l := &Label{id: len(m.labels)}
	m.labels = append(m.labels, l)
	return l
}

// Bind records l's offset as the buffer's current length. Fails with
// ErrLabelRebind if l is already bound.
func (m *LabelManager) Bind(l *Label, bufferOffset int) error {
	if l.bound {
		return newErr(ErrLabelRebind, bufferOffset, "label already bound at offset 0x%x", l.offset)
	}
	l.bound = true
	l.offset = bufferOffset
	return nil
}

// AddFixup records a deferred patch against target, to be resolved when
// ResolveAll runs. Fixups may be added against a label in either lifecycle
// state; those against an already-bound label are still deferred here for
// uniformity.
func (m *LabelManager) AddFixup(target *Label, atOffset int, kind FixupKind, addend int64) {
	m.fixups = append(m.fixups, fixup{target: target, offset: atOffset, kind: kind, addend: addend})
}

// ResolveAll walks the pending fixup list and patches every referring site
// in buf with the value computed from its (now-bound) target offset. It
// stops at the first failing fixup, reporting an unbound target as
// ErrLabelUnbound or an out-of-range displacement as
// ErrDisplacementOverflow; fixups patched before that one stay patched and
// later ones are left unpatched.
func (m *LabelManager) ResolveAll(buf *CodeBuffer) error {
	for _, f := range m.fixups {
		if !f.target.bound {
			return newErr(ErrLabelUnbound, f.offset, "label id %d never bound", f.target.id)
		}
		target := int64(f.target.offset)

		switch f.kind {
		case FixupRel8:
			v := target - int64(f.offset+1)
			if !fitsSigned(v, 8) {
				return newErr(ErrDisplacementOverflow, f.offset, "rel8 displacement %d out of range", v)
			}
			buf.PatchU8At(f.offset, byte(int8(v)))
		case FixupRel32, FixupRipRel32:
			v := target - int64(f.offset+4)
			if !fitsSigned(v, 32) {
				return newErr(ErrDisplacementOverflow, f.offset, "rel32 displacement %d out of range", v)
			}
			buf.PatchU32LEAt(f.offset, uint32(int32(v)))
		case FixupAbs32:
			v := target + f.addend
			buf.PatchU32LEAt(f.offset, uint32(v))
		case FixupAbs64:
			v := target + f.addend
			buf.PatchU64LEAt(f.offset, uint64(v))
		}
	}
	// After finalization Assembler rejects further encoding (and so further
	// fixups) and Bind; NewLabel is not checked (see assembler.go).
	return nil
}

// ExportedLabels returns every bound label's final offset, handed to the
// caller after Finalize alongside the immutable byte slice.
func (m *LabelManager) ExportedLabels() map[int]int {
	out := make(map[int]int, len(m.labels))
	for _, l := range m.labels {
		if l.bound {
			out[l.id] = l.offset
		}
	}
	return out
}
