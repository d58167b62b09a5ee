package x86asm

// ConstPool collects binary constants referenced by RIP-relative loads
// (e.g. a MOVUPS/MOVDQU operand built from a label) and lays them out once,
// deduplicating by exact byte content so that two loads of the same mask or
// rounding constant share one copy.
type ConstPool struct {
	keys   map[string]*Label
	order  []string
	data   map[string][]byte
}

// NewConstPool returns an empty pool.
func NewConstPool() *ConstPool {
	return &ConstPool{keys: map[string]*Label{}, data: map[string][]byte{}}
}

// Label returns the label identifying data within the pool, creating a
// fresh binding on the assembler the first time this exact byte sequence is
// seen and reusing it on every subsequent call with the same content.
func (p *ConstPool) Label(a *Assembler, data []byte) *Label {
	key := string(data)
	if l, ok := p.keys[key]; ok {
		return l
	}
	l := a.NewLabel()
	p.keys[key] = l
	p.data[key] = data
	p.order = append(p.order, key)
	return l
}

// Ref returns a RIP-relative memory operand referencing data within the
// pool, sized to len(data), suitable for the memory operand of any encoder
// that accepts OperandMem (e.g. Assembler.SSEMove("MOVUPS", dst, ref)).
func (p *ConstPool) Ref(a *Assembler, data []byte) Operand {
	l := p.Label(a, data)
	return MemOp(MLabel(l).WithSize(len(data)))
}

// Flush binds every pending constant's label at the current offset and
// emits its bytes, in first-use order. Call once, after the last
// instruction that might reference a new constant and before Finalize;
// Finalize itself does not call Flush, since a caller may want the pool
// placed before a trailing jump table or some other tail data instead of
// immediately at the end of the code stream.
func (p *ConstPool) Flush(a *Assembler) error {
	for _, key := range p.order {
		l := p.keys[key]
		if l.Bound() {
			continue
		}
		if err := a.Bind(l); err != nil {
			return err
		}
		a.buf.EmitBytes(p.data[key])
	}
	return nil
}
