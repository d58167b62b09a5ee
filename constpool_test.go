package x86asm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConstPoolDedup(t *testing.T) {
	a := NewAssembler(Mode64)
	pool := NewConstPool()

	mask := []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
	ref1 := pool.Ref(a, mask)
	ref2 := pool.Ref(a, mask)
	require.Equal(t, ref1.Mem.Label, ref2.Mem.Label)

	require.NoError(t, a.SSEMove("MOVUPS", RegOp(XMM(0)), ref1))
	require.NoError(t, a.StandAlone("RET"))
	require.NoError(t, pool.Flush(a))

	code, _, err := a.Finalize()
	require.NoError(t, err)
	require.Len(t, code, 7+1+16) // MOVUPS xmm0, [rip+disp32] + RET + 16 bytes of constant data
}
