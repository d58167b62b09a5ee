package x86asm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMovRegToReg(t *testing.T) {
	a := NewAssembler(Mode64)
	require.NoError(t, a.MOV(RegOp(RAX), RegOp(RBX)))
	code, _, err := a.Finalize()
	require.NoError(t, err)
	require.Equal(t, []byte{0x48, 0x89, 0xD8}, code)
}

func TestMovRegImmZeroExtendShortcut(t *testing.T) {
	a := NewAssembler(Mode64)
	require.NoError(t, a.MOV(RegOp(RCX), ImmOp(I32(1))))
	code, _, err := a.Finalize()
	require.NoError(t, err)
	require.Equal(t, []byte{0xB9, 0x01, 0x00, 0x00, 0x00}, code)
}

func TestMovRegImm64NoOptimization(t *testing.T) {
	a := NewAssembler(Mode64, WithMovImm64Optimization(false))
	require.NoError(t, a.MOV(RegOp(RCX), ImmOp(I64(1))))
	code, _, err := a.Finalize()
	require.NoError(t, err)
	require.Equal(t, []byte{0x48, 0xB9, 0x01, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00}, code)
}

func TestAddMemBaseDispReg(t *testing.T) {
	a := NewAssembler(Mode64)
	require.NoError(t, a.ALU("ADD", MemOp(M(RBP, 0)), RegOp(RAX)))
	code, _, err := a.Finalize()
	require.NoError(t, err)
	require.Equal(t, []byte{0x48, 0x01, 0x45, 0x00}, code)
}

func TestLeaRipRelative(t *testing.T) {
	a := NewAssembler(Mode64)
	l := a.NewLabel()
	require.NoError(t, a.LEA(RAX, MLabel(l)))
	// Bind the label 0x10 bytes after the end of the LEA instruction, so the
	// resolved rel32 displacement is exactly 0x10.
	for i := 0; i < 0x10; i++ {
		require.NoError(t, a.StandAlone("NOP"))
	}
	require.NoError(t, a.Bind(l))
	code, _, err := a.Finalize()
	require.NoError(t, err)
	require.Equal(t, []byte{0x48, 0x8D, 0x05, 0x10, 0x00, 0x00, 0x00}, code[:7])
}

func TestVxorpsShortFormVEX(t *testing.T) {
	a := NewAssembler(Mode64)
	xmm1 := XMM(1)
	require.NoError(t, a.VexALU3("VXORPS", xmm1, xmm1, RegOp(xmm1)))
	code, _, err := a.Finalize()
	require.NoError(t, err)
	require.Equal(t, []byte{0xC5, 0xF0, 0x57, 0xC9}, code)
}

func TestVaddpsZmmEVEX(t *testing.T) {
	a := NewAssembler(Mode64)
	require.NoError(t, a.EvexALU3("VADDPS", ZMM(1), ZMM(2), RegOp(ZMM(3)), MaskOp{}))
	code, _, err := a.Finalize()
	require.NoError(t, err)
	require.Equal(t, []byte{0x62, 0xF1, 0x6C, 0x48, 0x58, 0xCB}, code)
}
