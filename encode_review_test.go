package x86asm

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMovHighByteRegImmNoSpuriousRex(t *testing.T) {
	a := NewAssembler(Mode64)
	require.NoError(t, a.MOV(RegOp(AH), ImmOp(I8(1))))
	code, _, err := a.Finalize()
	require.NoError(t, err)
	require.Equal(t, []byte{0xB4, 0x01}, code)
}

func TestMovHighByteRegWithRexForcingPeerIsRejected(t *testing.T) {
	a := NewAssembler(Mode64)
	err := a.MOV(RegOp(AH), RegOp(GP8(R8)))
	require.Error(t, err)
	require.True(t, errors.Is(err, SentinelHighByteWithRex))
}

func TestTestHighByteRegWithRexForcingPeerIsRejected(t *testing.T) {
	a := NewAssembler(Mode64)
	err := a.TEST(RegOp(AH), RegOp(GP8(R9)))
	require.Error(t, err)
	require.True(t, errors.Is(err, SentinelHighByteWithRex))
}

func TestXchgHighByteRegWithRexForcingPeerIsRejected(t *testing.T) {
	a := NewAssembler(Mode64)
	err := a.XCHG(AH, GP8(R10))
	require.Error(t, err)
	require.True(t, errors.Is(err, SentinelHighByteWithRex))
}

func TestMemIndexWithoutBaseEncodesSIBNoBaseForm(t *testing.T) {
	a := NewAssembler(Mode64)
	mem := Mem{Index: RAX, IndexKind: MemIndexGP, Scale: 4, Disp: 0x10, SizeBytes: 4}
	require.NoError(t, a.ALU("ADD", RegOp(GP32(RAX)), MemOp(mem)))
	code, _, err := a.Finalize()
	require.NoError(t, err)
	require.Equal(t, []byte{0x03, 0x04, 0x85, 0x10, 0x00, 0x00, 0x00}, code)
}

func TestConvertSI2SD(t *testing.T) {
	a := NewAssembler(Mode64)
	require.NoError(t, a.ConvertGPToXMM("CVTSI2SD", XMM(0), RegOp(RAX)))
	code, _, err := a.Finalize()
	require.NoError(t, err)
	require.Equal(t, []byte{0xF2, 0x48, 0x0F, 0x2A, 0xC0}, code)
}

func TestCmpssPredicate(t *testing.T) {
	a := NewAssembler(Mode64)
	require.NoError(t, a.SSECompare("CMPSS", XMM(1), RegOp(XMM(2)), 0))
	code, _, err := a.Finalize()
	require.NoError(t, err)
	require.Equal(t, []byte{0xF3, 0x0F, 0xC2, 0xCA, 0x00}, code)
}

func TestMovssRegToReg(t *testing.T) {
	a := NewAssembler(Mode64)
	require.NoError(t, a.SSEMove("MOVSS", RegOp(XMM(0)), RegOp(XMM(1))))
	code, _, err := a.Finalize()
	require.NoError(t, err)
	require.Equal(t, []byte{0xF3, 0x0F, 0x10, 0xC1}, code)
}

func TestVpbroadcastdRegToReg(t *testing.T) {
	a := NewAssembler(Mode64)
	require.NoError(t, a.VBroadcast("VPBROADCASTD", YMM(1), RegOp(XMM(2))))
	code, _, err := a.Finalize()
	require.NoError(t, err)
	require.Equal(t, []byte{0xC4, 0xE2, 0x7D, 0x58, 0xCA}, code)
}
