//go:build linux

package x86asm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAssembleToExecutable(t *testing.T) {
	a := NewAssembler(Mode64)
	require.NoError(t, a.MOV(RegOp(RAX), ImmOp(I32(42))))
	require.NoError(t, a.StandAlone("RET"))

	exe, err := AssembleToExecutable(a)
	require.NoError(t, err)
	defer exe.Close()

	require.NotZero(t, exe.EntryPoint())
	require.Equal(t, 6, exe.Len())
}

func TestAssembleToExecutableRejectsEmpty(t *testing.T) {
	a := NewAssembler(Mode64)
	_, err := AssembleToExecutable(a)
	require.Error(t, err)
}
