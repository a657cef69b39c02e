package bytecode

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/moss-lang/moss/opcodes"
)

func TestWriteReadRoundTrip(t *testing.T) {
	bc := New("demo", 1700000000)
	bc.Append(&opcodes.Instruction{Op: opcodes.STORE_INT_CONST, Dst: 0, IntLit: 42})
	bc.Append(&opcodes.Instruction{Op: opcodes.STORE_INT_CONST, Dst: 1, IntLit: 8})
	bc.Append(&opcodes.Instruction{Op: opcodes.ADD, Dst: 2, Src1: 0, Src2: 1})
	bc.Append(&opcodes.Instruction{Op: opcodes.RETURN, Src1: 2})

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, bc))

	got, err := Read(&buf)
	require.NoError(t, err)

	require.Equal(t, bc.ModuleName, got.ModuleName)
	require.Equal(t, HeaderMagic, got.Header.IDTag)
	require.Equal(t, bc.Header.Version, got.Header.Version)
	require.Equal(t, bc.Header.Timestamp, got.Header.Timestamp)
	require.Len(t, got.Instructions, bc.Len())
	for i, in := range bc.Instructions {
		require.Equal(t, in, got.Instructions[i])
	}
}

func TestReadRejectsBadMagic(t *testing.T) {
	bc := New("demo", 0)
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, bc))

	corrupted := buf.Bytes()
	corrupted[0] ^= 0xFF
	_, err := Read(bytes.NewReader(corrupted))
	require.Error(t, err)
}

func TestReadRejectsChecksumMismatch(t *testing.T) {
	bc := New("demo", 0)
	bc.Append(&opcodes.Instruction{Op: opcodes.STORE_NIL_CONST, Dst: 0})
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, bc))

	corrupted := buf.Bytes()
	corrupted[len(corrupted)-1] ^= 0xFF
	_, err := Read(bytes.NewReader(corrupted))
	require.Error(t, err)
}

func TestPackUnpackVersion(t *testing.T) {
	v := packVersion(1, 2, 3)
	major, minor, patch := UnpackVersion(v)
	require.Equal(t, byte(1), major)
	require.Equal(t, byte(2), minor)
	require.Equal(t, byte(3), patch)
}

func TestBytecodeAppendAndAt(t *testing.T) {
	bc := New("m", 0)
	addr := bc.Append(&opcodes.Instruction{Op: opcodes.STORE_NIL_CONST, Dst: 0})
	require.Equal(t, opcodes.Address(0), addr)
	require.Equal(t, opcodes.STORE_NIL_CONST, bc.At(addr).Op)
	require.Nil(t, bc.At(opcodes.Address(99)))
}
