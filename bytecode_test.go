package noct

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBytecode_RoundTripSimpleProgram(t *testing.T) {
	b := NewBytecodeBuilder("test.ncb")
	b.IConst(0, 10)
	b.IConst(1, 32)
	b.Bin(OpAdd, 2, 0, 1)
	b.Ret(2)

	bc, err := DecodeBytecode("test.ncb", b.Build())
	require.NoError(t, err)
	require.Len(t, bc.Code, 4)
	assert.Equal(t, OpIConst, bc.Code[0].Op)
	assert.Equal(t, int32(10), bc.Code[0].Imm32)
	assert.Equal(t, OpAdd, bc.Code[2].Op)
	assert.Equal(t, uint16(2), bc.Code[2].Dst)
	assert.Equal(t, OpRet, bc.Code[3].Op)
}

func TestBytecode_RoundTripStringAndSymbol(t *testing.T) {
	b := NewBytecodeBuilder("test.ncb")
	b.SConst(0, "hello")
	b.StoreSymbol(0, "greeting")
	b.LoadSymbol(1, "greeting")
	b.Ret(1)

	bc, err := DecodeBytecode("test.ncb", b.Build())
	require.NoError(t, err)
	require.Len(t, bc.Strings, 2)
	assert.Equal(t, "hello", bc.Strings[0].Data)
	assert.Equal(t, fnv1a32("hello"), bc.Strings[0].Hash)
	assert.Equal(t, "greeting", bc.Strings[1].Data)
}

func TestBytecode_RoundTripJumpsWithLabels(t *testing.T) {
	b := NewBytecodeBuilder("test.ncb")
	top := b.NewLabel()
	done := b.NewLabel()
	b.IConst(0, 0)
	b.Label(top)
	b.JmpIfTrue(0, done)
	b.Inc(0)
	b.Jmp(top)
	b.Label(done)
	b.Ret(0)

	bc, err := DecodeBytecode("test.ncb", b.Build())
	require.NoError(t, err)

	// IConst, JmpIfTrue, Inc, Jmp, Ret
	require.Len(t, bc.Code, 5)
	assert.Equal(t, uint32(4), bc.Code[1].Target, "JmpIfTrue should target the RET instruction")
	assert.Equal(t, uint32(1), bc.Code[3].Target, "Jmp should target back to JmpIfTrue")
}

func TestBytecode_RoundTripCallWithArgs(t *testing.T) {
	b := NewBytecodeBuilder("test.ncb")
	b.Call(2, 0, []uint16{3, 4})
	bc, err := DecodeBytecode("test.ncb", b.Build())
	require.NoError(t, err)
	require.Len(t, bc.Code, 1)
	assert.Equal(t, []uint16{3, 4}, bc.Code[0].Args)
}

func TestBytecode_DecodeRejectsBadMagic(t *testing.T) {
	_, err := DecodeBytecode("bad.ncb", []byte("not a bytecode image"))
	require.Error(t, err)
	rerr, ok := err.(*RuntimeError)
	require.True(t, ok)
	assert.Equal(t, ErrBrokenBytecode, rerr.Kind)
}

func TestBytecode_DecodeRejectsTruncatedInput(t *testing.T) {
	b := NewBytecodeBuilder("test.ncb")
	b.IConst(0, 5)
	full := b.Build()

	_, err := DecodeBytecode("trunc.ncb", full[:len(full)-2])
	require.Error(t, err)
	rerr, ok := err.(*RuntimeError)
	require.True(t, ok)
	assert.Equal(t, ErrBrokenBytecode, rerr.Kind)
}

func TestBytecode_DecodeRejectsUnknownOpcode(t *testing.T) {
	b := NewBytecodeBuilder("test.ncb")
	b.Ret(0)
	data := b.Build()
	// Corrupt the opcode byte (right after header + zero-length string table
	// + code length) to a value above opcodeCount.
	codeStart := len(bytecodeMagic) + 4 /* string count */ + 4 /* code count */
	data[codeStart] = byte(opcodeCount) + 50

	_, err := DecodeBytecode("bad-op.ncb", data)
	require.Error(t, err)
}

func TestOpcode_StringKnownAndUnknown(t *testing.T) {
	assert.Equal(t, "ADD", OpAdd.String())
	assert.Contains(t, Opcode(250).String(), "OP(")
}
