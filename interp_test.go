package noct

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestVM(t *testing.T) (*VM, *Env) {
	cfg := NewConfig()
	cfg.SetBool("jit.enable", false)
	vm := NewVM(cfg)
	t.Cleanup(func() { vm.Close() })
	return vm, vm.CreateThreadEnv()
}

func TestInterp_AddTwoArgs(t *testing.T) {
	vm, env := newTestVM(t)

	b := NewBytecodeBuilder("add.ncb")
	b.Bin(OpAdd, 2, 0, 1)
	b.Ret(2)

	_, err := vm.RegisterBytecode(env, "add.ncb", b.Build(), map[string][]string{
		"add": {"a", "b"},
	})
	require.NoError(t, err)

	result, err := env.CallNamed("add", NewInt(3), NewInt(4))
	require.NoError(t, err)
	assert.Equal(t, int32(7), result.Int())
}

func TestInterp_FactorialLoop(t *testing.T) {
	vm, env := newTestVM(t)

	// fn factorial(n): acc=1; while n > 0 { acc *= n; n -= 1 }; return acc
	b := NewBytecodeBuilder("fact.ncb")
	accSlot, nSlot, oneSlot, zeroSlot, cmpSlot := uint16(1), uint16(0), uint16(2), uint16(3), uint16(4)
	b.IConst(accSlot, 1)
	b.IConst(oneSlot, 1)
	b.IConst(zeroSlot, 0)
	top := b.NewLabel()
	done := b.NewLabel()
	b.Label(top)
	b.Bin(OpLe, cmpSlot, nSlot, zeroSlot)
	b.JmpIfTrue(cmpSlot, done)
	b.Bin(OpMul, accSlot, accSlot, nSlot)
	b.Bin(OpSub, nSlot, nSlot, oneSlot)
	b.Jmp(top)
	b.Label(done)
	b.Ret(accSlot)

	_, err := vm.RegisterBytecode(env, "fact.ncb", b.Build(), map[string][]string{
		"factorial": {"n"},
	})
	require.NoError(t, err)

	result, err := env.CallNamed("factorial", NewInt(5))
	require.NoError(t, err)
	assert.Equal(t, int32(120), result.Int())
}

func TestInterp_StringConcat(t *testing.T) {
	vm, env := newTestVM(t)

	b := NewBytecodeBuilder("concat.ncb")
	b.SConst(1, " world")
	b.Bin(OpAdd, 2, 0, 1)
	b.Ret(2)

	_, err := vm.RegisterBytecode(env, "concat.ncb", b.Build(), map[string][]string{
		"greet": {"prefix"},
	})
	require.NoError(t, err)

	prefix, err := env.NewString("hello")
	require.NoError(t, err)
	result, err := env.CallNamed("greet", prefix)
	require.NoError(t, err)
	assert.Equal(t, "hello world", result.StringObj().Data)
}

func TestInterp_ArrayStoreAndLoad(t *testing.T) {
	vm, env := newTestVM(t)

	b := NewBytecodeBuilder("arr.ncb")
	arrSlot, idxSlot, valSlot, outSlot := uint16(0), uint16(1), uint16(2), uint16(3)
	b.AConst(arrSlot)
	b.IConst(idxSlot, 3)
	b.IConst(valSlot, 99)
	b.StoreArray(arrSlot, idxSlot, valSlot)
	b.Bin(OpLoadArray, outSlot, arrSlot, idxSlot)
	b.Ret(outSlot)

	_, err := vm.RegisterBytecode(env, "arr.ncb", b.Build(), map[string][]string{
		"makeArray": {},
	})
	require.NoError(t, err)

	result, err := env.CallNamed("makeArray")
	require.NoError(t, err)
	assert.Equal(t, int32(99), result.Int())
}

func TestInterp_DivisionByZeroFaults(t *testing.T) {
	vm, env := newTestVM(t)

	b := NewBytecodeBuilder("div.ncb")
	b.Bin(OpDiv, 2, 0, 1)
	b.Ret(2)

	_, err := vm.RegisterBytecode(env, "div.ncb", b.Build(), map[string][]string{
		"divide": {"a", "b"},
	})
	require.NoError(t, err)

	_, err = env.CallNamed("divide", NewInt(10), NewInt(0))
	require.Error(t, err)
	rerr, ok := err.(*RuntimeError)
	require.True(t, ok)
	assert.Equal(t, ErrDivisionByZero, rerr.Kind)
}

func TestInterp_WrongArgCountFaults(t *testing.T) {
	vm, env := newTestVM(t)

	b := NewBytecodeBuilder("one.ncb")
	b.Ret(0)
	_, err := vm.RegisterBytecode(env, "one.ncb", b.Build(), map[string][]string{
		"needsOne": {"a"},
	})
	require.NoError(t, err)

	_, err = env.CallNamed("needsOne")
	require.Error(t, err)
	rerr, ok := err.(*RuntimeError)
	require.True(t, ok)
	assert.Equal(t, ErrArgumentError, rerr.Kind)
}

func TestInterp_RecursiveCall(t *testing.T) {
	vm, env := newTestVM(t)

	// fn sum(n): if n <= 0 return 0; return n + sum(n-1)
	b := NewBytecodeBuilder("sum.ncb")
	nSlot, zeroSlot, cmpSlot := uint16(0), uint16(1), uint16(2)
	oneSlot, recArgSlot, selfSlot, recResSlot, sumSlot := uint16(3), uint16(4), uint16(5), uint16(6), uint16(7)
	elseLbl := b.NewLabel()

	b.IConst(zeroSlot, 0)
	b.Bin(OpLe, cmpSlot, nSlot, zeroSlot)
	b.JmpIfFalse(cmpSlot, elseLbl)
	b.Ret(zeroSlot)
	b.Label(elseLbl)
	b.IConst(oneSlot, 1)
	b.Bin(OpSub, recArgSlot, nSlot, oneSlot)
	b.LoadSymbol(selfSlot, "sum")
	b.Call(recResSlot, selfSlot, []uint16{recArgSlot})
	b.Bin(OpAdd, sumSlot, nSlot, recResSlot)
	b.Ret(sumSlot)

	_, err := vm.RegisterBytecode(env, "sum.ncb", b.Build(), map[string][]string{
		"sum": {"n"},
	})
	require.NoError(t, err)

	result, err := env.CallNamed("sum", NewInt(10))
	require.NoError(t, err)
	assert.Equal(t, int32(55), result.Int())
}

func TestInterp_FallingOffEndReturnsZero(t *testing.T) {
	vm, env := newTestVM(t)

	b := NewBytecodeBuilder("noop.ncb")
	b.LineInfo(1)
	_, err := vm.RegisterBytecode(env, "noop.ncb", b.Build(), map[string][]string{
		"noop": {},
	})
	require.NoError(t, err)

	result, err := env.CallNamed("noop")
	require.NoError(t, err)
	assert.True(t, result.IsInt())
	assert.Equal(t, int32(0), result.Int())
}
