package noct

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAPI_ArraySetGrowsAndRebinds(t *testing.T) {
	env := newTestEnv(t)
	v := env.NewEmptyArray()

	v, err := env.ArraySet(v, 10, NewInt(5))
	require.NoError(t, err)

	size, err := ArraySize(v)
	require.NoError(t, err)
	assert.Equal(t, 11, size)

	got, ok, err := ArrayGet(v, 10)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int32(5), got.Int())
}

func TestAPI_ArraySetWrongKindErrors(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.ArraySet(NewInt(1), 0, NewInt(1))
	require.Error(t, err)
	var typeErr *TypeError
	require.ErrorAs(t, err, &typeErr)
}

func TestAPI_DictSetGetRemove(t *testing.T) {
	env := newTestEnv(t)
	v := env.NewEmptyDict()
	key, err := env.NewString("answer")
	require.NoError(t, err)

	v, err = env.DictSet(v, key, NewInt(42))
	require.NoError(t, err)

	got, ok, err := DictGet(v, key)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, int32(42), got.Int())

	size, err := DictSize(v)
	require.NoError(t, err)
	assert.Equal(t, 1, size)

	removed, err := DictRemove(v, key)
	require.NoError(t, err)
	assert.True(t, removed)
}

func TestAPI_RegisterBytecodeReturnsRegisteredNames(t *testing.T) {
	vm, env := newTestVM(t)
	b := NewBytecodeBuilder("m.ncb")
	b.Ret(0)

	names, err := vm.RegisterBytecode(env, "m.ncb", b.Build(), map[string][]string{
		"entry": {},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"entry"}, names)

	_, ok := vm.Global("entry")
	assert.True(t, ok)
}

func TestAPI_CallNamedUnknownNameErrors(t *testing.T) {
	_, env := newTestVM(t)
	_, err := env.CallNamed("does-not-exist")
	require.Error(t, err)
	rerr, ok := err.(*RuntimeError)
	require.True(t, ok)
	assert.Equal(t, ErrNameError, rerr.Kind)
}

func TestAPI_NativeCFuncRoundTrip(t *testing.T) {
	vm, env := newTestVM(t)
	vm.RegisterCFunc(env, "double", []string{"x"}, func(e *Env) bool {
		n, ok := e.ArgInt(0)
		if !ok {
			return e.Errorf(ErrTypeError, "double: expected int")
		}
		e.SetReturn(NewInt(n * 2))
		return true
	})

	result, err := env.CallNamed("double", NewInt(21))
	require.NoError(t, err)
	assert.Equal(t, int32(42), result.Int())
}

func TestAPI_NativeCFuncArgString(t *testing.T) {
	vm, env := newTestVM(t)
	vm.RegisterCFunc(env, "shout", []string{"s"}, func(e *Env) bool {
		s, ok := e.ArgString(0)
		if !ok {
			return e.Errorf(ErrTypeError, "shout: expected string")
		}
		v, err := e.NewString(s + "!")
		if err != nil {
			return e.Errorf(ErrOutOfMemory, "%v", err)
		}
		e.SetReturn(v)
		return true
	})

	arg, err := env.NewString("hi")
	require.NoError(t, err)
	result, err := env.CallNamed("shout", arg)
	require.NoError(t, err)
	assert.Equal(t, "hi!", result.StringObj().Data)
}
