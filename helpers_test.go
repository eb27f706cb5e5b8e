package noct

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pushHelperFrame(t *testing.T, env *Env) *Frame {
	f, ok := env.pushFrame(&FuncObj{}, maxTmpVars)
	require.True(t, ok)
	return f
}

func TestHelper_Neg(t *testing.T) {
	env := newTestEnv(t)
	f := pushHelperFrame(t, env)
	f.tmpvar[0] = NewInt(5)
	require.True(t, helperNeg(env, 1, 0))
	assert.Equal(t, int32(-5), f.tmpvar[1].Int())
}

func TestHelper_NegWrongKind(t *testing.T) {
	env := newTestEnv(t)
	f := pushHelperFrame(t, env)
	s, _ := env.NewString("x")
	f.tmpvar[0] = s
	assert.False(t, helperNeg(env, 1, 0))
	require.True(t, env.HasError())
	assert.Equal(t, ErrTypeError, env.Error().Kind)
}

func TestHelper_Not(t *testing.T) {
	env := newTestEnv(t)
	f := pushHelperFrame(t, env)
	f.tmpvar[0] = NewInt(0)
	require.True(t, helperNot(env, 1, 0))
	assert.Equal(t, int32(1), f.tmpvar[1].Int())

	f.tmpvar[0] = NewInt(7)
	require.True(t, helperNot(env, 1, 0))
	assert.Equal(t, int32(0), f.tmpvar[1].Int())
}

func TestHelper_ShlShrNegativeCountYieldsZero(t *testing.T) {
	env := newTestEnv(t)
	f := pushHelperFrame(t, env)
	f.tmpvar[0] = NewInt(8)
	f.tmpvar[1] = NewInt(-1)
	require.True(t, helperShl(env, 2, 0, 1))
	assert.Equal(t, int32(0), f.tmpvar[2].Int())
	require.True(t, helperShr(env, 2, 0, 1))
	assert.Equal(t, int32(0), f.tmpvar[2].Int())
}

func TestHelper_LenCountsRunesNotBytes(t *testing.T) {
	env := newTestEnv(t)
	f := pushHelperFrame(t, env)
	s, err := env.NewString("héllo")
	require.NoError(t, err)
	f.tmpvar[0] = s
	require.True(t, helperLen(env, 1, 0))
	assert.Equal(t, int32(5), f.tmpvar[1].Int())
}

func TestHelper_EqIRequiresInts(t *testing.T) {
	env := newTestEnv(t)
	f := pushHelperFrame(t, env)
	f.tmpvar[0] = NewInt(3)
	f.tmpvar[1] = NewFloat(3)
	assert.False(t, helperEqI(env, 2, 0, 1))
}

func TestHelper_LoadDotLengthPseudoField(t *testing.T) {
	env := newTestEnv(t)
	f := pushHelperFrame(t, env)
	arr := env.NewEmptyArray()
	arrObj := arr.obj.(*ArrayObj)
	arr = newObjValue(KindArray, arrObj.set(env, 0, NewInt(1)))
	f.tmpvar[0] = arr
	require.True(t, env.helperLoadDot(1, 0, "length"))
	assert.Equal(t, int32(1), f.tmpvar[1].Int())
}

func TestHelper_LoadDotFieldOnDict(t *testing.T) {
	env := newTestEnv(t)
	f := pushHelperFrame(t, env)
	d := env.NewEmptyDict()
	dObj := d.obj.(*DictObj)
	key, _ := env.NewString("name")
	d = newObjValue(KindDict, dObj.set(env, key, NewInt(99)))
	f.tmpvar[0] = d
	require.True(t, env.helperLoadDot(1, 0, "name"))
	assert.Equal(t, int32(99), f.tmpvar[1].Int())
}

func TestHelper_GetDictKeyAndValByIndex(t *testing.T) {
	env := newTestEnv(t)
	f := pushHelperFrame(t, env)
	d := env.NewEmptyDict()
	dObj := d.obj.(*DictObj)
	key, _ := env.NewString("k")
	d = newObjValue(KindDict, dObj.set(env, key, NewInt(5)))
	f.tmpvar[0] = d
	f.tmpvar[1] = NewInt(0)

	require.True(t, helperGetDictKeyByIndex(env, 2, 0, 1))
	assert.Equal(t, "k", f.tmpvar[2].StringObj().Data)

	require.True(t, helperGetDictValByIndex(env, 2, 0, 1))
	assert.Equal(t, int32(5), f.tmpvar[2].Int())
}

func TestHelper_LoadArrayStringIndexing(t *testing.T) {
	env := newTestEnv(t)
	f := pushHelperFrame(t, env)
	s, _ := env.NewString("abc")
	f.tmpvar[0] = s
	f.tmpvar[1] = NewInt(1)
	require.True(t, helperLoadArray(env, 2, 0, 1))
	assert.Equal(t, "b", f.tmpvar[2].StringObj().Data)
}
