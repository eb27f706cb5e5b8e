package noct

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDict_EmptyHasZeroSize(t *testing.T) {
	env := newTestEnv(t)
	v := env.NewEmptyDict()
	assert.Equal(t, 0, v.DictObj().Size())
}

func TestDict_SetAndGet(t *testing.T) {
	env := newTestEnv(t)
	v := env.NewEmptyDict()
	d := v.obj.(*DictObj)
	key, _ := env.NewString("name")
	d = d.set(env, key, NewInt(7))

	got, ok := d.Get(key)
	require.True(t, ok)
	assert.Equal(t, int32(7), got.Int())
}

func TestDict_SetOverwritesExistingKey(t *testing.T) {
	env := newTestEnv(t)
	v := env.NewEmptyDict()
	d := v.obj.(*DictObj)
	key, _ := env.NewString("x")
	d = d.set(env, key, NewInt(1))
	d = d.set(env, key, NewInt(2))

	assert.Equal(t, 1, d.Size())
	got, _ := d.Get(key)
	assert.Equal(t, int32(2), got.Int())
}

func TestDict_GrowsPastLoadFactor(t *testing.T) {
	env := newTestEnv(t)
	v := env.NewEmptyDict()
	d := v.obj.(*DictObj)
	initialSlots := len(d.slots)

	for i := 0; i < 32; i++ {
		d = d.set(env, NewInt(int32(i)), NewInt(int32(i*i)))
	}

	assert.Equal(t, 32, d.Size())
	assert.Greater(t, len(d.slots), initialSlots)
	for i := 0; i < 32; i++ {
		got, ok := d.Get(NewInt(int32(i)))
		require.True(t, ok)
		assert.Equal(t, int32(i*i), got.Int())
	}
}

func TestDict_Remove(t *testing.T) {
	env := newTestEnv(t)
	v := env.NewEmptyDict()
	d := v.obj.(*DictObj)
	key, _ := env.NewString("k")
	d = d.set(env, key, NewInt(1))

	assert.True(t, d.Remove(key))
	assert.Equal(t, 0, d.Size())
	_, ok := d.Get(key)
	assert.False(t, ok)
}

func TestDict_RemoveMissingKeyReturnsFalse(t *testing.T) {
	env := newTestEnv(t)
	v := env.NewEmptyDict()
	d := v.obj.(*DictObj)
	key, _ := env.NewString("absent")
	assert.False(t, d.Remove(key))
}

func TestDict_InsertionOrderEnumeration(t *testing.T) {
	env := newTestEnv(t)
	v := env.NewEmptyDict()
	d := v.obj.(*DictObj)
	names := []string{"c", "a", "b"}
	for i, n := range names {
		key, _ := env.NewString(n)
		d = d.set(env, key, NewInt(int32(i)))
	}

	for i, want := range names {
		k, ok := d.KeyAt(i)
		require.True(t, ok)
		assert.Equal(t, want, k.StringObj().Data)
	}
}

func TestDict_KeyAtSkipsRemovedGaps(t *testing.T) {
	env := newTestEnv(t)
	v := env.NewEmptyDict()
	d := v.obj.(*DictObj)
	ka, _ := env.NewString("a")
	kb, _ := env.NewString("b")
	kc, _ := env.NewString("c")
	d = d.set(env, ka, NewInt(0))
	d = d.set(env, kb, NewInt(1))
	d = d.set(env, kc, NewInt(2))

	d.Remove(kb)

	first, ok := d.KeyAt(0)
	require.True(t, ok)
	assert.Equal(t, "a", first.StringObj().Data)

	second, ok := d.KeyAt(1)
	require.True(t, ok)
	assert.Equal(t, "c", second.StringObj().Data)
}

func TestValuesEqual_CrossKindNeverEqual(t *testing.T) {
	assert.False(t, valuesEqual(NewInt(1), NewFloat(1)))
	assert.True(t, valuesEqual(NewInt(1), NewInt(1)))
	assert.False(t, valuesEqual(NewInt(1), NewInt(2)))
}

func TestDict_Copy(t *testing.T) {
	env := newTestEnv(t)
	v := env.NewEmptyDict()
	d := v.obj.(*DictObj)
	key, _ := env.NewString("k")
	d = d.set(env, key, NewInt(1))

	dup := d.Copy(env)
	dup.set(env, key, NewInt(99))

	got, _ := d.Get(key)
	assert.Equal(t, int32(1), got.Int(), "copy must not alias the original's slots")
}
