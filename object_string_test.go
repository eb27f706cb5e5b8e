package noct

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestString_NewStringCopiesData(t *testing.T) {
	env := newTestEnv(t)
	v, err := env.NewString("hello")
	require.NoError(t, err)
	require.True(t, v.IsString())
	assert.Equal(t, "hello", v.StringObj().Data)
}

func TestString_HashIsCachedAndStable(t *testing.T) {
	env := newTestEnv(t)
	v, err := env.NewString("noct")
	require.NoError(t, err)
	s := v.StringObj()

	h1 := s.Hash()
	h2 := s.Hash()
	assert.Equal(t, h1, h2)
	assert.Equal(t, fnv1a32("noct"), h1)
}

func TestString_CacheHashTrustsSuppliedValue(t *testing.T) {
	env := newTestEnv(t)
	v := env.newStringWithHash("trusted", 0xdeadbeef)
	assert.Equal(t, uint32(0xdeadbeef), v.StringObj().Hash())
}

func TestFNV1a32_KnownValues(t *testing.T) {
	assert.Equal(t, uint32(2166136261), fnv1a32(""))
	assert.NotEqual(t, fnv1a32("a"), fnv1a32("b"))
}
