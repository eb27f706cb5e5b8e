package noct

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnv_ErrorLifecycle(t *testing.T) {
	env := newTestEnv(t)
	assert.False(t, env.HasError())
	assert.Nil(t, env.Error())

	ok := env.Errorf(ErrIndexError, "index %d out of range", 7)
	assert.False(t, ok)
	require.True(t, env.HasError())

	err := env.Error()
	require.NotNil(t, err)
	assert.Equal(t, ErrIndexError, err.Kind)
	assert.Contains(t, err.Message, "7")

	env.clearError()
	assert.False(t, env.HasError())
}

func TestRuntimeError_ErrorStringIncludesLocation(t *testing.T) {
	e := &RuntimeError{Kind: ErrTypeError, Message: "bad type", File: "x.ncb", Line: 12}
	s := e.Error()
	assert.Contains(t, s, "x.ncb")
	assert.Contains(t, s, "12")
	assert.Contains(t, s, "bad type")
}

func TestRuntimeError_ErrorStringWithoutFile(t *testing.T) {
	e := &RuntimeError{Kind: ErrOutOfMemory, Message: "no room"}
	assert.Equal(t, "out_of_memory: no room", e.Error())
}

func TestErrorKind_StringCoversAllKinds(t *testing.T) {
	kinds := []ErrorKind{
		ErrNone, ErrTypeError, ErrDivisionByZero, ErrIndexError, ErrKeyError,
		ErrNameError, ErrBrokenBytecode, ErrOutOfMemory, ErrCodeTooBig,
		ErrBranchTooFar, ErrMemoryMapFailed, ErrStackOverflow, ErrArgumentError,
	}
	for _, k := range kinds {
		assert.NotEqual(t, "unknown", k.String())
	}
	assert.Equal(t, "unknown", ErrorKind(250).String())
}
