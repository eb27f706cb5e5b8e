package noct

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPin_LocalPinRequiresActiveFrame(t *testing.T) {
	env := newTestEnv(t)
	var v Value
	err := env.PinLocal(&v)
	require.Error(t, err)
	var pinErr *PinError
	require.ErrorAs(t, err, &pinErr)
}

func TestPin_LocalPinUnpinBalance(t *testing.T) {
	env := newTestEnv(t)
	_, pushed := env.pushFrame(&FuncObj{}, 1)
	require.True(t, pushed)

	var v Value
	require.NoError(t, env.PinLocal(&v))
	require.NoError(t, env.UnpinLocal(&v))
	assert.Error(t, env.UnpinLocal(&v), "unpinning twice must error")
}

func TestPin_LocalPinsClearedOnFramePop(t *testing.T) {
	env := newTestEnv(t)
	_, pushed := env.pushFrame(&FuncObj{}, 1)
	require.True(t, pushed)

	var v Value
	require.NoError(t, env.PinLocal(&v))
	env.popFrame()

	_, pushed = env.pushFrame(&FuncObj{}, 1)
	require.True(t, pushed)
	assert.Equal(t, 0, env.currentFrame().pinnedCount)
}

func TestPin_GlobalPinListFull(t *testing.T) {
	env := newTestEnv(t)
	vals := make([]Value, maxGlobalPins)
	for i := range vals {
		require.NoError(t, env.vm.PinGlobal(&vals[i]))
	}
	var overflow Value
	err := env.vm.PinGlobal(&overflow)
	require.Error(t, err)
}
