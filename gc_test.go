package noct

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGC_FastGCReclaimsUnrootedNursery(t *testing.T) {
	env := newTestEnv(t)

	for i := 0; i < 50; i++ {
		_, err := env.NewString("garbage")
		require.NoError(t, err)
	}
	before := env.vm.HeapUsage()
	assert.Equal(t, 50, before.NurseryObjects)

	env.vm.FastGC()
	after := env.vm.HeapUsage()
	assert.Equal(t, 0, after.NurseryObjects, "unrooted strings must not survive a collection")
	assert.Equal(t, uint64(1), after.Collections)
	assert.Equal(t, uint64(1), after.FastCollections)
}

func TestGC_RootedValueSurvivesFastGC(t *testing.T) {
	env := newTestEnv(t)
	f, pushed := env.pushFrame(&FuncObj{TmpvarSize: 1}, 1)
	require.True(t, pushed)

	s, err := env.NewString("kept")
	require.NoError(t, err)
	f.tmpvar[0] = s

	env.vm.FastGC()

	usage := env.vm.HeapUsage()
	assert.Equal(t, 1, usage.NurseryObjects)
	assert.Equal(t, "kept", f.tmpvar[0].StringObj().Data)
}

func TestGC_GlobalPinSurvivesCollection(t *testing.T) {
	env := newTestEnv(t)
	v, err := env.NewString("pinned")
	require.NoError(t, err)
	require.NoError(t, env.vm.PinGlobal(&v))

	env.vm.FastGC()
	usage := env.vm.HeapUsage()
	assert.Equal(t, 1, usage.NurseryObjects)

	require.NoError(t, env.vm.UnpinGlobal(&v))
	assert.Error(t, env.vm.UnpinGlobal(&v), "double unpin must be an error")
}

func TestGC_FullGCPromotesAgedSurvivors(t *testing.T) {
	env := newTestEnv(t)
	globalVal, err := env.NewString("alive")
	require.NoError(t, err)
	require.NoError(t, env.vm.PinGlobal(&globalVal))

	for i := 0; i < env.vm.heap.cfg.PromotionThreshold; i++ {
		env.vm.FullGC()
	}

	usage := env.vm.HeapUsage()
	assert.Equal(t, 0, usage.NurseryObjects)
	assert.Equal(t, 1, usage.GraduateObjects+usage.TenureObjects,
		"object aged past the promotion threshold must leave the nursery")
}

func TestGC_CompactGCCollapsesForwardingChain(t *testing.T) {
	env := newTestEnv(t)
	v := env.NewEmptyArray()
	f, pushed := env.pushFrame(&FuncObj{TmpvarSize: 1}, 1)
	require.True(t, pushed)
	f.tmpvar[0] = v

	arr := v.obj.(*ArrayObj)
	grown := arr.resizeTo(env, 64, Value{})
	require.NotSame(t, arr, grown)
	// The root still points at the stale object; CompactGC should rewrite it.
	f.tmpvar[0] = newObjValue(KindArray, arr)

	env.vm.CompactGC()

	assert.Same(t, grown, f.tmpvar[0].obj.(*ArrayObj))
}

func TestGenerationString(t *testing.T) {
	assert.Equal(t, "nursery", GenNursery.String())
	assert.Equal(t, "graduate", GenGraduate.String())
	assert.Equal(t, "tenure", GenTenure.String())
	assert.Equal(t, "large", GenLarge.String())
	assert.Equal(t, "unknown", Generation(250).String())
}
