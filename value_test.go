package noct

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValue_ZeroIsIntZero(t *testing.T) {
	var v Value
	assert.True(t, v.IsInt())
	assert.Equal(t, int32(0), v.Int())
}

func TestValue_NewInt(t *testing.T) {
	v := NewInt(42)
	assert.True(t, v.IsInt())
	assert.False(t, v.IsFloat())
	assert.Equal(t, KindInt, v.Kind())
	assert.Equal(t, int32(42), v.Int())
}

func TestValue_NewFloat(t *testing.T) {
	v := NewFloat(3.5)
	assert.True(t, v.IsFloat())
	assert.False(t, v.IsInt())
	assert.Equal(t, float32(3.5), v.Float())
}

func TestValue_NegativeInt(t *testing.T) {
	v := NewInt(-7)
	assert.Equal(t, int32(-7), v.Int())
}

func TestValue_CopyIsIndependent(t *testing.T) {
	a := NewInt(1)
	b := a
	b = NewInt(2)
	assert.Equal(t, int32(1), a.Int())
	assert.Equal(t, int32(2), b.Int())
}

func TestValue_KindString(t *testing.T) {
	assert.Equal(t, "int", KindInt.String())
	assert.Equal(t, "float", KindFloat.String())
	assert.Equal(t, "string", KindString.String())
	assert.Equal(t, "array", KindArray.String())
	assert.Equal(t, "dict", KindDict.String())
	assert.Equal(t, "func", KindFunc.String())
}

func TestValue_String(t *testing.T) {
	assert.Equal(t, "42", NewInt(42).String())
}

func TestTypeError_Error(t *testing.T) {
	err := &TypeError{Op: "ArrayGet", Expected: "array", Got: KindInt}
	assert.Contains(t, err.Error(), "ArrayGet")
	assert.Contains(t, err.Error(), "array")
	assert.Contains(t, err.Error(), "int")
}
