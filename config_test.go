package noct

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConfig_DefaultsArePopulated(t *testing.T) {
	cfg := NewConfig()
	assert.True(t, cfg.GetBool("jit.enable"))
	assert.Equal(t, 1000, cfg.GetInt("jit.threshold"))

	gc := cfg.GCConfig()
	assert.Equal(t, DefaultGCConfig(), gc)

	jit := cfg.JITConfig()
	assert.True(t, jit.Enable)
	assert.Equal(t, 1000, jit.Threshold)
}

func TestConfig_SetOverridesDefault(t *testing.T) {
	cfg := NewConfig()
	cfg.SetBool("jit.enable", false)
	assert.False(t, cfg.JITConfig().Enable)
}

func TestConfig_GetMissingKeyPanics(t *testing.T) {
	cfg := NewConfig()
	assert.Panics(t, func() { cfg.GetString("does.not.exist") })
}

func TestConfig_TypeMismatchPanics(t *testing.T) {
	cfg := NewConfig()
	assert.Panics(t, func() { cfg.GetString("jit.enable") })
}

func TestConfig_EmptyConfigFallsBackToDefaults(t *testing.T) {
	cfg := Config{}
	gc := cfg.GCConfig()
	assert.Equal(t, DefaultGCConfig(), gc)
	jit := cfg.JITConfig()
	assert.True(t, jit.Enable)
}
