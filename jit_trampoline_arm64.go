//go:build arm64

package noct

// trampolineARM64 is implemented in jit_trampoline_arm64.s.
func trampolineARM64(entry uintptr, env *Env) bool
