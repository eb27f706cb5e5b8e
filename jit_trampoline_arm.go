//go:build arm

package noct

// trampolineARM is implemented in jit_trampoline_arm.s.
func trampolineARM(entry uintptr, env *Env) bool
