//go:build 386

package noct

// trampoline386 is implemented in jit_trampoline_386.s.
func trampoline386(entry uintptr, env *Env) bool
