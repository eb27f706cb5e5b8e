//go:build riscv64

package noct

// trampolineRISCV64 is implemented in jit_trampoline_riscv64.s.
func trampolineRISCV64(entry uintptr, env *Env) bool
