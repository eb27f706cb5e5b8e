//go:build amd64

package noct

// trampolineAMD64 is implemented in jit_trampoline_amd64.s. It calls the
// native code at entry with env loaded into rdi, the SysV first integer
// argument register the generated prologue expects, and converts the
// function's al/eax boolean result back into a Go bool.
func trampolineAMD64(entry uintptr, env *Env) bool
