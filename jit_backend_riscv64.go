//go:build riscv64

package noct

func selectBackend(goarch string) (func() asmEmitter, func(entry uintptr, env *Env) bool) {
	return func() asmEmitter { return newGenericEmitter(riscv64Codec{}) }, trampolineRISCV64
}
