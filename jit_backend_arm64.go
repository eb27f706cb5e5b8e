//go:build arm64

package noct

func selectBackend(goarch string) (func() asmEmitter, func(entry uintptr, env *Env) bool) {
	return func() asmEmitter { return newGenericEmitter(arm64Codec{}) }, trampolineARM64
}
