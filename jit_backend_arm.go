//go:build arm

package noct

func selectBackend(goarch string) (func() asmEmitter, func(entry uintptr, env *Env) bool) {
	return func() asmEmitter { return newGenericEmitter(armCodec{}) }, trampolineARM
}
