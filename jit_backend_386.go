//go:build 386

package noct

func selectBackend(goarch string) (func() asmEmitter, func(entry uintptr, env *Env) bool) {
	return func() asmEmitter { return newGenericEmitter(i386Codec{}) }, trampoline386
}
