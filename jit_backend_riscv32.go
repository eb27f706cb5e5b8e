//go:build riscv32

package noct

// riscv32 shares RV32I/RV64I's encodings for the opcode subset this
// template uses, so codegen reuses riscv64Codec, but the Go toolchain has
// no riscv32 port to assemble an execution trampoline for: this backend
// is generation-only, matching the reference runtime's own treatment of
// architectures it can compile bytecode for but not execute natively
// (its MIPS/PPC stubs).
func selectBackend(goarch string) (func() asmEmitter, func(entry uintptr, env *Env) bool) {
	return func() asmEmitter { return newGenericEmitter(riscv64Codec{}) }, nil
}
