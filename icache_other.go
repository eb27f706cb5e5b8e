//go:build !amd64 && !386 && !arm && !arm64 && !riscv64

package noct

// Platforms without a dedicated flush above have no JIT backend wired in
// jit_backend_other.go/jit_backend_riscv32.go either, so this is never
// reached by a real code installation; it exists only so codemem.go
// compiles everywhere.
func flushInstructionCache(addr uintptr, size int) {}
