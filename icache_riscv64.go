//go:build riscv64

package noct

// flushInstructionCacheFence is implemented in icache_riscv64.s: RISC-V's
// fence.i instruction synchronizes the instruction and data streams on
// the executing hart, which is sufficient here because the JIT never
// installs code that another hart might concurrently execute before this
// VM has itself called the freshly compiled entrypoint.
func flushInstructionCacheFence()

func flushInstructionCache(addr uintptr, size int) {
	flushInstructionCacheFence()
}
