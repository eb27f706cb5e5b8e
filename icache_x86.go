//go:build amd64 || 386

package noct

// x86 and x86-64 keep the instruction cache coherent with writes to
// executable memory in hardware, so there is nothing to flush (spec §5.3
// notes this per-architecture exception explicitly).
func flushInstructionCache(addr uintptr, size int) {}
