//go:build arm

package noct

import "golang.org/x/sys/unix"

// ARM32 Linux exposes a dedicated cacheflush syscall (__ARM_NR_cacheflush)
// since no userspace instruction performs the required I-cache
// invalidation without a kernel trap on most cores.
const armNRCacheflush = 0x0f0002

func flushInstructionCache(addr uintptr, size int) {
	if size == 0 {
		return
	}
	unix.Syscall(armNRCacheflush, addr, addr+uintptr(size), 0)
}
