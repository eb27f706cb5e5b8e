package noct

import (
	"fmt"
	"sync"

	"github.com/edsrzf/mmap-go"
	"golang.org/x/sys/unix"
)

// codeMemory is a single W^X-toggled region JIT-compiled function bodies
// are installed into (spec §5.3/C7). The region starts out (and returns
// to) read-write after every installation; callers must invoke
// makeExecutable before any installed entrypoint is actually called, and
// the VM does so automatically via commitJIT (jit.go) around every entry
// boundary.
type codeMemory struct {
	mu       sync.Mutex
	region   mmap.MMap
	used     int
	writable bool
}

func newCodeMemory(size int) *codeMemory {
	if size <= 0 {
		size = 16 << 20
	}
	region, err := mmap.MapRegion(nil, size, mmap.RDWR, mmap.ANON, 0)
	if err != nil {
		// A failed initial mapping disables the JIT rather than
		// panicking; maybeBuildJIT's caller already treats nil jitEntry
		// as "stay interpreted".
		return &codeMemory{}
	}
	return &codeMemory{region: region, writable: true}
}

// install copies code into the region, first re-protecting it as
// read/write if a prior makeExecutable left it executable, and returns
// the entry address. Running out of room is CodeTooBig (spec §4.9):
// this runtime does not grow the region, matching the reference
// implementation's fixed-size code arena.
func (c *codeMemory) install(code []byte) (uintptr, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.region == nil {
		return 0, fmt.Errorf("jit: code memory unavailable")
	}
	if !c.writable {
		if err := c.unprotect(unix.PROT_READ | unix.PROT_WRITE); err != nil {
			return 0, err
		}
		c.writable = true
	}
	if c.used+len(code) > len(c.region) {
		return 0, &RuntimeError{Kind: ErrCodeTooBig, Message: "code region exhausted"}
	}
	entry := c.addr() + uintptr(c.used)
	copy(c.region[c.used:], code)
	c.used += len(code)
	return entry, nil
}

// makeExecutable flips the region from RW to RX and flushes the
// instruction cache for the written range, so a CPU core that already
// fetched stale bytes sees the freshly JIT-compiled code (spec §5.3).
func (c *codeMemory) makeExecutable() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.region == nil || !c.writable {
		return nil
	}
	if err := c.unprotect(unix.PROT_READ | unix.PROT_EXEC); err != nil {
		return err
	}
	c.writable = false
	flushInstructionCache(c.addr(), c.used)
	return nil
}

func (c *codeMemory) unprotect(prot int) error {
	if err := unix.Mprotect(c.region, prot); err != nil {
		return &RuntimeError{Kind: ErrMemoryMapFailed, Message: err.Error()}
	}
	return nil
}

func (c *codeMemory) addr() uintptr {
	if len(c.region) == 0 {
		return 0
	}
	return uintptrOfSlice(c.region)
}

func (c *codeMemory) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.region == nil {
		return nil
	}
	return c.region.Unmap()
}
