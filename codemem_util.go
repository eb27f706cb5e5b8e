package noct

import "unsafe"

// uintptrOfSlice returns the address of a byte slice's backing array,
// used to compute JIT entrypoints relative to the mmap'd region
// (codemem.go).
func uintptrOfSlice(b []byte) uintptr {
	if len(b) == 0 {
		return 0
	}
	return uintptr(unsafe.Pointer(&b[0]))
}
