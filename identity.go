package noct

import "unsafe"

// uintptrOf returns the numeric address backing an objHeader, used only to
// derive a stable-for-this-process identity hash for container/function
// keys in a Dict (object_dict.go). This is the one place the runtime
// reaches for unsafe: Go gives no portable way to hash pointer identity
// otherwise, and the original C runtime hashes the raw object pointer for
// the same case.
func uintptrOf(h *objHeader) uintptr {
	return uintptr(unsafe.Pointer(h))
}
