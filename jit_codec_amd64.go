package noct

import (
	"encoding/binary"
	"fmt"
	"unsafe"
)

// amd64Codec emits the SysV x86-64 register convention only (rdi, rsi,
// rdx for the first three integer arguments); the Microsoft x64
// convention is not emitted, on any OS. The function body
// spills env (its only real argument, passed in the register the
// trampoline loads it into) to a fixed stack slot on entry so
// loadCallArgs can always recover it without tracking register liveness
// across the whole template — a deliberate simplification matching
// "not an optimizing compiler" (spec §5's JIT scope note).
type amd64Codec struct{}

const amd64EnvSlot = -8 // rbp-relative

func (amd64Codec) wordSize() int { return 8 }

func (amd64Codec) prologue() []byte {
	return []byte{
		0x55,                   // push rbp
		0x48, 0x89, 0xe5,       // mov rbp, rsp
		0x48, 0x83, 0xec, 0x20, // sub rsp, 0x20
		0x48, 0x89, 0x7d, 0xf8, // mov [rbp-8], rdi  (env, loaded into rdi by trampolineAMD64)
	}
}

func (amd64Codec) epilogue(ok bool) []byte {
	v := byte(0)
	if ok {
		v = 1
	}
	return []byte{
		0xb0, v, // mov al, v
		0x48, 0x89, 0xec, // mov rsp, rbp
		0x5d, // pop rbp
		0xc3, // ret
	}
}

func (amd64Codec) movImm32(v int32) []byte {
	code := []byte{0xb8, 0, 0, 0, 0} // mov eax, imm32
	binary.LittleEndian.PutUint32(code[1:], uint32(v))
	return code
}

func (amd64Codec) loadCallArgs(helperIdx int32, inst unsafe.Pointer) []byte {
	var code []byte
	code = append(code, 0x48, 0x8b, 0x7d, byte(int8(amd64EnvSlot))) // mov rdi, [rbp-8]
	code = append(code, 0xbe)                                      // mov esi, imm32
	code = append(code, leImm32(helperIdx)...)
	code = append(code, 0x48, 0xba) // mov rdx, imm64
	code = append(code, leImm64(uint64(uintptr(inst)))...)
	return code
}

func (amd64Codec) call(target uintptr) ([]byte, error) {
	var code []byte
	code = append(code, 0x48, 0xb8) // mov rax, imm64
	code = append(code, leImm64(uint64(target))...)
	code = append(code, 0xff, 0xd0) // call rax
	return code, nil
}

func (amd64Codec) testResultAndJumpIfFalse() ([]byte, int, int) {
	code := []byte{
		0x84, 0xc0, // test al, al
		0x0f, 0x84, 0, 0, 0, 0, // je rel32
	}
	return code, 4, 4
}

func (amd64Codec) jmp() ([]byte, int, int) {
	return []byte{0xe9, 0, 0, 0, 0}, 1, 4
}

func (amd64Codec) patchBranch(code []byte, offset, size int, rel int32) error {
	if offset+size > len(code) {
		return fmt.Errorf("amd64: patch offset out of range")
	}
	binary.LittleEndian.PutUint32(code[offset:], uint32(rel))
	return nil
}

func leImm32(v int32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(v))
	return b[:]
}

func leImm64(v uint64) []byte {
	var b [8]byte
	binary.LittleEndian.PutUint64(b[:], v)
	return b[:]
}
