package noct

import (
	"encoding/binary"
	"fmt"
	"unsafe"
)

// i386Codec targets the 32-bit cdecl-style convention the hand-written
// trampoline uses: env is passed on the stack (32-bit ABI0 has no
// dedicated argument registers), so the prologue copies it into a local
// slot for the rest of the function to reuse.
type i386Codec struct{}

func (i386Codec) wordSize() int { return 4 }

func (i386Codec) prologue() []byte {
	return []byte{
		0x55,             // push ebp
		0x89, 0xe5,       // mov ebp, esp
		0x83, 0xec, 0x10, // sub esp, 0x10
		0x8b, 0x45, 0x08, // mov eax, [ebp+8]   (env, pushed by the trampoline)
		0x89, 0x45, 0xf8, // mov [ebp-8], eax
	}
}

func (i386Codec) epilogue(ok bool) []byte {
	v := byte(0)
	if ok {
		v = 1
	}
	return []byte{0xb0, v, 0x89, 0xec, 0x5d, 0xc3} // mov al,v; mov esp,ebp; pop ebp; ret
}

func (i386Codec) movImm32(v int32) []byte {
	code := []byte{0xb8, 0, 0, 0, 0}
	binary.LittleEndian.PutUint32(code[1:], uint32(v))
	return code
}

func (i386Codec) loadCallArgs(helperIdx int32, inst unsafe.Pointer) []byte {
	var code []byte
	code = append(code, 0x8b, 0x45, 0xf8) // mov eax, [ebp-8] (env)
	code = append(code, 0x50)             // push eax
	code = append(code, 0x68)             // push imm32 (helper idx)
	code = append(code, leImm32(helperIdx)...)
	code = append(code, 0x68) // push imm32 (inst ptr)
	code = append(code, leImm32(int32(uintptr(inst)))...)
	return code
}

func (i386Codec) call(target uintptr) ([]byte, error) {
	var code []byte
	code = append(code, 0xb8) // mov eax, imm32
	code = append(code, leImm32(int32(target))...)
	code = append(code, 0xff, 0xd0)       // call eax
	code = append(code, 0x83, 0xc4, 0x0c) // add esp, 12 (pop the three pushed args)
	return code, nil
}

func (i386Codec) testResultAndJumpIfFalse() ([]byte, int, int) {
	code := []byte{0x84, 0xc0, 0x0f, 0x84, 0, 0, 0, 0}
	return code, 4, 4
}

func (i386Codec) jmp() ([]byte, int, int) {
	return []byte{0xe9, 0, 0, 0, 0}, 1, 4
}

func (i386Codec) patchBranch(code []byte, offset, size int, rel int32) error {
	if offset+size > len(code) {
		return fmt.Errorf("386: patch offset out of range")
	}
	binary.LittleEndian.PutUint32(code[offset:], uint32(rel))
	return nil
}
