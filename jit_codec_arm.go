package noct

import (
	"encoding/binary"
	"fmt"
	"unsafe"
)

// armCodec targets 32-bit ARM (A32, EABI): env arrives in r0 and is
// moved into callee-saved r4 for the duration of the function.
type armCodec struct{}

func (armCodec) wordSize() int { return 4 }

func armU32(v uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return b[:]
}

func (armCodec) prologue() []byte {
	var code []byte
	code = append(code, armU32(0xe92d4010)...) // push {r4, lr}
	code = append(code, armU32(0xe1a04000)...) // mov r4, r0   (env)
	return code
}

func (armCodec) epilogue(ok bool) []byte {
	v := uint32(0)
	if ok {
		v = 1
	}
	var code []byte
	code = append(code, armU32(0xe3a00000|v)...) // mov r0, #v
	code = append(code, armU32(0xe8bd8010)...)   // pop {r4, pc}
	return code
}

func (armCodec) movImm32(v int32) []byte {
	lo := uint32(v) & 0xffff
	hi := uint32(v) >> 16
	var code []byte
	// movw r0, #lo ; movt r0, #hi
	code = append(code, armU32(0xe3000000|(lo&0xfff)|((lo>>12)<<16))...)
	code = append(code, armU32(0xe3400000|(hi&0xfff)|((hi>>12)<<16))...)
	return code
}

func armMovImm32Reg(reg uint32, v uint32) []byte {
	lo := v & 0xffff
	hi := v >> 16
	var code []byte
	code = append(code, armU32(0xe3000000|(lo&0xfff)|((lo>>12)<<16)|(reg<<12))...)
	code = append(code, armU32(0xe3400000|(hi&0xfff)|((hi>>12)<<16)|(reg<<12))...)
	return code
}

func (armCodec) loadCallArgs(helperIdx int32, inst unsafe.Pointer) []byte {
	var code []byte
	code = append(code, armU32(0xe1a00004)...)              // mov r0, r4 (env)
	code = append(code, armMovImm32Reg(1, uint32(helperIdx))...) // r1 = helper idx
	code = append(code, armMovImm32Reg(2, uint32(uintptr(inst)))...) // r2 = inst ptr
	return code
}

func (armCodec) call(target uintptr) ([]byte, error) {
	var code []byte
	code = append(code, armMovImm32Reg(12, uint32(target))...) // r12 = target
	code = append(code, armU32(0xe12fff3c)...)                 // blx r12
	return code, nil
}

func (armCodec) testResultAndJumpIfFalse() ([]byte, int, int) {
	var code []byte
	code = append(code, armU32(0xe3500000)...) // cmp r0, #0
	code = append(code, armU32(0x0a000000)...) // beq #0 (patched)
	return code, 4, 4
}

func (armCodec) jmp() ([]byte, int, int) {
	return armU32(0xea000000), 0, 4 // b #0 (patched)
}

func (armCodec) patchBranch(code []byte, offset, size int, rel int32) error {
	if offset+size > len(code) || rel%4 != 0 {
		return fmt.Errorf("arm: unencodable branch")
	}
	imm24 := (rel - 8) / 4
	if imm24 < -(1<<23) || imm24 >= (1<<23) {
		return fmt.Errorf("arm: branch too far")
	}
	word := binary.LittleEndian.Uint32(code[offset:])
	word = (word &^ 0xffffff) | (uint32(imm24) & 0xffffff)
	binary.LittleEndian.PutUint32(code[offset:], word)
	return nil
}
