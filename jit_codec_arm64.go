package noct

import (
	"encoding/binary"
	"fmt"
	"unsafe"
)

// arm64Codec targets AArch64: env arrives in x0 (the trampoline's first
// argument register) and is spilled to a callee-saved register (x19) for
// the duration of the function, since helper calls need it live across
// the call without relying on the stack.
type arm64Codec struct{}

func (arm64Codec) wordSize() int { return 8 }

func u32le(v uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return b[:]
}

func (arm64Codec) prologue() []byte {
	var code []byte
	code = append(code, u32le(0xa9bf7bfd)...) // stp x29, x30, [sp, #-16]!
	code = append(code, u32le(0x910003fd)...) // mov x29, sp
	code = append(code, u32le(0xf81f0ff3)...) // str x19, [sp, #-16]!  (save callee-saved x19)
	code = append(code, u32le(0xaa0003f3)...) // mov x19, x0   (env -> x19)
	return code
}

func (arm64Codec) epilogue(ok bool) []byte {
	v := uint32(0)
	if ok {
		v = 1
	}
	var code []byte
	code = append(code, u32le(0xd2800000|v<<5)...) // movz x0, #v
	code = append(code, u32le(0xf84107f3)...)      // ldr x19, [sp], #16
	code = append(code, u32le(0xa8c17bfd)...)      // ldp x29, x30, [sp], #16
	code = append(code, u32le(0xd65f03c0)...)      // ret
	return code
}

func (arm64Codec) movImm32(v int32) []byte {
	// movz w0, #(v & 0xffff); movk w0, #(v>>16), lsl #16
	lo := uint32(v) & 0xffff
	hi := uint32(v) >> 16
	var code []byte
	code = append(code, u32le(0x52800000|lo<<5)...)
	code = append(code, u32le(0x72a00000|hi<<5)...)
	return code
}

func (arm64Codec) loadCallArgs(helperIdx int32, inst unsafe.Pointer) []byte {
	var code []byte
	code = append(code, u32le(0xaa1303e0)...) // mov x0, x19  (env)
	lo := uint32(helperIdx) & 0xffff
	hi := uint32(helperIdx) >> 16
	code = append(code, u32le(0x52800001|lo<<5)...) // movz w1, #lo
	code = append(code, u32le(0x72a00001|hi<<5)...) // movk w1, #hi, lsl #16
	code = append(code, arm64MovImm64(2, uint64(uintptr(inst)))...)
	return code
}

// arm64MovImm64 builds a 4-instruction movz/movk sequence loading a full
// 64-bit immediate into register xN.
func arm64MovImm64(reg uint32, v uint64) []byte {
	var code []byte
	for shift := uint(0); shift < 64; shift += 16 {
		chunk := uint32(v>>shift) & 0xffff
		var op uint32
		if shift == 0 {
			op = 0xd2800000 // movz
		} else {
			op = 0xf2800000 | (uint32(shift/16) << 21) // movk, hw field
		}
		code = append(code, u32le(op|chunk<<5|reg)...)
	}
	return code
}

func (arm64Codec) call(target uintptr) ([]byte, error) {
	var code []byte
	code = append(code, arm64MovImm64(9, uint64(target))...) // x9 = target
	code = append(code, u32le(0xd63f0120)...)                // blr x9
	return code, nil
}

func (arm64Codec) testResultAndJumpIfFalse() ([]byte, int, int) {
	// cbz w0, <rel>  (cbz carries its own 19-bit imm field)
	code := append([]byte{}, u32le(0x34000000)...) // cbz w0, #0 (patched)
	return code, 0, 4
}

func (arm64Codec) jmp() ([]byte, int, int) {
	return u32le(0x14000000), 0, 4 // b #0 (patched)
}

func (arm64Codec) patchBranch(code []byte, offset, size int, rel int32) error {
	if offset+size > len(code) || rel%4 != 0 {
		return fmt.Errorf("arm64: unencodable branch (offset=%d rel=%d)", offset, rel)
	}
	instrWords := rel / 4
	word := binary.LittleEndian.Uint32(code[offset:])
	isCbz := word&0x7e000000 == 0x34000000
	if isCbz {
		if instrWords < -(1<<18) || instrWords >= (1<<18) {
			return fmt.Errorf("arm64: cbz target too far")
		}
		word = (word &^ (0x7ffff << 5)) | (uint32(instrWords)&0x7ffff)<<5
	} else {
		if instrWords < -(1<<25) || instrWords >= (1<<25) {
			return fmt.Errorf("arm64: b target too far")
		}
		word = (word &^ 0x3ffffff) | uint32(instrWords)&0x3ffffff
	}
	binary.LittleEndian.PutUint32(code[offset:], word)
	return nil
}
