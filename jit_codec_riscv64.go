package noct

import (
	"encoding/binary"
	"fmt"
	"unsafe"
)

// riscv64Codec targets the 64-bit RISC-V integer calling convention:
// env arrives in a0 and is moved into a callee-saved register (s1) for
// the function body.
type riscv64Codec struct{}

func (riscv64Codec) wordSize() int { return 8 }

func rvU32(v uint32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], v)
	return b[:]
}

// riscv encodings below use the standard field layout (opcode/funct3/
// funct7/rd/rs1/rs2); built inline rather than via a general assembler
// since the template only ever needs this fixed handful of shapes.

func rvAddi(rd, rs1 uint32, imm int32) uint32 {
	return (uint32(imm)&0xfff)<<20 | rs1<<15 | 0<<12 | rd<<7 | 0x13
}

func rvJalr(rd, rs1 uint32, imm int32) uint32 {
	return (uint32(imm)&0xfff)<<20 | rs1<<15 | 0<<12 | rd<<7 | 0x67
}

func rvSd(rs2, rs1 uint32, imm int32) uint32 {
	lo := uint32(imm) & 0x1f
	hi := (uint32(imm) >> 5) & 0x7f
	return hi<<25 | rs2<<20 | rs1<<15 | 3<<12 | lo<<7 | 0x23
}

func rvLd(rd, rs1 uint32, imm int32) uint32 {
	return (uint32(imm)&0xfff)<<20 | rs1<<15 | 3<<12 | rd<<7 | 0x03
}

func (riscv64Codec) prologue() []byte {
	var code []byte
	code = append(code, rvU32(rvAddi(2, 2, -32))...)      // addi sp, sp, -32
	code = append(code, rvU32(rvSd(1, 2, 24))...)         // sd ra, 24(sp)
	code = append(code, rvU32(rvSd(9, 2, 16))...)         // sd s1, 16(sp)
	code = append(code, rvU32(rvAddi(9, 10, 0))...)       // addi s1, a0, 0   (env -> s1)
	return code
}

func (riscv64Codec) epilogue(ok bool) []byte {
	v := int32(0)
	if ok {
		v = 1
	}
	var code []byte
	code = append(code, rvU32(rvAddi(10, 0, v))...) // addi a0, zero, v
	code = append(code, rvU32(rvLd(1, 2, 24))...)   // ld ra, 24(sp)
	code = append(code, rvU32(rvLd(9, 2, 16))...)   // ld s1, 16(sp)
	code = append(code, rvU32(rvAddi(2, 2, 32))...) // addi sp, sp, 32
	code = append(code, rvU32(rvJalr(0, 1, 0))...)  // jalr zero, 0(ra)
	return code
}

func (riscv64Codec) movImm32(v int32) []byte {
	hi := (uint32(v) + 0x800) >> 12
	lo := int32(uint32(v) - hi<<12)
	var code []byte
	code = append(code, rvU32(hi<<12|10<<7|0x37)...) // lui a0, hi
	code = append(code, rvU32(rvAddi(10, 10, lo))...)
	return code
}

func riscvLoadImm64(reg uint32, v uint64) []byte {
	// Fixed 11-instruction sequence: addi loads the top 9 bits, then five
	// slli/ori pairs shift in the remaining 11-bit chunks. Every immediate
	// is non-negative and below 2048, so sign extension never applies.
	var code []byte
	code = append(code, rvU32(rvAddi(reg, 0, int32(v>>55)))...)
	for shift := 44; shift >= 0; shift -= 11 {
		chunk := uint32(v>>uint(shift)) & 0x7ff
		code = append(code, rvU32(11<<20|reg<<15|1<<12|reg<<7|0x13)...)    // slli reg, reg, 11
		code = append(code, rvU32(chunk<<20|reg<<15|6<<12|reg<<7|0x13)...) // ori reg, reg, chunk
	}
	return code
}

func (riscv64Codec) loadCallArgs(helperIdx int32, inst unsafe.Pointer) []byte {
	var code []byte
	code = append(code, rvU32(rvAddi(10, 9, 0))...) // addi a0, s1, 0  (env)
	code = append(code, rvU32(rvAddi(11, 0, helperIdx))...) // addi a1, zero, idx  (fits common small indices)
	code = append(code, riscvLoadImm64(12, uint64(uintptr(inst)))...)
	return code
}

func (riscv64Codec) call(target uintptr) ([]byte, error) {
	var code []byte
	code = append(code, riscvLoadImm64(6, uint64(target))...) // t1 = target
	code = append(code, rvU32(rvJalr(1, 6, 0))...)             // jalr ra, 0(t1)
	return code, nil
}

func (riscv64Codec) testResultAndJumpIfFalse() ([]byte, int, int) {
	// beq a0, zero, <rel> (B-type immediate patched whole)
	code := rvU32(0x00050063) // beq a0,x0,0 skeleton
	return code, 0, 4
}

func (riscv64Codec) jmp() ([]byte, int, int) {
	return rvU32(0x0000006f), 0, 4 // jal zero, 0 (J-type imm patched whole)
}

func (riscv64Codec) patchBranch(code []byte, offset, size int, rel int32) error {
	if offset+size > len(code) || rel%2 != 0 {
		return fmt.Errorf("riscv64: unencodable branch")
	}
	word := binary.LittleEndian.Uint32(code[offset:])
	isJal := word&0x7f == 0x6f
	if isJal {
		if rel < -(1<<20) || rel >= 1<<20 {
			return fmt.Errorf("riscv64: jal target too far")
		}
		imm := uint32(rel)
		encoded := (imm>>20&1)<<31 | (imm>>1&0x3ff)<<21 | (imm>>11&1)<<20 | (imm>>12&0xff)<<12
		word = (word &^ 0xfffff000) | encoded
	} else {
		if rel < -(1<<12) || rel >= 1<<12 {
			return fmt.Errorf("riscv64: branch target too far")
		}
		imm := uint32(rel)
		encoded := (imm>>12&1)<<31 | (imm>>5&0x3f)<<25 | (imm>>1&0xf)<<8 | (imm>>11&1)<<7
		word = (word &^ 0xfe000f80) | encoded
	}
	binary.LittleEndian.PutUint32(code[offset:], word)
	return nil
}
