package noct

import "encoding/binary"

// Label names a jump target that gets resolved to an instruction index
// (the position of the instruction in the stream, not its byte offset in
// the encoded image) once the whole instruction stream has been laid
// out, the same two-pass encoding strategy as the teacher's Program
// encoder.
type Label int

// encInstr is one not-yet-encoded instruction in a BytecodeBuilder's
// stream: either a real opcode (with any of its operands possibly a
// forward label reference) or a label placement marker.
type encInstr struct {
	isLabel bool
	label   Label

	op     Opcode
	dst    uint16
	src1   uint16
	src2   uint16
	imm32  int32
	str    string
	args   []uint16
	target Label
	method string
}

// BytecodeBuilder assembles a Bytecode image programmatically, used by
// tests and by any future front-end compiler (spec §4.3's image format is
// the wire contract; this builder is the Go-side encoder for it).
type BytecodeBuilder struct {
	fileName string
	instrs   []encInstr
	nextLbl  Label
}

func NewBytecodeBuilder(fileName string) *BytecodeBuilder {
	return &BytecodeBuilder{fileName: fileName}
}

func (b *BytecodeBuilder) NewLabel() Label {
	b.nextLbl++
	return b.nextLbl
}

func (b *BytecodeBuilder) Label(l Label) {
	b.instrs = append(b.instrs, encInstr{isLabel: true, label: l})
}

func (b *BytecodeBuilder) LineInfo(line int) {
	b.instrs = append(b.instrs, encInstr{op: OpLineInfo, imm32: int32(line)})
}

func (b *BytecodeBuilder) Assign(dst, src uint16) {
	b.instrs = append(b.instrs, encInstr{op: OpAssign, dst: dst, src1: src})
}

func (b *BytecodeBuilder) IConst(dst uint16, v int32) {
	b.instrs = append(b.instrs, encInstr{op: OpIConst, dst: dst, imm32: v})
}

func (b *BytecodeBuilder) FConst(dst uint16, bits int32) {
	b.instrs = append(b.instrs, encInstr{op: OpFConst, dst: dst, imm32: bits})
}

func (b *BytecodeBuilder) SConst(dst uint16, s string) {
	b.instrs = append(b.instrs, encInstr{op: OpSConst, dst: dst, str: s})
}

func (b *BytecodeBuilder) AConst(dst uint16) {
	b.instrs = append(b.instrs, encInstr{op: OpAConst, dst: dst})
}

func (b *BytecodeBuilder) DConst(dst uint16) {
	b.instrs = append(b.instrs, encInstr{op: OpDConst, dst: dst})
}

func (b *BytecodeBuilder) Inc(dst uint16) {
	b.instrs = append(b.instrs, encInstr{op: OpInc, dst: dst})
}

func (b *BytecodeBuilder) Bin(op Opcode, dst, src1, src2 uint16) {
	b.instrs = append(b.instrs, encInstr{op: op, dst: dst, src1: src1, src2: src2})
}

func (b *BytecodeBuilder) Un(op Opcode, dst, src uint16) {
	b.instrs = append(b.instrs, encInstr{op: op, dst: dst, src1: src})
}

func (b *BytecodeBuilder) StoreArray(arr, idx, val uint16) {
	b.instrs = append(b.instrs, encInstr{op: OpStoreArray, dst: arr, src1: idx, src2: val})
}

func (b *BytecodeBuilder) LoadSymbol(dst uint16, name string) {
	b.instrs = append(b.instrs, encInstr{op: OpLoadSymbol, dst: dst, str: name})
}

func (b *BytecodeBuilder) StoreSymbol(src uint16, name string) {
	b.instrs = append(b.instrs, encInstr{op: OpStoreSymbol, src1: src, str: name})
}

func (b *BytecodeBuilder) LoadDot(dst, src uint16, field string) {
	b.instrs = append(b.instrs, encInstr{op: OpLoadDot, dst: dst, src1: src, str: field})
}

func (b *BytecodeBuilder) StoreDot(obj uint16, field string, val uint16) {
	b.instrs = append(b.instrs, encInstr{op: OpStoreDot, src1: obj, str: field, src2: val})
}

func (b *BytecodeBuilder) Call(dst, fn uint16, args []uint16) {
	b.instrs = append(b.instrs, encInstr{op: OpCall, dst: dst, src1: fn, args: args})
}

func (b *BytecodeBuilder) ThisCall(dst, this uint16, method string, args []uint16) {
	b.instrs = append(b.instrs, encInstr{op: OpThisCall, dst: dst, src1: this, method: method, args: args})
}

func (b *BytecodeBuilder) Jmp(target Label) {
	b.instrs = append(b.instrs, encInstr{op: OpJmp, target: target})
}

func (b *BytecodeBuilder) JmpIfTrue(src uint16, target Label) {
	b.instrs = append(b.instrs, encInstr{op: OpJmpIfTrue, src1: src, target: target})
}

func (b *BytecodeBuilder) JmpIfFalse(src uint16, target Label) {
	b.instrs = append(b.instrs, encInstr{op: OpJmpIfFalse, src1: src, target: target})
}

func (b *BytecodeBuilder) JmpIfEq(src1, src2 uint16, target Label) {
	b.instrs = append(b.instrs, encInstr{op: OpJmpIfEq, src1: src1, src2: src2, target: target})
}

func (b *BytecodeBuilder) Ret(src uint16) {
	b.instrs = append(b.instrs, encInstr{op: OpRet, src1: src})
}

// Build runs the two-pass label resolution (count instructions to fix
// label offsets, then encode for real) and serializes the whole image,
// including the "Noct Bytecode" header and string table, ready to round
// trip through DecodeBytecode.
func (b *BytecodeBuilder) Build() []byte {
	offsets := make(map[Label]uint32)
	var count uint32
	for _, in := range b.instrs {
		if in.isLabel {
			offsets[in.label] = count
			continue
		}
		count++
	}

	strIdx := make(map[string]int)
	var strs []bcString
	addStr := func(s string) uint16 {
		if idx, ok := strIdx[s]; ok {
			return uint16(idx)
		}
		idx := len(strs)
		strIdx[s] = idx
		strs = append(strs, bcString{Data: s, Hash: fnv1a32(s)})
		return uint16(idx)
	}

	var code []byte
	for _, in := range b.instrs {
		if in.isLabel {
			continue
		}
		code = append(code, byte(in.op))
		switch in.op {
		case OpLineInfo:
			code = putU32(code, uint32(in.imm32))
		case OpAssign, OpNeg, OpNot, OpLen, OpInc:
			code = putU16(code, in.dst)
			code = putU16(code, in.src1)
		case OpIConst, OpFConst:
			code = putU16(code, in.dst)
			code = putU32(code, uint32(in.imm32))
		case OpSConst:
			code = putU16(code, in.dst)
			code = putU16(code, addStr(in.str))
		case OpAConst, OpDConst:
			code = putU16(code, in.dst)
		case OpAdd, OpSub, OpMul, OpDiv, OpMod, OpBitAnd, OpBitOr, OpBitXor, OpShl, OpShr,
			OpLt, OpLe, OpGt, OpGe, OpEq, OpEqI, OpNe, OpLoadArray, OpGetDictKeyByIndex, OpGetDictValByIndex:
			code = putU16(code, in.dst)
			code = putU16(code, in.src1)
			code = putU16(code, in.src2)
		case OpStoreArray:
			code = putU16(code, in.dst)
			code = putU16(code, in.src1)
			code = putU16(code, in.src2)
		case OpLoadSymbol:
			code = putU16(code, in.dst)
			code = putU16(code, addStr(in.str))
		case OpStoreSymbol:
			code = putU16(code, in.src1)
			code = putU16(code, addStr(in.str))
		case OpLoadDot:
			code = putU16(code, in.dst)
			code = putU16(code, in.src1)
			code = putU16(code, addStr(in.str))
		case OpStoreDot:
			code = putU16(code, in.src1)
			code = putU16(code, addStr(in.str))
			code = putU16(code, in.src2)
		case OpCall, OpThisCall:
			code = putU16(code, in.dst)
			code = putU16(code, in.src1)
			if in.op == OpThisCall {
				code = putU16(code, addStr(in.method))
			}
			code = append(code, byte(len(in.args)))
			for _, a := range in.args {
				code = putU16(code, a)
			}
		case OpJmp:
			code = putU32(code, offsets[in.target])
		case OpJmpIfTrue, OpJmpIfFalse:
			code = putU16(code, in.src1)
			code = putU32(code, offsets[in.target])
		case OpJmpIfEq:
			code = putU16(code, in.src1)
			code = putU16(code, in.src2)
			code = putU32(code, offsets[in.target])
		case OpRet:
			code = putU16(code, in.src1)
		}
	}

	var out []byte
	out = append(out, bytecodeMagic...)
	out = putU32(out, uint32(len(strs)))
	for _, s := range strs {
		out = putU32(out, uint32(len(s.Data)))
		out = putU32(out, s.Hash)
		out = append(out, s.Data...)
	}
	out = putU32(out, count)
	out = append(out, code...)
	return out
}

func putU16(b []byte, v uint16) []byte {
	var tmp [2]byte
	binary.BigEndian.PutUint16(tmp[:], v)
	return append(b, tmp[:]...)
}

func putU32(b []byte, v uint32) []byte {
	var tmp [4]byte
	binary.BigEndian.PutUint32(tmp[:], v)
	return append(b, tmp[:]...)
}
