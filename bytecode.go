package noct

import (
	"encoding/binary"
	"fmt"
)

// Opcode is one bytecode instruction tag (spec §4.3's instruction table).
type Opcode uint8

const (
	OpLineInfo Opcode = iota
	OpAssign
	OpIConst
	OpFConst
	OpSConst
	OpAConst
	OpDConst
	OpInc
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpBitAnd
	OpBitOr
	OpBitXor
	OpShl
	OpShr
	OpNeg
	OpNot
	OpLt
	OpLe
	OpGt
	OpGe
	OpEq
	OpEqI
	OpNe
	OpLoadArray
	OpStoreArray
	OpLen
	OpGetDictKeyByIndex
	OpGetDictValByIndex
	OpLoadSymbol
	OpStoreSymbol
	OpLoadDot
	OpStoreDot
	OpCall
	OpThisCall
	OpJmp
	OpJmpIfTrue
	OpJmpIfFalse
	OpJmpIfEq
	OpRet
	opcodeCount
)

var opcodeNames = [opcodeCount]string{
	OpLineInfo: "LINEINFO", OpAssign: "ASSIGN", OpIConst: "ICONST", OpFConst: "FCONST",
	OpSConst: "SCONST", OpAConst: "ACONST", OpDConst: "DCONST", OpInc: "INC",
	OpAdd: "ADD", OpSub: "SUB", OpMul: "MUL", OpDiv: "DIV", OpMod: "MOD",
	OpBitAnd: "AND", OpBitOr: "OR", OpBitXor: "XOR", OpShl: "SHL", OpShr: "SHR",
	OpNeg: "NEG", OpNot: "NOT", OpLt: "LT", OpLe: "LE", OpGt: "GT", OpGe: "GE",
	OpEq: "EQ", OpEqI: "EQI", OpNe: "NE", OpLoadArray: "LOADARRAY",
	OpStoreArray: "STOREARRAY", OpLen: "LEN",
	OpGetDictKeyByIndex: "GETDICTKEYBYINDEX", OpGetDictValByIndex: "GETDICTVALBYINDEX",
	OpLoadSymbol: "LOADSYMBOL", OpStoreSymbol: "STORESYMBOL",
	OpLoadDot: "LOADDOT", OpStoreDot: "STOREDOT",
	OpCall: "CALL", OpThisCall: "THISCALL",
	OpJmp: "JMP", OpJmpIfTrue: "JMPIFTRUE", OpJmpIfFalse: "JMPIFFALSE",
	OpJmpIfEq: "JMPIFEQ", OpRet: "RET",
}

func (op Opcode) String() string {
	if op < opcodeCount {
		return opcodeNames[op]
	}
	return fmt.Sprintf("OP(%d)", op)
}

// Instruction is one decoded bytecode operation. Not every field is
// meaningful for every opcode; helpers.go and interp.go know which ones
// to read for a given Op (spec §4.4's per-opcode operand table).
type Instruction struct {
	Op     Opcode
	Dst    uint16
	Src1   uint16
	Src2   uint16
	Imm32  int32
	StrIdx uint16
	Target uint32
	Args   []uint16
	Line   int
}

// bcString is one entry of the bytecode image's string table: the decoded
// bytes plus the hash the image author claims for them (spec §4.3 "the
// hash value present in the image must match the canonical hash of the
// bytes; the runtime trusts it for lookups").
type bcString struct {
	Data string
	Hash uint32
}

// Bytecode is a decoded, ready-to-run program image (spec §3.1's
// "RegisterBytecode" unit).
type Bytecode struct {
	FileName string
	Strings  []bcString
	Code     []Instruction
}

// bytecodeMagic is the fixed header every image must begin with (spec
// §4.3).
const bytecodeMagic = "Noct Bytecode"

// DecodeBytecode parses a serialized image into a Bytecode ready for
// NewBytecodeFunc. Any structural problem — short buffer, bad magic, an
// operand pointing outside its table — is reported as BrokenBytecode
// rather than panicking, matching spec §4.9's "a malformed image is
// always a recoverable error, never a crash" contract.
func DecodeBytecode(fileName string, data []byte) (*Bytecode, error) {
	r := &bcReader{data: data}
	magic, ok := r.take(len(bytecodeMagic))
	if !ok || string(magic) != bytecodeMagic {
		return nil, &RuntimeError{Kind: ErrBrokenBytecode, Message: "bad magic header", File: fileName}
	}

	strCount, ok := r.u32()
	if !ok {
		return nil, brokenBytecode(fileName, "truncated string table header")
	}
	strs := make([]bcString, 0, strCount)
	for i := uint32(0); i < strCount; i++ {
		length, ok := r.u32()
		if !ok {
			return nil, brokenBytecode(fileName, "truncated string length")
		}
		hash, ok := r.u32()
		if !ok {
			return nil, brokenBytecode(fileName, "truncated string hash")
		}
		bytes, ok := r.take(int(length))
		if !ok {
			return nil, brokenBytecode(fileName, "truncated string bytes")
		}
		strs = append(strs, bcString{Data: string(bytes), Hash: hash})
	}

	codeLen, ok := r.u32()
	if !ok {
		return nil, brokenBytecode(fileName, "truncated code length")
	}

	bc := &Bytecode{FileName: fileName, Strings: strs}
	line := 0
	for i := uint32(0); i < codeLen; i++ {
		opByte, ok := r.u8()
		if !ok {
			return nil, brokenBytecode(fileName, "truncated opcode")
		}
		op := Opcode(opByte)
		if op >= opcodeCount {
			return nil, brokenBytecode(fileName, fmt.Sprintf("unknown opcode %d", opByte))
		}
		inst := Instruction{Op: op, Line: line}
		if err := decodeOperands(r, &inst, len(strs)); err != nil {
			return nil, brokenBytecode(fileName, err.Error())
		}
		if op == OpLineInfo {
			line = int(inst.Imm32)
			inst.Line = line
		}
		bc.Code = append(bc.Code, inst)
	}
	return bc, nil
}

func brokenBytecode(file, msg string) error {
	return &RuntimeError{Kind: ErrBrokenBytecode, Message: msg, File: file}
}

// validateBytecode checks every tmpvar operand against tmpvarSize and every
// jump Target against the code length, per spec §4.3 point 5 / §8.1.5's "a
// malformed image fails with BrokenBytecode before any side effect" — not
// a panic from the interpreter indexing a fixed-size tmpvar array, and not
// a silently-accepted jump past the end of the stream. The wire image
// itself carries no tmpvar_size (that belongs to the enclosing function,
// decided by the embedding API at registration time, not the compiler-
// owned multi-function container spec §4.3 puts out of scope), so this
// runs once tmpvarSize is known rather than inside DecodeBytecode itself.
func validateBytecode(bc *Bytecode, tmpvarSize int) error {
	checkVar := func(v uint16) error {
		if int(v) >= tmpvarSize {
			return brokenBytecode(bc.FileName, fmt.Sprintf(
				"tmpvar index %d out of range (tmpvar_size=%d)", v, tmpvarSize))
		}
		return nil
	}
	checkTarget := func(t uint32) error {
		if int(t) > len(bc.Code) {
			return brokenBytecode(bc.FileName, fmt.Sprintf(
				"jump target %d out of range (code length %d)", t, len(bc.Code)))
		}
		return nil
	}

	for _, inst := range bc.Code {
		var vars []uint16
		switch inst.Op {
		case OpLineInfo, OpJmp:
			// no tmpvar operands
		case OpAssign, OpNeg, OpNot, OpLen, OpInc:
			vars = []uint16{inst.Dst, inst.Src1}
		case OpIConst, OpFConst, OpSConst, OpAConst, OpDConst, OpLoadSymbol:
			vars = []uint16{inst.Dst}
		case OpAdd, OpSub, OpMul, OpDiv, OpMod, OpBitAnd, OpBitOr, OpBitXor, OpShl, OpShr,
			OpLt, OpLe, OpGt, OpGe, OpEq, OpEqI, OpNe, OpLoadArray, OpGetDictKeyByIndex, OpGetDictValByIndex,
			OpStoreArray:
			vars = []uint16{inst.Dst, inst.Src1, inst.Src2}
		case OpStoreSymbol:
			vars = []uint16{inst.Src1}
		case OpLoadDot:
			vars = []uint16{inst.Dst, inst.Src1}
		case OpStoreDot:
			vars = []uint16{inst.Src1, inst.Src2}
		case OpCall, OpThisCall:
			vars = append([]uint16{inst.Dst, inst.Src1}, inst.Args...)
		case OpJmpIfTrue, OpJmpIfFalse:
			vars = []uint16{inst.Src1}
		case OpJmpIfEq:
			vars = []uint16{inst.Src1, inst.Src2}
		case OpRet:
			vars = []uint16{inst.Src1}
		}
		for _, v := range vars {
			if err := checkVar(v); err != nil {
				return err
			}
		}
		switch inst.Op {
		case OpJmp, OpJmpIfTrue, OpJmpIfFalse, OpJmpIfEq:
			if err := checkTarget(inst.Target); err != nil {
				return err
			}
		}
	}
	return nil
}

func decodeOperands(r *bcReader, inst *Instruction, strCount int) error {
	u16 := func() (uint16, error) {
		v, ok := r.u16()
		if !ok {
			return 0, fmt.Errorf("truncated operand for %s", inst.Op)
		}
		return v, nil
	}
	strIdx := func() (uint16, error) {
		v, err := u16()
		if err != nil {
			return 0, err
		}
		if int(v) >= strCount {
			return 0, fmt.Errorf("%s: string index %d out of range", inst.Op, v)
		}
		return v, nil
	}
	var err error
	switch inst.Op {
	case OpLineInfo:
		v, ok := r.u32()
		if !ok {
			return fmt.Errorf("truncated LINEINFO operand")
		}
		inst.Imm32 = int32(v)
	case OpAssign, OpNeg, OpNot, OpLen, OpInc:
		if inst.Dst, err = u16(); err != nil {
			return err
		}
		if inst.Src1, err = u16(); err != nil {
			return err
		}
	case OpIConst:
		if inst.Dst, err = u16(); err != nil {
			return err
		}
		v, ok := r.u32()
		if !ok {
			return fmt.Errorf("truncated ICONST operand")
		}
		inst.Imm32 = int32(v)
	case OpFConst:
		if inst.Dst, err = u16(); err != nil {
			return err
		}
		v, ok := r.u32()
		if !ok {
			return fmt.Errorf("truncated FCONST operand")
		}
		inst.Imm32 = int32(v)
	case OpSConst:
		if inst.Dst, err = u16(); err != nil {
			return err
		}
		if inst.StrIdx, err = strIdx(); err != nil {
			return err
		}
	case OpAConst, OpDConst:
		if inst.Dst, err = u16(); err != nil {
			return err
		}
	case OpAdd, OpSub, OpMul, OpDiv, OpMod, OpBitAnd, OpBitOr, OpBitXor, OpShl, OpShr,
		OpLt, OpLe, OpGt, OpGe, OpEq, OpEqI, OpNe, OpLoadArray, OpGetDictKeyByIndex, OpGetDictValByIndex:
		if inst.Dst, err = u16(); err != nil {
			return err
		}
		if inst.Src1, err = u16(); err != nil {
			return err
		}
		if inst.Src2, err = u16(); err != nil {
			return err
		}
	case OpStoreArray:
		if inst.Dst, err = u16(); err != nil { // array tmpvar
			return err
		}
		if inst.Src1, err = u16(); err != nil { // index tmpvar
			return err
		}
		if inst.Src2, err = u16(); err != nil { // value tmpvar
			return err
		}
	case OpLoadSymbol:
		if inst.Dst, err = u16(); err != nil {
			return err
		}
		if inst.StrIdx, err = strIdx(); err != nil {
			return err
		}
	case OpStoreSymbol:
		if inst.Src1, err = u16(); err != nil {
			return err
		}
		if inst.StrIdx, err = strIdx(); err != nil {
			return err
		}
	case OpLoadDot:
		if inst.Dst, err = u16(); err != nil {
			return err
		}
		if inst.Src1, err = u16(); err != nil {
			return err
		}
		if inst.StrIdx, err = strIdx(); err != nil {
			return err
		}
	case OpStoreDot:
		if inst.Src1, err = u16(); err != nil { // object tmpvar
			return err
		}
		if inst.StrIdx, err = strIdx(); err != nil {
			return err
		}
		if inst.Src2, err = u16(); err != nil { // value tmpvar
			return err
		}
	case OpCall, OpThisCall:
		if inst.Dst, err = u16(); err != nil { // result tmpvar
			return err
		}
		if inst.Src1, err = u16(); err != nil { // func (or this, for THISCALL) tmpvar
			return err
		}
		if inst.Op == OpThisCall {
			if inst.StrIdx, err = strIdx(); err != nil { // method name
				return err
			}
		}
		argc, ok := r.u8()
		if !ok {
			return fmt.Errorf("%s: truncated argc", inst.Op)
		}
		if int(argc) > MaxArgs {
			return fmt.Errorf("%s: argc %d exceeds MaxArgs", inst.Op, argc)
		}
		inst.Args = make([]uint16, argc)
		for i := range inst.Args {
			if inst.Args[i], err = u16(); err != nil {
				return err
			}
		}
	case OpJmp:
		v, ok := r.u32()
		if !ok {
			return fmt.Errorf("truncated JMP target")
		}
		inst.Target = v
	case OpJmpIfTrue, OpJmpIfFalse:
		if inst.Src1, err = u16(); err != nil {
			return err
		}
		v, ok := r.u32()
		if !ok {
			return fmt.Errorf("%s: truncated target", inst.Op)
		}
		inst.Target = v
	case OpJmpIfEq:
		if inst.Src1, err = u16(); err != nil {
			return err
		}
		if inst.Src2, err = u16(); err != nil {
			return err
		}
		v, ok := r.u32()
		if !ok {
			return fmt.Errorf("JMPIFEQ: truncated target")
		}
		inst.Target = v
	case OpRet:
		if inst.Src1, err = u16(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unhandled opcode %s", inst.Op)
	}
	return nil
}

// bcReader is a forward-only cursor over a byte slice, used by the
// decoder above; every read reports ok=false instead of panicking on
// short input.
type bcReader struct {
	data []byte
	pos  int
}

func (r *bcReader) take(n int) ([]byte, bool) {
	if n < 0 || r.pos+n > len(r.data) {
		return nil, false
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b, true
}

func (r *bcReader) u8() (uint8, bool) {
	b, ok := r.take(1)
	if !ok {
		return 0, false
	}
	return b[0], true
}

func (r *bcReader) u16() (uint16, bool) {
	b, ok := r.take(2)
	if !ok {
		return 0, false
	}
	return binary.BigEndian.Uint16(b), true
}

func (r *bcReader) u32() (uint32, bool) {
	b, ok := r.take(4)
	if !ok {
		return 0, false
	}
	return binary.BigEndian.Uint32(b), true
}
