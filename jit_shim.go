package noct

import (
	"fmt"
	"reflect"
	"unsafe"
)

// jitHelperFuncs indexes the same functions helperTable's integer keys
// point at, in call-signature-normalized form: every helper ends up
// looking like func(*Env, *Instruction) bool so jitCallHelperShim can
// dispatch through one slice regardless of the helper's original arity.
var jitHelperFuncs = buildJITHelperFuncs()

func buildJITHelperFuncs() []func(*Env, *Instruction) bool {
	byOp := map[Opcode]func(*Env, *Instruction) bool{
		OpAdd:                func(e *Env, i *Instruction) bool { return helperAdd(e, i.Dst, i.Src1, i.Src2) },
		OpSub:                func(e *Env, i *Instruction) bool { return helperSub(e, i.Dst, i.Src1, i.Src2) },
		OpMul:                func(e *Env, i *Instruction) bool { return helperMul(e, i.Dst, i.Src1, i.Src2) },
		OpDiv:                func(e *Env, i *Instruction) bool { return helperDiv(e, i.Dst, i.Src1, i.Src2) },
		OpMod:                func(e *Env, i *Instruction) bool { return helperMod(e, i.Dst, i.Src1, i.Src2) },
		OpBitAnd:             func(e *Env, i *Instruction) bool { return helperAnd(e, i.Dst, i.Src1, i.Src2) },
		OpBitOr:              func(e *Env, i *Instruction) bool { return helperOr(e, i.Dst, i.Src1, i.Src2) },
		OpBitXor:             func(e *Env, i *Instruction) bool { return helperXor(e, i.Dst, i.Src1, i.Src2) },
		OpShl:                func(e *Env, i *Instruction) bool { return helperShl(e, i.Dst, i.Src1, i.Src2) },
		OpShr:                func(e *Env, i *Instruction) bool { return helperShr(e, i.Dst, i.Src1, i.Src2) },
		OpNeg:                func(e *Env, i *Instruction) bool { return helperNeg(e, i.Dst, i.Src1) },
		OpNot:                func(e *Env, i *Instruction) bool { return helperNot(e, i.Dst, i.Src1) },
		OpLt:                 func(e *Env, i *Instruction) bool { return helperLt(e, i.Dst, i.Src1, i.Src2) },
		OpLe:                 func(e *Env, i *Instruction) bool { return helperLe(e, i.Dst, i.Src1, i.Src2) },
		OpGt:                 func(e *Env, i *Instruction) bool { return helperGt(e, i.Dst, i.Src1, i.Src2) },
		OpGe:                 func(e *Env, i *Instruction) bool { return helperGe(e, i.Dst, i.Src1, i.Src2) },
		OpEq:                 func(e *Env, i *Instruction) bool { return helperEq(e, i.Dst, i.Src1, i.Src2) },
		OpEqI:                func(e *Env, i *Instruction) bool { return helperEqI(e, i.Dst, i.Src1, i.Src2) },
		OpNe:                 func(e *Env, i *Instruction) bool { return helperNe(e, i.Dst, i.Src1, i.Src2) },
		OpInc:                func(e *Env, i *Instruction) bool { return helperInc(e, i.Dst) },
		OpLoadArray:          func(e *Env, i *Instruction) bool { return helperLoadArray(e, i.Dst, i.Src1, i.Src2) },
		OpStoreArray:         func(e *Env, i *Instruction) bool { return helperStoreArray(e, i.Dst, i.Src1, i.Src2) },
		OpLen:                func(e *Env, i *Instruction) bool { return helperLen(e, i.Dst, i.Src1) },
		OpGetDictKeyByIndex:  func(e *Env, i *Instruction) bool { return helperGetDictKeyByIndex(e, i.Dst, i.Src1, i.Src2) },
		OpGetDictValByIndex:  func(e *Env, i *Instruction) bool { return helperGetDictValByIndex(e, i.Dst, i.Src1, i.Src2) },
		OpLoadSymbol:         func(e *Env, i *Instruction) bool { return e.helperLoadSymbol(i.Dst, e.currentBytecodeString(i.StrIdx)) },
		OpStoreSymbol:        func(e *Env, i *Instruction) bool { return e.helperStoreSymbol(e.currentBytecodeString(i.StrIdx), i.Src1) },
		OpLoadDot:            func(e *Env, i *Instruction) bool { return e.helperLoadDot(i.Dst, i.Src1, e.currentBytecodeString(i.StrIdx)) },
		OpStoreDot:           func(e *Env, i *Instruction) bool { return e.helperStoreDot(i.Src1, e.currentBytecodeString(i.StrIdx), i.Src2) },
		OpCall:               func(e *Env, i *Instruction) bool { return e.callFunc(i.Dst, *e.tmp(i.Src1), i.Args) },
		OpThisCall: func(e *Env, i *Instruction) bool {
			this := *e.tmp(i.Src1)
			target, ok := e.resolveThisCallTarget(this, e.currentBytecodeString(i.StrIdx))
			if !ok {
				return e.Errorf(ErrNameError, "method %q not found", e.currentBytecodeString(i.StrIdx))
			}
			return e.callFunc(i.Dst, target, i.Args)
		},
	}
	out := make([]func(*Env, *Instruction) bool, len(helperTable))
	for op, idx := range helperTable {
		out[idx] = byOp[op]
	}
	return out
}

// currentBytecodeString resolves a string-table index against the
// function currently running in env's active frame; JIT-compiled code
// never decodes bytecode itself, so helper calls reach back through the
// frame to find the owning Bytecode (spec §5.2: JIT-emitted code "calls
// the shared helper via an ABI of fn(env) -> bool", with the bytecode
// image itself remaining the single source of truth for string data).
func (env *Env) currentBytecodeString(idx uint16) string {
	return env.currentFrame().fn.Bytecode.Strings[idx].Data
}

// jitCallHelperShim is the single fixed landing point every architecture's
// generated call instruction targets. It is itself ordinary Go, so it
// gets the usual stack-growth prologue the Go compiler emits for any
// function — machine code in the mmap'd region reaches it exactly as it
// would reach any other Go function pointer once env, idx, and inst are
// loaded into the arguments the Go ABI expects, which is exactly the
// narrow contract each archCodec's loadCallArgs()/call() pair exists to
// uphold.
func jitCallHelperShim(env *Env, idx int32, instPtr unsafe.Pointer) bool {
	inst := (*Instruction)(instPtr)
	if idx == assignShimIndex {
		*env.tmp(inst.Dst) = *env.tmp(inst.Src1)
		return true
	}
	if int(idx) < 0 || int(idx) >= len(jitHelperFuncs) || jitHelperFuncs[idx] == nil {
		return env.Errorf(ErrBrokenBytecode, "jit: no helper for index %d", idx)
	}
	return jitHelperFuncs[idx](env, inst)
}

// jitShimAddr returns jitCallHelperShim's entry code pointer via
// reflect.Value.Pointer(), which for a func value reports the function's
// code entry address. Go gives no more portable API for this; emitting
// native calls to ordinary Go code has no alternative without cgo.
func jitShimAddr() (uintptr, error) {
	addr := reflect.ValueOf(jitCallHelperShim).Pointer()
	if addr == 0 {
		return 0, fmt.Errorf("jit: could not resolve helper shim address")
	}
	return addr, nil
}
