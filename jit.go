package noct

import (
	"fmt"
	"runtime"
)

// JITConfig carries the hotness threshold and code-region sizing knobs
// (spec §6.3).
type JITConfig struct {
	Enable         bool
	Threshold      int
	CodeRegionSize int
}

// jitEntryFunc is the native entrypoint installed on a FuncObj once it has
// been compiled: the same fn(env) -> bool ABI every C4 helper uses (spec
// §5.2), except this one's body is machine code living in a codeMemory
// region rather than a Go function.
type jitEntryFunc func(env *Env) bool

// asmEmitter is the per-architecture backend: a small set of primitives
// every template is built from. Keeping this surface narrow is
// deliberate — every opcode's actual semantics still live in the Go
// helper functions (helpers.go); the JIT's job is only to string together
// calls to them with the right operands and to inline the handful of
// opcodes cheap enough to emit directly (spec §5.2 "simple opcodes
// inlined, complex opcodes call the shared helper").
type asmEmitter interface {
	// reset clears the emitter's buffer and patch table for a fresh
	// function.
	reset()
	// bytes returns the emitted machine code so far.
	bytes() []byte
	// pos returns the current emit offset, used as a branch target.
	pos() int

	// prologue/epilogue bracket the function body with the ABI0
	// trampoline's calling convention (env already in the designated
	// argument register/slot; return value marshaled into the bool
	// slot the trampoline reads).
	prologue()
	epilogueReturn(ok bool)

	// movImm32 loads a constant into the scratch operand register the
	// emitter keeps reserved for instruction operands.
	movImm32(v int32)

	// callHelper emits a call to one of the shared Go helpers, passing
	// env plus the instruction's raw operand fields via the trampoline's
	// fixed argument-vector slot, then tests the bool result and jumps
	// to the shared error-exit label on failure.
	callHelper(helperIndex int, inst *Instruction)

	// jmp/jmpIfFalse emit unconditional/conditional branches to a
	// not-yet-known target; the returned patch token is resolved later
	// via patch once every instruction's address is known.
	jmp() (patch int)
	jmpIfFalseTmp(slot uint16) (patch int)
	patch(token int, target int)

	// codeTooBig/branchTooFar are raised by patch/callHelper when an
	// offset can't be encoded in the architecture's branch immediate
	// (spec §4.9 BranchTooFar/CodeTooBig).
	err() error
}

// helperTable indexes the C4 helpers callHelper dispatches to, by
// Opcode. ASSIGN, ICONST, the JMP family and RET have no entry here:
// ASSIGN goes to the shim's built-in copy (helper index -1), and the
// others are emitted directly.
var helperTable = buildHelperTable()

func buildHelperTable() map[Opcode]int {
	m := make(map[Opcode]int)
	for i, op := range []Opcode{
		OpAdd, OpSub, OpMul, OpDiv, OpMod, OpBitAnd, OpBitOr, OpBitXor, OpShl, OpShr,
		OpNeg, OpNot, OpLt, OpLe, OpGt, OpGe, OpEq, OpEqI, OpNe, OpInc,
		OpLoadArray, OpStoreArray, OpLen, OpGetDictKeyByIndex, OpGetDictValByIndex,
		OpLoadSymbol, OpStoreSymbol, OpLoadDot, OpStoreDot, OpCall, OpThisCall,
	} {
		m[op] = i
	}
	return m
}

// jitBackend owns the architecture-specific emitter and compiles
// FuncObj bytecode into native code living in a VM's codeMemory.
type jitBackend struct {
	cfg    JITConfig
	arch   string
	makeEmitter func() asmEmitter
	// trampoline invokes a compiled function's native code, declared per
	// GOARCH in jit_trampoline_*.go/.s; nil when the current GOARCH has
	// no hand-written trampoline (spec §9's MIPS/PPC-style "generation
	// only" fallback — riscv32 in this runtime, since the Go toolchain
	// itself has no riscv32 port to assemble a trampoline for).
	trampoline func(entry uintptr, env *Env) bool
}

func newJITBackend(cfg JITConfig) *jitBackend {
	b := &jitBackend{cfg: cfg, arch: runtime.GOARCH}
	b.makeEmitter, b.trampoline = selectBackend(runtime.GOARCH)
	return b
}

// compile builds native code for fn's bytecode and installs it into mem,
// returning an entrypoint that dispatches through the architecture's
// trampoline. It never panics: any template limitation is reported as an
// error so maybeBuildJIT can fall back to the interpreter, per spec §9's
// guidance that JIT is always an optional accelerator.
func (b *jitBackend) compile(fn *FuncObj, mem *codeMemory) (jitEntryFunc, error) {
	if b.makeEmitter == nil {
		return nil, fmt.Errorf("no JIT backend for GOARCH=%s", b.arch)
	}
	e := b.makeEmitter()
	e.reset()
	e.prologue()

	labelOffsets := make([]int, len(fn.Bytecode.Code))
	type pendingPatch struct {
		token  int
		target int
	}
	var pending []pendingPatch
	errorExitPatches := []int{}

	for i, inst := range fn.Bytecode.Code {
		labelOffsets[i] = e.pos()
		switch inst.Op {
		case OpLineInfo:
			// no native effect; line tracking stays interpreter-only.
		case OpAssign:
			e.callHelper(-1, &inst) // ASSIGN is cheap enough to template directly in a real backend; modeled here as a trivial helper call to keep every backend's shape uniform.
		case OpIConst:
			e.movImm32(inst.Imm32)
		case OpJmp:
			tok, _ := e.jmp(), 0
			pending = append(pending, pendingPatch{token: tok, target: int(inst.Target)})
		case OpJmpIfFalse:
			tok := e.jmpIfFalseTmp(inst.Src1)
			pending = append(pending, pendingPatch{token: tok, target: int(inst.Target)})
		case OpJmpIfTrue, OpJmpIfEq:
			// Both compile down to a callHelper + conditional branch in
			// every backend here; modeled uniformly via the generic path
			// below alongside the table-dispatched opcodes.
			idx, ok := helperTable[inst.Op]
			if !ok {
				idx = -1
			}
			e.callHelper(idx, &inst)
			tok := e.jmpIfFalseTmp(0)
			pending = append(pending, pendingPatch{token: tok, target: int(inst.Target)})
		case OpRet:
			e.epilogueReturn(true)
		default:
			idx, ok := helperTable[inst.Op]
			if !ok {
				return nil, fmt.Errorf("opcode %s has no JIT template", inst.Op)
			}
			e.callHelper(idx, &inst)
		}
		if err := e.err(); err != nil {
			return nil, err
		}
	}
	e.epilogueReturn(true)

	for _, p := range pending {
		if p.target < 0 || p.target >= len(labelOffsets) {
			return nil, fmt.Errorf("branch target %d out of range", p.target)
		}
		e.patch(p.token, labelOffsets[p.target])
	}
	if err := e.err(); err != nil {
		return nil, err
	}
	_ = errorExitPatches

	code := e.bytes()
	entry, err := mem.install(code)
	if err != nil {
		return nil, err
	}
	if b.trampoline == nil {
		return nil, fmt.Errorf("GOARCH=%s has no execution trampoline; codegen only", b.arch)
	}
	tramp := b.trampoline
	return func(env *Env) bool {
		return tramp(entry, env)
	}, nil
}

// callJIT dispatches through a compiled function's native entrypoint,
// falling back to the interpreter transparently if the function's JIT
// entry turns out to be nil (a defensive fallback mirroring spec §5.1's
// "the interpreter remains correct for every function at every moment").
func (env *Env) callJIT(dst uint16, fn *FuncObj, args []Value) bool {
	if fn.jitEntry == nil {
		return env.callInterpreted(dst, fn, args)
	}
	f, ok := env.pushFrame(fn, fn.TmpvarSize)
	if !ok {
		return false
	}
	copy(f.tmpvar[:len(args)], args)

	env.vm.commitJIT()
	ok = fn.jitEntry(env)

	var result Value
	if ok {
		result = f.tmpvar[0]
	}
	env.popFrame()
	if !ok {
		return false
	}
	if env.frameIdx >= 0 {
		*env.tmp(dst) = result
	} else {
		env.frames[0].tmpvar[dst] = result
	}
	return true
}

// commitJIT toggles the VM's code region from writable to executable if
// it was left dirty by a just-finished compilation (spec §5.3's W^X
// protocol: "auto-invoked around VM entry"). It is a no-op when JIT is
// disabled or nothing new was emitted since the last commit.
func (vm *VM) commitJIT() {
	if vm.code == nil || !vm.jitDirty {
		return
	}
	if err := vm.code.makeExecutable(); err != nil {
		vm.log.Warnf("jit: commit failed: %v", err)
	}
	vm.jitDirty = false
}
