package noct

import (
	"encoding/binary"
	"fmt"
	"unsafe"
)

// archCodec supplies the handful of raw byte sequences that differ across
// architectures; genericEmitter stitches them together into a function
// body. This keeps every backend's control flow (prologue, the per-
// instruction loop, patch resolution) in one place while isolating the
// actual machine-code bytes per target (spec §5.2/§9's per-architecture
// template approach).
type archCodec interface {
	// wordSize is 4 for 32-bit targets, 8 for 64-bit.
	wordSize() int
	prologue() []byte
	epilogue(ok bool) []byte
	movImm32(v int32) []byte
	// call emits a call to target (an absolute code pointer obtained via
	// jitShimAddr), with the three fixed arguments (env, helper index,
	// instruction pointer) already established by loadCallArgs.
	loadCallArgs(helperIdx int32, inst unsafe.Pointer) []byte
	call(target uintptr) ([]byte, error)
	testResultAndJumpIfFalse() (prefix []byte, branchOffset int, size int)
	jmp() (code []byte, branchOffset int, size int)
	patchBranch(code []byte, branchOffset int, size int, rel int32) error
}

// genericEmitter implements asmEmitter for any archCodec.
type genericEmitter struct {
	codec archCodec
	buf   []byte
	// pendingBranches records, for each jmp()/jmpIfFalseTmp() call, where
	// in buf the branch displacement lives and how large it is, so
	// patch() can go back and fill it in once every label's address is
	// known.
	pendingBranches map[int]branchSite
	nextToken       int
	lastErr         error
}

type branchSite struct {
	offset int
	size   int
}

func newGenericEmitter(codec archCodec) *genericEmitter {
	return &genericEmitter{codec: codec}
}

func (e *genericEmitter) reset() {
	e.buf = nil
	e.pendingBranches = make(map[int]branchSite)
	e.nextToken = 0
	e.lastErr = nil
}

func (e *genericEmitter) bytes() []byte { return e.buf }
func (e *genericEmitter) pos() int      { return len(e.buf) }
func (e *genericEmitter) err() error    { return e.lastErr }

func (e *genericEmitter) prologue() { e.buf = append(e.buf, e.codec.prologue()...) }

func (e *genericEmitter) epilogueReturn(ok bool) {
	e.buf = append(e.buf, e.codec.epilogue(ok)...)
}

func (e *genericEmitter) movImm32(v int32) {
	e.buf = append(e.buf, e.codec.movImm32(v)...)
}

// callHelper loads the fixed three-argument call convention (env, helper
// index, instruction pointer) and calls the shared dispatch shim, whose
// code pointer is resolved once per process (jit_shim.go). A helperIndex
// of -1 is used for opcodes (like ASSIGN) that a fuller backend would
// inline directly; this emitter still routes them through the shim for
// simplicity, trading a little performance for one uniform code path
// across every architecture.
func (e *genericEmitter) callHelper(helperIndex int, inst *Instruction) {
	idx := int32(helperIndex)
	if helperIndex < 0 {
		idx = int32(assignShimIndex)
	}
	e.buf = append(e.buf, e.codec.loadCallArgs(idx, unsafe.Pointer(inst))...)
	target, err := jitShimAddr()
	if err != nil {
		e.lastErr = err
		return
	}
	code, err := e.codec.call(target)
	if err != nil {
		e.lastErr = err
		return
	}
	e.buf = append(e.buf, code...)
}

func (e *genericEmitter) jmp() int {
	code, off, size := e.codec.jmp()
	token := e.nextToken
	e.nextToken++
	e.pendingBranches[token] = branchSite{offset: len(e.buf) + off, size: size}
	e.buf = append(e.buf, code...)
	return token
}

func (e *genericEmitter) jmpIfFalseTmp(_ uint16) int {
	prefix, off, size := e.codec.testResultAndJumpIfFalse()
	token := e.nextToken
	e.nextToken++
	e.pendingBranches[token] = branchSite{offset: len(e.buf) + off, size: size}
	e.buf = append(e.buf, prefix...)
	return token
}

func (e *genericEmitter) patch(token int, target int) {
	site, ok := e.pendingBranches[token]
	if !ok {
		e.lastErr = fmt.Errorf("patch: unknown branch token %d", token)
		return
	}
	rel := int32(target - (site.offset + site.size))
	if err := e.codec.patchBranch(e.buf, site.offset, site.size, rel); err != nil {
		e.lastErr = err
	}
}

// assignShimIndex is the dispatch-table slot for ASSIGN, handled by the
// shim as a plain tmpvar copy rather than one of the helpers.go functions
// (ASSIGN has no fault case, so it needs no error helper at all; routing
// it through the shim here just keeps every opcode's codegen path
// uniform).
const assignShimIndex = -1

func putLE32(v int32) []byte {
	var b [4]byte
	binary.LittleEndian.PutUint32(b[:], uint32(v))
	return b[:]
}
