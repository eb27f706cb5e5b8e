package noct

// FuncObj represents a callable: exactly one of Bytecode or CFunc is set
// (spec §3.2 "Func: either an interpreted function ... or a native
// function registered from the host"; §4.7 CALL/THISCALL resolution
// treats the two uniformly once resolved).
type FuncObj struct {
	head *objHeader

	Name       string
	ParamNames []string
	FileName   string

	// Bytecode is non-nil for an interpreted function.
	Bytecode   *Bytecode
	TmpvarSize int

	// CFunc is non-nil for a native function registered via RegisterCFunc.
	CFunc CFunc

	// jitEntry is filled in by the JIT once CallCount crosses the
	// configured threshold (spec §5.1 "hotness policy"); nil means
	// "interpret".
	jitEntry   jitEntryFunc
	jitFailed  bool
	CallCount  uint64
}

func (f *FuncObj) gcHeader() *objHeader { return f.head }
func (f *FuncObj) objKind() Kind        { return KindFunc }

// CFunc is the signature every host-registered native function must
// implement (spec §6.2's embedding-API contract): it receives the calling
// environment, reads its arguments through the frame-relative Arg* family,
// and returns false on error (the error itself already recorded on env).
type CFunc func(env *Env) bool

func funcObjSize() uint32 { return 96 }

// NewBytecodeFunc wraps compiled bytecode as a callable Func value. It
// validates bc's operands against tmpvarSize and its jump targets against
// the code length before the function is ever reachable from a Call,
// matching spec §8.1.5/§8.3's "BrokenBytecode before any side effect".
func (env *Env) NewBytecodeFunc(name string, params []string, bc *Bytecode, tmpvarSize int) (Value, error) {
	if err := validateBytecode(bc, tmpvarSize); err != nil {
		return Value{}, err
	}
	f := &FuncObj{
		Name:       name,
		ParamNames: params,
		FileName:   bc.FileName,
		Bytecode:   bc,
		TmpvarSize: tmpvarSize,
	}
	f.head = env.vm.heap.alloc(KindFunc, funcObjSize(), f)
	env.vm.maybeFastGC()
	return newObjValue(KindFunc, f), nil
}

// NewCFunc wraps a native host function as a callable Func value.
func (env *Env) NewCFunc(name string, params []string, fn CFunc) Value {
	f := &FuncObj{Name: name, ParamNames: params, CFunc: fn}
	f.head = env.vm.heap.alloc(KindFunc, funcObjSize(), f)
	env.vm.maybeFastGC()
	return newObjValue(KindFunc, f)
}

// IsNative reports whether this function calls into host code rather than
// interpreted bytecode.
func (f *FuncObj) IsNative() bool { return f.CFunc != nil }

// ParamCount returns the function's fixed arity.
func (f *FuncObj) ParamCount() int { return len(f.ParamNames) }
