package noct

// VM owns one heap, one global symbol table, and the set of registered
// functions shared by every Env created against it (spec §3.1 "A VM is
// the top-level embeddable unit; everything else hangs off it").
type VM struct {
	heap *Heap

	globalPins    [maxGlobalPins]*Value
	globalPinCount int

	globals map[string]Value

	envs *Env // head of the VM-owned linked list of live environments

	jit      *jitBackend
	code     *codeMemory
	jitDirty bool // true when freshly emitted code hasn't been made executable yet

	cfg *Config
	log Logger
}

// NewVM constructs a VM using cfg for GC sizing and JIT policy. A nil cfg
// falls back to NewConfig's defaults.
func NewVM(cfg *Config) *VM {
	if cfg == nil {
		cfg = NewConfig()
	}
	gcCfg := cfg.GCConfig()
	jitCfg := cfg.JITConfig()
	vm := &VM{
		heap:    newHeap(gcCfg),
		globals: make(map[string]Value),
		cfg:     cfg,
		log:     defaultLogger,
	}
	if jitCfg.Enable {
		vm.jit = newJITBackend(jitCfg)
		vm.code = newCodeMemory(jitCfg.CodeRegionSize)
	}
	return vm
}

// SetLogger overrides the VM's logger (spec SPEC_FULL §1 ambient logging).
func (vm *VM) SetLogger(l Logger) { vm.log = l }

// CreateThreadEnv allocates a new execution context sharing this VM's
// heap and globals (spec §3.1/§6.2 "CreateThreadEnv").
func (vm *VM) CreateThreadEnv() *Env {
	e := newEnv(vm)
	e.next = vm.envs
	vm.envs = e
	return e
}

// Close releases the VM's JIT code memory, if any.
func (vm *VM) Close() error {
	if vm.code != nil {
		return vm.code.Close()
	}
	return nil
}

// HeapUsage reports current GC statistics (C8 get_heap_usage).
func (vm *VM) HeapUsage() HeapUsage { return vm.heap.Usage() }

// RegisterGlobal binds name to val in the VM's global symbol table (spec
// §4.6 LOADSYMBOL/STORESYMBOL's backing store).
func (vm *VM) RegisterGlobal(name string, val Value) {
	vm.globals[name] = val
}

// Global looks up a name in the global symbol table.
func (vm *VM) Global(name string) (Value, bool) {
	v, ok := vm.globals[name]
	return v, ok
}

// RegisterCFunc registers a native host function under name, callable
// from bytecode via CALL/THISCALL (spec §6.2).
func (vm *VM) RegisterCFunc(env *Env, name string, params []string, fn CFunc) {
	vm.RegisterGlobal(name, env.NewCFunc(name, params, fn))
}

// allEnvs iterates every Env ever created against this VM, used by the GC
// root marker to walk every frame's tmpvars (gc_mark.go).
func (vm *VM) allEnvs(f func(*Env)) {
	for e := vm.envs; e != nil; e = e.next {
		f(e)
	}
}
