package noct

// defaultJITThreshold is the default call count a function must cross
// before the JIT backend attempts to compile it (spec §5.1 hotness policy),
// the same value NewConfig gives jit.threshold. The runtime reads the
// threshold from Config; nothing reads this constant.
const defaultJITThreshold = 1000

// Call invokes fn with the given arguments from env, the Go-level
// entrypoint matching the embedding API's Call (spec §6.2). It clears any
// stale error before running, matching "the error slot is only meaningful
// until consumed at the next VM-entry boundary" (errors.go).
func (env *Env) Call(fnVal Value, args ...Value) (Value, error) {
	env.clearError()
	if env.vm.code != nil {
		env.vm.commitJIT()
	}
	if !fnVal.IsFunc() {
		env.setError(ErrTypeError, "Call: not a function", env.fileName, env.line)
		return Value{}, env.Error()
	}
	fn := fnVal.FuncObj()
	if len(args) != fn.ParamCount() {
		env.setError(ErrArgumentError, "wrong argument count", env.fileName, env.line)
		return Value{}, env.Error()
	}

	fn.CallCount++
	var result Value
	var ok bool
	if fn.IsNative() {
		f, pushed := env.pushFrame(fn, len(args))
		if !pushed {
			return Value{}, env.Error()
		}
		copy(f.tmpvar[:], args)
		ok = fn.CFunc(env)
		if ok {
			result = *env.tmp(0)
		}
		env.popFrame()
	} else {
		if fn.jitEntry != nil {
			ok = env.callJIT(resultSlot, fn, args)
		} else {
			ok = env.callInterpreted(resultSlot, fn, args)
		}
		if env.frameIdx >= 0 {
			result = *env.tmp(resultSlot)
		} else {
			result = env.frames[0].tmpvar[resultSlot]
		}
	}
	if !ok {
		return Value{}, env.Error()
	}
	return result, nil
}

// resultSlot is a scratch tmpvar slot in the *caller's* frame used to
// stash Call's top-level return value; frame 0 always has room for it
// since maxTmpVars comfortably exceeds any realistic top-level script's
// register count.
const resultSlot = 0

// callInterpreted pushes a frame for fn, copies args into its tmpvar
// table, and runs the fetch-decode-dispatch loop over fn's bytecode
// (spec §4.1/§5.1's "baseline" execution path).
func (env *Env) callInterpreted(dst uint16, fn *FuncObj, args []Value) bool {
	f, ok := env.pushFrame(fn, fn.TmpvarSize)
	if !ok {
		return false
	}
	copy(f.tmpvar[:len(args)], args)

	ok = env.run(fn.Bytecode)

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

// run executes bc's instruction stream against the environment's current
// (already-pushed) frame, dispatching one instruction at a time. A
// function's implicit return value is whatever RET last wrote into
// tmpvar[0]; reaching the end of the stream without a RET returns
// whatever tmpvar[0] holds at that point (Int(0) if nothing wrote it, or
// the first argument if the function takes any).
func (env *Env) run(bc *Bytecode) bool {
	pc := 0
	code := bc.Code
	f := env.currentFrame()
	f.fn.maybeBuildJIT(env.vm)

	for pc < len(code) {
		inst := &code[pc]
		env.line = inst.Line
		env.fileName = bc.FileName

		switch inst.Op {
		case OpLineInfo:
			pc++
			continue
		case OpAssign:
			*env.tmp(inst.Dst) = *env.tmp(inst.Src1)
		case OpIConst:
			*env.tmp(inst.Dst) = NewInt(inst.Imm32)
		case OpFConst:
			env.tmp(inst.Dst).kind = KindFloat
			env.tmp(inst.Dst).num = inst.Imm32
		case OpSConst:
			s := bc.Strings[inst.StrIdx]
			*env.tmp(inst.Dst) = env.newStringWithHash(s.Data, s.Hash)
		case OpAConst:
			*env.tmp(inst.Dst) = env.NewEmptyArray()
		case OpDConst:
			*env.tmp(inst.Dst) = env.NewEmptyDict()
		case OpInc:
			if !helperInc(env, inst.Dst) {
				return false
			}
		case OpAdd:
			if !helperAdd(env, inst.Dst, inst.Src1, inst.Src2) {
				return false
			}
		case OpSub:
			if !helperSub(env, inst.Dst, inst.Src1, inst.Src2) {
				return false
			}
		case OpMul:
			if !helperMul(env, inst.Dst, inst.Src1, inst.Src2) {
				return false
			}
		case OpDiv:
			if !helperDiv(env, inst.Dst, inst.Src1, inst.Src2) {
				return false
			}
		case OpMod:
			if !helperMod(env, inst.Dst, inst.Src1, inst.Src2) {
				return false
			}
		case OpBitAnd:
			if !helperAnd(env, inst.Dst, inst.Src1, inst.Src2) {
				return false
			}
		case OpBitOr:
			if !helperOr(env, inst.Dst, inst.Src1, inst.Src2) {
				return false
			}
		case OpBitXor:
			if !helperXor(env, inst.Dst, inst.Src1, inst.Src2) {
				return false
			}
		case OpShl:
			if !helperShl(env, inst.Dst, inst.Src1, inst.Src2) {
				return false
			}
		case OpShr:
			if !helperShr(env, inst.Dst, inst.Src1, inst.Src2) {
				return false
			}
		case OpNeg:
			if !helperNeg(env, inst.Dst, inst.Src1) {
				return false
			}
		case OpNot:
			if !helperNot(env, inst.Dst, inst.Src1) {
				return false
			}
		case OpLt:
			if !helperLt(env, inst.Dst, inst.Src1, inst.Src2) {
				return false
			}
		case OpLe:
			if !helperLe(env, inst.Dst, inst.Src1, inst.Src2) {
				return false
			}
		case OpGt:
			if !helperGt(env, inst.Dst, inst.Src1, inst.Src2) {
				return false
			}
		case OpGe:
			if !helperGe(env, inst.Dst, inst.Src1, inst.Src2) {
				return false
			}
		case OpEq:
			if !helperEq(env, inst.Dst, inst.Src1, inst.Src2) {
				return false
			}
		case OpEqI:
			if !helperEqI(env, inst.Dst, inst.Src1, inst.Src2) {
				return false
			}
		case OpNe:
			if !helperNe(env, inst.Dst, inst.Src1, inst.Src2) {
				return false
			}
		case OpLoadArray:
			if !helperLoadArray(env, inst.Dst, inst.Src1, inst.Src2) {
				return false
			}
		case OpStoreArray:
			if !helperStoreArray(env, inst.Dst, inst.Src1, inst.Src2) {
				return false
			}
		case OpLen:
			if !helperLen(env, inst.Dst, inst.Src1) {
				return false
			}
		case OpGetDictKeyByIndex:
			if !helperGetDictKeyByIndex(env, inst.Dst, inst.Src1, inst.Src2) {
				return false
			}
		case OpGetDictValByIndex:
			if !helperGetDictValByIndex(env, inst.Dst, inst.Src1, inst.Src2) {
				return false
			}
		case OpLoadSymbol:
			if !env.helperLoadSymbol(inst.Dst, bc.Strings[inst.StrIdx].Data) {
				return false
			}
		case OpStoreSymbol:
			if !env.helperStoreSymbol(bc.Strings[inst.StrIdx].Data, inst.Src1) {
				return false
			}
		case OpLoadDot:
			if !env.helperLoadDot(inst.Dst, inst.Src1, bc.Strings[inst.StrIdx].Data) {
				return false
			}
		case OpStoreDot:
			if !env.helperStoreDot(inst.Src1, bc.Strings[inst.StrIdx].Data, inst.Src2) {
				return false
			}
		case OpCall:
			fnVal := *env.tmp(inst.Src1)
			if !env.callFunc(inst.Dst, fnVal, inst.Args) {
				return false
			}
		case OpThisCall:
			this := *env.tmp(inst.Src1)
			target, ok := env.resolveThisCallTarget(this, bc.Strings[inst.StrIdx].Data)
			if !ok {
				return env.Errorf(ErrNameError, "method %q not found", bc.Strings[inst.StrIdx].Data)
			}
			if !env.callFunc(inst.Dst, target, inst.Args) {
				return false
			}
		case OpJmp:
			if int(inst.Target) > len(code) {
				return env.Errorf(ErrBrokenBytecode, "jump target %d out of range (code length %d)", inst.Target, len(code))
			}
			pc = int(inst.Target)
			continue
		case OpJmpIfTrue:
			if truthy(*env.tmp(inst.Src1)) {
				if int(inst.Target) > len(code) {
					return env.Errorf(ErrBrokenBytecode, "jump target %d out of range (code length %d)", inst.Target, len(code))
				}
				pc = int(inst.Target)
				continue
			}
		case OpJmpIfFalse:
			if !truthy(*env.tmp(inst.Src1)) {
				if int(inst.Target) > len(code) {
					return env.Errorf(ErrBrokenBytecode, "jump target %d out of range (code length %d)", inst.Target, len(code))
				}
				pc = int(inst.Target)
				continue
			}
		case OpJmpIfEq:
			if valuesEqual(*env.tmp(inst.Src1), *env.tmp(inst.Src2)) {
				if int(inst.Target) > len(code) {
					return env.Errorf(ErrBrokenBytecode, "jump target %d out of range (code length %d)", inst.Target, len(code))
				}
				pc = int(inst.Target)
				continue
			}
		case OpRet:
			env.currentFrame().tmpvar[0] = *env.tmp(inst.Src1)
			return true
		default:
			return env.Errorf(ErrBrokenBytecode, "unhandled opcode %s", inst.Op)
		}
		pc++
	}
	return true
}

// maybeBuildJIT requests compilation once a function's call count crosses
// the configured hotness threshold (spec §5.1). Compilation failures are
// sticky (jitFailed) so a function that can't be compiled doesn't retry
// on every subsequent call.
func (fn *FuncObj) maybeBuildJIT(vm *VM) {
	if fn.IsNative() || fn.jitEntry != nil || fn.jitFailed || vm.jit == nil {
		return
	}
	if fn.CallCount < uint64(vm.jit.cfg.Threshold) {
		return
	}
	entry, err := vm.jit.compile(fn, vm.code)
	// compile may have written into (and re-protected) the code region
	// even when it fails, so the next commitJIT must make it executable.
	vm.jitDirty = true
	if err != nil {
		fn.jitFailed = true
		vm.log.Debugf("jit: %s: %v", fn.Name, err)
		return
	}
	fn.jitEntry = entry
}
