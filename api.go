package noct

// This file is the public embedding surface (spec §6.2/C8): the subset of
// the VM/Env API a host program is expected to call directly, as opposed
// to internals used only by the interpreter and JIT.

// RegisterBytecode decodes data as a single function body and registers
// that body once per key of entries, under the key's name and with the
// key's parameter list, in the VM's global symbol table, returning the
// names registered.
func (vm *VM) RegisterBytecode(env *Env, fileName string, data []byte, entries map[string][]string) ([]string, error) {
	bc, err := DecodeBytecode(fileName, data)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for name, params := range entries {
		fnVal, err := env.NewBytecodeFunc(name, params, bc, maxTmpVars)
		if err != nil {
			return nil, err
		}
		vm.RegisterGlobal(name, fnVal)
		names = append(names, name)
	}
	return names, nil
}

// CallNamed looks up name in the global symbol table and calls it with
// args, the convenience entrypoint cmd/noctrun uses.
func (env *Env) CallNamed(name string, args ...Value) (Value, error) {
	fnVal, ok := env.vm.Global(name)
	if !ok {
		env.setError(ErrNameError, "name not found: "+name, env.fileName, env.line)
		return Value{}, env.Error()
	}
	return env.Call(fnVal, args...)
}

// --- Array API (spec §4.8) ---

// ArraySize reports an array Value's element count.
func ArraySize(v Value) (int, error) {
	if !v.IsArray() {
		return 0, &TypeError{Op: "ArraySize", Expected: "array", Got: v.Kind()}
	}
	return v.ArrayObj().Size(), nil
}

// ArrayGet reads one element.
func ArrayGet(v Value, index int) (Value, bool, error) {
	if !v.IsArray() {
		return Value{}, false, &TypeError{Op: "ArrayGet", Expected: "array", Got: v.Kind()}
	}
	val, ok := v.ArrayObj().Get(index)
	return val, ok, nil
}

// ArraySet writes one element, growing the array if needed. It returns
// the (possibly new, per copy-on-resize) Value the caller must use from
// then on in place of the one passed in.
func (env *Env) ArraySet(v Value, index int, val Value) (Value, error) {
	if !v.IsArray() {
		return Value{}, &TypeError{Op: "ArraySet", Expected: "array", Got: v.Kind()}
	}
	arr := v.obj.(*ArrayObj)
	grown := arr.set(env, index, val)
	return newObjValue(KindArray, grown), nil
}

// --- Dict API (spec §4.8) ---

// DictSize reports a dict Value's live entry count.
func DictSize(v Value) (int, error) {
	if !v.IsDict() {
		return 0, &TypeError{Op: "DictSize", Expected: "dict", Got: v.Kind()}
	}
	return v.DictObj().Size(), nil
}

// DictGet reads one entry.
func DictGet(v, key Value) (Value, bool, error) {
	if !v.IsDict() {
		return Value{}, false, &TypeError{Op: "DictGet", Expected: "dict", Got: v.Kind()}
	}
	val, ok := v.DictObj().Get(key)
	return val, ok, nil
}

// DictSet inserts or updates one entry, returning the Value to use from
// then on (copy-on-resize may have replaced the underlying object).
func (env *Env) DictSet(v, key, val Value) (Value, error) {
	if !v.IsDict() {
		return Value{}, &TypeError{Op: "DictSet", Expected: "dict", Got: v.Kind()}
	}
	d := v.obj.(*DictObj)
	grown := d.set(env, key, val)
	return newObjValue(KindDict, grown), nil
}

// DictRemove deletes an entry. This runtime has no parallel-GC build, so
// removal is always performed and the error is non-nil only when v is not
// a Dict.
func DictRemove(v, key Value) (bool, error) {
	if !v.IsDict() {
		return false, &TypeError{Op: "DictRemove", Expected: "dict", Got: v.Kind()}
	}
	return v.DictObj().Remove(key), nil
}

// --- Frame-relative argument access (spec §6.2's GetArg/SetReturn family,
// used by native CFunc implementations) ---

// Argc reports how many tmpvar slots the current frame was entered with
// (for a native call, this is exactly the argument count).
func (env *Env) Argc() int {
	return env.currentFrame().tmpvarSize
}

// Arg returns argument i of the current (native) frame.
func (env *Env) Arg(i int) Value {
	return env.currentFrame().tmpvar[i]
}

// ArgInt reads argument i and requires it to be an Int.
func (env *Env) ArgInt(i int) (int32, bool) {
	v := env.Arg(i)
	if !v.IsInt() {
		return 0, false
	}
	return v.Int(), true
}

// ArgFloat reads argument i and requires it to be a Float.
func (env *Env) ArgFloat(i int) (float32, bool) {
	v := env.Arg(i)
	if !v.IsFloat() {
		return 0, false
	}
	return v.Float(), true
}

// ArgString reads argument i and requires it to be a String.
func (env *Env) ArgString(i int) (string, bool) {
	v := env.Arg(i)
	if !v.IsString() {
		return "", false
	}
	return v.StringObj().Data, true
}

// SetReturn stores a native function's result into tmpvar[0], the slot
// callFunc reads back as the call's result (spec §6.2).
func (env *Env) SetReturn(v Value) {
	env.currentFrame().tmpvar[0] = v
}
