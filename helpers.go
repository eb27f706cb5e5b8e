package noct

import (
	"strconv"
)

// This file holds the C4 "execution helpers": one Go function per
// non-trivial opcode, each shaped fn(env, dst, src1, src2) -> bool so the
// same function serves both the interpreter's dispatch loop (interp.go)
// and, unmodified, as the call target JIT-compiled code reaches for on any
// opcode complex enough not to be inlined (spec §5.2's "ABI of fn(env) ->
// bool shared between interpreter and JIT").

func (env *Env) tmp(i uint16) *Value {
	return &env.currentFrame().tmpvar[i]
}

// helperAdd implements ADD's type lattice (spec §4.4): Int+Int stays an
// Int, Float is contagious with Int, and String concatenates with the
// other operand formatted (%d for Int, Go's default float formatting for
// Float, recursively for String).
func helperAdd(env *Env, dst, src1, src2 uint16) bool {
	a, b := *env.tmp(src1), *env.tmp(src2)
	switch {
	case a.IsInt() && b.IsInt():
		*env.tmp(dst) = NewInt(a.Int() + b.Int())
	case a.IsString() || b.IsString():
		s, err := env.NewString(valueToDisplayString(a) + valueToDisplayString(b))
		if err != nil {
			return env.Errorf(ErrOutOfMemory, "%v", err)
		}
		*env.tmp(dst) = s
	case a.IsFloat() || b.IsFloat():
		if !a.IsInt() && !a.IsFloat() {
			return typeErrorf(env, "ADD", "int or float", a.Kind())
		}
		if !b.IsInt() && !b.IsFloat() {
			return typeErrorf(env, "ADD", "int or float", b.Kind())
		}
		*env.tmp(dst) = NewFloat(numToFloat(a) + numToFloat(b))
	default:
		return typeErrorf(env, "ADD", "int, float, or string", a.Kind())
	}
	return true
}

func numToFloat(v Value) float32 {
	if v.IsFloat() {
		return v.Float()
	}
	return float32(v.Int())
}

func valueToDisplayString(v Value) string {
	switch v.Kind() {
	case KindInt:
		return strconv.FormatInt(int64(v.Int()), 10)
	case KindFloat:
		return strconv.FormatFloat(float64(v.Float()), 'g', -1, 32)
	case KindString:
		return v.StringObj().Data
	default:
		return v.String()
	}
}

func typeErrorf(env *Env, op, expected string, got Kind) bool {
	return env.Errorf(ErrTypeError, "%s: expected %s, got %s", op, expected, got)
}

// numericBinOp implements SUB/MUL, which widen to Float whenever either
// operand is Float and otherwise stay Int (spec §4.4).
func numericBinOp(env *Env, op string, dst, src1, src2 uint16, ints func(a, b int32) int32, floats func(a, b float32) float32) bool {
	a, b := *env.tmp(src1), *env.tmp(src2)
	if !a.IsInt() && !a.IsFloat() {
		return typeErrorf(env, op, "int or float", a.Kind())
	}
	if !b.IsInt() && !b.IsFloat() {
		return typeErrorf(env, op, "int or float", b.Kind())
	}
	if a.IsInt() && b.IsInt() {
		*env.tmp(dst) = NewInt(ints(a.Int(), b.Int()))
	} else {
		*env.tmp(dst) = NewFloat(floats(numToFloat(a), numToFloat(b)))
	}
	return true
}

func helperSub(env *Env, dst, src1, src2 uint16) bool {
	return numericBinOp(env, "SUB", dst, src1, src2,
		func(a, b int32) int32 { return a - b },
		func(a, b float32) float32 { return a - b })
}

func helperMul(env *Env, dst, src1, src2 uint16) bool {
	return numericBinOp(env, "MUL", dst, src1, src2,
		func(a, b int32) int32 { return a * b },
		func(a, b float32) float32 { return a * b })
}

// helperDiv implements DIV, rejecting division by zero for both Int and
// Float operands (spec §4.4 "DIV by zero is always a DivisionByZero
// fault, never infinity").
func helperDiv(env *Env, dst, src1, src2 uint16) bool {
	a, b := *env.tmp(src1), *env.tmp(src2)
	if !a.IsInt() && !a.IsFloat() {
		return typeErrorf(env, "DIV", "int or float", a.Kind())
	}
	if !b.IsInt() && !b.IsFloat() {
		return typeErrorf(env, "DIV", "int or float", b.Kind())
	}
	if a.IsInt() && b.IsInt() {
		if b.Int() == 0 {
			return env.Errorf(ErrDivisionByZero, "division by zero")
		}
		*env.tmp(dst) = NewInt(a.Int() / b.Int())
		return true
	}
	bf := numToFloat(b)
	if bf == 0 {
		return env.Errorf(ErrDivisionByZero, "division by zero")
	}
	*env.tmp(dst) = NewFloat(numToFloat(a) / bf)
	return true
}

// intOnlyBinOp backs MOD/AND/OR/XOR, which spec §4.4 defines only over
// Int operands.
func intOnlyBinOp(env *Env, op string, dst, src1, src2 uint16, fn func(a, b int32) (int32, bool)) bool {
	a, b := *env.tmp(src1), *env.tmp(src2)
	if !a.IsInt() {
		return typeErrorf(env, op, "int", a.Kind())
	}
	if !b.IsInt() {
		return typeErrorf(env, op, "int", b.Kind())
	}
	v, ok := fn(a.Int(), b.Int())
	if !ok {
		return env.Errorf(ErrDivisionByZero, "division by zero")
	}
	*env.tmp(dst) = NewInt(v)
	return true
}

func helperMod(env *Env, dst, src1, src2 uint16) bool {
	return intOnlyBinOp(env, "MOD", dst, src1, src2, func(a, b int32) (int32, bool) {
		if b == 0 {
			return 0, false
		}
		return a % b, true
	})
}

func helperAnd(env *Env, dst, src1, src2 uint16) bool {
	return intOnlyBinOp(env, "AND", dst, src1, src2, func(a, b int32) (int32, bool) { return a & b, true })
}

func helperOr(env *Env, dst, src1, src2 uint16) bool {
	return intOnlyBinOp(env, "OR", dst, src1, src2, func(a, b int32) (int32, bool) { return a | b, true })
}

func helperXor(env *Env, dst, src1, src2 uint16) bool {
	return intOnlyBinOp(env, "XOR", dst, src1, src2, func(a, b int32) (int32, bool) { return a ^ b, true })
}

// helperShl/helperShr implement SHL/SHR. A negative shift count yields
// Int(0) rather than faulting or invoking Go's own shift-count panic
// (DESIGN.md Open Question 3).
func helperShl(env *Env, dst, src1, src2 uint16) bool {
	return intOnlyBinOp(env, "SHL", dst, src1, src2, func(a, b int32) (int32, bool) {
		if b < 0 || b >= 32 {
			return 0, true
		}
		return a << uint32(b), true
	})
}

func helperShr(env *Env, dst, src1, src2 uint16) bool {
	return intOnlyBinOp(env, "SHR", dst, src1, src2, func(a, b int32) (int32, bool) {
		if b < 0 || b >= 32 {
			return 0, true
		}
		return a >> uint32(b), true
	})
}

func helperNeg(env *Env, dst, src uint16) bool {
	a := *env.tmp(src)
	switch {
	case a.IsInt():
		*env.tmp(dst) = NewInt(-a.Int())
	case a.IsFloat():
		*env.tmp(dst) = NewFloat(-a.Float())
	default:
		return typeErrorf(env, "NEG", "int or float", a.Kind())
	}
	return true
}

// helperNot implements logical NOT over any value using the same
// truthiness rule as JMPIFTRUE/JMPIFFALSE (spec §4.4): Int 0, Float 0.0,
// empty String, empty Array/Dict are false; everything else is true.
func helperNot(env *Env, dst, src uint16) bool {
	*env.tmp(dst) = NewInt(boolToInt(!truthy(*env.tmp(src))))
	return true
}

func boolToInt(b bool) int32 {
	if b {
		return 1
	}
	return 0
}

func truthy(v Value) bool {
	switch v.Kind() {
	case KindInt:
		return v.Int() != 0
	case KindFloat:
		return v.Float() != 0
	case KindString:
		return v.StringObj().Data != ""
	case KindArray:
		return v.ArrayObj().Size() != 0
	case KindDict:
		return v.DictObj().Size() != 0
	case KindFunc:
		return true
	default:
		return false
	}
}

// compareOrdered backs LT/LE/GT/GE, defined over Int/Float (numeric,
// cross-widened) and String (lexicographic), per spec §4.4.
func compareOrdered(env *Env, op string, dst, src1, src2 uint16, ints func(a, b int32) bool, floats func(a, b float32) bool, strs func(a, b string) bool) bool {
	a, b := *env.tmp(src1), *env.tmp(src2)
	switch {
	case a.IsString() && b.IsString():
		*env.tmp(dst) = NewInt(boolToInt(strs(a.StringObj().Data, b.StringObj().Data)))
	case (a.IsInt() || a.IsFloat()) && (b.IsInt() || b.IsFloat()):
		if a.IsInt() && b.IsInt() {
			*env.tmp(dst) = NewInt(boolToInt(ints(a.Int(), b.Int())))
		} else {
			*env.tmp(dst) = NewInt(boolToInt(floats(numToFloat(a), numToFloat(b))))
		}
	default:
		return typeErrorf(env, op, "comparable operands", a.Kind())
	}
	return true
}

func helperLt(env *Env, dst, src1, src2 uint16) bool {
	return compareOrdered(env, "LT", dst, src1, src2,
		func(a, b int32) bool { return a < b },
		func(a, b float32) bool { return a < b },
		func(a, b string) bool { return a < b })
}

func helperLe(env *Env, dst, src1, src2 uint16) bool {
	return compareOrdered(env, "LE", dst, src1, src2,
		func(a, b int32) bool { return a <= b },
		func(a, b float32) bool { return a <= b },
		func(a, b string) bool { return a <= b })
}

func helperGt(env *Env, dst, src1, src2 uint16) bool {
	return compareOrdered(env, "GT", dst, src1, src2,
		func(a, b int32) bool { return a > b },
		func(a, b float32) bool { return a > b },
		func(a, b string) bool { return a > b })
}

func helperGe(env *Env, dst, src1, src2 uint16) bool {
	return compareOrdered(env, "GE", dst, src1, src2,
		func(a, b int32) bool { return a >= b },
		func(a, b float32) bool { return a >= b },
		func(a, b string) bool { return a >= b })
}

// helperEq/helperNe implement total equality (spec §4.4 "EQ/NE compare
// across kinds without faulting; a kind mismatch is simply unequal").
func helperEq(env *Env, dst, src1, src2 uint16) bool {
	*env.tmp(dst) = NewInt(boolToInt(valuesEqual(*env.tmp(src1), *env.tmp(src2))))
	return true
}

func helperNe(env *Env, dst, src1, src2 uint16) bool {
	*env.tmp(dst) = NewInt(boolToInt(!valuesEqual(*env.tmp(src1), *env.tmp(src2))))
	return true
}

// helperEqI is EQ specialized to two Ints, backing the EQI opcode in both
// the interpreter and the JIT's helper table; it faults if either side
// isn't an Int rather than silently falling back to the general rule.
func helperEqI(env *Env, dst, src1, src2 uint16) bool {
	a, b := *env.tmp(src1), *env.tmp(src2)
	if !a.IsInt() || !b.IsInt() {
		return typeErrorf(env, "EQI", "int", a.Kind())
	}
	*env.tmp(dst) = NewInt(boolToInt(a.Int() == b.Int()))
	return true
}

// helperInc implements the INC opcode: in-place Int increment.
func helperInc(env *Env, dst uint16) bool {
	v := env.tmp(dst)
	if !v.IsInt() {
		return typeErrorf(env, "INC", "int", v.Kind())
	}
	*v = NewInt(v.Int() + 1)
	return true
}

// helperLoadArray implements LOADARRAY over both Array (bounds-checked)
// and Dict (index-into-value, per spec §4.4's unification of the two
// container kinds under LOADARRAY/STOREARRAY when the left side is a
// Dict and the index is used as a key rather than a position).
func helperLoadArray(env *Env, dst, containerSlot, idxSlot uint16) bool {
	c := *env.tmp(containerSlot)
	idx := *env.tmp(idxSlot)
	switch c.Kind() {
	case KindArray:
		if !idx.IsInt() {
			return typeErrorf(env, "LOADARRAY", "int index", idx.Kind())
		}
		v, ok := c.ArrayObj().Get(int(idx.Int()))
		if !ok {
			return env.Errorf(ErrIndexError, "array index %d out of range", idx.Int())
		}
		*env.tmp(dst) = v
	case KindDict:
		v, ok := c.DictObj().Get(idx)
		if !ok {
			return env.Errorf(ErrKeyError, "key not found")
		}
		*env.tmp(dst) = v
	case KindString:
		if !idx.IsInt() {
			return typeErrorf(env, "LOADARRAY", "int index", idx.Kind())
		}
		data := c.StringObj().Data
		if idx.Int() < 0 || int(idx.Int()) >= len(data) {
			return env.Errorf(ErrIndexError, "string index %d out of range", idx.Int())
		}
		s, err := env.NewString(string(data[idx.Int()]))
		if err != nil {
			return env.Errorf(ErrOutOfMemory, "%v", err)
		}
		*env.tmp(dst) = s
	default:
		return typeErrorf(env, "LOADARRAY", "array, dict, or string", c.Kind())
	}
	return true
}

// helperStoreArray implements STOREARRAY. Storing at an Array index past
// the end grows the array, zero-filling the gap (spec §4.4); storing
// into a Dict inserts or updates the key. Because growth may replace the
// container's identity (copy-on-resize), the helper writes the possibly
// new object back into the container's tmpvar slot.
func helperStoreArray(env *Env, containerSlot, idxSlot, valSlot uint16) bool {
	c := *env.tmp(containerSlot)
	idx := *env.tmp(idxSlot)
	val := *env.tmp(valSlot)
	switch c.Kind() {
	case KindArray:
		if !idx.IsInt() || idx.Int() < 0 {
			return typeErrorf(env, "STOREARRAY", "non-negative int index", idx.Kind())
		}
		arr := c.obj.(*ArrayObj)
		grown := arr.set(env, int(idx.Int()), val)
		if grown != arr {
			*env.tmp(containerSlot) = newObjValue(KindArray, grown)
		}
	case KindDict:
		d := c.obj.(*DictObj)
		grown := d.set(env, idx, val)
		if grown != d {
			*env.tmp(containerSlot) = newObjValue(KindDict, grown)
		}
	default:
		return typeErrorf(env, "STOREARRAY", "array or dict", c.Kind())
	}
	return true
}

// helperLen implements LEN: element count for Array/Dict, rune count for
// String (spec §4.4's LOADDOT/LEN rule).
func helperLen(env *Env, dst, src uint16) bool {
	v := *env.tmp(src)
	switch v.Kind() {
	case KindArray:
		*env.tmp(dst) = NewInt(int32(v.ArrayObj().Size()))
	case KindDict:
		*env.tmp(dst) = NewInt(int32(v.DictObj().Size()))
	case KindString:
		*env.tmp(dst) = NewInt(int32(runeCount(v.StringObj().Data)))
	default:
		return typeErrorf(env, "LEN", "array, dict, or string", v.Kind())
	}
	return true
}

func runeCount(s string) int {
	n := 0
	for range s {
		n++
	}
	return n
}

func helperGetDictKeyByIndex(env *Env, dst, dictSlot, idxSlot uint16) bool {
	d := *env.tmp(dictSlot)
	idx := *env.tmp(idxSlot)
	if !d.IsDict() {
		return typeErrorf(env, "GETDICTKEYBYINDEX", "dict", d.Kind())
	}
	if !idx.IsInt() {
		return typeErrorf(env, "GETDICTKEYBYINDEX", "int index", idx.Kind())
	}
	k, ok := d.DictObj().KeyAt(int(idx.Int()))
	if !ok {
		return env.Errorf(ErrIndexError, "dict index %d out of range", idx.Int())
	}
	*env.tmp(dst) = k
	return true
}

func helperGetDictValByIndex(env *Env, dst, dictSlot, idxSlot uint16) bool {
	d := *env.tmp(dictSlot)
	idx := *env.tmp(idxSlot)
	if !d.IsDict() {
		return typeErrorf(env, "GETDICTVALBYINDEX", "dict", d.Kind())
	}
	if !idx.IsInt() {
		return typeErrorf(env, "GETDICTVALBYINDEX", "int index", idx.Kind())
	}
	v, ok := d.DictObj().ValAt(int(idx.Int()))
	if !ok {
		return env.Errorf(ErrIndexError, "dict index %d out of range", idx.Int())
	}
	*env.tmp(dst) = v
	return true
}

// helperLoadSymbol/helperStoreSymbol implement LOADSYMBOL/STORESYMBOL
// against the VM's global symbol table, a Go map keyed by the name
// string; the string table's precomputed hash is not consulted for the
// lookup.
func (env *Env) helperLoadSymbol(dst uint16, name string) bool {
	v, ok := env.vm.Global(name)
	if !ok {
		return env.Errorf(ErrNameError, "name %q is not defined", name)
	}
	*env.tmp(dst) = v
	return true
}

func (env *Env) helperStoreSymbol(name string, src uint16) bool {
	env.vm.RegisterGlobal(name, *env.tmp(src))
	return true
}

// helperLoadDot implements LOADDOT: the `length` pseudo-field resolves to
// LEN's result for any container/string; any other field name resolves
// through the operand's Dict entries when the operand is itself a Dict
// (spec §4.4's generalization of dotted field access onto Dict-backed
// "objects").
func (env *Env) helperLoadDot(dst, src uint16, field string) bool {
	v := *env.tmp(src)
	if field == "length" {
		return helperLen(env, dst, src)
	}
	if !v.IsDict() {
		return typeErrorf(env, "LOADDOT", "dict", v.Kind())
	}
	key, err := env.NewString(field)
	if err != nil {
		return env.Errorf(ErrOutOfMemory, "%v", err)
	}
	val, ok := v.DictObj().Get(key)
	if !ok {
		return env.Errorf(ErrKeyError, "field %q not found", field)
	}
	*env.tmp(dst) = val
	return true
}

func (env *Env) helperStoreDot(objSlot uint16, field string, valSlot uint16) bool {
	o := *env.tmp(objSlot)
	if !o.IsDict() {
		return typeErrorf(env, "STOREDOT", "dict", o.Kind())
	}
	key, err := env.NewString(field)
	if err != nil {
		return env.Errorf(ErrOutOfMemory, "%v", err)
	}
	d := o.obj.(*DictObj)
	grown := d.set(env, key, *env.tmp(valSlot))
	if grown != d {
		*env.tmp(objSlot) = newObjValue(KindDict, grown)
	}
	return true
}

// callFunc resolves and invokes a Func value with the given argument
// tmpvar slots, writing the result into dst (spec §4.7 CALL/THISCALL).
// For THISCALL the interpreter resolves the method before calling this,
// through resolveThisCallTarget: a lookup of the method name in `this`
// as a Dict; there is no intrinsic method table.
func (env *Env) callFunc(dst uint16, fnVal Value, args []uint16) bool {
	if !fnVal.IsFunc() {
		return typeErrorf(env, "CALL", "func", fnVal.Kind())
	}
	fn := fnVal.FuncObj()
	if len(args) != fn.ParamCount() {
		return env.Errorf(ErrArgumentError, "%s expects %d arguments, got %d", fn.Name, fn.ParamCount(), len(args))
	}
	if len(args) > MaxArgs {
		return env.Errorf(ErrArgumentError, "too many arguments")
	}

	argVals := make([]Value, len(args))
	for i, slot := range args {
		argVals[i] = *env.tmp(slot)
	}

	fn.CallCount++

	if fn.IsNative() {
		f, ok := env.pushFrame(fn, len(argVals))
		if !ok {
			return false
		}
		copy(f.tmpvar[:], argVals)
		ok = fn.CFunc(env)
		result := Value{}
		if ok {
			result = *env.tmp(0)
		}
		env.popFrame()
		if !ok {
			return false
		}
		*env.tmp(dst) = result
		return true
	}

	if fn.jitEntry != nil {
		return env.callJIT(dst, fn, argVals)
	}
	return env.callInterpreted(dst, fn, argVals)
}

func (env *Env) resolveThisCallTarget(this Value, method string) (Value, bool) {
	if !this.IsDict() {
		return Value{}, false
	}
	key, err := env.NewString(method)
	if err != nil {
		return Value{}, false
	}
	return this.DictObj().Get(key)
}
