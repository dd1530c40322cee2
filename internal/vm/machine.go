// Package vm is a reference interpreter for assembled method bodies. It runs
// the subset of the instruction set the compiler emits, plus the library
// calls it relies on (StringBuilder, String and exception constructors), so
// generated code can be checked by executing it.
package vm

import (
	"errors"
	"fmt"
	"math"

	"github.com/jmm-lang/jmmc/internal/codegen"
	"github.com/jmm-lang/jmmc/internal/types"
)

// DefaultMaxSteps bounds Run when Machine.MaxSteps is zero.
const DefaultMaxSteps = 1_000_000

var (
	// ErrStepLimit is returned when a run exceeds its step budget.
	ErrStepLimit = errors.New("vm: step limit exceeded")
	// ErrHalted is returned by Step after the method has returned.
	ErrHalted = errors.New("vm: machine halted")
)

// UncaughtError is returned when an exception leaves the method.
type UncaughtError struct {
	Exception *Object
}

func (e *UncaughtError) Error() string {
	return "uncaught exception " + e.Exception.String()
}

// Fault is an instruction the machine cannot execute: broken code, not a
// program exception.
type Fault struct {
	PC      int
	Op      codegen.Opcode
	Message string
}

func (f *Fault) Error() string {
	return fmt.Sprintf("vm: pc %d (%s): %s", f.PC, f.Op, f.Message)
}

type thrown struct {
	obj *Object
}

// Machine executes one method body.
type Machine struct {
	code   *codegen.Code
	locals []Value
	stack  []Value

	PC      int
	current int // pc of the instruction being executed
	Steps   int
	Halted  bool
	Result  Value

	// MaxSteps bounds Run; zero means DefaultMaxSteps.
	MaxSteps int
}

// New prepares a machine for code with args bound to the leading local
// slots; long and double arguments take two slots each.
func New(code *codegen.Code, args ...Value) *Machine {
	m := &Machine{code: code, locals: make([]Value, code.MaxLocals)}
	slot := 0
	for _, a := range args {
		if slot >= len(m.locals) {
			m.locals = append(m.locals, make([]Value, slot-len(m.locals)+2)...)
		}
		m.locals[slot] = a
		slot++
		if isWide(a) {
			slot++
		}
	}
	return m
}

// Run executes the method and returns its result, nil for void.
func Run(code *codegen.Code, args ...Value) (Value, error) {
	return New(code, args...).Run()
}

// Run steps until the method returns, an exception escapes or the step
// budget runs out.
func (m *Machine) Run() (Value, error) {
	limit := m.MaxSteps
	if limit <= 0 {
		limit = DefaultMaxSteps
	}
	for !m.Halted {
		if m.Steps >= limit {
			return nil, ErrStepLimit
		}
		if err := m.Step(); err != nil {
			return nil, err
		}
	}
	return m.Result, nil
}

// Local returns the value in a local slot.
func (m *Machine) Local(slot int) Value { return m.locals[slot] }

// Step executes one instruction. An exception with a matching handler
// transfers control to it and is not an error.
func (m *Machine) Step() (err error) {
	if m.Halted {
		return ErrHalted
	}
	if m.PC < 0 || m.PC >= len(m.code.Instructions) {
		m.Halted = true
		return &Fault{PC: m.PC, Message: "execution fell off the end of the method"}
	}

	ins := m.code.Instructions[m.PC]
	m.current = m.PC
	m.PC++
	m.Steps++

	defer func() {
		r := recover()
		if r == nil {
			return
		}
		switch x := r.(type) {
		case *Fault:
			x.PC, x.Op = m.current, ins.Op
			m.Halted = true
			err = x
		case thrown:
			err = m.unwind(x.obj)
		default:
			panic(r)
		}
	}()

	m.execute(ins)
	return nil
}

// unwind transfers control to the first handler covering the throwing
// instruction whose class matches obj.
func (m *Machine) unwind(obj *Object) error {
	for _, h := range m.code.Handlers {
		if m.current < h.Start || m.current >= h.End {
			continue
		}
		if h.Exception != "" && !types.IsSubclass(obj.Class, h.Exception) {
			continue
		}
		m.stack = append(m.stack[:0], obj)
		m.PC = h.Target
		return nil
	}
	m.Halted = true
	return &UncaughtError{Exception: obj}
}

func (m *Machine) faultf(format string, args ...interface{}) {
	panic(&Fault{Message: fmt.Sprintf(format, args...)})
}

func (m *Machine) throw(class, message string) {
	panic(thrown{NewObject(class, message)})
}

func (m *Machine) push(v Value) { m.stack = append(m.stack, v) }

func (m *Machine) pop() Value {
	if len(m.stack) == 0 {
		m.faultf("operand stack underflow")
	}
	v := m.stack[len(m.stack)-1]
	m.stack = m.stack[:len(m.stack)-1]
	return v
}

func (m *Machine) popInt() int32 {
	v, ok := m.pop().(int32)
	if !ok {
		m.faultf("expected int on the stack")
	}
	return v
}

func (m *Machine) popLong() int64 {
	v, ok := m.pop().(int64)
	if !ok {
		m.faultf("expected long on the stack")
	}
	return v
}

func (m *Machine) popFloat() float32 {
	v, ok := m.pop().(float32)
	if !ok {
		m.faultf("expected float on the stack")
	}
	return v
}

func (m *Machine) popDouble() float64 {
	v, ok := m.pop().(float64)
	if !ok {
		m.faultf("expected double on the stack")
	}
	return v
}

func (m *Machine) popString() string {
	switch v := m.pop().(type) {
	case nil:
		m.throw("java/lang/NullPointerException", "string is null")
	case string:
		return v
	default:
		m.faultf("expected String on the stack, found %T", v)
	}
	return ""
}

func (m *Machine) popBuilder() *Builder {
	b, ok := m.pop().(*Builder)
	if !ok {
		m.faultf("expected StringBuilder on the stack")
	}
	return b
}

func (m *Machine) popObject() *Object {
	switch v := m.pop().(type) {
	case nil:
		m.throw("java/lang/NullPointerException", "object is null")
	case *Object:
		return v
	default:
		m.faultf("expected object on the stack, found %T", v)
	}
	return nil
}

func (m *Machine) popArray() *Array {
	switch v := m.pop().(type) {
	case nil:
		m.throw("java/lang/NullPointerException", "array is null")
	case *Array:
		return v
	default:
		m.faultf("expected array on the stack, found %T", v)
	}
	return nil
}

func (m *Machine) load(slot int) Value {
	if slot < 0 || slot >= len(m.locals) {
		m.faultf("local %d out of range", slot)
	}
	return m.locals[slot]
}

func (m *Machine) store(slot int, v Value) {
	if slot < 0 || slot >= len(m.locals) {
		m.faultf("local %d out of range", slot)
	}
	m.locals[slot] = v
}

// dup copies the values making up the top words stack words and inserts
// the copy below the skip words under them.
func (m *Machine) dup(top, skip int) {
	n := m.countValues(len(m.stack), top)
	k := m.countValues(len(m.stack)-n, skip)
	at := len(m.stack) - n - k
	copied := append([]Value(nil), m.stack[len(m.stack)-n:]...)
	rest := append([]Value(nil), m.stack[at:]...)
	m.stack = append(append(m.stack[:at], copied...), rest...)
}

// countValues returns how many values below index end make up words words.
func (m *Machine) countValues(end, words int) int {
	n := 0
	for words > 0 {
		i := end - n - 1
		if i < 0 {
			m.faultf("operand stack underflow")
		}
		if isWide(m.stack[i]) {
			words -= 2
		} else {
			words--
		}
		n++
	}
	if words < 0 {
		m.faultf("instruction splits a two-word value")
	}
	return n
}

func (m *Machine) execute(ins codegen.Instruction) {
	switch op := ins.Op; op {
	case codegen.NOP:

	// constants
	case codegen.ACONST_NULL:
		m.push(nil)
	case codegen.ICONST_M1, codegen.ICONST_0, codegen.ICONST_1, codegen.ICONST_2,
		codegen.ICONST_3, codegen.ICONST_4, codegen.ICONST_5:
		m.push(int32(op - codegen.ICONST_0))
	case codegen.LCONST_0, codegen.LCONST_1:
		m.push(int64(op - codegen.LCONST_0))
	case codegen.FCONST_0, codegen.FCONST_1, codegen.FCONST_2:
		m.push(float32(op - codegen.FCONST_0))
	case codegen.DCONST_0, codegen.DCONST_1:
		m.push(float64(op - codegen.DCONST_0))
	case codegen.BIPUSH, codegen.SIPUSH:
		m.push(int32(ins.Operand))
	case codegen.LDC, codegen.LDC2_W:
		m.push(ins.Constant)

	// locals
	case codegen.ILOAD, codegen.LLOAD, codegen.FLOAD, codegen.DLOAD, codegen.ALOAD:
		m.push(m.load(ins.Operand))
	case codegen.ISTORE, codegen.LSTORE, codegen.FSTORE, codegen.DSTORE, codegen.ASTORE:
		m.store(ins.Operand, m.pop())
	case codegen.IINC:
		v, ok := m.load(ins.Operand).(int32)
		if !ok {
			m.faultf("iinc on a non-int local")
		}
		m.store(ins.Operand, v+int32(ins.Delta))

	// arrays
	case codegen.IALOAD, codegen.LALOAD, codegen.FALOAD, codegen.DALOAD,
		codegen.AALOAD, codegen.BALOAD, codegen.CALOAD:
		idx := m.popInt()
		arr := m.popArray()
		m.checkIndex(arr, idx)
		m.push(arr.Values[idx])
	case codegen.IASTORE, codegen.LASTORE, codegen.FASTORE, codegen.DASTORE,
		codegen.AASTORE, codegen.BASTORE, codegen.CASTORE:
		v := m.pop()
		idx := m.popInt()
		arr := m.popArray()
		m.checkIndex(arr, idx)
		switch op {
		case codegen.BASTORE:
			v = v.(int32) & 1
		case codegen.CASTORE:
			v = v.(int32) & 0xFFFF
		}
		arr.Values[idx] = v
	case codegen.NEWARRAY, codegen.ANEWARRAY:
		n := m.popInt()
		if n < 0 {
			m.throw("java/lang/NegativeArraySizeException", fmt.Sprint(n))
		}
		kind := ins.Operand
		if op == codegen.ANEWARRAY {
			kind = 0
		}
		arr := NewArray(kind, int(n))
		arr.Class = ins.Class
		m.push(arr)
	case codegen.ARRAYLENGTH:
		m.push(int32(len(m.popArray().Values)))

	// stack
	case codegen.POP:
		m.countValues(len(m.stack), 1)
		m.pop()
	case codegen.POP2:
		for n := m.countValues(len(m.stack), 2); n > 0; n-- {
			m.pop()
		}
	case codegen.DUP:
		m.dup(1, 0)
	case codegen.DUP_X1:
		m.dup(1, 1)
	case codegen.DUP_X2:
		m.dup(1, 2)
	case codegen.DUP2:
		m.dup(2, 0)
	case codegen.DUP2_X1:
		m.dup(2, 1)
	case codegen.DUP2_X2:
		m.dup(2, 2)
	case codegen.SWAP:
		a, b := m.pop(), m.pop()
		m.push(a)
		m.push(b)

	// arithmetic
	case codegen.IADD, codegen.ISUB, codegen.IMUL, codegen.IDIV, codegen.IREM,
		codegen.ISHL, codegen.ISHR, codegen.IUSHR, codegen.IAND, codegen.IOR, codegen.IXOR:
		b, a := m.popInt(), m.popInt()
		m.push(m.intOp(op, a, b))
	case codegen.LADD, codegen.LSUB, codegen.LMUL, codegen.LDIV, codegen.LREM,
		codegen.LAND, codegen.LOR, codegen.LXOR:
		b, a := m.popLong(), m.popLong()
		m.push(m.longOp(op, a, b))
	case codegen.LSHL, codegen.LSHR, codegen.LUSHR:
		s := uint(m.popInt() & 0x3f)
		a := m.popLong()
		switch op {
		case codegen.LSHL:
			m.push(a << s)
		case codegen.LSHR:
			m.push(a >> s)
		default:
			m.push(int64(uint64(a) >> s))
		}
	case codegen.FADD, codegen.FSUB, codegen.FMUL, codegen.FDIV, codegen.FREM:
		b, a := m.popFloat(), m.popFloat()
		m.push(float32(floatOp(op, float64(a), float64(b))))
	case codegen.DADD, codegen.DSUB, codegen.DMUL, codegen.DDIV, codegen.DREM:
		b, a := m.popDouble(), m.popDouble()
		m.push(floatOp(op, a, b))
	case codegen.INEG:
		m.push(-m.popInt())
	case codegen.LNEG:
		m.push(-m.popLong())
	case codegen.FNEG:
		m.push(-m.popFloat())
	case codegen.DNEG:
		m.push(-m.popDouble())

	// conversions
	case codegen.I2L:
		m.push(int64(m.popInt()))
	case codegen.I2F:
		m.push(float32(m.popInt()))
	case codegen.I2D:
		m.push(float64(m.popInt()))
	case codegen.L2I:
		m.push(int32(m.popLong()))
	case codegen.L2F:
		m.push(float32(m.popLong()))
	case codegen.L2D:
		m.push(float64(m.popLong()))
	case codegen.F2I:
		m.push(int32(toInteger(float64(m.popFloat()), math.MinInt32, math.MaxInt32)))
	case codegen.F2L:
		m.push(toInteger(float64(m.popFloat()), math.MinInt64, math.MaxInt64))
	case codegen.F2D:
		m.push(float64(m.popFloat()))
	case codegen.D2I:
		m.push(int32(toInteger(m.popDouble(), math.MinInt32, math.MaxInt32)))
	case codegen.D2L:
		m.push(toInteger(m.popDouble(), math.MinInt64, math.MaxInt64))
	case codegen.D2F:
		m.push(float32(m.popDouble()))
	case codegen.I2C:
		m.push(m.popInt() & 0xFFFF)

	// comparisons
	case codegen.LCMP:
		b, a := m.popLong(), m.popLong()
		m.push(compare(a < b, a > b, false, 0))
	case codegen.FCMPL, codegen.FCMPG:
		b, a := m.popFloat(), m.popFloat()
		nan := math.IsNaN(float64(a)) || math.IsNaN(float64(b))
		m.push(compare(a < b, a > b, nan, nanResult(op == codegen.FCMPG)))
	case codegen.DCMPL, codegen.DCMPG:
		b, a := m.popDouble(), m.popDouble()
		nan := math.IsNaN(a) || math.IsNaN(b)
		m.push(compare(a < b, a > b, nan, nanResult(op == codegen.DCMPG)))

	// branches
	case codegen.IFEQ, codegen.IFNE, codegen.IFLT, codegen.IFGE, codegen.IFGT, codegen.IFLE:
		if intCondition(op, m.popInt(), 0) {
			m.PC = ins.Target
		}
	case codegen.IF_ICMPEQ, codegen.IF_ICMPNE, codegen.IF_ICMPLT,
		codegen.IF_ICMPGE, codegen.IF_ICMPGT, codegen.IF_ICMPLE:
		b, a := m.popInt(), m.popInt()
		if intCondition(op, a, b) {
			m.PC = ins.Target
		}
	case codegen.IF_ACMPEQ, codegen.IF_ACMPNE:
		b, a := m.pop(), m.pop()
		if sameReference(a, b) == (op == codegen.IF_ACMPEQ) {
			m.PC = ins.Target
		}
	case codegen.IFNULL, codegen.IFNONNULL:
		if (m.pop() == nil) == (op == codegen.IFNULL) {
			m.PC = ins.Target
		}
	case codegen.GOTO:
		m.PC = ins.Target

	// returns
	case codegen.IRETURN, codegen.LRETURN, codegen.FRETURN, codegen.DRETURN, codegen.ARETURN:
		m.Result = m.pop()
		m.Halted = true
	case codegen.RETURN:
		m.Halted = true

	// objects
	case codegen.NEW:
		switch ins.Class {
		case "java/lang/StringBuilder":
			m.push(&Builder{})
		default:
			m.push(&Object{Class: ins.Class})
		}
	case codegen.INVOKEVIRTUAL, codegen.INVOKESPECIAL, codegen.INVOKESTATIC:
		m.invoke(ins)
	case codegen.ATHROW:
		panic(thrown{m.popObject()})
	case codegen.CHECKCAST:
		// Every value the compiler can produce already has its static type.
	case codegen.INSTANCEOF:
		v := m.pop()
		obj, ok := v.(*Object)
		m.push(boolValue(ok && types.IsSubclass(obj.Class, ins.Class)))

	default:
		m.faultf("unsupported instruction")
	}
}

func (m *Machine) checkIndex(arr *Array, idx int32) {
	if idx < 0 || int(idx) >= len(arr.Values) {
		m.throw("java/lang/ArrayIndexOutOfBoundsException",
			fmt.Sprintf("Index %d out of bounds for length %d", idx, len(arr.Values)))
	}
}

func (m *Machine) intOp(op codegen.Opcode, a, b int32) int32 {
	switch op {
	case codegen.IADD:
		return a + b
	case codegen.ISUB:
		return a - b
	case codegen.IMUL:
		return a * b
	case codegen.IDIV:
		if b == 0 {
			m.throw("java/lang/ArithmeticException", "/ by zero")
		}
		return a / b
	case codegen.IREM:
		if b == 0 {
			m.throw("java/lang/ArithmeticException", "/ by zero")
		}
		return a % b
	case codegen.ISHL:
		return a << uint(b&0x1f)
	case codegen.ISHR:
		return a >> uint(b&0x1f)
	case codegen.IUSHR:
		return int32(uint32(a) >> uint(b&0x1f))
	case codegen.IAND:
		return a & b
	case codegen.IOR:
		return a | b
	default:
		return a ^ b
	}
}

func (m *Machine) longOp(op codegen.Opcode, a, b int64) int64 {
	switch op {
	case codegen.LADD:
		return a + b
	case codegen.LSUB:
		return a - b
	case codegen.LMUL:
		return a * b
	case codegen.LDIV:
		if b == 0 {
			m.throw("java/lang/ArithmeticException", "/ by zero")
		}
		return a / b
	case codegen.LREM:
		if b == 0 {
			m.throw("java/lang/ArithmeticException", "/ by zero")
		}
		return a % b
	case codegen.LAND:
		return a & b
	case codegen.LOR:
		return a | b
	default:
		return a ^ b
	}
}

func floatOp(op codegen.Opcode, a, b float64) float64 {
	switch op {
	case codegen.FADD, codegen.DADD:
		return a + b
	case codegen.FSUB, codegen.DSUB:
		return a - b
	case codegen.FMUL, codegen.DMUL:
		return a * b
	case codegen.FDIV, codegen.DDIV:
		return a / b
	default:
		return math.Mod(a, b)
	}
}

// toInteger converts with saturation; NaN becomes 0.
func toInteger(f float64, lo, hi int64) int64 {
	switch {
	case math.IsNaN(f):
		return 0
	case f <= float64(lo):
		return lo
	case f >= float64(hi):
		return hi
	default:
		return int64(f)
	}
}

func nanResult(greater bool) int32 {
	if greater {
		return 1
	}
	return -1
}

func compare(less, greater, nan bool, nanValue int32) int32 {
	switch {
	case nan:
		return nanValue
	case less:
		return -1
	case greater:
		return 1
	default:
		return 0
	}
}

func intCondition(op codegen.Opcode, a, b int32) bool {
	switch op {
	case codegen.IFEQ, codegen.IF_ICMPEQ:
		return a == b
	case codegen.IFNE, codegen.IF_ICMPNE:
		return a != b
	case codegen.IFLT, codegen.IF_ICMPLT:
		return a < b
	case codegen.IFGE, codegen.IF_ICMPGE:
		return a >= b
	case codegen.IFGT, codegen.IF_ICMPGT:
		return a > b
	default:
		return a <= b
	}
}

// sameReference compares references by identity. String values compare by
// content, which matches interned literals.
func sameReference(a, b Value) bool {
	switch x := a.(type) {
	case nil:
		return b == nil
	case string:
		y, ok := b.(string)
		return ok && x == y
	default:
		return a == b
	}
}
