package codegen

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/jmm-lang/jmmc/internal/errors"
)

// Instruction is one assembled instruction. Which fields are meaningful
// depends on the opcode's Form.
type Instruction struct {
	Op         Opcode
	Operand    int         // local slot, immediate value or iinc slot
	Delta      int         // iinc increment
	Target     int         // branch target index, resolved by Assemble
	Constant   interface{} // LDC value
	Owner      string      // member owner class
	Name       string      // member name
	Descriptor string      // member descriptor
	Class      string      // class operand

	label Label // branch target before resolution
}

// ResolvedHandler is a Handler with labels resolved to instruction indices.
type ResolvedHandler struct {
	Start     int
	End       int
	Target    int
	Exception string
}

// Code is the assembled body of one method.
type Code struct {
	Name         string
	Descriptor   string
	Major        int
	MaxLocals    int
	Instructions []Instruction
	Handlers     []ResolvedHandler
}

// Assembler is an in-memory Sink. Labels are resolved to instruction
// indices when Assemble is called.
type Assembler struct {
	name       string
	descriptor string
	major      int
	maxLocals  int

	code     []Instruction
	labels   map[int]int // label id -> instruction index
	nextID   int
	handlers []Handler
	err      error
}

// NewAssembler creates an assembler for a method.
func NewAssembler(name, descriptor string) *Assembler {
	return &Assembler{
		name:       name,
		descriptor: descriptor,
		labels:     make(map[int]int),
	}
}

// SetMajor records the class-file major version the code targets.
func (a *Assembler) SetMajor(major int) { a.major = major }

// ReserveLocals raises the local variable count to at least n.
func (a *Assembler) ReserveLocals(n int) {
	if n > a.maxLocals {
		a.maxLocals = n
	}
}

// Len returns the number of instructions emitted so far.
func (a *Assembler) Len() int { return len(a.code) }

func (a *Assembler) fail(err error) {
	if a.err == nil {
		a.err = err
	}
}

func (a *Assembler) check(op Opcode, form Form) bool {
	if !op.IsValid() || op.Form() != form {
		a.fail(errors.UnknownOpcode(op, form.String()))
		return false
	}
	return true
}

// NewLabel mints a fresh label.
func (a *Assembler) NewLabel() Label {
	a.nextID++
	return NewLabelID(a.nextID)
}

// PlaceLabel binds l to the position of the next instruction.
func (a *Assembler) PlaceLabel(l Label) {
	if !l.IsValid() || l.id > a.nextID {
		a.fail(errors.Internal("label %s was not minted by this assembler", l))
		return
	}
	if _, ok := a.labels[l.id]; ok {
		a.fail(errors.LabelPlacedTwice(l))
		return
	}
	a.labels[l.id] = len(a.code)
}

func (a *Assembler) Emit(op Opcode) {
	if a.check(op, FormNone) {
		a.code = append(a.code, Instruction{Op: op})
	}
}

func (a *Assembler) EmitOperand(op Opcode, operand int) {
	form := op.Form()
	if form != FormLocal && form != FormImmediate {
		a.fail(errors.UnknownOpcode(op, "operand"))
		return
	}
	switch op {
	case BIPUSH:
		if operand < math.MinInt8 || operand > math.MaxInt8 {
			a.fail(errors.Internal("bipush operand %d out of range", operand))
			return
		}
	case SIPUSH:
		if operand < math.MinInt16 || operand > math.MaxInt16 {
			a.fail(errors.Internal("sipush operand %d out of range", operand))
			return
		}
	}
	if form == FormLocal {
		size := 1
		if op.IsWideLocal() {
			size = 2
		}
		a.ReserveLocals(operand + size)
	}
	a.code = append(a.code, Instruction{Op: op, Operand: operand})
}

func (a *Assembler) EmitBranch(op Opcode, target Label) {
	if a.check(op, FormBranch) {
		a.code = append(a.code, Instruction{Op: op, label: target, Target: -1})
	}
}

func (a *Assembler) EmitConstant(value interface{}) {
	op := LDC
	switch value.(type) {
	case int32, float32, string:
	case int64, float64:
		op = LDC2_W
	default:
		a.fail(errors.Internal("unsupported constant %v (%T)", value, value))
		return
	}
	a.code = append(a.code, Instruction{Op: op, Constant: value})
}

func (a *Assembler) EmitMember(op Opcode, owner, name, descriptor string) {
	if a.check(op, FormMember) {
		a.code = append(a.code, Instruction{Op: op, Owner: owner, Name: name, Descriptor: descriptor})
	}
}

func (a *Assembler) EmitClass(op Opcode, class string) {
	if a.check(op, FormClass) {
		a.code = append(a.code, Instruction{Op: op, Class: class})
	}
}

func (a *Assembler) EmitIInc(slot, delta int) {
	a.ReserveLocals(slot + 1)
	a.code = append(a.code, Instruction{Op: IINC, Operand: slot, Delta: delta})
}

func (a *Assembler) RegisterHandler(h Handler) {
	a.handlers = append(a.handlers, h)
}

// Assemble resolves labels and returns the finished code. It fails on the
// first malformed emit call, on branches to labels that were never placed
// and on handlers with an empty or inverted range.
func (a *Assembler) Assemble() (*Code, error) {
	if a.err != nil {
		return nil, a.err
	}

	code := &Code{
		Name:         a.name,
		Descriptor:   a.descriptor,
		Major:        a.major,
		MaxLocals:    a.maxLocals,
		Instructions: make([]Instruction, len(a.code)),
	}
	copy(code.Instructions, a.code)

	for i := range code.Instructions {
		ins := &code.Instructions[i]
		if ins.Op.Form() != FormBranch {
			continue
		}
		idx, err := a.resolve(ins.label)
		if err != nil {
			return nil, err
		}
		ins.Target = idx
	}

	for _, h := range a.handlers {
		start, err := a.resolve(h.Start)
		if err != nil {
			return nil, err
		}
		end, err := a.resolve(h.End)
		if err != nil {
			return nil, err
		}
		target, err := a.resolve(h.Target)
		if err != nil {
			return nil, err
		}
		if start >= end {
			return nil, errors.Internal("handler range [%d, %d) is empty", start, end)
		}
		code.Handlers = append(code.Handlers, ResolvedHandler{
			Start:     start,
			End:       end,
			Target:    target,
			Exception: h.Exception,
		})
	}

	return code, nil
}

func (a *Assembler) resolve(l Label) (int, error) {
	idx, ok := a.labels[l.id]
	if !ok {
		return 0, errors.UnplacedLabel(l)
	}
	return idx, nil
}

// String renders a single instruction in assembler syntax.
func (ins Instruction) String() string {
	switch ins.Op.Form() {
	case FormLocal, FormImmediate:
		return fmt.Sprintf("%s %d", ins.Op, ins.Operand)
	case FormIInc:
		return fmt.Sprintf("%s %d %d", ins.Op, ins.Operand, ins.Delta)
	case FormBranch:
		return fmt.Sprintf("%s %d", ins.Op, ins.Target)
	case FormConstant:
		return fmt.Sprintf("%s %s", ins.Op, formatConstant(ins.Constant))
	case FormMember:
		return fmt.Sprintf("%s %s.%s %s", ins.Op, ins.Owner, ins.Name, ins.Descriptor)
	case FormClass:
		return fmt.Sprintf("%s %s", ins.Op, ins.Class)
	default:
		return ins.Op.String()
	}
}

func formatConstant(v interface{}) string {
	switch c := v.(type) {
	case string:
		return strconv.Quote(c)
	case int64:
		return strconv.FormatInt(c, 10) + "L"
	case float32:
		return strconv.FormatFloat(float64(c), 'g', -1, 32) + "f"
	case float64:
		return strconv.FormatFloat(c, 'g', -1, 64) + "d"
	default:
		return fmt.Sprint(c)
	}
}

// Listing renders the code as text, one instruction per line followed by
// the exception table.
func (c *Code) Listing() string {
	var b strings.Builder
	fmt.Fprintf(&b, ".method %s%s\n", c.Name, c.Descriptor)
	if c.Major > 0 {
		fmt.Fprintf(&b, "  .version %d\n", c.Major)
	}
	fmt.Fprintf(&b, "  .locals %d\n", c.MaxLocals)
	for i, ins := range c.Instructions {
		fmt.Fprintf(&b, "  %4d: %s\n", i, ins)
	}
	for _, h := range c.Handlers {
		exc := h.Exception
		if exc == "" {
			exc = "any"
		}
		fmt.Fprintf(&b, "  .catch %s [%d, %d) -> %d\n", exc, h.Start, h.End, h.Target)
	}
	b.WriteString(".end method\n")
	return b.String()
}
