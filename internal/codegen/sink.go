package codegen

import "fmt"

// Label marks a future or past instruction position. Labels are minted by a
// Sink; the zero Label is not a valid label.
type Label struct {
	id int
}

// NewLabelID makes the label a Sink hands out for id. ids start at 1.
func NewLabelID(id int) Label {
	return Label{id: id}
}

// ID returns the sink-assigned identifier of the label.
func (l Label) ID() int { return l.id }

// IsValid reports whether the label was minted by a sink.
func (l Label) IsValid() bool { return l.id > 0 }

func (l Label) String() string {
	return fmt.Sprintf("L%d", l.id)
}

// Handler is one exception-table entry: exceptions of class Exception (or a
// subclass) raised by instructions in [Start, End) transfer control to
// Target. An empty Exception catches everything.
type Handler struct {
	Start     Label
	End       Label
	Target    Label
	Exception string
}

// IsCatchAll reports whether the handler catches every exception.
func (h Handler) IsCatchAll() bool { return h.Exception == "" }

// Sink receives the instruction stream of one method in program order.
// Exception handlers are registered after the instructions they cover.
type Sink interface {
	NewLabel() Label
	PlaceLabel(l Label)
	Emit(op Opcode)
	EmitOperand(op Opcode, operand int)
	EmitBranch(op Opcode, target Label)
	// EmitConstant pushes an int32, int64, float32, float64 or string
	// from the constant pool.
	EmitConstant(value interface{})
	EmitMember(op Opcode, owner, name, descriptor string)
	EmitClass(op Opcode, class string)
	EmitIInc(slot, delta int)
	RegisterHandler(h Handler)
}
