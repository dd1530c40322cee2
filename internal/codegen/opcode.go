// Package codegen defines the instruction set the compiler emits, the Sink
// that receives it, and an in-memory Assembler implementing the Sink.
package codegen

import "fmt"

// Opcode is a stack-VM instruction.
type Opcode int

// Form describes which emit call an opcode takes its operands from.
type Form int

const (
	FormNone     Form = iota // Emit
	FormLocal                // EmitOperand: local slot
	FormImmediate            // EmitOperand: inline value
	FormBranch               // EmitBranch
	FormConstant             // EmitConstant
	FormMember               // EmitMember
	FormClass                // EmitClass
	FormIInc                 // EmitIInc
)

func (f Form) String() string {
	switch f {
	case FormNone:
		return "none"
	case FormLocal:
		return "local"
	case FormImmediate:
		return "immediate"
	case FormBranch:
		return "branch"
	case FormConstant:
		return "constant"
	case FormMember:
		return "member"
	case FormClass:
		return "class"
	case FormIInc:
		return "iinc"
	default:
		return fmt.Sprintf("Form(%d)", int(f))
	}
}

// Instruction set.
const (
	NOP Opcode = iota

	// constants
	ACONST_NULL
	ICONST_M1
	ICONST_0
	ICONST_1
	ICONST_2
	ICONST_3
	ICONST_4
	ICONST_5
	LCONST_0
	LCONST_1
	FCONST_0
	FCONST_1
	FCONST_2
	DCONST_0
	DCONST_1
	BIPUSH
	SIPUSH
	LDC
	LDC2_W

	// locals
	ILOAD
	LLOAD
	FLOAD
	DLOAD
	ALOAD
	ISTORE
	LSTORE
	FSTORE
	DSTORE
	ASTORE
	IINC

	// arrays
	IALOAD
	LALOAD
	FALOAD
	DALOAD
	AALOAD
	BALOAD
	CALOAD
	IASTORE
	LASTORE
	FASTORE
	DASTORE
	AASTORE
	BASTORE
	CASTORE
	NEWARRAY
	ANEWARRAY
	ARRAYLENGTH

	// stack
	POP
	POP2
	DUP
	DUP_X1
	DUP_X2
	DUP2
	DUP2_X1
	DUP2_X2
	SWAP

	// arithmetic
	IADD
	LADD
	FADD
	DADD
	ISUB
	LSUB
	FSUB
	DSUB
	IMUL
	LMUL
	FMUL
	DMUL
	IDIV
	LDIV
	FDIV
	DDIV
	IREM
	LREM
	FREM
	DREM
	INEG
	LNEG
	FNEG
	DNEG
	ISHL
	LSHL
	ISHR
	LSHR
	IUSHR
	LUSHR
	IAND
	LAND
	IOR
	LOR
	IXOR
	LXOR

	// conversions
	I2L
	I2F
	I2D
	L2I
	L2F
	L2D
	F2I
	F2L
	F2D
	D2I
	D2L
	D2F
	I2C

	// comparisons
	LCMP
	FCMPL
	FCMPG
	DCMPL
	DCMPG

	// branches
	IFEQ
	IFNE
	IFLT
	IFGE
	IFGT
	IFLE
	IF_ICMPEQ
	IF_ICMPNE
	IF_ICMPLT
	IF_ICMPGE
	IF_ICMPGT
	IF_ICMPLE
	IF_ACMPEQ
	IF_ACMPNE
	IFNULL
	IFNONNULL
	GOTO

	// returns
	IRETURN
	LRETURN
	FRETURN
	DRETURN
	ARETURN
	RETURN

	// objects
	GETSTATIC
	PUTSTATIC
	GETFIELD
	PUTFIELD
	INVOKEVIRTUAL
	INVOKESPECIAL
	INVOKESTATIC
	NEW
	ATHROW
	CHECKCAST
	INSTANCEOF

	opcodeCount
)

type opcodeInfo struct {
	name string
	form Form
}

var opcodeTable = [opcodeCount]opcodeInfo{
	NOP: {"nop", FormNone},

	ACONST_NULL: {"aconst_null", FormNone},
	ICONST_M1:   {"iconst_m1", FormNone},
	ICONST_0:    {"iconst_0", FormNone},
	ICONST_1:    {"iconst_1", FormNone},
	ICONST_2:    {"iconst_2", FormNone},
	ICONST_3:    {"iconst_3", FormNone},
	ICONST_4:    {"iconst_4", FormNone},
	ICONST_5:    {"iconst_5", FormNone},
	LCONST_0:    {"lconst_0", FormNone},
	LCONST_1:    {"lconst_1", FormNone},
	FCONST_0:    {"fconst_0", FormNone},
	FCONST_1:    {"fconst_1", FormNone},
	FCONST_2:    {"fconst_2", FormNone},
	DCONST_0:    {"dconst_0", FormNone},
	DCONST_1:    {"dconst_1", FormNone},
	BIPUSH:      {"bipush", FormImmediate},
	SIPUSH:      {"sipush", FormImmediate},
	LDC:         {"ldc", FormConstant},
	LDC2_W:      {"ldc2_w", FormConstant},

	ILOAD:  {"iload", FormLocal},
	LLOAD:  {"lload", FormLocal},
	FLOAD:  {"fload", FormLocal},
	DLOAD:  {"dload", FormLocal},
	ALOAD:  {"aload", FormLocal},
	ISTORE: {"istore", FormLocal},
	LSTORE: {"lstore", FormLocal},
	FSTORE: {"fstore", FormLocal},
	DSTORE: {"dstore", FormLocal},
	ASTORE: {"astore", FormLocal},
	IINC:   {"iinc", FormIInc},

	IALOAD:      {"iaload", FormNone},
	LALOAD:      {"laload", FormNone},
	FALOAD:      {"faload", FormNone},
	DALOAD:      {"daload", FormNone},
	AALOAD:      {"aaload", FormNone},
	BALOAD:      {"baload", FormNone},
	CALOAD:      {"caload", FormNone},
	IASTORE:     {"iastore", FormNone},
	LASTORE:     {"lastore", FormNone},
	FASTORE:     {"fastore", FormNone},
	DASTORE:     {"dastore", FormNone},
	AASTORE:     {"aastore", FormNone},
	BASTORE:     {"bastore", FormNone},
	CASTORE:     {"castore", FormNone},
	NEWARRAY:    {"newarray", FormImmediate},
	ANEWARRAY:   {"anewarray", FormClass},
	ARRAYLENGTH: {"arraylength", FormNone},

	POP:     {"pop", FormNone},
	POP2:    {"pop2", FormNone},
	DUP:     {"dup", FormNone},
	DUP_X1:  {"dup_x1", FormNone},
	DUP_X2:  {"dup_x2", FormNone},
	DUP2:    {"dup2", FormNone},
	DUP2_X1: {"dup2_x1", FormNone},
	DUP2_X2: {"dup2_x2", FormNone},
	SWAP:    {"swap", FormNone},

	IADD:  {"iadd", FormNone},
	LADD:  {"ladd", FormNone},
	FADD:  {"fadd", FormNone},
	DADD:  {"dadd", FormNone},
	ISUB:  {"isub", FormNone},
	LSUB:  {"lsub", FormNone},
	FSUB:  {"fsub", FormNone},
	DSUB:  {"dsub", FormNone},
	IMUL:  {"imul", FormNone},
	LMUL:  {"lmul", FormNone},
	FMUL:  {"fmul", FormNone},
	DMUL:  {"dmul", FormNone},
	IDIV:  {"idiv", FormNone},
	LDIV:  {"ldiv", FormNone},
	FDIV:  {"fdiv", FormNone},
	DDIV:  {"ddiv", FormNone},
	IREM:  {"irem", FormNone},
	LREM:  {"lrem", FormNone},
	FREM:  {"frem", FormNone},
	DREM:  {"drem", FormNone},
	INEG:  {"ineg", FormNone},
	LNEG:  {"lneg", FormNone},
	FNEG:  {"fneg", FormNone},
	DNEG:  {"dneg", FormNone},
	ISHL:  {"ishl", FormNone},
	LSHL:  {"lshl", FormNone},
	ISHR:  {"ishr", FormNone},
	LSHR:  {"lshr", FormNone},
	IUSHR: {"iushr", FormNone},
	LUSHR: {"lushr", FormNone},
	IAND:  {"iand", FormNone},
	LAND:  {"land", FormNone},
	IOR:   {"ior", FormNone},
	LOR:   {"lor", FormNone},
	IXOR:  {"ixor", FormNone},
	LXOR:  {"lxor", FormNone},

	I2L: {"i2l", FormNone},
	I2F: {"i2f", FormNone},
	I2D: {"i2d", FormNone},
	L2I: {"l2i", FormNone},
	L2F: {"l2f", FormNone},
	L2D: {"l2d", FormNone},
	F2I: {"f2i", FormNone},
	F2L: {"f2l", FormNone},
	F2D: {"f2d", FormNone},
	D2I: {"d2i", FormNone},
	D2L: {"d2l", FormNone},
	D2F: {"d2f", FormNone},
	I2C: {"i2c", FormNone},

	LCMP:  {"lcmp", FormNone},
	FCMPL: {"fcmpl", FormNone},
	FCMPG: {"fcmpg", FormNone},
	DCMPL: {"dcmpl", FormNone},
	DCMPG: {"dcmpg", FormNone},

	IFEQ:      {"ifeq", FormBranch},
	IFNE:      {"ifne", FormBranch},
	IFLT:      {"iflt", FormBranch},
	IFGE:      {"ifge", FormBranch},
	IFGT:      {"ifgt", FormBranch},
	IFLE:      {"ifle", FormBranch},
	IF_ICMPEQ: {"if_icmpeq", FormBranch},
	IF_ICMPNE: {"if_icmpne", FormBranch},
	IF_ICMPLT: {"if_icmplt", FormBranch},
	IF_ICMPGE: {"if_icmpge", FormBranch},
	IF_ICMPGT: {"if_icmpgt", FormBranch},
	IF_ICMPLE: {"if_icmple", FormBranch},
	IF_ACMPEQ: {"if_acmpeq", FormBranch},
	IF_ACMPNE: {"if_acmpne", FormBranch},
	IFNULL:    {"ifnull", FormBranch},
	IFNONNULL: {"ifnonnull", FormBranch},
	GOTO:      {"goto", FormBranch},

	IRETURN: {"ireturn", FormNone},
	LRETURN: {"lreturn", FormNone},
	FRETURN: {"freturn", FormNone},
	DRETURN: {"dreturn", FormNone},
	ARETURN: {"areturn", FormNone},
	RETURN:  {"return", FormNone},

	GETSTATIC:     {"getstatic", FormMember},
	PUTSTATIC:     {"putstatic", FormMember},
	GETFIELD:      {"getfield", FormMember},
	PUTFIELD:      {"putfield", FormMember},
	INVOKEVIRTUAL: {"invokevirtual", FormMember},
	INVOKESPECIAL: {"invokespecial", FormMember},
	INVOKESTATIC:  {"invokestatic", FormMember},
	NEW:           {"new", FormClass},
	ATHROW:        {"athrow", FormNone},
	CHECKCAST:     {"checkcast", FormClass},
	INSTANCEOF:    {"instanceof", FormClass},
}

// String returns the mnemonic of the opcode.
func (op Opcode) String() string {
	if op >= 0 && op < opcodeCount && opcodeTable[op].name != "" {
		return opcodeTable[op].name
	}
	return fmt.Sprintf("Opcode(%d)", int(op))
}

// Form returns the operand form of the opcode.
func (op Opcode) Form() Form {
	if op >= 0 && op < opcodeCount {
		return opcodeTable[op].form
	}
	return FormNone
}

// IsValid reports whether op is a known opcode.
func (op Opcode) IsValid() bool {
	return op >= 0 && op < opcodeCount && opcodeTable[op].name != ""
}

// IsWideLocal reports whether a local load or store moves a two-slot value.
func (op Opcode) IsWideLocal() bool {
	switch op {
	case LLOAD, DLOAD, LSTORE, DSTORE:
		return true
	}
	return false
}

// Array element type codes for NEWARRAY.
const (
	ArrayTypeBoolean = 4
	ArrayTypeChar    = 5
	ArrayTypeFloat   = 6
	ArrayTypeDouble  = 7
	ArrayTypeByte    = 8
	ArrayTypeShort   = 9
	ArrayTypeInt     = 10
	ArrayTypeLong    = 11
)
