package vm

import (
	"strings"

	"github.com/jmm-lang/jmmc/internal/codegen"
)

// invoke runs a call to one of the library members the compiler emits.
func (m *Machine) invoke(ins codegen.Instruction) {
	switch ins.Owner + "." + ins.Name {
	case "java/lang/StringBuilder.<init>":
		m.pop()
	case "java/lang/StringBuilder.append":
		arg := m.pop()
		b := m.popBuilder()
		b.WriteString(Format(arg, argDescriptor(ins.Descriptor)))
		m.push(b)
	case "java/lang/StringBuilder.toString":
		m.push(m.popBuilder().String())

	case "java/lang/String.equals":
		arg := m.pop()
		recv := m.popString()
		s, ok := arg.(string)
		m.push(boolValue(ok && s == recv))
	case "java/lang/String.concat":
		arg := m.popString()
		recv := m.popString()
		m.push(recv + arg)
	case "java/lang/String.length":
		m.push(int32(len([]rune(m.popString()))))
	case "java/lang/String.valueOf":
		m.push(Format(m.pop(), argDescriptor(ins.Descriptor)))

	case "java/lang/Object.<init>":
		m.pop()

	default:
		if ins.Name == "<init>" {
			m.construct(ins)
			return
		}
		if ins.Name == "getMessage" {
			obj := m.popObject()
			if !obj.hasMsg {
				m.push(nil)
			} else {
				m.push(obj.Message)
			}
			return
		}
		m.faultf("unsupported call %s.%s%s", ins.Owner, ins.Name, ins.Descriptor)
	}
}

// construct runs the no-argument or String constructor of an exception.
func (m *Machine) construct(ins codegen.Instruction) {
	switch ins.Descriptor {
	case "()V":
		m.popObject()
	case "(Ljava/lang/String;)V":
		arg := m.pop()
		obj := m.popObject()
		obj.hasMsg = true
		if s, ok := arg.(string); ok {
			obj.Message = s
		} else {
			obj.Message = "null"
		}
	default:
		m.faultf("unsupported constructor %s%s", ins.Owner, ins.Descriptor)
	}
}

// argDescriptor returns the descriptor of the single parameter in desc.
func argDescriptor(desc string) string {
	open := strings.IndexByte(desc, '(')
	closing := strings.IndexByte(desc, ')')
	if open < 0 || closing < open {
		return ""
	}
	return desc[open+1 : closing]
}

func boolValue(b bool) int32 {
	if b {
		return 1
	}
	return 0
}
