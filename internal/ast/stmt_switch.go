package ast

import (
	"fmt"
	"strings"

	"github.com/jmm-lang/jmmc/internal/codegen"
	"github.com/jmm-lang/jmmc/internal/types"
)

// SwitchGroup is one or more case labels sharing a block. A nil label is
// the default label.
type SwitchGroup struct {
	Labels []Expression
	Body   []Statement
}

// IsDefault reports whether the group carries the default label.
func (g *SwitchGroup) IsDefault() bool {
	for _, l := range g.Labels {
		if l == nil {
			return true
		}
	}
	return false
}

func (g *SwitchGroup) String() string {
	var out strings.Builder
	for _, l := range g.Labels {
		if l == nil {
			out.WriteString("default: ")
			continue
		}
		fmt.Fprintf(&out, "case %s: ", l)
	}
	for _, s := range g.Body {
		out.WriteString(s.String())
		out.WriteByte(' ')
	}
	return out.String()
}

// Switch selects one group by comparing the subject with each case label
// in order. Every group ends with a jump to the end of the switch.
type Switch struct {
	stmtBase
	Subject Expression
	Groups  []*SwitchGroup
	slot    int // holds the subject while the labels are compared
}

func NewSwitch(line int, subject Expression, groups ...*SwitchGroup) *Switch {
	return &Switch{stmtBase: stmtBase{line: line}, Subject: subject, Groups: groups}
}

func (s *Switch) String() string {
	var out strings.Builder
	fmt.Fprintf(&out, "switch (%s) { ", s.Subject)
	for _, g := range s.Groups {
		out.WriteString(g.String())
	}
	out.WriteString("}")
	return out.String()
}

func (s *Switch) Analyze(ctx *Context) Statement {
	s.Subject = s.Subject.Analyze(ctx)
	st := s.Subject.Type()
	if !st.IsAny() && st != types.Int && st != types.String {
		ctx.Report(s.line, "Switch condition must be of type int or String, found type: %s", st)
		st = types.Any
	}
	s.slot = ctx.AllocSlot(st)

	ctx.PushScope()
	defer ctx.PopScope()
	ctx.enterSwitch()
	defer ctx.exitSwitch()

	seenDefault := false
	for _, g := range s.Groups {
		for i, label := range g.Labels {
			if label == nil {
				if seenDefault {
					ctx.Report(s.line, "Duplicate default label in switch")
				}
				seenDefault = true
				continue
			}
			label = label.Analyze(ctx)
			g.Labels[i] = label
			if lt := label.Type(); !st.IsAny() && !lt.IsAny() && !lt.Equals(st) {
				ctx.Report(label.Line(), "Switch label type %s does not match switch expression type %s.", lt, st)
			}
		}
		for i, stmt := range g.Body {
			g.Body[i] = stmt.Analyze(ctx)
		}
	}
	return s
}

// Codegen mints every block label before the comparisons that jump to
// them, then lays the blocks out in declaration order.
func (s *Switch) Codegen(e *Emitter) {
	typ := mustType(s.Subject, "switch")
	end := e.NewLabel()
	blocks := make([]codegen.Label, len(s.Groups))
	for i := range s.Groups {
		blocks[i] = e.NewLabel()
	}

	s.Subject.Codegen(e)
	e.Store(typ, s.slot)

	fallback := end
	for i, g := range s.Groups {
		for _, label := range g.Labels {
			if label == nil {
				fallback = blocks[i]
				continue
			}
			e.Load(typ, s.slot)
			label.Codegen(e)
			if typ == types.String {
				e.EmitMember(codegen.INVOKEVIRTUAL, "java/lang/String", "equals", "(Ljava/lang/Object;)Z")
				e.EmitBranch(codegen.IFNE, blocks[i])
			} else {
				e.EmitBranch(codegen.IF_ICMPEQ, blocks[i])
			}
		}
	}
	e.EmitBranch(codegen.GOTO, fallback)

	e.pushJump(jumpTarget{breakLabel: end})
	for i, g := range s.Groups {
		e.PlaceLabel(blocks[i])
		for _, stmt := range g.Body {
			stmt.Codegen(e)
		}
		e.EmitBranch(codegen.GOTO, end)
	}
	e.popJump()
	e.PlaceLabel(end)
}
