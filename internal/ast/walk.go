package ast

// WalkVisitor provides a default implementation for tree walking.
type WalkVisitor struct {
	PreVisit  func(Node) bool // Return false to skip subtree
	PostVisit func(Node)      // Called after visiting subtree
}

// Walk traverses the tree rooted at node in source order. Nil children
// (a missing else branch, an absent for condition, a default label) are
// skipped.
func (w *WalkVisitor) Walk(node Node) {
	if isNil(node) {
		return
	}
	if w.PreVisit != nil && !w.PreVisit(node) {
		return
	}

	switch n := node.(type) {
	case *Binary:
		w.Walk(n.Lhs)
		w.Walk(n.Rhs)
	case *StringConcat:
		w.Walk(n.Lhs)
		w.Walk(n.Rhs)
	case *Comparison:
		w.Walk(n.Lhs)
		w.Walk(n.Rhs)
	case *Logical:
		w.Walk(n.Lhs)
		w.Walk(n.Rhs)
	case *Conditional:
		w.Walk(n.Cond)
		w.Walk(n.Then)
		w.Walk(n.Else)
	case *Unary:
		w.Walk(n.Operand)
	case *IncDec:
		w.Walk(n.Target)
	case *ArrayIndex:
		w.Walk(n.Array)
		w.Walk(n.Index)
	case *ArrayLength:
		w.Walk(n.Array)
	case *Assign:
		w.Walk(n.Target)
		w.Walk(n.Value)
	case *NewObject:
		for _, a := range n.Args {
			w.Walk(a)
		}
	case *NewArray:
		w.Walk(n.Size)
	case *ArrayInit:
		for _, el := range n.Elements {
			w.Walk(el)
		}

	case *Block:
		for _, s := range n.Statements {
			w.Walk(s)
		}
	case *LocalVar:
		w.Walk(n.Init)
	case *ExprStmt:
		w.Walk(n.Expr)
	case *If:
		w.Walk(n.Cond)
		w.Walk(n.Then)
		w.Walk(n.Else)
	case *Return:
		w.Walk(n.Value)
	case *While:
		w.Walk(n.Cond)
		w.Walk(n.Body)
	case *For:
		for _, s := range n.Init {
			w.Walk(s)
		}
		w.Walk(n.Cond)
		for _, s := range n.Update {
			w.Walk(s)
		}
		w.Walk(n.Body)
	case *ForEach:
		w.Walk(n.Iterable)
		w.Walk(n.Body)
	case *DoWhile:
		w.Walk(n.Body)
		w.Walk(n.Cond)
	case *DoUntil:
		w.Walk(n.Body)
		w.Walk(n.Cond)
	case *Switch:
		w.Walk(n.Subject)
		for _, g := range n.Groups {
			for _, l := range g.Labels {
				w.Walk(l)
			}
			for _, s := range g.Body {
				w.Walk(s)
			}
		}
	case *Try:
		w.Walk(n.Body)
		for _, c := range n.Catches {
			w.Walk(c.Body)
		}
		w.Walk(n.Finally)
	case *Throw:
		w.Walk(n.Value)
	}

	if w.PostVisit != nil {
		w.PostVisit(node)
	}
}

// Inspect calls fn for every node in pre-order, descending while fn
// returns true.
func Inspect(node Node, fn func(Node) bool) {
	(&WalkVisitor{PreVisit: fn}).Walk(node)
}

// isNil reports whether n is nil or a typed nil pointer, as left behind by
// an optional child such as Try.Finally.
func isNil(n Node) bool {
	switch v := n.(type) {
	case nil:
		return true
	case *Block:
		return v == nil
	}
	return false
}
