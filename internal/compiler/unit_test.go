package compiler

import (
	stderrors "errors"
	"strconv"
	"strings"
	"testing"

	"github.com/jmm-lang/jmmc/internal/ast"
	"github.com/jmm-lang/jmmc/internal/codegen"
	"github.com/jmm-lang/jmmc/internal/diagnostic"
	"github.com/jmm-lang/jmmc/internal/vm"
)

func v(name string) ast.Expression { return ast.NewVariable(1, name) }

func num(n int) ast.Expression { return ast.NewIntLiteral(1, strconv.Itoa(n)) }

func str(s string) ast.Expression { return ast.NewStringLiteral(1, strconv.Quote(s)) }

func assign(name string, value ast.Expression) ast.Statement {
	return ast.NewExprStmt(1, ast.NewAssign(1, ast.AssignPlain, v(name), value))
}

func block(stmts ...ast.Statement) *ast.Block { return ast.NewBlock(1, stmts...) }

func compile(t *testing.T, methods ...*Method) map[string]*codegen.Code {
	t.Helper()
	target, err := ParseTarget("11")
	if err != nil {
		t.Fatalf("ParseTarget failed: %v", err)
	}
	u := NewUnit("Test.jmm", "", target, diagnostic.DiagnosticConfig{})
	u.Add(methods...)
	codes, err := u.Compile()
	if err != nil {
		t.Fatalf("Compile failed: %v\n%s", err, u.Diagnostics.FormatDiagnostics())
	}
	out := make(map[string]*codegen.Code)
	for _, c := range codes {
		out[c.Name] = c
	}
	return out
}

func TestSumOverArray(t *testing.T) {
	// int sum(int[] xs) { int total = 0; for (int x : xs) total += x; return total; }
	m := NewMethod(1, "sum", "int", []Param{{"xs", "int[]"}}, block(
		ast.NewLocalVar(1, "int", "total", num(0)),
		ast.NewForEach(1, "int", "x", v("xs"),
			ast.NewExprStmt(1, ast.NewAssign(1, ast.AssignAdd, v("total"), v("x")))),
		ast.NewReturn(1, v("total")),
	))
	code := compile(t, m)["sum"]

	tests := []struct {
		values   []vm.Value
		expected int32
	}{
		{nil, 0},
		{[]vm.Value{int32(4)}, 4},
		{[]vm.Value{int32(1), int32(2), int32(3), int32(-10)}, -4},
	}
	for i, tt := range tests {
		arr := &vm.Array{Kind: codegen.ArrayTypeInt, Values: tt.values}
		got, err := vm.Run(code, arr)
		if err != nil {
			t.Fatalf("tests[%d] - run failed: %v\n%s", i, err, code.Listing())
		}
		if got != tt.expected {
			t.Errorf("tests[%d] - sum wrong. expected=%d, got=%v", i, tt.expected, got)
		}
	}
}

func TestStringSwitch(t *testing.T) {
	// String kind(String day) {
	//   switch (day) { case "SAT": case "SUN": return "weekend"; default: return "weekday"; }
	// }
	m := NewMethod(1, "kind", "String", []Param{{"day", "String"}}, block(
		ast.NewSwitch(1, v("day"),
			&ast.SwitchGroup{Labels: []ast.Expression{str("SAT"), str("SUN")}, Body: []ast.Statement{ast.NewReturn(1, str("weekend"))}},
			&ast.SwitchGroup{Labels: []ast.Expression{nil}, Body: []ast.Statement{ast.NewReturn(1, str("weekday"))}},
		),
	))
	code := compile(t, m)["kind"]

	for _, tt := range []struct{ day, expected string }{
		{"SAT", "weekend"},
		{"SUN", "weekend"},
		{"MON", "weekday"},
	} {
		got, err := vm.Run(code, tt.day)
		if err != nil {
			t.Fatalf("run failed: %v\n%s", err, code.Listing())
		}
		if got != tt.expected {
			t.Errorf("kind(%q) wrong. expected=%q, got=%v", tt.day, tt.expected, got)
		}
	}
}

func TestIntSwitchGroupsEndWithJump(t *testing.T) {
	// int score(int n) { int s = 0; switch (n) { case 1: s = 10; case 2: s = s + 2; break; default: s = -1; } return s; }
	m := NewMethod(1, "score", "int", []Param{{"n", "int"}}, block(
		ast.NewLocalVar(1, "int", "s", num(0)),
		ast.NewSwitch(1, v("n"),
			&ast.SwitchGroup{Labels: []ast.Expression{num(1)}, Body: []ast.Statement{assign("s", num(10))}},
			&ast.SwitchGroup{Labels: []ast.Expression{num(2)}, Body: []ast.Statement{
				assign("s", ast.NewBinary(1, ast.OpAdd, v("s"), num(2))),
				ast.NewBreak(1),
			}},
			&ast.SwitchGroup{Labels: []ast.Expression{nil}, Body: []ast.Statement{assign("s", num(-1))}},
		),
		ast.NewReturn(1, v("s")),
	))
	code := compile(t, m)["score"]

	// Every group ends with a jump to the end, so case 1 does not fall
	// into case 2.
	for _, tt := range []struct{ n, expected int32 }{{1, 10}, {2, 2}, {7, -1}} {
		got, err := vm.Run(code, tt.n)
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}
		if got != tt.expected {
			t.Errorf("score(%d) wrong. expected=%d, got=%v", tt.n, tt.expected, got)
		}
	}
}

func TestTryCatchFinally(t *testing.T) {
	// int guarded(int a, int b) {
	//   int r = 0;
	//   try { r = a / b; } catch (ArithmeticException e) { r = -1; } finally { r = r * 10; }
	//   return r;
	// }
	m := NewMethod(1, "guarded", "int", []Param{{"a", "int"}, {"b", "int"}}, block(
		ast.NewLocalVar(1, "int", "r", num(0)),
		ast.NewTry(1,
			block(assign("r", ast.NewBinary(1, ast.OpDiv, v("a"), v("b")))),
			[]*ast.CatchClause{ast.NewCatchClause(1, "ArithmeticException", "e", block(assign("r", num(-1))))},
			block(assign("r", ast.NewBinary(1, ast.OpMul, v("r"), num(10)))),
		),
		ast.NewReturn(1, v("r")),
	))
	code := compile(t, m)["guarded"]

	for _, tt := range []struct{ a, b, expected int32 }{{6, 3, 20}, {1, 0, -10}} {
		got, err := vm.Run(code, tt.a, tt.b)
		if err != nil {
			t.Fatalf("run failed: %v\n%s", err, code.Listing())
		}
		if got != tt.expected {
			t.Errorf("guarded(%d, %d) wrong. expected=%d, got=%v", tt.a, tt.b, tt.expected, got)
		}
	}
}

func TestReturnRunsFinallyWithParkedValue(t *testing.T) {
	// int countdown(int n) {
	//   int count = 0;
	//   while (true) { try { if (n == 0) return count; n = n - 1; } finally { count = count + 1; } }
	// }
	m := NewMethod(1, "countdown", "int", []Param{{"n", "int"}}, block(
		ast.NewLocalVar(1, "int", "count", num(0)),
		ast.NewWhile(1, ast.NewBooleanLiteral(1, true), block(
			ast.NewTry(1,
				block(
					ast.NewIf(1, ast.NewComparison(1, ast.CmpEq, v("n"), num(0)), ast.NewReturn(1, v("count")), nil),
					assign("n", ast.NewBinary(1, ast.OpSub, v("n"), num(1))),
				),
				nil,
				block(assign("count", ast.NewBinary(1, ast.OpAdd, v("count"), num(1)))),
			),
		)),
	))
	code := compile(t, m)["countdown"]

	got, err := vm.Run(code, int32(3))
	if err != nil {
		t.Fatalf("run failed: %v\n%s", err, code.Listing())
	}
	if got != int32(3) {
		t.Errorf("countdown wrong. expected=3, got=%v", got)
	}
}

func TestThrowFromFinallyCopyLeavesTry(t *testing.T) {
	// int f(int k) {
	//   int r = 0;
	//   try {
	//     try { return 1; }
	//     catch (RuntimeException e) { r = r + 10; return r; }
	//     finally { r = r + 1; if (r == k) throw new IllegalStateException("fin"); }
	//   } catch (RuntimeException e2) { return r + 100; }
	// }
	inner := ast.NewTry(1,
		block(ast.NewReturn(1, num(1))),
		[]*ast.CatchClause{ast.NewCatchClause(1, "RuntimeException", "e", block(
			assign("r", ast.NewBinary(1, ast.OpAdd, v("r"), num(10))),
			ast.NewReturn(1, v("r")),
		))},
		block(
			assign("r", ast.NewBinary(1, ast.OpAdd, v("r"), num(1))),
			ast.NewIf(1, ast.NewComparison(1, ast.CmpEq, v("r"), v("k")),
				ast.NewThrow(1, ast.NewNewObject(1, "IllegalStateException", str("fin"))), nil),
		),
	)
	m := NewMethod(1, "f", "int", []Param{{"k", "int"}}, block(
		ast.NewLocalVar(1, "int", "r", num(0)),
		ast.NewTry(1, block(inner),
			[]*ast.CatchClause{ast.NewCatchClause(1, "RuntimeException", "e2", block(
				ast.NewReturn(1, ast.NewBinary(1, ast.OpAdd, v("r"), num(100))),
			))},
			nil),
	))
	code := compile(t, m)["f"]

	tests := []struct {
		k, expected int32
	}{
		{1, 101}, // the finally copy run by return 1 throws straight to the outer catch
		{0, 1},
	}
	for i, tt := range tests {
		got, err := vm.Run(code, tt.k)
		if err != nil {
			t.Fatalf("tests[%d] - run failed: %v\n%s", i, err, code.Listing())
		}
		if got != tt.expected {
			t.Errorf("tests[%d] - f(%d) wrong. expected=%d, got=%v\n%s", i, tt.k, tt.expected, got, code.Listing())
		}
	}
}

func TestBreakFinallyCopyThrowsPastCatchAll(t *testing.T) {
	// int g() {
	//   int runs = 0;
	//   try {
	//     while (true) { try { break; } finally { runs++; if (runs == 1) throw new IllegalStateException("x"); } }
	//   } catch (IllegalStateException e) { return runs; }
	//   return -1;
	// }
	loop := ast.NewWhile(1, ast.NewBooleanLiteral(1, true), block(
		ast.NewTry(1, block(ast.NewBreak(1)), nil, block(
			ast.NewExprStmt(1, ast.NewIncDec(1, ast.PostIncrement, v("runs"))),
			ast.NewIf(1, ast.NewComparison(1, ast.CmpEq, v("runs"), num(1)),
				ast.NewThrow(1, ast.NewNewObject(1, "IllegalStateException", str("x"))), nil),
		)),
	))
	m := NewMethod(1, "g", "int", nil, block(
		ast.NewLocalVar(1, "int", "runs", num(0)),
		ast.NewTry(1, block(loop),
			[]*ast.CatchClause{ast.NewCatchClause(1, "IllegalStateException", "e", block(ast.NewReturn(1, v("runs"))))},
			nil),
		ast.NewReturn(1, num(-1)),
	))
	code := compile(t, m)["g"]

	// Running the finally block again through the catch-all would count 2.
	got, err := vm.Run(code)
	if err != nil {
		t.Fatalf("run failed: %v\n%s", err, code.Listing())
	}
	if got != int32(1) {
		t.Errorf("g wrong. expected=1, got=%v\n%s", got, code.Listing())
	}
}

func TestFinallyRethrows(t *testing.T) {
	// int check(int[] xs, int i) { int hits = 0; try { hits = xs[i]; } finally { hits = 99; } return hits; }
	m := NewMethod(1, "check", "int", []Param{{"xs", "int[]"}, {"i", "int"}}, block(
		ast.NewLocalVar(1, "int", "hits", num(0)),
		ast.NewTry(1,
			block(assign("hits", ast.NewArrayIndex(1, v("xs"), v("i")))),
			nil,
			block(assign("hits", num(99))),
		),
		ast.NewReturn(1, v("hits")),
	))
	code := compile(t, m)["check"]
	arr := &vm.Array{Kind: codegen.ArrayTypeInt, Values: []vm.Value{int32(5)}}

	got, err := vm.Run(code, arr, int32(0))
	if err != nil || got != int32(99) {
		t.Fatalf("in-bounds run wrong. got=%v, err=%v", got, err)
	}

	_, err = vm.Run(code, arr, int32(3))
	var uncaught *vm.UncaughtError
	if !stderrors.As(err, &uncaught) {
		t.Fatalf("expected an uncaught exception, got %v", err)
	}
	if uncaught.Exception.Class != "java/lang/ArrayIndexOutOfBoundsException" {
		t.Errorf("exception class wrong. got=%s", uncaught.Exception.Class)
	}
}

func TestThrowNewException(t *testing.T) {
	// void fail(String msg) { throw new IllegalStateException(msg); }
	m := NewMethod(1, "fail", "void", []Param{{"msg", "String"}}, block(
		ast.NewThrow(1, ast.NewNewObject(1, "IllegalStateException", v("msg"))),
	))
	code := compile(t, m)["fail"]

	_, err := vm.Run(code, "boom")
	var uncaught *vm.UncaughtError
	if !stderrors.As(err, &uncaught) {
		t.Fatalf("expected an uncaught exception, got %v", err)
	}
	if got := uncaught.Exception.String(); got != "java.lang.IllegalStateException: boom" {
		t.Errorf("exception wrong. got=%q", got)
	}
}

func TestDoUntil(t *testing.T) {
	// int digits(int n) { int c = 0; do { c++; n = n / 10; } until (n == 0); return c; }
	m := NewMethod(1, "digits", "int", []Param{{"n", "int"}}, block(
		ast.NewLocalVar(1, "int", "c", num(0)),
		ast.NewDoUntil(1,
			block(
				ast.NewExprStmt(1, ast.NewIncDec(1, ast.PostIncrement, v("c"))),
				assign("n", ast.NewBinary(1, ast.OpDiv, v("n"), num(10))),
			),
			ast.NewComparison(1, ast.CmpEq, v("n"), num(0)),
		),
		ast.NewReturn(1, v("c")),
	))
	code := compile(t, m)["digits"]

	for _, tt := range []struct{ n, expected int32 }{{0, 1}, {7, 1}, {12345, 5}} {
		got, err := vm.Run(code, tt.n)
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}
		if got != tt.expected {
			t.Errorf("digits(%d) wrong. expected=%d, got=%v", tt.n, tt.expected, got)
		}
	}
}

func TestStringConcatenation(t *testing.T) {
	// String show(int a, double d, boolean b) { return "a=" + a + ", d=" + d + ", b=" + b; }
	expr := ast.NewBinary(1, ast.OpAdd, str("a="), v("a"))
	expr = ast.NewBinary(1, ast.OpAdd, expr, str(", d="))
	expr = ast.NewBinary(1, ast.OpAdd, expr, v("d"))
	expr = ast.NewBinary(1, ast.OpAdd, expr, str(", b="))
	expr = ast.NewBinary(1, ast.OpAdd, expr, v("b"))
	m := NewMethod(1, "show", "String", []Param{{"a", "int"}, {"d", "double"}, {"b", "boolean"}}, block(
		ast.NewReturn(1, expr),
	))
	code := compile(t, m)["show"]

	got, err := vm.Run(code, int32(3), float64(2.5), int32(1))
	if err != nil {
		t.Fatalf("run failed: %v\n%s", err, code.Listing())
	}
	if got != "a=3, d=2.5, b=true" {
		t.Errorf("concat wrong. got=%q", got)
	}
}

func TestDescriptor(t *testing.T) {
	m := NewMethod(1, "f", "void", []Param{{"a", "int"}, {"b", "long[]"}, {"c", "String"}}, block())
	codes := compile(t, m)
	if got := codes["f"].Descriptor; got != "(I[JLjava/lang/String;)V" {
		t.Errorf("descriptor wrong. got=%s", got)
	}
	if codes["f"].Major != 55 {
		t.Errorf("major version wrong. expected=55, got=%d", codes["f"].Major)
	}
}

func TestGenerateRefusesAfterErrors(t *testing.T) {
	tests := []struct {
		name    string
		methods []*Method
		message string
	}{
		{
			name: "type error",
			methods: []*Method{NewMethod(3, "f", "int", nil, block(
				ast.NewReturn(4, ast.NewBinary(4, ast.OpMul, str("x"), num(2))),
			))},
		},
		{
			name:    "unknown return type",
			methods: []*Method{NewMethod(2, "f", "Widget", nil, block())},
			message: "Unknown type: Widget",
		},
		{
			name: "duplicate method",
			methods: []*Method{
				NewMethod(2, "f", "void", []Param{{"a", "int"}}, block()),
				NewMethod(5, "f", "void", []Param{{"b", "int"}}, block()),
			},
			message: "Method f is already defined",
		},
		{
			name:    "void parameter",
			methods: []*Method{NewMethod(2, "f", "void", []Param{{"a", "void"}}, block())},
			message: "Variable a cannot have type void",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := NewUnit("Bad.jmm", "", Target{Release: "17", Major: 61}, diagnostic.DiagnosticConfig{})
			u.Add(tt.methods...)
			if u.Analyze() {
				t.Fatal("Analyze reported success")
			}
			_, err := u.Generate()
			if !stderrors.Is(err, ErrHasErrors) {
				t.Fatalf("expected ErrHasErrors, got %v", err)
			}
			if tt.message != "" && !strings.Contains(u.Diagnostics.FormatDiagnostics(), tt.message) {
				t.Errorf("diagnostics missing %q. got=%s", tt.message, u.Diagnostics.FormatDiagnostics())
			}
		})
	}
}

func TestGenerateAnalyzesOnDemand(t *testing.T) {
	u := NewUnit("Lazy.jmm", "", Target{Release: "17", Major: 61}, diagnostic.DiagnosticConfig{})
	u.Add(NewMethod(1, "one", "int", nil, block(ast.NewReturn(1, num(1)))))
	codes, err := u.Generate()
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	got, err := vm.Run(codes[0])
	if err != nil || got != int32(1) {
		t.Errorf("result wrong. got=%v, err=%v", got, err)
	}
}

func TestDump(t *testing.T) {
	u := NewUnit("Dump.jmm", "", Target{Release: "17", Major: 61}, diagnostic.DiagnosticConfig{})
	u.Add(NewMethod(1, "half", "double", []Param{{"d", "double"}}, block(
		ast.NewReturn(2, ast.NewBinary(2, ast.OpDiv, v("d"), ast.NewDoubleLiteral(2, "2.0"))),
	)))

	var buf strings.Builder
	u.Dump(&buf)
	expected := `half(D)D
  Block 1
    Return 2
      Binary 2 double
        Variable 1 double
        DoubleLiteral 2 double
`
	if buf.String() != expected {
		t.Errorf("dump wrong. expected=\n%s\ngot=\n%s", expected, buf.String())
	}
}

func TestLogicalShortCircuit(t *testing.T) {
	// The right operand indexes xs, so evaluating it with i out of range
	// would throw.
	inRange := ast.NewComparison(1, ast.CmpLt, v("i"), ast.NewArrayLength(1, v("xs")))
	outOfRange := ast.NewComparison(1, ast.CmpGe, v("i"), ast.NewArrayLength(1, v("xs")))
	positive := func() ast.Expression {
		return ast.NewComparison(1, ast.CmpGt, ast.NewArrayIndex(1, v("xs"), v("i")), num(0))
	}
	params := []Param{{"xs", "int[]"}, {"i", "int"}}
	ifElse := func(cond ast.Expression) *ast.Block {
		return block(ast.NewIf(1, cond, ast.NewReturn(1, num(1)), ast.NewReturn(1, num(0))))
	}

	codes := compile(t,
		// boolean andValue(int[] xs, int i) { return i < xs.length && xs[i] > 0; }
		NewMethod(1, "andValue", "boolean", params, block(ast.NewReturn(1, ast.NewLogicalAnd(1, inRange, positive())))),
		// int andIf(int[] xs, int i) { if (i < xs.length && xs[i] > 0) return 1; else return 0; }
		NewMethod(2, "andIf", "int", params, ifElse(ast.NewLogicalAnd(1,
			ast.NewComparison(1, ast.CmpLt, v("i"), ast.NewArrayLength(1, v("xs"))), positive()))),
		// boolean orValue(int[] xs, int i) { return i >= xs.length || xs[i] > 0; }
		NewMethod(3, "orValue", "boolean", params, block(ast.NewReturn(1, ast.NewLogicalOr(1, outOfRange, positive())))),
		// int orIf(int[] xs, int i) { if (i >= xs.length || xs[i] > 0) return 1; else return 0; }
		NewMethod(4, "orIf", "int", params, ifElse(ast.NewLogicalOr(1,
			ast.NewComparison(1, ast.CmpGe, v("i"), ast.NewArrayLength(1, v("xs"))), positive()))),
		// int notAnd(int[] xs, int i) { if (!(i < xs.length && xs[i] > 0)) return 1; else return 0; }
		NewMethod(5, "notAnd", "int", params, ifElse(ast.NewUnary(1, ast.UnaryNot, ast.NewLogicalAnd(1,
			ast.NewComparison(1, ast.CmpLt, v("i"), ast.NewArrayLength(1, v("xs"))), positive())))),
	)
	xs := &vm.Array{Kind: codegen.ArrayTypeInt, Values: []vm.Value{int32(5), int32(-2)}}

	tests := []struct {
		method   string
		i        int32
		expected int32
	}{
		{"andValue", 0, 1},
		{"andValue", 1, 0},
		{"andValue", 7, 0},
		{"andIf", 0, 1},
		{"andIf", 1, 0},
		{"andIf", 7, 0},
		{"orValue", 0, 1},
		{"orValue", 1, 0},
		{"orValue", 7, 1},
		{"orIf", 0, 1},
		{"orIf", 1, 0},
		{"orIf", 7, 1},
		{"notAnd", 0, 0},
		{"notAnd", 1, 1},
		{"notAnd", 7, 1},
	}
	for i, tt := range tests {
		code := codes[tt.method]
		got, err := vm.Run(code, xs, tt.i)
		if err != nil {
			t.Fatalf("tests[%d] - %s(xs, %d) failed: %v\n%s", i, tt.method, tt.i, err, code.Listing())
		}
		if got != tt.expected {
			t.Errorf("tests[%d] - %s(xs, %d) wrong. expected=%d, got=%v", i, tt.method, tt.i, tt.expected, got)
		}
	}
}

func TestUnaryOperators(t *testing.T) {
	codes := compile(t,
		NewMethod(1, "negInt", "int", []Param{{"x", "int"}}, block(ast.NewReturn(1, ast.NewUnary(1, ast.UnaryNeg, v("x"))))),
		NewMethod(2, "negLong", "long", []Param{{"x", "long"}}, block(ast.NewReturn(1, ast.NewUnary(1, ast.UnaryNeg, v("x"))))),
		NewMethod(3, "notInt", "int", []Param{{"x", "int"}}, block(ast.NewReturn(1, ast.NewUnary(1, ast.UnaryComplement, v("x"))))),
		NewMethod(4, "notLong", "long", []Param{{"x", "long"}}, block(ast.NewReturn(1, ast.NewUnary(1, ast.UnaryComplement, v("x"))))),
		NewMethod(5, "not", "boolean", []Param{{"x", "boolean"}}, block(ast.NewReturn(1, ast.NewUnary(1, ast.UnaryNot, v("x"))))),
	)

	tests := []struct {
		method   string
		arg      vm.Value
		expected vm.Value
	}{
		{"negInt", int32(7), int32(-7)},
		{"negInt", int32(-2147483648), int32(-2147483648)},
		{"negLong", int64(1) << 40, -(int64(1) << 40)},
		{"notInt", int32(0), int32(-1)},
		{"notInt", int32(5), int32(-6)},
		{"notLong", int64(-1), int64(0)},
		{"notLong", int64(1) << 33, ^(int64(1) << 33)},
		{"not", int32(1), int32(0)},
		{"not", int32(0), int32(1)},
	}
	for i, tt := range tests {
		code := codes[tt.method]
		got, err := vm.Run(code, tt.arg)
		if err != nil {
			t.Fatalf("tests[%d] - %s failed: %v\n%s", i, tt.method, err, code.Listing())
		}
		if got != tt.expected {
			t.Errorf("tests[%d] - %s(%v) wrong. expected=%v, got=%v", i, tt.method, tt.arg, tt.expected, got)
		}
	}
}

func TestNewArraySize(t *testing.T) {
	// int size(int n) { int[] a = new int[n]; return a.length; }
	m := NewMethod(1, "size", "int", []Param{{"n", "int"}}, block(
		ast.NewLocalVar(1, "int[]", "a", ast.NewNewArray(1, "int", v("n"))),
		ast.NewReturn(1, ast.NewArrayLength(1, v("a"))),
	))
	code := compile(t, m)["size"]

	for _, n := range []int32{0, 3} {
		got, err := vm.Run(code, n)
		if err != nil || got != n {
			t.Errorf("size(%d) wrong. got=%v, err=%v", n, got, err)
		}
	}

	_, err := vm.Run(code, int32(-1))
	var uncaught *vm.UncaughtError
	if !stderrors.As(err, &uncaught) {
		t.Fatalf("expected an uncaught exception, got %v", err)
	}
	if uncaught.Exception.Class != "java/lang/NegativeArraySizeException" {
		t.Errorf("exception class wrong. got=%s", uncaught.Exception.Class)
	}
}
