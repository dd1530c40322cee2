package vm

import (
	stderrors "errors"
	"math"
	"testing"

	"github.com/jmm-lang/jmmc/internal/codegen"
)

func assemble(t *testing.T, build func(a *codegen.Assembler)) *codegen.Code {
	t.Helper()
	a := codegen.NewAssembler("test", "()V")
	build(a)
	code, err := a.Assemble()
	if err != nil {
		t.Fatalf("Assemble failed: %v", err)
	}
	return code
}

func TestArithmetic(t *testing.T) {
	tests := []struct {
		name     string
		build    func(a *codegen.Assembler)
		expected Value
	}{
		{
			name: "int add",
			build: func(a *codegen.Assembler) {
				a.EmitOperand(codegen.BIPUSH, 40)
				a.Emit(codegen.ICONST_2)
				a.Emit(codegen.IADD)
				a.Emit(codegen.IRETURN)
			},
			expected: int32(42),
		},
		{
			name: "int overflow wraps",
			build: func(a *codegen.Assembler) {
				a.EmitConstant(int32(math.MaxInt32))
				a.Emit(codegen.ICONST_1)
				a.Emit(codegen.IADD)
				a.Emit(codegen.IRETURN)
			},
			expected: int32(math.MinInt32),
		},
		{
			name: "int division truncates",
			build: func(a *codegen.Assembler) {
				a.EmitOperand(codegen.BIPUSH, -7)
				a.Emit(codegen.ICONST_2)
				a.Emit(codegen.IDIV)
				a.Emit(codegen.IRETURN)
			},
			expected: int32(-3),
		},
		{
			name: "unsigned shift",
			build: func(a *codegen.Assembler) {
				a.Emit(codegen.ICONST_M1)
				a.EmitOperand(codegen.BIPUSH, 28)
				a.Emit(codegen.IUSHR)
				a.Emit(codegen.IRETURN)
			},
			expected: int32(15),
		},
		{
			name: "long mixed with int",
			build: func(a *codegen.Assembler) {
				a.EmitConstant(int64(1) << 40)
				a.Emit(codegen.ICONST_3)
				a.Emit(codegen.I2L)
				a.Emit(codegen.LOR)
				a.Emit(codegen.LRETURN)
			},
			expected: int64(1)<<40 | 3,
		},
		{
			name: "double remainder",
			build: func(a *codegen.Assembler) {
				a.EmitConstant(float64(7.5))
				a.Emit(codegen.DCONST_1)
				a.Emit(codegen.DADD)
				a.EmitConstant(float64(4))
				a.Emit(codegen.DREM)
				a.Emit(codegen.DRETURN)
			},
			expected: float64(0.5),
		},
		{
			name: "double to int saturates",
			build: func(a *codegen.Assembler) {
				a.EmitConstant(float64(1e20))
				a.Emit(codegen.D2I)
				a.Emit(codegen.IRETURN)
			},
			expected: int32(math.MaxInt32),
		},
		{
			name: "NaN to long is zero",
			build: func(a *codegen.Assembler) {
				a.Emit(codegen.FCONST_0)
				a.Emit(codegen.FCONST_0)
				a.Emit(codegen.FDIV)
				a.Emit(codegen.F2L)
				a.Emit(codegen.LRETURN)
			},
			expected: int64(0),
		},
		{
			name: "float division by zero is infinite",
			build: func(a *codegen.Assembler) {
				a.Emit(codegen.FCONST_1)
				a.Emit(codegen.FCONST_0)
				a.Emit(codegen.FDIV)
				a.Emit(codegen.FRETURN)
			},
			expected: float32(math.Inf(1)),
		},
		{
			name: "char conversion masks",
			build: func(a *codegen.Assembler) {
				a.EmitConstant(int32(0x1_0041))
				a.Emit(codegen.I2C)
				a.Emit(codegen.IRETURN)
			},
			expected: int32('A'),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Run(assemble(t, tt.build))
			if err != nil {
				t.Fatalf("Run failed: %v", err)
			}
			if got != tt.expected {
				t.Errorf("result wrong. expected=%v (%T), got=%v (%T)", tt.expected, tt.expected, got, got)
			}
		})
	}
}

func TestComparisons(t *testing.T) {
	tests := []struct {
		name     string
		op       codegen.Opcode
		a, b     float64
		expected int32
	}{
		{"dcmpl less", codegen.DCMPL, 1, 2, -1},
		{"dcmpl equal", codegen.DCMPL, 2, 2, 0},
		{"dcmpg greater", codegen.DCMPG, 3, 2, 1},
		{"dcmpl NaN", codegen.DCMPL, math.NaN(), 2, -1},
		{"dcmpg NaN", codegen.DCMPG, math.NaN(), 2, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code := assemble(t, func(a *codegen.Assembler) {
				a.EmitConstant(tt.a)
				a.EmitConstant(tt.b)
				a.Emit(tt.op)
				a.Emit(codegen.IRETURN)
			})
			got, err := Run(code)
			if err != nil {
				t.Fatalf("Run failed: %v", err)
			}
			if got != tt.expected {
				t.Errorf("comparison wrong. expected=%d, got=%v", tt.expected, got)
			}
		})
	}
}

func TestArgumentsUseSlotWidth(t *testing.T) {
	// static long f(int a, long b, int c) { return b + c - a; }
	code := assemble(t, func(a *codegen.Assembler) {
		a.EmitOperand(codegen.LLOAD, 1)
		a.EmitOperand(codegen.ILOAD, 3)
		a.Emit(codegen.I2L)
		a.Emit(codegen.LADD)
		a.EmitOperand(codegen.ILOAD, 0)
		a.Emit(codegen.I2L)
		a.Emit(codegen.LSUB)
		a.Emit(codegen.LRETURN)
	})

	got, err := Run(code, int32(1), int64(100), int32(5))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got != int64(104) {
		t.Errorf("result wrong. expected=104, got=%v", got)
	}
}

func TestLoop(t *testing.T) {
	// int sum = 0; for (int i = 0; i < n; i++) sum += i; return sum;
	code := assemble(t, func(a *codegen.Assembler) {
		start, end := a.NewLabel(), a.NewLabel()
		a.Emit(codegen.ICONST_0)
		a.EmitOperand(codegen.ISTORE, 1)
		a.Emit(codegen.ICONST_0)
		a.EmitOperand(codegen.ISTORE, 2)
		a.PlaceLabel(start)
		a.EmitOperand(codegen.ILOAD, 2)
		a.EmitOperand(codegen.ILOAD, 0)
		a.EmitBranch(codegen.IF_ICMPGE, end)
		a.EmitOperand(codegen.ILOAD, 1)
		a.EmitOperand(codegen.ILOAD, 2)
		a.Emit(codegen.IADD)
		a.EmitOperand(codegen.ISTORE, 1)
		a.EmitIInc(2, 1)
		a.EmitBranch(codegen.GOTO, start)
		a.PlaceLabel(end)
		a.EmitOperand(codegen.ILOAD, 1)
		a.Emit(codegen.IRETURN)
	})

	got, err := Run(code, int32(10))
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got != int32(45) {
		t.Errorf("sum wrong. expected=45, got=%v", got)
	}
}

func TestStepLimit(t *testing.T) {
	code := assemble(t, func(a *codegen.Assembler) {
		l := a.NewLabel()
		a.PlaceLabel(l)
		a.EmitBranch(codegen.GOTO, l)
	})

	m := New(code)
	m.MaxSteps = 50
	if _, err := m.Run(); !stderrors.Is(err, ErrStepLimit) {
		t.Fatalf("expected ErrStepLimit, got %v", err)
	}
	if m.Steps != 50 {
		t.Errorf("steps wrong. expected=50, got=%d", m.Steps)
	}
}

func TestDupFamily(t *testing.T) {
	tests := []struct {
		name     string
		build    func(a *codegen.Assembler)
		expected []Value
	}{
		{
			name: "dup_x1",
			build: func(a *codegen.Assembler) {
				a.Emit(codegen.ICONST_1)
				a.Emit(codegen.ICONST_2)
				a.Emit(codegen.DUP_X1)
			},
			expected: []Value{int32(2), int32(1), int32(2)},
		},
		{
			name: "dup2 of a long",
			build: func(a *codegen.Assembler) {
				a.Emit(codegen.LCONST_1)
				a.Emit(codegen.DUP2)
			},
			expected: []Value{int64(1), int64(1)},
		},
		{
			name: "dup2_x1 of a long",
			build: func(a *codegen.Assembler) {
				a.Emit(codegen.ICONST_3)
				a.Emit(codegen.LCONST_1)
				a.Emit(codegen.DUP2_X1)
			},
			expected: []Value{int64(1), int32(3), int64(1)},
		},
		{
			name: "dup_x2 over a double",
			build: func(a *codegen.Assembler) {
				a.Emit(codegen.DCONST_0)
				a.Emit(codegen.ICONST_4)
				a.Emit(codegen.DUP_X2)
			},
			expected: []Value{int32(4), float64(0), int32(4)},
		},
		{
			name: "pop2 of two ints",
			build: func(a *codegen.Assembler) {
				a.Emit(codegen.ICONST_5)
				a.Emit(codegen.ICONST_1)
				a.Emit(codegen.ICONST_2)
				a.Emit(codegen.POP2)
			},
			expected: []Value{int32(5)},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code := assemble(t, func(a *codegen.Assembler) {
				tt.build(a)
				a.Emit(codegen.RETURN)
			})
			m := New(code)
			for i := 0; i < len(code.Instructions)-1; i++ {
				if err := m.Step(); err != nil {
					t.Fatalf("Step failed: %v", err)
				}
			}
			if len(m.stack) != len(tt.expected) {
				t.Fatalf("stack wrong. expected=%v, got=%v", tt.expected, m.stack)
			}
			for i := range tt.expected {
				if m.stack[i] != tt.expected[i] {
					t.Errorf("stack[%d] wrong. expected=%v, got=%v", i, tt.expected[i], m.stack[i])
				}
			}
		})
	}
}

func TestPopOfWideValueFaults(t *testing.T) {
	code := assemble(t, func(a *codegen.Assembler) {
		a.Emit(codegen.LCONST_0)
		a.Emit(codegen.POP)
		a.Emit(codegen.RETURN)
	})

	_, err := Run(code)
	var fault *Fault
	if !stderrors.As(err, &fault) {
		t.Fatalf("expected *Fault, got %v", err)
	}
	if fault.PC != 1 || fault.Op != codegen.POP {
		t.Errorf("fault location wrong. got pc=%d op=%s", fault.PC, fault.Op)
	}
}

func TestExceptions(t *testing.T) {
	tests := []struct {
		name     string
		build    func(a *codegen.Assembler)
		expected Value
		uncaught string
	}{
		{
			name: "division by zero caught",
			build: func(a *codegen.Assembler) {
				start, end, handler := a.NewLabel(), a.NewLabel(), a.NewLabel()
				a.PlaceLabel(start)
				a.Emit(codegen.ICONST_1)
				a.Emit(codegen.ICONST_0)
				a.Emit(codegen.IDIV)
				a.Emit(codegen.IRETURN)
				a.PlaceLabel(end)
				a.PlaceLabel(handler)
				a.EmitOperand(codegen.ASTORE, 0)
				a.Emit(codegen.ICONST_M1)
				a.Emit(codegen.IRETURN)
				a.RegisterHandler(codegen.Handler{Start: start, End: end, Target: handler, Exception: "java/lang/ArithmeticException"})
			},
			expected: int32(-1),
		},
		{
			name: "superclass handler matches",
			build: func(a *codegen.Assembler) {
				start, end, handler := a.NewLabel(), a.NewLabel(), a.NewLabel()
				a.PlaceLabel(start)
				a.Emit(codegen.ICONST_0)
				a.EmitOperand(codegen.NEWARRAY, codegen.ArrayTypeInt)
				a.Emit(codegen.ICONST_0)
				a.Emit(codegen.IALOAD)
				a.Emit(codegen.IRETURN)
				a.PlaceLabel(end)
				a.PlaceLabel(handler)
				a.EmitMember(codegen.INVOKEVIRTUAL, "java/lang/Throwable", "getMessage", "()Ljava/lang/String;")
				a.Emit(codegen.ARETURN)
				a.RegisterHandler(codegen.Handler{Start: start, End: end, Target: handler, Exception: "java/lang/RuntimeException"})
			},
			expected: "Index 0 out of bounds for length 0",
		},
		{
			name: "unrelated handler skipped",
			build: func(a *codegen.Assembler) {
				start, end, handler := a.NewLabel(), a.NewLabel(), a.NewLabel()
				a.PlaceLabel(start)
				a.EmitClass(codegen.NEW, "java/lang/IllegalStateException")
				a.Emit(codegen.DUP)
				a.EmitConstant("bad state")
				a.EmitMember(codegen.INVOKESPECIAL, "java/lang/IllegalStateException", "<init>", "(Ljava/lang/String;)V")
				a.Emit(codegen.ATHROW)
				a.PlaceLabel(end)
				a.PlaceLabel(handler)
				a.Emit(codegen.ICONST_0)
				a.Emit(codegen.IRETURN)
				a.RegisterHandler(codegen.Handler{Start: start, End: end, Target: handler, Exception: "java/lang/ArithmeticException"})
			},
			uncaught: "java.lang.IllegalStateException: bad state",
		},
		{
			name: "catch-all handler",
			build: func(a *codegen.Assembler) {
				start, end, handler := a.NewLabel(), a.NewLabel(), a.NewLabel()
				a.PlaceLabel(start)
				a.Emit(codegen.ICONST_M1)
				a.EmitOperand(codegen.NEWARRAY, codegen.ArrayTypeLong)
				a.Emit(codegen.POP)
				a.PlaceLabel(end)
				a.Emit(codegen.ICONST_0)
				a.Emit(codegen.IRETURN)
				a.PlaceLabel(handler)
				a.Emit(codegen.POP)
				a.Emit(codegen.ICONST_1)
				a.Emit(codegen.IRETURN)
				a.RegisterHandler(codegen.Handler{Start: start, End: end, Target: handler})
			},
			expected: int32(1),
		},
		{
			name: "null string receiver",
			build: func(a *codegen.Assembler) {
				a.Emit(codegen.ACONST_NULL)
				a.EmitMember(codegen.INVOKEVIRTUAL, "java/lang/String", "length", "()I")
				a.Emit(codegen.IRETURN)
			},
			uncaught: "java.lang.NullPointerException: string is null",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Run(assemble(t, tt.build))
			if tt.uncaught != "" {
				var u *UncaughtError
				if !stderrors.As(err, &u) {
					t.Fatalf("expected *UncaughtError, got %v", err)
				}
				if u.Exception.String() != tt.uncaught {
					t.Errorf("exception wrong. expected=%q, got=%q", tt.uncaught, u.Exception.String())
				}
				return
			}
			if err != nil {
				t.Fatalf("Run failed: %v", err)
			}
			if got != tt.expected {
				t.Errorf("result wrong. expected=%v, got=%v", tt.expected, got)
			}
		})
	}
}

func TestStringBuilding(t *testing.T) {
	// "x=" + 2.5 + ',' + true + null
	code := assemble(t, func(a *codegen.Assembler) {
		a.EmitClass(codegen.NEW, "java/lang/StringBuilder")
		a.Emit(codegen.DUP)
		a.EmitMember(codegen.INVOKESPECIAL, "java/lang/StringBuilder", "<init>", "()V")
		a.EmitConstant("x=")
		a.EmitMember(codegen.INVOKEVIRTUAL, "java/lang/StringBuilder", "append", "(Ljava/lang/String;)Ljava/lang/StringBuilder;")
		a.EmitConstant(float64(2.5))
		a.EmitMember(codegen.INVOKEVIRTUAL, "java/lang/StringBuilder", "append", "(D)Ljava/lang/StringBuilder;")
		a.EmitOperand(codegen.BIPUSH, ',')
		a.EmitMember(codegen.INVOKEVIRTUAL, "java/lang/StringBuilder", "append", "(C)Ljava/lang/StringBuilder;")
		a.Emit(codegen.ICONST_1)
		a.EmitMember(codegen.INVOKEVIRTUAL, "java/lang/StringBuilder", "append", "(Z)Ljava/lang/StringBuilder;")
		a.Emit(codegen.ACONST_NULL)
		a.EmitMember(codegen.INVOKEVIRTUAL, "java/lang/StringBuilder", "append", "(Ljava/lang/String;)Ljava/lang/StringBuilder;")
		a.EmitMember(codegen.INVOKEVIRTUAL, "java/lang/StringBuilder", "toString", "()Ljava/lang/String;")
		a.Emit(codegen.ARETURN)
	})

	got, err := Run(code)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if got != "x=2.5,truenull" {
		t.Errorf("string wrong. expected=%q, got=%q", "x=2.5,truenull", got)
	}
}

func TestFormatFloat(t *testing.T) {
	tests := []struct {
		value    Value
		expected string
	}{
		{float64(1), "1.0"},
		{float64(0.1), "0.1"},
		{float64(-0.0005), "-5.0E-4"},
		{float64(1e7), "1.0E7"},
		{float64(12345678.9), "1.23456789E7"},
		{float32(0.1), "0.1"},
		{float64(math.NaN()), "NaN"},
		{float32(math.Inf(-1)), "-Infinity"},
	}

	for _, tt := range tests {
		if got := Format(tt.value, ""); got != tt.expected {
			t.Errorf("Format(%v) wrong. expected=%q, got=%q", tt.value, tt.expected, got)
		}
	}
}
