package eval_test

import (
	"testing"

	"memfuzz/internal/ast"
	"memfuzz/internal/errors"
	"memfuzz/internal/eval"
	"memfuzz/internal/lexer"
	"memfuzz/internal/optimize"
	"memfuzz/internal/parser"
	"memfuzz/internal/symtab"
	"memfuzz/internal/target"
	"memfuzz/internal/value"
)

// fakeTarget is an in-memory MemoryTarget for evaluator tests, standing
// in for a real ptrace/websocket target so DEREF can be exercised
// without an attached process.
type fakeTarget struct {
	mem   map[target.Address]byte
	paused bool
}

func newFakeTarget() *fakeTarget { return &fakeTarget{mem: make(map[target.Address]byte)} }

func (f *fakeTarget) poke(addr target.Address, v value.Value) {
	for i, b := range value.Encode(v) {
		f.mem[addr+target.Address(i)] = b
	}
}

func (f *fakeTarget) Read(addr target.Address, buf []byte) error {
	for i := range buf {
		b, ok := f.mem[addr+target.Address(i)]
		if !ok {
			return errors.MemoryRead(uint64(addr), value.U8)
		}
		buf[i] = b
	}
	return nil
}

func (f *fakeTarget) Write(addr target.Address, buf []byte) error {
	for i, b := range buf {
		f.mem[addr+target.Address(i)] = b
	}
	return nil
}

func (f *fakeTarget) Pause() error       { f.paused = true; return nil }
func (f *fakeTarget) Resume() error      { f.paused = false; return nil }
func (f *fakeTarget) Regions() ([]target.Region, error) { return nil, nil }
func (f *fakeTarget) AddressWidth() int  { return 32 }
func (f *fakeTarget) Close() error       { return nil }

// parseAndOptimize compiles expr against an optional set of bound names,
// recovering from a parser panic into a plain error slice.
func parseAndOptimize(t *testing.T, expr string, binds map[string]value.Value) (*ast.Node, []error) {
	t.Helper()
	toks, err := lexer.Tokens(expr)
	if err != nil {
		return nil, []error{err}
	}
	table := symtab.New()
	for name, v := range binds {
		cell := symtab.NewCell(v.Type)
		cell.Store(v)
		if ierr := table.Insert(name, v.Type, cell); ierr != nil {
			t.Fatalf("insert %s: %v", name, ierr)
		}
	}
	p := parser.New(toks, expr, table)
	tree, errs := p.ParseExpression()
	if len(errs) > 0 {
		return nil, errs
	}
	return optimize.Optimize(tree), nil
}

// --- end-to-end scenarios ---

func TestEndToEndScenarios(t *testing.T) {
	tests := []struct {
		name    string
		expr    string
		binds   map[string]value.Value
		wantT   value.Type
		wantInt int64
		wantF   float64
		isFloat bool
	}{
		{"1+2*3", "1 + 2 * 3", nil, value.S32, 7, 0, false},
		{"(u32)-1 > 0", "(u32)-1 > 0", nil, value.S32, 1, 0, false},
		{"1.5+2", "1.5 + 2", nil, value.F64, 0, 3.5, true},
		{"s16 promotion", "(s16)300 + (s16)300", nil, value.S32, 600, 0, false},
		{
			"short-circuit and", "value == 42 && (addr & 0x3) == 0",
			map[string]value.Value{"value": value.Int(value.S32, 42), "addr": value.Uint(value.U32, 0x1000)},
			value.S32, 1, 0, false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tree, errs := parseAndOptimize(t, tt.expr, tt.binds)
			if len(errs) > 0 {
				t.Fatalf("parse errors: %v", errs)
			}
			v, err := eval.Evaluate(tree, nil)
			if err != nil {
				t.Fatalf("evaluate: %v", err)
			}
			if v.Type != tt.wantT {
				t.Errorf("type = %s, want %s", v.Type, tt.wantT)
			}
			if tt.isFloat {
				if v.Float64() != tt.wantF {
					t.Errorf("value = %v, want %v", v.Float64(), tt.wantF)
				}
			} else if v.Int64() != tt.wantInt {
				t.Errorf("value = %v, want %v", v.Int64(), tt.wantInt)
			}
		})
	}
}

func TestDivideByZero(t *testing.T) {
	tree, errs := parseAndOptimize(t, "10 / 0", nil)
	if len(errs) > 0 {
		t.Fatalf("parse errors: %v", errs)
	}
	_, err := eval.Evaluate(tree, nil)
	if !errors.Is(err, errors.EvalError) {
		t.Fatalf("expected EvalError, got %v", err)
	}
}

func TestDerefScenario(t *testing.T) {
	tgt := newFakeTarget()
	tgt.poke(0x2000, value.Int(value.S32, 7))

	tree, errs := parseAndOptimize(t, "*(s32*)addr + 1",
		map[string]value.Value{"addr": value.Uint(value.U32, 0x2000)})
	if len(errs) > 0 {
		t.Fatalf("parse errors: %v", errs)
	}
	v, err := eval.Evaluate(tree, tgt)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if v.Type != value.S32 || v.Int64() != 8 {
		t.Fatalf("got (%s) %d, want (s32) 8", v.Type, v.Int64())
	}
}

// --- boundary behaviours ---

func TestShiftByZero(t *testing.T) {
	tree, errs := parseAndOptimize(t, "5 << 0", nil)
	if len(errs) > 0 {
		t.Fatalf("parse errors: %v", errs)
	}
	v, err := eval.Evaluate(tree, nil)
	if err != nil || v.Int64() != 5 {
		t.Fatalf("got %v, %v; want 5, nil", v, err)
	}
}

func TestU64LiteralExceedingS64Range(t *testing.T) {
	tree, errs := parseAndOptimize(t, "18446744073709551615", nil)
	if len(errs) > 0 {
		t.Fatalf("parse errors: %v", errs)
	}
	v, err := eval.Evaluate(tree, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if v.Type != value.U64 || v.Uint64() != 18446744073709551615 {
		t.Fatalf("got (%s) %d, want (u64) max", v.Type, v.Uint64())
	}
}

func TestF64U64Comparison(t *testing.T) {
	tree, errs := parseAndOptimize(t, "(f64)10 == (u64)10", nil)
	if len(errs) > 0 {
		t.Fatalf("parse errors: %v", errs)
	}
	v, err := eval.Evaluate(tree, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if v.Int64() != 1 {
		t.Fatalf("got %v, want (s32) 1", v)
	}
}

// TestNegativeFloatToU8Cast pins the implementation-defined F64->U8
// negative-value cast: truncate to int64 then reinterpret as unsigned,
// matching value.CastTo's documented rule.
func TestNegativeFloatToU8Cast(t *testing.T) {
	tree, errs := parseAndOptimize(t, "(u8)(-1.0)", nil)
	if len(errs) > 0 {
		t.Fatalf("parse errors: %v", errs)
	}
	v, err := eval.Evaluate(tree, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if v.Type != value.U8 || v.Uint64() != 0xFF {
		t.Fatalf("got (%s) 0x%x, want (u8) 0xff", v.Type, v.Uint64())
	}
}

// TestF32ArithmeticResultStaysF64 pins the preserved quirk: F32 has no
// native arithmetic kernel, so operands widen to F64 and the result
// keeps the F64 tag — a caller wanting an f32 result adds an explicit
// cast.
func TestF32ArithmeticResultStaysF64(t *testing.T) {
	tree, errs := parseAndOptimize(t, "(f32)1.5 + (f32)2.0", nil)
	if len(errs) > 0 {
		t.Fatalf("parse errors: %v", errs)
	}
	v, err := eval.Evaluate(tree, nil)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if v.Type != value.F64 {
		t.Errorf("result type = %s, want f64 (preserved widening behavior)", v.Type)
	}
	if v.Float64() != 3.5 {
		t.Errorf("result = %v, want 3.5", v.Float64())
	}
}

func TestCaretOnFloatIsParseError(t *testing.T) {
	_, errs := parseAndOptimize(t, "1.5 ^ 2", nil)
	if len(errs) == 0 {
		t.Fatal("expected a parse error for '^' on a float operand")
	}
}

func TestUnknownIdentifier(t *testing.T) {
	_, errs := parseAndOptimize(t, "nonexistent + 1", nil)
	if len(errs) == 0 {
		t.Fatal("expected a parse error for an unknown identifier")
	}
}

func TestShortCircuitSkipsRightSideDeref(t *testing.T) {
	// addr points nowhere valid; the left side of && is false, so a
	// non-short-circuiting evaluator would error on the deref while this
	// one must return false without touching the target.
	tgt := newFakeTarget()
	tree, errs := parseAndOptimize(t, "0 && *(s32*)addr",
		map[string]value.Value{"addr": value.Uint(value.U32, 0x9999)})
	if len(errs) > 0 {
		t.Fatalf("parse errors: %v", errs)
	}
	v, err := eval.Evaluate(tree, tgt)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if v.Int64() != 0 {
		t.Fatalf("got %v, want (s32) 0", v)
	}
}
