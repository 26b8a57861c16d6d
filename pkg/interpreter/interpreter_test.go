package interpreter_test

import (
	"errors"
	"fmt"
	"testing"

	"wasmexec/pkg/ast"
	"wasmexec/pkg/interpreter"
	"wasmexec/pkg/value"
)

var (
	add = ast.I32Binop(ast.OpAdd)
	sub = ast.I32Binop(ast.OpSub)
	mul = ast.I32Binop(ast.OpMul)
)

func mustValue(t *testing.T, res interpreter.Result, err error) value.Value {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Trapped() {
		t.Fatalf("unexpected trap")
	}
	v, ok := res.Value()
	if !ok {
		t.Fatalf("expected a value, got none")
	}
	return v
}

func TestRightOperandPoppedFirst(t *testing.T) {
	body := []ast.Instruction{
		ast.I32Const(2), ast.I32Const(3), ast.I32Const(4), mul, add,
	}

	res, err := interpreter.Exec(body)
	v := mustValue(t, res, err)
	if !v.Equal(value.I32(14)) {
		t.Errorf("expected 14:i32, got %s", v)
	}
}

func TestSetLocalVisibleAfterBlock(t *testing.T) {
	body := []ast.Instruction{
		ast.SetLocal{Index: 0, Init: ast.I32Const(7)},
		ast.Block{Label: "b0", Body: []ast.Instruction{
			ast.SetLocal{Index: 1, Init: ast.I32Const(9)},
		}},
		ast.GetLocal{Index: 0},
		ast.GetLocal{Index: 1},
		add,
	}

	locals := interpreter.NewLocals(2)
	res, err := interpreter.NewInterpreter().Invoke(body, locals)
	v := mustValue(t, res, err)
	if !v.Equal(value.I32(16)) {
		t.Errorf("expected 16:i32, got %s", v)
	}

	got, err := locals.Get(1)
	if err != nil || !got.Equal(value.I32(9)) {
		t.Errorf("local 1: expected 9:i32, got %s (%v)", got, err)
	}
}

func TestSetLocalFromStack(t *testing.T) {
	body := []ast.Instruction{
		ast.I32Const(40), ast.I32Const(2), add,
		ast.SetLocal{Index: 0},
		ast.GetLocal{Index: 0},
	}

	res, err := interpreter.Exec(body, value.I32(0))
	v := mustValue(t, res, err)
	if !v.Equal(value.I32(42)) {
		t.Errorf("expected 42:i32, got %s", v)
	}
}

func TestTrapStopsEveryFrame(t *testing.T) {
	var executed []string
	hook := func(depth, pc int, in ast.Instruction) {
		executed = append(executed, fmt.Sprintf("%d:%d %s", depth, pc, in.Opcode()))
	}

	body := []ast.Instruction{
		ast.I32Const(1),
		ast.Block{Label: "outer", Body: []ast.Instruction{
			ast.Loop{Body: []ast.Instruction{
				ast.Trap{},
				ast.I32Const(2),
			}},
			ast.I32Const(3),
		}},
		ast.I32Const(4),
	}

	res, err := interpreter.NewInterpreter(interpreter.WithTrace(hook)).Invoke(body, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Trapped() {
		t.Fatalf("expected trap, got %s", res)
	}
	if _, ok := res.Value(); ok {
		t.Errorf("trapped result must not carry a value")
	}

	if len(executed) != 1 || executed[0] != "0:0 i32.const" {
		t.Errorf("expected only the first const to run, got %v", executed)
	}
}

func TestTrapInSetLocalInitializer(t *testing.T) {
	body := []ast.Instruction{
		ast.SetLocal{Index: 0, Init: ast.Trap{}},
		ast.GetLocal{Index: 0},
	}

	res, err := interpreter.Exec(body, value.I32(1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Trapped() {
		t.Errorf("expected trap, got %s", res)
	}
}

func TestBlockLabelDoesNotLeak(t *testing.T) {
	body := []ast.Instruction{
		ast.I32Const(1),
		ast.Block{Label: "b", Body: []ast.Instruction{ast.I32Const(5)}},
	}

	f := interpreter.NewFrame(body, nil)

	var heights []int
	var after []value.Value
	f.Trace = func(depth, pc int, in ast.Instruction) {
		if depth == 0 {
			heights = append(heights, f.Values.Size())
			after = f.Values.Values()
		}
	}

	res, err := interpreter.NewInterpreter().Execute(f, 0)
	v := mustValue(t, res, err)
	if !v.Equal(value.I32(5)) {
		t.Errorf("expected 5:i32, got %s", v)
	}

	if len(heights) != 2 || heights[1] != heights[0]+1 {
		t.Fatalf("expected block to add exactly one value, heights %v", heights)
	}
	for _, v := range after {
		if v.Kind() == value.KindLabel {
			t.Errorf("label leaked onto the stack: %v", after)
		}
	}
}

func TestBlocks(t *testing.T) {
	tests := []struct {
		body        []ast.Instruction
		expected    value.Value
		hasValue    bool
		description string
	}{
		{[]ast.Instruction{ast.Block{Label: "b", Body: []ast.Instruction{ast.I32Const(5)}}}, value.I32(5), true, "labeled block with const"},
		{[]ast.Instruction{ast.Block{Body: []ast.Instruction{ast.I32Const(4)}}}, value.I32(4), true, "anonymous block"},
		{[]ast.Instruction{ast.Block{Label: "empty"}}, value.Value{}, false, "empty block"},
		{[]ast.Instruction{ast.Block{Body: []ast.Instruction{ast.Nop{}}}}, value.Value{}, false, "block without result"},
		{[]ast.Instruction{
			ast.I32Const(10),
			ast.Block{Body: []ast.Instruction{ast.I32Const(6), ast.I32Const(2), sub}},
			sub,
		}, value.I32(6), true, "block result used as right operand"},
		{[]ast.Instruction{ast.Loop{Label: "l", Body: []ast.Instruction{ast.I32Const(8)}}}, value.Value{}, false, "loop value discarded"},
		{[]ast.Instruction{
			ast.I32Const(1),
			ast.Loop{Body: []ast.Instruction{ast.I32Const(8)}},
		}, value.I32(1), true, "loop leaves enclosing stack untouched"},
		{[]ast.Instruction{
			ast.Block{Label: "b", Result: value.KindI64, Body: []ast.Instruction{ast.I32Const(3)}},
		}, value.I32(3), true, "declared result type is not enforced"},
		{[]ast.Instruction{ast.Loop{}}, value.Value{}, false, "empty loop"},
		{nil, value.Value{}, false, "empty function"},
	}

	for _, test := range tests {
		res, err := interpreter.Exec(test.body)
		if err != nil {
			t.Errorf("%s: unexpected error: %v", test.description, err)
			continue
		}
		v, ok := res.Value()
		if ok != test.hasValue {
			t.Errorf("%s: expected value=%v, got %s", test.description, test.hasValue, res)
			continue
		}
		if ok && !v.Equal(test.expected) {
			t.Errorf("%s: expected %s, got %s", test.description, test.expected, v)
		}
	}
}

func TestLoopRunsBodyOnce(t *testing.T) {
	body := []ast.Instruction{
		ast.Loop{Label: "again", Body: []ast.Instruction{
			ast.GetLocal{Index: 0}, ast.I32Const(1), add, ast.SetLocal{Index: 0},
		}},
		ast.GetLocal{Index: 0},
	}

	res, err := interpreter.Exec(body, value.I32(0))
	v := mustValue(t, res, err)
	if !v.Equal(value.I32(1)) {
		t.Errorf("expected 1:i32, got %s", v)
	}
}

func TestIf(t *testing.T) {
	then := []ast.Instruction{ast.I32Const(1)}
	alt := []ast.Instruction{ast.I32Const(2)}

	tests := []struct {
		test        value.Value
		alternate   []ast.Instruction
		expected    value.Value
		hasValue    bool
		description string
	}{
		{value.I32(0), alt, value.I32(2), true, "zero runs alternate"},
		{value.I32(1), alt, value.I32(1), true, "one runs consequent"},
		{value.I32(-7), alt, value.I32(1), true, "negative runs consequent"},
		{value.I64(0), alt, value.I32(1), true, "i64 zero runs consequent"},
		{value.F32(0), alt, value.I32(1), true, "f32 zero runs consequent"},
		{value.I32(0), nil, value.Value{}, false, "zero without alternate"},
		{value.I32(3), nil, value.I32(1), true, "non-zero without alternate"},
	}

	for _, test := range tests {
		body := []ast.Instruction{ast.If{
			Test:       []ast.Instruction{ast.Const{Value: test.test}},
			Consequent: then,
			Alternate:  test.alternate,
		}}

		res, err := interpreter.Exec(body)
		if err != nil {
			t.Errorf("%s: unexpected error: %v", test.description, err)
			continue
		}
		v, ok := res.Value()
		if ok != test.hasValue || (ok && !v.Equal(test.expected)) {
			t.Errorf("%s: expected %s, got %s", test.description, test.expected, res)
		}
	}
}

func TestIfRunsOnlyOneBranch(t *testing.T) {
	body := []ast.Instruction{
		ast.If{
			Test:       []ast.Instruction{ast.I32Const(0)},
			Consequent: []ast.Instruction{ast.SetLocal{Index: 0, Init: ast.I32Const(1)}},
			Alternate:  []ast.Instruction{ast.SetLocal{Index: 1, Init: ast.I32Const(2)}},
		},
	}

	locals := interpreter.NewLocals(2)
	if _, err := interpreter.NewInterpreter().Invoke(body, locals); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := locals.Get(0); !errors.Is(err, interpreter.ErrLocalUnset) {
		t.Errorf("consequent should not have run, local 0: %v", err)
	}
	if v, err := locals.Get(1); err != nil || !v.Equal(value.I32(2)) {
		t.Errorf("alternate should have set local 1, got %s (%v)", v, err)
	}
}

func nestedBlocks(n int, inner []ast.Instruction) []ast.Instruction {
	body := inner
	for i := 0; i < n; i++ {
		body = []ast.Instruction{ast.Block{Label: fmt.Sprintf("b%d", i), Body: body}}
	}
	return body
}

func TestDeeplyNestedBlocks(t *testing.T) {
	f := interpreter.NewFrame(nestedBlocks(1000, []ast.Instruction{ast.I32Const(1)}), nil)

	maxDepth := 0
	f.Trace = func(depth, pc int, in ast.Instruction) {
		if pc != 0 {
			t.Errorf("unexpected pc %d at depth %d", pc, depth)
		}
		if depth > maxDepth {
			maxDepth = depth
		}
	}

	it := interpreter.NewInterpreter()
	res, err := it.Execute(f, 0)
	v := mustValue(t, res, err)
	if !v.Equal(value.I32(1)) {
		t.Errorf("expected 1:i32, got %s", v)
	}
	if f.Values.Size() != 0 {
		t.Errorf("expected empty root stack after returning, got %v", f.Values.Values())
	}
	if f.PC != 1 {
		t.Errorf("expected root pc 1, got %d", f.PC)
	}
	if maxDepth != 1000 {
		t.Errorf("expected depth 1000, got %d", maxDepth)
	}
}

func TestTraceInheritance(t *testing.T) {
	var events []string
	hook := func(depth, pc int, in ast.Instruction) {
		events = append(events, fmt.Sprintf("%d:%d %s", depth, pc, in.Opcode()))
	}

	body := []ast.Instruction{
		ast.I32Const(1),
		ast.Block{Body: []ast.Instruction{ast.I32Const(2), ast.I32Const(3), add}},
		add,
	}

	res, err := interpreter.NewInterpreter(interpreter.WithTrace(hook)).Invoke(body, nil)
	v := mustValue(t, res, err)
	if !v.Equal(value.I32(6)) {
		t.Errorf("expected 6:i32, got %s", v)
	}

	expected := []string{
		"0:0 i32.const",
		"1:0 i32.const",
		"1:1 i32.const",
		"1:2 i32.add",
		"0:1 block",
		"0:2 i32.add",
	}
	if len(events) != len(expected) {
		t.Fatalf("expected %v, got %v", expected, events)
	}
	for i := range expected {
		if events[i] != expected[i] {
			t.Errorf("event %d: expected %q, got %q", i, expected[i], events[i])
		}
	}
}

func TestFatalErrors(t *testing.T) {
	tests := []struct {
		body        []ast.Instruction
		locals      []value.Value
		expected    error
		description string
	}{
		{[]ast.Instruction{ast.I32Const(1), add}, nil, interpreter.ErrStackUnderflow, "binop with one operand"},
		{[]ast.Instruction{ast.I64Const(1), ast.I32Const(2), add}, nil, interpreter.ErrTypeMismatch, "i64 left operand"},
		{[]ast.Instruction{ast.I32Const(1), ast.I64Const(2), add}, nil, interpreter.ErrTypeMismatch, "i64 right operand"},
		{[]ast.Instruction{ast.GetLocal{Index: 3}}, []value.Value{value.I32(0)}, interpreter.ErrLocalOutOfRange, "get out of range"},
		{[]ast.Instruction{ast.GetLocal{Index: -1}}, []value.Value{value.I32(0)}, interpreter.ErrLocalOutOfRange, "negative index"},
		{[]ast.Instruction{ast.GetLocal{Index: 0}}, []value.Value{{}}, interpreter.ErrLocalUnset, "get unset local"},
		{[]ast.Instruction{ast.SetLocal{Index: 2, Init: ast.I32Const(1)}}, nil, interpreter.ErrLocalOutOfRange, "set out of range"},
		{[]ast.Instruction{ast.SetLocal{Index: 0, Init: ast.Nop{}}}, []value.Value{{}}, interpreter.ErrMissingValue, "initializer without value"},
		{[]ast.Instruction{ast.SetLocal{Index: 0}}, []value.Value{{}}, interpreter.ErrStackUnderflow, "flat set on empty stack"},
		{[]ast.Instruction{ast.Instr{ID: "i32.div_s"}}, nil, interpreter.ErrUnknownOpcode, "unmodeled instruction"},
		{[]ast.Instruction{ast.Binop{Type: value.KindF32, Op: ast.OpAdd}}, nil, interpreter.ErrUnknownOpcode, "f32 add"},
		{[]ast.Instruction{ast.Const{Value: value.Label("x")}}, nil, interpreter.ErrUnknownOpcode, "label const"},
		{[]ast.Instruction{ast.If{Test: []ast.Instruction{ast.Nop{}}}}, nil, interpreter.ErrMissingValue, "if test without value"},
		{[]ast.Instruction{ast.Block{Body: []ast.Instruction{ast.GetLocal{Index: 5}}}}, nil, interpreter.ErrLocalOutOfRange, "error inside block"},
	}

	for _, test := range tests {
		_, err := interpreter.Exec(test.body, test.locals...)
		if !errors.Is(err, test.expected) {
			t.Errorf("%s: expected %v, got %v", test.description, test.expected, err)
		}
	}
}

func TestFatalErrorLocation(t *testing.T) {
	body := []ast.Instruction{
		ast.Nop{},
		ast.Block{Body: []ast.Instruction{
			ast.Block{Body: []ast.Instruction{ast.I32Const(1), add}},
		}},
		ast.I32Const(9),
	}

	_, err := interpreter.Exec(body)

	var ee *interpreter.ExecError
	if !errors.As(err, &ee) {
		t.Fatalf("expected *ExecError, got %v", err)
	}
	if ee.Depth != 2 || ee.PC != 1 || ee.Opcode != "i32.add" {
		t.Errorf("expected depth 2, pc 1, i32.add; got %d, %d, %s", ee.Depth, ee.PC, ee.Opcode)
	}
	if !errors.Is(err, interpreter.ErrStackUnderflow) {
		t.Errorf("expected stack underflow, got %v", err)
	}
}

func TestMaxDepth(t *testing.T) {
	inner := []ast.Instruction{ast.I32Const(1)}

	it := interpreter.NewInterpreter(interpreter.WithMaxDepth(10))
	if _, err := it.Invoke(nestedBlocks(10, inner), nil); err != nil {
		t.Errorf("10 nested blocks within a depth of 10: %v", err)
	}

	_, err := it.Invoke(nestedBlocks(11, inner), nil)
	if !errors.Is(err, interpreter.ErrMaxDepthExceeded) {
		t.Errorf("expected %v, got %v", interpreter.ErrMaxDepthExceeded, err)
	}

	unbounded := interpreter.NewInterpreter(interpreter.WithMaxDepth(0))
	if _, err := unbounded.Invoke(nestedBlocks(50, inner), nil); err != nil {
		t.Errorf("unbounded depth: %v", err)
	}
}

func TestMaxSteps(t *testing.T) {
	body := []ast.Instruction{ast.I32Const(1), ast.I32Const(2), add}

	it := interpreter.NewInterpreter(interpreter.WithMaxSteps(2))
	_, err := it.Invoke(body, nil)
	if !errors.Is(err, interpreter.ErrMaxStepsExceeded) {
		t.Fatalf("expected %v, got %v", interpreter.ErrMaxStepsExceeded, err)
	}

	it = interpreter.NewInterpreter(interpreter.WithMaxSteps(3))
	if _, err := it.Invoke(body, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if it.Steps() != 3 {
		t.Errorf("expected 3 steps, got %d", it.Steps())
	}

	// the budget is per invocation
	if _, err := it.Invoke(body, nil); err != nil {
		t.Errorf("second invocation: %v", err)
	}
}
