package interpreter

import (
	"fmt"

	"wasmexec/pkg/stack"
	"wasmexec/pkg/value"
)

// OperandStack is the per-frame LIFO of tagged values. Every pop checks the
// depth and the tag of what it removes.
type OperandStack struct {
	s *stack.Stack[value.Value]
}

func newOperandStack() *OperandStack {
	return &OperandStack{s: stack.NewStack[value.Value]()}
}

func (o *OperandStack) Push(v value.Value) {
	o.s.Push(v)
}

// PushAll pushes vals in order, the last one ending on top.
func (o *OperandStack) PushAll(vals []value.Value) {
	for _, v := range vals {
		o.s.Push(v)
	}
}

func (o *OperandStack) Size() int {
	return o.s.Size()
}

// Values returns a copy of the stack contents, bottom first.
func (o *OperandStack) Values() []value.Value {
	return append([]value.Value(nil), o.s.Array()...)
}

func (o *OperandStack) require(n int) error {
	if o.s.Size() < n {
		return fmt.Errorf("%w: expected %d on the stack, have %d", ErrStackUnderflow, n, o.s.Size())
	}
	return nil
}

// Pop removes the top value whatever its kind.
func (o *OperandStack) Pop() (value.Value, error) {
	if err := o.require(1); err != nil {
		return value.Value{}, err
	}
	v, _ := o.s.Pop()
	return v, nil
}

// Pop1 removes the top value, which must be of kind k.
func (o *OperandStack) Pop1(k value.Kind) (value.Value, error) {
	if err := o.require(1); err != nil {
		return value.Value{}, err
	}

	v, _ := o.s.Pop()
	if v.Kind() != k {
		return value.Value{}, fmt.Errorf("%w: expected %s on top of the stack, found %s", ErrTypeMismatch, k, v.Kind())
	}

	return v, nil
}

// Pop2 removes the right operand (top) and then the left operand beneath it,
// checking each against its own kind.
func (o *OperandStack) Pop2(left, right value.Kind) (l, r value.Value, err error) {
	if err := o.require(2); err != nil {
		return value.Value{}, value.Value{}, err
	}

	r, _ = o.s.Pop()
	l, _ = o.s.Pop()

	if r.Kind() != right {
		return value.Value{}, value.Value{}, fmt.Errorf("%w: expected right operand of type %s, found %s", ErrTypeMismatch, right, r.Kind())
	}
	if l.Kind() != left {
		return value.Value{}, value.Value{}, fmt.Errorf("%w: expected left operand of type %s, found %s", ErrTypeMismatch, left, l.Kind())
	}

	return l, r, nil
}

// PopN removes the n topmost values and returns them bottom first.
func (o *OperandStack) PopN(n int) ([]value.Value, error) {
	if err := o.require(n); err != nil {
		return nil, err
	}
	top, _ := o.s.PopN(n)
	return top, nil
}
