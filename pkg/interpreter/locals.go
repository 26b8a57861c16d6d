package interpreter

import (
	"fmt"

	"wasmexec/pkg/value"
)

// Locals is the fixed-size local variable storage of one function
// activation. Every frame spawned during the activation refers to the same
// Locals, so writes from a nested body are seen by its parent.
type Locals struct {
	slots []value.Value
}

// NewLocals creates n unset local slots.
func NewLocals(n int) *Locals {
	return &Locals{slots: make([]value.Value, n)}
}

// NewLocalsFrom creates locals initialized with a copy of vals. Zero values
// stay unset.
func NewLocalsFrom(vals ...value.Value) *Locals {
	return &Locals{slots: append([]value.Value(nil), vals...)}
}

// Len returns the number of slots.
func (l *Locals) Len() int {
	return len(l.slots)
}

// Get reads the slot at index.
func (l *Locals) Get(index int) (value.Value, error) {
	if index < 0 || index >= len(l.slots) {
		return value.Value{}, fmt.Errorf("%w: %d (have %d)", ErrLocalOutOfRange, index, len(l.slots))
	}

	v := l.slots[index]
	if !v.IsValid() {
		return value.Value{}, fmt.Errorf("%w: no value at index %d", ErrLocalUnset, index)
	}

	return v, nil
}

// Set writes a numeric value into the slot at index.
func (l *Locals) Set(index int, v value.Value) error {
	if index < 0 || index >= len(l.slots) {
		return fmt.Errorf("%w: %d (have %d)", ErrLocalOutOfRange, index, len(l.slots))
	}

	if !v.Kind().IsNumeric() {
		return fmt.Errorf("%w: cannot store %s in local %d", ErrTypeMismatch, v.Kind(), index)
	}

	l.slots[index] = v
	return nil
}

// Values returns a copy of the slots.
func (l *Locals) Values() []value.Value {
	return append([]value.Value(nil), l.slots...)
}
