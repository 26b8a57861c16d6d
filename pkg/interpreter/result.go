package interpreter

import "wasmexec/pkg/value"

// Result is the outcome of evaluating a frame: a value, nothing, or a trap.
// The zero Result is "nothing".
type Result struct {
	value   value.Value
	has     bool
	trapped bool
}

// ValueResult returns a Result carrying v.
func ValueResult(v value.Value) Result {
	return Result{value: v, has: true}
}

// TrapResult returns the trapped outcome.
func TrapResult() Result {
	return Result{trapped: true}
}

// Trapped reports whether execution terminated abruptly.
func (r Result) Trapped() bool {
	return r.trapped
}

// Value returns the produced value, if any. A trapped Result has none.
func (r Result) Value() (value.Value, bool) {
	return r.value, r.has
}

func (r Result) String() string {
	switch {
	case r.trapped:
		return "trap"
	case r.has:
		return r.value.String()
	default:
		return "(none)"
	}
}
