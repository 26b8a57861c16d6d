package interpreter

import "wasmexec/pkg/ast"

// TraceFunc observes each executed instruction. It must not alter control
// flow.
type TraceFunc func(depth, pc int, in ast.Instruction)

// Frame is one execution context: a function body or a block/loop/if body.
type Frame struct {
	Code   []ast.Instruction // instruction sequence being executed
	Locals *Locals           // shared with every frame of the same activation
	Values *OperandStack     // operands owned by this frame
	PC     int               // index into Code of the current instruction
	Trace  TraceFunc         // optional; inherited by child frames
}

// NewFrame creates a root frame with an empty stack and no trace hook.
func NewFrame(code []ast.Instruction, locals *Locals) *Frame {
	if locals == nil {
		locals = NewLocals(0)
	}

	return &Frame{
		Code:   code,
		Locals: locals,
		Values: newOperandStack(),
	}
}

// Child creates a frame for a nested body sharing the locals and trace hook.
func (f *Frame) Child(code []ast.Instruction) *Frame {
	c := NewFrame(code, f.Locals)
	c.Trace = f.Trace
	return c
}
