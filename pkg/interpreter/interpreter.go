package interpreter

import (
	"errors"
	"fmt"

	"github.com/charmbracelet/log"

	"wasmexec/pkg/ast"
	"wasmexec/pkg/value"
)

const DefaultMaxDepth = 10000

// Interpreter evaluates instruction trees. Nested bodies run as recursive
// calls, bounded by the maximum depth. An Interpreter runs one invocation at
// a time.
type Interpreter struct {
	maxDepth int // deepest frame allowed (0 = unlimited)
	maxSteps int // maximum instructions per invocation (0 = unlimited)
	steps    int // instructions executed in the current invocation

	trace  TraceFunc
	logger *log.Logger
}

type Option func(*Interpreter)

// WithMaxDepth bounds the nesting depth of frames. n <= 0 removes the bound.
func WithMaxDepth(n int) Option {
	return func(i *Interpreter) { i.maxDepth = n }
}

// WithMaxSteps sets a maximum number of executed instructions per invocation
// before returning ErrMaxStepsExceeded
func WithMaxSteps(n int) Option {
	return func(i *Interpreter) { i.maxSteps = n }
}

// WithTrace installs a hook on the root frame of every invocation
func WithTrace(fn TraceFunc) Option {
	return func(i *Interpreter) { i.trace = fn }
}

// WithLogger sets the logger used for debug output
func WithLogger(l *log.Logger) Option {
	return func(i *Interpreter) { i.logger = l }
}

// NewInterpreter creates a new Interpreter instance
func NewInterpreter(opts ...Option) *Interpreter {
	it := &Interpreter{
		maxDepth: DefaultMaxDepth,
	}

	for _, o := range opts {
		o(it)
	}

	if it.logger == nil {
		it.logger = log.Default()
	}

	return it
}

// Exec runs body with the given locals using a default Interpreter
func Exec(body []ast.Instruction, locals ...value.Value) (Result, error) {
	return NewInterpreter().Invoke(body, NewLocalsFrom(locals...))
}

// Steps returns the number of instructions executed by the last invocation
func (i *Interpreter) Steps() int {
	return i.steps
}

// Invoke starts a function activation: it builds the root frame over body
// and locals and runs it at depth 0.
func (i *Interpreter) Invoke(body []ast.Instruction, locals *Locals) (Result, error) {
	i.steps = 0

	f := NewFrame(body, locals)
	f.Trace = i.trace

	res, err := i.Execute(f, 0)
	if err != nil {
		i.logger.Debug("Invocation aborted", "error", err, "steps", i.steps)
		return Result{}, err
	}

	i.logger.Debug("Invocation finished", "result", res, "steps", i.steps)
	return res, nil
}

// Execute evaluates the instruction sequence of f. It returns the value left
// on top of the operand stack, nothing, or the trapped outcome. Fatal errors
// are returned as *ExecError.
func (i *Interpreter) Execute(f *Frame, depth int) (Result, error) {
	if i.maxDepth > 0 && depth > i.maxDepth {
		i.logger.Debug("Depth guard hit", "depth", depth, "max", i.maxDepth)
		return Result{}, fmt.Errorf("%w: %d > %d", ErrMaxDepthExceeded, depth, i.maxDepth)
	}

	for f.PC < len(f.Code) {
		in := f.Code[f.PC]

		if i.maxSteps > 0 && i.steps >= i.maxSteps {
			return Result{}, i.wrap(fmt.Errorf("%w: %d", ErrMaxStepsExceeded, i.maxSteps), f, depth, in)
		}
		i.steps++

		trapped, err := i.step(f, depth, in)
		if err != nil {
			return Result{}, i.wrap(err, f, depth, in)
		}

		if trapped {
			return TrapResult(), nil
		}

		if f.Trace != nil {
			f.Trace(depth, f.PC, in)
		}

		f.PC++
	}

	if f.Values.Size() > 0 {
		v, _ := f.Values.Pop()
		return ValueResult(v), nil
	}

	return Result{}, nil
}

// wrap attaches the location of a fatal error unless an inner frame already did.
func (i *Interpreter) wrap(err error, f *Frame, depth int, in ast.Instruction) error {
	var ee *ExecError
	if errors.As(err, &ee) {
		return err
	}

	return &ExecError{Depth: depth, PC: f.PC, Opcode: in.Opcode(), Err: err}
}
